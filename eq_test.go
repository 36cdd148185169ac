package strsmt

import (
	"testing"
)

func TestReduceEq_FrontCancel(t *testing.T) {
	m, rw := newTestRewriter()
	x := m.Var("x", m.StringSort())
	y := m.Var("y", m.StringSort())

	t.Run("SharedLiteralPrefix", func(t *testing.T) {
		l := m.Concat(m.Str("ab"), x)
		r := m.Concat(m.Str("ab"), y)
		eqs, changed, ok := rw.ReduceEq(l, r)
		if !ok || !changed {
			t.Fatalf("expected progress: ok=%v changed=%v", ok, changed)
		}
		if len(eqs) != 1 || eqs[0].L != x || eqs[0].R != y {
			t.Fatalf("unexpected residual: %v", eqs)
		}
	})
	t.Run("LiteralClash", func(t *testing.T) {
		l := m.Concat(m.Str("ab"), x)
		r := m.Concat(m.Str("ac"), y)
		_, _, ok := rw.ReduceEq(l, r)
		if ok {
			t.Fatal("expected refutation")
		}
	})
	t.Run("UnitEmitsCharEquality", func(t *testing.T) {
		c := m.Var("c", m.CharSort())
		l := m.Concat(m.SeqUnit(c), x)
		r := m.Concat(m.Str("q"), x)
		eqs, _, ok := rw.ReduceEq(l, r)
		if !ok {
			t.Fatal("expected success")
		}
		found := false
		for _, eq := range eqs {
			if (eq.L == m.Char('q') && eq.R == c) || (eq.L == c && eq.R == m.Char('q')) {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing character equality in %v", eqs)
		}
	})
}

func TestReduceEq_BackCancel(t *testing.T) {
	m, rw := newTestRewriter()
	x := m.Var("x", m.StringSort())
	y := m.Var("y", m.StringSort())
	l := m.Concat(x, m.Str("fix"))
	r := m.Concat(y, m.Str("fix"))
	eqs, changed, ok := rw.ReduceEq(l, r)
	if !ok || !changed {
		t.Fatalf("expected progress: ok=%v changed=%v", ok, changed)
	}
	if len(eqs) != 1 || eqs[0].L != x || eqs[0].R != y {
		t.Fatalf("unexpected residual: %v", eqs)
	}
}

func TestReduceEq_Itos(t *testing.T) {
	m, rw := newTestRewriter()
	n := m.Var("n", m.IntSort())

	t.Run("Match", func(t *testing.T) {
		eqs, changed, ok := rw.ReduceEq(m.Itos(n), m.Str("42"))
		if !ok || !changed {
			t.Fatalf("expected progress: ok=%v changed=%v", ok, changed)
		}
		if len(eqs) != 1 || eqs[0].L != n || eqs[0].R != m.Int(42) {
			t.Fatalf("unexpected residual: %v", eqs)
		}
	})
	t.Run("LeadingZeroRefutes", func(t *testing.T) {
		_, _, ok := rw.ReduceEq(m.Itos(n), m.Str("042"))
		if ok {
			t.Fatal("expected refutation")
		}
	})
	t.Run("NonDigitRefutes", func(t *testing.T) {
		_, _, ok := rw.ReduceEq(m.Itos(n), m.Str("4a"))
		if ok {
			t.Fatal("expected refutation")
		}
	})
}

func TestReduceEq_LengthPruning(t *testing.T) {
	m, rw := newTestRewriter()
	x := m.Var("x", m.StringSort())

	t.Run("ShorterSideRefutes", func(t *testing.T) {
		_, _, ok := rw.ReduceEq(m.Str("ab"), m.Concat(m.Str("abc"), x))
		if ok {
			t.Fatal("expected refutation")
		}
	})
	t.Run("EqualBudgetEmptiesVars", func(t *testing.T) {
		// "ab" = "a" ++ x ++ "b" forces x = "".
		l := m.Str("ab")
		r := m.Concat(m.Str("a"), m.Concat(x, m.Str("b")))
		eqs, changed, ok := rw.ReduceEq(l, r)
		if !ok || !changed {
			t.Fatalf("expected progress: ok=%v changed=%v", ok, changed)
		}
		foundEmpty := false
		for _, eq := range eqs {
			if (IsEmptySeq(eq.L) && eq.R == x) || (IsEmptySeq(eq.R) && eq.L == x) {
				foundEmpty = true
			}
		}
		if !foundEmpty {
			t.Fatalf("variable not forced empty: %v", eqs)
		}
	})
}

func TestReduceEq_ValueClash(t *testing.T) {
	m, rw := newTestRewriter()
	x := m.Var("x", m.StringSort())

	t.Run("PermutedUnitsRefute", func(t *testing.T) {
		// x ++ 'a' = 'b' ++ x: neither end peels, and once x is paired with
		// x the unmatched atoms are the distinct value units 'a' and 'b'.
		l := m.Concat(x, m.SeqUnit(m.Char('a')))
		r := m.Concat(m.SeqUnit(m.Char('b')), x)
		_, _, ok := rw.ReduceEq(l, r)
		if ok {
			t.Fatal("expected refutation")
		}
	})
}

func TestReduceEq_Scenario(t *testing.T) {
	// concat(unit('a'), x) = concat(y, unit('b')) must not be refuted.
	m, rw := newTestRewriter()
	x := m.Var("x", m.StringSort())
	y := m.Var("y", m.StringSort())
	l := m.Concat(m.SeqUnit(m.Char('a')), x)
	r := m.Concat(y, m.SeqUnit(m.Char('b')))
	eqs, changed, ok := rw.ReduceEq(l, r)
	if !ok {
		t.Fatal("must not refute a satisfiable equation")
	}
	if changed {
		t.Fatalf("no stage should fire here, got %v", eqs)
	}
}

func TestReduceEq_NonOverlap(t *testing.T) {
	m, rw := newTestRewriter()
	x := m.Var("x", m.StringSort())
	y := m.Var("y", m.StringSort())
	unit := func(c rune) *Term { return m.SeqUnit(m.Char(int64(c))) }

	// x ++ "ab" ++ y = "cdc" as units: the pattern "ab" cannot occur.
	l := m.Concat(x, m.Concat(unit('a'), m.Concat(unit('b'), y)))
	r := m.Concat(unit('c'), m.Concat(unit('d'), unit('c')))
	_, _, ok := rw.ReduceEq(l, r)
	if ok {
		t.Fatal("expected refutation by non-overlap")
	}
}

func TestNonOverlapStrings(t *testing.T) {
	cases := []struct {
		p, q string
		want bool
	}{
		{"ab", "cd", true},
		{"ab", "ba", false},  // suffix "b"... prefix overlap at boundary
		{"aba", "bab", false},
		{"xx", "yxy", true},
		{"q", "zzz", true},
	}
	for _, c := range cases {
		if got := nonOverlapStrings(c.p, c.q); got != c.want {
			t.Fatalf("nonOverlap(%q, %q) = %v, want %v", c.p, c.q, got, c.want)
		}
	}
}

func TestApplyEq(t *testing.T) {
	m, rw := newTestRewriter()
	x := m.Var("x", m.StringSort())
	t.Run("RefutedEquationIsFalse", func(t *testing.T) {
		st, r := rw.Apply(m.Eq(m.Concat(m.Str("ab"), x), m.Concat(m.Str("cd"), x)))
		if st == Failed || !IsFalse(r) {
			t.Fatalf("unexpected: %s %v", st, r)
		}
	})
	t.Run("ResidualEqualities", func(t *testing.T) {
		y := m.Var("y", m.StringSort())
		st, r := rw.Apply(m.Eq(m.Concat(m.Str("ab"), x), m.Concat(m.Str("ab"), y)))
		if st != RewriteFull {
			t.Fatalf("unexpected status: %s", st)
		}
		if r != m.Eq(x, y) {
			t.Fatalf("unexpected residual: %s", r)
		}
	})
}
