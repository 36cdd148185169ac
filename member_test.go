package strsmt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStrInRegexp(t *testing.T) {
	m, rw := newTestRewriter()
	ss := m.StringSort()
	x := m.Var("x", m.StringSort())

	t.Run("EmptyLanguage", func(t *testing.T) {
		got := rw.Simplify(m.InRe(x, m.ReEmpty(ss)))
		if !IsFalse(got) {
			t.Fatalf("unexpected result: %s", got)
		}
	})
	t.Run("FullLanguage", func(t *testing.T) {
		got := rw.Simplify(m.InRe(x, m.ReFull(ss)))
		if !IsTrue(got) {
			t.Fatalf("unexpected result: %s", got)
		}
	})
	t.Run("GroundScenario", func(t *testing.T) {
		// "abc" ∈ to_re("a") · range("a","c")* closes by derivatives.
		r := m.ReConcat(m.ToRe(m.Str("a")), m.ReStar(m.ReRange(m.Str("a"), m.Str("c"))))
		got := rw.Simplify(m.InRe(m.Str("abc"), r))
		if !IsTrue(got) {
			t.Fatalf("unexpected result: %s", got)
		}
	})
	t.Run("GroundMiss", func(t *testing.T) {
		r := m.ReConcat(m.ToRe(m.Str("a")), m.ReStar(m.ReRange(m.Str("a"), m.Str("c"))))
		got := rw.Simplify(m.InRe(m.Str("xbc"), r))
		if !IsFalse(got) {
			t.Fatalf("unexpected result: %s", got)
		}
	})
	t.Run("ToReIsEquality", func(t *testing.T) {
		st, got := rw.mkStrInRegexp(x, m.ToRe(m.Str("ab")))
		if st != RewriteFull {
			t.Fatalf("unexpected status: %s", st)
		}
		if got != m.Eq(x, m.Str("ab")) {
			t.Fatalf("unexpected result: %s", got)
		}
	})
	t.Run("ContainsPattern", func(t *testing.T) {
		u := m.Str("ab")
		r := m.ReConcat(m.ReFull(ss), m.ReConcat(m.ToRe(u), m.ReFull(ss)))
		st, got := rw.mkStrInRegexp(x, r)
		if st == Failed || got != m.Contains(x, u) {
			t.Fatalf("unexpected: %s %v", st, got)
		}
	})
	t.Run("PrefixPattern", func(t *testing.T) {
		u := m.Str("ab")
		r := m.ReConcat(m.ToRe(u), m.ReFull(ss))
		st, got := rw.mkStrInRegexp(x, r)
		if st == Failed || got != m.PrefixOf(u, x) {
			t.Fatalf("unexpected: %s %v", st, got)
		}
	})
	t.Run("SuffixPattern", func(t *testing.T) {
		u := m.Str("ab")
		r := m.ReConcat(m.ReFull(ss), m.ToRe(u))
		st, got := rw.mkStrInRegexp(x, r)
		if st == Failed || got != m.SuffixOf(u, x) {
			t.Fatalf("unexpected: %s %v", st, got)
		}
	})
	t.Run("Optional", func(t *testing.T) {
		r := m.ReOpt(m.ToRe(m.Str("ab")))
		st, got := rw.mkStrInRegexp(x, r)
		if st != RewriteFull {
			t.Fatalf("unexpected status: %s", st)
		}
		if got.Kind != KindIte {
			t.Fatalf("expected a length guard, got %s", got)
		}
	})
	t.Run("EmptySubject", func(t *testing.T) {
		r := m.ReStar(m.ToRe(m.Str("ab")))
		st, got := rw.mkStrInRegexp(m.Str(""), r)
		if st == Failed || !IsTrue(got) {
			t.Fatalf("unexpected: %s %v", st, got)
		}
	})
	t.Run("HeadPeel", func(t *testing.T) {
		r := m.ReStar(m.ToRe(m.Str("ab")))
		in := m.InRe(m.Concat(m.Str("ab"), x), r)
		got := rw.Simplify(in)
		// Peeling "ab" off returns to the same star state.
		want := rw.Simplify(m.InRe(x, r))
		if got != want {
			t.Fatalf("got %s, want %s", got, want)
		}
	})
}

func TestSomeStringInRe(t *testing.T) {
	m, rw := newTestRewriter()
	ss := m.StringSort()

	t.Run("Literal", func(t *testing.T) {
		s, res := rw.SomeStringInRe(m.ToRe(m.Str("hello")))
		if res != SampleFound {
			t.Fatalf("unexpected result: %v", res)
		}
		if diff := cmp.Diff("hello", s); diff != "" {
			t.Fatal(diff)
		}
	})
	t.Run("NullableImmediately", func(t *testing.T) {
		s, res := rw.SomeStringInRe(rw.mkReStar(m.ToRe(m.Str("ab"))))
		if res != SampleFound || s != "" {
			t.Fatalf("unexpected: %q %v", s, res)
		}
	})
	t.Run("Empty", func(t *testing.T) {
		_, res := rw.SomeStringInRe(m.ReEmpty(ss))
		if res != SampleEmpty {
			t.Fatalf("unexpected result: %v", res)
		}
	})
	t.Run("EmptyIntersection", func(t *testing.T) {
		r := rw.mkReInter(m.ToRe(m.Str("a")), m.ToRe(m.Str("b")))
		_, res := rw.SomeStringInRe(r)
		if res != SampleEmpty {
			t.Fatalf("unexpected result: %v", res)
		}
	})
	t.Run("RangeMember", func(t *testing.T) {
		r := m.ReRange(m.Str("p"), m.Str("q"))
		s, res := rw.SomeStringInRe(r)
		if res != SampleFound {
			t.Fatalf("unexpected result: %v", res)
		}
		if len(s) != 1 || (s != "p" && s != "q") {
			t.Fatalf("sampled word outside the range: %q", s)
		}
	})
	t.Run("FoundWordIsMember", func(t *testing.T) {
		regexes := []*Term{
			m.ReConcat(m.ToRe(m.Str("ab")), m.ReStar(m.ToRe(m.Str("c")))),
			rw.mkReUnion(m.ToRe(m.Str("x")), m.ToRe(m.Str("yz"))),
			m.ReConcat(m.ReRange(m.Str("a"), m.Str("c")), m.ToRe(m.Str("!"))),
		}
		for _, r := range regexes {
			s, res := rw.SomeStringInRe(r)
			if res != SampleFound {
				t.Fatalf("no word found for %s: %v", r, res)
			}
			in, ok := reMatches(r, s, nil)
			if !ok || !in {
				t.Fatalf("sampled word %q not in %s", s, r)
			}
		}
	})
	t.Run("Uninterpreted", func(t *testing.T) {
		v := m.Var("r", m.ReSort(ss))
		_, res := rw.SomeStringInRe(m.ReConcat(m.ToRe(m.Str("a")), v))
		if res != SampleUnknown {
			t.Fatalf("unexpected result: %v", res)
		}
	})
}

func TestGetBounds(t *testing.T) {
	m, _ := newTestRewriter()
	e := m.Var("e", m.CharSort())

	t.Run("Range", func(t *testing.T) {
		phi := m.And(m.CharLe(m.Char('a'), e), m.CharLe(e, m.Char('f')))
		lo, hi, ok := getBounds(phi, e)
		if !ok || lo != 'a' || hi != 'f' {
			t.Fatalf("unexpected: %d %d %v", lo, hi, ok)
		}
	})
	t.Run("Equality", func(t *testing.T) {
		phi := m.Eq(e, m.Char('q'))
		lo, hi, ok := getBounds(phi, e)
		if !ok || lo != 'q' || hi != 'q' {
			t.Fatalf("unexpected: %d %d %v", lo, hi, ok)
		}
	})
	t.Run("Contradiction", func(t *testing.T) {
		phi := m.And(m.CharLe(m.Char('f'), e), m.CharLe(e, m.Char('a')))
		_, _, ok := getBounds(phi, e)
		if ok {
			t.Fatal("expected failure on an empty interval")
		}
	})
	t.Run("Foreign", func(t *testing.T) {
		y := m.Var("y", m.CharSort())
		phi := m.CharLe(y, m.Char('a'))
		_, _, ok := getBounds(phi, e)
		if ok {
			t.Fatal("expected failure on a foreign variable")
		}
	})
}

func TestReMaxLength(t *testing.T) {
	m, rw := newTestRewriter()
	ss := m.StringSort()
	if b, n := rw.reMaxLength(m.ToRe(m.Str("abc"))); !b || n != 3 {
		t.Fatalf("unexpected: %v %d", b, n)
	}
	if b, _ := rw.reMaxLength(m.ReStar(m.ToRe(m.Str("a")))); b {
		t.Fatal("star must be unbounded")
	}
	if b, n := rw.reMaxLength(m.ReLoop(m.ReFullChar(ss), 1, 4)); !b || n != 4 {
		t.Fatalf("unexpected: %v %d", b, n)
	}
}
