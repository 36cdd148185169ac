package strsmt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// randRe generates a bounded random ground regex over the alphabet a..c.
func randRe(m *Manager, rnd *rand.Rand, depth int) *Term {
	ss := m.StringSort()
	if depth <= 0 {
		switch rnd.Intn(6) {
		case 0:
			return m.ReEmpty(ss)
		case 1:
			return m.ReEpsilon(ss)
		case 2:
			return m.ReFullChar(ss)
		case 3:
			return m.ReRange(m.Str("a"), m.Str("b"))
		default:
			word := make([]rune, rnd.Intn(3))
			for i := range word {
				word[i] = rune('a' + rnd.Intn(3))
			}
			return m.ToRe(m.Str(string(word)))
		}
	}
	switch rnd.Intn(8) {
	case 0:
		return m.ReUnion(randRe(m, rnd, depth-1), randRe(m, rnd, depth-1))
	case 1:
		return m.ReInter(randRe(m, rnd, depth-1), randRe(m, rnd, depth-1))
	case 2:
		return m.ReConcat(randRe(m, rnd, depth-1), randRe(m, rnd, depth-1))
	case 3:
		return m.ReStar(randRe(m, rnd, depth-1))
	case 4:
		return m.ReComplement(randRe(m, rnd, depth-1))
	case 5:
		lo := int64(rnd.Intn(3))
		return m.ReLoop(randRe(m, rnd, depth-1), lo, lo+int64(rnd.Intn(2)))
	case 6:
		return m.ReOpt(randRe(m, rnd, depth-1))
	default:
		return m.RePlus(randRe(m, rnd, depth-1))
	}
}

// normalizeRe runs the regex rewriter over a raw random term so the
// derivative engine sees canonical inputs.
func normalizeRe(rw *Rewriter, r *Term) *Term {
	return rw.Simplify(r)
}

func allWords(alpha string, maxLen int) []string {
	words := []string{""}
	frontier := []string{""}
	for l := 0; l < maxLen; l++ {
		var next []string
		for _, w := range frontier {
			for _, c := range alpha {
				next = append(next, w+string(c))
			}
		}
		words = append(words, next...)
		frontier = next
	}
	return words
}

func TestDerivative_Correctness(t *testing.T) {
	m, rw := newTestRewriter()
	rnd := rand.New(rand.NewSource(11))
	words := allWords("abc", 3)

	for i := 0; i < 60; i++ {
		r := normalizeRe(rw, randRe(m, rnd, 3))
		for _, c := range "abc" {
			d := rw.Derivative(m.Char(int64(c)), r)
			for _, w := range words {
				inOrig, ok1 := reMatches(r, string(c)+w, nil)
				inDer, ok2 := reMatches(d, w, nil)
				require.True(t, ok1, "original not evaluable: %s", r)
				require.True(t, ok2, "derivative not evaluable: %s", d)
				require.Equal(t, inOrig, inDer,
					"derivative mismatch: R=%s c=%c w=%q D=%s", r, c, w, d)
			}
		}
	}
}

func TestNullability_Correctness(t *testing.T) {
	m, rw := newTestRewriter()
	rnd := rand.New(rand.NewSource(13))
	for i := 0; i < 200; i++ {
		r := normalizeRe(rw, randRe(m, rnd, 3))
		n := rw.IsNullable(r)
		require.True(t, IsTrue(n) || IsFalse(n), "ground nullability must fold: %s -> %s", r, n)
		want, ok := reMatches(r, "", nil)
		require.True(t, ok)
		require.Equal(t, want, IsTrue(n), "nullability mismatch for %s", r)
	}
}

// checkNormalForm asserts the structural derivative invariants: no diff,
// opt, or plus nodes; Antimirov unions only above the BDD layer; condition
// ids strictly decreasing from the root of each BDD down.
func checkNormalForm(t *testing.T, d *Term) {
	t.Helper()
	var noBanned func(*Term)
	noBanned = func(x *Term) {
		switch x.Kind {
		case KindReDiff, KindReOpt, KindRePlus:
			t.Fatalf("banned node %s inside normal form %s", x.Kind, d)
		}
		for _, a := range x.Args {
			noBanned(a)
		}
	}
	noBanned(d)

	var checkBdd func(x *Term, bound uint64)
	var checkLeaf func(x *Term)
	checkLeaf = func(x *Term) {
		if x.Kind == KindReAntimirovUnion {
			t.Fatalf("antimirov union below the BDD layer:\n%s", DumpTerm(d))
		}
		for _, a := range x.Args {
			checkLeaf(a)
		}
	}
	checkBdd = func(x *Term, bound uint64) {
		if x.Kind == KindIte {
			cond := x.Args[0]
			if bound != 0 && cond.ID >= bound {
				t.Fatalf("condition ids not strictly decreasing in %s", d)
			}
			checkBdd(x.Args[1], cond.ID)
			checkBdd(x.Args[2], cond.ID)
			return
		}
		checkLeaf(x)
	}
	members := reAtoms(KindReAntimirovUnion, d)
	for _, mem := range members {
		checkBdd(mem, 0)
	}
}

func TestDerivative_NormalForm(t *testing.T) {
	m, rw := newTestRewriter()
	rnd := rand.New(rand.NewSource(17))
	elem := m.Var("e", m.CharSort())
	for i := 0; i < 120; i++ {
		r := normalizeRe(rw, randRe(m, rnd, 3))
		d := rw.Derivative(elem, r)
		checkNormalForm(t, d)
	}
}

func TestDerivative_SymbolicString(t *testing.T) {
	m, rw := newTestRewriter()
	s := m.Var("s", m.StringSort())
	elem := m.Var("e", m.CharSort())
	d := rw.Derivative(elem, m.ToRe(s))
	checkNormalForm(t, d)
	// The derivative must branch on the first element of s.
	require.Equal(t, KindIte, d.Kind, "expected a conditional derivative, got %s", d)
}

func TestDerivative_Cases(t *testing.T) {
	m, rw := newTestRewriter()
	ss := m.StringSort()
	a := m.Char('a')

	t.Run("Epsilon", func(t *testing.T) {
		require.Equal(t, m.ReEmpty(ss), rw.Derivative(a, m.ReEpsilon(ss)))
	})
	t.Run("Full", func(t *testing.T) {
		require.Equal(t, m.ReFull(ss), rw.Derivative(a, m.ReFull(ss)))
	})
	t.Run("AllChar", func(t *testing.T) {
		require.Equal(t, m.ReEpsilon(ss), rw.Derivative(a, m.ReFullChar(ss)))
	})
	t.Run("Literal", func(t *testing.T) {
		d := rw.Derivative(a, m.ToRe(m.Str("ab")))
		require.Equal(t, m.ToRe(m.Str("b")), d)
	})
	t.Run("LiteralMiss", func(t *testing.T) {
		d := rw.Derivative(m.Char('z'), m.ToRe(m.Str("ab")))
		require.Equal(t, m.ReEmpty(ss), d)
	})
	t.Run("RangeHit", func(t *testing.T) {
		d := rw.Derivative(m.Char('b'), normalizeRe(rw, m.ReRange(m.Str("a"), m.Str("c"))))
		require.Equal(t, m.ReEpsilon(ss), d)
	})
	t.Run("RangeMiss", func(t *testing.T) {
		d := rw.Derivative(m.Char('x'), normalizeRe(rw, m.ReRange(m.Str("a"), m.Str("c"))))
		require.Equal(t, m.ReEmpty(ss), d)
	})
	t.Run("DegenerateLoop", func(t *testing.T) {
		r := m.ReLoop(m.ToRe(m.Str("a")), 0, 0)
		require.Equal(t, m.ReEmpty(ss), rw.Derivative(a, r))
	})
	t.Run("UninterpretedLeaf", func(t *testing.T) {
		v := m.Var("r", m.ReSort(ss))
		d := rw.Derivative(a, v)
		require.Equal(t, KindReDerivative, d.Kind)
	})
}

func TestSimplifyPath(t *testing.T) {
	m, rw := newTestRewriter()
	e := m.Var("e", m.CharSort())

	t.Run("EmptyInterval", func(t *testing.T) {
		phi := m.And(m.CharLe(m.Char('p'), e), m.CharLe(e, m.Char('c')))
		require.True(t, IsFalse(rw.simplifyPath(e, phi)))
	})
	t.Run("FreeElement", func(t *testing.T) {
		phi := m.And(m.CharLe(m.Char('a'), e), m.CharLe(e, m.Char('z')))
		require.True(t, IsTrue(rw.simplifyPath(e, phi)))
	})
	t.Run("ExcludedPoint", func(t *testing.T) {
		phi := m.And(
			m.CharLe(m.Char('q'), e),
			m.CharLe(e, m.Char('q')),
			m.Not(m.Eq(e, m.Char('q'))))
		require.True(t, IsFalse(rw.simplifyPath(e, phi)))
	})
	t.Run("Substitution", func(t *testing.T) {
		v := m.Var("v", m.CharSort())
		phi := m.And(m.Eq(e, v), m.CharLe(m.Char('a'), e))
		got := rw.simplifyPath(e, phi)
		require.NotEqual(t, m.False(), got)
	})
}

func TestPredImplies(t *testing.T) {
	m, _ := newTestRewriter()
	e := m.Var("e", m.CharSort())
	le5 := m.CharLe(e, m.Char(5))
	le9 := m.CharLe(e, m.Char(9))
	require.True(t, predImplies(le5, false, le9, false))
	require.False(t, predImplies(le9, false, le5, false))
	require.True(t, predImplies(le9, true, le5, true))
	require.True(t, predImplies(le5, false, le5, false))
}

func TestDerivativeCaching(t *testing.T) {
	m, rw := newTestRewriter()
	elem := m.Var("e", m.CharSort())
	r := normalizeRe(rw, m.ReStar(m.ToRe(m.Str("ab"))))
	d1 := rw.Derivative(elem, r)
	d2 := rw.Derivative(elem, r)
	require.Same(t, d1, d2, "cache must return the identical term")

	rw.ClearCache()
	d3 := rw.Derivative(elem, r)
	require.Same(t, d1, d3, "results must not depend on the cache")
}
