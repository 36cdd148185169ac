package strsmt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReToAut_Basic(t *testing.T) {
	m, rw := newTestRewriter()
	ss := m.StringSort()

	accepts := func(t *testing.T, r *Term, word string, want bool) {
		t.Helper()
		aut, ok := rw.ReToAut(r)
		require.True(t, ok, "translation failed for %s", r)
		require.Equal(t, want, aut.AcceptsString(word), "%s on %q", r, word)
	}

	t.Run("Literal", func(t *testing.T) {
		r := m.ToRe(m.Str("ab"))
		accepts(t, r, "ab", true)
		accepts(t, r, "a", false)
		accepts(t, r, "abc", false)
	})
	t.Run("Union", func(t *testing.T) {
		r := m.ReUnion(m.ToRe(m.Str("a")), m.ToRe(m.Str("bc")))
		accepts(t, r, "a", true)
		accepts(t, r, "bc", true)
		accepts(t, r, "b", false)
	})
	t.Run("Concat", func(t *testing.T) {
		r := m.ReConcat(m.ToRe(m.Str("a")), m.ToRe(m.Str("b")))
		accepts(t, r, "ab", true)
		accepts(t, r, "ba", false)
	})
	t.Run("Star", func(t *testing.T) {
		r := m.ReStar(m.ToRe(m.Str("ab")))
		accepts(t, r, "", true)
		accepts(t, r, "abab", true)
		accepts(t, r, "aba", false)
	})
	t.Run("Plus", func(t *testing.T) {
		r := m.RePlus(m.ToRe(m.Str("a")))
		accepts(t, r, "", false)
		accepts(t, r, "aaa", true)
	})
	t.Run("Opt", func(t *testing.T) {
		r := m.ReOpt(m.ToRe(m.Str("a")))
		accepts(t, r, "", true)
		accepts(t, r, "a", true)
		accepts(t, r, "aa", false)
	})
	t.Run("Range", func(t *testing.T) {
		r := m.ReRange(m.Str("a"), m.Str("f"))
		accepts(t, r, "c", true)
		accepts(t, r, "z", false)
		accepts(t, r, "cc", false)
	})
	t.Run("FullSeq", func(t *testing.T) {
		r := m.ReFull(ss)
		accepts(t, r, "", true)
		accepts(t, r, "anything", true)
	})
	t.Run("Empty", func(t *testing.T) {
		r := m.ReEmpty(ss)
		accepts(t, r, "", false)
	})
}

func TestReToAut_Product(t *testing.T) {
	m, rw := newTestRewriter()
	// (ab)* ∩ a..* over length two: only "ab" survives.
	r := m.ReInter(
		m.ReStar(m.ToRe(m.Str("ab"))),
		m.ReConcat(m.ToRe(m.Str("a")), m.ReFullChar(m.StringSort())))
	aut, ok := rw.ReToAut(r)
	require.True(t, ok)
	require.True(t, aut.AcceptsString("ab"))
	require.False(t, aut.AcceptsString("aa"))
	require.False(t, aut.AcceptsString(""))
	require.False(t, aut.AcceptsString("abab"))
}

func TestReToAut_Loop(t *testing.T) {
	m, rw := newTestRewriter()
	r := m.ReLoop(m.ToRe(m.Str("a")), 1, 3)
	aut, ok := rw.ReToAut(r)
	require.True(t, ok)
	require.False(t, aut.AcceptsString(""))
	require.True(t, aut.AcceptsString("a"))
	require.True(t, aut.AcceptsString("aaa"))
	require.False(t, aut.AcceptsString("aaaa"))
}

func TestReToAut_Complement(t *testing.T) {
	m, rw := newTestRewriter()
	r := m.ReComplement(m.ToRe(m.Str("ab")))
	aut, ok := rw.ReToAut(r)
	require.True(t, ok)
	require.False(t, aut.AcceptsString("ab"))
	require.True(t, aut.AcceptsString(""))
	require.True(t, aut.AcceptsString("a"))
	require.True(t, aut.AcceptsString("ba"))
}

func TestReToAut_Unsupported(t *testing.T) {
	m, rw := newTestRewriter()
	ss := m.StringSort()
	t.Run("SymbolicLiteral", func(t *testing.T) {
		_, ok := rw.ReToAut(m.ToRe(m.Var("s", ss)))
		require.False(t, ok)
	})
	t.Run("DerivativeLeaf", func(t *testing.T) {
		v := m.Var("r", m.ReSort(ss))
		_, ok := rw.ReToAut(m.ReDerivative(m.Char('a'), v))
		require.False(t, ok)
	})
}

func TestAutomatonAgreesWithMatcher(t *testing.T) {
	m, rw := newTestRewriter()
	regexes := []*Term{
		m.ReStar(m.ReUnion(m.ToRe(m.Str("a")), m.ToRe(m.Str("bb")))),
		m.ReConcat(m.ReRange(m.Str("a"), m.Str("c")), m.ReStar(m.ToRe(m.Str("a")))),
		m.ReInter(m.ReStar(m.ToRe(m.Str("a"))), m.RePlus(m.ToRe(m.Str("a")))),
	}
	for _, r := range regexes {
		aut, ok := rw.ReToAut(r)
		require.True(t, ok, "translation failed for %s", r)
		for _, w := range allWords("ab", 4) {
			want, ok := reMatches(r, w, nil)
			require.True(t, ok)
			require.Equal(t, want, aut.AcceptsString(w), "%s on %q", r, w)
		}
	}
}
