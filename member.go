package strsmt

import (
	"github.com/benbjohnson/immutable"
)

// Membership rewriting: s ∈ R is closed by peeling characters off s through
// the derivative engine, plus syntactic shortcuts for the common
// contains/prefix/suffix shapes.

// mkStrInRegexp rewrites the membership atom a ∈ b.
func (rw *Rewriter) mkStrInRegexp(a, b *Term) (Status, *Term) {
	m := rw.mgr

	if b.Kind == KindReEmpty {
		return Done, m.False()
	}
	if b.Kind == KindReFull {
		return Done, m.True()
	}

	// Ground membership of a literal closes by iterated derivative.
	if s, ok := StrVal(a); ok && isGroundRe(b) {
		r := b
		for _, c := range s {
			if r.Kind == KindReEmpty {
				return Done, m.False()
			}
			r = rw.Derivative(m.Char(int64(c)), r)
		}
		switch n := rw.isNullable(r); {
		case IsTrue(n):
			return Done, m.True()
		case IsFalse(n):
			return Done, m.False()
		}
	}

	if b.Kind == KindReToRe {
		return RewriteFull, m.Eq(a, b.Args[0])
	}
	if b.Kind == KindReConcat {
		c, d := b.Args[0], b.Args[1]
		if c.Kind == KindReToRe && d.Kind == KindReFull {
			return Rewrite1, m.PrefixOf(c.Args[0], a)
		}
		if c.Kind == KindReFull && d.Kind == KindReToRe {
			return Rewrite1, m.SuffixOf(d.Args[0], a)
		}
		if c.Kind == KindReFull && d.Kind == KindReConcat &&
			d.Args[0].Kind == KindReToRe && d.Args[1].Kind == KindReFull {
			return Rewrite2, m.Contains(a, d.Args[0].Args[0])
		}
	}

	if b1, ok := stripOptional(b); ok {
		return RewriteFull, m.Ite(
			m.Eq(m.Length(a), m.Int(0)),
			m.True(),
			m.InRe(a, b1))
	}

	if IsEmptySeq(a) {
		n := rw.isNullable(b)
		if n.Kind == KindSeqInRe {
			return Done, n
		}
		return RewriteFull, n
	}

	if hd, tl, ok := headTail(m, a); ok {
		d := rw.Derivative(hd, b)
		return RewriteFull, rw.mkInDeriv(tl, d)
	}

	if hd, tl, ok := headTailReversed(m, a); ok {
		d := rw.Derivative(tl, rw.mkRegexReverse(b))
		return RewriteFull, m.InRe(hd, rw.mkRegexReverse(d))
	}

	// A regex prefix of known fixed length splits the subject.
	if b.Kind == KindReConcat {
		hd, tl := b.Args[0], b.Args[1]
		n := rw.reMinLength(hd)
		if bounded, max := rw.reMaxLength(hd); bounded && max == n && n > 0 {
			lenHd := m.Int(n)
			lenA := m.Length(a)
			return RewriteFull, m.And(
				m.Ge(lenA, lenHd),
				m.InRe(m.Extract(a, m.Int(0), lenHd), hd),
				m.InRe(m.Extract(a, lenHd, m.Sub(lenA, lenHd)), tl))
		}
	}

	return Failed, nil
}

// stripOptional recognizes R? and R ∪ ε.
func stripOptional(b *Term) (*Term, bool) {
	if b.Kind == KindReOpt {
		return b.Args[0], true
	}
	if b.Kind == KindReUnion {
		if isEpsilonRe(b.Args[0]) {
			return b.Args[1], true
		}
		if isEpsilonRe(b.Args[1]) {
			return b.Args[0], true
		}
	}
	return nil, false
}

// headTail splits a into its first element and the remainder.
func headTail(m *Manager, a *Term) (hd, tl *Term, ok bool) {
	switch a.Kind {
	case KindSeqUnit:
		return a.Args[0], m.SeqEmpty(a.Sort), true
	case KindSeqString:
		rs := []rune(a.Str)
		return m.Char(int64(rs[0])), m.Str(string(rs[1:])), true
	case KindSeqConcat:
		h, t := a.Args[0], a.Args[1]
		if h.Kind == KindSeqUnit {
			return h.Args[0], t, true
		}
		if s, isStr := StrVal(h); isStr && s != "" {
			rs := []rune(s)
			return m.Char(int64(rs[0])), m.Concat(m.Str(string(rs[1:])), t), true
		}
	}
	return nil, nil, false
}

// headTailReversed splits a into everything but the last element and the
// last element.
func headTailReversed(m *Manager, a *Term) (hd, last *Term, ok bool) {
	if a.Kind != KindSeqConcat {
		return nil, nil, false
	}
	atoms := flattenConcat(a)
	end := atoms[len(atoms)-1]
	switch {
	case end.Kind == KindSeqUnit:
		return concatOrEmpty(m, atoms[:len(atoms)-1], a.Sort), end.Args[0], true
	}
	if s, isStr := StrVal(end); isStr && s != "" {
		rs := []rune(s)
		rest := append(append([]*Term{}, atoms[:len(atoms)-1]...), m.Str(string(rs[:len(rs)-1])))
		return concatOrEmpty(m, rest, a.Sort), m.Char(int64(rs[len(rs)-1])), true
	}
	return nil, nil, false
}

func concatOrEmpty(m *Manager, es []*Term, sort *Sort) *Term {
	es = dropEmptyAtoms(es)
	if len(es) == 0 {
		return m.SeqEmpty(sort)
	}
	r := es[len(es)-1]
	for i := len(es) - 2; i >= 0; i-- {
		r = m.Concat(es[i], r)
	}
	return r
}

// mkInDeriv turns membership of s in a normal-form derivative into a
// Boolean formula, pushing the membership atom down to the leaves.
func (rw *Rewriter) mkInDeriv(s, d *Term) *Term {
	m := rw.mgr
	switch d.Kind {
	case KindReEmpty:
		return m.False()
	case KindReFull:
		return m.True()
	case KindReAntimirovUnion, KindReUnion:
		return m.Or(rw.mkInDeriv(s, d.Args[0]), rw.mkInDeriv(s, d.Args[1]))
	case KindIte:
		return m.Ite(d.Args[0], rw.mkInDeriv(s, d.Args[1]), rw.mkInDeriv(s, d.Args[2]))
	}
	return m.InRe(s, d)
}

// isGroundRe returns true if r contains no uninterpreted subterms.
func isGroundRe(r *Term) bool {
	if r.Kind == KindVar {
		return false
	}
	for _, a := range r.Args {
		if !isGroundRe(a) {
			return false
		}
	}
	return true
}

// reMaxLength returns an upper bound on the length of words in r; bounded
// is false when no finite bound exists.
func (rw *Rewriter) reMaxLength(r *Term) (bounded bool, n int64) {
	switch r.Kind {
	case KindReToRe:
		return MaxLength(r.Args[0])
	case KindReEmpty:
		return true, 0
	case KindReFullChar, KindReRange, KindReOfPred:
		return true, 1
	case KindReConcat:
		b1, n1 := rw.reMaxLength(r.Args[0])
		b2, n2 := rw.reMaxLength(r.Args[1])
		return b1 && b2, n1 + n2
	case KindReUnion, KindReAntimirovUnion:
		b1, n1 := rw.reMaxLength(r.Args[0])
		b2, n2 := rw.reMaxLength(r.Args[1])
		return b1 && b2, maxInt64(n1, n2)
	case KindReInter:
		b1, n1 := rw.reMaxLength(r.Args[0])
		b2, n2 := rw.reMaxLength(r.Args[1])
		switch {
		case b1 && b2:
			return true, minInt64(n1, n2)
		case b1:
			return true, n1
		case b2:
			return true, n2
		}
		return false, 0
	case KindReLoop:
		lo, hi, hasHi := LoopBounds(r)
		_ = lo
		if !hasHi {
			return false, 0
		}
		b, k := rw.reMaxLength(r.Args[0])
		return b, hi * k
	case KindReReverse:
		return rw.reMaxLength(r.Args[0])
	case KindIte:
		b1, n1 := rw.reMaxLength(r.Args[1])
		b2, n2 := rw.reMaxLength(r.Args[2])
		return b1 && b2, maxInt64(n1, n2)
	}
	return false, 0
}

// SampleResult classifies the outcome of SomeStringInRe.
type SampleResult int

const (
	SampleUnknown = SampleResult(iota)
	SampleFound
	SampleEmpty
)

// samplePos is one entry of the sampler worklist. The exclusion set is a
// persistent interval map keyed by lower bound, so sibling branches share
// it without copying.
type samplePos struct {
	r               *Term
	strLen          int
	exclude         *immutable.SortedMap
	needsDerivation bool
}

// int64Comparer compares two int64 keys. Implements immutable.Comparer.
type int64Comparer struct{}

// Compare returns -1, 0, or 1 ordering a relative to b.
func (c *int64Comparer) Compare(a, b interface{}) int {
	if i, j := a.(int64), b.(int64); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}

// SomeStringInRe searches for a concrete word accepted by r via iterated
// derivatives over a worklist of partial strings. SampleEmpty means the
// whole search space was exhausted; SampleUnknown means acceptance hinges
// on uninterpreted terms.
func (rw *Rewriter) SomeStringInRe(r *Term) (string, SampleResult) {
	m := rw.mgr
	visited := make(map[*Term]bool)
	elem := m.FreshVar("ch!sample", m.CharSort())
	var str []rune
	noExclude := immutable.NewSortedMap(&int64Comparer{})

	todo := []samplePos{{r: r, strLen: 0, exclude: noExclude, needsDerivation: true}}
	for len(todo) > 0 {
		cur := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		r := cur.r
		str = str[:cur.strLen]

		if cur.needsDerivation {
			if visited[r] || r.Kind == KindReEmpty {
				continue
			}
			n := rw.isNullable(r)
			if IsTrue(n) {
				return string(str), SampleFound
			}
			visited[r] = true
			if r.Kind == KindReUnion || r.Kind == KindReAntimirovUnion {
				todo = append(todo,
					samplePos{r: r.Args[0], strLen: len(str), exclude: noExclude, needsDerivation: true},
					samplePos{r: r.Args[1], strLen: len(str), exclude: noExclude, needsDerivation: true})
				continue
			}
			r = rw.Derivative(elem, r)
		}

		exclude := cur.exclude
		switch {
		case r.Kind == KindReEmpty:
			continue
		case r.Kind == KindReUnion || r.Kind == KindReAntimirovUnion:
			todo = append(todo,
				samplePos{r: r.Args[0], strLen: len(str), exclude: exclude},
				samplePos{r: r.Args[1], strLen: len(str), exclude: exclude})
			continue
		case r.Kind == KindIte:
			c, th, el := r.Args[0], r.Args[1], r.Args[2]
			low, high, hasBounds := getBounds(c, elem)
			if el.Kind != KindReEmpty {
				ex := exclude
				if hasBounds {
					ex = ex.Set(low, high)
				}
				todo = append(todo, samplePos{r: el, strLen: len(str), exclude: ex})
			}
			if hasBounds {
				// Explore the then-branch first: its character is pinned.
				str = append(str, rune(low))
				todo = append(todo, samplePos{r: th, strLen: len(str), exclude: noExclude, needsDerivation: true})
			}
			continue
		}

		if isGroundRe(r) {
			ch, ok := pickExcluded(exclude)
			if !ok {
				continue
			}
			str = append(str, rune(ch))
			todo = append(todo, samplePos{r: r, strLen: len(str), exclude: noExclude, needsDerivation: true})
			continue
		}
		return "", SampleUnknown
	}
	return "", SampleEmpty
}

// pickExcluded chooses a character outside the excluded intervals.
func pickExcluded(exclude *immutable.SortedMap) (int64, bool) {
	ch := int64('a')
	wrapped := false
	for {
		found := false
		itr := exclude.Iterator()
		for {
			k, v := itr.Next()
			if k == nil {
				break
			}
			l, h := k.(int64), v.(int64)
			if l <= ch && ch <= h {
				found = true
				ch = h + 1
			}
		}
		if !found {
			return ch, true
		}
		if ch <= MaxChar {
			continue
		}
		if wrapped {
			return 0, false
		}
		ch = 0
		wrapped = true
	}
}

// getBounds extracts the feasible [low, high] character interval from a
// conjunction of ≤ and = atoms over the element variable.
func getBounds(e, elem *Term) (low, high int64, ok bool) {
	low, high = 0, MaxChar
	todo := []*Term{e}
	for len(todo) > 0 {
		e := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		switch e.Kind {
		case KindAnd:
			todo = append(todo, e.Args...)
		case KindCharLe:
			x, y := e.Args[0], e.Args[1]
			if c, isVal := CharVal(x); isVal && y == elem {
				low = maxInt64(low, c)
			} else if c, isVal := CharVal(y); isVal && x == elem {
				high = minInt64(high, c)
			} else {
				return 0, 0, false
			}
		case KindEq:
			x, y := e.Args[0], e.Args[1]
			if y == elem {
				x, y = y, x
			}
			c, isVal := CharVal(y)
			if x != elem || !isVal {
				return 0, 0, false
			}
			low = maxInt64(low, c)
			high = minInt64(high, c)
		default:
			return 0, 0, false
		}
	}
	return low, high, low <= high
}
