package strsmt

import "sort"

// Regex simplification. Constructors return an equivalent regex in the
// canonical shape the derivative engine expects: unions and intersections
// are ordered merges over the stable subterm id (complement-folded so a
// term and its complement collide), concatenations are right-associated,
// and diff/opt are expressed through inter/complement/union.

// isEpsilonRe returns true if r is the language {ε}.
func isEpsilonRe(r *Term) bool {
	return r.Kind == KindReToRe && IsEmptySeq(r.Args[0])
}

// isSigmaPlus returns true if r is the language of all non-empty sequences.
func isSigmaPlus(r *Term) bool {
	if r.Kind == KindRePlus && r.Args[0].Kind == KindReFullChar {
		return true
	}
	return r.Kind == KindReConcat &&
		r.Args[0].Kind == KindReFullChar && r.Args[1].Kind == KindReFull
}

// mkSigmaPlus returns the canonical form of Σ+, the concatenation of Σ with
// Σ*.
func (rw *Rewriter) mkSigmaPlus(seq *Sort) *Term {
	m := rw.mgr
	return m.ReConcat(m.ReFullChar(seq), m.ReFull(seq))
}

// mkReConcat returns the simplified concatenation a · b.
func (rw *Rewriter) mkReConcat(a, b *Term) *Term {
	m := rw.mgr
	switch {
	case a.Kind == KindReEmpty || b.Kind == KindReEmpty:
		return m.ReEmpty(seqSortOfRe(a))
	case isEpsilonRe(a):
		return b
	case isEpsilonRe(b):
		return a
	}
	// Right-associate.
	if a.Kind == KindReConcat {
		return rw.mkReConcat(a.Args[0], rw.mkReConcat(a.Args[1], b))
	}
	// Adjacent literal languages fuse.
	if a.Kind == KindReToRe && b.Kind == KindReToRe {
		if s, ok := StrVal(a.Args[0]); ok {
			if t, ok := StrVal(b.Args[0]); ok {
				return m.ToRe(m.Str(s + t))
			}
		}
	}
	if a.Kind == KindReToRe && b.Kind == KindReConcat && b.Args[0].Kind == KindReToRe {
		if s, ok := StrVal(a.Args[0]); ok {
			if t, ok := StrVal(b.Args[0].Args[0]); ok {
				return rw.mkReConcat(m.ToRe(m.Str(s+t)), b.Args[1])
			}
		}
	}
	// R* · R* = R*; R* · R = R · R*.
	if a.Kind == KindReStar && b.Kind == KindReStar && a.Args[0] == b.Args[0] {
		return a
	}
	if a.Kind == KindReStar && a.Args[0] == b {
		return rw.mkReConcat(b, a)
	}
	if a.Kind == KindReFull && b.Kind == KindReFull {
		return a
	}
	// loop(a,l1,h1) · loop(a,l2,h2) = loop(a, l1+l2, h1+h2).
	if a.Kind == KindReLoop && b.Kind == KindReLoop && a.Args[0] == b.Args[0] {
		l1, h1, ok1 := LoopBounds(a)
		l2, h2, ok2 := LoopBounds(b)
		if ok1 && ok2 {
			return rw.mkReLoop(a.Args[0], l1+l2, h1+h2, true)
		}
		if !ok1 && !ok2 {
			return rw.mkReLoop(a.Args[0], l1+l2, 0, false)
		}
	}
	if a.Kind == KindReLoop && a.Args[0] == b {
		if l, h, ok := LoopBounds(a); ok {
			return rw.mkReLoop(b, l+1, h+1, true)
		}
	}
	if b.Kind == KindReConcat {
		// Combine with the head of a right-associated tail.
		hd := b.Args[0]
		if (a.Kind == KindReStar && hd.Kind == KindReStar && a.Args[0] == hd.Args[0]) ||
			(a.Kind == KindReLoop && hd.Kind == KindReLoop && a.Args[0] == hd.Args[0]) {
			return rw.mkReConcat(rw.mkReConcat(a, hd), b.Args[1])
		}
	}
	return m.ReConcat(a, b)
}

// mkReStar returns the simplified Kleene star of r.
func (rw *Rewriter) mkReStar(r *Term) *Term {
	m := rw.mgr
	seq := seqSortOfRe(r)
	switch {
	case r.Kind == KindReStar:
		return r
	case r.Kind == KindReFull || r.Kind == KindReFullChar:
		return m.ReFull(seq)
	case isSigmaPlus(r):
		return m.ReFull(seq)
	case r.Kind == KindReEmpty || isEpsilonRe(r):
		return m.ReEpsilon(seq)
	case r.Kind == KindRePlus:
		return rw.mkReStar(r.Args[0])
	case r.Kind == KindReOpt:
		return rw.mkReStar(r.Args[0])
	}
	// (a* ∪ b)* = (a ∪ b)* when a child of the union is starred.
	if r.Kind == KindReUnion {
		a, b := r.Args[0], r.Args[1]
		if a.Kind == KindReStar {
			return rw.mkReStar(rw.mkReUnion(a.Args[0], b))
		}
		if b.Kind == KindReStar {
			return rw.mkReStar(rw.mkReUnion(a, b.Args[0]))
		}
		if isEpsilonRe(a) {
			return rw.mkReStar(b)
		}
		if isEpsilonRe(b) {
			return rw.mkReStar(a)
		}
	}
	// (a* · b*)* = (a ∪ b)*.
	if r.Kind == KindReConcat {
		a, b := r.Args[0], r.Args[1]
		if a.Kind == KindReStar && b.Kind == KindReStar {
			return rw.mkReStar(rw.mkReUnion(a.Args[0], b.Args[0]))
		}
	}
	return m.ReStar(r)
}

// mkRePlus returns the simplified Kleene plus of r. Outside the listed
// special cases plus is expressed as r · r*, keeping plus nodes out of
// derivative normal forms.
func (rw *Rewriter) mkRePlus(r *Term) *Term {
	switch {
	case r.Kind == KindReEmpty || isEpsilonRe(r):
		return r
	case r.Kind == KindReFull:
		return r
	case r.Kind == KindRePlus:
		return rw.mkRePlus(r.Args[0])
	case r.Kind == KindReStar:
		return r
	case r.Kind == KindReOpt:
		return rw.mkReStar(r.Args[0])
	}
	return rw.mkReConcat(r, rw.mkReStar(r))
}

// mkReOpt returns r? as the union of r with ε.
func (rw *Rewriter) mkReOpt(r *Term) *Term {
	return rw.mkReUnion(rw.mgr.ReEpsilon(seqSortOfRe(r)), r)
}

// mkReDiff returns a \ b as a ∩ ¬b.
func (rw *Rewriter) mkReDiff(a, b *Term) *Term {
	return rw.mkReInter(a, rw.mkReComplement(b))
}

// mkReComplement returns the simplified complement of r.
func (rw *Rewriter) mkReComplement(r *Term) *Term {
	m := rw.mgr
	seq := seqSortOfRe(r)
	switch r.Kind {
	case KindReComplement:
		return r.Args[0]
	case KindReEmpty:
		return m.ReFull(seq)
	case KindReFull:
		return m.ReEmpty(seq)
	case KindReUnion:
		return rw.mkReInter(rw.mkReComplement(r.Args[0]), rw.mkReComplement(r.Args[1]))
	case KindReInter:
		return rw.mkReUnion(rw.mkReComplement(r.Args[0]), rw.mkReComplement(r.Args[1]))
	}
	if isEpsilonRe(r) {
		return rw.mkSigmaPlus(seq)
	}
	return m.ReComplement(r)
}

// mkReLoop returns loop(r, lo, hi); hasHi false means the single-bound loop
// that repeats at least lo times.
func (rw *Rewriter) mkReLoop(r *Term, lo, hi int64, hasHi bool) *Term {
	m := rw.mgr
	seq := seqSortOfRe(r)
	if lo < 0 {
		lo = 0
	}
	switch {
	case hasHi && hi < lo:
		return m.ReEmpty(seq)
	case hasHi && lo == 0 && hi == 0:
		return m.ReEpsilon(seq)
	case hasHi && lo == 1 && hi == 1:
		return r
	case !hasHi && lo == 0:
		return rw.mkReStar(r)
	case r.Kind == KindReEmpty:
		if lo == 0 {
			return m.ReEpsilon(seq)
		}
		return r
	case isEpsilonRe(r):
		return r
	}
	// Nested single-bound loops multiply.
	if !hasHi && r.Kind == KindReLoop {
		if l2, _, ok := LoopBounds(r); !ok {
			return m.ReLoop(r.Args[0], lo*l2, -1)
		}
	}
	if hasHi {
		return m.ReLoop(r, lo, hi)
	}
	return m.ReLoop(r, lo, -1)
}

// mkRePower returns r^n as the exact-count loop.
func (rw *Rewriter) mkRePower(r *Term, n int64) *Term {
	return rw.mkReLoop(r, n, n, true)
}

// mkReRange returns the range language [lo, hi].
func (rw *Rewriter) mkReRange(lo, hi *Term) *Term {
	m := rw.mgr
	empty := func() *Term { return m.ReEmpty(m.SeqSort(lo.Sort.Elem)) }
	if s, ok := StrVal(lo); ok && len([]rune(s)) != 1 {
		return empty()
	}
	if s, ok := StrVal(hi); ok && len([]rune(s)) != 1 {
		return empty()
	}
	if b, n := MaxLength(lo); b && n == 0 {
		return empty()
	}
	if b, n := MaxLength(hi); b && n == 0 {
		return empty()
	}
	if c1, ok := literalChar(lo); ok {
		if c2, ok := literalChar(hi); ok && c1 > c2 {
			return empty()
		}
	}
	return m.ReRange(lo, hi)
}

// literalChar returns the character code of a length-1 literal string.
func literalChar(s *Term) (int64, bool) {
	if str, ok := StrVal(s); ok {
		r := []rune(str)
		if len(r) == 1 {
			return int64(r[0]), true
		}
	}
	if s.Kind == KindSeqUnit {
		return CharVal(s.Args[0])
	}
	return 0, false
}

// mkRegexReverse pushes reversal through all constructors, swapping the
// arguments of concatenations.
func (rw *Rewriter) mkRegexReverse(r *Term) *Term {
	m := rw.mgr
	switch r.Kind {
	case KindReEmpty, KindReFull, KindReFullChar, KindReRange, KindReOfPred:
		return r
	case KindReReverse:
		return r.Args[0]
	case KindReToRe:
		if s, ok := StrVal(r.Args[0]); ok {
			return m.ToRe(m.Str(reverseString(s)))
		}
	case KindReConcat:
		return rw.mkReConcat(rw.mkRegexReverse(r.Args[1]), rw.mkRegexReverse(r.Args[0]))
	case KindReUnion:
		return rw.mkReUnion(rw.mkRegexReverse(r.Args[0]), rw.mkRegexReverse(r.Args[1]))
	case KindReInter:
		return rw.mkReInter(rw.mkRegexReverse(r.Args[0]), rw.mkRegexReverse(r.Args[1]))
	case KindReStar:
		return rw.mkReStar(rw.mkRegexReverse(r.Args[0]))
	case KindRePlus:
		return rw.mkRePlus(rw.mkRegexReverse(r.Args[0]))
	case KindReOpt:
		return rw.mkReOpt(rw.mkRegexReverse(r.Args[0]))
	case KindReComplement:
		return rw.mkReComplement(rw.mkRegexReverse(r.Args[0]))
	case KindReLoop:
		lo, hi, hasHi := LoopBounds(r)
		return rw.mkReLoop(rw.mkRegexReverse(r.Args[0]), lo, hi, hasHi)
	}
	return m.ReReverse(r)
}

func reverseString(s string) string {
	rs := []rune(s)
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
	return string(rs)
}

// mkReUnion returns the ordered-merge union of a and b. A union touching an
// Antimirov union is lifted whole, keeping Antimirov unions outermost.
func (rw *Rewriter) mkReUnion(a, b *Term) *Term {
	if a.Kind == KindReAntimirovUnion || b.Kind == KindReAntimirovUnion {
		return rw.mkDerAntimirovUnion(a, b)
	}
	return rw.mergeRegexSets(true, a, b)
}

// mkReInter returns the ordered-merge intersection of a and b.
func (rw *Rewriter) mkReInter(a, b *Term) *Term {
	return rw.mergeRegexSets(false, a, b)
}

// reAtoms flattens r along the given set operator into its atoms.
func reAtoms(kind Kind, r *Term) []*Term {
	if r.Kind != kind {
		return []*Term{r}
	}
	var out []*Term
	var walk func(*Term)
	walk = func(t *Term) {
		if t.Kind == kind {
			for _, a := range t.Args {
				walk(a)
			}
			return
		}
		out = append(out, t)
	}
	walk(r)
	return out
}

// sortAtoms orders atoms by the complement-folded subterm id.
func sortAtoms(atoms []*Term) {
	sort.SliceStable(atoms, func(i, j int) bool {
		return compFoldedID(atoms[i]) < compFoldedID(atoms[j])
	})
}

// mergeRegexSets treats union (and dually intersection) as a commutative,
// associative, idempotent operator over atoms ordered by complement-folded
// subterm id.
func (rw *Rewriter) mergeRegexSets(isUnion bool, a, b *Term) *Term {
	m := rw.mgr
	seq := seqSortOfRe(a)
	kind := KindReInter
	if isUnion {
		kind = KindReUnion
	}

	annihilator := func() *Term {
		if isUnion {
			return m.ReFull(seq)
		}
		return m.ReEmpty(seq)
	}
	isIdentity := func(t *Term) bool {
		if isUnion {
			return t.Kind == KindReEmpty
		}
		return t.Kind == KindReFull
	}
	isAbsorber := func(t *Term) bool {
		if isUnion {
			return t.Kind == KindReFull
		}
		return t.Kind == KindReEmpty
	}

	xs := reAtoms(kind, a)
	ys := reAtoms(kind, b)
	sortAtoms(xs)
	sortAtoms(ys)
	merged := make([]*Term, 0, len(xs)+len(ys))
	i, j := 0, 0
	for i < len(xs) || j < len(ys) {
		var next *Term
		switch {
		case i == len(xs):
			next, j = ys[j], j+1
		case j == len(ys):
			next, i = xs[i], i+1
		case compFoldedID(xs[i]) <= compFoldedID(ys[j]):
			next, i = xs[i], i+1
		default:
			next, j = ys[j], j+1
		}
		if isAbsorber(next) {
			return annihilator()
		}
		if isIdentity(next) {
			continue
		}
		if n := len(merged); n > 0 {
			prev := merged[n-1]
			if prev == next {
				continue
			}
			// X op ¬X collapses to the annihilator.
			if compFoldedID(prev) == compFoldedID(next) &&
				(prev.Kind == KindReComplement) != (next.Kind == KindReComplement) {
				return annihilator()
			}
			if isUnion && rw.isSubset(next, prev) {
				continue
			}
			if isUnion && rw.isSubset(prev, next) {
				merged[n-1] = next
				continue
			}
			if !isUnion && rw.isSubset(prev, next) {
				continue
			}
			if !isUnion && rw.isSubset(next, prev) {
				merged[n-1] = next
				continue
			}
		}
		merged = append(merged, next)
	}

	if len(merged) == 0 {
		if isUnion {
			return m.ReEmpty(seq)
		}
		return m.ReFull(seq)
	}

	// Σ+ absorbs every language of non-empty words in a union; dually an
	// intersection with Σ+ of such a language drops the Σ+.
	merged = rw.thinSigmaPlus(isUnion, merged)

	if !isUnion {
		if r, ok := rw.thinEpsilonInter(merged); ok {
			return r
		}
	}

	out := merged[len(merged)-1]
	for k := len(merged) - 2; k >= 0; k-- {
		if isUnion {
			out = m.ReUnion(merged[k], out)
		} else {
			out = m.ReInter(merged[k], out)
		}
	}
	return out
}

// thinSigmaPlus removes atoms made redundant by a Σ+ member.
func (rw *Rewriter) thinSigmaPlus(isUnion bool, atoms []*Term) []*Term {
	idx := -1
	for k, t := range atoms {
		if isSigmaPlus(t) {
			idx = k
			break
		}
	}
	if idx < 0 || len(atoms) == 1 {
		return atoms
	}
	out := make([]*Term, 0, len(atoms))
	for k, t := range atoms {
		if k == idx {
			if isUnion {
				out = append(out, t)
			}
			// In an intersection Σ+ is dropped when every other member
			// already excludes the empty word.
			allNonEmpty := true
			for k2, t2 := range atoms {
				if k2 != idx && rw.reMinLength(t2) < 1 {
					allNonEmpty = false
				}
			}
			if !isUnion && !allNonEmpty {
				out = append(out, t)
			}
			continue
		}
		if isUnion && rw.reMinLength(t) >= 1 {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return atoms[idx : idx+1]
	}
	return out
}

// thinEpsilonInter reduces an intersection containing ε using nullability.
func (rw *Rewriter) thinEpsilonInter(atoms []*Term) (*Term, bool) {
	m := rw.mgr
	for k, t := range atoms {
		if !isEpsilonRe(t) {
			continue
		}
		seq := seqSortOfRe(t)
		for k2, t2 := range atoms {
			if k2 == k {
				continue
			}
			n := rw.isNullable(t2)
			if IsFalse(n) {
				return m.ReEmpty(seq), true
			}
			if !IsTrue(n) {
				return nil, false
			}
		}
		return t, true
	}
	return nil, false
}

// reMinLength returns a sound lower bound on the length of words in r.
func (rw *Rewriter) reMinLength(r *Term) int64 {
	switch r.Kind {
	case KindReToRe:
		_, n := MinLength(r.Args[0])
		return n
	case KindReFullChar, KindReRange, KindReOfPred:
		return 1
	case KindReConcat:
		return rw.reMinLength(r.Args[0]) + rw.reMinLength(r.Args[1])
	case KindReUnion, KindReAntimirovUnion:
		return minInt64(rw.reMinLength(r.Args[0]), rw.reMinLength(r.Args[1]))
	case KindReInter:
		return maxInt64(rw.reMinLength(r.Args[0]), rw.reMinLength(r.Args[1]))
	case KindRePlus:
		return rw.reMinLength(r.Args[0])
	case KindReLoop:
		lo, _, _ := LoopBounds(r)
		return lo * rw.reMinLength(r.Args[0])
	case KindReReverse:
		return rw.reMinLength(r.Args[0])
	case KindIte:
		return minInt64(rw.reMinLength(r.Args[1]), rw.reMinLength(r.Args[2]))
	}
	return 0
}

// isSubset is a sound, incomplete test for L(a) ⊆ L(b).
func (rw *Rewriter) isSubset(a, b *Term) bool {
	if a == b || a.Kind == KindReEmpty || b.Kind == KindReFull {
		return true
	}
	if isSigmaPlus(b) && rw.reMinLength(a) >= 1 {
		return true
	}
	if a.Kind == KindReComplement && b.Kind == KindReComplement {
		return rw.isSubset(b.Args[0], a.Args[0])
	}
	if a.Kind == KindReConcat && b.Kind == KindReConcat {
		if a.Args[0] == b.Args[0] {
			return rw.isSubset(a.Args[1], b.Args[1])
		}
		if a.Args[1] == b.Args[1] {
			return rw.isSubset(a.Args[0], b.Args[0])
		}
	}
	if a.Kind == KindReLoop && b.Kind == KindReLoop && a.Args[0] == b.Args[0] {
		l1, h1, ok1 := LoopBounds(a)
		l2, h2, ok2 := LoopBounds(b)
		if ok1 && ok2 {
			return l2 <= l1 && h1 <= h2
		}
		if ok1 && !ok2 {
			return l2 <= l1
		}
	}
	if a.Kind == KindReLoop && b.Kind == KindReStar && a.Args[0] == b.Args[0] {
		return true
	}
	return false
}
