package strsmt

import "strings"

// Rewriter simplifies operator applications over sequences, strings, and
// regular expressions. A Rewriter owns its operation cache and scratch
// state and must not be shared between goroutines; terms belong to the
// Manager it was constructed over.
type Rewriter struct {
	mgr   *Manager
	opts  Options
	cache *opCache
	alg   *Algebra
}

// NewRewriter returns a rewriter over the manager's terms.
func NewRewriter(mgr *Manager, opts Options) *Rewriter {
	if opts.MaxCacheSize <= 0 {
		opts.MaxCacheSize = DefaultMaxCacheSize
	}
	return &Rewriter{
		mgr:   mgr,
		opts:  opts,
		cache: newOpCache(opts.MaxCacheSize),
		alg:   NewAlgebra(mgr, NewBoundedSolver(mgr)),
	}
}

// Manager returns the term manager the rewriter operates over.
func (rw *Rewriter) Manager() *Manager { return rw.mgr }

// Algebra returns the character predicate algebra.
func (rw *Rewriter) Algebra() *Algebra { return rw.alg }

// ClearCache drops every memoized result. Results of subsequent calls are
// unaffected; only reuse is.
func (rw *Rewriter) ClearCache() { rw.cache.reset() }

// Apply rewrites a single operator application. Failed means no rule
// fired; any other status carries an equivalent, simpler term.
func (rw *Rewriter) Apply(t *Term) (Status, *Term) {
	st, r := rw.applyCore(t)
	if st == Failed && isSeqFamily(t.Kind) {
		return rw.liftIteThrottled(t)
	}
	return st, r
}

func isSeqFamily(k Kind) bool {
	switch k {
	case KindSeqConcat, KindSeqLen, KindSeqExtract, KindSeqAt, KindSeqNthI, KindSeqNthU,
		KindSeqIndexOf, KindSeqLastIndexOf, KindSeqContains, KindSeqPrefix, KindSeqSuffix,
		KindSeqReplace, KindSeqReplaceAll, KindStrItos, KindStrStoi, KindStrToCode,
		KindStrFromCode, KindSeqInRe:
		return true
	}
	return false
}

func (rw *Rewriter) applyCore(t *Term) (Status, *Term) {
	args := t.Args
	switch t.Kind {
	case KindSeqConcat:
		return rw.mkSeqConcat(args[0], args[1])
	case KindSeqLen:
		return rw.mkSeqLength(args[0])
	case KindSeqExtract:
		return rw.mkSeqExtract(args[0], args[1], args[2])
	case KindSeqAt:
		return rw.mkSeqAt(args[0], args[1])
	case KindSeqNth:
		return rw.mkSeqNth(t, args[0], args[1])
	case KindSeqNthI:
		return rw.mkSeqNthI(args[0], args[1])
	case KindSeqNthU:
		return Failed, nil
	case KindSeqIndexOf:
		return rw.mkSeqIndexOf(args[0], args[1], args[2])
	case KindSeqLastIndexOf:
		return rw.mkSeqLastIndexOf(args[0], args[1])
	case KindSeqContains:
		return rw.mkSeqContains(args[0], args[1])
	case KindSeqPrefix:
		return rw.mkSeqPrefix(args[0], args[1])
	case KindSeqSuffix:
		return rw.mkSeqSuffix(args[0], args[1])
	case KindSeqReplace:
		return rw.mkSeqReplace(args[0], args[1], args[2])
	case KindSeqReplaceAll:
		return rw.mkSeqReplaceAll(args[0], args[1], args[2])
	case KindSeqMap:
		return rw.mkSeqMap(t, args[0], args[1])
	case KindSeqMapI:
		return rw.mkSeqMapI(t, args[0], args[1], args[2])
	case KindSeqFoldL:
		return rw.mkSeqFoldL(args[0], args[1], args[2])
	case KindSeqFoldLI:
		return rw.mkSeqFoldLI(args[0], args[1], args[2], args[3])
	case KindStrItos:
		return rw.mkStrItos(args[0])
	case KindStrStoi:
		return rw.mkStrStoi(args[0])
	case KindStrUbvToS:
		return rw.mkStrUbvToS(args[0])
	case KindStrSbvToS:
		return rw.mkStrSbvToS(args[0])
	case KindStrToCode:
		return rw.mkStrToCode(args[0])
	case KindStrFromCode:
		return rw.mkStrFromCode(args[0])
	case KindStrIsDigit:
		return rw.mkStrIsDigit(args[0])
	case KindStrLt:
		return rw.mkStrLt(args[0], args[1])
	case KindStrLe:
		return rw.mkStrLe(args[0], args[1])
	case KindSeqInRe:
		return rw.mkStrInRegexp(args[0], args[1])
	case KindEq:
		if args[0].Sort.IsSeq() {
			return rw.mkEqSeq(t, args[0], args[1])
		}
		return Failed, nil
	case KindAnd, KindOr:
		return rw.mergeInReAtoms(t)

	case KindReUnion:
		return rw.reResult(t, rw.mkReUnion(args[0], args[1]), Done)
	case KindReInter:
		return rw.reResult(t, rw.mkReInter(args[0], args[1]), Done)
	case KindReConcat:
		return rw.reResult(t, rw.mkReConcat(args[0], args[1]), Done)
	case KindReStar:
		return rw.reResult(t, rw.mkReStar(args[0]), Done)
	case KindRePlus:
		return rw.reResult(t, rw.mkRePlus(args[0]), Rewrite2)
	case KindReOpt:
		return rw.reResult(t, rw.mkReOpt(args[0]), Rewrite2)
	case KindReDiff:
		return rw.reResult(t, rw.mkReDiff(args[0], args[1]), Rewrite2)
	case KindReComplement:
		return rw.reResult(t, rw.mkReComplement(args[0]), Done)
	case KindReLoop:
		lo, hi, hasHi := LoopBounds(t)
		return rw.reResult(t, rw.mkReLoop(args[0], lo, hi, hasHi), Done)
	case KindRePower:
		n, _ := IntVal(args[1])
		return rw.reResult(t, rw.mkRePower(args[0], n), Rewrite2)
	case KindReRange:
		return rw.reResult(t, rw.mkReRange(args[0], args[1]), Done)
	case KindReReverse:
		return rw.reResult(t, rw.mkRegexReverse(args[0]), Done)
	case KindReDerivative:
		return rw.reResult(t, rw.Derivative(args[0], args[1]), Done)
	}
	return Failed, nil
}

func (rw *Rewriter) reResult(t, r *Term, st Status) (Status, *Term) {
	if r == t {
		return Failed, nil
	}
	return st, r
}

// Simplify rewrites t bottom-up to a fixed point.
func (rw *Rewriter) Simplify(t *Term) *Term {
	if len(t.Args) == 0 {
		return t
	}
	args := make([]*Term, len(t.Args))
	changed := false
	for i, a := range t.Args {
		args[i] = rw.Simplify(a)
		changed = changed || args[i] != a
	}
	nt := t
	if changed {
		nt = rw.mgr.rebuild(t, args)
	}
	st, r := rw.Apply(nt)
	switch st {
	case Failed:
		return nt
	case Done:
		return r
	default:
		return rw.Simplify(r)
	}
}

// strLiteralAtom returns the literal contents of a string or value-unit
// atom.
func strLiteralAtom(t *Term) (string, bool) {
	if s, ok := StrVal(t); ok {
		return s, true
	}
	if t.Kind == KindSeqUnit {
		if c, ok := CharVal(t.Args[0]); ok {
			return string(rune(c)), true
		}
	}
	return "", false
}

// exactLength reports a sequence whose length is fully determined.
func exactLength(t *Term) (int64, bool) {
	b, n := MinLength(t)
	return n, b
}

// --- concat -----------------------------------------------------------

func (rw *Rewriter) mkSeqConcat(a, b *Term) (Status, *Term) {
	m := rw.mgr
	if IsEmptySeq(a) {
		return Done, b
	}
	if IsEmptySeq(b) {
		return Done, a
	}
	if rw.opts.CoalesceChars {
		if s1, ok := strLiteralAtom(a); ok {
			if s2, ok := strLiteralAtom(b); ok {
				return Done, m.Str(s1 + s2)
			}
			if b.Kind == KindSeqConcat {
				if s2, ok := strLiteralAtom(b.Args[0]); ok {
					return Rewrite1, m.Concat(m.Str(s1+s2), b.Args[1])
				}
			}
		}
	}
	// Right-associate.
	if a.Kind == KindSeqConcat {
		return Rewrite2, m.Concat(a.Args[0], m.Concat(a.Args[1], b))
	}
	return Failed, nil
}

// --- length -----------------------------------------------------------

func (rw *Rewriter) mkSeqLength(a *Term) (Status, *Term) {
	m := rw.mgr
	switch a.Kind {
	case KindSeqEmpty:
		return Done, m.Int(0)
	case KindSeqUnit:
		return Done, m.Int(1)
	case KindSeqString:
		return Done, m.Int(int64(len([]rune(a.Str))))
	case KindSeqReplace:
		// Replacement by an equal-length pattern preserves length.
		ny, oky := exactLength(a.Args[1])
		nz, okz := exactLength(a.Args[2])
		if oky && okz && ny == nz {
			return Rewrite1, m.Length(a.Args[0])
		}
	case KindSeqMap:
		return Rewrite1, m.Length(a.Args[1])
	case KindSeqMapI:
		return Rewrite1, m.Length(a.Args[2])
	case KindSeqExtract:
		if off, ok := IntVal(a.Args[1]); ok && off == 0 {
			if k, ok := IntVal(a.Args[2]); ok && k >= 0 {
				lx := m.Length(a.Args[0])
				return Rewrite2, m.Ite(m.Le(lx, m.Int(k)), lx, m.Int(k))
			}
		}
	case KindSeqConcat:
		atoms := flattenConcat(a)
		var known int64
		var rest []*Term
		for _, e := range atoms {
			if n, ok := exactLength(e); ok {
				known += n
			} else {
				rest = append(rest, e)
			}
		}
		if len(rest) == 0 {
			return Done, m.Int(known)
		}
		sum := m.Int(known)
		for _, e := range rest {
			sum = m.Add(sum, m.Length(e))
		}
		return Rewrite2, sum
	}
	return Failed, nil
}

// --- extract ----------------------------------------------------------

func (rw *Rewriter) mkSeqExtract(a, b, c *Term) (Status, *Term) {
	m := rw.mgr
	empty := func() *Term { return m.SeqEmpty(a.Sort) }

	cv, cok := IntVal(c)
	bv, bok := IntVal(b)
	if cok && cv <= 0 {
		return Done, empty()
	}
	if bok && bv < 0 {
		return Done, empty()
	}
	if bok {
		if bounded, max := MaxLength(a); bounded && bv >= max {
			return Done, empty()
		}
	}
	if s, ok := StrVal(a); ok && bok && cok {
		rs := []rune(s)
		if bv >= int64(len(rs)) {
			return Done, empty()
		}
		end := bv + cv
		if end > int64(len(rs)) {
			end = int64(len(rs))
		}
		return Done, m.Str(string(rs[bv:end]))
	}
	if bok && cok && cv == 1 {
		return Rewrite1, m.At(a, b)
	}

	// Fuse nested extracts.
	if a.Kind == KindSeqExtract && bok {
		p1, ok1 := IntVal(a.Args[1])
		l1, okl := IntVal(a.Args[2])
		if ok1 && okl && p1 >= 0 && bv <= l1 {
			newLen := l1 - bv
			if cok && cv < newLen {
				newLen = cv
			}
			return Rewrite2, m.Extract(a.Args[0], m.Int(p1+bv), m.Int(newLen))
		}
	}

	if a.Kind == KindSeqConcat {
		atoms := flattenConcat(a)

		// Pop the suffix once the extraction window is covered.
		if bok && cok {
			var cum int64
			for i, e := range atoms {
				n, ok := exactLength(e)
				if !ok {
					break
				}
				cum += n
				if cum >= bv+cv && i+1 < len(atoms) {
					return Rewrite3, m.Extract(rw.concatAtoms(atoms[:i+1], a.Sort), b, c)
				}
			}
		}

		// Push a symbolic offset made of prefix lengths past those atoms.
		if lens, k, ok := splitLengthSum(b); ok && len(lens) > 0 {
			if rest, ok2 := consumeLengthPrefix(atoms, lens); ok2 {
				return Rewrite3, m.Extract(rw.concatAtoms(rest, a.Sort), m.Int(k), c)
			}
		}

		// A length made of the leading atoms selects exactly those atoms.
		if bok && bv == 0 {
			if lens, k, ok := splitLengthSum(c); ok && k == 0 && len(lens) > 0 {
				if n, all := matchedPrefix(atoms, lens); all && n > 0 && n < len(atoms) {
					return Rewrite1, rw.concatAtoms(atoms[:n], a.Sort)
				}
			}
		}

		// Walk leading atoms of known length under a constant offset.
		if bok && bv > 0 {
			if n, ok := exactLength(atoms[0]); ok && n <= bv {
				return Rewrite3, m.Extract(rw.concatAtoms(atoms[1:], a.Sort), m.Int(bv-n), c)
			}
		}
	}
	return Failed, nil
}

// splitLengthSum decomposes b into a multiset of length(x) summands plus an
// integer remainder.
func splitLengthSum(b *Term) (lens map[*Term]int, k int64, ok bool) {
	lens = make(map[*Term]int)
	var walk func(*Term) bool
	walk = func(t *Term) bool {
		switch t.Kind {
		case KindAdd:
			return walk(t.Args[0]) && walk(t.Args[1])
		case KindIntVal:
			k += t.Val
			return true
		case KindSeqLen:
			lens[t.Args[0]]++
			return true
		}
		return false
	}
	if !walk(b) {
		return nil, 0, false
	}
	return lens, k, true
}

// consumeLengthPrefix drops leading atoms whose lengths exactly use up the
// summands.
func consumeLengthPrefix(atoms []*Term, lens map[*Term]int) ([]*Term, bool) {
	remaining := 0
	for _, n := range lens {
		remaining += n
	}
	i := 0
	for i < len(atoms) && remaining > 0 {
		if lens[atoms[i]] > 0 {
			lens[atoms[i]]--
			remaining--
			i++
			continue
		}
		return nil, false
	}
	if remaining > 0 {
		return nil, false
	}
	return atoms[i:], true
}

func matchedPrefix(atoms []*Term, lens map[*Term]int) (int, bool) {
	remaining := 0
	for _, n := range lens {
		remaining += n
	}
	i := 0
	for i < len(atoms) && remaining > 0 {
		if lens[atoms[i]] > 0 {
			lens[atoms[i]]--
			remaining--
			i++
			continue
		}
		return 0, false
	}
	return i, remaining == 0
}

// --- at / nth ---------------------------------------------------------

func (rw *Rewriter) mkSeqAt(a, b *Term) (Status, *Term) {
	m := rw.mgr
	bv, bok := IntVal(b)
	if bok && bv < 0 {
		return Done, m.SeqEmpty(a.Sort)
	}
	if s, ok := StrVal(a); ok && bok {
		rs := []rune(s)
		if bv >= int64(len(rs)) {
			return Done, m.SeqEmpty(a.Sort)
		}
		return Done, m.Str(string(rs[bv]))
	}
	if a.Kind == KindSeqExtract && bok {
		if off, ok := IntVal(a.Args[1]); ok && off == 0 {
			if l, ok := IntVal(a.Args[2]); ok && bv < l {
				return Rewrite1, m.At(a.Args[0], b)
			}
		}
	}
	if a.Kind == KindSeqConcat {
		atoms := flattenConcat(a)
		if bok {
			idx := bv
			for i, e := range atoms {
				n, ok := exactLength(e)
				if !ok {
					if idx == bv {
						break
					}
					return Rewrite2, m.At(rw.concatAtoms(atoms[i:], a.Sort), m.Int(idx))
				}
				if idx < n {
					return Rewrite2, m.At(e, m.Int(idx))
				}
				idx -= n
			}
		}
		if lens, k, ok := splitLengthSum(b); ok && len(lens) > 0 {
			if rest, ok2 := consumeLengthPrefix(atoms, lens); ok2 {
				return Rewrite2, m.At(rw.concatAtoms(rest, a.Sort), m.Int(k))
			}
		}
	}
	if a.Kind == KindSeqUnit && bok {
		if bv == 0 {
			return Done, a
		}
		return Done, m.SeqEmpty(a.Sort)
	}
	return Failed, nil
}

func (rw *Rewriter) mkSeqNth(t, a, b *Term) (Status, *Term) {
	m := rw.mgr
	inBounds := m.And(m.Le(m.Int(0), b), m.Lt(b, m.Length(a)))
	return Rewrite2, m.Ite(inBounds, m.NthI(a, b), m.NthU(a, b))
}

func (rw *Rewriter) mkSeqNthI(a, b *Term) (Status, *Term) {
	m := rw.mgr
	bv, bok := IntVal(b)
	if a.Kind == KindSeqUnit && bok && bv == 0 {
		return Done, a.Args[0]
	}
	if s, ok := StrVal(a); ok && bok {
		rs := []rune(s)
		if bv >= 0 && bv < int64(len(rs)) {
			return Done, m.Char(int64(rs[bv]))
		}
	}
	// nth_i commutes with map.
	if a.Kind == KindSeqMap {
		f, y := a.Args[0], a.Args[1]
		return Rewrite2, m.Select(f, a.Sort.Elem, m.NthI(y, b))
	}
	if a.Kind == KindSeqConcat && bok {
		idx := bv
		for i, e := range flattenConcat(a) {
			n, ok := exactLength(e)
			if !ok {
				if i == 0 {
					break
				}
				return Rewrite2, m.NthI(rw.concatAtoms(flattenConcat(a)[i:], a.Sort), m.Int(idx))
			}
			if idx < n {
				return Rewrite2, m.NthI(e, m.Int(idx))
			}
			idx -= n
		}
	}
	return Failed, nil
}

// --- indexof / last_indexof ------------------------------------------

func (rw *Rewriter) mkSeqIndexOf(a, b, c *Term) (Status, *Term) {
	m := rw.mgr
	cv, cok := IntVal(c)
	if cok && cv < 0 {
		return Done, m.Int(-1)
	}
	sa, aok := StrVal(a)
	sb, bok2 := StrVal(b)
	if aok && bok2 && cok {
		ra := []rune(sa)
		if cv > int64(len(ra)) {
			return Done, m.Int(-1)
		}
		idx := indexOfRunes(ra[cv:], []rune(sb))
		if idx < 0 {
			return Done, m.Int(-1)
		}
		return Done, m.Int(int64(idx) + cv)
	}
	if IsEmptySeq(b) {
		if cok && cv == 0 {
			return Done, m.Int(0)
		}
		return Rewrite2, m.Ite(
			m.And(m.Le(m.Int(0), c), m.Le(c, m.Length(a))),
			c, m.Int(-1))
	}
	if a == b {
		return Rewrite2, m.Ite(m.Eq(c, m.Int(0)), m.Int(0), m.Int(-1))
	}

	// A shorter haystack never contains the needle.
	if bounded, maxA := MaxLength(a); bounded {
		if _, minB := MinLength(b); minB > maxA {
			return Done, m.Int(-1)
		}
	}
	// Equal fixed lengths: the only candidate match is the whole string.
	if nA, okA := exactLength(a); okA {
		if nB, okB := exactLength(b); okB && nA == nB && nA > 0 {
			return Rewrite2, m.Ite(
				m.And(m.Eq(a, b), m.Eq(c, m.Int(0))),
				m.Int(0), m.Int(-1))
		}
	}

	if a.Kind == KindSeqConcat {
		atoms := flattenConcat(a)
		first := atoms[0]
		if first.Kind == KindSeqUnit {
			if cok && cv > 0 {
				rest := rw.concatAtoms(atoms[1:], a.Sort)
				io := m.IndexOf(rest, b, m.Int(cv-1))
				return Rewrite3, m.Ite(m.Eq(io, m.Int(-1)), m.Int(-1), m.Add(m.Int(1), io))
			}
			// A head that cannot start the needle shifts the search.
			if cok && cv == 0 {
				if bh := firstElem(m, b); bh != nil && isDistinctValues(first.Args[0], bh) {
					rest := rw.concatAtoms(atoms[1:], a.Sort)
					io := m.IndexOf(rest, b, m.Int(0))
					return Rewrite3, m.Ite(m.Eq(io, m.Int(-1)), m.Int(-1), m.Add(m.Int(1), io))
				}
			}
		}
	}
	return Failed, nil
}

// firstElem returns the first element term of b when syntactically known.
func firstElem(m *Manager, b *Term) *Term {
	switch b.Kind {
	case KindSeqUnit:
		return b.Args[0]
	case KindSeqString:
		return m.Char(int64([]rune(b.Str)[0]))
	case KindSeqConcat:
		return firstElem(m, b.Args[0])
	}
	return nil
}

func indexOfRunes(hay, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		if string(hay[i:i+len(needle)]) == string(needle) {
			return i
		}
	}
	return -1
}

func (rw *Rewriter) mkSeqLastIndexOf(a, b *Term) (Status, *Term) {
	m := rw.mgr
	if sa, ok := StrVal(a); ok {
		if sb, ok := StrVal(b); ok {
			return Done, m.Int(int64(lastIndexOfRunes([]rune(sa), []rune(sb))))
		}
	}
	if IsEmptySeq(b) {
		return Rewrite1, m.Length(a)
	}
	if a == b {
		return Done, m.Int(0)
	}
	return Failed, nil
}

func lastIndexOfRunes(hay, needle []rune) int {
	if len(needle) == 0 {
		return len(hay)
	}
	for i := len(hay) - len(needle); i >= 0; i-- {
		if string(hay[i:i+len(needle)]) == string(needle) {
			return i
		}
	}
	return -1
}

// --- contains ---------------------------------------------------------

// cannotContainPrefix returns true when no match of a needle starting with
// b can begin inside atom a.
func cannotContainPrefix(a, b *Term) bool {
	if a.Kind == KindSeqUnit && b.Kind == KindSeqUnit {
		return isDistinctValues(a.Args[0], b.Args[0])
	}
	sa, aok := StrVal(a)
	sb, bok := StrVal(b)
	if aok && bok {
		ra, rb := []rune(sa), []rune(sb)
		for i := range ra {
			suffix := ra[i:]
			n := len(suffix)
			if n > len(rb) {
				n = len(rb)
			}
			if string(suffix[:n]) == string(rb[:n]) {
				return false
			}
		}
		return true
	}
	return false
}

// cannotContainSuffix is the mirror image on trailing atoms.
func cannotContainSuffix(a, b *Term) bool {
	if a.Kind == KindSeqUnit && b.Kind == KindSeqUnit {
		return isDistinctValues(a.Args[0], b.Args[0])
	}
	sa, aok := StrVal(a)
	sb, bok := StrVal(b)
	if aok && bok {
		ra, rb := []rune(sa), []rune(sb)
		for i := len(ra); i > 0; i-- {
			prefix := ra[:i]
			n := len(prefix)
			if n > len(rb) {
				n = len(rb)
			}
			if string(prefix[len(prefix)-n:]) == string(rb[len(rb)-n:]) {
				return false
			}
		}
		return true
	}
	return false
}

func (rw *Rewriter) mkSeqContains(a, b *Term) (Status, *Term) {
	m := rw.mgr
	if sa, ok := StrVal(a); ok {
		if sb, ok := StrVal(b); ok {
			return Done, m.Bool(indexOfRunes([]rune(sa), []rune(sb)) >= 0)
		}
	}
	if IsEmptySeq(b) || a == b {
		return Done, m.True()
	}
	if b.Kind == KindSeqExtract && b.Args[0] == a {
		return Done, m.True()
	}

	atoms := dropEmptyAtoms(flattenConcat(a))
	batoms := dropEmptyAtoms(flattenConcat(b))
	if containsContiguous(atoms, batoms) {
		return Done, m.True()
	}

	if bounded, maxA := MaxLength(a); bounded {
		if _, minB := MinLength(b); minB > maxA {
			return Done, m.False()
		}
	}

	// Strip atoms at either end that cannot take part in a match.
	if len(batoms) > 0 {
		lo, hi := 0, len(atoms)
		for lo < hi && cannotContainPrefix(atoms[lo], batoms[0]) {
			lo++
		}
		for hi > lo && cannotContainSuffix(atoms[hi-1], batoms[len(batoms)-1]) {
			hi--
		}
		if lo > 0 || hi < len(atoms) {
			if na := rw.concatAtoms(atoms[lo:hi], a.Sort); na != a {
				return Rewrite2, m.Contains(na, b)
			}
		}
	}

	// All units on both sides: expand over candidate positions.
	if allUnits(atoms) && allUnits(batoms) && len(batoms) <= len(atoms) {
		var disj []*Term
		for i := 0; i+len(batoms) <= len(atoms); i++ {
			var conj []*Term
			for j := range batoms {
				conj = append(conj, m.Eq(atoms[i+j].Args[0], batoms[j].Args[0]))
			}
			disj = append(disj, m.And(conj...))
		}
		return RewriteFull, m.Or(disj...)
	}

	// A single value unit distributes through replace when the replaced
	// strings cannot involve it.
	if b.Kind == KindSeqUnit && a.Kind == KindSeqReplace {
		if ch, ok := CharVal(b.Args[0]); ok {
			x, y, z := a.Args[0], a.Args[1], a.Args[2]
			if sy, ok1 := StrVal(y); ok1 {
				if sz, ok2 := StrVal(z); ok2 &&
					!strings.ContainsRune(sy, rune(ch)) && !strings.ContainsRune(sz, rune(ch)) {
					return Rewrite2, m.Contains(x, b)
				}
			}
		}
	}
	return Failed, nil
}

func allUnits(es []*Term) bool {
	for _, e := range es {
		if e.Kind != KindSeqUnit {
			return false
		}
	}
	return len(es) > 0
}

// containsContiguous reports b's atoms appearing contiguously in a's.
func containsContiguous(atoms, batoms []*Term) bool {
	if len(batoms) == 0 || len(batoms) > len(atoms) {
		return false
	}
	for i := 0; i+len(batoms) <= len(atoms); i++ {
		match := true
		for j := range batoms {
			if atoms[i+j] != batoms[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// --- prefix / suffix --------------------------------------------------

func (rw *Rewriter) mkSeqPrefix(a, b *Term) (Status, *Term) {
	m := rw.mgr
	if IsEmptySeq(a) || a == b {
		return Done, m.True()
	}
	if sa, ok := StrVal(a); ok {
		if sb, ok := StrVal(b); ok {
			return Done, m.Bool(strings.HasPrefix(sb, sa))
		}
	}
	if bounded, maxA := MaxLength(a); bounded {
		if bB, minBv := MinLength(b); bB && maxA <= minBv {
			if _, minAv := MinLength(a); minAv == maxA && minAv == minBv {
				return Rewrite2, m.Eq(a, b)
			}
		}
	}

	as := dropEmptyAtoms(flattenConcat(a))
	bs := dropEmptyAtoms(flattenConcat(b))
	var conj []*Term
	changed := false
	for len(as) > 0 && len(bs) > 0 {
		ha, okA := strLiteralAtom(as[0])
		hb, okB := strLiteralAtom(bs[0])
		switch {
		case okA && okB:
			ra, rb := []rune(ha), []rune(hb)
			n := len(ra)
			if len(rb) < n {
				n = len(rb)
			}
			for i := 0; i < n; i++ {
				if ra[i] != rb[i] {
					return Done, m.False()
				}
			}
			as = peelLiteral(m, as, n)
			bs = peelLiteral(m, bs, n)
			changed = true
		case as[0].Kind == KindSeqUnit && bs[0].Kind == KindSeqUnit:
			conj = append(conj, m.Eq(as[0].Args[0], bs[0].Args[0]))
			as, bs = as[1:], bs[1:]
			changed = true
		case as[0] == bs[0]:
			as, bs = as[1:], bs[1:]
			changed = true
		default:
			goto done
		}
	}
done:
	if !changed {
		return Failed, nil
	}
	if len(as) == 0 {
		return RewriteFull, m.And(conj...)
	}
	if len(bs) == 0 {
		conj = append(conj, m.Eq(rw.concatAtoms(as, a.Sort), m.SeqEmpty(a.Sort)))
		return RewriteFull, m.And(conj...)
	}
	conj = append(conj, m.PrefixOf(rw.concatAtoms(as, a.Sort), rw.concatAtoms(bs, b.Sort)))
	return RewriteFull, m.And(conj...)
}

// peelLiteral removes n characters from the front of a literal head atom.
func peelLiteral(m *Manager, es []*Term, n int) []*Term {
	s, _ := strLiteralAtom(es[0])
	rs := []rune(s)
	if n >= len(rs) {
		return es[1:]
	}
	return replaceHead(es, m.Str(string(rs[n:])))
}

func (rw *Rewriter) mkSeqSuffix(a, b *Term) (Status, *Term) {
	m := rw.mgr
	if IsEmptySeq(a) || a == b {
		return Done, m.True()
	}
	if sa, ok := StrVal(a); ok {
		if sb, ok := StrVal(b); ok {
			return Done, m.Bool(strings.HasSuffix(sb, sa))
		}
	}
	if bounded, maxA := MaxLength(a); bounded {
		if bB, minBv := MinLength(b); bB && maxA <= minBv {
			if _, minAv := MinLength(a); minAv == maxA && minAv == minBv {
				return Rewrite2, m.Eq(a, b)
			}
		}
	}

	as := dropEmptyAtoms(flattenConcat(a))
	bs := dropEmptyAtoms(flattenConcat(b))
	var conj []*Term
	changed := false
	for len(as) > 0 && len(bs) > 0 {
		la, okA := strLiteralAtom(as[len(as)-1])
		lb, okB := strLiteralAtom(bs[len(bs)-1])
		switch {
		case okA && okB:
			ra, rb := []rune(la), []rune(lb)
			n := len(ra)
			if len(rb) < n {
				n = len(rb)
			}
			for i := 0; i < n; i++ {
				if ra[len(ra)-1-i] != rb[len(rb)-1-i] {
					return Done, m.False()
				}
			}
			as = peelLiteralBack(m, as, n)
			bs = peelLiteralBack(m, bs, n)
			changed = true
		case as[len(as)-1].Kind == KindSeqUnit && bs[len(bs)-1].Kind == KindSeqUnit:
			conj = append(conj, m.Eq(as[len(as)-1].Args[0], bs[len(bs)-1].Args[0]))
			as, bs = as[:len(as)-1], bs[:len(bs)-1]
			changed = true
		case as[len(as)-1] == bs[len(bs)-1]:
			as, bs = as[:len(as)-1], bs[:len(bs)-1]
			changed = true
		default:
			goto done
		}
	}
done:
	if !changed {
		return Failed, nil
	}
	if len(as) == 0 {
		return RewriteFull, m.And(conj...)
	}
	if len(bs) == 0 {
		conj = append(conj, m.Eq(rw.concatAtoms(as, a.Sort), m.SeqEmpty(a.Sort)))
		return RewriteFull, m.And(conj...)
	}
	conj = append(conj, m.SuffixOf(rw.concatAtoms(as, a.Sort), rw.concatAtoms(bs, b.Sort)))
	return RewriteFull, m.And(conj...)
}

func peelLiteralBack(m *Manager, es []*Term, n int) []*Term {
	s, _ := strLiteralAtom(es[len(es)-1])
	rs := []rune(s)
	if n >= len(rs) {
		return es[:len(es)-1]
	}
	return replaceLast(es, m.Str(string(rs[:len(rs)-n])))
}

// --- replace ----------------------------------------------------------

func (rw *Rewriter) mkSeqReplace(a, b, c *Term) (Status, *Term) {
	m := rw.mgr
	if sa, ok := StrVal(a); ok {
		if sb, ok := StrVal(b); ok {
			if sc, ok := StrVal(c); ok {
				return Done, m.Str(strings.Replace(sa, sb, sc, 1))
			}
		}
	}
	if b == c {
		return Done, a
	}
	if a == b {
		return Done, c
	}
	if IsEmptySeq(b) {
		return Rewrite1, m.Concat(c, a)
	}
	if IsEmptySeq(a) {
		if _, n := MinLength(b); n > 0 {
			return Done, a
		}
		return Failed, nil
	}

	atoms := dropEmptyAtoms(flattenConcat(a))
	batoms := dropEmptyAtoms(flattenConcat(b))
	// A contiguous syntactic match splices in the replacement.
	if len(batoms) <= len(atoms) {
		for i := 0; i+len(batoms) <= len(atoms); i++ {
			match := true
			for j := range batoms {
				if atoms[i+j] != batoms[j] {
					match = false
					break
				}
			}
			if match {
				pre := rw.concatAtoms(atoms[:i], a.Sort)
				post := rw.concatAtoms(atoms[i+len(batoms):], a.Sort)
				return Rewrite2, m.Concat(pre, m.Concat(c, post))
			}
		}
	}
	// A head that cannot start a match commutes out.
	if len(atoms) > 1 && cannotContainPrefix(atoms[0], batoms[0]) {
		rest := rw.concatAtoms(atoms[1:], a.Sort)
		return Rewrite2, m.Concat(atoms[0], m.Replace(rest, b, c))
	}
	return Failed, nil
}

func (rw *Rewriter) mkSeqReplaceAll(a, b, c *Term) (Status, *Term) {
	m := rw.mgr
	if IsEmptySeq(b) {
		return Done, a
	}
	sa, aok := StrVal(a)
	sb, bok := StrVal(b)
	if aok && bok {
		if sc, ok := StrVal(c); ok {
			return Done, m.Str(replaceAllNonOverlap(sa, sb, sc))
		}
		// Left-to-right scan splicing the symbolic replacement.
		pieces := splitNonOverlap(sa, sb)
		if len(pieces) > 1 {
			out := m.Str(pieces[len(pieces)-1])
			for i := len(pieces) - 2; i >= 0; i-- {
				out = m.Concat(m.Str(pieces[i]), m.Concat(c, out))
			}
			return Rewrite2, out
		}
		return Done, a
	}
	// Vector replacement over value-unit sequences.
	atoms := flattenConcat(a)
	batoms := flattenConcat(b)
	if allValueUnits(atoms) && allValueUnits(batoms) && len(batoms) <= len(atoms) {
		var out []*Term
		changed := false
		for i := 0; i < len(atoms); {
			if i+len(batoms) <= len(atoms) && unitsEqual(atoms[i:i+len(batoms)], batoms) {
				out = append(out, c)
				i += len(batoms)
				changed = true
				continue
			}
			out = append(out, atoms[i])
			i++
		}
		if changed {
			return Rewrite2, rw.concatAtoms(out, a.Sort)
		}
		return Done, a
	}
	return Failed, nil
}

func allValueUnits(es []*Term) bool {
	for _, e := range es {
		if !isUnitValue(e) {
			return false
		}
	}
	return len(es) > 0
}

func unitsEqual(a, b []*Term) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// replaceAllNonOverlap performs the left-to-right non-overlapping scan.
func replaceAllNonOverlap(s, old, repl string) string {
	var sb strings.Builder
	rs, ro := []rune(s), []rune(old)
	for i := 0; i < len(rs); {
		if i+len(ro) <= len(rs) && string(rs[i:i+len(ro)]) == string(ro) {
			sb.WriteString(repl)
			i += len(ro)
			continue
		}
		sb.WriteRune(rs[i])
		i++
	}
	return sb.String()
}

// splitNonOverlap splits s at non-overlapping occurrences of old.
func splitNonOverlap(s, old string) []string {
	var out []string
	var cur []rune
	rs, ro := []rune(s), []rune(old)
	for i := 0; i < len(rs); {
		if i+len(ro) <= len(rs) && string(rs[i:i+len(ro)]) == string(ro) {
			out = append(out, string(cur))
			cur = cur[:0]
			i += len(ro)
			continue
		}
		cur = append(cur, rs[i])
		i++
	}
	out = append(out, string(cur))
	return out
}

// --- map / fold -------------------------------------------------------

func (rw *Rewriter) mkSeqMap(t, f, a *Term) (Status, *Term) {
	m := rw.mgr
	switch a.Kind {
	case KindSeqEmpty:
		return Done, m.SeqEmpty(t.Sort)
	case KindSeqUnit:
		return Rewrite2, m.SeqUnit(m.Select(f, t.Sort.Elem, a.Args[0]))
	case KindSeqConcat:
		return Rewrite2, m.Concat(
			m.SeqMap(f, a.Args[0], t.Sort),
			m.SeqMap(f, a.Args[1], t.Sort))
	}
	return Failed, nil
}

func (rw *Rewriter) mkSeqMapI(t, f, i, a *Term) (Status, *Term) {
	m := rw.mgr
	switch a.Kind {
	case KindSeqEmpty:
		return Done, m.SeqEmpty(t.Sort)
	case KindSeqUnit:
		return Rewrite2, m.SeqUnit(m.Select(f, t.Sort.Elem, i, a.Args[0]))
	case KindSeqConcat:
		x, y := a.Args[0], a.Args[1]
		return Rewrite2, m.Concat(
			m.SeqMapI(f, i, x, t.Sort),
			m.SeqMapI(f, m.Add(i, m.Length(x)), y, t.Sort))
	}
	return Failed, nil
}

func (rw *Rewriter) mkSeqFoldL(f, b, a *Term) (Status, *Term) {
	m := rw.mgr
	switch a.Kind {
	case KindSeqEmpty:
		return Done, b
	case KindSeqUnit:
		return Rewrite2, m.Select(f, b.Sort, b, a.Args[0])
	case KindSeqConcat:
		x, y := a.Args[0], a.Args[1]
		return Rewrite2, m.SeqFoldL(f, m.SeqFoldL(f, b, x), y)
	}
	return Failed, nil
}

func (rw *Rewriter) mkSeqFoldLI(f, i, b, a *Term) (Status, *Term) {
	m := rw.mgr
	switch a.Kind {
	case KindSeqEmpty:
		return Done, b
	case KindSeqUnit:
		return Rewrite2, m.Select(f, b.Sort, i, b, a.Args[0])
	case KindSeqConcat:
		x, y := a.Args[0], a.Args[1]
		return Rewrite2, m.SeqFoldLI(f, m.Add(i, m.Length(x)), m.SeqFoldLI(f, i, b, x), y)
	}
	return Failed, nil
}

// --- conversions ------------------------------------------------------

func (rw *Rewriter) mkStrItos(n *Term) (Status, *Term) {
	m := rw.mgr
	if v, ok := IntVal(n); ok {
		if v < 0 {
			return Done, m.Str("")
		}
		return Done, m.Str(formatDecimal(v))
	}
	// itos(stoi(s)) for a short s is a guarded digit test.
	if n.Kind == KindStrStoi {
		s := n.Args[0]
		if bounded, max := MaxLength(s); bounded && max <= 1 {
			var disj []*Term
			for d := '0'; d <= '9'; d++ {
				disj = append(disj, m.Eq(s, m.Str(string(d))))
			}
			return RewriteFull, m.Ite(m.Or(disj...), s, m.Str(""))
		}
	}
	return Failed, nil
}

func formatDecimal(v int64) string {
	if v == 0 {
		return "0"
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	return string(digits)
}

func (rw *Rewriter) mkStrStoi(s *Term) (Status, *Term) {
	m := rw.mgr
	if str, ok := StrVal(s); ok {
		if str == "" {
			return Done, m.Int(-1)
		}
		v, ok := parseDecimal(str)
		if !ok {
			return Done, m.Int(-1)
		}
		return Done, m.Int(v)
	}
	if s.Kind == KindStrItos {
		x := s.Args[0]
		return Rewrite2, m.Ite(m.Ge(x, m.Int(0)), x, m.Int(-1))
	}
	if s.Kind == KindSeqUnit {
		if c, ok := CharVal(s.Args[0]); ok {
			if c >= '0' && c <= '9' {
				return Done, m.Int(c - '0')
			}
			return Done, m.Int(-1)
		}
	}
	// A trailing value-unit digit splits off.
	if s.Kind == KindSeqConcat {
		atoms := flattenConcat(s)
		// Any non-digit value refutes the conversion outright.
		for _, e := range atoms {
			if c, ok := literalChar(e); ok && (c < '0' || c > '9') {
				return Done, m.Int(-1)
			}
			if lit, ok := StrVal(e); ok {
				for _, c := range lit {
					if c < '0' || c > '9' {
						return Done, m.Int(-1)
					}
				}
			}
		}
		last := atoms[len(atoms)-1]
		if last.Kind == KindSeqUnit && len(atoms) > 1 {
			tail := m.Stoi(last)
			head := rw.concatAtoms(atoms[:len(atoms)-1], s.Sort)
			sh := m.Stoi(head)
			r := m.Ite(m.Ge(sh, m.Int(0)),
				m.Add(m.Mul(m.Int(10), sh), tail),
				m.Int(-1))
			r = m.Ite(m.Ge(tail, m.Int(0)), r, tail)
			r = m.Ite(m.Eq(head, m.SeqEmpty(s.Sort)), tail, r)
			return RewriteFull, r
		}
	}
	return Failed, nil
}

func (rw *Rewriter) mkStrUbvToS(b *Term) (Status, *Term) {
	m := rw.mgr
	if b.Kind == KindBvVal {
		w := b.Sort.Width
		v := uint64(b.Val)
		if w < 64 {
			v &= (1 << w) - 1
		}
		return Done, m.Str(formatDecimal(int64(v)))
	}
	return Failed, nil
}

func (rw *Rewriter) mkStrSbvToS(b *Term) (Status, *Term) {
	m := rw.mgr
	if b.Kind == KindBvVal {
		w := b.Sort.Width
		v := uint64(b.Val)
		if w < 64 {
			v &= (1 << w) - 1
		}
		// Sign-extend by the top bit.
		if w > 0 && w < 64 && v&(1<<(w-1)) != 0 {
			sv := int64(v) - (1 << w)
			return Done, m.Str("-" + formatDecimal(-sv))
		}
		return Done, m.Str(formatDecimal(int64(v)))
	}
	return Failed, nil
}

func (rw *Rewriter) mkStrToCode(s *Term) (Status, *Term) {
	m := rw.mgr
	if str, ok := StrVal(s); ok {
		rs := []rune(str)
		if len(rs) == 1 {
			return Done, m.Int(int64(rs[0]))
		}
		return Done, m.Int(-1)
	}
	if s.Kind == KindSeqUnit {
		if c, ok := CharVal(s.Args[0]); ok {
			return Done, m.Int(c)
		}
	}
	return Failed, nil
}

func (rw *Rewriter) mkStrFromCode(n *Term) (Status, *Term) {
	m := rw.mgr
	if v, ok := IntVal(n); ok {
		if v < 0 || v > MaxChar {
			return Done, m.Str("")
		}
		return Done, m.Str(string(rune(v)))
	}
	return Failed, nil
}

func (rw *Rewriter) mkStrIsDigit(s *Term) (Status, *Term) {
	m := rw.mgr
	if str, ok := StrVal(s); ok {
		rs := []rune(str)
		return Done, m.Bool(len(rs) == 1 && rs[0] >= '0' && rs[0] <= '9')
	}
	if s.Kind == KindSeqUnit {
		ch := s.Args[0]
		if c, ok := CharVal(ch); ok {
			return Done, m.Bool(c >= '0' && c <= '9')
		}
		return Rewrite2, m.And(
			m.CharLe(m.Char('0'), ch),
			m.CharLe(ch, m.Char('9')))
	}
	return Failed, nil
}

// --- lexicographic order ----------------------------------------------

func (rw *Rewriter) mkStrLt(a, b *Term) (Status, *Term) {
	m := rw.mgr
	if a == b {
		return Done, m.False()
	}
	if sa, ok := StrVal(a); ok {
		if sb, ok := StrVal(b); ok {
			return Done, m.Bool(sa < sb)
		}
	}
	return Failed, nil
}

func (rw *Rewriter) mkStrLe(a, b *Term) (Status, *Term) {
	m := rw.mgr
	if a == b {
		return Done, m.True()
	}
	if sa, ok := StrVal(a); ok {
		if sb, ok := StrVal(b); ok {
			return Done, m.Bool(sa <= sb)
		}
	}
	return Rewrite2, m.Not(m.StrLt(b, a))
}

// --- seq equations ----------------------------------------------------

func (rw *Rewriter) mkEqSeq(t, a, b *Term) (Status, *Term) {
	m := rw.mgr
	eqs, changed, ok := rw.ReduceEq(a, b)
	if !ok {
		return Done, m.False()
	}
	if !changed {
		return Failed, nil
	}
	conj := make([]*Term, 0, len(eqs))
	for _, eq := range eqs {
		conj = append(conj, m.Eq(eq.L, eq.R))
	}
	r := m.And(conj...)
	if r == t {
		return Failed, nil
	}
	return RewriteFull, r
}
