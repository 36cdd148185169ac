package strsmt

// Equational reducer for ls = rs over concatenations of units and strings.
// The reducer either refutes the equation or leaves a residual set of
// simpler equalities.

// Eq is a residual equality emitted by ReduceEq.
type Eq struct {
	L, R *Term
}

// ReduceEq simplifies the equation l = r. ok is false iff the equation is
// refuted; otherwise eqs holds the residual equalities (possibly just l = r
// itself) and changed reports whether any stage made progress.
func (rw *Rewriter) ReduceEq(l, r *Term) (eqs []Eq, changed, ok bool) {
	ls := dropEmptyAtoms(flattenConcat(l))
	rs := dropEmptyAtoms(flattenConcat(r))

	ls, rs, eqs, ok = rw.reduceEqAtoms(ls, rs, nil)
	if !ok {
		return nil, true, false
	}
	changed = len(eqs) > 0 || !sameAtoms(ls, flattenConcat(l)) || !sameAtoms(rs, flattenConcat(r))
	if !changed {
		return []Eq{{L: l, R: r}}, false, true
	}
	if len(ls) > 0 || len(rs) > 0 {
		sort := l.Sort
		eqs = append(eqs, Eq{L: rw.concatAtoms(ls, sort), R: rw.concatAtoms(rs, sort)})
	}
	return eqs, true, true
}

func (rw *Rewriter) reduceEqAtoms(ls, rs []*Term, eqs []Eq) ([]*Term, []*Term, []Eq, bool) {
	var ok bool
	if ls, rs, eqs, ok = rw.reduceBack(ls, rs, eqs); !ok {
		return nil, nil, nil, false
	}
	if ls, rs, eqs, ok = rw.reduceFront(ls, rs, eqs); !ok {
		return nil, nil, nil, false
	}
	if ls, rs, eqs, ok = rw.reduceItos(ls, rs, eqs); !ok {
		return nil, nil, nil, false
	}
	if rs, ls, eqs, ok = rw.reduceItos(rs, ls, eqs); !ok {
		return nil, nil, nil, false
	}
	if !rw.reduceValueClash(ls, rs) {
		return nil, nil, nil, false
	}
	if ls, rs, eqs, ok = rw.reduceByLength(ls, rs, eqs); !ok {
		return nil, nil, nil, false
	}
	if ls, rs, eqs, ok = rw.reduceSubsequence(ls, rs, eqs); !ok {
		return nil, nil, nil, false
	}
	if !rw.reduceNonOverlap(ls, rs) || !rw.reduceNonOverlap(rs, ls) {
		return nil, nil, nil, false
	}
	return ls, rs, eqs, true
}

func dropEmptyAtoms(es []*Term) []*Term {
	out := make([]*Term, 0, len(es))
	for _, e := range es {
		if !IsEmptySeq(e) {
			out = append(out, e)
		}
	}
	return out
}

func sameAtoms(a, b []*Term) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// concatAtoms rebuilds a right-associated concatenation.
func (rw *Rewriter) concatAtoms(es []*Term, sort *Sort) *Term {
	m := rw.mgr
	if len(es) == 0 {
		return m.SeqEmpty(sort)
	}
	r := es[len(es)-1]
	for i := len(es) - 2; i >= 0; i-- {
		r = m.Concat(es[i], r)
	}
	return r
}

// isUnitValue returns true for unit atoms holding an interpreted character.
func isUnitValue(t *Term) bool {
	if t.Kind != KindSeqUnit {
		return false
	}
	_, ok := CharVal(t.Args[0])
	return ok
}

// reduceFront peels matching atoms off the front of both sides, emitting
// element equalities for unit-against-unit and failing on literal clash.
func (rw *Rewriter) reduceFront(ls, rs []*Term, eqs []Eq) ([]*Term, []*Term, []Eq, bool) {
	m := rw.mgr
	for len(ls) > 0 && len(rs) > 0 {
		l, r := ls[0], rs[0]
		// Canonicalize so a literal string faces the unit on the right.
		if r.Kind == KindSeqUnit {
			if _, isStr := StrVal(l); isStr {
				ls, rs = rs, ls
				l, r = r, l
			}
		}
		switch {
		case l == r:
			ls, rs = ls[1:], rs[1:]
		case l.Kind == KindSeqUnit && r.Kind == KindSeqUnit:
			a, b := l.Args[0], r.Args[0]
			if isDistinctValues(a, b) {
				return nil, nil, nil, false
			}
			eqs = append(eqs, Eq{L: a, R: b})
			ls, rs = ls[1:], rs[1:]
		case l.Kind == KindSeqUnit && isLiteral(r):
			s, _ := StrVal(r)
			cs := []rune(s)
			eqs = append(eqs, Eq{L: m.Char(int64(cs[0])), R: l.Args[0]})
			ls = ls[1:]
			if len(cs) == 1 {
				rs = rs[1:]
			} else {
				rs = replaceHead(rs, m.Str(string(cs[1:])))
			}
		case isLiteral(l) && isLiteral(r):
			s1, _ := StrVal(l)
			s2, _ := StrVal(r)
			c1, c2 := []rune(s1), []rune(s2)
			n := len(c1)
			if len(c2) < n {
				n = len(c2)
			}
			for i := 0; i < n; i++ {
				if c1[i] != c2[i] {
					return nil, nil, nil, false
				}
			}
			if n == len(c1) {
				ls = ls[1:]
			} else {
				ls = replaceHead(ls, m.Str(string(c1[n:])))
			}
			if n == len(c2) {
				rs = rs[1:]
			} else {
				rs = replaceHead(rs, m.Str(string(c2[n:])))
			}
		default:
			return ls, rs, eqs, true
		}
	}
	return ls, rs, eqs, true
}

// reduceBack is the mirror image of reduceFront on the tails.
func (rw *Rewriter) reduceBack(ls, rs []*Term, eqs []Eq) ([]*Term, []*Term, []Eq, bool) {
	m := rw.mgr
	for len(ls) > 0 && len(rs) > 0 {
		l, r := ls[len(ls)-1], rs[len(rs)-1]
		if r.Kind == KindSeqUnit {
			if _, isStr := StrVal(l); isStr {
				ls, rs = rs, ls
				l, r = r, l
			}
		}
		switch {
		case l == r:
			ls, rs = ls[:len(ls)-1], rs[:len(rs)-1]
		case l.Kind == KindSeqUnit && r.Kind == KindSeqUnit:
			a, b := l.Args[0], r.Args[0]
			if isDistinctValues(a, b) {
				return nil, nil, nil, false
			}
			eqs = append(eqs, Eq{L: a, R: b})
			ls, rs = ls[:len(ls)-1], rs[:len(rs)-1]
		case l.Kind == KindSeqUnit && isLiteral(r):
			s, _ := StrVal(r)
			cs := []rune(s)
			eqs = append(eqs, Eq{L: m.Char(int64(cs[len(cs)-1])), R: l.Args[0]})
			ls = ls[:len(ls)-1]
			if len(cs) == 1 {
				rs = rs[:len(rs)-1]
			} else {
				rs = replaceLast(rs, m.Str(string(cs[:len(cs)-1])))
			}
		case isLiteral(l) && isLiteral(r):
			s1, _ := StrVal(l)
			s2, _ := StrVal(r)
			c1, c2 := []rune(s1), []rune(s2)
			n := len(c1)
			if len(c2) < n {
				n = len(c2)
			}
			for i := 0; i < n; i++ {
				if c1[len(c1)-1-i] != c2[len(c2)-1-i] {
					return nil, nil, nil, false
				}
			}
			if n == len(c1) {
				ls = ls[:len(ls)-1]
			} else {
				ls = replaceLast(ls, m.Str(string(c1[:len(c1)-n])))
			}
			if n == len(c2) {
				rs = rs[:len(rs)-1]
			} else {
				rs = replaceLast(rs, m.Str(string(c2[:len(c2)-n])))
			}
		default:
			return ls, rs, eqs, true
		}
	}
	return ls, rs, eqs, true
}

func isLiteral(t *Term) bool {
	s, ok := StrVal(t)
	return ok && s != ""
}

func replaceHead(es []*Term, h *Term) []*Term {
	out := make([]*Term, len(es))
	copy(out, es)
	out[0] = h
	return out
}

func replaceLast(es []*Term, t *Term) []*Term {
	out := make([]*Term, len(es))
	copy(out, es)
	out[len(out)-1] = t
	return out
}

// reduceItos matches itos(n) against a literal decimal with no leading zero.
func (rw *Rewriter) reduceItos(ls, rs []*Term, eqs []Eq) ([]*Term, []*Term, []Eq, bool) {
	m := rw.mgr
	if len(ls) != 1 || ls[0].Kind != KindStrItos {
		return ls, rs, eqs, true
	}
	s, ok := atomsLiteral(rs)
	if !ok {
		return ls, rs, eqs, true
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return nil, nil, nil, false
		}
	}
	if len(s) > 1 && s[0] == '0' {
		return nil, nil, nil, false
	}
	if len(s) == 0 {
		return ls, rs, eqs, true
	}
	v, ok := parseDecimal(s)
	if !ok {
		return ls, rs, eqs, true
	}
	eqs = append(eqs, Eq{L: ls[0].Args[0], R: m.Int(v)})
	return nil, nil, eqs, true
}

// atomsLiteral concatenates atoms into a literal string when every atom is
// a literal or a value unit.
func atomsLiteral(es []*Term) (string, bool) {
	var out []rune
	for _, e := range es {
		if s, ok := StrVal(e); ok {
			out = append(out, []rune(s)...)
			continue
		}
		if e.Kind == KindSeqUnit {
			if c, ok := CharVal(e.Args[0]); ok {
				out = append(out, rune(c))
				continue
			}
		}
		return "", false
	}
	return string(out), true
}

func parseDecimal(s string) (int64, bool) {
	var v int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		if v > (1<<62)/10 {
			return 0, false
		}
		v = v*10 + int64(c-'0')
	}
	return v, true
}

// reduceValueClash is a partial clash check: if every atom on both sides
// that is not matched by an identical atom on the other side is a value
// unit, the sides denote different words.
func (rw *Rewriter) reduceValueClash(ls, rs []*Term) bool {
	if len(ls) == 0 || len(rs) == 0 {
		return true
	}
	es := make([]*Term, len(ls))
	copy(es, ls)
	remove := func(r *Term) bool {
		for i, e := range es {
			if e == r {
				es[i] = es[len(es)-1]
				es = es[:len(es)-1]
				return true
			}
		}
		return false
	}
	for _, r := range rs {
		if remove(r) {
			continue
		}
		if !isUnitValue(r) {
			return true
		}
	}
	if len(es) == 0 {
		return true
	}
	for _, e := range es {
		if !isUnitValue(e) {
			return true
		}
	}
	return false
}

// minLengthAtoms folds MinLength over a concatenation's atoms.
func minLengthAtoms(es []*Term) (bounded bool, n int64) {
	bounded = true
	for _, e := range es {
		b, k := MinLength(e)
		bounded = bounded && b
		n += k
	}
	return bounded, n
}

// hasVarAtom reports a possibly-empty atom.
func hasVarAtom(es []*Term) bool {
	for _, e := range es {
		if _, n := MinLength(e); n == 0 {
			return true
		}
	}
	return false
}

// setEmptyAtoms equates every possibly-empty atom with the empty sequence.
// With all set, any atom of positive minimal length fails instead.
func (rw *Rewriter) setEmptyAtoms(es []*Term, all bool, eqs []Eq) ([]Eq, bool) {
	m := rw.mgr
	for _, e := range es {
		b, n := MinLength(e)
		if n > 0 {
			if all {
				return nil, false
			}
			continue
		}
		if b && n == 0 {
			continue
		}
		eqs = append(eqs, Eq{L: m.SeqEmpty(e.Sort), R: e})
	}
	return eqs, true
}

// concatValueAtoms keeps the unit, string, and ite atoms of a side whose
// variables have been equated with the empty sequence.
func (rw *Rewriter) concatValueAtoms(es []*Term, sort *Sort) *Term {
	kept := make([]*Term, 0, len(es))
	for _, e := range es {
		switch e.Kind {
		case KindSeqUnit, KindSeqString, KindIte:
			kept = append(kept, e)
		}
	}
	return rw.concatAtoms(kept, sort)
}

// reduceByLength prunes using exact lengths: when both sides have the same
// known positive length, every variable atom on a side is forced empty.
func (rw *Rewriter) reduceByLength(ls, rs []*Term, eqs []Eq) ([]*Term, []*Term, []Eq, bool) {
	if len(ls) == 0 && len(rs) == 0 {
		return ls, rs, eqs, true
	}
	bounded1, len1 := minLengthAtoms(ls)
	bounded2, len2 := minLengthAtoms(rs)
	if bounded1 && len1 < len2 {
		return nil, nil, nil, false
	}
	if bounded2 && len2 < len1 {
		return nil, nil, nil, false
	}
	sort := func() *Sort {
		if len(ls) > 0 {
			return ls[0].Sort
		}
		return rs[0].Sort
	}
	var ok bool
	if bounded1 && len1 == len2 && len1 > 0 && hasVarAtom(rs) {
		if eqs, ok = rw.setEmptyAtoms(rs, false, eqs); !ok {
			return nil, nil, nil, false
		}
		s := sort()
		eqs = append(eqs, Eq{L: rw.concatValueAtoms(ls, s), R: rw.concatValueAtoms(rs, s)})
		return nil, nil, eqs, true
	}
	if bounded2 && len1 == len2 && len1 > 0 && hasVarAtom(ls) {
		if eqs, ok = rw.setEmptyAtoms(ls, false, eqs); !ok {
			return nil, nil, nil, false
		}
		s := sort()
		eqs = append(eqs, Eq{L: rw.concatValueAtoms(ls, s), R: rw.concatValueAtoms(rs, s)})
		return nil, nil, eqs, true
	}
	return ls, rs, eqs, true
}

// reduceSubsequence matches every atom of the shorter side against the
// longer side; the leftover atoms of the longer side must then be empty.
func (rw *Rewriter) reduceSubsequence(ls, rs []*Term, eqs []Eq) ([]*Term, []*Term, []Eq, bool) {
	swapped := false
	if len(ls) > len(rs) {
		ls, rs = rs, ls
		swapped = true
	}
	if len(ls) == len(rs) {
		if swapped {
			return rs, ls, eqs, true
		}
		return ls, rs, eqs, true
	}
	if len(ls) == 0 && len(rs) == 1 {
		if swapped {
			return rs, ls, eqs, true
		}
		return ls, rs, eqs, true
	}

	rpos := make(map[int]bool)
	matched := true
	for _, x := range ls {
		isUnit := x.Kind == KindSeqUnit
		found := -1
		for j, y := range rs {
			if rpos[j] {
				continue
			}
			if x == y || (isUnit && y.Kind == KindSeqUnit) {
				found = j
				break
			}
		}
		if found < 0 {
			matched = false
			break
		}
		rpos[found] = true
	}
	if !matched {
		if swapped {
			return rs, ls, eqs, true
		}
		return ls, rs, eqs, true
	}

	kept := make([]*Term, 0, len(rs))
	for j, y := range rs {
		if rpos[j] {
			kept = append(kept, y)
			continue
		}
		var ok bool
		if eqs, ok = rw.setEmptyAtoms([]*Term{y}, true, eqs); !ok {
			return nil, nil, nil, false
		}
	}
	if len(kept) == len(rs) {
		if swapped {
			return rs, ls, eqs, true
		}
		return ls, rs, eqs, true
	}
	if len(ls) > 0 {
		sort := ls[0].Sort
		eqs = append(eqs, Eq{L: rw.concatAtoms(ls, sort), R: rw.concatAtoms(kept, sort)})
	}
	return nil, nil, eqs, true
}

// reduceNonOverlap refutes the equation when a contiguous value-unit
// pattern on the left cannot occur anywhere within an all-unit right side.
func (rw *Rewriter) reduceNonOverlap(ls, rs []*Term) bool {
	for _, u := range rs {
		if u.Kind != KindSeqUnit {
			return true
		}
	}
	var pattern []*Term
	for _, x := range ls {
		if x.Kind == KindSeqUnit {
			pattern = append(pattern, x)
			continue
		}
		if len(pattern) > 0 {
			if nonOverlapUnits(pattern, rs) {
				return false
			}
			pattern = nil
		}
	}
	if len(pattern) > 0 && nonOverlapUnits(pattern, rs) {
		return false
	}
	return true
}

// nonOverlapStrings returns true if s1 and s2 cannot overlap in any way:
// no suffix of one is a prefix of the other and neither sits inside the
// other at an internal offset.
func nonOverlapStrings(s1, s2 string) bool {
	c1, c2 := []rune(s1), []rune(s2)
	if len(c1) > len(c2) {
		c1, c2 = c2, c1
	}
	sz1, sz2 := len(c1), len(c2)
	canOverlap := func(start1, end1, start2 int) bool {
		for i := start1; i < end1; i++ {
			if c1[i] != c2[start2+i] {
				return false
			}
		}
		return true
	}
	for i := 1; i < sz1; i++ {
		if canOverlap(i, sz1, -i) {
			return false
		}
	}
	for j := 0; j+sz1 < sz2; j++ {
		if canOverlap(0, sz1, j) {
			return false
		}
	}
	for j := sz2 - sz1; j < sz2; j++ {
		if canOverlap(0, sz2-j, j) {
			return false
		}
	}
	return true
}

// nonOverlapUnits is nonOverlapStrings lifted to unit lists, comparing
// per-position with known-distinct element values.
func nonOverlapUnits(p1, p2 []*Term) bool {
	if len(p1) > len(p2) {
		p1, p2 = p2, p1
	}
	if len(p1) == 0 || len(p2) == 0 {
		return false
	}
	for _, e := range p1 {
		if e.Kind != KindSeqUnit {
			return false
		}
	}
	for _, e := range p2 {
		if e.Kind != KindSeqUnit {
			return false
		}
	}
	sz1, sz2 := len(p1), len(p2)
	canOverlap := func(start1, end1, start2 int) bool {
		for i := start1; i < end1; i++ {
			a, b := p1[i].Args[0], p2[start2+i].Args[0]
			if isDistinctValues(a, b) {
				return false
			}
			if a != b {
				return true
			}
		}
		return true
	}
	for i := 1; i < sz1; i++ {
		if canOverlap(i, sz1, -i) {
			return false
		}
	}
	for j := 0; j+sz1 < sz2; j++ {
		if canOverlap(0, sz1, j) {
			return false
		}
	}
	for j := sz2 - sz1; j < sz2; j++ {
		if canOverlap(0, sz2-j, j) {
			return false
		}
	}
	return true
}
