package strsmt

// Symbolic Antimirov derivatives. Results are kept in a disciplined normal
// form: an antimirov_union layer on top, then per-branch BDDs (ite trees
// over simple character predicates with strictly decreasing condition ids
// from the root down), then plain regex leaves. diff, opt, and plus never
// survive inside a normal form.

// Derivative returns the derivative of r by the symbolic element elem under
// the trivially-true path condition.
func (rw *Rewriter) Derivative(elem, r *Term) *Term {
	return rw.mkDerivRec(elem, r, rw.mgr.True())
}

// IsNullable returns a Boolean formula deciding whether the empty word is
// in the language of r.
func (rw *Rewriter) IsNullable(r *Term) *Term { return rw.isNullable(r) }

func (rw *Rewriter) isNullable(r *Term) *Term {
	if n, ok := rw.cache.find(opNullable, r, nil, nil); ok {
		return n
	}
	n := rw.isNullableRec(r)
	rw.cache.insert(opNullable, r, nil, nil, n)
	return n
}

func (rw *Rewriter) isNullableRec(r *Term) *Term {
	m := rw.mgr
	switch r.Kind {
	case KindReToRe:
		s := r.Args[0]
		if str, ok := StrVal(s); ok {
			return m.Bool(str == "")
		}
		if IsEmptySeq(s) {
			return m.True()
		}
		return m.Eq(s, m.SeqEmpty(s.Sort))
	case KindReEmpty, KindReFullChar, KindReRange, KindReOfPred:
		return m.False()
	case KindReFull, KindReStar, KindReOpt:
		return m.True()
	case KindReConcat, KindReInter:
		return m.And(rw.isNullable(r.Args[0]), rw.isNullable(r.Args[1]))
	case KindReUnion, KindReAntimirovUnion:
		return m.Or(rw.isNullable(r.Args[0]), rw.isNullable(r.Args[1]))
	case KindRePlus, KindReReverse:
		return rw.isNullable(r.Args[0])
	case KindReComplement:
		return m.Not(rw.isNullable(r.Args[0]))
	case KindReDiff:
		return m.And(rw.isNullable(r.Args[0]), m.Not(rw.isNullable(r.Args[1])))
	case KindReLoop:
		lo, hi, hasHi := LoopBounds(r)
		if lo == 0 {
			return m.True()
		}
		if hasHi && hi < lo {
			return m.False()
		}
		return rw.isNullable(r.Args[0])
	case KindRePower:
		if n, _ := IntVal(r.Args[1]); n == 0 {
			return m.True()
		}
		return rw.isNullable(r.Args[0])
	case KindIte:
		return m.Ite(r.Args[0], rw.isNullable(r.Args[1]), rw.isNullable(r.Args[2]))
	}
	// Uninterpreted regexes defer to a membership atom over the empty word.
	return m.InRe(m.SeqEmpty(seqSortOfRe(r)), r)
}

// mkDerivRec computes D(elem, r) under the Boolean path condition assumed
// true along the current BDD branch.
func (rw *Rewriter) mkDerivRec(elem, r, path *Term) *Term {
	if d, ok := rw.cache.find(opDeriv, elem, r, path); ok {
		return d
	}
	d := rw.mkDerivCases(elem, r, path)
	rw.cache.insert(opDeriv, elem, r, path, d)
	return d
}

func (rw *Rewriter) mkDerivCases(elem, r, path *Term) *Term {
	m := rw.mgr
	seq := seqSortOfRe(r)
	switch {
	case r.Kind == KindReEmpty || isEpsilonRe(r):
		return m.ReEmpty(seq)
	case r.Kind == KindReFull || isSigmaPlus(r):
		return m.ReFull(seq)
	case r.Kind == KindReFullChar:
		return m.ReEpsilon(seq)
	}

	switch r.Kind {
	case KindReToRe:
		s := r.Args[0]
		if hd, tl, ok := headTail(m, s); ok {
			// Equality on characters is kept as a single branch condition;
			// it folds away when both sides are values.
			return m.Ite(m.Eq(elem, hd), m.ToRe(tl), m.ReEmpty(seq))
		}
		// Non-ground head: guard on the sequence being non-empty and its
		// first element matching, then continue with the rest.
		cond := m.And(m.Not(m.Eq(s, m.SeqEmpty(s.Sort))), m.Eq(elem, m.NthI(s, m.Int(0))))
		if IsFalse(rw.simplifyPath(elem, m.And(path, cond))) {
			return m.ReEmpty(seq)
		}
		rest := m.Extract(s, m.Int(1), m.Sub(m.Length(s), m.Int(1)))
		return m.Ite(cond, m.ToRe(rest), m.ReEmpty(seq))

	case KindReReverse:
		if inner := r.Args[0]; inner.Kind == KindReToRe {
			s := inner.Args[0]
			if str, ok := StrVal(s); ok {
				if str == "" {
					return m.ReEmpty(seq)
				}
				rs := []rune(str)
				cond := m.Eq(elem, m.Char(int64(rs[len(rs)-1])))
				tail := rw.mkRegexReverse(m.ToRe(m.Str(string(rs[:len(rs)-1]))))
				return m.Ite(cond, tail, m.ReEmpty(seq))
			}
			cond := m.And(
				m.Not(m.Eq(s, m.SeqEmpty(s.Sort))),
				m.Eq(elem, m.NthI(s, m.Sub(m.Length(s), m.Int(1)))))
			if IsFalse(rw.simplifyPath(elem, m.And(path, cond))) {
				return m.ReEmpty(seq)
			}
			rest := m.Extract(s, m.Int(0), m.Sub(m.Length(s), m.Int(1)))
			return m.Ite(cond, rw.mkRegexReverse(m.ToRe(rest)), m.ReEmpty(seq))
		}
		rev := rw.mkRegexReverse(r.Args[0])
		if rev == r {
			return m.ReDerivative(elem, r)
		}
		return rw.mkDerivRec(elem, rev, path)

	case KindReConcat:
		r1, r2 := r.Args[0], r.Args[1]
		d1 := rw.mkDerConcat(rw.mkDerivRec(elem, r1, path), r2)
		n := rw.isNullable(r1)
		if IsFalse(n) || IsFalse(m.And(n, path)) {
			return d1
		}
		d2 := m.Ite(n, rw.mkDerivRec(elem, r2, path), m.ReEmpty(seq))
		return rw.mkDerAntimirovUnion(d1, d2)

	case KindIte:
		c, r1, r2 := r.Args[0], r.Args[1], r.Args[2]
		p1 := rw.simplifyPath(elem, m.And(path, c))
		p2 := rw.simplifyPath(elem, m.And(path, m.Not(c)))
		if IsFalse(p1) {
			return rw.mkDerivRec(elem, r2, p2)
		}
		if IsFalse(p2) {
			return rw.mkDerivRec(elem, r1, p1)
		}
		return m.Ite(c, rw.mkDerivRec(elem, r1, p1), rw.mkDerivRec(elem, r2, p2))

	case KindReRange:
		lo, hi := r.Args[0], r.Args[1]
		if c1, ok := literalChar(lo); ok {
			if c2, ok := literalChar(hi); ok {
				if c1 > c2 {
					return m.ReEmpty(seq)
				}
				cond := m.And(m.CharLe(m.Char(c1), elem), m.CharLe(elem, m.Char(c2)))
				if IsFalse(rw.simplifyPath(elem, m.And(path, cond))) {
					return m.ReEmpty(seq)
				}
				return m.Ite(cond, m.ReEpsilon(seq), m.ReEmpty(seq))
			}
		}
		cond := m.And(
			m.Eq(m.Length(lo), m.Int(1)),
			m.Eq(m.Length(hi), m.Int(1)),
			m.CharLe(m.NthI(lo, m.Int(0)), elem),
			m.CharLe(elem, m.NthI(hi, m.Int(0))))
		if IsFalse(rw.simplifyPath(elem, m.And(path, cond))) {
			return m.ReEmpty(seq)
		}
		return m.Ite(cond, m.ReEpsilon(seq), m.ReEmpty(seq))

	case KindReUnion, KindReAntimirovUnion:
		return rw.mkDerAntimirovUnion(
			rw.mkDerivRec(elem, r.Args[0], path),
			rw.mkDerivRec(elem, r.Args[1], path))

	case KindReInter:
		return rw.mkDerInter(
			rw.mkDerivRec(elem, r.Args[0], path),
			rw.mkDerivRec(elem, r.Args[1], path))

	case KindReStar:
		return rw.mkDerConcat(rw.mkDerivRec(elem, r.Args[0], path), r)

	case KindRePlus:
		return rw.mkDerConcat(rw.mkDerivRec(elem, r.Args[0], path), rw.mkReStar(r.Args[0]))

	case KindReOpt:
		return rw.mkDerivRec(elem, r.Args[0], path)

	case KindReLoop:
		lo, hi, hasHi := LoopBounds(r)
		if hasHi && (hi == 0 || hi < lo) {
			return m.ReEmpty(seq)
		}
		tail := rw.mkReLoop(r.Args[0], lo-1, hi-1, hasHi)
		return rw.mkDerConcat(rw.mkDerivRec(elem, r.Args[0], path), tail)

	case KindReComplement:
		return rw.mkDerCompl(rw.mkDerivRec(elem, r.Args[0], path))

	case KindReDiff:
		return rw.mkDerivRec(elem, rw.mkReDiff(r.Args[0], r.Args[1]), path)

	case KindRePower:
		n, _ := IntVal(r.Args[1])
		return rw.mkDerivRec(elem, rw.mkRePower(r.Args[0], n), path)

	case KindReOfPred:
		phi, v := r.Args[0], r.Args[1]
		return rw.mkDerCond(m.Substitute(phi, v, elem), elem, seq)
	}

	// Uninterpreted regex: leave a derivative leaf.
	return m.ReDerivative(elem, r)
}

// mkDerUnion combines two normal-form derivatives under union.
func (rw *Rewriter) mkDerUnion(a, b *Term) *Term { return rw.mkDerOp(KindReUnion, a, b) }

// mkDerInter combines two normal-form derivatives under intersection.
func (rw *Rewriter) mkDerInter(a, b *Term) *Term { return rw.mkDerOp(KindReInter, a, b) }

// mkDerConcat appends a tail regex to a normal-form derivative.
func (rw *Rewriter) mkDerConcat(a, b *Term) *Term { return rw.mkDerOp(KindReConcat, a, b) }

func derOpKind(kind Kind) opKind {
	switch kind {
	case KindReUnion:
		return opDerUnion
	case KindReInter:
		return opDerInter
	case KindReConcat:
		return opDerConcat
	default:
		panic("unreachable")
	}
}

// mkDerOp combines two normal-form regexes under union, intersection, or
// concatenation, keeping antimirov_union on the outside and BDD conditions
// in strictly decreasing id order.
func (rw *Rewriter) mkDerOp(kind Kind, a, b *Term) *Term {
	if r, ok := rw.cache.find(derOpKind(kind), a, b, nil); ok {
		return r
	}
	r := rw.mkDerOpRec(kind, a, b)
	rw.cache.insert(derOpKind(kind), a, b, nil, r)
	return r
}

func (rw *Rewriter) mkDerOpRec(kind Kind, a, b *Term) *Term {
	m := rw.mgr

	// Distribute over the Antimirov layer first.
	if a.Kind == KindReAntimirovUnion {
		return rw.mkDerAntimirovUnion(
			rw.mkDerOp(kind, a.Args[0], b),
			rw.mkDerOp(kind, a.Args[1], b))
	}
	if b.Kind == KindReAntimirovUnion {
		return rw.mkDerAntimirovUnion(
			rw.mkDerOp(kind, a, b.Args[0]),
			rw.mkDerOp(kind, a, b.Args[1]))
	}

	aIte := a.Kind == KindIte
	bIte := b.Kind == KindIte
	switch {
	case aIte && bIte:
		ca, cb := a.Args[0], b.Args[0]
		if ca == cb {
			return m.Ite(ca,
				rw.mkDerOp(kind, a.Args[1], b.Args[1]),
				rw.mkDerOp(kind, a.Args[2], b.Args[2]))
		}
		if ca.ID < cb.ID {
			// The larger-id condition goes outside.
			if kind == KindReConcat {
				return m.Ite(cb,
					rw.mkDerOp(kind, a, b.Args[1]),
					rw.mkDerOp(kind, a, b.Args[2]))
			}
			a, b = b, a
			ca, cb = cb, ca
		}
		// Thin the inner node when the outer condition already decides it.
		bThen, bElse := b, b
		switch {
		case predImplies(ca, false, cb, false):
			bThen = b.Args[1]
		case predImplies(ca, false, cb, true):
			bThen = b.Args[2]
		}
		switch {
		case predImplies(ca, true, cb, false):
			bElse = b.Args[1]
		case predImplies(ca, true, cb, true):
			bElse = b.Args[2]
		}
		return m.Ite(ca,
			rw.mkDerOp(kind, a.Args[1], bThen),
			rw.mkDerOp(kind, a.Args[2], bElse))

	case aIte:
		return m.Ite(a.Args[0],
			rw.mkDerOp(kind, a.Args[1], b),
			rw.mkDerOp(kind, a.Args[2], b))
	case bIte:
		return m.Ite(b.Args[0],
			rw.mkDerOp(kind, a, b.Args[1]),
			rw.mkDerOp(kind, a, b.Args[2]))
	}

	switch kind {
	case KindReUnion:
		return rw.mkReUnion(a, b)
	case KindReInter:
		return rw.mkReInter(a, b)
	default:
		return rw.mkReConcat(a, b)
	}
}

// mkDerAntimirovUnion merges two normal forms under the Antimirov union,
// flattening, dropping empty members, and deduplicating by identity.
func (rw *Rewriter) mkDerAntimirovUnion(a, b *Term) *Term {
	m := rw.mgr
	seq := seqSortOfRe(a)
	members := append(reAtoms(KindReAntimirovUnion, a), reAtoms(KindReAntimirovUnion, b)...)
	out := members[:0]
	seen := make(map[*Term]bool, len(members))
	for _, t := range members {
		if t.Kind == KindReEmpty || seen[t] {
			continue
		}
		if t.Kind == KindReFull {
			return t
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return m.ReEmpty(seq)
	}
	r := out[len(out)-1]
	for i := len(out) - 2; i >= 0; i-- {
		r = m.AntimirovUnion(out[i], r)
	}
	return r
}

// mkDerCompl complements a normal-form derivative.
func (rw *Rewriter) mkDerCompl(a *Term) *Term {
	if r, ok := rw.cache.find(opDerCompl, a, nil, nil); ok {
		return r
	}
	r := rw.mkDerComplRec(a)
	rw.cache.insert(opDerCompl, a, nil, nil, r)
	return r
}

func (rw *Rewriter) mkDerComplRec(a *Term) *Term {
	m := rw.mgr
	seq := seqSortOfRe(a)
	switch a.Kind {
	case KindReAntimirovUnion:
		return rw.mkDerInter(rw.mkDerCompl(a.Args[0]), rw.mkDerCompl(a.Args[1]))
	case KindIte:
		return m.Ite(a.Args[0], rw.mkDerCompl(a.Args[1]), rw.mkDerCompl(a.Args[2]))
	case KindReEmpty:
		return m.ReFull(seq)
	case KindReFull:
		return m.ReEmpty(seq)
	}
	if isEpsilonRe(a) {
		return rw.mkSigmaPlus(seq)
	}
	return rw.mkReComplement(a)
}

// mkDerCond translates a branch condition into the canonical BDD regex with
// ε and ∅ leaves, using only ≤ (and negations thereof) on characters.
func (rw *Rewriter) mkDerCond(cond, elem *Term, seq *Sort) *Term {
	m := rw.mgr
	eps := func() *Term { return m.ReEpsilon(seq) }
	bot := func() *Term { return m.ReEmpty(seq) }
	leAtom := func(k int64) *Term {
		return m.Ite(m.CharLe(elem, m.Char(k)), eps(), bot())
	}

	switch cond.Kind {
	case KindTrue:
		return eps()
	case KindFalse:
		return bot()
	case KindAnd:
		r := eps()
		for _, c := range cond.Args {
			r = rw.mkDerInter(r, rw.mkDerCond(c, elem, seq))
		}
		return r
	case KindOr:
		r := bot()
		for _, c := range cond.Args {
			r = rw.mkDerUnion(r, rw.mkDerCond(c, elem, seq))
		}
		return r
	case KindNot:
		return rw.negateGuard(rw.mkDerCond(cond.Args[0], elem, seq))
	case KindIte:
		c, t, e := cond.Args[0], cond.Args[1], cond.Args[2]
		return rw.mkDerUnion(
			rw.mkDerInter(rw.mkDerCond(c, elem, seq), rw.mkDerCond(t, elem, seq)),
			rw.mkDerInter(rw.negateGuard(rw.mkDerCond(c, elem, seq)), rw.mkDerCond(e, elem, seq)))
	case KindEq:
		x, y := cond.Args[0], cond.Args[1]
		if _, ok := CharVal(x); !ok {
			x, y = y, x
		}
		if c, ok := CharVal(x); ok && y == elem {
			// e = c as ¬(e ≤ c−1) ∧ (e ≤ c).
			if c == 0 {
				return leAtom(0)
			}
			return rw.mkDerInter(rw.negateGuard(leAtom(c-1)), leAtom(c))
		}
	case KindCharLe:
		x, y := cond.Args[0], cond.Args[1]
		if c, ok := CharVal(x); ok && y == elem {
			// c ≤ e.
			if c <= 0 {
				return eps()
			}
			return rw.negateGuard(leAtom(c - 1))
		}
		if c, ok := CharVal(y); ok && x == elem {
			return leAtom(c)
		}
	}
	return m.Ite(cond, eps(), bot())
}

// negateGuard negates a condition BDD by exchanging its ε and ∅ leaves.
// Guards encode pass/fail of a single branch predicate, so negation swaps
// the verdict rather than complementing a language.
func (rw *Rewriter) negateGuard(g *Term) *Term {
	m := rw.mgr
	switch {
	case g.Kind == KindIte:
		return m.Ite(g.Args[0], rw.negateGuard(g.Args[1]), rw.negateGuard(g.Args[2]))
	case g.Kind == KindReEmpty:
		return m.ReEpsilon(seqSortOfRe(g))
	case isEpsilonRe(g):
		return m.ReEmpty(seqSortOfRe(g))
	}
	return rw.mkDerCompl(g)
}

// charLeParts decomposes a canonical condition e ≤ k.
func charLeParts(t *Term) (e *Term, k int64, ok bool) {
	if t.Kind != KindCharLe {
		return nil, 0, false
	}
	if c, isVal := CharVal(t.Args[1]); isVal {
		if _, lhsVal := CharVal(t.Args[0]); !lhsVal {
			return t.Args[0], c, true
		}
	}
	return nil, 0, false
}

// predImplies is a sound-but-partial implication test between branch
// conditions; aNeg and bNeg select the negated sense of each side.
func predImplies(a *Term, aNeg bool, b *Term, bNeg bool) bool {
	if a == b && aNeg == bNeg {
		return true
	}
	e1, k1, ok1 := charLeParts(a)
	e2, k2, ok2 := charLeParts(b)
	if !ok1 || !ok2 || e1 != e2 {
		return false
	}
	switch {
	case !aNeg && !bNeg: // e ≤ k1 ⇒ e ≤ k2
		return k1 <= k2
	case aNeg && bNeg: // e > k1 ⇒ e > k2
		return k1 >= k2
	case aNeg && !bNeg: // e > k1 ⇒ e ≤ k2
		return k2 >= MaxChar
	default: // e ≤ k1 ⇒ e > k2
		return false
	}
}

// simplifyPath simplifies a path condition by character range elimination
// with respect to the derivative element elem.
func (rw *Rewriter) simplifyPath(elem, path *Term) *Term {
	m := rw.mgr
	if IsTrue(path) || IsFalse(path) {
		return path
	}
	var conj []*Term
	if path.Kind == KindAnd {
		conj = path.Args
	} else {
		conj = []*Term{path}
	}

	lo, hi := int64(0), int64(MaxChar)
	var others []*Term
	var excluded []int64
	var sub *Term // elem = sub substitution target

	for _, atom := range conj {
		neg := false
		inner := atom
		if inner.Kind == KindNot {
			neg = true
			inner = inner.Args[0]
		}
		switch inner.Kind {
		case KindCharLe:
			x, y := inner.Args[0], inner.Args[1]
			if x == elem {
				if c, ok := CharVal(y); ok {
					if neg {
						lo = maxInt64(lo, c+1)
					} else {
						hi = minInt64(hi, c)
					}
					continue
				}
			}
			if y == elem {
				if c, ok := CharVal(x); ok {
					if neg {
						hi = minInt64(hi, c-1)
					} else {
						lo = maxInt64(lo, c)
					}
					continue
				}
			}
			others = append(others, atom)
		case KindEq:
			x, y := inner.Args[0], inner.Args[1]
			if y == elem {
				x, y = y, x
			}
			if x == elem {
				if c, ok := CharVal(y); ok {
					if neg {
						excluded = append(excluded, c)
					} else {
						lo = maxInt64(lo, c)
						hi = minInt64(hi, c)
					}
					continue
				}
				if !neg {
					sub = y
					continue
				}
			}
			others = append(others, atom)
		case KindTrue:
			if neg {
				return m.False()
			}
		case KindFalse:
			if !neg {
				return m.False()
			}
		default:
			others = append(others, atom)
		}
	}

	if lo > hi {
		return m.False()
	}
	if lo == hi {
		for _, c := range excluded {
			if c == lo {
				return m.False()
			}
		}
	}

	// An equality on elem substitutes through the remaining conjuncts.
	if sub != nil {
		rest := make([]*Term, 0, len(others)+1)
		rest = append(rest, m.Eq(elem, sub))
		for _, o := range others {
			rest = append(rest, m.Substitute(o, elem, sub))
		}
		if lo > 0 {
			rest = append(rest, m.CharLe(m.Char(lo), sub))
		}
		if hi < MaxChar {
			rest = append(rest, m.CharLe(sub, m.Char(hi)))
		}
		return m.And(rest...)
	}

	// A free element constrained only by a non-empty range is feasible.
	if IsVar(elem) && len(others) == 0 && len(excluded) == 0 {
		return m.True()
	}

	rest := make([]*Term, 0, len(others)+2)
	if lo > 0 {
		rest = append(rest, m.CharLe(m.Char(lo), elem))
	}
	if hi < MaxChar {
		rest = append(rest, m.CharLe(elem, m.Char(hi)))
	}
	for _, c := range excluded {
		if c >= lo && c <= hi {
			rest = append(rest, m.Not(m.Eq(elem, m.Char(c))))
		}
	}
	rest = append(rest, others...)
	return m.And(rest...)
}
