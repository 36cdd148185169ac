package strsmt

// Throttled ite lifting and Boolean-level merging of membership atoms.

// termDepth measures term depth, cutting off above limit.
func termDepth(t *Term, limit int) int {
	if limit <= 0 || len(t.Args) == 0 {
		return 1
	}
	max := 0
	for _, a := range t.Args {
		if d := termDepth(a, limit-1); d > max {
			max = d
		}
	}
	return max + 1
}

// liftIteFilter forbids lifting across to_re of a sequence ite; a regex of
// an ite explodes under derivation.
func liftIteFilter(t *Term) bool {
	return t.Kind != KindReToRe
}

// liftIteThrottled lifts an ite argument over the enclosing operator when
// one of its branches is shallow. Returns Failed when no argument
// qualifies.
func (rw *Rewriter) liftIteThrottled(t *Term) (Status, *Term) {
	m := rw.mgr
	if !liftIteFilter(t) {
		return Failed, nil
	}
	for i, arg := range t.Args {
		if arg.Kind != KindIte || arg.Sort == m.BoolSort() {
			continue
		}
		c, th, el := arg.Args[0], arg.Args[1], arg.Args[2]
		if termDepth(th, 3) > 2 && termDepth(el, 3) > 2 {
			continue
		}
		thArgs := make([]*Term, len(t.Args))
		elArgs := make([]*Term, len(t.Args))
		copy(thArgs, t.Args)
		copy(elArgs, t.Args)
		thArgs[i] = th
		elArgs[i] = el
		return Rewrite2, m.Ite(c,
			m.mk(t.Kind, t.Sort, t.Val, t.Str, thArgs...),
			m.mk(t.Kind, t.Sort, t.Val, t.Str, elArgs...))
	}
	return Failed, nil
}

// inReAtom decomposes a (possibly negated) membership atom.
func inReAtom(t *Term) (s, r *Term, neg, ok bool) {
	if t.Kind == KindNot {
		neg = true
		t = t.Args[0]
	}
	if t.Kind != KindSeqInRe {
		return nil, nil, false, false
	}
	return t.Args[0], t.Args[1], neg, true
}

// mergeInReAtoms merges membership atoms over the same subject appearing
// under one Boolean connective: conjunction intersects the languages,
// disjunction unites them, and a negated atom contributes its complement.
func (rw *Rewriter) mergeInReAtoms(t *Term) (Status, *Term) {
	m := rw.mgr
	isAnd := t.Kind == KindAnd

	type slot struct {
		re    *Term
		first int
		count int
	}
	var merged map[*Term]*slot
	drop := make(map[int]bool)
	for i, arg := range t.Args {
		s, r, neg, ok := inReAtom(arg)
		if !ok {
			continue
		}
		if neg {
			r = rw.mkReComplement(r)
		}
		if merged == nil {
			merged = make(map[*Term]*slot)
		}
		if sl, ok := merged[s]; ok {
			if isAnd {
				sl.re = rw.mkReInter(sl.re, r)
			} else {
				sl.re = rw.mkReUnion(sl.re, r)
			}
			sl.count++
			drop[i] = true
		} else {
			merged[s] = &slot{re: r, first: i, count: 1}
		}
	}
	if len(drop) == 0 {
		return Failed, nil
	}

	args := make([]*Term, 0, len(t.Args))
	for i, arg := range t.Args {
		if drop[i] {
			continue
		}
		if s, _, _, ok := inReAtom(arg); ok {
			if sl := merged[s]; sl != nil && sl.first == i && sl.count > 1 {
				args = append(args, m.InRe(s, sl.re))
				continue
			}
		}
		args = append(args, arg)
	}
	if isAnd {
		return RewriteFull, m.And(args...)
	}
	return RewriteFull, m.Or(args...)
}
