package strsmt

import "strings"

// Test-side interpreter for ground (or environment-closed) terms. Rewrites
// are validated semantically: a term and its simplification must evaluate
// identically under every assignment tried.

type val struct {
	kind byte // 'i' int, 'b' bool, 'c' char, 's' string
	i    int64
	b    bool
	s    string
}

func iv(n int64) val   { return val{kind: 'i', i: n} }
func bv(b bool) val    { return val{kind: 'b', b: b} }
func cv(c int64) val   { return val{kind: 'c', i: c} }
func sv(s string) val { return val{kind: 's', s: s} }

func (v val) eq(o val) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case 'i', 'c':
		return v.i == o.i
	case 'b':
		return v.b == o.b
	default:
		return v.s == o.s
	}
}

type env map[*Term]val

func evalTerm(t *Term, e env) (val, bool) {
	if v, ok := e[t]; ok {
		return v, true
	}
	switch t.Kind {
	case KindIntVal:
		return iv(t.Val), true
	case KindCharVal:
		return cv(t.Val), true
	case KindTrue:
		return bv(true), true
	case KindFalse:
		return bv(false), true
	case KindSeqString:
		return sv(t.Str), true
	case KindSeqEmpty:
		return sv(""), true
	case KindVar:
		return val{}, false
	case KindSeqUnit:
		c, ok := evalTerm(t.Args[0], e)
		if !ok {
			return val{}, false
		}
		return sv(string(rune(c.i))), true
	case KindSeqConcat:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		return sv(a.s + b.s), true
	case KindSeqLen:
		a, ok := evalTerm(t.Args[0], e)
		if !ok {
			return val{}, false
		}
		return iv(int64(len([]rune(a.s)))), true
	case KindSeqExtract:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		c, ok3 := evalTerm(t.Args[2], e)
		if !ok1 || !ok2 || !ok3 {
			return val{}, false
		}
		rs := []rune(a.s)
		if b.i < 0 || b.i >= int64(len(rs)) || c.i <= 0 {
			return sv(""), true
		}
		end := b.i + c.i
		if end > int64(len(rs)) {
			end = int64(len(rs))
		}
		return sv(string(rs[b.i:end])), true
	case KindSeqAt:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		rs := []rune(a.s)
		if b.i < 0 || b.i >= int64(len(rs)) {
			return sv(""), true
		}
		return sv(string(rs[b.i])), true
	case KindSeqNth, KindSeqNthI, KindSeqNthU:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		rs := []rune(a.s)
		if b.i >= 0 && b.i < int64(len(rs)) {
			return cv(int64(rs[b.i])), true
		}
		// Out-of-bounds reads take a fixed arbitrary interpretation.
		return cv(0), true
	case KindSeqIndexOf:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		c, ok3 := evalTerm(t.Args[2], e)
		if !ok1 || !ok2 || !ok3 {
			return val{}, false
		}
		ra := []rune(a.s)
		if c.i < 0 || c.i > int64(len(ra)) {
			return iv(-1), true
		}
		idx := indexOfRunes(ra[c.i:], []rune(b.s))
		if idx < 0 {
			return iv(-1), true
		}
		return iv(int64(idx) + c.i), true
	case KindSeqLastIndexOf:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		return iv(int64(lastIndexOfRunes([]rune(a.s), []rune(b.s)))), true
	case KindSeqContains:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		return bv(indexOfRunes([]rune(a.s), []rune(b.s)) >= 0), true
	case KindSeqPrefix:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		return bv(strings.HasPrefix(b.s, a.s)), true
	case KindSeqSuffix:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		return bv(strings.HasSuffix(b.s, a.s)), true
	case KindSeqReplace:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		c, ok3 := evalTerm(t.Args[2], e)
		if !ok1 || !ok2 || !ok3 {
			return val{}, false
		}
		return sv(strings.Replace(a.s, b.s, c.s, 1)), true
	case KindSeqReplaceAll:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		c, ok3 := evalTerm(t.Args[2], e)
		if !ok1 || !ok2 || !ok3 {
			return val{}, false
		}
		if b.s == "" {
			return a, true
		}
		return sv(replaceAllNonOverlap(a.s, b.s, c.s)), true
	case KindStrItos:
		n, ok := evalTerm(t.Args[0], e)
		if !ok {
			return val{}, false
		}
		if n.i < 0 {
			return sv(""), true
		}
		return sv(formatDecimal(n.i)), true
	case KindStrStoi:
		s, ok := evalTerm(t.Args[0], e)
		if !ok {
			return val{}, false
		}
		if s.s == "" {
			return iv(-1), true
		}
		n, ok2 := parseDecimal(s.s)
		if !ok2 {
			return iv(-1), true
		}
		return iv(n), true
	case KindStrToCode:
		s, ok := evalTerm(t.Args[0], e)
		if !ok {
			return val{}, false
		}
		rs := []rune(s.s)
		if len(rs) != 1 {
			return iv(-1), true
		}
		return iv(int64(rs[0])), true
	case KindStrFromCode:
		n, ok := evalTerm(t.Args[0], e)
		if !ok {
			return val{}, false
		}
		if n.i < 0 || n.i > MaxChar {
			return sv(""), true
		}
		return sv(string(rune(n.i))), true
	case KindStrIsDigit:
		s, ok := evalTerm(t.Args[0], e)
		if !ok {
			return val{}, false
		}
		rs := []rune(s.s)
		return bv(len(rs) == 1 && rs[0] >= '0' && rs[0] <= '9'), true
	case KindStrLt:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		return bv(a.s < b.s), true
	case KindStrLe:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		return bv(a.s <= b.s), true
	case KindAdd:
		return evalArith(t, e, func(a, b int64) int64 { return a + b })
	case KindSub:
		return evalArith(t, e, func(a, b int64) int64 { return a - b })
	case KindMul:
		return evalArith(t, e, func(a, b int64) int64 { return a * b })
	case KindLe:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		return bv(a.i <= b.i), true
	case KindLt:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		return bv(a.i < b.i), true
	case KindCharLe:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		return bv(a.i <= b.i), true
	case KindEq:
		a, ok1 := evalTerm(t.Args[0], e)
		b, ok2 := evalTerm(t.Args[1], e)
		if !ok1 || !ok2 {
			return val{}, false
		}
		return bv(a.eq(b)), true
	case KindNot:
		a, ok := evalTerm(t.Args[0], e)
		if !ok {
			return val{}, false
		}
		return bv(!a.b), true
	case KindAnd:
		out := true
		for _, arg := range t.Args {
			a, ok := evalTerm(arg, e)
			if !ok {
				return val{}, false
			}
			out = out && a.b
		}
		return bv(out), true
	case KindOr:
		out := false
		for _, arg := range t.Args {
			a, ok := evalTerm(arg, e)
			if !ok {
				return val{}, false
			}
			out = out || a.b
		}
		return bv(out), true
	case KindIte:
		c, ok := evalTerm(t.Args[0], e)
		if !ok {
			return val{}, false
		}
		if c.b {
			return evalTerm(t.Args[1], e)
		}
		return evalTerm(t.Args[2], e)
	case KindSeqInRe:
		s, ok := evalTerm(t.Args[0], e)
		if !ok {
			return val{}, false
		}
		r, ok := reMatches(t.Args[1], s.s, e)
		if !ok {
			return val{}, false
		}
		return bv(r), true
	}
	return val{}, false
}

func evalArith(t *Term, e env, f func(a, b int64) int64) (val, bool) {
	a, ok1 := evalTerm(t.Args[0], e)
	b, ok2 := evalTerm(t.Args[1], e)
	if !ok1 || !ok2 {
		return val{}, false
	}
	return iv(f(a.i, b.i)), true
}

// reMatches decides s ∈ L(r) directly from the language definition.
func reMatches(r *Term, s string, e env) (bool, bool) {
	switch r.Kind {
	case KindReEmpty:
		return false, true
	case KindReFull:
		return true, true
	case KindReFullChar:
		return len([]rune(s)) == 1, true
	case KindReToRe:
		v, ok := evalTerm(r.Args[0], e)
		if !ok {
			return false, false
		}
		return v.s == s, true
	case KindReRange:
		lo, ok1 := evalTerm(r.Args[0], e)
		hi, ok2 := evalTerm(r.Args[1], e)
		if !ok1 || !ok2 {
			return false, false
		}
		rl, rh := []rune(lo.s), []rune(hi.s)
		if len(rl) != 1 || len(rh) != 1 {
			return false, true
		}
		rs := []rune(s)
		return len(rs) == 1 && rl[0] <= rs[0] && rs[0] <= rh[0], true
	case KindReUnion, KindReAntimirovUnion:
		a, ok1 := reMatches(r.Args[0], s, e)
		b, ok2 := reMatches(r.Args[1], s, e)
		return a || b, ok1 && ok2
	case KindReInter:
		a, ok1 := reMatches(r.Args[0], s, e)
		b, ok2 := reMatches(r.Args[1], s, e)
		return a && b, ok1 && ok2
	case KindReDiff:
		a, ok1 := reMatches(r.Args[0], s, e)
		b, ok2 := reMatches(r.Args[1], s, e)
		return a && !b, ok1 && ok2
	case KindReComplement:
		a, ok := reMatches(r.Args[0], s, e)
		return !a, ok
	case KindReConcat:
		rs := []rune(s)
		for i := 0; i <= len(rs); i++ {
			a, ok1 := reMatches(r.Args[0], string(rs[:i]), e)
			if !ok1 {
				return false, false
			}
			if !a {
				continue
			}
			b, ok2 := reMatches(r.Args[1], string(rs[i:]), e)
			if !ok2 {
				return false, false
			}
			if b {
				return true, true
			}
		}
		return false, true
	case KindReStar:
		if s == "" {
			return true, true
		}
		rs := []rune(s)
		for i := 1; i <= len(rs); i++ {
			a, ok1 := reMatches(r.Args[0], string(rs[:i]), e)
			if !ok1 {
				return false, false
			}
			if !a {
				continue
			}
			b, ok2 := reMatches(r, string(rs[i:]), e)
			if !ok2 {
				return false, false
			}
			if b {
				return true, true
			}
		}
		return false, true
	case KindRePlus:
		if s == "" {
			return reMatches(r.Args[0], "", e)
		}
		rs := []rune(s)
		for i := 1; i <= len(rs); i++ {
			a, ok1 := reMatches(r.Args[0], string(rs[:i]), e)
			if !ok1 {
				return false, false
			}
			if !a {
				continue
			}
			if i == len(rs) {
				return true, true
			}
			b, ok2 := reMatches(r, string(rs[i:]), e)
			if !ok2 {
				return false, false
			}
			if b {
				return true, true
			}
		}
		return false, true
	case KindReOpt:
		if s == "" {
			return true, true
		}
		return reMatches(r.Args[0], s, e)
	case KindReLoop:
		lo, hi, hasHi := LoopBounds(r)
		return loopMatches(r.Args[0], s, lo, hi, hasHi, e)
	case KindRePower:
		n, _ := IntVal(r.Args[1])
		return loopMatches(r.Args[0], s, n, n, true, e)
	case KindReReverse:
		return reMatches(r.Args[0], reverseString(s), e)
	case KindReOfPred:
		rs := []rune(s)
		if len(rs) != 1 {
			return false, true
		}
		phi := r.Args[0]
		v := r.Args[1]
		e2 := make(env, len(e)+1)
		for k, x := range e {
			e2[k] = x
		}
		e2[v] = cv(int64(rs[0]))
		b, ok := evalTerm(phi, e2)
		return b.b, ok
	case KindIte:
		c, ok := evalTerm(r.Args[0], e)
		if !ok {
			return false, false
		}
		if c.b {
			return reMatches(r.Args[1], s, e)
		}
		return reMatches(r.Args[2], s, e)
	}
	return false, false
}

func loopMatches(r *Term, s string, lo, hi int64, hasHi bool, e env) (bool, bool) {
	rs := []rune(s)
	if lo <= 0 && len(rs) == 0 {
		return true, true
	}
	if hasHi && hi <= 0 {
		return len(rs) == 0 && lo <= 0, true
	}
	if len(rs) == 0 {
		if lo <= 0 {
			return true, true
		}
		// The base may still be nullable.
		b, ok := reMatches(r, "", e)
		return b, ok
	}
	for i := 1; i <= len(rs); i++ {
		a, ok1 := reMatches(r, string(rs[:i]), e)
		if !ok1 {
			return false, false
		}
		if !a {
			continue
		}
		nhi := hi - 1
		b, ok2 := loopMatches(r, string(rs[i:]), lo-1, nhi, hasHi, e)
		if !ok2 {
			return false, false
		}
		if b {
			return true, true
		}
	}
	// The empty base word can absorb remaining required repetitions.
	if lo > 0 {
		if b, ok := reMatches(r, "", e); ok && b {
			return loopMatches(r, s, 0, hi, hasHi, e)
		}
	}
	return false, true
}
