package strsmt

import (
	"strconv"
	"strings"

	"github.com/benbjohnson/immutable"
)

// Symbolic ε-automaton bridge. The translation from regex terms is
// structural and partial: shapes the rewriter cannot express as labeled
// moves report failure instead of guessing. Automata are only consulted for
// sampling and host-driven containment questions, never for rewriting
// proper.

// Move is a transition labeled by a character predicate, or an ε move.
type Move struct {
	Dst  int
	Pred *CharPred
	Eps  bool
}

// Automaton is a finite set of integer states with predicate-labeled
// moves. The move table is a persistent sorted map from source state to
// []Move so derived automata share structure with their inputs.
type Automaton struct {
	alg    *Algebra
	next   int
	moves  *immutable.SortedMap
	init   int
	finals map[int]bool
}

// intComparer compares two int keys. Implements immutable.Comparer.
type intComparer struct{}

// Compare returns -1, 0, or 1 ordering a relative to b.
func (c *intComparer) Compare(a, b interface{}) int {
	if i, j := a.(int), b.(int); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}

func newAutomaton(alg *Algebra) *Automaton {
	return &Automaton{
		alg:    alg,
		moves:  immutable.NewSortedMap(&intComparer{}),
		finals: make(map[int]bool),
	}
}

func (a *Automaton) newState() int {
	s := a.next
	a.next++
	return s
}

func (a *Automaton) addMove(src int, mv Move) {
	var ms []Move
	if v, ok := a.moves.Get(src); ok {
		ms = v.([]Move)
	}
	ms = append(append([]Move{}, ms...), mv)
	a.moves = a.moves.Set(src, ms)
}

// MovesFrom returns the moves out of state src.
func (a *Automaton) MovesFrom(src int) []Move {
	if v, ok := a.moves.Get(src); ok {
		return v.([]Move)
	}
	return nil
}

// Init returns the initial state.
func (a *Automaton) Init() int { return a.init }

// IsFinal returns true if s is an accepting state.
func (a *Automaton) IsFinal(s int) bool { return a.finals[s] }

// States returns the number of states.
func (a *Automaton) States() int { return a.next }

// clone returns a shallow copy sharing the move table.
func (a *Automaton) clone() *Automaton {
	finals := make(map[int]bool, len(a.finals))
	for s := range a.finals {
		finals[s] = true
	}
	return &Automaton{alg: a.alg, next: a.next, moves: a.moves, init: a.init, finals: finals}
}

// loopUnrollBound caps the unrolling of loop(r, lo, hi) terms.
const loopUnrollBound = 16

// ReToAut translates a regex term into an ε-automaton. The second return
// is false on shapes the translation does not support.
func (rw *Rewriter) ReToAut(r *Term) (*Automaton, bool) {
	alg := rw.alg
	sort := seqSortOfRe(r).Elem

	var build func(r *Term) (*Automaton, bool)
	build = func(r *Term) (*Automaton, bool) {
		switch r.Kind {
		case KindReEmpty:
			a := newAutomaton(alg)
			a.init = a.newState()
			return a, true
		case KindReFull:
			a := newAutomaton(alg)
			a.init = a.newState()
			a.finals[a.init] = true
			a.addMove(a.init, Move{Dst: a.init, Pred: alg.True(sort)})
			return a, true
		case KindReFullChar:
			return mkPredAut(alg, alg.True(sort)), true
		case KindReToRe:
			s, ok := StrVal(r.Args[0])
			if !ok {
				return nil, false
			}
			return mkSeqAut(alg, sort, s), true
		case KindReRange:
			lo, okL := literalChar(r.Args[0])
			hi, okH := literalChar(r.Args[1])
			if !okL || !okH {
				return nil, false
			}
			m := rw.mgr
			return mkPredAut(alg, alg.MkRange(m.Char(lo), m.Char(hi))), true
		case KindReOfPred:
			return mkPredAut(alg, alg.MkPred(r.Args[0], r.Args[1])), true
		case KindReConcat:
			x, ok1 := build(r.Args[0])
			y, ok2 := build(r.Args[1])
			if !ok1 || !ok2 {
				return nil, false
			}
			return mkConcatAut(x, y), true
		case KindReUnion, KindReAntimirovUnion:
			x, ok1 := build(r.Args[0])
			y, ok2 := build(r.Args[1])
			if !ok1 || !ok2 {
				return nil, false
			}
			return mkUnionAut(x, y), true
		case KindReStar:
			x, ok := build(r.Args[0])
			if !ok {
				return nil, false
			}
			return mkStarAut(x), true
		case KindRePlus:
			x, ok := build(r.Args[0])
			if !ok {
				return nil, false
			}
			return mkPlusAut(x), true
		case KindReOpt:
			x, ok := build(r.Args[0])
			if !ok {
				return nil, false
			}
			return mkOptAut(x), true
		case KindReInter:
			x, ok1 := build(r.Args[0])
			y, ok2 := build(r.Args[1])
			if !ok1 || !ok2 {
				return nil, false
			}
			return mkProductAut(x, y), true
		case KindReComplement:
			x, ok := build(r.Args[0])
			if !ok {
				return nil, false
			}
			return mkComplementAut(x)
		case KindReLoop:
			lo, hi, hasHi := LoopBounds(r)
			if !hasHi || hi > loopUnrollBound {
				if !hasHi {
					// loop(r, lo) = r^lo · r*.
					x, ok := build(r.Args[0])
					if !ok || lo > loopUnrollBound {
						return nil, false
					}
					out := mkStarAut(x.clone())
					for i := int64(0); i < lo; i++ {
						out = mkConcatAut(x.clone(), out)
					}
					return out, true
				}
				return nil, false
			}
			return rw.buildLoopAut(build, r.Args[0], lo, hi)
		}
		return nil, false
	}
	return build(r)
}

// buildLoopAut unrolls loop(r, lo, hi) into nested concatenations with
// optional tails.
func (rw *Rewriter) buildLoopAut(build func(*Term) (*Automaton, bool), r *Term, lo, hi int64) (*Automaton, bool) {
	x, ok := build(r)
	if !ok || hi < lo {
		return nil, false
	}
	var out *Automaton
	for i := int64(0); i < hi; i++ {
		part := x.clone()
		if i >= lo {
			part = mkOptAut(part)
		}
		if out == nil {
			out = part
		} else {
			out = mkConcatAut(out, part)
		}
	}
	if out == nil {
		// loop(r, 0, 0) accepts exactly ε.
		out = newAutomaton(x.alg)
		out.init = out.newState()
		out.finals[out.init] = true
	}
	return out, true
}

// mkPredAut accepts exactly the single-element words satisfying p.
func mkPredAut(alg *Algebra, p *CharPred) *Automaton {
	a := newAutomaton(alg)
	a.init = a.newState()
	fin := a.newState()
	a.finals[fin] = true
	a.addMove(a.init, Move{Dst: fin, Pred: p})
	return a
}

// mkSeqAut accepts exactly the literal word s.
func mkSeqAut(alg *Algebra, sort *Sort, s string) *Automaton {
	a := newAutomaton(alg)
	a.init = a.newState()
	cur := a.init
	for _, c := range s {
		next := a.newState()
		a.addMove(cur, Move{Dst: next, Pred: alg.MkChar(alg.mgr.Char(int64(c)))})
		cur = next
	}
	a.finals[cur] = true
	return a
}

// shiftInto renumbers y's states above x's and merges its moves into x.
func shiftInto(x, y *Automaton) (initY int, finalsY []int) {
	off := x.next
	itr := y.moves.Iterator()
	for {
		k, v := itr.Next()
		if k == nil {
			break
		}
		src := k.(int) + off
		for _, mv := range v.([]Move) {
			x.addMove(src, Move{Dst: mv.Dst + off, Pred: mv.Pred, Eps: mv.Eps})
		}
	}
	x.next += y.next
	for s := range y.finals {
		finalsY = append(finalsY, s+off)
	}
	return y.init + off, finalsY
}

// mkConcatAut links x's finals to y's initial state by ε moves.
func mkConcatAut(x, y *Automaton) *Automaton {
	out := x.clone()
	initY, finalsY := shiftInto(out, y)
	for f := range x.finals {
		out.addMove(f, Move{Dst: initY, Eps: true})
	}
	out.finals = make(map[int]bool)
	for _, f := range finalsY {
		out.finals[f] = true
	}
	return out
}

// mkUnionAut introduces a fresh initial state with ε moves to both sides.
func mkUnionAut(x, y *Automaton) *Automaton {
	out := x.clone()
	initY, finalsY := shiftInto(out, y)
	start := out.newState()
	out.addMove(start, Move{Dst: x.init, Eps: true})
	out.addMove(start, Move{Dst: initY, Eps: true})
	out.init = start
	for _, f := range finalsY {
		out.finals[f] = true
	}
	return out
}

// mkStarAut closes x with final-to-init and init-to-final ε moves.
func mkStarAut(x *Automaton) *Automaton {
	out := x.clone()
	for f := range x.finals {
		out.addMove(f, Move{Dst: out.init, Eps: true})
	}
	out.finals[out.init] = true
	return out
}

// mkPlusAut adds the final-to-init moves only.
func mkPlusAut(x *Automaton) *Automaton {
	out := x.clone()
	for f := range x.finals {
		out.addMove(f, Move{Dst: out.init, Eps: true})
	}
	return out
}

// mkOptAut makes the initial state accepting.
func mkOptAut(x *Automaton) *Automaton {
	out := x.clone()
	out.finals[out.init] = true
	return out
}

// mkProductAut is the synchronous product of x and y; the pair predicate
// is the conjunction of the component predicates.
func mkProductAut(x, y *Automaton) *Automaton {
	out := newAutomaton(x.alg)
	type pair struct{ a, b int }
	ids := make(map[pair]int)
	var getState func(p pair) int
	getState = func(p pair) int {
		if id, ok := ids[p]; ok {
			return id
		}
		id := out.newState()
		ids[p] = id
		return id
	}
	xc := epsClosureAll(x)
	yc := epsClosureAll(y)

	start := pair{x.init, y.init}
	out.init = getState(start)
	work := []pair{start}
	seen := map[pair]bool{start: true}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		id := getState(p)
		for _, pa := range xc[p.a] {
			for _, pb := range yc[p.b] {
				if x.finals[pa] && y.finals[pb] {
					out.finals[id] = true
				}
				for _, mx := range x.MovesFrom(pa) {
					if mx.Eps {
						continue
					}
					for _, my := range y.MovesFrom(pb) {
						if my.Eps {
							continue
						}
						joint := x.alg.And(mx.Pred, my.Pred)
						if x.alg.IsSat(joint) == TriFalse {
							continue
						}
						np := pair{mx.Dst, my.Dst}
						out.addMove(id, Move{Dst: getState(np), Pred: joint})
						if !seen[np] {
							seen[np] = true
							work = append(work, np)
						}
					}
				}
			}
		}
	}
	return out
}

// interval is an inclusive character range.
type interval struct{ lo, hi int64 }

// predIntervals renders a predicate as a union of constant intervals.
func predIntervals(p *CharPred) ([]interval, bool) {
	switch p.Tag {
	case PredChar:
		c, ok := CharVal(p.C)
		if !ok {
			return nil, false
		}
		return []interval{{c, c}}, true
	case PredRange:
		lo, hi, ok := constRange(p)
		if !ok {
			return nil, false
		}
		if lo > hi {
			return nil, true
		}
		return []interval{{lo, hi}}, true
	case PredFormula:
		if p.IsTrue() {
			return []interval{{0, MaxChar}}, true
		}
		if p.IsFalse() {
			return nil, true
		}
		return nil, false
	case PredNot:
		ivs, ok := predIntervals(p.Child)
		if !ok {
			return nil, false
		}
		return complementIntervals(ivs), true
	}
	return nil, false
}

func complementIntervals(ivs []interval) []interval {
	var out []interval
	next := int64(0)
	for _, iv := range ivs {
		if iv.lo > next {
			out = append(out, interval{next, iv.lo - 1})
		}
		if iv.hi+1 > next {
			next = iv.hi + 1
		}
	}
	if next <= MaxChar {
		out = append(out, interval{next, MaxChar})
	}
	return out
}

func intervalsContain(ivs []interval, c int64) bool {
	for _, iv := range ivs {
		if iv.lo <= c && c <= iv.hi {
			return true
		}
	}
	return false
}

// mkComplementAut determinizes x over the partition induced by its
// constant-interval move labels and complements the accepting set. Moves
// whose predicates have no constant rendering defeat the construction.
func mkComplementAut(x *Automaton) (*Automaton, bool) {
	alg := x.alg
	closure := epsClosureAll(x)

	type labeled struct {
		src, dst int
		ivs      []interval
	}
	var moves []labeled
	cuts := map[int64]bool{0: true}
	for s := 0; s < x.next; s++ {
		for _, mv := range x.MovesFrom(s) {
			if mv.Eps {
				continue
			}
			ivs, ok := predIntervals(mv.Pred)
			if !ok {
				return nil, false
			}
			moves = append(moves, labeled{src: s, dst: mv.Dst, ivs: ivs})
			for _, iv := range ivs {
				cuts[iv.lo] = true
				if iv.hi < MaxChar {
					cuts[iv.hi+1] = true
				}
			}
		}
	}
	var points []int64
	for p := range cuts {
		points = append(points, p)
	}
	sortInt64s(points)

	out := newAutomaton(alg)
	ids := make(map[string]int)
	stateKey := func(set map[int]bool) string {
		var sb strings.Builder
		for s := 0; s < x.next; s++ {
			if set[s] {
				sb.WriteString(strconv.Itoa(s))
				sb.WriteByte(',')
			}
		}
		return sb.String()
	}
	getState := func(set map[int]bool) (int, bool) {
		k := stateKey(set)
		if id, ok := ids[k]; ok {
			return id, false
		}
		id := out.newState()
		ids[k] = id
		return id, true
	}
	closeSet := func(set map[int]bool) map[int]bool {
		cl := make(map[int]bool)
		for s := range set {
			for _, q := range closure[s] {
				cl[q] = true
			}
		}
		return cl
	}

	start := closeSet(map[int]bool{x.init: true})
	startID, _ := getState(start)
	out.init = startID

	type entry struct {
		id  int
		set map[int]bool
	}
	work := []entry{{startID, start}}
	seenAccept := func(id int, set map[int]bool) {
		accept := false
		for s := range set {
			if x.finals[s] {
				accept = true
			}
		}
		if !accept {
			out.finals[id] = true
		}
	}
	seenAccept(startID, start)

	for len(work) > 0 {
		e := work[len(work)-1]
		work = work[:len(work)-1]
		for i, p := range points {
			hi := int64(MaxChar)
			if i+1 < len(points) {
				hi = points[i+1] - 1
			}
			next := make(map[int]bool)
			for _, mv := range moves {
				if e.set[mv.src] && intervalsContain(mv.ivs, p) {
					next[mv.dst] = true
				}
			}
			next = closeSet(next)
			id, fresh := getState(next)
			m := alg.mgr
			out.addMove(e.id, Move{Dst: id, Pred: alg.MkRange(m.Char(p), m.Char(hi))})
			if fresh {
				seenAccept(id, next)
				work = append(work, entry{id, next})
			}
		}
	}
	return out, true
}

func sortInt64s(xs []int64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

// epsClosureAll computes the ε closure of every state.
func epsClosureAll(a *Automaton) map[int][]int {
	out := make(map[int][]int, a.next)
	for s := 0; s < a.next; s++ {
		seen := map[int]bool{s: true}
		stack := []int{s}
		var cl []int
		for len(stack) > 0 {
			q := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cl = append(cl, q)
			for _, mv := range a.MovesFrom(q) {
				if mv.Eps && !seen[mv.Dst] {
					seen[mv.Dst] = true
					stack = append(stack, mv.Dst)
				}
			}
		}
		out[s] = cl
	}
	return out
}

// AcceptsString runs a concrete word through the automaton.
func (a *Automaton) AcceptsString(s string) bool {
	cur := map[int]bool{}
	closure := epsClosureAll(a)
	for _, q := range closure[a.init] {
		cur[q] = true
	}
	for _, c := range s {
		next := map[int]bool{}
		for q := range cur {
			for _, mv := range a.MovesFrom(q) {
				if mv.Eps {
					continue
				}
				if acceptsChar(a.alg, mv.Pred, int64(c)) {
					for _, r := range closure[mv.Dst] {
						next[r] = true
					}
				}
			}
		}
		cur = next
		if len(cur) == 0 {
			return false
		}
	}
	for q := range cur {
		if a.finals[q] {
			return true
		}
	}
	return false
}

// acceptsChar evaluates a predicate on a concrete character.
func acceptsChar(alg *Algebra, p *CharPred, c int64) bool {
	phi := alg.Accept(p, alg.mgr.Char(c))
	return IsTrue(phi)
}
