package strsmt

import "fmt"

// Tri is a three-valued satisfiability answer.
type Tri int

const (
	TriUnknown = Tri(iota)
	TriTrue
	TriFalse
)

// String returns the string representation of the answer.
func (t Tri) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	default:
		return "unknown"
	}
}

// PredTag identifies the variant of a character predicate.
type PredTag int

const (
	PredChar = PredTag(iota)
	PredRange
	PredFormula
	PredNot
)

// CharPred is a symbolic predicate over a single element of a character-like
// sort. Acceptance of an element e is: Char -> e = C; Range -> Lo <= e <= Hi;
// Formula -> Phi[e/Var]; Not -> the negation of the child.
type CharPred struct {
	Tag   PredTag
	C     *Term     // PredChar
	Lo    *Term     // PredRange, inclusive
	Hi    *Term     // PredRange, inclusive
	Phi   *Term     // PredFormula body
	Var   *Term     // PredFormula free variable
	Child *CharPred // PredNot
	Sort  *Sort     // element sort
}

// String returns the string representation of the predicate.
func (p *CharPred) String() string {
	switch p.Tag {
	case PredChar:
		return fmt.Sprintf("(= x %s)", p.C)
	case PredRange:
		return fmt.Sprintf("[%s, %s]", p.Lo, p.Hi)
	case PredFormula:
		return p.Phi.String()
	case PredNot:
		return fmt.Sprintf("(not %s)", p.Child)
	default:
		panic("unreachable")
	}
}

// ExprSolver decides satisfiability of a closed character-constraint
// formula. Implementations must not block; anything outside their fragment
// returns TriUnknown.
type ExprSolver interface {
	CheckSat(phi *Term) Tri
}

// Algebra is the Boolean algebra over character predicates consumed by the
// automaton bridge and the derivative engine.
type Algebra struct {
	mgr    *Manager
	solver ExprSolver
}

// NewAlgebra returns an algebra over the manager's terms using solver for
// residual satisfiability questions. A nil solver selects BoundedSolver.
func NewAlgebra(mgr *Manager, solver ExprSolver) *Algebra {
	if solver == nil {
		solver = BoundedSolver{mgr: mgr}
	}
	return &Algebra{mgr: mgr, solver: solver}
}

// True returns the always-true predicate over sort.
func (alg *Algebra) True(sort *Sort) *CharPred {
	v := alg.mgr.Var("x!pred", sort)
	return &CharPred{Tag: PredFormula, Phi: alg.mgr.True(), Var: v, Sort: sort}
}

// False returns the always-false predicate over sort.
func (alg *Algebra) False(sort *Sort) *CharPred {
	v := alg.mgr.Var("x!pred", sort)
	return &CharPred{Tag: PredFormula, Phi: alg.mgr.False(), Var: v, Sort: sort}
}

// MkChar returns the predicate accepting exactly c.
func (alg *Algebra) MkChar(c *Term) *CharPred {
	return &CharPred{Tag: PredChar, C: c, Sort: c.Sort}
}

// MkRange returns the predicate accepting the inclusive range [lo, hi].
func (alg *Algebra) MkRange(lo, hi *Term) *CharPred {
	return &CharPred{Tag: PredRange, Lo: lo, Hi: hi, Sort: lo.Sort}
}

// MkPred returns the predicate accepting elements for which phi holds with
// v substituted by the element.
func (alg *Algebra) MkPred(phi, v *Term) *CharPred {
	return &CharPred{Tag: PredFormula, Phi: phi, Var: v, Sort: v.Sort}
}

// IsTrue returns true if p is syntactically the true predicate.
func (p *CharPred) IsTrue() bool { return p.Tag == PredFormula && IsTrue(p.Phi) }

// IsFalse returns true if p is syntactically the false predicate.
func (p *CharPred) IsFalse() bool { return p.Tag == PredFormula && IsFalse(p.Phi) }

// Accept returns the acceptance formula of p applied to element e.
func (alg *Algebra) Accept(p *CharPred, e *Term) *Term {
	m := alg.mgr
	switch p.Tag {
	case PredChar:
		return m.Eq(e, p.C)
	case PredRange:
		return m.And(m.CharLe(p.Lo, e), m.CharLe(e, p.Hi))
	case PredFormula:
		return m.Substitute(p.Phi, p.Var, e)
	case PredNot:
		return m.Not(alg.Accept(p.Child, e))
	default:
		panic("unreachable")
	}
}

// Not returns the complement predicate.
func (alg *Algebra) Not(p *CharPred) *CharPred {
	if p.Tag == PredNot {
		return p.Child
	}
	if p.IsTrue() {
		return alg.False(p.Sort)
	}
	if p.IsFalse() {
		return alg.True(p.Sort)
	}
	return &CharPred{Tag: PredNot, Child: p, Sort: p.Sort}
}

// And returns the conjunction of x and y.
func (alg *Algebra) And(x, y *CharPred) *CharPred {
	assert(x.Sort == y.Sort, "predicate sort mismatch: %s != %s", x.Sort, y.Sort)
	if x == y {
		return x
	}
	if x.IsFalse() || y.IsFalse() {
		return alg.False(x.Sort)
	}
	if x.IsTrue() {
		return y
	}
	if y.IsTrue() {
		return x
	}

	// Constant character pairs fold numerically.
	if x.Tag == PredChar && y.Tag == PredChar {
		if x.C == y.C {
			return x
		}
		if isDistinctValues(x.C, y.C) {
			return alg.False(x.Sort)
		}
	}
	if lo, hi, ok := constRange(x); ok {
		if lo2, hi2, ok := constRange(y); ok {
			nlo, nhi := maxInt64(lo, lo2), minInt64(hi, hi2)
			if nlo > nhi {
				return alg.False(x.Sort)
			}
			m := alg.mgr
			return alg.MkRange(m.Char(nlo), m.Char(nhi))
		}
	}

	// Fall back to conjoining acceptance formulas over a fresh variable and
	// letting the Boolean constructors detect complements.
	m := alg.mgr
	v := m.FreshVar("x", x.Sort)
	phi := m.And(alg.Accept(x, v), alg.Accept(y, v))
	return alg.MkPred(phi, v)
}

// Or returns the disjunction of x and y.
func (alg *Algebra) Or(x, y *CharPred) *CharPred {
	assert(x.Sort == y.Sort, "predicate sort mismatch: %s != %s", x.Sort, y.Sort)
	if x == y {
		return x
	}
	if x.IsTrue() || y.IsTrue() {
		return alg.True(x.Sort)
	}
	if x.IsFalse() {
		return y
	}
	if y.IsFalse() {
		return x
	}

	if lo, hi, ok := constRange(x); ok {
		if lo2, hi2, ok := constRange(y); ok {
			// Merge only when the ranges touch or overlap.
			if lo2 <= hi+1 && lo <= hi2+1 {
				m := alg.mgr
				return alg.MkRange(m.Char(minInt64(lo, lo2)), m.Char(maxInt64(hi, hi2)))
			}
		}
	}

	m := alg.mgr
	v := m.FreshVar("x", x.Sort)
	phi := m.Or(alg.Accept(x, v), alg.Accept(y, v))
	return alg.MkPred(phi, v)
}

// AndN folds And over xs; the empty conjunction is true over sort.
func (alg *Algebra) AndN(sort *Sort, xs ...*CharPred) *CharPred {
	r := alg.True(sort)
	for _, x := range xs {
		r = alg.And(r, x)
	}
	return r
}

// OrN folds Or over xs; the empty disjunction is false over sort.
func (alg *Algebra) OrN(sort *Sort, xs ...*CharPred) *CharPred {
	r := alg.False(sort)
	for _, x := range xs {
		r = alg.Or(r, x)
	}
	return r
}

// IsSat decides whether some element satisfies p.
func (alg *Algebra) IsSat(p *CharPred) Tri {
	switch p.Tag {
	case PredChar:
		return TriTrue
	case PredRange:
		if lo, hi, ok := constRange(p); ok {
			if lo <= hi {
				return TriTrue
			}
			return TriFalse
		}
	case PredFormula:
		if IsTrue(p.Phi) {
			return TriTrue
		}
		if IsFalse(p.Phi) {
			return TriFalse
		}
	case PredNot:
		// The complement of a range anchored at zero that stops short of
		// the top of the alphabet always has a witness above it.
		if lo, hi, ok := constRange(p.Child); ok && lo == 0 && hi < MaxChar {
			return TriTrue
		}
	}
	v := alg.mgr.FreshVar("x", p.Sort)
	return alg.solver.CheckSat(alg.Accept(p, v))
}

// constRange returns the numeric bounds of a constant range predicate.
func constRange(p *CharPred) (lo, hi int64, ok bool) {
	if p.Tag != PredRange {
		return 0, 0, false
	}
	lo, lok := CharVal(p.Lo)
	hi, hok := CharVal(p.Hi)
	return lo, hi, lok && hok
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// BoundedSolver answers character-constraint satisfiability by interval
// propagation over one free variable. Formulas outside that fragment are
// unknown; the check never blocks.
type BoundedSolver struct {
	mgr *Manager
}

// NewBoundedSolver returns a solver over the manager's terms.
func NewBoundedSolver(mgr *Manager) BoundedSolver { return BoundedSolver{mgr: mgr} }

// CheckSat implements ExprSolver.
func (s BoundedSolver) CheckSat(phi *Term) Tri {
	switch phi.Kind {
	case KindTrue:
		return TriTrue
	case KindFalse:
		return TriFalse
	case KindOr:
		res := TriFalse
		for _, arg := range phi.Args {
			switch s.CheckSat(arg) {
			case TriTrue:
				return TriTrue
			case TriUnknown:
				res = TriUnknown
			}
		}
		return res
	}

	v, ok := soleFreeVar(phi)
	if !ok {
		return TriUnknown
	}
	lo, hi, ok := feasibleBounds(phi, v)
	if !ok {
		return TriUnknown
	}
	if lo > hi {
		return TriFalse
	}
	return TriTrue
}

// soleFreeVar returns the unique variable occurring in phi, if any.
func soleFreeVar(phi *Term) (*Term, bool) {
	var v *Term
	ok := true
	var walk func(*Term)
	walk = func(t *Term) {
		if !ok {
			return
		}
		if t.Kind == KindVar {
			if v == nil {
				v = t
			} else if v != t {
				ok = false
			}
			return
		}
		for _, a := range t.Args {
			walk(a)
		}
	}
	walk(phi)
	return v, ok && v != nil
}

// feasibleBounds intersects the [0, MaxChar] interval with the constraints
// of a conjunction of <=, =, and negated <= atoms over v. Atoms outside
// that shape make the result unrepresentable.
func feasibleBounds(phi *Term, v *Term) (lo, hi int64, ok bool) {
	lo, hi = 0, MaxChar
	var excluded []int64
	var conj []*Term
	if phi.Kind == KindAnd {
		conj = phi.Args
	} else {
		conj = []*Term{phi}
	}
	for _, atom := range conj {
		neg := false
		if atom.Kind == KindNot {
			neg = true
			atom = atom.Args[0]
		}
		switch atom.Kind {
		case KindCharLe, KindLe:
			a, b := atom.Args[0], atom.Args[1]
			av, aok := charOrIntVal(a)
			bv, bok := charOrIntVal(b)
			switch {
			case a == v && bok && !neg: // v <= b
				hi = minInt64(hi, bv)
			case a == v && bok && neg: // v > b
				lo = maxInt64(lo, bv+1)
			case b == v && aok && !neg: // a <= v
				lo = maxInt64(lo, av)
			case b == v && aok && neg: // a > v
				hi = minInt64(hi, av-1)
			default:
				return 0, 0, false
			}
		case KindEq:
			a, b := atom.Args[0], atom.Args[1]
			if b == v {
				a, b = b, a
			}
			cv, cok := charOrIntVal(b)
			if a != v || !cok {
				return 0, 0, false
			}
			if neg {
				excluded = append(excluded, cv)
				continue
			}
			lo = maxInt64(lo, cv)
			hi = minInt64(hi, cv)
		case KindTrue:
			// nop
		case KindFalse:
			if !neg {
				return 0, -1, true
			}
		default:
			return 0, 0, false
		}
	}
	// A single excluded point still leaves a witness unless the interval
	// has collapsed onto it.
	if lo == hi {
		for _, c := range excluded {
			if c == lo {
				return 0, -1, true
			}
		}
	}
	return lo, hi, true
}

func charOrIntVal(t *Term) (int64, bool) {
	if v, ok := CharVal(t); ok {
		return v, true
	}
	return IntVal(t)
}
