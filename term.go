package strsmt

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// SortFamily identifies the family of a sort.
type SortFamily int

const (
	SortBool = SortFamily(iota)
	SortInt
	SortChar
	SortBitVec
	SortSeq
	SortRe
	SortUninterp
)

// Sort represents an interned sort. Seq sorts carry their element sort; Re
// sorts carry the sequence sort they range over.
type Sort struct {
	Family SortFamily
	Width  uint  // bit-vector width
	Elem   *Sort // Seq element sort, or Re sequence sort
	Name   string
}

// String returns the string representation of the sort.
func (s *Sort) String() string {
	switch s.Family {
	case SortBool:
		return "Bool"
	case SortInt:
		return "Int"
	case SortChar:
		return "Char"
	case SortBitVec:
		return fmt.Sprintf("(BitVec %d)", s.Width)
	case SortSeq:
		if s.Elem.Family == SortChar {
			return "String"
		}
		return fmt.Sprintf("(Seq %s)", s.Elem)
	case SortRe:
		return fmt.Sprintf("(RegEx %s)", s.Elem)
	case SortUninterp:
		return s.Name
	default:
		panic("unreachable")
	}
}

// IsSeq returns true if s is a sequence sort.
func (s *Sort) IsSeq() bool { return s.Family == SortSeq }

// IsRe returns true if s is a regular expression sort.
func (s *Sort) IsRe() bool { return s.Family == SortRe }

// IsString returns true if s is the sequence-of-characters sort.
func (s *Sort) IsString() bool { return s.Family == SortSeq && s.Elem.Family == SortChar }

// Kind identifies the function symbol at the head of a term.
type Kind int

const (
	// Values and variables.
	KindIntVal = Kind(iota)
	KindCharVal
	KindBvVal
	KindTrue
	KindFalse
	KindVar

	// Arithmetic.
	KindAdd
	KindSub
	KindMul
	KindLe
	KindLt

	// Boolean.
	KindAnd
	KindOr
	KindNot
	KindEq
	KindIte

	// Characters.
	KindCharLe

	// Sequences.
	KindSeqEmpty
	KindSeqUnit
	KindSeqString
	KindSeqConcat
	KindSeqLen
	KindSeqExtract
	KindSeqAt
	KindSeqNth
	KindSeqNthI
	KindSeqNthU
	KindSeqIndexOf
	KindSeqLastIndexOf
	KindSeqContains
	KindSeqPrefix
	KindSeqSuffix
	KindSeqReplace
	KindSeqReplaceAll
	KindSeqMap
	KindSeqMapI
	KindSeqFoldL
	KindSeqFoldLI
	KindSeqInRe

	// String conversions.
	KindStrItos
	KindStrStoi
	KindStrUbvToS
	KindStrSbvToS
	KindStrToCode
	KindStrFromCode
	KindStrIsDigit
	KindStrLt
	KindStrLe

	// Regular expressions.
	KindReToRe
	KindReEmpty
	KindReFull
	KindReFullChar
	KindReRange
	KindReUnion
	KindReInter
	KindReDiff
	KindReConcat
	KindReComplement
	KindReStar
	KindRePlus
	KindReOpt
	KindReLoop
	KindRePower
	KindReReverse
	KindReOfPred
	KindReDerivative
	KindReAntimirovUnion

	// Array select for higher-order seq operators.
	KindSelect
)

var kindNames = [...]string{
	KindIntVal:           "int",
	KindCharVal:          "char",
	KindBvVal:            "bv",
	KindTrue:             "true",
	KindFalse:            "false",
	KindVar:              "var",
	KindAdd:              "+",
	KindSub:              "-",
	KindMul:              "*",
	KindLe:               "<=",
	KindLt:               "<",
	KindAnd:              "and",
	KindOr:               "or",
	KindNot:              "not",
	KindEq:               "=",
	KindIte:              "ite",
	KindCharLe:           "char.<=",
	KindSeqEmpty:         "seq.empty",
	KindSeqUnit:          "seq.unit",
	KindSeqString:        "str.lit",
	KindSeqConcat:        "seq.++",
	KindSeqLen:           "seq.len",
	KindSeqExtract:       "seq.extract",
	KindSeqAt:            "seq.at",
	KindSeqNth:           "seq.nth",
	KindSeqNthI:          "seq.nth_i",
	KindSeqNthU:          "seq.nth_u",
	KindSeqIndexOf:       "seq.indexof",
	KindSeqLastIndexOf:   "seq.last_indexof",
	KindSeqContains:      "seq.contains",
	KindSeqPrefix:        "seq.prefixof",
	KindSeqSuffix:        "seq.suffixof",
	KindSeqReplace:       "seq.replace",
	KindSeqReplaceAll:    "seq.replace_all",
	KindSeqMap:           "seq.map",
	KindSeqMapI:          "seq.mapi",
	KindSeqFoldL:         "seq.foldl",
	KindSeqFoldLI:        "seq.foldli",
	KindSeqInRe:          "str.in_re",
	KindStrItos:          "str.from_int",
	KindStrStoi:          "str.to_int",
	KindStrUbvToS:        "str.from_ubv",
	KindStrSbvToS:        "str.from_sbv",
	KindStrToCode:        "str.to_code",
	KindStrFromCode:      "str.from_code",
	KindStrIsDigit:       "str.is_digit",
	KindStrLt:            "str.<",
	KindStrLe:            "str.<=",
	KindReToRe:           "str.to_re",
	KindReEmpty:          "re.none",
	KindReFull:           "re.all",
	KindReFullChar:       "re.allchar",
	KindReRange:          "re.range",
	KindReUnion:          "re.union",
	KindReInter:          "re.inter",
	KindReDiff:           "re.diff",
	KindReConcat:         "re.++",
	KindReComplement:     "re.comp",
	KindReStar:           "re.*",
	KindRePlus:           "re.+",
	KindReOpt:            "re.opt",
	KindReLoop:           "re.loop",
	KindRePower:          "re.^",
	KindReReverse:        "re.reverse",
	KindReOfPred:         "re.of_pred",
	KindReDerivative:     "re.derivative",
	KindReAntimirovUnion: "re.union|",
	KindSelect:           "select",
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind<%d>", int(k))
}

// Term is an immutable, hash-consed expression. Terms produced by the same
// Manager are equal iff they are identical pointers; ID is the stable
// interning order and provides the total subterm order used by the regex
// set merge.
type Term struct {
	ID   uint64
	Kind Kind
	Sort *Sort
	Args []*Term
	Val  int64  // numeral, char code, or bit-vector value
	Str  string // string literal or variable name
}

// String returns the s-expression form of the term.
func (t *Term) String() string {
	switch t.Kind {
	case KindIntVal:
		return strconv.FormatInt(t.Val, 10)
	case KindCharVal:
		return fmt.Sprintf("(char %d)", t.Val)
	case KindBvVal:
		return fmt.Sprintf("(bv %d %d)", t.Val, t.Sort.Width)
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindVar:
		return t.Str
	case KindSeqString:
		return strconv.Quote(t.Str)
	case KindSeqEmpty:
		return fmt.Sprintf("(as seq.empty %s)", t.Sort)
	case KindReEmpty, KindReFull, KindReFullChar:
		return fmt.Sprintf("(%s)", t.Kind)
	}

	var buf bytes.Buffer
	buf.WriteByte('(')
	buf.WriteString(t.Kind.String())
	for _, arg := range t.Args {
		buf.WriteByte(' ')
		buf.WriteString(arg.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

// Manager interns sorts and terms. All terms returned by a Manager are owned
// by it and remain live as long as the Manager itself.
type Manager struct {
	terms   map[string]*Term
	sorts   map[string]*Sort
	nextID  uint64
	varSeq  uint64
	tBool   *Sort
	tInt    *Sort
	tChar   *Sort
	tString *Sort

	valTrue  *Term
	valFalse *Term
}

// NewManager returns an empty term manager.
func NewManager() *Manager {
	m := &Manager{
		terms: make(map[string]*Term),
		sorts: make(map[string]*Sort),
	}
	m.tBool = m.internSort(&Sort{Family: SortBool})
	m.tInt = m.internSort(&Sort{Family: SortInt})
	m.tChar = m.internSort(&Sort{Family: SortChar})
	m.tString = m.SeqSort(m.tChar)
	m.valTrue = m.mk(KindTrue, m.tBool, 0, "")
	m.valFalse = m.mk(KindFalse, m.tBool, 0, "")
	return m
}

func (m *Manager) internSort(s *Sort) *Sort {
	key := s.String()
	if existing, ok := m.sorts[key]; ok {
		return existing
	}
	m.sorts[key] = s
	return s
}

// BoolSort returns the Boolean sort.
func (m *Manager) BoolSort() *Sort { return m.tBool }

// IntSort returns the integer sort.
func (m *Manager) IntSort() *Sort { return m.tInt }

// CharSort returns the character sort.
func (m *Manager) CharSort() *Sort { return m.tChar }

// StringSort returns Seq(Char).
func (m *Manager) StringSort() *Sort { return m.tString }

// BitVecSort returns the bit-vector sort of the given width.
func (m *Manager) BitVecSort(w uint) *Sort {
	return m.internSort(&Sort{Family: SortBitVec, Width: w})
}

// SeqSort returns the sequence sort over elem.
func (m *Manager) SeqSort(elem *Sort) *Sort {
	return m.internSort(&Sort{Family: SortSeq, Elem: elem})
}

// ReSort returns the regular-expression sort over the sequence sort seq.
func (m *Manager) ReSort(seq *Sort) *Sort {
	assert(seq.IsSeq(), "re sort over non-seq sort %s", seq)
	return m.internSort(&Sort{Family: SortRe, Elem: seq})
}

// UninterpSort returns a named uninterpreted sort.
func (m *Manager) UninterpSort(name string) *Sort {
	return m.internSort(&Sort{Family: SortUninterp, Name: name})
}

// mk interns a term node. Structural equality implies pointer identity.
func (m *Manager) mk(kind Kind, sort *Sort, val int64, str string, args ...*Term) *Term {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(int(kind)))
	sb.WriteByte('|')
	sb.WriteString(sort.String())
	sb.WriteByte('|')
	sb.WriteString(strconv.FormatInt(val, 10))
	sb.WriteByte('|')
	sb.WriteString(str)
	for _, a := range args {
		sb.WriteByte('|')
		sb.WriteString(strconv.FormatUint(a.ID, 10))
	}
	key := sb.String()
	if t, ok := m.terms[key]; ok {
		return t
	}
	m.nextID++
	t := &Term{ID: m.nextID, Kind: kind, Sort: sort, Args: args, Val: val, Str: str}
	m.terms[key] = t
	return t
}

// App interns an application of kind with the given result sort.
func (m *Manager) App(kind Kind, sort *Sort, args ...*Term) *Term {
	return m.mk(kind, sort, 0, "", args...)
}

// Int returns the integer numeral n.
func (m *Manager) Int(n int64) *Term { return m.mk(KindIntVal, m.tInt, n, "") }

// IntVal reports whether t is an integer numeral and returns its value.
func IntVal(t *Term) (int64, bool) {
	if t.Kind == KindIntVal {
		return t.Val, true
	}
	return 0, false
}

// True returns the Boolean true term.
func (m *Manager) True() *Term { return m.valTrue }

// False returns the Boolean false term.
func (m *Manager) False() *Term { return m.valFalse }

// Bool returns the Boolean constant b.
func (m *Manager) Bool(b bool) *Term {
	if b {
		return m.valTrue
	}
	return m.valFalse
}

// IsTrue returns true if t is the Boolean true term.
func IsTrue(t *Term) bool { return t.Kind == KindTrue }

// IsFalse returns true if t is the Boolean false term.
func IsFalse(t *Term) bool { return t.Kind == KindFalse }

// Var returns a named variable of the given sort.
func (m *Manager) Var(name string, sort *Sort) *Term {
	return m.mk(KindVar, sort, 0, name)
}

// FreshVar returns a variable with a name never handed out before.
func (m *Manager) FreshVar(prefix string, sort *Sort) *Term {
	m.varSeq++
	return m.Var(fmt.Sprintf("%s!%d", prefix, m.varSeq), sort)
}

// IsVar returns true if t is an uninterpreted variable.
func IsVar(t *Term) bool { return t.Kind == KindVar }

// Char returns the character numeral with the given code.
func (m *Manager) Char(code int64) *Term {
	assert(code >= 0 && code <= MaxChar, "character code out of range: %d", code)
	return m.mk(KindCharVal, m.tChar, code, "")
}

// CharVal reports whether t is a character numeral and returns its code.
func CharVal(t *Term) (int64, bool) {
	if t.Kind == KindCharVal {
		return t.Val, true
	}
	return 0, false
}

// BitVec returns a bit-vector numeral.
func (m *Manager) BitVec(v int64, w uint) *Term {
	return m.mk(KindBvVal, m.BitVecSort(w), v, "")
}

// Str returns the string literal s. The empty literal is canonicalized to
// the empty sequence.
func (m *Manager) Str(s string) *Term {
	if s == "" {
		return m.SeqEmpty(m.tString)
	}
	return m.mk(KindSeqString, m.tString, 0, s)
}

// StrVal reports whether t is a literal string (including the empty string
// sequence) and returns its contents.
func StrVal(t *Term) (string, bool) {
	switch t.Kind {
	case KindSeqString:
		return t.Str, true
	case KindSeqEmpty:
		if t.Sort.IsString() {
			return "", true
		}
	}
	return "", false
}

// SeqEmpty returns the empty sequence of the given sequence sort.
func (m *Manager) SeqEmpty(sort *Sort) *Term {
	assert(sort.IsSeq(), "seq.empty of non-seq sort %s", sort)
	return m.mk(KindSeqEmpty, sort, 0, "")
}

// IsEmptySeq returns true if t is the empty sequence or the empty string.
func IsEmptySeq(t *Term) bool { return t.Kind == KindSeqEmpty }

// SeqUnit returns the singleton sequence holding x.
func (m *Manager) SeqUnit(x *Term) *Term {
	return m.mk(KindSeqUnit, m.SeqSort(x.Sort), 0, "", x)
}

// Unit returns the singleton string holding the character with code c.
func (m *Manager) Unit(c int64) *Term { return m.SeqUnit(m.Char(c)) }

// Concat returns the uninterpreted concatenation of a and b.
func (m *Manager) Concat(a, b *Term) *Term {
	assert(a.Sort == b.Sort, "concat sort mismatch: %s != %s", a.Sort, b.Sort)
	return m.mk(KindSeqConcat, a.Sort, 0, "", a, b)
}

// Length returns seq.len applied to a.
func (m *Manager) Length(a *Term) *Term { return m.mk(KindSeqLen, m.tInt, 0, "", a) }

// Extract returns seq.extract of a at offset b with length c.
func (m *Manager) Extract(a, b, c *Term) *Term {
	return m.mk(KindSeqExtract, a.Sort, 0, "", a, b, c)
}

// At returns seq.at, the length-0-or-1 subsequence of a at index b.
func (m *Manager) At(a, b *Term) *Term { return m.mk(KindSeqAt, a.Sort, 0, "", a, b) }

// Nth returns the generic element read of a at index b.
func (m *Manager) Nth(a, b *Term) *Term { return m.mk(KindSeqNth, a.Sort.Elem, 0, "", a, b) }

// NthI returns the in-bounds element read of a at index b.
func (m *Manager) NthI(a, b *Term) *Term { return m.mk(KindSeqNthI, a.Sort.Elem, 0, "", a, b) }

// NthU returns the out-of-bounds (unspecified) element read.
func (m *Manager) NthU(a, b *Term) *Term { return m.mk(KindSeqNthU, a.Sort.Elem, 0, "", a, b) }

// IndexOf returns seq.indexof of b in a starting at c.
func (m *Manager) IndexOf(a, b, c *Term) *Term {
	return m.mk(KindSeqIndexOf, m.tInt, 0, "", a, b, c)
}

// LastIndexOf returns the last occurrence index of b in a.
func (m *Manager) LastIndexOf(a, b *Term) *Term {
	return m.mk(KindSeqLastIndexOf, m.tInt, 0, "", a, b)
}

// Contains returns seq.contains(a, b).
func (m *Manager) Contains(a, b *Term) *Term {
	return m.mk(KindSeqContains, m.tBool, 0, "", a, b)
}

// PrefixOf returns seq.prefixof(a, b): a is a prefix of b.
func (m *Manager) PrefixOf(a, b *Term) *Term {
	return m.mk(KindSeqPrefix, m.tBool, 0, "", a, b)
}

// SuffixOf returns seq.suffixof(a, b): a is a suffix of b.
func (m *Manager) SuffixOf(a, b *Term) *Term {
	return m.mk(KindSeqSuffix, m.tBool, 0, "", a, b)
}

// Replace returns seq.replace(a, b, c): the first occurrence of b in a
// replaced by c.
func (m *Manager) Replace(a, b, c *Term) *Term {
	return m.mk(KindSeqReplace, a.Sort, 0, "", a, b, c)
}

// ReplaceAll returns seq.replace_all(a, b, c).
func (m *Manager) ReplaceAll(a, b, c *Term) *Term {
	return m.mk(KindSeqReplaceAll, a.Sort, 0, "", a, b, c)
}

// SeqMap returns seq.map(f, a).
func (m *Manager) SeqMap(f, a *Term, resultSort *Sort) *Term {
	return m.mk(KindSeqMap, resultSort, 0, "", f, a)
}

// SeqMapI returns seq.mapi(f, i, a).
func (m *Manager) SeqMapI(f, i, a *Term, resultSort *Sort) *Term {
	return m.mk(KindSeqMapI, resultSort, 0, "", f, i, a)
}

// SeqFoldL returns seq.foldl(f, b, a).
func (m *Manager) SeqFoldL(f, b, a *Term) *Term {
	return m.mk(KindSeqFoldL, b.Sort, 0, "", f, b, a)
}

// SeqFoldLI returns seq.foldli(f, i, b, a).
func (m *Manager) SeqFoldLI(f, i, b, a *Term) *Term {
	return m.mk(KindSeqFoldLI, b.Sort, 0, "", f, i, b, a)
}

// Select returns the array read of function value f at the given arguments.
func (m *Manager) Select(f *Term, resultSort *Sort, args ...*Term) *Term {
	all := append([]*Term{f}, args...)
	return m.mk(KindSelect, resultSort, 0, "", all...)
}

// Itos returns str.from_int(n).
func (m *Manager) Itos(n *Term) *Term { return m.mk(KindStrItos, m.tString, 0, "", n) }

// Stoi returns str.to_int(s).
func (m *Manager) Stoi(s *Term) *Term { return m.mk(KindStrStoi, m.tInt, 0, "", s) }

// UbvToS returns str.from_ubv(b).
func (m *Manager) UbvToS(b *Term) *Term { return m.mk(KindStrUbvToS, m.tString, 0, "", b) }

// SbvToS returns str.from_sbv(b).
func (m *Manager) SbvToS(b *Term) *Term { return m.mk(KindStrSbvToS, m.tString, 0, "", b) }

// ToCode returns str.to_code(s).
func (m *Manager) ToCode(s *Term) *Term { return m.mk(KindStrToCode, m.tInt, 0, "", s) }

// FromCode returns str.from_code(n).
func (m *Manager) FromCode(n *Term) *Term { return m.mk(KindStrFromCode, m.tString, 0, "", n) }

// IsDigit returns str.is_digit(s).
func (m *Manager) IsDigit(s *Term) *Term { return m.mk(KindStrIsDigit, m.tBool, 0, "", s) }

// StrLt returns the lexicographic strict order str.< (a, b).
func (m *Manager) StrLt(a, b *Term) *Term { return m.mk(KindStrLt, m.tBool, 0, "", a, b) }

// StrLe returns the lexicographic order str.<= (a, b).
func (m *Manager) StrLe(a, b *Term) *Term { return m.mk(KindStrLe, m.tBool, 0, "", a, b) }

// InRe returns the membership atom s ∈ r.
func (m *Manager) InRe(s, r *Term) *Term { return m.mk(KindSeqInRe, m.tBool, 0, "", s, r) }

// reSortFor returns the Re sort over the sort of the sequence term s.
func (m *Manager) reSortFor(s *Term) *Sort { return m.ReSort(s.Sort) }

// ToRe returns the singleton language {s}.
func (m *Manager) ToRe(s *Term) *Term {
	return m.mk(KindReToRe, m.reSortFor(s), 0, "", s)
}

// ReEmpty returns the empty language over the given sequence sort.
func (m *Manager) ReEmpty(seq *Sort) *Term { return m.mk(KindReEmpty, m.ReSort(seq), 0, "") }

// ReFull returns the language of all sequences.
func (m *Manager) ReFull(seq *Sort) *Term { return m.mk(KindReFull, m.ReSort(seq), 0, "") }

// ReFullChar returns the language of all length-1 sequences.
func (m *Manager) ReFullChar(seq *Sort) *Term { return m.mk(KindReFullChar, m.ReSort(seq), 0, "") }

// ReEpsilon returns the language {ε}, represented as to_re of the empty
// sequence.
func (m *Manager) ReEpsilon(seq *Sort) *Term { return m.ToRe(m.SeqEmpty(seq)) }

// ReRange returns the range language [lo, hi] over length-1 bound sequences.
func (m *Manager) ReRange(lo, hi *Term) *Term {
	return m.mk(KindReRange, m.reSortFor(lo), 0, "", lo, hi)
}

// ReUnion returns the uninterpreted union of a and b.
func (m *Manager) ReUnion(a, b *Term) *Term { return m.mk(KindReUnion, a.Sort, 0, "", a, b) }

// ReInter returns the uninterpreted intersection of a and b.
func (m *Manager) ReInter(a, b *Term) *Term { return m.mk(KindReInter, a.Sort, 0, "", a, b) }

// ReDiff returns the uninterpreted difference of a and b.
func (m *Manager) ReDiff(a, b *Term) *Term { return m.mk(KindReDiff, a.Sort, 0, "", a, b) }

// ReConcat returns the uninterpreted concatenation of a and b.
func (m *Manager) ReConcat(a, b *Term) *Term { return m.mk(KindReConcat, a.Sort, 0, "", a, b) }

// ReComplement returns the uninterpreted complement of a.
func (m *Manager) ReComplement(a *Term) *Term { return m.mk(KindReComplement, a.Sort, 0, "", a) }

// ReStar returns the uninterpreted Kleene star of a.
func (m *Manager) ReStar(a *Term) *Term { return m.mk(KindReStar, a.Sort, 0, "", a) }

// RePlus returns the uninterpreted Kleene plus of a.
func (m *Manager) RePlus(a *Term) *Term { return m.mk(KindRePlus, a.Sort, 0, "", a) }

// ReOpt returns the uninterpreted option of a.
func (m *Manager) ReOpt(a *Term) *Term { return m.mk(KindReOpt, a.Sort, 0, "", a) }

// ReLoop returns loop(a, lo, hi). A negative hi encodes the single-bound
// loop with no upper bound.
func (m *Manager) ReLoop(a *Term, lo, hi int64) *Term {
	if hi < 0 {
		return m.mk(KindReLoop, a.Sort, 0, "", a, m.Int(lo))
	}
	return m.mk(KindReLoop, a.Sort, 0, "", a, m.Int(lo), m.Int(hi))
}

// LoopBounds returns the bounds of a loop term.
func LoopBounds(t *Term) (lo, hi int64, hasHi bool) {
	assert(t.Kind == KindReLoop, "loop bounds of non-loop %s", t)
	lo, _ = IntVal(t.Args[1])
	if len(t.Args) == 3 {
		hi, _ = IntVal(t.Args[2])
		return lo, hi, true
	}
	return lo, 0, false
}

// RePower returns a^n.
func (m *Manager) RePower(a *Term, n int64) *Term {
	return m.mk(KindRePower, a.Sort, 0, "", a, m.Int(n))
}

// ReReverse returns the uninterpreted reversal of a.
func (m *Manager) ReReverse(a *Term) *Term { return m.mk(KindReReverse, a.Sort, 0, "", a) }

// ReOfPred returns the single-character language of elements satisfying
// formula phi over the free variable v.
func (m *Manager) ReOfPred(phi, v *Term) *Term {
	return m.mk(KindReOfPred, m.ReSort(m.SeqSort(v.Sort)), 0, "", phi, v)
}

// ReDerivative returns the uninterpreted derivative term of r by e.
func (m *Manager) ReDerivative(e, r *Term) *Term {
	return m.mk(KindReDerivative, r.Sort, 0, "", e, r)
}

// AntimirovUnion returns the internal Antimirov union node of a and b. It
// appears only at the top of derivative normal forms.
func (m *Manager) AntimirovUnion(a, b *Term) *Term {
	return m.mk(KindReAntimirovUnion, a.Sort, 0, "", a, b)
}

// Add returns a + b with light constant folding.
func (m *Manager) Add(a, b *Term) *Term {
	av, aok := IntVal(a)
	bv, bok := IntVal(b)
	if aok && bok {
		return m.Int(av + bv)
	}
	if aok && av == 0 {
		return b
	}
	if bok && bv == 0 {
		return a
	}
	// k + (k' + x) = (k+k') + x
	if aok && b.Kind == KindAdd {
		if bl, ok := IntVal(b.Args[0]); ok {
			return m.Add(m.Int(av+bl), b.Args[1])
		}
	}
	if bok {
		a, b = b, a // constant first
	}
	return m.mk(KindAdd, m.tInt, 0, "", a, b)
}

// Sub returns a - b with light constant folding.
func (m *Manager) Sub(a, b *Term) *Term {
	if a == b {
		return m.Int(0)
	}
	av, aok := IntVal(a)
	bv, bok := IntVal(b)
	if aok && bok {
		return m.Int(av - bv)
	}
	if bok && bv == 0 {
		return a
	}
	if bok {
		return m.Add(m.Int(-bv), a)
	}
	return m.mk(KindSub, m.tInt, 0, "", a, b)
}

// Mul returns a * b with light constant folding.
func (m *Manager) Mul(a, b *Term) *Term {
	av, aok := IntVal(a)
	bv, bok := IntVal(b)
	if aok && bok {
		return m.Int(av * bv)
	}
	if aok && av == 1 {
		return b
	}
	if bok && bv == 1 {
		return a
	}
	if (aok && av == 0) || (bok && bv == 0) {
		return m.Int(0)
	}
	return m.mk(KindMul, m.tInt, 0, "", a, b)
}

// Le returns a <= b with constant folding.
func (m *Manager) Le(a, b *Term) *Term {
	if a == b {
		return m.valTrue
	}
	if av, ok := IntVal(a); ok {
		if bv, ok := IntVal(b); ok {
			return m.Bool(av <= bv)
		}
	}
	return m.mk(KindLe, m.tBool, 0, "", a, b)
}

// Lt returns a < b with constant folding.
func (m *Manager) Lt(a, b *Term) *Term {
	if a == b {
		return m.valFalse
	}
	if av, ok := IntVal(a); ok {
		if bv, ok := IntVal(b); ok {
			return m.Bool(av < bv)
		}
	}
	return m.mk(KindLt, m.tBool, 0, "", a, b)
}

// Ge returns a >= b.
func (m *Manager) Ge(a, b *Term) *Term { return m.Le(b, a) }

// Gt returns a > b.
func (m *Manager) Gt(a, b *Term) *Term { return m.Lt(b, a) }

// CharLe returns the character order a <= b with constant folding.
func (m *Manager) CharLe(a, b *Term) *Term {
	if a == b {
		return m.valTrue
	}
	if av, ok := CharVal(a); ok {
		if bv, ok := CharVal(b); ok {
			return m.Bool(av <= bv)
		}
	}
	return m.mk(KindCharLe, m.tBool, 0, "", a, b)
}

// Eq returns a = b. Arguments are ordered by id so the atom is canonical.
func (m *Manager) Eq(a, b *Term) *Term {
	if a == b {
		return m.valTrue
	}
	if isDistinctValues(a, b) {
		return m.valFalse
	}
	if a.ID > b.ID {
		a, b = b, a
	}
	if IsTrue(a) {
		return b
	}
	if IsFalse(a) {
		return m.Not(b)
	}
	assert(a.Sort == b.Sort, "eq sort mismatch: %s != %s", a.Sort, b.Sort)
	return m.mk(KindEq, m.tBool, 0, "", a, b)
}

// isDistinctValues reports that a and b are distinct interpreted values.
func isDistinctValues(a, b *Term) bool {
	if a == b {
		return false
	}
	switch {
	case a.Kind == KindIntVal && b.Kind == KindIntVal,
		a.Kind == KindCharVal && b.Kind == KindCharVal,
		a.Kind == KindBvVal && b.Kind == KindBvVal && a.Sort == b.Sort:
		return true
	}
	if sa, ok := StrVal(a); ok {
		if sb, ok := StrVal(b); ok {
			return sa != sb
		}
	}
	if (IsTrue(a) && IsFalse(b)) || (IsFalse(a) && IsTrue(b)) {
		return true
	}
	return false
}

// Not returns the negation of a.
func (m *Manager) Not(a *Term) *Term {
	switch a.Kind {
	case KindTrue:
		return m.valFalse
	case KindFalse:
		return m.valTrue
	case KindNot:
		return a.Args[0]
	}
	return m.mk(KindNot, m.tBool, 0, "", a)
}

// And returns the conjunction of args with unit and absorber folding.
func (m *Manager) And(args ...*Term) *Term {
	out := make([]*Term, 0, len(args))
	seen := make(map[*Term]bool, len(args))
	for _, a := range args {
		switch {
		case IsFalse(a):
			return m.valFalse
		case IsTrue(a), seen[a]:
			continue
		}
		if a.Kind == KindNot && seen[a.Args[0]] {
			return m.valFalse
		}
		if seen[m.Not(a)] {
			return m.valFalse
		}
		seen[a] = true
		out = append(out, a)
	}
	switch len(out) {
	case 0:
		return m.valTrue
	case 1:
		return out[0]
	}
	return m.mk(KindAnd, m.tBool, 0, "", out...)
}

// Or returns the disjunction of args with unit and absorber folding.
func (m *Manager) Or(args ...*Term) *Term {
	out := make([]*Term, 0, len(args))
	seen := make(map[*Term]bool, len(args))
	for _, a := range args {
		switch {
		case IsTrue(a):
			return m.valTrue
		case IsFalse(a), seen[a]:
			continue
		}
		if a.Kind == KindNot && seen[a.Args[0]] {
			return m.valTrue
		}
		if seen[m.Not(a)] {
			return m.valTrue
		}
		seen[a] = true
		out = append(out, a)
	}
	switch len(out) {
	case 0:
		return m.valFalse
	case 1:
		return out[0]
	}
	return m.mk(KindOr, m.tBool, 0, "", out...)
}

// Ite returns if-then-else with constant-condition folding.
func (m *Manager) Ite(c, t, e *Term) *Term {
	switch {
	case IsTrue(c):
		return t
	case IsFalse(c):
		return e
	case t == e:
		return t
	}
	if c.Kind == KindNot {
		return m.Ite(c.Args[0], e, t)
	}
	if t.Sort == m.tBool {
		if IsTrue(t) && IsFalse(e) {
			return c
		}
		if IsFalse(t) && IsTrue(e) {
			return m.Not(c)
		}
	}
	assert(t.Sort == e.Sort, "ite sort mismatch: %s != %s", t.Sort, e.Sort)
	return m.mk(KindIte, t.Sort, 0, "", c, t, e)
}

// Substitute returns t with every occurrence of v replaced by repl.
func (m *Manager) Substitute(t, v, repl *Term) *Term {
	memo := make(map[*Term]*Term)
	var sub func(*Term) *Term
	sub = func(x *Term) *Term {
		if x == v {
			return repl
		}
		if len(x.Args) == 0 {
			return x
		}
		if r, ok := memo[x]; ok {
			return r
		}
		changed := false
		args := make([]*Term, len(x.Args))
		for i, a := range x.Args {
			args[i] = sub(a)
			changed = changed || args[i] != a
		}
		r := x
		if changed {
			r = m.rebuild(x, args)
		}
		memo[x] = r
		return r
	}
	return sub(t)
}

// rebuild re-interns x with new arguments, re-running the light
// normalization of the Boolean and arithmetic constructors.
func (m *Manager) rebuild(x *Term, args []*Term) *Term {
	switch x.Kind {
	case KindAdd:
		return m.Add(args[0], args[1])
	case KindSub:
		return m.Sub(args[0], args[1])
	case KindMul:
		return m.Mul(args[0], args[1])
	case KindLe:
		return m.Le(args[0], args[1])
	case KindLt:
		return m.Lt(args[0], args[1])
	case KindCharLe:
		return m.CharLe(args[0], args[1])
	case KindEq:
		return m.Eq(args[0], args[1])
	case KindNot:
		return m.Not(args[0])
	case KindAnd:
		return m.And(args...)
	case KindOr:
		return m.Or(args...)
	case KindIte:
		return m.Ite(args[0], args[1], args[2])
	}
	return m.mk(x.Kind, x.Sort, x.Val, x.Str, args...)
}

// compFoldedID is the subterm order key used by the regex set merge: a term
// and its complement compare by the same id.
func compFoldedID(t *Term) uint64 {
	if t.Kind == KindReComplement {
		return t.Args[0].ID
	}
	return t.ID
}

// seqSortOfRe returns the sequence sort a regex term ranges over.
func seqSortOfRe(r *Term) *Sort {
	assert(r.Sort.IsRe(), "expected regex sort, got %s", r.Sort)
	return r.Sort.Elem
}
