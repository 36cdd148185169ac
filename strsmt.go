// Package strsmt implements the core rewriter for a theory of sequences,
// strings, and regular expressions as used inside an SMT solver. Given an
// operator application it returns an equivalent but simpler term, driving
// terms toward a canonical form: right-associated concatenations with
// coalesced literals on the string side, and a BDD + Antimirov-union normal
// form on the regular-expression side.
package strsmt

import (
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// MaxChar is the largest character code in the finite alphabet.
const MaxChar = 0x2FFFF

// DefaultMaxCacheSize bounds the operation cache before it is cleared whole.
const DefaultMaxCacheSize = 100000

// Status reports the outcome of a single Apply call. Failed means no rule
// fired and the caller keeps the original term. Rewrite1..Rewrite3 ask the
// host to re-apply the rewriter up to that many levels; RewriteFull asks for
// re-application to the fixed point.
type Status int

const (
	Failed = Status(iota)
	Done
	Rewrite1
	Rewrite2
	Rewrite3
	RewriteFull
)

var statusNames = [...]string{
	Failed:      "failed",
	Done:        "done",
	Rewrite1:    "rewrite1",
	Rewrite2:    "rewrite2",
	Rewrite3:    "rewrite3",
	RewriteFull: "rewrite-full",
}

// String returns the string representation of the status.
func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status<%d>", s)
}

var (
	ErrSolverTimeout  = errors.New("solver timeout")
	ErrSolverCanceled = errors.New("solver canceled")
)

// Options configures a Rewriter instance.
type Options struct {
	// CoalesceChars fuses adjacent literal strings and unit characters into
	// longer string literals. This is the only knob that materially changes
	// output term shape.
	CoalesceChars bool

	// MaxCacheSize bounds the operation cache. Zero selects the default.
	MaxCacheSize int
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{CoalesceChars: true, MaxCacheSize: DefaultMaxCacheSize}
}

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}

var dumper = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}

// DumpTerm renders a term tree for diagnostics.
func DumpTerm(t *Term) string {
	if t == nil {
		return "<nil>"
	}
	return dumper.Sdump(t)
}
