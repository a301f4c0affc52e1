package eval

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// BuiltinFunc is the signature for native functions. The argument is the
// already-resolved value of the call's variable.
type BuiltinFunc func(e *Evaluator, arg string) error

// builtinNames lists the registered natives in lexical order.
var builtinNames = []string{"print", "sum"}

// getBuiltin returns the builtin function for the given name, or nil if not found.
func getBuiltin(name string) BuiltinFunc {
	switch name {
	case "print":
		return builtinPrint
	case "sum":
		return builtinSum
	}
	return nil
}

// Builtins returns the names of all native functions.
func Builtins() []string {
	out := make([]string, len(builtinNames))
	copy(out, builtinNames)
	return out
}

func builtinPrint(e *Evaluator, arg string) error {
	return e.write(arg)
}

// sum writes its argument unchanged, exactly like print. Nothing is added up.
func builtinSum(e *Evaluator, arg string) error {
	return e.write(arg)
}

// unknownFunction builds the error for an unregistered name, suggesting the
// closest registered native when one is close enough.
func unknownFunction(name string) *Error {
	return &Error{Kind: KindUnknownFunction, Name: name, Suggestion: closestBuiltin(name)}
}

func closestBuiltin(name string) string {
	if name == "" {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, builtinNames)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	// Misspellings with extra letters: a builtin hidden inside the name.
	for _, candidate := range builtinNames {
		if fuzzy.MatchFold(candidate, name) {
			return candidate
		}
	}
	return ""
}
