// Package filter decides whether a document satisfies a list of
// declarative comparison filters.
//
// Each filter pairs a path query with an operation and one or more target
// values; a filter matches when at least one resolved value matches at
// least one target. Filters combine with logical AND.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jacoelho/webql/internal/document"
	"github.com/jacoelho/webql/internal/query"
)

// ErrUnsupported indicates an operation applied to a value type with no
// defined comparison. Evaluation treats it as a non-match; the debug log
// distinguishes it from a genuine non-match.
var ErrUnsupported = errors.New("filter: unsupported operation")

// Operator is a comparison kind applied between a resolved document value
// and a filter's target values.
type Operator string

const (
	OpEqual       Operator = "="
	OpNotEqual    Operator = "!="
	OpContains    Operator = "~"
	OpGreaterThan Operator = ">"
	OpLowerThan   Operator = "<"
)

var supportedOperatorSet = map[Operator]struct{}{
	OpEqual:       {},
	OpNotEqual:    {},
	OpContains:    {},
	OpGreaterThan: {},
	OpLowerThan:   {},
}

// ParseOperator validates an operator string.
func ParseOperator(input string) (Operator, error) {
	op := Operator(input)
	if _, ok := supportedOperatorSet[op]; ok {
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, input)
}

// Filter is one predicate to apply to a document. Construction is
// data-only; Values holds string-encoded comparison targets that are
// coerced at comparison time.
type Filter struct {
	Query     string   `yaml:"query" json:"query"`
	Operation Operator `yaml:"operation" json:"operation"`
	Values    []string `yaml:"values" json:"values"`
}

// MatchesAll reports whether the document satisfies every filter in the
// list. An empty list matches everything. It returns an error only when a
// filter's query fails to parse; absence of a value is a plain non-match.
func MatchesAll(doc document.Document, filters []Filter) (bool, error) {
	for _, f := range filters {
		resolved, err := query.Resolve(doc, f.Query)
		if err != nil {
			return false, err
		}
		if len(resolved) == 0 {
			log.Debug().Str("query", f.Query).Msg("no value resolved")
			return false, nil
		}
		if !Match(resolved, f.Operation, f.Values) {
			return false, nil
		}
	}
	return true, nil
}

// Match reports whether any resolved value matches any target value under
// the operation. Both sides are existential: a field legitimately absent
// from some aggregate branches still matches if one branch qualifies.
func Match(resolved []document.Document, op Operator, targets []string) bool {
	for _, value := range resolved {
		for _, target := range targets {
			if matchOne(value, op, target) {
				return true
			}
		}
	}
	return false
}

func matchOne(value document.Document, op Operator, target string) bool {
	if array, ok := value.(document.Array); ok {
		if op == OpContains {
			return containsElement(array, target)
		}
		log.Debug().Str("operation", string(op)).Msg("operation not defined for arrays")
		return false
	}

	text, ok := document.Scalar(value)
	if !ok {
		log.Debug().Str("operation", string(op)).Msgf("%v: no comparison for %T", ErrUnsupported, value)
		return false
	}

	switch op {
	case OpEqual:
		return equal(text, target)
	case OpNotEqual:
		return !equal(text, target)
	case OpContains:
		if _, isString := value.(document.String); !isString {
			log.Debug().Str("operation", string(op)).Msgf("%v: contains is undefined for %T", ErrUnsupported, value)
			return false
		}
		return strings.Contains(text, target)
	case OpGreaterThan:
		result, ok := ordered(text, target)
		return ok && result > 0
	case OpLowerThan:
		result, ok := ordered(text, target)
		return ok && result < 0
	default:
		log.Debug().Str("operation", string(op)).Msgf("%v", ErrUnsupported)
		return false
	}
}

// containsElement is the membership form of Contains: any array element
// equal to the target counts.
func containsElement(array document.Array, target string) bool {
	for _, element := range array {
		if matchOne(element, OpEqual, target) {
			return true
		}
	}
	return false
}
