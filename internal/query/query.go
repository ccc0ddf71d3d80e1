// Package query implements the path-query mini-language used to address
// values inside a document.
//
// A query is a sequence of double-quoted key segments separated by '.',
// optionally punctuated by a single aggregate marker:
//
//	"user"."login"
//	"labels"|={"name"}."name"
//
// The aggregate marker selects, from the array at the preceding segment,
// the elements that are objects carrying every named field; the remaining
// segments then apply to each selected element independently.
package query

import (
	"fmt"
	"strings"

	"github.com/jacoelho/webql/internal/document"
)

// step is a single traversal instruction: key access or aggregate selection.
type step interface {
	isStep()
}

type keyStep string

type aggregateStep []string

func (keyStep) isStep()       {}
func (aggregateStep) isStep() {}

// Query is a parsed path query.
type Query struct {
	steps []step
}

// Parse compiles a path-query string into a Query.
// It returns an error wrapping ErrSyntax when the string is malformed:
// unbalanced quoting, an empty segment, or an empty or malformed
// aggregate shape.
func Parse(raw string) (Query, error) {
	if raw == "" {
		return Query{}, fmt.Errorf("%w: query cannot be empty", ErrSyntax)
	}

	var steps []step
	aggregates := 0
	i := 0

	for {
		name, next, err := parseQuoted(raw, i)
		if err != nil {
			return Query{}, err
		}
		if name == "" {
			return Query{}, fmt.Errorf("%w: empty segment at position %d", ErrSyntax, i)
		}
		steps = append(steps, keyStep(name))
		i = next

		if i < len(raw) && raw[i] == '|' {
			fields, next, err := parseAggregate(raw, i)
			if err != nil {
				return Query{}, err
			}
			aggregates++
			if aggregates > 1 {
				return Query{}, fmt.Errorf("%w: at most one aggregate marker per query", ErrSyntax)
			}
			steps = append(steps, aggregateStep(fields))
			i = next
		}

		if i == len(raw) {
			break
		}
		if raw[i] != '.' {
			return Query{}, fmt.Errorf("%w: unexpected character %q at position %d, expected '.'", ErrSyntax, raw[i], i)
		}
		i++
		if i == len(raw) {
			return Query{}, fmt.Errorf("%w: query cannot end with '.'", ErrSyntax)
		}
	}

	return Query{steps: steps}, nil
}

// parseQuoted reads one double-quoted segment starting at i and returns
// the segment name and the index just past the closing quote.
func parseQuoted(raw string, i int) (string, int, error) {
	if i >= len(raw) || raw[i] != '"' {
		return "", i, fmt.Errorf("%w: expected opening quote at position %d", ErrSyntax, i)
	}
	end := strings.IndexByte(raw[i+1:], '"')
	if end == -1 {
		return "", i, fmt.Errorf("%w: unbalanced quote at position %d", ErrSyntax, i)
	}
	return raw[i+1 : i+1+end], i + end + 2, nil
}

// parseAggregate reads an aggregate marker '|={"f1","f2"}' starting at i
// and returns the required field names and the index just past '}'.
func parseAggregate(raw string, i int) ([]string, int, error) {
	if !strings.HasPrefix(raw[i:], `|={`) {
		return nil, i, fmt.Errorf("%w: malformed aggregate marker at position %d", ErrSyntax, i)
	}
	i += len(`|={`)

	var fields []string
	for {
		if i >= len(raw) {
			return nil, i, fmt.Errorf("%w: unterminated aggregate shape, missing '}'", ErrSyntax)
		}
		if raw[i] == '}' {
			if len(fields) == 0 {
				return nil, i, fmt.Errorf("%w: aggregate shape cannot be empty", ErrSyntax)
			}
			return fields, i + 1, nil
		}
		if len(fields) > 0 {
			if raw[i] != ',' {
				return nil, i, fmt.Errorf("%w: expected ',' or '}' at position %d in aggregate shape", ErrSyntax, i)
			}
			i++
		}

		name, next, err := parseQuoted(raw, i)
		if err != nil {
			return nil, i, err
		}
		if name == "" {
			return nil, i, fmt.Errorf("%w: empty field name in aggregate shape at position %d", ErrSyntax, i)
		}
		fields = append(fields, name)
		i = next
	}
}

// Resolve executes the query against a document and returns the values it
// addresses, in array order. A key step on a non-object or an absent key
// drops that branch; an aggregate step on a non-array drops the branch.
// Absence is a normal outcome, never an error.
func (q Query) Resolve(doc document.Document) []document.Document {
	candidates := []document.Document{doc}

	for _, current := range q.steps {
		var next []document.Document
		switch st := current.(type) {
		case keyStep:
			for _, candidate := range candidates {
				object, ok := candidate.(document.Object)
				if !ok {
					continue
				}
				if child, ok := object[string(st)]; ok {
					next = append(next, child)
				}
			}
		case aggregateStep:
			for _, candidate := range candidates {
				array, ok := candidate.(document.Array)
				if !ok {
					continue
				}
				for _, element := range array {
					object, ok := element.(document.Object)
					if !ok {
						continue
					}
					if hasFields(object, st) {
						next = append(next, element)
					}
				}
			}
		}
		candidates = next
		if len(candidates) == 0 {
			return nil
		}
	}

	return candidates
}

// Resolve parses a raw path query and executes it against the document.
func Resolve(doc document.Document, raw string) ([]document.Document, error) {
	q, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return q.Resolve(doc), nil
}

func hasFields(object document.Object, fields []string) bool {
	for _, field := range fields {
		if _, ok := object[field]; !ok {
			return false
		}
	}
	return true
}
