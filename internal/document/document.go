// Package document models a JSON-like tree as a tagged variant.
//
// A Document is one of Object, Array, String, Number, Bool or Null. Values
// are built once, never mutated, and shared freely across goroutines.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Document is a single node of a JSON-like tree.
type Document interface {
	isDocument()
}

type (
	// Object maps field names to child documents.
	Object map[string]Document

	// Array is an ordered sequence of documents.
	Array []Document

	// String is a scalar string value.
	String string

	// Number keeps the original JSON text so both numeric comparison and
	// textual fallback see the value as written.
	Number string

	// Bool is a scalar boolean value.
	Bool bool

	// Null is the JSON null value.
	Null struct{}
)

func (Object) isDocument() {}
func (Array) isDocument()  {}
func (String) isDocument() {}
func (Number) isDocument() {}
func (Bool) isDocument()   {}
func (Null) isDocument()   {}

// Float64 returns the numeric value of n.
func (n Number) Float64() (float64, error) {
	return json.Number(n).Float64()
}

// Decode parses JSON bytes into a Document.
func Decode(data []byte) (Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	return FromValue(value)
}

// FromValue converts an already-unmarshaled JSON value tree
// (map[string]any, []any and scalars) into a Document.
func FromValue(value any) (Document, error) {
	switch current := value.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(current), nil
	case string:
		return String(current), nil
	case json.Number:
		return Number(current), nil
	case float64:
		return Number(strconv.FormatFloat(current, 'f', -1, 64)), nil
	case int:
		return Number(strconv.Itoa(current)), nil
	case int64:
		return Number(strconv.FormatInt(current, 10)), nil
	case uint64:
		return Number(strconv.FormatUint(current, 10)), nil
	case map[string]any:
		object := make(Object, len(current))
		for key, child := range current {
			converted, err := FromValue(child)
			if err != nil {
				return nil, err
			}
			object[key] = converted
		}
		return object, nil
	case []any:
		array := make(Array, 0, len(current))
		for _, child := range current {
			converted, err := FromValue(child)
			if err != nil {
				return nil, err
			}
			array = append(array, converted)
		}
		return array, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

// Scalar returns the textual form of a scalar document. It reports false
// for objects, arrays and null, which have no textual comparison form.
func Scalar(d Document) (string, bool) {
	switch current := d.(type) {
	case String:
		return string(current), true
	case Number:
		return string(current), true
	case Bool:
		return strconv.FormatBool(bool(current)), true
	default:
		return "", false
	}
}
