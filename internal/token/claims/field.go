// Package claims models the payload of a bearer token as an ordered list
// of editable, typed fields and converts it back into a claim set for
// re-signing.
package claims

import (
	"encoding/json"
	"math"
	"strconv"
)

// FieldType is the declared conversion type of a claim field.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeNumber    FieldType = "number"
	TypeBoolean   FieldType = "boolean"
	TypeTimestamp FieldType = "timestamp"
	TypeArray     FieldType = "array"
	TypeObject    FieldType = "object"
)

// FieldTypes lists every declared type tag in display order.
var FieldTypes = []FieldType{TypeString, TypeNumber, TypeBoolean, TypeTimestamp, TypeArray, TypeObject}

// IsValid reports whether the tag is one of the declared types.
func (t FieldType) IsValid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeTimestamp, TypeArray, TypeObject:
		return true
	}
	return false
}

// Field is one editable claim record. Value always holds the raw string
// form; Type drives conversion in Coerce.
type Field struct {
	Key    string
	Value  string
	Type   FieldType
	Linked bool
}

// Claims is a decoded token payload.
type Claims map[string]any

// ClaimSet is the coerced mapping handed to the re-signing service.
type ClaimSet map[string]any

// Classifier infers a declared type from a decoded claim value. The
// timestamp window is the epoch-second range treated as a date rather
// than a plain number; the defaults cover roughly 2001 through 2033.
type Classifier struct {
	TimestampMin int64
	TimestampMax int64
}

// Default timestamp window bounds, in epoch seconds.
const (
	TimestampMin int64 = 1_000_000_000
	TimestampMax int64 = 2_000_000_000
)

// DefaultClassifier uses the default timestamp window.
var DefaultClassifier = Classifier{TimestampMin: TimestampMin, TimestampMax: TimestampMax}

// Classify returns the declared type tag for a decoded claim value.
func (c Classifier) Classify(value any) FieldType {
	switch v := value.(type) {
	case bool:
		return TypeBoolean
	case float64:
		if v == math.Trunc(v) {
			n := int64(v)
			if n > c.TimestampMin && n < c.TimestampMax {
				return TypeTimestamp
			}
		}
		return TypeNumber
	case json.Number:
		if n, err := v.Int64(); err == nil && n > c.TimestampMin && n < c.TimestampMax {
			return TypeTimestamp
		}
		return TypeNumber
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	default:
		return TypeString
	}
}

// rawString renders a decoded claim value into its editable string form.
func rawString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
