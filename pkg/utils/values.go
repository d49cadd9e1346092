package utils

import (
	"encoding/json"
	"fmt"
)

// Kind names used in table specs for the type-mismatch check.
const (
	KindString  = "string"
	KindNumber  = "number"
	KindBoolean = "boolean"
	KindList    = "list"
	KindObject  = "object"
)

// KnownKind reports whether s is a kind name the validator understands.
func KnownKind(s string) bool {
	switch s {
	case KindString, KindNumber, KindBoolean, KindList, KindObject:
		return true
	}
	return false
}

// KindOf classifies a decoded JSON value. Numbers arrive as json.Number
// when the decoder ran with UseNumber, but plain float64 is accepted too
// so hand-built test rows behave the same.
func KindOf(v interface{}) string {
	switch v.(type) {
	case string:
		return KindString
	case json.Number, float64, int, int64:
		return KindNumber
	case bool:
		return KindBoolean
	case []interface{}:
		return KindList
	case map[string]interface{}:
		return KindObject
	default:
		return ""
	}
}

// IdentityString renders a primary-key value for use as a map key and in
// report samples. json.Number stringifies to its literal form, so numeric
// IDs compare stably across pages.
func IdentityString(v interface{}) string {
	if v == nil {
		return ""
	}
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	return fmt.Sprintf("%v", v)
}
