package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ToFloat converts a loosely typed source value to a float64. Numeric strings
// are accepted after trimming; anything else fails.
func ToFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ToInt converts a loosely typed source value to an int. Floats truncate
// toward zero; strings must parse as whole numbers.
func ToInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case float32:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		return i, err == nil
	default:
		return 0, false
	}
}

// ToString renders a loosely typed source value the way it was written in the
// source document. nil renders as the empty string.
func ToString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Truthy reports whether a loosely typed source value carries usable content:
// nil, empty strings, zero numbers and false all count as empty.
func Truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

// StringField resolves the first of several alias keys to a non-empty,
// trimmed string. Keys holding nil or blank values are skipped.
func (r CatalogRecord) StringField(keys ...string) string {
	for _, key := range keys {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(ToString(v)); s != "" {
			return s
		}
	}
	return ""
}

// Float reads one key as a float64.
func (r CatalogRecord) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}
