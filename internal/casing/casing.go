// Package casing renames map keys between the client naming convention
// (camelCase) and the storage naming convention (snake_case). The transform
// is recursive: nested objects and objects inside arrays are renamed too.
// It operates on values produced by encoding/json (map[string]any, []any and
// scalars) and is applied only at the edge of the SQL row store.
package casing

import (
	"strings"
	"unicode"
)

// Snake converts a camelCase identifier to snake_case ("budgetingEnabled" ->
// "budgeting_enabled", "userID" -> "user_id").
func Snake(s string) string {
	var b strings.Builder
	r := []rune(s)
	for i, c := range r {
		if unicode.IsUpper(c) {
			prevLower := i > 0 && (unicode.IsLower(r[i-1]) || unicode.IsDigit(r[i-1]))
			nextLower := i+1 < len(r) && unicode.IsLower(r[i+1])
			if i > 0 && (prevLower || (nextLower && unicode.IsUpper(r[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(c))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Camel converts a snake_case identifier to camelCase ("habit_id" -> "habitId").
func Camel(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// ToSnake returns a copy of v with every object key converted by Snake.
func ToSnake(v any) any { return transform(v, Snake) }

// ToCamel returns a copy of v with every object key converted by Camel.
func ToCamel(v any) any { return transform(v, Camel) }

func transform(v any, rename func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[rename(k)] = transform(val, rename)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = transform(val, rename)
		}
		return out
	default:
		return v
	}
}
