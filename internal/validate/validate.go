// Package validate provides small composable validators for user input
// such as CLI flags and configuration values.
package validate

import (
	"cmp"
	"fmt"
	"strings"
)

// IDLength is the length of every server-generated entity id.
const IDLength = 10

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Rule is a single predicate paired with the message reported when it fails.
type Rule[T any] struct {
	Check   func(T) bool
	Message string
}

// Validator checks a value against an ordered list of rules. The first
// failing rule determines the error.
type Validator[T any] struct {
	rules []Rule[T]
}

// New returns a validator with a single rule.
func New[T any](check func(T) bool, message string) Validator[T] {
	return Validator[T]{rules: []Rule[T]{{Check: check, Message: message}}}
}

// All combines validators; rules run in argument order.
func All[T any](validators ...Validator[T]) Validator[T] {
	var v Validator[T]
	for _, other := range validators {
		v.rules = append(v.rules, other.rules...)
	}
	return v
}

// Add appends the rules of other to v and returns v.
func (v Validator[T]) Add(other Validator[T]) Validator[T] {
	rules := make([]Rule[T], 0, len(v.rules)+len(other.rules))
	rules = append(rules, v.rules...)
	rules = append(rules, other.rules...)
	return Validator[T]{rules: rules}
}

// Validate returns nil when value satisfies every rule, otherwise an
// error carrying the first failing rule's message.
func (v Validator[T]) Validate(value T) error {
	for _, r := range v.rules {
		if !r.Check(value) {
			return &Error{Message: r.Message}
		}
	}
	return nil
}

// Error is returned by Validate.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func orDefault(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}

// Min requires value >= minimum.
func Min[T cmp.Ordered](minimum T, message string) Validator[T] {
	msg := orDefault(message, fmt.Sprintf("Selection must be greater than or equal to %v", minimum))
	return New(func(v T) bool { return v >= minimum }, msg)
}

// Max requires value <= maximum.
func Max[T cmp.Ordered](maximum T, message string) Validator[T] {
	msg := orDefault(message, fmt.Sprintf("Selection must be less than or equal to %v", maximum))
	return New(func(v T) bool { return v <= maximum }, msg)
}

// Range requires minimum <= value <= maximum.
func Range[T cmp.Ordered](minimum, maximum T, message string) Validator[T] {
	msg := orDefault(message, fmt.Sprintf("Selection must be between %v and %v", minimum, maximum))
	return All(Min(minimum, msg), Max(maximum, msg))
}

// ID requires a 10 character lowercase alphanumeric string.
func ID() Validator[string] {
	return New(func(s string) bool { return len(s) == IDLength },
		fmt.Sprintf("Id must be %d characters long", IDLength)).
		Add(New(func(s string) bool { return strings.Trim(s, idAlphabet) == "" },
			"Id must only contain lowercase alphanumeric characters"))
}

// NotEmpty rejects the empty string.
func NotEmpty(message string) Validator[string] {
	return New(func(s string) bool { return s != "" }, orDefault(message, "Input cannot be empty"))
}

// Length requires minimum <= len(s) <= maximum, counted in runes.
func Length(minimum, maximum int, message string) Validator[string] {
	msg := orDefault(message, fmt.Sprintf("Input must be between %d and %d characters", minimum, maximum))
	return New(func(s string) bool {
		n := len([]rune(s))
		return n >= minimum && n <= maximum
	}, msg)
}

// OneOf requires the value to be one of allowed.
func OneOf(allowed []string, message string) Validator[string] {
	msg := orDefault(message, fmt.Sprintf("Input must be one of: %s", strings.Join(allowed, ", ")))
	return New(func(s string) bool {
		for _, a := range allowed {
			if s == a {
				return true
			}
		}
		return false
	}, msg)
}
