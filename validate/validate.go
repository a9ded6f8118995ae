// Package validate holds the argument predicates shared by the Catalyst
// facades. Each predicate comes in two forms: a bool form that only
// answers the question, and an error form that returns a *core.Error
// carrying the invalid-argument code and the offending value.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/zcatalyst/catalyst-go-sdk/core"
)

// IsNonEmptyString reports whether v is a string of at least one byte.
func IsNonEmptyString(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return validation.Validate(s, validation.Required) == nil
}

// NonEmptyString returns an invalid-argument error unless v is a non-empty string.
func NonEmptyString(name string, v any) error {
	if IsNonEmptyString(v) {
		return nil
	}
	return invalid(fmt.Sprintf("Value provided for %s must be a non empty string", name), v)
}

// IsNonEmptyArray reports whether v is a slice or array with at least one element.
func IsNonEmptyArray(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	return validation.Validate(v, validation.Required) == nil
}

// NonEmptyArray returns an invalid-argument error unless v is a non-empty slice or array.
func NonEmptyArray(name string, v any) error {
	if IsNonEmptyArray(v) {
		return nil
	}
	return invalid(fmt.Sprintf("Value provided for %s must be a non empty array", name), v)
}

// IsNonEmptyStringArray reports whether v holds at least one string and
// none of them is empty.
func IsNonEmptyStringArray(v []string) bool {
	return validation.Validate(v, validation.Required, validation.Each(validation.Required)) == nil
}

// NonEmptyStringArray returns an invalid-argument error unless v holds at
// least one string and none of them is empty.
func NonEmptyStringArray(name string, v []string) error {
	if IsNonEmptyStringArray(v) {
		return nil
	}
	return invalid(fmt.Sprintf("Value provided for %s must be a non empty array of non empty strings", name), v)
}

// IsNonEmptyObject reports whether v is a non-empty map or a non-nil
// pointer to a struct.
func IsNonEmptyObject(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return validation.Validate(v, validation.Required) == nil
	case reflect.Ptr:
		return !rv.IsNil() && rv.Elem().Kind() == reflect.Struct
	case reflect.Struct:
		return !rv.IsZero()
	}
	return false
}

// NonEmptyObject returns an invalid-argument error unless v is a non-empty object.
func NonEmptyObject(name string, v any) error {
	if IsNonEmptyObject(v) {
		return nil
	}
	return invalid(fmt.Sprintf("Value provided for %s must be a non empty object", name), v)
}

// ObjectHasProperties returns an invalid-argument error naming every key
// of keys that is absent from obj.
func ObjectHasProperties(name string, obj map[string]any, keys ...string) error {
	if err := NonEmptyObject(name, obj); err != nil {
		return err
	}

	rules := make([]*validation.KeyRules, 0, len(keys))
	for _, k := range keys {
		rules = append(rules, validation.Key(k))
	}
	err := validation.Validate(obj, validation.Map(rules...).AllowExtraKeys())
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return invalid(fmt.Sprintf("Value provided for %s is invalid: %v", name, err), obj)
	}
	missing := make([]string, 0, len(verrs))
	for k := range verrs {
		missing = append(missing, k)
	}
	sort.Strings(missing)
	return invalid(fmt.Sprintf("Value provided for %s must contain %s", name, strings.Join(missing, ", ")), obj)
}

func invalid(message string, value any) *core.Error {
	return core.NewError(core.CodeInvalidArgument, message, value)
}
