package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcatalyst/catalyst-go-sdk/core"
)

func TestIsNonEmptyString(t *testing.T) {
	assert.True(t, IsNonEmptyString("key"))
	assert.False(t, IsNonEmptyString(""))
	assert.False(t, IsNonEmptyString(nil))
	assert.False(t, IsNonEmptyString(42))
	assert.False(t, IsNonEmptyString([]string{"a"}))
}

func TestNonEmptyString(t *testing.T) {
	require.NoError(t, NonEmptyString("cache_key", "key"))

	err := NonEmptyString("cache_key", "")
	require.Error(t, err)

	cerr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeInvalidArgument, cerr.Code)
	assert.Equal(t, "", cerr.Value)
	assert.Contains(t, cerr.Message, "cache_key")
}

func TestNonEmptyStringArray(t *testing.T) {
	tests := []struct {
		name  string
		value []string
		ok    bool
	}{
		{name: "one address", value: []string{"a@b.c"}, ok: true},
		{name: "two addresses", value: []string{"a@b.c", "d@e.f"}, ok: true},
		{name: "nil", value: nil, ok: false},
		{name: "empty", value: []string{}, ok: false},
		{name: "blank element", value: []string{""}, ok: false},
		{name: "blank among addresses", value: []string{"a@b.c", ""}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, IsNonEmptyStringArray(tt.value))
			err := NonEmptyStringArray("to_email", tt.value)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			cerr, ok := core.AsError(err)
			require.True(t, ok)
			assert.Equal(t, core.CodeInvalidArgument, cerr.Code)
			assert.Contains(t, cerr.Message, "to_email")
		})
	}
}

func TestNonEmptyArray(t *testing.T) {
	tests := []struct {
		name  string
		value any
		ok    bool
	}{
		{name: "slice", value: []string{"a@b.c"}, ok: true},
		{name: "array", value: [1]int{1}, ok: true},
		{name: "empty slice", value: []string{}, ok: false},
		{name: "nil slice", value: []string(nil), ok: false},
		{name: "string", value: "a@b.c", ok: false},
		{name: "nil", value: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, IsNonEmptyArray(tt.value))
			err := NonEmptyArray("to_email", tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, core.IsValidation(err))
			}
		})
	}
}

func TestNonEmptyObject(t *testing.T) {
	type details struct{ Message string }

	assert.True(t, IsNonEmptyObject(map[string]any{"a": 1}))
	assert.True(t, IsNonEmptyObject(&details{}))
	assert.True(t, IsNonEmptyObject(details{Message: "hi"}))
	assert.False(t, IsNonEmptyObject(details{}))
	assert.False(t, IsNonEmptyObject(map[string]any{}))
	assert.False(t, IsNonEmptyObject((*details)(nil)))
	assert.False(t, IsNonEmptyObject("object"))

	assert.Error(t, NonEmptyObject("push_details", map[string]any{}))
}

func TestObjectHasProperties(t *testing.T) {
	obj := map[string]any{"message": "hello", "badge": 1}

	require.NoError(t, ObjectHasProperties("push_details", obj, "message"))
	require.NoError(t, ObjectHasProperties("push_details", obj, "message", "badge"))

	err := ObjectHasProperties("push_details", obj, "sound", "message", "alert")
	require.Error(t, err)
	cerr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Contains(t, cerr.Message, "alert, sound")

	assert.True(t, core.IsValidation(ObjectHasProperties("push_details", nil, "message")))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(core.ComponentCache, nil))
	assert.NoError(t, Wrap(core.ComponentCache, func() error { return nil }))

	err := Wrap(core.ComponentCache, func() error {
		return NonEmptyString("cache_key", "")
	})
	assert.True(t, core.IsComponent(err, core.ComponentCache))
	assert.True(t, core.IsValidation(err))

	plain := errors.New("not a core error")
	err = Wrap(core.ComponentMail, func() error { return plain })
	assert.True(t, core.IsComponent(err, core.ComponentMail))
	assert.ErrorIs(t, err, plain)
	assert.True(t, core.IsValidation(err))
}

func TestAll(t *testing.T) {
	calls := 0
	check := All(
		func() error { calls++; return nil },
		func() error { calls++; return NonEmptyString("subject", "") },
		func() error { calls++; return nil },
	)

	err := check()
	require.Error(t, err)
	assert.Equal(t, 2, calls, "All must stop at the first failure")
}
