package ident

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stringerID struct{ v string }

func (s stringerID) String() string { return s.v }

func TestNormalize(t *testing.T) {
	s := " abc "
	var nilStr *string

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"empty string", "", ""},
		{"trims string", "  42 ", "42"},
		{"int", 7, "7"},
		{"int64", int64(7), "7"},
		{"uint8", uint8(7), "7"},
		{"integral float", 7.0, "7"},
		{"fractional float", 7.25, "7.25"},
		{"float32", float32(3), "3"},
		{"json number int", json.Number("7"), "7"},
		{"json number float", json.Number("7.0"), "7"},
		{"json number padded", json.Number(" 12 "), "12"},
		{"bool", true, "true"},
		{"string pointer", &s, "abc"},
		{"nil string pointer", nilStr, ""},
		{"stringer", stringerID{" x1 "}, "x1"},
		{"large float no exponent", 1e15, "1000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_NumberMatchesString(t *testing.T) {
	for _, n := range []any{0, 1, 7, 123456, int64(99), 42.0, json.Number("42")} {
		assert.Equal(t, Normalize(Normalize(n)), Normalize(n), "idempotent for %v", n)
	}
	assert.Equal(t, Normalize("7"), Normalize(7))
	assert.Equal(t, Normalize("7"), Normalize(7.0))
	assert.Equal(t, Normalize("123"), Normalize(json.Number("123")))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(12, "12"))
	assert.True(t, Equal(" 12", 12.0))
	assert.False(t, Equal(12, "13"))
	assert.True(t, Equal(nil, ""))
}

func TestEqualFold(t *testing.T) {
	assert.True(t, EqualFold(" Maria ", "maria"))
	assert.False(t, EqualFold("maria", "mario"))
}
