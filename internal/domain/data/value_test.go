package data

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b interface{}
		want bool
	}{
		{nil, nil, true},
		{nil, int64(0), false},
		{int64(2), int64(2), true},
		{int64(2), 2.0, true},
		{2.5, int64(2), false},
		{"a", "a", true},
		{"a", "A", false},
		{true, true, true},
		{true, int64(1), false},
		{int64(1), true, false},
		{"1", int64(1), false},
	}
	for _, tt := range tests {
		assert.Equal(t, Equal(tt.a, tt.b), tt.want, "Equal(%#v, %#v)", tt.a, tt.b)
	}
}

func TestNormalizeRejectsUnsupported(t *testing.T) {
	for _, v := range []interface{}{
		[]int{1}, map[string]int{}, struct{}{}, uint64(1 << 63),
		math.NaN(), math.Inf(1), math.Inf(-1), float32(math.Inf(1)),
	} {
		_, ok := Normalize(v)
		assert.Assert(t, !ok, "%#v", v)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, Format(nil), "")
	assert.Equal(t, Format(int64(-4)), "-4")
	assert.Equal(t, Format(3.0), "3.0")
	assert.Equal(t, Format(0.25), "0.25")
	assert.Equal(t, Format(1e21), "1e+21")
	assert.Equal(t, Format("hi"), "hi")
	assert.Equal(t, Format(true), "True")
	assert.Equal(t, Format(false), "False")
}

func TestParseNumber(t *testing.T) {
	n, err := parseNumber("42")
	assert.NilError(t, err)
	assert.Equal(t, n, int64(42))

	n, err = parseNumber("42.0")
	assert.NilError(t, err)
	assert.Equal(t, n, 42.0)

	n, err = parseNumber("1e3")
	assert.NilError(t, err)
	assert.Equal(t, n, 1000.0)

	// too large for int64
	_, err = parseNumber("99999999999999999999")
	assert.ErrorIs(t, err, ErrIntegerRange)
	_, err = parseNumber("-9223372036854775809")
	assert.ErrorIs(t, err, ErrIntegerRange)

	n, err = parseNumber("-9223372036854775808")
	assert.NilError(t, err)
	assert.Equal(t, n, int64(math.MinInt64))

	// written as a float, so it stays one
	n, err = parseNumber("99999999999999999999.0")
	assert.NilError(t, err)
	assert.Equal(t, KindOf(n), KindFloat)
}
