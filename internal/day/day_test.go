package day

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizes(t *testing.T) {
	d := New(2024, time.January, 32)
	assert.Equal(t, "2024-02-01", d.String())
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Date
	}{
		{"2024-01-10", New(2024, time.January, 10)},
		{"2024-1-5", New(2024, time.January, 5)},
		{"2023-12-31", New(2023, time.December, 31)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.want, got)
	}

	_, err := Parse("10/01/2024")
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	a := MustParse("2024-01-10")
	b := MustParse("2024-01-12")

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(MustParse("2024-01-10")))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, b, Max(a, b))
}

func TestDaysUntil(t *testing.T) {
	a := MustParse("2024-02-27")
	assert.Equal(t, 3, a.DaysUntil(MustParse("2024-03-01")))
	assert.Equal(t, -3, MustParse("2024-03-01").DaysUntil(a))
}

func TestTextRoundTrip(t *testing.T) {
	d := MustParse("2025-07-01")
	b, err := d.MarshalText()
	require.NoError(t, err)

	var got Date
	require.NoError(t, got.UnmarshalText(b))
	assert.Equal(t, d, got)
	assert.False(t, got.IsZero())
	assert.True(t, Date{}.IsZero())
}
