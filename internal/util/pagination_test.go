package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		page, size         int
		wantPage, wantOff  int
		wantLimit          int
	}{
		{"defaults", 0, 0, 1, 0, DefaultPageSize},
		{"second page", 2, 5, 2, 5, 5},
		{"negative page", -3, 20, 1, 0, 20},
		{"too large size", 1, MaxPageSize + 1, 1, 0, DefaultPageSize},
		{"max size", 3, MaxPageSize, 3, 2 * MaxPageSize, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			page, off, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantOff, off)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("abc", 7))
	assert.Equal(t, 3, ParseIntDefault(" 3 ", 7))
}

func TestNewMeta(t *testing.T) {
	t.Parallel()

	m := NewMeta(2, 10, 10, 25)
	assert.Equal(t, int64(3), m.TotalPages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)

	m = NewMeta(3, 20, 10, 25)
	assert.False(t, m.HasNext)

	m = NewMeta(1, 0, 10, 0)
	assert.Equal(t, int64(0), m.TotalPages)
	assert.False(t, m.HasPrev)
	assert.False(t, m.HasNext)
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	assert.True(t, ParseBool("true", false))
	assert.False(t, ParseBool("0", true))
	assert.True(t, ParseBool("maybe", true))
}
