package dates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeInclusive(t *testing.T) {
	got, err := Range("2024-02-27", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}, got)

	_, err = Range("2024-03-02", "2024-03-01")
	assert.Error(t, err)
}

func TestMonthHelpers(t *testing.T) {
	first, last := MonthBounds(2023, 2)
	assert.Equal(t, "2023-02-01", first)
	assert.Equal(t, "2023-02-28", last)
	assert.Equal(t, "2024-02-15", MonthDay(2024, 2, 15))
	assert.Equal(t, "2024-02-29", MonthDay(2024, 2, 31))
}

func TestWeekdayAndValidation(t *testing.T) {
	wd, err := Weekday("2024-06-02")
	require.NoError(t, err)
	assert.Equal(t, 0, wd)

	assert.True(t, Valid("2024-01-31"))
	assert.False(t, Valid("2024-02-30"))
	assert.True(t, ValidTime("07:00"))
	assert.False(t, ValidTime("25:00"))

	n, err := DaysBetween("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, 30, n)
}
