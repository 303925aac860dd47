package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestEasterSunday(t *testing.T) {
	tests := []struct {
		year     int
		expected string
	}{
		{2000, "2000-04-23"},
		{2008, "2008-03-23"},
		{2019, "2019-04-21"},
		{2024, "2024-03-31"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, EasterSunday(tt.year).Format("2006-01-02"))
	}
}

func TestEasterShare(t *testing.T) {
	assert.Equal(t, 1.0, EasterShare(2024, time.March, 8))
	assert.Equal(t, 0.0, EasterShare(2024, time.April, 8))

	// Easter 2021 is April 4: five of the eight days fall in March.
	assert.Equal(t, 0.625, EasterShare(2021, time.March, 8))
	assert.Equal(t, 0.375, EasterShare(2021, time.April, 8))
}

func TestWorkingDays(t *testing.T) {
	it, err := New("it")
	require.NoError(t, err)
	none, err := New("")
	require.NoError(t, err)

	index := []time.Time{month(2024, time.January), month(2024, time.February), month(2024, time.April)}

	itCols, err := it.Columns(index)
	require.NoError(t, err)
	noneCols, err := none.Columns(index)
	require.NoError(t, err)

	// January 2024: 23 weekdays, New Year's Day on a Monday.
	assert.InDelta(t, 22-31.0*5/7, itCols[0][0], 1e-12)
	assert.InDelta(t, 23-31.0*5/7, noneCols[0][0], 1e-12)
	// April 2024: Easter Monday and Liberation Day both on weekdays.
	assert.InDelta(t, 20-30.0*5/7, itCols[0][2], 1e-12)
}

func TestColumnsShape(t *testing.T) {
	c, err := New("IT")
	require.NoError(t, err)
	assert.Equal(t, "IT", c.Country())

	index := make([]time.Time, 36)
	for i := range index {
		index[i] = month(2023, time.January).AddDate(0, i, 0)
	}

	cols, err := c.Columns(index)
	require.NoError(t, err)
	require.Len(t, cols, len(c.Names()))
	for _, col := range cols {
		assert.Len(t, col, len(index))
	}

	leap := cols[1]
	for i, v := range leap {
		if index[i].Equal(month(2024, time.February)) {
			assert.Equal(t, 1.0, v)
		} else {
			assert.Equal(t, 0.0, v, index[i].Format("2006-01"))
		}
	}
}

func TestUnsupportedCountry(t *testing.T) {
	_, err := New("XX")
	assert.Error(t, err)
}
