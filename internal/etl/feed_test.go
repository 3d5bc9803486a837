package etl

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandWeeks(t *testing.T) {
	// Нет явных недель — канонический полный набор.
	assert.Equal(t, pq.Int64Array{1, 2, 3, 4}, expandWeeks(nil))
	assert.Equal(t, pq.Int64Array{1, 2, 3, 4}, expandWeeks([]int{}))
	// Сентинель [0] означает то же самое.
	assert.Equal(t, pq.Int64Array{1, 2, 3, 4}, expandWeeks([]int{0}))
	// Явный список используется дословно.
	assert.Equal(t, pq.Int64Array{1, 3}, expandWeeks([]int{1, 3}))
	assert.Equal(t, pq.Int64Array{2}, expandWeeks([]int{2}))
}

func TestWeekdayNumbers(t *testing.T) {
	assert.Equal(t, 1, weekdayNumbers["Понедельник"])
	assert.Equal(t, 7, weekdayNumbers["Воскресенье"])
	_, ok := weekdayNumbers["Каникулы"]
	assert.False(t, ok)

	for name, num := range weekdayNumbers {
		assert.Equal(t, name, weekdayNames[num])
	}
}

func TestParseClock(t *testing.T) {
	got, err := parseClock("08:00")
	require.NoError(t, err)
	assert.Equal(t, "08:00:00", got)

	got, err = parseClock("19:45")
	require.NoError(t, err)
	assert.Equal(t, "19:45:00", got)

	_, err = parseClock("")
	assert.Error(t, err)
	_, err = parseClock("25:99")
	assert.Error(t, err)
	_, err = parseClock("8 утра")
	assert.Error(t, err)
}

func TestParseFeedDate(t *testing.T) {
	got, err := parseFeedDate("25.01.2026")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC), got)

	_, err = parseFeedDate("2026-01-25")
	assert.Error(t, err)
	_, err = parseFeedDate("")
	assert.Error(t, err)
}
