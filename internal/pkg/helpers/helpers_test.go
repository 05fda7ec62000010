package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDateRange_Presets(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)

	w, err := ResolveDateRange(RangeAll, "", "", now)
	require.NoError(t, err)
	assert.True(t, w.Contains(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)))

	w, err = ResolveDateRange(RangeToday, "", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), w.From)
	assert.False(t, w.Contains(now.AddDate(0, 0, -1)))

	w, err = ResolveDateRange(RangeQuarter, "", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.December, 15, 10, 30, 0, 0, time.UTC), w.From)

	_, err = ResolveDateRange("fortnight", "", "", now)
	assert.Error(t, err)
}

func TestResolveDateRange_Custom(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)

	w, err := ResolveDateRange(RangeCustom, "2026-03-01", "2026-03-10", now)
	require.NoError(t, err)
	assert.True(t, w.Contains(time.Date(2026, time.March, 10, 23, 59, 0, 0, time.UTC)), "end date is inclusive")
	assert.False(t, w.Contains(time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, time.February, 28, 23, 0, 0, 0, time.UTC)))

	_, err = ResolveDateRange(RangeCustom, "2026-03-10", "2026-03-01", now)
	assert.Error(t, err)

	_, err = ResolveDateRange(RangeCustom, "03/01/2026", "", now)
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2026-01-02T03:04:05.123456Z")
	require.NoError(t, err)
	assert.Equal(t, 2026, ts.Year())

	ts, err = ParseTimestamp("2026-01-02")
	require.NoError(t, err)
	assert.Equal(t, time.January, ts.Month())

	ts, err = ParseTimestamp("")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "-", FormatDate(time.Time{}))
	assert.Equal(t, "05 Feb 2026", FormatDate(time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "05 Feb 2026, 14:07", FormatDateTime(time.Date(2026, 2, 5, 14, 7, 0, 0, time.UTC)))
}

func TestPaginate(t *testing.T) {
	items := make([]int, 45)
	for i := range items {
		items[i] = i
	}

	page, info := Paginate(items, 3, 20)
	assert.Equal(t, []int{40, 41, 42, 43, 44}, page)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasPrev())
	assert.False(t, info.HasNext())

	page, info = Paginate(items, 99, 20)
	assert.Len(t, page, 5, "page past the end is clamped to the last page")
	assert.Equal(t, 3, info.CurrentPage)

	page, info = Paginate([]int{}, 1, 20)
	assert.Empty(t, page)
	assert.Equal(t, 1, info.TotalPages)
}
