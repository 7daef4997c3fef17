package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutoring-service/internal/models"
)

var fixtures = []models.TutorClass{
	{ID: "maths", ScheduleDays: []string{"Mon", "Wed"}, StartTime: "16:00"},
	{ID: "science", ScheduleDays: []string{"Mon"}, StartTime: "09:30"},
	{ID: "weekend", ScheduleDays: []string{"Sat", "Sun"}, StartTime: "10:00"},
	{ID: "broken", ScheduleDays: []string{"Funday"}, StartTime: "10:00"},
}

func ids(list []models.TutorClass) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}

func TestClassesOnOrdersByStartTime(t *testing.T) {
	monday := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{"science", "maths"}, ids(ClassesOn(fixtures, monday)))
	assert.Equal(t, []string{"maths"}, ids(ClassesOn(fixtures, monday.AddDate(0, 0, 2))))
	assert.Empty(t, ClassesOn(fixtures, monday.AddDate(0, 0, 1)))
}

func TestTodayUsesLocalWeekday(t *testing.T) {
	sast := time.FixedZone("SAST", 2*60*60)
	// 23:30 UTC Saturday is already Sunday in SAST.
	now := time.Date(2026, 3, 7, 23, 30, 0, 0, time.UTC).In(sast)

	assert.Equal(t, []string{"weekend"}, ids(Today(fixtures, now)))
}

func TestMonthGrid(t *testing.T) {
	// March 2026 starts on a Sunday.
	view := Month(time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC), fixtures)

	assert.Equal(t, "2026-03", view.Month)
	assert.Equal(t, 0, view.Leading)
	require.Len(t, view.Days, 31)
	assert.Equal(t, "2026-03-01", view.Days[0].Date)
	assert.Equal(t, []string{"weekend"}, ids(view.Days[0].Classes))
	assert.Equal(t, []string{"science", "maths"}, ids(view.Days[1].Classes))

	feb := Month(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), nil)
	assert.Equal(t, 0, feb.Leading)
	assert.Len(t, feb.Days, 28)

	apr := Month(time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), nil)
	assert.Equal(t, 3, apr.Leading)
	assert.Len(t, apr.Days, 30)
}

func TestParseMonth(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	got, err := ParseMonth("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseMonth("2027-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.January, got.Month())

	_, err = ParseMonth("January", now)
	require.Error(t, err)
}

func TestFormatClock(t *testing.T) {
	cases := map[string]string{
		"14:05":    "2:05 PM",
		"00:15":    "12:15 AM",
		"12:00":    "12:00 PM",
		"09:30":    "9:30 AM",
		"16:00:00": "4:00 PM",
		"noon":     "noon",
		"xx:10":    "xx:10",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatClock(in), in)
	}
}
