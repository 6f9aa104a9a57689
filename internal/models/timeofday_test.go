package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: 9 * 3600},
		{in: "18:00:00", want: 18 * 3600},
		{in: "23:59:59", want: 23*3600 + 59*60 + 59},
		{in: " 07:05 ", want: 7*3600 + 5*60},
		{in: "24:00", wantErr: true},
		{in: "9:00", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "09", wantErr: true},
		{in: "aa:bb", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, MustTimeOfDay("09:30"), got)

	for _, in := range []string{"09:00:30", "09:00:00", "9:30", "24:00", ""} {
		_, err := ParseClock(in)
		assert.Error(t, err, in)
	}
}

func TestTimeOfDay_Format(t *testing.T) {
	tod := MustTimeOfDay("09:05:30")
	assert.Equal(t, "09:05", tod.String())
	assert.Equal(t, "09:05:30", tod.Full())
	assert.Equal(t, MustTimeOfDay("09:05"), tod.TruncateMinute())
}

func TestTimeOfDay_AddMinutes(t *testing.T) {
	assert.Equal(t, MustTimeOfDay("10:00"), MustTimeOfDay("09:00").AddMinutes(60))
	assert.Equal(t, MustTimeOfDay("00:30"), MustTimeOfDay("23:45").AddMinutes(45))
	assert.Equal(t, MustTimeOfDay("23:30"), MustTimeOfDay("00:15").AddMinutes(-45))
}

func TestTimeOfDay_JSON(t *testing.T) {
	raw, err := json.Marshal(MustTimeOfDay("11:30:00"))
	require.NoError(t, err)
	assert.Equal(t, `"11:30"`, string(raw))

	var tod TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"08:15"`), &tod))
	assert.Equal(t, MustTimeOfDay("08:15"), tod)

	assert.Error(t, json.Unmarshal([]byte(`"8am"`), &tod))
}

func TestTimeOfDay_SQL(t *testing.T) {
	v, err := MustTimeOfDay("09:30").Value()
	require.NoError(t, err)
	assert.Equal(t, "09:30:00", v)

	var tod TimeOfDay
	require.NoError(t, tod.Scan([]byte("12:00:00")))
	assert.Equal(t, MustTimeOfDay("12:00"), tod)
	assert.Error(t, tod.Scan(42))
}

func TestTimeOfDay_On(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	got := MustTimeOfDay("09:30").On(date)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC), got)
	assert.Equal(t, MustTimeOfDay("09:30"), ClockOf(got))
}

func TestOverlaps(t *testing.T) {
	nine, ten, eleven, noon := MustTimeOfDay("09:00"), MustTimeOfDay("10:00"), MustTimeOfDay("11:00"), MustTimeOfDay("12:00")

	assert.True(t, Overlaps(nine, eleven, ten, noon))
	assert.True(t, Overlaps(nine, noon, ten, eleven))
	assert.False(t, Overlaps(nine, ten, ten, eleven), "touching windows do not overlap")
	assert.False(t, Overlaps(eleven, noon, nine, ten))
}

func TestOnGrid(t *testing.T) {
	start := MustTimeOfDay("09:00")

	assert.True(t, OnGrid(MustTimeOfDay("09:00"), start, 30))
	assert.True(t, OnGrid(MustTimeOfDay("10:30"), start, 30))
	assert.False(t, OnGrid(MustTimeOfDay("09:05"), start, 30))
	assert.False(t, OnGrid(MustTimeOfDay("08:30"), start, 30))
	assert.False(t, OnGrid(MustTimeOfDay("09:00"), start, 0))
	assert.True(t, OnGrid(MustTimeOfDay("09:45"), start, 15))
}

func TestWorkRule(t *testing.T) {
	rule := WorkRule{DayOfWeek: 1, StartTime: MustTimeOfDay("09:00"), EndTime: MustTimeOfDay("12:00"), SlotMinutes: 30}

	assert.Equal(t, 180, rule.WindowMinutes())
	assert.True(t, rule.Contains(MustTimeOfDay("09:00")))
	assert.True(t, rule.Contains(MustTimeOfDay("11:59")))
	assert.False(t, rule.Contains(MustTimeOfDay("12:00")))

	other := WorkRule{DayOfWeek: 1, StartTime: MustTimeOfDay("11:00"), EndTime: MustTimeOfDay("13:00")}
	assert.True(t, rule.OverlapsWith(other))
	other.DayOfWeek = 2
	assert.False(t, rule.OverlapsWith(other))
}

func TestDayComparisons(t *testing.T) {
	a := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC)

	assert.True(t, BeforeDay(a, b))
	assert.False(t, BeforeDay(b, a))
	assert.False(t, BeforeDay(a, a))
	assert.True(t, SameDay(a, a.Add(-time.Hour)))
	assert.Equal(t, "2026-03-02", DateKey(a))
}
