package export

import (
	"bytes"
	"testing"
	"time"

	"coachbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteBookings(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	bookings := []*models.BookingDetails{
		{
			Booking: models.Booking{
				ID:          7,
				Date:        time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
				StartTime:   models.MustTimeOfDay("09:00"),
				EndTime:     models.MustTimeOfDay("10:00"),
				ClientEmail: "client@example.com",
			},
			Service: models.Service{ID: 1, Name: "Leg Day Session", DurationMinutes: 60},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, from, to, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Period: 2026-03-01 - 2026-03-31", title)

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[1])
	assert.Equal(t, []string{"7", "2026-03-02", "09:00", "10:00", "Leg Day Session", "60", "client@example.com"}, rows[2][:7])
}

func TestFileName(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "bookings_2026-03-01_to_2026-03-07.xlsx", FileName(from, from.AddDate(0, 0, 6)))
}
