// Package export renders bookings as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"coachbook/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var header = []string{"ID", "Date", "Start", "End", "Service", "Duration (min)", "Client email", "Created at"}

// BookingsWorkbook lays bookings out one per row under a period title.
func BookingsWorkbook(from, to time.Time, bookings []*models.BookingDetails) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s", models.DateKey(from), models.DateKey(to)))
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	if err := f.SetSheetRow(sheetName, "A2", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("error writing header: %w", err)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellStyle(sheetName, "A2", lastCol+"2", headerStyle)

	for i, b := range bookings {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		row := []interface{}{
			b.ID,
			models.DateKey(b.Date),
			b.StartTime.String(),
			b.EndTime.String(),
			b.Service.Name,
			b.Service.DurationMinutes,
			b.ClientEmail,
			b.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("error writing booking %d: %w", b.ID, err)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "D", 12)
	_ = f.SetColWidth(sheetName, "E", "E", 28)
	_ = f.SetColWidth(sheetName, "F", "F", 16)
	_ = f.SetColWidth(sheetName, "G", "H", 30)

	return f, nil
}

// WriteBookings streams the workbook as xlsx.
func WriteBookings(w io.Writer, from, to time.Time, bookings []*models.BookingDetails) error {
	f, err := BookingsWorkbook(from, to, bookings)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// FileName is the suggested attachment name for a period.
func FileName(from, to time.Time) string {
	return fmt.Sprintf("bookings_%s_to_%s.xlsx", models.DateKey(from), models.DateKey(to))
}
