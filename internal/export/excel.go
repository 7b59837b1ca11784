package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reserba/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

// Exporter writes booking reports as Excel files under the configured path.
type Exporter struct {
	path   string
	logger *zerolog.Logger
}

func NewExporter(path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

// BookingsReport writes one row per booking for the period and returns the
// saved file path.
func (e *Exporter) BookingsReport(bookings []*models.Booking, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Facility bookings: %s - %s",
		startDate.Format("January 2, 2006"), endDate.Format("January 2, 2006")))
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.MergeCell(sheetName, "A1", "J1")
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{
		"Reference", "Resident", "Email", "Facility", "Date", "Timeslot",
		"Purpose", "Total", "Downpayment", "Status",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, booking := range bookings {
		row := i + 3
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), booking.Reference)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), booking.UserName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), booking.UserEmail)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), booking.FacilityName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), booking.BookingDate.Format("2006-01-02"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), booking.Timeslot)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), booking.Purpose)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), booking.TotalAmount)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), booking.DownpaymentAmount)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), booking.Status)

		if styleID, err := statusStyle(f, booking.Status); err == nil {
			lastCell := fmt.Sprintf("J%d", row)
			_ = f.SetCellStyle(sheetName, lastCell, lastCell, styleID)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "D", 25)
	_ = f.SetColWidth(sheetName, "E", "F", 18)
	_ = f.SetColWidth(sheetName, "G", "G", 30)
	_ = f.SetColWidth(sheetName, "H", "J", 14)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel report created")
	return filePath, nil
}

func statusStyle(f *excelize.File, status string) (int, error) {
	var color string
	switch status {
	case models.StatusApproved, models.StatusCompleted:
		color = "#C6EFCE"
	case models.StatusPending:
		color = "#FFEB9C"
	case models.StatusRejected, models.StatusCancelled:
		color = "#FFC7CE"
	default:
		color = "#FFFFFF"
	}
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
}
