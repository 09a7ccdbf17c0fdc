// Package export renders a scouting session to a local Excel workbook, so a
// field team can hand over session data without the backend report pipeline.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kafaat/sahool-scouting/domain"
)

// observationHeader lists the exported columns, both languages in one cell.
var observationHeader = []string{
	"Observation ID",
	"Category / الفئة",
	"Subcategory",
	"Severity / الشدة",
	"Notes (EN)",
	"Notes (AR) / الملاحظات",
	"Latitude",
	"Longitude",
	"Photos",
	"Observed By",
	"Created At",
	"Offline",
}

// SessionWorkbook renders a session and its observations to an .xlsx file.
func SessionWorkbook(session *domain.ScoutingSession, observations []domain.Observation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Observations"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E8F5E9"},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// session block above the table
	f.SetCellValue(sheetName, "A1", "Session")
	f.SetCellValue(sheetName, "B1", session.ID)
	f.SetCellValue(sheetName, "A2", "Field")
	f.SetCellValue(sheetName, "B2", session.FieldID)
	f.SetCellValue(sheetName, "A3", "Status")
	f.SetCellValue(sheetName, "B3", string(session.Status))
	f.SetCellValue(sheetName, "A4", "Started")
	f.SetCellValue(sheetName, "B4", session.StartTime.Format(time.RFC3339))
	if session.EndTime != nil {
		f.SetCellValue(sheetName, "A5", "Ended")
		f.SetCellValue(sheetName, "B5", session.EndTime.Format(time.RFC3339))
	}

	const headerRow = 7
	for col, title := range observationHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, headerRow)
		f.SetCellValue(sheetName, cell, title)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, obs := range observations {
		row := headerRow + 1 + i
		photoURLs := make([]string, 0, len(obs.Photos))
		for _, p := range obs.Photos {
			if p.URL != "" {
				photoURLs = append(photoURLs, p.URL)
			} else if p.LocalRef != "" {
				photoURLs = append(photoURLs, p.LocalRef)
			}
		}
		values := []any{
			obs.ID,
			string(obs.Category),
			obs.Subcategory,
			obs.Severity,
			obs.Notes.En,
			obs.Notes.Ar,
			obs.Location.Lat,
			obs.Location.Lng,
			strings.Join(photoURLs, "\n"),
			obs.ObservedBy,
			obs.CreatedAt.Format(time.RFC3339),
			obs.Offline,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "E", "F", 40)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
