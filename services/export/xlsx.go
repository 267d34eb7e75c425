package exportsvc

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/masomo-calendar/core/calendar"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	XLSXFilename    = "calendar.xlsx"

	tagSep = ";"
)

// Columns is the spreadsheet layout shared by the export and the import.
var Columns = []string{"Title", "Type", "Date", "Start", "End", "Subject", "Instructor", "Location", "Tags", "Description", "Status"}

func eventRow(ev calendar.Event) []interface{} {
	return []interface{}{
		ev.Title, string(ev.Type), ev.Date, ev.StartTime, ev.EndTime, ev.Subject, ev.Instructor,
		ev.Location, strings.Join(ev.Tags, tagSep+" "), ev.Description, string(ev.Status),
	}
}

// WriteEvents writes events to w as an xlsx workbook, one row per event below a header row.
func WriteEvents(w io.Writer, events []calendar.Event) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)

	header := make([]interface{}, 0, len(Columns))
	for _, col := range Columns {
		header = append(header, col)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}

	for i, ev := range events {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		row := eventRow(ev)
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing event %s", ev.ID)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(Columns))
	_ = f.SetColWidth(sheet, "A", lastCol, 18)

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

// ReadEvents reads the events of the first sheet of an xlsx workbook laid out as Columns.
// The header row and blank rows are skipped. Rows are not validated.
func ReadEvents(r io.Reader) ([]calendar.NewEvent, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook does not contain any sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheet)
	}

	events := make([]calendar.NewEvent, 0, len(rows))
	for i, row := range rows {
		if i == 0 || isBlank(row) {
			continue
		}
		col := func(idx int) string {
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		events = append(events, calendar.NewEvent{
			Title:       col(0),
			Type:        calendar.EventType(col(1)),
			Date:        cellDate(col(2)),
			StartTime:   col(3),
			EndTime:     col(4),
			Subject:     col(5),
			Instructor:  col(6),
			Location:    col(7),
			Tags:        splitTags(col(8)),
			Description: col(9),
		})
	}
	return events, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cellDate converts Excel serial dates to YYYY-MM-DD. Other values are returned as is.
func cellDate(val string) string {
	serial, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return val
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return val
	}
	return calendar.ISODate(t)
}

func splitTags(val string) []string {
	if val == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(val, tagSep) {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
