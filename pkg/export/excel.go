// Package export renders a calendar view model into an .xlsx workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/arnavshah/care-shift-calendar/pkg/models"
	"github.com/arnavshah/care-shift-calendar/pkg/scheduler"
	"github.com/xuri/excelize/v2"
)

// Labels maps statuses to display strings; nil falls back to the status label
type Labels map[models.Status]string

func (l Labels) of(s models.Status) string {
	if v, ok := l[s]; ok {
		return v
	}
	return s.Label()
}

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WriteCalendar lays the view model out as a seven-column grid and writes the
// workbook to w
func WriteCalendar(w io.Writer, vm scheduler.ViewModel, labels Labels) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(vm.PeriodLabel)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, day := range weekdays {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, day); err != nil {
			return err
		}
	}

	// Apply bold style to header
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", "G1", style)
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "G", 24); err != nil {
		return err
	}

	for i, c := range vm.Cells {
		if c.IsPlaceholder {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(c.Weekday+1, i/7+2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, cellText(c, labels)); err != nil {
			return err
		}
		_ = f.SetCellStyle(sheet, cell, cell, wrap)
	}

	return f.Write(w)
}

func cellText(c scheduler.CellView, labels Labels) string {
	lines := []string{fmt.Sprint(c.Day)}
	for _, s := range c.Shifts {
		parts := []string{s.Time, labels.of(s.Status)}
		if s.Detail.Assignee != "" {
			parts = append(parts, s.Detail.Assignee)
		}
		if s.Detail.Facility != "" {
			parts = append(parts, s.Detail.Facility)
		}
		if len(s.Detail.Requirements) > 0 {
			parts = append(parts, "["+strings.Join(s.Detail.Requirements, ", ")+"]")
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

// Excel forbids some characters in sheet names and caps them at 31 chars
func sheetName(label string) string {
	name := strings.NewReplacer("/", "-", "\\", "-", "?", "", "*", "", "[", "", "]", "", ":", "").Replace(label)
	if name == "" {
		name = "Calendar"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
