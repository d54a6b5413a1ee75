// Package calendar lays shifts out into month and week grids and owns the
// month/week navigation state.
//
// Grids are Sunday-first. All date arithmetic happens on UTC midnights so
// adding days never crosses a DST boundary, and month lengths come from
// time.Date normalization rather than a table.
package calendar

import (
	"fmt"
	"time"

	"github.com/arnavshah/care-shift-calendar/pkg/models"
)

// Mode selects the grid shape
type Mode string

const (
	ModeMonth Mode = "month"
	ModeWeek  Mode = "week"
)

// ParseMode converts a raw string into a Mode
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeMonth, ModeWeek:
		return Mode(raw), nil
	}
	return "", fmt.Errorf("unknown calendar mode %q", raw)
}

// DayIndex answers which shifts fall on a date
type DayIndex interface {
	ByDate(date string) []models.Shift
}

// Cell is one day slot in a projected grid
type Cell struct {
	Date          string
	Day           int
	Weekday       time.Weekday
	WeekdayLabel  string
	IsToday       bool
	IsPlaceholder bool
	Shifts        []models.Shift
}

// Engine holds the reference month and the navigation state
type Engine struct {
	year      int
	month     time.Month
	mode      Mode
	weekStart time.Time
}

// NewEngine creates an engine in month mode for the given reference month
func NewEngine(year int, month time.Month) *Engine {
	e := &Engine{mode: ModeMonth}
	e.setReference(year, month)
	return e
}

// Year returns the reference year
func (e *Engine) Year() int { return e.year }

// Month returns the reference month
func (e *Engine) Month() time.Month { return e.month }

// Mode returns the current grid shape
func (e *Engine) Mode() Mode { return e.mode }

// WeekStart returns the Sunday that opens the current week, or false outside week mode
func (e *Engine) WeekStart() (time.Time, bool) {
	return e.weekStart, !e.weekStart.IsZero()
}

// SetMode switches between month and week grids.
// Entering week mode always derives the week from the reference month.
func (e *Engine) SetMode(m Mode) {
	switch m {
	case ModeMonth:
		e.mode = ModeMonth
		e.weekStart = time.Time{}
	case ModeWeek:
		if e.mode == ModeWeek {
			return
		}
		e.mode = ModeWeek
		e.weekStart = SundayOnOrBefore(firstOfMonth(e.year, e.month))
	}
}

// MoveWeek shifts the week by steps weeks. It is ignored outside week mode.
func (e *Engine) MoveWeek(steps int) bool {
	if e.mode != ModeWeek || e.weekStart.IsZero() {
		return false
	}
	e.weekStart = e.weekStart.AddDate(0, 0, 7*steps)
	return true
}

// SetReference changes the reference month. In week mode the week is
// re-derived from the new month.
func (e *Engine) SetReference(year int, month time.Month) {
	e.setReference(year, month)
	if e.mode == ModeWeek {
		e.weekStart = SundayOnOrBefore(firstOfMonth(e.year, e.month))
	}
}

// MoveMonth moves the reference month by steps months
func (e *Engine) MoveMonth(steps int) {
	first := firstOfMonth(e.year, e.month).AddDate(0, steps, 0)
	e.SetReference(first.Year(), first.Month())
}

func (e *Engine) setReference(year int, month time.Month) {
	norm := firstOfMonth(year, month)
	e.year, e.month = norm.Year(), norm.Month()
}

// Project lays the indexed shifts out for the current mode
func (e *Engine) Project(index DayIndex, today time.Time) []Cell {
	todayStr := today.Format(models.DateLayout)

	if e.mode == ModeWeek {
		cells := make([]Cell, 0, 7)
		for i := 0; i < 7; i++ {
			cells = append(cells, dayCell(e.weekStart.AddDate(0, 0, i), index, todayStr))
		}
		return cells
	}

	first := firstOfMonth(e.year, e.month)
	lead := FirstWeekday(e.year, e.month)
	days := DaysInMonth(e.year, e.month)

	cells := make([]Cell, 0, lead+days)
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{IsPlaceholder: true, Weekday: time.Weekday(i)})
	}
	for d := 0; d < days; d++ {
		cells = append(cells, dayCell(first.AddDate(0, 0, d), index, todayStr))
	}
	return cells
}

// WeekLabel formats the current week as "M/D - M/D"
func (e *Engine) WeekLabel() string {
	if e.weekStart.IsZero() {
		return ""
	}
	end := e.weekStart.AddDate(0, 0, 6)
	return fmt.Sprintf("%d/%d - %d/%d",
		int(e.weekStart.Month()), e.weekStart.Day(), int(end.Month()), end.Day())
}

// PeriodLabel names the displayed period
func (e *Engine) PeriodLabel() string {
	if e.mode == ModeWeek {
		return e.WeekLabel()
	}
	return fmt.Sprintf("%d/%d", e.year, int(e.month))
}

func dayCell(day time.Time, index DayIndex, today string) Cell {
	date := day.Format(models.DateLayout)
	return Cell{
		Date:         date,
		Day:          day.Day(),
		Weekday:      day.Weekday(),
		WeekdayLabel: WeekdayLabel(day.Weekday()),
		IsToday:      date == today,
		Shifts:       index.ByDate(date),
	}
}

// WeekdayLabel returns the three-letter weekday name
func WeekdayLabel(w time.Weekday) string {
	return w.String()[:3]
}

// DaysInMonth returns the true calendar length of a month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the weekday index (0=Sunday) of day 1
func FirstWeekday(year int, month time.Month) int {
	return int(firstOfMonth(year, month).Weekday())
}

// SundayOnOrBefore returns the Sunday that opens the week containing day
func SundayOnOrBefore(day time.Time) time.Time {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// MonthRange returns the first and last ISO dates of a month
func MonthRange(year int, month time.Month) (string, string) {
	first := firstOfMonth(year, month)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return first.Format(models.DateLayout), last.Format(models.DateLayout)
}

func firstOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}
