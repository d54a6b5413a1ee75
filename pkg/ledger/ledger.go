// Package ledger keeps the shift records of one facility in insertion order.
//
// Every query is a full scan. The dataset is one facility's planning horizon,
// so results simply preserve insertion order without an index.
package ledger

import (
	"fmt"

	"github.com/arnavshah/care-shift-calendar/pkg/models"
	"github.com/google/uuid"
)

// Ledger holds shift records
type Ledger struct {
	shifts []models.Shift
	index  map[string]int
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Add validates and stores a shift, assigning an id if none is set
func (l *Ledger) Add(s models.Shift) (models.Shift, error) {
	if err := s.Validate(); err != nil {
		return models.Shift{}, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, ok := l.index[s.ID]; ok {
		return models.Shift{}, fmt.Errorf("shift %s: %w", s.ID, models.ErrDuplicateID)
	}

	s = s.Clone()
	l.index[s.ID] = len(l.shifts)
	l.shifts = append(l.shifts, s)
	return s.Clone(), nil
}

// ByID looks up a shift
func (l *Ledger) ByID(id string) (models.Shift, error) {
	i, ok := l.index[id]
	if !ok {
		return models.Shift{}, fmt.Errorf("shift %s: %w", id, models.ErrNotFound)
	}
	return l.shifts[i].Clone(), nil
}

// Update applies fn to a copy of the shift and stores it only if fn succeeds
// and the result still satisfies the shift invariants
func (l *Ledger) Update(id string, fn func(*models.Shift) error) (models.Shift, error) {
	i, ok := l.index[id]
	if !ok {
		return models.Shift{}, fmt.Errorf("shift %s: %w", id, models.ErrNotFound)
	}

	draft := l.shifts[i].Clone()
	if err := fn(&draft); err != nil {
		return l.shifts[i].Clone(), err
	}
	draft.ID = id
	if err := draft.Validate(); err != nil {
		return l.shifts[i].Clone(), err
	}

	l.shifts[i] = draft
	return draft.Clone(), nil
}

// All returns every shift in insertion order
func (l *Ledger) All() []models.Shift {
	return l.filter(func(models.Shift) bool { return true })
}

// ByDate returns the shifts on one date
func (l *Ledger) ByDate(date string) []models.Shift {
	return l.filter(func(s models.Shift) bool { return s.Date == date })
}

// ByDateRange returns shifts with start <= date <= end.
// String comparison is valid because dates are fixed-width ISO.
func (l *Ledger) ByDateRange(start, end string) []models.Shift {
	return l.filter(func(s models.Shift) bool { return inRange(s.Date, start, end) })
}

// ByStaff returns the shifts assigned to a staff member
func (l *Ledger) ByStaff(staffID int) []models.Shift {
	return l.filter(func(s models.Shift) bool { return s.AssignedTo(staffID) })
}

// ByStaffInRange returns a staff member's shifts within an inclusive date range
func (l *Ledger) ByStaffInRange(staffID int, start, end string) []models.Shift {
	return l.filter(func(s models.Shift) bool {
		return s.AssignedTo(staffID) && inRange(s.Date, start, end)
	})
}

// Recruiting returns the shifts open for applicants
func (l *Ledger) Recruiting() []models.Shift {
	return l.filter(models.Shift.IsRecruiting)
}

// Len returns the number of shifts
func (l *Ledger) Len() int {
	return len(l.shifts)
}

func (l *Ledger) filter(keep func(models.Shift) bool) []models.Shift {
	out := make([]models.Shift, 0)
	for _, s := range l.shifts {
		if keep(s) {
			out = append(out, s.Clone())
		}
	}
	return out
}

func inRange(date, start, end string) bool {
	return date >= start && date <= end
}
