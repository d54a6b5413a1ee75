package scheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/arnavshah/care-shift-calendar/pkg/models"
)

// Overlap checks if two shifts occupy the same slot.
// Time labels are opaque, so only an identical date and label counts.
func Overlap(a, b models.Shift) bool {
	return a.Date == b.Date && a.Time == b.Time
}

// WouldOverlap checks if a staff member already works the slot of a shift
func (s *Scheduler) WouldOverlap(staffID int, shift models.Shift) bool {
	for _, existing := range s.shifts.ByStaffInRange(staffID, shift.Date, shift.Date) {
		if existing.ID != shift.ID && Overlap(existing, shift) {
			return true
		}
	}
	return false
}

// FillRecruiting greedily assigns each recruiting shift to the qualified staff
// member with the fewest shifts that month. Shifts nobody can take are
// reported as conflicts.
func (s *Scheduler) FillRecruiting() []models.ConflictReason {
	conflicts := make([]models.ConflictReason, 0)

	for _, shift := range s.shifts.Recruiting() {
		day, err := time.Parse(models.DateLayout, shift.Date)
		if err != nil {
			continue
		}

		var best *models.Staff
		minShifts := -1
		unqualified, overlapping, atMax := 0, 0, 0

		for _, st := range s.staff.All() {
			qualified := true
			for _, req := range shift.Requirements {
				if !st.Satisfies(req) {
					qualified = false
					break
				}
			}
			noOverlap := !s.WouldOverlap(st.ID, shift)
			load := len(s.MonthlyShiftsFor(st.ID, day.Year(), day.Month()))
			fitsCap := s.maxShift <= 0 || load < s.maxShift

			if qualified && noOverlap && fitsCap {
				if best == nil || load < minShifts {
					candidate := st
					best = &candidate
					minShifts = load
				}
				continue
			}
			if !qualified {
				unqualified++
			}
			if !noOverlap {
				overlapping++
			}
			if !fitsCap {
				atMax++
			}
		}

		if best != nil {
			if _, err := s.AssignStaff(shift.ID, best.ID); err == nil {
				continue
			}
		}

		var reasons []string
		if unqualified > 0 {
			reasons = append(reasons, fmt.Sprintf("%d staff did not meet the requirements", unqualified))
		}
		if overlapping > 0 {
			reasons = append(reasons, fmt.Sprintf("%d staff already work this slot", overlapping))
		}
		if atMax > 0 {
			reasons = append(reasons, fmt.Sprintf("%d staff were at the monthly shift limit", atMax))
		}
		if len(reasons) == 0 {
			reasons = append(reasons, "no staff registered")
		}
		s.log.Info().Str("shift_id", shift.ID).Strs("reasons", reasons).Msg("recruiting shift left open")
		conflicts = append(conflicts, models.ConflictReason{
			ShiftID: shift.ID,
			Date:    shift.Date,
			Reasons: reasons,
		})
	}
	return conflicts
}

// FairnessScore returns a percentage (0-100) representing how evenly a
// month's shifts are spread over the staff. 100% is perfectly fair
// (Standard Deviation = 0).
func (s *Scheduler) FairnessScore(year int, month time.Month) float64 {
	staff := s.staff.All()
	if len(staff) == 0 {
		return 100.0
	}

	counts := make([]float64, 0, len(staff))
	var sum float64
	for _, st := range staff {
		n := float64(len(s.MonthlyShiftsFor(st.ID, year, month)))
		counts = append(counts, n)
		sum += n
	}
	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(counts))
	var varianceSum float64
	for _, n := range counts {
		diff := n - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(counts)))

	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}

// ReferenceMonth returns the month the calendar is anchored on
func (s *Scheduler) ReferenceMonth() (int, time.Month) {
	return s.engine.Year(), s.engine.Month()
}
