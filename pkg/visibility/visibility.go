// Package visibility decides which shifts a viewer may see and which of their
// attributes may be disclosed. The calendar grid and the day detail both go
// through this package.
package visibility

import (
	"slices"

	"github.com/arnavshah/care-shift-calendar/pkg/models"
)

const (
	// Unassigned is shown to coordinators for shifts without a known assignee
	Unassigned = "unassigned"
	// GenerallyAvailable is shown to a worker for their own shift without a facility
	GenerallyAvailable = "generally available"
)

// Viewer identifies who is looking at the calendar
type Viewer struct {
	Role    models.Role `json:"role"`
	StaffID int         `json:"staff_id"`
}

// NameLookup resolves staff ids to display names
type NameLookup interface {
	Name(id int) (string, bool)
}

// Detail is the subset of a shift a viewer is allowed to see
type Detail struct {
	Assignee     string   `json:"assignee,omitempty"`
	Facility     string   `json:"facility,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
}

// Visible reports whether the viewer may see the shift at all
func Visible(s models.Shift, v Viewer) bool {
	if v.Role == models.RoleCoordinator {
		return true
	}
	return s.AssignedTo(v.StaffID) || s.IsRecruiting()
}

// Filter keeps the visible shifts in their original order
func Filter(shifts []models.Shift, v Viewer) []models.Shift {
	out := make([]models.Shift, 0, len(shifts))
	for _, s := range shifts {
		if Visible(s, v) {
			out = append(out, s)
		}
	}
	return out
}

// Disclose returns what the viewer may see of a visible shift.
// Callers must check Visible first; an invisible shift discloses nothing.
func Disclose(s models.Shift, v Viewer, names NameLookup) Detail {
	if !Visible(s, v) {
		return Detail{}
	}

	if v.Role == models.RoleCoordinator {
		d := Detail{Assignee: Unassigned, Facility: s.Facility}
		if s.HasStaff() {
			if name, ok := names.Name(*s.StaffID); ok {
				d.Assignee = name
			}
		}
		if s.IsRecruiting() {
			d.Requirements = slices.Clone(s.Requirements)
		}
		return d
	}

	if s.AssignedTo(v.StaffID) {
		if s.Facility == "" {
			return Detail{Facility: GenerallyAvailable}
		}
		return Detail{Facility: s.Facility}
	}

	return Detail{Requirements: slices.Clone(s.Requirements)}
}
