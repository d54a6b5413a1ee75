package models

import (
	"fmt"
	"slices"
	"time"
)

// DateLayout is the fixed-width ISO form used for every shift date
const DateLayout = "2006-01-02"

// Status is the lifecycle state of a shift
type Status string

const (
	StatusConfirmed  Status = "confirmed"
	StatusPending    Status = "pending"
	StatusRecruiting Status = "recruiting"
	StatusAvailable  Status = "available"
)

// Valid reports whether s is one of the four known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusRecruiting, StatusAvailable:
		return true
	}
	return false
}

// Label returns the fixed display label for the status
func (s Status) Label() string {
	return string(s)
}

// Role decides which shifts a viewer sees
type Role string

const (
	RoleWorker      Role = "worker"
	RoleCoordinator Role = "coordinator"
)

// ParseRole converts a raw string into a Role
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleWorker, RoleCoordinator:
		return Role(raw), nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Staff represents a care worker who can be assigned to shifts
type Staff struct {
	ID         int      `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Skills     []string `json:"skills" yaml:"skills"`
	Experience string   `json:"experience" yaml:"experience"`
	Gender     string   `json:"gender" yaml:"gender"`
}

// HasSkill checks if the staff member holds a skill tag
func (s Staff) HasSkill(skill string) bool {
	return slices.Contains(s.Skills, skill)
}

// HasAllSkills checks if the staff member holds every skill tag
func (s Staff) HasAllSkills(skills []string) bool {
	for _, skill := range skills {
		if !s.HasSkill(skill) {
			return false
		}
	}
	return true
}

// Satisfies checks a recruiting requirement tag, which may name either a skill or a gender
func (s Staff) Satisfies(requirement string) bool {
	return s.HasSkill(requirement) || (s.Gender != "" && s.Gender == requirement)
}

// Clone returns a copy that shares no slices with s
func (s Staff) Clone() Staff {
	s.Skills = slices.Clone(s.Skills)
	return s
}

func (s Staff) String() string {
	return fmt.Sprintf("%s (%s, %s)", s.Name, s.Gender, s.Experience)
}

// Shift represents one schedulable work slot
type Shift struct {
	ID           string   `json:"id" yaml:"id"`
	Date         string   `json:"date" yaml:"date"`
	Time         string   `json:"time" yaml:"time"`
	Status       Status   `json:"status" yaml:"status"`
	StaffID      *int     `json:"staff_id,omitempty" yaml:"staff_id"`
	Facility     string   `json:"facility,omitempty" yaml:"facility"`
	Requirements []string `json:"requirements,omitempty" yaml:"requirements"`
}

// IsConfirmed reports whether the shift is confirmed
func (s Shift) IsConfirmed() bool {
	return s.Status == StatusConfirmed
}

// IsRecruiting reports whether the shift is open for applicants
func (s Shift) IsRecruiting() bool {
	return s.Status == StatusRecruiting
}

// HasStaff reports whether the shift has an assignee
func (s Shift) HasStaff() bool {
	return s.StaffID != nil
}

// AssignedTo reports whether the shift is assigned to the given staff id
func (s Shift) AssignedTo(staffID int) bool {
	return s.StaffID != nil && *s.StaffID == staffID
}

// StatusLabel returns the fixed label for the shift status
func (s Shift) StatusLabel() string {
	return s.Status.Label()
}

// Validate checks the status/assignee invariants and the date format
func (s Shift) Validate() error {
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidShift, s.Date)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidShift, s.Status)
	}
	switch s.Status {
	case StatusConfirmed, StatusPending:
		if !s.HasStaff() {
			return fmt.Errorf("%w: %s shift needs an assignee", ErrInvalidShift, s.Status)
		}
	case StatusRecruiting, StatusAvailable:
		if s.HasStaff() {
			return fmt.Errorf("%w: %s shift cannot have an assignee", ErrInvalidShift, s.Status)
		}
	}
	return nil
}

// AssignStaff moves an open shift to pending with the given assignee
func (s *Shift) AssignStaff(staffID int) error {
	if s.Status != StatusRecruiting && s.Status != StatusAvailable {
		return fmt.Errorf("%w: cannot assign a %s shift", ErrInvalidTransition, s.Status)
	}
	id := staffID
	s.StaffID = &id
	s.Status = StatusPending
	return nil
}

// Confirm moves a pending shift with an assignee to confirmed
func (s *Shift) Confirm() error {
	if !s.HasStaff() {
		return fmt.Errorf("%w: shift has no assignee", ErrInvalidTransition)
	}
	if s.Status != StatusPending {
		return fmt.Errorf("%w: cannot confirm a %s shift", ErrInvalidTransition, s.Status)
	}
	s.Status = StatusConfirmed
	return nil
}

// Clone returns a copy that shares no pointers or slices with s
func (s Shift) Clone() Shift {
	if s.StaffID != nil {
		id := *s.StaffID
		s.StaffID = &id
	}
	s.Requirements = slices.Clone(s.Requirements)
	return s
}

// ConflictReason represents why a recruiting shift could not be filled
type ConflictReason struct {
	ShiftID string   `json:"shift_id"`
	Date    string   `json:"date"`
	Reasons []string `json:"reasons"`
}
