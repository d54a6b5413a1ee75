// Package directory holds the staff records of one facility.
package directory

import (
	"fmt"

	"github.com/arnavshah/care-shift-calendar/pkg/models"
)

// Criteria filters staff in Find. Zero values match everyone.
type Criteria struct {
	Skills []string `json:"skills,omitempty"`
	Gender string   `json:"gender,omitempty"`
}

// Directory is an insertion-ordered set of staff keyed by id
type Directory struct {
	staff []models.Staff
	index map[int]int
}

// New creates an empty directory
func New() *Directory {
	return &Directory{index: make(map[int]int)}
}

// Add appends a staff record, rejecting a colliding id
func (d *Directory) Add(s models.Staff) error {
	if _, ok := d.index[s.ID]; ok {
		return fmt.Errorf("staff %d: %w", s.ID, models.ErrDuplicateID)
	}

	s = s.Clone()
	s.Skills = dedupe(s.Skills)

	d.index[s.ID] = len(d.staff)
	d.staff = append(d.staff, s)
	return nil
}

// ByID looks up a staff member
func (d *Directory) ByID(id int) (models.Staff, error) {
	i, ok := d.index[id]
	if !ok {
		return models.Staff{}, fmt.Errorf("staff %d: %w", id, models.ErrNotFound)
	}
	return d.staff[i].Clone(), nil
}

// Name returns the display name for an id
func (d *Directory) Name(id int) (string, bool) {
	i, ok := d.index[id]
	if !ok {
		return "", false
	}
	return d.staff[i].Name, true
}

// All returns every staff member in insertion order
func (d *Directory) All() []models.Staff {
	return d.filter(func(models.Staff) bool { return true })
}

// Find returns staff holding every listed skill and, if set, the exact gender
func (d *Directory) Find(c Criteria) []models.Staff {
	return d.filter(func(s models.Staff) bool {
		if len(c.Skills) > 0 && !s.HasAllSkills(c.Skills) {
			return false
		}
		if c.Gender != "" && s.Gender != c.Gender {
			return false
		}
		return true
	})
}

// Qualified returns staff satisfying every recruiting requirement tag
func (d *Directory) Qualified(requirements []string) []models.Staff {
	return d.filter(func(s models.Staff) bool {
		for _, req := range requirements {
			if !s.Satisfies(req) {
				return false
			}
		}
		return true
	})
}

// Len returns the number of staff records
func (d *Directory) Len() int {
	return len(d.staff)
}

func (d *Directory) filter(keep func(models.Staff) bool) []models.Staff {
	out := make([]models.Staff, 0, len(d.staff))
	for _, s := range d.staff {
		if keep(s) {
			out = append(out, s.Clone())
		}
	}
	return out
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
