package visibility

import (
	"testing"

	"github.com/arnavshah/care-shift-calendar/pkg/models"
	"github.com/stretchr/testify/assert"
)

type names map[int]string

func (n names) Name(id int) (string, bool) {
	v, ok := n[id]
	return v, ok
}

var directory = names{1: "Taro", 2: "Hanako", 3: "Ichiro", 4: "Misaki"}

func staff(id int) *int { return &id }

var (
	worker      = Viewer{Role: models.RoleWorker, StaffID: 3}
	coordinator = Viewer{Role: models.RoleCoordinator, StaffID: 1}

	own        = models.Shift{ID: "own", Date: "2025-01-02", Status: models.StatusPending, StaffID: staff(3), Facility: "B"}
	ownNoPlace = models.Shift{ID: "own-open", Date: "2025-01-03", Status: models.StatusPending, StaffID: staff(3)}
	others     = models.Shift{ID: "others", Date: "2025-01-01", Status: models.StatusConfirmed, StaffID: staff(2), Facility: "A"}
	recruiting = models.Shift{ID: "rec", Date: "2025-01-02", Status: models.StatusRecruiting, Facility: "A", Requirements: []string{"certified", "female"}}
	available  = models.Shift{ID: "avail", Date: "2025-01-03", Status: models.StatusAvailable}
)

func TestVisible(t *testing.T) {
	tests := []struct {
		name   string
		shift  models.Shift
		viewer Viewer
		want   bool
	}{
		{"worker own", own, worker, true},
		{"worker recruiting", recruiting, worker, true},
		{"worker others confirmed", others, worker, false},
		{"worker open available", available, worker, false},
		{"coordinator others", others, coordinator, true},
		{"coordinator available", available, coordinator, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Visible(tt.shift, tt.viewer))
		})
	}
}

func TestFilter_KeepsOrder(t *testing.T) {
	all := []models.Shift{others, own, available, recruiting}

	assert.Equal(t, []models.Shift{own, recruiting}, Filter(all, worker))
	assert.Equal(t, all, Filter(all, coordinator))
}

func TestDisclose_Coordinator(t *testing.T) {
	d := Disclose(others, coordinator, directory)
	assert.Equal(t, Detail{Assignee: "Hanako", Facility: "A"}, d)

	d = Disclose(recruiting, coordinator, directory)
	assert.Equal(t, Detail{Assignee: Unassigned, Facility: "A", Requirements: []string{"certified", "female"}}, d)

	ghost := models.Shift{Date: "2025-01-01", Status: models.StatusConfirmed, StaffID: staff(99)}
	assert.Equal(t, Unassigned, Disclose(ghost, coordinator, directory).Assignee)
}

func TestDisclose_WorkerOwn(t *testing.T) {
	assert.Equal(t, Detail{Facility: "B"}, Disclose(own, worker, directory))
	assert.Equal(t, Detail{Facility: GenerallyAvailable}, Disclose(ownNoPlace, worker, directory))
}

func TestDisclose_WorkerRecruitingNeverShowsAssignee(t *testing.T) {
	d := Disclose(recruiting, worker, directory)
	assert.Empty(t, d.Assignee)
	assert.Empty(t, d.Facility)
	assert.Equal(t, []string{"certified", "female"}, d.Requirements)
}

func TestDisclose_HiddenShiftIsEmpty(t *testing.T) {
	assert.Equal(t, Detail{}, Disclose(others, worker, directory))
}
