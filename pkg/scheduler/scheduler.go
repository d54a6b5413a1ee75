package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/arnavshah/care-shift-calendar/pkg/calendar"
	"github.com/arnavshah/care-shift-calendar/pkg/directory"
	"github.com/arnavshah/care-shift-calendar/pkg/ledger"
	"github.com/arnavshah/care-shift-calendar/pkg/models"
	"github.com/arnavshah/care-shift-calendar/pkg/visibility"
	"github.com/rs/zerolog"
)

// Options configures a Scheduler
type Options struct {
	Year  int
	Month time.Month
	// Strict surfaces invalid transitions as errors instead of ignoring them
	Strict bool
	// MaxShiftsPerMonth caps FillRecruiting per staff member; 0 means no cap
	MaxShiftsPerMonth int
	Logger            *zerolog.Logger
	Now               func() time.Time
}

// Scheduler composes the staff directory, the shift ledger and the calendar
// engine for one viewing session. It is not safe for concurrent use.
type Scheduler struct {
	staff  *directory.Directory
	shifts *ledger.Ledger
	engine *calendar.Engine
	viewer visibility.Viewer

	strict   bool
	maxShift int
	log      zerolog.Logger
	now      func() time.Time
}

// ShiftView is one shift as presented to the current viewer
type ShiftView struct {
	ID          string            `json:"id"`
	Time        string            `json:"time"`
	Status      models.Status     `json:"status"`
	StatusLabel string            `json:"status_label"`
	Detail      visibility.Detail `json:"detail"`
}

// CellView is one calendar day as presented to the current viewer
type CellView struct {
	Date          string      `json:"date,omitempty"`
	Day           int         `json:"day,omitempty"`
	Weekday       int         `json:"weekday"`
	WeekdayLabel  string      `json:"weekday_label,omitempty"`
	IsToday       bool        `json:"is_today"`
	IsPlaceholder bool        `json:"is_placeholder"`
	Shifts        []ShiftView `json:"shifts"`
}

// ViewModel is the presentation-ready result of a render request
type ViewModel struct {
	Mode        calendar.Mode `json:"mode"`
	Role        models.Role   `json:"role"`
	PeriodLabel string        `json:"period_label"`
	WeekLabel   string        `json:"week_label,omitempty"`
	Cells       []CellView    `json:"cells"`
}

// NewScheduler creates a new scheduler instance in month mode with a worker viewer
func NewScheduler(opts Options) *Scheduler {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "scheduler").Logger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	year, month := opts.Year, opts.Month
	if year == 0 || month == 0 {
		t := now()
		year, month = t.Year(), t.Month()
	}

	return &Scheduler{
		staff:    directory.New(),
		shifts:   ledger.New(),
		engine:   calendar.NewEngine(year, month),
		viewer:   visibility.Viewer{Role: models.RoleWorker},
		strict:   opts.Strict,
		maxShift: opts.MaxShiftsPerMonth,
		log:      log,
		now:      now,
	}
}

// AddStaff registers a staff member
func (s *Scheduler) AddStaff(staff models.Staff) error {
	if err := s.staff.Add(staff); err != nil {
		return err
	}
	s.log.Debug().Int("staff_id", staff.ID).Msg("staff added")
	return nil
}

// AddShift records a shift; an assignee, if any, must be a known staff member
func (s *Scheduler) AddShift(shift models.Shift) (models.Shift, error) {
	if shift.HasStaff() {
		if _, err := s.staff.ByID(*shift.StaffID); err != nil {
			return models.Shift{}, err
		}
	}
	stored, err := s.shifts.Add(shift)
	if err != nil {
		return models.Shift{}, err
	}
	s.log.Debug().Str("shift_id", stored.ID).Str("date", stored.Date).Msg("shift added")
	return stored, nil
}

// Staff looks up a staff member
func (s *Scheduler) Staff(id int) (models.Staff, error) {
	return s.staff.ByID(id)
}

// AllStaff lists staff in registration order
func (s *Scheduler) AllStaff() []models.Staff {
	return s.staff.All()
}

// Shift looks up a shift
func (s *Scheduler) Shift(id string) (models.Shift, error) {
	return s.shifts.ByID(id)
}

// RecruitingShifts lists shifts open for applicants
func (s *Scheduler) RecruitingShifts() []models.Shift {
	return s.shifts.Recruiting()
}

// Viewer returns the current viewer
func (s *Scheduler) Viewer() visibility.Viewer {
	return s.viewer
}

// SwitchRole changes the perspective used by the next render
func (s *Scheduler) SwitchRole(role models.Role) error {
	if _, err := models.ParseRole(string(role)); err != nil {
		return err
	}
	s.viewer.Role = role
	return nil
}

// SetViewer sets the externally authenticated staff id of the viewer
func (s *Scheduler) SetViewer(staffID int) {
	s.viewer.StaffID = staffID
}

// SetMode switches between month and week grids
func (s *Scheduler) SetMode(m calendar.Mode) {
	s.engine.SetMode(m)
}

// MoveWeek navigates by weeks; it reports false outside week mode
func (s *Scheduler) MoveWeek(steps int) bool {
	moved := s.engine.MoveWeek(steps)
	if !moved {
		s.log.Debug().Int("steps", steps).Msg("week navigation ignored outside week mode")
	}
	return moved
}

// MoveMonth navigates the reference month
func (s *Scheduler) MoveMonth(steps int) {
	s.engine.MoveMonth(steps)
}

// Render projects the calendar for the current viewer. A non-zero ref first
// moves the reference month to the one containing ref.
func (s *Scheduler) Render(ref time.Time) ViewModel {
	if !ref.IsZero() {
		s.engine.SetReference(ref.Year(), ref.Month())
	}

	cells := s.engine.Project(s.shifts, s.now())
	vm := ViewModel{
		Mode:        s.engine.Mode(),
		Role:        s.viewer.Role,
		PeriodLabel: s.engine.PeriodLabel(),
		WeekLabel:   s.engine.WeekLabel(),
		Cells:       make([]CellView, 0, len(cells)),
	}
	for _, c := range cells {
		vm.Cells = append(vm.Cells, CellView{
			Date:          c.Date,
			Day:           c.Day,
			Weekday:       int(c.Weekday),
			WeekdayLabel:  c.WeekdayLabel,
			IsToday:       c.IsToday,
			IsPlaceholder: c.IsPlaceholder,
			Shifts:        s.present(c.Shifts),
		})
	}
	return vm
}

// DayDetail lists the shifts on one date visible to the current viewer
func (s *Scheduler) DayDetail(date string) ([]ShiftView, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", models.ErrInvalidShift, date)
	}
	return s.present(s.shifts.ByDate(date)), nil
}

// MonthlyShiftsFor returns a staff member's shifts within one calendar month
func (s *Scheduler) MonthlyShiftsFor(staffID, year int, month time.Month) []models.Shift {
	start, end := calendar.MonthRange(year, month)
	return s.shifts.ByStaffInRange(staffID, start, end)
}

// MatchingStaff returns staff meeting the criteria
func (s *Scheduler) MatchingStaff(c directory.Criteria) []models.Staff {
	return s.staff.Find(c)
}

// Candidates returns staff qualified for a recruiting shift's requirements
func (s *Scheduler) Candidates(shiftID string) ([]models.Staff, error) {
	shift, err := s.shifts.ByID(shiftID)
	if err != nil {
		return nil, err
	}
	if !shift.IsRecruiting() {
		return []models.Staff{}, nil
	}
	return s.staff.Qualified(shift.Requirements), nil
}

// AssignStaff assigns a known staff member to an open shift
func (s *Scheduler) AssignStaff(shiftID string, staffID int) (models.Shift, error) {
	if _, err := s.staff.ByID(staffID); err != nil {
		return models.Shift{}, err
	}
	shift, err := s.shifts.Update(shiftID, func(sh *models.Shift) error {
		return sh.AssignStaff(staffID)
	})
	if err != nil {
		return shift, s.transitionFailed("assign", shiftID, err)
	}
	s.log.Info().Str("shift_id", shiftID).Int("staff_id", staffID).Msg("staff assigned")
	return shift, nil
}

// ConfirmShift confirms a pending shift. In lenient mode an invalid
// transition is logged and leaves the shift unchanged without an error.
func (s *Scheduler) ConfirmShift(shiftID string) (models.Shift, error) {
	shift, err := s.shifts.Update(shiftID, (*models.Shift).Confirm)
	if err != nil {
		return shift, s.transitionFailed("confirm", shiftID, err)
	}
	s.log.Info().Str("shift_id", shiftID).Msg("shift confirmed")
	return shift, nil
}

// Apply assigns the current viewer to a recruiting shift they qualify for
func (s *Scheduler) Apply(shiftID string) (models.Shift, error) {
	me, err := s.staff.ByID(s.viewer.StaffID)
	if err != nil {
		return models.Shift{}, err
	}
	shift, err := s.shifts.Update(shiftID, func(sh *models.Shift) error {
		if !sh.IsRecruiting() {
			return fmt.Errorf("%w: shift is not recruiting", models.ErrInvalidTransition)
		}
		for _, req := range sh.Requirements {
			if !me.Satisfies(req) {
				return fmt.Errorf("%w: requirement %q not met", models.ErrInvalidTransition, req)
			}
		}
		return sh.AssignStaff(me.ID)
	})
	if err != nil {
		return shift, s.transitionFailed("apply", shiftID, err)
	}
	s.log.Info().Str("shift_id", shiftID).Int("staff_id", me.ID).Msg("applied to recruiting shift")
	return shift, nil
}

func (s *Scheduler) transitionFailed(op, shiftID string, err error) error {
	if errors.Is(err, models.ErrInvalidTransition) && !s.strict {
		s.log.Warn().Err(err).Str("op", op).Str("shift_id", shiftID).Msg("ignored invalid transition")
		return nil
	}
	return err
}

func (s *Scheduler) present(shifts []models.Shift) []ShiftView {
	visible := visibility.Filter(shifts, s.viewer)
	out := make([]ShiftView, 0, len(visible))
	for _, sh := range visible {
		out = append(out, ShiftView{
			ID:          sh.ID,
			Time:        sh.Time,
			Status:      sh.Status,
			StatusLabel: sh.StatusLabel(),
			Detail:      visibility.Disclose(sh, s.viewer, s.staff),
		})
	}
	return out
}
