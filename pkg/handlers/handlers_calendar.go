package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/arnavshah/care-shift-calendar/pkg/calendar"
	"github.com/arnavshah/care-shift-calendar/pkg/directory"
	"github.com/arnavshah/care-shift-calendar/pkg/export"
	"github.com/arnavshah/care-shift-calendar/pkg/metrics"
	"github.com/arnavshah/care-shift-calendar/pkg/models"
	"github.com/arnavshah/care-shift-calendar/pkg/scheduler"
	"github.com/arnavshah/care-shift-calendar/pkg/visibility"
	"github.com/gin-gonic/gin"
)

// Japanese display strings, applied only at this boundary
var jaLabels = export.Labels{
	models.StatusConfirmed:  "確定",
	models.StatusPending:    "未確定",
	models.StatusRecruiting: "募集中",
	models.StatusAvailable:  "勤務可",
}

var jaSentinels = map[string]string{
	visibility.Unassigned:         "未割当",
	visibility.GenerallyAvailable: "勤務可能",
}

// Calendar renders the calendar for the caller, optionally moving to the month of ?date=
func (h *Handler) Calendar(c *gin.Context) {
	var ref time.Time
	if raw := c.Query("date"); raw != "" {
		t, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		ref = t
	}

	p, done := h.session(c)
	vm := p.Render(ref)
	viewer := p.Viewer()
	done()

	metrics.IncRender(string(vm.Mode), string(vm.Role))
	h.RecordUsage(viewer, 1, 0)

	if c.Query("lang") == "ja" {
		for i := range vm.Cells {
			localize(vm.Cells[i].Shifts)
		}
	}
	c.JSON(http.StatusOK, vm)
}

// DayDetail lists the caller-visible shifts on one date
func (h *Handler) DayDetail(c *gin.Context) {
	p, done := h.session(c)
	views, err := p.DayDetail(c.Param("date"))
	viewer := p.Viewer()
	done()

	if err != nil {
		respondError(c, err)
		return
	}

	metrics.IncDayDetail(string(viewer.Role))
	h.RecordUsage(viewer, 0, 1)

	if c.Query("lang") == "ja" {
		localize(views)
	}
	c.JSON(http.StatusOK, gin.H{"date": c.Param("date"), "shifts": views})
}

// SetMode switches between month and week grids
func (h *Handler) SetMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, err := calendar.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, done := h.session(c)
	p.SetMode(mode)
	vm := p.Render(time.Time{})
	done()

	c.JSON(http.StatusOK, vm)
}

type stepRequest struct {
	Steps int `json:"steps"`
}

// MoveWeek navigates by weeks; outside week mode it is ignored
func (h *Handler) MoveWeek(c *gin.Context) {
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, done := h.session(c)
	moved := p.MoveWeek(req.Steps)
	vm := p.Render(time.Time{})
	done()

	c.JSON(http.StatusOK, gin.H{"moved": moved, "calendar": vm})
}

// MoveMonth navigates the reference month
func (h *Handler) MoveMonth(c *gin.Context) {
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, done := h.session(c)
	p.MoveMonth(req.Steps)
	vm := p.Render(time.Time{})
	done()

	c.JSON(http.StatusOK, vm)
}

// SwitchRole reissues the session token with another perspective
func (h *Handler) SwitchRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.startSession(c, c.GetInt("staffID"), role)
}

// ExportCalendar serves the current view as an .xlsx workbook
func (h *Handler) ExportCalendar(c *gin.Context) {
	p, done := h.session(c)
	vm := p.Render(time.Time{})
	done()

	var labels export.Labels
	if c.Query("lang") == "ja" {
		labels = jaLabels
	}

	var buf bytes.Buffer
	if err := export.WriteCalendar(&buf, vm, labels); err != nil {
		h.Log.Error().Err(err).Msg("calendar export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not export calendar"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="calendar.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ListStaff returns every staff member
func (h *Handler) ListStaff(c *gin.Context) {
	p, done := h.session(c)
	defer done()
	c.JSON(http.StatusOK, gin.H{"staff": p.AllStaff()})
}

// AddStaff registers a staff member
func (h *Handler) AddStaff(c *gin.Context) {
	var staff models.Staff
	if err := c.ShouldBindJSON(&staff); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, done := h.session(c)
	err := p.AddStaff(staff)
	done()

	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, staff)
}

// MatchStaff filters staff by ?skill= (repeatable) and ?gender=
func (h *Handler) MatchStaff(c *gin.Context) {
	criteria := directory.Criteria{
		Skills: c.QueryArray("skill"),
		Gender: c.Query("gender"),
	}

	p, done := h.session(c)
	defer done()
	c.JSON(http.StatusOK, gin.H{"staff": p.MatchingStaff(criteria)})
}

// StaffMonthlyShifts returns one staff member's shifts for ?month=YYYY-MM
func (h *Handler) StaffMonthlyShifts(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff id"})
		return
	}
	month, err := time.Parse("2006-01", c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be YYYY-MM"})
		return
	}

	p, done := h.session(c)
	defer done()
	if _, err := p.Staff(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shifts": p.MonthlyShiftsFor(id, month.Year(), month.Month())})
}

// AddShift records a shift
func (h *Handler) AddShift(c *gin.Context) {
	var shift models.Shift
	if err := c.ShouldBindJSON(&shift); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, done := h.session(c)
	stored, err := p.AddShift(shift)
	done()

	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}

// RecruitingShifts lists the shifts open for applicants
func (h *Handler) RecruitingShifts(c *gin.Context) {
	p, done := h.session(c)
	defer done()
	c.JSON(http.StatusOK, gin.H{"shifts": p.RecruitingShifts()})
}

// AssignStaff assigns a staff member to an open shift
func (h *Handler) AssignStaff(c *gin.Context) {
	var req struct {
		StaffID int `json:"staff_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.transition(c, "assign", func(p *scheduler.Scheduler) (models.Shift, error) {
		return p.AssignStaff(c.Param("id"), req.StaffID)
	})
}

// ConfirmShift confirms a pending shift
func (h *Handler) ConfirmShift(c *gin.Context) {
	h.transition(c, "confirm", func(p *scheduler.Scheduler) (models.Shift, error) {
		return p.ConfirmShift(c.Param("id"))
	})
}

// Apply lets the caller take a recruiting shift
func (h *Handler) Apply(c *gin.Context) {
	h.transition(c, "apply", func(p *scheduler.Scheduler) (models.Shift, error) {
		return p.Apply(c.Param("id"))
	})
}

func (h *Handler) transition(c *gin.Context, name string, fn func(*scheduler.Scheduler) (models.Shift, error)) {
	p, done := h.session(c)
	shift, err := fn(p)
	done()

	metrics.IncTransition(name, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shift)
}

// Candidates lists staff qualified for a recruiting shift
func (h *Handler) Candidates(c *gin.Context) {
	p, done := h.session(c)
	defer done()

	staff, err := p.Candidates(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff})
}

// FillRecruiting greedily staffs every recruiting shift
func (h *Handler) FillRecruiting(c *gin.Context) {
	p, done := h.session(c)
	conflicts := p.FillRecruiting()
	year, month := p.ReferenceMonth()
	score := p.FairnessScore(year, month)
	done()

	c.JSON(http.StatusOK, gin.H{
		"conflicts":      conflicts,
		"fairness_score": score,
	})
}

func localize(views []scheduler.ShiftView) {
	for i := range views {
		if label, ok := jaLabels[views[i].Status]; ok {
			views[i].StatusLabel = label
		}
		if v, ok := jaSentinels[views[i].Detail.Assignee]; ok {
			views[i].Detail.Assignee = v
		}
		if v, ok := jaSentinels[views[i].Detail.Facility]; ok {
			views[i].Detail.Facility = v
		}
	}
}
