package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arnavshah/care-shift-calendar/pkg/auth"
	"github.com/arnavshah/care-shift-calendar/pkg/database"
	"github.com/arnavshah/care-shift-calendar/pkg/models"
	"github.com/arnavshah/care-shift-calendar/pkg/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	channelID     = "1234567890"
	channelSecret = "channel-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func seededPlanner(t *testing.T, strict bool) *scheduler.Scheduler {
	t.Helper()
	p := scheduler.NewScheduler(scheduler.Options{Year: 2025, Month: time.January, Strict: strict})
	for _, st := range []models.Staff{
		{ID: 1, Name: "Taro", Skills: []string{"certified"}, Gender: "male"},
		{ID: 3, Name: "Ichiro", Skills: []string{"helper-2"}, Gender: "male"},
		{ID: 4, Name: "Misaki", Skills: []string{"certified", "nurse"}, Gender: "female"},
	} {
		require.NoError(t, p.AddStaff(st))
	}
	one, three := 1, 3
	for _, sh := range []models.Shift{
		{ID: "s1", Date: "2025-01-01", Time: "08:00-16:00", Status: models.StatusConfirmed, StaffID: &one, Facility: "A"},
		{ID: "s3", Date: "2025-01-02", Time: "08:00-16:00", Status: models.StatusPending, StaffID: &three, Facility: "B"},
		{ID: "s4", Date: "2025-01-02", Time: "16:00-24:00", Status: models.StatusRecruiting, Facility: "A", Requirements: []string{"certified", "female"}},
		{ID: "s5", Date: "2025-01-03", Time: "08:00-16:00", Status: models.StatusAvailable},
		{ID: "s9", Date: "2025-01-10", Time: "16:00-24:00", Status: models.StatusRecruiting, Facility: "C", Requirements: []string{"certified"}},
	} {
		_, err := p.AddShift(sh)
		require.NoError(t, err)
	}
	return p
}

func newTestHandler(t *testing.T, strict bool, db *gorm.DB) *Handler {
	t.Helper()
	accounts := map[string]int{"U-ichiro": 3, "U-misaki": 4}
	return NewHandler(
		seededPlanner(t, strict),
		db,
		auth.NewAuthenticator("test-secret", time.Hour, channelID, channelSecret),
		func(id string) (int, bool) {
			staffID, ok := accounts[id]
			return staffID, ok
		},
		zerolog.Nop(),
	)
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDB("", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	return db
}

func idToken(t *testing.T, sub string) string {
	t.Helper()
	claims := &auth.LineClaims{
		Name: "worker",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.LineIssuer,
			Subject:   sub,
			Audience:  jwt.ClaimStrings{channelID},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(channelSecret))
	require.NoError(t, err)
	return signed
}

func do(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler, path string, body any) string {
	t.Helper()
	w := do(r, http.MethodPost, path, "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func sessionToken(t *testing.T, h *Handler, staffID int, role models.Role) string {
	t.Helper()
	token, err := h.Auth.CreateToken(staffID, role)
	require.NoError(t, err)
	return token
}

func visibleIDs(vm scheduler.ViewModel) []string {
	var ids []string
	for _, c := range vm.Cells {
		for _, s := range c.Shifts {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	r := newTestHandler(t, true, nil).Router()

	w := do(r, http.MethodGet, "/calendar", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/calendar", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLineLogin_WorkerCalendar(t *testing.T) {
	r := newTestHandler(t, true, nil).Router()
	token := login(t, r, "/login/line", gin.H{"id_token": idToken(t, "U-ichiro")})

	w := do(r, http.MethodGet, "/calendar", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var vm scheduler.ViewModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vm))
	assert.Equal(t, models.RoleWorker, vm.Role)
	assert.Equal(t, "2025/1", vm.PeriodLabel)
	assert.Equal(t, []string{"s3", "s4", "s9"}, visibleIDs(vm))
}

func TestLineLogin_Rejections(t *testing.T) {
	r := newTestHandler(t, true, nil).Router()

	w := do(r, http.MethodPost, "/login/line", "", gin.H{"id_token": idToken(t, "U-stranger")})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/login/line", "", gin.H{"id_token": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/login/line", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoordinatorLogin_DayDetailAndUsage(t *testing.T) {
	db := testDB(t)
	require.NoError(t, auth.EnsureCoordinatorExists(db, "admin", "s3cret", 1))
	r := newTestHandler(t, true, db).Router()

	w := do(r, http.MethodPost, "/login/coordinator", "", gin.H{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := login(t, r, "/login/coordinator", gin.H{"username": "admin", "password": "s3cret"})

	w = do(r, http.MethodGet, "/days/2025-01-02", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var day struct {
		Shifts []scheduler.ShiftView `json:"shifts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &day))
	require.Len(t, day.Shifts, 2)
	assert.Equal(t, "Ichiro", day.Shifts[0].Detail.Assignee)
	assert.Equal(t, "B", day.Shifts[0].Detail.Facility)
	assert.Equal(t, "unassigned", day.Shifts[1].Detail.Assignee)
	assert.Equal(t, []string{"certified", "female"}, day.Shifts[1].Detail.Requirements)

	w = do(r, http.MethodGet, "/usage", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var usage struct {
		Totals struct {
			Renders    int64 `json:"renders"`
			DayDetails int64 `json:"day_details"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &usage))
	assert.Equal(t, int64(0), usage.Totals.Renders)
	assert.Equal(t, int64(1), usage.Totals.DayDetails)
}

func TestCoordinatorLogin_WithoutDatabase(t *testing.T) {
	r := newTestHandler(t, true, nil).Router()
	w := do(r, http.MethodPost, "/login/coordinator", "", gin.H{"username": "admin", "password": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDayDetail_Localized(t *testing.T) {
	h := newTestHandler(t, true, nil)
	r := h.Router()
	token := sessionToken(t, h, 1, models.RoleCoordinator)

	w := do(r, http.MethodGet, "/days/2025-01-03?lang=ja", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var day struct {
		Shifts []scheduler.ShiftView `json:"shifts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &day))
	require.Len(t, day.Shifts, 1)
	assert.Equal(t, "勤務可", day.Shifts[0].StatusLabel)
	assert.Equal(t, "未割当", day.Shifts[0].Detail.Assignee)
}

func TestDayDetail_BadDate(t *testing.T) {
	h := newTestHandler(t, true, nil)
	w := do(h.Router(), http.MethodGet, "/days/01-02-2025", sessionToken(t, h, 1, models.RoleCoordinator), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitions_Strict(t *testing.T) {
	h := newTestHandler(t, true, nil)
	r := h.Router()
	token := sessionToken(t, h, 1, models.RoleCoordinator)

	w := do(r, http.MethodPost, "/shifts/s1/confirm", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/shifts/missing/confirm", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/shifts/s3/confirm", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var shift models.Shift
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shift))
	assert.Equal(t, models.StatusConfirmed, shift.Status)

	w = do(r, http.MethodPost, "/shifts/s5/assign", token, gin.H{"staff_id": 99})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/shifts/s5/assign", token, gin.H{"staff_id": 3})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shift))
	assert.Equal(t, models.StatusPending, shift.Status)
	require.NotNil(t, shift.StaffID)
	assert.Equal(t, 3, *shift.StaffID)
}

func TestApply(t *testing.T) {
	h := newTestHandler(t, true, nil)
	r := h.Router()

	w := do(r, http.MethodPost, "/shifts/s4/apply", sessionToken(t, h, 3, models.RoleWorker), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/shifts/s4/apply", sessionToken(t, h, 4, models.RoleWorker), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var shift models.Shift
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shift))
	assert.Equal(t, models.StatusPending, shift.Status)
	require.NotNil(t, shift.StaffID)
	assert.Equal(t, 4, *shift.StaffID)
}

func TestWeekNavigation(t *testing.T) {
	h := newTestHandler(t, true, nil)
	r := h.Router()
	token := sessionToken(t, h, 1, models.RoleCoordinator)

	w := do(r, http.MethodPost, "/calendar/week", token, gin.H{"steps": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"moved":false`)

	w = do(r, http.MethodPut, "/calendar/mode", token, gin.H{"mode": "week"})
	require.Equal(t, http.StatusOK, w.Code)
	var vm scheduler.ViewModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vm))
	assert.Equal(t, "12/29 - 1/4", vm.WeekLabel)
	assert.Len(t, vm.Cells, 7)

	w = do(r, http.MethodPost, "/calendar/week", token, gin.H{"steps": 1})
	require.Equal(t, http.StatusOK, w.Code)
	var moved struct {
		Moved    bool                `json:"moved"`
		Calendar scheduler.ViewModel `json:"calendar"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moved))
	assert.True(t, moved.Moved)
	assert.Equal(t, "1/5 - 1/11", moved.Calendar.WeekLabel)
	assert.Equal(t, []string{"s9"}, visibleIDs(moved.Calendar))

	w = do(r, http.MethodPut, "/calendar/mode", token, gin.H{"mode": "year"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaffEndpoints(t *testing.T) {
	h := newTestHandler(t, true, nil)
	r := h.Router()
	token := sessionToken(t, h, 1, models.RoleCoordinator)

	w := do(r, http.MethodGet, "/staff/match?skill=certified&gender=female", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var match struct {
		Staff []models.Staff `json:"staff"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &match))
	require.Len(t, match.Staff, 1)
	assert.Equal(t, 4, match.Staff[0].ID)

	w = do(r, http.MethodGet, "/staff/3/shifts?month=2025-01", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var monthly struct {
		Shifts []models.Shift `json:"shifts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &monthly))
	require.Len(t, monthly.Shifts, 1)
	assert.Equal(t, "s3", monthly.Shifts[0].ID)

	w = do(r, http.MethodGet, "/staff/42/shifts?month=2025-01", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/staff", token, models.Staff{ID: 1, Name: "Dup"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestValidateShifts(t *testing.T) {
	h := newTestHandler(t, true, nil)
	r := h.Router()
	token := sessionToken(t, h, 1, models.RoleCoordinator)

	three := 3
	tests := []struct {
		name   string
		shifts []models.Shift
		valid  bool
	}{
		{"ok", []models.Shift{{ID: "n1", Date: "2025-02-01", Time: "08:00-16:00", Status: models.StatusRecruiting}}, true},
		{"existing id", []models.Shift{{ID: "s1", Date: "2025-02-01", Time: "08:00-16:00", Status: models.StatusRecruiting}}, false},
		{"duplicate in batch", []models.Shift{
			{ID: "n1", Date: "2025-02-01", Time: "08:00-16:00", Status: models.StatusRecruiting},
			{ID: "n1", Date: "2025-02-02", Time: "08:00-16:00", Status: models.StatusRecruiting},
		}, false},
		{"confirmed without assignee", []models.Shift{{ID: "n2", Date: "2025-02-01", Time: "08:00-16:00", Status: models.StatusConfirmed}}, false},
		{"recruiting with assignee", []models.Shift{{ID: "n3", Date: "2025-02-01", Time: "08:00-16:00", Status: models.StatusRecruiting, StaffID: &three}}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/shifts/validate", token, gin.H{"shifts": tt.shifts})
			require.Equal(t, http.StatusOK, w.Code)
			var resp struct {
				Valid bool `json:"valid"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.valid, resp.Valid, w.Body.String())
		})
	}
}

func TestFillRecruiting(t *testing.T) {
	h := newTestHandler(t, true, nil)
	r := h.Router()
	token := sessionToken(t, h, 1, models.RoleCoordinator)

	w := do(r, http.MethodPost, "/shifts/fill", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Conflicts []models.ConflictReason `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Conflicts)

	w = do(r, http.MethodGet, "/shifts/recruiting", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"shifts":[]}`, w.Body.String())
}

func TestExportCalendar(t *testing.T) {
	h := newTestHandler(t, true, nil)
	w := do(h.Router(), http.MethodGet, "/calendar/export.xlsx", sessionToken(t, h, 1, models.RoleCoordinator), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}

func TestSwitchRole_ReissuesToken(t *testing.T) {
	h := newTestHandler(t, true, nil)
	r := h.Router()
	worker := sessionToken(t, h, 3, models.RoleWorker)

	w := do(r, http.MethodGet, "/days/2025-01-01", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"date":"2025-01-01","shifts":[]}`, w.Body.String())

	w = do(r, http.MethodPut, "/session/role", worker, gin.H{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, "/session/role", worker, gin.H{"role": "coordinator"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = do(r, http.MethodGet, "/days/2025-01-01", resp.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"s1"`)

	// the old token keeps its worker view
	w = do(r, http.MethodGet, "/days/2025-01-01", worker, nil)
	assert.JSONEq(t, `{"date":"2025-01-01","shifts":[]}`, w.Body.String())
}
