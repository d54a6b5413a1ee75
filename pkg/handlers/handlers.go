package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/arnavshah/care-shift-calendar/pkg/auth"
	"github.com/arnavshah/care-shift-calendar/pkg/models"
	"github.com/arnavshah/care-shift-calendar/pkg/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// AccountLookup maps a LINE user id to a staff id
type AccountLookup func(lineUserID string) (int, bool)

// Handler contains dependencies for the route handlers. The planner is a
// single-session object, so every request touching it holds mu and sets the
// viewer from its session token first.
type Handler struct {
	Planner  *scheduler.Scheduler
	DB       *gorm.DB
	Auth     *auth.Authenticator
	Accounts AccountLookup
	Log      zerolog.Logger

	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewHandler wires a handler; db may be nil to skip usage bookkeeping
func NewHandler(planner *scheduler.Scheduler, db *gorm.DB, authn *auth.Authenticator, accounts AccountLookup, log zerolog.Logger) *Handler {
	return &Handler{
		Planner:  planner,
		DB:       db,
		Auth:     authn,
		Accounts: accounts,
		Log:      log,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Router builds the gin engine with every route
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Care Shift Calendar",
			"version": "1.0.0",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	login := r.Group("/login")
	login.Use(h.RateLimitMiddleware())
	{
		login.POST("/line", h.LineLogin)
		login.POST("/coordinator", h.CoordinatorLogin)
	}

	api := r.Group("/")
	api.Use(h.AuthMiddleware())
	{
		api.GET("/calendar", h.Calendar)
		api.PUT("/calendar/mode", h.SetMode)
		api.POST("/calendar/week", h.MoveWeek)
		api.POST("/calendar/month", h.MoveMonth)
		api.GET("/calendar/export.xlsx", h.ExportCalendar)
		api.GET("/days/:date", h.DayDetail)
		api.PUT("/session/role", h.SwitchRole)

		api.GET("/staff", h.ListStaff)
		api.POST("/staff", h.AddStaff)
		api.GET("/staff/match", h.MatchStaff)
		api.GET("/staff/:id/shifts", h.StaffMonthlyShifts)

		api.POST("/shifts", h.AddShift)
		api.POST("/shifts/validate", h.ValidateShifts)
		api.POST("/shifts/fill", h.FillRecruiting)
		api.GET("/shifts/recruiting", h.RecruitingShifts)
		api.POST("/shifts/:id/assign", h.AssignStaff)
		api.POST("/shifts/:id/confirm", h.ConfirmShift)
		api.POST("/shifts/:id/apply", h.Apply)
		api.GET("/shifts/:id/candidates", h.Candidates)

		api.GET("/usage", h.GetMyUsage)
	}

	return r
}

// AuthMiddleware verifies the session JWT and records the viewer identity
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Strip "Bearer " if present
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("staffID", claims.StaffID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RateLimitMiddleware throttles login attempts
func (h *Handler) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.Log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// LineLogin exchanges a LINE Login ID token for a worker session
func (h *Handler) LineLogin(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.Auth.VerifyIDToken(req.IDToken)
	if err != nil {
		h.Log.Warn().Err(err).Msg("line id token rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid ID token"})
		return
	}

	staffID, ok := h.Accounts(identity.UserID)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "No staff account linked to this LINE user"})
		return
	}

	h.startSession(c, staffID, models.RoleWorker)
}

// CoordinatorLogin handles coordinator password login
func (h *Handler) CoordinatorLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Coordinator login is not configured"})
		return
	}

	user, err := auth.AuthenticateCoordinator(h.DB, req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	h.startSession(c, user.StaffID, models.RoleCoordinator)
}

func (h *Handler) startSession(c *gin.Context, staffID int, role models.Role) {
	token, err := h.Auth.CreateToken(staffID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	h.Log.Info().Int("staff_id", staffID).Str("role", string(role)).Msg("session started")
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer", "role": role})
}

// session locks the planner for one request and points it at the caller.
// The token role was checked by VerifyToken.
func (h *Handler) session(c *gin.Context) (*scheduler.Scheduler, func()) {
	h.mu.Lock()
	h.Planner.SetViewer(c.GetInt("staffID"))
	_ = h.Planner.SwitchRole(models.Role(c.GetString("role")))
	return h.Planner, h.mu.Unlock
}

// respondError maps planner errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateID), errors.Is(err, models.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInvalidShift):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
