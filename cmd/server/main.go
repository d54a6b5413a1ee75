package main

import (
	"os"
	"time"

	"github.com/arnavshah/care-shift-calendar/pkg/auth"
	"github.com/arnavshah/care-shift-calendar/pkg/config"
	"github.com/arnavshah/care-shift-calendar/pkg/database"
	"github.com/arnavshah/care-shift-calendar/pkg/handlers"
	"github.com/arnavshah/care-shift-calendar/pkg/metrics"
	"github.com/arnavshah/care-shift-calendar/pkg/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	config.LoadEnv()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("CALENDAR_CONFIG"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET is not set")
	}

	year, month := cfg.ReferenceMonth()
	planner := scheduler.NewScheduler(scheduler.Options{
		Year:              year,
		Month:             month,
		Strict:            cfg.Calendar.StrictTransitions,
		MaxShiftsPerMonth: cfg.Calendar.MaxShiftsPerMonth,
		Logger:            &logger,
	})

	// Seed records go through the same add operations as live requests
	for _, st := range cfg.Staff {
		if err := planner.AddStaff(st); err != nil {
			logger.Error().Err(err).Int("staff_id", st.ID).Msg("skipping seed staff")
		}
	}
	for _, sh := range cfg.Shifts {
		if _, err := planner.AddShift(sh); err != nil {
			logger.Error().Err(err).Str("shift_id", sh.ID).Msg("skipping seed shift")
		}
	}
	logger.Info().
		Int("staff", len(planner.AllStaff())).
		Int("year", year).
		Str("month", month.String()).
		Bool("strict", cfg.Calendar.StrictTransitions).
		Msg("planner ready")

	db, err := database.InitDB(cfg.Database.URL, cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := auth.EnsureCoordinatorExists(db, cfg.Coordinator.Username, cfg.Coordinator.Password, cfg.Coordinator.StaffID); err != nil {
		logger.Error().Err(err).Msg("failed to ensure coordinator account")
	}

	metrics.Register()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	} else if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	authn := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.TokenTTL(), cfg.Auth.LineChannelID, cfg.Auth.LineChannelSecret)
	h := handlers.NewHandler(planner, db, authn, cfg.StaffForLineUser, logger)

	logger.Info().Str("port", cfg.Server.Port).Msg("server starting")
	if err := h.Router().Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal().Err(err).Msg("could not run server")
	}
}
