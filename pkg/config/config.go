package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/arnavshah/care-shift-calendar/pkg/models"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CALENDAR_CONFIG is unset
const DefaultPath = "configs/config.yaml"

// Account maps a LINE Login user to a staff member
type Account struct {
	LineUserID string `yaml:"line_user_id"`
	StaffID    int    `yaml:"staff_id"`
}

// Config is the full runtime configuration, including seed records
type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`

	Calendar struct {
		Year              int  `yaml:"year"`
		Month             int  `yaml:"month"`
		StrictTransitions bool `yaml:"strict_transitions"`
		MaxShiftsPerMonth int  `yaml:"max_shifts_per_month"`
	} `yaml:"calendar"`

	Auth struct {
		JWTSecret         string    `yaml:"jwt_secret"`
		TokenTTLHours     int       `yaml:"token_ttl_hours"`
		LineChannelID     string    `yaml:"line_channel_id"`
		LineChannelSecret string    `yaml:"line_channel_secret"`
		Accounts          []Account `yaml:"accounts"`
	} `yaml:"auth"`

	Database struct {
		URL  string `yaml:"url"`
		Path string `yaml:"path"`
	} `yaml:"database"`

	Coordinator struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		StaffID  int    `yaml:"staff_id"`
	} `yaml:"coordinator"`

	Staff  []models.Staff `yaml:"staff"`
	Shifts []models.Shift `yaml:"shifts"`
}

// LoadEnv loads .env if it exists.
// Try root and parent directories for flexibility.
func LoadEnv() {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}
}

// Load reads the YAML config at path (DefaultPath when empty). A missing file
// yields the defaults; environment variables fill anything left unset.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		// Support ${ENV_VAR} placeholders in YAML config.
		data = []byte(os.ExpandEnv(string(data)))
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = envOr("PORT", "8000")
	}
	if c.Database.URL == "" {
		c.Database.URL = os.Getenv("DATABASE_URL")
	}
	if c.Database.Path == "" {
		c.Database.Path = envOr("DATA_PATH", "file::memory:?cache=shared")
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = 24
	}
	if c.Coordinator.Username == "" {
		c.Coordinator.Username = envOr("ADMIN_USERNAME", "admin")
	}
	if c.Coordinator.Password == "" {
		c.Coordinator.Password = envOr("ADMIN_PASSWORD", "admin123")
	}
	if c.Calendar.Year == 0 || c.Calendar.Month < 1 || c.Calendar.Month > 12 {
		now := time.Now()
		c.Calendar.Year, c.Calendar.Month = now.Year(), int(now.Month())
	}
	if v := os.Getenv("STRICT_TRANSITIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Calendar.StrictTransitions = b
		}
	}
}

// TokenTTL returns the session token lifetime
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// ReferenceMonth returns the initial calendar month
func (c *Config) ReferenceMonth() (int, time.Month) {
	return c.Calendar.Year, time.Month(c.Calendar.Month)
}

// StaffForLineUser resolves a LINE user id to a staff id
func (c *Config) StaffForLineUser(lineUserID string) (int, bool) {
	for _, a := range c.Auth.Accounts {
		if a.LineUserID == lineUserID {
			return a.StaffID, true
		}
	}
	return 0, false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
