package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	TelegramToken   string
	DatabaseURL     string
	AdminTelegramID int64
	LogLevel        string
	Environment     string

	PortalBaseURL string
	PortalTimeout time.Duration
	// TermCode overrides the calendar-derived registrar term code when the
	// registrar drifts from the usual semester boundaries. Empty means
	// derive from the current date.
	TermCode string

	// Location is the operating timezone; portal dates and reminder
	// instants are interpreted in it.
	Location *time.Location

	MessageInterval    time.Duration
	CourseInterval     time.Duration // outside the evening peak window
	CoursePeakInterval time.Duration // within the peak window
	CoursePeakHour     int           // local hour the peak window opens
	LectureInterval    time.Duration
	AverageInterval    time.Duration
	DiscussionInterval time.Duration
	DeadlineInterval   time.Duration

	// DigestHour is the local hour the daily lecture/discussion digests go
	// out.
	DigestHour int
	// MidnightCronSpec triggers the exam pass and the dedup purge.
	MidnightCronSpec string
}

// Load reads configuration from environment variables and .env file (if
// present). godotenv.Load does not override existing env variables.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	cfg.PortalBaseURL = os.Getenv("PORTAL_BASE_URL")
	if cfg.PortalBaseURL == "" {
		return nil, fmt.Errorf("PORTAL_BASE_URL is not set")
	}
	cfg.PortalBaseURL = strings.TrimRight(cfg.PortalBaseURL, "/")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	tz := os.Getenv("TIMEZONE")
	if tz == "" {
		tz = "Asia/Jerusalem"
	}
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	cfg.TermCode = os.Getenv("TERM_CODE")

	cfg.PortalTimeout, err = envDuration("PORTAL_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.MessageInterval, err = envDuration("MESSAGE_INTERVAL", 20*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.CourseInterval, err = envDuration("COURSE_INTERVAL", 60*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.CoursePeakInterval, err = envDuration("COURSE_PEAK_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.LectureInterval, err = envDuration("LECTURE_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.AverageInterval, err = envDuration("AVERAGE_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.DiscussionInterval, err = envDuration("DISCUSSION_INTERVAL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.DeadlineInterval, err = envDuration("DEADLINE_INTERVAL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.CoursePeakHour, err = envInt("COURSE_PEAK_HOUR", 21)
	if err != nil {
		return nil, err
	}
	cfg.DigestHour, err = envInt("DIGEST_HOUR", 6)
	if err != nil {
		return nil, err
	}

	cfg.MidnightCronSpec = os.Getenv("MIDNIGHT_CRON_SPEC")
	if cfg.MidnightCronSpec == "" {
		cfg.MidnightCronSpec = "0 0 * * *"
	}

	return cfg, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
