package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/partolaaa/maker-space-tools/internal/schedule"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string
	DBDSN        string

	JWTSecret         string
	JWTAccessTokenTTL time.Duration

	// CredentialKey encrypts stored automation credentials at rest.
	// 32 bytes, hex encoded. Empty disables credential storage.
	CredentialKey    [32]byte
	HasCredentialKey bool

	// Upstream maker-space provider.
	MakerSpaceBaseURL  string
	MakerSpaceClientID string
	MachineGUID        string
	MachineID          int64
	CoworkerID         int64
	MachineName        string

	// Booking limits.
	MaxBookingHours           int
	MaxBookingDurationMinutes int
	AutoSlotMinutes           int
	WorkingHours              schedule.Week
	TimeZone                  *time.Location

	// Automation scheduler.
	SchedulerSpec   string
	AttemptInterval time.Duration
	AttemptFeedSize int
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for signing session tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// Session TTL, parse as time.Duration (e.g. "15m", "12h").
	ttlStr := getEnv("JWT_ACCESS_TOKEN_TTL", "12h")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_TTL: %w", err)
	}
	cfg.JWTAccessTokenTTL = ttl

	// Key for encrypting stored automation credentials (optional).
	if keyStr := os.Getenv("CREDENTIAL_KEY"); keyStr != "" {
		raw, err := hex.DecodeString(keyStr)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("CREDENTIAL_KEY must be 32 hex-encoded bytes")
		}
		copy(cfg.CredentialKey[:], raw)
		cfg.HasCredentialKey = true
	}

	// Upstream provider settings.
	cfg.MakerSpaceBaseURL = os.Getenv("MAKERSPACE_BASE_URL")
	if cfg.MakerSpaceBaseURL == "" {
		return nil, fmt.Errorf("MAKERSPACE_BASE_URL is required")
	}
	cfg.MakerSpaceClientID = getEnv("MAKERSPACE_CLIENT_ID", "")
	cfg.MachineGUID = os.Getenv("MACHINE_GUID")
	if cfg.MachineGUID == "" {
		return nil, fmt.Errorf("MACHINE_GUID is required")
	}
	cfg.MachineID, err = getEnvAsInt64("MACHINE_ID", 0)
	if err != nil {
		return nil, err
	}
	cfg.CoworkerID, err = getEnvAsInt64("COWORKER_ID", 0)
	if err != nil {
		return nil, err
	}
	cfg.MachineName = getEnv("MACHINE_NAME", "Embroidery Machine")

	// Booking limits.
	cfg.MaxBookingHours, err = getEnvAsInt("MAX_BOOKING_HOURS", 360)
	if err != nil {
		return nil, err
	}
	cfg.MaxBookingDurationMinutes, err = getEnvAsInt("MAX_BOOKING_DURATION_MINUTES", 240)
	if err != nil {
		return nil, err
	}
	cfg.AutoSlotMinutes, err = getEnvAsInt("AUTO_SLOT_MINUTES", 30)
	if err != nil {
		return nil, err
	}

	cfg.WorkingHours, err = loadWorkingHours()
	if err != nil {
		return nil, err
	}

	// Time zone used for booking calculations (default: system local).
	tzStr := getEnv("BOOKING_TIME_ZONE", "")
	if tzStr == "" {
		cfg.TimeZone = time.Local
	} else {
		cfg.TimeZone, err = time.LoadLocation(tzStr)
		if err != nil {
			return nil, fmt.Errorf("invalid BOOKING_TIME_ZONE: %w", err)
		}
	}

	// Automation scheduler settings.
	cfg.SchedulerSpec = getEnv("SCHEDULER_SPEC", "@every 1m")
	attemptIntervalStr := getEnv("ATTEMPT_INTERVAL", "10m")
	cfg.AttemptInterval, err = time.ParseDuration(attemptIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTEMPT_INTERVAL: %w", err)
	}
	cfg.AttemptFeedSize, err = getEnvAsInt("ATTEMPT_FEED_SIZE", 200)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadWorkingHours builds the weekly schedule from HH:MM-HH:MM env values.
// An empty value means the day is closed.
func loadWorkingHours() (schedule.Week, error) {
	week := schedule.DefaultWeek()

	days := []struct {
		key      string
		fallback string
		window   *schedule.Window
	}{
		{"WEEKDAY_HOURS", "08:00-16:00", &week.Weekday},
		{"SATURDAY_HOURS", "09:00-17:00", &week.Saturday},
		{"SUNDAY_HOURS", "", &week.Sunday},
	}

	for _, day := range days {
		value := getEnv(day.key, day.fallback)
		if value == "" {
			*day.window = schedule.Closed()
			continue
		}
		if len(value) != 11 || value[5] != '-' {
			return schedule.Week{}, fmt.Errorf("invalid %s %q: expected HH:MM-HH:MM", day.key, value)
		}
		window, err := schedule.NewWindow(value[:5], value[6:])
		if err != nil {
			return schedule.Week{}, fmt.Errorf("invalid %s: %w", day.key, err)
		}
		*day.window = window
	}

	return week, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsInt64 retrieves an environment variable as an int64.
func getEnvAsInt64(key string, defaultValue int64) (int64, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseInt(valStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}
