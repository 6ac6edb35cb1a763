// Package config provides environment configuration for the security core.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// DeviceID scopes the telemetry signal subjects to one paired device.
	DeviceID string

	// JWT settings
	JWTSecret string

	// Passcode lockout
	LockoutShort          time.Duration
	LockoutLong           time.Duration
	LockoutShortThreshold uint32
	LockoutLongThreshold  uint32

	// Motion lock detector
	MotionJitterStationary float64
	MotionJitterActive     float64
	MotionFaceDownZ        float64
	MotionAxisBound        float64
	MotionHeldZMin         float64
	MotionHeldZMax         float64
	MotionFlatZ            float64
	MotionFlatNegZ         float64
	MotionFlatFrames       int
	MotionConfirmFrames    int
	UnlockGrace            time.Duration

	// Panic gesture detector
	PanicEnabled       bool
	PanicCooldown      time.Duration
	PanicRequiredCount int
	PressMaxGap        time.Duration
	PressDebounce      time.Duration
	ShakeThreshold     float64
	ShakeDebounce      time.Duration
	ShakeWindow        time.Duration

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		DeviceID: getEnv("DEVICE_ID", "default"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Lockout schedule: failures 3..5 impose the short lockout,
		// failures 6+ the long one.
		LockoutShort:          getDurationEnv("LOCKOUT_SHORT", 30*time.Second),
		LockoutLong:           getDurationEnv("LOCKOUT_LONG", 5*time.Minute),
		LockoutShortThreshold: uint32(getIntEnv("LOCKOUT_SHORT_THRESHOLD", 3)),
		LockoutLongThreshold:  uint32(getIntEnv("LOCKOUT_LONG_THRESHOLD", 6)),

		// Motion detector thresholds, in g
		MotionJitterStationary: getFloatEnv("MOTION_JITTER_STATIONARY", 0.05),
		MotionJitterActive:     getFloatEnv("MOTION_JITTER_ACTIVE", 0.15),
		MotionFaceDownZ:        getFloatEnv("MOTION_FACE_DOWN_Z", -0.85),
		MotionAxisBound:        getFloatEnv("MOTION_AXIS_BOUND", 0.15),
		MotionHeldZMin:         getFloatEnv("MOTION_HELD_Z_MIN", 0.3),
		MotionHeldZMax:         getFloatEnv("MOTION_HELD_Z_MAX", 0.7),
		MotionFlatZ:            getFloatEnv("MOTION_FLAT_Z", 0.85),
		MotionFlatNegZ:         getFloatEnv("MOTION_FLAT_NEG_Z", -0.2),
		MotionFlatFrames:       getIntEnv("MOTION_FLAT_FRAMES", 20),
		MotionConfirmFrames:    getIntEnv("MOTION_CONFIRM_FRAMES", 3),
		UnlockGrace:            getDurationEnv("UNLOCK_GRACE", 5*time.Second),

		// Panic gestures
		PanicEnabled:       getBoolEnv("PANIC_ENABLED", true),
		PanicCooldown:      getDurationEnv("PANIC_COOLDOWN", 2000*time.Millisecond),
		PanicRequiredCount: getIntEnv("PANIC_REQUIRED_COUNT", 3),
		PressMaxGap:        getDurationEnv("PRESS_MAX_GAP", 400*time.Millisecond),
		PressDebounce:      getDurationEnv("PRESS_DEBOUNCE", 50*time.Millisecond),
		ShakeThreshold:     getFloatEnv("SHAKE_THRESHOLD", 2.5),
		ShakeDebounce:      getDurationEnv("SHAKE_DEBOUNCE", 200*time.Millisecond),
		ShakeWindow:        getDurationEnv("SHAKE_WINDOW", 2000*time.Millisecond),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
