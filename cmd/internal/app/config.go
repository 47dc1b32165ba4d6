package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
//
// Auth-specific knobs (token TTLs, signing secret, cookie policy) live in
// their own packages; this struct covers the process-level surface.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogPretty bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool

	// How often the janitor evicts expired refresh-token rows.
	SweepInterval time.Duration
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("SPENDSENSE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("SPENDSENSE_LOG_LEVEL", "info"),
		LogPretty: EnvBool("SPENDSENSE_LOG_PRETTY", false),

		ReadHeaderTimeout: EnvDuration("SPENDSENSE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("SPENDSENSE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("SPENDSENSE_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("SPENDSENSE_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("SPENDSENSE_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("SPENDSENSE_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("SPENDSENSE_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("SPENDSENSE_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("SPENDSENSE_READINESS_REQUIRE_DB", false),

		SweepInterval: EnvDuration("SPENDSENSE_SWEEP_INTERVAL", 10*time.Minute),
	}
}
