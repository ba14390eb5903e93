// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Server      ServerConfig
	Data        DataConfig
	Matchmaking MatchmakingConfig
	Invitations InvitationsConfig
	Realtime    RealtimeConfig
	RateLimit   RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 5000)
	FrontendURL  string        // CORS allowed origin (default: http://localhost:3000)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 0, streaming responses must not time out)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// DataConfig holds document store configuration.
type DataConfig struct {
	// Path is the BadgerDB directory (default: ./data)
	Path string
}

// MatchmakingConfig holds matchmaking tuning.
type MatchmakingConfig struct {
	// ActivityWindow is how recently a session must have been active to be
	// matchable (default: 5m)
	ActivityWindow time.Duration
	// CandidateLimit caps how many candidates a match query returns (default: 10)
	CandidateLimit int
	// SweepInterval is how often stale searching sessions are demoted (default: 5m)
	SweepInterval time.Duration
}

// InvitationsConfig holds invitation tuning.
type InvitationsConfig struct {
	// TTL is how long an invitation stays acceptable (default: 24h)
	TTL time.Duration
	// SweepInterval is how often pending invitations past expiry are reaped (default: 1h)
	SweepInterval time.Duration
}

// RealtimeConfig holds presence relay tuning.
type RealtimeConfig struct {
	// StatsInterval is how often aggregate counts are pushed to all connections (default: 30s)
	StatsInterval time.Duration
	// ClientBuffer is the per-connection event channel size (default: 64)
	ClientBuffer int
}

// RateLimitConfig holds per-client API rate limiting.
type RateLimitConfig struct {
	// RPS is sustained requests per second per client IP (default: 0.111,
	// the original's 100 requests per 15 minutes)
	RPS float64
	// Burst is the instantaneous allowance per client IP (default: 20)
	Burst int
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	loadDotEnv(".env")

	cfg := defaults()
	applyEnv(cfg)

	fs := flag.NewFlagSet("debate-server", flag.ContinueOnError)
	env := fs.String("env", "", "Environment (development, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	port := fs.String("port", "", "HTTP listen port")
	dataPath := fs.String("data-path", "", "BadgerDB data directory")
	frontendURL := fs.String("frontend-url", "", "Allowed CORS origin")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if *env != "" {
		cfg.App.Environment = *env
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	if *frontendURL != "" {
		cfg.Server.FrontendURL = *frontendURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("invalid environment %q (want development or production)", c.App.Environment)
	}
	if c.Data.Path == "" {
		return fmt.Errorf("data path must not be empty")
	}
	if c.Matchmaking.ActivityWindow <= 0 {
		return fmt.Errorf("matchmaking activity window must be positive")
	}
	if c.Matchmaking.CandidateLimit <= 0 {
		return fmt.Errorf("matchmaking candidate limit must be positive")
	}
	if c.Invitations.TTL <= 0 {
		return fmt.Errorf("invitation TTL must be positive")
	}
	return nil
}

// defaults returns the baseline configuration.
func defaults() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Server: ServerConfig{
			Port:        "5000",
			FrontendURL: "http://localhost:3000",
			ReadTimeout: 15 * time.Second,
			IdleTimeout: 60 * time.Second,
		},
		Data: DataConfig{Path: "./data"},
		Matchmaking: MatchmakingConfig{
			ActivityWindow: 5 * time.Minute,
			CandidateLimit: 10,
			SweepInterval:  5 * time.Minute,
		},
		Invitations: InvitationsConfig{
			TTL:           24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Realtime: RealtimeConfig{
			StatsInterval: 30 * time.Second,
			ClientBuffer:  64,
		},
		RateLimit: RateLimitConfig{
			RPS:   100.0 / (15 * 60),
			Burst: 20,
		},
	}
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	setString(&cfg.App.Environment, "DEBATE_ENV")
	setString(&cfg.Logger.Level, "DEBATE_LOG_LEVEL")
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.FrontendURL, "FRONTEND_URL")
	setString(&cfg.Data.Path, "DEBATE_DATA_PATH")
	setDuration(&cfg.Matchmaking.ActivityWindow, "DEBATE_ACTIVITY_WINDOW")
	setInt(&cfg.Matchmaking.CandidateLimit, "DEBATE_CANDIDATE_LIMIT")
	setDuration(&cfg.Matchmaking.SweepInterval, "DEBATE_SESSION_SWEEP_INTERVAL")
	setDuration(&cfg.Invitations.TTL, "DEBATE_INVITATION_TTL")
	setDuration(&cfg.Invitations.SweepInterval, "DEBATE_INVITATION_SWEEP_INTERVAL")
	setDuration(&cfg.Realtime.StatsInterval, "DEBATE_STATS_INTERVAL")
	setFloat(&cfg.RateLimit.RPS, "DEBATE_RATE_LIMIT_RPS")
	setInt(&cfg.RateLimit.Burst, "DEBATE_RATE_LIMIT_BURST")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// loadDotEnv reads KEY=VALUE pairs from a .env file into the process
// environment. Existing environment variables are never overwritten.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return // .env is optional
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
}
