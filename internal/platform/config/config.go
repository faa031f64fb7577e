// Package config builds process configuration from the environment so main
// stays lean. Validation is eager: a missing backend URL or session secret
// refuses to start the process rather than failing on the first request.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Env is the process environment mode.
type Env string

const (
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
)

// Session captures the stateless-session policy knobs.
type Session struct {
	Secret       string
	CookieName   string
	MaxAge       time.Duration
	RenewWindow  time.Duration
	ReauthGrace  time.Duration
	SecureCookie bool
}

// RedisConfig configures the revocation store connection.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuditConfig configures the Kafka audit publisher. Empty brokers disable it.
type AuditConfig struct {
	Brokers []string
	Topic   string
}

// Config is the full process configuration.
type Config struct {
	Addr           string
	Env            Env
	APIBaseURL     string
	BackendTimeout time.Duration
	Session        Session
	Redis          RedisConfig
	Audit          AuditConfig
}

// Defaults observed in the dashboard this gateway fronts: sessions live for
// three days, renew at most once per day, and credential changes give the
// user 3.5 seconds to read the notification before the forced sign-out.
const (
	defaultMaxAge      = 72 * time.Hour
	defaultRenewWindow = 24 * time.Hour
	defaultReauthGrace = 3500 * time.Millisecond
	defaultTimeout     = 10 * time.Second
)

// FromEnv builds and validates the configuration. Any missing or malformed
// required value returns an error; the caller must treat that as fatal.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:           envOr("LOBBY_ADDR", ":8080"),
		BackendTimeout: defaultTimeout,
		Session: Session{
			Secret:      os.Getenv("LOBBY_SESSION_SECRET"),
			CookieName:  envOr("LOBBY_SESSION_COOKIE", "lobby_session"),
			MaxAge:      defaultMaxAge,
			RenewWindow: defaultRenewWindow,
			ReauthGrace: defaultReauthGrace,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("LOBBY_REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Audit: AuditConfig{
			Topic: envOr("LOBBY_AUDIT_TOPIC", "lobby.audit"),
		},
	}

	switch env := envOr("LOBBY_ENV", string(EnvDevelopment)); Env(env) {
	case EnvDevelopment:
		cfg.Env = EnvDevelopment
	case EnvProduction:
		cfg.Env = EnvProduction
	default:
		return Config{}, fmt.Errorf("config: unknown LOBBY_ENV %q", env)
	}
	cfg.Session.SecureCookie = cfg.Env == EnvProduction

	cfg.APIBaseURL = os.Getenv("LOBBY_API_URL")
	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("config: LOBBY_API_URL is required")
	}
	if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("config: LOBBY_API_URL %q is not an absolute URL", cfg.APIBaseURL)
	}

	if cfg.Session.Secret == "" {
		return Config{}, fmt.Errorf("config: LOBBY_SESSION_SECRET is required")
	}
	if len(cfg.Session.Secret) < 32 {
		return Config{}, fmt.Errorf("config: LOBBY_SESSION_SECRET must be at least 32 bytes")
	}

	if v := os.Getenv("LOBBY_BACKEND_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return Config{}, fmt.Errorf("config: LOBBY_BACKEND_TIMEOUT_MS %q is not a positive integer", v)
		}
		cfg.BackendTimeout = time.Duration(ms) * time.Millisecond
	}

	if brokers := os.Getenv("LOBBY_AUDIT_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Audit.Brokers = append(cfg.Audit.Brokers, b)
			}
		}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
