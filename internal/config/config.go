package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBuyURL      = "https://t.me/Progasoft_bot?start=item_8487"
	defaultPromoBuyURL = "https://t.me/Progasoft_bot?start=promo_Promo50"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	AuthAPIURL        string
	ReferralsAPIURL   string
	WithdrawalsAPIURL string
	APITimeout        time.Duration

	SessionSecret string
	SessionIssuer string
	SessionMaxAge time.Duration
	CookieSecure  bool

	PublicBaseURL string
	BuyURL        string
	PromoBuyURL   string
	CORSOrigins   []string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:              fallback(os.Getenv("PORT"), "8080"),
		Env:               strings.ToLower(fallback(os.Getenv("APP_ENV"), "development")),
		LogLevel:          strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")),
		AuthAPIURL:        strings.TrimSpace(os.Getenv("AUTH_API_URL")),
		ReferralsAPIURL:   strings.TrimSpace(os.Getenv("REFERRALS_API_URL")),
		WithdrawalsAPIURL: strings.TrimSpace(os.Getenv("WITHDRAWALS_API_URL")),
		SessionSecret:     strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		SessionIssuer:     fallback(os.Getenv("SESSION_ISSUER"), "earn-portal"),
		PublicBaseURL:     strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/"),
		BuyURL:            fallback(os.Getenv("BUY_URL"), defaultBuyURL),
		PromoBuyURL:       fallback(os.Getenv("PROMO_BUY_URL"), defaultPromoBuyURL),
		CORSOrigins:       parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
	}

	cfg.APITimeout = time.Duration(positiveInt(os.Getenv("API_TIMEOUT_SECONDS"), 10)) * time.Second
	cfg.SessionMaxAge = time.Duration(positiveInt(os.Getenv("SESSION_MAX_AGE_DAYS"), 30)) * 24 * time.Hour

	cfg.CookieSecure = cfg.IsProduction()
	if raw := strings.TrimSpace(os.Getenv("COOKIE_SECURE")); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = secure
	}

	if cfg.AuthAPIURL == "" {
		return Config{}, errors.New("AUTH_API_URL is required")
	}
	if cfg.ReferralsAPIURL == "" {
		return Config{}, errors.New("REFERRALS_API_URL is required")
	}
	if cfg.WithdrawalsAPIURL == "" {
		return Config{}, errors.New("WITHDRAWALS_API_URL is required")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsProduction reports whether APP_ENV is set to production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func positiveInt(value string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
