package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingJWTSecret is returned when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET must be set")

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Gate     GateConfig
	Stripe   StripeConfig
	Plaid    PlaidConfig
	GHL      GHLConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	AllowedOrigins        []string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig configures the optional domain event forwarder.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret          string
	JWTKeyID           string
	PreviousKeys       map[string]string
	TokenTTLHours      int
	BcryptCost         int
	CookieName         string
	CookieSecure       bool
	PolicyFile         string
	LoginMaxAttempts   int
	LoginWindowMinutes int
	MinPasswordLength  int
}

// GateConfig lists the path prefixes guarded by the edge gate.
type GateConfig struct {
	ProtectedPrefixes []string
	ExemptPaths       []string
	LoginPath         string
}

// StripeConfig holds webhook verification settings.
type StripeConfig struct {
	WebhookSecret    string
	ToleranceSeconds int
}

// PlaidConfig holds bank-link credentials.
type PlaidConfig struct {
	ClientID   string
	Secret     string
	BaseURL    string
	ClientName string
}

// GHLConfig holds GoHighLevel CRM credentials.
type GHLConfig struct {
	APIKey         string
	BaseURL        string
	LocationID     string
	TimeoutSeconds int
}

// Enabled reports whether CRM sync has credentials.
func (g GHLConfig) Enabled() bool {
	return g.APIKey != "" && g.LocationID != ""
}

// Enabled reports whether bank linking has credentials.
func (p PlaidConfig) Enabled() bool {
	return p.ClientID != "" && p.Secret != ""
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	previousKeys, err := parseKeyList(os.Getenv("AUTH_JWT_PREVIOUS_KEYS"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_JWT_PREVIOUS_KEYS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "donor-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			AllowedOrigins:        getEnvAsList("APP_ALLOWED_ORIGINS", nil),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		NATS: NATSConfig{
			URL:           os.Getenv("NATS_URL"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "donors.events"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:          os.Getenv("AUTH_JWT_SECRET"),
			JWTKeyID:           getEnv("AUTH_JWT_KEY_ID", "primary"),
			PreviousKeys:       previousKeys,
			TokenTTLHours:      getEnvAsInt("AUTH_TOKEN_TTL_HOURS", 7*24),
			BcryptCost:         getEnvAsInt("AUTH_BCRYPT_COST", 12),
			CookieName:         getEnv("AUTH_COOKIE_NAME", "auth_token"),
			CookieSecure:       getEnvAsBool("AUTH_COOKIE_SECURE", true),
			PolicyFile:         os.Getenv("AUTH_POLICY_FILE"),
			LoginMaxAttempts:   getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", 5),
			LoginWindowMinutes: getEnvAsInt("AUTH_LOGIN_WINDOW_MINUTES", 15),
			MinPasswordLength:  getEnvAsInt("AUTH_MIN_PASSWORD_LENGTH", 8),
		},
		Gate: GateConfig{
			ProtectedPrefixes: getEnvAsList("GATE_PROTECTED_PREFIXES", []string{"/admin"}),
			ExemptPaths:       getEnvAsList("GATE_EXEMPT_PATHS", []string{"/admin/login"}),
			LoginPath:         getEnv("GATE_LOGIN_PATH", "/admin/login"),
		},
		Stripe: StripeConfig{
			WebhookSecret:    os.Getenv("STRIPE_WEBHOOK_SECRET"),
			ToleranceSeconds: getEnvAsInt("STRIPE_WEBHOOK_TOLERANCE_SECONDS", 300),
		},
		Plaid: PlaidConfig{
			ClientID:   os.Getenv("PLAID_CLIENT_ID"),
			Secret:     os.Getenv("PLAID_SECRET"),
			BaseURL:    getEnv("PLAID_BASE_URL", "https://sandbox.plaid.com"),
			ClientName: getEnv("PLAID_CLIENT_NAME", "Donor Portal"),
		},
		GHL: GHLConfig{
			APIKey:         os.Getenv("GHL_API_KEY"),
			BaseURL:        getEnv("GHL_BASE_URL", "https://services.leadconnectorhq.com"),
			LocationID:     os.Getenv("GHL_LOCATION_ID"),
			TimeoutSeconds: getEnvAsInt("GHL_TIMEOUT_SECONDS", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if c.Auth.TokenTTLHours <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL_HOURS must be positive, got %d", c.Auth.TokenTTLHours)
	}
	if c.Auth.CookieName == "" {
		return errors.New("AUTH_COOKIE_NAME must not be empty")
	}
	if c.Gate.LoginPath == "" {
		return errors.New("GATE_LOGIN_PATH must not be empty")
	}
	if _, dup := c.Auth.PreviousKeys[c.Auth.JWTKeyID]; dup {
		return fmt.Errorf("AUTH_JWT_PREVIOUS_KEYS reuses active key id %q", c.Auth.JWTKeyID)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the credential validity window.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// LoginWindow returns the failed-login counting window.
func (a AuthConfig) LoginWindow() time.Duration {
	return time.Duration(a.LoginWindowMinutes) * time.Minute
}

// Redacted returns a printable view of the configuration with secrets masked.
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"app": map[string]any{
			"name":    c.App.Name,
			"env":     c.App.Env,
			"addr":    c.App.Addr(),
			"version": c.App.Version,
		},
		"postgres": map[string]any{
			"dsn":            mask(c.Postgres.DSN),
			"max_conns":      c.Postgres.MaxConns,
			"run_migrations": c.Postgres.RunMigrations,
		},
		"redis": map[string]any{"addr": c.Redis.Addr, "db": c.Redis.DB},
		"nats":  map[string]any{"url": mask(c.NATS.URL), "subject_prefix": c.NATS.SubjectPrefix},
		"auth": map[string]any{
			"jwt_secret":         mask(c.Auth.JWTSecret),
			"jwt_key_id":         c.Auth.JWTKeyID,
			"previous_key_count": len(c.Auth.PreviousKeys),
			"token_ttl_hours":    c.Auth.TokenTTLHours,
			"cookie_name":        c.Auth.CookieName,
			"policy_file":        c.Auth.PolicyFile,
		},
		"gate": map[string]any{
			"protected_prefixes": c.Gate.ProtectedPrefixes,
			"exempt_paths":       c.Gate.ExemptPaths,
			"login_path":         c.Gate.LoginPath,
		},
		"stripe": map[string]any{"webhook_secret": mask(c.Stripe.WebhookSecret)},
		"plaid":  map[string]any{"client_id": mask(c.Plaid.ClientID), "base_url": c.Plaid.BaseURL},
		"ghl":    map[string]any{"api_key": mask(c.GHL.APIKey), "location_id": c.GHL.LocationID},
	}
}

func mask(val string) string {
	if val == "" {
		return ""
	}
	return "set"
}

// parseKeyList reads "kid:secret,kid:secret" pairs.
func parseKeyList(raw string) (map[string]string, error) {
	keys := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return keys, nil
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		kid, secret, ok := strings.Cut(entry, ":")
		if !ok || kid == "" || secret == "" {
			return nil, fmt.Errorf("entry %q is not kid:secret", entry)
		}
		keys[kid] = secret
	}
	return keys, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
