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

const (
	StoreDriverJSONBin = "jsonbin"
	StoreDriverMemory  = "memory"

	minJWTSecretBytes = 32

	// leaseMargin is the slack a lease keeps beyond one fetch plus one
	// replace at the store timeout.
	leaseMargin = 5 * time.Second
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort      string
	AppEnv          string
	LogLevel        string
	CORSOrigins     []string
	ShutdownTimeout time.Duration

	StoreDriver  string
	StoreBaseURL string
	StoreBinID   string
	StoreAPIKey  string
	StoreTimeout time.Duration

	JWTSecret        string
	TokenTTL         time.Duration
	TokenTTLRemember time.Duration

	LockTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisLockKey  string
	RedisLockTTL  time.Duration

	SwaggerHost string
}

// Load reads a .env file if present, then builds Config from the
// environment with defaults and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "3000"),
		AppEnv:          getEnv("APP_ENV", "dev"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"*"}),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),

		StoreDriver:  strings.ToLower(getEnv("STORE_DRIVER", StoreDriverJSONBin)),
		StoreBaseURL: getEnv("STORE_BASE_URL", "https://api.jsonbin.io/v3"),
		StoreBinID:   os.Getenv("STORE_BIN_ID"),
		StoreAPIKey:  os.Getenv("STORE_API_KEY"),
		StoreTimeout: p.duration("STORE_TIMEOUT", 10*time.Second),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		TokenTTL:         p.duration("TOKEN_TTL", 7*24*time.Hour),
		TokenTTLRemember: p.duration("TOKEN_TTL_REMEMBER", 30*24*time.Hour),

		LockTimeout: p.duration("COORDINATOR_LOCK_TIMEOUT", 5*time.Second),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       p.integer("REDIS_DB", 0),
		RedisLockKey:  getEnv("REDIS_LOCK_KEY", "accounts:collection:lock"),
		RedisLockTTL:  p.duration("REDIS_LOCK_TTL", 30*time.Second),

		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < minJWTSecretBytes {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretBytes))
	}
	switch c.StoreDriver {
	case StoreDriverJSONBin:
		if c.StoreBinID == "" {
			errs = append(errs, errors.New("STORE_BIN_ID is required for the jsonbin store"))
		}
		if c.StoreAPIKey == "" {
			errs = append(errs, errors.New("STORE_API_KEY is required for the jsonbin store"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not supported", c.StoreDriver))
	}
	if c.TokenTTL <= 0 || c.TokenTTLRemember <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL and TOKEN_TTL_REMEMBER must be positive"))
	}
	if c.LockTimeout <= 0 {
		errs = append(errs, errors.New("COORDINATOR_LOCK_TIMEOUT must be positive"))
	}
	if c.RedisAddr != "" && c.RedisLockTTL < c.MinLeaseTTL() {
		errs = append(errs, fmt.Errorf("REDIS_LOCK_TTL must be at least %s (two STORE_TIMEOUT round trips plus %s)", c.MinLeaseTTL(), leaseMargin))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs in the dev environment.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "dev"
}

// MinLeaseTTL is the shortest lease that outlives a full fetch and replace
// cycle, each bounded by StoreTimeout.
func (c *Config) MinLeaseTTL() time.Duration {
	return 2*c.StoreTimeout + leaseMargin
}

// LeaseEnabled reports whether writers also take the redis lease.
func (c *Config) LeaseEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// parser keeps the first malformed value so Load can report it.
type parser struct {
	err error
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
