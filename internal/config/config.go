package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port    string
	Storage Storage

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	BcryptCost      int
	HashConcurrency int

	CORSOrigins    []string
	RequestTimeout time.Duration
	AuthRatePerMin int
	// TrustedProxies lists peers whose X-Forwarded-For and X-Real-IP
	// headers are honoured. Empty means the socket peer is the client.
	TrustedProxies []netip.Prefix
	LogLevel       string
	LogFormat      string
}

// Storage selects and addresses the persistence backend.
type Storage struct {
	Driver   string
	URL      string
	Database string
	Debug    bool
}

// Load reads configuration from the environment. Missing secrets and
// malformed numbers are errors so the process fails at startup.
func Load() (Config, error) {
	st, err := LoadStorage()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		Storage:     st,
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "finance-dashboard"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:    strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")),
		LogFormat:   strings.ToLower(fallback(os.Getenv("LOG_FORMAT"), "json")),
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	ttlMinutes, err := positiveInt("JWT_TTL_MINUTES", 60)
	if err != nil {
		return Config{}, err
	}
	cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute

	if cfg.BcryptCost, err = positiveInt("BCRYPT_COST", 10); err != nil {
		return Config{}, err
	}
	if cfg.HashConcurrency, err = positiveInt("HASH_CONCURRENCY", runtime.GOMAXPROCS(0)); err != nil {
		return Config{}, err
	}
	if cfg.AuthRatePerMin, err = nonNegativeInt("AUTH_RATE_LIMIT_PER_MINUTE", 20); err != nil {
		return Config{}, err
	}

	if cfg.TrustedProxies, err = parseProxies(os.Getenv("TRUSTED_PROXIES")); err != nil {
		return Config{}, err
	}

	timeout := fallback(os.Getenv("REQUEST_TIMEOUT"), "15s")
	if cfg.RequestTimeout, err = time.ParseDuration(timeout); err != nil || cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid REQUEST_TIMEOUT value: %q", timeout)
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return Config{}, fmt.Errorf("invalid LOG_FORMAT value: %q", cfg.LogFormat)
	}

	return cfg, nil
}

// LoadStorage reads only the storage settings; cmd/migrate needs no
// signing key.
func LoadStorage() (Storage, error) {
	st := Storage{
		Driver:   strings.ToLower(fallback(os.Getenv("STORAGE_DRIVER"), DriverPostgres)),
		URL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Database: fallback(os.Getenv("MONGO_DATABASE"), "finance_dashboard"),
		Debug:    strings.EqualFold(os.Getenv("DATABASE_DEBUG"), "true"),
	}
	switch st.Driver {
	case DriverPostgres, DriverMongo, DriverSQLite:
	default:
		return Storage{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", st.Driver)
	}
	if st.URL == "" {
		return Storage{}, errors.New("DATABASE_URL is required")
	}
	return st, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func positiveInt(key string, def int) (int, error) {
	n, err := nonNegativeInt(key, def)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid %s value: must be positive", key)
	}
	return n, nil
}

func nonNegativeInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s value: %q", key, raw)
	}
	return n, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
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

// parseProxies reads a comma-separated list of IPs and CIDR ranges.
func parseProxies(input string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			prefix, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", part, err)
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", part, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
