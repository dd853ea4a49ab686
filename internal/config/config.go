package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
	"github.com/riskibarqy/livescore-sync/internal/platform/resilience"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config stores runtime configuration for the scraper and the API.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	LogLevel                   logging.Level
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	DBURL                      string
	DBBinaryParameters         bool
	StoreDriver                string
	CacheTTL                   time.Duration
	CORSAllowedOrigins         []string
	ScraperURL                 string
	ScraperBaseURL             string
	ScraperRepeatEnabled       bool
	ScraperInterval            time.Duration
	ScraperLocation            *time.Location
	ExportDir                  string
	BrowserRemoteURL           string
	BrowserBin                 string
	BrowserHeadless            bool
	BrowserPageTimeout         time.Duration
	BrowserScreenshotDir       string
	LogoEnabled                bool
	LogoDir                    string
	LogoWorkers                int
	LogoTimeout                time.Duration
	LogoCircuit                resilience.CircuitBreakerConfig
	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := getEnvAsDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsDuration("APP_WRITE_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}

	dbBinaryParameters, err := getEnvAsBool("DB_BINARY_PARAMETERS", "false")
	if err != nil {
		return Config{}, err
	}

	storeDriver := strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", StoreDriverPostgres)))
	switch storeDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return Config{}, fmt.Errorf("invalid STORE_DRIVER %q: valid values are %s, %s", storeDriver, StoreDriverPostgres, StoreDriverMemory)
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if storeDriver == StoreDriverPostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORE_DRIVER=%s", StoreDriverPostgres)
	}

	cacheTTL, err := time.ParseDuration(getEnv("API_CACHE_TTL", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse API_CACHE_TTL: %w", err)
	}
	if cacheTTL < 0 {
		return Config{}, fmt.Errorf("API_CACHE_TTL must be >= 0")
	}

	corsAllowedOrigins := splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*"))
	if len(corsAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	scraperRepeatEnabled, err := getEnvAsBool("SCRAPER_REPEAT_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	scraperInterval, err := getEnvAsDuration("SCRAPER_INTERVAL", "60s")
	if err != nil {
		return Config{}, err
	}
	if scraperRepeatEnabled && scraperInterval < 5*time.Second {
		return Config{}, fmt.Errorf("SCRAPER_INTERVAL must be >= 5s when SCRAPER_REPEAT_ENABLED=true")
	}
	timezone := strings.TrimSpace(getEnv("SCRAPER_TIMEZONE", "Europe/Lisbon"))
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPER_TIMEZONE: %w", err)
	}

	browserHeadless, err := getEnvAsBool("BROWSER_HEADLESS", "true")
	if err != nil {
		return Config{}, err
	}
	browserPageTimeout, err := getEnvAsDuration("BROWSER_PAGE_TIMEOUT", "45s")
	if err != nil {
		return Config{}, err
	}

	logoEnabled, err := getEnvAsBool("LOGO_ENABLED", "true")
	if err != nil {
		return Config{}, err
	}
	logoWorkers, err := getEnvAsInt("LOGO_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse LOGO_WORKERS: %w", err)
	}
	if logoWorkers < 1 {
		return Config{}, fmt.Errorf("LOGO_WORKERS must be >= 1")
	}
	logoTimeout, err := getEnvAsDuration("LOGO_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	logoCircuit, err := loadCircuitBreaker("LOGO_CIRCUIT")
	if err != nil {
		return Config{}, err
	}

	pprofEnabled, err := getEnvAsBool("PPROF_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	uptraceEnabled, err := getEnvAsBool("UPTRACE_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := getEnvAsBool("UPTRACE_LOGS_ENABLED", "true")
	if err != nil {
		return Config{}, err
	}

	pyroscopeEnabled, err := getEnvAsBool("PYROSCOPE_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "livescore-sync"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		LogLevel:                   parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		ReadTimeout:                readTimeout,
		WriteTimeout:               writeTimeout,
		DBURL:                      dbURL,
		DBBinaryParameters:         dbBinaryParameters,
		StoreDriver:                storeDriver,
		CacheTTL:                   cacheTTL,
		CORSAllowedOrigins:         corsAllowedOrigins,
		ScraperURL:                 strings.TrimSpace(getEnv("SCRAPER_URL", "https://www.flashscore.pt/")),
		ScraperBaseURL:             strings.TrimSpace(getEnv("SCRAPER_BASE_URL", "https://www.flashscore.pt")),
		ScraperRepeatEnabled:       scraperRepeatEnabled,
		ScraperInterval:            scraperInterval,
		ScraperLocation:            location,
		ExportDir:                  strings.TrimSpace(getEnv("EXPORT_DIR", "outputs")),
		BrowserRemoteURL:           strings.TrimSpace(getEnv("BROWSER_REMOTE_URL", "")),
		BrowserBin:                 strings.TrimSpace(getEnv("BROWSER_BIN", "")),
		BrowserHeadless:            browserHeadless,
		BrowserPageTimeout:         browserPageTimeout,
		BrowserScreenshotDir:       strings.TrimSpace(getEnv("BROWSER_SCREENSHOT_DIR", "")),
		LogoEnabled:                logoEnabled,
		LogoDir:                    strings.TrimSpace(getEnv("LOGO_DIR", "images")),
		LogoWorkers:                logoWorkers,
		LogoTimeout:                logoTimeout,
		LogoCircuit:                logoCircuit,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	if cfg.ScraperURL == "" {
		return Config{}, fmt.Errorf("SCRAPER_URL cannot be empty")
	}
	if cfg.LogoEnabled && cfg.LogoDir == "" {
		return Config{}, fmt.Errorf("LOGO_DIR is required when LOGO_ENABLED=true")
	}

	return cfg, nil
}

// loadCircuitBreaker reads <prefix>_ENABLED, _FAILURE_COUNT, _OPEN_TIMEOUT
// and _HALF_OPEN_MAX_REQ.
func loadCircuitBreaker(prefix string) (resilience.CircuitBreakerConfig, error) {
	defaults := resilience.DefaultCircuitBreakerConfig()

	enabled, err := getEnvAsBool(prefix+"_ENABLED", strconv.FormatBool(defaults.Enabled))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	failureCount, err := getEnvAsInt(prefix+"_FAILURE_COUNT", defaults.FailureThreshold)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_FAILURE_COUNT: %w", prefix, err)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_FAILURE_COUNT must be >= 1", prefix)
	}
	openTimeout, err := getEnvAsDuration(prefix+"_OPEN_TIMEOUT", defaults.OpenTimeout.String())
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	halfOpenMaxReq, err := getEnvAsInt(prefix+"_HALF_OPEN_MAX_REQ", defaults.HalfOpenMaxReq)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key, fallback string) (bool, error) {
	out, err := strconv.ParseBool(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

// getEnvAsDuration parses a positive duration.
func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
