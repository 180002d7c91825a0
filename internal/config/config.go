package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gridplay/boxgame/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	// DBURL empty means the in-memory store is used instead of Postgres.
	DBURL                   string
	DBDisablePreparedBinary bool

	CORSAllowedOrigins []string
	InternalJobToken   string

	ProjectionsBaseURL               string
	ProjectionsToken                 string
	ProjectionsTimeout               time.Duration
	ProjectionsMaxRetries            int
	ProjectionsCacheTTL              time.Duration
	ProjectionsCircuitEnabled        bool
	ProjectionsCircuitFailureCount   int
	ProjectionsCircuitOpenTimeout    time.Duration
	ProjectionsCircuitHalfOpenMaxReq int
	ProjectionsWarmupWeek            int

	VerifyWorkers int
	GameRandSeed  int64

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PprofEnabled bool
	PprofAddr    string

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

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	projectionsTimeout, err := time.ParseDuration(getEnv("PROJECTIONS_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTIONS_TIMEOUT: %w", err)
	}
	if projectionsTimeout <= 0 {
		return Config{}, fmt.Errorf("PROJECTIONS_TIMEOUT must be > 0")
	}
	projectionsMaxRetries, err := getEnvAsInt("PROJECTIONS_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTIONS_MAX_RETRIES: %w", err)
	}
	if projectionsMaxRetries < 0 {
		return Config{}, fmt.Errorf("PROJECTIONS_MAX_RETRIES must be >= 0")
	}
	projectionsCacheTTL, err := time.ParseDuration(getEnv("PROJECTIONS_CACHE_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTIONS_CACHE_TTL: %w", err)
	}
	if projectionsCacheTTL <= 0 {
		return Config{}, fmt.Errorf("PROJECTIONS_CACHE_TTL must be > 0")
	}
	projectionsCircuitEnabled, err := strconv.ParseBool(getEnv("PROJECTIONS_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTIONS_CIRCUIT_ENABLED: %w", err)
	}
	projectionsCircuitFailureCount, err := getEnvAsInt("PROJECTIONS_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTIONS_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if projectionsCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("PROJECTIONS_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	projectionsCircuitOpenTimeout, err := time.ParseDuration(getEnv("PROJECTIONS_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTIONS_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if projectionsCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("PROJECTIONS_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	projectionsCircuitHalfOpenMaxReq, err := getEnvAsInt("PROJECTIONS_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTIONS_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if projectionsCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("PROJECTIONS_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	projectionsWarmupWeek, err := getEnvAsInt("PROJECTIONS_WARMUP_WEEK", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTIONS_WARMUP_WEEK: %w", err)
	}
	if projectionsWarmupWeek < 0 {
		return Config{}, fmt.Errorf("PROJECTIONS_WARMUP_WEEK must be >= 0")
	}

	verifyWorkers, err := getEnvAsInt("VERIFY_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse VERIFY_WORKERS: %w", err)
	}
	if verifyWorkers < 1 {
		return Config{}, fmt.Errorf("VERIFY_WORKERS must be >= 1")
	}

	gameRandSeed, err := getEnvAsInt64("GAME_RAND_SEED", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse GAME_RAND_SEED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                           appEnv,
		ServiceName:                      getEnv("APP_SERVICE_NAME", "boxgame-api"),
		ServiceVersion:                   getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                         getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                      readTimeout,
		WriteTimeout:                     writeTimeout,
		LogLevel:                         parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		DBURL:                            strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary:          dbDisablePreparedBinary,
		CORSAllowedOrigins:               splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		InternalJobToken:                 strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		ProjectionsBaseURL:               strings.TrimSpace(getEnv("PROJECTIONS_BASE_URL", "")),
		ProjectionsToken:                 strings.TrimSpace(getEnv("PROJECTIONS_TOKEN", "")),
		ProjectionsTimeout:               projectionsTimeout,
		ProjectionsMaxRetries:            projectionsMaxRetries,
		ProjectionsCacheTTL:              projectionsCacheTTL,
		ProjectionsCircuitEnabled:        projectionsCircuitEnabled,
		ProjectionsCircuitFailureCount:   projectionsCircuitFailureCount,
		ProjectionsCircuitOpenTimeout:    projectionsCircuitOpenTimeout,
		ProjectionsCircuitHalfOpenMaxReq: projectionsCircuitHalfOpenMaxReq,
		ProjectionsWarmupWeek:            projectionsWarmupWeek,
		VerifyWorkers:                    verifyWorkers,
		GameRandSeed:                     gameRandSeed,
		UptraceEnabled:                   uptraceEnabled,
		UptraceDSN:                       uptraceDSN,
		UptraceLogsEnabled:               uptraceLogsEnabled,
		PprofEnabled:                     pprofEnabled,
		PprofAddr:                        pprofAddr,
		PyroscopeEnabled:                 pyroscopeEnabled,
		PyroscopeServerAddress:           pyroscopeServerAddress,
		PyroscopeAuthToken:               strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:           strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:       strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:              pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
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

func getEnvAsInt64(key string, fallback int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
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
