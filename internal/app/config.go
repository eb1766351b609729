package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/lessonplan-backend/internal/clients/generation"
	"github.com/yungbote/lessonplan-backend/internal/data/db"
	"github.com/yungbote/lessonplan-backend/internal/http/middleware"
	"github.com/yungbote/lessonplan-backend/internal/modules/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/envutil"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type Config struct {
	LogMode     string
	Port        string
	Environment string
	ServiceName string

	DB         db.Config
	Generation generation.Config
	CORS       middleware.CORSConfig

	SessionDuration string
	SchemaVersion   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	Tracing observability.TracingConfig
}

// source resolves a key from the environment first and then from the
// optional CONFIG_FILE overlay.
type source struct {
	file map[string]string
}

func (s source) fallback(key, def string) string {
	if v, ok := s.file[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (s source) String(key, def string) string {
	return envutil.String(key, s.fallback(key, def))
}

func (s source) Int(key string, def int) int {
	if n, err := strconv.Atoi(s.fallback(key, "")); err == nil {
		def = n
	}
	return envutil.Int(key, def)
}

func (s source) Bool(key string, def bool) bool {
	if b, err := strconv.ParseBool(s.fallback(key, "")); err == nil {
		def = b
	}
	return envutil.Bool(key, def)
}

func (s source) Float(key string, def float64) float64 {
	raw := envutil.String(key, s.fallback(key, ""))
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return def
}

func (s source) Seconds(key string, def time.Duration) time.Duration {
	if n, err := strconv.Atoi(s.fallback(key, "")); err == nil && n > 0 {
		def = time.Duration(n) * time.Second
	}
	return envutil.Seconds(key, def)
}

func (s source) List(key string) []string {
	if l := envutil.List(key); len(l) > 0 {
		return l
	}
	var out []string
	for _, part := range strings.Split(s.fallback(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readOverlay parses a flat YAML mapping of the same keys the environment
// uses, e.g. "GENERATION_BASE_URL: http://localhost:8000".
func readOverlay(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
		case []any:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				parts = append(parts, fmt.Sprint(p))
			}
			out[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			out[strings.ToUpper(k)] = fmt.Sprint(t)
		}
	}
	return out, nil
}

func LoadConfig(log *logger.Logger) (Config, error) {
	file, err := readOverlay(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}
	if log != nil && len(file) > 0 {
		log.Info("Loaded config overlay", "path", os.Getenv("CONFIG_FILE"), "keys", len(file))
	}
	s := source{file: file}

	env := s.String("ENVIRONMENT", "development")
	cfg := Config{
		LogMode:     s.String("LOG_MODE", "development"),
		Port:        s.String("PORT", "8080"),
		Environment: env,
		ServiceName: s.String("OTEL_SERVICE_NAME", "lessonplan-backend"),
		DB: db.Config{
			Driver:           strings.ToLower(s.String("DB_DRIVER", "postgres")),
			PostgresHost:     s.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     s.String("POSTGRES_PORT", "5432"),
			PostgresUser:     s.String("POSTGRES_USER", "postgres"),
			PostgresPassword: s.String("POSTGRES_PASSWORD", ""),
			PostgresName:     s.String("POSTGRES_NAME", "lessonplan"),
			PostgresSSLMode:  s.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:       s.String("SQLITE_PATH", "lessonplan.db"),
			MaxOpenConns:     s.Int("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns:     s.Int("POSTGRES_MAX_IDLE_CONNS", 10),
		},
		Generation: generation.Config{
			BaseURL:        s.String("GENERATION_BASE_URL", ""),
			GroupPath:      s.String("GENERATION_GROUP_PATH", generation.DefaultGroupPath),
			SummaryPath:    s.String("GENERATION_SUMMARY_PATH", generation.DefaultSummaryPath),
			DetailPath:     s.String("GENERATION_DETAIL_PATH", generation.DefaultDetailPath),
			GroupTimeout:   s.Seconds("GENERATION_GROUP_TIMEOUT_SECONDS", 120*time.Second),
			SummaryTimeout: s.Seconds("GENERATION_SUMMARY_TIMEOUT_SECONDS", 120*time.Second),
			DetailTimeout:  s.Seconds("GENERATION_DETAIL_TIMEOUT_SECONDS", 180*time.Second),
		},
		CORS: middleware.CORSConfig{
			Environment:    env,
			AllowedOrigins: s.List("ALLOWED_ORIGINS"),
		},
		SessionDuration: s.String("SESSION_DURATION", lessonplan.DefaultSessionDuration),
		SchemaVersion:   s.String("SCHEMA_VERSION", lessonplan.DefaultSchemaVersion),
		RedisAddr:       s.String("REDIS_ADDR", ""),
		RedisPassword:   s.String("REDIS_PASSWORD", ""),
		RedisDB:         s.Int("REDIS_DB", 0),
		LockTTL:         s.Seconds("LOCK_TTL_SECONDS", 5*time.Minute),
		Tracing: observability.TracingConfig{
			Enabled:     s.Bool("OTEL_ENABLED", false),
			Environment: env,
			SampleRatio: s.Float("OTEL_SAMPLER_RATIO", 0.1),
			Endpoint:    s.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    s.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			Headers:     s.List("OTEL_EXPORTER_OTLP_HEADERS"),
		},
	}
	cfg.Tracing.ServiceName = cfg.ServiceName
	cfg.Tracing.SchemaVersion = cfg.SchemaVersion
	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "sqlite" {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	if strings.TrimSpace(cfg.Generation.BaseURL) == "" {
		return Config{}, fmt.Errorf("missing GENERATION_BASE_URL")
	}
	// A Redis lock is held across the generation call and must outlive it.
	if cfg.RedisAddr != "" {
		longest := max(cfg.Generation.GroupTimeout, cfg.Generation.SummaryTimeout, cfg.Generation.DetailTimeout)
		if cfg.LockTTL <= longest {
			return Config{}, fmt.Errorf("LOCK_TTL_SECONDS (%s) must exceed the longest generation timeout (%s)", cfg.LockTTL, longest)
		}
	}
	return cfg, nil
}
