package app

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/db"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/jobs"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/observability"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port    string
	LogMode string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Postgres    db.Config
	AutoMigrate bool

	RedisAddr    string
	RedisChannel string

	PermissionsCacheTTL time.Duration
	LoginRatePerMinute  int

	CronEnabled         bool
	ShiftGenerationDays int
	AuditRetention      time.Duration
	// JobSchedules holds per-job cron overrides keyed by job name.
	JobSchedules map[string]string

	Otel           observability.OtelConfig
	MetricsEnabled bool
	CORSOrigins    []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("JWT_SECRET_KEY", defaultJWTSecret)
	v.SetDefault("ACCESS_TOKEN_TTL", 3600)
	v.SetDefault("REFRESH_TOKEN_TTL", 7*24*3600)

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_NAME", "ilpi")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_MAX_OPEN_CONNS", 25)
	v.SetDefault("POSTGRES_MAX_IDLE_CONNS", 10)
	v.SetDefault("POSTGRES_CONN_MAX_LIFETIME", 1800)
	v.SetDefault("AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_CHANNEL", "ilpi:realtime")
	v.SetDefault("PERMISSIONS_CACHE_TTL", 300)
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)

	v.SetDefault("CRON_ENABLED", true)
	v.SetDefault("SHIFT_GENERATION_DAYS", jobs.DefaultShiftGenerationDays)
	v.SetDefault("AUDIT_RETENTION_DAYS", int(jobs.DefaultAuditRetention/(24*time.Hour)))

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "ilpi-api")
	v.SetDefault("OTEL_ENVIRONMENT", "development")
	v.SetDefault("OTEL_SERVICE_VERSION", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_HEADERS", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SAMPLER_RATIO", 1.0)

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("CORS_ORIGINS", "")
}

// LoadConfig reads .env (optional), then config.yaml under CONFIG_PATH (optional),
// with environment variables taking precedence over both.
func LoadConfig(log *logger.Logger) Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("could not load .env", "error", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				log.Info("no config.yaml found, using defaults and env vars", "path", path)
			} else {
				log.Warn("could not read config.yaml", "path", path, "error", err)
			}
		} else {
			log.Info("loaded config file", "file", v.ConfigFileUsed())
		}
	}

	cfg := Config{
		Port:    v.GetString("PORT"),
		LogMode: v.GetString("LOG_MODE"),

		JWTSecretKey:    v.GetString("JWT_SECRET_KEY"),
		AccessTokenTTL:  seconds(v, "ACCESS_TOKEN_TTL"),
		RefreshTokenTTL: seconds(v, "REFRESH_TOKEN_TTL"),

		Postgres: db.Config{
			Host:            v.GetString("POSTGRES_HOST"),
			Port:            v.GetString("POSTGRES_PORT"),
			User:            v.GetString("POSTGRES_USER"),
			Password:        v.GetString("POSTGRES_PASSWORD"),
			Name:            v.GetString("POSTGRES_NAME"),
			SSLMode:         v.GetString("POSTGRES_SSLMODE"),
			MaxOpenConns:    v.GetInt("POSTGRES_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("POSTGRES_MAX_IDLE_CONNS"),
			ConnMaxLifetime: seconds(v, "POSTGRES_CONN_MAX_LIFETIME"),
		},
		AutoMigrate: v.GetBool("AUTO_MIGRATE"),

		RedisAddr:    strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisChannel: v.GetString("REDIS_CHANNEL"),

		PermissionsCacheTTL: seconds(v, "PERMISSIONS_CACHE_TTL"),
		LoginRatePerMinute:  v.GetInt("LOGIN_RATE_PER_MINUTE"),

		CronEnabled:         v.GetBool("CRON_ENABLED"),
		ShiftGenerationDays: v.GetInt("SHIFT_GENERATION_DAYS"),
		AuditRetention:      time.Duration(v.GetInt("AUDIT_RETENTION_DAYS")) * 24 * time.Hour,
		JobSchedules:        jobSchedules(v),

		Otel: observability.OtelConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
			Environment: v.GetString("OTEL_ENVIRONMENT"),
			Version:     v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Headers:     observability.ParseHeaders(v.GetString("OTEL_EXPORTER_OTLP_HEADERS")),
			Insecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
			SampleRatio: v.GetFloat64("OTEL_SAMPLER_RATIO"),
		},
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
	}

	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY not set, using the development default")
	}
	return cfg
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
}

// jobSchedules reads CRON_<JOB_NAME> overrides, e.g. CRON_SHIFT_GENERATION="0 5 * * *".
func jobSchedules(v *viper.Viper) map[string]string {
	out := map[string]string{}
	for name := range jobs.DefaultSchedules {
		key := "CRON_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		if spec := strings.TrimSpace(v.GetString(key)); spec != "" {
			out[name] = spec
		}
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
