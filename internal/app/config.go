package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fpda/academy-backend/internal/data/db"
	"github.com/fpda/academy-backend/internal/observability"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver     string
	Postgres   db.PostgresConfig
	SQLitePath string
}

// JobSchedules are standard five-field cron specs. An empty spec disables
// the job.
type JobSchedules struct {
	ExpireCertificates string
	ReconcileProgress  string
	RetryPayments      string
}

type Config struct {
	AppEnv   string
	LogMode  string
	HTTPAddr string

	DB           DBConfig
	StoreTimeout time.Duration

	JWTSecret   string
	JWTAudience string

	CertificatePrefix   string
	CertificateFontPath string
	PublicBaseURL       string
	PaymentLinkURL      string

	RedisAddr       string
	CatalogCacheTTL time.Duration

	SendGridAPIKey string
	MailFromEmail  string
	MailFromName   string

	JobsEnabled  bool
	JobSchedules JobSchedules

	CORSAllowedOrigins []string

	Otel observability.OtelConfig
}

// loadDotEnv reads ENV_FILE (default .env) into the process environment
// when it exists. Variables already set win.
func loadDotEnv(log *logger.Logger) {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil && log != nil {
		log.Warn("Could not load env file", "path", path, "error", err)
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("HTTP_ADDR", ":8080")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "")
	v.SetDefault("POSTGRES_NAME", "academy")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "academy.db")
	v.SetDefault("STORE_TIMEOUT", 5*time.Second)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_AUDIENCE", "authenticated")

	v.SetDefault("CERTIFICATE_PREFIX", "FPDA")
	v.SetDefault("CERTIFICATE_FONT_PATH", "")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("PAYMENT_LINK_URL", "")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CATALOG_CACHE_TTL", 5*time.Minute)

	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_EMAIL", "")
	v.SetDefault("MAIL_FROM_NAME", "Academy Certifications")

	v.SetDefault("JOBS_ENABLED", false)
	v.SetDefault("JOB_EXPIRE_CERTIFICATES_SCHEDULE", "0 3 * * *")
	v.SetDefault("JOB_RECONCILE_PROGRESS_SCHEDULE", "30 3 * * *")
	v.SetDefault("JOB_RETRY_PAYMENTS_SCHEDULE", "*/15 * * * *")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", observability.DefaultServiceName)
	v.SetDefault("OTEL_SAMPLER_RATIO", 1.0)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_HEADERS", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_VERSION", "dev")

	// An explicitly empty variable is honoured so a job schedule can be
	// switched off.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	return v
}

func LoadConfig(log *logger.Logger) Config {
	loadDotEnv(log)
	v := newViper()

	cfg := Config{
		AppEnv:   v.GetString("APP_ENV"),
		LogMode:  v.GetString("LOG_MODE"),
		HTTPAddr: v.GetString("HTTP_ADDR"),
		DB: DBConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
			Postgres: db.PostgresConfig{
				Host:     v.GetString("POSTGRES_HOST"),
				Port:     v.GetString("POSTGRES_PORT"),
				User:     v.GetString("POSTGRES_USER"),
				Password: v.GetString("POSTGRES_PASSWORD"),
				Name:     v.GetString("POSTGRES_NAME"),
				SSLMode:  v.GetString("POSTGRES_SSLMODE"),
			},
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		StoreTimeout: v.GetDuration("STORE_TIMEOUT"),

		JWTSecret:   v.GetString("JWT_SECRET"),
		JWTAudience: v.GetString("JWT_AUDIENCE"),

		CertificatePrefix:   v.GetString("CERTIFICATE_PREFIX"),
		CertificateFontPath: v.GetString("CERTIFICATE_FONT_PATH"),
		PublicBaseURL:       strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		PaymentLinkURL:      v.GetString("PAYMENT_LINK_URL"),

		RedisAddr:       strings.TrimSpace(v.GetString("REDIS_ADDR")),
		CatalogCacheTTL: v.GetDuration("CATALOG_CACHE_TTL"),

		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		MailFromEmail:  v.GetString("MAIL_FROM_EMAIL"),
		MailFromName:   v.GetString("MAIL_FROM_NAME"),

		JobsEnabled: v.GetBool("JOBS_ENABLED"),
		JobSchedules: JobSchedules{
			ExpireCertificates: strings.TrimSpace(v.GetString("JOB_EXPIRE_CERTIFICATES_SCHEDULE")),
			ReconcileProgress:  strings.TrimSpace(v.GetString("JOB_RECONCILE_PROGRESS_SCHEDULE")),
			RetryPayments:      strings.TrimSpace(v.GetString("JOB_RETRY_PAYMENTS_SCHEDULE")),
		},

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		Otel: observability.OtelConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
			Environment: v.GetString("APP_ENV"),
			Version:     v.GetString("APP_VERSION"),
			SampleRatio: v.GetFloat64("OTEL_SAMPLER_RATIO"),
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Headers:     v.GetString("OTEL_EXPORTER_OTLP_HEADERS"),
			Insecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		},
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if log != nil {
		log.Info("Configuration loaded",
			"app_env", cfg.AppEnv,
			"http_addr", cfg.HTTPAddr,
			"db_driver", cfg.DB.Driver,
			"redis", cfg.RedisAddr != "",
			"mail", cfg.SendGridAPIKey != "",
			"jobs_enabled", cfg.JobsEnabled,
		)
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
