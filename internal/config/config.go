package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"campusmart/internal/log"
)

type Config struct {
	Port         string
	DBDSN        string
	LogFile      string
	TemplatesDir string
	InvoiceDir   string
	CookieSecure bool

	NotifyTimeout time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	KafkaBrokers []string
	KafkaTopic   string

	AdminUsername string
	AdminPassword string

	RateLimitMax    int
	RateLimitWindow time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error(nil, "config.dotenv_ignored", err, nil)
	}

	cfg := Config{
		Port:         env("PORT", "8080"),
		DBDSN:        env("DB_DSN", "campusmart.db"), // sqlite file in project root
		LogFile:      env("LOG_FILE", ""),
		TemplatesDir: env("TEMPLATES_DIR", "./web/templates"),
		InvoiceDir:   env("INVOICE_DIR", "./data/invoices"),
		CookieSecure: envBool("COOKIE_SECURE", false),

		NotifyTimeout: envDuration("NOTIFY_TIMEOUT", 10*time.Second),

		SMTPHost:     env("SMTP_HOST", ""),
		SMTPPort:     envInt("SMTP_PORT", 587),
		SMTPUsername: env("SMTP_USERNAME", ""),
		SMTPPassword: env("SMTP_PASSWORD", ""),
		SMTPFrom:     env("SMTP_FROM", "no-reply@campusmart.local"),

		KafkaBrokers: splitCSV(env("KAFKA_BROKERS", "")),
		KafkaTopic:   env("KAFKA_TOPIC", "campusmart.orders"),

		AdminUsername: env("ADMIN_USERNAME", ""),
		AdminPassword: env("ADMIN_PASSWORD", ""),

		RateLimitMax:    envInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow: envDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
	log.Info(nil, "config.loaded", map[string]any{
		"port": cfg.Port, "invoice_dir": cfg.InvoiceDir,
		"smtp": cfg.SMTPHost != "", "kafka": len(cfg.KafkaBrokers) > 0,
	})
	return cfg
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(env(key, ""))
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(env(key, ""))
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(env(key, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
