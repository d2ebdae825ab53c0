package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries every tunable the services need. Values that the system
// historically embedded as literals (low-stock threshold, operations
// recipient) are explicit here and passed into constructors.
type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string

	LowStockThreshold int
	OpsRecipient      string
	OpsPhone          string
	LockTimeout       time.Duration
	RestockInterval   time.Duration

	MySQLDSN  string
	RedisAddr string
	AMQPURL   string

	SMTPAddr     string
	SMTPFrom     string
	SMTPUser     string
	SMTPPassword string

	WhatsAppURL   string
	WhatsAppToken string
}

func Load() Config {
	return Config{
		ServiceName: getenvDefault("SERVICE_NAME", "stockflow"),
		Env:         getenvDefault("ENV", "dev"),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),

		LowStockThreshold: getenvInt("LOW_STOCK_THRESHOLD", 10),
		OpsRecipient:      getenvDefault("OPS_RECIPIENT", "stock-ops@example.com"),
		OpsPhone:          os.Getenv("OPS_PHONE"),
		LockTimeout:       getenvDuration("STOCK_LOCK_TIMEOUT", 3*time.Second),
		RestockInterval:   getenvDuration("RESTOCK_INTERVAL", 24*time.Hour),

		MySQLDSN:  os.Getenv("MYSQL_DSN"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		AMQPURL:   os.Getenv("AMQP_URL"),

		SMTPAddr:     os.Getenv("SMTP_ADDR"),
		SMTPFrom:     getenvDefault("SMTP_FROM", "no-reply@stockflow.local"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		WhatsAppURL:   os.Getenv("WHATSAPP_API_URL"),
		WhatsAppToken: os.Getenv("WHATSAPP_API_TOKEN"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
