package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBConn    string
	LogLevel  string
	JWTSecret string

	// EncryptionKey is a hex-encoded AES key (16, 24 or 32 bytes once decoded)
	// used to encrypt the stored aggregation access token. When absent or
	// malformed the vault falls back to a process-lifetime random key.
	EncryptionKey string

	// Aggregation API settings
	PlaidClientID    string
	PlaidSecret      string
	PlaidEnv         string // "sandbox" or "production"
	PlaidProducts    []string
	PlaidCountryCode string
	PlaidRedirectURI string

	// Sign convention: transaction amounts are signed with outgoing money
	// negative. The income detector treats transactions at or below
	// -DepositMinAmount whose name carries a payroll keyword as deposits.
	DepositMinAmount decimal.Decimal

	// SMTP settings for bill reminders; reminders are disabled when SMTPHost
	// is empty.
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	ReminderCron string
}

// NewConfig loads configuration from environment variables. A .env file in
// the working directory is applied first when present.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBConn:           getEnv("DB_CONN", "host=localhost port=5432 user=billpay password=billpay dbname=billpay sslmode=disable"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:        getEnv("JWT_SECRET", "secret"),
		EncryptionKey:    getEnv("ENCRYPTION_KEY", ""),
		PlaidClientID:    getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:      getEnv("PLAID_SECRET", ""),
		PlaidEnv:         normalizePlaidEnv(getEnv("PLAID_ENV", "sandbox")),
		PlaidProducts:    splitList(getEnv("PLAID_PRODUCTS", "transactions,auth,liabilities")),
		PlaidCountryCode: getEnv("PLAID_COUNTRY_CODES", "US"),
		PlaidRedirectURI: getEnv("PLAID_REDIRECT_URI", ""),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SenderEmail:      getEnv("SENDER_EMAIL", "noreply@billpay.local"),
		ReminderCron:     getEnv("REMINDER_CRON", "0 9 * * *"),
	}

	threshold := getEnv("DEPOSIT_MIN_AMOUNT", "200")
	minAmount, err := decimal.NewFromString(threshold)
	if err != nil {
		return nil, fmt.Errorf("invalid DEPOSIT_MIN_AMOUNT %q: %w", threshold, err)
	}
	cfg.DepositMinAmount = minAmount

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// normalizePlaidEnv collapses the environment value to the two modes the
// aggregation API actually supports.
func normalizePlaidEnv(env string) string {
	if strings.TrimSpace(strings.ToLower(env)) == "sandbox" {
		return "sandbox"
	}
	return "production"
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
