package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds application configuration values.
type Config struct {
	HTTPPort         string
	DatabaseDSN      string
	ScoreRefreshCron string
	SeedPath         string
	PayFast          PayFastConfig
}

// PayFastConfig contains credentials and options for the PayFast payment
// provider. The defaults are the public sandbox credentials.
type PayFastConfig struct {
	MerchantID  string
	MerchantKey string
	Passphrase  string
	Sandbox     bool
	ReturnURL   string
	CancelURL   string
	NotifyURL   string
	// ValidateURL overrides the provider's server-side validation endpoint.
	// Empty means derive it from the Sandbox flag.
	ValidateURL string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	port := getenv("HTTP_PORT", "8080")
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	return Config{
		HTTPPort:         port,
		DatabaseDSN:      getenv("DATABASE_DSN", "pos_system.db"),
		ScoreRefreshCron: getenv("SCORE_REFRESH_CRON", "@every 5m"),
		SeedPath:         getenv("SEED_PATH", "assets/inventory.csv"),
		PayFast: PayFastConfig{
			MerchantID:  getenv("PAYFAST_MERCHANT_ID", "10000100"),
			MerchantKey: getenv("PAYFAST_MERCHANT_KEY", "46f0cd694581a"),
			Passphrase:  getenv("PAYFAST_PASSPHRASE", "jt7NOE43FZPn"),
			Sandbox:     getenvBool("PAYFAST_SANDBOX", true),
			ReturnURL:   getenv("PAYFAST_RETURN_URL", "http://localhost:3000/payment-success"),
			CancelURL:   getenv("PAYFAST_CANCEL_URL", "http://localhost:3000/payment-cancel"),
			NotifyURL:   getenv("PAYFAST_NOTIFY_URL", "http://localhost:8080/payment/notify"),
			ValidateURL: os.Getenv("PAYFAST_VALIDATE_URL"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		log.Printf("invalid %s value %q, defaulting to %v", key, val, fallback)
		return fallback
	}
	return parsed
}
