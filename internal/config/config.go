package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Port string

	APIBaseURL  string
	APIUsername string
	APIPassword string
	APIToken    string
	HTTPTimeout time.Duration

	JWTSecret         string
	AllowRegistration bool
	CORSOrigin        string

	DefaultTaxRate    decimal.Decimal
	StockStaleAfter   time.Duration
	ReconcileDebounce time.Duration

	DBDriver string
	DBDSN    string

	TerminalID   string
	RedisAddr    string
	GeminiAPIKey string

	ReceiptDir string
	ShopName   string
	ShopTaxID  string

	LogJSON  bool
	LogLevel string
}

func Default() Config {
	return Config{
		Port:              "8080",
		APIBaseURL:        "http://localhost:8081",
		HTTPTimeout:       10 * time.Second,
		CORSOrigin:        "http://localhost:5173",
		DefaultTaxRate:    decimal.RequireFromString("0.15"),
		StockStaleAfter:   30 * time.Second,
		ReconcileDebounce: 100 * time.Millisecond,
		DBDriver:          "mysql",
		ShopName:          "POS PyME",
		LogJSON:           true,
		LogLevel:          "info",
	}
}

// MinJWTSecretLen is the shortest POS_JWT_SECRET the server starts with.
const MinJWTSecretLen = 32

var ErrWeakJWTSecret = errors.New("POS_JWT_SECRET is missing or too short")

// Validate reports settings the server must not start without.
func (c Config) Validate() error {
	if len(c.JWTSecret) < MinJWTSecretLen {
		return fmt.Errorf("%w: need at least %d bytes, got %d", ErrWeakJWTSecret, MinJWTSecretLen, len(c.JWTSecret))
	}
	return nil
}

// FromEnv overlays environment variables onto Default().
func FromEnv() Config {
	return fromEnv(Default())
}

func fromEnv(c Config) Config {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				*dst = d
			}
		}
	}
	flag := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("POS_PORT", &c.Port)
	str("POS_API_BASE_URL", &c.APIBaseURL)
	str("POS_API_USERNAME", &c.APIUsername)
	str("POS_API_PASSWORD", &c.APIPassword)
	str("POS_API_TOKEN", &c.APIToken)
	dur("POS_HTTP_TIMEOUT", &c.HTTPTimeout)
	str("POS_JWT_SECRET", &c.JWTSecret)
	flag("ALLOW_REGISTRATION", &c.AllowRegistration)
	str("POS_CORS_ORIGIN", &c.CORSOrigin)
	if v := os.Getenv("POS_DEFAULT_TAX_RATE"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(1)) {
			c.DefaultTaxRate = d
		}
	}
	dur("POS_STOCK_STALE_AFTER", &c.StockStaleAfter)
	dur("POS_RECONCILE_DEBOUNCE", &c.ReconcileDebounce)
	str("DB_DRIVER", &c.DBDriver)
	str("DB_DSN", &c.DBDSN)
	str("POS_TERMINAL_ID", &c.TerminalID)
	str("REDIS_ADDR", &c.RedisAddr)
	str("GEMINI_API_KEY", &c.GeminiAPIKey)
	str("POS_RECEIPT_DIR", &c.ReceiptDir)
	str("POS_SHOP_NAME", &c.ShopName)
	str("POS_SHOP_TAX_ID", &c.ShopTaxID)
	flag("POS_LOG_JSON", &c.LogJSON)
	str("POS_LOG_LEVEL", &c.LogLevel)
	return c
}
