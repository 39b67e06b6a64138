package config

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Значения по умолчанию для расчётного контура.
const (
	DefaultClearingPeriod    = 168 * time.Hour
	DefaultReconcileInterval = 5 * time.Minute
	DefaultMinPayoutAmount   = "1"
)

// Config содержит конфигурацию приложения.
type Config struct {
	RunAddress        string
	DatabaseURI       string
	JWTSecret         string
	TokenExpiration   time.Duration
	ClearingPeriod    time.Duration
	ReconcileInterval time.Duration
	MinPayoutAmount   decimal.Decimal
}

// Load загружает конфигурацию из .env, флагов командной строки и переменных
// окружения. Приоритет: переменные окружения > флаги > значения по умолчанию.
func Load() *Config {
	// .env опционален: в проде конфигурация приходит из окружения.
	_ = godotenv.Load()

	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "адрес и порт запуска сервиса")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "строка подключения к PostgreSQL")
	flag.DurationVar(&cfg.ClearingPeriod, "c", DefaultClearingPeriod, "длительность клирингового окна")
	flag.Parse()

	if envRunAddr := os.Getenv("RUN_ADDRESS"); envRunAddr != "" {
		cfg.RunAddress = envRunAddr
	}
	if envDBURI := os.Getenv("DATABASE_URI"); envDBURI != "" {
		cfg.DatabaseURI = envDBURI
	}
	if envPeriod := os.Getenv("CLEARING_PERIOD"); envPeriod != "" {
		if d, err := time.ParseDuration(envPeriod); err == nil && d > 0 {
			cfg.ClearingPeriod = d
		}
	}

	cfg.ReconcileInterval = DefaultReconcileInterval
	if envInterval := os.Getenv("RECONCILE_INTERVAL"); envInterval != "" {
		if d, err := time.ParseDuration(envInterval); err == nil && d > 0 {
			cfg.ReconcileInterval = d
		}
	}

	cfg.MinPayoutAmount, _ = decimal.NewFromString(DefaultMinPayoutAmount)
	if envMin := os.Getenv("MIN_PAYOUT_AMOUNT"); envMin != "" {
		if v, err := decimal.NewFromString(envMin); err == nil && !v.IsNegative() {
			cfg.MinPayoutAmount = v
		}
	}

	// JWT секрет
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "default-secret-change-in-production"
	}

	// Время жизни токена
	cfg.TokenExpiration = 24 * time.Hour
	if envExp := os.Getenv("TOKEN_EXPIRATION"); envExp != "" {
		if d, err := time.ParseDuration(envExp); err == nil && d > 0 {
			cfg.TokenExpiration = d
		}
	}

	return cfg
}
