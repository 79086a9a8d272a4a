package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type DataBackend string

const (
	BackendPostgres DataBackend = "postgres" // yerel veritabanı
	BackendRemote   DataBackend = "remote"   // uzak REST servisi
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=kasa port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// Veri kaynağı
	DataBackend    DataBackend
	BackendURL     string
	BackendToken   string
	BackendTimeout time.Duration

	// Kurlar
	StaticRates  string // "USD:30,EUR:35"; boşsa veritabanı/uzak servis
	RedisAddr    string
	RateCacheTTL time.Duration

	// Bildirimler
	AMQPURL      string
	AMQPExchange string

	// Satış oturumları
	SessionTTL      time.Duration
	SessionCapacity int

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:     getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		DataBackend:     DataBackend(strings.ToLower(getEnv("DATA_BACKEND", string(BackendPostgres)))),
		BackendURL:      strings.TrimRight(getEnv("BACKEND_URL", ""), "/"),
		BackendToken:    getEnv("BACKEND_TOKEN", ""),
		BackendTimeout:  getDuration("BACKEND_TIMEOUT", 10*time.Second),
		StaticRates:     getEnv("STATIC_RATES", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RateCacheTTL:    getDuration("RATE_CACHE_TTL", 5*time.Minute),
		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "kasa.events"),
		SessionTTL:      getDuration("SESSION_TTL", 2*time.Hour),
		SessionCapacity: getInt("SESSION_CAPACITY", 500),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
	}
}

// Validate tüm sorunları tek hatada toplar.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET tanımlanmamış"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET en az 32 karakter olmalı"))
	}

	switch c.DataBackend {
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN boş olamaz"))
		}
	case BackendRemote:
		if c.BackendURL == "" {
			errs = append(errs, errors.New("DATA_BACKEND=remote için BACKEND_URL zorunlu"))
		}
		if c.BackendToken == "" {
			errs = append(errs, errors.New("DATA_BACKEND=remote için BACKEND_TOKEN zorunlu"))
		}
	default:
		errs = append(errs, errors.New("DATA_BACKEND 'postgres' veya 'remote' olmalı"))
	}

	if c.SessionCapacity <= 0 {
		errs = append(errs, errors.New("SESSION_CAPACITY pozitif olmalı"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL pozitif olmalı"))
	}

	return errors.Join(errs...)
}

// Warnings production için varsayılan değerlerle çalışıldığını bildirir.
func (c *Config) Warnings() []string {
	var w []string
	if c.DataBackend == BackendPostgres && c.DatabaseDSN == defaultDSN {
		w = append(w, "DATABASE_DSN varsayılan değer kullanılıyor, production için kendi Postgres bağlantı bilgini tanımla")
	}
	if c.CORSOrigins == "http://localhost:5173" {
		w = append(w, "CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için kendi domain'ini tanımla")
	}
	return w
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
