// Package config предоставляет структуры и функции для загрузки конфигурации
// сервера и CLI из YAML-файла и переменных окружения.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Окружения, от которых зависит формат логов и детализация ошибок.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer      `yaml:"http_server"`
	Stripe          `yaml:"stripe"`
	Session         `yaml:"session"`
	Usage           `yaml:"usage"`
	RedisConnection `yaml:"redis_connection"`
	StatusCache     `yaml:"status_cache"`
	RateLimit       `yaml:"rate_limit"`
	CORS            `yaml:"cors"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Stripe ключи и адреса платёжного провайдера.
type Stripe struct {
	SecretKey      string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	PublishableKey string `yaml:"publishable_key" env:"STRIPE_PUBLISHABLE_KEY"`
	PriceID        string `yaml:"price_id" env:"STRIPE_PRICE_ID"`
	WebhookSecret  string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	FrontendURL    string `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"https://nullupload.dev"`
}

// Session настройки подписанного cookie сессии.
type Session struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"SESSION_TTL" env-default:"720h"`
	CookieName   string        `yaml:"cookie_name" env:"SESSION_COOKIE" env-default:"nullupload_session"`
}

// Usage лимиты бесплатного тарифа. StorePath пустой означает
// ~/.nullupload/store.json.
type Usage struct {
	DailyLimit int    `yaml:"daily_limit" env:"USAGE_DAILY_LIMIT" env-default:"5"`
	BatchLimit int    `yaml:"batch_limit" env:"USAGE_BATCH_LIMIT" env-default:"3"`
	Timezone   string `yaml:"timezone" env:"USAGE_TIMEZONE" env-default:"Local"`
	StorePath  string `yaml:"store_path" env:"USAGE_STORE_PATH"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT"`
}

// StatusCache кэш статуса подписки. Пустой Backend отключает кэш.
type StatusCache struct {
	Backend string        `yaml:"backend" env:"STATUS_CACHE_BACKEND"`
	TTL     time.Duration `yaml:"ttl" env:"STATUS_CACHE_TTL" env-default:"1m"`
	Size    int           `yaml:"size" env:"STATUS_CACHE_SIZE" env-default:"1024"`
}

// RateLimit ограничение частоты запросов к API.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"10"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"20"`
}

// CORS разрешённые источники запросов.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

// MustLoad загружает конфиг из файла CONFIG_PATH, а если он не задан,
// только из переменных окружения.
func MustLoad() *Config {
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг по пути configPath. Пустой путь означает чтение
// только из окружения.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := cfg.Usage.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// validate проверяет, что часовой пояс лимитов существует.
func (u Usage) validate() error {
	if u.Timezone == "" || u.Timezone == "Local" {
		return nil
	}
	if _, err := time.LoadLocation(u.Timezone); err != nil {
		return fmt.Errorf("invalid usage timezone %q: %w", u.Timezone, err)
	}
	return nil
}

// Location возвращает часовой пояс для расчёта "сегодня" в лимитах.
// Конфиг из Load уже проверен, time.Local остаётся запасным вариантом
// для Usage, собранного вручную.
func (u Usage) Location() *time.Location {
	if u.Timezone == "" || u.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Stripe:\n"+
			"  SecretKey set: %t\n"+
			"  PriceID: %s\n"+
			"  WebhookSecret set: %t\n"+
			"  FrontendURL: %s\n"+
			"Session:\n"+
			"  JWTSecretKey set: %t\n"+
			"  TokenTTL: %s\n"+
			"Usage:\n"+
			"  DailyLimit: %d\n"+
			"  BatchLimit: %d\n"+
			"StatusCache:\n"+
			"  Backend: %s\n"+
			"  TTL: %s\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.SecretKey != "",
		c.PriceID,
		c.WebhookSecret != "",
		c.FrontendURL,
		c.JWTSecretKey != "",
		c.TokenTTL,
		c.DailyLimit,
		c.BatchLimit,
		c.Backend,
		c.TTL,
	)
}
