// Package config содержит логику чтения конфигурации сервиса wakeup-challenge.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса wakeup-challenge.
type Config struct {
	RunAddress      string `env:"RUN_ADDRESS"`
	DatabaseURI     string `env:"DATABASE_URI"`
	JudgementTime   string `env:"JUDGEMENT_TIME"`
	MinPrice        int    `env:"MIN_PRICE"`
	MaxPrice        int    `env:"MAX_PRICE"`
	TimeZone        string `env:"TIME_ZONE"`
	AppName         string `env:"APP_NAME"`
	APISecret       string `env:"API_SECRET"`
	InternalSecret  string `env:"INTERNAL_SECRET"`
	NotifierAddress string `env:"NOTIFIER_ADDRESS"`
	DomainName      string `env:"DOMAIN_NAME"`

	judgementOffset time.Duration
	location        *time.Location
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envJudgementTime := cfg.JudgementTime
	envMinPrice := cfg.MinPrice
	envMaxPrice := cfg.MaxPrice
	envTimeZone := cfg.TimeZone
	envAppName := cfg.AppName
	envAPISecret := cfg.APISecret
	envInternalSecret := cfg.InternalSecret
	envNotifierAddress := cfg.NotifierAddress
	envDomainName := cfg.DomainName

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.JudgementTime, "j", "06:00", "daily judgement time of day (HH:MM)")
	flag.IntVar(&cfg.MinPrice, "min", 5, "minimum daily price")
	flag.IntVar(&cfg.MaxPrice, "max", 25, "maximum daily price")
	flag.StringVar(&cfg.TimeZone, "tz", "UTC", "reference timezone for day boundaries")
	flag.StringVar(&cfg.AppName, "n", "wakeup", "parameter namespace")
	flag.StringVar(&cfg.APISecret, "s", "", "shared secret for the public API")
	flag.StringVar(&cfg.InternalSecret, "i", "", "shared secret for the internal trigger")
	flag.StringVar(&cfg.NotifierAddress, "w", "", "notification webhook address")
	flag.StringVar(&cfg.DomainName, "dom", "localhost", "public domain shown in notifications")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envJudgementTime != "" {
		cfg.JudgementTime = envJudgementTime
	}
	if envMinPrice != 0 {
		cfg.MinPrice = envMinPrice
	}
	if envMaxPrice != 0 {
		cfg.MaxPrice = envMaxPrice
	}
	if envTimeZone != "" {
		cfg.TimeZone = envTimeZone
	}
	if envAppName != "" {
		cfg.AppName = envAppName
	}
	if envAPISecret != "" {
		cfg.APISecret = envAPISecret
	}
	if envInternalSecret != "" {
		cfg.InternalSecret = envInternalSecret
	}
	if envNotifierAddress != "" {
		cfg.NotifierAddress = envNotifierAddress
	}
	if envDomainName != "" {
		cfg.DomainName = envDomainName
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	t, err := time.Parse("15:04", c.JudgementTime)
	if err != nil {
		return fmt.Errorf("invalid judgement time %q: %w", c.JudgementTime, err)
	}
	c.judgementOffset = time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.TimeZone, err)
	}
	c.location = loc

	if c.MinPrice <= 0 || c.MaxPrice < c.MinPrice {
		return fmt.Errorf("invalid price range [%d, %d]", c.MinPrice, c.MaxPrice)
	}

	if c.APISecret == "" {
		return fmt.Errorf("api secret is required")
	}
	if c.InternalSecret == "" {
		return fmt.Errorf("internal secret is required")
	}

	return nil
}

// JudgementOffset возвращает судное время как смещение от начала дня.
func (c *Config) JudgementOffset() time.Duration {
	return c.judgementOffset
}

// Location возвращает опорную временную зону для границ календарного дня.
func (c *Config) Location() *time.Location {
	return c.location
}
