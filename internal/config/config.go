package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort               string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL            string `env:"DATABASE_URL"`
	RedisAddr              string `env:"REDIS_ADDR"`
	RedisPassword          string `env:"REDIS_PASSWORD"`
	RedisDB                int    `env:"REDIS_DB" envDefault:"0"`
	CatalogDir             string `env:"CATALOG_DIR"`
	DefaultCatalog         string `env:"DEFAULT_CATALOG" envDefault:"archetype"`
	RunTokenSecret         string `env:"RUN_TOKEN_SECRET"`
	RunTokenTTLMinutes     int    `env:"RUN_TOKEN_TTL_MINUTES" envDefault:"240"`
	SnapshotTTLMinutes     int    `env:"SNAPSHOT_TTL_MINUTES" envDefault:"1440"`
	StartRateLimit         int    `env:"START_RATE_LIMIT" envDefault:"20"`
	StartRateWindowSeconds int    `env:"START_RATE_WINDOW_SECONDS" envDefault:"600"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ErrMissingRunTokenSecret indica que no se pueden emitir tokens de corrida.
var ErrMissingRunTokenSecret = errors.New("RUN_TOKEN_SECRET is required")

// Validate revisa lo que el servidor HTTP necesita para arrancar.
func (c *Config) Validate() error {
	if c.RunTokenSecret == "" {
		return ErrMissingRunTokenSecret
	}
	return nil
}

func (c *Config) RunTokenTTL() time.Duration {
	return time.Duration(c.RunTokenTTLMinutes) * time.Minute
}

func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLMinutes) * time.Minute
}

func (c *Config) StartRateWindow() time.Duration {
	return time.Duration(c.StartRateWindowSeconds) * time.Second
}
