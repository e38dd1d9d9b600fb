package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"fileshare-service/internal/blobstore"
	"fileshare-service/pkg/database/postgres"
	"fileshare-service/pkg/database/redis"
)

type Config struct {
	HTTPPort  string `env:"HTTP_PORT" env-default:"8080"`
	JWTSecret string `env:"JWT_TOKEN"`
	// BaseURL is the frontend origin used for CORS and share URLs.
	BaseURL  string `env:"BASE_URL" env-default:"http://localhost:3000"`
	Postgres postgres.Config
	Redis    redis.Config
	MinIO    blobstore.Config
}

// Load reads ./.env when present, otherwise plain environment variables.
func Load() (*Config, error) {
	var cfg Config
	if _, err := os.Stat(".env"); err == nil {
		if err := cleanenv.ReadConfig(".env", &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
