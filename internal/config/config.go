package config

import (
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Host string
	Port string
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	// Token общий секрет для POST /generate. Пустое значение означает,
	// что создание ссылок отключено (всегда 401).
	Token string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// .env опционален: в продакшене конфигурация приходит из окружения
	if err := viper.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	var cfg Config
	cfg.App.Host = viper.GetString("HOST")
	if cfg.App.Host == "" {
		cfg.App.Host = "127.0.0.1"
	}
	cfg.App.Port = viper.GetString("PORT")
	if cfg.App.Port == "" {
		cfg.App.Port = "3000"
	}

	cfg.Redis.URL = viper.GetString("REDIS_URL")
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://127.0.0.1/"
	}

	// AUTH_TOKEN намеренно без значения по умолчанию
	cfg.Auth.Token = viper.GetString("AUTH_TOKEN")

	// Rate limit config
	cfg.RateLimit.RequestsPerSecond = viper.GetFloat64("RATE_LIMIT_RPS")
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	cfg.RateLimit.BurstSize = viper.GetInt("RATE_LIMIT_BURST")
	if cfg.RateLimit.BurstSize == 0 {
		cfg.RateLimit.BurstSize = 20
	}

	return &cfg, nil
}
