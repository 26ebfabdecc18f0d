package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	JWTSecret      string
	ReadLimit      int64
	PongWait       time.Duration
	PingPeriod     time.Duration
	WriteWait      time.Duration
	Redis          RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns the host:port address for the Redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("WS_READ_LIMIT", 65536)
	v.SetDefault("WS_PONG_WAIT", "60s")
	v.SetDefault("WS_WRITE_WAIT", "10s")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	// The .env file is optional; env vars alone are enough.
	_ = v.ReadInConfig()

	pongWait := v.GetDuration("WS_PONG_WAIT")
	if pongWait <= 0 {
		return nil, fmt.Errorf("WS_PONG_WAIT must be positive, got %v", pongWait)
	}

	cfg := &Config{
		Port:           v.GetString("PORT"),
		Environment:    v.GetString("ENVIRONMENT"),
		AllowedOrigins: strings.Split(v.GetString("ALLOWED_ORIGINS"), ","),
		JWTSecret:      v.GetString("JWT_SECRET"),
		ReadLimit:      v.GetInt64("WS_READ_LIMIT"),
		PongWait:       pongWait,
		// Pings must go out before the peer's read deadline expires.
		PingPeriod: pongWait * 9 / 10,
		WriteWait:  v.GetDuration("WS_WRITE_WAIT"),
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
