package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	RateLimit struct {
		Requests int           `mapstructure:"requests"`
		Window   time.Duration `mapstructure:"window"`
	} `mapstructure:"rate_limit"`
}

// LoadConfig reads path/.env and path/config.yaml when present, then applies
// environment overrides. Missing files are not an error.
func LoadConfig(path string) (cfg Config, err error) {
	if path == "" {
		path = "."
	}

	if err = godotenv.Load(strings.TrimSuffix(path, "/") + "/.env"); err != nil {
		log.Println("warning: .env file not found, use environment only.")
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, use defaults and environment. Error: %v", err)
	}

	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("kafka.group_id", "profile-audit-group")
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")

	if err = v.Unmarshal(&cfg); err != nil {
		return
	}

	if cfg.RateLimit.Requests <= 0 {
		return cfg, fmt.Errorf("rate_limit.requests must be positive, got %d", cfg.RateLimit.Requests)
	}
	if cfg.RateLimit.Window <= 0 {
		return cfg, fmt.Errorf("rate_limit.window must be positive, got %s", cfg.RateLimit.Window)
	}
	return cfg, nil
}
