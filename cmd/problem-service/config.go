package main

import (
	"fmt"
	"os"
	"time"

	"probsvc/internal/common/cache"
	"probsvc/internal/common/db"
	"probsvc/internal/common/mq"
	"probsvc/internal/judge"
	"probsvc/internal/userclient"
	"probsvc/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8083"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 120 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	AdminRole string `yaml:"adminRole"`
}

// SolvedConfig holds solved-event routing settings.
type SolvedConfig struct {
	Topic string `yaml:"topic"`
}

// AppConfig holds problem-service configuration.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Logger      logger.Config     `yaml:"logger"`
	Database    db.MySQLConfig    `yaml:"database"`
	Redis       cache.RedisConfig `yaml:"redis"`
	Kafka       mq.KafkaConfig    `yaml:"kafka"`
	Judge       judge.Config      `yaml:"judge"`
	UserService userclient.Config `yaml:"userService"`
	Auth        AuthConfig        `yaml:"auth"`
	Solved      SolvedConfig      `yaml:"solved"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	// Submissions block while the judge polls, so the write timeout must
	// outlast the worst-case polling window.
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = os.Getenv("DATABASE_DSN")
	}
	if cfg.Judge.APIKey == "" {
		cfg.Judge.APIKey = os.Getenv("JUDGE_API_KEY")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.Auth.AdminRole == "" {
		cfg.Auth.AdminRole = "admin"
	}
	if cfg.Solved.Topic == "" {
		cfg.Solved.Topic = "problem.solved"
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	return &cfg, nil
}
