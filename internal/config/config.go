package config

import (
	"log"

	"gopkg.in/yaml.v3"

	"streaksvc/pkg/config"
)

type SyncConfig struct {
	// Token-bucket rate for the manual refresh endpoint, per client IP.
	RefreshPerMinute int `yaml:"refresh_per_minute"`
	// Default number of leaderboard entries returned.
	LeaderboardLimit int `yaml:"leaderboard_limit"`
}

type Config struct {
	DB     config.DBConfig     `yaml:"db"`
	Redis  config.RedisConfig  `yaml:"redis"`
	MQ     config.MQConfig     `yaml:"mq"`
	JWT    config.JWTConfig    `yaml:"jwt"`
	Server config.ServerConfig `yaml:"server"`
	Log    config.LogConfig    `yaml:"log"`
	Sync   SyncConfig          `yaml:"sync"`
}

func Load() *Config {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var cfg Config
	cfgData, err := yaml.Marshal(cfgMap)
	if err != nil {
		log.Fatalf("failed to marshal config: %v", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	// Environment variables win over file config.
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)

	if cfg.Sync.RefreshPerMinute == 0 {
		cfg.Sync.RefreshPerMinute = 6
	}
	if cfg.Sync.LeaderboardLimit == 0 {
		cfg.Sync.LeaderboardLimit = 10
	}

	return &cfg
}
