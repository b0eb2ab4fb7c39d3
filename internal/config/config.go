package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/hirestack/interview-relay/internal/transcribe"
)

type Config struct {
	Mode       string            `mapstructure:"mode"`
	Port       int               `mapstructure:"port"`
	StaticPath string            `mapstructure:"static_path"`
	ReadLimit  int64             `mapstructure:"read_limit"`
	PingPeriod time.Duration     `mapstructure:"ping_period"`
	SendBuffer int               `mapstructure:"send_buffer"`
	Transcribe transcribe.Config `mapstructure:"transcribe"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "30s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("transcribe.url", "")
	v.SetDefault("transcribe.api_key", "")
	v.SetDefault("transcribe.sample_rate", 16000)
	v.SetDefault("transcribe.channels", 1)
	v.SetDefault("transcribe.language", "en-US")
	v.SetDefault("transcribe.interim_results", true)
	v.SetDefault("transcribe.finish_timeout", "3s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
