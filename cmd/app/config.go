package main

import (
	"fmt"
	"strings"

	"github.com/yzeman/yzemanbot-mini-app/internal/repository"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`

	Telegram TelegramConfig `yaml:"telegram"`
	Rewards  RewardsConfig  `yaml:"rewards"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"botToken"`
	BotUsername string `yaml:"botUsername"`
	AdminChatID int64  `yaml:"adminChatID"`
	WebAppURL   string `yaml:"webAppURL"`
	Debug       bool   `yaml:"debug"`
}

type RewardsConfig struct {
	// JoinBonusPoints is credited to the referred user when their referral is
	// recorded. Zero disables the join bonus.
	JoinBonusPoints int64 `yaml:"joinBonusPoints"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
