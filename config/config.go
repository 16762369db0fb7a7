package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Log         LogConfig         `mapstructure:"log"`
	ContentPack ContentPackConfig `mapstructure:"content"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// Redis backs the shared XP leaderboard. An empty addr disables it.
type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type AuthConfig struct {
	SessionSecret string `mapstructure:"session_secret"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"` // "dev" or "prod"
}

type ContentPackConfig struct {
	Dir string `mapstructure:"dir"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:8081"})
	viper.SetDefault("database.path", "./wisp.db")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("auth.session_secret", "change-this-in-production")
	viper.SetDefault("log.mode", "dev")
	viper.SetDefault("content.dir", "./data")

	viper.SetEnvPrefix("WISP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, use defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
