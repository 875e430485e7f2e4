package bootstrap

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort         string  `mapstructure:"SERVER_PORT"`
	RedisUrl           string  `mapstructure:"REDIS_URL"`
	MongoUri           string  `mapstructure:"MONGO_URI"`
	MongoDatabase      string  `mapstructure:"MONGO_DATABASE"`
	IsLocalCors        bool    `mapstructure:"LOCAL_CORS"`
	UseMemoryStorage   bool    `mapstructure:"MEMORY_STORAGE"`
	SnapshotTTLSeconds int     `mapstructure:"SCORING_SNAPSHOT_TTL"`
	DefaultKomi        float64 `mapstructure:"DEFAULT_KOMI"`
	MaxBoardSize       int     `mapstructure:"MAX_BOARD_SIZE"`
	ConnectAttempts    uint    `mapstructure:"CONNECT_ATTEMPTS"`
}

func (c Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "goscore")
	v.SetDefault("SCORING_SNAPSHOT_TTL", 600)
	v.SetDefault("DEFAULT_KOMI", 6.5)
	v.SetDefault("MAX_BOARD_SIZE", 35)
	v.SetDefault("CONNECT_ATTEMPTS", 5)
}

// Setup reads the config file at cfgPath. Environment variables override the file and
// a missing file leaves the defaults in place.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(cfgPath)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	// AutomaticEnv only answers Get calls, so every key is bound before Unmarshal.
	for _, key := range []string{
		"SERVER_PORT", "REDIS_URL", "MONGO_URI", "MONGO_DATABASE", "LOCAL_CORS", "MEMORY_STORAGE",
		"SCORING_SNAPSHOT_TTL", "DEFAULT_KOMI", "MAX_BOARD_SIZE", "CONNECT_ATTEMPTS",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Attempts is the number of connection attempts at startup. Zero would make retry-go
// retry forever, so it is raised to one.
func (c Config) Attempts() uint {
	if c.ConnectAttempts == 0 {
		return 1
	}
	return c.ConnectAttempts
}
