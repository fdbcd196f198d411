package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/dataacq/calsync/internal/logger"
	"github.com/dataacq/calsync/internal/rabbit"
	"github.com/dataacq/calsync/internal/storagebuilder"
)

const envConfigPrefix = "$env:"

type Config struct {
	Logger   logger.Config
	Calendar CalendarConfig
	Storage  storagebuilder.Config
	Rabbit   rabbit.Config
}

type CalendarConfig struct {
	ID              string
	TimeMin         string
	TimeMax         string
	PageSize        int64
	CredentialsFile string
}

func NewConfig(configFile string) (Config, error) {
	config := Config{}
	viper.SetConfigFile(configFile)

	viper.SetDefault("logger.level", "INFO")
	viper.SetDefault("calendar.id", "primary")
	viper.SetDefault("calendar.timeMax", "2100-01-01T00:00:00Z")
	viper.SetDefault("calendar.pageSize", "2500")
	viper.SetDefault("calendar.credentialsFile", "calendar-api-service-account.json")
	viper.SetDefault("storage.storageType", "sql")
	viper.SetDefault("storage.database.host", "127.0.0.1")
	viper.SetDefault("storage.database.port", "5432")

	err := viper.ReadInConfig()
	if err != nil {
		return config, fmt.Errorf("failed to read config %q: %w", configFile, err)
	}
	keys := viper.AllKeys()
	for _, key := range keys {
		env := viper.GetString(key)
		if strings.HasPrefix(env, envConfigPrefix) {
			err := viper.BindEnv(key, env[len(envConfigPrefix):])
			if err != nil {
				return Config{}, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return config, nil
}
