package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/josephgoksu/ReqWing/internal/config"
	"github.com/josephgoksu/ReqWing/internal/logger"
	"github.com/spf13/viper"
)

const envPrefix = "REQWING"

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// A missing .env is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix) // e.g., REQWING_SERVE_ADDR
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := config.GetGlobalConfigDir(); err == nil {
		viper.AddConfigPath(dir)
		viper.AddConfigPath(".reqwing")
		viper.SetConfigName(strings.TrimSuffix(config.ConfigFileName, ".yaml"))
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			LogError("no config file found, using defaults and environment", nil)
		case cfgFile != "" && os.IsNotExist(err):
			fmt.Fprintln(os.Stderr, "Error: Specified config file not found:", cfgFile)
		default:
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	slog.SetDefault(logger.New(os.Stderr, logLevel()))

	if dir, err := config.GetGlobalConfigDir(); err == nil {
		logger.SetBasePath(dir)
	}
}

// logLevel returns the level InitConfig resolved.
func logLevel() slog.Level {
	if viper.GetBool("verbose") {
		return slog.LevelDebug
	}
	return logger.ParseLevel(viper.GetString("log.level"))
}
