// Package config resolves ReqWing settings from flags, the config file
// (~/.reqwing/config.yaml), REQWING_* environment variables and defaults.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Defaults
const (
	DefaultServeAddr  = "127.0.0.1:8080"
	DefaultSessionTTL = 2 * time.Hour
	DefaultExportDir  = "."
)

// SetDefaults registers default values with viper.
func SetDefaults() {
	viper.SetDefault("serve.addr", DefaultServeAddr)
	viper.SetDefault("serve.sessionTTL", DefaultSessionTTL)
	viper.SetDefault("export.dir", DefaultExportDir)
	viper.SetDefault("telemetry.enabled", false)
}

// Settings are the non-LLM runtime options.
type Settings struct {
	ServeAddr    string        `validate:"required,hostname_port"`
	SessionTTL   time.Duration `validate:"min=1m"`
	ExportDir    string        `validate:"required"`
	RulesPath    string
	OTLPEndpoint string `validate:"omitempty,hostname_port"`
	Telemetry    bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadSettings reads Settings from viper and validates them.
func LoadSettings() (Settings, error) {
	s := Settings{
		ServeAddr:    viper.GetString("serve.addr"),
		SessionTTL:   viper.GetDuration("serve.sessionTTL"),
		ExportDir:    viper.GetString("export.dir"),
		RulesPath:    RulesPath(),
		OTLPEndpoint: viper.GetString("tracing.endpoint"),
		Telemetry:    viper.GetBool("telemetry.enabled"),
	}
	if s.ServeAddr == "" {
		s.ServeAddr = DefaultServeAddr
	}
	if s.SessionTTL == 0 {
		s.SessionTTL = DefaultSessionTTL
	}
	if s.ExportDir == "" {
		s.ExportDir = DefaultExportDir
	}
	if err := validate.Struct(s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}
