package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ConfigFileName is the global config file inside the config dir.
const ConfigFileName = "config.yaml"

// GetGlobalConfigDir returns ~/.reqwing. It's a variable to allow
// overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".reqwing"), nil
}

// RulesPath returns the business rules file, or "" for the built-in rules.
// Resolution order: rules.path, then .reqwing/rules.yaml in the working
// directory, then ~/.reqwing/rules.yaml.
func RulesPath() string {
	if p := viper.GetString("rules.path"); p != "" {
		return p
	}
	local := filepath.Join(".reqwing", "rules.yaml")
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local
	}
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return ""
	}
	global := filepath.Join(dir, "rules.yaml")
	if info, err := os.Stat(global); err == nil && !info.IsDir() {
		return global
	}
	return ""
}
