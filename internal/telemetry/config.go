// Package telemetry provides opt-in anonymous usage analytics and
// OpenTelemetry tracing for ReqWing.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ConfigFileName is the telemetry state file inside the ReqWing config dir.
const ConfigFileName = "telemetry.json"

// Config is the persisted telemetry preference.
type Config struct {
	Enabled      bool   `json:"enabled"`
	ConsentAsked bool   `json:"consent_asked"`
	AnonymousID  string `json:"anonymous_id"`
}

// Store reads and writes Config under a directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates a store rooted at dir (usually ~/.reqwing).
func NewStore(fsys afero.Fs, dir string) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Store{fs: fsys, dir: dir}
}

// Path returns the telemetry file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, ConfigFileName)
}

// Load reads the config. A missing file yields a disabled config with a
// fresh anonymous id.
func (s *Store) Load() (*Config, error) {
	cfg := &Config{}
	data, err := afero.ReadFile(s.fs, s.Path())
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read telemetry config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse telemetry config: %w", err)
		}
	}
	if cfg.AnonymousID == "" {
		cfg.AnonymousID = uuid.NewString()
	}
	return cfg, nil
}

// Save writes the config with owner-only permissions.
func (s *Store) Save(cfg *Config) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal telemetry config: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.Path(), data, 0o600); err != nil {
		return fmt.Errorf("write telemetry config: %w", err)
	}
	return nil
}

// Enable turns on telemetry and records that the user chose.
func (c *Config) Enable() {
	c.Enabled = true
	c.ConsentAsked = true
}

// Disable turns off telemetry and records that the user chose.
func (c *Config) Disable() {
	c.Enabled = false
	c.ConsentAsked = true
}

func (c *Config) NeedsConsent() bool { return !c.ConsentAsked }
func (c *Config) IsEnabled() bool    { return c.Enabled }
