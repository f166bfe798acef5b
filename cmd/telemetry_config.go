/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/josephgoksu/ReqWing/internal/config"
	"github.com/josephgoksu/ReqWing/internal/telemetry"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// posthogAPIKey is injected at release build time with -ldflags.
var posthogAPIKey = ""

var (
	telemetryOnce   sync.Once
	telemetryClient telemetry.Client = telemetry.NoopClient{}
	tracker                          = telemetry.NewTracker(nil)
)

func telemetryStore() (*telemetry.Store, error) {
	dir, err := config.GetGlobalConfigDir()
	if err != nil {
		return nil, err
	}
	return telemetry.NewStore(afero.NewOsFs(), dir), nil
}

// initTelemetry sets up the PostHog client once. Events are only sent when
// the user opted in with 'reqwing telemetry enable' or telemetry.enabled.
func initTelemetry() *telemetry.Tracker {
	telemetryOnce.Do(func() {
		store, err := telemetryStore()
		if err != nil {
			return
		}
		cfg, err := store.Load()
		if err != nil {
			slog.Debug("telemetry config unreadable", "error", err)
			return
		}
		if viper.GetBool("telemetry.enabled") {
			cfg.Enabled = true
		}
		client, err := telemetry.NewPostHogClient(telemetry.ClientConfig{
			APIKey:   posthogAPIKey,
			Version:  version,
			Config:   cfg,
			Endpoint: viper.GetString("telemetry.endpoint"),
		})
		if err != nil {
			slog.Debug("telemetry client init failed", "error", err)
			return
		}
		telemetryClient = client
		tracker = telemetry.NewTracker(client)
	})
	return tracker
}

func trackCommand(cmd *cobra.Command, d time.Duration, err error) {
	if cmd == nil || cmd.Name() == "mcp" {
		return
	}
	initTelemetry().Command(cmd.Name(), d, err)
}

func closeTelemetry() {
	_ = telemetryClient.Close()
}

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Manage anonymous telemetry",
	Long: `View and manage ReqWing's anonymous usage statistics.

Telemetry is off until you enable it. Events only carry command names,
stage names and timings; project text is never sent.`,
}

var telemetryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current telemetry status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := telemetryStore()
		if err != nil {
			return err
		}
		cfg, err := store.Load()
		if err != nil {
			return fmt.Errorf("failed to read telemetry status: %w", err)
		}
		out := cmd.OutOrStdout()
		switch {
		case cfg.NeedsConsent():
			fmt.Fprintln(out, "Telemetry: not configured (off)")
			fmt.Fprintln(out, "   To enable: reqwing telemetry enable")
		case cfg.IsEnabled():
			fmt.Fprintln(out, "Telemetry: enabled")
			fmt.Fprintf(out, "   Anonymous ID: %s\n", cfg.AnonymousID)
			fmt.Fprintln(out, "   To disable: reqwing telemetry disable")
		default:
			fmt.Fprintln(out, "Telemetry: disabled")
			fmt.Fprintln(out, "   To enable: reqwing telemetry enable")
		}
		return nil
	},
}

func setTelemetry(enabled bool) error {
	store, err := telemetryStore()
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	if enabled {
		cfg.Enable()
	} else {
		cfg.Disable()
	}
	return store.Save(cfg)
}

var telemetryEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable anonymous telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setTelemetry(true); err != nil {
			return fmt.Errorf("failed to enable telemetry: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Telemetry enabled. Thank you for helping improve ReqWing!")
		return nil
	},
}

var telemetryDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable anonymous telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setTelemetry(false); err != nil {
			return fmt.Errorf("failed to disable telemetry: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Telemetry disabled.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(telemetryCmd)
	telemetryCmd.AddCommand(telemetryStatusCmd)
	telemetryCmd.AddCommand(telemetryEnableCmd)
	telemetryCmd.AddCommand(telemetryDisableCmd)
}
