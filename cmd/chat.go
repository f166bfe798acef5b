/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/josephgoksu/ReqWing/internal/config"
	"github.com/josephgoksu/ReqWing/internal/logger"
	"github.com/josephgoksu/ReqWing/internal/session"
	"github.com/josephgoksu/ReqWing/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Elicit requirements interactively in the terminal",
	Long: `Start an interactive elicitation session.

Describe your project idea (or attach a document with /file <path>),
answer the clarifying questions, then score each requirement from 1 to 10.
ReqWing validates the list against your business rules and writes a
Software Requirements Specification you can download with 'd'.

Keys:
  tab      toggle the dashboard
  ctrl+r   project history
  ctrl+n   start a new project
  ctrl+c   quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsInteractive() {
			return errors.New("chat needs an interactive terminal; use 'reqwing serve' or 'reqwing mcp' instead")
		}
		return runChat(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("export-dir", config.DefaultExportDir, "directory requirements.md is written to")
	chatCmd.Flags().Duration("step-timeout", ui.DefaultStepTimeout, "timeout for each language model step")
	_ = viper.BindPFlag("export.dir", chatCmd.Flags().Lookup("export-dir"))
	_ = viper.BindPFlag("chat.stepTimeout", chatCmd.Flags().Lookup("step-timeout"))
}

func runChat(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// The TUI owns the terminal, so logs go to a file.
	if dir, err := config.GetGlobalConfigDir(); err == nil {
		closeLog, err := logger.Setup(filepath.Join(dir, "logs"), logLevel())
		if err != nil {
			return err
		}
		defer func() { _ = closeLog() }()
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	if err := rt.Rules.Watch(ctx); err != nil {
		LogError("rules watch disabled", err)
	}

	model := ui.NewChatModel(ctx, ui.ChatDeps{
		Engine:      rt.Engine,
		Session:     session.New(),
		Loader:      rt.Loader,
		Exporter:    rt.Exporter,
		ExportDir:   rt.Settings.ExportDir,
		StepTimeout: viper.GetDuration("chat.stepTimeout"),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat UI: %w", err)
	}
	return nil
}
