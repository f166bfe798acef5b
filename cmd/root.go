/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/josephgoksu/ReqWing/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// version is the application version, set at build time with -ldflags.
	version = "0.1.0"
)

// GetVersion returns the application version.
func GetVersion() string { return version }

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reqwing",
	Short: "ReqWing - AI-assisted requirements elicitation",
	Long: `ReqWing turns a rough project idea into a prioritized Software
Requirements Specification.

Describe your idea (or attach a document), answer a few clarifying
questions, score each requirement from 1 to 10, and ReqWing validates the
list against your business rules and writes the final document.

Get started:
  reqwing chat       Interactive elicitation in the terminal
  reqwing serve      HTTP API for web clients
  reqwing mcp        MCP server for AI assistants`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVersion(version)
		logger.SetCommand(cmd.CommandPath())
		commandStart = time.Now()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		trackCommand(cmd, time.Since(commandStart), nil)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var commandStart time.Time

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer closeTelemetry()
	if err := rootCmd.Execute(); err != nil {
		trackCommand(rootCmd, time.Since(commandStart), err)
		closeTelemetry()
		HandleFatalError(friendlyError(err), err)
	}
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.reqwing/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ReqWing version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reqwing %s\n", version)
	},
}
