/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/josephgoksu/ReqWing/internal/server"
	"github.com/josephgoksu/ReqWing/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the elicitation workflow over HTTP",
	Long: `Start the HTTP JSON API.

Clients create a session with POST /api/session and send the returned id
in the X-Session-ID header on every other request. Each session has its
own project history; nothing is shared between sessions and nothing is
written to disk. Prometheus metrics are served at /metrics.`,
	Example: `  reqwing serve
  reqwing serve --addr 0.0.0.0:9000 --origin http://localhost:5173`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8080)")
	serveCmd.Flags().StringSlice("origin", nil, "allowed CORS origin (repeatable)")
	serveCmd.Flags().Duration("session-ttl", 0, "drop sessions idle for this long (default 2h)")
	_ = viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("serve.origins", serveCmd.Flags().Lookup("origin"))
	_ = viper.BindPFlag("serve.sessionTTL", serveCmd.Flags().Lookup("session-ttl"))
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	if err := rt.Rules.Watch(ctx); err != nil {
		slog.Warn("rules watch disabled", "error", err)
	}

	sessions := session.NewManager(rt.Settings.SessionTTL)
	srv := server.New(server.Config{
		Addr:     rt.Settings.ServeAddr,
		Engine:   rt.Engine,
		Sessions: sessions,
		Metrics:  rt.Metrics,
		Origins:  viper.GetStringSlice("serve.origins"),
	})

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	srv.Start(&wg, errChan)
	go srv.PruneSessions(ctx, pruneInterval(rt.Settings.SessionTTL))

	fmt.Fprintf(os.Stderr, "ReqWing API listening on http://%s\n", rt.Settings.ServeAddr)

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case runErr = <-errChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	wg.Wait()
	return runErr
}

func pruneInterval(ttl time.Duration) time.Duration {
	if iv := ttl / 4; iv > time.Minute {
		return iv
	}
	return time.Minute
}
