/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/josephgoksu/ReqWing/internal/dashboard"
	"github.com/josephgoksu/ReqWing/internal/server"
	"github.com/josephgoksu/ReqWing/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	dashboardServer  string
	dashboardSession string
	dashboardJSON    bool
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show project statistics",
	Long: `Show the dashboard: project and requirement counts, the average number
of requirements per project, the priority histogram and recent projects.

Without --server the built-in demo projects are shown. With --server and
--session the statistics of a live 'reqwing serve' session are fetched.`,
	Example: `  reqwing dashboard
  reqwing dashboard --json
  reqwing dashboard --server http://127.0.0.1:8080 --session 6f1c...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := loadDashboard(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if dashboardJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}
		width := terminalWidth()
		title := "Demo projects"
		if dashboardServer != "" {
			title = "Session " + dashboardSession
		}
		panel := ui.NewPanel(title, ui.RenderDashboard(stats, width-4)).WithWidth(width - 2)
		fmt.Fprintln(out, panel.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().StringVar(&dashboardServer, "server", "", "base URL of a running 'reqwing serve'")
	dashboardCmd.Flags().StringVar(&dashboardSession, "session", "", "session id to read from --server")
	dashboardCmd.Flags().BoolVar(&dashboardJSON, "json", false, "print JSON instead of the rendered dashboard")
}

func loadDashboard(ctx context.Context) (dashboard.Stats, error) {
	if dashboardServer == "" {
		return dashboard.Compute(dashboard.DemoRecords()), nil
	}
	if dashboardSession == "" {
		return dashboard.Stats{}, fmt.Errorf("--session is required with --server")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return fetchDashboard(ctx, http.DefaultClient, dashboardServer, dashboardSession)
}

func fetchDashboard(ctx context.Context, client *http.Client, baseURL, sessionID string) (dashboard.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := strings.TrimRight(baseURL, "/") + "/api/dashboard"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dashboard.Stats{}, err
	}
	req.Header.Set(server.SessionHeader, sessionID)

	resp, err := client.Do(req)
	if err != nil {
		return dashboard.Stats{}, fmt.Errorf("fetch dashboard: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return dashboard.Stats{}, fmt.Errorf("fetch dashboard: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var stats dashboard.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return dashboard.Stats{}, fmt.Errorf("decode dashboard: %w", err)
	}
	return stats, nil
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
