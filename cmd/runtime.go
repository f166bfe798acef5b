package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/josephgoksu/ReqWing/internal/agents"
	"github.com/josephgoksu/ReqWing/internal/config"
	"github.com/josephgoksu/ReqWing/internal/docload"
	"github.com/josephgoksu/ReqWing/internal/elicit"
	"github.com/josephgoksu/ReqWing/internal/export"
	"github.com/josephgoksu/ReqWing/internal/llm"
	"github.com/josephgoksu/ReqWing/internal/metrics"
	"github.com/josephgoksu/ReqWing/internal/rules"
	"github.com/josephgoksu/ReqWing/internal/telemetry"
	"github.com/spf13/afero"
)

// appRuntime is everything a workflow surface (chat, serve, mcp) needs.
type appRuntime struct {
	Settings config.Settings
	Engine   *elicit.Engine
	Rules    *rules.Store
	Metrics  *metrics.Metrics
	Loader   *docload.Loader
	Exporter *export.Exporter

	shutdownTracing telemetry.ShutdownFunc
}

// newRuntime resolves settings and the LLM config and wires the engine.
func newRuntime(ctx context.Context) (*appRuntime, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}

	llmCfg, err := config.LoadLLMConfig()
	if err != nil {
		return nil, fmt.Errorf("load llm config: %w", err)
	}
	chatModel, err := llm.NewChatModel(ctx, llmCfg)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	slog.Debug("llm configured", "provider", llmCfg.Provider, "model", llmCfg.Model)

	fs := afero.NewOsFs()
	store, err := rules.NewStore(fs, settings.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load business rules: %w", err)
	}
	checker, err := rules.NewChecker(ctx)
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.InitTracing(ctx, "reqwing", version, settings.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	m := metrics.NewMetrics()
	steps, err := agents.NewSteps(ctx, agents.Config{
		ChatModel:     chatModel,
		Rules:         store,
		Checker:       checker,
		StageObserver: m.StageDone,
	})
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("build transformation steps: %w", err)
	}

	loader := docload.NewLoader(fs, docload.DefaultMaxSize)
	engine := elicit.New(steps,
		elicit.WithDocumentReader(loader),
		elicit.WithObserver(m),
		elicit.WithObserver(initTelemetry()),
	)

	return &appRuntime{
		Settings:        settings,
		Engine:          engine,
		Rules:           store,
		Metrics:         m,
		Loader:          loader,
		Exporter:        export.New(fs),
		shutdownTracing: shutdown,
	}, nil
}

// Close flushes traces.
func (r *appRuntime) Close(ctx context.Context) {
	if r.shutdownTracing == nil {
		return
	}
	if err := r.shutdownTracing(ctx); err != nil {
		slog.Warn("tracing shutdown failed", "error", err)
	}
}
