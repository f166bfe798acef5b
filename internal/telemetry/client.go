package telemetry

import (
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/posthog/posthog-go"
)

// Client sends anonymous usage events.
type Client interface {
	Track(event string, properties map[string]any)
	Close() error
}

// Properties is a type alias for event properties.
type Properties = map[string]any

// sink is the part of the PostHog client events are handed to.
type sink interface {
	io.Closer
	Enqueue(msg posthog.Message) error
}

// ClientConfig holds configuration for initializing the telemetry client.
type ClientConfig struct {
	APIKey   string
	Version  string
	Config   *Config
	Endpoint string // self-hosted PostHog
}

// PostHogClient delivers events to PostHog when the user has opted in.
type PostHogClient struct {
	mu         sync.Mutex
	sink       sink // nil once closed
	distinctID string
	base       map[string]any
}

// NewPostHogClient creates a PostHog client. Without an API key, or when the
// consent config is missing or disabled, the returned client drops events.
func NewPostHogClient(cfg ClientConfig) (*PostHogClient, error) {
	if cfg.APIKey == "" || cfg.Config == nil || !cfg.Config.IsEnabled() {
		return &PostHogClient{}, nil
	}

	ph, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{
		Endpoint:  cfg.Endpoint,
		BatchSize: 10,
		Interval:  time.Second,
		Logger:    silentLogger{},
	})
	if err != nil {
		return nil, err
	}
	return newClient(ph, cfg.Config, cfg.Version), nil
}

func newClient(s sink, cfg *Config, version string) *PostHogClient {
	c := &PostHogClient{}
	if cfg == nil || !cfg.IsEnabled() {
		return c
	}
	c.sink = s
	c.distinctID = cfg.AnonymousID
	c.base = map[string]any{
		"os":                      runtime.GOOS,
		"arch":                    runtime.GOARCH,
		"reqwing_version":         version,
		"$process_person_profile": false,
	}
	return c
}

// Track queues an event. Caller properties cannot override the base ones.
func (c *PostHogClient) Track(event string, properties map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sink == nil {
		return
	}

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}
	for k, v := range c.base {
		props.Set(k, v)
	}
	_ = c.sink.Enqueue(posthog.Capture{
		DistinctId: c.distinctID,
		Event:      event,
		Properties: props,
	})
}

// Close flushes pending events. Later calls are no-ops.
func (c *PostHogClient) Close() error {
	c.mu.Lock()
	s := c.sink
	c.sink = nil
	c.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Close()
}

// NoopClient drops every event.
type NoopClient struct{}

func (NoopClient) Track(string, map[string]any) {}
func (NoopClient) Close() error                 { return nil }

type silentLogger struct{}

func (silentLogger) Debugf(string, ...any) {}
func (silentLogger) Logf(string, ...any)   {}
func (silentLogger) Warnf(string, ...any)  {}
func (silentLogger) Errorf(string, ...any) {}
