package rules

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// Store holds the active business rules and reloads them from an override
// file when one is configured.
type Store struct {
	mu    sync.RWMutex
	rules *BusinessRules
	fs    afero.Fs
	path  string
}

// NewStore creates a store. With an empty path the built-in rules are used.
func NewStore(fs afero.Fs, path string) (*Store, error) {
	s := &Store{fs: fs, path: path, rules: Default()}
	if path == "" {
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the active rules.
func (s *Store) Current() *BusinessRules {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

// Path returns the override file path, or "".
func (s *Store) Path() string { return s.path }

// Reload re-reads the override file. On error the previous rules stay active.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	r, err := Load(s.fs, s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.rules = r
	s.mu.Unlock()
	slog.Info("business rules loaded", "path", s.path, "product", r.ProductVision.Name)
	return nil
}

// Watch reloads the override file whenever it changes until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch rules directory: %w", err)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		target := filepath.Clean(s.path)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.Reload(); err != nil {
					slog.Warn("business rules reload failed, keeping previous rules", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("rules watch error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
