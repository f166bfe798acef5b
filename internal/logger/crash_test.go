package logger

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetState(t *testing.T) string {
	t.Helper()
	state = &crashState{}
	dir := t.TempDir()
	SetBasePath(dir)
	t.Cleanup(func() { state = &crashState{} })
	return dir
}

func TestSetLastInput_Truncates(t *testing.T) {
	resetState(t)
	SetLastInput("  " + strings.Repeat("a", 800) + "  ")

	state.mu.RLock()
	defer state.mu.RUnlock()
	assert.True(t, strings.HasSuffix(state.lastInput, "[truncated]"))
	assert.Less(t, len(state.lastInput), 600)
}

func TestWriteCrashReport(t *testing.T) {
	dir := resetState(t)
	SetVersion("0.3.0")
	SetCommand("chat")
	SetProject(42, "clarification")
	SetLastInput("I want a budgeting app")

	path, err := WriteCrashReport(newCrashReport("boom", []byte("goroutine 1 [running]")))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, CrashLogDir), filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	for _, want := range []string{"REQWING CRASH REPORT", "Version:  0.3.0", "Command:  chat", "Project:  42 (clarification)", "Panic: boom", "goroutine 1", "I want a budgeting app"} {
		assert.Contains(t, text, want)
	}
}

func TestWriteCrashReport_PrunesOldLogs(t *testing.T) {
	dir := resetState(t)
	logDir := filepath.Join(dir, CrashLogDir)
	require.NoError(t, os.MkdirAll(logDir, 0o755))
	for i := 0; i < MaxCrashLogs+3; i++ {
		name := fmt.Sprintf("crash_20200101_0000%02d.000.log", i)
		require.NoError(t, os.WriteFile(filepath.Join(logDir, name), []byte("old"), 0o600))
	}

	_, err := WriteCrashReport(CrashReport{Timestamp: time.Now(), PanicValue: "new"})
	require.NoError(t, err)

	logs, err := listCrashLogs(crashDir())
	require.NoError(t, err)
	assert.Len(t, logs, MaxCrashLogs)
	assert.NotContains(t, logs, filepath.Join(logDir, "crash_20200101_000000.000.log"))
}

func TestListCrashLogs_MissingDir(t *testing.T) {
	resetState(t)
	logs, err := listCrashLogs(crashDir())
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn)
	l.Info("hidden")
	l.Warn("shown", "stage", "initial")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "stage=initial")
}

func TestSetup_FileTarget(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	closeFn, err := Setup(dir, slog.LevelInfo)
	require.NoError(t, err)
	slog.Info("hello file")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}
