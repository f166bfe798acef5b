// Package logger configures structured logging and records crash reports
// for ReqWing.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	// CrashLogDir is the crash report directory under the base path.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is how many crash reports are kept.
	MaxCrashLogs = 10

	maxInputLen = 500
)

type crashState struct {
	mu        sync.RWMutex
	basePath  string
	version   string
	command   string
	projectID int64
	stage     string
	lastInput string
}

var state = &crashState{}

// SetBasePath sets the directory crash reports are written under (~/.reqwing).
func SetBasePath(path string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.basePath = path
}

func SetVersion(version string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.version = version
}

func SetCommand(cmd string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.command = cmd
}

// SetProject records the active project and its stage.
func SetProject(id int64, stage string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.projectID = id
	state.stage = stage
}

// SetLastInput records the last user input, truncated.
func SetLastInput(input string) {
	input = strings.TrimSpace(input)
	if len(input) > maxInputLen {
		input = input[:maxInputLen] + "... [truncated]"
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	state.lastInput = input
}

// CrashReport is one recovered panic.
type CrashReport struct {
	Timestamp  time.Time
	Version    string
	Command    string
	ProjectID  int64
	Stage      string
	LastInput  string
	PanicValue string
	StackTrace string
}

// HandlePanic recovers a panic, writes a crash report and exits.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}
	report := newCrashReport(r, debug.Stack())
	path, err := WriteCrashReport(report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n[CRASH] could not write crash report: %v\n", err)
		fmt.Fprintf(os.Stderr, "[CRASH] panic: %v\n%s\n", r, report.StackTrace)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\nReqWing hit an unexpected error and had to stop.\n")
	fmt.Fprintf(os.Stderr, "Crash report: %s\n", path)
	fmt.Fprintf(os.Stderr, "Please attach it when reporting at https://github.com/josephgoksu/ReqWing/issues\n\n")
	os.Exit(1)
}

func newCrashReport(panicValue any, stack []byte) CrashReport {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return CrashReport{
		Timestamp:  time.Now(),
		Version:    state.version,
		Command:    state.command,
		ProjectID:  state.projectID,
		Stage:      state.stage,
		LastInput:  state.lastInput,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(stack),
	}
}

// WriteCrashReport stores a report and prunes old ones. Returns its path.
func WriteCrashReport(report CrashReport) (string, error) {
	dir := crashDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("crash_%s.log", report.Timestamp.Format("20060102_150405.000")))
	if err := os.WriteFile(path, []byte(report.Format()), 0o600); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}
	if err := pruneCrashLogs(dir, MaxCrashLogs); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] prune crash logs: %v\n", err)
	}
	return path, nil
}

// Format renders the report as plain text.
func (r CrashReport) Format() string {
	rule := strings.Repeat("-", 72)
	var sb strings.Builder
	sb.WriteString("REQWING CRASH REPORT\n" + rule + "\n")
	fmt.Fprintf(&sb, "Time:     %s\n", r.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Version:  %s\n", r.Version)
	fmt.Fprintf(&sb, "Command:  %s\n", r.Command)
	fmt.Fprintf(&sb, "Runtime:  %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if r.ProjectID != 0 {
		fmt.Fprintf(&sb, "Project:  %d (%s)\n", r.ProjectID, r.Stage)
	}
	fmt.Fprintf(&sb, "\nPanic: %s\n\n%s\n", r.PanicValue, rule)
	sb.WriteString(r.StackTrace)
	if r.LastInput != "" {
		fmt.Fprintf(&sb, "\n%s\nLast input:\n%s\n", rule, r.LastInput)
	}
	return sb.String()
}

func crashDir() string {
	state.mu.RLock()
	base := state.basePath
	state.mu.RUnlock()
	if base == "" {
		base = ".reqwing"
	}
	return filepath.Join(base, CrashLogDir)
}

// listCrashLogs returns crash report paths in dir, oldest first.
func listCrashLogs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var logs []string
	for _, e := range entries {
		if isCrashLog(e) {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(logs)
	return logs, nil
}

func pruneCrashLogs(dir string, keep int) error {
	logs, err := listCrashLogs(dir)
	if err != nil {
		return err
	}
	for len(logs) > keep {
		if err := os.Remove(logs[0]); err != nil {
			return err
		}
		logs = logs[1:]
	}
	return nil
}

func isCrashLog(e os.DirEntry) bool {
	return !e.IsDir() && strings.HasPrefix(e.Name(), "crash_") && strings.HasSuffix(e.Name(), ".log")
}
