package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"epubtokens/internal/log"
)

const pidFile = "watch.pid"

// PIDPath returns the pid file location next to the settings file.
func PIDPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), pidFile)
}

// Serve starts d and blocks until ctx is done or the process receives
// SIGINT or SIGTERM. The pid file at pidPath exists while it runs.
func Serve(ctx context.Context, d *Daemon, pidPath string) error {
	if pid, ok := RunningPID(pidPath); ok {
		return fmt.Errorf("watch is already running (pid %d)", pid)
	}
	if err := writePid(pidPath); err != nil {
		return err
	}
	defer os.Remove(pidPath)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}
	log.LogWithFields(log.F("directory", d.config.Directories.Source)).Info("Watching for new books. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Info("Stopping watch...")
	d.Stop()
	return nil
}

// RunningPID reports the pid recorded at pidPath if that process is alive.
func RunningPID(pidPath string) (int, bool) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, false
	}
	pid, err := parsePid(string(data))
	if err != nil {
		return 0, false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return 0, false
	}
	return pid, true
}

// StopRunning sends SIGTERM to the watch process recorded at pidPath.
func StopRunning(pidPath string) error {
	pid, ok := RunningPID(pidPath)
	if !ok {
		return fmt.Errorf("watch is not running")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to watch: %w", err)
	}
	log.LogWithFields(log.F("pid", pid)).Info("Watch stopped")
	return nil
}

func writePid(pidPath string) error {
	if err := os.MkdirAll(filepath.Dir(pidPath), 0755); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// parsePid parses a PID from a string
func parsePid(pidStr string) (int, error) {
	pid, err := strconv.Atoi(strings.TrimSpace(pidStr))
	if err != nil {
		return 0, fmt.Errorf("invalid PID format: %w", err)
	}
	return pid, nil
}
