// Package lock implements the single-primary election lock used to decide
// which server process is PRIMARY (owns the store) and which are PROXY
// (forward to the primary), grounded on
// _examples/original_source/src/nudge/lock.py.
package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"time"
)

// Info is the JSON record written to the PID file.
type Info struct {
	PID     int    `json:"pid"`
	Port    int    `json:"port"`
	Started string `json:"started"`
}

// Error reports a lock-related failure.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// PIDFilePath returns the platform-specific location of the server's PID
// file, creating its parent directory if necessary.
func PIDFilePath() (string, error) {
	var dir string
	if runtime.GOOS == "windows" {
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = os.TempDir()
		}
		dir = filepath.Join(base, "nudge")
	} else {
		dir = filepath.Join(os.TempDir(), "nudge")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "server.pid"), nil
}

// ServerLock manages the single-instance PID file.
type ServerLock struct {
	pidFile string
}

// New builds a ServerLock rooted at the platform's PID file location.
func New() (*ServerLock, error) {
	path, err := PIDFilePath()
	if err != nil {
		return nil, err
	}
	return &ServerLock{pidFile: path}, nil
}

// CheckRunning reports whether another server is already running and, if
// so, the port it is listening on. A stale PID file (process no longer
// alive) is cleaned up as a side effect.
func (l *ServerLock) CheckRunning() (running bool, port int) {
	if _, err := os.Stat(l.pidFile); err != nil {
		return false, 0
	}

	pid, ok := l.readPID()
	if ok && isProcessRunning(pid) {
		return true, l.readPort()
	}

	l.cleanup()
	return false, 0
}

// TryAcquire attempts to claim the lock for the given port. If another
// server already holds it, acquired is false and existingPort names its
// port.
func (l *ServerLock) TryAcquire(port int) (acquired bool, existingPort int) {
	running, existing := l.CheckRunning()
	if running {
		return false, existing
	}

	info := Info{PID: os.Getpid(), Port: port, Started: time.Now().UTC().Format(time.RFC3339)}
	data, err := json.Marshal(info)
	if err != nil {
		return false, 0
	}
	if err := os.WriteFile(l.pidFile, data, 0o644); err != nil {
		return false, 0
	}
	return true, 0
}

// Acquire claims the lock or returns an *Error naming the PID already
// holding it.
func (l *ServerLock) Acquire(port int) error {
	acquired, _ := l.TryAcquire(port)
	if acquired {
		return nil
	}
	pid, _ := l.readPID()
	return newError("nudge server already running (PID: %d)", pid)
}

// Release removes the PID file.
func (l *ServerLock) Release() {
	l.cleanup()
}

// GetRunningPID returns the PID of the currently running server, or 0 if
// none is alive.
func (l *ServerLock) GetRunningPID() int {
	if _, err := os.Stat(l.pidFile); err != nil {
		return 0
	}
	pid, ok := l.readPID()
	if ok && isProcessRunning(pid) {
		return pid
	}
	return 0
}

// StopServer sends SIGTERM to the running server, escalating to SIGKILL if
// it has not exited within 500ms. Returns false if no server was running.
func (l *ServerLock) StopServer() (bool, error) {
	pid := l.GetRunningPID()
	if pid == 0 {
		return false, nil
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false, newError("failed to stop server: %v", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return false, newError("failed to stop server: %v", err)
	}

	time.Sleep(500 * time.Millisecond)

	if isProcessRunning(pid) {
		if err := proc.Signal(syscall.SIGKILL); err != nil {
			return false, newError("failed to stop server: %v", err)
		}
	}

	l.cleanup()
	return true, nil
}

func (l *ServerLock) readPID() (int, bool) {
	data, err := os.ReadFile(l.pidFile)
	if err != nil {
		return 0, false
	}

	var info Info
	if err := json.Unmarshal(data, &info); err == nil {
		return info.PID, info.PID != 0
	}

	// Legacy format: a bare integer PID with no JSON wrapper.
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err == nil {
		return pid, true
	}
	return 0, false
}

func (l *ServerLock) readPort() int {
	data, err := os.ReadFile(l.pidFile)
	if err != nil {
		return 0
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return 0
	}
	return info.Port
}

func (l *ServerLock) cleanup() {
	_ = os.Remove(l.pidFile)
}

// isProcessRunning probes pid with signal 0, which does not kill the
// process but fails if it does not exist or is not owned by us. This works
// on POSIX; on Windows, os.FindProcess always succeeds and Signal(0) is
// unsupported, so we fall back to treating the process as alive whenever
// FindProcess succeeds -- a documented approximation of the original's
// OpenProcess-based check.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}
