package lock

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLock(t *testing.T) *ServerLock {
	t.Helper()
	return &ServerLock{pidFile: filepath.Join(t.TempDir(), "server.pid")}
}

func TestTryAcquire_SucceedsWhenNoneRunning(t *testing.T) {
	l := newTestLock(t)
	acquired, existing := l.TryAcquire(8765)
	assert.True(t, acquired)
	assert.Equal(t, 0, existing)

	data, err := os.ReadFile(l.pidFile)
	require.NoError(t, err)
	var info Info
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, os.Getpid(), info.PID)
	assert.Equal(t, 8765, info.Port)
}

func TestCheckRunning_DetectsStaleFile(t *testing.T) {
	l := newTestLock(t)
	// A PID that's extremely unlikely to be alive.
	stale := Info{PID: 999999, Port: 8765, Started: "2020-01-01T00:00:00Z"}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(l.pidFile, data, 0o644))

	running, _ := l.CheckRunning()
	assert.False(t, running)

	_, err = os.Stat(l.pidFile)
	assert.True(t, os.IsNotExist(err))
}

func TestCheckRunning_DetectsLiveProcess(t *testing.T) {
	l := newTestLock(t)
	info := Info{PID: os.Getpid(), Port: 9001, Started: "2026-01-01T00:00:00Z"}
	data, err := json.Marshal(info)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(l.pidFile, data, 0o644))

	running, port := l.CheckRunning()
	assert.True(t, running)
	assert.Equal(t, 9001, port)
}

func TestReadPID_LegacyBareIntegerFormat(t *testing.T) {
	l := newTestLock(t)
	require.NoError(t, os.WriteFile(l.pidFile, []byte("12345"), 0o644))

	pid, ok := l.readPID()
	assert.True(t, ok)
	assert.Equal(t, 12345, pid)
}

func TestRelease_RemovesFile(t *testing.T) {
	l := newTestLock(t)
	_, _ = l.TryAcquire(8765)
	l.Release()

	_, err := os.Stat(l.pidFile)
	assert.True(t, os.IsNotExist(err))
}

func TestGetRunningPID_NoFile(t *testing.T) {
	l := newTestLock(t)
	assert.Equal(t, 0, l.GetRunningPID())
}
