package pid_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"codeberg.org/mutker/hellobakery/internal/errors"
	"codeberg.org/mutker/hellobakery/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := pid.Acquire(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "hellobakery.pid"))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, lock.Release())
	assert.NoFileExists(t, filepath.Join(dir, "hellobakery.pid"))

	// Second release is a no-op.
	assert.NoError(t, lock.Release())
}

func TestAcquireHeld(t *testing.T) {
	dir := t.TempDir()

	lock, err := pid.Acquire(dir)
	require.NoError(t, err)
	defer lock.Release()

	_, err = pid.Acquire(dir)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, pid.ErrLocked))
}

func TestAcquireTakesOverStaleLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hellobakery.pid")

	// PIDs are bounded well below this on Linux.
	require.NoError(t, os.WriteFile(path, []byte("999999999"), 0o600))

	lock, err := pid.Acquire(dir)
	require.NoError(t, err)
	defer lock.Release()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}

func TestAcquireGarbageLock(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hellobakery.pid"), []byte("not a pid"), 0o600))

	_, err := pid.Acquire(dir)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, pid.ErrStaleHolder))
}

func TestAcquireCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	lock, err := pid.Acquire(dir)
	require.NoError(t, err)
	assert.NoError(t, lock.Release())
	assert.DirExists(t, dir)
}
