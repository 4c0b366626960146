package astrolog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireReturnsSharedChannel(t *testing.T) {
	reg := NewRegistry()
	path := filepath.Join(t.TempDir(), "shared.log")

	first, err := reg.Acquire(path, "App", 0)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Owners())

	second, err := reg.Acquire(path, "App", 0)
	require.NoError(t, err)
	assert.Same(t, first, second, "same path must yield the same channel")
	assert.Equal(t, 2, first.Owners())
	assert.Equal(t, 1, reg.ChannelCount())

	reg.Release(second)
	assert.Equal(t, 1, first.Owners())
	assert.Equal(t, 1, reg.ChannelCount(), "entry stays while owners remain")

	reg.Release(first)
	assert.Equal(t, 0, reg.ChannelCount(), "last release removes the entry")
	assert.Nil(t, reg.Lookup(path))
}

func TestAcquireRejectsRelativePath(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Acquire("relative/file.log", "App", 0)
	assert.Error(t, err)
}

func TestChannelWriteAppendsLine(t *testing.T) {
	reg := NewRegistry()
	path := filepath.Join(t.TempDir(), "write.log")

	channel, err := reg.Acquire(path, "App", 0)
	require.NoError(t, err)
	defer reg.Release(channel)

	assert.True(t, channel.Write("first", 100*time.Millisecond))
	assert.True(t, channel.Write("second\n", 100*time.Millisecond))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestChannelWriteTimeoutSkips(t *testing.T) {
	reg := NewRegistry()
	path := filepath.Join(t.TempDir(), "contended.log")

	channel, err := reg.Acquire(path, "App", 0)
	require.NoError(t, err)
	// Link a second owner so writes go through the timed lock
	_, err = reg.Acquire(path, "App", 0)
	require.NoError(t, err)

	channel.mu.Lock()
	done := make(chan bool, 1)
	go func() {
		done <- channel.Write("blocked", 30*time.Millisecond)
	}()

	select {
	case ok := <-done:
		assert.False(t, ok, "write must be skipped when the lock stays held")
	case <-time.After(time.Second):
		t.Fatal("timed write did not return")
	}
	channel.mu.Unlock()

	// With the lock free the write goes through
	assert.True(t, channel.Write("after", 100*time.Millisecond))
}

func TestMoveRepointsChannel(t *testing.T) {
	reg := NewRegistry()
	tmpDir := t.TempDir()
	oldPath := filepath.Join(tmpDir, "live.log")
	newPath := filepath.Join(tmpDir, "promoted.crash")

	channel, err := reg.Acquire(oldPath, "App", 0)
	require.NoError(t, err)
	require.True(t, channel.Write("before move", 100*time.Millisecond))

	require.True(t, channel.Move(newPath, true))

	assert.Nil(t, reg.Lookup(oldPath), "old path must leave the registry")
	assert.Same(t, channel, reg.Lookup(newPath))
	assert.Equal(t, newPath, channel.Path())
	assert.NoFileExists(t, oldPath, "deletePrevious removes the original")

	require.True(t, channel.Write("after move", 100*time.Millisecond))
	data, err := os.ReadFile(newPath)
	require.NoError(t, err)
	assert.Equal(t, "before move\nafter move\n", string(data))

	reg.Release(channel)
}

func TestMoveKeepsOriginalWhenRequested(t *testing.T) {
	reg := NewRegistry()
	tmpDir := t.TempDir()
	oldPath := filepath.Join(tmpDir, "live.log")
	newPath := filepath.Join(tmpDir, "copy.log")

	channel, err := reg.Acquire(oldPath, "App", 0)
	require.NoError(t, err)
	require.True(t, channel.Write("kept", 100*time.Millisecond))

	require.True(t, channel.Move(newPath, false))

	assert.FileExists(t, oldPath)
	data, err := os.ReadFile(newPath)
	require.NoError(t, err)
	assert.Equal(t, "kept\n", string(data))

	reg.Release(channel)
}

func TestMoveRelativePathFailsIntact(t *testing.T) {
	reg := NewRegistry()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "stay.log")

	channel, err := reg.Acquire(path, "App", 0)
	require.NoError(t, err)

	assert.False(t, channel.Move("relative.crash", true))

	// Channel is fully intact and writable at its original path
	assert.Same(t, channel, reg.Lookup(path))
	assert.Equal(t, path, channel.Path())
	assert.True(t, channel.Write("still alive", 100*time.Millisecond))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "still alive\n", string(data))

	reg.Release(channel)
}

func TestReleaseReopensFreshChannel(t *testing.T) {
	reg := NewRegistry()
	path := filepath.Join(t.TempDir(), "cycle.log")

	first, err := reg.Acquire(path, "App", 0)
	require.NoError(t, err)
	require.True(t, first.Write("one", 100*time.Millisecond))
	reg.Release(first)

	second, err := reg.Acquire(path, "App", 0)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	require.True(t, second.Write("two", 100*time.Millisecond))
	reg.Release(second)

	// Append semantics across the close/reopen cycle
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}
