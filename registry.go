package astrolog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Registry owns the two process-wide tables of the pipeline: the file
// channel table (one open channel per absolute path) and the format plan
// cache (one plan per template). It is an explicit, injectable object rather
// than hidden package state, so tests and embedders control its scope; all
// structural mutation happens under its lock.
type Registry struct {
	mu       sync.Mutex
	channels map[string]*FileChannel
	plans    *planCache
	fallback io.Writer // best-effort destination for I/O failure reports
}

// NewRegistry creates an empty registry reporting failures to stderr.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]*FileChannel),
		plans:    newPlanCache(),
		fallback: os.Stderr,
	}
}

// Plan returns the cached rendering plan for template, compiling on first
// use. Concurrent first compiles of the same template yield one cache entry.
func (r *Registry) Plan(template string) *Plan {
	return r.plans.lookup(template)
}

// Acquire links a logical owner to the channel for path, opening the file on
// first request. maxFiles bounds the rotation set of the channel's prefix in
// the target directory; rotation runs before the new file is opened so the
// new file never counts against its own limit.
func (r *Registry) Acquire(path, prefix string, maxFiles int) (*FileChannel, error) {
	if !filepath.IsAbs(path) {
		return nil, fmtErrorf("channel path must be absolute: '%s'", path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if channel, ok := r.channels[path]; ok {
		channel.owners.Add(1)
		return channel, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmtErrorf("failed to create log directory '%s': %w", dir, err)
	}
	EnforceLimit(dir, categoryGeneral, prefix, maxFiles)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmtErrorf("failed to open log file '%s': %w", path, err)
	}

	channel := &FileChannel{reg: r, path: path, prefix: sanitizePrefix(prefix), file: file}
	channel.owners.Store(1)
	r.channels[path] = channel
	return channel, nil
}

// Release unlinks an owner. The last release closes the file and removes the
// registry entry, after which a new Acquire for the path opens a fresh file.
func (r *Registry) Release(channel *FileChannel) {
	if channel == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if channel.owners.Add(-1) > 0 {
		return
	}
	if current, ok := r.channels[channel.path]; ok && current == channel {
		delete(r.channels, channel.path)
	}
	if channel.file != nil {
		_ = channel.file.Sync()
		if err := channel.file.Close(); err != nil {
			r.reportf("failed to close log file '%s': %v", channel.path, err)
		}
		channel.file = nil
	}
}

// Lookup returns the channel registered for path, or nil.
func (r *Registry) Lookup(path string) *FileChannel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channels[path]
}

// ChannelCount reports the number of open channels.
func (r *Registry) ChannelCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

// rekey re-points a channel from its current path to newPath. Called by Move
// with the channel lock held; the map swap happens in one critical section
// so the channel is never registered under two keys. On any failure the
// channel is restored at its old path, open and writable.
func (r *Registry) rekey(channel *FileChannel, newPath string, deletePrevious bool) bool {
	oldPath := channel.path

	if channel.file != nil {
		_ = channel.file.Sync()
		if err := channel.file.Close(); err != nil {
			r.reportf("move: failed to close '%s': %v", oldPath, err)
		}
		channel.file = nil
	}

	var moveErr error
	if deletePrevious {
		moveErr = os.Rename(oldPath, newPath)
	} else {
		moveErr = copyFile(oldPath, newPath)
	}
	if moveErr != nil {
		r.reportf("move: failed to relocate '%s' to '%s': %v", oldPath, newPath, moveErr)
		r.reopen(channel, oldPath)
		return false
	}

	file, err := os.OpenFile(newPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		r.reportf("move: failed to reopen at '%s': %v", newPath, err)
		if deletePrevious {
			// Undo the rename so the channel keeps its original file
			if errBack := os.Rename(newPath, oldPath); errBack != nil {
				r.reportf("move: failed to restore '%s': %v", oldPath, errBack)
			}
		}
		r.reopen(channel, oldPath)
		return false
	}

	r.mu.Lock()
	delete(r.channels, oldPath)
	channel.path = newPath
	channel.file = file
	r.channels[newPath] = channel
	r.mu.Unlock()
	return true
}

// reopen restores a channel's handle at path after a failed move.
func (r *Registry) reopen(channel *FileChannel, path string) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		r.reportf("failed to reopen log file '%s': %v", path, err)
		return
	}
	channel.file = file
}

// reportf writes a failure description to the fallback console. I/O trouble
// in the pipeline degrades to this writer instead of crashing the caller.
func (r *Registry) reportf(format string, args ...any) {
	if r.fallback == nil {
		return
	}
	if !strings.HasPrefix(format, "astrolog: ") {
		format = "astrolog: " + format
	}
	fmt.Fprintf(r.fallback, format+"\n", args...)
}
