package astrolog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// FileChannel is one open log file shared by one or more logical loggers.
// The registry guarantees at most one channel per absolute path; the owner
// count tracks linked loggers and the last Release closes the file.
type FileChannel struct {
	reg    *Registry
	mu     sync.Mutex
	path   string
	prefix string
	file   *os.File
	owners atomic.Int32
}

// Path returns the channel's current absolute path.
func (c *FileChannel) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Prefix returns the short prefix identifying the channel's rotated files.
func (c *FileChannel) Prefix() string {
	return c.prefix
}

// Owners reports the number of linked loggers.
func (c *FileChannel) Owners() int {
	return int(c.owners.Load())
}

// Write appends one line to the file. With a single linked owner there can
// be no contention and the write proceeds without the lock; otherwise the
// channel lock is acquired with a bounded wait. A timeout is a skipped
// write, not an error: Write returns false and the caller moves on.
func (c *FileChannel) Write(text string, timeout time.Duration) bool {
	if c.owners.Load() <= 1 {
		return c.writeLine(text)
	}
	if !c.lockTimed(timeout) {
		return false
	}
	defer c.mu.Unlock()
	return c.writeLine(text)
}

// Move atomically re-points the channel to newPath: close, relocate, re-key
// the registry entry, reopen. deletePrevious removes the file from the old
// path (rename) instead of leaving a copy behind. The channel lock is taken
// with an unbounded wait because a move must never be skipped. A relative
// newPath fails without touching the channel.
func (c *FileChannel) Move(newPath string, deletePrevious bool) bool {
	if !filepath.IsAbs(newPath) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.rekey(c, newPath, deletePrevious)
}

// lockTimed acquires the channel lock within timeout, polling in the short
// intervals the rest of the package uses for deadline waits.
func (c *FileChannel) lockTimed(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if c.mu.TryLock() {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		if remaining < minWaitTime {
			time.Sleep(remaining)
		} else {
			time.Sleep(minWaitTime)
		}
	}
}

// writeLine writes text with a terminating newline. The handle is
// unbuffered, so every write reaches the OS immediately.
func (c *FileChannel) writeLine(text string) bool {
	if c.file == nil {
		return false
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := c.file.Write([]byte(text)); err != nil {
		c.reg.reportf("write to '%s' failed: %v", c.path, err)
		return false
	}
	return true
}
