package astrolog

import (
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// relayEvent is one notification queued for the external display process.
type relayEvent struct {
	text     string
	severity Severity
}

// ConsoleRelay streams delivered log events to an external console-display
// process over a line-framed pipe. Notifications arrive as messages on an
// internal buffer consumed by the relay's own worker, decoupled from the
// delivery path that raises them.
type ConsoleRelay struct {
	events       chan relayEvent
	exit         atomic.Bool
	workerExited atomic.Bool
	crashMu      sync.Mutex
	drainOnExit  bool
	waitForExit  bool

	pipe     io.WriteCloser
	cmd      *exec.Cmd
	procDone chan struct{} // closed when the external process exits; nil means no process
}

// StartConsoleRelay launches the display process at processPath with the
// write end of an inherited pipe and starts the broadcast worker. The child
// receives three positional arguments: title, waitForKeypress as text, and
// the pipe handle identifier. waitForProcessExit makes the worker block on
// child exit after the end-of-broadcast marker; waitForQueueDrain makes an
// exit request flush the remaining buffer first.
func StartConsoleRelay(title, processPath string, waitForKeypress, waitForProcessExit, waitForQueueDrain bool) (*ConsoleRelay, error) {
	readEnd, writeEnd, err := os.Pipe()
	if err != nil {
		return nil, fmtErrorf("relay: failed to create pipe: %w", err)
	}

	cmd := exec.Command(processPath, title, strconv.FormatBool(waitForKeypress), relayHandleID)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{readEnd}

	if err := cmd.Start(); err != nil {
		readEnd.Close()
		writeEnd.Close()
		return nil, fmtErrorf("relay: failed to start display process '%s': %w", processPath, err)
	}
	// The child holds its own copy of the read end
	readEnd.Close()

	relay := newConsoleRelay(writeEnd, waitForProcessExit, waitForQueueDrain)
	relay.cmd = cmd
	relay.procDone = make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(relay.procDone)
	}()
	go relay.broadcast()
	return relay, nil
}

// newConsoleRelay wires a relay onto an arbitrary pipe without launching or
// monitoring a process. The caller runs broadcast itself.
func newConsoleRelay(pipe io.WriteCloser, waitForExit, drainOnExit bool) *ConsoleRelay {
	return &ConsoleRelay{
		events:      make(chan relayEvent, relayBufferSize),
		pipe:        pipe,
		waitForExit: waitForExit,
		drainOnExit: drainOnExit,
	}
}

// Delivered queues one delivered-message notification. A full buffer drops
// the notification rather than blocking the delivery path.
func (c *ConsoleRelay) Delivered(text string, severity Severity) {
	if c.exit.Load() {
		return
	}
	select {
	case c.events <- relayEvent{text: text, severity: severity}:
	default:
	}
}

// Crash replaces everything still buffered with the single crash message at
// CriticalError severity and requests exit, so no stale post-crash noise
// reaches the display.
func (c *ConsoleRelay) Crash(text string) {
	c.crashMu.Lock()
	defer c.crashMu.Unlock()

	for {
		select {
		case <-c.events:
			continue
		default:
		}
		break
	}
	select {
	case c.events <- relayEvent{text: text, severity: SeverityCriticalError}:
	default:
	}
	c.exit.Store(true)
}

// Stop requests a cooperative exit of the broadcast loop.
func (c *ConsoleRelay) Stop() {
	c.exit.Store(true)
}

// Join blocks until the broadcast worker has exited or the timeout elapses.
func (c *ConsoleRelay) Join(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.workerExited.Load() {
			return true
		}
		time.Sleep(minWaitTime)
	}
	return c.workerExited.Load()
}

// broadcast is the frame-writing loop: begin marker, one four-line frame per
// buffered event, end marker. The end marker is emitted even on abnormal
// stop. Any write failure terminates the external process instead of
// propagating.
func (c *ConsoleRelay) broadcast() {
	defer c.workerExited.Store(true)

	if !c.writeLine(tokenBegin) {
		c.terminate()
	}

loop:
	for c.shouldRun() {
		select {
		case ev := <-c.events:
			if !c.writeFrame(ev) {
				c.terminate()
				break loop
			}
		case <-c.procDone:
			break loop
		case <-time.After(relayPollInterval):
			// Re-evaluate exit and drain conditions
		}
	}

	c.writeLine(tokenEnd)
	c.pipe.Close()

	if c.waitForExit && c.procDone != nil {
		<-c.procDone
	}
}

// shouldRun evaluates the loop condition: keep going while not told to exit,
// or told to exit but still draining, and only while the external process is
// alive.
func (c *ConsoleRelay) shouldRun() bool {
	if c.procDone != nil {
		select {
		case <-c.procDone:
			return false
		default:
		}
	}
	if !c.exit.Load() {
		return true
	}
	return c.drainOnExit && len(c.events) > 0
}

// writeFrame emits one message frame.
func (c *ConsoleRelay) writeFrame(ev relayEvent) bool {
	return c.writeLine(tokenMessage) &&
		c.writeLine(ev.text) &&
		c.writeLine(tokenSeverity) &&
		c.writeLine(ev.severity.String()) &&
		c.writeLine(tokenEndMessage)
}

func (c *ConsoleRelay) writeLine(line string) bool {
	_, err := io.WriteString(c.pipe, line+"\n")
	return err == nil
}

// terminate kills the external process after a channel failure.
func (c *ConsoleRelay) terminate() {
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
}
