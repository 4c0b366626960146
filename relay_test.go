package astrolog

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeBuffer adapts a bytes.Buffer to the write end of a relay pipe.
type pipeBuffer struct {
	bytes.Buffer
	closed bool
}

func (p *pipeBuffer) Close() error {
	p.closed = true
	return nil
}

func TestRelayBroadcastFrames(t *testing.T) {
	buf := &pipeBuffer{}
	relay := newConsoleRelay(buf, false, true)

	relay.Delivered("hello", SeverityInfo)
	relay.Delivered("trouble", SeverityWarning)
	relay.Stop()

	relay.broadcast()

	expected := "BEG\n" +
		"MSG\nhello\nSEV\nInfo\nENDMSG\n" +
		"MSG\ntrouble\nSEV\nWarning\nENDMSG\n" +
		"END\n"
	assert.Equal(t, expected, buf.String())
	assert.True(t, buf.closed)
	assert.True(t, relay.workerExited.Load())
}

func TestRelayCrashSupersedesBuffer(t *testing.T) {
	buf := &pipeBuffer{}
	relay := newConsoleRelay(buf, false, true)

	relay.Delivered("X", SeverityInfo)
	relay.Delivered("Y", SeverityError)
	relay.Crash("Z")

	relay.broadcast()

	// Everything buffered before the crash is discarded: only the crash
	// frame reaches the display, at CriticalError severity
	expected := "BEG\nMSG\nZ\nSEV\nCriticalError\nENDMSG\nEND\n"
	assert.Equal(t, expected, buf.String())
}

func TestRelayDeliveredIgnoredAfterExit(t *testing.T) {
	buf := &pipeBuffer{}
	relay := newConsoleRelay(buf, false, true)

	relay.Crash("boom")
	relay.Delivered("stale", SeverityInfo)

	relay.broadcast()

	assert.NotContains(t, buf.String(), "stale")
	assert.Contains(t, buf.String(), "boom")
}

func TestRelayStopWithoutDrainSkipsBuffer(t *testing.T) {
	buf := &pipeBuffer{}
	relay := newConsoleRelay(buf, false, false)

	relay.Delivered("unsent", SeverityInfo)
	relay.Stop()

	relay.broadcast()

	// drainOnExit is off: the buffered event is dropped, end marker still
	// closes the stream
	assert.Equal(t, "BEG\nEND\n", buf.String())
}

func TestRelayEndMarkerAlwaysEmitted(t *testing.T) {
	buf := &pipeBuffer{}
	relay := newConsoleRelay(buf, false, false)
	relay.Stop()

	relay.broadcast()

	require.True(t, bytes.HasSuffix(buf.Bytes(), []byte("END\n")))
}

func TestRelayDropOnFullBuffer(t *testing.T) {
	buf := &pipeBuffer{}
	relay := newConsoleRelay(buf, false, true)

	for i := 0; i < relayBufferSize+10; i++ {
		relay.Delivered("event", SeverityInfo)
	}
	assert.Equal(t, relayBufferSize, len(relay.events))
}

func TestRelayJoin(t *testing.T) {
	buf := &pipeBuffer{}
	relay := newConsoleRelay(buf, false, false)

	assert.False(t, relay.Join(30*time.Millisecond))

	relay.Stop()
	go relay.broadcast()
	assert.True(t, relay.Join(time.Second))
}
