package sinks

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alexpennington/wwvsync/internal/wwv"
)

func listenUDP(t *testing.T) (*net.UDPConn, string) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	assert.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().String()
}

func recvOne(t *testing.T, conn *net.UDPConn) string {
	t.Helper()
	buf := make([]byte, telemetryMaxDatagramBytes+16)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := conn.ReadFromUDP(buf)
	assert.NoError(t, err)
	return string(buf[:n])
}

func TestTelemetrySink_SendsCorrDatagram(t *testing.T) {
	conn, addr := listenUDP(t)
	s, err := NewTelemetrySink(addr)
	assert.NoError(t, err)
	defer s.Close()

	s.OnMarker(wwv.CorrelatedMarker{MarkerNumber: 1, TimestampMs: 60000, DurationMs: 800, Energy: 5, SNRDb: 12, Confidence: wwv.ConfidenceHigh})

	line := recvOne(t, conn)
	assert.True(t, strings.HasPrefix(line, "CORR,"))
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "HIGH")
}

func TestTelemetrySink_SendsSyncDatagram(t *testing.T) {
	conn, addr := listenUDP(t)
	s, err := NewTelemetrySink(addr)
	assert.NoError(t, err)
	defer s.Close()

	s.OnSync(wwv.SyncStatus{State: wwv.SyncLocked, LastConfirmed: 60000, ConfirmedCount: 3})

	line := recvOne(t, conn)
	assert.True(t, strings.HasPrefix(line, "SYNC,"))
	assert.Contains(t, line, "LOCKED")
}

func TestTelemetrySink_ToneChannelTagsByNominalFrequency(t *testing.T) {
	assert.Equal(t, "TONC", toneChannel(0))
	assert.Equal(t, "T500", toneChannel(500))
	assert.Equal(t, "T600", toneChannel(600))
}

func TestTelemetrySink_LongDatagramIsTruncatedToCap(t *testing.T) {
	conn, addr := listenUDP(t)
	s, err := NewTelemetrySink(addr)
	assert.NoError(t, err)
	defer s.Close()

	s.send("TEST", strings.Repeat("x", telemetryMaxDatagramBytes*2))

	buf := make([]byte, telemetryMaxDatagramBytes+16)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := conn.ReadFromUDP(buf)
	assert.NoError(t, err)
	assert.LessOrEqual(t, n, telemetryMaxDatagramBytes)
}
