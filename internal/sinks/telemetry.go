package sinks

/*------------------------------------------------------------------
 *
 * Purpose:	Fire-and-forget UDP telemetry broadcaster (spec.md §6):
 *		each datagram is a channel tag of at most 4 characters followed by a
 *		comma-separated payload and a trailing newline, capped at
 *		512 bytes, dropped silently on backpressure or send error.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"net"

	"github.com/alexpennington/wwvsync/internal/wwv"
)

const telemetryMaxDatagramBytes = 512

// TelemetrySink implements EventSink by broadcasting records over UDP.
type TelemetrySink struct {
	NopSink

	conn *net.UDPConn
}

// NewTelemetrySink resolves addr (host:port) and dials a UDP socket for
// fire-and-forget sends. addr may be a broadcast address.
func NewTelemetrySink(addr string) (*TelemetrySink, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("sinks: resolve telemetry addr %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("sinks: dial telemetry addr %s: %w", addr, err)
	}
	return &TelemetrySink{conn: conn}, nil
}

// send writes one datagram, truncating to the 512-byte cap and dropping
// (logging, not erroring) on any send failure.
func (s *TelemetrySink) send(channel, payload string) {
	line := channel + "," + payload + "\n"
	if len(line) > telemetryMaxDatagramBytes {
		line = line[:telemetryMaxDatagramBytes-1] + "\n"
	}
	if _, err := s.conn.Write([]byte(line)); err != nil {
		wwv.Logger.Debug("telemetry sink: send failed, dropping", "channel", channel, "err", err)
	}
}

func (s *TelemetrySink) OnMarker(cm wwv.CorrelatedMarker) {
	s.send("CORR", fmt.Sprintf("%.3f,%d,%.3f,%.6f,%.2f,%s",
		cm.TimestampMs, cm.MarkerNumber, cm.DurationMs, cm.Energy, cm.SNRDb, cm.Confidence))
}

func (s *TelemetrySink) OnSync(st wwv.SyncStatus) {
	s.send("SYNC", fmt.Sprintf("%.3f,%d,%s,%t", st.LastConfirmed, st.ConfirmedCount, st.State, st.Degraded))
}

func (s *TelemetrySink) OnTone(m wwv.ToneMeasurement) {
	channel := toneChannel(m.NominalHz)
	s.send(channel, fmt.Sprintf("%.3f,%.4f,%.4f,%.2f,%t", m.MeasuredHz, m.OffsetHz, m.OffsetPPM, m.SNRDb, m.Valid))
}

func (s *TelemetrySink) OnBCDSymbol(sym wwv.BCDSymbol) {
	s.send("BCD", fmt.Sprintf("%.3f,%d,%s,%.3f,%s", sym.TimestampMs, sym.Index, sym.Kind, sym.Confidence, sym.Source))
}

// Close releases the underlying socket.
func (s *TelemetrySink) Close() error { return s.conn.Close() }

// toneChannel maps a nominal tone frequency to its (<=4 char) channel tag.
func toneChannel(nominalHz float64) string {
	switch {
	case nominalHz == 0:
		return "TONC" // carrier/DC tracker
	default:
		return fmt.Sprintf("T%03d", int(nominalHz))[:4]
	}
}
