package hardware

/*------------------------------------------------------------------
 *
 * Purpose:	Advertise the telemetry UDP endpoint via mDNS/DNS-SD, the
 *		same way the teacher's dns_sd.go announces its KISS-over-
 *		TCP service, so a LAN monitoring tool can find an
 *		unattended receiver without static configuration.
 *
 *----------------------------------------------------------------*/

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"

	"github.com/alexpennington/wwvsync/internal/wwv"
)

const serviceType = "_wwvsync._udp"

// Advertiser announces the telemetry endpoint over mDNS/DNS-SD.
type Advertiser struct {
	responder dnssd.Responder
	cancel    context.CancelFunc
}

// NewAdvertiser registers a service named "name" on the given UDP port
// and starts responding to mDNS queries in a background goroutine.
func NewAdvertiser(name string, port int) (*Advertiser, error) {
	cfg := dnssd.Config{
		Name: name,
		Type: serviceType,
		Port: port,
	}

	sv, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("hardware: create dnssd service: %w", err)
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("hardware: create dnssd responder: %w", err)
	}

	if _, err := rp.Add(sv); err != nil {
		return nil, fmt.Errorf("hardware: add dnssd service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Advertiser{responder: rp, cancel: cancel}

	go func() {
		if err := rp.Respond(ctx); err != nil && ctx.Err() == nil {
			wwv.Logger.Error("mDNS responder exited", "err", err)
		}
	}()

	return a, nil
}

// Close stops responding to mDNS queries.
func (a *Advertiser) Close() {
	a.cancel()
}
