package ssdp

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"dlna-server/internal/logging"
	"dlna-server/internal/metrics"
)

// Defaults for BeaconConfig.
const (
	DefaultGroup    = "239.255.255.250:1900"
	DefaultInterval = 10 * time.Second
	DefaultMaxAge   = 1800
)

// Notification subtypes.
const (
	Alive  = "ssdp:alive"
	ByeBye = "ssdp:byebye"
)

// Advertised device and service types, in announcement order after the UDN.
var notificationTypes = []string{
	"upnp:rootdevice",
	"urn:schemas-upnp-org:device:MediaServer:1",
	"urn:schemas-upnp-org:service:ConnectionManager:1",
	"urn:schemas-upnp-org:service:ContentDirectory:1",
}

// Sender is the datagram socket a Beacon announces on.
type Sender interface {
	WriteTo(b []byte, addr net.Addr) (int, error)
}

// BeaconConfig describes what is advertised and how often.
type BeaconConfig struct {
	// UDN is the device's unique name, "uuid:<uuid>".
	UDN string
	// Location is the URL of the device description.
	Location string
	// Server is the SERVER header value.
	Server string
	// Interval between bursts. Defaults to 10s.
	Interval time.Duration
	// MaxAge is the advertised CACHE-CONTROL lifetime in seconds. It should
	// stay well above Interval. Defaults to 1800.
	MaxAge int
	// Repeat is how many times each burst is sent. UDP may drop some of
	// them; the UPnP architecture suggests up to three. Defaults to 1.
	Repeat int
	// Group is the multicast destination. Defaults to 239.255.255.250:1900.
	Group string
}

func (c *BeaconConfig) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	if c.Repeat < 1 {
		c.Repeat = 1
	}
	if c.Group == "" {
		c.Group = DefaultGroup
	}
}

// Beacon periodically multicasts NOTIFY messages announcing the server.
type Beacon struct {
	cfg    BeaconConfig
	sender Sender
	group  *net.UDPAddr

	// newTicker is replaced in tests.
	newTicker func(d time.Duration) (<-chan time.Time, func())
}

// NewBeacon creates a beacon that announces cfg through sender.
func NewBeacon(cfg BeaconConfig, sender Sender) (*Beacon, error) {
	cfg.applyDefaults()

	if cfg.UDN == "" || cfg.Location == "" {
		return nil, fmt.Errorf("ssdp: UDN and Location are required")
	}

	group, err := net.ResolveUDPAddr("udp4", cfg.Group)
	if err != nil {
		return nil, fmt.Errorf("ssdp: resolving group %q: %w", cfg.Group, err)
	}

	if time.Duration(cfg.MaxAge)*time.Second < 3*cfg.Interval {
		logging.Warn("SSDP max-age %ds is less than three announce intervals (%v)", cfg.MaxAge, cfg.Interval)
	}

	return &Beacon{
		cfg:    cfg,
		sender: sender,
		group:  group,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}, nil
}

// Run announces immediately and then once per interval until ctx is done,
// at which point it sends one byebye burst. Send failures are logged and
// never stop the beacon.
func (b *Beacon) Run(ctx context.Context) error {
	ticks, stop := b.newTicker(b.cfg.Interval)
	defer stop()

	logging.Info("SSDP beacon started: %s every %v (repeat %d)", b.cfg.Location, b.cfg.Interval, b.cfg.Repeat)

	b.announce(Alive)

	for {
		select {
		case <-ctx.Done():
			b.announce(ByeBye)
			logging.Info("SSDP beacon stopped")
			return nil
		case <-ticks:
			b.announce(Alive)
		}
	}
}

func (b *Beacon) announce(nts string) {
	messages := b.messages(nts)

	for i := 0; i < b.cfg.Repeat; i++ {
		for _, m := range messages {
			b.send(nts, m)
		}
	}
}

func (b *Beacon) send(nts string, m message) {
	n, err := b.sender.WriteTo(m.data, b.group)
	if err != nil {
		metrics.SSDPSendErrors.Inc()
		logging.Warn("SSDP send of %s failed: %v", m.nt, err)
		return
	}
	if n != len(m.data) {
		metrics.SSDPTruncatedWrites.Inc()
		logging.Warn("SSDP send of %s truncated: %d of %d bytes", m.nt, n, len(m.data))
	}
	metrics.SSDPAnnouncementsTotal.WithLabelValues(nts).Inc()
}

type message struct {
	nt   string
	data []byte
}

// messages builds one burst: the UDN itself followed by every advertised type.
func (b *Beacon) messages(nts string) []message {
	out := make([]message, 0, len(notificationTypes)+1)
	out = append(out, message{nt: b.cfg.UDN, data: b.format(b.cfg.UDN, b.cfg.UDN, nts)})
	for _, nt := range notificationTypes {
		out = append(out, message{nt: nt, data: b.format(nt, b.cfg.UDN+"::"+nt, nts)})
	}
	return out
}

func (b *Beacon) format(nt, usn, nts string) []byte {
	var sb strings.Builder
	sb.WriteString("NOTIFY * HTTP/1.1\r\n")
	fmt.Fprintf(&sb, "HOST: %s\r\n", b.cfg.Group)
	fmt.Fprintf(&sb, "NT: %s\r\n", nt)
	fmt.Fprintf(&sb, "NTS: %s\r\n", nts)
	if nts == Alive {
		fmt.Fprintf(&sb, "LOCATION: %s\r\n", b.cfg.Location)
	}
	fmt.Fprintf(&sb, "USN: %s\r\n", usn)
	if nts == Alive {
		fmt.Fprintf(&sb, "CACHE-CONTROL: max-age=%d\r\n", b.cfg.MaxAge)
		fmt.Fprintf(&sb, "SERVER: %s\r\n", b.cfg.Server)
	}
	sb.WriteString("\r\n")
	return []byte(sb.String())
}
