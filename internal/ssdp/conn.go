package ssdp

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// multicastTTL keeps announcements on the local network.
const multicastTTL = 2

// Conn is a UDP socket configured for sending SSDP multicast.
type Conn struct {
	conn net.PacketConn
	pc   *ipv4.PacketConn
}

// Listen opens an IPv4 socket for announcements. iface selects the
// outgoing interface by name; empty leaves the choice to the kernel.
func Listen(iface string) (*Conn, error) {
	c, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("ssdp: opening socket: %w", err)
	}

	pc := ipv4.NewPacketConn(c)
	if err := pc.SetMulticastTTL(multicastTTL); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ssdp: setting multicast TTL: %w", err)
	}
	if err := pc.SetMulticastLoopback(true); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ssdp: enabling multicast loopback: %w", err)
	}

	if iface != "" {
		ifi, err := net.InterfaceByName(iface)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("ssdp: interface %q: %w", iface, err)
		}
		if err := pc.SetMulticastInterface(ifi); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("ssdp: selecting interface %q: %w", iface, err)
		}
	}

	return &Conn{conn: c, pc: pc}, nil
}

// WriteTo implements Sender.
func (c *Conn) WriteTo(b []byte, addr net.Addr) (int, error) {
	return c.pc.WriteTo(b, nil, addr)
}

// Close closes the socket.
func (c *Conn) Close() error {
	return c.conn.Close()
}
