package startup

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/google/uuid"
)

// stableUUID derives a device UUID that survives restarts on the same host.
func stableUUID(name string) string {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(host+"/"+name)).String()
}

// advertiseURI builds http://<ip>:<port> from the bind address. A wildcard
// or empty host is replaced by the address localIP reports.
func advertiseURI(bindAddr string, localIP func() (net.IP, error)) (string, error) {
	host, port, err := net.SplitHostPort(bindAddr)
	if err != nil {
		return "", fmt.Errorf("parsing BIND_ADDR %q: %w", bindAddr, err)
	}
	if port == "" || port == "0" {
		return "", fmt.Errorf("BIND_ADDR %q has no fixed port", bindAddr)
	}

	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		local, err := localIP()
		if err != nil {
			return "", err
		}
		host = local.String()
	}

	return "http://" + net.JoinHostPort(host, port), nil
}

// outboundIPv4 returns the source address the kernel picks for outbound
// traffic. Connecting a UDP socket sends nothing.
func outboundIPv4() (net.IP, error) {
	conn, err := net.Dial("udp4", "192.0.2.1:9")
	if err != nil {
		return nil, fmt.Errorf("finding outbound interface: %w", err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.To4() == nil {
		return nil, errors.New("no IPv4 address on the outbound interface")
	}
	return addr.IP.To4(), nil
}
