package tool

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

// URLGuard rejects outbound requests that could reach private networks.
// Loopback stays reachable so agents can probe a locally started app.
type URLGuard struct {
	AllowPrivate bool
}

// Check validates a URL before a request is built.
func (g *URLGuard) Check(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", foundryerrors.ErrUnsafeURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q: %w", u.Scheme, foundryerrors.ErrUnsafeURL)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("missing host: %w", foundryerrors.ErrUnsafeURL)
	}
	if g.AllowPrivate || host == "localhost" {
		return nil
	}
	if strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("host %q: %w", host, foundryerrors.ErrUnsafeURL)
	}
	if ip := net.ParseIP(host); ip != nil && !ipAllowed(ip) {
		return fmt.Errorf("address %s: %w", ip, foundryerrors.ErrUnsafeURL)
	}
	return nil
}

// Control is a net.Dialer control hook that re-checks the resolved address,
// so a public name that resolves to a private address is still refused.
func (g *URLGuard) Control(_, address string, _ syscall.RawConn) error {
	if g.AllowPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %w", foundryerrors.ErrUnsafeURL, err)
	}
	if ip := net.ParseIP(host); ip != nil && !ipAllowed(ip) {
		return fmt.Errorf("address %s: %w", ip, foundryerrors.ErrUnsafeURL)
	}
	return nil
}

func ipAllowed(ip net.IP) bool {
	if ip.IsLoopback() {
		return true
	}
	return !ip.IsPrivate() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsUnspecified()
}
