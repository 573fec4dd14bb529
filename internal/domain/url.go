package domain

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// CanonicalURL normalizes a raw URL into the canonical form used as the
// App's unique key: lowercase scheme and host, explicit port, no path,
// query or fragment. The port is returned alongside.
//
// Example: "HTTP://Localhost:3000/admin" -> ("http://localhost:3000", 3000).
func CanonicalURL(raw string) (string, int, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", 0, fmt.Errorf("invalid url %q: %w", raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", 0, fmt.Errorf("unsupported scheme %q in url %q", u.Scheme, raw)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", 0, fmt.Errorf("missing host in url %q", raw)
	}

	portStr := u.Port()
	if portStr == "" {
		if scheme == "https" {
			portStr = "443"
		} else {
			portStr = "80"
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q in url %q", portStr, raw)
	}

	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, portStr)), port, nil
}

// BuildURL assembles the canonical URL for a protocol/host/port triple.
func BuildURL(protocol, host string, port int) string {
	return fmt.Sprintf("%s://%s", protocol, net.JoinHostPort(host, strconv.Itoa(port)))
}
