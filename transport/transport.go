package transport

import (
	"context"
	"net"
	"strconv"
	"strings"
)

const (
	// MinPort defines the minimum valid port number
	MinPort = 1
	// MaxPort defines the maximum valid port number
	MaxPort = 65535
)

// Server defines the interface for transport servers
type Server interface {
	// Run starts the server and blocks until it stops
	Run() error
	// Shutdown gracefully shuts down the server
	Shutdown(context.Context) error
}

// ValidateAddress reports whether addr is a listen address of the form
// [host]:port with a port in [MinPort, MaxPort].
func ValidateAddress(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}

	p, err := strconv.Atoi(port)
	if err != nil || p < MinPort || p > MaxPort {
		return false
	}

	return host == "" || isValidHost(host)
}

// isValidHost accepts IP literals and RFC 1123 style hostnames.
func isValidHost(host string) bool {
	if net.ParseIP(host) != nil {
		return true
	}
	if len(host) > 253 {
		return false
	}

	for label := range strings.SplitSeq(host, ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
				return false
			}
		}
	}
	return true
}
