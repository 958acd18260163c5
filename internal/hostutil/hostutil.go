// Package hostutil normalizes the base URLs handed to the harness.
package hostutil

import (
	"net"
	"strings"
)

// Normalize turns a raw base URL value into the form every check joins paths onto.
// - Surrounding whitespace and one layer of matching quotes are dropped
// - Bare localhost hosts default to http://, other bare hosts to https://
// - Trailing slashes are removed
func Normalize(raw string) string {
	host := strings.TrimSpace(Unquote(strings.TrimSpace(raw)))
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		if IsLocalhost(host) {
			host = "http://" + host
		} else {
			host = "https://" + host
		}
	}
	return strings.TrimRight(host, "/")
}

// Unquote strips one layer of matching single or double quotes, as written
// in dotenv files.
func Unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// IsLocalhost reports whether host (with optional port) is a loopback name:
// localhost, a .localhost subdomain, 127.0.0.1, or [::1].
func IsLocalhost(host string) bool {
	name := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		name = h
	}
	name = strings.TrimSuffix(strings.TrimPrefix(name, "["), "]")

	switch {
	case name == "localhost", strings.HasSuffix(name, ".localhost"):
		return true
	case name == "127.0.0.1", name == "::1":
		return true
	}
	return false
}
