package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const unknownCountryCode = "??"

var validLogLevels = []string{"debug", "info", "warn", "error"}

var errCountryCode = errors.New(`must be a two-letter country code or "??"`)

// validateURL requires an absolute URL. The value itself is stored verbatim.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL with scheme and host")
	}
	return nil
}

// validateHost accepts an IP address or RFC 1123 hostname, optionally
// followed by :port.
func validateHost(raw string) error {
	host := raw
	if h, port, err := net.SplitHostPort(raw); err == nil {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return fmt.Errorf("invalid port %q", port)
		}
		host = h
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	if !isHostname(host) {
		return errors.New("must be a hostname or IP address")
	}
	return nil
}

func isHostname(host string) bool {
	if len(host) == 0 || len(host) > 253 {
		return false
	}
	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			default:
				return false
			}
		}
	}
	return true
}

// validateCountryCode accepts an upper-case ISO 3166-1 alpha-2 code or "??".
func validateCountryCode(code string) error {
	if code == unknownCountryCode {
		return nil
	}
	if len(code) != 2 {
		return errCountryCode
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return errCountryCode
		}
	}
	return nil
}

func validateLogLevel(level string) error {
	if slices.Contains(validLogLevels, level) {
		return nil
	}
	return fmt.Errorf("must be one of %s", strings.Join(validLogLevels, ", "))
}
