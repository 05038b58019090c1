// Package sanitize turns operator input into the canonical values used for
// file names, upstream names and ports.
package sanitize

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/errors"
)

// MaxIdentifierLength bounds the identifier, which is also a file name.
const MaxIdentifierLength = 50

// UpstreamSuffix is appended to the identifier to name the upstream block.
const UpstreamSuffix = "_backend"

// reservedPorts are well-known service ports a backend may not claim.
var reservedPorts = map[int]bool{
	22: true, 25: true, 53: true, 80: true, 110: true,
	143: true, 443: true, 993: true, 995: true,
}

// IsReservedPort reports whether port is in the reserved set.
func IsReservedPort(port int) bool {
	return reservedPorts[port]
}

// Identifier normalizes a project name. It never fails and is idempotent.
// The result may be empty or too long; Process and the validator check that.
func Identifier(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	lastDash := true // suppresses leading dashes
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == '-' || r == '_' || r == '.' || unicode.IsSpace(r):
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Upstream derives the upstream block name for an identifier.
func Upstream(identifier string) string {
	return identifier + UpstreamSuffix
}

// Port parses a backend port. The value is returned unchanged or rejected,
// never clamped.
func Port(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, errors.ValidationCode(errors.ErrCodeInvalidPort,
			fmt.Sprintf("invalid port %q: must be a number between 1 and 65535", raw))
	}

	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, errors.ValidationCode(errors.ErrCodeInvalidPort,
			fmt.Sprintf("invalid port %q: must be a number between 1 and 65535", raw))
	}
	if IsReservedPort(port) {
		return 0, errors.ValidationCode(errors.ErrCodeReservedPort,
			fmt.Sprintf("reserved port %d", port))
	}
	return port, nil
}

// Domain lowercases and trims a domain name. It does not validate it.
func Domain(raw string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), ".")
}

// Process derives a ProcessedConfig from operator input.
func Process(raw config.RawConfig) (config.ProcessedConfig, error) {
	id := Identifier(raw.ProjectName)
	if id == "" {
		return config.ProcessedConfig{}, errors.Validation(
			fmt.Sprintf("project name %q has no usable characters", raw.ProjectName))
	}
	if len(id) > MaxIdentifierLength {
		return config.ProcessedConfig{}, errors.Validation(
			fmt.Sprintf("identifier %q is longer than %d characters", id, MaxIdentifierLength))
	}

	port, err := Port(raw.PortNumber)
	if err != nil {
		return config.ProcessedConfig{}, err
	}

	return config.ProcessedConfig{
		RawConfig:  raw,
		Identifier: id,
		Upstream:   Upstream(id),
		Domain:     Domain(raw.DomainName),
		Port:       port,
	}, nil
}
