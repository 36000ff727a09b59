// Package cloak derives a deterministic, opaque display host from a raw
// client address, for use when a session enables user mode 'x'.
//
// Ported from the reference implementation's cloak.rs: split the address
// into its dot/colon-separated components, drop the last (most specific)
// component, SHA-1 hash each remaining component and take its first 8 hex
// characters, then rejoin with a trailing marker identifying the address
// family.
package cloak

import (
	"crypto/sha1" // nolint: gosec
	"encoding/hex"
	"net"
	"strings"
)

// Host returns the cloaked label for a raw address string, which may be an
// IPv4 literal, an IPv6 literal, or anything else (returned unchanged).
func Host(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil {
		return addr
	}

	if v4 := ip.To4(); v4 != nil {
		return cloakIPv4(v4.String())
	}

	return cloakIPv6(ip.String())
}

func cloakIPv4(host string) string {
	chunks := strings.Split(host, ".")
	if len(chunks) != 4 {
		return host
	}

	chunks = chunks[:len(chunks)-1]

	parts := make([]string, 0, len(chunks)+1)
	for _, chunk := range chunks {
		parts = append(parts, hashChunk(chunk))
	}
	parts = append(parts, "IP")

	return strings.Join(parts, ".")
}

func cloakIPv6(host string) string {
	chunks := strings.Split(host, ":")
	if len(chunks) == 0 {
		return host
	}

	chunks = chunks[:len(chunks)-1]

	parts := make([]string, 0, len(chunks)+1)
	for _, chunk := range chunks {
		if chunk == "" {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, hashChunk(chunk))
	}
	parts = append(parts, "IPv6")

	return strings.Join(parts, ":")
}

func hashChunk(chunk string) string {
	sum := sha1.Sum([]byte(chunk)) // nolint: gosec
	return hex.EncodeToString(sum[:])[:8]
}
