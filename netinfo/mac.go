package netinfo

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$|^[0-9A-Fa-f]{12}$`)

// NormalizeMACAddress converts a MAC address to upper-case colon form
func NormalizeMACAddress(mac string) string {
	// Convert to uppercase
	mac = strings.ToUpper(strings.TrimSpace(mac))

	// Remove any separators
	mac = strings.ReplaceAll(mac, ":", "")
	mac = strings.ReplaceAll(mac, "-", "")
	mac = strings.ReplaceAll(mac, ".", "")

	// Insert colons every 2 characters
	var result strings.Builder
	for i, char := range mac {
		if i > 0 && i%2 == 0 {
			result.WriteRune(':')
		}
		result.WriteRune(char)
	}

	return result.String()
}

// ValidMAC reports whether mac is six colon or dash separated octets, or
// twelve bare hex digits.
func ValidMAC(mac string) bool {
	return macPattern.MatchString(strings.TrimSpace(mac))
}

// CompactMAC returns the twelve hex digits Windows adapter properties expect.
func CompactMAC(mac string) (string, error) {
	if !ValidMAC(mac) {
		return "", fmt.Errorf("invalid mac address %q", mac)
	}
	return strings.ReplaceAll(NormalizeMACAddress(mac), ":", ""), nil
}

// SameMAC compares two addresses regardless of separators and case.
func SameMAC(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return NormalizeMACAddress(a) == NormalizeMACAddress(b)
}

// IsLocallyAdministered reports whether the U/L bit of the first octet is set.
// Many Windows drivers ignore a spoofed address without it.
func IsLocallyAdministered(mac string) bool {
	hw, err := net.ParseMAC(NormalizeMACAddress(mac))
	if err != nil || len(hw) == 0 {
		return false
	}
	return hw[0]&0x02 != 0
}
