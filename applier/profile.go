package applier

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMACPropertyName is the adapter advanced property Windows drivers
// expose for a locally administered hardware address.
const DefaultMACPropertyName = "Network Address"

// Validation errors.
var (
	ErrMissingField   = errors.New("required field is missing")
	ErrUnsafeArgument = errors.New("value contains control characters")
	ErrInvalidMAC     = errors.New("invalid mac address")
)

// Profile is the network configuration pushed onto one interface.
type Profile struct {
	IPAddress    string `json:"ip_address"`
	SubnetMask   string `json:"subnet_mask"`
	Gateway      string `json:"gateway"`
	PrimaryDNS   string `json:"primary_dns"`
	SecondaryDNS string `json:"secondary_dns,omitempty"`
	MACAddress   string `json:"mac_address,omitempty"`

	// MACPropertyName is only used on Windows.
	MACPropertyName string `json:"mac_property_name,omitempty"`
}

// ValidationError lists the fields that stopped an apply before any command ran.
type ValidationError struct {
	Missing []string
	Unsafe  []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unsafe) > 0 {
		parts = append(parts, "unsafe value in "+strings.Join(e.Unsafe, ", "))
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

// Is lets errors.Is match ErrMissingField and ErrUnsafeArgument.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrMissingField:
		return len(e.Missing) > 0
	case ErrUnsafeArgument:
		return len(e.Unsafe) > 0
	}
	return false
}

// Normalized returns a copy with surrounding whitespace trimmed from every field.
func (p Profile) Normalized() Profile {
	return Profile{
		IPAddress:       strings.TrimSpace(p.IPAddress),
		SubnetMask:      strings.TrimSpace(p.SubnetMask),
		Gateway:         strings.TrimSpace(p.Gateway),
		PrimaryDNS:      strings.TrimSpace(p.PrimaryDNS),
		SecondaryDNS:    strings.TrimSpace(p.SecondaryDNS),
		MACAddress:      strings.TrimSpace(p.MACAddress),
		MACPropertyName: strings.TrimSpace(p.MACPropertyName),
	}
}

// MACProperty returns the configured property name or the default.
func (p Profile) MACProperty() string {
	if name := strings.TrimSpace(p.MACPropertyName); name != "" {
		return name
	}
	return DefaultMACPropertyName
}

// Validate checks that the required fields are present. Values are not
// parsed as addresses; the OS tools report malformed ones.
func (p Profile) Validate() error {
	return validate("", p, false)
}

func validate(iface string, p Profile, checkIface bool) error {
	verr := &ValidationError{}

	if checkIface {
		checkField(verr, "interface", iface, true)
	}
	checkField(verr, "ip address", p.IPAddress, true)
	checkField(verr, "subnet mask", p.SubnetMask, true)
	checkField(verr, "gateway", p.Gateway, true)
	checkField(verr, "primary dns", p.PrimaryDNS, true)
	checkField(verr, "secondary dns", p.SecondaryDNS, false)
	checkField(verr, "mac address", p.MACAddress, false)
	checkField(verr, "mac property name", p.MACPropertyName, false)

	if len(verr.Missing) > 0 || len(verr.Unsafe) > 0 {
		return verr
	}
	return nil
}

func checkField(verr *ValidationError, name, value string, required bool) {
	if strings.TrimSpace(value) == "" {
		if required {
			verr.Missing = append(verr.Missing, name)
		}
		return
	}
	if !IsSafeArgument(value) {
		verr.Unsafe = append(verr.Unsafe, name)
	}
}

// String renders the profile on one line for logs and confirmations.
func (p Profile) String() string {
	s := fmt.Sprintf("ip=%s mask=%s gw=%s dns=%s", p.IPAddress, p.SubnetMask, p.Gateway, p.PrimaryDNS)
	if p.SecondaryDNS != "" {
		s += " dns2=" + p.SecondaryDNS
	}
	if p.MACAddress != "" {
		s += " mac=" + p.MACAddress
	}
	return s
}
