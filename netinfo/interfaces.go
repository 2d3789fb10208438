// Package netinfo reports the current state of local network interfaces for
// display next to the profile that is about to replace it.
package netinfo

import (
	"fmt"
	"net"
	"runtime"
	"sort"
	"strings"

	"github.com/jackpal/gateway"
	"github.com/ramborogers/netswitch/logging"
)

// GatewayNotDetected is shown when no default gateway lies inside an
// interface's subnet.
const GatewayNotDetected = "Not detected"

// Interface represents one IPv4 address bound to a network interface.
type Interface struct {
	Name         string `json:"name"`
	FriendlyName string `json:"friendly_name"`
	IPAddress    string `json:"ip"`
	SubnetMask   string `json:"netmask"`
	CIDR         string `json:"cidr"`
	MACAddress   string `json:"mac"`
	Gateway      string `json:"gateway"`
	IsUp         bool   `json:"up"`
	Priority     int    `json:"-"`
}

// Network returns the interface's network in CIDR notation.
func (i Interface) Network() string {
	_, network, err := net.ParseCIDR(i.IPAddress + i.CIDR)
	if err != nil {
		return i.IPAddress + i.CIDR
	}
	return network.String()
}

// link is the part of net.Interface the collector needs.
type link struct {
	iface net.Interface
	addrs []net.Addr
}

var discoverGateway = gateway.DiscoverGateway

// Interfaces lists IPv4 addresses on all non-loopback interfaces, most
// relevant first.
func Interfaces() ([]Interface, error) {
	log := logging.WithComponent("netinfo")

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}

	gatewayIP, err := discoverGateway()
	if err != nil {
		log.Debug("gateway discovery failed", "error", err)
		gatewayIP = nil
	}

	links := make([]link, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			log.Debug("skipping interface", "iface", iface.Name, "error", err)
			continue
		}
		links = append(links, link{iface: iface, addrs: addrs})
	}

	return collect(links, gatewayIP, runtime.GOOS), nil
}

func collect(links []link, gatewayIP net.IP, goos string) []Interface {
	var out []Interface
	for _, l := range links {
		isUp := l.iface.Flags&net.FlagUp != 0
		if goos == "windows" {
			isUp = isUp && l.iface.Flags&net.FlagBroadcast != 0
		}

		for _, addr := range l.addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ipNet.IP.IsLoopback() || ipNet.IP.To4() == nil {
				continue
			}

			gw := GatewayNotDetected
			if gatewayIP != nil && ipNet.Contains(gatewayIP) {
				gw = gatewayIP.String()
			}

			ones, _ := ipNet.Mask.Size()
			out = append(out, Interface{
				Name:         l.iface.Name,
				FriendlyName: l.iface.Name,
				IPAddress:    ipNet.IP.String(),
				SubnetMask:   net.IP(ipNet.Mask).String(),
				CIDR:         fmt.Sprintf("/%d", ones),
				MACAddress:   NormalizeMACAddress(l.iface.HardwareAddr.String()),
				Gateway:      gw,
				IsUp:         isUp,
				Priority:     Priority(l.iface.Name),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Priority orders interface names so wired and wireless adapters come first.
func Priority(name string) int {
	switch {
	case strings.HasPrefix(name, "en"):
		return 1 // macOS/BSD
	case strings.HasPrefix(name, "eth"):
		return 2
	case strings.HasPrefix(name, "wlan"):
		return 3
	case strings.Contains(name, "Ethernet") || strings.Contains(name, "Local Area Connection"):
		return 2 // Windows
	case strings.Contains(name, "Wi-Fi") || strings.Contains(name, "Wireless"):
		return 3
	default:
		return 100
	}
}

// Lookup returns the first entry whose name matches id. Matching is
// best-effort: macOS service names such as "Wi-Fi" never equal a device name.
func Lookup(list []Interface, id string) (Interface, bool) {
	for _, i := range list {
		if i.Name == id || i.FriendlyName == id {
			return i, true
		}
	}
	return Interface{}, false
}
