package applier

import (
	"strings"

	"github.com/ramborogers/netswitch/logging"
)

// MacApplier configures network services with networksetup.
type MacApplier struct {
	cmd   CommandExecutor
	query CommandExecutor
	log   *logging.Logger
}

// NewMacApplier creates a macOS applier.
func NewMacApplier(opts Options) *MacApplier {
	opts = opts.withDefaults()
	return &MacApplier{
		cmd:   opts.Executor,
		query: opts.Query,
		log:   opts.Logger,
	}
}

// Platform implements NetworkApplier.
func (a *MacApplier) Platform() string {
	return PlatformDarwin
}

// Interfaces returns the network service names.
func (a *MacApplier) Interfaces() ([]string, error) {
	out, err := a.query.RunCommand("networksetup", "-listallnetworkservices")
	if err != nil {
		return nil, err
	}
	return parseNetworkServices(out), nil
}

// parseNetworkServices drops the explanatory header line and the "*"
// marking disabled services.
func parseNetworkServices(out string) []string {
	lines := strings.Split(out, "\n")
	services := make([]string, 0, len(lines))
	for _, line := range lines {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, "An asterisk") {
			continue
		}
		s = strings.TrimSpace(strings.TrimPrefix(s, "*"))
		if s == "" {
			continue
		}
		services = append(services, s)
	}
	return services
}

// Apply sets the manual address and DNS servers of a network service.
func (a *MacApplier) Apply(service string, p Profile) Result {
	p = p.Normalized()
	r := newRun(a.cmd, a.log, PlatformDarwin, service)

	if err := validate(service, p, true); err != nil {
		return r.fail(err)
	}

	if err := r.exec("set manual address", false, "networksetup", "-setmanual",
		service, p.IPAddress, p.SubnetMask, p.Gateway); err != nil {
		return r.fail(err)
	}

	dnsArgs := []string{"-setdnsservers", service, p.PrimaryDNS}
	if p.SecondaryDNS != "" {
		dnsArgs = append(dnsArgs, p.SecondaryDNS)
	}
	if err := r.exec("set dns servers", false, "networksetup", dnsArgs...); err != nil {
		return r.fail(err)
	}

	// Changing the hardware address needs root and a device name rather than
	// a service name; it is skipped here.
	if p.MACAddress != "" {
		r.note("mac address change is not supported on macOS; skipped")
	}

	return r.succeed()
}
