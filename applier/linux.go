package applier

import (
	"fmt"
	"net"
	"strings"

	"github.com/ramborogers/netswitch/logging"
	"github.com/ramborogers/netswitch/netinfo"
)

// LinuxApplier configures links with ifconfig and route and replaces the
// system resolver file.
type LinuxApplier struct {
	cmd        CommandExecutor
	files      FileWriter
	links      func() ([]net.Interface, error)
	log        *logging.Logger
	sudo       bool
	resolvConf string
}

// NewLinuxApplier creates a Linux applier.
func NewLinuxApplier(opts Options) *LinuxApplier {
	opts = opts.withDefaults()
	return &LinuxApplier{
		cmd:        opts.Executor,
		files:      opts.Files,
		links:      opts.Links,
		log:        opts.Logger,
		sudo:       opts.Sudo,
		resolvConf: opts.ResolvConf,
	}
}

// Platform implements NetworkApplier.
func (a *LinuxApplier) Platform() string {
	return PlatformLinux
}

// Interfaces returns all link names except loopback.
func (a *LinuxApplier) Interfaces() ([]string, error) {
	links, err := a.links()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, l := range links {
		if l.Flags&net.FlagLoopback != 0 || l.Name == "lo" {
			continue
		}
		names = append(names, l.Name)
	}
	return names, nil
}

// ResolverConfig renders the resolver file written for p.
func ResolverConfig(p Profile) string {
	var b strings.Builder
	b.WriteString("nameserver " + p.PrimaryDNS + "\n")
	if p.SecondaryDNS != "" {
		b.WriteString("nameserver " + p.SecondaryDNS + "\n")
	}
	return b.String()
}

func (a *LinuxApplier) exec(r *run, step string, name string, args ...string) error {
	if a.sudo {
		return r.exec(step, false, "sudo", append([]string{name}, args...)...)
	}
	return r.exec(step, false, name, args...)
}

// Apply takes the link down, configures it and brings it back up. The
// first failure stops the sequence; steps already applied stay applied.
// The resolver file is replaced, not merged.
func (a *LinuxApplier) Apply(iface string, p Profile) Result {
	p = p.Normalized()
	r := newRun(a.cmd, a.log, PlatformLinux, iface)

	if err := validate(iface, p, true); err != nil {
		return r.fail(err)
	}
	// The MAC step runs with the link already down, so a bad address must
	// be caught before anything is touched.
	if p.MACAddress != "" && !netinfo.ValidMAC(p.MACAddress) {
		return r.fail(fmt.Errorf("%w: %q", ErrInvalidMAC, p.MACAddress))
	}

	if err := a.exec(r, "interface down", "ifconfig", iface, "down"); err != nil {
		return r.fail(err)
	}
	if err := a.exec(r, "set address", "ifconfig", iface, p.IPAddress, "netmask", p.SubnetMask); err != nil {
		return r.fail(err)
	}
	if err := a.exec(r, "add default route", "route", "add", "default", "gw", p.Gateway, iface); err != nil {
		return r.fail(err)
	}
	if err := r.write("write resolver", a.files, a.resolvConf, []byte(ResolverConfig(p))); err != nil {
		return r.fail(err)
	}
	if p.MACAddress != "" {
		if err := a.exec(r, "set mac address", "ifconfig", iface, "hw", "ether", netinfo.NormalizeMACAddress(p.MACAddress)); err != nil {
			return r.fail(err)
		}
	}
	if err := a.exec(r, "interface up", "ifconfig", iface, "up"); err != nil {
		return r.fail(err)
	}

	return r.succeed()
}
