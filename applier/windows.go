package applier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ramborogers/netswitch/logging"
	"github.com/ramborogers/netswitch/netinfo"
)

// Adapter is one Windows network adapter as reported by Get-NetAdapter.
type Adapter struct {
	// Name is the connection name shown in the Network Connections folder.
	Name string `json:"Name"`
	// Description is the driver's internal adapter name.
	Description string `json:"InterfaceDescription"`
	Index       int    `json:"ifIndex"`
	Status      string `json:"Status"`
	MACAddress  string `json:"MacAddress"`
}

// Connected reports whether the adapter has link.
func (a Adapter) Connected() bool {
	return strings.EqualFold(a.Status, "Up")
}

// AdapterSource enumerates Windows adapters.
type AdapterSource interface {
	Adapters() ([]Adapter, error)
}

// PowerShellAdapters lists adapters with Get-NetAdapter.
type PowerShellAdapters struct {
	Cmd CommandExecutor
}

const getAdaptersScript = "Get-NetAdapter | Select-Object Name,InterfaceDescription,ifIndex,Status,MacAddress | ConvertTo-Json -Compress"

// Adapters runs Get-NetAdapter and decodes its JSON output.
func (p *PowerShellAdapters) Adapters() ([]Adapter, error) {
	out, err := p.Cmd.RunCommand("powershell", "-NoProfile", "-NonInteractive", "-Command", getAdaptersScript)
	if err != nil {
		return nil, fmt.Errorf("listing adapters: %w", err)
	}
	return parseAdapters([]byte(out))
}

// parseAdapters accepts ConvertTo-Json output, which is a bare object when
// there is exactly one adapter and an array otherwise.
func parseAdapters(data []byte) ([]Adapter, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '{' {
		var one Adapter
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("decoding adapter: %w", err)
		}
		return []Adapter{one}, nil
	}
	var many []Adapter
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, fmt.Errorf("decoding adapters: %w", err)
	}
	return many, nil
}

// WindowsApplier configures adapters with netsh and PowerShell.
type WindowsApplier struct {
	cmd           CommandExecutor
	adapters      AdapterSource
	sleep         Sleeper
	log           *logging.Logger
	disableSettle time.Duration
	enableSettle  time.Duration
}

// NewWindowsApplier creates a Windows applier.
func NewWindowsApplier(opts Options) *WindowsApplier {
	opts = opts.withDefaults()
	return &WindowsApplier{
		cmd:           opts.Executor,
		adapters:      opts.Adapters,
		sleep:         opts.Sleep,
		log:           opts.Logger,
		disableSettle: opts.DisableSettle,
		enableSettle:  opts.EnableSettle,
	}
}

// Platform implements NetworkApplier.
func (a *WindowsApplier) Platform() string {
	return PlatformWindows
}

// Interfaces returns the connection names of connected adapters.
func (a *WindowsApplier) Interfaces() ([]string, error) {
	adapters, err := a.adapters.Adapters()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ad := range adapters {
		if ad.Connected() {
			names = append(names, ad.Name)
		}
	}
	return names, nil
}

// resolve finds the adapter whose connection name or internal name is iface.
func (a *WindowsApplier) resolve(iface string) (Adapter, error) {
	adapters, err := a.adapters.Adapters()
	if err != nil {
		return Adapter{}, err
	}
	for _, ad := range adapters {
		if ad.Name == iface || ad.Description == iface {
			return ad, nil
		}
	}
	return Adapter{}, fmt.Errorf("%w: %s", ErrInterfaceNotFound, iface)
}

// Apply sets address, gateway and DNS, then optionally changes the MAC.
// Only address and primary DNS failures are fatal.
func (a *WindowsApplier) Apply(iface string, p Profile) Result {
	p = p.Normalized()
	r := newRun(a.cmd, a.log, PlatformWindows, iface)

	if err := validate(iface, p, true); err != nil {
		return r.fail(err)
	}

	adapter, err := a.resolve(iface)
	if err != nil {
		return r.fail(err)
	}
	r.log.Debug("resolved adapter", "index", adapter.Index, "description", adapter.Description)

	// netsh wants the connection name even when the caller matched on description.
	name := adapter.Name

	if err := r.exec("set address", false, "netsh", "interface", "ip", "set", "address",
		"name="+name, "static", p.IPAddress, p.SubnetMask, p.Gateway, "1"); err != nil {
		return r.fail(err)
	}

	if err := r.exec("set primary dns", false, "netsh", "interface", "ip", "set", "dns",
		"name="+name, "static", p.PrimaryDNS, "primary"); err != nil {
		return r.fail(err)
	}

	if p.SecondaryDNS != "" {
		_ = r.exec("add secondary dns", true, "netsh", "interface", "ip", "add", "dns",
			"name="+name, p.SecondaryDNS, "index=2")
	}

	if p.MACAddress != "" {
		a.changeMAC(r, name, p)
	}

	return r.succeed()
}

// changeMAC takes the adapter offline, sets the spoofed address property and
// brings it back. The fixed waits give the driver time to settle; they are
// not a confirmed state transition. Every failure here is advisory.
func (a *WindowsApplier) changeMAC(r *run, name string, p Profile) {
	mac, err := netinfo.CompactMAC(p.MACAddress)
	if err != nil {
		r.warn(fmt.Sprintf("mac address not changed: %v", err))
		return
	}

	enableAttempted := false
	err = func() error {
		if err := r.exec("disable adapter", true, "netsh", "interface", "set", "interface",
			"name="+name, "admin=disable"); err != nil {
			return err
		}
		a.sleep(a.disableSettle)

		script := fmt.Sprintf("Set-NetAdapterAdvancedProperty -Name %s -DisplayName %s -DisplayValue %s -NoRestart",
			psQuote(name), psQuote(p.MACProperty()), psQuote(mac))
		if err := r.exec("set mac address", true, "powershell", "-NoProfile", "-NonInteractive",
			"-Command", script); err != nil {
			return err
		}

		enableAttempted = true
		if err := r.exec("enable adapter", true, "netsh", "interface", "set", "interface",
			"name="+name, "admin=enable"); err != nil {
			return err
		}
		a.sleep(a.enableSettle)
		return nil
	}()

	if err != nil {
		if !enableAttempted {
			_ = r.exec("enable adapter (cleanup)", true, "netsh", "interface", "set", "interface",
				"name="+name, "admin=enable")
		}
		return
	}

	a.verifyMAC(r, name, mac)
}

// verifyMAC reads the address back. The outcome is informational only.
func (a *WindowsApplier) verifyMAC(r *run, name, want string) {
	adapters, err := a.adapters.Adapters()
	if err != nil {
		r.note("mac address not verified: " + err.Error())
		return
	}
	for _, ad := range adapters {
		if ad.Name != name {
			continue
		}
		if netinfo.SameMAC(ad.MACAddress, want) {
			r.note("mac address verified: " + netinfo.NormalizeMACAddress(want))
		} else {
			r.note(fmt.Sprintf("adapter reports mac %s, expected %s",
				netinfo.NormalizeMACAddress(ad.MACAddress), netinfo.NormalizeMACAddress(want)))
		}
		return
	}
	r.note("mac address not verified: adapter " + strconv.Quote(name) + " no longer listed")
}
