// Package applier pushes a network profile onto a live interface by running
// the host's own configuration tools: netsh and PowerShell on Windows,
// networksetup on macOS, ifconfig and route on Linux.
//
// Each platform procedure is a fixed, ordered sequence of commands. A step is
// either fatal (the sequence stops and the result fails) or advisory (a
// warning is recorded and the sequence continues). Nothing is retried and
// nothing is rolled back.
package applier

import (
	"fmt"
	"net"
	"runtime"
	"time"

	"github.com/ramborogers/netswitch/logging"
)

// Platform names as reported by runtime.GOOS.
const (
	PlatformWindows = "windows"
	PlatformDarwin  = "darwin"
	PlatformLinux   = "linux"
)

// Settling delays around the Windows MAC change.
const (
	DefaultDisableSettle = 3 * time.Second
	DefaultEnableSettle  = 5 * time.Second
)

// DefaultResolvConf is the resolver file the Linux procedure replaces.
const DefaultResolvConf = "/etc/resolv.conf"

// NetworkApplier applies profiles on one platform.
type NetworkApplier interface {
	// Platform returns the GOOS value this applier drives.
	Platform() string
	// Interfaces enumerates identifiers Apply accepts. It is not cached.
	Interfaces() ([]string, error)
	// Apply runs the platform sequence. It never panics on command failure
	// and reports every failure through the Result.
	Apply(iface string, p Profile) Result
}

// Options configures the appliers. Zero values select the real system.
type Options struct {
	// Executor runs commands that change system state.
	Executor CommandExecutor
	// Query runs read-only enumeration commands. Defaults to Executor.
	Query CommandExecutor
	// Files replaces the resolver file on Linux.
	Files FileWriter
	// Adapters lists Windows adapters. Defaults to PowerShell Get-NetAdapter via Query.
	Adapters AdapterSource
	// Links lists Linux links. Defaults to net.Interfaces.
	Links func() ([]net.Interface, error)

	Sleep  Sleeper
	Logger *logging.Logger

	// Sudo prefixes Linux commands with sudo.
	Sudo       bool
	ResolvConf string

	DisableSettle time.Duration
	EnableSettle  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Executor == nil {
		o.Executor = DefaultCommandExecutor
	}
	if o.Query == nil {
		o.Query = o.Executor
	}
	if o.Files == nil {
		if o.Sudo {
			o.Files = sudoFileWriter{cmd: o.Executor}
		} else {
			o.Files = RealFileWriter{}
		}
	}
	if o.Adapters == nil {
		o.Adapters = &PowerShellAdapters{Cmd: o.Query}
	}
	if o.Links == nil {
		o.Links = net.Interfaces
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	if o.Logger == nil {
		o.Logger = logging.WithComponent("applier")
	}
	if o.ResolvConf == "" {
		o.ResolvConf = DefaultResolvConf
	}
	if o.DisableSettle == 0 {
		o.DisableSettle = DefaultDisableSettle
	}
	if o.EnableSettle == 0 {
		o.EnableSettle = DefaultEnableSettle
	}
	return o
}

// New returns the applier for goos. Unknown platforms get an applier whose
// Apply always fails without running anything.
func New(goos string, opts Options) NetworkApplier {
	opts = opts.withDefaults()
	switch goos {
	case PlatformWindows:
		return NewWindowsApplier(opts)
	case PlatformDarwin:
		return NewMacApplier(opts)
	case PlatformLinux:
		return NewLinuxApplier(opts)
	default:
		return &unsupportedApplier{goos: goos, log: opts.Logger}
	}
}

// ForHost returns the applier for the running operating system.
func ForHost(opts Options) NetworkApplier {
	return New(runtime.GOOS, opts)
}

// Apply detects the host platform and applies p to iface.
func Apply(opts Options, iface string, p Profile) Result {
	return ForHost(opts).Apply(iface, p)
}

type unsupportedApplier struct {
	goos string
	log  *logging.Logger
}

func (a *unsupportedApplier) Platform() string {
	return a.goos
}

func (a *unsupportedApplier) Interfaces() ([]string, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, a.goos)
}

func (a *unsupportedApplier) Apply(iface string, p Profile) Result {
	r := newRun(nil, a.log, a.goos, iface)
	return r.fail(fmt.Errorf("%w: %s", ErrUnsupportedPlatform, a.goos))
}
