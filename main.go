// Package main provides the netswitch command.
//
// netswitch applies saved per-user network profiles (static address, mask,
// gateway, DNS and optionally a MAC address) to a local interface using the
// operating system's own tools.
//
// # Basic Usage
//
// Start the terminal UI:
//
//	netswitch --config config.json
//
// Apply a profile without the UI:
//
//	netswitch apply --department Finance --user alice --interface eth0
//
// Serve the web panel:
//
//	netswitch serve --port 8080 --advertise
//
// # Environment Variables
//
//   - NETSWITCH_CONFIG: Path to the profile file (default: config.json)
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramborogers/netswitch/applier"
	"github.com/ramborogers/netswitch/logging"
	"github.com/ramborogers/netswitch/profiles"
	"github.com/ramborogers/netswitch/report"
)

// Build information, populated by ldflags during build.
//
//	go build -ldflags "-X main.version=v0.2.0"
var version = "0.1.0"

// errApplyFailed is returned after a failed apply has already been printed.
var errApplyFailed = errors.New("apply failed")

func main() {
	rootCmd := buildRootCmd()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errApplyFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath  string
	debug       bool
	dryRun      bool
	sudo        bool
	resolvConf  string
	reportURL   string
	reportToken string
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "netswitch",
		Short: "Switch a network interface between saved user profiles",
		Long: `netswitch applies saved network profiles to a local interface.

Profiles are grouped by department and hold a static IPv4 address, subnet
mask, gateway, DNS servers and optionally a MAC address. They are applied
with netsh and PowerShell on Windows, networksetup on macOS and ifconfig on
Linux. Applying usually needs administrator rights.

Run without a subcommand to start the terminal UI.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), g)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "Path to the profile file (JSON5 or YAML)")
	flags.BoolVar(&g.debug, "debug", false, "Enable debug logging (the UI writes debug.log in the current directory)")
	flags.BoolVar(&g.dryRun, "dry-run", false, "Record the commands instead of running them")
	flags.BoolVar(&g.sudo, "sudo", false, "Prefix Linux commands with sudo")
	flags.StringVar(&g.resolvConf, "resolv-conf", applier.DefaultResolvConf, "Resolver file replaced on Linux")
	flags.StringVar(&g.reportURL, "report-url", "", "Collector URL that receives apply reports")
	flags.StringVar(&g.reportToken, "report-token", "", "API token for the report collector")

	rootCmd.AddCommand(
		buildApplyCmd(g),
		buildProfilesCmd(g),
		buildInterfacesCmd(g),
		buildServeCmd(g),
		buildDiscoverCmd(g),
	)

	return rootCmd
}

// cliLogger configures the process logger for the headless commands.
func (g *globalOptions) cliLogger() *logging.Logger {
	level := logging.LevelWarn
	if g.debug {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{Level: level, Output: os.Stderr})
	logging.SetDefault(logger)
	return logger
}

// applierOptions builds applier options from the flags. In dry-run mode the
// returned recorder holds every command that would have run; enumeration
// still queries the real system.
func (g *globalOptions) applierOptions(logger *logging.Logger) (applier.Options, *applier.DryRunExecutor, *applier.DryRunFileWriter) {
	opts := applier.Options{
		Logger:     logger.WithComponent("applier"),
		Sudo:       g.sudo,
		ResolvConf: g.resolvConf,
	}
	if !g.dryRun {
		return opts, nil, nil
	}

	recorder := applier.NewDryRunExecutor()
	files := &applier.DryRunFileWriter{}
	opts.Executor = recorder
	opts.Query = applier.DefaultCommandExecutor
	opts.Files = files
	opts.DisableSettle = 1
	opts.EnableSettle = 1
	return opts, recorder, files
}

// loadStore loads the profile file the flags point at.
func (g *globalOptions) loadStore() (*profiles.Store, error) {
	path := profiles.ResolvePath(g.configPath)
	store, err := profiles.Load(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// reportClient starts a report client when a collector is configured.
func (g *globalOptions) reportClient(ctx context.Context) *report.Client {
	if g.reportURL == "" {
		return nil
	}
	client := report.NewClient(g.reportURL, g.reportToken, version)
	client.Start(ctx)
	return client
}
