package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramborogers/netswitch/applier"
	"github.com/ramborogers/netswitch/views"
)

// buildApplyCmd creates the "apply" command that applies one profile headlessly.
func buildApplyCmd(g *globalOptions) *cobra.Command {
	var (
		department string
		user       string
		iface      string
		yes        bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a saved profile to an interface",
		Long: `Apply the profile of one user to one interface and print every step.

The interface identifier is what "netswitch interfaces" prints: the adapter
name on Windows, the network service name on macOS and the device name on
Linux. The exit code is 1 when the apply fails.`,
		Example: `  # Apply after a confirmation prompt
  netswitch apply --department Finance --user alice --interface Ethernet

  # Show what would run without touching the system
  netswitch apply -d Finance -u alice -i eth0 --dry-run --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, g, department, user, iface, yes, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&department, "department", "d", "", "Department the user belongs to")
	cmd.Flags().StringVarP(&user, "user", "u", "", "User whose profile is applied")
	cmd.Flags().StringVarP(&iface, "interface", "i", "", "Interface identifier")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply without asking for confirmation")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("department")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("interface")

	return cmd
}

func runApply(cmd *cobra.Command, g *globalOptions, department, user, iface string, yes, jsonOutput bool) error {
	out := cmd.OutOrStdout()
	logger := g.cliLogger()

	store, err := g.loadStore()
	if err != nil {
		return err
	}
	u, err := store.Find(department, user)
	if err != nil {
		return err
	}
	profile := u.Profile()

	if !yes {
		printProfile(out, department, user, iface, profile)
		ok, err := confirm(cmd.InOrStdin(), out, "Apply this profile?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	opts, recorder, files := g.applierOptions(logger)
	reporter := g.reportClient(cmd.Context())
	if reporter != nil {
		defer reporter.Stop()
	}

	res := applier.ForHost(opts).Apply(iface, profile)
	if reporter != nil {
		reporter.Submit(department, user, res)
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printResult(out, res)
		if recorder != nil {
			printDryRun(out, recorder, files)
		}
	}

	if !res.Success {
		return errApplyFailed
	}
	return nil
}

func printProfile(out io.Writer, department, user, iface string, p applier.Profile) {
	fmt.Fprintf(out, "Profile:    %s / %s\n", department, user)
	fmt.Fprintf(out, "Interface:  %s\n", iface)
	fmt.Fprintf(out, "  IP:       %s\n", p.IPAddress)
	fmt.Fprintf(out, "  Netmask:  %s\n", p.SubnetMask)
	fmt.Fprintf(out, "  Gateway:  %s\n", p.Gateway)
	fmt.Fprintf(out, "  DNS:      %s\n", p.PrimaryDNS)
	if p.SecondaryDNS != "" {
		fmt.Fprintf(out, "  DNS 2:    %s\n", p.SecondaryDNS)
	}
	if p.MACAddress != "" {
		fmt.Fprintf(out, "  MAC:      %s\n", p.MACAddress)
	}
	fmt.Fprintln(out)
}

// confirm asks a yes/no question on in. Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func printResult(out io.Writer, res applier.Result) {
	for i, s := range res.Steps {
		fmt.Fprintf(out, "%2d. %-24s %-8s %s\n", i+1, s.Name, views.StepStatus(s), strings.Join(s.Command, " "))
		if s.Failed() {
			fmt.Fprintf(out, "    %s\n", s.Error)
		}
	}
	if len(res.Steps) > 0 {
		fmt.Fprintln(out)
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	for _, n := range res.Notes {
		fmt.Fprintf(out, "note: %s\n", n)
	}

	if res.Success {
		fmt.Fprintf(out, "Applied to %s (%s).\n", res.Interface, res.Platform)
		return
	}
	fmt.Fprintf(out, "Failed: %s\n", res.Reason())
}

func printDryRun(out io.Writer, recorder *applier.DryRunExecutor, files *applier.DryRunFileWriter) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Dry run, nothing was changed. Commands that would run:")
	for _, c := range recorder.Commands {
		fmt.Fprintf(out, "  %s\n", c)
	}
	for _, path := range files.Order {
		fmt.Fprintf(out, "  write %s:\n", path)
		for _, line := range strings.Split(strings.TrimRight(files.Writes[path], "\n"), "\n") {
			fmt.Fprintf(out, "    %s\n", line)
		}
	}
}
