package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ramborogers/netswitch/applier"
	"github.com/ramborogers/netswitch/netinfo"
)

// buildInterfacesCmd creates the "interfaces" command.
func buildInterfacesCmd(g *globalOptions) *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "interfaces",
		Short: "List interface identifiers accepted by apply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.cliLogger()
			opts, _, _ := g.applierOptions(logger)
			a := applier.ForHost(opts)

			ids, err := a.Interfaces()
			if err != nil {
				return fmt.Errorf("listing interfaces on %s: %w", a.Platform(), err)
			}

			var current []netinfo.Interface
			if details {
				current, err = netinfo.Interfaces()
				if err != nil {
					logger.Warn("reading interface state failed", "error", err)
				}
			}
			return printInterfaces(cmd.OutOrStdout(), ids, current, details)
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "Show current address, MAC and gateway")

	return cmd
}

func printInterfaces(out io.Writer, ids []string, current []netinfo.Interface, details bool) error {
	if !details {
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTERFACE\tADDRESS\tMAC\tGATEWAY\tSTATE")
	for _, id := range ids {
		info, ok := netinfo.Lookup(current, id)
		if !ok {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\n", id)
			continue
		}
		addr := "-"
		if info.IPAddress != "" {
			addr = info.IPAddress + info.CIDR
		}
		state := "down"
		if info.IsUp {
			state = "up"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", id, addr, info.MACAddress, info.Gateway, state)
	}
	return w.Flush()
}
