package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ramborogers/netswitch/profiles"
)

// buildProfilesCmd creates the "profiles" command that prints the profile tree.
func buildProfilesCmd(g *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List departments and user profiles",
		Long: `Print every department and user in the profile file and report
duplicate names. Profiles with missing fields are listed; they are rejected
when applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g.cliLogger()
			store, err := g.loadStore()
			if err != nil {
				return err
			}
			return printProfiles(cmd.OutOrStdout(), store, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func printProfiles(out io.Writer, store *profiles.Store, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(store.Departments()); err != nil {
			return err
		}
		return store.Validate()
	}

	fmt.Fprintf(out, "Profiles: %s (%d users)\n\n", store.Path, store.Count())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, d := range store.Departments() {
		fmt.Fprintf(w, "%s\n", d.Name)
		if len(d.Users) == 0 {
			fmt.Fprintf(w, "  (no users)\n")
		}
		for _, u := range d.Users {
			mac := u.MAC
			if mac == "" {
				mac = "-"
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n", u.Name, u.IP, u.Netmask, u.Gateway, u.DNS, mac)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	return store.Validate()
}
