package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ramborogers/netswitch/applier"
	"github.com/ramborogers/netswitch/logging"
	"github.com/ramborogers/netswitch/netinfo"
	"github.com/ramborogers/netswitch/profiles"
	"github.com/ramborogers/netswitch/web"
)

// buildServeCmd creates the "serve" command that starts the web panel.
func buildServeCmd(g *globalOptions) *cobra.Command {
	var (
		port      int
		token     string
		advertise bool
		instance  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web panel",
		Long: `Serve a token-protected web panel for applying profiles from a browser.

A random token is generated when --token is empty; the full panel URL is
printed at start. The profile file is reloaded when it changes and pushed to
open browsers. Graceful shutdown is handled on SIGINT/SIGTERM and waits for
a running apply.`,
		Example: `  # Serve on the default port and announce over mDNS
  netswitch serve --advertise

  # Fixed token
  netswitch serve --port 9000 --token s3cret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, port, token, advertise, instance)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVar(&token, "token", "", "Auth token (generated if empty)")
	cmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the panel over mDNS")
	cmd.Flags().StringVar(&instance, "instance", "", "mDNS instance name (default: hostname)")

	return cmd
}

func runServe(cmd *cobra.Command, g *globalOptions, port int, token string, advertise bool, instance string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := g.cliLogger()
	if !g.debug {
		logger.SetLevel(logging.LevelInfo)
	}

	path := profiles.ResolvePath(g.configPath)
	store, err := profiles.Load(path)
	if err != nil {
		return err
	}
	if err := store.Validate(); err != nil {
		logger.Warn("profile file has problems", "path", path, "error", err)
	}

	if token == "" {
		token = uuid.NewString()
	}

	opts, _, _ := g.applierOptions(logger)
	serverOpts := web.Options{
		Addr:    ":" + strconv.Itoa(port),
		Token:   token,
		Version: version,
		Store:   store,
		Applier: applier.ForHost(opts),
		Logger:  logger.WithComponent("web"),
	}
	if reporter := g.reportClient(ctx); reporter != nil {
		defer reporter.Stop()
		serverOpts.Reporter = reporter
	}

	server, err := web.NewServer(serverOpts)
	if err != nil {
		return err
	}

	watcher, err := profiles.Watch(ctx, path, profiles.DefaultDebounce, func(s *profiles.Store, err error) {
		if err != nil {
			logger.Warn("profile reload failed, keeping previous profiles", "path", path, "error", err)
			return
		}
		logger.Info("profiles reloaded", "path", path, "users", s.Count())
		server.SetStore(s)
	})
	if err != nil {
		logger.Warn("profile file will not be watched", "error", err)
	} else {
		defer watcher.Close()
	}

	if advertise {
		adv, err := web.Advertise(instance, port, version)
		if err != nil {
			logger.Warn("mdns advertisement failed", "error", err)
		} else {
			defer adv.Close()
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Web panel: %s\n", web.PanelURL(panelHost(), port, token))

	return server.Start(ctx)
}

// panelHost picks the address printed in the panel URL.
func panelHost() string {
	list, err := netinfo.Interfaces()
	if err != nil {
		return "localhost"
	}
	for _, iface := range list {
		if iface.IsUp && iface.IPAddress != "" {
			return iface.IPAddress
		}
	}
	return "localhost"
}

// buildDiscoverCmd creates the "discover" command that finds panels over mDNS.
func buildDiscoverCmd(g *globalOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find web panels announced on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g.cliLogger()
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout+time.Second)
			defer cancel()

			type found struct {
				panels []web.Panel
				err    error
			}
			done := make(chan found, 1)
			go func() {
				panels, err := web.Discover(timeout)
				done <- found{panels, err}
			}()

			var res found
			select {
			case res = <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			if res.err != nil {
				return res.err
			}

			out := cmd.OutOrStdout()
			if len(res.panels) == 0 {
				fmt.Fprintln(out, "No panels found.")
				return nil
			}
			for _, p := range res.panels {
				fmt.Fprintf(out, "%-24s %-22s %s\n", p.Instance, p.URL(), p.Version)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "How long to listen for answers")

	return cmd
}
