package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-while/go-chainui/internal/app"
	"github.com/go-while/go-chainui/internal/config"
	"github.com/go-while/go-chainui/internal/routes"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
}

// serveFlags override the web and dev sections of the configuration.
type serveFlags struct {
	listen      string
	ssl         bool
	certFile    string
	keyFile     string
	pprofAddr   string
	root        string
	proxyTarget string
	socks5      string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "chainui",
		Short:         "chainui - blockchain node web UI host",
		Long:          "Serves the node and network views of the blockchain UI and, in development, relays /api calls to a node.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file (default: built-in defaults)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newServeCmd(g))
	root.AddCommand(newDevCmd(g))
	root.AddCommand(newRoutesCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newServeCmd(g *globalFlags) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the embedded production build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, done, err := setup(g, f, false)
			if err != nil {
				return err
			}
			defer done()
			return runServer(cmd.Context(), cfg, false, logger)
		},
	}
	cmd.Flags().StringVar(&f.listen, "listen", "", "listen address host:port (default: "+config.DefaultListenAddr+")")
	cmd.Flags().BoolVar(&f.ssl, "ssl", false, "Enable SSL")
	cmd.Flags().StringVar(&f.certFile, "cert", "", "SSL certificate file (/path/to/fullchain.pem)")
	cmd.Flags().StringVar(&f.keyFile, "key", "", "SSL key file (/path/to/privkey.pem)")
	cmd.Flags().StringVar(&f.pprofAddr, "pprof", "", "start pprof web endpoint on this address (e.g. :51111)")
	return cmd
}

func newDevCmd(g *globalFlags) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Serve the bundle from disk, reload on change and proxy API calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, done, err := setup(g, f, true)
			if err != nil {
				return err
			}
			defer done()
			return runServer(cmd.Context(), cfg, true, logger)
		},
	}
	cmd.Flags().StringVar(&f.root, "root", "", "bundle directory containing index.html and views/")
	cmd.Flags().StringVar(&f.proxyTarget, "proxy-target", "", "backend origin for the proxied prefix (default: "+config.DefaultProxyTarget+")")
	cmd.Flags().StringVar(&f.listen, "listen", "", "listen address host:port (default: "+config.DefaultListenAddr+")")
	cmd.Flags().StringVar(&f.socks5, "socks5", "", "dial the backend through this SOCKS5 proxy host:port")
	cmd.Flags().StringVar(&f.pprofAddr, "pprof", "", "start pprof web endpoint on this address (e.g. :51111)")
	return cmd
}

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, r := range routes.Default().Routes() {
				fmt.Fprintf(out, "%-10s %-8s %s\n", r.Path, r.Component, app.Title(r.Component))
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chainui %s\n", config.AppVersion)
		},
	}
}
