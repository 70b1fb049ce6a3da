package cli

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/rescale/drive-explorer/internal/constants"
	"github.com/rescale/drive-explorer/internal/explorer"
	"github.com/rescale/drive-explorer/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		listenAddr  string
		idleTimeout int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser UI",
		Long: `Start the browser UI.

Each visitor gets an independent session (breadcrumbs, pending download and
cache); sessions idle for longer than --idle-minutes are dropped. Application
credentials are checked when a session starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := GetLogger()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.MergeWithFlags("", listenAddr)

			factory, err := serviceFactory(cfg, log)
			if err != nil {
				return err
			}
			idle := constants.SessionIdleTimeout
			if idleTimeout > 0 {
				idle = time.Duration(idleTimeout) * time.Minute
			}
			sessions := explorer.NewManager(factory, explorerOptions(cfg), idle, log.Named("explorer"))
			srv := web.NewServer(sessions, log.Named("web"))

			return srv.Serve(GetContext(), cfg.ListenAddr, func(addr net.Addr) {
				fmt.Fprintf(cmd.OutOrStdout(), "Drive explorer running at http://%s/\n", addr)
			})
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default "+constants.DefaultListenAddr+", overrides LISTEN_ADDR)")
	cmd.Flags().IntVar(&idleTimeout, "idle-minutes", 0, "Drop sessions idle this many minutes (default 30)")

	return cmd
}
