package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/l3aro/cfgview/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve <payload>",
	Short: "Serve a live, interactive page for a payload",
	Long: `Serves the payload as an interactive page. Labels and boxes can be dragged,
the diagram panned and zoomed, and the layout follows the browser window.
With --watch the page reloads whenever the payload file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Close()

		addr := conf.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		watch := conf.Server.Watch
		if cmd.Flags().Changed("watch") {
			watch, _ = cmd.Flags().GetBool("watch")
		}

		srv, err := server.New(server.Options{
			Addr:        addr,
			PayloadPath: args[0],
			Watch:       watch,
			View:        conf.ViewOptions(),
		}, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default: server.addr)")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload when the payload file changes")
	RootCmd.AddCommand(serveCmd)
}
