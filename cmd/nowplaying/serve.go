package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/nowplaying/internal/app"
)

func (c *cli) serveCommand() *cobra.Command {
	var opts app.RunOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the player until interrupted",
		Long: `Run the player with desktop media controls. Without --collection the queue
of the previous session is restored, cued and paused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Collection, "collection", "", "Collection key to start playing")
	cmd.Flags().StringVar(&opts.StartTrackID, "start", "", "Track ID to start from (requires --collection)")
	cmd.Flags().BoolVar(&opts.Shuffle, "shuffle", false, "Shuffle the collection")
	return cmd
}

func (c *cli) serve(ctx context.Context, opts app.RunOptions) error {
	application, err := c.newApplication(false)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	return application.Run(ctx, opts)
}
