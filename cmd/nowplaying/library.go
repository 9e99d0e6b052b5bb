package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/service"
)

func (c *cli) importCommand() *cobra.Command {
	var req service.ImportRequest
	var kind string

	cmd := &cobra.Command{
		Use:   "import [folder]",
		Short: "Import a folder of music as a collection",
		Long:  `Scan a folder recursively, read the tags of every playable file and store them as a collection.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Kind = domain.CollectionKind(kind)
			return c.importFolder(cmd, args[0], req)
		},
	}

	cmd.Flags().StringVar(&req.Key, "key", "", "Collection key")
	cmd.Flags().StringVar(&req.Name, "name", "", "Collection name (defaults to the key)")
	cmd.Flags().StringVar(&kind, "kind", string(domain.CollectionAlbum), "Collection kind: album, playlist or tracks")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func (c *cli) importFolder(cmd *cobra.Command, folder string, req service.ImportRequest) error {
	application, err := c.newApplication(true)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	progress := application.EventBus().Subscribe(domain.EventScanProgress, func(event domain.Event) {
		p := event.(domain.ScanProgressEvent).Progress
		application.Logger().Debug("scanning",
			slog.String("file", p.CurrentFile),
			slog.Float64("percent", p.Percentage()))
	})
	defer application.EventBus().Unsubscribe(progress)

	collection, err := application.Library().ImportFolder(cmd.Context(), folder, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tracks into %q (%s)\n",
		len(collection.Entries), collection.Name, collection.Key)
	return nil
}

func (c *cli) collectionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List the stored collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := c.newApplication(true)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			collections, err := application.Library().Collections()
			if err != nil {
				return err
			}
			printCollections(cmd.OutOrStdout(), collections)
			return nil
		},
	}
}

func printCollections(out io.Writer, collections []*domain.Collection) {
	if len(collections) == 0 {
		fmt.Fprintln(out, "No collections. Add one with 'nowplaying import'.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tKIND\tTRACKS")
	for _, collection := range collections {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			collection.Key, collection.Name, collection.Kind, len(collection.Entries))
	}
	_ = w.Flush()
}
