package main

import (
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/nowplaying/internal/app"
	"github.com/tejashwikalptaru/nowplaying/internal/config"
)

// cli holds the flags shared by every command.
type cli struct {
	configPath string

	// configure adjusts the application configuration before it is built (for testing)
	configure func(*app.Config)
}

func newCLI() *cli {
	return &cli{}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "nowplaying",
		Short:         "Queue and play a local music library",
		Long:          `A headless music player with a persistent play queue and desktop media controls.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to config file (defaults apply when empty)")

	root.AddCommand(
		c.serveCommand(),
		c.importCommand(),
		c.collectionsCommand(),
		c.versionCommand(),
	)
	return root
}

// newApplication loads the configuration and builds the application.
func (c *cli) newApplication(headless bool) (*app.Application, error) {
	fileCfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	cfg := app.ConfigFrom(fileCfg)
	cfg.Headless = headless
	if c.configure != nil {
		c.configure(&cfg)
	}
	return app.NewApplication(cfg)
}
