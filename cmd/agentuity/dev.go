package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agentuity/cli/internal/build"
	"github.com/agentuity/cli/internal/project"
	"github.com/agentuity/cli/internal/watch"
)

var (
	devPort    int
	devVerbose bool
)

func init() {
	devCmd.Flags().IntVar(&devPort, "port", 0, "Dev server port (defaults to dev.port from agentuity.yaml)")
	devCmd.Flags().BoolVar(&devVerbose, "verbose", false, "Show detailed build output")
}

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Run the dev server with rebuild-on-change and live reload",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := project.FindRoot(".")
		if err != nil {
			return err
		}
		proj, err := project.Load(root)
		if err != nil {
			return err
		}
		port := devPort
		if port == 0 {
			port = proj.Dev.Port
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := newLogger(devVerbose)
		server := &watch.DevServer{
			RootDir: root,
			OutDir:  filepath.Join(root, build.OutputDir),
			Port:    port,
			Logger:  log,
			Rebuild: func(ctx context.Context) error {
				_, err := build.Build(ctx, build.Options{
					RootDir: root,
					Dev:     true,
					Project: proj,
					Port:    port,
					Logger:  log,
				})
				if err != nil {
					reportErrors(err)
				}
				return err
			},
		}

		color.Cyan("Starting dev server on http://127.0.0.1:%d", port)
		return server.Run(ctx)
	},
}
