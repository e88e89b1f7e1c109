package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentuity/cli/internal/build"
)

var (
	// Version information - will be set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	build.CLIVersion = Version

	rootCmd := &cobra.Command{
		Use:   "agentuity",
		Short: "Agentuity agent-project build tooling",
		Long: `Agentuity builds agent projects: it bundles agent, eval and route modules,
injects content-addressed metadata, generates the agent registry, and writes
the deployment manifests.`,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(devCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
