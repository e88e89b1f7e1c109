package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentuity/cli/internal/build"
	"github.com/agentuity/cli/internal/diag"
	"github.com/agentuity/cli/internal/project"
)

var (
	buildDev          bool
	buildEnv          []string
	buildProjectID    string
	buildDeploymentID string
	buildJSON         bool
	buildVerbose      bool
)

func init() {
	buildCmd.Flags().BoolVar(&buildDev, "dev", false, "Build for development (pretty manifests, no minification)")
	buildCmd.Flags().StringArrayVar(&buildEnv, "env", nil, "Compile-time environment overrides (KEY=VALUE, repeatable)")
	buildCmd.Flags().StringVar(&buildProjectID, "project-id", "", "Override the project ID from agentuity.yaml")
	buildCmd.Flags().StringVar(&buildDeploymentID, "deployment-id", "", "Override the deployment ID from agentuity.yaml")
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "Output errors in JSON format")
	buildCmd.Flags().BoolVar(&buildVerbose, "verbose", false, "Show detailed build output")
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the agent project",
	Long:  "Bundle every agent, eval and route module, inject metadata, generate the registry, and write the deployment manifests",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		root, err := project.FindRoot(".")
		if err != nil {
			return err
		}

		env, err := parseEnv(buildEnv)
		if err != nil {
			return err
		}

		res, err := build.Build(context.Background(), build.Options{
			RootDir:      root,
			Dev:          buildDev,
			Env:          env,
			ProjectID:    buildProjectID,
			DeploymentID: buildDeploymentID,
			Logger:       newLogger(buildVerbose),
		})
		if err != nil {
			reportErrors(err)
			return fmt.Errorf("build failed")
		}

		if buildVerbose {
			for _, line := range res.Output {
				fmt.Println(line)
			}
		}
		color.Green("Build succeeded in %s", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

// parseEnv splits repeated KEY=VALUE flags.
func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env value %q (expected KEY=VALUE)", pair)
		}
		env[key] = value
	}
	return env, nil
}

// reportErrors renders pipeline diagnostics to stderr, as JSON when asked.
func reportErrors(err error) {
	list := &diag.List{}
	var el *diag.List
	var be diag.BuildError
	switch {
	case errors.As(err, &el):
		list = el
	case errors.As(err, &be):
		list.Append(be)
	default:
		fmt.Fprintln(os.Stderr, err)
		return
	}

	if buildJSON {
		data, merr := json.MarshalIndent(list, "", "  ")
		if merr != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Fprintln(os.Stderr, string(data))
		return
	}
	list.Render(os.Stderr)
}

// newLogger builds the CLI logger: console output, debug level when verbose.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
