// Package build orchestrates the end-to-end pipeline: entrypoint discovery,
// the server/web/workbench bundle targets, the export dedup post-pass,
// metadata assembly and manifest writing.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentuity/cli/internal/bundler"
	"github.com/agentuity/cli/internal/dedup"
	"github.com/agentuity/cli/internal/diag"
	"github.com/agentuity/cli/internal/metadata"
	"github.com/agentuity/cli/internal/project"
	"github.com/agentuity/cli/internal/registry"
)

// OutputDir is the build output root under the project directory.
const OutputDir = ".agentuity"

// runtimePackage is the shared runtime the generated bootstrap imports; it
// ships with the deploy target and is never bundled in.
const runtimePackage = "@agentuity/runtime"

// Options parameterizes one build invocation.
type Options struct {
	RootDir      string
	Dev          bool
	Env          map[string]string
	OrgID        string
	ProjectID    string
	DeploymentID string
	Project      *project.Project
	Port         int
	Logger       *zap.Logger
	Engine       bundler.Engine // nil selects the esbuild engine
}

// Result reports a completed build.
type Result struct {
	Output   []string // human-readable status lines
	OutDir   string
	Metadata *metadata.BuildMetadata
}

// Build runs the full pipeline. Any hard failure aborts the build and
// removes the failed target's partial output directory.
func Build(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Engine == nil {
		opts.Engine = bundler.Esbuild{}
	}
	if opts.Project == nil {
		p, err := project.Load(opts.RootDir)
		if err != nil {
			return nil, err
		}
		opts.Project = p
	}
	if opts.ProjectID == "" {
		opts.ProjectID = opts.Project.ProjectID
	}
	if opts.DeploymentID == "" {
		opts.DeploymentID = opts.Project.DeploymentID
	}
	if opts.DeploymentID == "" {
		opts.DeploymentID = uuid.NewString()
	}
	if opts.OrgID == "" {
		opts.OrgID = opts.Project.OrgID
	}
	log := opts.Logger.With(zap.String("build", uuid.NewString()[:8]))

	disc, err := Discover(opts.RootDir)
	if err != nil {
		return nil, err
	}
	log.Debug("discovered entrypoints",
		zap.Int("modules", len(disc.Modules)),
		zap.Int("web_entries", len(disc.WebEntries)))

	outRoot := filepath.Join(opts.RootDir, OutputDir)
	if err := os.MkdirAll(outRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}

	result := &Result{OutDir: outRoot}

	// Compile(server): one invocation over every module plus the app root,
	// with the metadata session plugin attached.
	session := bundler.NewSession(bundler.SessionConfig{
		RootDir:      opts.RootDir,
		ProjectID:    opts.ProjectID,
		DeploymentID: opts.DeploymentID,
		AppRoot:      disc.AppRoot,
		Modules:      disc.Modules,
		Logger:       log,
	})
	serverDir := filepath.Join(outRoot, "server")
	serverOpts := bundler.Options{
		EntryPoints: append(append([]string{}, disc.Modules...), disc.AppRoot),
		Outdir:      serverDir,
		Production:  !opts.Dev,
		Splitting:   true,
		External:    []string{runtimePackage},
		Define:      defineEnv(opts.Env),
		Plugins:     []bundler.Plugin{session.Plugin()},
	}
	if err := runTarget(ctx, opts.Engine, serverOpts, serverDir); err != nil {
		return nil, err
	}
	result.Output = append(result.Output,
		fmt.Sprintf("server bundle: %d modules -> %s", len(disc.Modules), serverDir))

	// Compile(web) and Compile(workbench) are independent targets and run
	// concurrently. Failures are aggregated, never masked by a sibling's
	// success.
	var wb *WorkbenchConfig
	appRootSource, err := os.ReadFile(disc.AppRoot)
	if err != nil {
		return nil, fmt.Errorf("reading app root: %w", err)
	}
	wb = detectWorkbench(string(appRootSource))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var targetErrs []error
	addErr := func(err error) {
		mu.Lock()
		targetErrs = append(targetErrs, err)
		mu.Unlock()
	}
	addLine := func(line string) {
		mu.Lock()
		result.Output = append(result.Output, line)
		mu.Unlock()
	}

	var dirs []string
	dirs = append(dirs, serverDir)

	if len(disc.WebEntries) > 0 {
		webDir := filepath.Join(outRoot, "web")
		dirs = append(dirs, webDir)
		wg.Add(1)
		go func() {
			defer wg.Done()
			webOpts := bundler.Options{
				EntryPoints: disc.WebEntries,
				Outdir:      webDir,
				Browser:     true,
				Production:  !opts.Dev,
				Define:      defineEnv(opts.Env),
			}
			if !opts.Dev {
				webOpts.AssetNames = "[name]-[hash]"
				webOpts.PublicPath = "/static"
			}
			if err := runTarget(ctx, opts.Engine, webOpts, webDir); err != nil {
				addErr(err)
				return
			}
			addLine(fmt.Sprintf("web bundle: %d entrypoints -> %s", len(disc.WebEntries), webDir))
		}()
	}

	if wb != nil {
		wbDir := filepath.Join(outRoot, "workbench")
		dirs = append(dirs, wbDir)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := buildWorkbench(ctx, opts, outRoot, wbDir, wb); err != nil {
				addErr(err)
				return
			}
			addLine(fmt.Sprintf("workbench bundle: route %s -> %s", wb.Route, wbDir))
		}()
	}
	wg.Wait()
	if len(targetErrs) > 0 {
		l := &diag.List{}
		for _, err := range targetErrs {
			if be, ok := err.(diag.BuildError); ok {
				l.Append(be)
			} else if el, ok := err.(*diag.List); ok {
				l.Append(el.Errors...)
			} else {
				l.Append(diag.New("bundle", diag.CodeBundler, err.Error(), diag.Location{}))
			}
		}
		return nil, l
	}

	// PostProcess: repair bundler output in every produced directory.
	for _, dir := range dirs {
		if err := dedup.ProcessDir(dir); err != nil {
			return nil, err
		}
	}

	// AssembleMetadata.
	records, err := metadata.AggregateAgents(session.Agents())
	if err != nil {
		return nil, err
	}
	agentsDir := filepath.Join(opts.RootDir, "src", "agents")
	if err := registry.NewGenerator(records).Write(agentsDir); err != nil {
		return nil, err
	}
	md := &metadata.BuildMetadata{
		Routes: session.Routes(),
		Agents: records,
		Project: metadata.ProjectInfo{
			ID:    opts.ProjectID,
			Name:  opts.Project.Name,
			OrgID: opts.OrgID,
		},
		Deployment: provenance(opts.RootDir, opts.DeploymentID),
	}
	result.Metadata = md

	// Write.
	if err := writeManifests(outRoot, md, opts.Project.Name, opts.Project.Version, opts.Dev); err != nil {
		return nil, err
	}
	result.Output = append(result.Output,
		fmt.Sprintf("%d agents, %d routes -> %s", len(records), len(md.Routes), filepath.Join(outRoot, MetadataFile)))

	log.Info("build complete",
		zap.Int("agents", len(records)),
		zap.Int("routes", len(md.Routes)),
		zap.Bool("dev", opts.Dev))
	return result, nil
}

// runTarget invokes one bundle target and removes its partial output on
// failure so no half-built directory survives.
func runTarget(ctx context.Context, engine bundler.Engine, opts bundler.Options, outDir string) error {
	res, err := engine.Bundle(ctx, opts)
	if err == nil {
		err = res.ErrOrNil()
	}
	if err != nil {
		os.RemoveAll(outDir)
		return err
	}
	return nil
}

// buildWorkbench synthesizes the workbench sources and bundles them as the
// third target. The HTML shell is copied alongside the bundled script.
func buildWorkbench(ctx context.Context, opts Options, outRoot, wbDir string, wb *WorkbenchConfig) error {
	staging := filepath.Join(outRoot, "workbench-src")
	htmlPath, err := synthesizeWorkbench(staging, wb)
	if err != nil {
		return err
	}

	wbOpts := bundler.Options{
		EntryPoints: []string{filepath.Join(staging, "workbench.entry.ts")},
		Outdir:      wbDir,
		Browser:     true,
		Production:  !opts.Dev,
	}
	if err := runTarget(ctx, opts.Engine, wbOpts, wbDir); err != nil {
		return err
	}

	html, err := os.ReadFile(htmlPath)
	if err != nil {
		return fmt.Errorf("reading workbench shell: %w", err)
	}
	if err := os.WriteFile(filepath.Join(wbDir, "index.html"), html, 0o644); err != nil {
		return fmt.Errorf("writing workbench shell: %w", err)
	}
	return nil
}

// defineEnv maps env overrides onto bundler compile-time defines.
func defineEnv(env map[string]string) map[string]string {
	if len(env) == 0 {
		return nil
	}
	defines := make(map[string]string, len(env))
	for k, v := range env {
		defines["process.env."+k] = strconv.Quote(v)
	}
	return defines
}
