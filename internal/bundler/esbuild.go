package bundler

import (
	"context"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/agentuity/cli/internal/diag"
)

// Esbuild is the esbuild-backed Engine.
type Esbuild struct{}

var _ Engine = Esbuild{}

// Bundle maps Options onto one esbuild build and its diagnostics back into
// the build error taxonomy. esbuild messages are surfaced verbatim.
func (Esbuild) Bundle(ctx context.Context, opts Options) (*Result, error) {
	buildOpts := api.BuildOptions{
		EntryPoints: opts.EntryPoints,
		Outdir:      opts.Outdir,
		Bundle:      true,
		Write:       true,
		Format:      api.FormatESModule,
		Platform:    api.PlatformNode,
		Splitting:   opts.Splitting,
		External:    opts.External,
		Define:      opts.Define,
		PublicPath:  opts.PublicPath,
		AssetNames:  opts.AssetNames,
		Sourcemap:   api.SourceMapLinked,
		LogLevel:    api.LogLevelSilent,
	}
	if opts.Browser {
		buildOpts.Platform = api.PlatformBrowser
	}
	if opts.Production {
		buildOpts.MinifyWhitespace = true
		buildOpts.MinifySyntax = true
		buildOpts.Sourcemap = api.SourceMapNone
	}
	for _, p := range opts.Plugins {
		buildOpts.Plugins = append(buildOpts.Plugins, adaptPlugin(p))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	built := api.Build(buildOpts)

	result := &Result{}
	for _, m := range built.Errors {
		loc := diag.Location{}
		if m.Location != nil {
			loc = diag.Location{
				File:   m.Location.File,
				Line:   m.Location.Line,
				Column: m.Location.Column,
			}
		}
		result.Errors = append(result.Errors, diag.New("bundle", diag.CodeBundler, m.Text, loc))
	}
	for _, f := range built.OutputFiles {
		result.OutputFiles = append(result.OutputFiles, f.Path)
	}
	return result, nil
}

// esbuildHost adapts api.PluginBuild to the Host surface.
type esbuildHost struct {
	build api.PluginBuild
}

func (h esbuildHost) OnResolve(filter string, fn func(ResolveArgs) (ResolveResult, error)) {
	h.build.OnResolve(api.OnResolveOptions{Filter: filter}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
		res, err := fn(ResolveArgs{
			Path:       args.Path,
			Importer:   args.Importer,
			ResolveDir: args.ResolveDir,
		})
		if err != nil {
			return api.OnResolveResult{}, err
		}
		return api.OnResolveResult{Path: res.Path, External: res.External}, nil
	})
}

func (h esbuildHost) OnLoad(filter string, fn func(LoadArgs) (*LoadResult, error)) {
	h.build.OnLoad(api.OnLoadOptions{Filter: filter}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
		res, err := fn(LoadArgs{Path: args.Path})
		if err != nil {
			return api.OnLoadResult{}, err
		}
		if res == nil {
			return api.OnLoadResult{}, nil
		}
		contents := res.Contents
		return api.OnLoadResult{
			Contents:   &contents,
			Loader:     apiLoader(res.Loader),
			ResolveDir: filepath.Dir(args.Path),
		}, nil
	})
}

func adaptPlugin(p Plugin) api.Plugin {
	return api.Plugin{
		Name: p.Name,
		Setup: func(build api.PluginBuild) {
			p.Setup(esbuildHost{build: build})
		},
	}
}

func apiLoader(l Loader) api.Loader {
	switch l {
	case LoaderJS:
		return api.LoaderJS
	case LoaderJSX:
		return api.LoaderJSX
	case LoaderTS:
		return api.LoaderTS
	case LoaderTSX:
		return api.LoaderTSX
	default:
		return api.LoaderDefault
	}
}

// LoaderForFile picks the loader matching a module's extension.
func LoaderForFile(path string) Loader {
	switch filepath.Ext(path) {
	case ".ts", ".mts", ".cts":
		return LoaderTS
	case ".tsx":
		return LoaderTSX
	case ".jsx":
		return LoaderJSX
	case ".js", ".mjs", ".cjs":
		return LoaderJS
	default:
		return LoaderDefault
	}
}
