// Package bundler wraps the external bundler behind a small engine
// interface so the orchestrator and tests never depend on it directly, and
// hosts the plugin adapter that extracts and injects module metadata during
// a bundle pass.
package bundler

import (
	"context"

	"github.com/agentuity/cli/internal/diag"
)

// Loader tells the bundler how to interpret rewritten module contents.
type Loader int

const (
	LoaderDefault Loader = iota
	LoaderJS
	LoaderJSX
	LoaderTS
	LoaderTSX
)

// Options configures one bundler invocation. Each of the server, web and
// workbench targets gets its own Options and its own plugin instances.
type Options struct {
	EntryPoints []string
	Outdir      string
	Browser     bool
	Production  bool
	Splitting   bool
	External    []string
	Define      map[string]string
	PublicPath  string
	AssetNames  string
	Plugins     []Plugin
}

// ResolveArgs describes one import being resolved.
type ResolveArgs struct {
	Path       string
	Importer   string
	ResolveDir string
}

// ResolveResult redirects or externalizes a resolution. A zero Path leaves
// the bundler's own resolution in place.
type ResolveResult struct {
	Path     string
	External bool
}

// LoadArgs describes one module being loaded.
type LoadArgs struct {
	Path string
}

// LoadResult substitutes the module's contents. Hooks return nil to pass
// the module through untouched.
type LoadResult struct {
	Contents string
	Loader   Loader
}

// Host is the surface a plugin registers its hooks against. Filters are
// regular expressions over absolute module paths.
type Host interface {
	OnResolve(filter string, fn func(ResolveArgs) (ResolveResult, error))
	OnLoad(filter string, fn func(LoadArgs) (*LoadResult, error))
}

// Plugin is one named hook bundle.
type Plugin struct {
	Name  string
	Setup func(Host)
}

// Result reports one invocation's outcome. Errors carry the bundler's own
// diagnostics verbatim, message and location included.
type Result struct {
	Errors      []diag.BuildError
	OutputFiles []string
}

// ErrOrNil converts accumulated bundler diagnostics into an error.
func (r *Result) ErrOrNil() error {
	if len(r.Errors) == 0 {
		return nil
	}
	l := &diag.List{}
	l.Append(r.Errors...)
	return l
}

// Engine runs the external bundler. The production implementation is
// esbuild-backed; tests substitute a fake.
type Engine interface {
	Bundle(ctx context.Context, opts Options) (*Result, error)
}
