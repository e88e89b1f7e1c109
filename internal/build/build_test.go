package build

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentuity/cli/internal/bundler"
	"github.com/agentuity/cli/internal/diag"
	"github.com/agentuity/cli/internal/metadata"
)

// fakeEngine drives plugin hooks the way esbuild does — every entrypoint's
// load hooks run on their own goroutine — and writes one output file per
// entrypoint so the post-process and manifest phases have something real to
// chew on.
type fakeEngine struct {
	mu    sync.Mutex
	calls []bundler.Options
	fail  bool
}

type fakeHook struct {
	filter *regexp.Regexp
	fn     func(bundler.LoadArgs) (*bundler.LoadResult, error)
}

type fakeHost struct {
	hooks *[]fakeHook
}

func (h fakeHost) OnResolve(string, func(bundler.ResolveArgs) (bundler.ResolveResult, error)) {}

func (h fakeHost) OnLoad(filter string, fn func(bundler.LoadArgs) (*bundler.LoadResult, error)) {
	*h.hooks = append(*h.hooks, fakeHook{filter: regexp.MustCompile(filter), fn: fn})
}

func (e *fakeEngine) Bundle(ctx context.Context, opts bundler.Options) (*bundler.Result, error) {
	e.mu.Lock()
	e.calls = append(e.calls, opts)
	fail := e.fail
	e.mu.Unlock()

	if fail {
		return &bundler.Result{Errors: []diag.BuildError{
			diag.New("bundle", diag.CodeBundler, "Could not resolve \"missing\"",
				diag.Location{File: "src/index.ts", Line: 1, Column: 8}),
		}}, nil
	}

	var hooks []fakeHook
	for _, p := range opts.Plugins {
		p.Setup(fakeHost{hooks: &hooks})
	}

	if err := os.MkdirAll(opts.Outdir, 0o755); err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(opts.EntryPoints))
	for _, entry := range opts.EntryPoints {
		wg.Add(1)
		go func(entry string) {
			defer wg.Done()
			contents, err := os.ReadFile(entry)
			if err != nil {
				errCh <- err
				return
			}
			for _, h := range hooks {
				if !h.filter.MatchString(entry) {
					continue
				}
				res, err := h.fn(bundler.LoadArgs{Path: entry})
				if err != nil {
					errCh <- err
					return
				}
				if res != nil {
					contents = []byte(res.Contents)
					break
				}
			}
			name := strings.TrimSuffix(filepath.Base(entry), filepath.Ext(entry)) + ".js"
			errCh <- os.WriteFile(filepath.Join(opts.Outdir, name), contents, 0o644)
		}(entry)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	return &bundler.Result{}, nil
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

func projectFiles() map[string]string {
	return map[string]string{
		"agentuity.yaml": "name: helpdesk\nversion: 1.0.0\nproject_id: proj_abc\ndeployment_id: dep_xyz\n",
		"src/index.ts":   "export const app = true;\n",
		"src/agents/support/agent.ts": "export default createAgent({});\n",
		"src/agents/support/eval.ts":  "const scorer = createEval({ metadata: {} });\n",
		"src/agents/support/route.ts": "const r = createRouter();\nr.get(\"/status\");\nexport default r;\n",
		"src/apis/admin/route.ts":     "const r = createRouter();\nr.post(\"/reload\");\nexport default r;\n",
	}
}

func TestBuildEndToEnd(t *testing.T) {
	root := writeTree(t, projectFiles())
	engine := &fakeEngine{}

	res, err := Build(context.Background(), Options{
		RootDir: root,
		Dev:     true,
		Engine:  engine,
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Output)

	// Manifests land at the output root.
	data, err := os.ReadFile(filepath.Join(root, OutputDir, MetadataFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  ", "dev manifests are pretty-printed")

	var md metadata.BuildMetadata
	require.NoError(t, json.Unmarshal(data, &md))
	require.Len(t, md.Agents, 1)
	assert.Equal(t, "support", md.Agents[0].Name)
	require.Len(t, md.Agents[0].Evals, 1)
	require.Len(t, md.Routes, 2)
	assert.Equal(t, "proj_abc", md.Project.ID)
	assert.Equal(t, "dep_xyz", md.Deployment.ID)
	assert.NotZero(t, md.Deployment.Timestamp)

	var mapping map[string]string
	data, err = os.ReadFile(filepath.Join(root, OutputDir, RouteMappingFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &mapping))
	assert.Contains(t, mapping, "GET /agent/support/status")
	assert.Contains(t, mapping, "POST /api/admin/reload")

	data, err = os.ReadFile(filepath.Join(root, OutputDir, PackageFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"helpdesk","version":"1.0.0"}`, string(data))

	// Registry output lands in the project source tree.
	data, err = os.ReadFile(filepath.Join(root, "src", "agents", "registry.generated.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "export const registry")

	// The server bundle carried the injected bootstrap.
	data, err = os.ReadFile(filepath.Join(root, OutputDir, "server", "index.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "@agentuity/runtime")
}

func TestBuildProductionManifestCompact(t *testing.T) {
	root := writeTree(t, projectFiles())
	_, err := Build(context.Background(), Options{RootDir: root, Engine: &fakeEngine{}})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, OutputDir, MetadataFile))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n  ", "production manifests are compact")
}

func TestBuildMissingAgentsDir(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.ts": "export const app = true;\n",
	})
	_, err := Build(context.Background(), Options{RootDir: root, Engine: &fakeEngine{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), diag.CodeMissingAgentsDir)
}

func TestBuildMissingAppRoot(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/agents/support/agent.ts": "export default createAgent({});\n",
	})
	_, err := Build(context.Background(), Options{RootDir: root, Engine: &fakeEngine{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), diag.CodeMissingAppRoot)
}

func TestBuildOrphanSubagent(t *testing.T) {
	files := projectFiles()
	delete(files, "src/agents/support/agent.ts")
	files["src/agents/billing/invoices/agent.ts"] = "export default createAgent({});\n"
	root := writeTree(t, files)

	_, err := Build(context.Background(), Options{RootDir: root, Engine: &fakeEngine{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoices")
	assert.Contains(t, err.Error(), "billing")
}

func TestBuildBundlerFailureCleansOutput(t *testing.T) {
	root := writeTree(t, projectFiles())
	_, err := Build(context.Background(), Options{RootDir: root, Engine: &fakeEngine{fail: true}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Could not resolve "missing"`)
	assert.Contains(t, err.Error(), "src/index.ts:1:8")

	_, statErr := os.Stat(filepath.Join(root, OutputDir, "server"))
	assert.True(t, os.IsNotExist(statErr), "failed target's partial output must be removed")
}

func TestBuildWorkbenchTarget(t *testing.T) {
	files := projectFiles()
	files["src/index.ts"] = `export const app = createApp({
	workbench: { route: "/bench", port: 4100, headers: { "x-frame-options": "DENY" } },
});
`
	root := writeTree(t, files)
	engine := &fakeEngine{}

	res, err := Build(context.Background(), Options{RootDir: root, Dev: true, Engine: engine})
	require.NoError(t, err)

	joined := strings.Join(res.Output, "\n")
	assert.Contains(t, joined, "workbench")

	data, err := os.ReadFile(filepath.Join(root, OutputDir, "workbench", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "workbench")

	data, err = os.ReadFile(filepath.Join(root, OutputDir, "workbench", "workbench.entry.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"route":"/bench"`)
}

func TestDetectWorkbench(t *testing.T) {
	cfg := detectWorkbench(`const workbench = { route: "/w", port: 4000 };`)
	require.NotNil(t, cfg)
	assert.Equal(t, "/w", cfg.Route)
	assert.Equal(t, 4000, cfg.Port)

	assert.Nil(t, detectWorkbench("export const app = true;\n"))

	cfg = detectWorkbench(`export default createApp({ workbench: {} });`)
	require.NotNil(t, cfg)
	assert.Equal(t, "/workbench", cfg.Route, "route defaults when omitted")
}

func TestDefineEnv(t *testing.T) {
	defines := defineEnv(map[string]string{"API_URL": "https://api.example.com"})
	assert.Equal(t, `"https://api.example.com"`, defines["process.env.API_URL"])
	assert.Nil(t, defineEnv(nil))
}
