package bundler

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProject lays out a minimal project tree and returns its root.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

func TestSessionAccumulatesModules(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/index.ts": "console.log(\"boot\");\n",
		"src/agents/support/agent.ts": "export default createAgent({});\n",
		"src/agents/support/eval.ts":  "const scorer = createEval({ metadata: {} });\n",
		"src/agents/support/route.ts": "const r = createRouter();\nr.get(\"/status\");\nexport default r;\n",
	})
	agentPath := filepath.Join(root, "src/agents/support/agent.ts")
	evalPath := filepath.Join(root, "src/agents/support/eval.ts")
	routePath := filepath.Join(root, "src/agents/support/route.ts")

	s := NewSession(SessionConfig{
		RootDir:      root,
		ProjectID:    "proj_abc",
		DeploymentID: "dep_xyz",
		AppRoot:      filepath.Join(root, "src/index.ts"),
		Modules:      []string{agentPath, evalPath, routePath},
	})

	agentOut, err := s.loadAgent(LoadArgs{Path: agentPath})
	require.NoError(t, err)
	require.NotNil(t, agentOut)
	assert.Contains(t, agentOut.Contents, `metadata: { name: "support"`)
	assert.Equal(t, LoaderTS, agentOut.Loader)

	evalOut, err := s.loadEval(LoadArgs{Path: evalPath})
	require.NoError(t, err)
	require.NotNil(t, evalOut)
	assert.Contains(t, evalOut.Contents, `id: "`)

	routeOut, err := s.loadRoute(LoadArgs{Path: routePath})
	require.NoError(t, err)
	assert.Nil(t, routeOut, "route modules pass through unmodified")

	agents := s.Agents()
	require.Len(t, agents, 1)
	assert.Equal(t, "support", agents[0].Metadata.Name)
	require.Len(t, agents[0].Evals, 1)
	assert.Equal(t, "scorer", agents[0].Evals[0].Name)

	routes := s.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "GET", routes[0].Method)
	assert.Equal(t, "/agent/support/status", routes[0].Path)
}

func TestSessionSkipsUnexpectedModules(t *testing.T) {
	root := writeProject(t, map[string]string{
		"node_modules/dep/agent.ts": "export default createAgent({});\n",
	})
	s := NewSession(SessionConfig{RootDir: root, AppRoot: filepath.Join(root, "src/index.ts")})

	out, err := s.loadAgent(LoadArgs{Path: filepath.Join(root, "node_modules/dep/agent.ts")})
	require.NoError(t, err)
	assert.Nil(t, out, "modules outside the discovered set pass through")
	assert.Empty(t, s.Agents())
}

func TestSessionAppRootWaitsForModules(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/index.ts":                "export const app = true;\n",
		"src/agents/support/agent.ts": "export default createAgent({});\n",
		"src/agents/support/eval.ts":  "const scorer = createEval({});\n",
		"src/agents/support/route.ts": "const r = createRouter();\nr.post(\"/messages\");\nexport default r;\n",
	})
	agentPath := filepath.Join(root, "src/agents/support/agent.ts")
	evalPath := filepath.Join(root, "src/agents/support/eval.ts")
	routePath := filepath.Join(root, "src/agents/support/route.ts")
	appRoot := filepath.Join(root, "src/index.ts")

	s := NewSession(SessionConfig{
		RootDir:      root,
		ProjectID:    "proj_abc",
		DeploymentID: "dep_xyz",
		AppRoot:      appRoot,
		Modules:      []string{agentPath, evalPath, routePath},
	})

	// The app-root hook must block until every module hook has run, the
	// way the bundler's concurrent hook scheduling exercises it.
	var wg sync.WaitGroup
	var rootOut *LoadResult
	var rootErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		rootOut, rootErr = s.loadAppRoot(LoadArgs{Path: appRoot})
	}()

	_, err := s.loadAgent(LoadArgs{Path: agentPath})
	require.NoError(t, err)
	_, err = s.loadEval(LoadArgs{Path: evalPath})
	require.NoError(t, err)
	_, err = s.loadRoute(LoadArgs{Path: routePath})
	require.NoError(t, err)
	wg.Wait()

	require.NoError(t, rootErr)
	require.NotNil(t, rootOut)
	src := rootOut.Contents

	assert.True(t, strings.HasPrefix(src, "export const app = true;\n"),
		"original root source must lead the bootstrap")
	assert.Contains(t, src, `import { router as __agentuityRouter } from "@agentuity/runtime";`)
	assert.Contains(t, src, `import "./agents/support/eval";`)
	assert.Contains(t, src, `const mod = await import("./agents/support/route");`)

	route := s.Routes()[0]
	assert.Contains(t, src, `__agentuityRouter.register("POST", "/agent/support/messages", "`+route.ID+`", mod.default);`)
	assert.Contains(t, src, "} catch (err) {")
}

func TestSessionAppRootNoModules(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/index.ts": "export const app = true;\n",
	})
	appRoot := filepath.Join(root, "src/index.ts")
	s := NewSession(SessionConfig{RootDir: root, AppRoot: appRoot})

	out, err := s.loadAppRoot(LoadArgs{Path: appRoot})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Contains(t, out.Contents, "@agentuity/runtime")
}

func TestLoaderForFile(t *testing.T) {
	cases := map[string]Loader{
		"a/agent.ts":  LoaderTS,
		"a/agent.tsx": LoaderTSX,
		"a/index.js":  LoaderJS,
		"a/index.jsx": LoaderJSX,
		"a/data.bin":  LoaderDefault,
	}
	for path, want := range cases {
		assert.Equal(t, want, LoaderForFile(path), path)
	}
}
