package bundler

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/agentuity/cli/internal/metadata"
)

// Hook filters over absolute module paths. The project convention fixes the
// three module names; extensions follow whatever the bundler accepts.
const (
	agentFilter = `[/\\]agent\.(ts|tsx|js|jsx|mjs|cjs)$`
	evalFilter  = `[/\\]eval\.(ts|tsx|js|jsx|mjs|cjs)$`
	routeFilter = `[/\\]route\.(ts|tsx|js|jsx|mjs|cjs)$`
)

// routerAlias is the binding name the generated bootstrap imports the shared
// router under, chosen to never collide with user code.
const routerAlias = "__agentuityRouter"

// SessionConfig parameterizes one plugin session.
type SessionConfig struct {
	RootDir      string   // project root, for project-relative filenames
	ProjectID    string
	DeploymentID string
	AppRoot      string   // absolute path of the application root module
	Modules      []string // absolute paths of every discovered agent/eval/route module
	Logger       *zap.Logger
}

// Session is the per-build accumulator behind the metadata plugin. One
// session serves exactly one bundler invocation and is never shared between
// targets. Hooks run concurrently inside the bundler, so all map access is
// mutex-guarded; the app-root hook blocks until every expected module has
// been processed, which is what lets it perform the single entrypoint
// rewrite with complete route/agent/eval knowledge.
type Session struct {
	cfg      SessionConfig
	expected map[string]bool

	mu      sync.Mutex
	agents  map[string]metadata.ModuleMetadata // keyed by module directory
	evals   map[string][]metadata.EvalMetadata
	evalMod map[string]string // module directory -> eval module path
	routes  []metadata.RouteDefinition
	pending int
	ready   chan struct{}
}

// NewSession creates the accumulator for one bundler invocation.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &Session{
		cfg:      cfg,
		expected: make(map[string]bool, len(cfg.Modules)),
		agents:   map[string]metadata.ModuleMetadata{},
		evals:    map[string][]metadata.EvalMetadata{},
		evalMod:  map[string]string{},
		pending:  len(cfg.Modules),
		ready:    make(chan struct{}),
	}
	for _, m := range cfg.Modules {
		s.expected[m] = true
	}
	if s.pending == 0 {
		close(s.ready)
	}
	return s
}

// Plugin returns the metadata plugin bound to this session.
func (s *Session) Plugin() Plugin {
	return Plugin{
		Name: "agentuity-metadata",
		Setup: func(host Host) {
			host.OnLoad(agentFilter, s.loadAgent)
			host.OnLoad(evalFilter, s.loadEval)
			host.OnLoad(routeFilter, s.loadRoute)
			host.OnLoad("^"+quoteFilter(s.cfg.AppRoot)+"$", s.loadAppRoot)
		},
	}
}

// done marks one expected module processed, releasing the app-root hook
// once the count drains.
func (s *Session) done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if s.pending == 0 {
		close(s.ready)
	}
}

func (s *Session) input(path string) (metadata.Input, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return metadata.Input{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return metadata.Input{
		RootDir:      s.cfg.RootDir,
		Filename:     path,
		Source:       string(source),
		ProjectID:    s.cfg.ProjectID,
		DeploymentID: s.cfg.DeploymentID,
	}, nil
}

func (s *Session) loadAgent(args LoadArgs) (*LoadResult, error) {
	if !s.expected[args.Path] {
		return nil, nil
	}
	defer s.done()

	in, err := s.input(args.Path)
	if err != nil {
		return nil, err
	}
	res, err := metadata.ExtractAgent(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.agents[filepath.Dir(args.Path)] = res.Metadata
	s.mu.Unlock()
	s.cfg.Logger.Debug("processed agent module",
		zap.String("file", res.Metadata.Filename),
		zap.String("agent", res.Metadata.Name))

	return &LoadResult{Contents: res.Source, Loader: LoaderForFile(args.Path)}, nil
}

func (s *Session) loadEval(args LoadArgs) (*LoadResult, error) {
	if !s.expected[args.Path] {
		return nil, nil
	}
	defer s.done()

	in, err := s.input(args.Path)
	if err != nil {
		return nil, err
	}
	res, err := metadata.ExtractEvals(in)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(args.Path)
	s.mu.Lock()
	s.evals[dir] = append(s.evals[dir], res.Evals...)
	s.evalMod[dir] = args.Path
	s.mu.Unlock()

	return &LoadResult{Contents: res.Source, Loader: LoaderForFile(args.Path)}, nil
}

func (s *Session) loadRoute(args LoadArgs) (*LoadResult, error) {
	if !s.expected[args.Path] {
		return nil, nil
	}
	defer s.done()

	in, err := s.input(args.Path)
	if err != nil {
		return nil, err
	}
	res, err := metadata.ExtractRoutes(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.routes = append(s.routes, res.Routes...)
	s.mu.Unlock()

	// Route modules are read, never rewritten.
	return nil, nil
}

// loadAppRoot performs the deferred entrypoint rewrite. It blocks until
// every other expected module has been processed so the injected bootstrap
// covers the complete route and eval sets.
func (s *Session) loadAppRoot(args LoadArgs) (*LoadResult, error) {
	source, err := os.ReadFile(args.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args.Path, err)
	}

	<-s.ready

	return &LoadResult{
		Contents: s.bootstrap(string(source)),
		Loader:   LoaderForFile(args.Path),
	}, nil
}

// bootstrap appends the generated registration code to the app root source:
// one side-effecting import per eval module, and per route a guarded async
// block importing the route module and registering it against the shared
// router.
func (s *Session) bootstrap(rootSrc string) string {
	rootDir := filepath.Dir(s.cfg.AppRoot)

	s.mu.Lock()
	routes := make([]metadata.RouteDefinition, len(s.routes))
	copy(routes, s.routes)
	evalMods := make([]string, 0, len(s.evalMod))
	for _, path := range s.evalMod {
		evalMods = append(evalMods, path)
	}
	s.mu.Unlock()

	sort.Strings(evalMods)
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	var b strings.Builder
	b.WriteString(rootSrc)
	if !strings.HasSuffix(rootSrc, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("\nimport { router as " + routerAlias + " } from \"@agentuity/runtime\";\n")

	for _, path := range evalMods {
		b.WriteString(fmt.Sprintf("import %q;\n", moduleSpecifier(rootDir, path)))
	}

	for _, r := range routes {
		spec := moduleSpecifier(rootDir, filepath.Join(s.cfg.RootDir, r.Filename))
		b.WriteString("(async () => {\n")
		b.WriteString("\ttry {\n")
		b.WriteString(fmt.Sprintf("\t\tconst mod = await import(%q);\n", spec))
		b.WriteString(fmt.Sprintf("\t\t%s.register(%q, %q, %q, mod.default);\n",
			routerAlias, r.Method, r.Path, r.ID))
		b.WriteString("\t} catch (err) {\n")
		b.WriteString(fmt.Sprintf("\t\tconsole.error(%q, err);\n",
			fmt.Sprintf("failed to register route %s %s", r.Method, r.Path)))
		b.WriteString("\t}\n")
		b.WriteString("})();\n")
	}
	return b.String()
}

// Agents returns the discovered agent modules joined with the evals declared
// alongside them, ordered by module directory.
func (s *Session) Agents() []metadata.DiscoveredAgent {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirs := make([]string, 0, len(s.agents))
	for dir := range s.agents {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	out := make([]metadata.DiscoveredAgent, 0, len(dirs))
	for _, dir := range dirs {
		out = append(out, metadata.DiscoveredAgent{
			Metadata: s.agents[dir],
			Evals:    s.evals[dir],
		})
	}
	return out
}

// Routes returns every discovered route, ordered by path then method.
func (s *Session) Routes() []metadata.RouteDefinition {
	s.mu.Lock()
	routes := make([]metadata.RouteDefinition, len(s.routes))
	copy(routes, s.routes)
	s.mu.Unlock()

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// moduleSpecifier rewrites an absolute module path into an import specifier
// relative to the importing module's directory, extension stripped.
func moduleSpecifier(fromDir, path string) string {
	rel, err := filepath.Rel(fromDir, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

// quoteFilter escapes a literal path for use in a hook filter regexp.
func quoteFilter(path string) string {
	return regexp.QuoteMeta(path)
}
