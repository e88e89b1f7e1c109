// Package metadata extracts declared metadata from agent, eval and route
// modules, computes their content-addressed identifiers, and rewrites module
// source in place to embed the computed values. Rewrites are span-anchored
// splices over the original text, so unrelated statements never change.
package metadata

import (
	"path"
	"strings"
	"time"
)

// Constructor function names recognized in project source.
const (
	agentConstructor  = "createAgent"
	evalConstructor   = "createEval"
	routerConstructor = "createRouter"
)

// ModuleMetadata is the identity of one agent module. ID is content-addressed
// over (project, deployment, filename, name, version) and therefore stable
// across repeated builds of unchanged source.
type ModuleMetadata struct {
	ID          string `json:"id"`
	Version     string `json:"version"`
	Identifier  string `json:"identifier"`
	Filename    string `json:"filename"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parent      string `json:"parent,omitempty"`
}

// EvalMetadata is one eval declaration inside an eval module. Names are
// unique within a single module; a duplicate is a hard error.
type EvalMetadata struct {
	Filename    string `json:"filename"`
	ID          string `json:"id"`
	Version     string `json:"version"`
	Identifier  string `json:"identifier"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RouteDefinition is one HTTP or trigger registration found in a route
// module. Path is normalized and prefixed by module kind.
type RouteDefinition struct {
	ID       string            `json:"id"`
	Method   string            `json:"method"`
	Type     string            `json:"type"`
	Filename string            `json:"filename"`
	Path     string            `json:"path"`
	Version  string            `json:"version"`
	Config   map[string]string `json:"config,omitempty"`
}

// AgentRecord aggregates an agent module with its evals and subagents.
type AgentRecord struct {
	ModuleMetadata
	Evals     []EvalMetadata `json:"evals,omitempty"`
	Subagents []AgentRecord  `json:"subagents,omitempty"`
}

// ProjectInfo identifies the project a build belongs to.
type ProjectInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	OrgID string `json:"org_id,omitempty"`
}

// GitInfo is best-effort build provenance from the enclosing git repository.
type GitInfo struct {
	Branch    string   `json:"branch,omitempty"`
	Commit    string   `json:"commit,omitempty"`
	Message   string   `json:"message,omitempty"`
	RemoteURL string   `json:"remote_url,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Deployment carries build provenance for one deployment.
type Deployment struct {
	ID         string    `json:"id"`
	CLIVersion string    `json:"cli_version"`
	Runtime    string    `json:"runtime"`
	Platform   string    `json:"platform"`
	Arch       string    `json:"arch"`
	Timestamp  time.Time `json:"timestamp"`
	Git        *GitInfo  `json:"git,omitempty"`
}

// BuildMetadata is the top-level manifest written at the end of a build.
// It starts empty, accumulates as modules are discovered, and is serialized
// once: pretty-printed for development builds, compact for production.
type BuildMetadata struct {
	Routes     []RouteDefinition `json:"routes"`
	Agents     []AgentRecord     `json:"agents"`
	Project    ProjectInfo       `json:"project"`
	Deployment Deployment        `json:"deployment"`
}

// Input is the per-module context handed to each extractor.
type Input struct {
	RootDir      string
	Filename     string // relative to RootDir, or absolute beneath it
	Source       string
	ProjectID    string
	DeploymentID string
}

// relFilename normalizes Filename to a slash-separated path relative to the
// project root.
func (in Input) relFilename() string {
	name := strings.ReplaceAll(in.Filename, "\\", "/")
	root := strings.ReplaceAll(in.RootDir, "\\", "/")
	if root != "" {
		root = strings.TrimSuffix(root, "/") + "/"
		name = strings.TrimPrefix(name, root)
	}
	return strings.TrimPrefix(name, "/")
}

// agentsRoot is the source subtree holding agent modules. A directory named
// "agents" anywhere else (say src/apis/agents) is not an agents tree.
const agentsRoot = "src/agents/"

// agentsSubpath returns the directory segments between the agents root and
// the module file, or nil when the module lives outside that tree.
// Exactly two segments means the module belongs to a subagent.
func agentsSubpath(rel string) []string {
	if !strings.HasPrefix(rel, agentsRoot) {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(rel, agentsRoot), "/")
	return parts[:len(parts)-1]
}

// containingDir returns the base name of the directory holding the module.
func containingDir(rel string) string {
	dir := path.Dir(rel)
	if dir == "." || dir == "/" {
		return strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	}
	return path.Base(dir)
}
