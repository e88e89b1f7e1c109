// Package registry generates the project's agent registry module and the
// client-side type declarations from the full set of discovered agents.
// Generation runs once per build, after every agent module has been
// extracted, and fails fast on identifier collisions before writing anything.
package registry

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/agentuity/cli/internal/diag"
	"github.com/agentuity/cli/internal/metadata"
	utilstrings "github.com/agentuity/cli/internal/util/strings"
)

// RegistryFile and ClientsFile are the generated output names, written under
// the project's src/agents directory and overwritten on every build.
const (
	RegistryFile = "registry.generated.ts"
	ClientsFile  = "clients.generated.d.ts"
)

const generatedHeader = "// Code generated by agentuity. DO NOT EDIT.\n\n"

// reservedProps are agent-object properties a subagent key must never shadow
// when composed onto its parent.
var reservedProps = map[string]bool{
	"metadata":     true,
	"run":          true,
	"inputSchema":  true,
	"outputSchema": true,
	"stream":       true,
}

// Generator emits the registry module and client declarations.
type Generator struct {
	agents []metadata.AgentRecord
}

// NewGenerator creates a generator over the aggregated agent records.
func NewGenerator(agents []metadata.AgentRecord) *Generator {
	return &Generator{agents: agents}
}

// entry is one importable agent module, flattened from the record tree.
type entry struct {
	ident    string // generated import identifier
	name     string // agent's own name
	parent   string // parent agent name, "" for top level
	childKey string // property key on the parent, "" for top level
	filename string // project-relative module path
}

// Generate produces both generated sources. It validates identifier
// uniqueness and reserved property names first and produces no output when
// either check fails.
func (g *Generator) Generate() (registrySrc, clientSrc string, err error) {
	entries := g.flatten()
	if err := g.validate(entries); err != nil {
		return "", "", err
	}
	return g.registrySource(entries), g.clientSource(entries), nil
}

// Write generates both files and writes them into the project's agents
// directory, replacing any previous output.
func (g *Generator) Write(agentsDir string) error {
	registrySrc, clientSrc, err := g.Generate()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(agentsDir, RegistryFile), []byte(registrySrc), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", RegistryFile, err)
	}
	if err := os.WriteFile(filepath.Join(agentsDir, ClientsFile), []byte(clientSrc), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ClientsFile, err)
	}
	return nil
}

func (g *Generator) flatten() []entry {
	var entries []entry
	for _, a := range g.agents {
		entries = append(entries, entry{
			ident:    a.Identifier,
			name:     a.Name,
			filename: a.Filename,
		})
		for _, sub := range a.Subagents {
			entries = append(entries, entry{
				ident:    sub.Identifier,
				name:     sub.Name,
				parent:   a.Name,
				childKey: utilstrings.ToCamelCase(sub.Name),
				filename: sub.Filename,
			})
		}
	}
	return entries
}

// validate batches every identifier collision and reserved-name violation
// into one error so a single build surfaces all of them.
func (g *Generator) validate(entries []entry) error {
	byIdent := map[string][]entry{}
	for _, e := range entries {
		byIdent[e.ident] = append(byIdent[e.ident], e)
	}

	var errs diag.List
	var collided []string
	for ident, group := range byIdent {
		if len(group) > 1 {
			collided = append(collided, ident)
		}
	}
	sort.Strings(collided)
	for _, ident := range collided {
		group := byIdent[ident]
		names := make([]string, 0, len(group))
		for _, e := range group {
			if e.parent != "" {
				names = append(names, e.parent+"/"+e.name)
			} else {
				names = append(names, e.name)
			}
		}
		errs.Append(diag.Newf("registry", diag.CodeIdentCollision, diag.Location{},
			"agents %s generate the same registry identifier %q",
			strings.Join(names, " and "), ident))
	}

	for _, e := range entries {
		if e.childKey != "" && reservedProps[e.childKey] {
			errs.Append(diag.Newf("registry", diag.CodeReservedName,
				diag.Location{File: e.filename},
				"subagent %q of agent %q maps to reserved property %q",
				e.name, e.parent, e.childKey))
		}
	}
	return errs.ErrOrNil()
}

// registrySource emits registry.generated.ts: one default import per agent
// module, the registry object (subagents composed onto a copy of the parent,
// never mutated in), and the derived type aliases.
func (g *Generator) registrySource(entries []entry) string {
	var buf bytes.Buffer
	buf.WriteString(generatedHeader)

	for _, e := range entries {
		buf.WriteString(fmt.Sprintf("import %s from %q;\n", e.ident, importPath(e.filename)))
	}
	buf.WriteString("\nexport const registry = {\n")

	for _, a := range g.agents {
		if len(a.Subagents) == 0 {
			buf.WriteString(fmt.Sprintf("\t%s: %s,\n", propKey(a.Name), a.Identifier))
			continue
		}
		buf.WriteString(fmt.Sprintf("\t%s: {\n\t\t...%s,\n", propKey(a.Name), a.Identifier))
		for _, sub := range a.Subagents {
			buf.WriteString(fmt.Sprintf("\t\t%s: %s,\n",
				propKey(utilstrings.ToCamelCase(sub.Name)), sub.Identifier))
		}
		buf.WriteString("\t},\n")
	}
	buf.WriteString("} as const;\n\n")
	buf.WriteString("export type AgentRegistry = typeof registry;\n")
	buf.WriteString("export type AgentName = keyof AgentRegistry;\n")
	return buf.String()
}

// clientSource emits clients.generated.d.ts: type-only declarations keyed by
// the agent name, with subagents under dotted "parent.child" keys.
func (g *Generator) clientSource(entries []entry) string {
	var buf bytes.Buffer
	buf.WriteString(generatedHeader)
	buf.WriteString("export type AgentClients = {\n")
	for _, a := range g.agents {
		buf.WriteString(fmt.Sprintf("\t%q: typeof import(%q).default;\n",
			a.Name, importPath(a.Filename)))
		for _, sub := range a.Subagents {
			buf.WriteString(fmt.Sprintf("\t%q: typeof import(%q).default;\n",
				a.Name+"."+sub.Name, importPath(sub.Filename)))
		}
	}
	buf.WriteString("};\n")
	return buf.String()
}

// importPath rewrites a project-relative module filename into an import
// specifier relative to the src/agents directory, extension stripped.
func importPath(filename string) string {
	p := path.Clean(filepath.ToSlash(filename))
	if i := strings.Index(p, "agents/"); i >= 0 {
		p = p[i+len("agents/"):]
	}
	p = strings.TrimSuffix(p, path.Ext(p))
	return "./" + p
}

// propKey quotes object keys that are not plain identifiers.
func propKey(name string) string {
	for i, r := range name {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return strconv.Quote(name)
			}
		default:
			return strconv.Quote(name)
		}
	}
	if name == "" {
		return strconv.Quote(name)
	}
	return name
}
