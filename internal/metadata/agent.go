package metadata

import (
	"strconv"
	"strings"

	"github.com/agentuity/cli/internal/diag"
	"github.com/agentuity/cli/internal/hash"
	"github.com/agentuity/cli/internal/source"
	utilstrings "github.com/agentuity/cli/internal/util/strings"
)

// AgentResult is the outcome of processing one agent module.
type AgentResult struct {
	Metadata ModuleMetadata
	Source   string // rewritten module text with metadata embedded
}

// ExtractAgent locates the default-exported createAgent(...) call in an agent
// module, extracts any declared metadata, computes the missing identity
// fields, and rewrites the source to embed them. Existing id/version values
// are kept, which makes the injection idempotent: re-running on the rewritten
// output reproduces identical identifiers.
func ExtractAgent(in Input) (*AgentResult, error) {
	rel := in.relFilename()
	mod := source.Parse(in.Source)

	call := findDefaultConstructorCall(mod, agentConstructor)
	if call == nil {
		return nil, diag.Newf("extract", diag.CodeMissingAgent,
			diag.Location{File: rel},
			"no default-exported %s(...) declaration found in %s (project root %s)",
			agentConstructor, rel, in.RootDir)
	}

	// Directory-derived identity: the containing directory names the agent,
	// and exactly two segments beneath the agents root marks a subagent.
	dirName := containingDir(rel)
	parent := ""
	if segs := agentsSubpath(rel); len(segs) == 2 {
		parent = segs[0]
		dirName = segs[1]
	}

	arg := firstObjectArg(call)
	metaObj := objectProp(arg, "metadata")

	md := ModuleMetadata{
		Name:        stringProp(metaObj, "name"),
		Description: stringProp(metaObj, "description"),
		ID:          stringProp(metaObj, "id"),
		Version:     stringProp(metaObj, "version"),
		Identifier:  stringProp(metaObj, "identifier"),
		Parent:      parent,
		Filename:    rel,
	}
	if md.Name == "" {
		md.Name = dirName
	}
	if md.Version == "" {
		md.Version = hash.Content(in.Source)
	}
	if md.ID == "" {
		md.ID = hash.ID(in.ProjectID, in.DeploymentID, rel, md.Name, md.Version)
	}
	if md.Identifier == "" {
		md.Identifier = generatedIdentifier(parent, md.Name)
	}

	rewritten := in.Source
	switch {
	case metaObj != nil:
		// Existing metadata: keep declared values, append what is missing.
		var missing []field
		for _, f := range metadataFields(md) {
			if metaObj.Prop(f.key) == nil {
				missing = append(missing, f)
			}
		}
		if edit := appendFields(metaObj, missing); validEdit(edit) {
			rewritten = source.ApplyEdits(in.Source, []source.Edit{edit})
		}
	case arg != nil:
		// No metadata property: synthesize one from scratch.
		entries := make([]string, 0, 5)
		for _, f := range metadataFields(md) {
			entries = append(entries, f.key+": "+strconv.Quote(f.value))
		}
		text := "metadata: { " + strings.Join(entries, ", ") + " }"
		var edit source.Edit
		if len(arg.Props) == 0 {
			edit = source.Edit{Start: arg.LBrace + 1, End: arg.LBrace + 1, Text: " " + text + " "}
		} else {
			edit = source.Edit{Start: arg.Props[0].Span().Start, End: arg.Props[0].Span().Start, Text: text + ", "}
		}
		rewritten = source.ApplyEdits(in.Source, []source.Edit{edit})
	default:
		// Constructor called without an object argument: nothing to rewrite,
		// the computed metadata still flows into the manifest.
	}

	return &AgentResult{Metadata: md, Source: rewritten}, nil
}

// metadataFields lists the injectable identity fields in their canonical
// injection order.
func metadataFields(md ModuleMetadata) []field {
	fields := []field{
		{"name", md.Name},
		{"id", md.ID},
		{"version", md.Version},
		{"identifier", md.Identifier},
		{"filename", md.Filename},
	}
	if md.Parent != "" {
		fields = append(fields, field{"parent", md.Parent})
	}
	return fields
}

// generatedIdentifier joins the parent name (when any) with the agent's own
// name and camel-cases the result. The same rule drives registry collision
// detection.
func generatedIdentifier(parent, name string) string {
	if parent != "" {
		return utilstrings.ToCamelCase(parent + "_" + name)
	}
	return utilstrings.ToCamelCase(name)
}

// findDefaultConstructorCall resolves the module's default export to a call
// of the named constructor, following one level of aliasing: a direct
// `export default create*(...)`, `export default x` where x is a top-level
// declaration initialized by the constructor, or `export { x as default }`.
func findDefaultConstructorCall(mod *source.Module, constructor string) *source.CallExpr {
	decls := map[string]*source.VarDeclStmt{}
	for _, stmt := range mod.Statements {
		if d, ok := stmt.(*source.VarDeclStmt); ok {
			decls[d.Name] = d
		}
	}

	asConstructorCall := func(e source.Expr) *source.CallExpr {
		call := source.AsCall(e)
		if call != nil && source.CalleeName(call.Callee) == constructor {
			return call
		}
		return nil
	}

	for _, stmt := range mod.Statements {
		switch s := stmt.(type) {
		case *source.ExportDefaultStmt:
			if call := asConstructorCall(s.Expr); call != nil {
				return call
			}
			if id, ok := s.Expr.(*source.Ident); ok {
				if d := decls[id.Name]; d != nil {
					if call := asConstructorCall(d.Init); call != nil {
						return call
					}
				}
			}
		case *source.ExportNamedStmt:
			for _, name := range s.Names {
				if name.Exported != "default" {
					continue
				}
				if d := decls[name.Local]; d != nil {
					if call := asConstructorCall(d.Init); call != nil {
						return call
					}
				}
			}
		}
	}
	return nil
}
