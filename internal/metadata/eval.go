package metadata

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agentuity/cli/internal/diag"
	"github.com/agentuity/cli/internal/hash"
	"github.com/agentuity/cli/internal/source"
	utilstrings "github.com/agentuity/cli/internal/util/strings"
)

// EvalResult is the outcome of processing one eval module.
type EvalResult struct {
	Evals  []EvalMetadata
	Source string // rewritten module text with metadata embedded
}

// ExtractEvals scans an eval module for top-level variable declarations
// initialized by createEval(...), derives each eval's final name (declared
// metadata.name, else kebab-case of the variable identifier), computes IDs,
// and injects id/version/identifier/filename into each eval's metadata
// object. Two evals resolving to the same final name within one file is a
// hard error reporting every colliding name together.
func ExtractEvals(in Input) (*EvalResult, error) {
	rel := in.relFilename()
	mod := source.Parse(in.Source)
	version := hash.Content(in.Source)

	type found struct {
		varName string
		metaObj *source.ObjectLit
		md      EvalMetadata
	}

	var evals []found
	byName := map[string][]string{} // final name -> declaring variables

	for _, stmt := range mod.Statements {
		decl, ok := stmt.(*source.VarDeclStmt)
		if !ok {
			continue
		}
		call := source.AsCall(decl.Init)
		if call == nil || source.CalleeName(call.Callee) != evalConstructor {
			continue
		}

		metaObj := objectProp(firstObjectArg(call), "metadata")
		name := stringProp(metaObj, "name")
		if name == "" {
			name = utilstrings.ToKebabCase(decl.Name)
		}
		byName[name] = append(byName[name], decl.Name)

		evals = append(evals, found{
			varName: decl.Name,
			metaObj: metaObj,
			md: EvalMetadata{
				Filename:    rel,
				Name:        name,
				Description: stringProp(metaObj, "description"),
				Version:     version,
				Identifier:  utilstrings.ToCamelCase(name),
				ID:          hash.ID(in.ProjectID, in.DeploymentID, rel, name, version),
			},
		})
	}

	var collisions []string
	for name, vars := range byName {
		if len(vars) > 1 {
			collisions = append(collisions, fmt.Sprintf("%q (from %s)", name, strings.Join(vars, ", ")))
		}
	}
	if len(collisions) > 0 {
		sort.Strings(collisions)
		return nil, diag.Newf("extract", diag.CodeDuplicateEval,
			diag.Location{File: rel},
			"duplicate eval names in %s: %s", rel, strings.Join(collisions, "; "))
	}

	var edits []source.Edit
	result := &EvalResult{Source: in.Source}
	for _, f := range evals {
		result.Evals = append(result.Evals, f.md)
		if f.metaObj == nil {
			continue
		}
		var missing []field
		for _, fld := range []field{
			{"id", f.md.ID},
			{"version", f.md.Version},
			{"identifier", f.md.Identifier},
			{"filename", f.md.Filename},
		} {
			p := f.metaObj.Prop(fld.key)
			switch {
			case p == nil:
				missing = append(missing, fld)
			case p.Value != nil:
				span := p.Value.Span()
				edits = append(edits, source.Edit{Start: span.Start, End: span.End, Text: strconv.Quote(fld.value)})
			default:
				// Property present but unparseable: leave it alone.
			}
		}
		if edit := appendFields(f.metaObj, missing); validEdit(edit) {
			edits = append(edits, edit)
		}
	}
	if len(edits) > 0 {
		result.Source = source.ApplyEdits(in.Source, edits)
	}
	return result, nil
}
