package metadata

import (
	"sort"

	"github.com/agentuity/cli/internal/diag"
)

// DiscoveredAgent pairs one agent module's metadata with the evals declared
// in its sibling eval module.
type DiscoveredAgent struct {
	Metadata ModuleMetadata
	Evals    []EvalMetadata
}

// AggregateAgents nests the flat set of discovered agent modules into
// AgentRecords: subagents (Parent set from directory depth) attach to the
// parent agent owning their parent directory. Every subagent must resolve to
// an existing parent record; orphans fail the build, all reported together.
// Output ordering is deterministic: records and subagents sort by name.
func AggregateAgents(modules []DiscoveredAgent) ([]AgentRecord, error) {
	parents := map[string]*AgentRecord{} // keyed by parent directory name
	var order []string

	for _, m := range modules {
		if m.Metadata.Parent != "" {
			continue
		}
		dir := containingDir(m.Metadata.Filename)
		parents[dir] = &AgentRecord{ModuleMetadata: m.Metadata, Evals: m.Evals}
		order = append(order, dir)
	}

	var errs diag.List
	for _, m := range modules {
		if m.Metadata.Parent == "" {
			continue
		}
		parent, ok := parents[m.Metadata.Parent]
		if !ok {
			errs.Append(diag.Newf("extract", diag.CodeOrphanSubagent,
				diag.Location{File: m.Metadata.Filename},
				"subagent %q has no parent agent %q (expected an agent module under agents/%s)",
				m.Metadata.Name, m.Metadata.Parent, m.Metadata.Parent))
			continue
		}
		parent.Subagents = append(parent.Subagents, AgentRecord{
			ModuleMetadata: m.Metadata,
			Evals:          m.Evals,
		})
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	sort.Strings(order)
	records := make([]AgentRecord, 0, len(order))
	for _, dir := range order {
		rec := parents[dir]
		sort.Slice(rec.Subagents, func(i, j int) bool {
			return rec.Subagents[i].Name < rec.Subagents[j].Name
		})
		records = append(records, *rec)
	}
	return records, nil
}
