package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// ReportFormat selects GenerateReport's output shape.
type ReportFormat int

const (
	ReportText ReportFormat = iota
	ReportYAML
)

// reportDoc is the YAML-serializable shape of GenerateReport(ReportYAML),
// grounded on the teacher's use of goccy/go-yaml for structured config and
// report dumps (root config.go, cli/command_format.go).
type reportDoc struct {
	Parameters  []string `yaml:"parameters"`
	IndexSets   []string `yaml:"index_sets"`
	Variables   []string `yaml:"variables"`
	Constraints int      `yaml:"constraints"`
	Objective   string   `yaml:"objective,omitempty"`
}

// GenerateReport serializes the repository as human-readable text (for
// the out-of-scope editor UI) or as YAML, per spec.md §4.1.
func (r *Repository) GenerateReport(format ReportFormat) (string, error) {
	if format == ReportYAML {
		doc := reportDoc{
			Parameters:  sortedKeys(r.Parameters),
			IndexSets:   sortedKeys(r.IndexSets),
			Variables:   sortedKeys(r.Variables),
			Constraints: len(r.Constraints),
		}
		if r.Objective != nil {
			doc.Objective = fmt.Sprintf("%s %s", r.Objective.Sense, r.Objective.Name)
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("marshal report: %w", err)
		}
		return string(out), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Parameters (%d):\n", len(r.Parameters))
	for _, name := range sortedKeys(r.Parameters) {
		p := r.Parameters[name]
		fmt.Fprintf(&b, "  %s %s%s\n", p.Type, name, dimsSuffix(p.IndexSets))
	}
	fmt.Fprintf(&b, "Index sets (%d):\n", len(r.IndexSets))
	for _, name := range sortedKeys(r.IndexSets) {
		s := r.IndexSets[name]
		fmt.Fprintf(&b, "  %s = %d..%d\n", name, s.Start, s.End)
	}
	fmt.Fprintf(&b, "Variables (%d):\n", len(r.Variables))
	for _, name := range sortedKeys(r.Variables) {
		v := r.Variables[name]
		fmt.Fprintf(&b, "  dvar %s %s%s\n", v.ValueType, name, dimsSuffix(v.IndexSets))
	}
	fmt.Fprintf(&b, "Constraints (%d):\n", len(r.Constraints))
	for _, c := range r.Constraints {
		fmt.Fprintf(&b, "  %s\n", c.Label)
	}
	if r.Objective != nil {
		fmt.Fprintf(&b, "Objective: %s %s\n", r.Objective.Sense, r.Objective.Name)
	}
	return b.String(), nil
}

func dimsSuffix(sets []string) string {
	if len(sets) == 0 {
		return ""
	}
	return "[" + strings.Join(sets, ",") + "]"
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
