// Package schema maps heterogeneous tool-call argument shapes onto the
// canonical argument names of each tool.
package schema

import (
	"fmt"
	"reflect"

	"github.com/Strob0t/editorbridge/internal/domain/catalog"
	"github.com/Strob0t/editorbridge/internal/domain/toolcall"
)

// AliasTable provides the alias groups of a tool. *catalog.Registry
// satisfies it.
type AliasTable interface {
	Aliases(tool string) []catalog.AliasGroup
}

// Mapping records one alias that was folded into its canonical field.
type Mapping struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Outcome is the result of normalizing one call.
type Outcome struct {
	Args     toolcall.Arguments
	Mappings []Mapping
	Warnings []string
}

// Normalize rewrites args to canonical field names. It never fails: tools
// without alias groups and keys outside every group pass through
// unchanged. The input map is not modified.
//
// For each group the first non-empty alias in priority order wins. When a
// lower-priority alias carries a different non-empty value, it is dropped
// and a warning is recorded.
func Normalize(table AliasTable, tool string, args toolcall.Arguments) Outcome {
	groups := table.Aliases(tool)
	out := Outcome{Args: args.Clone()}
	if len(groups) == 0 {
		return out
	}

	for _, g := range groups {
		winner := ""
		var value any
		firstPresent := ""

		for _, alias := range g.Aliases {
			v, present := args[alias]
			if !present {
				continue
			}
			if firstPresent == "" {
				firstPresent = alias
			}
			if toolcall.IsEmpty(v) {
				continue
			}
			if winner == "" {
				winner, value = alias, v
				continue
			}
			if !reflect.DeepEqual(v, value) {
				out.Warnings = append(out.Warnings, fmt.Sprintf(
					"%s: %q and %q both set %s with different values; using %q",
					tool, winner, alias, g.Canonical, winner))
			}
		}

		if firstPresent == "" {
			continue
		}
		for _, alias := range g.Aliases {
			delete(out.Args, alias)
		}
		switch {
		case winner != "":
			out.Args[g.Canonical] = value
			if winner != g.Canonical {
				out.Mappings = append(out.Mappings, Mapping{From: winner, To: g.Canonical})
			}
		default:
			// Only empty values were given; keep the highest-priority one.
			out.Args[g.Canonical] = args[firstPresent]
		}
	}
	return out
}

// Describe renders mappings as short human-readable steps.
func Describe(mappings []Mapping) []string {
	if len(mappings) == 0 {
		return nil
	}
	steps := make([]string, 0, len(mappings))
	for _, m := range mappings {
		steps = append(steps, fmt.Sprintf("normalized %s -> %s", m.From, m.To))
	}
	return steps
}
