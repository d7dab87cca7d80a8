package catalog

import (
	"maps"
	"slices"
	"time"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/detention"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/eligibility"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
)

// Catalog is an immutable, versioned set of program rules and the
// less-restrictive alternatives ladder. A reload builds a new Catalog;
// holders of an older one keep using it unchanged.
type Catalog struct {
	// Version is derived from the source bytes, so identical files share
	// a version.
	Version  string    `json:"version"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`

	Programs     []eligibility.ProgramRule `json:"programs"`
	Alternatives []detention.Alternative   `json:"alternatives"`
}

// document is the on-disk layout of a catalog file.
type document struct {
	Programs     []eligibility.ProgramRule `yaml:"programs"`
	Alternatives []detention.Alternative   `yaml:"alternatives"`
}

// KnownField reports whether a predicate field is available to catalog
// rules: any snapshot fact or score fact.
func KnownField(name string) bool {
	return intake.KnownField(name) || risk.KnownField(name)
}

// Program returns the named program rule.
func (c *Catalog) Program(name string) (eligibility.ProgramRule, bool) {
	for _, p := range c.Programs {
		if p.Name == name {
			return p, true
		}
	}
	return eligibility.ProgramRule{}, false
}

// ProgramNames returns program names in catalog order.
func (c *Catalog) ProgramNames() []string {
	names := make([]string, len(c.Programs))
	for i, p := range c.Programs {
		names[i] = p.Name
	}
	return names
}

// AlternativeNames returns alternative names in ladder order.
func (c *Catalog) AlternativeNames() []string {
	names := make([]string, len(c.Alternatives))
	for i, a := range c.Alternatives {
		names[i] = a.Name
	}
	return names
}

// RequiredFields returns, sorted, the snapshot facts any program rule reads.
// Score facts are excluded since scoring always supplies them.
func (c *Catalog) RequiredFields() []string {
	fields := make(map[string]bool)
	for _, p := range c.Programs {
		for _, f := range p.Fields() {
			if intake.KnownField(f) {
				fields[f] = true
			}
		}
	}
	return slices.Sorted(maps.Keys(fields))
}
