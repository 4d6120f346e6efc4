// Package ontology maintains the canonical skill vocabulary, alias
// mappings, and category groupings used to normalize raw detections.
//
// An Ontology is built once at startup and treated as read-only afterwards;
// it is safe to share across concurrent extraction calls.
package ontology

import (
	"sort"
	"strings"
)

// Ontology holds the controlled skill vocabulary.
type Ontology struct {
	// canonical maps lowercase keys to display forms, e.g. "react" -> "React".
	canonical map[string]string
	// aliases maps canonical keys to lowercase alias spellings.
	aliases map[string][]string
	// categories maps a category name to its canonical keys.
	categories map[string][]string

	// Derived indexes, built once by New.
	aliasIndex    map[string]string // lowercase alias -> canonical key
	categoryIndex map[string]string // display form -> category
	reference     []string          // display forms in stable sorted order
	referenceSet  map[string]bool   // display form membership
}

// Option applies a configuration option to the Ontology.
type Option func(*Ontology)

// WithSkills replaces the canonical skill table (lowercase key -> display form).
func WithSkills(skills map[string]string) Option {
	return func(o *Ontology) {
		if len(skills) > 0 {
			o.canonical = skills
		}
	}
}

// WithAliases replaces the alias table (canonical key -> lowercase aliases).
func WithAliases(aliases map[string][]string) Option {
	return func(o *Ontology) {
		if len(aliases) > 0 {
			o.aliases = aliases
		}
	}
}

// WithCategories replaces the category table (category -> canonical keys).
func WithCategories(categories map[string][]string) Option {
	return func(o *Ontology) {
		if len(categories) > 0 {
			o.categories = categories
		}
	}
}

// New builds an Ontology from the default vocabulary, applying options.
func New(opts ...Option) *Ontology {
	o := &Ontology{
		canonical:  defaultSkills(),
		aliases:    defaultAliases(),
		categories: defaultCategories(),
	}

	for _, opt := range opts {
		opt(o)
	}

	o.buildIndexes()
	return o
}

// buildIndexes derives the lookup indexes from the three source tables.
func (o *Ontology) buildIndexes() {
	o.aliasIndex = make(map[string]string, len(o.aliases)*2)
	for key, list := range o.aliases {
		for _, alias := range list {
			o.aliasIndex[strings.ToLower(alias)] = key
		}
	}

	o.categoryIndex = make(map[string]string, len(o.canonical))
	for category, keys := range o.categories {
		for _, key := range keys {
			if display, ok := o.canonical[key]; ok {
				o.categoryIndex[display] = category
			}
		}
	}

	o.reference = make([]string, 0, len(o.canonical))
	o.referenceSet = make(map[string]bool, len(o.canonical))
	for _, display := range o.canonical {
		o.reference = append(o.reference, display)
		o.referenceSet[display] = true
	}
	sort.Strings(o.reference)
}

// Normalize resolves text to its canonical display form.
//
// Resolution order: exact canonical key, then alias lookup. When neither
// matches, the original input is returned unchanged. Normalize is pure and
// idempotent for any input whose normalized form is itself canonical.
func (o *Ontology) Normalize(text string) string {
	key := strings.ToLower(strings.TrimSpace(text))

	if display, ok := o.canonical[key]; ok {
		return display
	}
	if canonical, ok := o.aliasIndex[key]; ok {
		if display, ok := o.canonical[canonical]; ok {
			return display
		}
	}
	return text
}

// Category returns the category of a canonical display form, or "" when
// the skill is unknown or uncategorized.
func (o *Ontology) Category(display string) string {
	return o.categoryIndex[display]
}

// HasSkill reports whether display is a canonical display form.
func (o *Ontology) HasSkill(display string) bool {
	return o.referenceSet[display]
}

// ReferenceSkills returns all canonical display forms in stable order.
// The returned slice is shared; callers must not mutate it.
func (o *Ontology) ReferenceSkills() []string {
	return o.reference
}

// Aliases returns every registered alias spelling across all skills.
func (o *Ontology) Aliases() []string {
	out := make([]string, 0, len(o.aliasIndex))
	for alias := range o.aliasIndex {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// Size returns the number of canonical skills.
func (o *Ontology) Size() int {
	return len(o.canonical)
}
