package ontology

import (
	"context"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// fileSchema mirrors the on-disk YAML vocabulary layout.
type fileSchema struct {
	Skills     map[string]string   `koanf:"skills"`
	Aliases    map[string][]string `koanf:"aliases"`
	Categories map[string][]string `koanf:"categories"`
}

// Load reads a vocabulary file (YAML) and builds an Ontology from it.
// The file must define at least one canonical skill; alias and category
// entries must reference canonical keys, otherwise loading fails fast.
func Load(ctx context.Context, path string) (*Ontology, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadOntology, err)
	}

	var schema fileSchema
	if err := k.UnmarshalWithConf("", &schema, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadOntology, err)
	}

	if err := validate(schema); err != nil {
		return nil, err
	}

	// Alias spellings are matched lowercased regardless of file casing.
	aliases := make(map[string][]string, len(schema.Aliases))
	for key, list := range schema.Aliases {
		lowered := make([]string, len(list))
		for i, alias := range list {
			lowered[i] = strings.ToLower(alias)
		}
		aliases[key] = lowered
	}

	return New(
		WithSkills(schema.Skills),
		WithAliases(aliases),
		WithCategories(schema.Categories),
	), nil
}

func validate(schema fileSchema) error {
	if len(schema.Skills) == 0 {
		return fmt.Errorf("%w: no canonical skills defined", ErrInvalidOntology)
	}
	for key := range schema.Aliases {
		if _, ok := schema.Skills[key]; !ok {
			return fmt.Errorf("%w: alias entry %q has no canonical skill", ErrInvalidOntology, key)
		}
	}
	for category, keys := range schema.Categories {
		for _, key := range keys {
			if _, ok := schema.Skills[key]; !ok {
				return fmt.Errorf("%w: category %q references unknown skill %q", ErrInvalidOntology, category, key)
			}
		}
	}
	return nil
}
