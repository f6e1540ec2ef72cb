// Package catalog reads reward catalog seed files.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/lifequest/lifequest-core/internal/domain/reward"
)

// File is the YAML layout of a seed file.
type File struct {
	Rewards []Entry `yaml:"rewards"`
}

// Entry is one reward in a seed file. Threshold may be written as a number
// or a string; it is kept verbatim.
type Entry struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"`
	Condition   string `yaml:"condition"`
	Threshold   string `yaml:"threshold"`
	Category    string `yaml:"category"`
	Item        string `yaml:"item"`
	Active      *bool  `yaml:"active"`
}

// Load reads and parses a seed file.
func Load(path string) ([]reward.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reward catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a seed file and normalizes every entry.
func Parse(data []byte) ([]reward.Definition, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing reward catalog: %w", err)
	}
	if len(f.Rewards) == 0 {
		return nil, fmt.Errorf("reward catalog has no rewards defined")
	}

	seen := make(map[string]int, len(f.Rewards))
	defs := make([]reward.Definition, 0, len(f.Rewards))
	for i, e := range f.Rewards {
		def, err := e.definition()
		if err != nil {
			return nil, fmt.Errorf("reward #%d: %w", i+1, err)
		}
		if prev, dup := seen[def.Key]; dup {
			return nil, fmt.Errorf("reward #%d: key %q already used by reward #%d", i+1, def.Key, prev)
		}
		seen[def.Key] = i + 1
		defs = append(defs, def)
	}
	return defs, nil
}

func (e Entry) definition() (reward.Definition, error) {
	key := e.Key
	if strings.TrimSpace(key) == "" {
		key = e.Name
	}
	key = NormalizeKey(key)
	if key == "" {
		return reward.Definition{}, fmt.Errorf("key or name is required")
	}

	name := strings.TrimSpace(e.Name)
	if name == "" {
		name = key
	}

	kind := reward.Kind(strings.ToLower(strings.TrimSpace(e.Kind)))
	switch kind {
	case "":
		kind = reward.KindBadge
	case reward.KindBadge, reward.KindCosmetic, reward.KindTitle:
	default:
		return reward.Definition{}, fmt.Errorf("%s: unknown kind %q", key, e.Kind)
	}

	condition, err := normalizeCondition(e.Condition)
	if err != nil {
		return reward.Definition{}, fmt.Errorf("%s: %w", key, err)
	}

	threshold := strings.TrimSpace(e.Threshold)
	if _, ok := reward.ParseThreshold(threshold); !ok {
		return reward.Definition{}, fmt.Errorf("%s: threshold %q is not a number", key, e.Threshold)
	}

	item := NormalizeKey(e.Item)
	if kind == reward.KindCosmetic && item == "" {
		return reward.Definition{}, fmt.Errorf("%s: cosmetic rewards need an item", key)
	}

	active := true
	if e.Active != nil {
		active = *e.Active
	}

	return reward.Definition{
		Key:           key,
		Name:          name,
		Description:   strings.TrimSpace(e.Description),
		Kind:          kind,
		ConditionType: condition,
		Threshold:     threshold,
		CategoryKey:   NormalizeKey(e.Category),
		ItemKey:       item,
		Active:        active,
	}, nil
}

// NormalizeKey turns free text into a catalog key: lower case ASCII with
// words joined by hyphens. Underscores are kept.
func NormalizeKey(s string) string {
	return slug.Make(strings.TrimSpace(s))
}

func normalizeCondition(raw string) (string, error) {
	c := reward.ParseCondition(raw)
	base := strings.ToLower(c.Base)
	if base == "" {
		return "", fmt.Errorf("condition is required")
	}
	if c.Qualifier == "" {
		return base, nil
	}
	return base + ":" + NormalizeKey(c.Qualifier), nil
}
