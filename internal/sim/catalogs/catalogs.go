// Package catalogs loads the static item/recipe tables the simulation
// balances against. The engine treats the catalog as a read-only
// collaborator: a missing lookup is a recoverable "unknown item", never
// a crash.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog is the full static table set for a run.
type Catalog struct {
	Items   map[string]ItemDef
	Recipes map[string]RecipeDef

	ItemsDigest   string
	RecipesDigest string
}

// ItemDef is one catalog row. Features are free-form capability tags
// ("plantable", "edible", "smeltable"); Category is the coarse grouping
// ("seed", "crop", "material", "tool", "weapon", "armor").
type ItemDef struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Category      string   `yaml:"category" json:"category"`
	Features      []string `yaml:"features,omitempty" json:"features,omitempty"`
	Value         int      `yaml:"value,omitempty" json:"value,omitempty"`
	GrowthMinutes float64  `yaml:"growth_minutes,omitempty" json:"growth_minutes,omitempty"`
	YieldItem     string   `yaml:"yield_item,omitempty" json:"yield_item,omitempty"`
	YieldCount    int      `yaml:"yield_count,omitempty" json:"yield_count,omitempty"`
	EnergyRestore int      `yaml:"energy_restore,omitempty" json:"energy_restore,omitempty"`
	UnlockLevel   int      `yaml:"unlock_level,omitempty" json:"unlock_level,omitempty"`
}

// RecipeDef is one forge recipe.
type RecipeDef struct {
	ID          string         `yaml:"id" json:"id"`
	Station     string         `yaml:"station" json:"station"`
	Inputs      map[string]int `yaml:"inputs" json:"inputs"`
	Output      string         `yaml:"output" json:"output"`
	OutputCount int            `yaml:"output_count" json:"output_count"`
	TimeMinutes float64        `yaml:"time_minutes" json:"time_minutes"`
	UnlockLevel int            `yaml:"unlock_level,omitempty" json:"unlock_level,omitempty"`
}

type catalogFile struct {
	Items   []ItemDef   `yaml:"items"`
	Recipes []RecipeDef `yaml:"recipes"`
}

// Load reads a catalog YAML file and indexes it.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return FromDefs(f.Items, f.Recipes)
}

// FromDefs builds a catalog from in-memory definitions, e.g. when the
// host supplies the tables over the boundary protocol.
func FromDefs(items []ItemDef, recipes []RecipeDef) (*Catalog, error) {
	c := &Catalog{
		Items:   map[string]ItemDef{},
		Recipes: map[string]RecipeDef{},
	}
	for _, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("catalog: item with empty id")
		}
		if _, dup := c.Items[it.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate item %q", it.ID)
		}
		c.Items[it.ID] = it
	}
	for _, r := range recipes {
		if r.ID == "" {
			return nil, fmt.Errorf("catalog: recipe with empty id")
		}
		if _, dup := c.Recipes[r.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate recipe %q", r.ID)
		}
		c.Recipes[r.ID] = r
	}
	c.ItemsDigest = digestItems(c.Items)
	c.RecipesDigest = digestRecipes(c.Recipes)
	return c, nil
}

// ItemByID looks up one item. ok is false for unknown ids.
func (c *Catalog) ItemByID(id string) (ItemDef, bool) {
	it, ok := c.Items[id]
	return it, ok
}

// RecipeByID looks up one recipe. ok is false for unknown ids.
func (c *Catalog) RecipeByID(id string) (RecipeDef, bool) {
	r, ok := c.Recipes[id]
	return r, ok
}

// ItemsByFeature returns items carrying the given feature tag, sorted by id.
func (c *Catalog) ItemsByFeature(feature string) []ItemDef {
	var out []ItemDef
	for _, it := range c.Items {
		for _, f := range it.Features {
			if f == feature {
				out = append(out, it)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ItemsByCategory returns items in the given category, sorted by id.
func (c *Catalog) ItemsByCategory(category string) []ItemDef {
	var out []ItemDef
	for _, it := range c.Items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func digestItems(items map[string]ItemDef) string {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	ordered := make([]ItemDef, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, items[id])
	}
	b, _ := json.Marshal(ordered)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func digestRecipes(recipes map[string]RecipeDef) string {
	ids := make([]string, 0, len(recipes))
	for id := range recipes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	ordered := make([]RecipeDef, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, recipes[id])
	}
	b, _ := json.Marshal(ordered)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
