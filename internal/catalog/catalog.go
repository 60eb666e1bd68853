// Package catalog holds the static registry of parameters selectable for CV
// outputs and the gate-logic definitions selectable for GATE outputs.
package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is returned by Lookup for ids the catalog does not know.
var ErrNotFound = errors.New("parameter not found")

type Kind string

const (
	KindCV   Kind = "cv"
	KindGate Kind = "gate"
)

// ParseKind accepts the channel prefixes used by the module API.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindCV, KindGate:
		return Kind(raw), nil
	default:
		return "", fmt.Errorf("unknown output kind %q", raw)
	}
}

// ChannelName returns the API name of a 0-based channel, e.g. cv1.
func (k Kind) ChannelName(index int) string {
	return fmt.Sprintf("%s%d", k, index+1)
}

type Category string

const (
	CategoryWeather   Category = "weather"
	CategoryCelestial Category = "celestial"
	CategorySpace     Category = "space"
)

// Categories lists categories in menu order.
var Categories = []Category{CategoryWeather, CategoryCelestial, CategorySpace}

func (c Category) Label() string {
	switch c {
	case CategoryWeather:
		return "Weather"
	case CategoryCelestial:
		return "Celestial"
	case CategorySpace:
		return "Space"
	default:
		return string(c)
	}
}

type Format string

const (
	FormatFixed Format = "fixed"
	FormatMoon  Format = "moon"
)

// Definition is one immutable catalog entry.
type Definition struct {
	ID       int        `json:"id"`
	Kind     Kind       `json:"kind"`
	Name     string     `json:"name"`
	Unit     string     `json:"unit"`
	Range    [2]float64 `json:"range"`
	Category Category   `json:"category"`
	Logic    string     `json:"logic,omitempty"`
	IsNew    bool       `json:"is_new"`
	Decimals int        `json:"decimals"`
	Format   Format     `json:"format"`
	// Sources are snapshot fields; more than one means their sum.
	Sources []string `json:"sources,omitempty"`
}

// Composite reports whether the value is a sum of several fields.
func (d Definition) Composite() bool { return len(d.Sources) > 1 }

// Group is a category heading with its definitions.
type Group struct {
	Category Category     `json:"category"`
	Label    string       `json:"label"`
	Items    []Definition `json:"items"`
}

type key struct {
	kind Kind
	id   int
}

// Catalog is built once and never mutated.
type Catalog struct {
	byKey map[key]Definition
	order map[Kind][]key
}

// New validates defs and builds a catalog preserving declaration order.
func New(defs []Definition) (*Catalog, error) {
	c := &Catalog{byKey: make(map[key]Definition, len(defs)), order: map[Kind][]key{}}
	for _, def := range defs {
		if _, err := ParseKind(string(def.Kind)); err != nil {
			return nil, fmt.Errorf("definition %d: %w", def.ID, err)
		}
		k := key{kind: def.Kind, id: def.ID}
		if _, dup := c.byKey[k]; dup {
			return nil, fmt.Errorf("duplicate %s parameter id %d", def.Kind, def.ID)
		}
		if def.Format == "" {
			def.Format = FormatFixed
		}
		def.Sources = append([]string(nil), def.Sources...)
		c.byKey[k] = def
		c.order[def.Kind] = append(c.order[def.Kind], k)
	}
	return c, nil
}

// Lookup returns the definition for (kind, id) or ErrNotFound.
func (c *Catalog) Lookup(kind Kind, id int) (Definition, error) {
	if c == nil {
		return Definition{}, fmt.Errorf("%s parameter %d: %w", kind, id, ErrNotFound)
	}
	def, ok := c.byKey[key{kind: kind, id: id}]
	if !ok {
		return Definition{}, fmt.Errorf("%s parameter %d: %w", kind, id, ErrNotFound)
	}
	return clone(def), nil
}

// List returns all definitions of a kind in declaration order.
func (c *Catalog) List(kind Kind) []Definition {
	if c == nil {
		return nil
	}
	keys := c.order[kind]
	out := make([]Definition, 0, len(keys))
	for _, k := range keys {
		out = append(out, clone(c.byKey[k]))
	}
	return out
}

// ListByCategory groups definitions of a kind in the fixed category order.
// Empty categories are omitted.
func (c *Catalog) ListByCategory(kind Kind) []Group {
	if c == nil {
		return nil
	}
	defs := c.List(kind)
	groups := make([]Group, 0, len(Categories))
	for _, cat := range Categories {
		var items []Definition
		for _, def := range defs {
			if def.Category == cat {
				items = append(items, def)
			}
		}
		if len(items) == 0 {
			continue
		}
		groups = append(groups, Group{Category: cat, Label: cat.Label(), Items: items})
	}
	return groups
}

// Fields lists every snapshot field referenced by any definition, sorted.
func (c *Catalog) Fields() []string {
	if c == nil {
		return nil
	}
	seen := map[string]struct{}{}
	for _, def := range c.byKey {
		for _, src := range def.Sources {
			seen[src] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func clone(def Definition) Definition {
	def.Sources = append([]string(nil), def.Sources...)
	return def
}
