package phase

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTechnique is returned when a technique ID is not in the catalog.
var ErrUnknownTechnique = errors.New("unknown technique")

// DefaultTechnique is used when none is configured.
const DefaultTechnique = "4-7-8"

// Builtin returns the built-in techniques. The returned slice is a fresh copy.
func Builtin() []Table {
	return []Table{
		{
			ID:    "4-7-8",
			Title: "4-7-8 Relaxing Breath",
			Phases: []Phase{
				{Name: Inhale, Duration: 4, Next: 1, Color: Blue},
				{Name: Hold, Duration: 7, Next: 2, Color: Green},
				{Name: Exhale, Duration: 8, Next: 0, Color: Purple},
			},
		},
		{
			ID:    "box",
			Title: "Box Breathing",
			Phases: []Phase{
				{Name: Inhale, Duration: 4, Next: 1, Color: Blue},
				{Name: Hold, Duration: 4, Next: 2, Color: Green},
				{Name: Exhale, Duration: 4, Next: 3, Color: Purple},
				{Name: Hold, Duration: 4, Next: 0, Color: Amber},
			},
		},
		{
			ID:      "coherent",
			Title:   "Coherent Breathing",
			Premium: true,
			Phases: []Phase{
				{Name: Inhale, Duration: 5, Next: 1, Color: Blue},
				{Name: Exhale, Duration: 5, Next: 0, Color: Purple},
			},
		},
		{
			ID:      "calm",
			Title:   "Calming Breath",
			Premium: true,
			Phases: []Phase{
				{Name: Inhale, Duration: 4, Next: 1, Color: Blue},
				{Name: Hold, Duration: 2, Next: 2, Color: Green},
				{Name: Exhale, Duration: 6, Next: 0, Color: Purple},
			},
		},
	}
}

// Catalog is a read-only set of techniques keyed by ID.
type Catalog struct {
	tables map[string]Table
}

// NewCatalog validates and indexes the given tables.
func NewCatalog(tables []Table) (*Catalog, error) {
	c := &Catalog{tables: make(map[string]Table, len(tables))}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.tables[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate technique %q", ErrInvalidTable, t.ID)
		}
		c.tables[t.ID] = t
	}
	return c, nil
}

// Available returns the catalog visible to a user with the given premium
// capability. Premium tables are dropped for free users.
func (c *Catalog) Available(premium bool) *Catalog {
	out := &Catalog{tables: make(map[string]Table, len(c.tables))}
	for id, t := range c.tables {
		if t.Premium && !premium {
			continue
		}
		out.tables[id] = t
	}
	return out
}

// Lookup returns the technique with the given ID.
func (c *Catalog) Lookup(id string) (Table, error) {
	t, ok := c.tables[id]
	if !ok {
		return Table{}, fmt.Errorf("%w: %q", ErrUnknownTechnique, id)
	}
	return t, nil
}

// List returns the techniques sorted by ID.
func (c *Catalog) List() []Table {
	out := make([]Table, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
