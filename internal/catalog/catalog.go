// Package catalog holds the enumerated list of routes a user can select.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var ErrUnknownRoute = errors.New("unknown route")

type Kind string

const (
	KindLightRail Kind = "light_rail"
	KindSubway    Kind = "subway"
	KindBus       Kind = "bus"
)

type Route struct {
	ID    string `yaml:"id" json:"id" validate:"required,max=64"`
	Label string `yaml:"label" json:"label"`
	Kind  Kind   `yaml:"kind" json:"kind" validate:"omitempty,oneof=light_rail subway bus"`
}

type Catalog struct {
	DefaultRoute string  `yaml:"default" json:"default" validate:"required"`
	Routes       []Route `yaml:"routes" json:"routes" validate:"required,min=1,dive"`

	index map[string]int
}

// Default returns the built-in route list.
func Default() *Catalog {
	routes := []Route{
		{ID: "Green-B", Label: "Green Line B", Kind: KindLightRail},
		{ID: "Green-C", Label: "Green Line C", Kind: KindLightRail},
		{ID: "Green-D", Label: "Green Line D", Kind: KindLightRail},
		{ID: "Green-E", Label: "Green Line E", Kind: KindLightRail},
		{ID: "Red", Label: "Red Line", Kind: KindSubway},
		{ID: "Orange", Label: "Orange Line", Kind: KindSubway},
		{ID: "Blue", Label: "Blue Line", Kind: KindSubway},
		{ID: "1", Label: "Bus 1", Kind: KindBus},
		{ID: "57", Label: "Bus 57", Kind: KindBus},
		{ID: "60", Label: "Bus 60", Kind: KindBus},
		{ID: "64", Label: "Bus 64", Kind: KindBus},
		{ID: "66", Label: "Bus 66", Kind: KindBus},
		{ID: "88", Label: "Bus 88", Kind: KindBus},
		{ID: "90", Label: "Bus 90", Kind: KindBus},
	}
	c, _ := New("Green-B", routes)
	return c
}

var validate = validator.New()

// New builds a catalog, validating the routes and the default selection.
func New(defaultRoute string, routes []Route) (*Catalog, error) {
	c := &Catalog{DefaultRoute: defaultRoute, Routes: routes}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) init() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid route catalog: %w", err)
	}
	c.index = make(map[string]int, len(c.Routes))
	for i, r := range c.Routes {
		if _, dup := c.index[r.ID]; dup {
			return fmt.Errorf("invalid route catalog: duplicate route %q", r.ID)
		}
		if r.Label == "" {
			c.Routes[i].Label = r.ID
		}
		c.index[r.ID] = i
	}
	if _, ok := c.index[c.DefaultRoute]; !ok {
		return fmt.Errorf("invalid route catalog: default %q: %w", c.DefaultRoute, ErrUnknownRoute)
	}
	return nil
}

// Load reads a YAML catalog file. An empty path yields the built-in list.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse route catalog: %w", err)
	}
	if err := c.init(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Validate returns ErrUnknownRoute when id is not selectable.
func (c *Catalog) Validate(id string) error {
	if !c.Contains(id) {
		return fmt.Errorf("%w: %q", ErrUnknownRoute, id)
	}
	return nil
}

func (c *Catalog) Lookup(id string) (Route, bool) {
	i, ok := c.index[id]
	if !ok {
		return Route{}, false
	}
	return c.Routes[i], true
}

// IDs returns route ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Routes))
	for i, r := range c.Routes {
		ids[i] = r.ID
	}
	return ids
}
