// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog maps anatomical area names to Allen structure
// identifiers. The built-in catalog covers the visual and
// retrosplenial areas of interest; a YAML file can replace it.
package catalog

import (
	"fmt"
	"os"
	"strconv"

	"go.yaml.in/yaml/v3"
)

// PrimaryArea is the injection target area the pipeline is built
// around. Explicit injection records are matched against its
// structure id.
const PrimaryArea = "VISp"

// Area pairs an anatomical area name with its Allen structure id.
type Area struct {
	Name        string `yaml:"area" json:"area"`
	StructureID int    `yaml:"structure_id" json:"structure_id"`
}

// defaultAreas is the built-in catalog, in output column order.
var defaultAreas = []Area{
	{"VISal", 402},
	{"VISam", 394},
	{"VISl", 409},
	{"VISp", 385},
	{"VISpl", 425},
	{"VISpm", 533},
	{"VISli", 312782574},
	{"VISpor", 312782628},
	{"RSPagl", 894},
	{"RSPd", 879},
	{"RSPv", 886},
	{"VISa", 312782546},
	{"VISrl", 417},
}

// Catalog is an ordered set of areas of interest. Iteration order is
// fixed: output columns always appear in catalog order.
type Catalog struct {
	areas  []Area
	byID   map[string]string // structure id (as string) → area name
	byName map[string]int
}

// New builds a catalog from an ordered area list.
func New(areas []Area) (*Catalog, error) {
	if len(areas) == 0 {
		return nil, fmt.Errorf("catalog has no areas")
	}
	c := &Catalog{
		areas:  areas,
		byID:   make(map[string]string, len(areas)),
		byName: make(map[string]int, len(areas)),
	}
	for _, a := range areas {
		if a.Name == "" {
			return nil, fmt.Errorf("catalog entry with empty area name")
		}
		if _, ok := c.byName[a.Name]; ok {
			return nil, fmt.Errorf("duplicate area %q in catalog", a.Name)
		}
		c.byName[a.Name] = a.StructureID
		c.byID[strconv.Itoa(a.StructureID)] = a.Name
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultAreas)
	if err != nil {
		panic(err) // the built-in table is statically valid
	}
	return c
}

// Load reads an ordered YAML area list from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	var areas []Area
	if err := yaml.Unmarshal(data, &areas); err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
	}
	c, err := New(areas)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return c, nil
}

// Names returns the area names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.areas))
	for i, a := range c.areas {
		names[i] = a.Name
	}
	return names
}

// Len returns the number of areas.
func (c *Catalog) Len() int { return len(c.areas) }

// StructureID returns the structure id for an area name.
func (c *Catalog) StructureID(name string) (int, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// AreaByStructureID resolves a structure id, rendered as a string in
// the source document, to its area name. Matching is exact string
// equality against the catalog id's decimal rendering.
func (c *Catalog) AreaByStructureID(id string) (string, bool) {
	name, ok := c.byID[id]
	return name, ok
}

// PrimaryStructureID returns the primary area's structure id as a
// string, or false if the catalog does not contain the primary area.
func (c *Catalog) PrimaryStructureID() (string, bool) {
	id, ok := c.byName[PrimaryArea]
	if !ok {
		return "", false
	}
	return strconv.Itoa(id), true
}
