// Package registry loads the list of selectable cities and the location of
// each city's district data file.
package registry

import (
	"slices"

	"github.com/rotisserie/eris"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// City identifies one selectable city.
type City struct {
	ID            string  `yaml:"id" json:"id"`
	Name          string  `yaml:"name" json:"name"`
	State         string  `yaml:"state" json:"state,omitempty"`
	Lat           float64 `yaml:"lat" json:"lat"`
	Lng           float64 `yaml:"lng" json:"lng"`
	File          string  `yaml:"file" json:"file"`
	Source        string  `yaml:"src" json:"src,omitempty"`
	SourceDate    string  `yaml:"source_date" json:"source_date,omitempty"`
	DistrictField string  `yaml:"district_field" json:"district_field,omitempty"`
}

// Group is the cities of one state, in display order.
type Group struct {
	State  string `json:"state"`
	Cities []City `json:"cities"`
}

// Registry is an immutable, indexed set of cities.
type Registry struct {
	cities []City
	byID   map[string]int
}

// New validates and indexes cities. IDs must be unique and every city needs a
// name and a data file.
func New(cities []City) (*Registry, error) {
	r := &Registry{
		cities: slices.Clone(cities),
		byID:   make(map[string]int, len(cities)),
	}
	for i, c := range r.cities {
		if c.ID == "" {
			return nil, eris.Errorf("registry: city %d has no id", i)
		}
		if c.Name == "" || c.File == "" {
			return nil, eris.Errorf("registry: city %q needs a name and a file", c.ID)
		}
		if _, dup := r.byID[c.ID]; dup {
			return nil, eris.Errorf("registry: duplicate city id %q", c.ID)
		}
		r.byID[c.ID] = i
	}
	return r, nil
}

// Lookup returns the city with the given id.
func (r *Registry) Lookup(id string) (City, bool) {
	i, ok := r.byID[id]
	if !ok {
		return City{}, false
	}
	return r.cities[i], true
}

// All returns the cities in file order.
func (r *Registry) All() []City {
	return slices.Clone(r.cities)
}

// Len returns the number of cities.
func (r *Registry) Len() int { return len(r.cities) }

// Sorted returns the cities ordered by display name for the city selector.
func (r *Registry) Sorted() []City {
	out := slices.Clone(r.cities)
	coll := collate.New(language.English, collate.Numeric)
	slices.SortStableFunc(out, func(a, b City) int {
		return coll.CompareString(a.Name, b.Name)
	})
	return out
}

// Groups returns cities grouped by state key. Groups are ordered by state and
// cities within a group by name. Cities without a state form a trailing group
// with an empty key.
func (r *Registry) Groups() []Group {
	var groups []Group
	idx := make(map[string]int)
	for _, c := range r.Sorted() {
		i, ok := idx[c.State]
		if !ok {
			i = len(groups)
			idx[c.State] = i
			groups = append(groups, Group{State: c.State})
		}
		groups[i].Cities = append(groups[i].Cities, c)
	}
	slices.SortStableFunc(groups, func(a, b Group) int {
		switch {
		case a.State == b.State:
			return 0
		case a.State == "":
			return 1
		case b.State == "":
			return -1
		case a.State < b.State:
			return -1
		default:
			return 1
		}
	})
	return groups
}
