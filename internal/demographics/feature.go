package demographics

import (
	"maps"

	"github.com/twpayne/go-geom"
)

// Feature is one patrol district polygon with its attached statistics.
// A Feature is immutable once constructed.
type Feature struct {
	districtID string
	geometry   geom.T
	stats      map[Field]float64
}

// NewFeature builds a Feature. The statistics map is copied.
func NewFeature(districtID string, geometry geom.T, stats map[Field]float64) Feature {
	return Feature{
		districtID: districtID,
		geometry:   geometry,
		stats:      maps.Clone(stats),
	}
}

// DistrictID is the label shown to users. Unique within one collection only.
func (f Feature) DistrictID() string { return f.districtID }

// Geometry is the polygon or multi-polygon of the district. May be nil.
func (f Feature) Geometry() geom.T { return f.geometry }

// Value returns the statistic and whether the source feature carried it.
func (f Feature) Value(field Field) (float64, bool) {
	v, ok := f.stats[field]
	return v, ok
}

// Stat returns the statistic, treating an absent field as 0.
func (f Feature) Stat(field Field) float64 {
	return f.stats[field]
}

// Stats returns a copy of every statistic the feature carries.
func (f Feature) Stats() map[Field]float64 {
	return maps.Clone(f.stats)
}

// FeatureCollection is the ordered set of districts loaded for one city.
// It is replaced wholesale on city change and never mutated.
type FeatureCollection struct {
	cityID   string
	features []Feature
	index    map[string]int
}

// NewFeatureCollection builds a collection for a city, preserving feature order.
// When two features share a district label the first one wins lookups.
func NewFeatureCollection(cityID string, features []Feature) *FeatureCollection {
	fc := &FeatureCollection{
		cityID:   cityID,
		features: append([]Feature(nil), features...),
		index:    make(map[string]int, len(features)),
	}
	for i, f := range fc.features {
		if _, dup := fc.index[f.districtID]; !dup {
			fc.index[f.districtID] = i
		}
	}
	return fc
}

// CityID identifies the city the collection was loaded for.
func (c *FeatureCollection) CityID() string {
	if c == nil {
		return ""
	}
	return c.cityID
}

// Len returns the number of features. A nil collection is empty.
func (c *FeatureCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.features)
}

// Features returns the features in source order.
func (c *FeatureCollection) Features() []Feature {
	if c == nil {
		return nil
	}
	return append([]Feature(nil), c.features...)
}

// Find looks a feature up by district label.
func (c *FeatureCollection) Find(districtID string) (Feature, bool) {
	if c == nil {
		return Feature{}, false
	}
	i, ok := c.index[districtID]
	if !ok {
		return Feature{}, false
	}
	return c.features[i], true
}

// Bounds returns the extent of every geometry in the collection, or nil when
// no feature carries a geometry.
func (c *FeatureCollection) Bounds() *geom.Bounds {
	if c == nil {
		return nil
	}
	var b *geom.Bounds
	for _, f := range c.features {
		if f.geometry == nil {
			continue
		}
		if b == nil {
			b = geom.NewBounds(geom.XY)
		}
		b.Extend(f.geometry)
	}
	return b
}
