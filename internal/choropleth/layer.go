package choropleth

import (
	"github.com/sells-group/district-demographics/internal/demographics"
	"github.com/sells-group/district-demographics/internal/selection"
)

// Polygon is one styled district of a layer.
type Polygon struct {
	Feature  demographics.Feature
	Style    Style
	Selected bool
}

// DistrictID is the label of the polygon's district.
func (p Polygon) DistrictID() string { return p.Feature.DistrictID() }

// Activation is a click on a polygon, bound to the layer generation that drew it.
type Activation struct {
	Generation uint64 `json:"generation"`
	DistrictID string `json:"district"`
}

// Layer is one full rendering of a collection for an active field. A Layer
// is immutable once returned: selection changes produce a restyled copy with
// the same generation, and city or field changes a new generation.
type Layer struct {
	generation uint64
	cityID     string
	field      demographics.Field
	polygons   []Polygon
	index      map[string]int
}

// Generation identifies this rendering.
func (l *Layer) Generation() uint64 { return l.generation }

// CityID is the city the layer was drawn for, "" for an empty layer.
func (l *Layer) CityID() string { return l.cityID }

// Field is the active field the layer is styled by.
func (l *Layer) Field() demographics.Field { return l.field }

// Key combines city and field; a change of either yields a new key.
func (l *Layer) Key() string { return l.cityID + "-" + string(l.field) }

// Len returns the number of polygons.
func (l *Layer) Len() int { return len(l.polygons) }

// Polygons returns a copy of the styled polygons in feature order.
func (l *Layer) Polygons() []Polygon {
	return append([]Polygon(nil), l.polygons...)
}

// Polygon looks a polygon up by district label.
func (l *Layer) Polygon(districtID string) (Polygon, bool) {
	i, ok := l.index[districtID]
	if !ok {
		return Polygon{}, false
	}
	return l.polygons[i], true
}

// Activate builds the interaction event for a polygon of this layer.
func (l *Layer) Activate(districtID string) (Activation, bool) {
	if _, ok := l.index[districtID]; !ok {
		return Activation{}, false
	}
	return Activation{Generation: l.generation, DistrictID: districtID}, true
}

// Selected returns the label of the selected polygon, or "".
func (l *Layer) Selected() string {
	for _, p := range l.polygons {
		if p.Selected {
			return p.DistrictID()
		}
	}
	return ""
}

func (l *Layer) clone() *Layer {
	c := *l
	c.polygons = append([]Polygon(nil), l.polygons...)
	return &c
}

// restyle recomputes the paint of the named polygons against sel.
func (l *Layer) restyle(ids []string, sel selection.Selection) []string {
	var done []string
	for _, id := range ids {
		i, ok := l.index[id]
		if !ok {
			continue
		}
		p := &l.polygons[i]
		p.Selected = sel.Is(id)
		p.Style = StyleFor(p.Feature, l.field, p.Selected)
		done = append(done, id)
	}
	return done
}
