package choropleth

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// GeoJSON encodes the layer as a FeatureCollection whose properties carry the
// district label, the active value and the Leaflet-style paint of each
// polygon. Polygons without geometry are omitted.
func (l *Layer) GeoJSON() ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(l.polygons))}

	var bounds *geom.Bounds
	for _, p := range l.polygons {
		g := p.Feature.Geometry()
		if g == nil {
			continue
		}
		if bounds == nil {
			bounds = geom.NewBounds(geom.XY)
		}
		bounds.Extend(g)

		props := map[string]any{
			"DISTRICT":    p.DistrictID(),
			"fillColor":   p.Style.FillColor.Hex(),
			"weight":      p.Style.Weight,
			"opacity":     p.Style.Opacity,
			"color":       p.Style.Color,
			"fillOpacity": p.Style.FillOpacity,
			"selected":    p.Selected,
		}
		if v, ok := p.Feature.Value(l.field); ok {
			props["value"] = v
		} else {
			props["value"] = nil
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         p.DistrictID(),
			Geometry:   g,
			Properties: props,
		})
	}
	fc.BBox = bounds

	data, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "choropleth: encode layer")
	}
	return data, nil
}
