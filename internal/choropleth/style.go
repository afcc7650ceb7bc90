// Package choropleth styles district polygons for the map surface and tracks
// which layer generation per-polygon interactions belong to.
package choropleth

import (
	"github.com/sells-group/district-demographics/internal/colorscale"
	"github.com/sells-group/district-demographics/internal/demographics"
	"github.com/sells-group/district-demographics/internal/registry"
)

// Style is the per-polygon paint of the map layer.
type Style struct {
	FillColor   colorscale.Color `json:"fillColor"`
	Weight      int              `json:"weight"`
	Opacity     float64          `json:"opacity"`
	Color       string           `json:"color"`
	FillOpacity float64          `json:"fillOpacity"`
}

// Outline colors.
const (
	DefaultOutline  = "#333333"
	SelectedOutline = "#000000"
)

// StyleFor computes the paint of one district. Share fields use the gradient;
// absolute fields fill every polygon with colorscale.Uniform.
func StyleFor(f demographics.Feature, field demographics.Field, selected bool) Style {
	fill := colorscale.Uniform
	if field.IsPercent() {
		fill = colorscale.For(f.Value(field))
	}

	s := Style{
		FillColor:   fill,
		Weight:      1,
		Opacity:     1,
		Color:       DefaultOutline,
		FillOpacity: 0.7,
	}
	if selected {
		s.Weight = 3
		s.Color = SelectedOutline
		s.FillOpacity = 0.9
	}
	return s
}

// Camera is the initial map framing.
type Camera struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Zoom    int     `json:"zoom"`
	MinZoom int     `json:"min_zoom"`
}

// Framing constants.
const (
	CityZoom     = 11
	NationalZoom = 4
	MinZoom      = 4
)

// NationalCenter is the wide view used when no city is selected.
var NationalCenter = Camera{Lat: 39.8283, Lng: -98.5795, Zoom: NationalZoom, MinZoom: MinZoom}

// Frame centers on the city at a close zoom, or on the national extent when
// city is nil.
func Frame(city *registry.City) Camera {
	if city == nil {
		return NationalCenter
	}
	return Camera{Lat: city.Lat, Lng: city.Lng, Zoom: CityZoom, MinZoom: MinZoom}
}

// Legend explains the gradient for a share field.
type Legend struct {
	Title string            `json:"title"`
	Stops []colorscale.Stop `json:"stops"`
}

// LegendFor returns the legend of a share field; absolute fields have none.
func LegendFor(field demographics.Field) (Legend, bool) {
	if !field.IsPercent() {
		return Legend{}, false
	}
	return Legend{
		Title: "% " + field.Label() + " Population",
		Stops: colorscale.LegendStops(5),
	}, true
}
