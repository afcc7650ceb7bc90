package choropleth

import (
	"go.uber.org/zap"

	"github.com/sells-group/district-demographics/internal/demographics"
	"github.com/sells-group/district-demographics/internal/selection"
)

// Surface is the opaque map canvas a layer is drawn onto.
type Surface interface {
	Draw(l *Layer)
}

// Renderer owns the current layer. It is not safe for concurrent use.
type Renderer struct {
	generation uint64
	layer      *Layer
	surface    Surface
}

// NewRenderer starts with an empty layer. surface may be nil.
func NewRenderer(surface Surface) *Renderer {
	r := &Renderer{surface: surface}
	r.Clear()
	return r
}

// Layer returns the current layer.
func (r *Renderer) Layer() *Layer { return r.layer }

// Clear replaces the layer with one that draws no polygons.
func (r *Renderer) Clear() *Layer {
	return r.Render(nil, "", selection.Idle)
}

// Render replaces the current layer with a full rendering of fc styled by
// field. The selected district, if present in fc, is drawn highlighted.
func (r *Renderer) Render(fc *demographics.FeatureCollection, field demographics.Field, sel selection.Selection) *Layer {
	r.generation++
	features := fc.Features()
	l := &Layer{
		generation: r.generation,
		cityID:     fc.CityID(),
		field:      field,
		polygons:   make([]Polygon, 0, len(features)),
		index:      make(map[string]int, len(features)),
	}
	for _, f := range features {
		if _, dup := l.index[f.DistrictID()]; dup {
			// Only the first polygon with a label takes part in selection.
			l.polygons = append(l.polygons, Polygon{Feature: f, Style: StyleFor(f, field, false)})
			continue
		}
		selected := sel.Is(f.DistrictID())
		l.index[f.DistrictID()] = len(l.polygons)
		l.polygons = append(l.polygons, Polygon{
			Feature:  f,
			Style:    StyleFor(f, field, selected),
			Selected: selected,
		})
	}
	r.layer = l

	zap.L().Debug("choropleth: rendered layer",
		zap.Uint64("generation", l.generation),
		zap.String("key", l.Key()),
		zap.Int("polygons", l.Len()),
	)
	r.draw()
	return l
}

// Apply restyles exactly the polygons a selection change affects and returns
// their labels. The restyled polygons go into a copy of the layer that keeps
// its generation; the previous *Layer is left as it was drawn.
func (r *Renderer) Apply(ch selection.Change) []string {
	next := r.layer.clone()
	done := next.restyle(ch.Affected(), ch.To)
	if len(done) > 0 {
		r.layer = next
		r.draw()
	}
	return done
}

func (r *Renderer) draw() {
	if r.surface != nil {
		r.surface.Draw(r.layer)
	}
}
