package view

import (
	"github.com/sells-group/district-demographics/internal/choropleth"
	"github.com/sells-group/district-demographics/internal/demographics"
	"github.com/sells-group/district-demographics/internal/table"
)

// LayerSummary describes the current map layer without its geometry.
type LayerSummary struct {
	Generation uint64 `json:"generation"`
	Key        string `json:"key"`
	Polygons   int    `json:"polygons"`
	Selected   string `json:"selected,omitempty"`
}

// TableRow is a rendered table row: the district label and display text for
// every statistic.
type TableRow struct {
	District string                        `json:"DISTRICT"`
	Values   map[demographics.Field]string `json:"values"`
}

// StatBox is one subgroup entry of the detail panel.
type StatBox struct {
	Field demographics.Field `json:"field"`
	Label string             `json:"label"`
	Value string             `json:"value"`
}

// DetailPanel shows the selected district.
type DetailPanel struct {
	District string    `json:"district"`
	Total    string    `json:"total"`
	Stats    []StatBox `json:"stats"`
}

// Detail builds the panel for a feature. Each subgroup shows its share with
// one decimal when non-zero, otherwise its absolute count.
func Detail(f demographics.Feature) DetailPanel {
	p := DetailPanel{
		District: f.DistrictID(),
		Total:    demographics.FormatNumber(f.Stat(demographics.Total)),
		Stats:    make([]StatBox, 0, len(demographics.Subgroups)),
	}
	for _, g := range demographics.Subgroups {
		value := demographics.FormatNumber(f.Stat(g))
		if pct := f.Stat(g.Percent()); pct != 0 {
			value = demographics.FormatPercent(pct)
		}
		p.Stats = append(p.Stats, StatBox{Field: g, Label: g.Label(), Value: value})
	}
	return p
}

// Snapshot is the full renderable view state. Rows is nil when the table is
// not rendered.
type Snapshot struct {
	Version  uint64                `json:"version"`
	CityID   string                `json:"city_id,omitempty"`
	CityName string                `json:"city_name,omitempty"`
	Field    demographics.Field    `json:"field"`
	Loading  bool                  `json:"loading"`
	Failed   bool                  `json:"failed"`
	Camera   choropleth.Camera     `json:"camera"`
	Layer    LayerSummary          `json:"layer"`
	Legend   *choropleth.Legend    `json:"legend,omitempty"`
	Sort     table.SortState       `json:"sort"`
	Rows     []TableRow            `json:"rows"`
	Detail   *DetailPanel          `json:"detail,omitempty"`
	Fields   []demographics.Option `json:"fields"`
}

// Snapshot returns the current view state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	layer := c.renderer.Layer()
	s := Snapshot{
		Version: c.version,
		Field:   c.state.Field,
		Loading: c.state.Loading,
		Failed:  c.state.Failed,
		Camera:  choropleth.Frame(c.state.City),
		Layer: LayerSummary{
			Generation: layer.Generation(),
			Key:        layer.Key(),
			Polygons:   layer.Len(),
			Selected:   layer.Selected(),
		},
		Sort:   c.state.Sort,
		Fields: demographics.ActiveFieldOptions(),
	}
	if c.state.City != nil {
		s.CityID = c.state.City.ID
		s.CityName = c.state.City.Name
	}
	if lg, ok := choropleth.LegendFor(c.state.Field); ok {
		s.Legend = &lg
	}
	if rows := c.rowsLocked(); rows != nil {
		s.Rows = make([]TableRow, 0, len(rows))
		for _, r := range rows {
			tr := TableRow{District: r.District, Values: make(map[demographics.Field]string, len(demographics.StatisticFields))}
			for _, f := range demographics.StatisticFields {
				tr.Values[f] = r.Cell(f).String()
			}
			s.Rows = append(s.Rows, tr)
		}
	}
	if f, ok := c.coord.Current().Feature(); ok {
		d := Detail(f)
		s.Detail = &d
	}
	return s
}
