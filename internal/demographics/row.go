package demographics

// Row is the flat table projection of one feature: its district label plus
// every statistic field, absent values defaulted to 0.
type Row struct {
	District string
	values   map[Field]float64
}

// Cell is one table value. District labels are textual; statistics are numeric.
type Cell struct {
	Text    string
	Number  float64
	Numeric bool
}

// String renders the cell the way the table and export show it.
func (c Cell) String() string {
	if c.Numeric {
		return FormatNumber(c.Number)
	}
	return c.Text
}

// Project derives a row from a feature. It never fails.
func Project(f Feature) Row {
	values := make(map[Field]float64, len(StatisticFields))
	for _, field := range StatisticFields {
		values[field] = f.Stat(field)
	}
	return Row{District: f.DistrictID(), values: values}
}

// ProjectAll projects every feature of a collection, preserving feature order.
// A nil collection yields no rows.
func ProjectAll(c *FeatureCollection) []Row {
	features := c.Features()
	rows := make([]Row, 0, len(features))
	for _, f := range features {
		rows = append(rows, Project(f))
	}
	return rows
}

// Get returns a statistic of the row, 0 when the field is unknown.
func (r Row) Get(field Field) float64 {
	return r.values[field]
}

// Cell returns the value of a column. DISTRICT is textual, every other field numeric.
func (r Row) Cell(field Field) Cell {
	if field == DistrictField {
		return Cell{Text: r.District}
	}
	return Cell{Number: r.values[field], Numeric: true}
}
