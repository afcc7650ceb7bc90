package demographics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_DefaultsAbsentToZero(t *testing.T) {
	f := NewFeature("North", nil, map[Field]float64{Total: 10, White: 4})
	row := Project(f)

	assert.Equal(t, "North", row.District)
	assert.Equal(t, 10.0, row.Get(Total))
	assert.Equal(t, 4.0, row.Get(White))
	for _, field := range StatisticFields {
		if field == Total || field == White {
			continue
		}
		assert.Equal(t, 0.0, row.Get(field), field)
	}
}

func TestProject_Cells(t *testing.T) {
	row := Project(NewFeature("District 9", nil, map[Field]float64{Total: 1234.5}))

	c := row.Cell(DistrictField)
	assert.False(t, c.Numeric)
	assert.Equal(t, "District 9", c.String())

	c = row.Cell(Total)
	assert.True(t, c.Numeric)
	assert.Equal(t, "1234.5", c.String())

	assert.Equal(t, "0", row.Cell("NOT_A_FIELD").String())
}

func TestProjectAll_PreservesOrder(t *testing.T) {
	fc := NewFeatureCollection("c", []Feature{
		NewFeature("b", nil, nil),
		NewFeature("a", nil, nil),
		NewFeature("c", nil, nil),
	})
	rows := ProjectAll(fc)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{rows[0].District, rows[1].District, rows[2].District})

	assert.Empty(t, ProjectAll(nil))
}

func TestFeature_IsImmutable(t *testing.T) {
	stats := map[Field]float64{Total: 5}
	f := NewFeature("x", nil, stats)
	stats[Total] = 99
	assert.Equal(t, 5.0, f.Stat(Total))

	copied := f.Stats()
	copied[Total] = 42
	assert.Equal(t, 5.0, f.Stat(Total))
}

func TestFeatureCollection_FindFirstWins(t *testing.T) {
	fc := NewFeatureCollection("c", []Feature{
		NewFeature("dup", nil, map[Field]float64{Total: 1}),
		NewFeature("dup", nil, map[Field]float64{Total: 2}),
	})
	f, ok := fc.Find("dup")
	require.True(t, ok)
	assert.Equal(t, 1.0, f.Stat(Total))

	_, ok = fc.Find("missing")
	assert.False(t, ok)

	var empty *FeatureCollection
	assert.Equal(t, 0, empty.Len())
	_, ok = empty.Find("dup")
	assert.False(t, ok)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "42", FormatNumber(42))
	assert.Equal(t, "42.25", FormatNumber(42.25))
	assert.Equal(t, "42.5%", FormatPercent(0.425))
	assert.Equal(t, "0.0%", FormatPercent(0))
}

func TestCheck_ReportsInconsistencies(t *testing.T) {
	fc := NewFeatureCollection("c", []Feature{
		NewFeature("ok", nil, map[Field]float64{Total: 3, White: 1, Black: 2, "WHITE_PCT": 0.33}),
		NewFeature("bad", nil, map[Field]float64{Total: 10, White: 1, "BLACK_PCT": 1.5}),
	})
	issues := Check(fc, 0.01)
	require.Len(t, issues, 2)
	assert.Equal(t, "bad", issues[0].DistrictID)
	assert.Equal(t, Total, issues[0].Field)
	assert.Equal(t, 1.0, issues[0].Actual)
	assert.Equal(t, Field("BLACK_PCT"), issues[1].Field)
	assert.Contains(t, issues[1].String(), "share outside")
}
