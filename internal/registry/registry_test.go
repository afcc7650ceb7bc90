package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	reg, err := LoadFile("testdata/cities.yaml")
	require.NoError(t, err)
	assert.Equal(t, 4, reg.Len())

	c, ok := reg.Lookup("raleigh")
	require.True(t, ok)
	assert.Equal(t, "Raleigh, NC", c.Name)
	assert.Equal(t, "NC/raleigh.geojson", c.File)
	assert.InDelta(t, 35.8436, c.Lat, 1e-9)
	assert.InDelta(t, -78.6449, c.Lng, 1e-9)
	assert.Equal(t, "2025-01-15", c.SourceDate)
	assert.Equal(t, "DISTRICT", c.DistrictField)

	_, ok = reg.Lookup("nowhere")
	assert.False(t, ok)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestSorted(t *testing.T) {
	reg, err := LoadFile("testdata/cities.yaml")
	require.NoError(t, err)

	var names []string
	for _, c := range reg.Sorted() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Austin, TX", "Charlotte, NC", "Raleigh, NC", "Washington, DC"}, names)

	assert.Equal(t, "raleigh", reg.All()[0].ID, "All keeps file order")
}

func TestGroups(t *testing.T) {
	reg, err := LoadFile("testdata/cities.yaml")
	require.NoError(t, err)

	groups := reg.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, "NC", groups[0].State)
	require.Len(t, groups[0].Cities, 2)
	assert.Equal(t, "charlotte", groups[0].Cities[0].ID)
	assert.Equal(t, "TX", groups[1].State)
	assert.Equal(t, "", groups[2].State)
	assert.Equal(t, "dc", groups[2].Cities[0].ID)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		cities []City
	}{
		{"missing id", []City{{Name: "A", File: "a.geojson"}}},
		{"missing file", []City{{ID: "a", Name: "A"}}},
		{"duplicate", []City{{ID: "a", Name: "A", File: "a"}, {ID: "a", Name: "B", File: "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cities)
			assert.Error(t, err)
		})
	}
}

func TestParse(t *testing.T) {
	reg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())

	_, err = Parse(strings.NewReader("cities: {nope"))
	assert.Error(t, err)
}
