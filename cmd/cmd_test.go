package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/district-demographics/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"serve", "cities", "export", "validate"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "district-demographics", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	for _, name := range []string{"city", "sort", "asc", "format", "dir"} {
		assert.NotNil(t, exportCmd.Flags().Lookup(name), "export should have --%s flag", name)
	}
	assert.Equal(t, "csv", exportCmd.Flags().Lookup("format").DefValue)
}

// testEnv writes a registry and data files under a temp dir and wires an env
// that reads them from disk.
func testEnv(t *testing.T) (*env, string) {
	t.Helper()
	dir := t.TempDir()

	data, err := os.ReadFile(filepath.Join("..", "internal", "demographics", "testdata", "raleigh.geojson"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "results"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results", "raleigh.geojson"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results", "empty.geojson"),
		[]byte(`{"type":"FeatureCollection","features":[]}`), 0o644))

	registryYAML := `cities:
  - id: raleigh
    name: Raleigh, NC
    state: NC
    lat: 35.78
    lng: -78.64
    file: raleigh.geojson
    src: Raleigh Police Department
    source_date: "2020"
  - id: empty
    name: Empty Town, NC
    state: NC
    file: empty.geojson
  - id: gone
    name: Gone, TX
    state: TX
    file: gone.geojson
`
	regPath := filepath.Join(dir, "cities.yaml")
	require.NoError(t, os.WriteFile(regPath, []byte(registryYAML), 0o644))

	e, err := newEnv(&config.Config{Data: config.DataConfig{
		BaseURL:      dir,
		RegistryPath: regPath,
		TimeoutSecs:  5,
		MaxRetries:   1,
	}})
	require.NoError(t, err)
	return e, dir
}

func TestPrintCities(t *testing.T) {
	e, dir := testEnv(t)
	var buf bytes.Buffer
	require.NoError(t, printCities(&buf, e.Registry, dir))

	out := buf.String()
	assert.Contains(t, out, "Raleigh Police Department")
	assert.Contains(t, out, filepath.Join(dir, "results", "raleigh.geojson"))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "NC"))
	assert.True(t, strings.HasPrefix(lines[3], "TX"))
}

func TestRunExport_CSV(t *testing.T) {
	e, _ := testEnv(t)
	out := t.TempDir()

	path, err := runExport(context.Background(), e, exportOptions{CityID: "raleigh", Dir: out, Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "Raleigh_NC_demographics.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "DISTRICT,TOTAL,WHITE,BLACK,HISPANIC,ASIAN,AMERICAN_INDIAN,PACIFIC_ISLANDER,TWO_OR_MORE,OTHER", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `"District 10"`))
}

func TestRunExport_SortedAscendingByDistrict(t *testing.T) {
	e, _ := testEnv(t)
	out := t.TempDir()

	path, err := runExport(context.Background(), e, exportOptions{
		CityID: "raleigh", SortField: "district", Ascending: true, Dir: out, Locale: "en",
	})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	assert.True(t, strings.HasPrefix(lines[1], `"District 2"`))
	assert.True(t, strings.HasPrefix(lines[2], `"District 10"`))
}

func TestRunExport_XLSX(t *testing.T) {
	e, _ := testEnv(t)
	out := t.TempDir()

	path, err := runExport(context.Background(), e, exportOptions{CityID: "raleigh", Format: "xlsx", Dir: out})
	require.NoError(t, err)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Equal(t, "District 10", f.Sheets[0].Rows[1].Cells[0].String())
}

func TestRunExport_EmptyIsNoop(t *testing.T) {
	e, _ := testEnv(t)
	out := filepath.Join(t.TempDir(), "nested")

	path, err := runExport(context.Background(), e, exportOptions{CityID: "empty", Dir: out})
	require.NoError(t, err)
	assert.Empty(t, path)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRunExport_Errors(t *testing.T) {
	e, _ := testEnv(t)

	_, err := runExport(context.Background(), e, exportOptions{CityID: "nowhere"})
	assert.Error(t, err)
	_, err = runExport(context.Background(), e, exportOptions{CityID: "raleigh", SortField: "BOGUS"})
	assert.Error(t, err)
	_, err = runExport(context.Background(), e, exportOptions{CityID: "raleigh", Format: "pdf", Dir: t.TempDir()})
	assert.Error(t, err)
	_, err = runExport(context.Background(), e, exportOptions{CityID: "gone"})
	assert.Error(t, err)
}

func TestRunValidate(t *testing.T) {
	e, _ := testEnv(t)

	report, err := runValidate(context.Background(), e, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Cities)
	assert.Equal(t, 1, report.Failed)

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()
	assert.Contains(t, out, "gone: FAILED")
	assert.Contains(t, out, "empty: ok (0 districts)")
	assert.Contains(t, out, "3 cities, 1 failed")
}
