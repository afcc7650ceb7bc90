package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/district-demographics/internal/fetcher"
	"github.com/sells-group/district-demographics/internal/monitoring"
	"github.com/sells-group/district-demographics/internal/registry"
	"github.com/sells-group/district-demographics/internal/session"
	"github.com/sells-group/district-demographics/internal/view"
)

type harness struct {
	srv       *httptest.Server
	collector *monitoring.Collector
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join("..", "demographics", "testdata", "raleigh.geojson"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "results"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results", "raleigh.geojson"), data, 0o644))

	reg, err := registry.New([]registry.City{
		{ID: "raleigh", Name: "Raleigh, NC", State: "NC", Lat: 35.78, Lng: -78.64, File: "raleigh.geojson"},
		{ID: "missing", Name: "Nowhere, ZZ", State: "ZZ", File: "missing.geojson"},
	})
	require.NoError(t, err)

	collector := monitoring.NewCollector(10)
	loader := fetcher.NewLoader(dir, fetcher.FileFetcher{})
	store := session.NewStore(10, time.Hour, func() *view.Controller {
		return view.New(view.Options{Registry: reg, Loader: loader, Sink: collector})
	})
	t.Cleanup(store.Close)

	s := New(Deps{
		Registry:   reg,
		Sessions:   store,
		Collector:  collector,
		ResultsDir: filepath.Join(dir, "results"),
	})
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &harness{srv: srv, collector: collector}
}

func (h *harness) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (h *harness) session(t *testing.T) string {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decodeBody[struct {
		ID string `json:"id"`
	}](t, resp)
	require.NotEmpty(t, out.ID)
	return out.ID
}

func (h *harness) snapshot(t *testing.T, id string) view.Snapshot {
	t.Helper()
	resp := h.do(t, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[view.Snapshot](t, resp)
}

func (h *harness) loadCity(t *testing.T, id, city string) view.Snapshot {
	t.Helper()
	resp := h.do(t, http.MethodPut, "/api/sessions/"+id+"/city", map[string]string{"city_id": city})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap view.Snapshot
	require.Eventually(t, func() bool {
		snap = h.snapshot(t, id)
		return !snap.Loading
	}, 2*time.Second, 10*time.Millisecond)
	return snap
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, resp)["status"])
}

func TestCitiesAndFields(t *testing.T) {
	h := newHarness(t)

	cities := decodeBody[[]registry.City](t, h.do(t, http.MethodGet, "/api/cities", nil))
	require.Len(t, cities, 2)
	assert.Equal(t, "Nowhere, ZZ", cities[0].Name)

	groups := decodeBody[[]registry.Group](t, h.do(t, http.MethodGet, "/api/cities?group=state", nil))
	require.Len(t, groups, 2)
	assert.Equal(t, "NC", groups[0].State)

	fields := decodeBody[[]map[string]string](t, h.do(t, http.MethodGet, "/api/fields", nil))
	require.Len(t, fields, 9)
	assert.Equal(t, "TOTAL", fields[0]["value"])
	assert.Equal(t, "Total Population", fields[0]["label"])
}

func TestSessionFlow(t *testing.T) {
	h := newHarness(t)
	id := h.session(t)

	snap := h.loadCity(t, id, "raleigh")
	assert.Equal(t, "raleigh", snap.CityID)
	assert.Equal(t, 3, snap.Layer.Polygons)
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, "District 10", snap.Rows[0].District)

	// Polygon click bound to the current layer.
	resp := h.do(t, http.MethodPost, "/api/sessions/"+id+"/activate",
		map[string]any{"district": "District 2", "generation": snap.Layer.Generation})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decodeBody[view.Snapshot](t, resp)
	require.NotNil(t, snap.Detail)
	assert.Equal(t, "District 2", snap.Detail.District)

	// Field change replaces the layer; the old generation is rejected.
	old := snap.Layer.Generation
	resp = h.do(t, http.MethodPut, "/api/sessions/"+id+"/field", map[string]string{"field": "WHITE_PCT"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = h.do(t, http.MethodPost, "/api/sessions/"+id+"/activate",
		map[string]any{"district": "Downtown", "generation": old})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Row click needs no generation.
	resp = h.do(t, http.MethodPost, "/api/sessions/"+id+"/activate", map[string]any{"district": "Downtown"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Downtown", decodeBody[view.Snapshot](t, resp).Layer.Selected)

	resp = h.do(t, http.MethodDelete, "/api/sessions/"+id+"/selection", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decodeBody[view.Snapshot](t, resp).Detail)

	resp = h.do(t, http.MethodPost, "/api/sessions/"+id+"/sort", map[string]string{"field": "TOTAL"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decodeBody[view.Snapshot](t, resp)
	assert.Equal(t, "ascending", string(snap.Sort.Direction))
	assert.Equal(t, "Downtown", snap.Rows[0].District)
}

func TestSessionErrors(t *testing.T) {
	h := newHarness(t)
	id := h.session(t)

	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/sessions/nope", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound,
		h.do(t, http.MethodPut, "/api/sessions/"+id+"/city", map[string]string{"city_id": "gotham"}).StatusCode)
	assert.Equal(t, http.StatusBadRequest,
		h.do(t, http.MethodPut, "/api/sessions/"+id+"/field", map[string]string{"field": "WHITE"}).StatusCode)
	assert.Equal(t, http.StatusBadRequest,
		h.do(t, http.MethodPost, "/api/sessions/"+id+"/sort", map[string]string{"field": "BOGUS"}).StatusCode)

	req, err := http.NewRequest(http.MethodPut, h.srv.URL+"/api/sessions/"+id+"/city", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFailedFetch(t *testing.T) {
	h := newHarness(t)
	id := h.session(t)

	snap := h.loadCity(t, id, "missing")
	assert.True(t, snap.Failed)
	assert.Zero(t, snap.Layer.Polygons)
	assert.Nil(t, snap.Rows)

	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodGet, "/api/sessions/"+id+"/export.csv", nil).StatusCode)

	stats := decodeBody[struct {
		Fetch monitoring.MetricsSnapshot `json:"fetch"`
	}](t, h.do(t, http.MethodGet, "/api/stats", nil))
	assert.Equal(t, 1, stats.Fetch.FetchFailed)
	require.Len(t, stats.Fetch.RecentFailures, 1)
	assert.Equal(t, "missing", stats.Fetch.RecentFailures[0].CityID)
}

func TestExportAndLayer(t *testing.T) {
	h := newHarness(t)
	id := h.session(t)
	h.loadCity(t, id, "raleigh")

	resp := h.do(t, http.MethodGet, "/api/sessions/"+id+"/export.csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="Raleigh_NC_demographics.csv"`, resp.Header.Get("Content-Disposition"))
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], `"District 10","2500"`))

	resp = h.do(t, http.MethodGet, "/api/sessions/"+id+"/export.xlsx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Raleigh_NC_demographics.xlsx")

	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/sessions/"+id+"/export.pdf", nil).StatusCode)

	resp = h.do(t, http.MethodGet, "/api/sessions/"+id+"/layer.geojson", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
	layer := decodeBody[struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}](t, resp)
	assert.Equal(t, "FeatureCollection", layer.Type)
	require.Len(t, layer.Features, 3)
	assert.Equal(t, "#2b547e", layer.Features[0].Properties["fillColor"])
}

func TestStaticResults(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/results/raleigh.geojson", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteSession(t *testing.T) {
	h := newHarness(t)
	id := h.session(t)
	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, "/api/sessions/"+id, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/sessions/"+id, nil).StatusCode)
}

func TestWebSocketStream(t *testing.T) {
	h := newHarness(t)
	id := h.session(t)

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/api/sessions/" + id + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close() //nolint:errcheck
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first view.Snapshot
	require.NoError(t, ws.ReadJSON(&first))
	assert.Empty(t, first.CityID)

	h.do(t, http.MethodPut, "/api/sessions/"+id+"/city", map[string]string{"city_id": "raleigh"})

	// Read until the fetch completion arrives.
	for {
		var snap view.Snapshot
		require.NoError(t, ws.ReadJSON(&snap))
		if snap.CityID == "raleigh" && !snap.Loading {
			assert.Equal(t, 3, snap.Layer.Polygons)
			return
		}
	}
}

func TestLatest_KeepsNewestSnapshot(t *testing.T) {
	l := make(latest, 1)
	l.offer(view.Snapshot{Version: 4, Field: "TOTAL"})
	l.offer(view.Snapshot{Version: 3, Field: "WHITE_PCT"})
	got := <-l
	assert.Equal(t, uint64(4), got.Version)
	assert.Equal(t, "TOTAL", string(got.Field))

	l.offer(view.Snapshot{Version: 5})
	l.offer(view.Snapshot{Version: 6})
	assert.Equal(t, uint64(6), (<-l).Version)
	assert.Empty(t, l)
}
