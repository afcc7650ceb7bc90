package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/district-demographics/internal/choropleth"
	"github.com/sells-group/district-demographics/internal/demographics"
	"github.com/sells-group/district-demographics/internal/table"
	"github.com/sells-group/district-demographics/internal/view"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	out := map[string]any{"sessions": s.deps.Sessions.Stats()}
	if s.deps.Collector != nil {
		out["fetch"] = s.deps.Collector.Collect()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) cities(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("group") == "state" {
		writeJSON(w, http.StatusOK, s.deps.Registry.Groups())
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Registry.Sorted())
}

func (s *Server) fields(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, demographics.ActiveFieldOptions())
}

func (s *Server) createSession(w http.ResponseWriter, _ *http.Request) {
	id, c := s.deps.Sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "snapshot": c.Snapshot()})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Sessions.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// controller resolves the session of the request, answering 404 when absent.
func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*view.Controller, bool) {
	c, ok := s.deps.Sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
	}
	return c, ok
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// dispatch applies ev and answers with the resulting snapshot.
func (s *Server) dispatch(w http.ResponseWriter, c *view.Controller, ev view.Event) {
	if err := c.Dispatch(ev); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			zap.L().Error("server: dispatch failed", zap.Error(err))
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func statusFor(err error) int {
	switch {
	case eris.Is(err, view.ErrUnknownCity), eris.Is(err, view.ErrUnknownDistrict):
		return http.StatusNotFound
	case eris.Is(err, demographics.ErrUnknownField):
		return http.StatusBadRequest
	case eris.Is(err, view.ErrStaleLayer):
		return http.StatusConflict
	case eris.Is(err, view.ErrClosed):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

func (s *Server) selectCity(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	var req struct {
		CityID string `json:"city_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, c, view.CityChanged{CityID: req.CityID})
}

func (s *Server) selectField(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	var req struct {
		Field string `json:"field"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, c, view.FieldChanged{Field: demographics.Field(req.Field)})
}

// activate handles polygon clicks (with a generation) and row clicks
// (generation omitted).
func (s *Server) activate(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	var req struct {
		District   string  `json:"district"`
		Generation *uint64 `json:"generation"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Generation == nil {
		s.dispatch(w, c, view.RowActivated{DistrictID: req.District})
		return
	}
	s.dispatch(w, c, view.FeatureActivated{Activation: choropleth.Activation{
		Generation: *req.Generation,
		DistrictID: req.District,
	}})
}

func (s *Server) dismiss(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	s.dispatch(w, c, view.FeatureDismissed{})
}

func (s *Server) sort(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	var req struct {
		Field string `json:"field"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, c, view.SortRequested{Field: demographics.Field(req.Field)})
}

func (s *Server) layer(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	data, err := c.LayerGeoJSON()
	if err != nil {
		zap.L().Error("server: encode layer", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "layer encoding failed")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	format := chi.URLParam(r, "format")
	if format != view.FormatCSV && format != view.FormatXLSX {
		writeError(w, http.StatusNotFound, "unknown export format")
		return
	}

	f, err := c.Export(format)
	if eris.Is(err, table.ErrEmptyExport) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		zap.L().Error("server: export", zap.String("format", format), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(f.Name))
	_, _ = w.Write(f.Data)
}
