package demographics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// DecodeOptions controls how a feature collection document is read.
type DecodeOptions struct {
	// DistrictProperty is the property holding the district label. Features
	// without it fall back to "DISTRICT".
	DistrictProperty string
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

type rawFeature struct {
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// DecodeGeoJSON reads a GeoJSON FeatureCollection into a FeatureCollection for
// the given city. Statistic properties that are missing or not numeric are left
// absent; the document as a whole either decodes or fails.
func DecodeGeoJSON(r io.Reader, cityID string, opts DecodeOptions) (*FeatureCollection, error) {
	if opts.DistrictProperty == "" {
		opts.DistrictProperty = string(DistrictField)
	}

	var raw rawCollection
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "demographics: decode feature collection")
	}
	if raw.Type != "FeatureCollection" {
		return nil, eris.Errorf("demographics: expected FeatureCollection, got %q", raw.Type)
	}

	features := make([]Feature, 0, len(raw.Features))
	for i, rf := range raw.Features {
		g, err := decodeGeometry(rf.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "demographics: feature %d geometry", i)
		}
		features = append(features, NewFeature(
			districtLabel(labelProperty(rf.Properties, opts.DistrictProperty)),
			g,
			statistics(rf.Properties),
		))
	}

	return NewFeatureCollection(cityID, features), nil
}

func decodeGeometry(raw json.RawMessage) (geom.T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var g geom.T
	if err := geojson.Unmarshal(trimmed, &g); err != nil {
		return nil, err
	}
	return g, nil
}

func labelProperty(props map[string]any, name string) any {
	if v, ok := props[name]; ok {
		return v
	}
	return props[string(DistrictField)]
}

func districtLabel(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func statistics(props map[string]any) map[Field]float64 {
	stats := make(map[Field]float64, len(StatisticFields))
	for _, f := range StatisticFields {
		v, ok := props[string(f)]
		if !ok || v == nil {
			continue
		}
		n, ok := number(v)
		if !ok {
			zap.L().Debug("demographics: ignoring non-numeric statistic",
				zap.String("field", string(f)),
				zap.Any("value", v),
			)
			continue
		}
		stats[f] = n
	}
	return stats
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return n, err == nil
	default:
		return 0, false
	}
}
