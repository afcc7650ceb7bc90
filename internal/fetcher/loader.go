package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/district-demographics/internal/demographics"
	"github.com/sells-group/district-demographics/internal/registry"
)

// FetchError reports that a city's data file could not be retrieved or decoded.
type FetchError struct {
	CityID string
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.CityID, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchFailure reports whether err carries a *FetchError.
func IsFetchFailure(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// URLFor resolves a city's data file against the base URL. The file lives
// under "results/" relative to base.
func URLFor(base, file string) string {
	if strings.Contains(file, "://") {
		return file
	}
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "results/" + strings.TrimPrefix(file, "/")
}

// Loader downloads and decodes district collections for cities.
type Loader struct {
	BaseURL string
	Fetcher Fetcher
}

// NewLoader creates a Loader resolving files against baseURL.
func NewLoader(baseURL string, f Fetcher) *Loader {
	return &Loader{BaseURL: baseURL, Fetcher: f}
}

// Load fetches and decodes the city's districts. Every failure is a *FetchError.
func (l *Loader) Load(ctx context.Context, city registry.City) (*demographics.FeatureCollection, error) {
	u := URLFor(l.BaseURL, city.File)
	start := time.Now()

	fail := func(err error) error {
		return &FetchError{CityID: city.ID, URL: u, Err: err}
	}

	body, err := l.Fetcher.Download(ctx, u)
	if err != nil {
		return nil, fail(err)
	}
	defer body.Close() //nolint:errcheck

	fc, err := demographics.DecodeGeoJSON(body, city.ID, demographics.DecodeOptions{
		DistrictProperty: city.DistrictField,
	})
	if err != nil {
		return nil, fail(eris.Wrap(err, "decode"))
	}

	zap.L().Debug("fetcher: loaded city",
		zap.String("city", city.ID),
		zap.String("url", u),
		zap.Int("features", fc.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return fc, nil
}
