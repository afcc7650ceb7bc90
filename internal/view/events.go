package view

import (
	"time"

	"github.com/sells-group/district-demographics/internal/choropleth"
	"github.com/sells-group/district-demographics/internal/demographics"
)

// Event is a named transition of the controller's state.
type Event interface {
	isEvent()
}

// CityChanged picks a city by registry id. An empty id returns to the
// national view with no city.
type CityChanged struct {
	CityID string
}

// FieldChanged picks the active field.
type FieldChanged struct {
	Field demographics.Field
}

// FeatureActivated is a click on a polygon of a specific layer generation.
type FeatureActivated struct {
	Activation choropleth.Activation
}

// RowActivated is a click on a table row.
type RowActivated struct {
	DistrictID string
}

// FeatureDismissed closes the detail panel.
type FeatureDismissed struct{}

// SortRequested is a click on a table header.
type SortRequested struct {
	Field demographics.Field
}

// FetchToken identifies one issued fetch.
type FetchToken struct {
	Seq    uint64
	CityID string
}

// FetchResolved completes a fetch with a decoded collection.
type FetchResolved struct {
	Token      FetchToken
	Collection *demographics.FeatureCollection
	Elapsed    time.Duration
}

// FetchFailed completes a fetch with an error.
type FetchFailed struct {
	Token FetchToken
	URL   string
	Err   error
}

func (CityChanged) isEvent()      {}
func (FieldChanged) isEvent()     {}
func (FeatureActivated) isEvent() {}
func (RowActivated) isEvent()     {}
func (FeatureDismissed) isEvent() {}
func (SortRequested) isEvent()    {}
func (FetchResolved) isEvent()    {}
func (FetchFailed) isEvent()      {}
