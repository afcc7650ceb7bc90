// Package selection holds the single "selected district" shared by the map
// layer and the detail panel.
package selection

import "github.com/sells-group/district-demographics/internal/demographics"

// Selection is either Idle or holds exactly one feature.
type Selection struct {
	feature demographics.Feature
	active  bool
}

// Idle is the empty selection.
var Idle = Selection{}

// Of returns a selection holding f.
func Of(f demographics.Feature) Selection {
	return Selection{feature: f, active: true}
}

// Feature returns the selected feature, if any.
func (s Selection) Feature() (demographics.Feature, bool) {
	return s.feature, s.active
}

// DistrictID returns the selected district label, or "" when idle.
func (s Selection) DistrictID() string {
	if !s.active {
		return ""
	}
	return s.feature.DistrictID()
}

// IsIdle reports whether nothing is selected.
func (s Selection) IsIdle() bool { return !s.active }

// Is reports whether the given district is the selected one.
func (s Selection) Is(districtID string) bool {
	return s.active && s.feature.DistrictID() == districtID
}

// Event drives a selection transition.
type Event interface {
	isEvent()
}

// Activate is a user interaction with a polygon or table row.
type Activate struct {
	Feature demographics.Feature
}

// Dismiss is the detail panel close action.
type Dismiss struct{}

// CityChanged fires whenever the active city changes or its collection is replaced.
type CityChanged struct{}

func (Activate) isEvent()    {}
func (Dismiss) isEvent()     {}
func (CityChanged) isEvent() {}

// Next is the transition function. Activating replaces any prior selection;
// there is no toggle-off by re-activating. Dismiss and CityChanged always
// return Idle.
func Next(_ Selection, ev Event) Selection {
	switch e := ev.(type) {
	case Activate:
		return Of(e.Feature)
	case Dismiss, CityChanged:
		return Idle
	}
	return Idle
}
