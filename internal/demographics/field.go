// Package demographics models per-district population estimates: the fixed
// statistic field set, the features and collections that carry them, and the
// flat table rows projected from them.
package demographics

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Field names a statistic attached to a district, or the district label itself.
type Field string

// DistrictField is the textual label column of a table row.
const DistrictField Field = "DISTRICT"

// Absolute population counts.
const (
	Total           Field = "TOTAL"
	White           Field = "WHITE"
	Black           Field = "BLACK"
	Hispanic        Field = "HISPANIC"
	Asian           Field = "ASIAN"
	AmericanIndian  Field = "AMERICAN_INDIAN"
	PacificIslander Field = "PACIFIC_ISLANDER"
	TwoOrMore       Field = "TWO_OR_MORE"
	Other           Field = "OTHER"
)

const pctSuffix = "_PCT"

// ErrUnknownField is returned when a name is not part of the statistic set.
var ErrUnknownField = eris.New("demographics: unknown field")

// Subgroups lists the absolute subgroup counts in table order.
var Subgroups = []Field{White, Black, Hispanic, Asian, AmericanIndian, PacificIslander, TwoOrMore, Other}

// AbsoluteFields is TOTAL followed by every subgroup count.
var AbsoluteFields = append([]Field{Total}, Subgroups...)

// PercentFields lists the subgroup share fields, parallel to Subgroups.
var PercentFields = func() []Field {
	out := make([]Field, len(Subgroups))
	for i, f := range Subgroups {
		out[i] = f.Percent()
	}
	return out
}()

// StatisticFields is every numeric field a feature may carry.
var StatisticFields = append(append([]Field{}, AbsoluteFields...), PercentFields...)

var labels = map[Field]string{
	Total:           "Total Population",
	White:           "White",
	Black:           "Black",
	Hispanic:        "Hispanic",
	Asian:           "Asian",
	AmericanIndian:  "American Indian",
	PacificIslander: "Pacific Islander",
	TwoOrMore:       "Two or More",
	Other:           "Other",
	DistrictField:   "District",
}

// Percent returns the share field paired with an absolute subgroup count.
// Percent of a field that is already a share returns it unchanged.
func (f Field) Percent() Field {
	if f.IsPercent() {
		return f
	}
	return f + pctSuffix
}

// Absolute returns the count field a share field is derived from.
func (f Field) Absolute() Field {
	return Field(strings.TrimSuffix(string(f), pctSuffix))
}

// IsPercent reports whether the field holds a fraction in [0,1].
func (f Field) IsPercent() bool {
	return strings.HasSuffix(string(f), pctSuffix)
}

// IsStatistic reports whether the field is one of the numeric statistic fields.
func (f Field) IsStatistic() bool {
	for _, s := range StatisticFields {
		if s == f {
			return true
		}
	}
	return false
}

// Label returns the human-readable name of the field. Share fields use the
// label of their subgroup.
func (f Field) Label() string {
	if l, ok := labels[f.Absolute()]; ok {
		return l
	}
	return string(f)
}

// Option is one entry of the demographic field selector.
type Option struct {
	Label string `json:"label"`
	Field Field  `json:"value"`
}

// ActiveFieldOptions returns the selectable map fields in display order:
// the absolute total first, then every subgroup share.
func ActiveFieldOptions() []Option {
	opts := []Option{{Label: Total.Label(), Field: Total}}
	for _, f := range PercentFields {
		opts = append(opts, Option{Label: f.Label(), Field: f})
	}
	return opts
}

// ParseActiveField validates a selector value. Only TOTAL and the share fields
// may drive the map.
func ParseActiveField(s string) (Field, error) {
	f := Field(strings.ToUpper(strings.TrimSpace(s)))
	for _, o := range ActiveFieldOptions() {
		if o.Field == f {
			return f, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownField, "active field %q", s)
}

// ParseSortField validates a table column name: DISTRICT or any statistic field.
func ParseSortField(s string) (Field, error) {
	f := Field(strings.ToUpper(strings.TrimSpace(s)))
	if f == DistrictField || f.IsStatistic() {
		return f, nil
	}
	return "", eris.Wrapf(ErrUnknownField, "sort field %q", s)
}
