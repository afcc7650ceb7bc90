// Package table orders district rows for the sortable table and exports them.
package table

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/district-demographics/internal/demographics"
)

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// SortState is the active table column and direction.
type SortState struct {
	Field     demographics.Field `json:"field"`
	Direction Direction          `json:"direction"`
}

// DefaultSortState is TOTAL, descending.
func DefaultSortState() SortState {
	return SortState{Field: demographics.Total, Direction: Descending}
}

// Toggle applies a header click. Every column starts descending; only a click
// on the column that is already sorted descending switches it to ascending.
func (s SortState) Toggle(field demographics.Field) SortState {
	if s.Field == field && s.Direction == Descending {
		return SortState{Field: field, Direction: Ascending}
	}
	return SortState{Field: field, Direction: Descending}
}

// Sorter orders rows using locale-aware, numeric-substring-aware collation for
// textual columns.
type Sorter struct {
	tag language.Tag
}

// NewSorter builds a Sorter for a BCP 47 locale. Unparseable locales fall back
// to English.
func NewSorter(locale string) *Sorter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Sorter{tag: tag}
}

var defaultSorter = NewSorter("en")

// Sort orders rows with the default English collation.
func Sort(rows []demographics.Row, state SortState) []demographics.Row {
	return defaultSorter.Sort(rows, state)
}

// Sort returns a stably sorted copy of rows; the input is not modified.
// Two numeric cells compare numerically, anything else compares as text so
// "District 2" precedes "District 10".
func (s *Sorter) Sort(rows []demographics.Row, state SortState) []demographics.Row {
	out := slices.Clone(rows)
	if state.Field == "" {
		return out
	}

	// A Collator keeps scratch buffers and is not safe for concurrent use.
	coll := collate.New(s.tag, collate.Numeric)
	slices.SortStableFunc(out, func(a, b demographics.Row) int {
		c := compareCells(coll, a.Cell(state.Field), b.Cell(state.Field))
		if state.Direction == Descending {
			return -c
		}
		return c
	})
	return out
}

func compareCells(coll *collate.Collator, a, b demographics.Cell) int {
	if a.Numeric && b.Numeric {
		return cmp.Compare(a.Number, b.Number)
	}
	return coll.CompareString(a.String(), b.String())
}
