package demographics

import (
	"fmt"
	"math"
)

// Issue describes one inconsistency found in upstream data.
type Issue struct {
	DistrictID string  `json:"district"`
	Field      Field   `json:"field"`
	Message    string  `json:"message"`
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s (expected %g, got %g)", i.DistrictID, i.Field, i.Message, i.Expected, i.Actual)
}

// Check reports features whose subgroup counts do not sum to TOTAL within
// tolerance, and share fields outside [0,1]. Upstream data is trusted at
// render time; this exists to audit fixtures and delivered files.
func Check(c *FeatureCollection, tolerance float64) []Issue {
	var issues []Issue
	for _, f := range c.Features() {
		var sum float64
		for _, g := range Subgroups {
			sum += f.Stat(g)
		}
		total := f.Stat(Total)
		if math.Abs(sum-total) > tolerance {
			issues = append(issues, Issue{
				DistrictID: f.DistrictID(),
				Field:      Total,
				Message:    "subgroup counts do not sum to total",
				Expected:   total,
				Actual:     sum,
			})
		}
		for _, p := range PercentFields {
			v, ok := f.Value(p)
			if !ok {
				continue
			}
			if v < 0 || v > 1 {
				issues = append(issues, Issue{
					DistrictID: f.DistrictID(),
					Field:      p,
					Message:    "share outside [0,1]",
					Expected:   1,
					Actual:     v,
				})
			}
		}
	}
	return issues
}
