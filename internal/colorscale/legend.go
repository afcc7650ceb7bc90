package colorscale

import "fmt"

// Stop is one sample of the gradient shown in a legend.
type Stop struct {
	Value float64 `json:"value"`
	Color Color   `json:"color"`
	Label string  `json:"label"`
}

// LegendStops samples the gradient at n evenly spaced points from 0 to 1,
// labelled as whole percentages.
func LegendStops(n int) []Stop {
	if n < 2 {
		n = 2
	}
	stops := make([]Stop, n)
	for i := range n {
		v := float64(i) / float64(n-1)
		stops[i] = Stop{
			Value: v,
			Color: At(v),
			Label: fmt.Sprintf("%.0f%%", v*100),
		}
	}
	return stops
}
