package selection

// Change describes one applied transition.
type Change struct {
	From Selection
	To   Selection
}

// Changed reports whether the selected district differs after the transition.
func (c Change) Changed() bool {
	return c.From.active != c.To.active || c.From.DistrictID() != c.To.DistrictID()
}

// Affected lists the district labels whose styling must be recomputed: the
// previously selected one and the newly selected one, without duplicates.
func (c Change) Affected() []string {
	var out []string
	if !c.From.IsIdle() {
		out = append(out, c.From.DistrictID())
	}
	if !c.To.IsIdle() && !c.From.Is(c.To.DistrictID()) {
		out = append(out, c.To.DistrictID())
	}
	return out
}

// Listener is notified after every applied transition.
type Listener func(Change)

// Coordinator owns the current selection. It is not safe for concurrent use;
// the view controller serializes access.
type Coordinator struct {
	current   Selection
	listeners []Listener
}

// NewCoordinator returns an Idle coordinator.
func NewCoordinator(listeners ...Listener) *Coordinator {
	return &Coordinator{listeners: listeners}
}

// Current returns the selection.
func (c *Coordinator) Current() Selection { return c.current }

// Dispatch applies ev and notifies listeners.
func (c *Coordinator) Dispatch(ev Event) Change {
	ch := Change{From: c.current, To: Next(c.current, ev)}
	c.current = ch.To
	for _, l := range c.listeners {
		l(ch)
	}
	return ch
}
