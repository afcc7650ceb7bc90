// Package view orchestrates city and field selection, the asynchronous city
// fetch, the selection coordinator, the choropleth layer and the table.
package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/district-demographics/internal/choropleth"
	"github.com/sells-group/district-demographics/internal/demographics"
	"github.com/sells-group/district-demographics/internal/fetcher"
	"github.com/sells-group/district-demographics/internal/monitoring"
	"github.com/sells-group/district-demographics/internal/registry"
	"github.com/sells-group/district-demographics/internal/selection"
	"github.com/sells-group/district-demographics/internal/table"
)

// Error kinds returned by Dispatch.
var (
	ErrUnknownCity     = eris.New("view: unknown city")
	ErrUnknownDistrict = eris.New("view: unknown district")
	ErrStaleLayer      = eris.New("view: activation from a replaced layer")
	ErrClosed          = eris.New("view: controller closed")
)

// Loader retrieves a city's collection. *fetcher.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context, city registry.City) (*demographics.FeatureCollection, error)
}

// Scheduler runs a fetch task off the caller's goroutine. It must not run
// the task before returning.
type Scheduler func(task func())

// Options configures a Controller. Registry and Loader are required.
type Options struct {
	Registry *registry.Registry
	Loader   Loader
	Sink     monitoring.Sink
	Sorter   *table.Sorter
	Surface  choropleth.Surface
	// Schedule defaults to one goroutine per fetch, tracked by Wait.
	Schedule Scheduler
}

// State is the controller's owned record.
type State struct {
	City       *registry.City
	Field      demographics.Field
	Collection *demographics.FeatureCollection
	Sort       table.SortState
	Loading    bool
	Failed     bool
	Pending    FetchToken
}

// Listener receives the newest snapshot after applied transitions. A
// snapshot superseded before delivery is skipped. Listeners must not
// dispatch.
type Listener func(Snapshot)

// Controller is safe for concurrent use. Transitions are serialized;
// listeners run after the state lock is released.
type Controller struct {
	mu       sync.Mutex
	opts     Options
	state    State
	coord    *selection.Coordinator
	renderer *choropleth.Renderer
	seq      uint64
	version  uint64
	cancel   context.CancelFunc
	closed   bool

	listeners map[int]Listener
	nextID    int

	notifyMu  sync.Mutex
	delivered uint64

	wg sync.WaitGroup
}

// New creates an idle controller: no city, TOTAL active, default sort.
func New(opts Options) *Controller {
	if opts.Sink == nil {
		opts.Sink = monitoring.Discard
	}
	if opts.Sorter == nil {
		opts.Sorter = table.NewSorter("en")
	}
	c := &Controller{
		opts:      opts,
		listeners: make(map[int]Listener),
		state: State{
			Field: demographics.Total,
			Sort:  table.DefaultSortState(),
		},
	}
	if c.opts.Schedule == nil {
		c.opts.Schedule = func(task func()) {
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				task()
			}()
		}
	}
	c.renderer = choropleth.NewRenderer(opts.Surface)
	c.coord = selection.NewCoordinator(func(ch selection.Change) {
		c.renderer.Apply(ch)
	})
	return c
}

// Subscribe registers l and returns a function that removes it.
func (c *Controller) Subscribe(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Dispatch applies one event. Errors leave the state unchanged.
func (c *Controller) Dispatch(ev Event) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	changed, err := c.apply(ev)
	if err != nil || !changed {
		c.mu.Unlock()
		return err
	}
	c.version++
	snap := c.snapshotLocked()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	c.notify(snap, listeners)
	return nil
}

// notify hands snap to listeners unless a newer snapshot already went out.
// Deliveries are serialized, so listeners see strictly increasing versions.
func (c *Controller) notify(snap Snapshot, listeners []Listener) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if snap.Version <= c.delivered {
		return
	}
	c.delivered = snap.Version
	for _, l := range listeners {
		l(snap)
	}
}

func (c *Controller) apply(ev Event) (bool, error) {
	switch e := ev.(type) {
	case CityChanged:
		return true, c.changeCity(e.CityID)
	case FieldChanged:
		return true, c.changeField(e.Field)
	case FeatureActivated:
		return true, c.activate(e.Activation)
	case RowActivated:
		f, ok := c.state.Collection.Find(e.DistrictID)
		if !ok {
			return false, eris.Wrapf(ErrUnknownDistrict, "district %q", e.DistrictID)
		}
		c.coord.Dispatch(selection.Activate{Feature: f})
		return true, nil
	case FeatureDismissed:
		c.coord.Dispatch(selection.Dismiss{})
		return true, nil
	case SortRequested:
		f, err := demographics.ParseSortField(string(e.Field))
		if err != nil {
			return false, err
		}
		c.state.Sort = c.state.Sort.Toggle(f)
		return true, nil
	case FetchResolved:
		return c.resolve(e), nil
	case FetchFailed:
		return c.fail(e), nil
	}
	return false, eris.Errorf("view: unhandled event %T", ev)
}

func (c *Controller) changeCity(id string) error {
	var city *registry.City
	if id != "" {
		found, ok := c.opts.Registry.Lookup(id)
		if !ok {
			return eris.Wrapf(ErrUnknownCity, "city %q", id)
		}
		city = &found
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	// Clear before the fetch resolves so the previous city's districts never
	// show under the new city's name.
	c.state.City = city
	c.state.Collection = nil
	c.state.Failed = false
	c.state.Loading = city != nil
	c.state.Pending = FetchToken{}
	c.coord.Dispatch(selection.CityChanged{})
	c.renderer.Render(nil, c.state.Field, selection.Idle)

	if city == nil {
		return nil
	}

	c.seq++
	token := FetchToken{Seq: c.seq, CityID: city.ID}
	c.state.Pending = token
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	target := *city
	loader := c.opts.Loader
	c.opts.Schedule(func() {
		defer cancel()
		start := time.Now()
		fc, err := loader.Load(ctx, target)
		var ev Event
		if err != nil {
			url := ""
			var fe *fetcher.FetchError
			if errors.As(err, &fe) {
				url = fe.URL
			}
			ev = FetchFailed{Token: token, URL: url, Err: err}
		} else {
			ev = FetchResolved{Token: token, Collection: fc, Elapsed: time.Since(start)}
		}
		if derr := c.Dispatch(ev); derr != nil && !errors.Is(derr, ErrClosed) {
			zap.L().Error("view: dispatch fetch result", zap.Error(derr))
		}
	})

	zap.L().Debug("view: city fetch issued",
		zap.String("city", city.ID),
		zap.Uint64("seq", token.Seq),
	)
	return nil
}

func (c *Controller) changeField(requested demographics.Field) error {
	field, err := demographics.ParseActiveField(string(requested))
	if err != nil {
		return err
	}
	c.state.Field = field
	c.renderer.Render(c.state.Collection, field, c.coord.Current())
	return nil
}

func (c *Controller) activate(a choropleth.Activation) error {
	layer := c.renderer.Layer()
	if a.Generation != layer.Generation() {
		return eris.Wrapf(ErrStaleLayer, "generation %d, current %d", a.Generation, layer.Generation())
	}
	f, ok := c.state.Collection.Find(a.DistrictID)
	if !ok {
		return eris.Wrapf(ErrUnknownDistrict, "district %q", a.DistrictID)
	}
	c.coord.Dispatch(selection.Activate{Feature: f})
	return nil
}

func (c *Controller) current(t FetchToken) bool {
	return t != (FetchToken{}) && t == c.state.Pending
}

func (c *Controller) resolve(e FetchResolved) bool {
	if !c.current(e.Token) {
		zap.L().Debug("view: discarding stale fetch",
			zap.String("city", e.Token.CityID),
			zap.Uint64("seq", e.Token.Seq),
		)
		return false
	}
	c.state.Pending = FetchToken{}
	c.state.Loading = false
	c.state.Collection = e.Collection
	c.state.Sort = table.DefaultSortState()
	c.coord.Dispatch(selection.CityChanged{})
	c.renderer.Render(e.Collection, c.state.Field, selection.Idle)
	c.opts.Sink.FetchSucceeded(e.Token.CityID, e.Collection.Len(), e.Elapsed)
	return true
}

func (c *Controller) fail(e FetchFailed) bool {
	if !c.current(e.Token) {
		return false
	}
	c.state.Pending = FetchToken{}
	c.state.Loading = false
	c.state.Failed = true
	c.state.Collection = nil
	c.renderer.Render(nil, c.state.Field, selection.Idle)
	c.opts.Sink.FetchFailed(e.Token.CityID, e.URL, e.Err)
	return true
}

// State returns a copy of the owned record.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Selection returns the current selection.
func (c *Controller) Selection() selection.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coord.Current()
}

// Rows returns the table rows in the current sort order, nil when there is
// no collection.
func (c *Controller) Rows() []demographics.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rowsLocked()
}

func (c *Controller) rowsLocked() []demographics.Row {
	if c.state.Collection == nil {
		return nil
	}
	return c.opts.Sorter.Sort(demographics.ProjectAll(c.state.Collection), c.state.Sort)
}

// LayerGeoJSON encodes the current layer.
func (c *Controller) LayerGeoJSON() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer.Layer().GeoJSON()
}

// Activation builds the polygon click event for a district of the current layer.
func (c *Controller) Activation(districtID string) (choropleth.Activation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer.Layer().Activate(districtID)
}

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Export renders the sorted table. It returns table.ErrEmptyExport when
// there are no rows.
func (c *Controller) Export(format string) (*table.File, error) {
	c.mu.Lock()
	rows := c.rowsLocked()
	name := ""
	if c.state.City != nil {
		name = c.state.City.Name
	}
	c.mu.Unlock()

	switch format {
	case FormatCSV, "":
		return table.ExportCSV(rows, name)
	case FormatXLSX:
		return table.ExportXLSX(rows, name)
	}
	return nil, eris.Errorf("view: unknown export format %q", format)
}

// Wait blocks until every fetch started by the default scheduler returns.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels any in-flight fetch and rejects further events.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.listeners = make(map[int]Listener)
	c.mu.Unlock()
	c.wg.Wait()
}
