package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/district-demographics/internal/demographics"
	"github.com/sells-group/district-demographics/internal/registry"
	"github.com/sells-group/district-demographics/internal/view"
)

type emptyLoader struct{}

func (emptyLoader) Load(context.Context, registry.City) (*demographics.FeatureCollection, error) {
	return demographics.NewFeatureCollection("x", nil), nil
}

func factory(t *testing.T) Factory {
	t.Helper()
	reg, err := registry.New(nil)
	require.NoError(t, err)
	return func() *view.Controller {
		return view.New(view.Options{Registry: reg, Loader: emptyLoader{}})
	}
}

func TestStore_CreateGet(t *testing.T) {
	s := NewStore(10, time.Hour, factory(t))
	id, c := s.Create()
	require.NotEmpty(t, id)

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStore_TTLExpiration(t *testing.T) {
	s := NewStore(10, time.Minute, factory(t))
	now := time.Now()
	s.nowFunc = func() time.Time { return now }

	id, c := s.Create()
	now = now.Add(2 * time.Minute)

	_, ok := s.Get(id)
	assert.False(t, ok)
	assert.True(t, eris.Is(c.Dispatch(view.FeatureDismissed{}), view.ErrClosed))
	assert.Equal(t, int64(1), s.Stats().Evicted)
}

func TestStore_AccessRefreshesExpiry(t *testing.T) {
	s := NewStore(10, time.Minute, factory(t))
	now := time.Now()
	s.nowFunc = func() time.Time { return now }

	id, _ := s.Create()
	now = now.Add(40 * time.Second)
	_, ok := s.Get(id)
	require.True(t, ok)
	now = now.Add(40 * time.Second)
	_, ok = s.Get(id)
	assert.True(t, ok)
}

func TestStore_LRUEviction(t *testing.T) {
	s := NewStore(2, time.Hour, factory(t))
	a, _ := s.Create()
	b, _ := s.Create()

	// Touch a so b is the oldest.
	_, ok := s.Get(a)
	require.True(t, ok)

	c, _ := s.Create()

	_, ok = s.Get(b)
	assert.False(t, ok)
	_, ok = s.Get(a)
	assert.True(t, ok)
	_, ok = s.Get(c)
	assert.True(t, ok)
	assert.Equal(t, 2, s.Stats().Active)
}

func TestStore_Sweep(t *testing.T) {
	s := NewStore(10, time.Minute, factory(t))
	now := time.Now()
	s.nowFunc = func() time.Time { return now }

	s.Create()
	now = now.Add(30 * time.Second)
	fresh, _ := s.Create()
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, s.Sweep())
	_, ok := s.Get(fresh)
	assert.True(t, ok)
}

func TestStore_Delete(t *testing.T) {
	s := NewStore(10, time.Hour, factory(t))
	id, _ := s.Create()
	assert.True(t, s.Delete(id))
	assert.False(t, s.Delete(id))
	assert.Zero(t, s.Stats().Active)
}

func TestStore_Close(t *testing.T) {
	s := NewStore(10, time.Hour, factory(t))
	_, c := s.Create()
	s.Close()
	assert.Zero(t, s.Stats().Active)
	assert.True(t, eris.Is(c.Dispatch(view.FeatureDismissed{}), view.ErrClosed))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(50, time.Hour, factory(t))
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := s.Create()
			s.Get(id)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(20), s.Stats().Created)
}
