package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// MemoLoader carga cada catálogo una sola vez y deduplica cargas concurrentes.
// Las fallas no se guardan: el próximo Load vuelve a intentar.
type MemoLoader struct {
	next   Loader
	flight singleflight.Group

	mu    sync.RWMutex
	cache map[string]*Catalog
}

func NewMemoLoader(next Loader) *MemoLoader {
	return &MemoLoader{next: next, cache: make(map[string]*Catalog)}
}

func (m *MemoLoader) Load(ctx context.Context, name string) (*Catalog, error) {
	m.mu.RLock()
	cat, ok := m.cache[name]
	m.mu.RUnlock()
	if ok {
		return cat, nil
	}

	v, err, _ := m.flight.Do(name, func() (interface{}, error) {
		m.mu.RLock()
		cached, ok := m.cache[name]
		m.mu.RUnlock()
		if ok {
			return cached, nil
		}
		c, err := m.next.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.cache[name] = c
		m.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}

// Invalidate descarta el catálogo guardado para forzar una recarga.
func (m *MemoLoader) Invalidate(name string) {
	m.mu.Lock()
	delete(m.cache, name)
	m.mu.Unlock()
}
