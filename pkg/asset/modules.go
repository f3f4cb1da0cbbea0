package asset

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/risekit/pkg/errors"
)

// Modules is an in-memory module service. A module is available once the
// application calls Provide; promises taken before that wait for it.
type Modules struct {
	mu      sync.Mutex
	signals map[string]*Signal
}

// NewModules returns a service with the given modules already provided.
func NewModules(provided ...string) *Modules {
	m := &Modules{signals: make(map[string]*Signal)}
	for _, name := range provided {
		m.Provide(name)
	}
	return m
}

func (m *Modules) signal(name string) *Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.signals[name]
	if !ok {
		s = NewSignal()
		m.signals[name] = s
	}
	return s
}

// Promise implements Service for KindModule assets.
func (m *Modules) Promise(_ context.Context, a Asset) Waitable {
	if a.Kind != KindModule {
		return Rejected(errors.New(errors.ErrCodeUnsupported, "modules cannot load %s", a))
	}
	return m.signal(a.Name)
}

// Provide marks name as loaded.
func (m *Modules) Provide(name string) { m.signal(name).Resolve() }

// Fail marks name as failed to load.
func (m *Modules) Fail(name string, err error) {
	if err == nil {
		err = errors.New(errors.ErrCodeAsset, "module %q failed", name)
	}
	m.signal(name).Reject(err)
}

// Provided returns the names of resolved modules, sorted.
func (m *Modules) Provided() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name, s := range m.signals {
		if s.Settled() && s.Err() == nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

var _ Service = (*Modules)(nil)
