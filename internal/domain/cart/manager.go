// internal/domain/cart/manager.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/your-org/template-store/internal/domain/catalog"
	"github.com/your-org/template-store/internal/domain/pricing"
	"go.uber.org/multierr"
)

// ErrManagerClosed is returned by Get after Close
var ErrManagerClosed = errors.New("cart manager closed")

// SinkFactory builds the persistence sink for one session
type SinkFactory func(sessionID string) Sink

// Manager keeps one PersistentStore per session in a bounded LRU.
// Callers hold a lease on a cart while they use it. A cart pushed out of the
// cache is flushed once its leases are released, and a session that comes
// back meanwhile waits for that flush before it is loaded again.
type Manager struct {
	lookup   catalog.Lookup
	resolver *pricing.Resolver
	factory  SinkFactory
	opts     []Option
	o        options
	log      *logrus.Entry

	mu        sync.Mutex
	carts     *lru.Cache[string, *session]
	closing   map[string]chan struct{}
	evictErrs error
	closed    bool
	wg        sync.WaitGroup
}

type session struct {
	store  *PersistentStore
	leases sync.WaitGroup
}

// lease registers one user of the session. Must be called with Manager.mu
// held while the session is cached.
func (s *session) lease() func() {
	s.leases.Add(1)
	var once sync.Once
	return func() { once.Do(s.leases.Done) }
}

// released closes when every lease has been returned
func (s *session) released() <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		s.leases.Wait()
		close(ch)
	}()
	return ch
}

// NewManager creates a session registry holding at most size live carts
func NewManager(lookup catalog.Lookup, resolver *pricing.Resolver, factory SinkFactory, size int, opts ...Option) (*Manager, error) {
	if factory == nil {
		return nil, errors.New("cart manager requires a sink factory")
	}

	o := buildOptions(opts)
	m := &Manager{
		lookup:   lookup,
		resolver: resolver,
		factory:  factory,
		opts:     opts,
		o:        o,
		log:      o.logger.WithField("component", "cart_manager"),
		closing:  make(map[string]chan struct{}),
	}

	carts, err := lru.NewWithEvict[string, *session](size, m.onEvict)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart cache: %w", err)
	}
	m.carts = carts
	return m, nil
}

// Acquire returns the cart for sessionID, loading it from its sink on first
// use. The cart stays writable until release is called; release is safe to
// call more than once. A cart whose snapshot could not be read is not cached,
// so the next call tries again.
func (m *Manager) Acquire(ctx context.Context, sessionID string) (*PersistentStore, func(), error) {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, nil, ErrManagerClosed
		}
		if s, ok := m.carts.Get(sessionID); ok {
			release := s.lease()
			m.mu.Unlock()
			return s.store, release, nil
		}
		if wait, ok := m.closing[sessionID]; ok {
			m.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}

		store, err := NewPersistentStore(ctx, NewStore(m.lookup, m.resolver), m.factory(sessionID), m.opts...)
		if err != nil {
			m.mu.Unlock()
			return nil, nil, err
		}
		s := &session{store: store}
		release := s.lease()
		m.carts.Add(sessionID, s)
		m.mu.Unlock()
		return store, release, nil
	}
}

// Len returns the number of live carts
func (m *Manager) Len() int {
	return m.carts.Len()
}

// Close waits for outstanding leases, flushes every live cart and waits for
// evicted carts still being written. Errors from all carts are combined.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	keys := m.carts.Keys()
	sessions := m.carts.Values()
	m.mu.Unlock()

	var err error
	for i, s := range sessions {
		select {
		case <-s.released():
		case <-ctx.Done():
		}
		if cerr := s.store.Close(ctx); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("session %s: %w", keys[i], cerr))
		}
	}

	m.wg.Wait()

	m.mu.Lock()
	err = multierr.Append(err, m.evictErrs)
	m.mu.Unlock()
	return err
}

// onEvict runs inside carts.Add while m.mu is held
func (m *Manager) onEvict(sessionID string, s *session) {
	done := make(chan struct{})
	m.closing[sessionID] = done
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer close(done)

		<-s.released()

		ctx, cancel := context.WithTimeout(context.Background(), m.o.saveTimeout)
		defer cancel()
		err := s.store.Close(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.closing, sessionID)
		if err != nil {
			m.log.WithError(err).WithField("session_id", sessionID).Error("Failed to flush evicted cart")
			m.evictErrs = multierr.Append(m.evictErrs, fmt.Errorf("session %s: %w", sessionID, err))
		}
	}()
}

// MemorySinks hands out one MemorySink per session and keeps them for the
// life of the process, so carts survive eviction from the Manager.
type MemorySinks struct {
	mu    sync.Mutex
	sinks map[string]*MemorySink
}

// NewMemorySinks creates an empty set of in-memory sinks
func NewMemorySinks() *MemorySinks {
	return &MemorySinks{sinks: make(map[string]*MemorySink)}
}

// Factory returns a SinkFactory backed by this set
func (s *MemorySinks) Factory() SinkFactory {
	return func(sessionID string) Sink {
		s.mu.Lock()
		defer s.mu.Unlock()

		sink, ok := s.sinks[sessionID]
		if !ok {
			sink = NewMemorySink()
			s.sinks[sessionID] = sink
		}
		return sink
	}
}
