// internal/domain/cart/persistent.go
package cart

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/template-store/internal/domain/pricing"
)

// Sink stores and restores cart snapshots. Load returns nil when nothing
// has been saved yet.
type Sink interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

// Remover is implemented by sinks that can drop a session's snapshot. An
// empty cart is removed instead of saved when the sink supports it.
type Remover interface {
	Remove(ctx context.Context) error
}

// Recorder receives cart activity for metrics
type Recorder interface {
	ObserveMutation(op string, err error)
	ObservePersist(op string, err error)
}

type noopRecorder struct{}

func (noopRecorder) ObserveMutation(string, error) {}
func (noopRecorder) ObservePersist(string, error)  {}

// Option configures a PersistentStore
type Option func(*options)

type options struct {
	logger      *logrus.Logger
	recorder    Recorder
	saveTimeout time.Duration
}

// WithLogger sets the logger used for persistence warnings
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithSaveTimeout bounds each snapshot write
func WithSaveTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.saveTimeout = d
		}
	}
}

func buildOptions(opts []Option) options {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	o := options{
		logger:      discard,
		recorder:    noopRecorder{},
		saveTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// PersistentStore wraps a Store and writes a snapshot after every successful
// mutation. Writes happen on a background goroutine and never delay the
// caller; only the newest pending snapshot is written.
type PersistentStore struct {
	store *Store
	sink  Sink
	log   *logrus.Entry
	opts  options

	mu        sync.Mutex
	pending   *Snapshot
	lastSaved uint64
	closed    bool

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeErr  error
	closeOnce sync.Once
	lateMu    sync.Mutex
}

// NewPersistentStore hydrates store from sink and starts the writer.
// A missing or invalid snapshot leaves the cart empty. A failed read returns
// ErrCartUnavailable so the saved cart is never overwritten by an empty one.
func NewPersistentStore(ctx context.Context, store *Store, sink Sink, opts ...Option) (*PersistentStore, error) {
	o := buildOptions(opts)
	p := &PersistentStore{
		store: store,
		sink:  sink,
		log:   o.logger.WithField("component", "cart_persistence"),
		opts:  o,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	if err := p.hydrate(ctx); err != nil {
		return nil, err
	}
	p.lastSaved = store.Revision()

	go p.run()
	return p, nil
}

func (p *PersistentStore) hydrate(ctx context.Context) error {
	snap, err := p.sink.Load(ctx)
	p.opts.recorder.ObservePersist("load", err)
	if err != nil {
		p.log.WithError(err).Warn("Failed to load cart snapshot")
		return fmt.Errorf("%w: %w", ErrCartUnavailable, err)
	}
	if snap == nil {
		return nil
	}
	if err := p.store.Hydrate(*snap); err != nil {
		p.log.WithError(err).Warn("Discarding invalid cart snapshot")
		return nil
	}
	if !snap.Total.Equal(p.store.Total()) {
		p.log.WithFields(logrus.Fields{
			"persisted_total": snap.Total.String(),
			"derived_total":   p.store.Total().String(),
		}).Warn("Persisted cart total disagrees with its lines, using derived total")
	}
	return nil
}

// AddItem adds one unit and schedules a save on success
func (p *PersistentStore) AddItem(ctx context.Context, productID string, tier pricing.Tier) error {
	err := p.store.AddItem(ctx, productID, tier)
	p.opts.recorder.ObserveMutation("add", err)
	if err != nil {
		return err
	}
	p.schedule()
	return nil
}

// RemoveItem removes a whole line
func (p *PersistentStore) RemoveItem(productID string, tier pricing.Tier) bool {
	removed := p.store.RemoveItem(productID, tier)
	p.opts.recorder.ObserveMutation("remove", nil)
	if removed {
		p.schedule()
	}
	return removed
}

// UpdateQuantity sets a line's quantity
func (p *PersistentStore) UpdateQuantity(productID string, tier pricing.Tier, quantity int) bool {
	updated := p.store.UpdateQuantity(productID, tier, quantity)
	p.opts.recorder.ObserveMutation("update_quantity", nil)
	if updated {
		p.schedule()
	}
	return updated
}

// Clear empties the cart
func (p *PersistentStore) Clear() {
	p.store.Clear()
	p.opts.recorder.ObserveMutation("clear", nil)
	p.schedule()
}

// Items returns the lines in insertion order
func (p *PersistentStore) Items() []LineItem {
	return p.store.Items()
}

// Total returns the running total
func (p *PersistentStore) Total() decimal.Decimal {
	return p.store.Total()
}

// Summary returns line count, unit count and total
func (p *PersistentStore) Summary() Summary {
	return p.store.Summary()
}

// View returns the lines and their summary from the same state
func (p *PersistentStore) View() ([]LineItem, Summary) {
	return p.store.View()
}

// Close writes any pending snapshot and stops the writer. It is safe to call
// more than once; later calls return the first result.
func (p *PersistentStore) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.stop)
	})

	select {
	case <-p.done:
		return p.closeErr
	case <-ctx.Done():
		return fmt.Errorf("cart flush interrupted: %w", ctx.Err())
	}
}

func (p *PersistentStore) schedule() {
	snap := p.store.Snapshot()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.saveAfterClose(snap)
		return
	}
	if p.pending == nil || snap.Revision > p.pending.Revision {
		p.pending = &snap
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// saveAfterClose writes a mutation that reached the store after Close. It
// waits for the final flush so the older snapshot cannot land on top.
func (p *PersistentStore) saveAfterClose(snap Snapshot) {
	<-p.done

	p.lateMu.Lock()
	defer p.lateMu.Unlock()

	p.mu.Lock()
	stale := snap.Revision <= p.lastSaved
	p.mu.Unlock()
	if stale {
		return
	}

	p.log.WithField("revision", snap.Revision).Warn("Cart mutated after close, saving synchronously")
	if err := p.write(&snap); err != nil {
		p.log.WithError(err).WithField("revision", snap.Revision).Error("Failed to persist cart snapshot")
		return
	}

	p.mu.Lock()
	if snap.Revision > p.lastSaved {
		p.lastSaved = snap.Revision
	}
	p.mu.Unlock()
}

func (p *PersistentStore) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			_ = p.flush()
		case <-p.stop:
			p.closeErr = p.flush()
			return
		}
	}
}

// flush writes the pending snapshot. A failed write is put back so the next
// mutation or Close retries it, unless a newer snapshot arrived meanwhile.
func (p *PersistentStore) flush() error {
	p.mu.Lock()
	snap := p.pending
	p.pending = nil
	lastSaved := p.lastSaved
	p.mu.Unlock()

	if snap == nil || snap.Revision <= lastSaved {
		return nil
	}

	err := p.write(snap)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.log.WithError(err).WithField("revision", snap.Revision).Error("Failed to persist cart snapshot")
		if p.pending == nil {
			p.pending = snap
		}
		return fmt.Errorf("failed to persist cart snapshot: %w", err)
	}

	if snap.Revision > p.lastSaved {
		p.lastSaved = snap.Revision
	}
	return nil
}

// write saves snap, or removes the stored snapshot when the cart is empty
// and the sink supports it
func (p *PersistentStore) write(snap *Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.saveTimeout)
	defer cancel()

	if remover, ok := p.sink.(Remover); ok && len(snap.Items) == 0 {
		err := remover.Remove(ctx)
		p.opts.recorder.ObservePersist("remove", err)
		return err
	}

	snap.SavedAt = time.Now().UTC()
	err := p.sink.Save(ctx, *snap)
	p.opts.recorder.ObservePersist("save", err)
	return err
}

// MemorySink keeps the last saved snapshot in memory
type MemorySink struct {
	mu   sync.Mutex
	data []byte
}

// NewMemorySink creates an empty in-memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Save stores an encoded copy of snap
func (m *MemorySink) Save(ctx context.Context, snap Snapshot) error {
	data, err := MarshalSnapshot(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

// Remove forgets the stored snapshot
func (m *MemorySink) Remove(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// Load decodes the stored snapshot, nil when nothing was saved
func (m *MemorySink) Load(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	data := m.data
	m.mu.Unlock()

	if data == nil {
		return nil, nil
	}
	return UnmarshalSnapshot(data)
}
