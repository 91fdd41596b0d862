// Package tabid allocates tab ids that are unique across every window
// sharing a storage root.
//
// An Allocator must be seeded with the largest id found on disk before it
// mints anything; until then GenerateValidID fails with ErrNotSeeded. Seeding
// may happen more than once (each window contributes what it found) and only
// ever raises the observed maximum. All access is serialized by a mutex.
package tabid

import (
	"errors"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/danieljhkim/tabvault/internal/logging"
	"github.com/danieljhkim/tabvault/internal/prefs"
)

// InvalidTabID means "no id"; pass it to GenerateValidID to request a fresh id.
const InvalidTabID = -1

// ErrNotSeeded is returned when ids are requested before the allocator has
// observed the on-disk state.
var ErrNotSeeded = errors.New("tab id allocator not seeded")

// ErrIDSpaceExhausted is returned when the next id (or the persisted counter
// after it) would not fit in an int.
var ErrIDSpaceExhausted = errors.New("tab id space exhausted")

// CounterStore persists the next id across restarts.
type CounterStore interface {
	NextTabID() (int, bool)
	SaveNextTabID(next int) error
}

// Allocator mints strictly increasing tab ids.
type Allocator struct {
	mu      sync.Mutex
	maxSeen int
	seeded  bool
	counter CounterStore
	log     *zap.Logger
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithCounterStore persists the next id after every mint and folds the
// persisted value into the first Seed.
func WithCounterStore(cs CounterStore) Option {
	return func(a *Allocator) {
		a.counter = cs
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Allocator) {
		a.log = l
	}
}

// New creates an unseeded Allocator.
func New(opts ...Option) *Allocator {
	a := &Allocator{maxSeen: InvalidTabID}
	for _, opt := range opts {
		opt(a)
	}
	a.log = logging.Component(a.log, "tabid")
	return a
}

// Seed records maxSeen as observed and marks the allocator ready.
func (a *Allocator) Seed(maxSeen int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.seeded && a.counter != nil {
		if next, ok := a.counter.NextTabID(); ok && next-1 > a.maxSeen {
			a.maxSeen = next - 1
		}
	}
	if maxSeen > a.maxSeen {
		a.maxSeen = maxSeen
	}
	if !a.seeded {
		a.log.Debug("allocator seeded", zap.Int("maxSeen", a.maxSeen))
	}
	a.seeded = true
}

// Seeded reports whether Seed has been called.
func (a *Allocator) Seeded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seeded
}

// MaxSeen returns the largest id observed or issued so far.
func (a *Allocator) MaxSeen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxSeen
}

// IncrementIDCounterTo marks every id below id as taken.
func (a *Allocator) IncrementIDCounterTo(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id-1 > a.maxSeen {
		a.maxSeen = id - 1
	}
}

// GenerateValidID returns max(observed maximum, currentMax) + 1 and records it
// as the new observed maximum. Pass InvalidTabID when the caller has no id of
// its own.
func (a *Allocator) GenerateValidID(currentMax int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.seeded {
		return InvalidTabID, ErrNotSeeded
	}

	base := a.maxSeen
	if currentMax > base {
		base = currentMax
	}
	if base >= math.MaxInt-1 {
		return InvalidTabID, ErrIDSpaceExhausted
	}
	id := base + 1
	a.maxSeen = id

	if a.counter != nil {
		if err := a.counter.SaveNextTabID(id + 1); err != nil {
			a.log.Warn("failed to persist next tab id", zap.Int("next", id+1), zap.Error(err))
		}
	}
	return id, nil
}

// PrefsCounter adapts a preference store to CounterStore.
type PrefsCounter struct {
	Prefs prefs.Store
}

// NextTabID returns the persisted next id.
func (p PrefsCounter) NextTabID() (int, bool) {
	return p.Prefs.Int(prefs.KeyNextTabID)
}

// SaveNextTabID persists the next id.
func (p PrefsCounter) SaveNextTabID(next int) error {
	return p.Prefs.SetInt(prefs.KeyNextTabID, next)
}
