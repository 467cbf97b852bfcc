package revision

import (
	"errors"
	"math"
	"sync"
	"time"

	"curio/internal/catalog"
)

// ErrRevisionExhausted reports that the revision counter cannot advance.
var ErrRevisionExhausted = errors.New("revision counter exhausted")

// Tracker owns the live collection.
type Tracker struct {
	mu       sync.Mutex
	current  catalog.Collection
	baseline uint64
	now      func() time.Time
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source used by CommitExport.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithBaseline sets the digest of the last persisted content, as restored
// from working-state storage. Without it the initial collection is the
// baseline.
func WithBaseline(digest uint64) Option {
	return func(t *Tracker) {
		t.baseline = digest
	}
}

// New wraps c. The tracker keeps its own copy.
func New(c catalog.Collection, opts ...Option) *Tracker {
	t := &Tracker{
		current: c.Clone(),
		now:     time.Now,
	}
	t.baseline = t.current.ContentDigest()
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Current returns a copy of the live collection with its current revision
// and last-saved timestamp.
func (t *Tracker) Current() catalog.Collection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current.Clone()
}

// CommitExport advances the revision and stamps the export time, then
// returns the new current collection. A collection that was never exported
// moves to revision 1; otherwise the revision increments by one. Nothing
// changes when the revision is already at its maximum.
func (t *Tracker) CommitExport() (catalog.Collection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := int64(1)
	if t.current.LastSaved != "" {
		if t.current.Revision == math.MaxInt64 {
			return catalog.Collection{}, ErrRevisionExhausted
		}
		next = t.current.Revision + 1
	}
	t.current.Revision = next
	t.current.LastSaved = catalog.FormatTimestamp(t.now())
	t.baseline = t.current.ContentDigest()
	return t.current.Clone(), nil
}

// Replace swaps in c wholesale. Revision and LastSaved are taken from c.
func (t *Tracker) Replace(c catalog.Collection) {
	next := c.Clone()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = next
	t.baseline = next.ContentDigest()
}

// Reset installs c with an explicit baseline digest. It undoes a
// CommitExport whose output could not be persisted.
func (t *Tracker) Reset(c catalog.Collection, baseline uint64) {
	next := c.Clone()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = next
	t.baseline = baseline
}

// Mutate applies fn to a working copy and installs the result only when fn
// succeeds. Export metadata is restored afterwards so edits can never move
// the revision.
func (t *Tracker) Mutate(fn func(*catalog.Collection) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	working := t.current.Clone()
	if err := fn(&working); err != nil {
		return err
	}
	working.Revision = t.current.Revision
	working.LastSaved = t.current.LastSaved
	t.current = working
	return nil
}

// Dirty reports whether the items changed since the last export, import, or
// load.
func (t *Tracker) Dirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current.ContentDigest() != t.baseline
}

// Baseline returns the digest of the last persisted content.
func (t *Tracker) Baseline() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.baseline
}
