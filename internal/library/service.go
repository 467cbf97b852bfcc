package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"curio/internal/autofill"
	"curio/internal/catalog"
	"curio/internal/config"
	"curio/internal/confirm"
	"curio/internal/logging"
	"curio/internal/revision"
	"curio/internal/schema"
	"curio/internal/storage"
)

// Lookup suggests details for a titled item.
type Lookup interface {
	Lookup(ctx context.Context, title string, category schema.Category) (autofill.Suggestion, error)
}

// Service owns the live collection for one process.
type Service struct {
	mu sync.Mutex

	cfg     *config.Config
	store   *storage.Store
	lock    *storage.Lock
	tracker *revision.Tracker
	gate    confirm.Gate
	lookup  Lookup
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithGate sets the confirmation gate consulted before deletes and imports.
func WithGate(gate confirm.Gate) Option {
	return func(s *Service) {
		if gate != nil {
			s.gate = gate
		}
	}
}

// WithLookup overrides the auto-fill collaborator.
func WithLookup(lookup Lookup) Option {
	return func(s *Service) {
		s.lookup = lookup
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for export timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Open locks the data directory, opens the working-state database, and
// loads the stored collection. Without WithGate every confirmation is
// refused.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("library: config required")
	}
	s := &Service{
		cfg:    cfg,
		gate:   confirm.Always(false),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	if cfg.AutofillReady() {
		ac := cfg.GetAutofill()
		s.lookup = autofill.NewClient(autofill.Config{
			APIKey:         ac.APIKey,
			BaseURL:        ac.BaseURL,
			Model:          ac.Model,
			Referer:        ac.Referer,
			Title:          ac.Title,
			TimeoutSeconds: ac.TimeoutSeconds,
		})
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "library")

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	lock, err := storage.AcquireLock(cfg.LockPath())
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("open working state: %w", err)
	}
	state, err := store.Load(ctx)
	if err != nil {
		_ = store.Close()
		_ = lock.Release()
		return nil, fmt.Errorf("load working state: %w", err)
	}

	s.lock = lock
	s.store = store
	s.tracker = revision.New(state.Collection,
		revision.WithBaseline(state.Baseline),
		revision.WithClock(func() time.Time { return s.now() }),
	)
	s.logger.Debug("collection loaded",
		logging.String("database", store.Path()),
		logging.Revision(state.Collection.Revision),
		logging.Int("items", totalItems(state.Collection)),
		logging.Bool("initialized", state.Initialized),
	)
	return s, nil
}

// Close releases the database and the directory lock.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			firstErr = err
		}
		s.store = nil
	}
	if s.lock != nil {
		if err := s.lock.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.lock = nil
	}
	return firstErr
}

// Snapshot returns a copy of the live collection.
func (s *Service) Snapshot() catalog.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Current()
}

// Item returns the item with id in category.
func (s *Service) Item(category schema.Category, id string) (catalog.Item, error) {
	if !schema.Known(category) {
		return catalog.Item{}, fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, category)
	}
	item, _, ok := s.Snapshot().Find(category, id)
	if !ok {
		return catalog.Item{}, fmt.Errorf("%s %q: %w", category, id, catalog.ErrNotFound)
	}
	return item, nil
}

// AutofillAvailable reports whether Autofill can be called.
func (s *Service) AutofillAvailable() bool {
	return s.lookup != nil
}

// Save stores item in category: an existing id is updated in place, an
// empty or unknown id is appended. The saved item is returned with its
// final id and trimmed title.
func (s *Service) Save(ctx context.Context, category schema.Category, item catalog.Item) (catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(item.ID) == "" {
		item.ID = catalog.NewID()
	}
	_, _, existed := s.tracker.Current().Find(category, item.ID)

	var saved catalog.Item
	baseline := s.tracker.Baseline()
	err := s.tracker.Mutate(func(c *catalog.Collection) error {
		if err := c.Upsert(category, item); err != nil {
			return err
		}
		if err := s.store.Save(ctx, *c, baseline); err != nil {
			return fmt.Errorf("persist %s: %w", category, err)
		}
		saved, _, _ = c.Find(category, item.ID)
		return nil
	})
	if err != nil {
		return catalog.Item{}, err
	}

	action := "item added"
	if existed {
		action = "item updated"
	}
	s.logger.Info(action,
		logging.Category(string(category)),
		logging.ItemID(saved.ID),
		logging.String("title", saved.Title),
	)
	return saved, nil
}

// Delete removes the item after the gate approves. A refusal returns
// ErrDeclined and changes nothing.
func (s *Service) Delete(ctx context.Context, category schema.Category, id string) (catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !schema.Known(category) {
		return catalog.Item{}, fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, category)
	}
	item, _, ok := s.tracker.Current().Find(category, id)
	if !ok {
		return catalog.Item{}, fmt.Errorf("%s %q: %w", category, id, catalog.ErrNotFound)
	}

	prompt := fmt.Sprintf("Delete %s %q?", strings.ToLower(schema.Of(category).Singular), item.Title)
	approved, err := s.gate.Confirm(prompt)
	if err != nil {
		return catalog.Item{}, err
	}
	if !approved {
		return catalog.Item{}, ErrDeclined
	}

	baseline := s.tracker.Baseline()
	err = s.tracker.Mutate(func(c *catalog.Collection) error {
		if err := c.Remove(category, id); err != nil {
			return err
		}
		if err := s.store.Save(ctx, *c, baseline); err != nil {
			return fmt.Errorf("persist %s: %w", category, err)
		}
		return nil
	})
	if err != nil {
		return catalog.Item{}, err
	}
	s.logger.Info("item deleted",
		logging.Category(string(category)),
		logging.ItemID(id),
		logging.String("title", item.Title),
	)
	return item, nil
}

// Autofill asks the lookup collaborator for details of draft and merges
// them. On failure the draft is returned unchanged together with the error,
// so callers can fall back to manual entry.
func (s *Service) Autofill(ctx context.Context, category schema.Category, draft catalog.Item) (catalog.Item, autofill.Suggestion, error) {
	if s.lookup == nil {
		return draft, autofill.Suggestion{}, autofill.ErrNotConfigured
	}
	suggestion, err := s.lookup.Lookup(ctx, draft.Title, category)
	if err != nil {
		logging.WarnWithContext(s.logger, "auto-fill failed", "autofill_failed",
			logging.Category(string(category)),
			logging.String("title", draft.Title),
			logging.Error(err),
			logging.Hint("enter the details manually or retry later"),
			logging.Impact("item details were not filled in"),
		)
		return draft, autofill.Suggestion{}, err
	}
	s.logger.Debug("auto-fill suggestion",
		logging.Category(string(category)),
		logging.String("title", draft.Title),
		logging.Int("fields", len(suggestion.Details)),
		logging.Bool("image", suggestion.ImageURL != ""),
	)
	return autofill.Merge(draft, suggestion), suggestion, nil
}

func totalItems(c catalog.Collection) int {
	total := 0
	for _, items := range c.Collections {
		total += len(items)
	}
	return total
}
