package feeds

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/storage"
)

// Registry owns the feed descriptors. All mutation goes through it; pollers
// work from per-cycle snapshots so a descriptor change never races a running
// cycle. Descriptors are persisted through the feed repository so
// LastUpdated survives restarts.
type Registry struct {
	mu     sync.RWMutex
	feeds  map[string]*core.FeedDescriptor
	store  storage.FeedRepository
	logger *slog.Logger
}

// FeedStatus is one row of Registry.Stats.
type FeedStatus struct {
	Name         string
	Endpoint     string
	Encoding     string
	PollInterval time.Duration
	LastUpdated  time.Time
	Active       bool
}

// RegistryStats summarizes the registry for operators.
type RegistryStats struct {
	TotalFeeds  int
	ActiveFeeds int
	Feeds       []FeedStatus
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry) error

// WithRegistryLogger sets a custom logger.
// Default is slog.Default().
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRegistry creates a registry backed by the given repository and loads
// every stored descriptor.
func NewRegistry(ctx context.Context, store storage.FeedRepository, opts ...RegistryOption) (*Registry, error) {
	if store == nil {
		return nil, ErrFeedRepositoryRequired
	}

	r := &Registry{
		feeds:  make(map[string]*core.FeedDescriptor),
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	stored, err := store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, feed := range stored {
		r.feeds[feed.Name] = feed
	}

	if len(stored) > 0 {
		r.logger.Info("restored feed descriptors", "count", len(stored))
	}
	return r, nil
}

// Add registers a new feed. The descriptor is validated and persisted.
// Returns ErrDuplicateFeed if the name is already registered.
func (r *Registry) Add(ctx context.Context, feed *core.FeedDescriptor) error {
	if err := core.ValidateFeedDescriptor(feed); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.feeds[feed.Name]; exists {
		return ErrDuplicateFeed
	}

	clone := cloneDescriptor(feed)
	if err := r.store.Save(ctx, clone); err != nil {
		return err
	}
	r.feeds[feed.Name] = clone

	r.logger.Info("registered feed",
		"feed", feed.Name,
		"endpoint", feed.Endpoint,
		"encoding", feed.Encoding.String(),
		"interval", feed.PollInterval)
	return nil
}

// SetActive flips a feed's active flag and persists the change.
func (r *Registry) SetActive(ctx context.Context, name string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	feed, exists := r.feeds[name]
	if !exists {
		return ErrFeedNotFound
	}

	feed.Active = active
	if err := r.store.Save(ctx, feed); err != nil {
		return err
	}

	r.logger.Info("feed active flag changed", "feed", name, "active", active)
	return nil
}

// Snapshot returns an independent copy of one descriptor.
func (r *Registry) Snapshot(name string) (*core.FeedDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	feed, exists := r.feeds[name]
	if !exists {
		return nil, ErrFeedNotFound
	}
	return cloneDescriptor(feed), nil
}

// SnapshotAll returns independent copies of every descriptor, sorted by
// name.
func (r *Registry) SnapshotAll() []*core.FeedDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshots := make([]*core.FeedDescriptor, 0, len(r.feeds))
	for _, feed := range r.feeds {
		snapshots = append(snapshots, cloneDescriptor(feed))
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Name < snapshots[j].Name
	})
	return snapshots
}

// MarkUpdated records a successful poll cycle and persists the new
// LastUpdated.
func (r *Registry) MarkUpdated(ctx context.Context, name string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	feed, exists := r.feeds[name]
	if !exists {
		return ErrFeedNotFound
	}

	feed.LastUpdated = at.UTC()
	return r.store.Save(ctx, feed)
}

// Stats reports per-feed status for operators. A failing feed shows up as a
// stale LastUpdated.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		TotalFeeds: len(r.feeds),
		Feeds:      make([]FeedStatus, 0, len(r.feeds)),
	}
	for _, feed := range r.feeds {
		if feed.Active {
			stats.ActiveFeeds++
		}
		stats.Feeds = append(stats.Feeds, FeedStatus{
			Name:         feed.Name,
			Endpoint:     feed.Endpoint,
			Encoding:     feed.Encoding.String(),
			PollInterval: feed.PollInterval,
			LastUpdated:  feed.LastUpdated,
			Active:       feed.Active,
		})
	}
	sort.Slice(stats.Feeds, func(i, j int) bool {
		return stats.Feeds[i].Name < stats.Feeds[j].Name
	})
	return stats
}

func cloneDescriptor(feed *core.FeedDescriptor) *core.FeedDescriptor {
	clone := *feed
	if feed.AuthHeaders != nil {
		clone.AuthHeaders = make(map[string]string, len(feed.AuthHeaders))
		for k, v := range feed.AuthHeaders {
			clone.AuthHeaders[k] = v
		}
	}
	return &clone
}
