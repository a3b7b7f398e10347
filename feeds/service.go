package feeds

import (
	"context"
	"log/slog"
	"sync"
)

// Service runs one poll goroutine per active feed. Start is idempotent in
// the sense that a second call is a no-op; Stop cancels every loop and waits
// for them to drain.
type Service struct {
	registry *Registry
	poller   *Poller
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewService wraps a registry and poller into a managed background service.
func NewService(registry *Registry, poller *Poller, logger *slog.Logger) (*Service, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if poller == nil {
		return nil, ErrSubmitterRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		poller:   poller,
		logger:   logger,
	}, nil
}

// Start launches a poll loop for every active feed currently in the
// registry. Feeds added after Start are not picked up until a restart.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	started := 0
	for _, feed := range s.registry.SnapshotAll() {
		if !feed.Active {
			continue
		}
		started++
		s.wg.Add(1)
		go func(name string) {
			defer s.wg.Done()
			s.poller.Run(runCtx, name)
		}(feed.Name)
	}

	s.logger.Info("feed service started", "feeds", started)
}

// Stop cancels all poll loops and blocks until they exit. A cycle already
// in flight finishes its current HTTP request via context cancellation.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("feed service stopped")
}
