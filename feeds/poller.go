// Copyright 2025 Corvusec
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package feeds

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/extract"
	"github.com/corvusec/threatbase/metrics"
)

const (
	fetchTimeout = 30 * time.Second

	// responseBodyLimit caps how much of a feed response is read. Hosts
	// files and URLhaus dumps stay well under this.
	responseBodyLimit = 64 << 20
)

// Submitter hands extracted candidates to the processing side. It is
// satisfied by ingestion.Coordinator.
type Submitter interface {
	ProcessBatch(ctx context.Context, feedName string, candidates []*core.CandidateIndicator) (int, error)
}

// Poller runs the poll cycle for feeds out of a registry: fetch the payload,
// extract candidates, submit them for classification, record the cycle. One
// Poller is shared by every feed goroutine; it holds no per-feed state.
type Poller struct {
	registry  *Registry
	submitter Submitter
	client    *http.Client
	logger    *slog.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller) error

// WithHTTPClient overrides the HTTP client used for feed fetches.
// Default is a client with a 30 second timeout.
func WithHTTPClient(client *http.Client) PollerOption {
	return func(p *Poller) error {
		if client != nil {
			p.client = client
		}
		return nil
	}
}

// WithPollerLogger sets a custom logger.
// Default is slog.Default().
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPoller creates a poller over the given registry and submitter.
func NewPoller(registry *Registry, submitter Submitter, opts ...PollerOption) (*Poller, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if submitter == nil {
		return nil, ErrSubmitterRequired
	}

	p := &Poller{
		registry:  registry,
		submitter: submitter,
		client:    &http.Client{Timeout: fetchTimeout},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Run polls one feed until ctx is cancelled. A feed whose LastUpdated is
// zero or whose interval has elapsed is polled immediately; otherwise Run
// sleeps out the remainder first. A failed cycle backs off for the full
// interval so a broken endpoint is not hammered.
func (p *Poller) Run(ctx context.Context, name string) {
	for {
		feed, err := p.registry.Snapshot(name)
		if err != nil {
			p.logger.Error("feed disappeared from registry", "feed", name, "error", err)
			return
		}
		if !feed.Active {
			p.logger.Info("feed deactivated, stopping poll loop", "feed", name)
			return
		}

		if wait := timeUntilDue(feed, time.Now()); wait > 0 {
			if !sleepCtx(ctx, wait) {
				return
			}
			continue
		}

		if err := p.Cycle(ctx, feed); err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.FeedCycles.WithLabelValues(name, "failure").Inc()
			p.logger.Error("feed cycle failed", "feed", name, "error", err)
			if !sleepCtx(ctx, feed.PollInterval) {
				return
			}
			continue
		}

		metrics.FeedCycles.WithLabelValues(name, "success").Inc()
		if err := p.registry.MarkUpdated(ctx, name, time.Now()); err != nil {
			p.logger.Warn("recording feed cycle failed", "feed", name, "error", err)
		}
	}
}

// Cycle runs one fetch-extract-submit pass for the given descriptor.
func (p *Poller) Cycle(ctx context.Context, feed *core.FeedDescriptor) error {
	started := time.Now()

	payload, err := p.fetch(ctx, feed)
	if err != nil {
		return err
	}

	adapter, err := extract.ForEncoding(feed.Encoding)
	if err != nil {
		return fmt.Errorf("feed %q: %w", feed.Name, err)
	}

	candidates, err := adapter.Extract(payload, feed)
	if err != nil {
		return err
	}
	metrics.CandidatesExtracted.WithLabelValues(feed.Name).Add(float64(len(candidates)))

	stored, err := p.submitter.ProcessBatch(ctx, feed.Name, candidates)
	if err != nil {
		return fmt.Errorf("submitting feed %q batch: %w", feed.Name, err)
	}

	p.logger.Info("feed cycle complete",
		"feed", feed.Name,
		"candidates", len(candidates),
		"stored", stored,
		"elapsed", time.Since(started))
	return nil
}

func (p *Poller) fetch(ctx context.Context, feed *core.FeedDescriptor) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.Endpoint, nil)
	if err != nil {
		return nil, &TransportError{Feed: feed.Name, Err: err}
	}
	for header, value := range feed.AuthHeaders {
		req.Header.Set(header, value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &TransportError{Feed: feed.Name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Feed: feed.Name, StatusCode: resp.StatusCode}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return nil, &TransportError{Feed: feed.Name, Err: err}
	}
	return payload, nil
}

// timeUntilDue returns how long until the feed's next poll. A feed that has
// never completed a cycle is due immediately.
func timeUntilDue(feed *core.FeedDescriptor, now time.Time) time.Duration {
	if feed.LastUpdated.IsZero() {
		return 0
	}
	return feed.LastUpdated.Add(feed.PollInterval).Sub(now)
}

// sleepCtx sleeps for d or until ctx is cancelled. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
