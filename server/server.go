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

package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/feeds"
	"github.com/corvusec/threatbase/search"
)

// StatisticsProvider reports aggregate store statistics. Satisfied by
// threatbase.Database.
type StatisticsProvider interface {
	GetStatistics(ctx context.Context) (*core.StoreStatistics, error)
}

// Server exposes the read and admin surface over HTTP.
type Server struct {
	stats    StatisticsProvider
	searcher *search.Searcher
	registry *feeds.Registry
	router   *mux.Router
	logger   *slog.Logger
}

func New(stats StatisticsProvider, searcher *search.Searcher, registry *feeds.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		stats:    stats,
		searcher: searcher,
		registry: registry,
		router:   mux.NewRouter(),
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/statistics", s.handleStatistics).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/similar", s.handleSimilar).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/feeds", s.handleListFeeds).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/feeds", s.handleAddFeed).Methods(http.MethodPost)
}

func (s *Server) Router() http.Handler { return s.router }

// StartMetrics serves Prometheus metrics on a separate listener so the
// scrape path never shares the API port.
func (s *Server) StartMetrics(addr string) {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, metricsMux); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server error", "err", err)
		}
	}()
}
