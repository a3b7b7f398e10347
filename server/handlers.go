package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/feeds"
	"github.com/corvusec/threatbase/search"
)

const (
	defaultSimilarLimit = 10
	maxSimilarLimit     = 100
)

type errorResponse struct {
	Error string `json:"error"`
}

type similarResult struct {
	Indicator  string  `json:"indicator"`
	Type       string  `json:"type"`
	RiskLevel  string  `json:"risk_level"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	TimesSeen  int64   `json:"times_seen"`
	Similarity float64 `json:"similarity"`
}

type feedRow struct {
	Name         string `json:"name"`
	Endpoint     string `json:"endpoint"`
	Encoding     string `json:"encoding"`
	PollInterval string `json:"poll_interval"`
	LastUpdated  string `json:"last_updated,omitempty"`
	Active       bool   `json:"active"`
}

type addFeedRequest struct {
	Name         string            `json:"name"`
	Endpoint     string            `json:"endpoint"`
	Encoding     string            `json:"encoding"`
	PollInterval string            `json:"poll_interval"`
	Active       bool              `json:"active"`
	AuthHeaders  map[string]string `json:"auth_headers,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.GetStatistics(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"total_indicators":      stats.TotalIndicators,
		"risk_distribution":     stats.RiskDistribution,
		"category_distribution": stats.CategoryDistribution,
		"total_analyses":        stats.TotalAnalyses,
		"analysis_distribution": stats.AnalysisDistribution,
	})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := defaultSimilarLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = min(parsed, maxSimilarLimit)
	}

	matches, err := s.searcher.FindSimilar(r.Context(), query, limit)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	results := make([]similarResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, similarResult{
			Indicator:  match.Record.Indicator,
			Type:       match.Record.IndicatorType.String(),
			RiskLevel:  match.Record.RiskLevel.String(),
			Category:   match.Record.Category,
			Confidence: match.Record.Confidence,
			TimesSeen:  match.Record.TimesSeen,
			Similarity: match.Similarity,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleListFeeds(w http.ResponseWriter, r *http.Request) {
	stats := s.registry.Stats()
	rows := make([]feedRow, 0, len(stats.Feeds))
	for _, feed := range stats.Feeds {
		row := feedRow{
			Name:         feed.Name,
			Endpoint:     feed.Endpoint,
			Encoding:     feed.Encoding,
			PollInterval: feed.PollInterval.String(),
			Active:       feed.Active,
		}
		if !feed.LastUpdated.IsZero() {
			row.LastUpdated = feed.LastUpdated.Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"total_feeds":  stats.TotalFeeds,
		"active_feeds": stats.ActiveFeeds,
		"feeds":        rows,
	})
}

func (s *Server) handleAddFeed(w http.ResponseWriter, r *http.Request) {
	var req addFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	interval, err := time.ParseDuration(req.PollInterval)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("poll_interval must be a duration string"))
		return
	}
	encoding := core.ParseFeedEncoding(req.Encoding)
	if encoding == core.FeedEncodingUnknown {
		s.writeError(w, http.StatusBadRequest, errors.New("unknown feed encoding"))
		return
	}

	feed := &core.FeedDescriptor{
		Name:         req.Name,
		Endpoint:     req.Endpoint,
		Encoding:     encoding,
		PollInterval: interval,
		Active:       req.Active,
		AuthHeaders:  req.AuthHeaders,
	}
	if err := s.registry.Add(r.Context(), feed); err != nil {
		switch {
		case errors.Is(err, feeds.ErrDuplicateFeed):
			s.writeError(w, http.StatusConflict, err)
		case errors.Is(err, core.ErrInvalidFeedDescriptor):
			s.writeError(w, http.StatusBadRequest, err)
		default:
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"name": feed.Name})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encoding response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
