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


package ingestion

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/corvusec/threatbase/ai"
	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/metrics"
	"github.com/corvusec/threatbase/storage"
)

// reuseSimilarityThreshold is the similarity above which a stored
// classification is reused instead of calling the classifier.
const reuseSimilarityThreshold = 0.9

// similarLookupLimit caps how many neighbors are fetched per candidate.
const similarLookupLimit = 3

// Coordinator turns extracted candidates into classified, stored indicator
// records. Batches are processed synchronously; fan-out inside a batch runs
// on a worker pool. A failing candidate is logged and skipped, never
// aborting its batch.
type Coordinator struct {
	indicators storage.IndicatorRepository
	techniques storage.TechniqueRepository
	analyses   storage.AnalysisRepository
	classifier ai.Classifier
	embedder   ai.Embedder // nil disables embeddings and similarity reuse
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithPoolSize sets the worker pool size for in-batch fan-out.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			size = 1
		}

		if c.pool != nil {
			c.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithEmbedder sets the embedder used for indicator embeddings and
// similarity reuse. A nil embedder is valid: candidates are then always
// classified fresh and stored without embeddings.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(c *Coordinator) error {
		c.embedder = embedder
		return nil
	}
}

// NewCoordinator creates a new ingestion coordinator.
func NewCoordinator(
	indicators storage.IndicatorRepository,
	techniques storage.TechniqueRepository,
	analyses storage.AnalysisRepository,
	classifier ai.Classifier,
	opts ...Option,
) (*Coordinator, error) {
	if indicators == nil {
		return nil, ErrIndicatorRepositoryRequired
	}
	if techniques == nil {
		return nil, ErrTechniqueRepositoryRequired
	}
	if analyses == nil {
		return nil, ErrAnalysisRepositoryRequired
	}
	if classifier == nil {
		return nil, ErrClassifierRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		indicators: indicators,
		techniques: techniques,
		analyses:   analyses,
		classifier: classifier,
		pool:       pool,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}

	return c, nil
}

// batchResult accumulates per-batch counters under its own lock.
type batchResult struct {
	mu              sync.Mutex
	stored          int
	failed          int
	reused          int
	confidenceTotal float64
}

// ProcessBatch classifies and stores one batch of candidates from a feed.
// It returns the number of successfully stored indicators. The call blocks
// until every candidate has been processed and the batch analysis record is
// appended.
func (c *Coordinator) ProcessBatch(ctx context.Context, feedName string, candidates []*core.CandidateIndicator) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	start := time.Now()
	sessionID := uuid.NewString()
	result := &batchResult{}

	var wg sync.WaitGroup
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		candidate := candidate
		submitErr := c.pool.Submit(func() {
			defer wg.Done()
			c.processCandidate(ctx, feedName, candidate, result)
		})
		if submitErr != nil {
			wg.Done()
			c.logger.Error("error submitting candidate to pool",
				"feed", feedName, "indicator", candidate.Value, "err", submitErr)
			result.mu.Lock()
			result.failed++
			result.mu.Unlock()
		}
	}
	wg.Wait()

	c.appendBatchAnalysis(ctx, sessionID, feedName, len(candidates), result, time.Since(start))

	c.logger.Info("processed feed batch",
		"feed", feedName,
		"candidates", len(candidates),
		"stored", result.stored,
		"failed", result.failed,
		"reused", result.reused)

	return result.stored, nil
}

// processCandidate runs the classify-and-store path for one candidate.
func (c *Coordinator) processCandidate(ctx context.Context, feedName string, candidate *core.CandidateIndicator, result *batchResult) {
	record, reusedClassification, err := c.buildRecord(ctx, candidate)
	if err != nil {
		metrics.ClassificationFailures.WithLabelValues(feedName).Inc()
		c.logger.Error("error classifying candidate",
			"feed", feedName, "indicator", candidate.Value, "err", err)
		result.mu.Lock()
		result.failed++
		result.mu.Unlock()
		return
	}

	id, err := c.indicators.Upsert(ctx, record)
	if err != nil {
		c.logger.Error("error storing indicator",
			"feed", feedName, "indicator", candidate.Value, "err", err)
		result.mu.Lock()
		result.failed++
		result.mu.Unlock()
		return
	}
	metrics.IndicatorsStored.WithLabelValues(feedName).Inc()

	if mapping := techniqueForCategory(record.Category, id, record.Confidence); mapping != nil {
		if _, err := c.techniques.Add(ctx, mapping); err != nil {
			// Mapping is enrichment; the indicator itself is already stored.
			c.logger.Warn("error storing technique mapping",
				"feed", feedName, "indicator", candidate.Value,
				"technique", mapping.TechniqueId, "err", err)
		}
	}

	result.mu.Lock()
	result.stored++
	if reusedClassification {
		result.reused++
	}
	result.confidenceTotal += record.Confidence
	result.mu.Unlock()
}

// buildRecord resolves a candidate's classification, reusing a stored
// verdict when a near-identical indicator is already known.
func (c *Coordinator) buildRecord(ctx context.Context, candidate *core.CandidateIndicator) (*core.IndicatorRecord, bool, error) {
	indicatorType := candidate.Type
	if indicatorType == core.IndicatorTypeUnknown {
		indicatorType = core.DetectIndicatorType(candidate.Value)
	}

	record := &core.IndicatorRecord{
		Indicator:     candidate.Value,
		IndicatorType: indicatorType,
		Source:        candidate.Source,
		Metadata:      candidateMetadata(candidate),
	}

	neighbors := c.findNeighbors(ctx, candidate.Value)

	if len(neighbors) > 0 && neighbors[0].Similarity > reuseSimilarityThreshold {
		known := neighbors[0].Record
		record.RiskLevel = known.RiskLevel
		record.Category = known.Category
		record.Confidence = known.Confidence
		record.Metadata["classification_source"] = "memory"
	} else {
		verdict, err := c.classifier.Classify(ctx, candidate.Value, similarContext(neighbors))
		if err != nil {
			return nil, false, err
		}
		record.RiskLevel = core.ParseRiskLevel(verdict.RiskLevel)
		record.Category = verdict.Category
		record.Confidence = verdict.Confidence
		if verdict.Reasoning != "" {
			record.Metadata["reasoning"] = verdict.Reasoning
		}
	}

	// Embedding failures are non-fatal: the record is stored without a
	// vector and remains reachable through the substring fallback.
	if c.embedder != nil {
		embedding, err := c.embedder.EmbedText(ctx, record.EmbeddingText())
		if err != nil {
			c.logger.Warn("error embedding indicator, storing without vector",
				"indicator", candidate.Value, "err", err)
		} else {
			record.Embedding = embedding
		}
	}

	reused := record.Metadata["classification_source"] == "memory"
	return record, reused, nil
}

// findNeighbors fetches the closest stored indicators for a candidate value.
// Without an embedder there is no similarity signal and reuse is disabled.
func (c *Coordinator) findNeighbors(ctx context.Context, value string) []*core.IndicatorMatch {
	if c.embedder == nil {
		return nil
	}

	vector, err := c.embedder.EmbedText(ctx, value)
	if err != nil || len(vector) == 0 {
		return nil
	}

	neighbors, err := c.indicators.FindSimilar(ctx, vector, similarLookupLimit)
	if err != nil {
		c.logger.Warn("error querying similar indicators", "indicator", value, "err", err)
		return nil
	}
	return neighbors
}

func (c *Coordinator) appendBatchAnalysis(ctx context.Context, sessionID, feedName string, candidates int, result *batchResult, elapsed time.Duration) {
	input, _ := json.Marshal(map[string]any{
		"feed":       feedName,
		"candidates": candidates,
	})
	output, _ := json.Marshal(map[string]any{
		"stored": result.stored,
		"failed": result.failed,
		"reused": result.reused,
	})

	confidence := 0.0
	if result.stored > 0 {
		confidence = result.confidenceTotal / float64(result.stored)
	}

	_, err := c.analyses.Append(ctx, &core.AnalysisRecord{
		SessionId:     sessionID,
		Scope:         feedName,
		AnalysisType:  "feed_processing",
		InputPayload:  string(input),
		OutputPayload: string(output),
		Confidence:    confidence,
		Duration:      elapsed,
	})
	if err != nil {
		c.logger.Error("error appending batch analysis record",
			"feed", feedName, "session", sessionID, "err", err)
	}
}

// similarContext converts repository matches into the classifier's context
// shape.
func similarContext(neighbors []*core.IndicatorMatch) []ai.SimilarContext {
	if len(neighbors) == 0 {
		return nil
	}
	similar := make([]ai.SimilarContext, len(neighbors))
	for i, n := range neighbors {
		similar[i] = ai.SimilarContext{
			Indicator:  n.Record.Indicator,
			RiskLevel:  n.Record.RiskLevel.String(),
			Category:   n.Record.Category,
			Similarity: n.Similarity,
		}
	}
	return similar
}

func candidateMetadata(candidate *core.CandidateIndicator) map[string]string {
	metadata := make(map[string]string)
	if candidate.ThreatTypeHint != "" {
		metadata["threat_type"] = candidate.ThreatTypeHint
	}
	if len(candidate.Tags) > 0 {
		tags, _ := json.Marshal(candidate.Tags)
		metadata["tags"] = string(tags)
	}
	return metadata
}

// Release releases the worker pool.
// The coordinator should not be used after calling Release.
func (c *Coordinator) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}
