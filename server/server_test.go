package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/feeds"
	"github.com/corvusec/threatbase/search"
	"github.com/corvusec/threatbase/storage"
	badgerstore "github.com/corvusec/threatbase/storage/badger"
)

type testFixture struct {
	server     *Server
	indicators storage.IndicatorRepository
	registry   *feeds.Registry
}

type statsFunc func(ctx context.Context) (*core.StoreStatistics, error)

func (f statsFunc) GetStatistics(ctx context.Context) (*core.StoreStatistics, error) {
	return f(ctx)
}

func newTestServer(t *testing.T) *testFixture {
	t.Helper()

	backend, err := badgerstore.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, backend.Close())
	})

	indicators, err := badgerstore.NewIndicatorRepository(backend)
	require.NoError(t, err)
	analyses, err := badgerstore.NewAnalysisRepository(backend)
	require.NoError(t, err)
	feedRepo, err := badgerstore.NewFeedRepository(backend)
	require.NoError(t, err)

	registry, err := feeds.NewRegistry(context.Background(), feedRepo)
	require.NoError(t, err)

	searcher, err := search.NewSearcher(indicators)
	require.NoError(t, err)

	stats := statsFunc(func(ctx context.Context) (*core.StoreStatistics, error) {
		total, riskDist, categoryDist, err := indicators.Statistics(ctx)
		if err != nil {
			return nil, err
		}
		totalAnalyses, typeDist, err := analyses.Statistics(ctx)
		if err != nil {
			return nil, err
		}
		return &core.StoreStatistics{
			TotalIndicators:      total,
			RiskDistribution:     riskDist,
			CategoryDistribution: categoryDist,
			TotalAnalyses:        totalAnalyses,
			AnalysisDistribution: typeDist,
		}, nil
	})

	return &testFixture{
		server:     New(stats, searcher, registry, nil),
		indicators: indicators,
		registry:   registry,
	}
}

func (f *testFixture) seedIndicator(t *testing.T, indicator, riskLevel, category string) {
	t.Helper()
	_, err := f.indicators.Upsert(context.Background(), &core.IndicatorRecord{
		Indicator:     indicator,
		IndicatorType: core.DetectIndicatorType(indicator),
		RiskLevel:     core.ParseRiskLevel(riskLevel),
		Category:      category,
		Confidence:    0.8,
		Source:        "test",
	})
	require.NoError(t, err)
}

func (f *testFixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	f := newTestServer(t)
	rec := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestStatisticsEndpoint(t *testing.T) {
	f := newTestServer(t)
	f.seedIndicator(t, "evil.example.com", "high", "phishing")
	f.seedIndicator(t, "203.0.113.7", "medium", "c2")

	rec := f.do(t, http.MethodGet, "/v1/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["total_indicators"])
	riskDist := body["risk_distribution"].(map[string]any)
	assert.Equal(t, float64(1), riskDist["high"])
}

func TestSimilarEndpoint(t *testing.T) {
	f := newTestServer(t)
	f.seedIndicator(t, "evil-login.example.com", "high", "phishing")
	f.seedIndicator(t, "benign.example.org", "low", "infrastructure")

	rec := f.do(t, http.MethodGet, "/v1/similar?q=phishing&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	results := decodeBody(t, rec)["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "evil-login.example.com", first["indicator"])
	assert.Equal(t, "phishing", first["category"])
	assert.Equal(t, 0.5, first["similarity"])
}

func TestSimilarEndpointValidation(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(t, http.MethodGet, "/v1/similar?q=", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/similar?q=x&limit=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/similar?q=x&limit=-3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddAndListFeeds(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(t, http.MethodPost, "/v1/feeds", addFeedRequest{
		Name:         "urlhaus",
		Endpoint:     "https://urlhaus-api.abuse.ch/v1/urls/recent/",
		Encoding:     "json",
		PollInterval: "15m",
		Active:       true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/feeds", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total_feeds"])
	assert.Equal(t, float64(1), body["active_feeds"])
	rows := body["feeds"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "urlhaus", row["name"])
	assert.Equal(t, "15m0s", row["poll_interval"])
	_, hasLastUpdated := row["last_updated"]
	assert.False(t, hasLastUpdated)
}

func TestAddFeedErrors(t *testing.T) {
	f := newTestServer(t)

	valid := addFeedRequest{
		Name:         "urlhaus",
		Endpoint:     "https://feeds.example.com/urlhaus",
		Encoding:     "json",
		PollInterval: "15m",
	}
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/v1/feeds", valid).Code)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/v1/feeds", valid).Code)

	badInterval := valid
	badInterval.Name = "other"
	badInterval.PollInterval = "whenever"
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/v1/feeds", badInterval).Code)

	badEncoding := valid
	badEncoding.Name = "other"
	badEncoding.Encoding = "yaml"
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/v1/feeds", badEncoding).Code)

	unnamed := valid
	unnamed.Name = ""
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/v1/feeds", unnamed).Code)
}

func TestFeedLastUpdatedFormatting(t *testing.T) {
	f := newTestServer(t)

	require.NoError(t, f.registry.Add(context.Background(), &core.FeedDescriptor{
		Name:         "urlhaus",
		Endpoint:     "https://feeds.example.com/urlhaus",
		Encoding:     core.FeedEncodingStructured,
		PollInterval: 15 * time.Minute,
	}))
	require.NoError(t, f.registry.MarkUpdated(context.Background(), "urlhaus", time.Now()))

	rec := f.do(t, http.MethodGet, "/v1/feeds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	row := decodeBody(t, rec)["feeds"].([]any)[0].(map[string]any)
	stamp, err := time.Parse(time.RFC3339, row["last_updated"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), stamp, time.Minute)
}
