package mock

import (
	"context"
	"strings"

	"github.com/corvusec/threatbase/ai"
)

// MockClassifier is a test double for ai.Classifier.
// It allows custom behavior injection via function fields.
type MockClassifier struct {
	// ClassifyFunc is called by Classify if set.
	// If nil, uses default deterministic behavior.
	ClassifyFunc func(ctx context.Context, indicator string, similar []ai.SimilarContext) (*ai.Classification, error)

	callCount int
}

// NewMockClassifier creates a mock classifier with default deterministic
// behavior. Note: Returns concrete type to allow test assertions.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// Classify returns a deterministic verdict: indicators containing "evil" or
// "phish" are high-risk phishing, everything else is medium/unknown.
func (m *MockClassifier) Classify(ctx context.Context, indicator string, similar []ai.SimilarContext) (*ai.Classification, error) {
	m.callCount++

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, indicator, similar)
	}

	lower := strings.ToLower(indicator)
	if strings.Contains(lower, "evil") || strings.Contains(lower, "phish") {
		return &ai.Classification{
			RiskLevel:  "high",
			Category:   "phishing",
			Confidence: 0.9,
			Reasoning:  "mock verdict",
		}, nil
	}

	return &ai.Classification{
		RiskLevel:  "medium",
		Category:   "unknown",
		Confidence: 0.5,
		Reasoning:  "mock verdict",
	}, nil
}

// CallCount returns the number of times Classify was called.
func (m *MockClassifier) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockClassifier) Reset() {
	m.callCount = 0
	m.ClassifyFunc = nil
}
