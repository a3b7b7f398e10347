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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/corvusec/threatbase/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Classifier implements ai.Classifier using OpenAI-compatible chat APIs.
type Classifier struct {
	client llms.Model
	logger *slog.Logger
}

// verdict is an internal type matching the JSON structure expected from the
// LLM.
type verdict struct {
	RiskLevel  string  `json:"risk_level"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// newClassifier is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newClassifier(config *ai.Config) (*Classifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ClassifierHost),
		openai.WithToken("none"),
		openai.WithModel(config.ClassifierModel),
	)
	if err != nil {
		return nil, err
	}

	return &Classifier{
		client: client,
		logger: slog.Default().With("component", "openai-classifier"),
	}, nil
}

// NewClassifier creates a new LLM-backed classifier using the provided
// configuration.
//
// Returns ai.Classifier interface to enforce abstraction.
func NewClassifier(config *ai.Config) (ai.Classifier, error) {
	return newClassifier(config)
}

// Classify sends the indicator to the LLM and parses its JSON verdict.
// Labels outside the allowed sets are coerced to "unknown" rather than
// rejected.
func (c *Classifier) Classify(ctx context.Context, indicator string, similar []ai.SimilarContext) (*ai.Classification, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSystemPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildUserPrompt(indicator, similar)),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result verdict
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			c.logger.Debug("no choices returned from model")
			return &ai.Classification{RiskLevel: "unknown", Category: "unknown", Confidence: 0}, nil
		}

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(response.Choices[0].Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			c.logger.Warn("error parsing classifier response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		c.logger.Error("failed to parse classifier response after retries", "err", lastErr)
		return nil, lastErr
	}

	classification := &ai.Classification{
		RiskLevel:  normalizeLabel(result.RiskLevel, ai.RiskLevels),
		Category:   normalizeLabel(result.Category, ai.Categories),
		Confidence: clampConfidence(result.Confidence),
		Reasoning:  strings.TrimSpace(result.Reasoning),
	}

	c.logger.Debug("classified indicator",
		"indicator", indicator,
		"risk", classification.RiskLevel,
		"category", classification.Category,
		"confidence", classification.Confidence)

	return classification, nil
}

// normalizeLabel lowercases a label and coerces values outside the allowed
// set to "unknown".
func normalizeLabel(label string, allowed []string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if slices.Contains(allowed, label) {
		return label
	}
	return "unknown"
}

func clampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
