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


package core

import "fmt"

// ValidateIndicatorRecord validates an IndicatorRecord according to domain rules.
//
// Validation rules:
//   - Indicator must not be empty
//   - Confidence must be in [0,1]
//
// NOT validated (populated by the store):
//   - Embedding (can be empty when no provider is configured)
//   - Id (derived from the natural key on upsert)
//   - FirstSeen/LastSeen/TimesSeen (maintained by the store)
func ValidateIndicatorRecord(record *IndicatorRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidIndicatorRecord)
	}

	if record.Indicator == "" {
		return fmt.Errorf("%w: %w", ErrInvalidIndicatorRecord, ErrEmptyIndicator)
	}

	if !isValidConfidence(record.Confidence) {
		return fmt.Errorf("%w: %w", ErrInvalidIndicatorRecord, ErrInvalidConfidence)
	}

	return nil
}

// ValidateTechniqueMapping validates a TechniqueMapping according to domain rules.
func ValidateTechniqueMapping(mapping *TechniqueMapping) error {
	if mapping == nil {
		return fmt.Errorf("%w: mapping is nil", ErrInvalidTechniqueMapping)
	}

	if mapping.TechniqueId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTechniqueMapping, ErrEmptyTechniqueId)
	}

	if !isValidConfidence(mapping.Confidence) {
		return fmt.Errorf("%w: %w", ErrInvalidTechniqueMapping, ErrInvalidConfidence)
	}

	return nil
}

// ValidateAnalysisRecord validates an AnalysisRecord according to domain rules.
func ValidateAnalysisRecord(record *AnalysisRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidAnalysisRecord)
	}

	if record.AnalysisType == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAnalysisRecord, ErrEmptyAnalysisType)
	}

	if !isValidConfidence(record.Confidence) {
		return fmt.Errorf("%w: %w", ErrInvalidAnalysisRecord, ErrInvalidConfidence)
	}

	return nil
}

// ValidateKnowledgePattern validates a KnowledgePattern according to domain rules.
func ValidateKnowledgePattern(pattern *KnowledgePattern) error {
	if pattern == nil {
		return fmt.Errorf("%w: pattern is nil", ErrInvalidKnowledgePattern)
	}

	if pattern.PatternType == "" {
		return fmt.Errorf("%w: pattern type cannot be empty", ErrInvalidKnowledgePattern)
	}

	if pattern.PatternText == "" {
		return fmt.Errorf("%w: pattern text cannot be empty", ErrInvalidKnowledgePattern)
	}

	return nil
}

// ValidateFeedDescriptor validates a FeedDescriptor according to domain rules.
func ValidateFeedDescriptor(feed *FeedDescriptor) error {
	if feed == nil {
		return fmt.Errorf("%w: descriptor is nil", ErrInvalidFeedDescriptor)
	}

	if feed.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFeedDescriptor, ErrEmptyFeedName)
	}

	if feed.Endpoint == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFeedDescriptor, ErrEmptyFeedEndpoint)
	}

	if feed.PollInterval <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidFeedDescriptor, ErrInvalidPollInterval)
	}

	return nil
}

func isValidConfidence(confidence float64) bool {
	return confidence >= 0 && confidence <= 1
}
