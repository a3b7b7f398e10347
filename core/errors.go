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

import "errors"

// Domain validation errors
var (
	// ErrInvalidIndicatorRecord indicates an IndicatorRecord failed validation.
	ErrInvalidIndicatorRecord = errors.New("invalid indicator record")

	// ErrInvalidTechniqueMapping indicates a TechniqueMapping failed validation.
	ErrInvalidTechniqueMapping = errors.New("invalid technique mapping")

	// ErrInvalidAnalysisRecord indicates an AnalysisRecord failed validation.
	ErrInvalidAnalysisRecord = errors.New("invalid analysis record")

	// ErrInvalidFeedDescriptor indicates a FeedDescriptor failed validation.
	ErrInvalidFeedDescriptor = errors.New("invalid feed descriptor")

	// ErrInvalidKnowledgePattern indicates a KnowledgePattern failed validation.
	ErrInvalidKnowledgePattern = errors.New("invalid knowledge pattern")

	// ErrEmptyIndicator indicates the Indicator field is empty.
	ErrEmptyIndicator = errors.New("indicator cannot be empty")

	// ErrInvalidConfidence indicates a confidence outside [0,1].
	ErrInvalidConfidence = errors.New("confidence must be in [0,1]")

	// ErrEmptyTechniqueId indicates the TechniqueId field is empty.
	ErrEmptyTechniqueId = errors.New("technique id cannot be empty")

	// ErrEmptyAnalysisType indicates the AnalysisType field is empty.
	ErrEmptyAnalysisType = errors.New("analysis type cannot be empty")

	// ErrEmptyFeedName indicates the feed Name field is empty.
	ErrEmptyFeedName = errors.New("feed name cannot be empty")

	// ErrEmptyFeedEndpoint indicates the feed Endpoint field is empty.
	ErrEmptyFeedEndpoint = errors.New("feed endpoint cannot be empty")

	// ErrInvalidPollInterval indicates a non-positive poll interval.
	ErrInvalidPollInterval = errors.New("poll interval must be positive")
)
