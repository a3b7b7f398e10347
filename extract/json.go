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


package extract

import (
	"encoding/json"
	"strings"

	"github.com/corvusec/threatbase/core"
)

// StructuredAdapter decodes JSON feed payloads. It understands the URLhaus
// and MISP provider shapes, selected by feed name, and falls back to a
// generic object list for anything else.
type StructuredAdapter struct{}

var _ Adapter = (*StructuredAdapter)(nil)

type urlhausPayload struct {
	URLhaus []urlhausEntry `json:"urlhaus"`
}

type urlhausEntry struct {
	URL       string   `json:"url"`
	URLStatus string   `json:"url_status"`
	Threat    string   `json:"threat"`
	Tags      []string `json:"tags"`
}

type mispPayload struct {
	Response struct {
		Event []struct {
			Attribute []mispAttribute `json:"Attribute"`
		} `json:"Event"`
	} `json:"response"`
}

type mispAttribute struct {
	Value    string `json:"value"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Comment  string `json:"comment"`
	ToIDS    bool   `json:"to_ids"`
	Deleted  bool   `json:"deleted"`
}

// genericEntry covers the common self-describing object-list feeds.
type genericEntry struct {
	IOC       string `json:"ioc"`
	Indicator string `json:"indicator"`
	Value     string `json:"value"`
	Type      string `json:"type"`
	Threat    string `json:"threat"`
}

func (e *genericEntry) value() string {
	switch {
	case e.IOC != "":
		return e.IOC
	case e.Indicator != "":
		return e.Indicator
	default:
		return e.Value
	}
}

// Extract decodes the payload using the provider convention matching the
// feed's name.
func (a *StructuredAdapter) Extract(payload []byte, feed *core.FeedDescriptor) ([]*core.CandidateIndicator, error) {
	name := strings.ToLower(feed.Name)

	switch {
	case strings.Contains(name, "urlhaus"):
		return a.extractURLhaus(payload, feed)
	case strings.Contains(name, "misp"):
		return a.extractMISP(payload, feed)
	default:
		return a.extractGeneric(payload, feed)
	}
}

// extractURLhaus keeps only entries still reported online.
func (a *StructuredAdapter) extractURLhaus(payload []byte, feed *core.FeedDescriptor) ([]*core.CandidateIndicator, error) {
	var decoded urlhausPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, &ParseError{Feed: feed.Name, Err: err}
	}

	var candidates []*core.CandidateIndicator
	for _, entry := range decoded.URLhaus {
		if entry.URLStatus != "online" || entry.URL == "" {
			continue
		}
		hint := entry.Threat
		if hint == "" {
			hint = "unknown"
		}
		candidates = append(candidates, &core.CandidateIndicator{
			Value:          entry.URL,
			Type:           core.IndicatorTypeURL,
			Source:         feed.Name,
			ThreatTypeHint: hint,
			Tags:           entry.Tags,
		})
	}
	return candidates, nil
}

// extractMISP keeps attributes flagged for detection and not deleted.
func (a *StructuredAdapter) extractMISP(payload []byte, feed *core.FeedDescriptor) ([]*core.CandidateIndicator, error) {
	var decoded mispPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, &ParseError{Feed: feed.Name, Err: err}
	}

	var candidates []*core.CandidateIndicator
	for _, event := range decoded.Response.Event {
		for _, attribute := range event.Attribute {
			if !attribute.ToIDS || attribute.Deleted || attribute.Value == "" {
				continue
			}
			candidates = append(candidates, &core.CandidateIndicator{
				Value:          attribute.Value,
				Type:           core.ParseIndicatorType(attribute.Type),
				Source:         feed.Name,
				ThreatTypeHint: attribute.Category,
			})
		}
	}
	return candidates, nil
}

// extractGeneric accepts a bare array of self-describing objects.
func (a *StructuredAdapter) extractGeneric(payload []byte, feed *core.FeedDescriptor) ([]*core.CandidateIndicator, error) {
	var decoded []genericEntry
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, &ParseError{Feed: feed.Name, Err: err}
	}

	var candidates []*core.CandidateIndicator
	for _, entry := range decoded {
		value := entry.value()
		if value == "" {
			continue
		}
		indicatorType := core.ParseIndicatorType(entry.Type)
		if indicatorType == core.IndicatorTypeUnknown {
			indicatorType = core.DetectIndicatorType(value)
		}
		candidates = append(candidates, &core.CandidateIndicator{
			Value:          value,
			Type:           indicatorType,
			Source:         feed.Name,
			ThreatTypeHint: entry.Threat,
		})
	}
	return candidates, nil
}
