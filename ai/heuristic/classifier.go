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


package heuristic

import (
	"context"
	"log/slog"
	"net"
	"strings"

	"github.com/corvusec/threatbase/ai"
)

// bankingKeywords mark domains mimicking financial services.
var bankingKeywords = []string{
	"bank", "banking", "login", "secure", "account", "paypal", "visa", "mastercard",
}

// suspiciousTLDs are top-level domains with a high share of abuse.
var suspiciousTLDs = []string{
	".tk", ".ml", ".cf", ".ga", ".ru", ".cc",
}

// govKeywords mark impersonation of government bodies.
var govKeywords = []string{
	"gov", "government", "official", "rbi", "irs", "federal",
}

// Classifier implements ai.Classifier with static rules. It needs no
// external service and is used when no LLM endpoint is configured.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a rule-based classifier.
//
// Returns ai.Classifier interface to enforce abstraction.
func NewClassifier() ai.Classifier {
	return &Classifier{
		logger: slog.Default().With("component", "heuristic-classifier"),
	}
}

// Classify applies the rule set to a single indicator value. An indicator no
// rule fires on keeps the medium/unknown baseline; the result is never an
// error.
func (c *Classifier) Classify(ctx context.Context, indicator string, similar []ai.SimilarContext) (*ai.Classification, error) {
	result := &ai.Classification{
		RiskLevel:  "medium",
		Category:   "unknown",
		Confidence: 0.5,
	}

	lower := strings.ToLower(indicator)
	var reasons []string

	if ip := net.ParseIP(strings.Trim(indicator, "[]")); ip != nil {
		if ip.IsPrivate() || ip.IsLoopback() {
			result.RiskLevel = "low"
			result.Confidence = 0.1
			reasons = append(reasons, "Private IP address range")
		} else {
			result.RiskLevel = "medium"
			result.Confidence = 0.6
			reasons = append(reasons, "Public IP address requires investigation")
		}
	} else if strings.Contains(indicator, ".") {
		if containsAny(lower, bankingKeywords) {
			result.RiskLevel = "high"
			result.Category = "phishing"
			result.Confidence = 0.8
			reasons = append(reasons, "Domain contains banking/financial keywords commonly used in phishing")
		}

		if hasAnySuffix(lower, suspiciousTLDs) {
			result.RiskLevel = "high"
			result.Confidence = min(result.Confidence+0.2, 0.9)
			reasons = append(reasons, "Suspicious TLD commonly used in malicious campaigns")
		}

		if containsAny(lower, govKeywords) && !strings.HasSuffix(lower, ".gov") {
			if result.RiskLevel == "low" {
				result.RiskLevel = "medium"
			} else {
				result.RiskLevel = "high"
			}
			result.Category = "phishing"
			result.Confidence = 0.7
			reasons = append(reasons, "Government impersonation attempt")
		}
	}

	// Established knowledge about close neighbors biases the verdict.
	if len(similar) > 0 {
		neighbors := similar
		if len(neighbors) > 2 {
			neighbors = neighbors[:2]
		}

		allHigh := true
		for _, n := range neighbors {
			if n.RiskLevel != "high" {
				allHigh = false
				break
			}
		}
		if allHigh {
			result.RiskLevel = "high"
			result.Confidence = min(result.Confidence+0.2, 0.9)
			reasons = append(reasons, "Similar indicators previously classified as high risk")
		}

		if neighbors[0].Category != "" && neighbors[0].Category != "unknown" {
			result.Category = neighbors[0].Category
		}
	}

	result.Reasoning = strings.Join(reasons, " | ")

	c.logger.Debug("classified indicator",
		"indicator", indicator,
		"risk", result.RiskLevel,
		"category", result.Category)

	return result, nil
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
