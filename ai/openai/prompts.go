package openai

import (
	"fmt"
	"strings"

	"github.com/corvusec/threatbase/ai"
)

const classificationResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "risk_level": {
      "type": "string"
    },
    "category": {
      "type": "string"
    },
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    },
    "reasoning": {
      "type": "string"
    }
  },
  "required": ["risk_level", "category", "confidence", "reasoning"],
  "additionalProperties": false
}`

const classificationPromptTemplate = `You are a threat intelligence analyst. Classify the given indicator of
compromise (a domain, URL, IP address, file hash or email address) and return
your verdict as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- risk_level must match exactly one of: %s.
- category must match exactly one of: %s.
- confidence is a number from 0.0 (pure guess) to 1.0 (certain).
- reasoning is one short sentence naming the signals behind the verdict.
- If the indicator carries no recognizable threat signal, use risk_level "unknown" with a low confidence. Do not hallucinate signals.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "secure-paypal-login.tk"
Output:
{
  "risk_level": "high",
  "category": "phishing",
  "confidence": 0.85,
  "reasoning": "Financial brand squatting on a frequently abused free TLD"
}

Example:
Input: "192.168.1.20"
Output:
{
  "risk_level": "low",
  "category": "infrastructure",
  "confidence": 0.2,
  "reasoning": "Private address range, not routable from the internet"
}

Example (nothing recognizable):
Input: "d41d8cd98f00b204e9800998ecf8427e"
Output:
{
  "risk_level": "unknown",
  "category": "unknown",
  "confidence": 0.1,
  "reasoning": "Bare hash with no context to classify"
}`

// buildSystemPrompt creates the system prompt with the label sets embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(classificationPromptTemplate,
		classificationResponseSchema,
		strings.Join(ai.RiskLevels, ", "),
		strings.Join(ai.Categories, ", "))
}

// buildUserPrompt renders the indicator plus any similar-indicator context
// into the human message.
func buildUserPrompt(indicator string, similar []ai.SimilarContext) string {
	var b strings.Builder
	b.WriteString("Indicator: ")
	b.WriteString(indicator)

	if len(similar) > 0 {
		b.WriteString("\n\nPreviously classified similar indicators:\n")
		for _, s := range similar {
			fmt.Fprintf(&b, "- %s (risk: %s, category: %s, similarity: %.2f)\n",
				s.Indicator, s.RiskLevel, s.Category, s.Similarity)
		}
	}
	return b.String()
}
