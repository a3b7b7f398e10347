package extract

import (
	"strings"

	"github.com/corvusec/threatbase/core"
)

// PlainTextAdapter decodes feeds carrying one raw indicator per line,
// # starting a comment. Indicator types are detected from the value's shape.
type PlainTextAdapter struct{}

var _ Adapter = (*PlainTextAdapter)(nil)

// Extract never fails: blank and comment lines are skipped.
func (a *PlainTextAdapter) Extract(payload []byte, feed *core.FeedDescriptor) ([]*core.CandidateIndicator, error) {
	var candidates []*core.CandidateIndicator

	for _, line := range strings.Split(string(payload), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		candidates = append(candidates, &core.CandidateIndicator{
			Value:  line,
			Type:   core.DetectIndicatorType(line),
			Source: feed.Name,
		})
	}

	return candidates, nil
}
