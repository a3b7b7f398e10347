package extract

import (
	"strings"

	"github.com/corvusec/threatbase/core"
)

// sinkholeAddresses are the column-0 values of the hosts-file blocklist
// convention. Only lines pointing a domain at one of these yield a
// candidate.
var sinkholeAddresses = map[string]bool{
	"127.0.0.1": true,
	"0.0.0.0":   true,
}

// DelimitedAdapter decodes hosts-file style blocklists: one
// "<sinkhole-ip> <domain>" pair per line, # starting a comment.
type DelimitedAdapter struct{}

var _ Adapter = (*DelimitedAdapter)(nil)

// Extract never fails: malformed lines are skipped, an empty or
// comment-only payload yields zero candidates.
func (a *DelimitedAdapter) Extract(payload []byte, feed *core.FeedDescriptor) ([]*core.CandidateIndicator, error) {
	var candidates []*core.CandidateIndicator

	for _, line := range strings.Split(string(payload), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 || !sinkholeAddresses[parts[0]] {
			continue
		}

		candidates = append(candidates, &core.CandidateIndicator{
			Value:          parts[1],
			Type:           core.IndicatorTypeDomain,
			Source:         feed.Name,
			ThreatTypeHint: "malware",
		})
	}

	return candidates, nil
}
