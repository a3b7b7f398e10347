package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/corvusec/threatbase/core"
)

// MarkupAdapter decodes XML feed payloads in the PhishTank shape: the
// document is walked for <entry> elements and the text of each nested <url>
// becomes one candidate.
type MarkupAdapter struct{}

var _ Adapter = (*MarkupAdapter)(nil)

// Extract walks the XML token stream rather than binding to a fixed root
// element, so provider wrappers around the entry list don't matter.
func (a *MarkupAdapter) Extract(payload []byte, feed *core.FeedDescriptor) ([]*core.CandidateIndicator, error) {
	decoder := xml.NewDecoder(bytes.NewReader(payload))

	var candidates []*core.CandidateIndicator
	sawElement := false

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Feed: feed.Name, Err: err}
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		sawElement = true
		if start.Name.Local != "entry" {
			continue
		}

		url, err := a.readEntryURL(decoder)
		if err != nil {
			return nil, &ParseError{Feed: feed.Name, Err: err}
		}
		if url == "" {
			continue
		}

		candidates = append(candidates, &core.CandidateIndicator{
			Value:          url,
			Type:           core.IndicatorTypeURL,
			Source:         feed.Name,
			ThreatTypeHint: "phishing",
		})
	}

	if !sawElement {
		return nil, &ParseError{Feed: feed.Name, Err: errors.New("no XML elements in payload")}
	}
	return candidates, nil
}

// readEntryURL consumes tokens until the current <entry> closes, returning
// the text of the first <url> child.
func (a *MarkupAdapter) readEntryURL(decoder *xml.Decoder) (string, error) {
	var url string
	depth := 1
	inURL := false

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "url" && url == "" {
				inURL = true
			}
		case xml.EndElement:
			depth--
			inURL = false
		case xml.CharData:
			if inURL {
				url += string(t)
			}
		}
	}

	return strings.TrimSpace(url), nil
}
