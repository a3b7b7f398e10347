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


package feeds

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateFeed is returned when adding a feed whose name is already
	// registered.
	ErrDuplicateFeed = errors.New("feed already registered")

	// ErrFeedNotFound is returned when a named feed is not registered.
	ErrFeedNotFound = errors.New("feed not found")

	// ErrFeedRepositoryRequired is returned when a feed repository is not
	// provided.
	ErrFeedRepositoryRequired = errors.New("feed repository required")

	// ErrRegistryRequired is returned when a registry is not provided.
	ErrRegistryRequired = errors.New("registry required")

	// ErrSubmitterRequired is returned when a batch submitter is not
	// provided.
	ErrSubmitterRequired = errors.New("batch submitter required")
)

// TransportError indicates a feed fetch failed, either on the wire or with a
// non-success HTTP status. The poll cycle that hit it is skipped; the next
// one starts after a full interval.
type TransportError struct {
	// Feed is the name of the feed whose fetch failed.
	Feed string

	// StatusCode is the HTTP status, or 0 for wire-level failures.
	StatusCode int

	// Err is the underlying transport error, nil for status failures.
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching feed %q: %v", e.Feed, e.Err)
	}
	return fmt.Sprintf("fetching feed %q: unexpected status %d", e.Feed, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
