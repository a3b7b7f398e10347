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
	"errors"
	"fmt"
)

// ErrUnsupportedEncoding is returned when no adapter exists for a feed's
// encoding.
var ErrUnsupportedEncoding = errors.New("unsupported feed encoding")

// ParseError indicates a feed payload could not be decoded. A cycle hitting
// a ParseError yields zero candidates; it never aborts the poller.
type ParseError struct {
	// Feed is the name of the feed whose payload failed to parse.
	Feed string

	// Err is the underlying decode error.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing feed %q: %v", e.Feed, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
