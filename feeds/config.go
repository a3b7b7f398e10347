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
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/corvusec/threatbase/core"
)

// feedConfigFile is the on-disk shape of a feeds TOML file:
//
//	[[feeds]]
//	name = "urlhaus"
//	endpoint = "https://urlhaus-api.abuse.ch/v1/urls/recent/"
//	encoding = "json"
//	poll_interval = "15m"
//	active = true
//	[feeds.auth_headers]
//	Authorization = "Bearer ..."
type feedConfigFile struct {
	Feeds []feedConfigEntry `toml:"feeds"`
}

type feedConfigEntry struct {
	Name         string            `toml:"name"`
	Endpoint     string            `toml:"endpoint"`
	Encoding     string            `toml:"encoding"`
	PollInterval string            `toml:"poll_interval"`
	Active       bool              `toml:"active"`
	AuthHeaders  map[string]string `toml:"auth_headers"`
}

// LoadConfig parses a feeds TOML file into descriptors. It does not touch
// the registry; pair it with RegisterConfigured.
func LoadConfig(path string) ([]*core.FeedDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feeds config: %w", err)
	}

	var file feedConfigFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing feeds config %q: %w", path, err)
	}

	descriptors := make([]*core.FeedDescriptor, 0, len(file.Feeds))
	for _, entry := range file.Feeds {
		interval, err := time.ParseDuration(entry.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("feed %q: invalid poll_interval %q: %w", entry.Name, entry.PollInterval, err)
		}

		encoding := core.ParseFeedEncoding(entry.Encoding)
		if encoding == core.FeedEncodingUnknown {
			return nil, fmt.Errorf("feed %q: unknown encoding %q", entry.Name, entry.Encoding)
		}

		feed := &core.FeedDescriptor{
			Name:         entry.Name,
			Endpoint:     entry.Endpoint,
			Encoding:     encoding,
			PollInterval: interval,
			Active:       entry.Active,
			AuthHeaders:  entry.AuthHeaders,
		}
		if err := core.ValidateFeedDescriptor(feed); err != nil {
			return nil, err
		}
		descriptors = append(descriptors, feed)
	}
	return descriptors, nil
}

// RegisterConfigured adds every descriptor from a config file to the
// registry. Feeds already registered keep their stored state, so a restart
// with the same config file is safe.
func RegisterConfigured(ctx context.Context, registry *Registry, path string) error {
	descriptors, err := LoadConfig(path)
	if err != nil {
		return err
	}
	for _, feed := range descriptors {
		if err := registry.Add(ctx, feed); err != nil {
			if errors.Is(err, ErrDuplicateFeed) {
				continue
			}
			return err
		}
	}
	return nil
}
