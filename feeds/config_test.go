package feeds

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusec/threatbase/core"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[[feeds]]
name = "urlhaus"
endpoint = "https://urlhaus-api.abuse.ch/v1/urls/recent/"
encoding = "json"
poll_interval = "15m"
active = true

[[feeds]]
name = "phishtank"
endpoint = "https://data.phishtank.com/data/online-valid.xml"
encoding = "xml"
poll_interval = "1h"
active = false
[feeds.auth_headers]
Authorization = "Bearer sesame"
`)

	descriptors, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	assert.Equal(t, "urlhaus", descriptors[0].Name)
	assert.Equal(t, core.FeedEncodingStructured, descriptors[0].Encoding)
	assert.Equal(t, 15*time.Minute, descriptors[0].PollInterval)
	assert.True(t, descriptors[0].Active)

	assert.Equal(t, core.FeedEncodingMarkup, descriptors[1].Encoding)
	assert.False(t, descriptors[1].Active)
	assert.Equal(t, "Bearer sesame", descriptors[1].AuthHeaders["Authorization"])
}

func TestLoadConfigInvalidInterval(t *testing.T) {
	path := writeConfig(t, `
[[feeds]]
name = "urlhaus"
endpoint = "https://feeds.example.com/urlhaus"
encoding = "json"
poll_interval = "soon"
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "invalid poll_interval")
}

func TestLoadConfigUnknownEncoding(t *testing.T) {
	path := writeConfig(t, `
[[feeds]]
name = "urlhaus"
endpoint = "https://feeds.example.com/urlhaus"
encoding = "yaml"
poll_interval = "5m"
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "unknown encoding")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigValidation(t *testing.T) {
	path := writeConfig(t, `
[[feeds]]
name = ""
endpoint = "https://feeds.example.com/anon"
encoding = "json"
poll_interval = "5m"
`)

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, core.ErrEmptyFeedName)
}

func TestRegisterConfigured(t *testing.T) {
	ctx := context.Background()
	registry, err := NewRegistry(ctx, newTestStore(t))
	require.NoError(t, err)

	path := writeConfig(t, `
[[feeds]]
name = "urlhaus"
endpoint = "https://feeds.example.com/urlhaus"
encoding = "json"
poll_interval = "15m"
active = true
`)

	require.NoError(t, RegisterConfigured(ctx, registry, path))
	require.NoError(t, registry.SetActive(ctx, "urlhaus", false))

	// re-registering the same file keeps the stored state
	require.NoError(t, RegisterConfigured(ctx, registry, path))
	snapshot, err := registry.Snapshot("urlhaus")
	require.NoError(t, err)
	assert.False(t, snapshot.Active)
}
