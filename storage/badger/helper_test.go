package badger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestBackend opens an in-memory backend that is closed when the test
// finishes.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()

	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, backend.Close())
	})
	return backend
}
