package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusec/threatbase/core"
)

func TestServiceStartStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("badsite.tk\n"))
	}))
	defer server.Close()

	submitter := &stubSubmitter{}
	poller, registry := newTestPoller(t, submitter)

	for _, name := range []string{"alpha", "beta"} {
		feed := sampleDescriptor(name)
		feed.Endpoint = server.URL
		feed.Encoding = core.FeedEncodingPlainText
		feed.PollInterval = 10 * time.Millisecond
		require.NoError(t, registry.Add(context.Background(), feed))
	}
	dormant := sampleDescriptor("dormant")
	dormant.Active = false
	require.NoError(t, registry.Add(context.Background(), dormant))

	service, err := NewService(registry, poller, nil)
	require.NoError(t, err)

	service.Start(context.Background())
	require.Eventually(t, func() bool {
		return submitter.callCount() >= 4
	}, 5*time.Second, 5*time.Millisecond)

	service.Stop()
	settled := submitter.callCount()

	// no cycles run once Stop has returned
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, submitter.callCount())
}

func TestServiceStopWithoutStart(t *testing.T) {
	submitter := &stubSubmitter{}
	poller, registry := newTestPoller(t, submitter)

	service, err := NewService(registry, poller, nil)
	require.NoError(t, err)
	service.Stop()
}

func TestNewServiceRequiredDependencies(t *testing.T) {
	submitter := &stubSubmitter{}
	poller, registry := newTestPoller(t, submitter)

	_, err := NewService(nil, poller, nil)
	assert.ErrorIs(t, err, ErrRegistryRequired)

	_, err = NewService(registry, nil, nil)
	assert.ErrorIs(t, err, ErrSubmitterRequired)
}
