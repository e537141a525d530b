package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/config"
	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(config.FeedConfig{
		URL:               srv.URL + "/spages/NAVAll.txt",
		Timeout:           time.Second,
		RequestsPerMinute: 6000,
	}, logger.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientFetch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spages/NAVAll.txt", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(_doc))
	})

	doc, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, slices.Collect(Parse(doc)), 3)
}

func TestClientFetchUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
