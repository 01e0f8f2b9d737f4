package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPFetcher_Fetch_Success(t *testing.T) {
	var gotUA, gotAccept string
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response data"))
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger(), WithUserAgent("headlines-test/1.0"))

	reader, err := fetcher.Fetch(context.Background(), testServer.URL)

	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "test response data", string(data))
	assert.Equal(t, "headlines-test/1.0", gotUA)
	assert.Contains(t, gotAccept, "application/rss+xml")
}

func TestHTTPFetcher_Fetch_NotFound(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger())

	reader, err := fetcher.Fetch(context.Background(), testServer.URL)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 404")
	assert.Nil(t, reader)
}

func TestHTTPFetcher_InvalidURL(t *testing.T) {
	fetcher := NewHTTPFetcher(discardLogger())

	reader, err := fetcher.Fetch(context.Background(), "invalid://url")

	assert.Error(t, err)
	assert.Nil(t, reader)
}

func TestHTTPFetcher_ContextCancelled(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader, err := fetcher.Fetch(ctx, testServer.URL)

	assert.Error(t, err)
	assert.Nil(t, reader)
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer testServer.Close()
	defer close(release)
	fetcher := NewHTTPFetcher(discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	reader, err := fetcher.Fetch(ctx, testServer.URL)

	assert.Error(t, err)
	assert.Nil(t, reader)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHTTPFetcher_LimitsBody(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger(), WithMaxBytes(10))

	reader, err := fetcher.Fetch(context.Background(), testServer.URL)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Len(t, data, 10)
}
