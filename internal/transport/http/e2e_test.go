package http

import (
	"encoding/json"
	"fmt"
	"headlines/internal/adapter/fetcher"
	"headlines/internal/adapter/parser"
	"headlines/internal/domain"
	"headlines/internal/usecase"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rssItem(title string, published time.Time) string {
	return fmt.Sprintf(`<item><title>%s</title><link>https://example.com/%s</link><pubDate>%s</pubDate></item>`,
		title, title, published.Format(time.RFC1123Z))
}

func TestHeadlinesEndToEnd(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	feed := `<?xml version="1.0"?><rss version="2.0"><channel><title>Live</title>` +
		rssItem("A", now.Add(-48*time.Hour)) +
		rssItem("B", now.Add(-30*time.Hour)) +
		rssItem("C", now.Add(-1*time.Hour)) +
		`</channel></rss>`
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feed))
	}))
	defer live.Close()
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer dead.Close()

	log := discardLogger()
	agg := usecase.NewHeadlineAggregator(
		fetcher.NewHTTPFetcher(log),
		parser.NewFeedParser(log),
		nil,
		usecase.AggregatorConfig{
			Sources: []domain.Source{
				{Name: "live", URL: live.URL + "/rss"},
				{Name: "dead", URL: dead.URL + "/rss"},
			},
			PerFeedLimit:  5,
			MaxHeadlines:  15,
			FallbackLimit: 5,
			RecencyWindow: 30 * 24 * time.Hour,
			FetchTimeout:  2 * time.Second,
			GeoTimeout:    time.Second,
			DefaultRegion: "US",
			DefaultLang:   "en",
		},
		log,
	)
	router := NewServer(log, NewHandler(log, agg, nil, "FreeEd4Med"), "", false)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/headlines", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Headline
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "C", got[0].Title)
	assert.Equal(t, "B", got[1].Title)
	assert.Equal(t, "A", got[2].Title)
	assert.Equal(t, "https://example.com/C", got[0].Link)
	require.NotNil(t, got[0].Date)
	assert.True(t, got[0].Date.Equal(now.Add(-1*time.Hour)))
}

func TestHeadlinesEndToEnd_AllSourcesDown(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not a feed</html>"))
	}))
	defer dead.Close()

	log := discardLogger()
	agg := usecase.NewHeadlineAggregator(
		fetcher.NewHTTPFetcher(log),
		parser.NewFeedParser(log),
		nil,
		usecase.AggregatorConfig{
			Sources:       []domain.Source{{Name: "dead", URL: dead.URL}},
			PerFeedLimit:  5,
			MaxHeadlines:  15,
			FallbackLimit: 5,
			RecencyWindow: 30 * 24 * time.Hour,
			FetchTimeout:  time.Second,
			DefaultRegion: "US",
		},
		log,
	)
	router := NewServer(log, NewHandler(log, agg, nil, "FreeEd4Med"), "", false)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/headlines", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}
