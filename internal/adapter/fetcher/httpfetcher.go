package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultMaxBytes = 5 << 20
	acceptFeeds     = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"
)

// HTTPFetcher загружает тела RSS/Atom-лент по HTTP.
// Таймаут отдельного запроса задается контекстом вызывающего кода,
// клиентский таймаут служит верхней границей для любых запросов.
type HTTPFetcher struct {
	client    *http.Client
	log       *slog.Logger
	userAgent string
	maxBytes  int64
}

// Option настраивает HTTPFetcher.
type Option func(*HTTPFetcher)

// WithClient подменяет HTTP-клиент.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithUserAgent задает заголовок User-Agent для запросов к лентам.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) { f.userAgent = ua }
}

// WithMaxBytes ограничивает размер читаемого тела ответа.
func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewHTTPFetcher создает новый экземпляр HTTPFetcher.
func NewHTTPFetcher(log *slog.Logger, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log.With(slog.String("component", "fetcher")),
		maxBytes: defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch выполняет GET-запрос к ленте и возвращает тело ответа, ограниченное maxBytes.
// Тело должно быть закрыто вызывающим кодом. Любой статус, кроме 200, считается ошибкой.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	log := f.log.With(slog.String("url", url))
	log.Debug("Fetching URL")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for url %s: %w", url, err)
	}
	req.Header.Set("Accept", acceptFeeds)
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d for url %s", resp.StatusCode, url)
	}
	log.Debug("Successfully fetched URL", slog.Int64("content_length", resp.ContentLength))
	return &limitedBody{Reader: io.LimitReader(resp.Body, f.maxBytes), closer: resp.Body}, nil
}

type limitedBody struct {
	io.Reader
	closer io.Closer
}

func (b *limitedBody) Close() error { return b.closer.Close() }
