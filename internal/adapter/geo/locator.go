package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrRateLimited возвращается, когда лимит запросов к сервису исчерпан.
	ErrRateLimited = errors.New("geolocation rate limit exceeded")
	// ErrNotRoutable возвращается для пустых, локальных и приватных адресов.
	ErrNotRoutable = errors.New("address is not publicly routable")
)

// Locator определяет страну клиента по IP через внешний сервис вида ip-api.com.
// Ответ сервиса: {"status":"success","countryCode":"DE"}.
type Locator struct {
	client   *http.Client
	endpoint string
	limiter  *rate.Limiter
	log      *slog.Logger
}

type lookupResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	CountryCode string `json:"countryCode"`
}

// NewLocator создает Locator с собственным таймаутом запроса и лимитом запросов в минуту.
func NewLocator(endpoint string, timeout time.Duration, perMinute int, log *slog.Logger) *Locator {
	if perMinute <= 0 {
		perMinute = 45
	}
	return &Locator{
		client:   &http.Client{Timeout: timeout},
		endpoint: strings.TrimRight(endpoint, "/"),
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		log:      log.With(slog.String("component", "geo")),
	}
}

// Country возвращает двухбуквенный код страны для адреса ip.
// Никогда не ждет освобождения лимита: при исчерпании сразу возвращает ErrRateLimited.
func (l *Locator) Country(ctx context.Context, ip string) (string, error) {
	const op = "geo.Country"
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil || !routable(addr) {
		return "", fmt.Errorf("%s: %q: %w", op, ip, ErrNotRoutable)
	}
	if !l.limiter.Allow() {
		return "", fmt.Errorf("%s: %w", op, ErrRateLimited)
	}
	url := fmt.Sprintf("%s/%s?fields=status,message,countryCode", l.endpoint, addr.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: unexpected status code: %d", op, resp.StatusCode)
	}
	var body lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err != nil {
		return "", fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	if body.Status != "" && body.Status != "success" {
		return "", fmt.Errorf("%s: lookup failed: %s", op, body.Message)
	}
	code := strings.ToUpper(strings.TrimSpace(body.CountryCode))
	if !validCountryCode(code) {
		return "", fmt.Errorf("%s: invalid country code %q", op, body.CountryCode)
	}
	l.log.Debug("Country resolved", slog.String("ip", addr.String()), slog.String("country", code))
	return code, nil
}

func routable(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsUnspecified() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsMulticast()
}

func validCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
