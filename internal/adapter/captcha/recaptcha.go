package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Recaptcha проверяет токены Google reCAPTCHA через siteverify API.
type Recaptcha struct {
	client    *http.Client
	verifyURL string
	secret    string
	log       *slog.Logger
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// NewRecaptcha создает клиент проверки reCAPTCHA.
// timeout ограничивает каждый запрос к verifyURL.
func NewRecaptcha(verifyURL, secret string, timeout time.Duration, log *slog.Logger) *Recaptcha {
	return &Recaptcha{
		client:    &http.Client{Timeout: timeout},
		verifyURL: verifyURL,
		secret:    secret,
		log:       log.With(slog.String("component", "captcha")),
	}
}

// Verify возвращает true, если сервис подтвердил токен.
// Ошибка означает, что проверку выполнить не удалось.
func (r *Recaptcha) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	const op = "captcha.Verify"
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	form := url.Values{}
	form.Set("secret", r.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%s: unexpected status code: %d", op, resp.StatusCode)
	}
	var body verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return false, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	if !body.Success {
		r.log.Warn("Captcha rejected", slog.String("error_codes", strings.Join(body.ErrorCodes, ",")))
	}
	return body.Success, nil
}
