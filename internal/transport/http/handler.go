package http

import (
	"context"
	"encoding/json"
	"errors"
	"headlines/internal/domain"
	"headlines/internal/usecase"
	"html/template"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	contentTypeJSON  = "application/json; charset=UTF-8"
	contentTypeText  = "text/plain; charset=UTF-8"
	contentTypeHTML  = "text/html; charset=UTF-8"
	maxContactBody   = 64 << 10
	recaptchaFormKey = "g-recaptcha-response"
)

type headlineAggregator interface {
	Aggregate(ctx context.Context, clientIP string) []domain.Headline
}

type contactSubmitter interface {
	Submit(ctx context.Context, msg domain.ContactMessage) error
}

// Handler содержит HTTP-обработчики API заголовков и контактной формы.
type Handler struct {
	log        *slog.Logger
	aggregator headlineAggregator
	contact    contactSubmitter
	siteName   string
}

// NewHandler создает обработчики HTTP. contact может быть nil:
// тогда маршрут контактной формы не регистрируется.
func NewHandler(log *slog.Logger, aggregator headlineAggregator, contact contactSubmitter, siteName string) *Handler {
	return &Handler{
		log:        log,
		aggregator: aggregator,
		contact:    contact,
		siteName:   siteName,
	}
}

// getHeadlines - хендлер для /api/headlines. Принимает любой метод
// и всегда отвечает 200 с JSON-массивом, возможно пустым.
func (h *Handler) getHeadlines(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getHeadlines"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	headlines := h.aggregator.Aggregate(r.Context(), clientIP(r))
	if headlines == nil {
		headlines = []domain.Headline{}
	}
	log.Debug("headlines served", slog.Int("count", len(headlines)))
	w.Header().Set("Cache-Control", "no-store")
	respondWithJSON(w, http.StatusOK, headlines)
}

// submitContact - хендлер для POST /contact.
func (h *Handler) submitContact(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/submitContact"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	if r.Method != http.MethodPost {
		respondWithText(w, http.StatusForbidden, "Invalid request.")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)
	if err := r.ParseForm(); err != nil {
		log.Warn("invalid contact form body", slog.Any("error", err))
		respondWithText(w, http.StatusBadRequest, "Invalid input.")
		return
	}
	msg := domain.ContactMessage{
		Name:         r.PostForm.Get("name"),
		Email:        r.PostForm.Get("email"),
		Message:      r.PostForm.Get("message"),
		CaptchaToken: r.PostForm.Get(recaptchaFormKey),
		RemoteIP:     clientIP(r),
	}
	err := h.contact.Submit(r.Context(), msg)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", contentTypeHTML)
		w.WriteHeader(http.StatusOK)
		if err := thankYouPage.Execute(w, h.siteName); err != nil {
			log.Error("Failed to render thank-you page", slog.Any("error", err))
		}
	case errors.Is(err, usecase.ErrInvalidInput):
		respondWithText(w, http.StatusBadRequest, "Invalid input.")
	case errors.Is(err, usecase.ErrCaptchaRejected):
		respondWithText(w, http.StatusForbidden, "Captcha validation failed.")
	default:
		respondWithText(w, http.StatusInternalServerError, "Mail delivery failed.")
	}
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithText(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(code)
	w.Write([]byte(message))
}

// clientIP возвращает адрес клиента без порта. За доверенным прокси
// RemoteAddr уже заменен middleware.RealIP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

var thankYouPage = template.Must(template.New("thank-you").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Thank You – {{.}}</title>
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <link href="style.css" rel="stylesheet" />
</head>
<body>
  <h1>Thank you for reaching out to {{.}}!</h1>
  <p>Your message has been sent successfully. We appreciate your time and will get back to you as soon as possible.</p>
  <div class="nav-links">
    <a href="index.html">Home</a> |
    <a href="education.html">Healthcare Education</a> |
    <a href="public.html">Public Info</a> |
    <a href="donate.html">Donate</a> |
    <a href="about.html">About Us</a>
  </div>
</body>
</html>
`))
