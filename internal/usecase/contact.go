package usecase

import (
	"context"
	"errors"
	"fmt"
	"headlines/internal/domain"
	"html"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Ошибки Submit. Транспортный слой сопоставляет их с HTTP-статусами через errors.Is.
var (
	// ErrInvalidInput - пустые или некорректные поля формы.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCaptchaRejected - токен CAPTCHA отклонен или проверка не удалась.
	ErrCaptchaRejected = errors.New("captcha validation failed")
	// ErrDelivery - письмо не удалось отправить.
	ErrDelivery = errors.New("mail delivery failed")
)

const (
	maxNameLength    = 200
	maxEmailLength   = 254
	maxMessageLength = 10000
)

// ContactUseCase обрабатывает отправку контактной формы:
// проверка полей, проверка CAPTCHA и доставка письма.
type ContactUseCase struct {
	verifier CaptchaVerifier
	mailer   Mailer
	policy   *bluemonday.Policy
	log      *slog.Logger
}

// NewContactUseCase создает обработчик контактной формы.
func NewContactUseCase(verifier CaptchaVerifier, mailer Mailer, log *slog.Logger) *ContactUseCase {
	return &ContactUseCase{
		verifier: verifier,
		mailer:   mailer,
		policy:   bluemonday.StrictPolicy(),
		log:      log.With(slog.String("component", "contact")),
	}
}

// Submit проверяет и отправляет сообщение. Возвращаемые ошибки оборачивают
// ErrInvalidInput, ErrCaptchaRejected или ErrDelivery.
func (uc *ContactUseCase) Submit(ctx context.Context, msg domain.ContactMessage) error {
	const op = "usecase.Contact.Submit"
	log := uc.log.With(slog.String("op", op), slog.String("remote_ip", msg.RemoteIP))

	clean, err := uc.normalize(msg)
	if err != nil {
		log.Warn("Contact form rejected", slog.Any("error", err))
		return err
	}

	ok, err := uc.verifier.Verify(ctx, clean.CaptchaToken, clean.RemoteIP)
	if err != nil {
		log.Error("Captcha verification failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrCaptchaRejected, err)
	}
	if !ok {
		log.Warn("Captcha rejected")
		return ErrCaptchaRejected
	}

	if err := uc.mailer.Send(ctx, clean); err != nil {
		log.Error("Contact mail delivery failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func (uc *ContactUseCase) normalize(msg domain.ContactMessage) (domain.ContactMessage, error) {
	name := html.UnescapeString(uc.policy.Sanitize(msg.Name))
	name = strings.Join(strings.Fields(name), " ")
	email := strings.TrimSpace(msg.Email)
	message := strings.TrimSpace(msg.Message)

	switch {
	case name == "":
		return msg, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case utf8.RuneCountInString(name) > maxNameLength:
		return msg, fmt.Errorf("%w: name is too long", ErrInvalidInput)
	case len(email) > maxEmailLength || !validEmail(email):
		return msg, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	case message == "":
		return msg, fmt.Errorf("%w: message is required", ErrInvalidInput)
	case utf8.RuneCountInString(message) > maxMessageLength:
		return msg, fmt.Errorf("%w: message is too long", ErrInvalidInput)
	}
	return domain.ContactMessage{
		Name:         name,
		Email:        email,
		Message:      message,
		CaptchaToken: strings.TrimSpace(msg.CaptchaToken),
		RemoteIP:     msg.RemoteIP,
	}, nil
}

// validEmail принимает только голый адрес вида user@host, без отображаемого имени.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}
