package usecase

import (
	"context"
	"headlines/internal/domain"
	"io"
)

// FeedFetcher определяет интерфейс для загрузки данных RSS-лент из внешних источников.
// Возвращает io.ReadCloser, который должен быть закрыт после использования.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// FeedParser определяет интерфейс для разбора RSS/Atom-данных в доменную модель.
type FeedParser interface {
	Parse(ctx context.Context, reader io.Reader) (*domain.Feed, error)
}

// RegionResolver определяет страну клиента по IP-адресу.
// Реализация может завершиться ошибкой в любой момент: агрегатор тогда
// использует регион по умолчанию.
type RegionResolver interface {
	Country(ctx context.Context, ip string) (string, error)
}

// CaptchaVerifier проверяет токен CAPTCHA контактной формы.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// Mailer доставляет сообщение контактной формы получателю сайта.
type Mailer interface {
	Send(ctx context.Context, msg domain.ContactMessage) error
}
