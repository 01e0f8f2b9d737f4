package domain

import (
	"time"
)

// Source описывает одну настроенную RSS/Atom-ленту.
// Regional означает, что URL ленты поддерживает региональные варианты
// и может быть дополнен кодом страны перед загрузкой.
type Source struct {
	Name     string
	URL      string
	Regional bool
}

// Item представляет отдельную запись ленты в том виде, в каком она пришла от источника.
// Published равен nil, если дата отсутствует или не распознана.
type Item struct {
	Title     string
	Link      string
	RawDate   string
	Published *time.Time
}

// Feed представляет разобранную ленту с метаданными и списком записей.
type Feed struct {
	Title string
	Link  string
	Items []Item
}

// FeedOutcome - результат обработки одного источника: либо записи, либо причина сбоя.
type FeedOutcome struct {
	Source   Source
	URL      string
	Items    []Item
	Err      error
	Duration time.Duration
}

// OK сообщает, была ли лента успешно загружена и разобрана.
func (o FeedOutcome) OK() bool { return o.Err == nil }
