package usecase

import (
	"context"
	"headlines/internal/domain"
	"net/url"
	"strings"
)

const googleNewsHost = "news.google.com"

// IsRegional сообщает, поддерживает ли лента региональные варианты.
// Ленты Google News считаются региональными даже без флага в конфигурации.
func IsRegional(src domain.Source) bool {
	if src.Regional {
		return true
	}
	u, err := url.Parse(src.URL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), googleNewsHost)
}

// RegionalURL подставляет код страны в параметры gl и ceid URL ленты.
// Язык берется из существующего ceid, затем из префикса hl, иначе используется defaultLang.
// При пустом регионе или некорректном URL исходная строка возвращается без изменений.
func RegionalURL(raw, region, defaultLang string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	lang := defaultLang
	if _, ceidLang, ok := strings.Cut(q.Get("ceid"), ":"); ok && ceidLang != "" {
		lang = ceidLang
	} else if hl, _, _ := strings.Cut(q.Get("hl"), "-"); hl != "" {
		lang = hl
	}
	if lang == "" {
		lang = "en"
	}
	q.Set("gl", region)
	q.Set("ceid", region+":"+lang)
	u.RawQuery = q.Encode()
	return u.String()
}

// regionLookup - отложенный результат определения региона.
// Wait блокируется до ответа сервиса или истечения таймаута поиска,
// после чего возвращает найденный регион или регион по умолчанию.
type regionLookup struct {
	ctx      context.Context
	done     chan struct{}
	region   string
	fallback string
}

func fixedRegion(region string) *regionLookup {
	done := make(chan struct{})
	close(done)
	return &regionLookup{ctx: context.Background(), done: done, region: region, fallback: region}
}

func (r *regionLookup) Wait() string {
	select {
	case <-r.done:
		return r.region
	case <-r.ctx.Done():
		return r.fallback
	}
}
