package parser

import (
	"context"
	"fmt"
	"headlines/internal/domain"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
)

// FeedParser разбирает RSS- и Atom-документы в доменную модель.
// Записи с отсутствующей или нераспознанной датой не отбрасываются:
// решение о них принимает агрегатор.
type FeedParser struct {
	log *slog.Logger
}

// NewFeedParser создает парсер RSS- и Atom-лент.
func NewFeedParser(log *slog.Logger) *FeedParser {
	return &FeedParser{
		log: log.With(slog.String("component", "parser")),
	}
}

// Parse реализует метод интерфейса usecase.FeedParser.
func (p *FeedParser) Parse(ctx context.Context, reader io.Reader) (*domain.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsed, err := gofeed.NewParser().Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}
	feed := domain.Feed{
		Title: strings.TrimSpace(parsed.Title),
		Link:  strings.TrimSpace(parsed.Link),
		Items: make([]domain.Item, 0, len(parsed.Items)),
	}
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		item := domain.Item{
			Title:   entry.Title,
			Link:    itemLink(entry),
			RawDate: rawDate(entry),
		}
		item.Published = publishedAt(entry, item.RawDate)
		if item.Published == nil && item.RawDate != "" {
			p.log.Debug("could not parse item date",
				slog.String("date", item.RawDate),
				slog.String("item_title", item.Title),
			)
		}
		feed.Items = append(feed.Items, item)
	}
	return &feed, nil
}

func itemLink(entry *gofeed.Item) string {
	if link := strings.TrimSpace(entry.Link); link != "" {
		return link
	}
	for _, link := range entry.Links {
		if link = strings.TrimSpace(link); link != "" {
			return link
		}
	}
	return ""
}

func rawDate(entry *gofeed.Item) string {
	if s := strings.TrimSpace(entry.Published); s != "" {
		return s
	}
	return strings.TrimSpace(entry.Updated)
}

// publishedAt возвращает дату публикации: сначала разобранную gofeed,
// затем попытку dateparse для нестандартных форматов.
func publishedAt(entry *gofeed.Item, raw string) *time.Time {
	switch {
	case entry.PublishedParsed != nil:
		return entry.PublishedParsed
	case entry.UpdatedParsed != nil:
		return entry.UpdatedParsed
	case raw == "":
		return nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return nil
	}
	return &t
}

// ParseDate разбирает дату в произвольном распространенном формате.
// Даты без часового пояса считаются заданными в UTC.
func ParseDate(raw string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse date %q: %w", raw, err)
	}
	return t, nil
}
