package usecase

import (
	"context"
	"fmt"
	"headlines/internal/domain"
	"html"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"
)

// AggregatorConfig содержит список источников и лимиты агрегатора.
// Значения должны быть проверены заранее (config.Validate).
type AggregatorConfig struct {
	Sources       []domain.Source
	PerFeedLimit  int
	MaxHeadlines  int
	FallbackLimit int
	RecencyWindow time.Duration
	FetchTimeout  time.Duration
	GeoTimeout    time.Duration
	DefaultRegion string
	DefaultLang   string
}

// HeadlineAggregator собирает заголовки из всех источников при каждом запросе.
// Ничего не кэширует: каждый вызов Aggregate заново загружает ленты.
type HeadlineAggregator struct {
	fetcher  FeedFetcher
	parser   FeedParser
	resolver RegionResolver
	cfg      AggregatorConfig
	policy   *bluemonday.Policy
	log      *slog.Logger
	now      func() time.Time
}

// NewHeadlineAggregator создает агрегатор. resolver может быть nil:
// тогда региональные ленты всегда получают регион по умолчанию.
func NewHeadlineAggregator(
	fetcher FeedFetcher,
	parser FeedParser,
	resolver RegionResolver,
	cfg AggregatorConfig,
	log *slog.Logger,
) *HeadlineAggregator {
	return &HeadlineAggregator{
		fetcher:  fetcher,
		parser:   parser,
		resolver: resolver,
		cfg:      cfg,
		policy:   bluemonday.StrictPolicy(),
		log:      log.With(slog.String("component", "aggregator")),
		now:      time.Now,
	}
}

// Aggregate загружает все ленты и возвращает объединенный список заголовков,
// отсортированный от новых к старым. Никогда не возвращает ошибку:
// при полном отказе источников результатом будет пустой (не nil) срез.
func (a *HeadlineAggregator) Aggregate(ctx context.Context, clientIP string) []domain.Headline {
	const op = "usecase.Aggregate"
	start := time.Now()
	region, stop := a.lookupRegion(ctx, clientIP)
	defer stop()

	outcomes := a.fetchAll(ctx, region)
	headlines, stats := a.merge(outcomes, a.now())

	failed := 0
	for _, o := range outcomes {
		if !o.OK() {
			failed++
		}
	}
	a.log.Info("Aggregation completed",
		slog.String("op", op),
		slog.Int("feeds_ok", len(outcomes)-failed),
		slog.Int("feeds_failed", failed),
		slog.Int("primary", stats.primary),
		slog.Int("fallback", stats.fallback),
		slog.Bool("fallback_used", stats.fallbackUsed),
		slog.Int("returned", len(headlines)),
		slog.Duration("duration", time.Since(start)),
	)
	return headlines
}

// FetchAll загружает и разбирает все источники для указанного региона.
// Результаты возвращаются в порядке источников в конфигурации.
func (a *HeadlineAggregator) FetchAll(ctx context.Context, region string) []domain.FeedOutcome {
	if region == "" {
		region = a.cfg.DefaultRegion
	}
	return a.fetchAll(ctx, fixedRegion(region))
}

// Merge нормализует записи успешных источников, применяет фильтр давности,
// сортировку, удаление дублей и ограничения размера.
func (a *HeadlineAggregator) Merge(outcomes []domain.FeedOutcome, now time.Time) []domain.Headline {
	headlines, _ := a.merge(outcomes, now)
	return headlines
}

func (a *HeadlineAggregator) lookupRegion(ctx context.Context, clientIP string) (*regionLookup, func()) {
	if a.resolver == nil || !a.hasRegionalSources() {
		return fixedRegion(a.cfg.DefaultRegion), func() {}
	}
	lookupCtx, cancel := context.WithTimeout(ctx, a.cfg.GeoTimeout)
	r := &regionLookup{
		ctx:      lookupCtx,
		done:     make(chan struct{}),
		region:   a.cfg.DefaultRegion,
		fallback: a.cfg.DefaultRegion,
	}
	go func() {
		defer close(r.done)
		code, err := a.resolver.Country(lookupCtx, clientIP)
		if err != nil {
			a.log.Debug("Region lookup failed, using default",
				slog.String("client_ip", clientIP),
				slog.String("region", a.cfg.DefaultRegion),
				slog.Any("error", err),
			)
			return
		}
		r.region = code
	}()
	return r, cancel
}

func (a *HeadlineAggregator) hasRegionalSources() bool {
	for _, src := range a.cfg.Sources {
		if IsRegional(src) {
			return true
		}
	}
	return false
}

// fetchAll запускает загрузку всех источников параллельно и ждет завершения каждой.
// Ошибка одного источника не влияет на остальные.
func (a *HeadlineAggregator) fetchAll(ctx context.Context, region *regionLookup) []domain.FeedOutcome {
	outcomes := make([]domain.FeedOutcome, len(a.cfg.Sources))
	var g errgroup.Group
	for i, src := range a.cfg.Sources {
		g.Go(func() error {
			outcomes[i] = a.fetchOne(ctx, src, region)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (a *HeadlineAggregator) fetchOne(ctx context.Context, src domain.Source, region *regionLookup) (outcome domain.FeedOutcome) {
	url := src.URL
	if IsRegional(src) {
		url = RegionalURL(src.URL, region.Wait(), a.cfg.DefaultLang)
	}
	outcome = domain.FeedOutcome{Source: src, URL: url}
	log := a.log.With(
		slog.String("feed", feedName(src)),
		slog.String("url", url),
	)
	start := time.Now()
	defer func() { outcome.Duration = time.Since(start) }()

	fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
	defer cancel()

	reader, err := a.fetcher.Fetch(fetchCtx, url)
	if err != nil {
		log.Warn("Feed fetch failed", slog.String("stage", "fetch"), slog.Any("error", err))
		outcome.Err = fmt.Errorf("fetch failed for %s: %w", feedName(src), err)
		return outcome
	}
	defer reader.Close()

	feed, err := a.parser.Parse(fetchCtx, reader)
	if err != nil {
		log.Warn("Feed parsing failed", slog.String("stage", "parse"), slog.Any("error", err))
		outcome.Err = fmt.Errorf("parse failed for %s: %w", feedName(src), err)
		return outcome
	}
	items := feed.Items
	if len(items) > a.cfg.PerFeedLimit {
		items = items[:a.cfg.PerFeedLimit]
	}
	outcome.Items = items
	log.Debug("Feed processed",
		slog.Int("items_found", len(feed.Items)),
		slog.Int("items_taken", len(items)),
	)
	return outcome
}

type mergeStats struct {
	primary      int
	fallback     int
	fallbackUsed bool
}

func (a *HeadlineAggregator) merge(outcomes []domain.FeedOutcome, now time.Time) ([]domain.Headline, mergeStats) {
	var primary, fallback []domain.Headline
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		for _, item := range o.Items {
			h := domain.NewHeadline(a.cleanTitle(item.Title), strings.TrimSpace(item.Link), item.Published)
			if h.Dated() && now.Sub(*h.Date) > a.cfg.RecencyWindow {
				fallback = append(fallback, h)
				continue
			}
			primary = append(primary, h)
		}
	}
	primary = dedupe(sortNewestFirst(primary))
	fallback = dedupe(sortNewestFirst(fallback))
	stats := mergeStats{primary: len(primary), fallback: len(fallback)}

	result := truncate(primary, a.cfg.MaxHeadlines)
	if len(primary) == 0 {
		stats.fallbackUsed = len(fallback) > 0
		result = truncate(fallback, min(a.cfg.FallbackLimit, a.cfg.MaxHeadlines))
	}
	if result == nil {
		result = []domain.Headline{}
	}
	return result, stats
}

// cleanTitle превращает заголовок в обычный текст: удаляет разметку,
// декодирует HTML-сущности и схлопывает пробелы.
func (a *HeadlineAggregator) cleanTitle(title string) string {
	text := html.UnescapeString(a.policy.Sanitize(title))
	return strings.Join(strings.Fields(text), " ")
}

// sortNewestFirst сортирует заголовки по убыванию даты.
// Заголовки без даты идут после всех датированных и сохраняют исходный порядок.
func sortNewestFirst(hs []domain.Headline) []domain.Headline {
	sort.SliceStable(hs, func(i, j int) bool {
		if hs[i].Dated() != hs[j].Dated() {
			return hs[i].Dated()
		}
		if !hs[i].Dated() {
			return false
		}
		return hs[i].Date.After(*hs[j].Date)
	})
	return hs
}

// dedupe оставляет первое вхождение каждой ссылки. Пустые ссылки не схлопываются.
func dedupe(hs []domain.Headline) []domain.Headline {
	seen := make(map[string]struct{}, len(hs))
	out := hs[:0]
	for _, h := range hs {
		if h.Link != "" {
			if _, ok := seen[h.Link]; ok {
				continue
			}
			seen[h.Link] = struct{}{}
		}
		out = append(out, h)
	}
	return out
}

func truncate(hs []domain.Headline, limit int) []domain.Headline {
	if len(hs) > limit {
		return hs[:limit]
	}
	return hs
}

// feedName возвращает читаемое имя источника.
// Если имя не задано, используется домен из URL.
func feedName(src domain.Source) string {
	if src.Name != "" {
		return src.Name
	}
	parts := strings.Split(src.URL, "/")
	if len(parts) >= 3 {
		return strings.TrimPrefix(parts[2], "www.")
	}
	return "Unknown"
}
