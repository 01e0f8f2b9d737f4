package app

import (
	"context"
	"errors"
	"fmt"
	"headlines/internal/adapter/captcha"
	"headlines/internal/adapter/fetcher"
	"headlines/internal/adapter/geo"
	"headlines/internal/adapter/mailer"
	"headlines/internal/adapter/parser"
	"headlines/internal/config"
	"headlines/internal/domain"
	"headlines/internal/logger"
	server "headlines/internal/transport/http"
	"headlines/internal/usecase"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// App координирует работу HTTP-сервера, агрегатора заголовков и контактной формы.
// Обеспечивает graceful startup и shutdown.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	server   *http.Server
	stopChan chan os.Signal
	wg       sync.WaitGroup
}

// New создает и инициализирует приложение: настраивает логгер,
// собирает адаптеры и use case'ы и регистрирует маршруты.
func New(cfg *config.Config) (*App, error) {
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(appLogger)

	aggregator := newAggregator(cfg, appLogger)

	// Без контактной формы обработчик получает nil-интерфейс, и маршрут /contact не регистрируется.
	handler := server.NewHandler(appLogger, aggregator, nil, cfg.Contact.SiteName)
	if cfg.Contact.Enabled {
		handler = server.NewHandler(appLogger, aggregator, newContact(cfg, appLogger), cfg.Contact.SiteName)
	}

	router := server.NewServer(appLogger, handler, cfg.Server.StaticDir, cfg.Server.TrustProxyHeaders)
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &App{
		config:   cfg,
		logger:   appLogger,
		server:   srv,
		stopChan: make(chan os.Signal, 1),
	}, nil
}

func newAggregator(cfg *config.Config, log *slog.Logger) *usecase.HeadlineAggregator {
	a := cfg.Aggregator
	sources := make([]domain.Source, 0, len(a.FeedURLs))
	for _, feed := range a.FeedURLs {
		sources = append(sources, domain.Source{Name: feed.Name, URL: feed.URL, Regional: feed.Regional})
	}
	httpFetcher := fetcher.NewHTTPFetcher(log,
		fetcher.WithUserAgent(a.UserAgent),
		fetcher.WithMaxBytes(a.MaxFeedBytes),
	)
	feedParser := parser.NewFeedParser(log)

	var resolver usecase.RegionResolver
	geoTimeout := time.Second
	if cfg.Geo.Enabled {
		geoTimeout = config.Duration(cfg.Geo.Timeout)
		resolver = geo.NewLocator(cfg.Geo.Endpoint, geoTimeout, cfg.Geo.RatePerMinute, log)
	}
	return usecase.NewHeadlineAggregator(httpFetcher, feedParser, resolver, usecase.AggregatorConfig{
		Sources:       sources,
		PerFeedLimit:  a.PerFeedLimit,
		MaxHeadlines:  a.MaxHeadlines,
		FallbackLimit: a.FallbackLimit,
		RecencyWindow: config.Duration(a.RecencyWindow),
		FetchTimeout:  config.Duration(a.FetchTimeout),
		GeoTimeout:    geoTimeout,
		DefaultRegion: cfg.Geo.DefaultRegion,
		DefaultLang:   cfg.Geo.DefaultLang,
	}, log)
}

func newContact(cfg *config.Config, log *slog.Logger) *usecase.ContactUseCase {
	c := cfg.Contact
	verifier := captcha.NewRecaptcha(c.RecaptchaURL, c.RecaptchaSecret, config.Duration(c.VerifyTimeout), log)
	sender := mailer.NewSMTPSender(c.SMTP.Addr(), c.SMTP.Host, c.SMTP.Username, c.SMTP.Password)
	m := mailer.New(sender, c.SiteName, c.SMTP.From, c.Recipient, log)
	return usecase.NewContactUseCase(verifier, m, log)
}

// Run запускает HTTP-сервер и блокируется до получения сигнала завершения.
func (a *App) Run() error {
	a.logger.Info("Starting headlines service",
		slog.String("component", "app"),
		slog.Int("feed_count", len(a.config.Aggregator.FeedURLs)),
		slog.Bool("geo_enabled", a.config.Geo.Enabled),
		slog.Bool("contact_enabled", a.config.Contact.Enabled),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", listener.Addr().String()),
	)
	serveErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", slog.String("component", "server"), slog.Any("error", err))
			serveErr <- err
		}
	}()
	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)
	select {
	case sig := <-a.stopChan:
		a.logger.Info("Shutdown signal received",
			slog.String("component", "app"),
			slog.String("signal", sig.String()),
		)
	case err := <-serveErr:
		a.Shutdown()
		return fmt.Errorf("http server: %w", err)
	}
	return a.Shutdown()
}

// Shutdown завершает HTTP-сервер с таймаутом 10 секунд и ждет завершения горутин.
func (a *App) Shutdown() error {
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.String("component", "server"), slog.Any("error", err))
	}
	a.wg.Wait()
	a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
	return err
}
