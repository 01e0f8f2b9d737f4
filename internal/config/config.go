package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Переменные окружения, которые перекрывают значения из файла конфигурации.
const (
	EnvServerAddress   = "HEADLINES_SERVER_ADDRESS"
	EnvRecaptchaSecret = "HEADLINES_RECAPTCHA_SECRET"
	EnvSMTPPassword    = "HEADLINES_SMTP_PASSWORD"
)

// Config представляет основную конфигурацию сервиса заголовков.
// Содержит настройки сервера, логгера, агрегатора, геолокации и контактной формы.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Logger     LoggerConfig     `json:"logger"`
	Aggregator AggregatorConfig `json:"aggregator"`
	Geo        GeoConfig        `json:"geo"`
	Contact    ContactConfig    `json:"contact"`
}

// ServerConfig содержит настройки HTTP-сервера.
// StaticDir - каталог со статическими страницами сайта.
// TrustProxyHeaders включает разбор X-Forwarded-For и X-Real-IP. Включать только за
// обратным прокси, который перезаписывает эти заголовки: иначе клиент сам выбирает
// свой IP для геолокации и для проверки reCAPTCHA.
type ServerConfig struct {
	Address           string `json:"address"`
	StaticDir         string `json:"static_dir"`
	TrustProxyHeaders bool   `json:"trust_proxy_headers"`
}

// LoggerConfig содержит настройки системы логирования.
// Пустые имена файлов означают вывод в stdout и stderr.
type LoggerConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	ErrorFile string `json:"error_file"`
}

// FeedURL представляет конфигурацию отдельной RSS-ленты.
type FeedURL struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Regional bool   `json:"regional"`
}

// AggregatorConfig содержит лимиты и окна агрегатора заголовков.
type AggregatorConfig struct {
	FeedURLs      []FeedURL `json:"feed_urls"`
	PerFeedLimit  int       `json:"per_feed_limit"`
	MaxHeadlines  int       `json:"max_headlines"`
	FallbackLimit int       `json:"fallback_limit"`
	RecencyWindow string    `json:"recency_window"`
	FetchTimeout  string    `json:"fetch_timeout"`
	MaxFeedBytes  int64     `json:"max_feed_bytes"`
	UserAgent     string    `json:"user_agent"`
}

// GeoConfig содержит настройки определения страны клиента по IP.
type GeoConfig struct {
	Enabled       bool   `json:"enabled"`
	Endpoint      string `json:"endpoint"`
	Timeout       string `json:"timeout"`
	DefaultRegion string `json:"default_region"`
	RatePerMinute int    `json:"rate_per_minute"`
	DefaultLang   string `json:"default_lang"`
}

// ContactConfig содержит настройки контактной формы: reCAPTCHA и SMTP.
type ContactConfig struct {
	Enabled         bool       `json:"enabled"`
	SiteName        string     `json:"site_name"`
	Recipient       string     `json:"recipient"`
	RecaptchaSecret string     `json:"recaptcha_secret"`
	RecaptchaURL    string     `json:"recaptcha_url"`
	VerifyTimeout   string     `json:"verify_timeout"`
	SMTP            SMTPConfig `json:"smtp"`
}

// SMTPConfig содержит параметры почтового сервера для отправки сообщений.
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// Addr возвращает адрес SMTP-сервера в формате host:port.
func (c *SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load загружает конфигурацию из JSON-файла по указанному пути и применяет
// переопределения из .env и переменных окружения.
// Отсутствующий файл конфигурации не является ошибкой: используются значения по умолчанию.
func Load(configPath string) (*Config, error) {
	cfg := New()
	fileData, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	default:
		if err := json.Unmarshal(fileData, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON from file %s: %w", configPath, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvServerAddress); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv(EnvRecaptchaSecret); v != "" {
		c.Contact.RecaptchaSecret = v
	}
	if v := os.Getenv(EnvSMTPPassword); v != "" {
		c.Contact.SMTP.Password = v
	}
}

// New создает новый экземпляр Config со значениями по умолчанию.
// Список лент соответствует исходному сайту: два поиска Google News и ScienceDaily.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address:   ":8080",
			StaticDir: "web/static",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Aggregator: AggregatorConfig{
			FeedURLs: []FeedURL{
				{
					Name:     "Google News: AI Music",
					URL:      "https://news.google.com/rss/search?q=AI+Music+Industry+OR+Generative+Audio&hl=en-US&gl=US&ceid=US:en",
					Regional: true,
				},
				{
					Name:     "Google News: Music Medicine",
					URL:      "https://news.google.com/rss/search?q=Music+Therapy+OR+Music+Medicine+OR+Clinical+Music&hl=en-US&gl=US&ceid=US:en",
					Regional: true,
				},
				{
					Name: "ScienceDaily: Music",
					URL:  "https://www.sciencedaily.com/rss/mind_brain/music.xml",
				},
			},
			PerFeedLimit:  5,
			MaxHeadlines:  15,
			FallbackLimit: 5,
			RecencyWindow: "720h",
			FetchTimeout:  "3s",
			MaxFeedBytes:  5 << 20,
			UserAgent:     "headlines/1.0 (+https://freeed4med.org)",
		},
		Geo: GeoConfig{
			Enabled:       true,
			Endpoint:      "http://ip-api.com/json",
			Timeout:       "1s",
			DefaultRegion: "US",
			RatePerMinute: 45,
			DefaultLang:   "en",
		},
		Contact: ContactConfig{
			Enabled:       false,
			SiteName:      "FreeEd4Med",
			RecaptchaURL:  "https://www.google.com/recaptcha/api/siteverify",
			VerifyTimeout: "5s",
			SMTP: SMTPConfig{
				Port: 587,
			},
		},
	}
}

// Validate проверяет корректность конфигурации.
// Возвращает ошибку с описанием первой найденной проблемы.
func (c *Config) Validate() error {
	a := c.Aggregator
	if len(a.FeedURLs) == 0 {
		return fmt.Errorf("aggregator.feed_urls must not be empty")
	}
	for _, feed := range a.FeedURLs {
		u, err := url.ParseRequestURI(feed.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid url in aggregator.feed_urls: %s", feed.URL)
		}
		if feed.Name == "" {
			return fmt.Errorf("feed name cannot be empty for url: %s", feed.URL)
		}
	}
	if a.PerFeedLimit <= 0 {
		return fmt.Errorf("aggregator.per_feed_limit must be a positive number")
	}
	if a.MaxHeadlines <= 0 {
		return fmt.Errorf("aggregator.max_headlines must be a positive number")
	}
	if a.FallbackLimit <= 0 || a.FallbackLimit > a.MaxHeadlines {
		return fmt.Errorf("aggregator.fallback_limit must be between 1 and max_headlines")
	}
	if a.MaxFeedBytes <= 0 {
		return fmt.Errorf("aggregator.max_feed_bytes must be a positive number")
	}
	if err := positiveDuration("aggregator.recency_window", a.RecencyWindow); err != nil {
		return err
	}
	if err := positiveDuration("aggregator.fetch_timeout", a.FetchTimeout); err != nil {
		return err
	}
	if c.Geo.Enabled {
		if _, err := url.ParseRequestURI(c.Geo.Endpoint); err != nil {
			return fmt.Errorf("invalid geo.endpoint: %s", c.Geo.Endpoint)
		}
		if err := positiveDuration("geo.timeout", c.Geo.Timeout); err != nil {
			return err
		}
		if c.Geo.RatePerMinute <= 0 {
			return fmt.Errorf("geo.rate_per_minute must be a positive number")
		}
	}
	if len(c.Geo.DefaultRegion) != 2 {
		return fmt.Errorf("geo.default_region must be a two-letter country code")
	}
	if c.Contact.Enabled {
		if c.Contact.Recipient == "" {
			return fmt.Errorf("contact.recipient is not set")
		}
		if c.Contact.RecaptchaSecret == "" {
			return fmt.Errorf("contact.recaptcha_secret is not set")
		}
		if c.Contact.SMTP.Host == "" || c.Contact.SMTP.From == "" {
			return fmt.Errorf("contact.smtp host and from must be set")
		}
		if err := positiveDuration("contact.verify_timeout", c.Contact.VerifyTimeout); err != nil {
			return err
		}
	}
	return nil
}

// Duration разбирает строку длительности, которая уже прошла Validate.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func positiveDuration(field, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}
