package app

import (
	"headlines/internal/config"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Server.StaticDir = ""
	cfg.Logger.Level = "error"
	return cfg
}

func TestNew_WiresHealthAndHeadlineRoutes(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "127.0.0.1:0", a.server.Addr)
}

func TestNew_ContactRouteFollowsConfig(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		want    int
	}{
		{"disabled", false, http.StatusNotFound},
		{"enabled", true, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Contact.Enabled = tt.enabled
			cfg.Contact.Recipient = "owner@example.com"
			cfg.Contact.RecaptchaSecret = "secret"
			cfg.Contact.SMTP.Host = "smtp.example.com"
			cfg.Contact.SMTP.From = "site@example.com"
			a, err := New(cfg)
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			a.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contact", nil))

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
