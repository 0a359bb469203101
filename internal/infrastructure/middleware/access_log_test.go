package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggedRouter(buf *bytes.Buffer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(NewAccessLogger(zerolog.New(buf), "secret", "webhook_secret"))
	r.Use(chimiddleware.Recoverer)
	r.Post("/webhooks/{provider}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})
	return r
}

func TestAccessLogger_RedactsSecrets(t *testing.T) {
	tests := []struct {
		name   string
		target string
		secret string
	}{
		{"secret", "/webhooks/shopify?secret=shpss_topsecretvalue&page=2", "shpss_topsecretvalue"},
		{"webhook_secret", "/webhooks/shopify?webhook_secret=whsec_alsosecret&page=2", "whsec_alsosecret"},
		{"mixed case key", "/webhooks/shopify?Secret=shpss_uppercase&page=2", "shpss_uppercase"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := httptest.NewRecorder()
			newLoggedRouter(&buf).ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.target, nil))
			require.Equal(t, http.StatusUnauthorized, w.Code)

			assert.NotContains(t, buf.String(), tt.secret)

			var line map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, "http", line["component"])
			assert.Equal(t, "/webhooks/shopify", line["path"])
			assert.Contains(t, line["query"], "=redacted")
			assert.Contains(t, line["query"], "page=2")
			assert.Equal(t, float64(http.StatusUnauthorized), line["status"])
			assert.NotEmpty(t, line["request_id"])
		})
	}
}

func TestAccessLogger_Panic(t *testing.T) {
	var buf bytes.Buffer
	w := httptest.NewRecorder()
	newLoggedRouter(&buf).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "Request panicked")
	assert.Contains(t, buf.String(), "kaboom")
}

func TestAccessLogFormatter_RedactQuery(t *testing.T) {
	f := NewAccessLogFormatter(zerolog.Nop(), "secret")

	assert.Equal(t, "", f.RedactQuery(url.Values{}))
	assert.Equal(t, "page=1&secret=redacted&secret=redacted", f.RedactQuery(url.Values{
		"secret": {"a", "b"},
		"page":   {"1"},
	}))
}
