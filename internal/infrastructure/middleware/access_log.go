package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const redacted = "redacted"

// AccessLogFormatter writes one zerolog line per request. Query parameters listed in
// redact are logged with their value replaced, since providers may pass shared secrets there.
type AccessLogFormatter struct {
	logger zerolog.Logger
	redact map[string]struct{}
}

// NewAccessLogger returns chi request logging middleware backed by logger
func NewAccessLogger(logger zerolog.Logger, redactParams ...string) func(http.Handler) http.Handler {
	return chimiddleware.RequestLogger(NewAccessLogFormatter(logger, redactParams...))
}

// NewAccessLogFormatter creates the formatter; parameter names match case-insensitively
func NewAccessLogFormatter(logger zerolog.Logger, redactParams ...string) *AccessLogFormatter {
	redact := make(map[string]struct{}, len(redactParams))
	for _, p := range redactParams {
		redact[strings.ToLower(p)] = struct{}{}
	}
	return &AccessLogFormatter{
		logger: logger.With().Str("component", "http").Logger(),
		redact: redact,
	}
}

// NewLogEntry implements chi's LogFormatter
func (f *AccessLogFormatter) NewLogEntry(r *http.Request) chimiddleware.LogEntry {
	logger := f.logger.With().
		Str("request_id", chimiddleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("query", f.RedactQuery(r.URL.Query())).
		Str("remote_ip", r.RemoteAddr).
		Str("proto", r.Proto).
		Logger()
	return &accessLogEntry{logger: logger}
}

// RedactQuery encodes values with every redacted parameter masked
func (f *AccessLogFormatter) RedactQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	out := make(url.Values, len(values))
	for k, v := range values {
		if _, ok := f.redact[strings.ToLower(k)]; ok {
			masked := make([]string, len(v))
			for i := range masked {
				masked[i] = redacted
			}
			out[k] = masked
			continue
		}
		out[k] = v
	}
	return out.Encode()
}

type accessLogEntry struct {
	logger zerolog.Logger
}

func (e *accessLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	event := e.logger.Info()
	if status >= http.StatusInternalServerError {
		event = e.logger.Error()
	}
	event.
		Int("status", status).
		Int("bytes", bytes).
		Dur("elapsed", elapsed).
		Msg("Request handled")
}

func (e *accessLogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error().
		Interface("panic", v).
		Bytes("stack", stack).
		Msg("Request panicked")
}
