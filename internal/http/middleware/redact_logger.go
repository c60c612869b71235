package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions adds to the built-in scrubbing of RedactingLogger.
//
// MaskHeaders values are replaced with "[REDACTED]" on top of Authorization,
// Cookie and Set-Cookie. MaskQuery names query parameters whose values are
// replaced the same way. Both match case-insensitively.
type RedactOptions struct {
	MaskHeaders []string
	MaskQuery   []string
}

var (
	// Bot tokens look like "<bot id>:<35 url-safe chars>".
	botTokenRE = regexp.MustCompile(`\d{6,12}:[A-Za-z0-9_-]{30,}`)
	uuidRE     = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE    = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE    = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redact scrubs secrets and obvious PII. Tokens and UUIDs go first so the
// loose phone pattern never eats their digit runs.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = botTokenRE.ReplaceAllString(s, "[REDACTED:token]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

func lowerSet(base []string, extra []string) map[string]struct{} {
	out := make(map[string]struct{}, len(base)+len(extra))
	for _, group := range [][]string{base, extra} {
		for _, v := range group {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				out[v] = struct{}{}
			}
		}
	}
	return out
}

// maskQuery blanks the values of masked parameters without re-encoding the
// rest of the query.
func maskQuery(raw string, masked map[string]struct{}) string {
	if raw == "" || len(masked) == 0 {
		return raw
	}
	parts := strings.Split(raw, "&")
	for i, p := range parts {
		k, _, hasVal := strings.Cut(p, "=")
		if _, ok := masked[strings.ToLower(k)]; ok && hasVal {
			parts[i] = k + "=[REDACTED]"
		}
	}
	return strings.Join(parts, "&")
}

// RedactingLogger is the access logger. It attaches a request-scoped logger
// for LoggerFrom before the handler runs and writes one "http_request" line
// afterwards, at error level for 5xx or recorded gin errors, warn for 4xx
// and info otherwise. Bodies are never logged; query strings and header
// values are scrubbed first.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := lowerSet([]string{"authorization", "cookie", "set-cookie"}, opts.MaskHeaders)
	maskParams := lowerSet(nil, opts.MaskQuery)

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		reqID := RequestIDFrom(c)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}
		safeQuery := truncate(redact(maskQuery(c.Request.URL.RawQuery, maskParams)), maxQueryLogLength)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(strings.Join(vv, ", "))
		}

		reqLog := log.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &reqLog)

		c.Next()

		status := c.Writer.Status()
		ev := reqLog.Info()
		switch {
		case len(c.Errors) > 0:
			ev = reqLog.Error().Str("errors", redact(c.Errors.String()))
		case status >= 500:
			ev = reqLog.Error()
		case status >= 400:
			ev = reqLog.Warn()
		}
		ev.
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Int64("bytes_in", c.Request.ContentLength).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
