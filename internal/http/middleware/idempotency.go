package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's retry key on unsafe requests.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key validated by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the key was already recorded for this route.
// It is a hint for rate limiting and metrics; the service that owns the key
// still decides what a replay returns.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions bounds accepted keys. MaxLen <= 0 means 200; a nil
// Pattern allows token characters plus "._~-:".
//
// Subject names the caller a key belongs to, the same way the handling
// service scopes its records. Keys are only unique per subject, so a key
// seen for another caller is not a replay.
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
	Subject func(*gin.Context) string
}

// IdempotencyLookup reports whether key is already recorded for subject on
// route (the matched template, e.g. "/api/v1/invites") and not expired at
// now. subject is "" when it could not be resolved.
type IdempotencyLookup func(ctx context.Context, route, subject, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator checks the Idempotency-Key header on unsafe methods.
// A missing header is a no-op and safe methods ignore it. A malformed key
// gets 400 "bad_idempotency_key". A valid key is stashed for handlers and,
// when lookup finds it, the request is flagged as a replay and exempted from
// rate limiting. Lookup failures are logged and treated as a miss.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			var subject string
			if opts.Subject != nil {
				subject = opts.Subject(c)
			}
			exists, err := lookup(c.Request.Context(), c.FullPath(), subject, key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			}
			if exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// JSONBodyID reads an integer id from a top-level field of the JSON request
// body and returns it in canonical decimal form, or "" when the body is not
// JSON or the field is missing, zero or not an integer. The body is restored
// for the handler, including any read error.
func JSONBodyID(c *gin.Context, field string) string {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return ""
	}
	raw, err := io.ReadAll(c.Request.Body)
	rest := io.Reader(bytes.NewReader(raw))
	if err != nil {
		rest = io.MultiReader(rest, failedReader{err})
	}
	c.Request.Body = io.NopCloser(rest)
	if err != nil {
		return ""
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return ""
	}
	v, ok := fields[field]
	if !ok {
		return ""
	}
	id, err := strconv.ParseInt(strings.Trim(string(v), `"`), 10, 64)
	if err != nil || id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

type failedReader struct{ err error }

func (r failedReader) Read([]byte) (int, error) { return 0, r.err }
