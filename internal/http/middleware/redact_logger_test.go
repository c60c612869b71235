package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedact_Patterns(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"plain text", "plain text"},
		{"mail bob@example.com now", "mail [REDACTED:email] now"},
		{"id 123e4567-e89b-12d3-a456-426614174000", "id [REDACTED:id]"},
		{"call 212-555-1212", "call [REDACTED:phone]"},
		{"bot123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsawQ/getMe", "bot[REDACTED:token]/getMe"},
	}
	for _, tc := range cases {
		if got := redact(tc.in); got != tc.want {
			t.Fatalf("redact(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaskQuery(t *testing.T) {
	masked := lowerSet(nil, []string{"TG_ID"})
	if got := maskQuery("tg_id=1002&limit=5&flag", masked); got != "tg_id=[REDACTED]&limit=5&flag" {
		t.Fatalf("maskQuery = %q", got)
	}
	if got := maskQuery("limit=5", nil); got != "limit=5" {
		t.Fatalf("no mask set should be a no-op, got %q", got)
	}
}

func TestRedactingLogger_ScrubsAndAttachesRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{
		MaskHeaders: []string{"X-Telegram-Bot-Api-Secret-Token"},
		MaskQuery:   []string{"tg_id"},
	}))
	r.GET("/invites", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("inside")
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/invites?tg_id=1002&contact=bob@example.com", nil)
	req.Header.Set(requestIDHeader, "rid-1")
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "hook-secret")
	req.Header.Set("X-Note", "reach me at bob@example.com")
	r.ServeHTTP(httptest.NewRecorder(), req)

	raw := buf.String()
	for _, leak := range []string{"bob@example.com", "Bearer secret", "hook-secret"} {
		if strings.Contains(raw, leak) {
			t.Fatalf("log leaked %q: %s", leak, raw)
		}
	}

	lines := logLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("want handler line + access line, got %v", lines)
	}
	inside, access := lines[0], lines[1]
	if inside["message"] != "inside" || inside["request_id"] != "rid-1" || inside["path"] != "/invites" {
		t.Fatalf("request-scoped logger missing fields: %v", inside)
	}
	if access["message"] != "http_request" || access["level"] != "info" || access["status"] != float64(200) {
		t.Fatalf("unexpected access line: %v", access)
	}
	if q, _ := access["query"].(string); !strings.Contains(q, "tg_id=[REDACTED]") || strings.Contains(q, "1002") || !strings.Contains(q, "[REDACTED:email]") {
		t.Fatalf("query not scrubbed: %q", q)
	}
	hdrs, _ := access["headers"].(map[string]any)
	if hdrs["Authorization"] != "[REDACTED]" || hdrs["X-Telegram-Bot-Api-Secret-Token"] != "[REDACTED]" {
		t.Fatalf("headers not masked: %v", hdrs)
	}
}

func TestRedactingLogger_LevelsByOutcome(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/down", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	r.GET("/err", func(c *gin.Context) {
		_ = c.Error(errSentinel{})
		c.Status(http.StatusOK)
	})

	for _, p := range []string{"/bad", "/down", "/err", "/missing"} {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		req.Header.Set(requestIDHeader, "hdr-rid")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	lines := logLines(t, buf)
	if len(lines) != 4 {
		t.Fatalf("want 4 lines, got %v", lines)
	}
	want := []struct{ level, path string }{
		{"warn", "/bad"}, {"error", "/down"}, {"error", "/err"}, {"warn", "/missing"},
	}
	for i, w := range want {
		if lines[i]["level"] != w.level || lines[i]["path"] != w.path {
			t.Fatalf("line %d = %v; want level=%s path=%s", i, lines[i], w.level, w.path)
		}
		// Without RequestID the inbound header is used.
		if lines[i]["request_id"] != "hdr-rid" {
			t.Fatalf("line %d request_id = %v", i, lines[i]["request_id"])
		}
	}
	if lines[2]["errors"] == nil {
		t.Fatalf("gin errors should be logged: %v", lines[2])
	}
}

type errSentinel struct{}

func (errSentinel) Error() string { return "sentinel" }
