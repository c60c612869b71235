// Package telegram is a small Bot API client covering the three calls the
// backend makes (sendMessage, answerCallbackQuery, editMessageText /
// editMessageReplyMarkup) plus the webhook update types it consumes.
//
// The client is constructed from injected configuration; it holds no global
// state. With an empty token every call returns ErrDisabled without touching
// the network.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrDisabled is returned by every call when no bot token is configured.
var ErrDisabled = errors.New("telegram: bot token not configured")

const (
	defaultBaseURL     = "https://api.telegram.org"
	defaultSendTimeout = 10 * time.Second
	callbackTimeout    = 5 * time.Second
	maxResponseBytes   = 1 << 20
)

var apiRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "messaging_requests_total",
		Help: "Bot API calls by method and result.",
	},
	[]string{"method", "result"},
)

func init() {
	prometheus.MustRegister(apiRequests)
}

// Config configures a Client.
type Config struct {
	Token   string
	BaseURL string        // defaults to https://api.telegram.org
	Timeout time.Duration // per sendMessage call; defaults to 10s
	// HTTPClient overrides the transport (tests). When nil, an otelhttp
	// instrumented client is used.
	HTTPClient *http.Client
}

// Client talks to the Bot API.
type Client struct {
	token   string
	baseURL string
	timeout time.Duration
	hc      *http.Client
}

// New returns a Client for cfg.
func New(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{token: strings.TrimSpace(cfg.Token), baseURL: base, timeout: timeout, hc: hc}
}

// Enabled reports whether a token is configured.
func (c *Client) Enabled() bool { return c.token != "" }

// SendMessage sends m as HTML with its text escaped.
func (c *Client) SendMessage(ctx context.Context, m Message) error {
	payload := map[string]any{
		"chat_id":    m.ChatID,
		"text":       html.EscapeString(m.Text),
		"parse_mode": "HTML",
	}
	if m.Markup != nil {
		payload["reply_markup"] = m.Markup
	}
	return c.call(ctx, "sendMessage", c.timeout, payload)
}

// AnswerCallback acknowledges a callback query.
func (c *Client) AnswerCallback(ctx context.Context, a CallbackAnswer) error {
	payload := map[string]any{
		"callback_query_id": a.CallbackQueryID,
		"show_alert":        a.ShowAlert,
	}
	if a.Text != "" {
		payload["text"] = a.Text
	}
	return c.call(ctx, "answerCallbackQuery", callbackTimeout, payload)
}

// EditMessage replaces the text (when set) and keyboard of a message.
func (c *Client) EditMessage(ctx context.Context, e MessageEdit) error {
	markup := e.Markup
	if markup == nil {
		markup = &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{}}
	}
	payload := map[string]any{
		"chat_id":      e.ChatID,
		"message_id":   e.MessageID,
		"reply_markup": markup,
	}
	method := "editMessageReplyMarkup"
	if e.Text != "" {
		method = "editMessageText"
		payload["text"] = html.EscapeString(e.Text)
		payload["parse_mode"] = "HTML"
	}
	return c.call(ctx, method, callbackTimeout, payload)
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, timeout time.Duration, payload any) (err error) {
	if !c.Enabled() {
		return ErrDisabled
	}
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		apiRequests.WithLabelValues(method, result).Inc()
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: encode: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		// Strip the URL, it carries the token.
		var uerr interface{ Unwrap() error }
		if errors.As(err, &uerr) && uerr.Unwrap() != nil {
			err = uerr.Unwrap()
		}
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("telegram %s: read: %w", method, err)
	}
	var out apiResponse
	if jerr := json.Unmarshal(raw, &out); jerr != nil {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
	}
	if !out.OK || resp.StatusCode >= 300 {
		apiErr := &APIError{Method: method, StatusCode: resp.StatusCode, Description: out.Description}
		if out.ErrorCode != 0 {
			apiErr.StatusCode = out.ErrorCode
		}
		if out.Parameters != nil {
			apiErr.RetryAfter = out.Parameters.RetryAfter
		}
		return apiErr
	}
	return nil
}
