package telegram

import "strconv"

// Update is the envelope the Bot API posts to the webhook. Only the fields
// the backend acts on are decoded.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// User is the sender of an update.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

// Chat identifies a conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// CallbackMessage is the message an inline button was attached to.
type CallbackMessage struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

// CallbackQuery is produced when a user presses an inline keyboard button.
type CallbackQuery struct {
	ID      string           `json:"id"`
	From    User             `json:"from"`
	Message *CallbackMessage `json:"message,omitempty"`
	Data    string           `json:"data,omitempty"`
}

// InlineKeyboardButton is one button; exactly one of CallbackData or URL is set.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

// InlineKeyboardMarkup is a grid of inline buttons.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// NewKeyboard builds a markup from rows of buttons.
func NewKeyboard(rows ...[]InlineKeyboardButton) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

// CallbackButton returns a button that posts data back to the webhook.
func CallbackButton(text, data string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, CallbackData: data}
}

// URLButton returns a button that opens url.
func URLButton(text, url string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, URL: url}
}

// Message is an outbound text message.
type Message struct {
	ChatID int64
	Text   string
	Markup *InlineKeyboardMarkup
}

// CallbackAnswer acknowledges a callback query.
type CallbackAnswer struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
}

// MessageEdit replaces the text and/or keyboard of a sent message. A nil
// Markup removes the keyboard.
type MessageEdit struct {
	ChatID    int64
	MessageID int64
	Text      string
	Markup    *InlineKeyboardMarkup
}

// APIError is a non-ok Bot API response.
type APIError struct {
	Method      string
	StatusCode  int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return "telegram " + e.Method + ": " + strconv.Itoa(e.StatusCode) + " " + e.Description
}

// Temporary reports whether retrying the call may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
