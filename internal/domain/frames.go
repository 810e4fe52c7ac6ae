package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Realtime frame types.
const (
	FrameTypeAuth       = "auth"
	FrameTypeChat       = "chat"
	FrameTypeNewProduct = "new_product"
)

// TimestampLayout renders times as ISO-8601 UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var (
	// ErrMalformedFrame is returned for payloads that are not a JSON object
	// or carry ill-typed fields.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownFrame is returned for well-formed frames of an unknown type.
	ErrUnknownFrame = errors.New("unknown frame type")
)

// Frame is an inbound realtime frame: either *AuthFrame or *ChatFrame.
type Frame interface {
	FrameType() string
}

// AuthFrame claims an identity for the connection. A zero UserID means the
// client sent a falsy or absent userId.
type AuthFrame struct {
	UserID int64
}

func (*AuthFrame) FrameType() string { return FrameTypeAuth }

// ChatFrame is a direct message to ReceiverID. A zero ReceiverID means the
// field was falsy or absent.
type ChatFrame struct {
	ReceiverID int64
	Content    string
}

func (*ChatFrame) FrameType() string { return FrameTypeChat }

type rawFrame struct {
	Type       string          `json:"type"`
	UserID     json.RawMessage `json:"userId"`
	ReceiverID json.RawMessage `json:"receiverId"`
	Content    json.RawMessage `json:"content"`
}

// ParseFrame decodes one inbound frame.
func ParseFrame(data []byte) (Frame, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch raw.Type {
	case FrameTypeAuth:
		id, err := parseIdentity(raw.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: userId: %v", ErrMalformedFrame, err)
		}
		return &AuthFrame{UserID: id}, nil

	case FrameTypeChat:
		id, err := parseIdentity(raw.ReceiverID)
		if err != nil {
			return nil, fmt.Errorf("%w: receiverId: %v", ErrMalformedFrame, err)
		}
		var content string
		if len(raw.Content) > 0 && !isNull(raw.Content) {
			if err := json.Unmarshal(raw.Content, &content); err != nil {
				return nil, fmt.Errorf("%w: content: %v", ErrMalformedFrame, err)
			}
		}
		return &ChatFrame{ReceiverID: id, Content: content}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrame, raw.Type)
	}
}

// parseIdentity maps absent, null, false and 0 to 0. Any other value must
// be an integer.
func parseIdentity(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || isNull(raw) || bytes.Equal(raw, []byte("false")) {
		return 0, nil
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, err
	}
	return id, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ChatEvent is delivered to the receiver of a chat frame.
type ChatEvent struct {
	Type      string `json:"type"`
	SenderID  int64  `json:"senderId"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// NewChatEvent builds the outbound chat frame for msg.
func NewChatEvent(msg *ChatMessage) *ChatEvent {
	return &ChatEvent{
		Type:      FrameTypeChat,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		Timestamp: FormatTimestamp(msg.CreatedAt),
	}
}

// NewProductEvent announces a freshly created listing to every connection.
type NewProductEvent struct {
	Type    string   `json:"type"`
	Product *Product `json:"product"`
}

// NewNewProductEvent wraps p in a new_product frame.
func NewNewProductEvent(p *Product) *NewProductEvent {
	return &NewProductEvent{Type: FrameTypeNewProduct, Product: p}
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
