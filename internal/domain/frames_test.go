package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tj/assert"
)

func TestParseFrameAuth(t *testing.T) {
	f, err := ParseFrame([]byte(`{"type":"auth","userId":7}`))
	assert.NoError(t, err)
	assert.Equal(t, &AuthFrame{UserID: 7}, f)

	for _, payload := range []string{
		`{"type":"auth"}`,
		`{"type":"auth","userId":null}`,
		`{"type":"auth","userId":0}`,
		`{"type":"auth","userId":false}`,
	} {
		f, err := ParseFrame([]byte(payload))
		assert.NoError(t, err, payload)
		assert.Equal(t, &AuthFrame{}, f, payload)
	}
}

func TestParseFrameChat(t *testing.T) {
	f, err := ParseFrame([]byte(`{"type":"chat","receiverId":2,"content":"hi"}`))
	assert.NoError(t, err)
	assert.Equal(t, &ChatFrame{ReceiverID: 2, Content: "hi"}, f)

	f, err = ParseFrame([]byte(`{"type":"chat","receiverId":2}`))
	assert.NoError(t, err)
	assert.Equal(t, &ChatFrame{ReceiverID: 2}, f)
}

func TestParseFrameRejects(t *testing.T) {
	cases := map[string]error{
		`not json`:                                   ErrMalformedFrame,
		`[1,2]`:                                      ErrMalformedFrame,
		`{"type":"auth","userId":"abc"}`:             ErrMalformedFrame,
		`{"type":"auth","userId":1.5}`:               ErrMalformedFrame,
		`{"type":"chat","receiverId":2,"content":3}`: ErrMalformedFrame,
		`{"type":"ping"}`:                            ErrUnknownFrame,
		`{}`:                                         ErrUnknownFrame,
	}
	for payload, want := range cases {
		_, err := ParseFrame([]byte(payload))
		assert.True(t, errors.Is(err, want), payload)
	}
}

func TestChatEventWireShape(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 45, 123456789, time.FixedZone("X", 3600))
	evt := NewChatEvent(&ChatMessage{SenderID: 1, ReceiverID: 2, Content: "hi", CreatedAt: at})

	data, err := json.Marshal(evt)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"type":"chat","senderId":1,"content":"hi","timestamp":"2024-03-01T11:30:45.123Z"}`, string(data))
}

func TestNewProductEventWireShape(t *testing.T) {
	evt := NewNewProductEvent(&Product{ID: 42, Name: "Foo", SellerName: "Bob"})

	data, err := json.Marshal(evt)
	assert.NoError(t, err)

	var got struct {
		Type    string `json:"type"`
		Product struct {
			ID         int64  `json:"id"`
			Name       string `json:"name"`
			SellerName string `json:"seller_name"`
		} `json:"product"`
	}
	assert.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, FrameTypeNewProduct, got.Type)
	assert.Equal(t, int64(42), got.Product.ID)
	assert.Equal(t, "Foo", got.Product.Name)
	assert.Equal(t, "Bob", got.Product.SellerName)
}
