package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is the envelope carried on every topic. EventName doubles as the topic.
// MessageID is set on requests that expect a reply; For carries the id being answered.
type Message struct {
	EventName string          `json:"eventName"`
	Sender    string          `json:"sender"`
	Data      json.RawMessage `json:"data"`
	MessageID string          `json:"messageId,omitempty"`
	For       string          `json:"for,omitempty"`
	Ts        int64           `json:"ts,omitempty"`
}

func NewMessage(eventName, sender string, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", eventName, err)
	}
	return Message{EventName: eventName, Sender: sender, Data: raw}, nil
}

func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s: empty payload", m.EventName)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%s: decode payload: %w", m.EventName, err)
	}
	return nil
}

func ResponseTopic(eventName string) string { return "response." + eventName }

// Respond answers a request received via RequestReply.
func Respond(ctx context.Context, b Bus, req Message, sender string, data any) error {
	msg, err := NewMessage(ResponseTopic(req.EventName), sender, data)
	if err != nil {
		return err
	}
	msg.For = req.MessageID
	return b.Publish(ctx, msg)
}

// Stamp fills Ts with the current time in milliseconds when unset.
func Stamp(msg Message) Message {
	if msg.Ts == 0 {
		msg.Ts = time.Now().UnixMilli()
	}
	return msg
}

func newID() string { return uuid.NewString() }
