package kafka

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/ghbridge/internal/bus"
)

// Wire field names of the bus envelope.
const (
	fieldEventName = "event_name"
	fieldSender    = "sender"
	fieldData      = "data"
	fieldMessageID = "message_id"
	fieldFor       = "for"
	fieldTs        = "ts"
)

// EncodeMessage packs msg into a protobuf Struct. Data travels as its raw JSON
// text so payloads survive byte for byte.
func EncodeMessage(msg bus.Message) *structpb.Struct {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldEventName: structpb.NewStringValue(msg.EventName),
		fieldSender:    structpb.NewStringValue(msg.Sender),
		fieldData:      structpb.NewStringValue(string(msg.Data)),
		fieldTs:        structpb.NewNumberValue(float64(msg.Ts)),
	}}
	if msg.MessageID != "" {
		s.Fields[fieldMessageID] = structpb.NewStringValue(msg.MessageID)
	}
	if msg.For != "" {
		s.Fields[fieldFor] = structpb.NewStringValue(msg.For)
	}
	return s
}

func DecodeMessage(s *structpb.Struct) (bus.Message, error) {
	f := s.GetFields()
	name := f[fieldEventName].GetStringValue()
	if name == "" {
		return bus.Message{}, fmt.Errorf("kafka: message without %s", fieldEventName)
	}
	msg := bus.Message{
		EventName: name,
		Sender:    f[fieldSender].GetStringValue(),
		MessageID: f[fieldMessageID].GetStringValue(),
		For:       f[fieldFor].GetStringValue(),
		Ts:        int64(f[fieldTs].GetNumberValue()),
	}
	if data := f[fieldData].GetStringValue(); data != "" {
		msg.Data = []byte(data)
	}
	return msg, nil
}
