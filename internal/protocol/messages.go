package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType identifies inbound websocket payload variants.
type MessageType string

const (
	TypeTranscript  MessageType = "transcript"
	TypeSystemEvent MessageType = "system_event"
	TypeErrorEvent  MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// TranscriptEvent carries recognized speech plus per-language
// translations for one utterance.
type TranscriptEvent struct {
	Type         MessageType       `json:"type"`
	SpeakerID    string            `json:"speaker_id"`
	SpeakerName  string            `json:"speaker_name"`
	Text         string            `json:"text"`
	Language     string            `json:"language"`
	Translations map[string]string `json:"translations,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// TextIn returns the utterance in the requested language, falling back
// to the original text when no translation is available.
func (e TranscriptEvent) TextIn(language string) string {
	if language == "" || language == e.Language {
		return e.Text
	}
	if t, ok := e.Translations[language]; ok && t != "" {
		return t
	}
	return e.Text
}

type SystemEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail"`
}

// ParseServerMessage decodes one inbound frame. Callers drop malformed
// frames; the error exists for tests and logging, not for users.
func ParseServerMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeTranscript:
		var msg TranscriptEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SpeakerID == "" || msg.Text == "" {
			return nil, errors.New("invalid transcript event")
		}
		return msg, nil
	case TypeSystemEvent:
		var msg SystemEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Code == "" {
			return nil, errors.New("invalid system_event")
		}
		return msg, nil
	case TypeErrorEvent:
		var msg ErrorEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Code == "" {
			return nil, errors.New("invalid error_event")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
