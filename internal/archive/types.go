// Package archive optionally persists received transcript events so a
// meeting's feed can be read back locally after the session ends. The
// live feed itself stays ephemeral; the archive is an add-on.
package archive

import (
	"context"
	"time"

	"github.com/voxmeet/voxmeet/internal/protocol"
)

// Record stores one received transcript event.
type Record struct {
	ID            string            `json:"id"`
	MeetingID     string            `json:"meeting_id"`
	ParticipantID string            `json:"participant_id"`
	SpeakerID     string            `json:"speaker_id"`
	SpeakerName   string            `json:"speaker_name"`
	Text          string            `json:"text"`
	Language      string            `json:"language"`
	Translations  map[string]string `json:"translations,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// FromEvent maps a wire event into an archive record.
func FromEvent(meetingID, participantID string, e protocol.TranscriptEvent) Record {
	created := e.Timestamp
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return Record{
		MeetingID:     meetingID,
		ParticipantID: participantID,
		SpeakerID:     e.SpeakerID,
		SpeakerName:   e.SpeakerName,
		Text:          e.Text,
		Language:      e.Language,
		Translations:  e.Translations,
		CreatedAt:     created,
	}
}

// Store persists and retrieves transcript records.
type Store interface {
	SaveEvent(ctx context.Context, record Record) error
	RecentByMeeting(ctx context.Context, meetingID string, limit int) ([]Record, error)
	Close() error
}
