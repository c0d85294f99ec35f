package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists transcript records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transcript_events (
			id TEXT PRIMARY KEY,
			meeting_id TEXT NOT NULL,
			participant_id TEXT NOT NULL,
			speaker_id TEXT NOT NULL,
			speaker_name TEXT NOT NULL,
			content TEXT NOT NULL,
			language TEXT NOT NULL,
			translations JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transcript_events_meeting_created ON transcript_events (meeting_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveEvent(ctx context.Context, record Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	var translations []byte
	if len(record.Translations) > 0 {
		var err error
		translations, err = json.Marshal(record.Translations)
		if err != nil {
			return fmt.Errorf("encode translations: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcript_events (id, meeting_id, participant_id, speaker_id, speaker_name, content, language, translations, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID,
		record.MeetingID,
		record.ParticipantID,
		record.SpeakerID,
		record.SpeakerName,
		record.Text,
		record.Language,
		translations,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save transcript event: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentByMeeting(ctx context.Context, meetingID string, limit int) ([]Record, error) {
	query, args := recentQuery(meetingID, limit)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transcript events: %w", err)
	}
	defer rows.Close()

	items := make([]Record, 0)
	for rows.Next() {
		var r Record
		var translations []byte
		if err := rows.Scan(&r.ID, &r.MeetingID, &r.ParticipantID, &r.SpeakerID, &r.SpeakerName, &r.Text, &r.Language, &translations, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		if len(translations) > 0 {
			if err := json.Unmarshal(translations, &r.Translations); err != nil {
				return nil, fmt.Errorf("decode translations: %w", err)
			}
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript rows: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	return items, nil
}

// recentQuery builds the fetch query; limit <= 0 means every record,
// matching the in-memory store.
func recentQuery(meetingID string, limit int) (string, []any) {
	query := `SELECT id, meeting_id, participant_id, speaker_id, speaker_name, content, language, translations, created_at
	 FROM transcript_events WHERE meeting_id=$1 ORDER BY created_at DESC`
	args := []any{meetingID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	return query, args
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
