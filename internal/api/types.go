package api

import "time"

// Identity is the authenticated company account as reported by the
// backend. Read-only from the client's perspective.
type Identity struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
}

const (
	RoleCompany = "company"
	RoleAdmin   = "admin"
)

type MeetingStatus string

const (
	MeetingActive MeetingStatus = "active"
	MeetingEnded  MeetingStatus = "ended"
)

// Meeting is a scheduled realtime gathering owned by a company.
type Meeting struct {
	ID                   string        `json:"id"`
	CompanyID            string        `json:"company_id"`
	Code                 string        `json:"code"`
	Title                string        `json:"title"`
	Description          string        `json:"description,omitempty"`
	ExpectedParticipants int           `json:"expected_participants,omitempty"`
	AllowedLanguages     []string      `json:"allowed_languages"`
	Status               MeetingStatus `json:"status"`
	CreatedAt            time.Time     `json:"created_at"`
	EndedAt              *time.Time    `json:"ended_at,omitempty"`
}

// Participant is a joined attendee, not necessarily authenticated.
type Participant struct {
	ID           string     `json:"id"`
	MeetingID    string     `json:"meeting_id"`
	Name         string     `json:"name"`
	Language     string     `json:"language"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	JoinedAt     time.Time  `json:"joined_at"`
	LeftAt       *time.Time `json:"left_at,omitempty"`
	IsRegistered bool       `json:"is_registered"`
	AutoDeleteAt *time.Time `json:"auto_delete_at,omitempty"`
}

// ChannelToken grants a publish/subscribe audio channel scoped to a
// meeting. The realtime SDK consuming it is an opaque collaborator.
type ChannelToken struct {
	Token     string `json:"token"`
	Channel   string `json:"channel"`
	UID       uint32 `json:"uid"`
	AppID     string `json:"app_id"`
	ExpiresIn int64  `json:"expires_in"`
}

// TranscriptLine is one stored line of a meeting transcript.
type TranscriptLine struct {
	SpeakerID    string            `json:"speaker_id"`
	SpeakerName  string            `json:"speaker_name"`
	Text         string            `json:"text"`
	Language     string            `json:"language"`
	Translations map[string]string `json:"translations,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Analytics aggregates per-meeting usage numbers.
type Analytics struct {
	MeetingID           string         `json:"meeting_id"`
	ParticipantCount    int            `json:"participant_count"`
	ActiveParticipants  int            `json:"active_participants"`
	DurationSeconds     int64          `json:"duration_seconds"`
	SegmentsPerLanguage map[string]int `json:"segments_per_language,omitempty"`
}

// Summary is the backend-generated meeting summary.
type Summary struct {
	MeetingID   string    `json:"meeting_id"`
	Text        string    `json:"summary"`
	KeyPoints   []string  `json:"key_points,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

type CreateMeetingRequest struct {
	Title                string   `json:"title"`
	Description          string   `json:"description,omitempty"`
	ExpectedParticipants int      `json:"expected_participants,omitempty"`
	AllowedLanguages     []string `json:"allowed_languages,omitempty"`
}

type JoinMeetingRequest struct {
	Name         string `json:"name"`
	Language     string `json:"language"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	IsRegistered bool   `json:"is_registered"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
