// Package statusapi exposes a small local HTTP surface while a meeting
// session is running: health, live session status, and Prometheus
// metrics. It binds to localhost by default and serves no meeting data
// beyond what the local session already holds.
package statusapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voxmeet/voxmeet/internal/api"
	"github.com/voxmeet/voxmeet/internal/observability"
	"github.com/voxmeet/voxmeet/internal/transcript"
)

// Session is the running-session view the server reports on. A nil
// Session means no meeting is active.
type Session interface {
	Meeting() api.Meeting
	Participant() api.Participant
	ListenOnly() bool
	SocketState() transcript.State
	Level() float64
	Feed() *transcript.Feed
}

type Server struct {
	version string
	session Session
}

func New(version string, session Session) *Server {
	return &Server{version: version, session: session}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/statusz", s.handleStatus)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

type statusResponse struct {
	Version       string           `json:"version"`
	InMeeting     bool             `json:"in_meeting"`
	MeetingID     string           `json:"meeting_id,omitempty"`
	MeetingCode   string           `json:"meeting_code,omitempty"`
	ParticipantID string           `json:"participant_id,omitempty"`
	ListenOnly    bool             `json:"listen_only"`
	SocketState   transcript.State `json:"socket_state"`
	MicLevel      float64          `json:"mic_level"`
	FeedLength    int              `json:"feed_length"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Version: s.version, SocketState: transcript.StateIdle}
	if s.session != nil {
		meeting := s.session.Meeting()
		resp.InMeeting = meeting.ID != ""
		resp.MeetingID = meeting.ID
		resp.MeetingCode = meeting.Code
		resp.ParticipantID = s.session.Participant().ID
		resp.ListenOnly = s.session.ListenOnly()
		resp.SocketState = s.session.SocketState()
		resp.MicLevel = s.session.Level()
		if feed := s.session.Feed(); feed != nil {
			resp.FeedLength = feed.Len()
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
