package api

import (
	"context"
	"net/http"
	"net/url"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out loginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, &out, false)
	if err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// Register creates a company account.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", registerRequest{Name: name, Email: email, Password: password}, nil, false)
}

// Me fetches the identity behind the current credential.
func (c *Client) Me(ctx context.Context) (Identity, error) {
	var out Identity
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out, true)
	return out, err
}

func (c *Client) CreateMeeting(ctx context.Context, req CreateMeetingRequest) (Meeting, error) {
	var out Meeting
	err := c.do(ctx, http.MethodPost, "/api/meetings", req, &out, true)
	return out, err
}

func (c *Client) ListMeetings(ctx context.Context) ([]Meeting, error) {
	var out []Meeting
	err := c.do(ctx, http.MethodGet, "/api/meetings", nil, &out, true)
	return out, err
}

func (c *Client) GetMeeting(ctx context.Context, id string) (Meeting, error) {
	var out Meeting
	err := c.do(ctx, http.MethodGet, "/api/meetings/"+url.PathEscape(id), nil, &out, true)
	return out, err
}

// GetMeetingByCode serves unauthenticated in-meeting participants and
// deliberately omits the credential.
func (c *Client) GetMeetingByCode(ctx context.Context, code string) (Meeting, error) {
	var out Meeting
	err := c.do(ctx, http.MethodGet, "/api/meetings/code/"+url.PathEscape(code), nil, &out, false)
	return out, err
}

func (c *Client) EndMeeting(ctx context.Context, id string) (Meeting, error) {
	var out Meeting
	err := c.do(ctx, http.MethodPost, "/api/meetings/"+url.PathEscape(id)+"/end", nil, &out, true)
	return out, err
}

func (c *Client) DeleteMeeting(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/meetings/"+url.PathEscape(id), nil, nil, true)
}

// JoinMeeting creates a participant record. Unauthenticated on purpose:
// link-join participants hold no credential.
func (c *Client) JoinMeeting(ctx context.Context, meetingID string, req JoinMeetingRequest) (Participant, error) {
	var out Participant
	err := c.do(ctx, http.MethodPost, "/api/meetings/"+url.PathEscape(meetingID)+"/participants", req, &out, false)
	return out, err
}

// LeaveMeeting marks the participant as left. The bare participant id
// is the only capability required; link participants hold nothing else.
func (c *Client) LeaveMeeting(ctx context.Context, participantID string) error {
	return c.do(ctx, http.MethodPost, "/api/participants/"+url.PathEscape(participantID)+"/leave", nil, nil, false)
}

func (c *Client) ListParticipants(ctx context.Context, meetingID string) ([]Participant, error) {
	var out []Participant
	err := c.do(ctx, http.MethodGet, "/api/meetings/"+url.PathEscape(meetingID)+"/participants", nil, &out, false)
	return out, err
}

func (c *Client) MeetingAnalytics(ctx context.Context, meetingID string) (Analytics, error) {
	var out Analytics
	err := c.do(ctx, http.MethodGet, "/api/meetings/"+url.PathEscape(meetingID)+"/analytics", nil, &out, true)
	return out, err
}

func (c *Client) MeetingSummary(ctx context.Context, meetingID string) (Summary, error) {
	var out Summary
	err := c.do(ctx, http.MethodGet, "/api/meetings/"+url.PathEscape(meetingID)+"/summary", nil, &out, true)
	return out, err
}

func (c *Client) MeetingTranscript(ctx context.Context, meetingID string) ([]TranscriptLine, error) {
	var out []TranscriptLine
	err := c.do(ctx, http.MethodGet, "/api/meetings/"+url.PathEscape(meetingID)+"/transcript", nil, &out, true)
	return out, err
}

// ChannelToken acquires a publish/subscribe audio channel token scoped
// to the meeting.
func (c *Client) ChannelToken(ctx context.Context, meetingID string) (ChannelToken, error) {
	var out ChannelToken
	err := c.do(ctx, http.MethodGet, "/api/meetings/"+url.PathEscape(meetingID)+"/rtc-token", nil, &out, true)
	return out, err
}
