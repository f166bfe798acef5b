package server

import (
	"github.com/josephgoksu/ReqWing/internal/project"
)

// SessionResponse is returned by POST /api/session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// SubmitRequest is the JSON form of POST /api/submit. The multipart form
// uses a "text" field and a "document" file instead.
type SubmitRequest struct {
	Text         string `json:"text"`
	DocumentName string `json:"document_name,omitempty"`
	Document     []byte `json:"document,omitempty"` // base64 in JSON
}

// AnswerRequest is the payload for POST /api/answer.
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// PrioritizeRequest is the payload for POST /api/prioritize.
type PrioritizeRequest struct {
	Scores map[string]int `json:"scores"`
}

// ActionResponse describes a committed workflow transition.
type ActionResponse struct {
	From     project.Stage   `json:"from"`
	Stage    project.Stage   `json:"stage"`
	Reply    string          `json:"reply"`
	Warnings []string        `json:"warnings,omitempty"`
	Project  *project.Record `json:"project"`
}

// ProjectListItem is one entry of GET /api/projects.
type ProjectListItem struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	Stage            project.Stage `json:"stage"`
	RequirementCount int           `json:"requirement_count"`
	Active           bool          `json:"active"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Warning bool   `json:"warning,omitempty"`
}
