/*
Package project defines the Project Record: the unit of state tracking one
elicitation (transcript, requirements, clarification progress, scores and
the generated document) and the in-memory collection records live in.
*/
package project

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/josephgoksu/ReqWing/internal/utils"
)

// Stage is a record's position in the elicitation cycle.
type Stage string

const (
	StageInitial        Stage = "initial"
	StageClarification  Stage = "clarification"
	StagePrioritization Stage = "prioritization"
	StageFinalDocument  Stage = "final_document"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageInitial, StageClarification, StagePrioritization, StageFinalDocument:
		return true
	}
	return false
}

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Score bounds for priority scores.
const (
	MinScore     = 1
	MaxScore     = 10
	DefaultScore = 5
)

const (
	// TitleMaxRunes is how much of the first user message a title keeps.
	TitleMaxRunes = 40
	// DefaultTitle is used when a record has no user message yet.
	DefaultTitle = "Project Idea"
)

// Record is one elicitation session.
type Record struct {
	ID                     int64          `json:"id"`
	Title                  string         `json:"title"`
	Transcript             []Message      `json:"messages"`
	Requirements           []string       `json:"requirements"`
	ClarificationQuestions []string       `json:"clarification_questions"`
	QuestionIndex          int            `json:"question_index"`
	PriorityScores         map[string]int `json:"prioritization_scores"`
	FinalDocument          string         `json:"final_doc,omitempty"`
	Stage                  Stage          `json:"stage"`
}

var lastID atomic.Int64

// NewID returns a time-derived id, strictly greater than any id returned
// before it in this process.
func NewID() int64 {
	for {
		now := time.Now().UnixNano()
		prev := lastID.Load()
		if now <= prev {
			now = prev + 1
		}
		if lastID.CompareAndSwap(prev, now) {
			return now
		}
	}
}

// New creates a fresh record in the initial stage.
func New() *Record {
	return &Record{
		ID:             NewID(),
		Title:          DefaultTitle,
		PriorityScores: map[string]int{},
		Stage:          StageInitial,
	}
}

// DeriveTitle computes the title from the first user message.
func (r *Record) DeriveTitle() string {
	for _, m := range r.Transcript {
		if m.Role != RoleUser {
			continue
		}
		first := strings.TrimSpace(m.Content)
		if i := strings.IndexByte(first, '\n'); i >= 0 {
			first = strings.TrimSpace(first[:i])
		}
		return utils.FirstRunes(first, TitleMaxRunes) + "..."
	}
	return DefaultTitle
}

// AddMessage appends a transcript entry.
func (r *Record) AddMessage(role Role, content string) {
	r.Transcript = append(r.Transcript, Message{Role: role, Content: content})
}

// CurrentQuestion returns the pending clarification question, if any.
func (r *Record) CurrentQuestion() (string, bool) {
	if r.QuestionIndex < 0 || r.QuestionIndex >= len(r.ClarificationQuestions) {
		return "", false
	}
	return r.ClarificationQuestions[r.QuestionIndex], true
}

// QuestionsExhausted reports whether every clarification question has been answered.
func (r *Record) QuestionsExhausted() bool {
	return r.QuestionIndex >= len(r.ClarificationQuestions)
}

// HasDocument reports whether the final document has been generated.
func (r *Record) HasDocument() bool { return r.FinalDocument != "" }

// Score returns the recorded score for a requirement, 0 when unscored.
func (r *Record) Score(requirement string) int {
	return r.PriorityScores[requirement]
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Transcript = append([]Message(nil), r.Transcript...)
	c.Requirements = append([]string(nil), r.Requirements...)
	c.ClarificationQuestions = append([]string(nil), r.ClarificationQuestions...)
	c.PriorityScores = make(map[string]int, len(r.PriorityScores))
	for k, v := range r.PriorityScores {
		c.PriorityScores[k] = v
	}
	return &c
}

// Validate checks the record invariants.
func (r *Record) Validate() error {
	var errs []error
	if r.ID <= 0 {
		errs = append(errs, errors.New("id must be positive"))
	}
	if !r.Stage.Valid() {
		errs = append(errs, fmt.Errorf("unknown stage %q", r.Stage))
	}
	if r.QuestionIndex < 0 || r.QuestionIndex > len(r.ClarificationQuestions) {
		errs = append(errs, fmt.Errorf("question index %d out of range [0,%d]", r.QuestionIndex, len(r.ClarificationQuestions)))
	}
	if r.Stage == StagePrioritization && !r.QuestionsExhausted() {
		errs = append(errs, errors.New("prioritization reached with unanswered questions"))
	}
	if r.HasDocument() && r.Stage != StageFinalDocument {
		errs = append(errs, fmt.Errorf("final document present in stage %s", r.Stage))
	}
	for req, score := range r.PriorityScores {
		if score < MinScore || score > MaxScore {
			errs = append(errs, fmt.Errorf("score %d for %q out of range", score, req))
		}
	}
	return errors.Join(errs...)
}

// NormalizeList trims entries, drops blanks and removes duplicates.
// Applied to requirements it keeps requirement text a unique score key.
func NormalizeList(reqs []string) []string {
	out := make([]string, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
