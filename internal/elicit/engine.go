/*
Package elicit implements the elicitation workflow: the state machine that
moves a project record through initial, clarification, prioritization and
final_document, calling a transformation step at each transition.

Every action is all-or-nothing. The engine works on a copy of the session's
active record and commits it (upserting by id) only when the step succeeds.
*/
package elicit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/josephgoksu/ReqWing/internal/session"
	"github.com/josephgoksu/ReqWing/internal/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Step names, used for metrics and tracing.
const (
	StepExtract  = "extract"
	StepRefine   = "refine"
	StepFinalize = "finalize"
)

// Extraction is the Extract step's output.
type Extraction struct {
	InitialRequirements []string `json:"initial_requirements"`
	ClarifyingQuestions []string `json:"clarifying_questions"`
}

// Refinement is the Refine step's output.
type Refinement struct {
	UpdatedRequirements []string `json:"updated_requirements"`
}

// Steps are the transformation steps backed by a text-generation service.
// Implementations return ErrMalformedOutput (wrapped) when output fails to parse.
type Steps interface {
	Extract(ctx context.Context, text string) (Extraction, error)
	Refine(ctx context.Context, requirements []string, question, answer string) (Refinement, error)
	Finalize(ctx context.Context, requirements []string, scores map[string]int) (string, error)
}

// DocumentReader extracts plain text from an uploaded file.
type DocumentReader interface {
	ReadDocument(name string, data []byte) (string, error)
}

// Observer is notified of step calls and committed transitions.
type Observer interface {
	StepDone(step string, d time.Duration, err error)
	Transitioned(from, to project.Stage)
}

// Upload is a user-supplied document.
type Upload struct {
	Name string
	Data []byte
}

// Submission is the initial-stage input: free text plus an optional document.
type Submission struct {
	Text   string
	Upload *Upload
}

// Outcome describes a committed transition.
type Outcome struct {
	Record   *project.Record
	From     project.Stage
	To       project.Stage
	Reply    string
	Warnings []string
}

// Transcript text the engine writes.
const (
	MsgProjectIdea     = "Here is my project idea."
	MsgUpdates         = "Here are my updates."
	MsgUpdateRequested = "Of course! Please describe the changes below."
	MsgNoQuestions     = "Thanks! Your updates are very clear. Let's move on to prioritization."
)

// Engine sequences workflow transitions for sessions.
type Engine struct {
	steps     Steps
	docs      DocumentReader
	observers []Observer
	tracer    trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithDocumentReader enables document uploads.
func WithDocumentReader(r DocumentReader) Option {
	return func(e *Engine) { e.docs = r }
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// New creates an engine.
func New(steps Steps, opts ...Option) *Engine {
	e := &Engine{
		steps:  steps,
		tracer: otel.Tracer("github.com/josephgoksu/ReqWing/internal/elicit"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit handles the initial stage: extract requirements and questions from
// the free text and optional document. With no active record a new one is
// created; an active record in the initial stage (after an update request)
// keeps its id and transcript.
func (e *Engine) Submit(ctx context.Context, s *session.Session, sub Submission) (*Outcome, error) {
	const op = "submit"
	ctx, span := e.tracer.Start(ctx, "elicit.submit")
	defer span.End()

	text := strings.TrimSpace(sub.Text)
	var warnings []string
	var docText string
	var docErr error
	if sub.Upload != nil {
		docText, docErr = e.readDocument(sub.Upload)
		if docErr != nil {
			slog.Warn("document decode failed", "file", sub.Upload.Name, "error", docErr)
			warnings = append(warnings, fmt.Sprintf("Error reading file %s: %v", sub.Upload.Name, docErr))
		}
	}

	combined := strings.TrimSpace(text + "\n\n" + strings.TrimSpace(docText))
	if combined == "" {
		if docErr != nil {
			return nil, e.fail(span, &Error{Kind: KindDocument, Op: op, Err: docErr})
		}
		return nil, e.fail(span, inputError(op, "please describe your project or upload a document"))
	}

	var out Outcome
	committed, err := s.Transact(func(cur *project.Record) (*project.Record, error) {
		update := cur != nil && len(cur.Transcript) > 0
		if cur == nil {
			cur = project.New()
		}
		if cur.Stage != project.StageInitial {
			return nil, stageError(op, cur.Stage)
		}
		span.SetAttributes(attribute.Int64("project.id", cur.ID), attribute.Bool("update", update))

		ext, err := e.extract(ctx, combined)
		if err != nil {
			return nil, &Error{Kind: KindStep, Op: op, Err: err}
		}

		userMsg := text
		if userMsg == "" {
			userMsg = MsgProjectIdea
			if update {
				userMsg = MsgUpdates
			}
		}
		cur.AddMessage(project.RoleUser, userMsg)

		cur.Requirements = project.NormalizeList(ext.InitialRequirements)
		cur.ClarificationQuestions = project.NormalizeList(ext.ClarifyingQuestions)
		cur.QuestionIndex = 0
		cur.FinalDocument = ""

		var reply string
		if len(cur.ClarificationQuestions) > 0 {
			cur.Stage = project.StageClarification
			lead := "Thanks! I have a few clarifying questions."
			if update {
				lead = "Thanks for the update! I have a few more questions to clarify."
			}
			reply = fmt.Sprintf("%s\n\n*1. %s*", lead, cur.ClarificationQuestions[0])
		} else {
			cur.Stage = project.StagePrioritization
			reply = MsgNoQuestions
		}
		cur.AddMessage(project.RoleAssistant, reply)

		out = Outcome{From: project.StageInitial, To: cur.Stage, Reply: reply, Warnings: warnings}
		return cur, nil
	})
	if err != nil {
		return nil, e.fail(span, wrapState(op, err))
	}
	return e.commit(&out, committed), nil
}

// Answer handles one clarification answer: refine the requirements with the
// current question and answer, then advance to the next question or to
// prioritization.
func (e *Engine) Answer(ctx context.Context, s *session.Session, answer string) (*Outcome, error) {
	const op = "answer"
	ctx, span := e.tracer.Start(ctx, "elicit.answer")
	defer span.End()

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, e.fail(span, inputError(op, "please enter an answer"))
	}

	var out Outcome
	committed, err := s.Transact(func(cur *project.Record) (*project.Record, error) {
		if cur == nil {
			return nil, &Error{Kind: KindStage, Op: op, Err: session.ErrNoActiveProject}
		}
		if cur.Stage != project.StageClarification {
			return nil, stageError(op, cur.Stage)
		}
		question, ok := cur.CurrentQuestion()
		if !ok {
			return nil, &Error{Kind: KindStage, Op: op, Err: errors.New("no pending clarification question")}
		}
		span.SetAttributes(attribute.Int64("project.id", cur.ID), attribute.Int("question.index", cur.QuestionIndex))

		ref, err := e.refine(ctx, cur.Requirements, question, answer)
		if err != nil {
			return nil, &Error{Kind: KindStep, Op: op, Err: err}
		}
		updated := project.NormalizeList(ref.UpdatedRequirements)
		if len(updated) == 0 && len(cur.Requirements) > 0 {
			return nil, &Error{Kind: KindStep, Op: op, Err: fmt.Errorf("%w: refine returned no requirements", ErrMalformedOutput)}
		}

		cur.AddMessage(project.RoleUser, answer)
		cur.Requirements = updated
		cur.QuestionIndex++

		var reply string
		if next, ok := cur.CurrentQuestion(); ok {
			reply = fmt.Sprintf("Got it. Next:\n\n*%d. %s*", cur.QuestionIndex+1, next)
		} else {
			cur.Stage = project.StagePrioritization
			reply = fmt.Sprintf("Great, that's everything! Here's the consolidated list:\n\n%s\n\nNow, let's prioritize.",
				utils.BulletList(cur.Requirements))
		}
		cur.AddMessage(project.RoleAssistant, reply)

		out = Outcome{From: project.StageClarification, To: cur.Stage, Reply: reply}
		return cur, nil
	})
	if err != nil {
		return nil, e.fail(span, wrapState(op, err))
	}
	return e.commit(&out, committed), nil
}

// Prioritize stores a score per requirement and generates the final document.
// Requirements without a submitted score get project.DefaultScore.
func (e *Engine) Prioritize(ctx context.Context, s *session.Session, scores map[string]int) (*Outcome, error) {
	const op = "prioritize"
	ctx, span := e.tracer.Start(ctx, "elicit.prioritize")
	defer span.End()

	var out Outcome
	committed, err := s.Transact(func(cur *project.Record) (*project.Record, error) {
		if cur == nil {
			return nil, &Error{Kind: KindStage, Op: op, Err: session.ErrNoActiveProject}
		}
		if cur.Stage != project.StagePrioritization {
			return nil, stageError(op, cur.Stage)
		}
		full, err := completeScores(cur.Requirements, scores)
		if err != nil {
			return nil, &Error{Kind: KindInput, Op: op, Err: err}
		}
		span.SetAttributes(attribute.Int64("project.id", cur.ID), attribute.Int("requirements", len(cur.Requirements)))

		doc, err := e.finalize(ctx, cur.Requirements, full)
		if err != nil {
			return nil, &Error{Kind: KindStep, Op: op, Err: err}
		}

		for req, score := range full {
			cur.PriorityScores[req] = score
		}
		cur.FinalDocument = doc
		cur.Stage = project.StageFinalDocument
		cur.AddMessage(project.RoleAssistant, doc)

		out = Outcome{From: project.StagePrioritization, To: project.StageFinalDocument, Reply: doc}
		return cur, nil
	})
	if err != nil {
		return nil, e.fail(span, wrapState(op, err))
	}
	return e.commit(&out, committed), nil
}

// RequestUpdate loops a finished record back to the initial stage, keeping
// its id and transcript and clearing the final document.
func (e *Engine) RequestUpdate(ctx context.Context, s *session.Session) (*Outcome, error) {
	const op = "update"
	_, span := e.tracer.Start(ctx, "elicit.update")
	defer span.End()

	var out Outcome
	committed, err := s.Transact(func(cur *project.Record) (*project.Record, error) {
		if cur == nil {
			return nil, &Error{Kind: KindStage, Op: op, Err: session.ErrNoActiveProject}
		}
		if cur.Stage != project.StageFinalDocument {
			return nil, stageError(op, cur.Stage)
		}
		cur.FinalDocument = ""
		cur.Stage = project.StageInitial
		cur.AddMessage(project.RoleAssistant, MsgUpdateRequested)

		out = Outcome{From: project.StageFinalDocument, To: project.StageInitial, Reply: MsgUpdateRequested}
		return cur, nil
	})
	if err != nil {
		return nil, e.fail(span, wrapState(op, err))
	}
	return e.commit(&out, committed), nil
}

func (e *Engine) readDocument(u *Upload) (string, error) {
	if e.docs == nil {
		return "", errors.New("document uploads are not enabled")
	}
	return e.docs.ReadDocument(u.Name, u.Data)
}

func (e *Engine) extract(ctx context.Context, text string) (Extraction, error) {
	start := time.Now()
	ext, err := e.steps.Extract(ctx, text)
	e.stepDone(StepExtract, time.Since(start), err)
	return ext, err
}

func (e *Engine) refine(ctx context.Context, reqs []string, question, answer string) (Refinement, error) {
	start := time.Now()
	ref, err := e.steps.Refine(ctx, append([]string(nil), reqs...), question, answer)
	e.stepDone(StepRefine, time.Since(start), err)
	return ref, err
}

func (e *Engine) finalize(ctx context.Context, reqs []string, scores map[string]int) (string, error) {
	start := time.Now()
	doc, err := e.steps.Finalize(ctx, append([]string(nil), reqs...), scores)
	if err == nil && strings.TrimSpace(doc) == "" {
		err = fmt.Errorf("%w: empty document", ErrMalformedOutput)
	}
	e.stepDone(StepFinalize, time.Since(start), err)
	return strings.TrimSpace(doc), err
}

func (e *Engine) stepDone(step string, d time.Duration, err error) {
	if err != nil {
		slog.Warn("step failed", "step", step, "duration", d, "error", err)
	} else {
		slog.Debug("step done", "step", step, "duration", d)
	}
	for _, o := range e.observers {
		o.StepDone(step, d, err)
	}
}

func (e *Engine) commit(out *Outcome, r *project.Record) *Outcome {
	out.Record = r
	slog.Info("transition", "project_id", r.ID, "from", out.From, "to", out.To)
	for _, o := range e.observers {
		o.Transitioned(out.From, out.To)
	}
	return out
}

func (e *Engine) fail(span trace.Span, err *Error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Kind.String())
	return err
}

func stageError(op string, stage project.Stage) *Error {
	return &Error{Kind: KindStage, Op: op, Err: fmt.Errorf("not allowed in stage %s", stage)}
}

func wrapState(op string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindState, Op: op, Err: err}
}

// completeScores validates submitted scores against the requirement list and
// fills unscored requirements with the default.
func completeScores(reqs []string, scores map[string]int) (map[string]int, error) {
	known := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		known[r] = struct{}{}
	}
	for req, score := range scores {
		if _, ok := known[req]; !ok {
			return nil, fmt.Errorf("unknown requirement %q", req)
		}
		if score < project.MinScore || score > project.MaxScore {
			return nil, fmt.Errorf("score for %q must be between %d and %d, got %d", req, project.MinScore, project.MaxScore, score)
		}
	}
	full := make(map[string]int, len(reqs))
	for _, r := range reqs {
		if score, ok := scores[r]; ok {
			full[r] = score
		} else {
			full[r] = project.DefaultScore
		}
	}
	return full, nil
}
