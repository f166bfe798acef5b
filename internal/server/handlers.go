package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/josephgoksu/ReqWing/internal/dashboard"
	"github.com/josephgoksu/ReqWing/internal/elicit"
	"github.com/josephgoksu/ReqWing/internal/export"
	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/josephgoksu/ReqWing/internal/session"
)

var errMissingSession = errors.New("missing " + SessionHeader + " header")

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get("")
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	}
	w.Header().Set(SessionHeader, sess.ID)
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: sess.ID})
}

// handleEndSession discards the caller's session and all its projects.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: errMissingSession.Error()})
		return
	}
	s.sessions.Drop(id)
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	}
	w.WriteHeader(http.StatusNoContent)
}

// session resolves the caller's session, creating it on first use.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: errMissingSession.Error()})
		return nil, false
	}
	return s.sessions.Get(id), true
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var activeID int64
	if a := sess.Active(); a != nil {
		activeID = a.ID
		if err := sess.Save(); err != nil {
			writeError(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
	}
	items := []ProjectListItem{}
	for _, rec := range sess.Projects().List() {
		items = append(items, ProjectListItem{
			ID:               rec.ID,
			Title:            rec.Title,
			Stage:            rec.Stage,
			RequirementCount: len(rec.Requirements),
			Active:           rec.ID == activeID,
		})
	}
	writeAPIJSON(w, items)
}

func (s *Server) handleNewProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.NewProject(); err != nil {
		writeError(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeAPIJSON(w, map[string]any{"stage": project.StageInitial})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid project id"})
		return
	}
	if a := sess.Active(); a != nil && a.ID == id {
		writeAPIJSON(w, a)
		return
	}
	rec, err := sess.Projects().Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	writeAPIJSON(w, rec)
}

func (s *Server) handleLoadProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid project id"})
		return
	}
	rec, err := sess.Load(id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, project.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, ErrorResponse{Error: err.Error()})
		return
	}
	writeAPIJSON(w, rec)
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rec := sess.Active()
	if rec == nil {
		writeAPIJSON(w, map[string]any{"stage": project.StageInitial, "project": nil})
		return
	}
	writeAPIJSON(w, map[string]any{"stage": rec.Stage, "project": rec})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sub, err := s.readSubmission(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := s.engine.Submit(r.Context(), sess, sub)
	writeOutcome(w, out, err)
}

// readSubmission accepts JSON or multipart/form-data.
func (s *Server) readSubmission(r *http.Request) (elicit.Submission, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req SubmitRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, s.maxUpload*2)).Decode(&req); err != nil {
			return elicit.Submission{}, fmt.Errorf("invalid request body: %w", err)
		}
		sub := elicit.Submission{Text: req.Text}
		if len(req.Document) > 0 {
			sub.Upload = &elicit.Upload{Name: req.DocumentName, Data: req.Document}
		}
		return sub, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return elicit.Submission{}, fmt.Errorf("invalid multipart body: %w", err)
	}
	sub := elicit.Submission{Text: r.FormValue("text")}
	file, header, err := r.FormFile("document")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return elicit.Submission{}, fmt.Errorf("read document: %w", err)
	default:
		defer func() { _ = file.Close() }()
		data, err := io.ReadAll(file)
		if err != nil {
			return elicit.Submission{}, fmt.Errorf("read document: %w", err)
		}
		sub.Upload = &elicit.Upload{Name: header.Filename, Data: data}
	}
	return sub, nil
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	out, err := s.engine.Answer(r.Context(), sess, req.Answer)
	writeOutcome(w, out, err)
}

func (s *Server) handlePrioritize(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req PrioritizeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}
	out, err := s.engine.Prioritize(r.Context(), sess, req.Scores)
	writeOutcome(w, out, err)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	out, err := s.engine.RequestUpdate(r.Context(), sess)
	writeOutcome(w, out, err)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	data, err := export.Document(sess.Active())
	if err != nil {
		writeError(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if s.metrics != nil {
		s.metrics.DocumentsWritten.Inc()
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultFileName))
	_, _ = w.Write(data)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Save(); err != nil {
		writeError(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	stats := dashboard.Compute(sess.Projects().List())
	if s.metrics != nil {
		s.metrics.RecordDashboard(stats)
	}
	writeAPIJSON(w, stats)
}

func writeOutcome(w http.ResponseWriter, out *elicit.Outcome, err error) {
	if err != nil {
		kind, _ := elicit.KindOf(err)
		resp := ErrorResponse{Error: err.Error(), Kind: kind.String(), Warning: kind == elicit.KindInput}
		writeError(w, statusForKind(kind), resp)
		return
	}
	writeAPIJSON(w, ActionResponse{
		From:     out.From,
		Stage:    out.To,
		Reply:    out.Reply,
		Warnings: out.Warnings,
		Project:  out.Record,
	})
}

func statusForKind(k elicit.ErrorKind) int {
	switch k {
	case elicit.KindInput:
		return http.StatusBadRequest
	case elicit.KindDocument:
		return http.StatusUnprocessableEntity
	case elicit.KindStage:
		return http.StatusConflict
	case elicit.KindStep:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	if status >= http.StatusInternalServerError {
		slog.Error("api error", "status", status, "error", resp.Error)
	}
	writeJSON(w, status, resp)
}

func writeAPIJSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
