package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leadline/leadline/internal/ingest"
	"github.com/leadline/leadline/internal/service/reconcile"
)

// commitTimeout bounds one reconciliation pass once it has been detached
// from the request context.
const commitTimeout = 30 * time.Minute

// sessionView is the session as the dialog sees it: the parsed rows stay
// server-side, only headers, mapping, and staged candidates go back.
type sessionView struct {
	ID         string              `json:"id"`
	Filename   string              `json:"filename"`
	Delimiter  string              `json:"delimiter,omitempty"`
	Headers    []string            `json:"headers"`
	Mapping    ingest.FieldMapping `json:"mapping"`
	Candidates []ingest.Candidate  `json:"candidates"`
	RowCount   int                 `json:"row_count"`
	Status     string              `json:"status"`
}

func viewOf(sess *ingest.Session) sessionView {
	return sessionView{
		ID:         sess.ID,
		Filename:   sess.Filename,
		Delimiter:  sess.Delimiter,
		Headers:    sess.Headers,
		Mapping:    sess.Mapping,
		Candidates: sess.Candidates,
		RowCount:   len(sess.Rows),
		Status:     sess.Status,
	}
}

// handleCreateUpload parses an uploaded file and opens a staging
// session. Multipart form: "file" (required), "delimiter" (optional,
// one of comma/semicolon/tab/pipe; auto-detected when omitted).
func (s *Server) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get("X-Tenant-ID")
	if tenantID == "" {
		respondError(w, http.StatusBadRequest, "X-Tenant-ID header is required")
		return
	}

	if err := r.ParseMultipartForm(s.maxFileSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxFileSize+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "read file: "+err.Error())
		return
	}
	if int64(len(data)) > s.maxFileSize {
		respondError(w, http.StatusRequestEntityTooLarge, "file exceeds size limit")
		return
	}

	var (
		headers   []string
		rows      []ingest.RawRow
		delimiter string
		rawText   string
	)
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx":
		headers, rows, err = ingest.ParseSheet(bytes.NewReader(data))
	case ".xls":
		headers, rows, err = ingest.ParseLegacySheet(bytes.NewReader(data))
	default:
		rawText = string(data)
		delim, derr := delimiterFromName(r.FormValue("delimiter"), rawText)
		if derr != nil {
			respondError(w, http.StatusBadRequest, derr.Error())
			return
		}
		delimiter = string(delim)
		headers, rows, err = ingest.ParseDelimited(rawText, delim)
	}
	if err != nil {
		// Parse errors are fatal to the upload session: nothing staged,
		// nothing written.
		respondError(w, http.StatusUnprocessableEntity, "parse failed: "+err.Error())
		return
	}

	sess, err := s.sessions.Create(r.Context(), tenantID, header.Filename, delimiter, rawText, headers, rows)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

// handleUpdateMapping applies a caller override of the field mapping and
// returns the recomputed staged set. Callers debounce rapid edits.
func (s *Server) handleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mapping ingest.FieldMapping `json:"mapping"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := s.sessions.UpdateMapping(r.Context(), chi.URLParam(r, "sessionID"), body.Mapping)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

// handleUpdateDelimiter re-parses the original file with a new delimiter
// and re-runs auto-mapping, as if the file had just been uploaded.
func (s *Server) handleUpdateDelimiter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Delimiter string `json:"delimiter"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if sess.RawText == "" {
		respondError(w, http.StatusConflict, "delimiter does not apply to spreadsheet uploads")
		return
	}

	delim, derr := delimiterFromName(body.Delimiter, sess.RawText)
	if derr != nil {
		respondError(w, http.StatusBadRequest, derr.Error())
		return
	}
	headers, rows, err := ingest.ParseDelimited(sess.RawText, delim)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "parse failed: "+err.Error())
		return
	}
	sess, err = s.sessions.Reparse(r.Context(), id, string(delim), headers, rows)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleRemoveCandidate(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid index")
		return
	}
	sess, err := s.sessions.RemoveCandidate(r.Context(), chi.URLParam(r, "sessionID"), index)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

// handleCommit runs the reconciliation pass. The session is locked for
// the duration: a second commit or a dismissal is refused until the pass
// finishes, so the staged set and the store never diverge.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.BeginCommit(r.Context(), id)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	// Once writes start the pass runs to completion even if the dialog
	// disconnects: a context tied to the request would cancel the engine
	// AND the abort/cleanup calls, stranding the session in committing.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), commitTimeout)
	defer cancel()

	if len(sess.Candidates) == 0 {
		_ = s.sessions.AbortCommit(ctx, id)
		respondError(w, http.StatusConflict, "no staged candidates to commit")
		return
	}

	engine := reconcile.NewEngine(s.repo, s.batchSize)
	if s.notifier != nil {
		engine.SetNotifier(s.notifier)
	}
	engine.SetProgressFunc(func(phase string, done, total int) {
		s.sessions.SetProgress(ctx, &ingest.Progress{
			SessionID: id, Phase: phase, Done: done, Total: total,
		})
	})

	outcome, err := engine.Run(ctx, sess.TenantID, sess.Candidates)
	if err != nil {
		log.Printf("[api] commit %s failed: %v", id, err)
		if aerr := s.sessions.AbortCommit(ctx, id); aerr != nil {
			log.Printf("[api] abort %s: %v", id, aerr)
		}
		s.sessions.SetProgress(ctx, &ingest.Progress{
			SessionID: id, Phase: "failed", Error: err.Error(),
		})
		respondError(w, http.StatusBadGateway, "commit failed: "+err.Error())
		return
	}

	if err := s.sessions.FinishCommit(ctx, id); err != nil {
		log.Printf("[api] finalize %s: %v", id, err)
	}
	s.sessions.SetProgress(ctx, &ingest.Progress{
		SessionID: id, Phase: "done", Summary: outcome.Summary(),
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": outcome,
		"summary": outcome.Summary(),
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.sessions.GetProgress(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDismissUpload(w http.ResponseWriter, r *http.Request) {
	err := s.sessions.Delete(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondSessionError maps session-layer sentinels onto HTTP statuses.
func respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingest.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ingest.ErrCommitInFlight),
		errors.Is(err, ingest.ErrSessionCommitted):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ingest.ErrBadIndex):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// delimiterFromName resolves a delimiter name to a rune, auto-detecting
// from the sample when the name is empty.
func delimiterFromName(name, sample string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return ingest.DetectDelimiter(sample), nil
	case "comma", ",":
		return ingest.DelimComma, nil
	case "semicolon", ";":
		return ingest.DelimSemicolon, nil
	case "tab", "\t":
		return ingest.DelimTab, nil
	case "pipe", "|":
		return ingest.DelimPipe, nil
	default:
		return 0, errors.New("unsupported delimiter: " + name)
	}
}
