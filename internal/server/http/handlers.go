package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/karlsjo/sustainlog/internal/errs"
	"github.com/karlsjo/sustainlog/internal/model"
	"github.com/karlsjo/sustainlog/internal/service"
)

// errorEnvelope is the generic failure body shared by the create/public paths.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// actionJSON is the per-record shape the frontend renders. files carries the
// attachment base64-encoded; timestamp is RFC 3339.
type actionJSON struct {
	Description string `json:"description"`
	Files       string `json:"files,omitempty"`
	Timestamp   string `json:"timestamp"`
	Hash        string `json:"hash"`
	Category    string `json:"category"`
	Error       string `json:"error,omitempty"`
}

func toActionJSON(e model.TimelineEntry) actionJSON {
	out := actionJSON{
		Description: e.Text,
		Timestamp:   e.CreatedAt.Format(time.RFC3339),
		Hash:        e.Fingerprint,
		Category:    string(e.Category),
	}
	if len(e.FileBytes) > 0 {
		out.Files = base64.StdEncoding.EncodeToString(e.FileBytes)
	}
	if e.Err != nil {
		out.Error = "decryption failed"
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleCreateAction accepts the submission form: agreement_text (required),
// file (optional), category (optional).
func (s *Server) handleCreateAction(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Success: false, Message: "Session expired or invalid"})
		return
	}

	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Success: false, Message: "invalid form data"})
		return
	}

	in := service.CreateInput{
		Text:     r.FormValue("agreement_text"),
		Category: model.Category(r.FormValue("category")),
	}
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			writeJSON(w, http.StatusBadRequest, errorEnvelope{Success: false, Message: "attachment too large"})
			return
		}
		in.File = data
	} else if !errors.Is(err, http.ErrMissingFile) {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Success: false, Message: "invalid file upload"})
		return
	}

	rec, err := s.actions.Create(r.Context(), ownerID, in)
	if err != nil {
		s.writeCreateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Hash    string `json:"hash"`
	}{Success: true, Hash: rec.Fingerprint})
}

func (s *Server) writeCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Success: false, Message: "Session expired or invalid"})
	case errors.Is(err, errs.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Success: false, Message: "Agreement text is required"})
	case errors.Is(err, errs.ErrDuplicateFingerprint):
		writeJSON(w, http.StatusConflict, errorEnvelope{Success: false, Message: "An identical action has already been recorded"})
	default:
		s.log.Error("create action failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{Success: false, Message: "Transaction failed"})
	}
}

// handleTimeline serves the authenticated owner's private timeline.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerIDFromCtx(r.Context())
	if !ok {
		ownerID = uuid.Nil
	}
	entries, err := s.actions.ListPrivate(r.Context(), ownerID)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, struct {
				Status  string `json:"status"`
				Message string `json:"message"`
			}{Status: "error", Message: "User not authenticated"})
			return
		}
		s.log.Error("list timeline failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}{Status: "error", Message: "Database error"})
		return
	}

	// The frontend's observed contract models an empty timeline as an error
	// envelope, not an empty success. Internally it is just an empty slice.
	if len(entries) == 0 {
		writeJSON(w, http.StatusOK, struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}{Status: "error", Message: "No sustainability actions found for this company."})
		return
	}

	agreements := make([]actionJSON, 0, len(entries))
	for _, e := range entries {
		agreements = append(agreements, toActionJSON(e))
	}
	writeJSON(w, http.StatusOK, struct {
		Status     string       `json:"status"`
		Agreements []actionJSON `json:"agreements"`
	}{Status: "success", Agreements: agreements})
}

// handlePublicTimeline serves an owner's timeline by public slug; no auth.
func (s *Server) handlePublicTimeline(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	name, entries, err := s.actions.ListPublic(r.Context(), slug)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, errorEnvelope{Success: false, Message: "Slug is required"})
		case errors.Is(err, errs.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorEnvelope{Success: false, Message: "Company not found"})
		default:
			s.log.Error("public timeline failed", zap.String("slug", slug), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorEnvelope{Success: false, Message: "Database error"})
		}
		return
	}

	actions := make([]actionJSON, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, toActionJSON(e))
	}
	writeJSON(w, http.StatusOK, struct {
		Success     bool         `json:"success"`
		CompanyName string       `json:"company_name"`
		Actions     []actionJSON `json:"actions"`
	}{Success: true, CompanyName: name, Actions: actions})
}

// handleCompanies serves the public directory of owners and their slugs.
func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	owners, err := s.actions.Companies(r.Context())
	if err != nil {
		s.log.Error("list companies failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}{Status: "error", Message: "Database error"})
		return
	}

	type companyJSON struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	companies := make([]companyJSON, 0, len(owners))
	for _, o := range owners {
		companies = append(companies, companyJSON{Name: o.Name, Slug: o.Slug})
	}
	writeJSON(w, http.StatusOK, struct {
		Status    string        `json:"status"`
		Companies []companyJSON `json:"companies"`
	}{Status: "success", Companies: companies})
}
