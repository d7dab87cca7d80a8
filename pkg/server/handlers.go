package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit/query"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/catalog"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/eligibility"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/orchestrator"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/override"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/telemetry/logging"
)

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	Snapshot intake.CaseSnapshot `json:"snapshot"`
	Override *override.Request   `json:"override,omitempty"`
	Assessor string              `json:"assessor,omitempty"`
}

// EvaluateResponse is the body of a successful evaluation.
type EvaluateResponse struct {
	Decision *orchestrator.DecisionBundle `json:"decision"`
	Summary  string                       `json:"summary"`
}

// AuditResponse lists audit entries.
type AuditResponse struct {
	CaseID  string         `json:"case_id,omitempty"`
	Count   int            `json:"count"`
	Entries []*audit.Entry `json:"entries"`
}

// VerifyResponse reports the result of a hash chain check.
type VerifyResponse struct {
	CaseID   string `json:"case_id"`
	Verified bool   `json:"verified"`
	Entries  int    `json:"entries"`
	Reason   string `json:"reason,omitempty"`
	EntryID  string `json:"entry_id,omitempty"`
}

// ReviewRequest is the body of POST /v1/cases/{caseID}/audit/{entryID}/review.
// Approved is required; false asks for more information and needs notes.
type ReviewRequest struct {
	Reviewer string `json:"reviewer"`
	Approved *bool  `json:"approved"`
	Notes    string `json:"notes,omitempty"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, ErrorDetail{
				Message: "request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
				Type:    ErrorTypeInvalidRequest,
			})
			return
		}
		writeError(w, r, http.StatusBadRequest, ErrorDetail{Message: "invalid JSON: " + err.Error(), Type: ErrorTypeInvalidRequest})
		return
	}

	ctx := logging.WithCase(r.Context(), req.Snapshot.CaseID, "")
	ctx = logging.WithAssessor(ctx, req.Assessor)

	// A snapshot that fails to seal still goes to the orchestrator so the
	// rejection is recorded on the case's trail.
	snap, err := intake.New(req.Snapshot)
	if err != nil {
		snap = req.Snapshot.Clone()
		snap.ID = ""
	}

	cat, catErr := s.catalogs.Snapshot()
	if catErr == nil {
		ctx = logging.WithCatalogVersion(ctx, cat.Version)
	}

	bundle, err := s.orch.Evaluate(ctx, orchestrator.Input{
		Snapshot: snap,
		Catalog:  cat,
		Override: req.Override,
		Assessor: req.Assessor,
	})
	if err != nil {
		var evalErr *orchestrator.EvaluationError
		if !errors.As(err, &evalErr) {
			writeError(w, r, http.StatusInternalServerError, ErrorDetail{Message: err.Error(), Type: ErrorTypeServerError})
			return
		}
		status, typ := evaluationStatus(evalErr.Kind)
		if catErr != nil {
			status, typ = http.StatusServiceUnavailable, ErrorTypeServiceUnavailable
		}
		writeError(w, r, status, ErrorDetail{
			Message:      evalErr.Error(),
			Type:         typ,
			Kind:         evalErr.Kind,
			Param:        errorParam(evalErr),
			AuditEntryID: evalErr.AuditEntryID,
		})
		return
	}

	writeJSON(w, http.StatusOK, EvaluateResponse{Decision: bundle, Summary: bundle.Summary()})
}

// errorParam names the offending field of a failed evaluation.
func errorParam(err *orchestrator.EvaluationError) string {
	var verr *intake.ValidationError
	if errors.As(err, &verr) && len(verr.Errors) > 0 {
		return verr.Errors[0].Field
	}
	var oerr *override.InvalidRequestError
	if errors.As(err, &oerr) {
		return "override." + oerr.Field
	}
	var cerr *eligibility.ConfigurationError
	if errors.As(err, &cerr) {
		if len(cerr.Missing) > 0 {
			return "snapshot." + strings.Join(cerr.Missing, ",snapshot.")
		}
		if cerr.Field != "" {
			return "snapshot." + cerr.Field
		}
	}
	return ""
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalogs.Snapshot()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrNotLoaded) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, r, status, ErrorDetail{Message: err.Error(), Type: ErrorTypeServiceUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) handleCaseAudit(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	entries, err := s.orch.Trail().Read(r.Context(), caseID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, ErrorDetail{Message: err.Error(), Type: ErrorTypeServerError})
		return
	}
	if len(entries) == 0 {
		writeError(w, r, http.StatusNotFound, ErrorDetail{Message: "no audit entries for case " + caseID, Type: ErrorTypeNotFound})
		return
	}
	writeJSON(w, http.StatusOK, AuditResponse{CaseID: caseID, Count: len(entries), Entries: entries})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	entryID := chi.URLParam(r, "entryID")

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrorDetail{Message: "invalid JSON: " + err.Error(), Type: ErrorTypeInvalidRequest})
		return
	}
	if req.Approved == nil {
		writeError(w, r, http.StatusBadRequest, ErrorDetail{Message: "approved is required", Type: ErrorTypeInvalidRequest, Param: "approved"})
		return
	}

	ctx := logging.WithCase(r.Context(), caseID, "")
	ctx = logging.WithAssessor(ctx, req.Reviewer)

	entry, err := s.orch.Trail().Review(ctx, caseID, entryID, req.Reviewer, *req.Approved, req.Notes)
	if s.metrics != nil {
		s.metrics.RecordAuditWrite(string(audit.KindReview), err)
	}
	if err != nil {
		var recErr *audit.RecordError
		switch {
		case errors.Is(err, audit.ErrNotFound):
			writeError(w, r, http.StatusNotFound, ErrorDetail{Message: err.Error(), Type: ErrorTypeNotFound})
		case errors.As(err, &recErr):
			writeError(w, r, http.StatusBadRequest, ErrorDetail{Message: err.Error(), Type: ErrorTypeInvalidRequest})
		default:
			writeError(w, r, http.StatusInternalServerError, ErrorDetail{Message: err.Error(), Type: ErrorTypeServerError})
		}
		return
	}

	s.logger.InfoContext(ctx, "decision reviewed",
		"entry_id", entry.ID, "review_of", entryID, "approved", *req.Approved)
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	trail := s.orch.Trail()

	entries, err := trail.Read(r.Context(), caseID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, ErrorDetail{Message: err.Error(), Type: ErrorTypeServerError})
		return
	}
	if len(entries) == 0 {
		writeError(w, r, http.StatusNotFound, ErrorDetail{Message: "no audit entries for case " + caseID, Type: ErrorTypeNotFound})
		return
	}

	resp := VerifyResponse{CaseID: caseID, Verified: true, Entries: len(entries)}
	if err := audit.VerifyChain(caseID, entries); err != nil {
		var integrity *audit.IntegrityError
		if !errors.As(err, &integrity) {
			writeError(w, r, http.StatusInternalServerError, ErrorDetail{Message: err.Error(), Type: ErrorTypeServerError})
			return
		}
		resp.Verified = false
		resp.Reason = integrity.Reason
		resp.EntryID = integrity.EntryID
		s.logger.WarnContext(r.Context(), "audit chain verification failed",
			"case_id", caseID, "entry_id", integrity.EntryID, "reason", integrity.Reason)
		writeJSON(w, http.StatusConflict, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err == nil {
		err = query.Prepare(q)
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, ErrorDetail{Message: err.Error(), Type: ErrorTypeInvalidRequest})
		return
	}

	entries, err := s.orch.Trail().Storage().Query(r.Context(), q)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, ErrorDetail{Message: err.Error(), Type: ErrorTypeServerError})
		return
	}
	writeJSON(w, http.StatusOK, AuditResponse{CaseID: q.CaseID, Count: len(entries), Entries: entries})
}

// parseQuery reads audit filters from URL parameters. Times are RFC 3339.
func parseQuery(r *http.Request) (*audit.Query, error) {
	v := r.URL.Query()
	q := &audit.Query{
		CaseID:      v.Get("case_id"),
		Kind:        audit.EntryKind(v.Get("kind")),
		Assessor:    v.Get("assessor"),
		Disposition: v.Get("disposition"),
		Band:        v.Get("band"),
		SortOrder:   v.Get("order"),
	}

	for name, dst := range map[string]**time.Time{"start": &q.StartTime, "end": &q.EndTime} {
		if raw := v.Get(name); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, audit.NewQueryError(q, errors.New(name+" must be an RFC 3339 time"))
			}
			*dst = &t
		}
	}
	for name, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		if raw := v.Get(name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, audit.NewQueryError(q, errors.New(name+" must be an integer"))
			}
			*dst = n
		}
	}
	return q, nil
}
