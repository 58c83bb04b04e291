package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ppiankov/crosscheck/internal/logging"
	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/pipeline"
	"github.com/ppiankov/crosscheck/internal/rules"
	"github.com/ppiankov/crosscheck/internal/validate"
	"go.uber.org/zap"
)

// multipart parts above this size spill to temporary files
const formMemory = 32 << 20

type missingColumnsResponse struct {
	Error   string           `json:"error"`
	Kind    model.RecordKind `json:"kind"`
	Columns []string         `json:"columns"`
}

type rulesResponse struct {
	Kind  model.RecordKind `json:"kind"`
	Rules []rules.Rule     `json:"rules"`
}

type lookupResponse struct {
	Category string                  `json:"category,omitempty"`
	Entries  []model.AuthorityAgency `json:"entries"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCheck evaluates an uploaded registry and returns the report
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if s.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer func() { _ = file.Close() }()

	kind, ok := parseKind(r.FormValue("kind"))
	if !ok {
		writeError(w, http.StatusBadRequest, "kind must be one of: auto, case, clue")
		return
	}

	report, err := s.checker.CheckReader(r.Context(), header.Filename, file, kind)
	if err != nil {
		s.respondCheckError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) respondCheckError(w http.ResponseWriter, r *http.Request, err error) {
	var missing *validate.MissingColumnError
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, missingColumnsResponse{
			Error:   missing.Error(),
			Kind:    missing.Kind,
			Columns: missing.Columns,
		})
	case errors.Is(err, pipeline.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, pipeline.ErrFilenameRejected),
		errors.Is(err, pipeline.ErrUnsupportedFormat),
		errors.Is(err, pipeline.ErrNoHeader),
		errors.Is(err, pipeline.ErrUnreadable):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.FromContext(r.Context(), s.logger).Error("check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "check failed")
	}
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	kinds := []model.RecordKind{model.KindCase, model.KindClue}
	if k := r.URL.Query().Get("kind"); k != "" {
		kind := model.RecordKind(strings.ToLower(k))
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "kind must be case or clue")
			return
		}
		kinds = []model.RecordKind{kind}
	}

	out := make([]rulesResponse, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, rulesResponse{Kind: kind, Rules: s.catalog.Rules(kind)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if s.lookup == nil {
		writeError(w, http.StatusNotFound, "no lookup table configured")
		return
	}
	category := r.URL.Query().Get("category")
	entries := s.lookup.List(category)
	if entries == nil {
		entries = []model.AuthorityAgency{}
	}
	writeJSON(w, http.StatusOK, lookupResponse{Category: category, Entries: entries})
}

// parseKind maps the form value to a record kind; "" and "auto" detect the
// kind from the header
func parseKind(v string) (model.RecordKind, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "auto":
		return "", true
	case string(model.KindCase):
		return model.KindCase, true
	case string(model.KindClue):
		return model.KindClue, true
	default:
		return "", false
	}
}
