package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/crateview/pkg/crate"
	"github.com/matzehuels/crateview/pkg/errors"
	"github.com/matzehuels/crateview/pkg/navigator"
	"github.com/matzehuels/crateview/pkg/search"
)

type openRequest struct {
	Locator string `json:"locator"`
	Name    string `json:"name"`
	First   *bool  `json:"first"` // default true
	Text    string `json:"text"`
}

type nestedRequest struct {
	Reference string `json:"reference"`
}

// navResponse is returned by every navigation action.
type navResponse struct {
	Nav navigator.Nav `json:"nav"`
}

type entitySummary struct {
	ID     string   `json:"id"`
	Types  []string `json:"types,omitempty"`
	Name   string   `json:"name,omitempty"`
	Nested bool     `json:"nested,omitempty"`
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !s.decode(w, r, &req) {
		return
	}
	nav := sessionFrom(r.Context()).Navigator

	ref := req.Locator
	if req.Text != "" {
		if s.opts.Texts == nil {
			jsonError(w, "pasted documents are not enabled", string(errors.ErrCodeInvalidInput), http.StatusBadRequest)
			return
		}
		loc, err := s.opts.Texts.AddText([]byte(req.Text))
		if err != nil {
			s.fail(w, err)
			return
		}
		ref = loc.Base
	}
	first := req.First == nil || *req.First

	if _, err := nav.OpenPackage(r.Context(), ref, req.Name, first); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navResponse{Nav: nav.Nav()})
}

func (s *Server) handleNested(w http.ResponseWriter, r *http.Request) {
	var req nestedRequest
	if !s.decode(w, r, &req) {
		return
	}
	nav := sessionFrom(r.Context()).Navigator
	if _, err := nav.OpenNestedPackage(r.Context(), req.Reference); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navResponse{Nav: nav.Nav()})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	nav := sessionFrom(r.Context()).Navigator
	if _, err := nav.GoBack(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navResponse{Nav: nav.Nav()})
}

func (s *Server) handleBreadcrumb(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonError(w, "breadcrumb index must be an integer", string(errors.ErrCodeInvalidInput), http.StatusBadRequest)
		return
	}
	nav := sessionFrom(r.Context()).Navigator
	if _, err := nav.GoToBreadcrumb(r.Context(), index); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navResponse{Nav: nav.Nav()})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	nav := sessionFrom(r.Context()).Navigator
	if _, err := nav.Reload(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navResponse{Nav: nav.Nav()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	nav := sessionFrom(r.Context()).Navigator
	nav.Reset()
	writeJSON(w, http.StatusOK, navResponse{Nav: nav.Nav()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := s.store.Delete(r.Context(), sess.ID); err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Del(SessionHeader)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, navResponse{Nav: sessionFrom(r.Context()).Navigator.Nav()})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	t := sessionFrom(r.Context()).Navigator.Tree()
	if t == nil {
		s.fail(w, navigator.ErrNoPackage)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	nav := sessionFrom(r.Context()).Navigator
	if nav.Current() == nil {
		s.fail(w, navigator.ErrNoPackage)
		return
	}
	ents := nav.Entities()
	out := make([]entitySummary, 0, len(ents))
	for _, e := range ents {
		out = append(out, summarize(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": out})
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || id == "" {
		jsonError(w, "invalid entity id", string(errors.ErrCodeInvalidInput), http.StatusBadRequest)
		return
	}
	nav := sessionFrom(r.Context()).Navigator
	if nav.Current() == nil {
		s.fail(w, navigator.ErrNoPackage)
		return
	}
	view, ok := nav.Entity(id)
	if !ok {
		jsonError(w, "no entity "+strconv.Quote(id), string(errors.ErrCodeNotFound), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHints(w http.ResponseWriter, r *http.Request) {
	nav := sessionFrom(r.Context()).Navigator
	if nav.Current() == nil {
		s.fail(w, navigator.ErrNoPackage)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hints": nav.LinkHints()})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := s.opts.SearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", string(errors.ErrCodeInvalidInput), http.StatusBadRequest)
			return
		}
		limit = n
	}
	results := sessionFrom(r.Context()).Navigator.Search(r.Context(), q, limit)
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "results": results})
}

func summarize(e *crate.Entity) entitySummary {
	return entitySummary{ID: e.ID, Types: e.Types, Name: e.Name(), Nested: e.IsNestedCrate()}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), string(errors.ErrCodeInvalidInput), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Error("request failed", "err", err)
	}
	code := errors.GetCode(err)
	if ai, ok := errors.AsAlreadyIndexed(err); ok && code == "" {
		code = ai.Code()
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}
	jsonError(w, errors.UserMessage(err), string(code), status)
}

func statusFor(err error) int {
	if _, ok := errors.AsAlreadyIndexed(err); ok {
		return http.StatusConflict
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidCrate:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeFetch, errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeAlreadyIndexed, errors.ErrCodeSuperseded, errors.ErrCodeNoHistory:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg, code string, status int) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}
