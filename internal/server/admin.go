package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"pheye/internal/funds"
)

// requireAdmin guards /admin routes with a bearer token. An empty
// configured token disables the whole surface.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AdminToken == "" {
			s.respondError(w, http.StatusForbidden, "admin API disabled")
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.AdminToken)) != 1 {
			s.respondError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recomputeFundsRequest pages through stored articles.
type recomputeFundsRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// handleRecomputeFunds handles POST /admin/recompute-funds. It re-runs
// the classifier over a page of stored rows and persists flips.
func (s *Server) handleRecomputeFunds(w http.ResponseWriter, r *http.Request) {
	req := recomputeFundsRequest{Limit: 200}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if req.Limit <= 0 || req.Limit > 1000 {
		req.Limit = 200
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	articles, err := s.db.Articles().Page(r.Context(), req.Offset, req.Limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "loading articles failed")
		return
	}

	var toTrue, toFalse []string
	for _, a := range articles {
		want := s.opts.Classifier.Classify(a.Title, a.Content)
		if want == a.IsFunds {
			continue
		}
		if want {
			toTrue = append(toTrue, a.ID)
		} else {
			toFalse = append(toFalse, a.ID)
		}
	}
	if len(toTrue) > 0 {
		if err := s.db.Articles().SetIsFunds(r.Context(), toTrue, true); err != nil {
			s.respondError(w, http.StatusInternalServerError, "updating is_funds failed")
			return
		}
	}
	if len(toFalse) > 0 {
		if err := s.db.Articles().SetIsFunds(r.Context(), toFalse, false); err != nil {
			s.respondError(w, http.StatusInternalServerError, "updating is_funds failed")
			return
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"checked":        len(articles),
		"flipped_true":   len(toTrue),
		"flipped_false":  len(toFalse),
		"offset":         req.Offset,
		"limit":          req.Limit,
		"next_offset":    req.Offset + len(articles),
		"more_available": len(articles) == req.Limit,
	})
}

// lexiconSuggestionsRequest merges mined terms into a lexicon category.
type lexiconSuggestionsRequest struct {
	Category string   `json:"category"`
	Terms    []string `json:"terms"`
	Apply    bool     `json:"apply"`
}

// handleLexiconSuggestions handles POST /admin/lexicon/suggestions
func (s *Server) handleLexiconSuggestions(w http.ResponseWriter, r *http.Request) {
	var req lexiconSuggestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Category == "" {
		s.respondError(w, http.StatusBadRequest, "category is required")
		return
	}

	report, err := s.opts.Lexicon.ApplySuggestions(req.Category, req.Terms, req.Apply)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

// handleLexiconReload handles POST /admin/lexicon/reload
func (s *Server) handleLexiconReload(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Lexicon.Reload(); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	snap := s.opts.Lexicon.Snapshot()
	s.respondJSON(w, http.StatusOK, map[string]any{
		"reloaded":   true,
		"version":    snap.Version,
		"categories": snap.CategoryNames(),
	})
}

// handleEntityAnalytics handles GET /analytics/entities. Behind a flag:
// entity extraction over funds articles is an optional deep pass.
func (s *Server) handleEntityAnalytics(w http.ResponseWriter, r *http.Request) {
	if !s.opts.EntityAnalytics {
		s.respondError(w, http.StatusNotFound, "entity analytics disabled")
		return
	}
	limit := queryInt(r, "limit", 100)
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	articles, err := s.db.Articles().Page(r.Context(), queryInt(r, "offset", 0), limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "loading articles failed")
		return
	}

	var results []funds.Analytics
	for _, a := range articles {
		if !a.IsFunds {
			continue
		}
		results = append(results, funds.Extract(a.ID, a.Title, a.Content))
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"articles_checked": len(articles),
		"funds_articles":   len(results),
		"trends":           funds.AnalyzeTrends(results),
		"analytics":        results,
	})
}
