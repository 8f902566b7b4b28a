package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"pheye/internal/cache"
	"pheye/internal/persistence"
	"pheye/internal/queue"
)

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "pheye",
		"status":  "running",
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if err := s.db.Ping(r.Context()); err != nil {
		checks["database"] = "error"
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"checks": checks,
		})
		return
	}
	checks["database"] = "ok"

	s.respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"checks": checks,
	})
}

// scrapeRunRequest accepts a single source or a list; empty means all
// enabled sources.
type scrapeRunRequest struct {
	Source  string   `json:"source"`
	Sources []string `json:"sources"`
}

// handleScrapeRun handles POST /scrape/run
func (s *Server) handleScrapeRun(w http.ResponseWriter, r *http.Request) {
	var req scrapeRunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	sources := req.Sources
	if req.Source != "" {
		sources = append(sources, req.Source)
	}
	if len(sources) == 0 {
		for _, source := range s.opts.Registry.Sources() {
			if adapter, ok := s.opts.Registry.Get(source); ok && !adapter.Disabled() {
				sources = append(sources, source)
			}
		}
	}

	type job struct {
		Source string `json:"source"`
		TaskID string `json:"task_id"`
	}
	var jobs []job
	for _, source := range sources {
		if _, ok := s.opts.Registry.Get(source); !ok {
			s.respondError(w, http.StatusBadRequest, "unknown source: "+source)
			return
		}
		taskID, err := s.opts.Tasks.Enqueue(r.Context(), queue.ScrapeTaskType(source), nil)
		if err != nil {
			s.respondError(w, http.StatusBadGateway, "enqueueing scrape failed")
			return
		}
		jobs = append(jobs, job{Source: source, TaskID: taskID})
	}

	s.respondJSON(w, http.StatusAccepted, map[string]any{
		"queued": true,
		"jobs":   jobs,
	})
}

// handleScrapeStatus handles GET /scrape/status/{taskID}
func (s *Server) handleScrapeStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	result, err := s.opts.Tasks.Status(r.Context(), taskID)
	if errors.Is(err, redis.Nil) {
		s.respondError(w, http.StatusNotFound, "unknown or expired task")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "reading task status failed")
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// analyzeRequest selects articles either explicitly or by cutoff. Both
// empty means everything inserted in the last 24 hours.
type analyzeRequest struct {
	ArticleIDs []string `json:"article_ids"`
	Since      string   `json:"since"`
}

// handleAnalyze handles POST /ml/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	var taskID string
	var err error
	count := len(req.ArticleIDs)
	switch {
	case len(req.ArticleIDs) > 0:
		taskID, err = s.opts.Tasks.Enqueue(r.Context(), queue.TaskAnalyze, queue.AnalyzePayload{ArticleIDs: req.ArticleIDs})
	default:
		since := time.Now().UTC().Add(-24 * time.Hour)
		if req.Since != "" {
			since, err = time.Parse(time.RFC3339, req.Since)
			if err != nil {
				s.respondError(w, http.StatusBadRequest, "since must be RFC 3339")
				return
			}
		}
		// A cutoff is expanded to concrete IDs before enqueue, so the
		// reported article count is exact.
		var ids []string
		ids, err = s.db.Articles().IDsSince(r.Context(), since)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "selecting articles failed")
			return
		}
		count = len(ids)
		taskID, err = s.opts.Tasks.Enqueue(r.Context(), queue.TaskAnalyze, queue.AnalyzePayload{ArticleIDs: ids})
	}
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "enqueueing analysis failed")
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]any{
		"queued":        true,
		"task_id":       taskID,
		"article_count": count,
	})
}

// handleRecentLogs handles GET /logs/recent
func (s *Server) handleRecentLogs(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	limit := queryInt(r, "limit", 20)

	logs, err := s.opts.Recorder.Recent(r.Context(), source, limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "loading run logs failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// handleGetLog handles GET /logs/{runID}
func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := s.opts.Recorder.Get(r.Context(), runID)
	if err != nil || run == nil {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

// handleListArticles handles GET /articles
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := persistence.ListOptions{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
		SortBy: q.Get("sort"),
		Order:  q.Get("order"),
		Filter: map[string]string{},
	}
	for _, key := range []string{"source", "category", "is_funds"} {
		if v := q.Get(key); v != "" {
			opts.Filter[key] = v
		}
	}

	cacheKey := cache.Key("articles",
		q.Get("source"), q.Get("category"), q.Get("is_funds"),
		strconv.Itoa(opts.Limit), strconv.Itoa(opts.Offset), opts.SortBy, opts.Order)
	var cached map[string]any
	if s.opts.Cache.Get(r.Context(), cacheKey, &cached) {
		s.respondJSON(w, http.StatusOK, cached)
		return
	}

	articles, err := s.db.Articles().List(r.Context(), opts)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "listing articles failed")
		return
	}
	total, err := s.db.Articles().Count(r.Context(), opts)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "counting articles failed")
		return
	}

	body := map[string]any{
		"articles": articles,
		"total":    total,
		"limit":    opts.Limit,
		"offset":   opts.Offset,
	}
	s.opts.Cache.Set(r.Context(), cacheKey, body)
	s.respondJSON(w, http.StatusOK, body)
}

// handleArticleAnalysis handles GET /articles/{id}/analysis
func (s *Server) handleArticleAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	article, err := s.db.Articles().Get(r.Context(), id)
	if err != nil || article == nil {
		s.respondError(w, http.StatusNotFound, "article not found")
		return
	}

	analyses, err := s.db.BiasAnalyses().GetByArticle(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "loading analyses failed")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"article":  article,
		"analyses": analyses,
	})
}

// handleSentimentTrends handles GET /trends/sentiment
func (s *Server) handleSentimentTrends(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)

	cacheKey := cache.Key("trends_sentiment", strconv.Itoa(days))
	var cached map[string]any
	if s.opts.Cache.Get(r.Context(), cacheKey, &cached) {
		s.respondJSON(w, http.StatusOK, cached)
		return
	}

	report, err := s.opts.Trends.SentimentTrends(r.Context(), days, 0)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "computing trends failed")
		return
	}
	s.opts.Cache.Set(r.Context(), cacheKey, report)
	s.respondJSON(w, http.StatusOK, report)
}

// handleBiasSummary handles GET /bias/summary
func (s *Server) handleBiasSummary(w http.ResponseWriter, r *http.Request) {
	cacheKey := cache.Key("bias_summary")
	var cached map[string]any
	if s.opts.Cache.Get(r.Context(), cacheKey, &cached) {
		s.respondJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := s.opts.Trends.BiasSummary(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "computing bias summary failed")
		return
	}
	s.opts.Cache.Set(r.Context(), cacheKey, summary)
	s.respondJSON(w, http.StatusOK, summary)
}

// handleDashboard handles GET /dashboard/comprehensive
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)

	cacheKey := cache.Key("dashboard", strconv.Itoa(days))
	var cached map[string]any
	if s.opts.Cache.Get(r.Context(), cacheKey, &cached) {
		s.respondJSON(w, http.StatusOK, cached)
		return
	}

	dashboard, err := s.opts.Trends.Dashboard(r.Context(), days)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "assembling dashboard failed")
		return
	}
	s.opts.Cache.Set(r.Context(), cacheKey, dashboard)
	s.respondJSON(w, http.StatusOK, dashboard)
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("encoding response failed", "error", err.Error())
	}
}

// respondError writes a JSON error body
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
