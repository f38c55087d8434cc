// Package api exposes the HTTP surface: generation, post retrieval, the
// approve/reject links embedded in reviewer emails, and usage reporting.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muriloWeber/linkedin-content-agent/internal/generator"
	"github.com/muriloWeber/linkedin-content-agent/internal/storage"
	"github.com/muriloWeber/linkedin-content-agent/internal/usage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Generator abstracts the post pipeline for the HTTP layer.
type Generator interface {
	GenerateAndPersist(ctx context.Context, req generator.Request) (generator.Result, error)
}

// Approvals abstracts the review state transitions.
type Approvals interface {
	Approve(id string) error
	Reject(id, reason string) (string, error)
}

// Deps carries everything the handlers need.
type Deps struct {
	Store     *storage.Store
	Generator Generator
	Approvals Approvals
	Usage     *usage.Aggregator
	Gatherer  prometheus.Gatherer
}

// NewHandler builds the full router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/", handleWelcome())
	r.Get("/health", handleHealth())
	r.Post("/generate_post", handleGeneratePost(deps))
	r.Get("/get_post/{id}", handleGetPost(deps))
	r.Get("/posts", handleListPosts(deps))
	r.Get("/approve_post/{id}", handleApprovePost(deps))
	r.Get("/reject_post/{id}", handleRejectPost(deps))
	r.Get("/metrics", handleUsageMetrics(deps))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/prometheus", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

type GenerateRequest struct {
	Topic        string `json:"topic"`
	Tone         string `json:"tone"`
	Length       int    `json:"length"`
	CallToAction string `json:"call_to_action"`
	SessionID    string `json:"session_id"`
}

type postResponse struct {
	ID              string   `json:"id"`
	SessionID       string   `json:"session_id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Hashtags        []string `json:"hashtags"`
	Status          string   `json:"status"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

func toPostResponse(p storage.Post) postResponse {
	hashtags := p.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	return postResponse{
		ID:              p.ID,
		SessionID:       p.SessionID,
		Title:           p.Title,
		Content:         p.Content,
		Hashtags:        hashtags,
		Status:          p.Status,
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}

func handleWelcome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "LinkedIn content agent is running",
		})
	}
}

func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleGeneratePost(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req GenerateRequest
		// An empty body is a valid request for a fully defaulted post.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Length < 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "length must be positive")
			return
		}

		res, err := deps.Generator.GenerateAndPersist(r.Context(), generator.Request{
			Topic:        req.Topic,
			Tone:         req.Tone,
			Length:       req.Length,
			CallToAction: req.CallToAction,
			SessionID:    req.SessionID,
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to generate post: %v", err)
			return
		}

		respondJSON(w, http.StatusCreated, map[string]any{
			"post":         toPostResponse(res.Post),
			"notification": res.Notification,
		})
	}
}

func handleGetPost(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		post, err := deps.Store.GetPost(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "post not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get post: %v", err)
			return
		}

		respondJSON(w, http.StatusOK, toPostResponse(post))
	}
}

func handleListPosts(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		posts, err := deps.Store.ListPosts(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list posts: %v", err)
			return
		}

		out := make([]postResponse, 0, len(posts))
		for _, p := range posts {
			out = append(out, toPostResponse(p))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func handleApprovePost(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Approvals.Approve(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "post not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to approve post: %v", err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{
			"status":  storage.StatusApproved,
			"post_id": id,
		})
	}
}

func handleRejectPost(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		reason := r.URL.Query().Get("reason")

		recorded, err := deps.Approvals.Reject(id, reason)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "post not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to reject post: %v", err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{
			"status":  storage.StatusRejected,
			"post_id": id,
			"reason":  recorded,
		})
	}
}

func handleUsageMetrics(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := deps.Usage.Compute()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to compute usage report: %v", err)
			return
		}

		respondJSON(w, http.StatusOK, report)
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	respondJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
