// Package api provides HTTP API handlers and standardized error handling.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/loopcrew/loopfeed/internal/middleware"
	"github.com/loopcrew/loopfeed/internal/recommend"
	"github.com/loopcrew/loopfeed/internal/store"
)

// maxLimit caps the limit query parameter so one request cannot demand an
// unbounded ranking.
const maxLimit = 100

// RecommendationHandlers serves the personalized and trending ranking routes.
type RecommendationHandlers struct {
	service *recommend.Service
	logger  *slog.Logger
}

// NewRecommendationHandlers creates handlers over the ranking service.
func NewRecommendationHandlers(service *recommend.Service, logger *slog.Logger) *RecommendationHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationHandlers{
		service: service,
		logger:  logger,
	}
}

// RecommendationsResponse is the JSON body for every ranking endpoint.
// The list is ordered best first and empty (never null) when nothing ranks.
type RecommendationsResponse struct {
	Recommendations []string `json:"recommendations"`
}

// Recommendations handles GET /recommendations/{surface}/{viewerID} where
// surface is posts, videos, or users. An optional limit query parameter caps
// the result size (default 20 for content, 10 for users, max 100).
func (h *RecommendationHandlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/recommendations/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[1] == "" || strings.Contains(parts[1], "/") {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Not found")
		return
	}
	surface, viewerID := parts[0], parts[1]

	ctx := middleware.SetViewerID(r.Context(), viewerID)
	middleware.UpdateResponseContext(w, ctx)

	var ids []string
	switch surface {
	case "posts":
		limit, err := parseLimit(r, recommend.DefaultContentLimit)
		if err != nil {
			ctx = middleware.SetErrorCode(ctx, ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		ids = h.service.RecommendPosts(ctx, viewerID, limit)
	case "videos":
		limit, err := parseLimit(r, recommend.DefaultContentLimit)
		if err != nil {
			ctx = middleware.SetErrorCode(ctx, ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		ids = h.service.RecommendVideos(ctx, viewerID, limit)
	case "users":
		limit, err := parseLimit(r, recommend.DefaultUserLimit)
		if err != nil {
			ctx = middleware.SetErrorCode(ctx, ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		ids = h.service.RecommendUsers(ctx, viewerID, limit)
	default:
		ctx = middleware.SetErrorCode(ctx, ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Unknown recommendation surface")
		return
	}

	h.writeRecommendations(w, ids)
}

// Trending handles GET /trending/{kind} where kind is posts or videos.
// This is the anonymous entry point: no viewer, popularity signal only.
func (h *RecommendationHandlers) Trending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var kind store.ContentKind
	switch strings.TrimPrefix(r.URL.Path, "/trending/") {
	case "posts":
		kind = store.KindPost
	case "videos":
		kind = store.KindVideo
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Not found")
		return
	}

	limit, err := parseLimit(r, recommend.DefaultContentLimit)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	ids := h.service.TrendingContent(r.Context(), kind, limit)
	h.writeRecommendations(w, ids)
}

// RegisterRoutes attaches the ranking routes to the given mux. A non-nil
// recommendLimit wraps only the recommendation routes, which carry a tighter
// rate limit class than the rest of the API; trending stays on the global
// class.
func (h *RecommendationHandlers) RegisterRoutes(mux *http.ServeMux, recommendLimit func(http.Handler) http.Handler) {
	var recommendations http.Handler = http.HandlerFunc(h.Recommendations)
	if recommendLimit != nil {
		recommendations = recommendLimit(recommendations)
	}
	mux.Handle("/recommendations/", recommendations)
	mux.HandleFunc("/trending/", h.Trending)
}

func (h *RecommendationHandlers) writeRecommendations(w http.ResponseWriter, ids []string) {
	if ids == nil {
		ids = []string{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(RecommendationsResponse{Recommendations: ids}); err != nil {
		h.logger.Error("failed to encode recommendations response", "error", err)
	}
}

// limitError is returned for unparsable or out-of-range limit parameters.
type limitError string

func (e limitError) Error() string { return string(e) }

// parseLimit reads the optional limit query parameter. Absent means the
// surface default; values above maxLimit are clamped rather than rejected.
func parseLimit(r *http.Request, defaultLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, limitError("limit must be a positive integer")
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, nil
}
