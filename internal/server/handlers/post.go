package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"brandpulse/internal/domain/post"
)

// PostStore defines the post persistence the ingest endpoints need.
type PostStore interface {
	SavePost(ctx context.Context, p post.Post) error
	ArchiveAccount(ctx context.Context, accountSetID, accountHandle string) (int64, error)
	RestoreAccount(ctx context.Context, accountSetID, accountHandle string) (int64, error)
}

// PostHandler handles post ingest and account archival requests. The
// collector layer feeding these endpoints lives outside this service.
type PostHandler struct {
	store PostStore
}

// NewPostHandler creates a new post handler.
func NewPostHandler(store PostStore) *PostHandler {
	return &PostHandler{store: store}
}

// postRequest is the ingest payload supplied by the collector.
type postRequest struct {
	ID            string    `json:"id"`
	AccountSetID  string    `json:"account_set_id"`
	Platform      string    `json:"platform"`
	AccountHandle string    `json:"account_handle"`
	IsOwn         bool      `json:"is_own"`
	Caption       string    `json:"caption"`
	MediaType     string    `json:"media_type"`
	Likes         *int64    `json:"likes"`
	Comments      *int64    `json:"comments"`
	Saves         *int64    `json:"saves"`
	Shares        *int64    `json:"shares"`
	Views         *int64    `json:"views"`
	FollowerCount int64     `json:"follower_count"`
	CollectedAt   time.Time `json:"collected_at"`

	HookType         string   `json:"hook_type"`
	ContentPattern   string   `json:"content_pattern"`
	EmotionalTrigger string   `json:"emotional_trigger"`
	Hashtags         []string `json:"hashtags"`
	AudioID          string   `json:"audio_id"`
}

// IngestPost upserts one collected post.
func (h *PostHandler) IngestPost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.AccountSetID == "" || req.AccountHandle == "" {
		respondWithError(w, http.StatusBadRequest, "Missing account set or account handle", nil)
		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	p := post.Post{
		ID:            req.ID,
		AccountSetID:  req.AccountSetID,
		Platform:      req.Platform,
		AccountHandle: req.AccountHandle,
		IsOwn:         req.IsOwn,
		Caption:       req.Caption,
		MediaType:     req.MediaType,
		Likes:         req.Likes,
		Comments:      req.Comments,
		Saves:         req.Saves,
		Shares:        req.Shares,
		Views:         req.Views,
		FollowerCount: req.FollowerCount,
		CollectedAt:   req.CollectedAt,
		Annotations: post.Annotations{
			HookType:         req.HookType,
			ContentPattern:   req.ContentPattern,
			EmotionalTrigger: req.EmotionalTrigger,
		},
		Hashtags: req.Hashtags,
		AudioID:  req.AudioID,
	}

	if err := h.store.SavePost(r.Context(), p); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save post", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"id": p.ID})
}

// ArchiveAccount soft-deletes every post of an account. Posts stay in place
// and can be restored instantly.
func (h *PostHandler) ArchiveAccount(w http.ResponseWriter, r *http.Request) {
	accountSetID := chi.URLParam(r, "accountSet")
	handle := chi.URLParam(r, "handle")
	if accountSetID == "" || handle == "" {
		respondWithError(w, http.StatusBadRequest, "Missing account set or account handle", nil)
		return
	}

	archived, err := h.store.ArchiveAccount(r.Context(), accountSetID, handle)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to archive account", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int64{"archived": archived})
}

// RestoreAccount reverses ArchiveAccount.
func (h *PostHandler) RestoreAccount(w http.ResponseWriter, r *http.Request) {
	accountSetID := chi.URLParam(r, "accountSet")
	handle := chi.URLParam(r, "handle")
	if accountSetID == "" || handle == "" {
		respondWithError(w, http.StatusBadRequest, "Missing account set or account handle", nil)
		return
	}

	restored, err := h.store.RestoreAccount(r.Context(), accountSetID, handle)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to restore account", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int64{"restored": restored})
}
