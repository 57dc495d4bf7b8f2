// Package httpapi implements the thin read-only HTTP surface: account
// profile lookups and token search, both simple projections over the
// enrichment reader with no ranking or fan-out involved.
package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"tokenrank/internal/metrics"
	"tokenrank/internal/store"
)

// Handlers wires the profile/search routes onto a mux.
type Handlers struct {
	pg      *store.Postgres
	metrics *metrics.Metrics
	log     *zap.Logger
}

// New constructs the HTTP API handlers.
func New(pg *store.Postgres, m *metrics.Metrics, log *zap.Logger) *Handlers {
	return &Handlers{pg: pg, metrics: m, log: log}
}

// Register adds the profile and search routes to mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /profile/{user}", h.profile)
	mux.HandleFunc("GET /profile/tokens-held/{user}", h.tokensHeld)
	mux.HandleFunc("GET /profile/replies/{user}", h.replies)
	mux.HandleFunc("GET /profile/tokens-created/{user}", h.tokensCreated)
	mux.HandleFunc("GET /profile/followers/{user}", h.followers)
	mux.HandleFunc("GET /profile/following/{user}", h.following)
	mux.HandleFunc("GET /search/{query}", h.search)
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	account, err := h.pg.Profile(r.Context(), user)
	if err != nil {
		h.notFound(w, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"account": account})
}

func (h *Handlers) tokensHeld(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	holdings, err := h.pg.HoldingTokens(r.Context(), user)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tokens": holdings})
}

func (h *Handlers) replies(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	replies, err := h.pg.AccountReplies(r.Context(), user)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"replies": replies})
}

func (h *Handlers) tokensCreated(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	tokens, err := h.pg.CreatedTokens(r.Context(), user)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tokens": tokens})
}

func (h *Handlers) followers(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	followers, err := h.pg.Followers(r.Context(), user)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"followers": followers})
}

func (h *Handlers) following(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	following, err := h.pg.Following(r.Context(), user)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"following": following})
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	query := r.PathValue("query")
	tokens, err := h.pg.Search(r.Context(), query)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tokens": tokens})
}

func (h *Handlers) notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": message})
}

func (h *Handlers) serverError(w http.ResponseWriter, err error) {
	h.log.Error("httpapi: query failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
