// Package api provides the HTTP handlers for the location-sharing REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"whereabouts/internal/domain"
	"whereabouts/internal/middleware"
	"whereabouts/internal/service"
)

// Handler serves the /v1 API. The caller identity set by the identity
// middleware is both the location owner for writes and the viewer for
// reads.
type Handler struct {
	sharing  *service.SharingService
	ingest   *service.IngestService
	resolver *service.VisibilityService
	hub      *service.Hub
	logger   *slog.Logger
}

func NewHandler(
	sharing *service.SharingService,
	ingest *service.IngestService,
	resolver *service.VisibilityService,
	hub *service.Hub,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		sharing:  sharing,
		ingest:   ingest,
		resolver: resolver,
		hub:      hub,
		logger:   logger,
	}
}

type putLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

type shareEntryResponse struct {
	Owner       string   `json:"owner"`
	SharedWith  []string `json:"sharedWith"`
	IsSharing   bool     `json:"isSharing"`
	LastUpdated int64    `json:"lastUpdated"`
}

type putSharingRequest struct {
	Enabled *bool `json:"enabled"`
}

type locationsResponse struct {
	Locations []domain.LocationSample `json:"locations"`
}

func shareEntryToAPI(e *domain.ShareGraphEntry) shareEntryResponse {
	return shareEntryResponse{
		Owner:       e.Owner,
		SharedWith:  e.Grantees,
		IsSharing:   e.SharingEnabled,
		LastUpdated: e.LastUpdated.UnixMilli(),
	}
}

// PutLocation handles PUT /v1/location: uploads the caller's current
// position. A missing timestamp defaults to the server clock.
func (h *Handler) PutLocation(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.IdentityFromContext(r.Context())

	var req putLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if req.Timestamp == 0 {
		req.Timestamp = time.Now().UnixMilli()
	}

	sample := &domain.LocationSample{
		Owner:            owner,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		CapturedAtMillis: req.Timestamp,
	}
	if err := h.ingest.Ingest(r.Context(), sample); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListLocations handles GET /v1/locations: the samples visible to the
// caller.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	viewer, _ := middleware.IdentityFromContext(r.Context())

	samples, err := h.resolver.VisibleTo(r.Context(), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, locationsResponse{Locations: samples})
}

// WatchLocations handles GET /v1/locations/watch: a server-sent event
// stream of visibility snapshots. Each event carries the full visible
// set; the stream ends when the client disconnects.
func (h *Handler) WatchLocations(w http.ResponseWriter, r *http.Request) {
	viewer, _ := middleware.IdentityFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := h.hub.Subscribe(r.Context(), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-sub.Updates():
			if !ok {
				return
			}
			if snap.Err != nil {
				h.logger.Warn("watch snapshot failed", "viewer", viewer, "error", snap.Err)
				continue
			}
			payload, err := json.Marshal(locationsResponse{Locations: snap.Samples})
			if err != nil {
				h.logger.Warn("encode snapshot", "error", err)
				continue
			}
			if _, err := w.Write(append([]byte("data: "), append(payload, '\n', '\n')...)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// GetShares handles GET /v1/shares: the caller's share entry.
func (h *Handler) GetShares(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.IdentityFromContext(r.Context())

	entry, err := h.sharing.Get(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shareEntryToAPI(entry))
}

// PutShare handles PUT /v1/shares/{grantee}: grants the grantee
// visibility of the caller's location.
func (h *Handler) PutShare(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.IdentityFromContext(r.Context())
	grantee := chi.URLParam(r, "grantee")

	if err := h.sharing.Share(r.Context(), owner, grantee); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteShare handles DELETE /v1/shares/{grantee}.
func (h *Handler) DeleteShare(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.IdentityFromContext(r.Context())
	grantee := chi.URLParam(r, "grantee")

	if err := h.sharing.Unshare(r.Context(), owner, grantee); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutSharing handles PUT /v1/sharing: flips the caller's sharing
// toggle.
func (h *Handler) PutSharing(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.IdentityFromContext(r.Context())

	var req putSharingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if req.Enabled == nil {
		writeError(w, domain.ErrValidation("enabled is required"))
		return
	}

	if err := h.sharing.SetSharingEnabled(r.Context(), owner, *req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
