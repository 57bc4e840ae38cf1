package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/fcnquote/internal/contracts"
	"github.com/wonny/fcnquote/internal/snapshot"
	"github.com/wonny/fcnquote/pkg/logger"
)

// SnapshotHandler handles snapshot admin endpoints
type SnapshotHandler struct {
	store  *snapshot.Store
	logger *logger.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(store *snapshot.Store, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		store:  store,
		logger: log,
	}
}

// UploadRequest carries a full snapshot upload
type UploadRequest struct {
	Observations []*contracts.Observation `json:"observations"`
}

// Upload replaces the snapshot for a date
// POST /api/snapshots/{date}
func (h *SnapshotHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date := mux.Vars(r)["date"]

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Observations) == 0 {
		respondError(w, http.StatusBadRequest, "At least one observation is required")
		return
	}

	if err := h.store.Put(ctx, date, req.Observations); err != nil {
		h.logger.WithError(err).WithField("date", date).Error("Failed to save snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to save snapshot")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"date": date,
		"rows": len(req.Observations),
	}).Info("Snapshot uploaded")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"date":   date,
		"rows":   len(req.Observations),
	})
}

// Delete removes the snapshot for a date
// DELETE /api/snapshots/{date}
func (h *SnapshotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date := mux.Vars(r)["date"]

	if err := h.store.Delete(ctx, date); err != nil {
		if errors.Is(err, contracts.ErrNoSnapshot) {
			respondError(w, http.StatusNotFound, "No snapshot for the requested date")
			return
		}
		h.logger.WithError(err).WithField("date", date).Error("Failed to delete snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to delete snapshot")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"date":   date,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
