package insights

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/stratix/import-engine/internal/auth"

	"github.com/google/uuid"
)

// Handler serves the read-only insight rollups.
type Handler struct {
	service *Service
}

// NewHandler wraps the insights service with HTTP endpoints.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register wires the insight endpoints onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/insights/overview", h.handleOverview)
	mux.HandleFunc("GET /api/insights/areas/{name}", h.handleArea)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("tenantId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid tenant id: %v", err), http.StatusBadRequest)
		return
	}

	if err := auth.EnforceTenantScope(r.Context(), tenantID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	overview, err := h.service.Overview(r.Context(), tenantID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *Handler) handleArea(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("tenantId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid tenant id: %v", err), http.StatusBadRequest)
		return
	}

	if err := auth.EnforceTenantScope(r.Context(), tenantID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		http.Error(w, "area name is required", http.StatusBadRequest)
		return
	}

	kpis, err := h.service.Area(r.Context(), tenantID, name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
