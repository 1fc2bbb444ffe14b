package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/stratix/import-engine/internal/auth"
	"github.com/stratix/import-engine/internal/domain"
	"github.com/stratix/import-engine/internal/repository"
	"github.com/stratix/import-engine/internal/storage"

	"github.com/google/uuid"
)

// Handler exposes the job lifecycle operations over HTTP.
type Handler struct {
	service *Service
	jobs    repository.ImportJobRepository
	tenants repository.TenantRepository
	blobs   storage.BlobStore
}

// NewHandler wraps the orchestrator and job store with HTTP endpoints.
func NewHandler(service *Service, jobs repository.ImportJobRepository, tenants repository.TenantRepository, blobs storage.BlobStore) *Handler {
	return &Handler{service: service, jobs: jobs, tenants: tenants, blobs: blobs}
}

// requireTenant rejects job creation for tenants that do not exist.
func (h *Handler) requireTenant(r *http.Request, tenantID uuid.UUID) (int, error) {
	if err := auth.EnforceTenantScope(r.Context(), tenantID); err != nil {
		return http.StatusForbidden, err
	}
	if _, err := h.tenants.GetByID(r.Context(), tenantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return http.StatusNotFound, fmt.Errorf("tenant %s not found", tenantID)
		}
		return http.StatusInternalServerError, err
	}
	return 0, nil
}

// Register wires the import endpoints onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/imports", h.handleUpload)
	mux.HandleFunc("POST /api/imports/notify", h.handleNotify)
	mux.HandleFunc("GET /api/imports", h.handleList)
	mux.HandleFunc("GET /api/imports/stats", h.handleStats)
	mux.HandleFunc("GET /api/imports/{id}", h.handleGet)
}

// handleUpload accepts a multipart file and runs it synchronously when
// small enough; larger files are persisted to the blob store and
// processed in the background.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	tenantID, err := uuid.Parse(strings.TrimSpace(r.FormValue("tenantId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid tenant id: %v", err), http.StatusBadRequest)
		return
	}
	if status, err := h.requireTenant(r, tenantID); err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	uploaderID, err := uuid.Parse(strings.TrimSpace(r.FormValue("uploaderId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid uploader id: %v", err), http.StatusBadRequest)
		return
	}

	payload, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	// Multipart writers and browsers commonly declare a generic part
	// type; the file extension is the better signal then.
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || strings.EqualFold(contentType, "application/octet-stream") {
		if fromName := contentTypeFromName(header.Filename); fromName != "" {
			contentType = fromName
		}
	}

	tracker := h.service.Tracker()
	totalRows, err := tracker.CountRows(payload, contentType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	objectKey := fmt.Sprintf("imports/%s/%s", uuid.New(), path.Base(header.Filename))
	if err := h.blobs.Upload(r.Context(), objectKey, payload, contentType); err != nil {
		http.Error(w, fmt.Sprintf("failed to store upload: %v", err), http.StatusBadGateway)
		return
	}

	job, err := tracker.CreateJob(r.Context(), tenantID, uploaderID, objectKey, header.Filename, contentType, int64(len(payload)), Checksum(payload))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if totalRows <= h.service.SyncRowLimit() {
		summary, err := h.service.ImportSync(r.Context(), job, payload)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, http.StatusOK, summary)
		return
	}

	h.service.EnqueueAsync(job)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId":     job.ID,
		"status":    job.Status,
		"totalRows": totalRows,
	})
}

// notifyRequest is the "notify the engine" leg of the upload handshake:
// the file already sits in the blob store under objectKey.
type notifyRequest struct {
	TenantID    uuid.UUID `json:"tenantId"`
	UploaderID  uuid.UUID `json:"uploaderId"`
	ObjectKey   string    `json:"objectKey"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
}

func (h *Handler) handleNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.TenantID == uuid.Nil {
		http.Error(w, "tenantId is required", http.StatusBadRequest)
		return
	}
	if status, err := h.requireTenant(r, req.TenantID); err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	if strings.TrimSpace(req.ObjectKey) == "" {
		http.Error(w, "objectKey is required", http.StatusBadRequest)
		return
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = path.Base(req.ObjectKey)
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = contentTypeFromName(fileName)
	}

	job, err := h.service.Tracker().CreateJob(r.Context(), req.TenantID, req.UploaderID, req.ObjectKey, fileName, contentType, req.SizeBytes, "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.service.EnqueueAsync(job)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId":  job.ID,
		"status": job.Status,
	})
}

// jobResponse pairs the job record with its row-level items.
type jobResponse struct {
	Job   domain.ImportJob       `json:"job"`
	Items []domain.ImportJobItem `json:"items"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid job id: %v", err), http.StatusBadRequest)
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := auth.EnforceTenantScope(r.Context(), job.TenantID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	items, err := h.jobs.ListItems(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, jobResponse{Job: job, Items: items})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("tenantId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid tenant id: %v", err), http.StatusBadRequest)
		return
	}

	if err := auth.EnforceTenantScope(r.Context(), tenantID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid limit: %v", err), http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	jobs, err := h.jobs.ListByTenant(r.Context(), tenantID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("tenantId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid tenant id: %v", err), http.StatusBadRequest)
		return
	}

	if err := auth.EnforceTenantScope(r.Context(), tenantID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	stats, err := h.jobs.Stats(r.Context(), tenantID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// contentTypeFromName maps a file name to a declared content type when
// the upload did not carry one.
func contentTypeFromName(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return ""
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
