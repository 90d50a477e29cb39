package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/tphummel/lessee/internal/leasing"
	"github.com/tphummel/lessee/internal/metrics"
	"github.com/tphummel/lessee/internal/models"
)

const maxBodyBytes = 64 * 1024

// maxLeaseMinutes bounds the duration field before it is converted, so the
// conversion cannot overflow.
const maxLeaseMinutes = int(leasing.MaxLeaseDuration / time.Minute)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping() error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	Svc     *leasing.Service
	DB      Pinger
	Version string
	Commit  string
}

type hardwareRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Platform string `json:"platform"`
}

type leaseRequest struct {
	Platform string `json:"platform"`
	Duration *int   `json:"duration"` // minutes
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeValidation reports per-field input errors.
func writeValidation(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}

// decode reads a JSON body into v, writing the error response itself when it
// fails.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// writeServiceError maps leasing errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, leasing.ErrUnknownPlatform), errors.Is(err, leasing.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, leasing.ErrDuplicateHardware), errors.Is(err, leasing.ErrNoHardwareAvailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, leasing.ErrHardwareNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

// Health handles GET /healthz.
// Returns 503 if the database is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
		"commit":  h.Commit,
	})
}

// ListPlatforms handles GET /api/v1/platforms.
func (h *Handler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.Svc.ListPlatforms(r.Context())
	if err != nil {
		writeServiceError(w, err, "list platforms")
		return
	}
	if platforms == nil {
		platforms = []*models.Platform{}
	}
	writeJSON(w, http.StatusOK, platforms)
}

// ListHardware handles GET /api/v1/hardware with an optional ?platform= filter.
func (h *Handler) ListHardware(w http.ResponseWriter, r *http.Request) {
	hardware, err := h.Svc.ListHardware(r.Context(), r.URL.Query().Get("platform"))
	if err != nil {
		writeServiceError(w, err, "list hardware")
		return
	}
	writeJSON(w, http.StatusOK, hardware)
}

// GetHardware handles GET /api/v1/hardware/{id}.
func (h *Handler) GetHardware(w http.ResponseWriter, r *http.Request) {
	hw, err := h.Svc.GetHardware(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "get hardware")
		return
	}
	writeJSON(w, http.StatusOK, hw)
}

// CreateHardware handles POST /api/v1/hardware.
func (h *Handler) CreateHardware(w http.ResponseWriter, r *http.Request) {
	var req hardwareRequest
	if !decode(w, r, &req) {
		return
	}

	fields := map[string]string{}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		fields["name"] = "required"
	}
	if req.Address == "" {
		fields["address"] = "required"
	} else if addr, err := netip.ParseAddr(strings.TrimSpace(req.Address)); err != nil {
		fields["address"] = "must be an IP address"
	} else {
		req.Address = addr.String()
	}
	if req.Platform == "" {
		fields["platform"] = "required"
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}

	hw, err := h.Svc.CreateHardware(r.Context(), req.Name, req.Address, req.Platform)
	if err != nil {
		writeServiceError(w, err, "create hardware")
		return
	}
	writeJSON(w, http.StatusCreated, hw)
}

// ListLeases handles GET /api/v1/leases with an optional ?active= filter.
func (h *Handler) ListLeases(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid active filter")
			return
		}
		activeOnly = b
	}

	leases, err := h.Svc.ListLeases(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, err, "list leases")
		return
	}
	writeJSON(w, http.StatusOK, leases)
}

// CreateLease handles POST /api/v1/leases. Duration is given in minutes.
func (h *Handler) CreateLease(w http.ResponseWriter, r *http.Request) {
	var req leaseRequest
	if !decode(w, r, &req) {
		metrics.ObserveAllocation(metrics.ResultRejected)
		return
	}

	fields := map[string]string{}
	if req.Platform == "" {
		fields["platform"] = "required"
	}
	switch {
	case req.Duration == nil:
		fields["duration"] = "required"
	case *req.Duration <= 0:
		fields["duration"] = "must be a positive number of minutes"
	case *req.Duration > maxLeaseMinutes:
		fields["duration"] = fmt.Sprintf("must be at most %d minutes", maxLeaseMinutes)
	}
	if len(fields) > 0 {
		metrics.ObserveAllocation(metrics.ResultRejected)
		writeValidation(w, fields)
		return
	}

	lease, err := h.Svc.Allocate(r.Context(), req.Platform, time.Duration(*req.Duration)*time.Minute)
	switch {
	case err == nil:
		metrics.ObserveAllocation(metrics.ResultGranted)
	case errors.Is(err, leasing.ErrNoHardwareAvailable):
		metrics.ObserveAllocation(metrics.ResultUnavailable)
	case errors.Is(err, leasing.ErrUnknownPlatform), errors.Is(err, leasing.ErrInvalidDuration):
		metrics.ObserveAllocation(metrics.ResultRejected)
	default:
		metrics.ObserveAllocation(metrics.ResultError)
	}
	if err != nil {
		writeServiceError(w, err, "create lease")
		return
	}
	writeJSON(w, http.StatusCreated, lease)
}
