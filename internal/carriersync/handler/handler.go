// Package handler exposes the sync engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agentbook/internal/carriersync"
	"agentbook/internal/transport/http/shared"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
)

// Service is the engine surface the handler needs.
type Service interface {
	RunSync(ctx context.Context, carrierID id.CarrierID, carrierName string, members []carriersync.PortalMember) (*carriersync.SyncResult, error)
	SyncCarrier(ctx context.Context, carrierID id.CarrierID, session carriersync.PortalSession) (*carriersync.SyncResult, error)
	SyncAll(ctx context.Context, sessions map[string]carriersync.PortalSession) (*carriersync.SyncAllOutcome, error)
	GetSyncLogs(ctx context.Context, carrierID *id.CarrierID) ([]carriersync.SyncLogEntry, error)
}

// Handler serves the /sync routes.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// New constructs a Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the sync routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/sync", func(r chi.Router) {
		r.Post("/carriers/{carrierID}", h.handleSyncCarrier)
		r.Post("/carriers/{carrierID}/reconcile", h.handleReconcile)
		r.Post("/all", h.handleSyncAll)
		r.Get("/logs", h.handleListLogs)
	})
}

type syncCarrierRequest struct {
	Session carriersync.PortalSession `json:"session"`
}

type reconcileRequest struct {
	CarrierName string                     `json:"carrier_name"`
	Members     []carriersync.PortalMember `json:"members"`
}

type syncAllRequest struct {
	Sessions map[string]carriersync.PortalSession `json:"sessions"`
}

func (h *Handler) handleSyncCarrier(w http.ResponseWriter, r *http.Request) {
	carrierID, err := id.ParseCarrierID(chi.URLParam(r, "carrierID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req syncCarrierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.svc.SyncCarrier(r.Context(), carrierID, req.Session)
	if err != nil {
		h.logError(r, "sync carrier failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	carrierID, err := id.ParseCarrierID(chi.URLParam(r, "carrierID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.CarrierName == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "carrier_name is required"))
		return
	}

	result, err := h.svc.RunSync(r.Context(), carrierID, req.CarrierName, req.Members)
	if err != nil {
		h.logError(r, "reconcile failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	var req syncAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	outcome, err := h.svc.SyncAll(r.Context(), req.Sessions)
	if err != nil {
		h.logError(r, "sync all failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, outcome)
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	var carrierID *id.CarrierID
	if raw := r.URL.Query().Get("carrier_id"); raw != "" {
		parsed, err := id.ParseCarrierID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		carrierID = &parsed
	}

	logs, err := h.svc.GetSyncLogs(r.Context(), carrierID)
	if err != nil {
		h.logError(r, "list sync logs failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, logs)
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
}
