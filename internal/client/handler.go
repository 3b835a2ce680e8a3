package client

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"agentbook/internal/transport/http/shared"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
)

// Handler serves the /clients routes.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the client routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/clients", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{clientID}", h.handleGet)
		r.Put("/{clientID}", h.handleUpdate)
		r.Delete("/{clientID}", h.handleDeactivate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	page, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.logError(r, "list clients failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, page)
}

func filterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	filter := Filter{
		Search: q.Get("search"),
		State:  q.Get("state"),
		Zip:    q.Get("zip"),
	}

	if raw := q.Get("dual_eligible"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Filter{}, dErrors.New(dErrors.CodeInvalidInput, "dual_eligible must be a boolean")
		}
		filter.DualEligible = &v
	}
	if raw := q.Get("carrier_id"); raw != "" {
		carrierID, err := id.ParseCarrierID(raw)
		if err != nil {
			return Filter{}, err
		}
		filter.CarrierID = &carrierID
	}
	if raw := q.Get("include_inactive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Filter{}, dErrors.New(dErrors.CodeInvalidInput, "include_inactive must be a boolean")
		}
		filter.IncludeInactive = v
	}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return Filter{}, dErrors.New(dErrors.CodeInvalidInput, "limit must be a non-negative integer")
		}
		filter.Limit = v
	}
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return Filter{}, dErrors.New(dErrors.CodeInvalidInput, "offset must be a non-negative integer")
		}
		filter.Offset = v
	}
	return filter, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	c, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.logError(r, "create client failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	c, err := h.svc.Get(r.Context(), clientID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	c, err := h.svc.Update(r.Context(), clientID, input)
	if err != nil {
		h.logError(r, "update client failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.svc.Deactivate(r.Context(), clientID); err != nil {
		h.logError(r, "deactivate client failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
}
