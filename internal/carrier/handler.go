package carrier

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agentbook/internal/transport/http/shared"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
)

// Handler serves the /carriers routes.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the carrier routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/carriers", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{carrierID}", h.handleGet)
		r.Put("/{carrierID}", h.handleUpdate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	carriers, err := h.svc.List(r.Context())
	if err != nil {
		h.logError(r, "list carriers failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, carriers)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	c, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.logError(r, "create carrier failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	carrierID, err := id.ParseCarrierID(chi.URLParam(r, "carrierID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	c, err := h.svc.Get(r.Context(), carrierID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	carrierID, err := id.ParseCarrierID(chi.URLParam(r, "carrierID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var input UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	c, err := h.svc.Update(r.Context(), carrierID, input)
	if err != nil {
		h.logError(r, "update carrier failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
}
