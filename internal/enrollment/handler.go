package enrollment

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agentbook/internal/transport/http/shared"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
)

// Handler serves the /enrollments routes.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the enrollment routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/enrollments", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{enrollmentID}", h.handleGet)
		r.Put("/{enrollmentID}", h.handleUpdate)
		r.Post("/{enrollmentID}/reactivate", h.handleReactivate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var clientID *id.ClientID
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		parsed, err := id.ParseClientID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		clientID = &parsed
	}

	enrollments, err := h.svc.List(r.Context(), clientID)
	if err != nil {
		h.logError(r, "list enrollments failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, enrollments)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	e, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.logError(r, "create enrollment failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := id.ParseEnrollmentID(chi.URLParam(r, "enrollmentID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	e, err := h.svc.Get(r.Context(), enrollmentID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := id.ParseEnrollmentID(chi.URLParam(r, "enrollmentID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var input UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	e, err := h.svc.Update(r.Context(), enrollmentID, input)
	if err != nil {
		h.logError(r, "update enrollment failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := id.ParseEnrollmentID(chi.URLParam(r, "enrollmentID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	e, err := h.svc.Reactivate(r.Context(), enrollmentID)
	if err != nil {
		h.logError(r, "reactivate enrollment failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
}
