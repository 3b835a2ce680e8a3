package conversation

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agentbook/internal/transport/http/shared"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
)

// Handler serves the /conversations routes and the per-client timeline.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the conversation routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Put("/{conversationID}", h.handleUpdate)
		r.Get("/follow-ups", h.handleFollowUps)
	})
	r.Get("/clients/{clientID}/conversations", h.handleListByClient)
	r.Get("/clients/{clientID}/timeline", h.handleTimeline)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	c, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.logError(r, "create conversation failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	conversationID, err := id.ParseConversationID(chi.URLParam(r, "conversationID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	c, err := h.svc.Update(r.Context(), conversationID, input)
	if err != nil {
		h.logError(r, "update conversation failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleFollowUps(w http.ResponseWriter, r *http.Request) {
	followUps, err := h.svc.PendingFollowUps(r.Context())
	if err != nil {
		h.logError(r, "list follow-ups failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, followUps)
}

func (h *Handler) handleListByClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	conversations, err := h.svc.ListByClient(r.Context(), clientID)
	if err != nil {
		h.logError(r, "list conversations failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, conversations)
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	timeline, err := h.svc.Timeline(r.Context(), clientID)
	if err != nil {
		h.logError(r, "build timeline failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, timeline)
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
}
