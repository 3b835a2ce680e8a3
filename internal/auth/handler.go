package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"agentbook/internal/transport/http/shared"
	dErrors "agentbook/pkg/domain-errors"
	"agentbook/pkg/requestcontext"
)

// Handler serves the /auth routes.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterPublic mounts the unauthenticated login route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

// RegisterProtected mounts routes that require a session.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/auth/me", h.handleWhoami)
	r.Post("/auth/password", h.handleChangePassword)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type whoamiResponse struct {
	AgentID    string `json:"agent_id"`
	Username   string `json:"username"`
	AgencyName string `json:"agency_name,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	// The login route sits outside RequireAuth, so client metadata is not in
	// the context yet.
	ctx := requestcontext.WithClientMetadata(r.Context(), clientIP(r), r.UserAgent())
	result, err := h.svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	agentID := requestcontext.AgentID(r.Context())
	if err := h.svc.ChangePassword(r.Context(), agentID, req.CurrentPassword, req.NewPassword); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleWhoami(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Whoami(r.Context(), requestcontext.AgentID(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, whoamiResponse{
		AgentID:    settings.AgentID.String(),
		Username:   settings.Username,
		AgencyName: settings.AgencyName,
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}
