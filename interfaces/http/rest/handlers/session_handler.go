package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/services"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/auth"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/common"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/utils"
)

// maxRequestBodyBytes bounds JSON request bodies.
const maxRequestBodyBytes = 64 * 1024

// SessionHandler handles session-related HTTP requests
type SessionHandler struct {
	sessions     *services.SessionService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions *services.SessionService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:     sessions,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateSessionRequest represents the request to create a session
type CreateSessionRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// RenameSessionRequest represents the request to rename a session
type RenameSessionRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// BulkDeleteSessionsRequest represents the request to delete multiple
// sessions
type BulkDeleteSessionsRequest struct {
	SessionIDs []string `json:"session_ids" validate:"required,min=1,max=100,dive,uuid"`
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req CreateSessionRequest
	if err := common.ParseJSONBody(w, r, &req, maxRequestBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), user.UserID, req.Title)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, session)
}

// GetSession handles GET /sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.sessions.GetSession(r.Context(), user.UserID, sessionID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, session)
}

// SessionListResponse carries a page of sessions plus the owner's total.
type SessionListResponse struct {
	Sessions []*chat.Session `json:"sessions"`
	Total    int             `json:"total"`
}

// ListSessions handles GET /sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	params := common.ExtractPageParams(r)
	search := r.URL.Query().Get("search")

	sessions, err := h.sessions.ListSessions(r.Context(), user.UserID, params.Limit, search)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	total, err := h.sessions.CountSessions(r.Context(), user.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, &SessionListResponse{
		Sessions: sessions,
		Total:    total,
	})
}

// SearchSessions handles GET /search
func (h *SessionHandler) SearchSessions(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	params := common.ExtractPageParams(r)
	query := r.URL.Query().Get("q")

	sessions, err := h.sessions.SearchSessions(r.Context(), user.UserID, query, params.Limit)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, sessions)
}

// RenameSession handles PATCH /sessions/{sessionID}
func (h *SessionHandler) RenameSession(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req RenameSessionRequest
	if err := common.ParseJSONBody(w, r, &req, maxRequestBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.sessions.RenameSession(r.Context(), user.UserID, sessionID, req.Title)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, session)
}

// DeleteSession handles DELETE /sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if err := h.sessions.DeleteSession(r.Context(), user.UserID, sessionID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteSessions handles POST /sessions/bulk-delete
func (h *SessionHandler) BulkDeleteSessions(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req BulkDeleteSessionsRequest
	if err := common.ParseJSONBody(w, r, &req, maxRequestBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	result, err := h.sessions.BulkDeleteSessions(r.Context(), user.UserID, req.SessionIDs)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}
