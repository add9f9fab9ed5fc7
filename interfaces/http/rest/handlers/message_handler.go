package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/services"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/auth"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/common"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/utils"
)

// MessageHandler handles message-related HTTP requests
type MessageHandler struct {
	messages     *services.MessageService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messages *services.MessageService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		messages:     messages,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// SendMessageRequest represents the request to send a message
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=8000"`
}

// ListMessages handles GET /sessions/{sessionID}/messages
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	params := common.ExtractPageParams(r)

	page, err := h.messages.ListMessages(r.Context(), user.UserID, sessionID, params.Limit, params.Cursor)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondPage(w, http.StatusOK, page.Messages, page.NextCursor)
}

// SendMessage handles POST /sessions/{sessionID}/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req SendMessageRequest
	if err := common.ParseJSONBody(w, r, &req, maxRequestBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	result, err := h.messages.SendMessage(r.Context(), user.UserID, sessionID, req.Content)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, result)
}
