package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/parleyhq/parley/internal/middleware"
	"github.com/parleyhq/parley/internal/service"
	"github.com/parleyhq/parley/pkg/errcode"
	"github.com/parleyhq/parley/pkg/response"
)

// ConversationHandler handles conversation-related requests
type ConversationHandler struct {
	convService *service.ConversationService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(convService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

// Start handles get-or-create conversation requests
func (h *ConversationHandler) Start(ctx context.Context, c *app.RequestContext) {
	subjectId := middleware.GetSubjectId(c)
	if subjectId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req service.StartConversationRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	view, err := h.convService.Start(ctx, subjectId, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, view)
}

// List handles inbox requests
func (h *ConversationHandler) List(ctx context.Context, c *app.RequestContext) {
	subjectId := middleware.GetSubjectId(c)
	if subjectId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	includeArchived := c.Query("include_archived") == "true"

	entries, err := h.convService.Inbox(ctx, subjectId, includeArchived)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"conversations": entries,
	})
}

// Info handles single conversation detail requests
func (h *ConversationHandler) Info(ctx context.Context, c *app.RequestContext) {
	subjectId := middleware.GetSubjectId(c)
	if subjectId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	conversationId := c.Query("conversation_id")
	if conversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	view, err := h.convService.Get(ctx, subjectId, conversationId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, view)
}

// MarkReadRequest represents a mark read request
type MarkReadRequest struct {
	ConversationId       string `json:"conversation_id"`
	ParticipantSubjectId string `json:"participant_subject_id"`
}

// MarkRead handles read watermark updates
func (h *ConversationHandler) MarkRead(ctx context.Context, c *app.RequestContext) {
	subjectId := middleware.GetSubjectId(c)
	if subjectId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req MarkReadRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}
	if req.ConversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}
	if req.ParticipantSubjectId == "" {
		req.ParticipantSubjectId = subjectId
	}

	if err := h.convService.MarkRead(ctx, subjectId, req.ParticipantSubjectId, req.ConversationId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}

// VisibilityRequest represents a membership visibility update request
type VisibilityRequest struct {
	ConversationId       string `json:"conversation_id"`
	ParticipantSubjectId string `json:"participant_subject_id"`
	Muted                *bool  `json:"muted"`
	Archived             *bool  `json:"archived"`
	ClearHistory         *bool  `json:"clear_history"`
}

// Visibility handles mute/archive/clear updates on the caller's own membership
func (h *ConversationHandler) Visibility(ctx context.Context, c *app.RequestContext) {
	subjectId := middleware.GetSubjectId(c)
	if subjectId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req VisibilityRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}
	if req.ConversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}
	if req.ParticipantSubjectId == "" {
		req.ParticipantSubjectId = subjectId
	}

	patch := &service.VisibilityPatch{
		Muted:        req.Muted,
		Archived:     req.Archived,
		ClearHistory: req.ClearHistory,
	}
	if err := h.convService.SetVisibility(ctx, subjectId, req.ParticipantSubjectId, req.ConversationId, patch); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}

// RestoreHistoryRequest represents a request to undo a history clear
type RestoreHistoryRequest struct {
	ConversationId string `json:"conversation_id"`
}

// RestoreHistory handles restore history requests
func (h *ConversationHandler) RestoreHistory(ctx context.Context, c *app.RequestContext) {
	subjectId := middleware.GetSubjectId(c)
	if subjectId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req RestoreHistoryRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}
	if req.ConversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.convService.RestoreHistory(ctx, subjectId, req.ConversationId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}
