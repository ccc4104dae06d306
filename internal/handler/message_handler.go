package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/parleyhq/parley/internal/entity"
	"github.com/parleyhq/parley/internal/middleware"
	"github.com/parleyhq/parley/internal/service"
	"github.com/parleyhq/parley/pkg/errcode"
	"github.com/parleyhq/parley/pkg/response"
)

// MessageHandler handles message-related requests
type MessageHandler struct {
	msgService *service.MessagingService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(msgService *service.MessagingService) *MessageHandler {
	return &MessageHandler{msgService: msgService}
}

// Send handles send message requests
func (h *MessageHandler) Send(ctx context.Context, c *app.RequestContext) {
	subjectId := middleware.GetSubjectId(c)
	if subjectId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req service.SendMessageRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	msg, err := h.msgService.Send(ctx, subjectId, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	middleware.IncMessageSent()
	response.Success(ctx, c, msg.ToMessageInfo())
}

// List handles message history requests
func (h *MessageHandler) List(ctx context.Context, c *app.RequestContext) {
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

	before, _ := strconv.ParseInt(c.Query("before"), 10, 64)
	after, _ := strconv.ParseInt(c.Query("after"), 10, 64)
	afterSeq, _ := strconv.ParseInt(c.Query("after_seq"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	req := &service.ListMessagesRequest{
		ConversationId: conversationId,
		Limit:          limit,
		Before:         before,
		After:          after,
		AfterSeq:       afterSeq,
	}

	messages, maxSeq, err := h.msgService.List(ctx, subjectId, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	msgInfos := make([]*entity.MessageInfo, 0, len(messages))
	for _, msg := range messages {
		msgInfos = append(msgInfos, msg.ToMessageInfo())
	}

	response.Success(ctx, c, map[string]interface{}{
		"messages": msgInfos,
		"max_seq":  maxSeq,
	})
}

// MaxSeq handles max seq requests, the cheap probe the client polls with
func (h *MessageHandler) MaxSeq(ctx context.Context, c *app.RequestContext) {
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

	maxSeq, err := h.msgService.MaxSeq(ctx, subjectId, conversationId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"max_seq": maxSeq,
	})
}
