package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/parleyhq/parley/internal/entity"
	"github.com/parleyhq/parley/internal/ownership"
	"github.com/parleyhq/parley/internal/repository"
	"github.com/parleyhq/parley/pkg/constant"
	"github.com/parleyhq/parley/pkg/errcode"
	"github.com/parleyhq/parley/pkg/idgen"
)

// MessagingService handles message append and retrieval
type MessagingService struct {
	actors      ActorStore
	convs       ConversationStore
	memberships MembershipStore
	messages    MessageStore
	authorizer  ownership.Authorizer
	notifier    Notifier
}

// NewMessagingService creates a new MessagingService
func NewMessagingService(actors ActorStore, convs ConversationStore, memberships MembershipStore, messages MessageStore, authorizer ownership.Authorizer) *MessagingService {
	return &MessagingService{
		actors:      actors,
		convs:       convs,
		memberships: memberships,
		messages:    messages,
		authorizer:  authorizer,
	}
}

// SetNotifier sets the out-of-band notifier
func (s *MessagingService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SendMessageRequest represents a send message request. Either ConversationId
// (existing thread) or PeerSubjectId (first contact) must be set.
type SendMessageRequest struct {
	ConversationId string `json:"conversation_id,omitempty"`
	PeerSubjectId  string `json:"peer_subject_id,omitempty"`
	ClientMsgId    string `json:"client_msg_id"`
	AsOrganization string `json:"as_organization,omitempty"`
	Content        string `json:"content,omitempty"`
	MediaUrl       string `json:"media_url,omitempty"`
	MediaType      int32  `json:"media_type,omitempty"`
}

// Send appends a message authored by the caller, or by an organization the
// caller is cleared to speak for. Duplicate sends (same sender and
// client_msg_id) return the original row.
func (s *MessagingService) Send(ctx context.Context, senderSubjectId string, req *SendMessageRequest) (*entity.Message, error) {
	if req.ClientMsgId == "" {
		return nil, errcode.ErrInvalidParam
	}
	if req.Content == "" && req.MediaUrl == "" {
		return nil, errcode.ErrPayloadInvalid
	}

	existing, err := s.messages.GetByClientMsgId(ctx, senderSubjectId, req.ClientMsgId)
	if err != nil {
		log.CtxError(ctx, "send idempotency check failed: %v", err)
		return nil, errcode.ErrTransientStore.Wrap(err)
	}
	if existing != nil {
		log.CtxDebug(ctx, "duplicate message: client_msg_id=%s", req.ClientMsgId)
		return existing, nil
	}

	conv, err := s.resolveConversation(ctx, senderSubjectId, req)
	if err != nil {
		return nil, err
	}

	if !entity.PairingKeyContains(conv.PairingKey, senderSubjectId) {
		return nil, errcode.ErrNotConversationParty
	}

	actor, err := s.resolveAuthoringActor(ctx, senderSubjectId, req.AsOrganization, conv)
	if err != nil {
		return nil, err
	}

	partnerSubjectId := entity.PairingKeyPartner(conv.PairingKey, senderSubjectId)

	msgId, err := idgen.NextID()
	if err != nil {
		return nil, errcode.ErrInternalServer.Wrap(err)
	}

	msg := &entity.Message{
		Id:               msgId,
		ConversationId:   conv.Id,
		ClientMsgId:      req.ClientMsgId,
		AuthoringActorId: actor.Id,
		SenderSubjectId:  senderSubjectId,
		MediaType:        req.MediaType,
	}
	if req.Content != "" {
		msg.Content = &req.Content
	}
	if req.MediaUrl != "" {
		msg.MediaUrl = &req.MediaUrl
		if msg.MediaType == 0 {
			msg.MediaType = constant.MediaTypeFile
		}
	}
	if msg.MediaType == 0 {
		msg.MediaType = constant.MediaTypeText
	}

	senderRow := &entity.Membership{
		ConversationId:       conv.Id,
		ParticipantSubjectId: senderSubjectId,
		PartnerSubjectId:     partnerSubjectId,
	}
	partnerRow := &entity.Membership{
		ConversationId:       conv.Id,
		ParticipantSubjectId: partnerSubjectId,
		PartnerSubjectId:     senderSubjectId,
	}

	msg, err = s.messages.Append(ctx, msg, senderRow, partnerRow)
	if err != nil {
		if e, ok := err.(*errcode.Error); ok {
			return nil, e
		}
		log.CtxError(ctx, "append message failed: %v", err)
		return nil, errcode.ErrSendFailed
	}

	// The sender has read their own message.
	if err := s.memberships.MarkRead(ctx, conv.Id, senderSubjectId, msg.Seq, msg.CreatedAt); err != nil {
		log.CtxWarn(ctx, "advance sender read watermark failed: %v", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(msg, partnerSubjectId)
	}

	log.CtxInfo(ctx, "message sent: conversation_id=%s, actor_id=%s, seq=%d", conv.Id, actor.Id, msg.Seq)
	return msg, nil
}

func (s *MessagingService) resolveConversation(ctx context.Context, senderSubjectId string, req *SendMessageRequest) (*entity.Conversation, error) {
	if req.ConversationId != "" {
		conv, err := s.convs.GetById(ctx, req.ConversationId)
		if err != nil {
			log.CtxError(ctx, "get conversation failed: %v", err)
			return nil, errcode.ErrTransientStore.Wrap(err)
		}
		if conv == nil {
			return nil, errcode.ErrConvNotFound
		}
		return conv, nil
	}

	if req.PeerSubjectId == "" || req.PeerSubjectId == senderSubjectId {
		return nil, errcode.ErrInvalidParam
	}

	return getOrCreateConversation(ctx, s.convs, senderSubjectId, req.PeerSubjectId, req.AsOrganization)
}

// resolveAuthoringActor returns the actor the message speaks as. Organization
// authorship requires clearance from the external ownership service and an
// organization-mediated conversation under that organization's namespace.
func (s *MessagingService) resolveAuthoringActor(ctx context.Context, senderSubjectId, asOrganization string, conv *entity.Conversation) (*entity.Actor, error) {
	if asOrganization == "" {
		actor, err := s.actors.Resolve(ctx, senderSubjectId, constant.ActorKindPerson)
		if err != nil {
			log.CtxError(ctx, "resolve person actor failed: %v", err)
			return nil, errcode.ErrActorResolutionFailed.Wrap(err)
		}
		return actor, nil
	}

	if conv.OrgId != asOrganization {
		return nil, errcode.ErrActorNotAuthorized
	}

	allowed, err := s.authorizer.MayActAs(ctx, senderSubjectId, asOrganization)
	if err != nil {
		log.CtxError(ctx, "ownership check failed: subject=%s, org=%s, err=%v", senderSubjectId, asOrganization, err)
		return nil, errcode.ErrTransientStore.Wrap(err)
	}
	if !allowed {
		return nil, errcode.ErrActorNotAuthorized
	}

	actor, err := s.actors.Resolve(ctx, asOrganization, constant.ActorKindOrganization)
	if err != nil {
		log.CtxError(ctx, "resolve organization actor failed: %v", err)
		return nil, errcode.ErrActorResolutionFailed.Wrap(err)
	}
	return actor, nil
}

// ListMessagesRequest represents a list messages request. Before/After are
// created_at cursors; AfterSeq pages on the append sequence instead, which
// cannot skip a message when two share a millisecond.
type ListMessagesRequest struct {
	ConversationId string `json:"conversation_id"`
	Limit          int    `json:"limit"`
	Before         int64  `json:"before"`
	After          int64  `json:"after"`
	AfterSeq       int64  `json:"after_seq"`
}

// List returns a page of messages visible to the caller. The caller's
// clear-history watermark is always applied; the other participant's view is
// unaffected.
func (s *MessagingService) List(ctx context.Context, callerSubjectId string, req *ListMessagesRequest) ([]*entity.Message, int64, error) {
	if req.ConversationId == "" {
		return nil, 0, errcode.ErrInvalidParam
	}

	conv, err := s.convs.GetById(ctx, req.ConversationId)
	if err != nil {
		log.CtxError(ctx, "get conversation failed: %v", err)
		return nil, 0, errcode.ErrTransientStore.Wrap(err)
	}
	if conv == nil {
		return nil, 0, errcode.ErrConvNotFound
	}
	if !entity.PairingKeyContains(conv.PairingKey, callerSubjectId) {
		return nil, 0, errcode.ErrNotConversationParty
	}

	var clearedBefore int64
	membership, err := s.memberships.Get(ctx, conv.Id, callerSubjectId)
	if err != nil {
		log.CtxError(ctx, "get membership failed: %v", err)
		return nil, 0, errcode.ErrTransientStore.Wrap(err)
	}
	if membership != nil {
		clearedBefore = membership.ClearedBeforeOrZero()
	}

	messages, err := s.messages.List(ctx, conv.Id, repository.ListQuery{
		Limit:         req.Limit,
		Before:        req.Before,
		After:         req.After,
		AfterSeq:      req.AfterSeq,
		ClearedBefore: clearedBefore,
	})
	if err != nil {
		log.CtxError(ctx, "list messages failed: %v", err)
		return nil, 0, errcode.ErrTransientStore.Wrap(err)
	}

	maxSeq, err := s.messages.MaxSeq(ctx, conv.Id)
	if err != nil {
		log.CtxError(ctx, "get max seq failed: %v", err)
		return nil, 0, errcode.ErrTransientStore.Wrap(err)
	}

	return messages, maxSeq, nil
}

// MaxSeq returns the conversation's append sequence high-water mark, the
// cheap probe polled by clients to detect new activity.
func (s *MessagingService) MaxSeq(ctx context.Context, callerSubjectId, conversationId string) (int64, error) {
	conv, err := s.convs.GetById(ctx, conversationId)
	if err != nil {
		return 0, errcode.ErrTransientStore.Wrap(err)
	}
	if conv == nil {
		return 0, errcode.ErrConvNotFound
	}
	if !entity.PairingKeyContains(conv.PairingKey, callerSubjectId) {
		return 0, errcode.ErrNotConversationParty
	}

	maxSeq, err := s.messages.MaxSeq(ctx, conversationId)
	if err != nil {
		return 0, errcode.ErrTransientStore.Wrap(err)
	}
	return maxSeq, nil
}

// getOrCreateConversation derives the pairing key for the pair (namespaced by
// the mediating organization when present) and returns the single
// conversation behind it.
func getOrCreateConversation(ctx context.Context, convs ConversationStore, subjectA, subjectB, orgId string) (*entity.Conversation, error) {
	var pairingKey string
	kind := int32(constant.ConversationKindPersonal)
	if orgId != "" {
		pairingKey = entity.DeriveOrgPairingKey(orgId, subjectA, subjectB)
		kind = constant.ConversationKindOrg
	} else {
		pairingKey = entity.DerivePairingKey(subjectA, subjectB)
	}

	id, err := idgen.NextID()
	if err != nil {
		return nil, errcode.ErrInternalServer.Wrap(err)
	}

	conv, err := convs.GetOrCreate(ctx, &entity.Conversation{
		Id:         id,
		PairingKey: pairingKey,
		Kind:       kind,
		OrgId:      orgId,
	})
	if err != nil {
		log.CtxError(ctx, "get or create conversation failed: %v", err)
		return nil, errcode.ErrTransientStore.Wrap(err)
	}
	return conv, nil
}
