package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/parleyhq/parley/internal/entity"
	"github.com/parleyhq/parley/internal/ownership"
	"github.com/parleyhq/parley/pkg/constant"
	"github.com/parleyhq/parley/pkg/errcode"
)

// ConversationService handles conversation lookup and per-participant
// visibility state.
type ConversationService struct {
	actors      ActorStore
	convs       ConversationStore
	memberships MembershipStore
	messages    MessageStore
	authorizer  ownership.Authorizer
}

// NewConversationService creates a new ConversationService
func NewConversationService(actors ActorStore, convs ConversationStore, memberships MembershipStore, messages MessageStore, authorizer ownership.Authorizer) *ConversationService {
	return &ConversationService{
		actors:      actors,
		convs:       convs,
		memberships: memberships,
		messages:    messages,
		authorizer:  authorizer,
	}
}

// StartConversationRequest represents a get-or-create conversation request
type StartConversationRequest struct {
	PeerSubjectId  string `json:"peer_subject_id"`
	AsOrganization string `json:"as_organization,omitempty"`
}

// Start returns the single conversation between the caller and the peer
// (namespaced by organization when the caller initiates on one's behalf),
// creating it on first contact. Issued twice concurrently it yields one row;
// both callers receive the same conversation id.
func (s *ConversationService) Start(ctx context.Context, callerSubjectId string, req *StartConversationRequest) (*entity.ConversationView, error) {
	if req.PeerSubjectId == "" || req.PeerSubjectId == callerSubjectId {
		return nil, errcode.ErrInvalidParam
	}

	if req.AsOrganization != "" {
		allowed, err := s.authorizer.MayActAs(ctx, callerSubjectId, req.AsOrganization)
		if err != nil {
			log.CtxError(ctx, "ownership check failed: %v", err)
			return nil, errcode.ErrTransientStore.Wrap(err)
		}
		if !allowed {
			return nil, errcode.ErrActorNotAuthorized
		}
		if _, err := s.actors.Resolve(ctx, req.AsOrganization, constant.ActorKindOrganization); err != nil {
			return nil, errcode.ErrActorResolutionFailed.Wrap(err)
		}
	} else {
		if _, err := s.actors.Resolve(ctx, callerSubjectId, constant.ActorKindPerson); err != nil {
			return nil, errcode.ErrActorResolutionFailed.Wrap(err)
		}
	}

	conv, err := getOrCreateConversation(ctx, s.convs, callerSubjectId, req.PeerSubjectId, req.AsOrganization)
	if err != nil {
		return nil, err
	}

	// Only the caller's own membership row is written here; the peer's row
	// appears when the first message lands or when the peer first visits.
	if err := s.memberships.Upsert(ctx, &entity.Membership{
		ConversationId:       conv.Id,
		ParticipantSubjectId: callerSubjectId,
		PartnerSubjectId:     req.PeerSubjectId,
	}); err != nil {
		log.CtxError(ctx, "upsert membership failed: %v", err)
		return nil, errcode.ErrTransientStore.Wrap(err)
	}

	return s.buildView(ctx, conv, callerSubjectId)
}

// Get returns the caller's view of one conversation
func (s *ConversationService) Get(ctx context.Context, callerSubjectId, conversationId string) (*entity.ConversationView, error) {
	conv, err := s.requireParty(ctx, callerSubjectId, conversationId)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, conv, callerSubjectId)
}

func (s *ConversationService) buildView(ctx context.Context, conv *entity.Conversation, callerSubjectId string) (*entity.ConversationView, error) {
	view := &entity.ConversationView{
		ConversationId:   conv.Id,
		Kind:             conv.Kind,
		OrgId:            conv.OrgId,
		PartnerSubjectId: entity.PairingKeyPartner(conv.PairingKey, callerSubjectId),
		CreatedAt:        conv.CreatedAt,
	}

	membership, err := s.memberships.Get(ctx, conv.Id, callerSubjectId)
	if err != nil {
		return nil, errcode.ErrTransientStore.Wrap(err)
	}
	if membership != nil {
		view.Muted = membership.Muted
		view.Archived = membership.IsArchived()
		view.ClearedBefore = membership.ClearedBefore
		view.LastReadSeq = membership.LastReadSeq
		view.LastReadAt = membership.LastReadAt
	}

	if view.MaxSeq, err = s.messages.MaxSeq(ctx, conv.Id); err != nil {
		return nil, errcode.ErrTransientStore.Wrap(err)
	}
	if view.UnreadCount, err = s.memberships.UnreadCount(ctx, conv.Id, callerSubjectId); err != nil {
		return nil, errcode.ErrTransientStore.Wrap(err)
	}

	return view, nil
}

// Inbox computes the caller's conversation list, newest activity first.
// Archival is a "hide until something new happens" state: any membership
// whose conversation saw a message after archived_at is unarchived here,
// lazily, before filtering. Archived rows are excluded unless requested.
func (s *ConversationService) Inbox(ctx context.Context, callerSubjectId string, includeArchived bool) ([]*entity.InboxEntry, error) {
	rows, err := s.memberships.Inbox(ctx, callerSubjectId)
	if err != nil {
		log.CtxError(ctx, "inbox query failed: subject=%s, err=%v", callerSubjectId, err)
		return nil, errcode.ErrTransientStore.Wrap(err)
	}

	entries := make([]*entity.InboxEntry, 0, len(rows))
	for _, row := range rows {
		if row.IsArchived() && row.LastMessageAt > *row.ArchivedAt {
			if err := s.memberships.Unarchive(ctx, row.ConversationId, callerSubjectId); err != nil {
				log.CtxWarn(ctx, "lazy unarchive failed: conversation_id=%s, err=%v", row.ConversationId, err)
			} else {
				row.ArchivedAt = nil
			}
		}

		if row.IsArchived() && !includeArchived {
			continue
		}

		entries = append(entries, &entity.InboxEntry{
			ConversationId:     row.ConversationId,
			PartnerSubjectId:   row.PartnerSubjectId,
			LastMessagePreview: previewOf(row),
			LastMessageAt:      row.LastMessageAt,
			UnreadCount:        row.UnreadCount,
			Muted:              row.Muted,
			Archived:           row.IsArchived(),
		})
	}

	return entries, nil
}

func previewOf(row *entity.InboxRow) string {
	if row.LastMessagePreview != nil && *row.LastMessagePreview != "" {
		return *row.LastMessagePreview
	}
	if row.LastMessageMediaType > 0 && row.LastMessageMediaType != constant.MediaTypeText {
		return "[" + constant.MediaTypeName(row.LastMessageMediaType) + "]"
	}
	return ""
}

// MarkRead advances the caller's read watermark to the conversation's current
// max seq, which zeroes the derived unread counter. Anything appended after
// the watermark was taken carries a higher seq and stays unread. A
// participant may only mark their own membership.
func (s *ConversationService) MarkRead(ctx context.Context, callerSubjectId, participantSubjectId, conversationId string) error {
	if participantSubjectId != "" && participantSubjectId != callerSubjectId {
		return errcode.ErrMembershipNotOwned
	}

	conv, err := s.requireParty(ctx, callerSubjectId, conversationId)
	if err != nil {
		return err
	}

	if err := s.ensureOwnMembership(ctx, conv, callerSubjectId); err != nil {
		return err
	}

	maxSeq, err := s.messages.MaxSeq(ctx, conv.Id)
	if err != nil {
		log.CtxError(ctx, "get max seq failed: %v", err)
		return errcode.ErrTransientStore.Wrap(err)
	}

	if err := s.memberships.MarkRead(ctx, conv.Id, callerSubjectId, maxSeq, entity.NowUnixMilli()); err != nil {
		log.CtxError(ctx, "mark read failed: %v", err)
		return errcode.ErrTransientStore.Wrap(err)
	}
	return nil
}

// VisibilityPatch represents a partial update of the caller's own membership
type VisibilityPatch struct {
	Muted        *bool `json:"muted,omitempty"`
	Archived     *bool `json:"archived,omitempty"`
	ClearHistory *bool `json:"clear_history,omitempty"`
}

// SetVisibility applies a visibility patch to the caller's own membership
// row. Clearing history hides messages at or before now from the caller's
// view only; restoring is the separate RestoreHistory operation, never
// implied here.
func (s *ConversationService) SetVisibility(ctx context.Context, callerSubjectId, participantSubjectId, conversationId string, patch *VisibilityPatch) error {
	if participantSubjectId != "" && participantSubjectId != callerSubjectId {
		return errcode.ErrMembershipNotOwned
	}

	conv, err := s.requireParty(ctx, callerSubjectId, conversationId)
	if err != nil {
		return err
	}

	if err := s.ensureOwnMembership(ctx, conv, callerSubjectId); err != nil {
		return err
	}

	updates := make(map[string]interface{})
	now := entity.NowUnixMilli()
	if patch.Muted != nil {
		updates["muted"] = *patch.Muted
	}
	if patch.Archived != nil {
		if *patch.Archived {
			updates["archived_at"] = now
		} else {
			updates["archived_at"] = nil
		}
	}
	if patch.ClearHistory != nil && *patch.ClearHistory {
		updates["cleared_before"] = now
	}

	if len(updates) == 0 {
		return nil
	}

	if err := s.memberships.UpdateVisibility(ctx, conv.Id, callerSubjectId, updates); err != nil {
		log.CtxError(ctx, "set visibility failed: %v", err)
		return errcode.ErrTransientStore.Wrap(err)
	}
	return nil
}

// RestoreHistory clears the caller's clear-history watermark, bringing
// hidden messages back into view. Always an explicit action.
func (s *ConversationService) RestoreHistory(ctx context.Context, callerSubjectId, conversationId string) error {
	conv, err := s.requireParty(ctx, callerSubjectId, conversationId)
	if err != nil {
		return err
	}

	if err := s.memberships.UpdateVisibility(ctx, conv.Id, callerSubjectId, map[string]interface{}{
		"cleared_before": nil,
	}); err != nil {
		log.CtxError(ctx, "restore history failed: %v", err)
		return errcode.ErrTransientStore.Wrap(err)
	}
	return nil
}

// UnreadCount derives the caller's unread counter for one conversation
func (s *ConversationService) UnreadCount(ctx context.Context, callerSubjectId, conversationId string) (int64, error) {
	if _, err := s.requireParty(ctx, callerSubjectId, conversationId); err != nil {
		return 0, err
	}

	count, err := s.memberships.UnreadCount(ctx, conversationId, callerSubjectId)
	if err != nil {
		return 0, errcode.ErrTransientStore.Wrap(err)
	}
	return count, nil
}

func (s *ConversationService) requireParty(ctx context.Context, callerSubjectId, conversationId string) (*entity.Conversation, error) {
	if conversationId == "" {
		return nil, errcode.ErrInvalidParam
	}
	conv, err := s.convs.GetById(ctx, conversationId)
	if err != nil {
		log.CtxError(ctx, "get conversation failed: %v", err)
		return nil, errcode.ErrTransientStore.Wrap(err)
	}
	if conv == nil {
		return nil, errcode.ErrConvNotFound
	}
	if !entity.PairingKeyContains(conv.PairingKey, callerSubjectId) {
		return nil, errcode.ErrNotConversationParty
	}
	return conv, nil
}

func (s *ConversationService) ensureOwnMembership(ctx context.Context, conv *entity.Conversation, callerSubjectId string) error {
	err := s.memberships.Upsert(ctx, &entity.Membership{
		ConversationId:       conv.Id,
		ParticipantSubjectId: callerSubjectId,
		PartnerSubjectId:     entity.PairingKeyPartner(conv.PairingKey, callerSubjectId),
	})
	if err != nil {
		log.CtxError(ctx, "ensure membership failed: %v", err)
		return errcode.ErrTransientStore.Wrap(err)
	}
	return nil
}
