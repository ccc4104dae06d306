package service

import (
	"context"

	"github.com/parleyhq/parley/internal/entity"
	"github.com/parleyhq/parley/internal/repository"
)

// ActorStore resolves authoring identities to actor records
type ActorStore interface {
	Resolve(ctx context.Context, subjectId string, kind int32) (*entity.Actor, error)
}

// ConversationStore persists conversation aggregates keyed by pairing key
type ConversationStore interface {
	GetOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, error)
	GetById(ctx context.Context, id string) (*entity.Conversation, error)
}

// MembershipStore persists each participant's private view of a conversation
type MembershipStore interface {
	Get(ctx context.Context, conversationId, participantSubjectId string) (*entity.Membership, error)
	Upsert(ctx context.Context, m *entity.Membership) error
	UpdateVisibility(ctx context.Context, conversationId, participantSubjectId string, updates map[string]interface{}) error
	MarkRead(ctx context.Context, conversationId, participantSubjectId string, readSeq, readAt int64) error
	Unarchive(ctx context.Context, conversationId, participantSubjectId string) error
	Inbox(ctx context.Context, participantSubjectId string) ([]*entity.InboxRow, error)
	UnreadCount(ctx context.Context, conversationId, participantSubjectId string) (int64, error)
}

// MessageStore persists the append-only message log
type MessageStore interface {
	Append(ctx context.Context, msg *entity.Message, sender, partner *entity.Membership) (*entity.Message, error)
	GetByClientMsgId(ctx context.Context, senderSubjectId, clientMsgId string) (*entity.Message, error)
	List(ctx context.Context, conversationId string, q repository.ListQuery) ([]*entity.Message, error)
	MaxSeq(ctx context.Context, conversationId string) (int64, error)
}

// Notifier receives new-message events for out-of-band fan-out (push
// notifications live outside this engine). Implementations must not block.
type Notifier interface {
	NotifyNewMessage(msg *entity.Message, recipientSubjectId string)
}
