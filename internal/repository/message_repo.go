package repository

import (
	"context"
	"errors"

	"github.com/parleyhq/parley/internal/entity"
	"github.com/parleyhq/parley/pkg/constant"
	"gorm.io/gorm"
)

// ListQuery bounds a message page. Before/After are exclusive created_at
// cursors; AfterSeq is an exclusive seq cursor for clients paging a catch-up
// fetch, safe across created_at ties because seqs are unique per
// conversation. ClearedBefore is the caller's own clear-history watermark
// and is always applied.
type ListQuery struct {
	Limit         int
	Before        int64
	After         int64
	AfterSeq      int64
	ClearedBefore int64
}

// MessageRepo is the repository for the append-only message log
type MessageRepo struct {
	db         *gorm.DB
	seq        *SeqRepo
	membership *MembershipRepo
}

// NewMessageRepo creates a new MessageRepo
func NewMessageRepo(db *gorm.DB, seq *SeqRepo, membership *MembershipRepo) *MessageRepo {
	return &MessageRepo{db: db, seq: seq, membership: membership}
}

// Append persists a message and, in the same transaction, syncs the
// conversation sequence and ensures both participants' membership rows exist.
// Creating the counterpart's row here is the privileged server-side path: it
// closes the one-sided-visibility window without letting one participant
// write another's private state through the API.
func (r *MessageRepo) Append(ctx context.Context, msg *entity.Message, sender, partner *entity.Membership) (*entity.Message, error) {
	seq, err := r.seq.AllocSeq(ctx, msg.ConversationId)
	if err != nil {
		return nil, err
	}

	msg.Seq = seq
	msg.CreatedAt = entity.NowUnixMilli()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		if err := r.seq.SyncToMySQLWithTx(ctx, tx, msg.ConversationId, seq, msg.CreatedAt); err != nil {
			return err
		}
		if err := r.membership.UpsertTx(ctx, tx, sender); err != nil {
			return err
		}
		return r.membership.UpsertTx(ctx, tx, partner)
	})
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// GetByClientMsgId gets a message by sender and client message id, used for
// send idempotency.
func (r *MessageRepo) GetByClientMsgId(ctx context.Context, senderSubjectId, clientMsgId string) (*entity.Message, error) {
	var msg entity.Message
	err := r.db.WithContext(ctx).
		Where("sender_subject_id = ? AND client_msg_id = ?", senderSubjectId, clientMsgId).
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// List returns messages within the query bounds, ascending by (created_at,
// id), or by seq when paging on a seq cursor.
func (r *MessageRepo) List(ctx context.Context, conversationId string, q ListQuery) ([]*entity.Message, error) {
	limit := q.Limit
	if limit <= 0 || limit > constant.DefaultListLimit {
		limit = constant.DefaultListLimit
	}

	db := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Where("created_at > ?", q.ClearedBefore)

	order := "created_at ASC, id ASC"
	if q.AfterSeq > 0 {
		db = db.Where("seq > ?", q.AfterSeq)
		order = "seq ASC"
	}
	if q.After > 0 {
		db = db.Where("created_at > ?", q.After)
	}
	if q.Before > 0 {
		db = db.Where("created_at < ?", q.Before)
	}

	var messages []*entity.Message
	err := db.Order(order).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MaxSeq returns the conversation's current max append sequence
func (r *MessageRepo) MaxSeq(ctx context.Context, conversationId string) (int64, error) {
	return r.seq.GetMaxSeq(ctx, conversationId)
}
