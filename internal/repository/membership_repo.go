package repository

import (
	"context"
	"errors"

	"github.com/parleyhq/parley/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipRepo is the repository for per-participant conversation state
type MembershipRepo struct {
	db *gorm.DB
}

// NewMembershipRepo creates a new MembershipRepo
func NewMembershipRepo(db *gorm.DB) *MembershipRepo {
	return &MembershipRepo{db: db}
}

// Get gets the membership row for (conversation, participant)
func (r *MembershipRepo) Get(ctx context.Context, conversationId, participantSubjectId string) (*entity.Membership, error) {
	var m entity.Membership
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND participant_subject_id = ?", conversationId, participantSubjectId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// Upsert creates the membership row if absent. An existing row keeps its
// visibility state untouched; only updated_at is refreshed, so archive/mute/
// clear watermarks survive message traffic.
func (r *MembershipRepo) Upsert(ctx context.Context, m *entity.Membership) error {
	return r.upsert(ctx, r.db, m)
}

// UpsertTx is Upsert inside an existing transaction.
func (r *MembershipRepo) UpsertTx(ctx context.Context, tx *gorm.DB, m *entity.Membership) error {
	return r.upsert(ctx, tx, m)
}

func (r *MembershipRepo) upsert(ctx context.Context, db *gorm.DB, m *entity.Membership) error {
	now := entity.NowUnixMilli()
	m.CreatedAt = now
	m.UpdatedAt = now

	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}, {Name: "participant_subject_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"updated_at": now,
		}),
	}).Create(m).Error
}

// UpdateVisibility applies a partial update to the participant's own row
func (r *MembershipRepo) UpdateVisibility(ctx context.Context, conversationId, participantSubjectId string, updates map[string]interface{}) error {
	updates["updated_at"] = entity.NowUnixMilli()
	return r.db.WithContext(ctx).
		Model(&entity.Membership{}).
		Where("conversation_id = ? AND participant_subject_id = ?", conversationId, participantSubjectId).
		Updates(updates).Error
}

// MarkRead advances the read watermark to the given sequence. The watermark
// is a seq, not a timestamp: a message appended in the same millisecond as
// the mark-read carries a higher seq and stays unread. GREATEST guards
// against a stale request rewinding a newer watermark.
func (r *MembershipRepo) MarkRead(ctx context.Context, conversationId, participantSubjectId string, readSeq, readAt int64) error {
	return r.db.WithContext(ctx).
		Model(&entity.Membership{}).
		Where("conversation_id = ? AND participant_subject_id = ?", conversationId, participantSubjectId).
		Updates(map[string]interface{}{
			"last_read_seq": gorm.Expr("GREATEST(last_read_seq, ?)", readSeq),
			"last_read_at":  gorm.Expr("GREATEST(COALESCE(last_read_at, 0), ?)", readAt),
		}).Error
}

// Unarchive clears the archived_at marker on the participant's own row
func (r *MembershipRepo) Unarchive(ctx context.Context, conversationId, participantSubjectId string) error {
	return r.UpdateVisibility(ctx, conversationId, participantSubjectId, map[string]interface{}{
		"archived_at": nil,
	})
}

// Inbox returns all memberships of a participant with derived counters.
// The unread count is computed from the message log against the read and
// clear watermarks rather than kept as mutable state, so no counter can be
// lost to an increment/reset race.
func (r *MembershipRepo) Inbox(ctx context.Context, participantSubjectId string) ([]*entity.InboxRow, error) {
	var rows []*entity.InboxRow

	err := r.db.WithContext(ctx).
		Table("memberships m").
		Select(`
			m.*,
			COALESCE(cs.last_message_at, m.created_at) AS last_message_at,
			(SELECT COUNT(*) FROM messages msg
				WHERE msg.conversation_id = m.conversation_id
				  AND msg.sender_subject_id <> m.participant_subject_id
				  AND msg.seq > m.last_read_seq
				  AND msg.created_at > COALESCE(m.cleared_before, 0)) AS unread_count,
			(SELECT msg.content FROM messages msg
				WHERE msg.conversation_id = m.conversation_id
				  AND msg.created_at > COALESCE(m.cleared_before, 0)
				ORDER BY msg.created_at DESC, msg.id DESC LIMIT 1) AS last_message_preview,
			(SELECT msg.media_type FROM messages msg
				WHERE msg.conversation_id = m.conversation_id
				  AND msg.created_at > COALESCE(m.cleared_before, 0)
				ORDER BY msg.created_at DESC, msg.id DESC LIMIT 1) AS last_message_media_type
		`).
		Joins("LEFT JOIN conversation_seqs cs ON cs.conversation_id = m.conversation_id").
		Where("m.participant_subject_id = ?", participantSubjectId).
		Order("last_message_at DESC").
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UnreadCount derives the unread counter for one membership
func (r *MembershipRepo) UnreadCount(ctx context.Context, conversationId, participantSubjectId string) (int64, error) {
	m, err := r.Get(ctx, conversationId, participantSubjectId)
	if err != nil {
		return 0, err
	}
	if m == nil {
		return 0, nil
	}

	var count int64
	err = r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ? AND sender_subject_id <> ? AND seq > ? AND created_at > ?",
			conversationId, participantSubjectId, m.LastReadSeq, m.ClearedBeforeOrZero()).
		Count(&count).Error
	return count, err
}
