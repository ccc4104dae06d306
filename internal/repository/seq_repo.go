package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/parleyhq/parley/internal/entity"
	"github.com/parleyhq/parley/pkg/constant"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeqRepo allocates the per-conversation append sequence. Redis INCR is the
// authoritative allocator, which totally orders appends within a
// conversation; MySQL holds the durable copy, restored to Redis on miss.
type SeqRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewSeqRepo creates a new SeqRepo
func NewSeqRepo(db *gorm.DB, rdb *redis.Client) *SeqRepo {
	return &SeqRepo{db: db, rdb: rdb}
}

// AllocSeq allocates the next sequence number for a conversation
func (r *SeqRepo) AllocSeq(ctx context.Context, conversationId string) (int64, error) {
	key := fmt.Sprintf(constant.RedisKeySeqConversation(), conversationId)
	seq, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// GetMaxSeq gets the current max sequence for a conversation
func (r *SeqRepo) GetMaxSeq(ctx context.Context, conversationId string) (int64, error) {
	key := fmt.Sprintf(constant.RedisKeySeqConversation(), conversationId)
	seq, err := r.rdb.Get(ctx, key).Int64()
	if err == nil {
		return seq, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, err
	}

	// Fall back to MySQL
	seqConv, err := r.getConversationSeq(ctx, conversationId)
	if err != nil {
		return 0, err
	}
	if seqConv == nil {
		return 0, nil
	}

	// Restore to Redis
	r.rdb.Set(ctx, key, seqConv.MaxSeq, 0)

	return seqConv.MaxSeq, nil
}

// GetLastMessageAt returns the newest message timestamp for a conversation,
// 0 when no message exists.
func (r *SeqRepo) GetLastMessageAt(ctx context.Context, conversationId string) (int64, error) {
	seqConv, err := r.getConversationSeq(ctx, conversationId)
	if err != nil {
		return 0, err
	}
	if seqConv == nil {
		return 0, nil
	}
	return seqConv.LastMessageAt, nil
}

// SyncToMySQLWithTx syncs the allocated sequence and newest-message timestamp
// to MySQL within the append transaction.
func (r *SeqRepo) SyncToMySQLWithTx(ctx context.Context, tx *gorm.DB, conversationId string, maxSeq, lastMessageAt int64) error {
	seqConv := &entity.ConversationSeq{
		ConversationId: conversationId,
		MaxSeq:         maxSeq,
		LastMessageAt:  lastMessageAt,
	}

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"max_seq":         gorm.Expr("GREATEST(max_seq, ?)", maxSeq),
			"last_message_at": gorm.Expr("GREATEST(last_message_at, ?)", lastMessageAt),
		}),
	}).Create(seqConv).Error
}

// InitSeqFromMySQL initializes Redis seq from MySQL on startup
func (r *SeqRepo) InitSeqFromMySQL(ctx context.Context, conversationId string) error {
	seqConv, err := r.getConversationSeq(ctx, conversationId)
	if err != nil || seqConv == nil {
		return err
	}

	key := fmt.Sprintf(constant.RedisKeySeqConversation(), conversationId)
	return r.rdb.Set(ctx, key, seqConv.MaxSeq, 0).Err()
}

func (r *SeqRepo) getConversationSeq(ctx context.Context, conversationId string) (*entity.ConversationSeq, error) {
	var seqConv entity.ConversationSeq
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationId).First(&seqConv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seqConv, nil
}
