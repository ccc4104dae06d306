package repository

import (
	"context"
	"errors"

	"github.com/parleyhq/parley/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversationRepo is the repository for conversation aggregates
type ConversationRepo struct {
	db *gorm.DB
}

// NewConversationRepo creates a new ConversationRepo
func NewConversationRepo(db *gorm.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// GetOrCreate returns the conversation for conv.PairingKey, creating it if
// absent. Creation rides the unique constraint on pairing_key: when a
// concurrent creator wins, the insert affects zero rows and the winner's row
// is re-read and returned. Callers never see the conflict.
func (r *ConversationRepo) GetOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, error) {
	existing, err := r.GetByPairingKey(ctx, conv.PairingKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	conv.CreatedAt = entity.NowUnixMilli()
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pairing_key"}},
		DoNothing: true,
	}).Create(conv)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		existing, err = r.GetByPairingKey(ctx, conv.PairingKey)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, gorm.ErrRecordNotFound
		}
		return existing, nil
	}

	return conv, nil
}

// GetByPairingKey gets a conversation by its pairing key
func (r *ConversationRepo) GetByPairingKey(ctx context.Context, pairingKey string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := r.db.WithContext(ctx).
		Where("pairing_key = ?", pairingKey).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// GetById gets a conversation by id
func (r *ConversationRepo) GetById(ctx context.Context, id string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}
