package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/parleyhq/parley/internal/entity"
	"github.com/parleyhq/parley/pkg/constant"
	"github.com/parleyhq/parley/pkg/idgen"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const actorCacheTTL = time.Hour

// ActorRepo is the repository for actor records
type ActorRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewActorRepo creates a new ActorRepo
func NewActorRepo(db *gorm.DB, rdb *redis.Client) *ActorRepo {
	return &ActorRepo{db: db, rdb: rdb}
}

// Resolve returns the actor for (subjectId, kind), creating it on first use.
// Two concurrent first-use resolutions must not produce two rows: the insert
// uses the unique constraint with DoNothing, and a lost race falls through to
// re-reading the winner. A benign race is never an error.
func (r *ActorRepo) Resolve(ctx context.Context, subjectId string, kind int32) (*entity.Actor, error) {
	if cached := r.fromCache(ctx, subjectId, kind); cached != nil {
		return cached, nil
	}

	actor, err := r.get(ctx, subjectId, kind)
	if err != nil {
		return nil, err
	}
	if actor != nil {
		r.toCache(ctx, actor)
		return actor, nil
	}

	id, err := idgen.NextID()
	if err != nil {
		return nil, err
	}

	candidate := &entity.Actor{
		Id:        id,
		SubjectId: subjectId,
		Kind:      kind,
		CreatedAt: entity.NowUnixMilli(),
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_id"}, {Name: "kind"}},
		DoNothing: true,
	}).Create(candidate)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// Lost the race: fetch the winner.
		actor, err = r.get(ctx, subjectId, kind)
		if err != nil {
			return nil, err
		}
		if actor == nil {
			return nil, gorm.ErrRecordNotFound
		}
		r.toCache(ctx, actor)
		return actor, nil
	}

	r.toCache(ctx, candidate)
	return candidate, nil
}

func (r *ActorRepo) get(ctx context.Context, subjectId string, kind int32) (*entity.Actor, error) {
	var actor entity.Actor
	err := r.db.WithContext(ctx).
		Where("subject_id = ? AND kind = ?", subjectId, kind).
		First(&actor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &actor, nil
}

// GetById gets an actor by its id
func (r *ActorRepo) GetById(ctx context.Context, id string) (*entity.Actor, error) {
	var actor entity.Actor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&actor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &actor, nil
}

func (r *ActorRepo) cacheKey(subjectId string, kind int32) string {
	return fmt.Sprintf(constant.RedisKeyActor(), subjectId, kind)
}

func (r *ActorRepo) fromCache(ctx context.Context, subjectId string, kind int32) *entity.Actor {
	if r.rdb == nil {
		return nil
	}
	raw, err := r.rdb.Get(ctx, r.cacheKey(subjectId, kind)).Bytes()
	if err != nil {
		return nil
	}
	var actor entity.Actor
	if json.Unmarshal(raw, &actor) != nil {
		return nil
	}
	return &actor
}

func (r *ActorRepo) toCache(ctx context.Context, actor *entity.Actor) {
	if r.rdb == nil {
		return
	}
	raw, err := json.Marshal(actor)
	if err != nil {
		return
	}
	r.rdb.Set(ctx, r.cacheKey(actor.SubjectId, actor.Kind), raw, actorCacheTTL)
}
