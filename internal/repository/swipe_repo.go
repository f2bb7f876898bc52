package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kindredapp/kindred-backend/internal/db"
	"github.com/kindredapp/kindred-backend/internal/utils/pagination"
)

// SwipeRepository provides data access methods for the Swipe model.
// It encapsulates all queries related to directional decisions between users.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Upsert inserts or replaces the swipe swiper -> target.
//
// Behavior:
//   - If the (swiper_id, target_id) pair exists → the row is updated with
//     the new type (re-swipe replaces the prior decision).
//   - If it doesn't exist → a new row is inserted.
//   - Composite PK ensures the overwrite guarantee.
//
// Example:
//
//	repo.Upsert(ctx, 1, 2, db.SwipeLike) // user 1 liked user 2
func (r *SwipeRepository) Upsert(
	ctx context.Context,
	swiperID, targetID uint64,
	typ db.SwipeType,
) error {
	swipe := db.Swipe{
		SwiperID: swiperID,
		TargetID: targetID,
		Type:     typ,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "swiper_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
		}).
		Create(&swipe).Error
}

// HasPositive checks whether swiper has liked or super-liked target.
// Used for the mutual-like check when recording a swipe.
func (r *SwipeRepository) HasPositive(
	ctx context.Context,
	swiperID, targetID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("swiper_id = ? AND target_id = ? AND type IN ?",
			swiperID, targetID, []db.SwipeType{db.SwipeLike, db.SwipeSuperLike}).
		Count(&count).Error
	return count > 0, err
}

// Get returns the swipe swiper -> target if one exists.
func (r *SwipeRepository) Get(
	ctx context.Context,
	swiperID, targetID uint64,
) (*db.Swipe, error) {
	var swipe db.Swipe
	err := r.db.WithContext(ctx).
		Where("swiper_id = ? AND target_id = ?", swiperID, targetID).
		First(&swipe).Error
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

// Admirers returns users who liked or super-liked the given target.
//
// Behavior:
//   - Only positive swipes toward target_id are returned.
//   - Excludes users the target explicitly disliked.
//   - Ordered by updated_at DESC, swiper_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.Admirers(ctx, 42, nil, 20) // first 20 people who liked user 42
func (r *SwipeRepository) Admirers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	return r.admirers(ctx, targetID, paginationToken, limit, false)
}

// NewAdmirers returns users who liked the target but have not been liked back.
//
// Behavior:
//   - Same as Admirers, additionally excluding mutual likes.
//
// Example:
//
//	repo.NewAdmirers(ctx, 42, nil, 20) // first 20 one-way likes for user 42
func (r *SwipeRepository) NewAdmirers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	return r.admirers(ctx, targetID, paginationToken, limit, true)
}

func (r *SwipeRepository) admirers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
	onlyUnreciprocated bool,
) ([]db.Swipe, *string, error) {
	var swipes []db.Swipe

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	positive := []db.SwipeType{db.SwipeLike, db.SwipeSuperLike}

	query := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.type IN ?", targetID, positive).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.swiper_id = ?
				  AND s2.target_id = s.swiper_id
				  AND s2.type = ?
			)`, targetID, db.SwipeDislike).
		Order("s.updated_at DESC, s.swiper_id DESC").
		Limit(limit + 1)

	if onlyUnreciprocated {
		subQuery := r.db.
			Table("swipes").
			Select("1").
			Where("swiper_id = s.target_id AND target_id = s.swiper_id AND type IN ?", positive)
		query = query.Where("NOT EXISTS (?)", subQuery)
	}

	// apply cursor
	if !cursor.Zero() {
		ts := time.UnixMilli(cursor.UnixMill)
		query = query.Where(
			"(s.updated_at < ? OR (s.updated_at = ? AND s.swiper_id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:       last.SwiperID,
			UnixMill: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// CountAdmirers returns how many users liked or super-liked the target.
//
// Behavior:
//   - Excludes users the target explicitly disliked.
//   - Used in conjunction with the Redis cache (DB is fallback).
func (r *SwipeRepository) CountAdmirers(
	ctx context.Context,
	targetID uint64,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.type IN ?", targetID,
			[]db.SwipeType{db.SwipeLike, db.SwipeSuperLike}).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.swiper_id = ?
				  AND s2.target_id = s.swiper_id
				  AND s2.type = ?
			)`, targetID, db.SwipeDislike).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
