package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kindredapp/kindred-backend/internal/db"
)

// MatchRepository provides data access methods for the Match model.
// The unordered-pair uniqueness constraint lives here: the matches table
// carries a unique index on the canonical (user_a_id, user_b_id) pair.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateIfAbsent inserts the match unless a row for its pair already exists.
//
// Behavior:
//   - Insert uses ON CONFLICT DO NOTHING against the pair's unique index,
//     so two concurrent mutual swipes race harmlessly: the loser of the
//     insert observes zero affected rows, re-reads the winner's row and
//     reports it (conflict-as-success).
//   - Returns the stored match and whether this call created it.
//
// Example:
//
//	m := db.NewMatch(1, 2, now)
//	stored, created, err := repo.CreateIfAbsent(ctx, m)
func (r *MatchRepository) CreateIfAbsent(
	ctx context.Context,
	match db.Match,
) (*db.Match, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return &match, true, nil
	}

	existing, err := r.ByPair(ctx, match.UserAID, match.UserBID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// ByID returns the match with the given id.
func (r *MatchRepository) ByID(ctx context.Context, matchID uint64) (*db.Match, error) {
	var match db.Match
	if err := r.db.WithContext(ctx).First(&match, matchID).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// ByPair returns the match for the unordered pair {u1, u2}, active or not.
// Order of the arguments does not matter.
func (r *MatchRepository) ByPair(ctx context.Context, u1, u2 uint64) (*db.Match, error) {
	a, b := u1, u2
	if a > b {
		a, b = b, a
	}
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", a, b).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// HasActiveBetween reports whether an active match exists for the pair.
func (r *MatchRepository) HasActiveBetween(ctx context.Context, u1, u2 uint64) (bool, error) {
	a, b := u1, u2
	if a > b {
		a, b = b, a
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_a_id = ? AND user_b_id = ? AND active = ?", a, b, true).
		Count(&count).Error
	return count > 0, err
}

// Deactivate flips the match inactive and stamps unmatched_at.
//
// Behavior:
//   - Conditional on the row still being active, so a concurrent double
//     unmatch affects at most one row.
//   - Returns the number of rows affected (0 when already inactive).
func (r *MatchRepository) Deactivate(ctx context.Context, matchID uint64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND active = ?", matchID, true).
		Updates(map[string]any{"active": false, "unmatched_at": at})
	return res.RowsAffected, res.Error
}

// Reactivate flips an inactive match back to active, stamps a fresh
// matched_at and clears unmatched_at.
//
// Behavior:
//   - Conditional on the row being inactive, so concurrent re-matches
//     affect at most one row.
//   - Returns the number of rows affected (0 when already active).
func (r *MatchRepository) Reactivate(ctx context.Context, matchID uint64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND active = ?", matchID, false).
		Updates(map[string]any{"active": true, "matched_at": at, "unmatched_at": nil})
	return res.RowsAffected, res.Error
}

// ListActiveForUser returns the user's active matches, newest first.
func (r *MatchRepository) ListActiveForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("active = ? AND (user_a_id = ? OR user_b_id = ?)", true, userID, userID).
		Order("matched_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// Purge hard-deletes the match and all its messages in one transaction.
// Administrative; the request path only ever soft-deactivates.
// Returns the number of messages removed.
func (r *MatchRepository) Purge(ctx context.Context, matchID uint64) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("match_id = ?", matchID).Delete(&db.Message{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return tx.Delete(&db.Match{}, matchID).Error
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
