package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kindredapp/kindred-backend/internal/db"
)

// Candidate is one row of the eligible-candidate universe: the identity
// fields ranking needs, nothing more. Latitude/Longitude stay nullable.
type Candidate struct {
	UserID    uint64
	BirthDate time.Time
	Latitude  *float64
	Longitude *float64
}

// CandidateRepository materializes the eligible-candidate universe for a
// user. All hard exclusions (self, already swiped, already matched, gender,
// age window, inactive) happen in one SQL pass; scoring and the distance
// cut happen downstream where coordinates may be unknown.
type CandidateRepository struct {
	db *gorm.DB
}

// NewCandidateRepository creates a new repository bound to the given DB connection.
func NewCandidateRepository(database *gorm.DB) *CandidateRepository {
	return &CandidateRepository{db: database}
}

// Eligible returns the candidate universe for userID.
//
// Behavior:
//   - gender must equal the preferred gender; user must be active.
//   - birth date must fall in (bornAfter, bornOnOrBefore]: the caller
//     derives the window from [minAge, maxAge] at query time.
//   - excludes anyone the requester already swiped (either type, since a
//     repeat decision is meaningless) and anyone with an active match.
//   - ordered by user id so the downstream total ordering is reproducible.
func (r *CandidateRepository) Eligible(
	ctx context.Context,
	userID uint64,
	preferredGender string,
	bornAfter, bornOnOrBefore time.Time,
) ([]Candidate, error) {
	var candidates []Candidate
	err := r.db.WithContext(ctx).
		Table("users u").
		Select("u.id AS user_id, u.birth_date, p.latitude, p.longitude").
		Joins("LEFT JOIN profiles p ON p.user_id = u.id").
		Where("u.id <> ? AND u.active = ?", userID, true).
		Where("u.gender = ?", preferredGender).
		Where("u.birth_date > ? AND u.birth_date <= ?", bornAfter, bornOnOrBefore).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s
				WHERE s.swiper_id = ? AND s.target_id = u.id
			)`, userID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE m.active = ?
				  AND ((m.user_a_id = ? AND m.user_b_id = u.id)
				    OR (m.user_b_id = ? AND m.user_a_id = u.id))
			)`, true, userID, userID).
		Order("u.id ASC").
		Scan(&candidates).Error
	return candidates, err
}

// CommonInterestCounts returns, for each candidate, how many interests it
// shares with userID. Candidates with zero overlap are simply absent.
func (r *CandidateRepository) CommonInterestCounts(
	ctx context.Context,
	userID uint64,
	candidateIDs []uint64,
) (map[uint64]int, error) {
	counts := make(map[uint64]int, len(candidateIDs))
	if len(candidateIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		UserID uint64
		Count  int
	}
	sub := r.db.
		Model(&db.UserInterest{}).
		Select("interest_id").
		Where("user_id = ?", userID)

	err := r.db.WithContext(ctx).
		Model(&db.UserInterest{}).
		Select("user_id, COUNT(*) AS count").
		Where("user_id IN ? AND interest_id IN (?)", candidateIDs, sub).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.UserID] = row.Count
	}
	return counts, nil
}

// SuperLikersAmong returns the subset of candidateIDs that have super-liked
// userID. Surfaced on the feed as a priority flag; ordering is unaffected.
func (r *CandidateRepository) SuperLikersAmong(
	ctx context.Context,
	userID uint64,
	candidateIDs []uint64,
) (map[uint64]bool, error) {
	out := make(map[uint64]bool, len(candidateIDs))
	if len(candidateIDs) == 0 {
		return out, nil
	}

	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("target_id = ? AND type = ? AND swiper_id IN ?", userID, db.SwipeSuperLike, candidateIDs).
		Pluck("swiper_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
