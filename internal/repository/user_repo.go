package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kindredapp/kindred-backend/internal/db"
)

// UserRepository provides the engine's read access to the identity/profile
// store: users, profiles, preferences and interest memberships. Snapshot
// reads are fine here; ranking tolerates staleness.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// ByID returns the user with the given id.
func (r *UserRepository) ByID(ctx context.Context, userID uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ProfileByUser returns the user's profile, or nil when none exists.
// A missing profile is not an error for ranking: it just means the
// user has no coordinates.
func (r *UserRepository) ProfileByUser(ctx context.Context, userID uint64) (*db.Profile, error) {
	var profile db.Profile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// PreferenceByUser returns the user's preference row.
// Absence surfaces as gorm.ErrRecordNotFound; the feed service maps it to
// NotConfigured (ranking fails closed without a preference).
func (r *UserRepository) PreferenceByUser(ctx context.Context, userID uint64) (*db.Preference, error) {
	var pref db.Preference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&pref).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// UpsertPreference inserts or replaces the user's preference row.
func (r *UserRepository) UpsertPreference(ctx context.Context, pref *db.Preference) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"gender", "min_age", "max_age", "max_distance_km", "updated_at"}),
		}).
		Create(pref).Error
}
