package prefs

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/kindredapp/kindred-backend/internal/app"
	"github.com/kindredapp/kindred-backend/internal/db"
	svcErr "github.com/kindredapp/kindred-backend/internal/errors"
	"github.com/kindredapp/kindred-backend/internal/repository"
)

// Input is the validated shape of a preference update. Bounds are enforced
// here, at input time; the engine downstream assumes stored preferences
// are well-formed.
type Input struct {
	Gender        string `validate:"required,oneof=male female"`
	MinAge        int    `validate:"required,gte=18,lte=120"`
	MaxAge        int    `validate:"required,gtefield=MinAge,lte=120"`
	MaxDistanceKm int    `validate:"required,gte=1,lte=500"`
}

// Service manages per-user matching preferences.
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository
	validate *validator.Validate
}

// NewService creates the preference service.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
		validate: validator.New(),
	}
}

// Upsert validates and stores the user's preference (exactly one row per
// user; an existing row is replaced).
func (s *Service) Upsert(ctx context.Context, userID uint64, in Input) (*db.Preference, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, svcErr.InvalidOperation("invalid preference: " + err.Error())
	}

	if _, err := s.userRepo.ByID(ctx, userID); err != nil {
		return nil, svcErr.Map(err)
	}

	pref := &db.Preference{
		UserID:        userID,
		Gender:        in.Gender,
		MinAge:        in.MinAge,
		MaxAge:        in.MaxAge,
		MaxDistanceKm: in.MaxDistanceKm,
	}
	if err := s.userRepo.UpsertPreference(ctx, pref); err != nil {
		return nil, svcErr.Map(err)
	}
	return pref, nil
}

// Get returns the user's stored preference.
func (s *Service) Get(ctx context.Context, userID uint64) (*db.Preference, error) {
	pref, err := s.userRepo.PreferenceByUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return pref, nil
}
