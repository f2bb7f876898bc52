package match

import (
	"context"
	"time"

	"github.com/kindredapp/kindred-backend/internal/app"
	svcErr "github.com/kindredapp/kindred-backend/internal/errors"
	"github.com/kindredapp/kindred-backend/internal/metrics"
	"github.com/kindredapp/kindred-backend/internal/repository"
)

// View is a match from one user's perspective: the partner resolved by
// explicit lookup, no back-pointers.
type View struct {
	MatchID   uint64
	PartnerID uint64
	MatchedAt time.Time
}

// Service manages match activation state and administrative teardown.
type Service struct {
	appCtx    *app.AppContext
	matchRepo *repository.MatchRepository

	now func() time.Time
}

// NewService creates the match lifecycle service.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		matchRepo: repository.NewMatchRepository(appCtx.DB),
		now:       time.Now,
	}
}

// Unmatch soft-deactivates the match on behalf of actingUserID.
//
// Behavior:
//   - actingUserID must be one of the match's two users.
//   - An already-inactive match is an idempotent no-op, not an error.
//   - Messages are retained; only sending is stopped.
func (s *Service) Unmatch(ctx context.Context, matchID, actingUserID uint64) error {
	m, err := s.matchRepo.ByID(ctx, matchID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !m.Involves(actingUserID) {
		return svcErr.InvalidOperation("user is not part of this match")
	}
	if !m.Active {
		return nil // already unmatched
	}

	affected, err := s.matchRepo.Deactivate(ctx, matchID, s.now().UTC())
	if err != nil {
		return svcErr.Map(err)
	}
	if affected > 0 {
		metrics.RecordUnmatch()
		s.appCtx.Logger.Info("match deactivated", "match_id", matchID, "by", actingUserID)
	}
	return nil
}

// Purge hard-deletes the match and its messages. Administrative only;
// never exposed on the user-facing path. Returns removed message count.
func (s *Service) Purge(ctx context.Context, matchID uint64) (int64, error) {
	if _, err := s.matchRepo.ByID(ctx, matchID); err != nil {
		return 0, svcErr.Map(err)
	}

	removed, err := s.matchRepo.Purge(ctx, matchID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	metrics.AddPurgedMessages(removed)
	s.appCtx.Logger.Info("match purged", "match_id", matchID, "messages_removed", removed)
	return removed, nil
}

// ListActive returns the user's active matches, newest first, with the
// partner id resolved for each.
func (s *Service) ListActive(ctx context.Context, userID uint64) ([]View, error) {
	matches, err := s.matchRepo.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	views := make([]View, 0, len(matches))
	for _, m := range matches {
		partner, ok := m.Partner(userID)
		if !ok {
			continue
		}
		views = append(views, View{
			MatchID:   m.ID,
			PartnerID: partner,
			MatchedAt: m.MatchedAt,
		})
	}
	return views, nil
}
