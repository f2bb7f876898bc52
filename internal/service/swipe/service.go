package swipe

import (
	"context"
	"strconv"
	"time"

	"github.com/kindredapp/kindred-backend/internal/app"
	"github.com/kindredapp/kindred-backend/internal/db"
	svcErr "github.com/kindredapp/kindred-backend/internal/errors"
	"github.com/kindredapp/kindred-backend/internal/metrics"
	"github.com/kindredapp/kindred-backend/internal/repository"
)

// Result reports the outcome of recording a swipe.
type Result struct {
	Matched bool
	MatchID uint64 // set only when Matched
}

// Admirer is one entry of a "liked you" listing.
type Admirer struct {
	UserID    uint64
	SuperLike bool
	SwipedAt  time.Time
}

// Service is the swipe processor: it records directional decisions and
// turns mutual positive swipes into exactly one match per pair.
type Service struct {
	appCtx    *app.AppContext
	swipeRepo *repository.SwipeRepository
	matchRepo *repository.MatchRepository
	userRepo  *repository.UserRepository

	now func() time.Time
}

// NewService creates the swipe service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		swipeRepo: repository.NewSwipeRepository(appCtx.DB),
		matchRepo: repository.NewMatchRepository(appCtx.DB),
		userRepo:  repository.NewUserRepository(appCtx.DB),
		now:       time.Now,
	}
}

// Record persists the swipe swiper -> target and detects mutual matches.
//
// Behavior:
//   - Rejects self-swipes and unknown types (InvalidOperation), missing or
//     inactive targets (NotFound), and swipes against an actively matched
//     partner (Conflict).
//   - The swipe itself is insert-or-replace: re-swiping replaces the prior
//     decision.
//   - On a positive swipe with a prior positive swipe from target back to
//     swiper, creates the match for the canonical pair. The storage-level
//     unique constraint plus conflict-as-success insert guarantees exactly
//     one match row per pair even under concurrent mutual swipes; whichever
//     call observes the reverse swipe reports Matched.
//   - When the pair's match row exists but was deactivated by an unmatch, a
//     mutual positive swipe reactivates it: same row, fresh matched_at.
func (s *Service) Record(ctx context.Context, swiperID, targetID uint64, typ db.SwipeType) (Result, error) {
	s.appCtx.Logger.Debug("Record swipe", "swiper", swiperID, "target", targetID, "type", typ)

	if !typ.Valid() {
		return Result{}, svcErr.InvalidOperation("unknown swipe type " + strconv.Quote(string(typ)))
	}
	if swiperID == targetID {
		return Result{}, svcErr.InvalidOperation("cannot swipe on yourself")
	}

	target, err := s.userRepo.ByID(ctx, targetID)
	if err != nil {
		return Result{}, svcErr.Map(err)
	}
	if !target.Active {
		return Result{}, svcErr.NotFound("target user is not active")
	}

	matched, err := s.matchRepo.HasActiveBetween(ctx, swiperID, targetID)
	if err != nil {
		return Result{}, svcErr.Map(err)
	}
	if matched {
		return Result{}, svcErr.Conflict("already matched with this user")
	}

	if err := s.swipeRepo.Upsert(ctx, swiperID, targetID, typ); err != nil {
		return Result{}, svcErr.Map(err)
	}
	metrics.RecordSwipe(string(typ))

	// the target's admirer count may have changed either way
	_ = s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForAdmirerCount(targetID))

	if !typ.IsPositive() {
		return Result{}, nil
	}

	reciprocated, err := s.swipeRepo.HasPositive(ctx, targetID, swiperID)
	if err != nil {
		return Result{}, svcErr.Map(err)
	}
	if !reciprocated {
		return Result{}, nil
	}

	match, created, err := s.matchRepo.CreateIfAbsent(ctx, db.NewMatch(swiperID, targetID, s.now().UTC()))
	if err != nil {
		return Result{}, svcErr.Map(err)
	}
	switch {
	case created:
		metrics.RecordMatch()
		s.appCtx.Logger.Info("match created", "match_id", match.ID, "user_a", match.UserAID, "user_b", match.UserBID)
	case !match.Active:
		// the pair unmatched earlier; a fresh mutual positive swipe
		// re-opens the existing row rather than leaving a dead match
		if _, err := s.matchRepo.Reactivate(ctx, match.ID, s.now().UTC()); err != nil {
			return Result{}, svcErr.Map(err)
		}
		metrics.RecordMatch()
		s.appCtx.Logger.Info("match reactivated", "match_id", match.ID, "user_a", match.UserAID, "user_b", match.UserBID)
	}

	return Result{Matched: true, MatchID: match.ID}, nil
}

// Admirers lists users who positively swiped userID, newest first.
// Excludes anyone userID has disliked. Cursor-paginated.
func (s *Service) Admirers(ctx context.Context, userID uint64, paginationToken *string, limit int) ([]Admirer, *string, error) {
	swipes, next, err := s.swipeRepo.Admirers(ctx, userID, paginationToken, clampLimit(limit))
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}
	return toAdmirers(swipes), next, nil
}

// NewAdmirers is Admirers restricted to likes userID has not yet
// reciprocated.
func (s *Service) NewAdmirers(ctx context.Context, userID uint64, paginationToken *string, limit int) ([]Admirer, *string, error) {
	swipes, next, err := s.swipeRepo.NewAdmirers(ctx, userID, paginationToken, clampLimit(limit))
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}
	return toAdmirers(swipes), next, nil
}

// CountAdmirers returns how many users positively swiped userID.
// Cache-first strategy:
//  1. Attempts to read from Redis (admirers:count:userID).
//  2. On miss, falls back to the DB and repopulates the cache with a TTL.
func (s *Service) CountAdmirers(ctx context.Context, userID uint64) (int64, error) {
	key := s.appCtx.RedisCache.KeyForAdmirerCount(userID)

	if n, ok, err := s.appCtx.RedisCache.GetCount(ctx, key); err == nil && ok {
		return n, nil
	}

	count, err := s.swipeRepo.CountAdmirers(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}

	_ = s.appCtx.RedisCache.SetCount(ctx, key, count)

	return count, nil
}

func toAdmirers(swipes []db.Swipe) []Admirer {
	out := make([]Admirer, 0, len(swipes))
	for _, sw := range swipes {
		out = append(out, Admirer{
			UserID:    sw.SwiperID,
			SuperLike: sw.Type == db.SwipeSuperLike,
			SwipedAt:  sw.UpdatedAt,
		})
	}
	return out
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
