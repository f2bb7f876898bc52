package feed

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/kindredapp/kindred-backend/internal/app"
	"github.com/kindredapp/kindred-backend/internal/config"
	"github.com/kindredapp/kindred-backend/internal/db"
	svcErr "github.com/kindredapp/kindred-backend/internal/errors"
	"github.com/kindredapp/kindred-backend/internal/metrics"
	"github.com/kindredapp/kindred-backend/internal/repository"
	"github.com/kindredapp/kindred-backend/internal/scoring"
)

// CandidateView is one entry of the ranked feed.
type CandidateView struct {
	UserID             uint64
	Age                int
	DistanceKm         *float64 // nil when either side lacks coordinates
	CommonInterests    int
	CompatibilityScore int
	SuperLikedYou      bool
}

// Service composes the candidate filter, geo scorer and compatibility
// scorer into an ordered, paginated candidate feed.
type Service struct {
	appCtx        *app.AppContext
	candidateRepo *repository.CandidateRepository
	userRepo      *repository.UserRepository

	weights         scoring.Weights
	defaultPageSize int
	maxPageSize     int

	now func() time.Time
}

// NewService creates the feed service with dependencies from AppContext
// and tunables (scorer weights, page sizes) from config.
func NewService(appCtx *app.AppContext, cfg *config.Config) *Service {
	return &Service{
		appCtx:          appCtx,
		candidateRepo:   repository.NewCandidateRepository(appCtx.DB),
		userRepo:        repository.NewUserRepository(appCtx.DB),
		weights:         scoring.WeightsFromConfig(cfg),
		defaultPageSize: cfg.Feed.DefaultPageSize,
		maxPageSize:     cfg.Feed.MaxPageSize,
		now:             time.Now,
	}
}

// RankedFeed returns one page of ranked candidates for userID.
//
// Behavior:
//   - Fails closed with NotConfigured when the user has no preference row.
//   - Hard filters (gender, age window, already swiped, already matched,
//     inactive) are applied in the candidate query; the maxDistanceKm cut
//     applies only when the distance is known.
//   - Candidates are ordered by compatibility score descending, then
//     distance ascending (unknown distance sorts last), then user id
//     ascending; with unchanged inputs the ordering and page boundaries
//     are stable.
//   - page is 0-based.
func (s *Service) RankedFeed(ctx context.Context, userID uint64, page, pageSize int) ([]CandidateView, error) {
	started := time.Now()
	defer func() { metrics.ObserveFeedDuration(time.Since(started)) }()

	if page < 0 {
		return nil, svcErr.InvalidOperation("page must not be negative")
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	pref, err := s.userRepo.PreferenceByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotConfigured("user has no matching preference")
		}
		return nil, svcErr.Map(err)
	}

	now := s.now().UTC()
	// inclusive [minAge, maxAge] window expressed as a birth-date range
	bornAfter := now.AddDate(-(pref.MaxAge + 1), 0, 0)
	bornOnOrBefore := now.AddDate(-pref.MinAge, 0, 0)

	requesterProfile, err := s.userRepo.ProfileByUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	candidates, err := s.candidateRepo.Eligible(ctx, userID, pref.Gender, bornAfter, bornOnOrBefore)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if len(candidates) == 0 {
		return []CandidateView{}, nil
	}

	ids := make([]uint64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.UserID
	}

	common, err := s.candidateRepo.CommonInterestCounts(ctx, userID, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	superLikers, err := s.candidateRepo.SuperLikersAmong(ctx, userID, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	views := make([]CandidateView, 0, len(candidates))
	for _, cand := range candidates {
		distance := candidateDistance(requesterProfile, cand)

		// hard distance cut only when the distance is known
		if distance != nil && *distance > float64(pref.MaxDistanceKm) {
			continue
		}

		age := db.AgeAt(cand.BirthDate, now)
		score := scoring.Score(s.weights, scoring.ScoreInput{
			CommonInterests: common[cand.UserID],
			DistanceKm:      distance,
			MaxDistanceKm:   pref.MaxDistanceKm,
			CandidateAge:    age,
			MinAge:          pref.MinAge,
			MaxAge:          pref.MaxAge,
		})
		metrics.ObserveCompatibilityScore(score)

		views = append(views, CandidateView{
			UserID:             cand.UserID,
			Age:                age,
			DistanceKm:         distance,
			CommonInterests:    common[cand.UserID],
			CompatibilityScore: score,
			SuperLikedYou:      superLikers[cand.UserID],
		})
	}

	sort.Slice(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.CompatibilityScore != b.CompatibilityScore {
			return a.CompatibilityScore > b.CompatibilityScore
		}
		di, dj := sortDistance(a.DistanceKm), sortDistance(b.DistanceKm)
		if di != dj {
			return di < dj
		}
		return a.UserID < b.UserID
	})

	s.appCtx.Logger.Debug("RankedFeed assembled",
		"user", userID, "eligible", len(candidates), "ranked", len(views), "page", page)

	start := page * pageSize
	if start >= len(views) {
		return []CandidateView{}, nil
	}
	end := start + pageSize
	if end > len(views) {
		end = len(views)
	}
	return views[start:end], nil
}

// candidateDistance computes requester->candidate distance, nil when either
// side has no coordinates.
func candidateDistance(requester *db.Profile, cand repository.Candidate) *float64 {
	return scoring.ProfileDistanceKm(requester, &db.Profile{
		UserID:    cand.UserID,
		Latitude:  cand.Latitude,
		Longitude: cand.Longitude,
	})
}

// sortDistance orders unknown distances after every known one.
func sortDistance(d *float64) float64 {
	if d == nil {
		return 1e18
	}
	return *d
}
