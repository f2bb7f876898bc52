package match_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kindredapp/kindred-backend/internal/app"
	"github.com/kindredapp/kindred-backend/internal/cache"
	"github.com/kindredapp/kindred-backend/internal/config"
	"github.com/kindredapp/kindred-backend/internal/db"
	svcErr "github.com/kindredapp/kindred-backend/internal/errors"
	"github.com/kindredapp/kindred-backend/internal/service/match"
)

func setupMatch(t *testing.T) (*app.AppContext, *match.Service) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(db.Models()...))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(dbase, redisCache, logger)
	return appCtx, match.NewService(appCtx)
}

func seedMatch(t *testing.T, appCtx *app.AppContext, u1, u2 uint64) db.Match {
	t.Helper()
	m := db.NewMatch(u1, u2, time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, appCtx.DB.Create(&m).Error)
	return m
}

func TestUnmatchDeactivates(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupMatch(t)
	m := seedMatch(t, appCtx, 1, 2)

	require.NoError(t, svc.Unmatch(ctx, m.ID, 2))

	var stored db.Match
	require.NoError(t, appCtx.DB.First(&stored, m.ID).Error)
	assert.False(t, stored.Active)
	require.NotNil(t, stored.UnmatchedAt)
}

func TestUnmatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupMatch(t)
	m := seedMatch(t, appCtx, 1, 2)

	require.NoError(t, svc.Unmatch(ctx, m.ID, 1))
	firstAt := func() *time.Time {
		var stored db.Match
		require.NoError(t, appCtx.DB.First(&stored, m.ID).Error)
		return stored.UnmatchedAt
	}()

	require.NoError(t, svc.Unmatch(ctx, m.ID, 2), "second unmatch is a no-op")

	var stored db.Match
	require.NoError(t, appCtx.DB.First(&stored, m.ID).Error)
	assert.Equal(t, firstAt, stored.UnmatchedAt, "timestamp not rewritten by the no-op")
}

func TestUnmatchRejectsOutsider(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupMatch(t)
	m := seedMatch(t, appCtx, 1, 2)

	err := svc.Unmatch(ctx, m.ID, 3)
	assert.True(t, svcErr.IsInvalidOperation(err))

	var stored db.Match
	require.NoError(t, appCtx.DB.First(&stored, m.ID).Error)
	assert.True(t, stored.Active)
}

func TestUnmatchUnknownMatch(t *testing.T) {
	ctx := context.Background()
	_, svc := setupMatch(t)

	err := svc.Unmatch(ctx, 404, 1)
	assert.True(t, svcErr.IsNotFound(err))
}

func TestUnmatchRetainsMessages(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupMatch(t)
	m := seedMatch(t, appCtx, 1, 2)
	require.NoError(t, appCtx.DB.Create(&db.Message{
		MatchID: m.ID, SenderID: 1, Content: "hello", SentAt: time.Now().UTC(),
	}).Error)

	require.NoError(t, svc.Unmatch(ctx, m.ID, 1))

	var count int64
	require.NoError(t, appCtx.DB.Model(&db.Message{}).Where("match_id = ?", m.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPurgeRemovesMatchAndMessages(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupMatch(t)
	m := seedMatch(t, appCtx, 1, 2)
	for i := 0; i < 3; i++ {
		require.NoError(t, appCtx.DB.Create(&db.Message{
			MatchID: m.ID, SenderID: 1, Content: fmt.Sprintf("msg %d", i), SentAt: time.Now().UTC(),
		}).Error)
	}

	removed, err := svc.Purge(ctx, m.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	var matches, messages int64
	require.NoError(t, appCtx.DB.Model(&db.Match{}).Count(&matches).Error)
	require.NoError(t, appCtx.DB.Model(&db.Message{}).Count(&messages).Error)
	assert.Zero(t, matches)
	assert.Zero(t, messages)

	_, err = svc.Purge(ctx, m.ID)
	assert.True(t, svcErr.IsNotFound(err))
}

func TestListActiveResolvesPartner(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupMatch(t)
	m1 := seedMatch(t, appCtx, 1, 2)
	m2 := seedMatch(t, appCtx, 3, 1)
	inactive := seedMatch(t, appCtx, 1, 4)
	require.NoError(t, svc.Unmatch(ctx, inactive.ID, 1))

	views, err := svc.ListActive(ctx, 1)
	require.NoError(t, err)
	require.Len(t, views, 2)

	partners := map[uint64]uint64{}
	for _, v := range views {
		partners[v.MatchID] = v.PartnerID
	}
	assert.Equal(t, uint64(2), partners[m1.ID])
	assert.Equal(t, uint64(3), partners[m2.ID])
}
