package chat_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
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
	"github.com/kindredapp/kindred-backend/internal/service/chat"
)

func setupChat(t *testing.T) (*app.AppContext, *chat.Service) {
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
	return appCtx, chat.NewService(appCtx)
}

func activeMatch(t *testing.T, appCtx *app.AppContext, u1, u2 uint64) db.Match {
	t.Helper()
	m := db.NewMatch(u1, u2, time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, appCtx.DB.Create(&m).Error)
	return m
}

func TestSendAndUnreadFlow(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupChat(t)
	m := activeMatch(t, appCtx, 1, 2)

	_, err := svc.Send(ctx, m.ID, 1, "hey")
	require.NoError(t, err)

	// first read misses the cache, hits the database, then caches
	unread, err := svc.UnreadForUser(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	// a second send invalidates the cached count for the recipient
	_, err = svc.Send(ctx, m.ID, 1, "you there?")
	require.NoError(t, err)

	unread, err = svc.UnreadForUser(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	affected, err := svc.MarkRead(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)

	affected, err = svc.MarkRead(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.Zero(t, affected, "second mark-read finds nothing")

	unread, err = svc.UnreadForUser(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, unread)

	// sender's own unread count was never affected
	unread, err = svc.UnreadForUser(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupChat(t)
	m := activeMatch(t, appCtx, 1, 2)

	_, err := svc.Send(ctx, m.ID, 1, "   \n\t ")
	assert.True(t, svcErr.IsInvalidOperation(err), "blank content")

	_, err = svc.Send(ctx, m.ID, 1, strings.Repeat("é", db.MaxMessageLen+1))
	assert.True(t, svcErr.IsInvalidOperation(err), "length limit counts runes, not bytes")

	_, err = svc.Send(ctx, m.ID, 1, strings.Repeat("é", db.MaxMessageLen))
	assert.NoError(t, err, "exactly at the limit is allowed")

	_, err = svc.Send(ctx, m.ID, 3, "hi")
	assert.True(t, svcErr.IsInvalidOperation(err), "outsider")

	_, err = svc.Send(ctx, 404, 1, "hi")
	assert.True(t, svcErr.IsNotFound(err))
}

func TestSendOnInactiveMatch(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupChat(t)
	m := activeMatch(t, appCtx, 1, 2)

	_, err := svc.Send(ctx, m.ID, 1, "before")
	require.NoError(t, err)

	require.NoError(t, appCtx.DB.Model(&db.Match{}).
		Where("id = ?", m.ID).
		Update("active", false).Error)

	_, err = svc.Send(ctx, m.ID, 1, "after")
	assert.True(t, svcErr.IsInvalidOperation(err))

	// retained history stays readable and searchable
	messages, _, err := svc.History(ctx, m.ID, 2, nil, 10)
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	affected, err := svc.MarkRead(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	// but the inactive match no longer counts toward unread totals
	unread, err := svc.UnreadForMatch(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestHistoryPagination(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupChat(t)
	m := activeMatch(t, appCtx, 1, 2)

	for i := 0; i < 5; i++ {
		_, err := svc.Send(ctx, m.ID, uint64(1+i%2), fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	page1, token, err := svc.History(ctx, m.ID, 1, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, token)
	assert.Equal(t, "message 4", page1[0].Content, "newest first")

	page2, token, err := svc.History(ctx, m.ID, 1, token, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotNil(t, token)

	page3, token, err := svc.History(ctx, m.ID, 1, token, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Nil(t, token)
	assert.Equal(t, "message 0", page3[0].Content)

	seen := map[uint64]bool{}
	for _, msg := range append(append(page1, page2...), page3...) {
		assert.False(t, seen[msg.ID], "no message repeats across pages")
		seen[msg.ID] = true
	}

	_, _, err = svc.History(ctx, m.ID, 3, nil, 10)
	assert.True(t, svcErr.IsInvalidOperation(err), "outsider cannot read history")

	bad := "not-a-cursor!!!"
	_, _, err = svc.History(ctx, m.ID, 1, &bad, 10)
	assert.True(t, svcErr.IsInvalidOperation(err), "malformed token is a caller error")
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupChat(t)
	m := activeMatch(t, appCtx, 1, 2)

	for _, content := range []string{"Fancy a Coffee?", "coffee sounds great", "see you at 8"} {
		_, err := svc.Send(ctx, m.ID, 1, content)
		require.NoError(t, err)
	}

	found, err := svc.Search(ctx, m.ID, 2, "COFFEE")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Fancy a Coffee?", found[0].Content, "oldest first")

	_, err = svc.Search(ctx, m.ID, 2, "  ")
	assert.True(t, svcErr.IsInvalidOperation(err))

	_, err = svc.Search(ctx, m.ID, 3, "coffee")
	assert.True(t, svcErr.IsInvalidOperation(err))
}

func TestPurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupChat(t)
	m := activeMatch(t, appCtx, 1, 2)

	now := time.Now().UTC().Truncate(time.Millisecond)
	old := db.Message{MatchID: m.ID, SenderID: 1, Content: "ancient", SentAt: now.AddDate(0, 0, -400)}
	fresh := db.Message{MatchID: m.ID, SenderID: 2, Content: "recent", SentAt: now}
	require.NoError(t, appCtx.DB.Create(&old).Error)
	require.NoError(t, appCtx.DB.Create(&fresh).Error)

	removed, err := svc.PurgeOlderThan(ctx, 365)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	var remaining []db.Message
	require.NoError(t, appCtx.DB.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "recent", remaining[0].Content)

	_, err = svc.PurgeOlderThan(ctx, 0)
	assert.True(t, svcErr.IsInvalidOperation(err))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setupChat(t)
	m1 := activeMatch(t, appCtx, 1, 2)
	m2 := activeMatch(t, appCtx, 3, 4)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// conversation 1: alternating senders, 2min then 4min response gaps
	require.NoError(t, appCtx.DB.Create(&[]db.Message{
		{MatchID: m1.ID, SenderID: 1, Content: "a", SentAt: base},
		{MatchID: m1.ID, SenderID: 2, Content: "b", SentAt: base.Add(2 * time.Minute)},
		{MatchID: m1.ID, SenderID: 1, Content: "c", SentAt: base.Add(6 * time.Minute)},
	}).Error)

	// conversation 2: a monologue, no response gaps
	require.NoError(t, appCtx.DB.Create(&[]db.Message{
		{MatchID: m2.ID, SenderID: 3, Content: "d", SentAt: base},
		{MatchID: m2.ID, SenderID: 3, Content: "e", SentAt: base.Add(time.Minute)},
	}).Error)

	stats, err := svc.Stats(ctx, 2)
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.Conversations)
	assert.EqualValues(t, 5, stats.TotalMessages)
	assert.InDelta(t, 2.5, stats.AvgPerConversation, 1e-9)
	assert.EqualValues(t, 3, stats.MaxPerConversation)
	assert.Equal(t, 3*time.Minute, stats.AvgResponseLatency)

	require.Len(t, stats.TopSenders, 2)
	assert.Equal(t, uint64(1), stats.TopSenders[0].SenderID)
	assert.EqualValues(t, 2, stats.TopSenders[0].Count)
	assert.Equal(t, uint64(3), stats.TopSenders[1].SenderID)
}
