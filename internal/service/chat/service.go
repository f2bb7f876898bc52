package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kindredapp/kindred-backend/internal/app"
	"github.com/kindredapp/kindred-backend/internal/db"
	svcErr "github.com/kindredapp/kindred-backend/internal/errors"
	"github.com/kindredapp/kindred-backend/internal/metrics"
	"github.com/kindredapp/kindred-backend/internal/repository"
)

// Service is the conversation tracker: message sending, read-state
// maintenance, history access and retention over match conversations.
type Service struct {
	appCtx      *app.AppContext
	matchRepo   *repository.MatchRepository
	messageRepo *repository.MessageRepository

	now func() time.Time
}

// NewService creates the chat service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		matchRepo:   repository.NewMatchRepository(appCtx.DB),
		messageRepo: repository.NewMessageRepository(appCtx.DB),
		now:         time.Now,
	}
}

// Send creates a message in the match on behalf of senderID.
//
// Behavior:
//   - The match must be active and the sender one of its two users.
//   - Content must be non-blank and at most 2000 characters.
//   - Invalidates the recipient's cached unread count.
func (s *Service) Send(ctx context.Context, matchID, senderID uint64, content string) (*db.Message, error) {
	m, err := s.matchRepo.ByID(ctx, matchID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !m.Involves(senderID) {
		return nil, svcErr.InvalidOperation("sender is not part of this match")
	}
	if !m.Active {
		return nil, svcErr.InvalidOperation("match is not active")
	}
	if strings.TrimSpace(content) == "" {
		return nil, svcErr.InvalidOperation("message content is empty")
	}
	if utf8.RuneCountInString(content) > db.MaxMessageLen {
		return nil, svcErr.InvalidOperation("message content exceeds 2000 characters")
	}

	msg := &db.Message{
		MatchID:  matchID,
		SenderID: senderID,
		Content:  content,
		// millisecond precision keeps the history cursor stable
		SentAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, svcErr.Map(err)
	}
	metrics.RecordMessage()

	if partner, ok := m.Partner(senderID); ok {
		_ = s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForUnreadCount(partner))
	}

	return msg, nil
}

// MarkRead flips every unread message in the match not sent by readerID.
//
// Behavior:
//   - Returns the number of messages affected; calling again immediately
//     returns 0 (the update is a conditional bulk statement).
//   - Works on inactive matches too: reading retained history is allowed.
func (s *Service) MarkRead(ctx context.Context, matchID, readerID uint64) (int64, error) {
	m, err := s.matchRepo.ByID(ctx, matchID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	if !m.Involves(readerID) {
		return 0, svcErr.InvalidOperation("user is not part of this match")
	}

	count, err := s.messageRepo.MarkRead(ctx, matchID, readerID, s.now().UTC())
	if err != nil {
		return 0, svcErr.Map(err)
	}
	if count > 0 {
		_ = s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForUnreadCount(readerID))
	}
	return count, nil
}

// UnreadForUser returns the user's total unread count across active
// matches. Cache-first with the standard counter TTL; Send and MarkRead
// invalidate.
func (s *Service) UnreadForUser(ctx context.Context, userID uint64) (int64, error) {
	key := s.appCtx.RedisCache.KeyForUnreadCount(userID)

	if n, ok, err := s.appCtx.RedisCache.GetCount(ctx, key); err == nil && ok {
		return n, nil
	}

	count, err := s.messageRepo.UnreadForUser(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}

	_ = s.appCtx.RedisCache.SetCount(ctx, key, count)

	return count, nil
}

// UnreadForMatch returns the user's unread count within one match.
// An inactive match contributes nothing.
func (s *Service) UnreadForMatch(ctx context.Context, matchID, userID uint64) (int64, error) {
	m, err := s.matchRepo.ByID(ctx, matchID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	if !m.Involves(userID) {
		return 0, svcErr.InvalidOperation("user is not part of this match")
	}
	if !m.Active {
		return 0, nil
	}
	count, err := s.messageRepo.UnreadForMatch(ctx, matchID, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	return count, nil
}

// History returns one cursor page of the match's messages, newest first.
// Members only; retained history stays readable after an unmatch.
func (s *Service) History(ctx context.Context, matchID, requesterID uint64, paginationToken *string, limit int) ([]db.Message, *string, error) {
	m, err := s.matchRepo.ByID(ctx, matchID)
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}
	if !m.Involves(requesterID) {
		return nil, nil, svcErr.InvalidOperation("user is not part of this match")
	}
	if limit <= 0 {
		limit = 50
	}

	messages, next, err := s.messageRepo.ListByMatch(ctx, matchID, paginationToken, limit)
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}
	return messages, next, nil
}

// Search returns the match's messages containing the query,
// case-insensitive, oldest first. Members only.
func (s *Service) Search(ctx context.Context, matchID, requesterID uint64, query string) ([]db.Message, error) {
	m, err := s.matchRepo.ByID(ctx, matchID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !m.Involves(requesterID) {
		return nil, svcErr.InvalidOperation("user is not part of this match")
	}
	if strings.TrimSpace(query) == "" {
		return nil, svcErr.InvalidOperation("search query is empty")
	}

	messages, err := s.messageRepo.Search(ctx, matchID, query)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return messages, err
}

// PurgeOlderThan deletes messages sent more than the given number of days
// ago. Destructive; driven by the retention scheduler, never by users.
func (s *Service) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, svcErr.InvalidOperation("retention days must be positive")
	}

	cutoff := s.now().UTC().AddDate(0, 0, -days)
	removed, err := s.messageRepo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	if removed > 0 {
		metrics.AddPurgedMessages(removed)
		s.appCtx.Logger.Info("retention purge", "cutoff", cutoff, "messages_removed", removed)
	}
	return removed, nil
}
