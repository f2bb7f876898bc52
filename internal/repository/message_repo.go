package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kindredapp/kindred-backend/internal/db"
	"github.com/kindredapp/kindred-backend/internal/utils/pagination"
)

// MessageRepository provides data access methods for the Message model:
// the transactional read-state path plus the read-only reporting queries.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Create persists a new message.
func (r *MessageRepository) Create(ctx context.Context, msg *db.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// MarkRead flips every unread message in the match that was not sent by
// the reader.
//
// Behavior:
//   - Single conditional bulk UPDATE, so concurrent double invocation is
//     safe: the second call matches zero rows.
//   - Stamps read_at only on the false -> true transition.
//   - Returns the number of rows affected.
func (r *MessageRepository) MarkRead(
	ctx context.Context,
	matchID, readerID uint64,
	at time.Time,
) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("match_id = ? AND sender_id <> ? AND is_read = ?", matchID, readerID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

// UnreadForMatch counts unread messages in one match not sent by userID.
func (r *MessageRepository) UnreadForMatch(ctx context.Context, matchID, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("match_id = ? AND sender_id <> ? AND is_read = ?", matchID, userID, false).
		Count(&count).Error
	return count, err
}

// UnreadForUser counts unread messages across all of the user's active
// matches. Messages in deactivated matches do not count.
func (r *MessageRepository) UnreadForUser(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("messages m").
		Joins("JOIN matches mt ON mt.id = m.match_id").
		Where("mt.active = ? AND (mt.user_a_id = ? OR mt.user_b_id = ?)", true, userID, userID).
		Where("m.sender_id <> ? AND m.is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// ListByMatch returns a page of the match's history, newest first.
//
// Behavior:
//   - Ordered by sent_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
func (r *MessageRepository) ListByMatch(
	ctx context.Context,
	matchID uint64,
	paginationToken *string,
	limit int,
) ([]db.Message, *string, error) {
	var messages []db.Message

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("sent_at DESC, id DESC").
		Limit(limit + 1)

	if !cursor.Zero() {
		ts := time.UnixMilli(cursor.UnixMill)
		query = query.Where(
			"(sent_at < ? OR (sent_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&messages).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(messages) > limit {
		last := messages[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:       last.ID,
			UnixMill: last.SentAt.UnixMilli(),
		})
		nextToken = &token
		messages = messages[:limit]
	}

	return messages, nextToken, nil
}

// Search returns the match's messages whose content contains the query,
// case-insensitive, oldest first.
func (r *MessageRepository) Search(ctx context.Context, matchID uint64, query string) ([]db.Message, error) {
	var messages []db.Message
	pattern := "%" + strings.ToLower(query) + "%"
	err := r.db.WithContext(ctx).
		Where("match_id = ? AND LOWER(content) LIKE ?", matchID, pattern).
		Order("sent_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// PurgeOlderThan deletes messages sent before the cutoff. Destructive;
// a single statement, so there is no partial-failure mode to report.
func (r *MessageRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("sent_at < ?", cutoff).
		Delete(&db.Message{})
	return res.RowsAffected, res.Error
}

// --- reporting queries (read-only, no transactional coupling) ---

// ConversationVolume is a per-match message count.
type ConversationVolume struct {
	MatchID uint64
	Count   int64
}

// SenderVolume is a per-sender message count.
type SenderVolume struct {
	SenderID uint64
	Count    int64
}

// VolumePerConversation returns message counts grouped by match.
func (r *MessageRepository) VolumePerConversation(ctx context.Context) ([]ConversationVolume, error) {
	var volumes []ConversationVolume
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Select("match_id, COUNT(*) AS count").
		Group("match_id").
		Scan(&volumes).Error
	return volumes, err
}

// TopSenders returns the heaviest senders by message volume.
func (r *MessageRepository) TopSenders(ctx context.Context, limit int) ([]SenderVolume, error) {
	var volumes []SenderVolume
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Select("sender_id, COUNT(*) AS count").
		Group("sender_id").
		Order("count DESC, sender_id ASC").
		Limit(limit).
		Scan(&volumes).Error
	return volumes, err
}

// OrderedByMatch returns one match's messages oldest first, for the
// alternating-sender latency computation.
func (r *MessageRepository) OrderedByMatch(ctx context.Context, matchID uint64) ([]db.Message, error) {
	var messages []db.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("sent_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}
