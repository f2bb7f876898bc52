package chat

import (
	"context"
	"time"

	"github.com/samber/lo"

	svcErr "github.com/kindredapp/kindred-backend/internal/errors"
	"github.com/kindredapp/kindred-backend/internal/repository"
)

// Stats is the batch reporting summary over message history. Read-only,
// eventually consistent with the write path; never part of a transaction.
type Stats struct {
	Conversations      int64
	TotalMessages      int64
	AvgPerConversation float64
	MaxPerConversation int64
	AvgResponseLatency time.Duration
	TopSenders         []repository.SenderVolume
}

// Stats assembles the conversation analytics.
//
// Response latency is the average gap between consecutive messages from
// alternating senders within a conversation; monologue runs contribute
// nothing.
func (s *Service) Stats(ctx context.Context, topSenders int) (*Stats, error) {
	volumes, err := s.messageRepo.VolumePerConversation(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	stats := &Stats{
		Conversations: int64(len(volumes)),
		TotalMessages: lo.SumBy(volumes, func(v repository.ConversationVolume) int64 { return v.Count }),
	}
	if len(volumes) > 0 {
		stats.AvgPerConversation = float64(stats.TotalMessages) / float64(stats.Conversations)
		busiest := lo.MaxBy(volumes, func(a, b repository.ConversationVolume) bool { return a.Count > b.Count })
		stats.MaxPerConversation = busiest.Count
	}

	var latencySum time.Duration
	var latencyCount int64
	for _, v := range volumes {
		if v.Count < 2 {
			continue
		}
		messages, err := s.messageRepo.OrderedByMatch(ctx, v.MatchID)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		for i := 1; i < len(messages); i++ {
			if messages[i].SenderID == messages[i-1].SenderID {
				continue
			}
			latencySum += messages[i].SentAt.Sub(messages[i-1].SentAt)
			latencyCount++
		}
	}
	if latencyCount > 0 {
		stats.AvgResponseLatency = latencySum / time.Duration(latencyCount)
	}

	if topSenders <= 0 {
		topSenders = 5
	}
	top, err := s.messageRepo.TopSenders(ctx, topSenders)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	stats.TopSenders = top

	return stats, nil
}
