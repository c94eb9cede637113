package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const transcriptKeyPrefix = "chat_transcript:"

// Message is one transcript entry for a user.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptStore keeps a bounded per-user message history in Redis.
// Advisory only: conversation routing never reads it.
type TranscriptStore struct {
	redis       *redis.Client
	ttl         time.Duration
	maxMessages int64
}

// NewTranscriptStore creates a transcript store. Returns nil when no Redis
// client is configured, which disables transcripts.
func NewTranscriptStore(client *redis.Client, ttl time.Duration) *TranscriptStore {
	if client == nil {
		return nil
	}
	return &TranscriptStore{redis: client, ttl: ttl, maxMessages: 250}
}

// Append stores one message and refreshes the transcript TTL.
func (s *TranscriptStore) Append(ctx context.Context, userID string, msg Message) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if userID == "" {
		return errors.New("conversation: transcript userID required")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("conversation: marshal transcript message: %w", err)
	}

	key := transcriptKey(userID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if s.maxMessages > 0 {
		pipe.LTrim(ctx, key, -s.maxMessages, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("conversation: append transcript message: %w", err)
	}
	return nil
}

// List returns up to limit most recent messages in chronological order.
func (s *TranscriptStore) List(ctx context.Context, userID string, limit int64) ([]Message, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if userID == "" {
		return nil, errors.New("conversation: transcript userID required")
	}

	start := int64(0)
	if limit > 0 {
		start = -limit
	}

	raw, err := s.redis.LRange(ctx, transcriptKey(userID), start, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("conversation: list transcript: %w", err)
	}

	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func transcriptKey(userID string) string {
	return transcriptKeyPrefix + userID
}
