// Package conversation persists per-conversation chat history in Redis.
// Each conversation is a list capped to the most recent N messages;
// older entries are silently evicted.
package conversation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/corpedigital/assistant-api/internal/logger"
)

const keyPrefix = "assistente_corpe_conversation:"

// Message is one stored chat turn. Immutable once written.
type Message struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// commands is the slice of the redis API the store needs. *redis.Client
// satisfies it; tests plug in a fake.
type commands interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Store struct {
	rdb   commands
	limit int
	log   *logger.Logger
}

func NewStore(rdb commands, limit int, log *logger.Logger) *Store {
	if limit <= 0 {
		limit = 50
	}
	return &Store{rdb: rdb, limit: limit, log: log.With("service", "conversation")}
}

// NewConversationID mints a fresh v4 conversation id.
func NewConversationID() string {
	return uuid.NewString()
}

func key(conversationID string) string {
	return keyPrefix + conversationID
}

// Append pushes msg and trims the list to the most recent limit entries.
func (s *Store) Append(ctx context.Context, conversationID string, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	k := key(conversationID)
	if err := s.rdb.LPush(ctx, k, string(payload)).Err(); err != nil {
		return err
	}
	return s.rdb.LTrim(ctx, k, 0, int64(s.limit)-1).Err()
}

// Read returns the stored history oldest-first. Entries that fail to
// decode are skipped rather than poisoning the whole conversation.
func (s *Store) Read(ctx context.Context, conversationID string) ([]Message, error) {
	raw, err := s.rdb.LRange(ctx, key(conversationID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	msgs := make([]Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var msg Message
		if err := json.Unmarshal([]byte(raw[i]), &msg); err != nil {
			s.log.Warn("skipping malformed conversation entry",
				"conversation_id", conversationID, "error", err)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Clear removes the whole conversation.
func (s *Store) Clear(ctx context.Context, conversationID string) error {
	return s.rdb.Del(ctx, key(conversationID)).Err()
}
