package conversation

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/corpedigital/assistant-api/internal/logger"
)

// fakeRedis implements the commands interface with plain slices,
// mirroring redis list semantics (index 0 is the newest element).
type fakeRedis struct {
	lists map[string][]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{lists: make(map[string][]string)}
}

func (f *fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	for _, v := range values {
		f.lists[key] = append([]string{fmt.Sprint(v)}, f.lists[key]...)
	}
	cmd.SetVal(int64(len(f.lists[key])))
	return cmd
}

func (f *fakeRedis) LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	list := f.lists[key]
	if stop < 0 {
		stop = int64(len(list)) + stop
	}
	if start < 0 {
		start = 0
	}
	if start >= int64(len(list)) {
		f.lists[key] = nil
	} else {
		if stop >= int64(len(list)) {
			stop = int64(len(list)) - 1
		}
		f.lists[key] = list[start : stop+1]
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	list := f.lists[key]
	if stop < 0 {
		stop = int64(len(list)) + stop
	}
	if start >= int64(len(list)) || len(list) == 0 {
		cmd.SetVal(nil)
		return cmd
	}
	if stop >= int64(len(list)) {
		stop = int64(len(list)) - 1
	}
	cmd.SetVal(append([]string(nil), list[start:stop+1]...))
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, k := range keys {
		if _, ok := f.lists[k]; ok {
			delete(f.lists, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestAppendAndReadOldestFirst(t *testing.T) {
	store := NewStore(newFakeRedis(), 50, logger.NewNop())
	convID := NewConversationID()

	for i := 0; i < 3; i++ {
		err := store.Append(context.Background(), convID, Message{
			Role:    "user",
			Content: fmt.Sprintf("msg-%d", i),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	msgs, err := store.Read(context.Background(), convID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d", len(msgs))
	}
	for i, m := range msgs {
		if want := fmt.Sprintf("msg-%d", i); m.Content != want {
			t.Fatalf("msgs[%d] = %q, want %q", i, m.Content, want)
		}
	}
}

func TestAppendEvictsOldestBeyondLimit(t *testing.T) {
	limit := 5
	store := NewStore(newFakeRedis(), limit, logger.NewNop())
	convID := NewConversationID()

	for i := 0; i < limit+5; i++ {
		if err := store.Append(context.Background(), convID, Message{
			Role:    "user",
			Content: fmt.Sprintf("msg-%d", i),
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	msgs, err := store.Read(context.Background(), convID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msgs) != limit {
		t.Fatalf("len = %d, want %d", len(msgs), limit)
	}
	// the most recent five survive, oldest first
	if msgs[0].Content != "msg-5" || msgs[len(msgs)-1].Content != "msg-9" {
		t.Fatalf("unexpected window: first=%q last=%q", msgs[0].Content, msgs[len(msgs)-1].Content)
	}
}

func TestReadUnknownConversation(t *testing.T) {
	store := NewStore(newFakeRedis(), 50, logger.NewNop())
	msgs, err := store.Read(context.Background(), "missing")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %d", len(msgs))
	}
}

func TestClear(t *testing.T) {
	store := NewStore(newFakeRedis(), 50, logger.NewNop())
	convID := NewConversationID()

	if err := store.Append(context.Background(), convID, Message{Role: "user", Content: "oi"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Clear(context.Background(), convID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	msgs, err := store.Read(context.Background(), convID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected cleared conversation, got %d messages", len(msgs))
	}
}
