package artifact

import (
	"testing"
	"time"
)

func TestPutThenGet(t *testing.T) {
	c := NewCache()
	c.Put("tok", "JVBERi0xLjQ=", time.Hour)

	got, ok := c.Get("tok")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got != "JVBERi0xLjQ=" {
		t.Fatalf("blob mismatch: %q", got)
	}
}

func TestGetAfterTTLReturnsMiss(t *testing.T) {
	c := NewCache()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Put("tok", "blob", time.Hour)

	c.now = func() time.Time { return base.Add(time.Hour + time.Second) }
	if _, ok := c.Get("tok"); ok {
		t.Fatalf("expected expired token to miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry reclaimed, len=%d", c.Len())
	}
}

func TestGetUnknownToken(t *testing.T) {
	c := NewCache()
	if _, ok := c.Get("nope"); ok {
		t.Fatalf("expected miss for unknown token")
	}
}

func TestInvalidate(t *testing.T) {
	c := NewCache()
	c.Put("tok", "blob", time.Hour)

	if !c.Invalidate("tok") {
		t.Fatalf("expected invalidate to report presence")
	}
	if c.Invalidate("tok") {
		t.Fatalf("expected second invalidate to report absence")
	}
	if _, ok := c.Get("tok"); ok {
		t.Fatalf("expected miss after invalidate")
	}
}

func TestNewTokenIsRandomPerCall(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := NewToken()
		if err != nil {
			t.Fatalf("new token: %v", err)
		}
		if len(tok) != 32 {
			t.Fatalf("expected 32 hex chars, got %q", tok)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("token collision: %q", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestPutReclaimsExpiredEntries(t *testing.T) {
	c := NewCache()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Put("old", "blob", time.Minute)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	c.Put("new", "blob2", time.Hour)

	if c.Len() != 1 {
		t.Fatalf("expected stale entry swept on put, len=%d", c.Len())
	}
}
