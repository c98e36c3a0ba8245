package pin

import (
	"context"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/corpedigital/assistant-api/internal/logger"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *GormStore) {
	t.Helper()
	store := NewGormStore(openTestDB(t))
	svc, err := NewService(context.Background(), store, logger.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func TestDeriveIsDeterministicWithinTTL(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Derive(context.Background(), "123.456.789-09")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if len(first) != 32 {
		t.Fatalf("expected 32-hex pin, got %q", first)
	}

	second, err := svc.Derive(context.Background(), "12345678909")
	if err != nil {
		t.Fatalf("derive again: %v", err)
	}
	if first != second {
		t.Fatalf("pin changed within TTL: %q != %q", first, second)
	}
}

func TestDeriveRegeneratesAfterTTL(t *testing.T) {
	svc, _ := newTestService(t)

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	first, err := svc.Derive(context.Background(), "12345678909")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	svc.now = func() time.Time { return base.Add(TTL + time.Minute) }

	second, err := svc.Derive(context.Background(), "12345678909")
	if err != nil {
		t.Fatalf("derive after ttl: %v", err)
	}
	if first == second {
		t.Fatalf("expected a fresh pin after TTL elapse")
	}
}

func TestDeriveRejectsInvalidCPF(t *testing.T) {
	svc, _ := newTestService(t)

	for _, in := range []string{"", "123", "123.456.789-0", "sem digitos", "123456789012", "123.456.789-091"} {
		if _, err := svc.Derive(context.Background(), in); err != ErrInvalidCPF {
			t.Errorf("Derive(%q) err = %v, want ErrInvalidCPF", in, err)
		}
	}
}

func TestDeriveDoesNotTruncateOverLengthCPF(t *testing.T) {
	svc, _ := newTestService(t)

	valid, err := svc.Derive(context.Background(), "12345678901")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	// a 12-digit identity must be rejected, never collapsed onto the
	// 11-digit prefix
	pin, err := svc.Derive(context.Background(), "123456789012")
	if err != ErrInvalidCPF {
		t.Fatalf("Derive(12 digits) err = %v, want ErrInvalidCPF", err)
	}
	if pin == valid {
		t.Fatalf("over-length input derived the truncated identity's pin")
	}
}

func TestDeriveSurvivesRestart(t *testing.T) {
	db := openTestDB(t)
	store := NewGormStore(db)

	svc, err := NewService(context.Background(), store, logger.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	first, err := svc.Derive(context.Background(), "98765432100")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	// a fresh service over the same store must return the cached value
	svc2, err := NewService(context.Background(), store, logger.NewNop())
	if err != nil {
		t.Fatalf("new service 2: %v", err)
	}
	second, err := svc2.Derive(context.Background(), "98765432100")
	if err != nil {
		t.Fatalf("derive on restarted service: %v", err)
	}
	if first != second {
		t.Fatalf("pin not recovered from durable store: %q != %q", first, second)
	}
}

func TestSweepPurgesExpiredFromDurableStore(t *testing.T) {
	svc, store := newTestService(t)

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	if _, err := svc.Derive(context.Background(), "12345678909"); err != nil {
		t.Fatalf("derive: %v", err)
	}

	svc.now = func() time.Time { return base.Add(TTL + time.Hour) }
	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected durable store emptied, got %d records", len(records))
	}
}
