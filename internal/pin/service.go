// Package pin derives the time-boxed credential required by the Corpe
// billing endpoints. A PIN is a pure function of CPF and calendar date,
// cached for 24h in memory and mirrored to durable storage.
package pin

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/corpedigital/assistant-api/internal/cpf"
	"github.com/corpedigital/assistant-api/internal/logger"
)

// ErrInvalidCPF is returned when the identity does not normalize to 11 digits.
var ErrInvalidCPF = errors.New("cpf deve conter 11 dígitos")

const (
	// TTL is how long a derived PIN stays valid.
	TTL = 24 * time.Hour

	// SweepInterval is the cadence of the background expiry sweep.
	SweepInterval = time.Hour

	pinPrefix    = "PN"
	pinSeparator = "@"
)

type Service struct {
	mu      sync.Mutex
	records map[string]Record

	store Store
	log   *logger.Logger
	now   func() time.Time

	stopSweep chan struct{}
	sweepOnce sync.Once
}

// NewService loads the durable mapping into memory, pruning anything
// already expired.
func NewService(ctx context.Context, store Store, log *logger.Logger) (*Service, error) {
	s := &Service{
		records:   make(map[string]Record),
		store:     store,
		log:       log.With("service", "pin"),
		now:       time.Now,
		stopSweep: make(chan struct{}),
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	expired := 0
	for _, rec := range loaded {
		if now.Sub(rec.CreatedAt) >= TTL {
			expired++
			continue
		}
		s.records[rec.CPF] = rec
	}
	if expired > 0 {
		if err := s.flushLocked(ctx); err != nil {
			return nil, err
		}
		s.log.Debug("expired pins pruned on load", "count", expired)
	}
	return s, nil
}

// Derive returns the PIN for the given CPF, reusing the cached value when
// one exists within TTL. Every call sweeps expired records first; a
// durable-store write failure fails the whole call.
func (s *Service) Derive(ctx context.Context, rawCPF string) (string, error) {
	digits := cpf.Sanitize(rawCPF)
	if len(digits) != 11 {
		return "", ErrInvalidCPF
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sweepLocked(ctx); err != nil {
		return "", err
	}

	now := s.now()
	if rec, ok := s.records[digits]; ok && now.Sub(rec.CreatedAt) < TTL {
		return rec.Pin, nil
	}

	// Seed is CPF plus the current calendar date, so re-deriving on the
	// same day always yields the same hash even across restarts.
	seed := pinPrefix + digits + pinSeparator + now.Format("20060102")
	sum := md5.Sum([]byte(seed)) // digest format required by the Corpe API
	hash := hex.EncodeToString(sum[:])

	s.records[digits] = Record{CPF: digits, Pin: hash, CreatedAt: now}
	if err := s.flushLocked(ctx); err != nil {
		return "", err
	}
	return hash, nil
}

// Sweep removes expired records from memory and, when anything changed,
// from durable storage.
func (s *Service) Sweep(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(ctx)
}

func (s *Service) sweepLocked(ctx context.Context) error {
	now := s.now()
	changed := false
	for key, rec := range s.records {
		if now.Sub(rec.CreatedAt) >= TTL {
			delete(s.records, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.flushLocked(ctx)
}

func (s *Service) flushLocked(ctx context.Context) error {
	records := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	return s.store.Replace(ctx, records)
}

// StartSweeper launches the hourly background sweep. Stop it with
// StopSweeper; the sweep is best-effort and failures are only logged.
func (s *Service) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = SweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Sweep(context.Background()); err != nil {
					s.log.Warn("background pin sweep failed", "error", err)
				}
			case <-s.stopSweep:
				return
			}
		}
	}()
}

func (s *Service) StopSweeper() {
	s.sweepOnce.Do(func() { close(s.stopSweep) })
}
