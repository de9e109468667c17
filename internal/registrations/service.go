package registrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spiritrise/yogacamp/internal/metrics"
	"github.com/spiritrise/yogacamp/internal/models"
	"github.com/spiritrise/yogacamp/internal/store"
)

// StorageError wraps a store failure (connectivity, timeout, constraint).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

// Outcome is the result of a successful Register call.
type Outcome struct {
	Registration      models.Registration
	AlreadyRegistered bool
}

// CountNotifier is told the new total after each new registration.
type CountNotifier interface {
	PublishCount(count int)
}

// Service applies the duplicate policy in front of a store.
type Service struct {
	store    store.Store
	metrics  *metrics.Metrics
	notifier CountNotifier
	logger   *zap.Logger
}

// NewService creates a registration service. metrics and notifier may be nil.
func NewService(s store.Store, m *metrics.Metrics, notifier CountNotifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, metrics: m, notifier: notifier, logger: logger}
}

// Register records a validated registration once per contact key. An existing key
// yields AlreadyRegistered with the stored record; nothing is written.
// The lookup only produces the friendlier reply: the store's uniqueness constraint
// decides races, and a lost race is reported as already registered too.
func (s *Service) Register(ctx context.Context, reg models.Registration) (Outcome, error) {
	existing, err := s.store.FindByContact(ctx, reg.ContactKey)
	if err != nil {
		s.metrics.ObserveRegistration(metrics.OutcomeFailed)
		return Outcome{}, &StorageError{Op: "find", Err: err}
	}
	if existing != nil {
		s.metrics.ObserveRegistration(metrics.OutcomeDuplicate)
		s.logger.Info("already registered", zap.String("contact", MaskContact(reg.ContactKey)))
		return Outcome{Registration: *existing, AlreadyRegistered: true}, nil
	}

	if err := s.store.Insert(ctx, &reg); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return s.lostRace(ctx, reg)
		}
		s.metrics.ObserveRegistration(metrics.OutcomeFailed)
		return Outcome{}, &StorageError{Op: "insert", Err: err}
	}

	s.metrics.ObserveRegistration(metrics.OutcomeNew)
	s.logger.Info("registration created", zap.String("id", reg.ID.String()), zap.String("contact", MaskContact(reg.ContactKey)))
	s.publishCount(ctx)
	return Outcome{Registration: reg}, nil
}

// Lookup returns the registration stored under key, or nil.
func (s *Service) Lookup(ctx context.Context, key string) (*models.Registration, error) {
	reg, err := s.store.FindByContact(ctx, key)
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}
	return reg, nil
}

// Count returns the number of stored registrations.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}

func (s *Service) lostRace(ctx context.Context, reg models.Registration) (Outcome, error) {
	existing, err := s.store.FindByContact(ctx, reg.ContactKey)
	if err != nil || existing == nil {
		s.metrics.ObserveRegistration(metrics.OutcomeFailed)
		if err == nil {
			err = fmt.Errorf("duplicate reported for %s but no record found", MaskContact(reg.ContactKey))
		}
		return Outcome{}, &StorageError{Op: "reread", Err: err}
	}
	s.metrics.ObserveRegistration(metrics.OutcomeDuplicate)
	s.logger.Info("duplicate insert resolved by store constraint", zap.String("contact", MaskContact(reg.ContactKey)))
	return Outcome{Registration: *existing, AlreadyRegistered: true}, nil
}

func (s *Service) publishCount(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("count after insert failed", zap.Error(err))
		return
	}
	s.notifier.PublishCount(n)
}

// MaskContact hides most of an email local part or phone number for logs.
func MaskContact(v string) string {
	if at := strings.IndexByte(v, '@'); at >= 0 {
		local, domain := v[:at], v[at:]
		if len(local) <= 2 {
			return strings.Repeat("*", len(local)) + domain
		}
		return local[:2] + strings.Repeat("*", len(local)-2) + domain
	}
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-4) + v[len(v)-4:]
}
