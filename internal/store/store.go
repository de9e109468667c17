// Package store persists registrations. Each backend enforces contact key
// uniqueness itself; callers treat ErrDuplicate as "already registered".
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spiritrise/yogacamp/internal/models"
)

// ErrDuplicate is returned by Insert when the contact key already exists.
var ErrDuplicate = errors.New("store: contact key already registered")

// Store is the registration persistence contract shared by all backends.
type Store interface {
	// FindByContact returns nil, nil when no registration has the key.
	FindByContact(ctx context.Context, contactKey string) (*models.Registration, error)
	// Insert assigns ID and CreatedAt when zero.
	Insert(ctx context.Context, reg *models.Registration) error
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]models.Registration, error)
	Ping(ctx context.Context) error
	Close()
}

func prepare(reg *models.Registration) {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
}
