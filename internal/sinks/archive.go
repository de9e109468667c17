package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spiritrise/yogacamp/internal/models"
	"github.com/spiritrise/yogacamp/pkg/storage"
)

// ObjectStore is the part of the S3 client the archive sink needs.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// ArchiveSink writes each registration as a JSON object to a bucket. The object
// key is derived from the contact key, so an existing object means the person
// is already registered.
type ArchiveSink struct {
	name  string
	store ObjectStore
	now   func() time.Time
}

func NewArchiveSink(name string, store ObjectStore) *ArchiveSink {
	if name == "" {
		name = "archive"
	}
	return &ArchiveSink{name: name, store: store, now: time.Now}
}

func (s *ArchiveSink) Name() string { return s.name }

func (s *ArchiveSink) Submit(ctx context.Context, reg models.Registration) Outcome {
	if reg.ContactKey == "" {
		return failed(s.name, 0, fmt.Errorf("registration has no contact key"))
	}
	key := storage.RegistrationKey(reg.ContactKey)

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return failed(s.name, 0, err)
	}
	if exists {
		return Outcome{Sink: s.name, OK: true, AlreadyRegistered: true,
			Message: reg.Name + " is already registered for yoga camp"}
	}

	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = s.now().UTC()
	}
	body, err := json.Marshal(reg)
	if err != nil {
		return failed(s.name, 0, fmt.Errorf("marshal: %w", err))
	}
	if _, err := s.store.Upload(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		return failed(s.name, 0, err)
	}
	return Outcome{Sink: s.name, OK: true, Message: reg.Name + " successfully registered for yoga camp!"}
}
