package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/spiritrise/yogacamp/internal/models"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS registrations (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT,
	phone       TEXT,
	contact_key TEXT NOT NULL UNIQUE,
	created_at  TEXT NOT NULL
)`

// SQLite is a single-file store for local runs and small deployments.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file and its schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) FindByContact(ctx context.Context, contactKey string) (*models.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(email,''), COALESCE(phone,''), contact_key, created_at FROM registrations WHERE contact_key = ?`,
		contactKey)
	reg, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

func (s *SQLite) Insert(ctx context.Context, reg *models.Registration) error {
	prepare(reg)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registrations (id, name, email, phone, contact_key, created_at) VALUES (?, ?, NULLIF(?,''), NULLIF(?,''), ?, ?)`,
		reg.ID.String(), reg.Name, reg.Email, reg.Phone, reg.ContactKey, reg.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return ErrDuplicate
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

func (s *SQLite) List(ctx context.Context) ([]models.Registration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(email,''), COALESCE(phone,''), contact_key, created_at FROM registrations ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		reg, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() { _ = s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row rowScanner) (*models.Registration, error) {
	var (
		reg       models.Registration
		id        string
		createdAt string
	)
	if err := row.Scan(&id, &reg.Name, &reg.Email, &reg.Phone, &reg.ContactKey, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if reg.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if reg.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &reg, nil
}
