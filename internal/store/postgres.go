package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spiritrise/yogacamp/internal/models"
)

const registrationColumns = `id, name, COALESCE(email,''), COALESCE(phone,''), contact_key, created_at`

// Postgres stores registrations in the registrations table (see pkg/database/migrations).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool. Close closes the pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) FindByContact(ctx context.Context, contactKey string) (*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE contact_key = $1`
	var reg models.Registration
	err := p.pool.QueryRow(ctx, q, contactKey).Scan(&reg.ID, &reg.Name, &reg.Email, &reg.Phone, &reg.ContactKey, &reg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

// Insert relies on the contact_key unique constraint; a violation maps to ErrDuplicate.
func (p *Postgres) Insert(ctx context.Context, reg *models.Registration) error {
	prepare(reg)
	const q = `INSERT INTO registrations (id, name, email, phone, contact_key, created_at)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), $5, $6)`
	_, err := p.pool.Exec(ctx, q, reg.ID, reg.Name, reg.Email, reg.Phone, reg.ContactKey, reg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

// List returns all registrations oldest first.
func (p *Postgres) List(ctx context.Context) ([]models.Registration, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+registrationColumns+` FROM registrations ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.Name, &reg.Email, &reg.Phone, &reg.ContactKey, &reg.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Postgres) Close() { p.pool.Close() }
