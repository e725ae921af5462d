package sightings

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no sighting matched the lookup.
var ErrNotFound = errors.New("sighting not found")

// Repository persists sightings.
type Repository interface {
	Create(ctx context.Context, s *Sighting) error
	List(ctx context.Context) ([]Sighting, error)
	FindByCode(ctx context.Context, code string) (Sighting, error)
	Update(ctx context.Context, s Sighting) error
	Delete(ctx context.Context, code string) error
}

// PostgresRepository stores sightings in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sightingColumns = `id, sighting_code, species, sighting_date, notes,
    picture1, picture2, picture3, longitude, latitude, created_by, created_at`

// Create inserts a sighting and fills in the generated id.
func (r *PostgresRepository) Create(ctx context.Context, s *Sighting) error {
	p1, p2, p3 := pictureColumns(s.Pictures)
	row := r.db.QueryRow(ctx, `INSERT INTO sightings
        (sighting_code, species, sighting_date, notes, picture1, picture2, picture3, longitude, latitude, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		s.SightingCode, s.Species, s.SightingDate, s.Notes, p1, p2, p3,
		s.Longitude, s.Latitude, s.CreatedBy, s.CreatedAt.UTC())
	return row.Scan(&s.ID)
}

// List returns all sightings, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Sighting, error) {
	rows, err := r.db.Query(ctx, `SELECT `+sightingColumns+` FROM sightings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sighting
	for rows.Next() {
		s, err := scanSighting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FindByCode fetches a sighting by its public code.
func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (Sighting, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sightingColumns+` FROM sightings WHERE sighting_code = $1`, code)
	s, err := scanSighting(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sighting{}, ErrNotFound
		}
		return Sighting{}, err
	}
	return s, nil
}

// Update rewrites the editable fields of a sighting.
func (r *PostgresRepository) Update(ctx context.Context, s Sighting) error {
	cmd, err := r.db.Exec(ctx, `UPDATE sightings
        SET species = $1, sighting_date = $2, notes = $3, longitude = $4, latitude = $5
        WHERE sighting_code = $6`,
		s.Species, s.SightingDate, s.Notes, s.Longitude, s.Latitude, s.SightingCode)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a sighting.
func (r *PostgresRepository) Delete(ctx context.Context, code string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM sightings WHERE sighting_code = $1`, code)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func pictureColumns(pictures []string) (p1, p2, p3 *string) {
	if len(pictures) > 0 {
		p1 = &pictures[0]
	}
	if len(pictures) > 1 {
		p2 = &pictures[1]
	}
	if len(pictures) > 2 {
		p3 = &pictures[2]
	}
	return p1, p2, p3
}

func scanSighting(row pgx.Row) (Sighting, error) {
	var (
		s          Sighting
		p1, p2, p3 *string
		date       time.Time
		createdAt  time.Time
	)
	if err := row.Scan(&s.ID, &s.SightingCode, &s.Species, &date, &s.Notes,
		&p1, &p2, &p3, &s.Longitude, &s.Latitude, &s.CreatedBy, &createdAt); err != nil {
		return Sighting{}, err
	}
	s.SightingDate = date
	s.CreatedAt = createdAt.UTC()
	for _, p := range []*string{p1, p2, p3} {
		if p != nil {
			s.Pictures = append(s.Pictures, *p)
		}
	}
	return s, nil
}
