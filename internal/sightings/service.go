package sightings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fieldnotes/sightings/internal/apperr"
	"github.com/fieldnotes/sightings/internal/identity"
)

// Service wraps sighting business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new sightings service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the fields of a new sighting.
type CreateInput struct {
	Species      string
	SightingDate time.Time
	Notes        string
	Pictures     []string
	Longitude    float64
	Latitude     float64
	CreatedBy    string
}

// Create records a new sighting under a fresh public code.
func (s *Service) Create(ctx context.Context, in CreateInput) (Sighting, error) {
	if len(in.Pictures) > MaxPictures {
		in.Pictures = in.Pictures[:MaxPictures]
	}
	record := Sighting{
		SightingCode: uuid.New().String(),
		Species:      in.Species,
		SightingDate: in.SightingDate,
		Notes:        in.Notes,
		Pictures:     in.Pictures,
		Longitude:    in.Longitude,
		Latitude:     in.Latitude,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		return Sighting{}, apperr.Transient("could not create sighting", err)
	}
	return record, nil
}

// List returns all sightings, newest first.
func (s *Service) List(ctx context.Context) ([]Sighting, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Transient("could not list sightings", err)
	}
	return out, nil
}

// Get fetches one sighting by public code.
func (s *Service) Get(ctx context.Context, code string) (Sighting, error) {
	record, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Sighting{}, apperr.NotFound("sighting not found")
		}
		return Sighting{}, apperr.Transient("could not load sighting", err)
	}
	return record, nil
}

// UpdateInput carries the editable fields of a sighting.
type UpdateInput struct {
	Species      string
	SightingDate time.Time
	Notes        string
	Longitude    float64
	Latitude     float64
}

// Update rewrites a sighting. The record owner may edit their own entries;
// validators and admins may edit any.
func (s *Service) Update(ctx context.Context, code string, in UpdateInput, actorCode string, actorRole identity.Role) (Sighting, error) {
	record, err := s.Get(ctx, code)
	if err != nil {
		return Sighting{}, err
	}
	if record.CreatedBy != actorCode && !actorRole.In(identity.RoleValidator, identity.RoleAdmin) {
		return Sighting{}, apperr.Forbidden("not allowed to edit this sighting")
	}

	record.Species = in.Species
	record.SightingDate = in.SightingDate
	record.Notes = in.Notes
	record.Longitude = in.Longitude
	record.Latitude = in.Latitude
	if err := s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Sighting{}, apperr.NotFound("sighting not found")
		}
		return Sighting{}, apperr.Transient("could not update sighting", err)
	}
	return record, nil
}

// Delete removes a sighting. Role gating happens at the route.
func (s *Service) Delete(ctx context.Context, code string) error {
	if err := s.repo.Delete(ctx, code); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("sighting not found")
		}
		return apperr.Transient("could not delete sighting", err)
	}
	return nil
}
