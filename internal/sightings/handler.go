package sightings

import (
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fieldnotes/sightings/internal/apperr"
	"github.com/fieldnotes/sightings/internal/middleware"
)

const dateLayout = "2006-01-02"

// Handler exposes sighting endpoints.
type Handler struct {
	svc       *Service
	imagesDir string
}

// NewHandler constructs a sightings HTTP handler. Uploaded photos are stored
// under imagesDir with randomized filenames.
func NewHandler(svc *Service, imagesDir string) *Handler {
	return &Handler{svc: svc, imagesDir: imagesDir}
}

type sightingResponse struct {
	SightingCode string   `json:"sighting_code"`
	Species      string   `json:"species"`
	SightingDate string   `json:"sighting_date"`
	Notes        string   `json:"notes"`
	Pictures     []string `json:"pictures"`
	Longitude    float64  `json:"longitude"`
	Latitude     float64  `json:"latitude"`
	CreatedBy    string   `json:"created_by"`
	CreatedAt    string   `json:"created_at"`
}

func toResponse(s Sighting) sightingResponse {
	return sightingResponse{
		SightingCode: s.SightingCode,
		Species:      s.Species,
		SightingDate: s.SightingDate.Format(dateLayout),
		Notes:        s.Notes,
		Pictures:     s.Pictures,
		Longitude:    s.Longitude,
		Latitude:     s.Latitude,
		CreatedBy:    s.CreatedBy,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
	}
}

// List returns all sightings.
func (h *Handler) List(c *fiber.Ctx) error {
	records, err := h.svc.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]sightingResponse, 0, len(records))
	for _, s := range records {
		out = append(out, toResponse(s))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Get returns one sighting by code.
func (h *Handler) Get(c *fiber.Ctx) error {
	record, err := h.svc.Get(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(record))
}

// Create records a new sighting from a multipart form with up to three photos.
func (h *Handler) Create(c *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(c)
	if !ok {
		return apperr.MissingCredential("authentication required")
	}

	species := c.FormValue("species")
	if species == "" {
		return fiber.NewError(http.StatusBadRequest, "species is required")
	}
	date, err := time.Parse(dateLayout, c.FormValue("sighting_date"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "sighting_date must be YYYY-MM-DD")
	}
	longitude, latitude, err := parseCoordinates(c.FormValue("longitude"), c.FormValue("latitude"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	var pictures []string
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files := form.File["pictures"]
		if len(files) > MaxPictures {
			return fiber.NewError(http.StatusBadRequest, "at most 3 pictures per sighting")
		}
		for _, file := range files {
			name := uuid.NewString() + filepath.Ext(file.Filename)
			if err := c.SaveFile(file, filepath.Join(h.imagesDir, name)); err != nil {
				return fiber.NewError(http.StatusInternalServerError, "could not store picture")
			}
			pictures = append(pictures, name)
		}
	}

	record, err := h.svc.Create(c.UserContext(), CreateInput{
		Species:      species,
		SightingDate: date,
		Notes:        c.FormValue("notes"),
		Pictures:     pictures,
		Longitude:    longitude,
		Latitude:     latitude,
		CreatedBy:    claims.UserCode,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toResponse(record))
}

type updateRequest struct {
	Species      string  `json:"species"`
	SightingDate string  `json:"sighting_date"`
	Notes        string  `json:"notes"`
	Longitude    float64 `json:"longitude"`
	Latitude     float64 `json:"latitude"`
}

// Update rewrites a sighting's editable fields.
func (h *Handler) Update(c *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(c)
	if !ok {
		return apperr.MissingCredential("authentication required")
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	date, err := time.Parse(dateLayout, req.SightingDate)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "sighting_date must be YYYY-MM-DD")
	}

	record, err := h.svc.Update(c.UserContext(), c.Params("code"), UpdateInput{
		Species:      req.Species,
		SightingDate: date,
		Notes:        req.Notes,
		Longitude:    req.Longitude,
		Latitude:     req.Latitude,
	}, claims.UserCode, claims.Role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(record))
}

// Delete removes a sighting.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), c.Params("code")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseCoordinates(lon, lat string) (float64, float64, error) {
	longitude, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return 0, 0, fiber.NewError(http.StatusBadRequest, "longitude must be a number")
	}
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0, fiber.NewError(http.StatusBadRequest, "latitude must be a number")
	}
	return longitude, latitude, nil
}
