package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fieldnotes/sightings/internal/auth"
	"github.com/fieldnotes/sightings/internal/config"
	"github.com/fieldnotes/sightings/internal/identity"
	"github.com/fieldnotes/sightings/internal/middleware"
	"github.com/fieldnotes/sightings/internal/notification"
	"github.com/fieldnotes/sightings/internal/sightings"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) && d.DB == nil {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Static photo serving
	app.Static("/images", d.Cfg.ImagesDir)

	// Repositories and services
	var userRepo identity.Repository
	if d.DB != nil {
		userRepo = identity.NewPostgresRepository(d.DB)
	} else {
		userRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(userRepo)
	tokenSvc := auth.NewTokenService(d.Cfg.TokenSecret, d.Cfg.TokenTTL)

	var mailer notification.Mailer
	if d.Cfg.SMTPAddr != "" {
		mailer = notification.NewSMTPMailer(d.Cfg.SMTPAddr, d.Cfg.SMTPFrom, d.Cfg.SMTPUsername, d.Cfg.SMTPPassword)
	} else {
		mailer = notification.NewLogMailer(d.Logger)
	}
	resetSvc := auth.NewResetService(userRepo, mailer, auth.ResetConfig{
		Secret:      d.Cfg.TokenSecret,
		EnvelopeTTL: d.Cfg.EnvelopeTTL,
		ResetTTL:    d.Cfg.ResetTTL,
		BaseURL:     d.Cfg.ResetBaseURL,
	}, d.Logger)
	authHandler := auth.NewHandler(identitySvc, tokenSvc, resetSvc)

	var sightingRepo sightings.Repository
	if d.DB != nil {
		sightingRepo = sightings.NewPostgresRepository(d.DB)
	} else {
		sightingRepo = sightings.NewMemoryRepository()
	}
	sightingSvc := sightings.NewService(sightingRepo)
	sightingHandler := sightings.NewHandler(sightingSvc, d.Cfg.ImagesDir)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	authenticate := middleware.Authenticate(tokenSvc)
	RegisterSightingRoutes(api, sightingHandler, authenticate)

	// Protected routes
	protected := api.Group("", authenticate)
	protected.Get("/me", func(c *fiber.Ctx) error {
		claims, _ := middleware.ClaimsFromCtx(c)
		user, err := userRepo.FindByCode(c.UserContext(), claims.UserCode)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return c.JSON(fiber.Map{
			"user_code":  user.UserCode,
			"email":      user.Email,
			"name":       user.Name,
			"role":       user.Role,
			"active":     user.Active,
			"created_at": user.CreatedAt,
		})
	})

	RegisterUserRoutes(protected, identitySvc)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
