package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerRead/internal/app/repository"
	"github.com/sifan077/PowerRead/internal/app/service"
	"github.com/sifan077/PowerRead/internal/http/view"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by any backend that can report liveness.
type Pinger func(ctx context.Context) error

// PublicDeps groups dependencies required by unauthenticated handlers.
type PublicDeps struct {
	Logger  *zap.Logger
	Entries service.EntryService
	Checks  map[string]Pinger
}

// PublicHandler serves health probes and publicly shared entries.
type PublicHandler struct {
	logger  *zap.Logger
	entries service.EntryService
	checks  map[string]Pinger
}

// NewPublicHandler creates a public handler with the provided dependencies.
func NewPublicHandler(deps PublicDeps) *PublicHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicHandler{
		logger:  logger,
		entries: deps.Entries,
		checks:  deps.Checks,
	}
}

// Register wires public routes onto the provided router.
func (h *PublicHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/readyz", h.Ready)
	router.Get("/share/:uid", h.Shared)
}

// Health is a simple endpoint so we know the service is running.
func (h *PublicHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "PowerRead",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready pings every backend and reports 503 if any is down.
func (h *PublicHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	status := fiber.StatusOK
	results := make(fiber.Map, len(h.checks))
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			results[name] = err.Error()
			status = fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	return c.Status(status).JSON(fiber.Map{"checks": results})
}

// Shared renders GET /share/:uid as a standalone HTML page.
func (h *PublicHandler) Shared(c *fiber.Ctx) error {
	entry, err := h.entries.GetShared(c.UserContext(), c.Params("uid"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccessDenied):
			return c.Status(fiber.StatusForbidden).SendString("sharing is disabled")
		case errors.Is(err, repository.ErrEntryNotFound):
			return c.Status(fiber.StatusNotFound).SendString("shared entry not found")
		}
		h.logger.Error("failed to load shared entry", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("internal server error")
	}

	tags := make([]string, 0, len(entry.Tags))
	for _, t := range entry.Tags {
		tags = append(tags, t.Label)
	}

	html, err := view.RenderSharedEntryPage(view.SharedEntryPageData{
		Title:          entry.Title,
		URL:            entry.URL,
		DomainName:     entry.DomainName,
		Language:       entry.Language,
		PreviewPicture: entry.PreviewPicture,
		ReadingTime:    entry.ReadingTime,
		Content:        entry.Content,
		Tags:           tags,
		SavedAt:        entry.CreatedAt,
	})
	if err != nil {
		h.logger.Error("failed to render shared entry", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("failed to render page")
	}

	return c.
		Type("html", "utf-8").
		SendString(html)
}
