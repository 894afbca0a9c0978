package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerRead/internal/app/service"
	"go.uber.org/zap"
)

// TagDeps groups dependencies required by tag handlers.
type TagDeps struct {
	Logger *zap.Logger
	Tags   service.TagService
}

// TagHandler implements the tag API.
type TagHandler struct {
	logger *zap.Logger
	tags   service.TagService
}

// NewTagHandler creates a tag handler with the provided dependencies.
func NewTagHandler(deps TagDeps) *TagHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagHandler{logger: logger, tags: deps.Tags}
}

// Register wires tag routes onto an authenticated router.
func (h *TagHandler) Register(router fiber.Router) {
	tags := router.Group("/tags")
	{
		tags.Get("/", h.List)
		tags.Delete("/label", h.DeleteByLabel)
		tags.Delete("/labels", h.DeleteByLabels)
		tags.Delete("/:id", h.DeleteByID)
	}
}

// List handles GET /api/tags
func (h *TagHandler) List(c *fiber.Ctx) error {
	usage, err := h.tags.ListTags(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, h.logger, "list tags", err)
	}
	return c.JSON(fiber.Map{"tags": usage})
}

// DeleteByLabel handles DELETE /api/tags/label?tag=
func (h *TagHandler) DeleteByLabel(c *fiber.Ctx) error {
	label := strings.TrimSpace(c.Query("tag"))
	if label == "" {
		return badRequest(c, "tag is required")
	}
	tag, err := h.tags.RemoveTagByLabel(c.UserContext(), currentUser(c), label)
	if err != nil {
		return respondError(c, h.logger, "delete tag", err)
	}
	return c.JSON(tag)
}

// DeleteByLabels handles DELETE /api/tags/labels?tags=a,b
func (h *TagHandler) DeleteByLabels(c *fiber.Ctx) error {
	raw := c.Query("tags")
	if strings.TrimSpace(raw) == "" {
		return badRequest(c, "tags is required")
	}
	tags, err := h.tags.RemoveTagsByLabels(c.UserContext(), currentUser(c), strings.Split(raw, ","))
	if err != nil {
		return respondError(c, h.logger, "delete tags", err)
	}
	return c.JSON(fiber.Map{"tags": tags})
}

// DeleteByID handles DELETE /api/tags/:id
func (h *TagHandler) DeleteByID(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return badRequest(c, "invalid tag id")
	}
	tag, err := h.tags.RemoveTagByID(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, h.logger, "delete tag", err)
	}
	return c.JSON(tag)
}
