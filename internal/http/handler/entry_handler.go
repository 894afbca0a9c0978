package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerRead/internal/app/repository"
	"github.com/sifan077/PowerRead/internal/app/service"
	"go.uber.org/zap"
)

// EntryDeps groups dependencies required by entry handlers.
type EntryDeps struct {
	Logger  *zap.Logger
	Entries service.EntryService
	Listing service.ListingService
}

// EntryHandler implements the entry API.
type EntryHandler struct {
	logger  *zap.Logger
	entries service.EntryService
	listing service.ListingService
}

// NewEntryHandler creates an entry handler with the provided dependencies.
func NewEntryHandler(deps EntryDeps) *EntryHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryHandler{
		logger:  logger,
		entries: deps.Entries,
		listing: deps.Listing,
	}
}

// Register wires entry routes onto an authenticated router.
func (h *EntryHandler) Register(router fiber.Router) {
	entries := router.Group("/entries")
	{
		entries.Post("/", h.Create)
		entries.Get("/", h.List)
		entries.Get("/:id", h.Get)
		entries.Patch("/:id", h.Update)
		entries.Delete("/:id", h.Delete)
		entries.Post("/:id/reload", h.Reload)
		entries.Post("/:id/archive", h.ToggleArchive)
		entries.Post("/:id/star", h.ToggleStar)
		entries.Post("/:id/share", h.Share)
		entries.Delete("/:id/share", h.Unshare)
		entries.Put("/:id/groups", h.SetGroups)
		entries.Post("/:id/tags", h.AddTags)
		entries.Delete("/:id/tags/:tag", h.RemoveTag)
	}
	router.Get("/groups/:group/entries", h.ListGroup)
}

// CreateEntryRequest represents the request body for saving a URL.
type CreateEntryRequest struct {
	URL   string   `json:"url"`
	Title string   `json:"title,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// UpdateEntryRequest represents the request body for editing an entry.
type UpdateEntryRequest struct {
	Title string `json:"title"`
}

// TagsRequest carries labels to attach.
type TagsRequest struct {
	Tags []string `json:"tags"`
}

// GroupsRequest carries the full set of groups an entry is visible to.
type GroupsRequest struct {
	Groups []uint `json:"groups"`
}

// Create handles POST /api/entries
func (h *EntryHandler) Create(c *fiber.Ctx) error {
	var req CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.URL) == "" {
		return badRequest(c, "url is required")
	}

	res, err := h.entries.Create(c.UserContext(), currentUser(c), service.CreateEntryInput{
		URL:   req.URL,
		Title: req.Title,
		Tags:  req.Tags,
	})
	if err != nil {
		return respondError(c, h.logger, "create entry", err)
	}

	status := fiber.StatusCreated
	if res.Existing {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"entry":    res.Entry,
		"existing": res.Existing,
	})
}

// Bookmarklet handles GET /bookmarklet?url=
func (h *EntryHandler) Bookmarklet(c *fiber.Ctx) error {
	raw := c.Query("url")
	if raw == "" {
		return badRequest(c, "url is required")
	}

	res, err := h.entries.CreateFromBookmarklet(c.UserContext(), currentUser(c), raw)
	if err != nil {
		return respondError(c, h.logger, "bookmarklet", err)
	}
	return c.JSON(fiber.Map{
		"entry":    res.Entry,
		"existing": res.Existing,
	})
}

// List handles GET /api/entries
func (h *EntryHandler) List(c *fiber.Ctx) error {
	view := repository.View(c.Query("view", string(repository.ViewUnread)))
	filter, err := parseFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	input := service.ListInput{
		View:        view,
		Page:        c.QueryInt("page", 1),
		SearchTerm:  c.Query("term"),
		SearchScope: repository.View(c.Query("scope")),
		Filter:      filter,
	}
	return h.list(c, input)
}

// ListGroup handles GET /api/groups/:group/entries
func (h *EntryHandler) ListGroup(c *fiber.Ctx) error {
	groupID, ok := uintParam(c, "group")
	if !ok {
		return badRequest(c, "invalid group id")
	}
	filter, err := parseFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return h.list(c, service.ListInput{
		View:    repository.ViewGroup,
		GroupID: groupID,
		Page:    c.QueryInt("page", 1),
		Filter:  filter,
	})
}

func (h *EntryHandler) list(c *fiber.Ctx, input service.ListInput) error {
	res, err := h.listing.List(c.UserContext(), currentUser(c), input)
	if err != nil {
		return respondError(c, h.logger, "list entries", err)
	}

	if res.RedirectPage > 0 {
		return c.Redirect(pageURL(c, res.RedirectPage), fiber.StatusFound)
	}

	return c.JSON(fiber.Map{
		"entries":     res.Page.Entries,
		"page":        res.Page.Number,
		"per_page":    res.Page.PerPage,
		"total":       res.Page.TotalItems,
		"total_pages": res.Page.TotalPages,
	})
}

// Get handles GET /api/entries/:id
func (h *EntryHandler) Get(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return badRequest(c, "invalid entry id")
	}
	entry, err := h.entries.Get(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, h.logger, "get entry", err)
	}
	return c.JSON(entry)
}

// Update handles PATCH /api/entries/:id
func (h *EntryHandler) Update(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return badRequest(c, "invalid entry id")
	}
	var req UpdateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	entry, err := h.entries.Update(c.UserContext(), currentUser(c), id, service.UpdateEntryInput{Title: req.Title})
	if err != nil {
		return respondError(c, h.logger, "update entry", err)
	}
	return c.JSON(entry)
}

// Delete handles DELETE /api/entries/:id
func (h *EntryHandler) Delete(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return badRequest(c, "invalid entry id")
	}
	if err := h.entries.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, h.logger, "delete entry", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reload handles POST /api/entries/:id/reload
func (h *EntryHandler) Reload(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return badRequest(c, "invalid entry id")
	}
	res, err := h.entries.Reload(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, h.logger, "reload entry", err)
	}
	if res.Failed {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "failed to reload entry, content left unchanged",
			"entry": res.Entry,
		})
	}
	return c.JSON(res.Entry)
}

// ToggleArchive handles POST /api/entries/:id/archive
func (h *EntryHandler) ToggleArchive(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return badRequest(c, "invalid entry id")
	}
	archived, err := h.entries.ToggleArchive(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, h.logger, "archive entry", err)
	}
	return c.JSON(fiber.Map{"id": id, "is_archived": archived})
}

// ToggleStar handles POST /api/entries/:id/star
func (h *EntryHandler) ToggleStar(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return badRequest(c, "invalid entry id")
	}
	starred, err := h.entries.ToggleStar(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, h.logger, "star entry", err)
	}
	return c.JSON(fiber.Map{"id": id, "is_starred": starred})
}

// Share handles POST /api/entries/:id/share
func (h *EntryHandler) Share(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return badRequest(c, "invalid entry id")
	}
	uid, err := h.entries.Share(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, h.logger, "share entry", err)
	}
	return c.JSON(fiber.Map{
		"uid": uid,
		"url": c.BaseURL() + "/share/" + uid,
	})
}

// Unshare handles DELETE /api/entries/:id/share
func (h *EntryHandler) Unshare(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return badRequest(c, "invalid entry id")
	}
	if err := h.entries.Unshare(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, h.logger, "unshare entry", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetGroups handles PUT /api/entries/:id/groups
func (h *EntryHandler) SetGroups(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return badRequest(c, "invalid entry id")
	}
	var req GroupsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	entry, err := h.entries.SetGroupVisibility(c.UserContext(), currentUser(c), id, req.Groups)
	if err != nil {
		return respondError(c, h.logger, "set entry groups", err)
	}
	return c.JSON(entry)
}

// AddTags handles POST /api/entries/:id/tags
func (h *EntryHandler) AddTags(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return badRequest(c, "invalid entry id")
	}
	var req TagsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	entry, err := h.entries.AddTags(c.UserContext(), currentUser(c), id, req.Tags)
	if err != nil {
		return respondError(c, h.logger, "tag entry", err)
	}
	return c.JSON(entry)
}

// RemoveTag handles DELETE /api/entries/:id/tags/:tag
func (h *EntryHandler) RemoveTag(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return badRequest(c, "invalid entry id")
	}
	tagID, ok := uintParam(c, "tag")
	if !ok {
		return badRequest(c, "invalid tag id")
	}
	if err := h.entries.RemoveTag(c.UserContext(), currentUser(c), id, tagID); err != nil {
		return respondError(c, h.logger, "untag entry", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func pageURL(c *fiber.Ctx, page int) string {
	q := url.Values{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		q.Add(string(k), string(v))
	})
	q.Set("page", strconv.Itoa(page))
	return c.Path() + "?" + q.Encode()
}

func parseFilter(c *fiber.Ctx) (repository.EntryFilter, error) {
	var f repository.EntryFilter
	var err error

	if f.CreatedFrom, err = queryTime(c, "created_from"); err != nil {
		return f, err
	}
	if f.CreatedTo, err = queryTime(c, "created_to"); err != nil {
		return f, err
	}
	if f.ReadingTimeMin, err = queryInt(c, "reading_time_min"); err != nil {
		return f, err
	}
	if f.ReadingTimeMax, err = queryInt(c, "reading_time_max"); err != nil {
		return f, err
	}
	if f.Archived, err = queryBool(c, "archived"); err != nil {
		return f, err
	}
	if f.Starred, err = queryBool(c, "starred"); err != nil {
		return f, err
	}
	if f.Public, err = queryBool(c, "public"); err != nil {
		return f, err
	}
	f.Domain = c.Query("domain")
	f.Language = c.Query("language")
	return f, nil
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fieldError(key, "must be a RFC 3339 timestamp or YYYY-MM-DD date")
}

func queryInt(c *fiber.Ctx, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, fieldError(key, "must be a non-negative integer")
	}
	return &v, nil
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fieldError(key, "must be true or false")
	}
	return &v, nil
}

type queryError struct {
	key, msg string
}

func (e *queryError) Error() string { return e.key + " " + e.msg }

func fieldError(key, msg string) error {
	return &queryError{key: key, msg: msg}
}
