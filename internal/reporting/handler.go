package reporting

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the read views over HTTP.
type Handler struct {
	service *Service
	loc     *time.Location
}

// NewHandler builds a handler; date-only query values are read in loc.
func NewHandler(service *Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, loc: loc}
}

func (h *Handler) Snapshot(c *fiber.Ctx) error {
	snap, err := h.service.Snapshot(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(snap)
}

func (h *Handler) History(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return err
	}
	page, err := h.service.History(c.UserContext(), req)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(page)
}

func (h *Handler) Unmatched(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return err
	}
	page, err := h.service.Unmatched(c.UserContext(), req)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(page)
}

func (h *Handler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"counters": stats})
}

func (h *Handler) parseRequest(c *fiber.Ctx) (HistoryRequest, error) {
	req := HistoryRequest{Page: c.QueryInt("page", 1), Size: c.QueryInt("size", DefaultPageSize)}
	var err error
	if req.From, err = h.parseBound(c.Query("from"), false); err != nil {
		return HistoryRequest{}, fiber.NewError(http.StatusBadRequest, "invalid from: "+err.Error())
	}
	if req.To, err = h.parseBound(c.Query("to"), true); err != nil {
		return HistoryRequest{}, fiber.NewError(http.StatusBadRequest, "invalid to: "+err.Error())
	}
	if !req.From.IsZero() && !req.To.IsZero() && req.From.After(req.To) {
		return HistoryRequest{}, fiber.NewError(http.StatusBadRequest, "from must not be after to")
	}
	return req, nil
}

// parseBound accepts RFC 3339 or a bare date. A bare upper bound covers the
// whole day.
func (h *Handler) parseBound(value string, upper bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, value, h.loc)
	if err != nil {
		return time.Time{}, err
	}
	if upper {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return day.UTC(), nil
}
