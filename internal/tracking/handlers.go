package tracking

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"backend-tracksmith/internal/archive"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var req Session
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		session := svc.StartSession(req)
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/sessions/:id/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var req Point
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		outcome, err := svc.ProcessFix(c.Params("id"), req)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(outcome)
	})

	r.Post("/sessions/:id/failures", authMiddleware, func(c *fiber.Ctx) error {
		var req FailureReport
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Kind == "" {
			return fiber.NewError(fiber.StatusBadRequest, "kind required")
		}
		if err := svc.ReportFailure(c.Params("id"), req.Kind, req.Message); err != nil {
			return httpError(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/sessions/:id/stop", authMiddleware, func(c *fiber.Ctx) error {
		summary, err := svc.StopSession(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(summary)
	})

	r.Get("/sessions", func(c *fiber.Ctx) error {
		return c.JSON(svc.Sessions())
	})

	r.Get("/sessions/:id", func(c *fiber.Ctx) error {
		status, err := svc.Status(c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(status)
	})

	r.Get("/sessions/:id/track", func(c *fiber.Ctx) error {
		points, err := svc.TrackPoints(c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(points)
	})

	r.Get("/sessions/:id/summary", func(c *fiber.Ctx) error {
		summary, err := svc.Summary(c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(summary)
	})

	r.Get("/archive", func(c *fiber.Ctx) error {
		records, err := svc.ArchiveRecent(c.Context(), c.QueryInt("limit"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(records)
	})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrSessionStopped):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, archive.ErrDisabled):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
