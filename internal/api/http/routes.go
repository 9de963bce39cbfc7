package httpapi

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/alfred-weather/internal/command"
	"github.com/i474232898/alfred-weather/internal/present"
)

var validate = validator.New()

// Dispatcher runs launcher commands.
type Dispatcher interface {
	Tell(ctx context.Context, verb, query string) command.Outcome
	Do(ctx context.Context, verb, query string) command.Outcome
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Dispatcher) {
	v1 := app.Group("/api/v1")

	v1.Get("/tell/:verb", func(c *fiber.Ctx) error {
		req := commandRequest{Verb: c.Params("verb"), Query: c.Query("q")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		out := d.Tell(c.UserContext(), req.Verb, req.Query)
		items := out.Items
		if items == nil {
			items = []present.Item{}
		}
		return c.Status(statusFor(out)).JSON(fiber.Map{
			"kind":  out.Kind.String(),
			"items": items,
		})
	})

	v1.Post("/do/:verb", func(c *fiber.Ctx) error {
		req := commandRequest{Verb: c.Params("verb")}
		var body struct {
			Query string `json:"query"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}
		req.Query = body.Query
		if req.Query == "" {
			req.Query = c.Query("q")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		out := d.Do(c.UserContext(), req.Verb, req.Query)
		return c.Status(statusFor(out)).JSON(fiber.Map{
			"kind":    out.Kind.String(),
			"message": out.Message,
		})
	})
}

// commandRequest holds the verb and free-text query of a command.
type commandRequest struct {
	Verb  string `validate:"required,max=32"`
	Query string `validate:"max=512"`
}

func statusFor(out command.Outcome) int {
	switch out.Kind {
	case command.OK:
		return fiber.StatusOK
	case command.NeedsSetup:
		return fiber.StatusConflict
	case command.Upstream:
		return fiber.StatusBadGateway
	}
	if command.IsUnknownVerb(out.Err) {
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}
