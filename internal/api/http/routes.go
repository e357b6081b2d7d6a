package httpapi

import (
	"context"
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-search/internal/common"
	"github.com/i474232898/weather-search/internal/session"
	"github.com/i474232898/weather-search/internal/weather"
	"github.com/i474232898/weather-search/internal/web"
)

var validate = validator.New()

// WeatherService is what the handlers need from weather.Service.
type WeatherService interface {
	Lookup(ctx context.Context, userID, city string) (weather.Lookup, error)
	Suggest(ctx context.Context, query string) []weather.Suggestion
	LastCity(ctx context.Context, userID string) (string, bool, error)
	Stats(ctx context.Context) ([]weather.CityStat, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service WeatherService, sessions *session.Manager) {
	app.Get("/", func(c *fiber.Ctx) error {
		userID := sessions.UserID(c)

		lastCity, _, err := service.LastCity(c.UserContext(), userID)
		if err != nil {
			// The page still works without the prefill.
			log.Printf("ERROR: last city for %s: %v", userID, err)
		}

		return c.Render("index", web.IndexData{LastCity: lastCity})
	})

	app.Post("/weather", func(c *fiber.Ctx) error {
		var req weatherForm
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		userID := sessions.UserID(c)

		result, err := service.Lookup(c.UserContext(), userID, req.City)
		if err != nil {
			switch {
			case errors.Is(err, weather.ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, "City not found")
			case errors.Is(err, weather.ErrUpstream):
				return fiber.NewError(fiber.StatusInternalServerError, "Weather API error")
			case errors.Is(err, weather.ErrStorage):
				log.Printf("ERROR: weather lookup for %q: %v", req.City, err)
				return fiber.NewError(fiber.StatusInternalServerError, "Storage error")
			}
			return err
		}

		return c.JSON(result)
	})

	app.Get("/autocomplete", func(c *fiber.Ctx) error {
		var req autocompleteQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(service.Suggest(c.UserContext(), req.Query))
	})

	app.Get("/search-stats", func(c *fiber.Ctx) error {
		stats, err := service.Stats(c.UserContext())
		if err != nil {
			log.Printf("ERROR: search stats: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Storage error")
		}
		return c.JSON(stats)
	})
}

// weatherForm is the urlencoded body of POST /weather.
type weatherForm struct {
	City string `form:"city" validate:"required"`
}

func (f *weatherForm) bind(c *fiber.Ctx) error {
	if err := c.BodyParser(f); err != nil {
		return errors.New("city form field is required")
	}
	f.City = common.NormalizeCity(f.City)
	if err := validate.Struct(f); err != nil {
		return errors.New("city form field is required")
	}
	return nil
}

// autocompleteQuery holds the query parameters of GET /autocomplete.
type autocompleteQuery struct {
	Query string `validate:"required"`
}

func (q *autocompleteQuery) bind(c *fiber.Ctx) error {
	q.Query = common.NormalizeCity(c.Query("query"))
	if err := validate.Struct(q); err != nil {
		return errors.New("query parameter is required")
	}
	return nil
}
