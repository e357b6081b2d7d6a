package httpapi

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/weather-search/internal/session"
	"github.com/i474232898/weather-search/internal/web"
)

const appName = "weather-search"

// AppOptions configures NewApp.
type AppOptions struct {
	SessionSecret string
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

// NewApp builds the Fiber application with global middleware, static assets
// and the API routes.
func NewApp(service WeatherService, sessions *session.Manager, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		Views:                 web.NewEngine(),
		ErrorHandler:          errorHandler,
	})

	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())
	app.Use(sessions.Middleware(opts.SessionSecret))

	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   web.Static(),
		MaxAge: 3600,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	RegisterRoutes(app, service, sessions)
	return app
}

// errorHandler renders every failure as {"detail": "..."}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		log.Printf("ERROR: %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{
		"detail": msg,
	})
}
