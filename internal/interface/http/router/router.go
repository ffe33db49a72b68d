package router

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wichananm65/persons-service/internal/interface/presenter"
	"github.com/wichananm65/persons-service/internal/person"
)

type Options struct {
	// StaticDir, when set, is served at "/" after the API routes.
	StaticDir        string
	CORSAllowOrigins string
}

// New builds the Fiber app: middleware, health check, person routes and the
// app-wide error handler.
func New(opts Options, logger *zap.SugaredLogger, personHandler *person.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(requestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSAllowOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	personHandler.RegisterPublicRoutes(app)

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}
	return app
}

// errorHandler renders routing errors and recovered panics with the same body
// the handlers use.
func errorHandler(logger *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "An unexpected error occurred."

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			logger.Errorw("unhandled error", "method", c.Method(), "path", c.Path(), "err", err)
		}
		return c.Status(code).JSON(presenter.NewError(code, message))
	}
}

func requestLogger(logger *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		logger.Debugw("http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		)
		return err
	}
}
