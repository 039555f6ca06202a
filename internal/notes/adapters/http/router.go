// Package http содержит HTTP-транспорт сервиса заметок на Fiber.
package http

import (
	"github.com/gofiber/fiber/v3"

	"notechan/internal/notes/ports/services"
	"notechan/pkg/ratelimit"
)

// SetupRouter настраивает маршрутизацию. limiter может быть nil.
func SetupRouter(app *fiber.App, handler *Handler, tokens services.TokenService, limiter *ratelimit.KeyedRateLimiter) {
	// Middleware для всех запросов.
	app.Use(NewLoggerMiddleware())
	app.Use(NewRecoveryMiddleware())

	app.Get("/healthz", handler.Health)

	apiV1 := app.Group("/api/v1")
	apiV1.Use(NewAuthMiddleware(tokens))
	if limiter != nil {
		apiV1.Use(NewRateLimitMiddleware(limiter))
	}

	notesRoutes := apiV1.Group("/notes")
	notesRoutes.Post("/", handler.CreateNote)
	notesRoutes.Get("/", handler.ListNotes)
	notesRoutes.Get("/:note_id", handler.GetNote)
	notesRoutes.Patch("/:note_id", handler.UpdateNote)
	notesRoutes.Delete("/:note_id", handler.DeleteNote)

	channelRoutes := apiV1.Group("/channels")
	channelRoutes.Post("/", handler.CreateChannel)
	channelRoutes.Get("/", handler.ListChannels)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(ctx fiber.Ctx) error {
		return sendError(ctx, fiber.StatusNotFound, ErrMsgRouteNotFound)
	})
}

// NewApp создает приложение Fiber с общим обработчиком ошибок.
func NewApp(cfg fiber.Config) *fiber.App {
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = ErrorHandler
	}
	return fiber.New(cfg)
}
