package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notechan/internal/notes/ports/api"
	"notechan/internal/notes/ports/repositories"
	"notechan/pkg/logger"
)

// Константы сообщений для логирования.
const (
	LogHandlerCreateNote    = "handling create note request"
	LogHandlerGetNote       = "handling get note request"
	LogHandlerListNotes     = "handling list notes request"
	LogHandlerUpdateNote    = "handling update note request"
	LogHandlerDeleteNote    = "handling delete note request"
	LogHandlerCreateChannel = "handling create channel request"
	LogHandlerListChannels  = "handling list channels request"

	defaultPageLimit = "10"
)

// Handler обрабатывает HTTP-запросы к заметкам и каналам.
type Handler struct {
	notes     api.NoteService
	channels  api.ChannelService
	store     repositories.Pinger
	validator *Validator
}

// NewHandler создает обработчик.
func NewHandler(notes api.NoteService, channels api.ChannelService, store repositories.Pinger) *Handler {
	return &Handler{
		notes:     notes,
		channels:  channels,
		store:     store,
		validator: NewValidator(),
	}
}

func sendJSON(ctx fiber.Ctx, status int, body any) error {
	if err := ctx.Status(status).JSON(body); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// CreateNote обрабатывает POST /notes.
func (h *Handler) CreateNote(ctx fiber.Ctx) error {
	requestCtx := requestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.CreateNote"))
	log.Debug(requestCtx, LogHandlerCreateNote)

	var req CreateNoteRequest
	if err := ctx.Bind().Body(&req); err != nil {
		log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}
	if err := h.validator.Validate(&req); err != nil {
		return writeError(ctx, err)
	}

	env, err := h.notes.CreateNote(requestCtx, userID(ctx), req.toInput())
	if err != nil {
		return writeError(ctx, err)
	}
	return sendJSON(ctx, env.StatusCode, env)
}

// GetNote обрабатывает GET /notes/:note_id.
func (h *Handler) GetNote(ctx fiber.Ctx) error {
	requestCtx := requestContext(ctx)
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerGetNote, zap.String("handler", "Handler.GetNote"))

	env, err := h.notes.GetNote(requestCtx, userID(ctx), ctx.Params("note_id"))
	if err != nil {
		return writeError(ctx, err)
	}
	return sendJSON(ctx, env.StatusCode, env)
}

// ListNotes обрабатывает GET /notes?skip=&limit=&page=.
func (h *Handler) ListNotes(ctx fiber.Ctx) error {
	requestCtx := requestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.ListNotes"))
	log.Debug(requestCtx, LogHandlerListNotes)

	query, err := parsePageQuery(ctx)
	if err != nil {
		log.Debug(requestCtx, ErrMsgInvalidPagination, zap.Error(err))
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidPagination)
	}

	env, err := h.notes.GetNotes(requestCtx, userID(ctx), query)
	if err != nil {
		return writeError(ctx, err)
	}
	return sendJSON(ctx, env.StatusCode, env)
}

func parsePageQuery(ctx fiber.Ctx) (api.PageQuery, error) {
	var (
		q   api.PageQuery
		err error
	)
	if q.Skip, err = strconv.Atoi(ctx.Query("skip", "0")); err != nil {
		return q, fmt.Errorf("skip: %w", err)
	}
	if q.Limit, err = strconv.Atoi(ctx.Query("limit", defaultPageLimit)); err != nil {
		return q, fmt.Errorf("limit: %w", err)
	}
	if q.Page, err = strconv.Atoi(ctx.Query("page", "0")); err != nil {
		return q, fmt.Errorf("page: %w", err)
	}
	return q, nil
}

// UpdateNote обрабатывает PATCH /notes/:note_id.
func (h *Handler) UpdateNote(ctx fiber.Ctx) error {
	requestCtx := requestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.UpdateNote"))
	log.Debug(requestCtx, LogHandlerUpdateNote)

	var req UpdateNoteRequest
	if err := ctx.Bind().Body(&req); err != nil {
		log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}
	if err := h.validator.Validate(&req); err != nil {
		return writeError(ctx, err)
	}

	env, err := h.notes.UpdateNote(requestCtx, userID(ctx), ctx.Params("note_id"), req.toPatch())
	if err != nil {
		return writeError(ctx, err)
	}
	return sendJSON(ctx, env.StatusCode, env)
}

// DeleteNote обрабатывает DELETE /notes/:note_id. Успех - 204 без тела.
func (h *Handler) DeleteNote(ctx fiber.Ctx) error {
	requestCtx := requestContext(ctx)
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerDeleteNote, zap.String("handler", "Handler.DeleteNote"))

	env, err := h.notes.DeleteNote(requestCtx, userID(ctx), ctx.Params("note_id"))
	if err != nil {
		return writeError(ctx, err)
	}

	if err := ctx.SendStatus(env.StatusCode); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// CreateChannel обрабатывает POST /channels.
func (h *Handler) CreateChannel(ctx fiber.Ctx) error {
	requestCtx := requestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.CreateChannel"))
	log.Debug(requestCtx, LogHandlerCreateChannel)

	var req CreateChannelRequest
	if err := ctx.Bind().Body(&req); err != nil {
		log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}
	if err := h.validator.Validate(&req); err != nil {
		return writeError(ctx, err)
	}

	env, err := h.channels.CreateChannel(requestCtx, userID(ctx), req.toInput())
	if err != nil {
		return writeError(ctx, err)
	}
	return sendJSON(ctx, env.StatusCode, env)
}

// ListChannels обрабатывает GET /channels.
func (h *Handler) ListChannels(ctx fiber.Ctx) error {
	requestCtx := requestContext(ctx)
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerListChannels, zap.String("handler", "Handler.ListChannels"))

	env, err := h.channels.ListChannels(requestCtx, userID(ctx))
	if err != nil {
		return writeError(ctx, err)
	}
	return sendJSON(ctx, env.StatusCode, env)
}

// Health обрабатывает GET /healthz: 200, если хранилище отвечает, иначе 503.
func (h *Handler) Health(ctx fiber.Ctx) error {
	requestCtx := requestContext(ctx)
	if err := h.store.Ping(requestCtx); err != nil {
		logger.Log(requestCtx).Warn(requestCtx, "health check failed", zap.Error(err))
		return sendJSON(ctx, fiber.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
	}
	return sendJSON(ctx, fiber.StatusOK, HealthResponse{Status: "ok"})
}
