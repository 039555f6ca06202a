package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"notechan/internal/notes/app"
)

// Сообщения об ошибках HTTP-слоя.
const (
	ErrMsgInternal           = "internal server error"
	ErrMsgInvalidRequestBody = "invalid request body"
	ErrMsgInvalidPagination  = "invalid pagination parameters"
	ErrMsgRouteNotFound      = "route not found"
)

// writeError отправляет ошибку операции; неклассифицированные ошибки становятся 500.
func writeError(ctx fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := ErrMsgInternal

	var appErr *app.Error
	if errors.As(err, &appErr) && appErr.Kind != app.KindInternal {
		status = appErr.StatusCode()
		msg = appErr.Message
	}
	return sendError(ctx, status, msg)
}

func sendError(ctx fiber.Ctx, status int, msg string) error {
	if err := ctx.Status(status).JSON(ErrorResponse{StatusCode: status, Error: msg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}
	return nil
}

// ErrorHandler отвечает на ошибки, дошедшие до Fiber, в той же форме, что и обработчики.
func ErrorHandler(ctx fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return sendError(ctx, fiberErr.Code, fiberErr.Message)
	}
	return writeError(ctx, err)
}
