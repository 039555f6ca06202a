package http

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notechan/internal/notes/ports/services"
	"notechan/pkg/logger"
	"notechan/pkg/ratelimit"
)

// Ключи Locals и заголовки.
const (
	LocalUserContext = "userContext"
	LocalUserID      = "userID"
	HeaderRequestID  = "X-Request-ID"
)

// Сообщения middleware.
const (
	ErrorNoAuthHeader       = "no authorization header provided"
	ErrorInvalidTokenFormat = "invalid token format"
	ErrorInvalidToken       = "invalid or expired token"
	ErrorTooManyRequests    = "too many requests"
)

// requestContext возвращает контекст запроса с request id и logger.
func requestContext(ctx fiber.Ctx) context.Context {
	if userCtx, ok := ctx.Locals(LocalUserContext).(context.Context); ok {
		return userCtx
	}
	return ctx.Context()
}

func userID(ctx fiber.Ctx) string {
	id, _ := ctx.Locals(LocalUserID).(string)
	return id
}

// NewLoggerMiddleware присваивает запросу request id и пишет access log.
func NewLoggerMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := logger.NewRequestIDContext(ctx.Context(), ctx.Get(HeaderRequestID))
		requestID, _ := logger.GetRequestID(requestCtx)
		ctx.Locals(LocalUserContext, requestCtx)
		ctx.Set(HeaderRequestID, requestID)

		start := time.Now()
		log := logger.Log(requestCtx).With(
			zap.String("path", ctx.Path()),
			zap.String("method", ctx.Method()),
			zap.String("ip", ctx.IP()),
		)
		log.Debug(requestCtx, "request started")

		err := ctx.Next()

		fields := []zap.Field{
			zap.Int("status", ctx.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			log.Error(requestCtx, "request failed", append(fields, zap.Error(err))...)
			return fmt.Errorf("request processing error: %w", err)
		}

		log.Info(requestCtx, "request completed", fields...)
		return nil
	}
}

// NewRecoveryMiddleware превращает панику обработчика в ответ 500.
func NewRecoveryMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				requestCtx := requestContext(ctx)
				logger.Log(requestCtx).Error(requestCtx, "server panic",
					zap.String("error", fmt.Sprintf("%v", r)),
					zap.String("stack", string(debug.Stack())),
				)
				err = sendError(ctx, fiber.StatusInternalServerError, ErrMsgInternal)
			}
		}()

		return ctx.Next()
	}
}

// NewAuthMiddleware проверяет Bearer-токен и кладет ID пользователя в Locals.
func NewAuthMiddleware(tokens services.TokenService) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := requestContext(ctx)
		log := logger.Log(requestCtx).With(zap.String("middleware", "auth"))

		authHeader := ctx.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Debug(requestCtx, ErrorNoAuthHeader)
			return sendError(ctx, fiber.StatusUnauthorized, ErrorNoAuthHeader)
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			log.Debug(requestCtx, ErrorInvalidTokenFormat)
			return sendError(ctx, fiber.StatusUnauthorized, ErrorInvalidTokenFormat)
		}

		id, err := tokens.ValidateAccessToken(requestCtx, strings.TrimSpace(token))
		if err != nil {
			msg := ErrorInvalidToken
			if errors.Is(err, services.ErrExpiredJWTToken) {
				msg = services.ErrExpiredJWTToken.Error()
			}
			log.Debug(requestCtx, msg, zap.Error(err))
			return sendError(ctx, fiber.StatusUnauthorized, msg)
		}

		ctx.Locals(LocalUserID, id)
		return ctx.Next()
	}
}

// NewRateLimitMiddleware ограничивает частоту запросов одного пользователя.
// Без аутентификации ключом служит IP.
func NewRateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		key := userID(ctx)
		if key == "" {
			key = "ip:" + ctx.IP()
		}

		if !limiter.Allow(key) {
			requestCtx := requestContext(ctx)
			logger.Log(requestCtx).Warn(requestCtx, ErrorTooManyRequests, zap.String("key", key))
			ctx.Set(fiber.HeaderRetryAfter, "1")
			return sendError(ctx, fiber.StatusTooManyRequests, ErrorTooManyRequests)
		}
		return ctx.Next()
	}
}
