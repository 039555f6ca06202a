package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"

	"notechan/internal/notes/ports/repositories"
	"notechan/pkg/logger"
)

const msgStoreUnhealthy = "store ping failed, reporting NOT_SERVING"

// WatchHealth пингует хранилище каждые interval и обновляет статус сервера.
// Блокируется до отмены ctx.
func WatchHealth(ctx context.Context, server *Server, store repositories.Pinger, interval time.Duration) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		if err := store.Ping(pingCtx); err != nil {
			logger.Log(ctx).Warn(ctx, msgStoreUnhealthy, zap.Error(err))
			server.SetServing(false)
			return
		}
		server.SetServing(true)
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
