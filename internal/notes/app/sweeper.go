package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"notechan/internal/notes/domain/entities"
	"notechan/internal/notes/ports/cache"
	"notechan/internal/notes/ports/cleanup"
	"notechan/internal/notes/ports/repositories"
	"notechan/internal/notes/resilience"
	"notechan/pkg/logger"
)

const (
	methodSweepOnce = "SweepOnce"

	msgSweepDone      = "cleanup sweep finished"
	msgTaskFailed     = "cleanup task failed"
	msgTaskDropped    = "cleanup task dropped"
	msgRequeueFailed  = "failed to requeue cleanup tasks"
	msgSweepFailed    = "cleanup sweep failed"
	msgSweeperStopped = "cleanup sweeper stopped"
	msgEvictFailed    = "failed to evict swept note from cache"

	ErrMsgPopCleanup     = "failed to pop cleanup tasks"
	ErrMsgRequeueCleanup = "failed to requeue cleanup tasks"
	ErrMsgUnknownKind    = "unknown cleanup task kind"
)

// DefaultMaxTaskAttempts - после стольких неудачных проходов задача отбрасывается.
const DefaultMaxTaskAttempts = 10

var errUnknownKind = errors.New(ErrMsgUnknownKind)

// SweepStats - итог одного прохода очистки.
type SweepStats struct {
	Processed int
	Removed   int
	Requeued  int
	Dropped   int
}

// Sweeper дочищает объекты, оставшиеся после частичного каскадного удаления.
type Sweeper struct {
	queue       cleanup.Queue
	notes       repositories.NoteRepository
	channels    repositories.ChannelRepository
	cache       cache.Cache
	guard       *resilience.ServiceResilience
	batch       int
	maxAttempts int
}

// NewSweeper создает Sweeper. guard защищает вызовы хранилища.
// noteCache может быть nil; иначе из него удаляются дочищенные заметки.
func NewSweeper(
	queue cleanup.Queue,
	notes repositories.NoteRepository,
	channels repositories.ChannelRepository,
	noteCache cache.Cache,
	guard *resilience.ServiceResilience,
	batch int,
) *Sweeper {
	if noteCache == nil {
		noteCache = nopCache{}
	}
	return &Sweeper{
		queue:       queue,
		notes:       notes,
		channels:    channels,
		cache:       noteCache,
		guard:       guard,
		batch:       batch,
		maxAttempts: DefaultMaxTaskAttempts,
	}
}

// SweepOnce забирает из очереди до batch задач и удаляет их цели.
// Неудачные задачи возвращаются в очередь.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepStats, error) {
	log := logger.Log(ctx).With(zap.String("method", methodSweepOnce))

	var stats SweepStats

	tasks, err := s.queue.Pop(ctx, s.batch)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", ErrMsgPopCleanup, err)
	}

	var retry []entities.CleanupTask
	for _, task := range tasks {
		stats.Processed++

		// Неисправимые ошибки не должны ни повторяться, ни открывать Circuit Breaker.
		var permanent error
		err := s.guard.ExecuteWithResilience(ctx, "cleanup_"+string(task.Kind), func() error {
			rErr := s.remove(ctx, task)
			if isPermanent(rErr) {
				permanent = rErr
				return nil
			}
			return rErr
		})

		switch {
		case err == nil && permanent == nil:
			stats.Removed++
			if task.Kind == entities.CleanupNote {
				if cErr := s.cache.Delete(ctx, NoteCacheKey(task.UserID, task.ID)); cErr != nil {
					log.Warn(ctx, msgEvictFailed, zap.Any("task", task), zap.Error(cErr))
				}
			}
		case permanent != nil:
			stats.Dropped++
			log.Error(ctx, msgTaskDropped, zap.Any("task", task), zap.Error(permanent))
		default:
			task.Attempts++
			if task.Attempts >= s.maxAttempts {
				stats.Dropped++
				log.Error(ctx, msgTaskDropped, zap.Any("task", task), zap.Error(err))
				continue
			}
			log.Warn(ctx, msgTaskFailed, zap.Any("task", task), zap.Error(err))
			retry = append(retry, task)
		}
	}

	if len(retry) > 0 {
		if err := s.queue.Push(context.WithoutCancel(ctx), retry...); err != nil {
			log.Error(ctx, msgRequeueFailed, zap.Error(err), zap.Any("tasks", retry))
			return stats, fmt.Errorf("%s: %w", ErrMsgRequeueCleanup, err)
		}
		stats.Requeued = len(retry)
	}

	if stats.Processed > 0 {
		log.Info(ctx, msgSweepDone,
			zap.Int("processed", stats.Processed),
			zap.Int("removed", stats.Removed),
			zap.Int("requeued", stats.Requeued),
			zap.Int("dropped", stats.Dropped))
	}

	return stats, nil
}

// Run выполняет SweepOnce каждые interval до отмены ctx.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	log := logger.Log(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, msgSweeperStopped)
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.Error(ctx, msgSweepFailed, zap.Error(err))
			}
		}
	}
}

// remove удаляет цель задачи; уже отсутствующий объект считается удаленным.
func (s *Sweeper) remove(ctx context.Context, task entities.CleanupTask) error {
	var err error
	switch task.Kind {
	case entities.CleanupNote:
		_, err = s.notes.Delete(ctx, task.ID, task.UserID)
	case entities.CleanupChannel:
		_, err = s.channels.Delete(ctx, task.ID, task.UserID)
	default:
		return fmt.Errorf("%w: %q", errUnknownKind, task.Kind)
	}
	return err
}

func isPermanent(err error) bool {
	return errors.Is(err, entities.ErrInvalidID) || errors.Is(err, errUnknownKind)
}
