package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"notechan/internal/notes/domain/entities"
	"notechan/internal/notes/ports/api"
	"notechan/internal/notes/ports/cache"
	"notechan/internal/notes/ports/cleanup"
	"notechan/internal/notes/ports/repositories"
	"notechan/pkg/logger"
)

const (
	methodCreateNote = "CreateNote"
	methodGetNote    = "GetNote"
	methodGetNotes   = "GetNotes"
	methodUpdateNote = "UpdateNote"
	methodDeleteNote = "DeleteNote"

	msgCreatingNote     = "creating note"
	msgNoteCreated      = "note created"
	msgDefaultChannel   = "resolved default channel"
	msgCacheHit         = "note served from cache"
	msgCacheReadFailed  = "failed to read note from cache"
	msgCacheWriteFailed = "failed to write note to cache"
	msgCacheEvictFailed = "failed to evict note from cache"
	msgCacheFillSkipped = "note changed while loading, cache fill skipped"
	msgCacheCorrupted   = "cached note is corrupted"
	msgNoteUpdated      = "note updated"
	msgNoteDeleted      = "note and channel deleted"
	msgPartialDelete    = "cascade delete left a leftover, scheduling cleanup"
	msgEnqueueFailed    = "failed to schedule cleanup, leftover stays orphaned"

	// ErrMsgNoChannel - у пользователя нет активного канала по умолчанию.
	ErrMsgNoChannel       = "no channel configured"
	ErrMsgChannelInactive = "channel not found"
	ErrMsgEmptyContent    = "content must not be empty"
	ErrMsgEmptyPatch      = "nothing to update"
	ErrMsgBadStatus       = "unknown note status"
	ErrMsgEmptyChannelID  = "channel id must not be empty"

	ErrMsgCreateNote    = "failed to create note"
	ErrMsgResolveChan   = "failed to resolve channel"
	ErrMsgGetNote       = "failed to get note"
	ErrMsgListNotes     = "failed to list notes"
	ErrMsgUpdateNote    = "failed to update note"
	ErrMsgDeleteNote    = "failed to delete note"
	ErrMsgPartialDelete = "note deleted only partially, cleanup scheduled"
)

const noteKeyPrefix = "note:"

// NoteCacheKey возвращает ключ кэша заметки noteID пользователя userID.
func NoteCacheKey(userID, noteID string) string {
	return noteKeyPrefix + userID + ":" + noteID
}

// NoteService реализует api.NoteService.
type NoteService struct {
	notes    repositories.NoteRepository
	channels repositories.ChannelRepository
	cache    cache.Cache
	queue    cleanup.Queue
	cacheTTL time.Duration
	fills    fillGuard
}

var _ api.NoteService = (*NoteService)(nil)

// NewNoteService создает сервис заметок. noteCache и queue могут быть nil.
func NewNoteService(
	notes repositories.NoteRepository,
	channels repositories.ChannelRepository,
	noteCache cache.Cache,
	queue cleanup.Queue,
	cacheTTL time.Duration,
) *NoteService {
	if noteCache == nil {
		noteCache = nopCache{}
	}
	return &NoteService{
		notes:    notes,
		channels: channels,
		cache:    noteCache,
		queue:    queue,
		cacheTTL: cacheTTL,
	}
}

// CreateNote создает заметку в указанном канале или в канале по умолчанию.
func (s *NoteService) CreateNote(ctx context.Context, userID string, in api.CreateNoteInput) (api.Envelope[api.CreatedNote], error) {
	log := logger.Log(ctx).With(zap.String("method", methodCreateNote), zap.String("user_id", userID))
	log.Debug(ctx, msgCreatingNote)

	var none api.Envelope[api.CreatedNote]

	if strings.TrimSpace(in.Content) == "" {
		return none, InvalidInput(ErrMsgEmptyContent)
	}

	channelID := in.ChannelID
	if channelID == "" {
		ch, err := s.channels.FindDefault(ctx, userID)
		if errors.Is(err, entities.ErrChannelNotFound) {
			return none, NotFound(ErrMsgNoChannel)
		}
		if err != nil {
			log.Error(ctx, ErrMsgResolveChan, zap.Error(err))
			return none, classify(ErrMsgResolveChan, err)
		}
		channelID = ch.ID
		log.Debug(ctx, msgDefaultChannel, zap.String("channel_id", channelID))
	} else if err := s.ensureChannel(ctx, channelID, userID); err != nil {
		return none, err
	}

	note := entities.NewNote(userID, channelID, in.Content, in.Tags)
	id, err := s.notes.Create(ctx, note)
	if err != nil {
		log.Error(ctx, ErrMsgCreateNote, zap.Error(err))
		return none, classify(ErrMsgCreateNote, err)
	}

	log.Info(ctx, msgNoteCreated, zap.String("note_id", id), zap.String("channel_id", channelID))
	return api.Wrap(api.CreatedNote{ID: id}, http.StatusCreated), nil
}

// GetNote возвращает заметку с каналом, сначала пытаясь прочитать ее из кэша.
func (s *NoteService) GetNote(ctx context.Context, userID, noteID string) (api.Envelope[*entities.NoteView], error) {
	log := logger.Log(ctx).With(
		zap.String("method", methodGetNote),
		zap.String("user_id", userID),
		zap.String("note_id", noteID))

	key := NoteCacheKey(userID, noteID)

	if view, ok := s.cachedView(ctx, log, key); ok {
		log.Debug(ctx, msgCacheHit)
		return api.Wrap(view, http.StatusOK), nil
	}

	gen := s.fills.snapshot(key)

	view, err := s.notes.GetView(ctx, noteID, userID)
	if err != nil {
		if !errors.Is(err, entities.ErrNoteNotFound) {
			log.Error(ctx, ErrMsgGetNote, zap.Error(err))
		}
		return api.Envelope[*entities.NoteView]{}, classify(ErrMsgGetNote, err)
	}

	if raw, mErr := json.Marshal(view); mErr == nil {
		filled := s.fills.fill(key, gen, func() {
			if cErr := s.cache.Set(ctx, key, raw, s.cacheTTL); cErr != nil {
				log.Warn(ctx, msgCacheWriteFailed, zap.Error(cErr))
			}
		})
		if !filled {
			log.Debug(ctx, msgCacheFillSkipped)
		}
	}

	return api.Wrap(view, http.StatusOK), nil
}

// GetNotes возвращает страницу заметок пользователя; выборка и подсчет выполняются параллельно.
func (s *NoteService) GetNotes(ctx context.Context, userID string, query api.PageQuery) (api.Envelope[api.Page[*entities.NoteSummary]], error) {
	log := logger.Log(ctx).With(zap.String("method", methodGetNotes), zap.String("user_id", userID))

	var none api.Envelope[api.Page[*entities.NoteSummary]]

	q, err := normalizePage(query)
	if err != nil {
		return none, err
	}

	var (
		items []*entities.NoteSummary
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var listErr error
		items, listErr = s.notes.ListByUserID(gctx, userID, q.Skip, q.Limit)
		return listErr
	})
	g.Go(func() error {
		var countErr error
		total, countErr = s.notes.CountByUserID(gctx, userID)
		return countErr
	})

	if err := g.Wait(); err != nil {
		log.Error(ctx, ErrMsgListNotes, zap.Error(err))
		return none, classify(ErrMsgListNotes, err)
	}

	if items == nil {
		items = []*entities.NoteSummary{}
	}

	page := api.Page[*entities.NoteSummary]{
		Items: items,
		Meta:  buildPageMeta(q, total),
	}
	return api.Wrap(page, http.StatusOK), nil
}

// UpdateNote частично обновляет заметку. Отсутствие совпадения не является ошибкой.
func (s *NoteService) UpdateNote(ctx context.Context, userID, noteID string, patch entities.NotePatch) (api.Envelope[api.UpdatedNote], error) {
	log := logger.Log(ctx).With(
		zap.String("method", methodUpdateNote),
		zap.String("user_id", userID),
		zap.String("note_id", noteID))

	var none api.Envelope[api.UpdatedNote]

	if err := validatePatch(patch); err != nil {
		return none, err
	}

	if patch.ChannelID != nil {
		if err := s.ensureChannel(ctx, *patch.ChannelID, userID); err != nil {
			return none, err
		}
	}

	res, err := s.notes.Update(ctx, noteID, userID, patch)
	if err != nil {
		log.Error(ctx, ErrMsgUpdateNote, zap.Error(err))
		return none, classify(ErrMsgUpdateNote, err)
	}

	s.evict(ctx, log, userID, noteID)

	log.Info(ctx, msgNoteUpdated, zap.Int64("matched", res.Matched), zap.Int64("modified", res.Modified))
	return api.Wrap(api.UpdatedNote{
		ID:            noteID,
		MatchedCount:  res.Matched,
		ModifiedCount: res.Modified,
	}, http.StatusOK), nil
}

// DeleteNote удаляет заметку вместе с ее каналом.
func (s *NoteService) DeleteNote(ctx context.Context, userID, noteID string) (api.Envelope[api.DeletedNote], error) {
	log := logger.Log(ctx).With(
		zap.String("method", methodDeleteNote),
		zap.String("user_id", userID),
		zap.String("note_id", noteID))

	var none api.Envelope[api.DeletedNote]

	note, err := s.notes.GetByID(ctx, noteID, userID)
	if err != nil {
		if !errors.Is(err, entities.ErrNoteNotFound) {
			log.Error(ctx, ErrMsgDeleteNote, zap.Error(err))
		}
		return none, classify(ErrMsgDeleteNote, err)
	}

	deleted, err := s.notes.DeleteWithChannel(ctx, noteID, note.ChannelID, userID)
	if err != nil {
		var partial *entities.PartialDeleteError
		if errors.As(err, &partial) {
			// Оставшаяся заметка удаляется фоновой очисткой, поэтому кэш сбрасывается в любом случае.
			s.evict(ctx, log, userID, noteID)
			s.scheduleCleanup(ctx, log, partial)
			return none, &Error{Kind: KindStoreFailure, Message: ErrMsgPartialDelete, Err: err}
		}
		log.Error(ctx, ErrMsgDeleteNote, zap.Error(err))
		return none, classify(ErrMsgDeleteNote, err)
	}

	s.evict(ctx, log, userID, noteID)

	log.Info(ctx, msgNoteDeleted, zap.String("channel_id", note.ChannelID), zap.Int64("deleted", deleted))
	return api.Wrap(api.DeletedNote{ID: noteID, DeletedCount: deleted}, http.StatusNoContent), nil
}

// ensureChannel проверяет, что канал принадлежит пользователю и не удален.
func (s *NoteService) ensureChannel(ctx context.Context, channelID, userID string) error {
	if channelID == "" {
		return InvalidInput(ErrMsgEmptyChannelID)
	}

	ch, err := s.channels.GetByID(ctx, channelID, userID)
	if err != nil {
		return classify(ErrMsgResolveChan, err)
	}
	if !ch.Active() {
		return NotFound(ErrMsgChannelInactive)
	}
	return nil
}

func (s *NoteService) cachedView(ctx context.Context, log *logger.Logger, key string) (*entities.NoteView, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn(ctx, msgCacheReadFailed, zap.Error(err))
		}
		return nil, false
	}

	var view entities.NoteView
	if err := json.Unmarshal(raw, &view); err != nil {
		log.Warn(ctx, msgCacheCorrupted, zap.Error(err))
		if dErr := s.cache.Delete(ctx, key); dErr != nil {
			log.Warn(ctx, msgCacheEvictFailed, zap.Error(dErr))
		}
		return nil, false
	}
	return &view, true
}

func (s *NoteService) evict(ctx context.Context, log *logger.Logger, userID, noteID string) {
	key := NoteCacheKey(userID, noteID)
	s.fills.invalidate(key, func() {
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Warn(ctx, msgCacheEvictFailed, zap.Error(err))
		}
	})
}

func (s *NoteService) scheduleCleanup(ctx context.Context, log *logger.Logger, partial *entities.PartialDeleteError) {
	tasks := partial.Leftovers()
	log.Warn(ctx, msgPartialDelete, zap.Error(partial), zap.Int("tasks", len(tasks)))

	if s.queue == nil || len(tasks) == 0 {
		return
	}
	if err := s.queue.Push(context.WithoutCancel(ctx), tasks...); err != nil {
		log.Error(ctx, msgEnqueueFailed, zap.Error(err), zap.Any("tasks", tasks))
	}
}

func validatePatch(patch entities.NotePatch) error {
	if patch.IsEmpty() {
		return InvalidInput(ErrMsgEmptyPatch)
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return InvalidInput(ErrMsgEmptyContent)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return InvalidInput(ErrMsgBadStatus)
	}
	return nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]byte, error) { return nil, cache.ErrCacheMiss }

func (nopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (nopCache) Delete(context.Context, ...string) error { return nil }

func (nopCache) Close() error { return nil }
