package app_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"notechan/internal/notes/app"
	"notechan/internal/notes/domain/entities"
	"notechan/internal/notes/ports/api"
	"notechan/internal/notes/ports/cache"
)

const (
	userU1 = "user-1"
	userU2 = "user-2"
)

type fixture struct {
	store *memStore
	cache *memCache
	queue *memQueue
	svc   *app.NoteService
}

func newFixture() *fixture {
	store := newMemStore()
	c := newMemCache()
	q := &memQueue{}
	return &fixture{
		store: store,
		cache: c,
		queue: q,
		svc:   app.NewNoteService(memNotes{store}, memChannels{store}, c, q, time.Minute),
	}
}

func requireKind(t *testing.T, err error, kind app.Kind) {
	t.Helper()
	require.Error(t, err)
	var appErr *app.Error
	require.True(t, errors.As(err, &appErr), "expected *app.Error, got %T: %v", err, err)
	assert.Equal(t, kind, appErr.Kind, "unexpected kind for %v", err)
}

func TestCreateNote(t *testing.T) {
	ctx := context.Background()

	t.Run("uses default channel when none given", func(t *testing.T) {
		f := newFixture()
		c1 := f.store.addChannel(userU1, "C1", true)

		res, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "buy milk", Tags: []string{"home"}})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, res.StatusCode)
		require.NotEmpty(t, res.Data.ID)

		note, err := memNotes{f.store}.GetByID(ctx, res.Data.ID, userU1)
		require.NoError(t, err)
		assert.Equal(t, c1.ID, note.ChannelID)
		assert.Equal(t, entities.NoteStatusActive, note.Status)

		got, err := f.svc.GetNote(ctx, userU1, res.Data.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, got.StatusCode)
		assert.Equal(t, "buy milk", got.Data.Content)
		assert.Equal(t, []string{"home"}, got.Data.Tags)
		assert.Equal(t, entities.ChannelRef{Name: "C1", Type: entities.ChannelTypePersonal}, got.Data.Channel)
	})

	t.Run("no default channel", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "not default", false)

		_, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "x"})
		requireKind(t, err, app.KindNotFound)
		assert.Contains(t, err.Error(), app.ErrMsgNoChannel)
		assert.Zero(t, f.store.noteCount())
	})

	t.Run("soft-deleted default channel is ignored", func(t *testing.T) {
		f := newFixture()
		ch := f.store.addChannel(userU1, "gone", true)
		deletedAt := time.Now()
		ch.DeletedAt = &deletedAt

		_, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "x"})
		requireKind(t, err, app.KindNotFound)
	})

	t.Run("another user's default channel is not used", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU2, "theirs", true)

		_, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "x"})
		requireKind(t, err, app.KindNotFound)
	})

	t.Run("explicit channel must be owned", func(t *testing.T) {
		f := newFixture()
		foreign := f.store.addChannel(userU2, "theirs", false)

		_, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{ChannelID: foreign.ID, Content: "x"})
		requireKind(t, err, app.KindNotFound)
	})

	t.Run("explicit owned channel", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "default", true)
		work := f.store.addChannel(userU1, "work", false)

		res, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{ChannelID: work.ID, Content: "x"})
		require.NoError(t, err)

		note, err := memNotes{f.store}.GetByID(ctx, res.Data.ID, userU1)
		require.NoError(t, err)
		assert.Equal(t, work.ID, note.ChannelID)
	})

	t.Run("empty content", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)

		_, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "   "})
		requireKind(t, err, app.KindInvalidInput)
	})

	t.Run("store failure keeps its kind", func(t *testing.T) {
		notes := new(mockNoteRepository)
		channels := new(mockChannelRepository)
		channels.On("FindDefault", mock.Anything, userU1).Return(&entities.Channel{ID: "c1"}, nil).Once()
		notes.On("Create", mock.Anything, mock.AnythingOfType("*entities.Note")).Return("", errStoreDown).Once()

		svc := app.NewNoteService(notes, channels, nil, nil, time.Minute)
		_, err := svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "x"})

		requireKind(t, err, app.KindStoreFailure)
		assert.ErrorIs(t, err, errStoreDown)
		notes.AssertExpectations(t)
		channels.AssertExpectations(t)
	})
}

func TestGetNote(t *testing.T) {
	ctx := context.Background()

	t.Run("missing note", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.GetNote(ctx, userU1, "nope")
		requireKind(t, err, app.KindNotFound)
		assert.Equal(t, http.StatusNotFound, app.KindOf(err).HTTPStatus())
	})

	t.Run("foreign note is indistinguishable from missing", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)
		res, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "secret"})
		require.NoError(t, err)

		_, err = f.svc.GetNote(ctx, userU2, res.Data.ID)
		requireKind(t, err, app.KindNotFound)
	})

	t.Run("second read served from cache", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)
		res, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "cached"})
		require.NoError(t, err)

		first, err := f.svc.GetNote(ctx, userU1, res.Data.ID)
		require.NoError(t, err)
		require.True(t, f.cache.has(app.NoteCacheKey(userU1, res.Data.ID)))

		second, err := f.svc.GetNote(ctx, userU1, res.Data.ID)
		require.NoError(t, err)

		assert.Equal(t, first.Data, second.Data)
		assert.Equal(t, 1, f.store.getViewCalls)
	})

	t.Run("cache is keyed by user", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)
		res, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "mine"})
		require.NoError(t, err)

		_, err = f.svc.GetNote(ctx, userU1, res.Data.ID)
		require.NoError(t, err)

		_, err = f.svc.GetNote(ctx, userU2, res.Data.ID)
		requireKind(t, err, app.KindNotFound)
	})

	t.Run("cache failures do not fail the read", func(t *testing.T) {
		notes := new(mockNoteRepository)
		c := new(mockCache)
		view := &entities.NoteView{ID: "n1", Content: "x"}

		c.On("Get", mock.Anything, app.NoteCacheKey(userU1, "n1")).Return(nil, errors.New("redis down")).Once()
		notes.On("GetView", mock.Anything, "n1", userU1).Return(view, nil).Once()
		c.On("Set", mock.Anything, app.NoteCacheKey(userU1, "n1"), mock.Anything, time.Minute).
			Return(errors.New("redis down")).Once()

		svc := app.NewNoteService(notes, new(mockChannelRepository), c, nil, time.Minute)
		res, err := svc.GetNote(ctx, userU1, "n1")

		require.NoError(t, err)
		assert.Equal(t, view, res.Data)
		notes.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("corrupted cache entry is evicted", func(t *testing.T) {
		notes := new(mockNoteRepository)
		c := new(mockCache)
		key := app.NoteCacheKey(userU1, "n1")

		c.On("Get", mock.Anything, key).Return([]byte("{not json"), nil).Once()
		c.On("Delete", mock.Anything, []string{key}).Return(nil).Once()
		notes.On("GetView", mock.Anything, "n1", userU1).Return(&entities.NoteView{ID: "n1"}, nil).Once()
		c.On("Set", mock.Anything, key, mock.Anything, time.Minute).Return(nil).Once()

		svc := app.NewNoteService(notes, new(mockChannelRepository), c, nil, time.Minute)
		_, err := svc.GetNote(ctx, userU1, "n1")

		require.NoError(t, err)
		c.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		notes := new(mockNoteRepository)
		notes.On("GetView", mock.Anything, "bad", userU1).Return(nil, entities.ErrInvalidID).Once()

		svc := app.NewNoteService(notes, new(mockChannelRepository), nil, nil, time.Minute)
		_, err := svc.GetNote(ctx, userU1, "bad")

		requireKind(t, err, app.KindInvalidInput)
	})
}

func TestGetNotes(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, f *fixture, user string, n int) {
		t.Helper()
		for range n {
			_, err := f.svc.CreateNote(ctx, user, api.CreateNoteInput{Content: "note"})
			require.NoError(t, err)
		}
	}

	t.Run("page sizes follow min(L, max(0, N-S))", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)
		f.store.addChannel(userU2, "C2", true)
		seed(t, f, userU1, 7)
		seed(t, f, userU2, 3)

		cases := []struct {
			skip, limit, want int
		}{
			{0, 5, 5},
			{5, 5, 2},
			{7, 5, 0},
			{10, 5, 0},
			{0, 100, 7},
			{6, 1, 1},
		}

		for _, tc := range cases {
			res, err := f.svc.GetNotes(ctx, userU1, api.PageQuery{Skip: tc.skip, Limit: tc.limit})
			require.NoError(t, err)

			assert.Len(t, res.Data.Items, tc.want, "skip=%d limit=%d", tc.skip, tc.limit)
			assert.Equal(t, int64(7), res.Data.Meta.TotalRecords, "count must be scoped to the caller")
			assert.NotNil(t, res.Data.Items)
		}
	})

	t.Run("metadata", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)
		seed(t, f, userU1, 7)

		res, err := f.svc.GetNotes(ctx, userU1, api.PageQuery{Skip: 3, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, api.PageMeta{TotalRecords: 7, TotalPages: 3, CurrentPage: 2, PageSize: 3}, res.Data.Meta)

		res, err = f.svc.GetNotes(ctx, userU1, api.PageQuery{Skip: 3, Limit: 3, Page: 9})
		require.NoError(t, err)
		assert.Equal(t, 9, res.Data.Meta.CurrentPage, "explicit page wins")
	})

	t.Run("only own notes are listed", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)
		f.store.addChannel(userU2, "C2", true)
		seed(t, f, userU2, 4)

		res, err := f.svc.GetNotes(ctx, userU1, api.PageQuery{Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, res.Data.Items)
		assert.Zero(t, res.Data.Meta.TotalRecords)
		assert.Zero(t, res.Data.Meta.TotalPages)
	})

	t.Run("invalid query", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.GetNotes(ctx, userU1, api.PageQuery{Skip: -1, Limit: 10})
		requireKind(t, err, app.KindInvalidInput)

		_, err = f.svc.GetNotes(ctx, userU1, api.PageQuery{Limit: 0})
		requireKind(t, err, app.KindInvalidInput)
	})

	t.Run("limit is capped", func(t *testing.T) {
		notes := new(mockNoteRepository)
		notes.On("ListByUserID", mock.Anything, userU1, 0, app.MaxPageSize).Return([]*entities.NoteSummary{}, nil).Once()
		notes.On("CountByUserID", mock.Anything, userU1).Return(int64(0), nil).Once()

		svc := app.NewNoteService(notes, new(mockChannelRepository), nil, nil, time.Minute)
		res, err := svc.GetNotes(ctx, userU1, api.PageQuery{Limit: 1000})

		require.NoError(t, err)
		assert.Equal(t, app.MaxPageSize, res.Data.Meta.PageSize)
		notes.AssertExpectations(t)
	})

	t.Run("count failure", func(t *testing.T) {
		notes := new(mockNoteRepository)
		notes.On("ListByUserID", mock.Anything, userU1, 0, 10).Return([]*entities.NoteSummary{}, nil).Maybe()
		notes.On("CountByUserID", mock.Anything, userU1).Return(int64(0), errStoreDown).Once()

		svc := app.NewNoteService(notes, new(mockChannelRepository), nil, nil, time.Minute)
		_, err := svc.GetNotes(ctx, userU1, api.PageQuery{Limit: 10})

		requireKind(t, err, app.KindStoreFailure)
	})
}

func TestUpdateNote(t *testing.T) {
	ctx := context.Background()
	content := "updated"

	t.Run("partial update", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)
		created, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "old", Tags: []string{"a"}})
		require.NoError(t, err)

		res, err := f.svc.UpdateNote(ctx, userU1, created.Data.ID, entities.NotePatch{Content: &content})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, api.UpdatedNote{ID: created.Data.ID, MatchedCount: 1, ModifiedCount: 1}, res.Data)

		note, err := memNotes{f.store}.GetByID(ctx, created.Data.ID, userU1)
		require.NoError(t, err)
		assert.Equal(t, "updated", note.Content)
		assert.Equal(t, []string{"a"}, note.Tags, "absent fields stay untouched")
	})

	t.Run("unknown id is not an error", func(t *testing.T) {
		f := newFixture()

		res, err := f.svc.UpdateNote(ctx, userU1, "missing", entities.NotePatch{Content: &content})
		require.NoError(t, err)
		assert.Zero(t, res.Data.MatchedCount)
		assert.Zero(t, res.Data.ModifiedCount)
	})

	t.Run("foreign note is not touched", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)
		created, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "mine"})
		require.NoError(t, err)

		res, err := f.svc.UpdateNote(ctx, userU2, created.Data.ID, entities.NotePatch{Content: &content})
		require.NoError(t, err)
		assert.Zero(t, res.Data.MatchedCount)

		note, err := memNotes{f.store}.GetByID(ctx, created.Data.ID, userU1)
		require.NoError(t, err)
		assert.Equal(t, "mine", note.Content)
	})

	t.Run("update evicts cache", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)
		created, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "old"})
		require.NoError(t, err)

		_, err = f.svc.GetNote(ctx, userU1, created.Data.ID)
		require.NoError(t, err)

		_, err = f.svc.UpdateNote(ctx, userU1, created.Data.ID, entities.NotePatch{Content: &content})
		require.NoError(t, err)
		assert.False(t, f.cache.has(app.NoteCacheKey(userU1, created.Data.ID)))

		got, err := f.svc.GetNote(ctx, userU1, created.Data.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated", got.Data.Content)
	})

	t.Run("same value matches without modifying", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)
		created, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "same"})
		require.NoError(t, err)

		same := "same"
		res, err := f.svc.UpdateNote(ctx, userU1, created.Data.ID, entities.NotePatch{Content: &same})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Data.MatchedCount)
		assert.Zero(t, res.Data.ModifiedCount)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture()
		blank := " "
		bad := entities.NoteStatus("deleted")
		emptyID := ""

		_, err := f.svc.UpdateNote(ctx, userU1, "n", entities.NotePatch{})
		requireKind(t, err, app.KindInvalidInput)

		_, err = f.svc.UpdateNote(ctx, userU1, "n", entities.NotePatch{Content: &blank})
		requireKind(t, err, app.KindInvalidInput)

		_, err = f.svc.UpdateNote(ctx, userU1, "n", entities.NotePatch{Status: &bad})
		requireKind(t, err, app.KindInvalidInput)

		_, err = f.svc.UpdateNote(ctx, userU1, "n", entities.NotePatch{ChannelID: &emptyID})
		requireKind(t, err, app.KindInvalidInput)
	})

	t.Run("moving to a foreign channel", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)
		foreign := f.store.addChannel(userU2, "C2", true)
		created, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "x"})
		require.NoError(t, err)

		_, err = f.svc.UpdateNote(ctx, userU1, created.Data.ID, entities.NotePatch{ChannelID: &foreign.ID})
		requireKind(t, err, app.KindNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		notes := new(mockNoteRepository)
		patch := entities.NotePatch{Content: &content}
		notes.On("Update", mock.Anything, "n1", userU1, patch).Return(entities.UpdateResult{}, errStoreDown).Once()

		svc := app.NewNoteService(notes, new(mockChannelRepository), nil, nil, time.Minute)
		_, err := svc.UpdateNote(ctx, userU1, "n1", patch)

		requireKind(t, err, app.KindStoreFailure)
	})
}

func TestDeleteNote(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes note and its channel", func(t *testing.T) {
		f := newFixture()
		c1 := f.store.addChannel(userU1, "C1", true)
		created, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "x"})
		require.NoError(t, err)

		_, err = f.svc.GetNote(ctx, userU1, created.Data.ID)
		require.NoError(t, err)

		res, err := f.svc.DeleteNote(ctx, userU1, created.Data.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, res.StatusCode)
		assert.Equal(t, api.DeletedNote{ID: created.Data.ID, DeletedCount: 1}, res.Data)

		assert.False(t, f.store.hasChannel(c1.ID))
		assert.False(t, f.cache.has(app.NoteCacheKey(userU1, created.Data.ID)))

		_, err = f.svc.GetNote(ctx, userU1, created.Data.ID)
		requireKind(t, err, app.KindNotFound)
	})

	t.Run("missing note", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.DeleteNote(ctx, userU1, "missing")
		requireKind(t, err, app.KindNotFound)
	})

	t.Run("foreign note is not deleted", func(t *testing.T) {
		f := newFixture()
		c1 := f.store.addChannel(userU1, "C1", true)
		created, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "x"})
		require.NoError(t, err)

		_, err = f.svc.DeleteNote(ctx, userU2, created.Data.ID)
		requireKind(t, err, app.KindNotFound)

		assert.Equal(t, 1, f.store.noteCount())
		assert.True(t, f.store.hasChannel(c1.ID))
	})

	t.Run("partial delete schedules cleanup", func(t *testing.T) {
		f := newFixture()
		c1 := f.store.addChannel(userU1, "C1", true)
		created, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "x"})
		require.NoError(t, err)

		f.store.failChannelDelete = true

		_, err = f.svc.DeleteNote(ctx, userU1, created.Data.ID)
		requireKind(t, err, app.KindStoreFailure)

		var partial *entities.PartialDeleteError
		assert.True(t, errors.As(err, &partial))

		require.Len(t, f.queue.tasks, 1)
		assert.Equal(t, entities.CleanupChannel, f.queue.tasks[0].Kind)
		assert.Equal(t, c1.ID, f.queue.tasks[0].ID)
		assert.Equal(t, userU1, f.queue.tasks[0].UserID)
	})

	t.Run("total failure schedules nothing", func(t *testing.T) {
		f := newFixture()
		f.store.addChannel(userU1, "C1", true)
		created, err := f.svc.CreateNote(ctx, userU1, api.CreateNoteInput{Content: "x"})
		require.NoError(t, err)

		f.store.failChannelDelete = true
		f.store.failNoteDelete = true

		_, err = f.svc.DeleteNote(ctx, userU1, created.Data.ID)
		requireKind(t, err, app.KindStoreFailure)
		assert.Empty(t, f.queue.tasks)
		assert.Equal(t, 1, f.store.noteCount())
	})
}

func TestNoteService_CacheMissIsQuiet(t *testing.T) {
	c := new(mockCache)
	notes := new(mockNoteRepository)
	key := app.NoteCacheKey(userU1, "n1")

	c.On("Get", mock.Anything, key).Return(nil, cache.ErrCacheMiss).Once()
	notes.On("GetView", mock.Anything, "n1", userU1).Return(nil, entities.ErrNoteNotFound).Once()

	svc := app.NewNoteService(notes, new(mockChannelRepository), c, nil, time.Minute)
	_, err := svc.GetNote(context.Background(), userU1, "n1")

	requireKind(t, err, app.KindNotFound)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
