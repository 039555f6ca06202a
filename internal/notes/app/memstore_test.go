package app_test

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"

	"notechan/internal/notes/domain/entities"
	"notechan/internal/notes/ports/cache"
)

var errStoreDown = errors.New("store down")

// memStore - хранилище в памяти с поведением адаптеров, для проверки свойств сервиса.
type memStore struct {
	mu       sync.Mutex
	seq      int
	notes    []*entities.Note
	channels []*entities.Channel

	getViewCalls int
	// afterView вызывается после чтения представления, вне блокировки.
	afterView func()

	failNoteDelete    bool
	failChannelDelete bool
}

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return prefix + "-" + strconv.Itoa(m.seq)
}

func (m *memStore) addChannel(userID, name string, isDefault bool) *entities.Channel {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := entities.NewChannel(userID, name, entities.ChannelTypePersonal, isDefault)
	ch.ID = m.nextID("ch")
	m.channels = append(m.channels, ch)
	return ch
}

func (m *memStore) findNote(noteID, userID string) *entities.Note {
	for _, n := range m.notes {
		if n.ID == noteID && n.UserID == userID {
			return n
		}
	}
	return nil
}

func (m *memStore) findChannel(channelID, userID string) *entities.Channel {
	for _, ch := range m.channels {
		if ch.ID == channelID && ch.UserID == userID {
			return ch
		}
	}
	return nil
}

func (m *memStore) noteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notes)
}

func (m *memStore) hasChannel(channelID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.channels {
		if ch.ID == channelID {
			return true
		}
	}
	return false
}

// notes

type memNotes struct{ *memStore }

func (r memNotes) Create(_ context.Context, note *entities.Note) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *note
	stored.ID = r.nextID("note")
	r.notes = append(r.notes, &stored)
	return stored.ID, nil
}

func (r memNotes) GetByID(_ context.Context, noteID, userID string) (*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.findNote(noteID, userID)
	if n == nil {
		return nil, entities.ErrNoteNotFound
	}
	cp := *n
	return &cp, nil
}

func (r memNotes) GetView(_ context.Context, noteID, userID string) (*entities.NoteView, error) {
	view, hook := r.readView(noteID, userID)
	if hook != nil {
		hook()
	}
	if view == nil {
		return nil, entities.ErrNoteNotFound
	}
	return view, nil
}

func (r memNotes) readView(noteID, userID string) (*entities.NoteView, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.getViewCalls++
	n := r.findNote(noteID, userID)
	if n == nil {
		return nil, r.afterView
	}

	view := &entities.NoteView{ID: n.ID, Content: n.Content, Tags: entities.CopyTags(n.Tags), Status: n.Status}
	for _, ch := range r.channels {
		if ch.ID == n.ChannelID {
			view.Channel = entities.ChannelRef{Name: ch.Name, Type: ch.Type}
		}
	}
	return view, r.afterView
}

func (r memNotes) ListByUserID(_ context.Context, userID string, skip, limit int) ([]*entities.NoteSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entities.NoteSummary
	seen := 0
	for _, n := range r.notes {
		if n.UserID != userID {
			continue
		}
		seen++
		if seen <= skip || len(out) >= limit {
			continue
		}
		out = append(out, &entities.NoteSummary{ID: n.ID, Content: n.Content, Tags: n.Tags, Status: n.Status})
	}
	return out, nil
}

func (r memNotes) CountByUserID(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for _, n := range r.notes {
		if n.UserID == userID {
			total++
		}
	}
	return total, nil
}

func (r memNotes) Update(_ context.Context, noteID, userID string, patch entities.NotePatch) (entities.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.findNote(noteID, userID)
	if n == nil {
		return entities.UpdateResult{}, nil
	}

	before := *n
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	if patch.Tags != nil {
		n.Tags = entities.CopyTags(*patch.Tags)
	}
	if patch.ChannelID != nil {
		n.ChannelID = *patch.ChannelID
	}
	if patch.Status != nil {
		n.Status = *patch.Status
	}

	res := entities.UpdateResult{Matched: 1}
	if before.Content != n.Content || !slices.Equal(before.Tags, n.Tags) ||
		before.ChannelID != n.ChannelID || before.Status != n.Status {
		res.Modified = 1
		n.UpdatedAt = time.Now()
	}
	return res, nil
}

func (r memNotes) Delete(_ context.Context, noteID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteNoteLocked(noteID, userID), nil
}

func (r memNotes) DeleteWithChannel(_ context.Context, noteID, channelID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	partial := &entities.PartialDeleteError{UserID: userID, NoteID: noteID, ChannelID: channelID}
	if r.failNoteDelete {
		partial.NoteErr = errStoreDown
	}
	if r.failChannelDelete {
		partial.ChannelErr = errStoreDown
	}
	if partial.NoteErr != nil && partial.ChannelErr != nil {
		return 0, errStoreDown
	}

	var deleted int64
	if partial.NoteErr == nil {
		deleted = r.deleteNoteLocked(noteID, userID)
	}
	if partial.ChannelErr == nil {
		r.deleteChannelLocked(channelID, userID)
	}

	if partial.NoteErr != nil || partial.ChannelErr != nil {
		return deleted, partial
	}
	return deleted, nil
}

func (m *memStore) deleteNoteLocked(noteID, userID string) int64 {
	for i, n := range m.notes {
		if n.ID == noteID && n.UserID == userID {
			m.notes = slices.Delete(m.notes, i, i+1)
			return 1
		}
	}
	return 0
}

func (m *memStore) deleteChannelLocked(channelID, userID string) int64 {
	for i, ch := range m.channels {
		if ch.ID == channelID && ch.UserID == userID {
			m.channels = slices.Delete(m.channels, i, i+1)
			return 1
		}
	}
	return 0
}

// channels

type memChannels struct{ *memStore }

func (r memChannels) Create(_ context.Context, channel *entities.Channel) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if channel.IsDefault {
		for _, ch := range r.channels {
			if ch.UserID == channel.UserID {
				ch.IsDefault = false
			}
		}
	}
	stored := *channel
	stored.ID = r.nextID("ch")
	r.channels = append(r.channels, &stored)
	return stored.ID, nil
}

func (r memChannels) FindDefault(_ context.Context, userID string) (*entities.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.channels {
		if ch.UserID == userID && ch.IsDefault && ch.Active() {
			cp := *ch
			return &cp, nil
		}
	}
	return nil, entities.ErrChannelNotFound
}

func (r memChannels) GetByID(_ context.Context, channelID, userID string) (*entities.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := r.findChannel(channelID, userID)
	if ch == nil {
		return nil, entities.ErrChannelNotFound
	}
	cp := *ch
	return &cp, nil
}

func (r memChannels) ListByUserID(_ context.Context, userID string) ([]*entities.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entities.Channel
	for _, ch := range r.channels {
		if ch.UserID == userID {
			cp := *ch
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memChannels) Delete(_ context.Context, channelID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteChannelLocked(channelID, userID), nil
}

// memCache - кэш в памяти. Пока down, все операции возвращают ошибку.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	down bool
}

var errCacheDown = errors.New("cache down")

func (c *memCache) setDown(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = down
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return nil, errCacheDown
	}
	v, ok := c.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return errCacheDown
	}
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return errCacheDown
	}
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) Close() error { return nil }

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// memQueue - очередь задач очистки в памяти.
type memQueue struct {
	mu    sync.Mutex
	tasks []entities.CleanupTask
}

func (q *memQueue) Push(_ context.Context, tasks ...entities.CleanupTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, tasks...)
	return nil
}

func (q *memQueue) Pop(_ context.Context, n int) ([]entities.CleanupTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.tasks) {
		n = len(q.tasks)
	}
	out := slices.Clone(q.tasks[:n])
	q.tasks = q.tasks[n:]
	return out, nil
}

func (q *memQueue) Len(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.tasks)), nil
}
