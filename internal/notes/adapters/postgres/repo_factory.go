package postgres

import (
	"context"
	"fmt"

	"notechan/internal/notes/ports/repositories"
)

const errPingDatabase = "failed to ping database"

// RepositoryFactory создает все необходимые репозитории для работы с PostgreSQL.
type RepositoryFactory struct {
	pool        PgxPoolInterface
	noteRepo    repositories.NoteRepository
	channelRepo repositories.ChannelRepository
}

// NewRepositoryFactory создает новую фабрику репозиториев.
func NewRepositoryFactory(pool PgxPoolInterface) *RepositoryFactory {
	return &RepositoryFactory{
		pool:        pool,
		noteRepo:    NewNoteRepository(pool),
		channelRepo: NewChannelRepository(pool),
	}
}

// NoteRepository возвращает репозиторий заметок.
func (f *RepositoryFactory) NoteRepository() repositories.NoteRepository {
	return f.noteRepo
}

// ChannelRepository возвращает репозиторий каналов.
func (f *RepositoryFactory) ChannelRepository() repositories.ChannelRepository {
	return f.channelRepo
}

// Ping проверяет доступность базы данных.
func (f *RepositoryFactory) Ping(ctx context.Context) error {
	if err := f.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", errPingDatabase, err)
	}
	return nil
}
