package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"notechan/internal/notes/domain/entities"
	"notechan/internal/notes/ports/repositories"
	"notechan/pkg/logger"
)

const (
	errCreateNote     = "failed to create note"
	errGetNote        = "failed to get note"
	errListNotes      = "failed to list notes"
	errScanNote       = "failed to scan note"
	errIterateNotes   = "error iterating note rows"
	errCountNotes     = "failed to count notes"
	errUpdateNote     = "failed to update note"
	errDeleteNote     = "failed to delete note"
	errDeleteChannel  = "failed to delete channel"
	errEmptyNotePatch = "empty note patch"
)

// NoteRepository реализует интерфейс repositories.NoteRepository для работы с Postgres.
type NoteRepository struct {
	pool PgxPoolInterface
}

// NewNoteRepository создает новый экземпляр репозитория заметок.
func NewNoteRepository(pool PgxPoolInterface) repositories.NoteRepository {
	return &NoteRepository{pool: pool}
}

// Create сохраняет новую заметку в БД.
func (r *NoteRepository) Create(ctx context.Context, note *entities.Note) (string, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "Create"))

	if err := parseID(note.ChannelID); err != nil {
		return "", err
	}

	query := `
        INSERT INTO notes (user_id, channel_id, content, tags, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `

	var noteID string
	err := r.pool.QueryRow(ctx, query,
		note.UserID,
		note.ChannelID,
		note.Content,
		entities.CopyTags(note.Tags),
		string(note.Status),
		note.CreatedAt,
		note.UpdatedAt,
	).Scan(&noteID)
	if err != nil {
		log.Error(ctx, errCreateNote, zap.Error(err))
		return "", fmt.Errorf("%s: %w", errCreateNote, err)
	}

	log.Debug(ctx, "note created", zap.String("note_id", noteID))
	return noteID, nil
}

// GetByID находит заметку владельца.
func (r *NoteRepository) GetByID(ctx context.Context, noteID, userID string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "GetByID"))

	if err := parseID(noteID); err != nil {
		return nil, err
	}

	query := `
        SELECT id, user_id, channel_id, content, tags, status, created_at, updated_at
        FROM notes
        WHERE id = $1 AND user_id = $2
    `

	var (
		note   entities.Note
		status string
	)
	err := r.pool.QueryRow(ctx, query, noteID, userID).Scan(
		&note.ID,
		&note.UserID,
		&note.ChannelID,
		&note.Content,
		&note.Tags,
		&status,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found", zap.String("note_id", noteID))
			return nil, entities.ErrNoteNotFound
		}
		log.Error(ctx, errGetNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errGetNote, err)
	}

	note.Status = entities.NoteStatus(status)
	if note.Tags == nil {
		note.Tags = []string{}
	}
	return &note, nil
}

// GetView находит заметку владельца вместе с именем и типом канала.
func (r *NoteRepository) GetView(ctx context.Context, noteID, userID string) (*entities.NoteView, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "GetView"))

	if err := parseID(noteID); err != nil {
		return nil, err
	}

	query := `
        SELECT n.id, n.content, n.tags, n.status, COALESCE(c.name, ''), COALESCE(c.type, '')
        FROM notes n
        LEFT JOIN channels c ON c.id = n.channel_id AND c.user_id = n.user_id
        WHERE n.id = $1 AND n.user_id = $2
    `

	var (
		view        entities.NoteView
		status      string
		channelType string
	)
	err := r.pool.QueryRow(ctx, query, noteID, userID).Scan(
		&view.ID,
		&view.Content,
		&view.Tags,
		&status,
		&view.Channel.Name,
		&channelType,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found", zap.String("note_id", noteID))
			return nil, entities.ErrNoteNotFound
		}
		log.Error(ctx, errGetNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errGetNote, err)
	}

	view.Status = entities.NoteStatus(status)
	view.Channel.Type = entities.ChannelType(channelType)
	if view.Tags == nil {
		view.Tags = []string{}
	}
	return &view, nil
}

// ListByUserID возвращает страницу заметок владельца в порядке создания.
func (r *NoteRepository) ListByUserID(ctx context.Context, userID string, skip, limit int) ([]*entities.NoteSummary, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "ListByUserID"))

	query := `
        SELECT id, content, tags, status
        FROM notes
        WHERE user_id = $1
        ORDER BY created_at, id
        OFFSET $2 LIMIT $3
    `

	rows, err := r.pool.Query(ctx, query, userID, skip, limit)
	if err != nil {
		log.Error(ctx, errListNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errListNotes, err)
	}
	defer rows.Close()

	notes := make([]*entities.NoteSummary, 0, limit)
	for rows.Next() {
		var (
			note   entities.NoteSummary
			status string
		)
		if err := rows.Scan(&note.ID, &note.Content, &note.Tags, &status); err != nil {
			log.Error(ctx, errScanNote, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", errScanNote, err)
		}
		note.Status = entities.NoteStatus(status)
		if note.Tags == nil {
			note.Tags = []string{}
		}
		notes = append(notes, &note)
	}

	if err := rows.Err(); err != nil {
		log.Error(ctx, errIterateNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errIterateNotes, err)
	}

	return notes, nil
}

// CountByUserID считает заметки владельца.
func (r *NoteRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "CountByUserID"))

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notes WHERE user_id = $1`, userID).Scan(&total); err != nil {
		log.Error(ctx, errCountNotes, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errCountNotes, err)
	}
	return total, nil
}

// Update применяет к заметке только присутствующие в patch поля.
// Возвращает число совпавших и фактически измененных строк.
func (r *NoteRepository) Update(ctx context.Context, noteID, userID string, patch entities.NotePatch) (entities.UpdateResult, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "Update"))

	if err := parseID(noteID); err != nil {
		return entities.UpdateResult{}, err
	}
	if patch.ChannelID != nil {
		if err := parseID(*patch.ChannelID); err != nil {
			return entities.UpdateResult{}, err
		}
	}

	query, args, err := buildUpdateQuery(noteID, userID, patch)
	if err != nil {
		return entities.UpdateResult{}, err
	}

	var res entities.UpdateResult
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&res.Matched, &res.Modified); err != nil {
		log.Error(ctx, errUpdateNote, zap.Error(err))
		return entities.UpdateResult{}, fmt.Errorf("%s: %w", errUpdateNote, err)
	}

	log.Debug(ctx, "note updated",
		zap.String("note_id", noteID),
		zap.Int64("matched", res.Matched),
		zap.Int64("modified", res.Modified))
	return res, nil
}

// buildUpdateQuery строит запрос, который одновременно считает совпадения и изменения.
// Строка обновляется, только если хотя бы одно поле действительно отличается.
func buildUpdateQuery(noteID, userID string, patch entities.NotePatch) (string, []interface{}, error) {
	args := []interface{}{noteID, userID}
	var sets, diffs []string

	add := func(column string, value interface{}) {
		args = append(args, value)
		n := len(args)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, n))
		diffs = append(diffs, fmt.Sprintf("%s IS DISTINCT FROM $%d", column, n))
	}

	if patch.Content != nil {
		add("content", *patch.Content)
	}
	if patch.Tags != nil {
		add("tags", entities.CopyTags(*patch.Tags))
	}
	if patch.ChannelID != nil {
		add("channel_id", *patch.ChannelID)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}

	if len(sets) == 0 {
		return "", nil, errors.New(errEmptyNotePatch)
	}

	query := fmt.Sprintf(`
        WITH target AS (
            SELECT id FROM notes WHERE id = $1 AND user_id = $2
        ), upd AS (
            UPDATE notes SET %s, updated_at = NOW()
            WHERE id = $1 AND user_id = $2 AND (%s)
            RETURNING id
        )
        SELECT (SELECT COUNT(*) FROM target), (SELECT COUNT(*) FROM upd)
    `, strings.Join(sets, ", "), strings.Join(diffs, " OR "))

	return query, args, nil
}

// Delete удаляет заметку владельца.
func (r *NoteRepository) Delete(ctx context.Context, noteID, userID string) (int64, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "Delete"))

	if err := parseID(noteID); err != nil {
		return 0, err
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, noteID, userID)
	if err != nil {
		log.Error(ctx, errDeleteNote, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errDeleteNote, err)
	}
	return tag.RowsAffected(), nil
}

// DeleteWithChannel удаляет заметку и ее канал в одной транзакции.
func (r *NoteRepository) DeleteWithChannel(ctx context.Context, noteID, channelID, userID string) (int64, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "DeleteWithChannel"))

	if err := parseID(noteID); err != nil {
		return 0, err
	}
	if err := parseID(channelID); err != nil {
		return 0, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		log.Error(ctx, errBeginTx, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errBeginTx, err)
	}

	noteTag, err := tx.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, noteID, userID)
	if err != nil {
		rollback(ctx, tx)
		log.Error(ctx, errDeleteNote, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errDeleteNote, err)
	}

	channelTag, err := tx.Exec(ctx, `DELETE FROM channels WHERE id = $1 AND user_id = $2`, channelID, userID)
	if err != nil {
		rollback(ctx, tx)
		log.Error(ctx, errDeleteChannel, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errDeleteChannel, err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error(ctx, errCommitTx, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errCommitTx, err)
	}

	log.Debug(ctx, "note deleted with channel",
		zap.String("note_id", noteID),
		zap.String("channel_id", channelID),
		zap.Int64("channels_deleted", channelTag.RowsAffected()))
	return noteTag.RowsAffected(), nil
}
