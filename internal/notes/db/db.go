// Package db открывает хранилище сервиса заметок, выбранное в конфигурации.
package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	mongoAdapter "notechan/internal/notes/adapters/mongo"
	pgAdapter "notechan/internal/notes/adapters/postgres"
	"notechan/internal/notes/config"
	"notechan/internal/notes/ports/repositories"
	"notechan/pkg/db/mongo"
	"notechan/pkg/db/postgres"
	"notechan/pkg/logger"
)

// Константы для сообщений logger.
const (
	LogDBInitializing    = "initializing notes storage"
	LogDBInitialized     = "notes storage initialized successfully"
	LogMigrationStarting = "starting database migrations for notes service"
	LogMigrationSkipped  = "automatic migrations disabled"
	LogIndexesEnsured    = "mongo indexes ensured"
)

// Константы для сообщений об ошибках.
const (
	ErrDBMigrations      = "failed to apply notes database migrations"
	ErrDBRollback        = "failed to roll back notes database migrations"
	ErrDBConnection      = "failed to connect to notes storage"
	ErrDBIndexes         = "failed to create mongo indexes"
	ErrGetPath           = "failed to get migrations path"
	ErrDBCheckConnection = "error checking the storage connection"
	ErrUnknownDriver     = "unknown storage driver"
)

// Store объединяет репозитории выбранного хранилища.
type Store struct {
	driver   string
	notes    repositories.NoteRepository
	channels repositories.ChannelRepository
	pinger   repositories.Pinger
	closeFn  func(ctx context.Context)
}

// Open подключается к хранилищу cfg.Storage.Driver.
// Для Postgres при включенном AutoMigrate сначала применяются миграции.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	log := logger.Log(ctx).With(zap.String("driver", cfg.Storage.Driver))
	log.Info(ctx, LogDBInitializing)

	var (
		store *Store
		err   error
	)
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		store, err = openPostgres(ctx, &cfg.Postgres)
	case config.DriverMongo:
		store, err = openMongo(ctx, &cfg.Mongo)
	default:
		return nil, fmt.Errorf("%s: %q", ErrUnknownDriver, cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}

	log.Info(ctx, LogDBInitialized)
	return store, nil
}

func openPostgres(ctx context.Context, cfg *config.PostgresConfig) (*Store, error) {
	log := logger.Log(ctx)

	log.Info(ctx, "connecting to postgres",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.Int("min_conn", cfg.MinConn),
		zap.Int("max_conn", cfg.MaxConn))

	if cfg.AutoMigrate {
		if err := Migrate(ctx, cfg); err != nil {
			return nil, err
		}
	} else {
		log.Info(ctx, LogMigrationSkipped)
	}

	database, err := postgres.New(ctx, cfg.GetDSN(), cfg.MinConn, cfg.MaxConn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDBConnection, err)
	}

	factory := pgAdapter.NewRepositoryFactory(database.Pool())
	return &Store{
		driver:   config.DriverPostgres,
		notes:    factory.NoteRepository(),
		channels: factory.ChannelRepository(),
		pinger:   factory,
		closeFn:  database.Close,
	}, nil
}

func openMongo(ctx context.Context, cfg *config.MongoConfig) (*Store, error) {
	database, err := mongo.New(ctx, cfg.URI, cfg.Database, cfg.ConnectTimeout, cfg.MaxPoolSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDBConnection, err)
	}

	factory := mongoAdapter.NewRepositoryFactory(database.DB())
	if err := factory.EnsureIndexes(ctx); err != nil {
		database.Close(ctx)
		return nil, fmt.Errorf("%s: %w", ErrDBIndexes, err)
	}
	logger.Log(ctx).Info(ctx, LogIndexesEnsured, zap.String("database", cfg.Database))

	return &Store{
		driver:   config.DriverMongo,
		notes:    factory.NoteRepository(),
		channels: factory.ChannelRepository(),
		pinger:   factory,
		closeFn:  database.Close,
	}, nil
}

// Migrate применяет все миграции Postgres из cfg.MigrationsPath.
func Migrate(ctx context.Context, cfg *config.PostgresConfig) error {
	source, err := postgres.SourceURL(cfg.MigrationsPath)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", ErrDBMigrations, ErrGetPath, err)
	}

	logger.Log(ctx).Info(ctx, LogMigrationStarting, zap.String("migrations_path", source))
	if err := postgres.MigrateDSN(ctx, cfg.GetConnectionURL(), source); err != nil {
		return fmt.Errorf("%s: %w", ErrDBMigrations, err)
	}
	return nil
}

// Rollback откатывает steps последних миграций Postgres.
func Rollback(ctx context.Context, cfg *config.PostgresConfig, steps int) error {
	source, err := postgres.SourceURL(cfg.MigrationsPath)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", ErrDBRollback, ErrGetPath, err)
	}

	if err := postgres.RollbackDSN(ctx, cfg.GetConnectionURL(), source, steps); err != nil {
		return fmt.Errorf("%s: %w", ErrDBRollback, err)
	}
	return nil
}

// Driver возвращает имя используемого хранилища.
func (s *Store) Driver() string {
	return s.driver
}

// Notes возвращает репозиторий заметок.
func (s *Store) Notes() repositories.NoteRepository {
	return s.notes
}

// Channels возвращает репозиторий каналов.
func (s *Store) Channels() repositories.ChannelRepository {
	return s.channels
}

// Ping проверяет соединение с хранилищем.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrDBCheckConnection, err)
	}
	return nil
}

// Close закрывает соединения с хранилищем.
func (s *Store) Close(ctx context.Context) {
	s.closeFn(ctx)
}
