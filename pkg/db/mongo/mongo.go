// Package mongo предоставляет подключение к MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"notechan/pkg/logger"
)

// Константы для сообщений logger.
const (
	LogConnecting = "connecting to MongoDB"
	LogConnected  = "successfully connected to MongoDB"
	LogClosing    = "disconnecting from MongoDB"
)

// Константы для сообщений об ошибках.
const (
	ErrConnect    = "failed to connect to mongodb"
	ErrPing       = "failed to ping mongodb"
	ErrDisconnect = "failed to disconnect from mongodb"
	ErrEmptyDB    = "database name is empty"
)

// Database представляет подключение к базе MongoDB.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

// New подключается к MongoDB по uri и проверяет соединение.
func New(ctx context.Context, uri, database string, connectTimeout time.Duration, maxPoolSize uint64) (*Database, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogConnecting, zap.String("database", database))

	if database == "" {
		return nil, fmt.Errorf("%s: %s", ErrConnect, ErrEmptyDB)
	}

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)
	if maxPoolSize > 0 {
		opts.SetMaxPoolSize(maxPoolSize)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		log.Error(ctx, ErrConnect, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrConnect, err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		if dErr := client.Disconnect(ctx); dErr != nil {
			log.Warn(ctx, ErrDisconnect, zap.Error(dErr))
		}
		log.Error(ctx, ErrPing, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrPing, err)
	}

	log.Info(ctx, LogConnected)
	return &Database{client: client, db: client.Database(database)}, nil
}

// DB возвращает базу данных.
func (d *Database) DB() *mongo.Database {
	return d.db
}

// Ping проверяет доступность сервера.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%s: %w", ErrPing, err)
	}
	return nil
}

// Close отключается от сервера.
func (d *Database) Close(ctx context.Context) {
	log := logger.Log(ctx)
	log.Info(ctx, LogClosing)
	if err := d.client.Disconnect(ctx); err != nil {
		log.Error(ctx, ErrDisconnect, zap.Error(err))
	}
}
