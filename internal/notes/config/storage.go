package config

import "time"

// Поддерживаемые хранилища.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// StorageConfig выбирает хранилище заметок.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"NOTES_STORAGE_DRIVER" env-default:"postgres"`
}

// MongoConfig содержит настройки подключения к MongoDB.
type MongoConfig struct {
	URI            string        `yaml:"uri" env:"NOTES_MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database       string        `yaml:"database" env:"NOTES_MONGO_DB" env-default:"notes"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"NOTES_MONGO_CONNECT_TIMEOUT" env-default:"10s"`
	MaxPoolSize    uint64        `yaml:"max_pool_size" env:"NOTES_MONGO_MAX_POOL_SIZE" env-default:"50"`
}
