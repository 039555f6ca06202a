// Package config предоставляет функциональность для загрузки конфигурации из файла и переменных окружения.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"notechan/pkg/logger"
)

const (
	msgLoadingConfiguration    = "loading configuration"
	msgConfigurationLoaded     = "configuration loaded successfully"
	msgFailedLoadConfiguration = "failed to load configuration"

	errFailedLoadConfiguration = "failed to load configuration"
	errConfigFileNotFound      = "config file not found"

	attrService = "service"
	attrPath    = "path"
	attrSource  = "source"

	sourceEnv  = "env"
	sourceFile = "file"
)

// ErrConfigFileNotFound возвращается, если указанный файл конфигурации отсутствует.
var ErrConfigFileNotFound = errors.New(errConfigFileNotFound)

// Load читает конфигурацию типа T.
// При пустом path значения берутся только из окружения, иначе файл (yaml/env/toml)
// дополняется переменными окружения, которые имеют приоритет.
func Load[T any](ctx context.Context, serviceName, path string) (*T, error) {
	log := logger.Log(ctx)

	source := sourceEnv
	if path != "" {
		source = sourceFile
	}

	log.Info(ctx, msgLoadingConfiguration,
		zap.String(attrService, serviceName),
		zap.String(attrSource, source),
		zap.String(attrPath, path))

	var cfg T
	var err error

	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		if _, statErr := os.Stat(path); statErr != nil {
			err = fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		} else {
			err = cleanenv.ReadConfig(path, &cfg)
		}
	}

	if err != nil {
		log.Error(ctx, msgFailedLoadConfiguration,
			zap.String(attrService, serviceName),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
	}

	log.Info(ctx, msgConfigurationLoaded,
		zap.String(attrService, serviceName))

	return &cfg, nil
}
