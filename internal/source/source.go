// Package source reads the raw survey tables (responses, questions, entity
// metadata) from a filesystem directory, an S3 bucket or a SQL database.
// Memory holds tables built in-process and is not selectable from
// configuration.
package source

import (
	"context"
	"errors"
	"fmt"

	"survey-dashboard/internal/config"
	"survey-dashboard/internal/state"
)

// Driver identifies a Source implementation.
type Driver string

const (
	DriverFilesystem Driver = config.DriverFS
	DriverS3         Driver = config.DriverS3
	DriverMemory     Driver = "memory"
	DriverPostgres   Driver = config.DriverPostgres
	DriverSQLite     Driver = config.DriverSQLite
)

// ErrNotFound is returned when a named table does not exist in the source.
var ErrNotFound = errors.New("table not found")

// Source loads raw tables by name. Names are CSV file names such as
// "cursos_curso.csv"; SQL sources map them to tables without the extension.
type Source interface {
	Load(ctx context.Context, name string) (*state.DataFrame, error)
	Driver() Driver
	Close() error
}

// Open selects a Source implementation from configuration.
//
//	fs:       CSV files under cfg.Dir
//	s3:       CSV objects in cfg.S3Bucket under cfg.S3Prefix
//	postgres: tables of cfg.DSN via lib/pq
//	sqlite:   tables of cfg.DSN via modernc.org/sqlite
func Open(ctx context.Context, cfg config.Source) (Source, error) {
	var (
		src Source
		err error
	)
	switch Driver(cfg.Driver) {
	case DriverFilesystem, "":
		src, err = asSource(NewFilesystem(cfg.Dir))
	case DriverS3:
		src, err = asSource(NewS3(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			Prefix:          cfg.S3Prefix,
			PathStyle:       cfg.S3PathStyle,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}))
	case DriverPostgres, DriverSQLite:
		src, err = asSource(NewSQL(ctx, Driver(cfg.Driver), cfg.DSN))
	default:
		err = fmt.Errorf("unknown source driver %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// asSource drops typed nil pointers so callers never see a non-nil Source
// alongside an error.
func asSource[T Source](s T, err error) (Source, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
