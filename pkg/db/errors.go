package db

import "errors"

var (
	ErrFailedToParseDBConfig    = errors.New("db: failed to parse database configuration")
	ErrFailedToOpenDBConnection = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed        = errors.New("db: healthcheck failed")
	ErrNotStarted               = errors.New("db: database is not started")
	ErrCreateDatabase           = errors.New("db: failed to create database")
	ErrDropDatabase             = errors.New("db: failed to drop database")
	ErrMigrationsSource         = errors.New("db migrator: failed to open migrations")
	ErrApplyMigrations          = errors.New("db migrator: failed to apply migrations")
	ErrRollbackMigrations       = errors.New("db migrator: failed to roll back migrations")
)
