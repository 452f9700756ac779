package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/encanta/encanta/internal/domain"
)

// psql is the statement builder shared by every repository
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// executor is satisfied by both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// withTransaction runs fn inside a transaction, committing when it returns nil
func withTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Postgres error codes mapped to caller-facing errors
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

// writeError converts constraint violations into validation errors and wraps
// anything else with the failed action
func writeError(action, entity string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return domain.NewValidationError(fmt.Sprintf("%s already exists", entity))
		case pgForeignKeyViolation:
			return domain.NewValidationError("referenced record does not exist")
		case pgCheckViolation:
			return domain.NewValidationError(fmt.Sprintf("invalid %s value", entity))
		case pgInvalidText:
			return domain.NewValidationError("invalid identifier")
		}
	}
	return fmt.Errorf("failed to %s %s: %w", action, entity, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
