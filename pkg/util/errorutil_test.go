package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	require.Nil(t, ToDomainError(nil))

	notFound := ToDomainError(fmt.Errorf("load tab: %w", pgx.ErrNoRows))
	require.Equal(t, "NOT_FOUND", notFound.Code)
	require.Equal(t, http.StatusNotFound, notFound.HTTPStatus)

	dup := ToDomainError(&pgconn.PgError{Code: "23505", ConstraintName: "departments_name_key"})
	require.Equal(t, "CONFLICT", dup.Code)
	require.Equal(t, http.StatusBadRequest, dup.HTTPStatus)

	forbidden := ToDomainError(fmt.Errorf("wrapped: %w", NewForbidden("Permission denied")))
	require.Equal(t, "Permission denied", forbidden.Message)
	require.Equal(t, http.StatusForbidden, forbidden.HTTPStatus)

	internal := ToDomainError(errors.New("boom"))
	require.Equal(t, "INTERNAL_ERROR", internal.Code)
	require.ErrorContains(t, internal, "boom")
}

func TestPredicates(t *testing.T) {
	require.True(t, IsNotFound(pgx.ErrNoRows))
	require.True(t, IsNotFound(NewNotFound("Tab", nil)))
	require.False(t, IsNotFound(errors.New("x")))
	require.True(t, IsUniqueViolation(fmt.Errorf("x: %w", &pgconn.PgError{Code: "23505"})))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}
