package repositories

import (
	"errors"
	"testing"

	"github.com/adstudio/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWhereBuilder(t *testing.T) {
	var w whereBuilder
	assert.Equal(t, "", w.sql())

	w.add("brand_profile_id = $%d", "b")
	w.add("status = $%d", "draft")
	assert.Equal(t, " WHERE brand_profile_id = $1 AND status = $2", w.sql())
	assert.Equal(t, " LIMIT $3 OFFSET $4", w.page(0, -5))
	assert.Equal(t, []any{"b", "draft", defaultLimit, 0}, w.args)
}

func TestPageClampsLimit(t *testing.T) {
	var w whereBuilder
	w.page(500, 40)
	assert.Equal(t, []any{defaultLimit, 40}, w.args)

	w = whereBuilder{}
	w.page(maxLimit, 0)
	assert.Equal(t, []any{maxLimit, 0}, w.args)
}

func TestErrorMapping(t *testing.T) {
	assert.ErrorIs(t, notFound(pgx.ErrNoRows), models.ErrNotFound)
	other := errors.New("boom")
	assert.Equal(t, other, notFound(other))

	assert.True(t, isForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isForeignKeyViolation(other))
}
