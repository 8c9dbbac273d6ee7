package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsBusiness(t *testing.T) {
	err := fmt.Errorf("cancel: %w", ErrBusiness("invalid_state"))
	assert.True(t, IsBusiness(err, "invalid_state"))
	assert.False(t, IsBusiness(err, "not_found"))
	assert.False(t, IsBusiness(errors.New("invalid_state"), "invalid_state"))
}

func TestBusinessStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, BusinessError{Code: CodeInvalidState}.Status())
	assert.Equal(t, http.StatusNotFound, BusinessError{Code: CodeUnknownToken}.Status())
	assert.Equal(t, http.StatusInternalServerError, BusinessError{Code: CodePacketFetchFailed}.Status())
	assert.Equal(t, http.StatusBadRequest, BusinessError{Code: "something_else"}.Status())
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsConflict(fmt.Errorf("save: %w", &pgconn.PgError{Code: "23P01"})))
	assert.True(t, IsConflict(gorm.ErrDuplicatedKey))
	assert.False(t, IsConflict(&pgconn.PgError{Code: "23502"}))
	assert.False(t, IsConflict(nil))
}

func TestIsUndefinedTable(t *testing.T) {
	assert.True(t, IsUndefinedTable(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, IsUndefinedTable(errors.New("relation missing")))
}
