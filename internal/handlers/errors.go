package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
)

// fail writes the envelope for err. Anything that is not a caller error is
// logged and published on the observer under op.
func (b *base) fail(c *gin.Context, op string, err error) {
	var ve *repo.ValidationError
	var be httperr.BusinessError

	switch {
	case errors.As(err, &ve):
		httperr.Validation(c, ve.Field, ve.Reason)

	case errors.Is(err, repo.ErrNotFound):
		httperr.NotFound(c, httperr.CodeNotFound, "Not found.")

	case errors.Is(err, repo.ErrInvalidBackup):
		httperr.BadRequest(c, httperr.CodeInvalidBackup, repo.ErrInvalidBackup.Error())

	case errors.As(err, &be):
		httperr.Write(c, be.Status(), be.Code, "")

	case httperr.IsConflict(err):
		httperr.Conflict(c, "conflict", "Conflicting record.")

	default:
		b.log.Error("request failed", "op", op, "err", err)
		b.observer.Publish(repo.ErrorEvent{
			Op:      op,
			Message: "Failed to " + op,
			Err:     err,
		})
		httperr.Internal(c, "db_error", "DB request failed")
	}
}
