package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
)

// resource serves list/get/create/patch/delete for one entity kind. T is
// the canonical entity, R its loose record shape.
type resource[T any, R any] struct {
	base
	entity string

	list     func(ctx context.Context) ([]T, error)
	get      func(ctx context.Context, id string) (T, error)
	upsert   func(ctx context.Context, v T) (T, error)
	remove   func(ctx context.Context, id string) error
	build    func(rec R) T
	required func(rec R) error
	idOf     func(v T) string
}

func (r *resource[T, R]) all(c *gin.Context) ([]T, bool) {
	items, err := r.list(c.Request.Context())
	if err != nil {
		r.fail(c, "load "+r.entity+"s", err)
		return nil, false
	}
	return items, true
}

func (r *resource[T, R]) List(c *gin.Context) {
	items, ok := r.all(c)
	if !ok {
		return
	}
	httpresp.List(c, items)
}

func (r *resource[T, R]) Get(c *gin.Context) {
	item, err := r.get(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.fail(c, "load "+r.entity, err)
		return
	}
	httpresp.OK(c, item)
}

func (r *resource[T, R]) Create(c *gin.Context) {
	obj, _, ok := readObject(c)
	if !ok {
		httperr.BadRequest(c, "invalid_request", "Body must be a JSON object.")
		return
	}
	r.write(c, obj, http.StatusCreated)
}

// Patch overlays the body's fields onto the stored record. An unknown id
// creates the record.
func (r *resource[T, R]) Patch(c *gin.Context) {
	id := c.Param("id")

	obj, _, ok := readObject(c)
	if !ok {
		httperr.BadRequest(c, "invalid_request", "Body must be a JSON object.")
		return
	}

	current, err := r.get(c.Request.Context(), id)
	switch {
	case err == nil:
		merged, err := overlay(current, obj)
		if err != nil {
			r.fail(c, "save "+r.entity, err)
			return
		}
		obj = merged
	case !errors.Is(err, repo.ErrNotFound):
		r.fail(c, "save "+r.entity, err)
		return
	}

	idJSON, _ := json.Marshal(id)
	obj["id"] = idJSON

	r.write(c, obj, http.StatusOK)
}

func (r *resource[T, R]) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := r.remove(c.Request.Context(), id); err != nil {
		r.fail(c, "delete "+r.entity, err)
		return
	}

	r.audit.Dispatch(audit.Event{
		Action:   r.entity + "_deleted",
		Entity:   r.entity,
		EntityID: id,
	})

	httpresp.Empty(c)
}

func (r *resource[T, R]) write(c *gin.Context, obj map[string]json.RawMessage, status int) {
	data, err := json.Marshal(obj)
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "Body must be a JSON object.")
		return
	}

	rec, err := normalize.Decode[R](data)
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "Body must be a JSON object.")
		return
	}
	if err := r.required(rec); err != nil {
		r.fail(c, "save "+r.entity, err)
		return
	}

	saved, err := r.upsert(c.Request.Context(), r.build(rec))
	if err != nil {
		r.fail(c, "save "+r.entity, err)
		return
	}

	r.audit.Dispatch(audit.Event{
		Action:   r.entity + "_saved",
		Entity:   r.entity,
		EntityID: r.idOf(saved),
	})

	c.JSON(status, httpresp.Envelope[T]{OK: true, Data: saved})
}

// overlay applies patch on top of the JSON form of current.
func overlay[T any](current T, patch map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged, nil
}
