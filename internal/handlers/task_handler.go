package handlers

import (
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
)

type TaskHandler struct {
	*resource[models.Task, normalize.TaskRecord]
}

func NewTaskHandler(d Deps) *TaskHandler {
	b := newBase(d)
	return &TaskHandler{
		resource: &resource[models.Task, normalize.TaskRecord]{
			base:     b,
			entity:   "task",
			list:     b.repo.ListTasks,
			get:      b.repo.GetTask,
			upsert:   b.repo.UpsertTask,
			remove:   b.repo.DeleteTask,
			build:    b.norm.Task,
			required: normalize.RequireTask,
			idOf:     func(t models.Task) string { return t.ID },
		},
	}
}
