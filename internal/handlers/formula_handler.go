package handlers

import (
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
)

type FormulaHandler struct {
	*resource[models.Formula, normalize.FormulaRecord]
}

func NewFormulaHandler(d Deps) *FormulaHandler {
	b := newBase(d)
	return &FormulaHandler{
		resource: &resource[models.Formula, normalize.FormulaRecord]{
			base:     b,
			entity:   "formula",
			list:     b.repo.ListFormulas,
			get:      b.repo.GetFormula,
			upsert:   b.repo.UpsertFormula,
			remove:   b.repo.DeleteFormula,
			build:    b.norm.Formula,
			required: normalize.RequireFormula,
			idOf:     func(f models.Formula) string { return f.ID },
		},
	}
}
