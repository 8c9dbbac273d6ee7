package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
	"github.com/BruksfildServices01/salon-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	*resource[models.Appointment, normalize.AppointmentRecord]

	timezone   string
	cancel     *appointment.CancelAppointment
	complete   *appointment.CompleteAppointment
	reschedule *appointment.RescheduleAppointment
	byMonth    *appointment.ListAppointmentsByMonth
	byDate     *appointment.ListAppointmentsByDate
}

func NewAppointmentHandler(d Deps, tz string) *AppointmentHandler {
	b := newBase(d)
	return &AppointmentHandler{
		resource: &resource[models.Appointment, normalize.AppointmentRecord]{
			base:     b,
			entity:   "appointment",
			list:     b.repo.ListAppointments,
			get:      b.repo.GetAppointment,
			upsert:   b.repo.UpsertAppointment,
			remove:   b.repo.DeleteAppointment,
			build:    b.norm.Appointment,
			required: normalize.RequireAppointment,
			idOf:     func(a models.Appointment) string { return a.ID },
		},
		timezone:   tz,
		cancel:     appointment.NewCancelAppointment(b.repo, b.audit),
		complete:   appointment.NewCompleteAppointment(b.repo, b.audit),
		reschedule: appointment.NewRescheduleAppointment(b.repo, b.audit),
		byMonth:    appointment.NewListAppointmentsByMonth(b.repo, tz),
		byDate:     appointment.NewListAppointmentsByDate(b.repo, tz),
	}
}

// ======================================================
// STATUS TRANSITIONS
// ======================================================

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	ap, err := h.cancel.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "cancel appointment", err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	ap, err := h.complete.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "complete appointment", err)
		return
	}
	httpresp.OK(c, ap)
}

type rescheduleRequest struct {
	StartAt     time.Time `json:"startAt" binding:"required"`
	DurationMin int       `json:"durationMin" binding:"gte=0"`
}

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Validation(c, "startAt", "required")
		return
	}

	ap, err := h.reschedule.Execute(c.Request.Context(), c.Param("id"), req.StartAt, req.DurationMin)
	if err != nil {
		h.fail(c, "reschedule appointment", err)
		return
	}
	httpresp.OK(c, ap)
}

// ======================================================
// CALENDAR
// ======================================================

func (h *AppointmentHandler) Month(c *gin.Context) {
	year, month, ok := parseMonth(h.timezone, c.Query("year"), c.Query("month"))
	if !ok {
		httperr.BadRequest(c, httperr.CodeInvalidMonth, "")
		return
	}

	events, err := h.byMonth.Execute(c.Request.Context(), year, month)
	if err != nil {
		h.fail(c, "load calendar", err)
		return
	}
	httpresp.List(c, events)
}

func (h *AppointmentHandler) Day(c *gin.Context) {
	date, err := parseDateInSalon(h.timezone, c.Query("date"))
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Use YYYY-MM-DD.")
		return
	}

	events, err := h.byDate.Execute(c.Request.Context(), date)
	if err != nil {
		h.fail(c, "load calendar", err)
		return
	}
	httpresp.List(c, events)
}
