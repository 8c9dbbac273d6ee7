package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
	"github.com/BruksfildServices01/salon-scheduler/internal/validators"
)

type ClientHandler struct {
	*resource[models.Client, normalize.ClientRecord]
	metrics *metrics.Metrics
}

func NewClientHandler(d Deps, m *metrics.Metrics) *ClientHandler {
	b := newBase(d)

	required := normalize.RequireClient
	if d.CheckEmailDomain {
		required = requireResolvableEmail
	}

	return &ClientHandler{
		resource: &resource[models.Client, normalize.ClientRecord]{
			base:     b,
			entity:   "client",
			list:     b.repo.ListClients,
			get:      b.repo.GetClient,
			upsert:   b.repo.UpsertClient,
			remove:   b.repo.DeleteClient,
			build:    b.norm.Client,
			required: required,
			idOf:     func(c models.Client) string { return c.ID },
		},
		metrics: m,
	}
}

func requireResolvableEmail(rec normalize.ClientRecord) error {
	if err := normalize.RequireClient(rec); err != nil {
		return err
	}
	email, ok := rec.Email.Trimmed()
	if ok && validators.IsEmail(email) && !validators.IsEmailDomainValid(email) {
		return &repo.ValidationError{Field: "email", Reason: "domain does not resolve"}
	}
	return nil
}

// ======================================================
// LIST CLIENTS
// ======================================================

// List supports ?invite_token= (exact) and ?q= (name or email substring).
func (h *ClientHandler) List(c *gin.Context) {
	if token := strings.TrimSpace(c.Query("invite_token")); token != "" {
		client, err := h.repo.FindClientByInviteToken(c.Request.Context(), token)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			h.fail(c, "look up invite", err)
			return
		}
		out := []models.Client{}
		if err == nil {
			out = append(out, client)
		}
		httpresp.List(c, out)
		return
	}

	clients, ok := h.all(c)
	if !ok {
		return
	}

	query := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if query == "" {
		httpresp.List(c, clients)
		return
	}

	out := make([]models.Client, 0, len(clients))
	for _, cl := range clients {
		if matchesClient(cl, query) {
			out = append(out, cl)
		}
	}
	httpresp.List(c, out)
}

func matchesClient(c models.Client, query string) bool {
	for _, field := range []string{c.FirstName, c.LastName, c.Email} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// ======================================================
// INVITE
// ======================================================

type inviteRequest struct {
	Action repo.InviteAction `json:"action"`
}

func (h *ClientHandler) Invite(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Validation(c, "action", "must be ensure or regenerate")
		return
	}

	id := c.Param("id")
	ctx := c.Request.Context()

	var (
		inv models.Invite
		err error
	)
	switch req.Action {
	case repo.InviteEnsure:
		inv, err = h.repo.EnsureInvite(ctx, id)
	case repo.InviteRegenerate:
		inv, err = h.repo.RegenerateInvite(ctx, id)
	default:
		httperr.Validation(c, "action", "must be ensure or regenerate")
		return
	}
	if err != nil {
		h.fail(c, "issue invite", err)
		return
	}

	if h.metrics != nil {
		h.metrics.InvitesIssued.WithLabelValues(string(req.Action)).Inc()
	}
	h.audit.Dispatch(audit.Event{
		Action:   "invite_" + string(req.Action),
		Entity:   "client",
		EntityID: id,
	})

	httpresp.OK(c, inv)
}
