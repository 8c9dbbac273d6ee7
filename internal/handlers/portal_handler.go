package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/middleware"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/portal"
)

// ======================================================
// HANDLER
// ======================================================

type PortalHandler struct {
	base
	service  *portal.Service
	sessions *portal.SessionIssuer
}

func NewPortalHandler(d Deps, service *portal.Service, sessions *portal.SessionIssuer) *PortalHandler {
	return &PortalHandler{
		base:     newBase(d),
		service:  service,
		sessions: sessions,
	}
}

type packetResponse struct {
	OK     bool                   `json:"ok"`
	Packet *models.ClientPacketV1 `json:"packet,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// ======================================================
// PACKET
// ======================================================

// Packet serves ?token= or, without it, the token of the bearer session.
func (h *PortalHandler) Packet(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token, _ = middleware.InviteToken(c)
	}

	packet, err := h.service.Packet(c.Request.Context(), token)
	if err != nil {
		h.portalError(c, err)
		return
	}

	c.JSON(http.StatusOK, packetResponse{OK: true, Packet: &packet})
}

// ======================================================
// CLAIM INVITE
// ======================================================

type claimRequest struct {
	Token string `json:"token"`
}

type claimResponse struct {
	OK        bool      `json:"ok"`
	Session   string    `json:"session"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *PortalHandler) ClaimInvite(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.portalError(c, portal.ErrInvalidToken)
		return
	}

	client, err := h.service.Resolve(c.Request.Context(), req.Token)
	if err != nil {
		h.portalError(c, err)
		return
	}

	session, exp, err := h.sessions.Issue(client.ID, client.InviteToken)
	if err != nil {
		h.log.Error("issue portal session", "err", err)
		httperr.Internal(c, "session_failed", "")
		return
	}

	c.JSON(http.StatusOK, claimResponse{OK: true, Session: session, ExpiresAt: exp})
}

func (h *PortalHandler) portalError(c *gin.Context, err error) {
	var be httperr.BusinessError
	if !errors.As(err, &be) {
		be = portal.ErrPacketFetchFailed.(httperr.BusinessError)
	}

	c.JSON(be.Status(), packetResponse{OK: false, Error: be.Code})
}
