// Package portal builds the read-only client packet behind an invite token
// and issues portal sessions for claimed invites.
package portal

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
)

const MinTokenLength = 6

var (
	ErrInvalidToken      = httperr.ErrBusiness(httperr.CodeInvalidToken)
	ErrUnknownToken      = httperr.ErrBusiness(httperr.CodeUnknownToken)
	ErrPacketFetchFailed = httperr.ErrBusiness(httperr.CodePacketFetchFailed)
)

// Source is the part of the repository the packet is assembled from.
type Source interface {
	FindClientByInviteToken(ctx context.Context, token string) (models.Client, error)
	ListAppointments(ctx context.Context) ([]models.Appointment, error)
	ListFormulas(ctx context.Context) ([]models.Formula, error)
}

type Settings struct {
	StylistDisplayName string
	SalonName          string

	// SyntheticFallback serves a demo packet when the source fails instead
	// of packet_fetch_failed.
	SyntheticFallback bool
}

type Service struct {
	source   Source
	settings Settings
	log      *slog.Logger
	now      func() time.Time
}

func NewService(source Source, settings Settings, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if settings.StylistDisplayName == "" {
		settings.StylistDisplayName = "Belle"
	}
	return &Service{
		source:   source,
		settings: settings,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CheckToken trims token and enforces the minimum length.
func CheckToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if len(token) < MinTokenLength {
		return "", ErrInvalidToken
	}
	return token, nil
}

// Resolve returns the client holding token.
func (s *Service) Resolve(ctx context.Context, token string) (models.Client, error) {
	token, err := CheckToken(token)
	if err != nil {
		return models.Client{}, err
	}

	c, err := s.source.FindClientByInviteToken(ctx, token)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, repo.ErrNotFound):
		return models.Client{}, ErrUnknownToken
	default:
		s.log.Error("invite lookup failed", "err", err)
		return models.Client{}, ErrPacketFetchFailed
	}
}

// Packet assembles the client's packet. It is rebuilt on every call.
func (s *Service) Packet(ctx context.Context, token string) (models.ClientPacketV1, error) {
	token, err := CheckToken(token)
	if err != nil {
		return models.ClientPacketV1{}, err
	}

	c, err := s.Resolve(ctx, token)
	if errors.Is(err, ErrPacketFetchFailed) && s.settings.SyntheticFallback {
		return s.Synthetic(token), nil
	}
	if err != nil {
		return models.ClientPacketV1{}, err
	}

	appointments, err := s.source.ListAppointments(ctx)
	if err != nil {
		return s.fetchFailed(token, err)
	}
	formulas, err := s.source.ListFormulas(ctx)
	if err != nil {
		return s.fetchFailed(token, err)
	}

	now := s.now()
	packet := models.ClientPacketV1{
		Version: models.PacketVersion,
		Token:   token,
		Stylist: s.stylist(),
		Client: models.ClientDisplay{
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Pronouns:  c.Pronouns,
		},
		Aftercare: DefaultAftercare(),
		UpdatedAt: c.UpdatedAt,
	}

	if next := nextAppointment(appointments, c.ID, now); next != nil {
		packet.NextAppointment = &models.AppointmentSummary{
			StartAt:     next.StartAt,
			ServiceName: next.ServiceName,
			DurationMin: next.DurationMin,
		}
		packet.UpdatedAt = latest(packet.UpdatedAt, next.UpdatedAt)
	}

	if f := lastFormula(formulas, c.ID); f != nil {
		packet.LastFormulaSummary = &models.FormulaSummary{Title: f.Title, Notes: f.Notes}
		packet.UpdatedAt = latest(packet.UpdatedAt, f.UpdatedAt)
	}

	return packet, nil
}

func (s *Service) fetchFailed(token string, err error) (models.ClientPacketV1, error) {
	s.log.Error("packet fetch failed", "err", err)
	if s.settings.SyntheticFallback {
		return s.Synthetic(token), nil
	}
	return models.ClientPacketV1{}, ErrPacketFetchFailed
}

func (s *Service) stylist() models.StylistDisplay {
	return models.StylistDisplay{
		DisplayName: s.settings.StylistDisplayName,
		SalonName:   s.settings.SalonName,
	}
}

// nextAppointment is the client's earliest scheduled appointment that has
// not started yet.
func nextAppointment(list []models.Appointment, clientID string, now time.Time) *models.Appointment {
	var next *models.Appointment
	for i := range list {
		ap := &list[i]
		if ap.ClientID != clientID || domain.ParseStatus(ap.Status) != domain.StatusScheduled {
			continue
		}
		if ap.StartAt.Before(now) {
			continue
		}
		if next == nil || ap.StartAt.Before(next.StartAt) {
			next = ap
		}
	}
	return next
}

func lastFormula(list []models.Formula, clientID string) *models.Formula {
	var last *models.Formula
	for i := range list {
		f := &list[i]
		if f.ClientID != clientID {
			continue
		}
		if last == nil || f.UpdatedAt.After(last.UpdatedAt) {
			last = f
		}
	}
	return last
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
