package portal

import (
	"strings"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

const rebookWindowDays = 42

func DefaultAftercare() models.Aftercare {
	return models.Aftercare{
		Summary: "Focus on hydration, gentle cleansing, and heat protection this week.",
		Do: []string{
			"Use a sulfate-free cleanser twice weekly.",
			"Apply a leave-in conditioner after showering.",
			"Schedule your touch-up in 6-8 weeks.",
		},
		Dont: []string{
			"Avoid high heat styling for 48 hours.",
			"Skip heavy oils on freshly treated hair.",
		},
		RebookWindowDays: rebookWindowDays,
	}
}

// Synthetic builds the demo packet served when the store is unreachable
// and the fallback is enabled. It depends only on token and the clock.
func (s *Service) Synthetic(token string) models.ClientPacketV1 {
	now := s.now()

	day := now.AddDate(0, 0, 7)
	start := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC)

	prefix := token
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}

	return models.ClientPacketV1{
		Version: models.PacketVersion,
		Token:   token,
		Stylist: s.stylist(),
		Client: models.ClientDisplay{
			FirstName: "Client",
			LastName:  strings.ToUpper(prefix),
		},
		NextAppointment: &models.AppointmentSummary{
			StartAt:     start,
			ServiceName: "Signature Refresh",
			DurationMin: 60,
		},
		Aftercare: DefaultAftercare(),
		LastFormulaSummary: &models.FormulaSummary{
			Title: "Root touch-up + gloss",
			Notes: "Keep warmth balanced with cool tones.",
		},
		UpdatedAt: now,
	}
}
