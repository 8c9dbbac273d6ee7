package repo

import (
	"encoding/json"
	"time"
)

// Seed is the first-run dataset, keyed by entity list. Records are stored
// in the older field layout on purpose: reads migrate them like any other
// legacy data.
type Seed struct {
	Clients      []map[string]any
	Appointments []map[string]any
	Formulas     []map[string]any
}

type SeedFunc func(now time.Time) Seed

func DefaultSeed(now time.Time) Seed {
	stamp := now.UTC().Format(time.RFC3339Nano)
	day := 24 * time.Hour

	return Seed{
		Clients: []map[string]any{
			{
				"id":        "client_avery",
				"firstName": "Avery",
				"lastName":  "Chen",
				"pronouns":  "she/her",
				"phone":     "(415) 555-0188",
				"email":     "avery@example.com",
				"notes":     "Hydration focus; sensitive to fragrance.",
				"createdAt": stamp,
				"updatedAt": stamp,
			},
			{
				"id":        "client_maya",
				"firstName": "Maya",
				"lastName":  "Torres",
				"pronouns":  "they/them",
				"phone":     "(415) 555-0122",
				"email":     "maya@example.com",
				"notes":     "Prefers evening appointments.",
				"createdAt": stamp,
				"updatedAt": stamp,
			},
		},
		Appointments: []map[string]any{
			{
				"id":              "appt_1",
				"clientId":        "client_avery",
				"service":         "Signature Glow Facial",
				"startAt":         now.Add(2 * day).UTC().Format(time.RFC3339Nano),
				"durationMinutes": 60,
				"status":          "scheduled",
				"notes":           "Focus on hydration and barrier repair.",
				"createdAt":       stamp,
				"updatedAt":       stamp,
			},
			{
				"id":              "appt_2",
				"clientId":        "client_maya",
				"service":         "Calming Treatment",
				"startAt":         now.Add(-3 * day).UTC().Format(time.RFC3339Nano),
				"durationMinutes": 45,
				"status":          "completed",
				"notes":           "Recommend gentle cleanser follow-up.",
				"createdAt":       stamp,
				"updatedAt":       stamp,
			},
		},
		Formulas: []map[string]any{
			{
				"id":             "formula_1",
				"clientId":       "client_avery",
				"service":        "Signature Glow Facial",
				"colorLine":      "Opelle Radiance",
				"grams":          35,
				"developer":      "10 vol",
				"processingTime": "12 min",
				"notes":          "Added barrier booster ampoule.",
				"createdAt":      stamp,
				"updatedAt":      stamp,
			},
		},
	}
}

// NoSeed starts from empty lists.
func NoSeed(time.Time) Seed {
	return Seed{}
}

func encodeSeedList(items []map[string]any) ([]byte, error) {
	if items == nil {
		items = []map[string]any{}
	}
	return json.Marshal(items)
}
