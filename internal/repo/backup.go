package repo

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
)

// ParseBackup accepts only a structurally valid v1 backup: version 1, an
// exportedAt string and three arrays of objects. Records inside are
// normalized; anything else yields ErrInvalidBackup.
func ParseBackup(data []byte, n *normalize.Normalizer) (models.BackupV1, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return models.BackupV1{}, ErrInvalidBackup
	}

	rawVersion := bytes.TrimSpace(doc["version"])
	if len(rawVersion) == 0 || rawVersion[0] == '"' {
		return models.BackupV1{}, ErrInvalidBackup
	}
	var version json.Number
	dec := json.NewDecoder(bytes.NewReader(rawVersion))
	dec.UseNumber()
	if err := dec.Decode(&version); err != nil || version.String() != "1" {
		return models.BackupV1{}, ErrInvalidBackup
	}

	var exportedAt string
	if err := json.Unmarshal(doc["exportedAt"], &exportedAt); err != nil {
		return models.BackupV1{}, ErrInvalidBackup
	}

	clients, ok := records(doc["clients"], n.Client)
	if !ok {
		return models.BackupV1{}, ErrInvalidBackup
	}
	appointments, ok := records(doc["appointments"], n.Appointment)
	if !ok {
		return models.BackupV1{}, ErrInvalidBackup
	}
	formulas, ok := records(doc["formulas"], n.Formula)
	if !ok {
		return models.BackupV1{}, ErrInvalidBackup
	}

	b := models.BackupV1{
		Version:      models.BackupVersion,
		Clients:      clients,
		Appointments: appointments,
		Formulas:     formulas,
	}
	if t, err := time.Parse(time.RFC3339Nano, exportedAt); err == nil {
		b.ExportedAt = t.UTC()
	}
	return b, nil
}

func records[R, T any](raw json.RawMessage, fn func(R) T) ([]T, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, false
		}
		rec, err := normalize.Decode[R](item)
		if err != nil {
			return nil, false
		}
		out = append(out, fn(rec))
	}
	return out, true
}

// MergeBackup unions current and incoming by id. Incoming records win and
// are stamped with now; records only in current are kept untouched.
func MergeBackup(current, incoming models.BackupV1, now time.Time) models.BackupV1 {
	return models.BackupV1{
		Version:    models.BackupVersion,
		ExportedAt: incoming.ExportedAt,
		Clients: mergeByID(current.Clients, incoming.Clients,
			func(c *models.Client) string { return c.ID },
			func(c *models.Client) { c.UpdatedAt = later(c.CreatedAt, now) }),
		Appointments: mergeByID(current.Appointments, incoming.Appointments,
			func(a *models.Appointment) string { return a.ID },
			func(a *models.Appointment) { a.UpdatedAt = later(a.CreatedAt, now) }),
		Formulas: mergeByID(current.Formulas, incoming.Formulas,
			func(f *models.Formula) string { return f.ID },
			func(f *models.Formula) { f.UpdatedAt = later(f.CreatedAt, now) }),
	}
}

func mergeByID[T any](current, incoming []T, id func(*T) string, touch func(*T)) []T {
	out := make([]T, len(current), len(current)+len(incoming))
	copy(out, current)

	index := make(map[string]int, len(out))
	for i := range out {
		index[id(&out[i])] = i
	}

	for _, item := range incoming {
		touch(&item)
		if i, ok := index[id(&item)]; ok {
			out[i] = item
			continue
		}
		index[id(&item)] = len(out)
		out = append(out, item)
	}
	return out
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
