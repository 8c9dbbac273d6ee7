package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
	"github.com/BruksfildServices01/salon-scheduler/internal/storage"
)

// Every key carries the schema version so a later layout can live next to
// this one.
const (
	keyPrefix       = "salon:v1"
	ClientsKey      = keyPrefix + ":clients"
	AppointmentsKey = keyPrefix + ":appointments"
	FormulasKey     = keyPrefix + ":formulas"
	TasksKey        = keyPrefix + ":tasks"
)

const inviteAttempts = 5

// LocalStore implements Repository over a storage.KV. All operations on
// one LocalStore are serialized; two processes sharing the same KV can
// still race (read-modify-write, last writer wins).
type LocalStore struct {
	kv     storage.KV
	norm   *normalize.Normalizer
	tokens *TokenGenerator
	seed   SeedFunc
	log    *slog.Logger

	mu sync.Mutex
}

type LocalOption func(*LocalStore)

func WithNormalizer(n *normalize.Normalizer) LocalOption {
	return func(s *LocalStore) { s.norm = n }
}

func WithTokenGenerator(g *TokenGenerator) LocalOption {
	return func(s *LocalStore) { s.tokens = g }
}

func WithSeed(fn SeedFunc) LocalOption {
	return func(s *LocalStore) { s.seed = fn }
}

func WithLogger(log *slog.Logger) LocalOption {
	return func(s *LocalStore) { s.log = log }
}

func NewLocalStore(kv storage.KV, opts ...LocalOption) *LocalStore {
	s := &LocalStore{
		kv:   kv,
		norm: normalize.New(),
		seed: DefaultSeed,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tokens == nil {
		s.tokens = NewTokenGenerator(s.log)
	}
	return s
}

func (s *LocalStore) Mode() string {
	return ModeLocal
}

// ======================================================
// Seeding and raw list access
// ======================================================

// ensureSeed writes the fixture set only when none of the three seeded
// lists has ever been stored, even as an empty list.
func (s *LocalStore) ensureSeed(ctx context.Context) error {
	for _, key := range []string{ClientsKey, AppointmentsKey, FormulasKey} {
		_, found, err := s.kv.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("check seed %s: %w", key, err)
		}
		if found {
			return nil
		}
	}

	seed := s.seed(s.norm.Now())
	lists := []struct {
		key   string
		items []map[string]any
	}{
		{ClientsKey, seed.Clients},
		{AppointmentsKey, seed.Appointments},
		{FormulasKey, seed.Formulas},
	}
	for _, l := range lists {
		data, err := encodeSeedList(l.items)
		if err != nil {
			return fmt.Errorf("encode seed: %w", err)
		}
		if err := s.kv.Set(ctx, l.key, data); err != nil {
			return fmt.Errorf("write seed %s: %w", l.key, err)
		}
	}

	s.log.Info("local store seeded",
		"clients", len(seed.Clients),
		"appointments", len(seed.Appointments),
		"formulas", len(seed.Formulas),
	)
	return nil
}

// readList decodes and normalizes every stored record. Records that are
// not JSON objects are skipped. When normalization changed anything (a
// generated id, a clock-filled timestamp, a migrated legacy field) the
// canonical list is written back so the next read returns the same values.
// A list holding unreadable records is only rewritten for missing ids, so
// those records are not dropped for a cosmetic change.
func readList[R, T any](ctx context.Context, s *LocalStore, key string, fn func(R) T) ([]T, error) {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !found || len(raw) == 0 {
		return []T{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		s.log.Warn("stored list unreadable, treating as empty", "key", key, "err", err)
		return []T{}, nil
	}

	out := make([]T, 0, len(items))
	missingID, skipped := false, 0
	for i, item := range items {
		rec, err := normalize.Decode[R](item)
		if err != nil {
			s.log.Warn("skipping unreadable record", "key", key, "index", i, "err", err)
			skipped++
			continue
		}
		if !hasID(item) {
			missingID = true
		}
		out = append(out, fn(rec))
	}

	persist := missingID
	if !persist && skipped == 0 {
		canonical, err := json.Marshal(out)
		persist = err == nil && !bytes.Equal(canonical, raw)
	}
	if persist {
		if err := writeList(ctx, s, key, out); err != nil {
			s.log.Warn("could not persist normalized records", "key", key, "err", err)
		}
	}
	return out, nil
}

func hasID(item json.RawMessage) bool {
	var head struct {
		ID normalize.Text `json:"id"`
	}
	if err := json.Unmarshal(item, &head); err != nil {
		return false
	}
	_, ok := head.ID.Trimmed()
	return ok
}

func writeList[T any](ctx context.Context, s *LocalStore, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) clients(ctx context.Context) ([]models.Client, error) {
	return readList(ctx, s, ClientsKey, s.norm.Client)
}

func (s *LocalStore) appointments(ctx context.Context) ([]models.Appointment, error) {
	return readList(ctx, s, AppointmentsKey, s.norm.Appointment)
}

func (s *LocalStore) formulas(ctx context.Context) ([]models.Formula, error) {
	return readList(ctx, s, FormulasKey, s.norm.Formula)
}

func (s *LocalStore) tasks(ctx context.Context) ([]models.Task, error) {
	return readList(ctx, s, TasksKey, s.norm.Task)
}

// lock serializes the operation and makes sure the seed is in place.
func (s *LocalStore) lock(ctx context.Context) (func(), error) {
	s.mu.Lock()
	if err := s.ensureSeed(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return s.mu.Unlock, nil
}

func sortDesc[T any](items []T, key func(T) time.Time) {
	slices.SortStableFunc(items, func(a, b T) int {
		return key(b).Compare(key(a))
	})
}

func find[T any](items []T, id string, idOf func(T) string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(items, func(item T) bool { return idOf(item) == id })
}

func clientID(c models.Client) string           { return c.ID }
func appointmentID(a models.Appointment) string { return a.ID }
func formulaID(f models.Formula) string         { return f.ID }
func taskID(t models.Task) string               { return t.ID }

// ======================================================
// Clients
// ======================================================

func (s *LocalStore) ListClients(ctx context.Context) ([]models.Client, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return []models.Client{}, err
	}
	defer unlock()

	clients, err := s.clients(ctx)
	if err != nil {
		return []models.Client{}, err
	}
	sortDesc(clients, func(c models.Client) time.Time { return c.UpdatedAt })
	return clients, nil
}

func (s *LocalStore) GetClient(ctx context.Context, id string) (models.Client, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return models.Client{}, err
	}
	defer unlock()

	clients, err := s.clients(ctx)
	if err != nil {
		return models.Client{}, err
	}
	i := find(clients, strings.TrimSpace(id), clientID)
	if i < 0 {
		return models.Client{}, ErrNotFound
	}
	return clients[i], nil
}

func (s *LocalStore) UpsertClient(ctx context.Context, c models.Client) (models.Client, error) {
	if err := normalize.ValidateClient(c); err != nil {
		return c, err
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return c, err
	}
	defer unlock()

	clients, err := s.clients(ctx)
	if err != nil {
		return c, err
	}

	now := s.norm.Now()
	c.ID = strings.TrimSpace(c.ID)
	i := find(clients, c.ID, clientID)
	if c.ID == "" {
		c.ID = s.norm.NewID()
	}
	c.CreatedAt = now
	if i >= 0 {
		existing := clients[i]
		c.CreatedAt = existing.CreatedAt
		if strings.TrimSpace(c.InviteToken) == "" {
			c.InviteToken = existing.InviteToken
			c.InviteUpdatedAt = existing.InviteUpdatedAt
		}
	}
	c.UpdatedAt = now

	next := s.norm.ClientOf(c)
	if i >= 0 {
		clients[i] = next
	} else {
		clients = append(clients, next)
	}
	if err := writeList(ctx, s, ClientsKey, clients); err != nil {
		return c, err
	}
	return next, nil
}

// DeleteClient removes the client and their appointments. A blank id
// matches no client, so nothing is removed.
func (s *LocalStore) DeleteClient(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	clients, err := s.clients(ctx)
	if err != nil {
		return err
	}
	appointments, err := s.appointments(ctx)
	if err != nil {
		return err
	}

	clients = slices.DeleteFunc(clients, func(c models.Client) bool { return c.ID == id })
	appointments = slices.DeleteFunc(appointments, func(a models.Appointment) bool { return a.ClientID == id })

	if err := writeList(ctx, s, ClientsKey, clients); err != nil {
		return err
	}
	return writeList(ctx, s, AppointmentsKey, appointments)
}

func (s *LocalStore) FindClientByInviteToken(ctx context.Context, token string) (models.Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Client{}, ErrNotFound
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return models.Client{}, err
	}
	defer unlock()

	clients, err := s.clients(ctx)
	if err != nil {
		return models.Client{}, err
	}
	i := slices.IndexFunc(clients, func(c models.Client) bool { return c.InviteToken == token })
	if i < 0 {
		return models.Client{}, ErrNotFound
	}
	return clients[i], nil
}

func (s *LocalStore) EnsureInvite(ctx context.Context, clientID string) (models.Invite, error) {
	return s.issueInvite(ctx, clientID, false)
}

func (s *LocalStore) RegenerateInvite(ctx context.Context, clientID string) (models.Invite, error) {
	return s.issueInvite(ctx, clientID, true)
}

func (s *LocalStore) issueInvite(ctx context.Context, id string, regenerate bool) (models.Invite, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return models.Invite{}, err
	}
	defer unlock()

	clients, err := s.clients(ctx)
	if err != nil {
		return models.Invite{}, err
	}
	i := find(clients, strings.TrimSpace(id), clientID)
	if i < 0 {
		return models.Invite{}, ErrNotFound
	}

	c := clients[i]
	if !regenerate && c.InviteToken != "" && c.InviteUpdatedAt != nil {
		return models.Invite{Token: c.InviteToken, UpdatedAt: *c.InviteUpdatedAt}, nil
	}

	token, err := s.freshToken(clients)
	if err != nil {
		return models.Invite{}, err
	}

	now := s.norm.Now()
	c.InviteToken = token
	c.InviteUpdatedAt = &now
	c.UpdatedAt = later(c.CreatedAt, now)
	clients[i] = c

	if err := writeList(ctx, s, ClientsKey, clients); err != nil {
		return models.Invite{}, err
	}
	return models.Invite{Token: token, UpdatedAt: now}, nil
}

// freshToken mints a token no other client currently holds.
func (s *LocalStore) freshToken(clients []models.Client) (string, error) {
	for range inviteAttempts {
		token, err := s.tokens.Generate(DefaultInviteLength)
		if err != nil {
			return "", err
		}
		taken := slices.ContainsFunc(clients, func(c models.Client) bool { return c.InviteToken == token })
		if !taken {
			return token, nil
		}
	}
	return "", fmt.Errorf("invite token collision after %d attempts", inviteAttempts)
}

// ======================================================
// Appointments
// ======================================================

func (s *LocalStore) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return []models.Appointment{}, err
	}
	defer unlock()

	appointments, err := s.appointments(ctx)
	if err != nil {
		return []models.Appointment{}, err
	}
	sortDesc(appointments, func(a models.Appointment) time.Time { return a.StartAt })
	return appointments, nil
}

func (s *LocalStore) GetAppointment(ctx context.Context, id string) (models.Appointment, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return models.Appointment{}, err
	}
	defer unlock()

	appointments, err := s.appointments(ctx)
	if err != nil {
		return models.Appointment{}, err
	}
	i := find(appointments, strings.TrimSpace(id), appointmentID)
	if i < 0 {
		return models.Appointment{}, ErrNotFound
	}
	return appointments[i], nil
}

func (s *LocalStore) UpsertAppointment(ctx context.Context, a models.Appointment) (models.Appointment, error) {
	if err := normalize.ValidateAppointment(a); err != nil {
		return a, err
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return a, err
	}
	defer unlock()

	appointments, err := s.appointments(ctx)
	if err != nil {
		return a, err
	}

	now := s.norm.Now()
	a.ID = strings.TrimSpace(a.ID)
	i := find(appointments, a.ID, appointmentID)
	if a.ID == "" {
		a.ID = s.norm.NewID()
	}
	a.CreatedAt = now
	if i >= 0 {
		a.CreatedAt = appointments[i].CreatedAt
	}
	a.UpdatedAt = now

	next := s.norm.AppointmentOf(a)
	if i >= 0 {
		appointments[i] = next
	} else {
		appointments = append(appointments, next)
	}
	if err := writeList(ctx, s, AppointmentsKey, appointments); err != nil {
		return a, err
	}
	return next, nil
}

func (s *LocalStore) DeleteAppointment(ctx context.Context, id string) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	appointments, err := s.appointments(ctx)
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	appointments = slices.DeleteFunc(appointments, func(a models.Appointment) bool { return a.ID == id })
	return writeList(ctx, s, AppointmentsKey, appointments)
}

// ======================================================
// Formulas
// ======================================================

func (s *LocalStore) ListFormulas(ctx context.Context) ([]models.Formula, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return []models.Formula{}, err
	}
	defer unlock()

	formulas, err := s.formulas(ctx)
	if err != nil {
		return []models.Formula{}, err
	}
	sortDesc(formulas, func(f models.Formula) time.Time { return f.UpdatedAt })
	return formulas, nil
}

func (s *LocalStore) GetFormula(ctx context.Context, id string) (models.Formula, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return models.Formula{}, err
	}
	defer unlock()

	formulas, err := s.formulas(ctx)
	if err != nil {
		return models.Formula{}, err
	}
	i := find(formulas, strings.TrimSpace(id), formulaID)
	if i < 0 {
		return models.Formula{}, ErrNotFound
	}
	return formulas[i], nil
}

func (s *LocalStore) UpsertFormula(ctx context.Context, f models.Formula) (models.Formula, error) {
	if err := normalize.ValidateFormula(f); err != nil {
		return f, err
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return f, err
	}
	defer unlock()

	formulas, err := s.formulas(ctx)
	if err != nil {
		return f, err
	}

	now := s.norm.Now()
	f.ID = strings.TrimSpace(f.ID)
	i := find(formulas, f.ID, formulaID)
	if f.ID == "" {
		f.ID = s.norm.NewID()
	}
	f.CreatedAt = now
	if i >= 0 {
		f.CreatedAt = formulas[i].CreatedAt
	}
	f.UpdatedAt = now

	next := s.norm.FormulaOf(f)
	if i >= 0 {
		formulas[i] = next
	} else {
		formulas = append(formulas, next)
	}
	if err := writeList(ctx, s, FormulasKey, formulas); err != nil {
		return f, err
	}
	return next, nil
}

func (s *LocalStore) DeleteFormula(ctx context.Context, id string) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	formulas, err := s.formulas(ctx)
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	formulas = slices.DeleteFunc(formulas, func(f models.Formula) bool { return f.ID == id })
	return writeList(ctx, s, FormulasKey, formulas)
}

// ======================================================
// Tasks
// ======================================================

func (s *LocalStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return []models.Task{}, err
	}
	defer unlock()

	tasks, err := s.tasks(ctx)
	if err != nil {
		return []models.Task{}, err
	}
	sortDesc(tasks, func(t models.Task) time.Time { return t.UpdatedAt })
	return tasks, nil
}

func (s *LocalStore) GetTask(ctx context.Context, id string) (models.Task, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return models.Task{}, err
	}
	defer unlock()

	tasks, err := s.tasks(ctx)
	if err != nil {
		return models.Task{}, err
	}
	i := find(tasks, strings.TrimSpace(id), taskID)
	if i < 0 {
		return models.Task{}, ErrNotFound
	}
	return tasks[i], nil
}

func (s *LocalStore) UpsertTask(ctx context.Context, t models.Task) (models.Task, error) {
	if err := normalize.ValidateTask(t); err != nil {
		return t, err
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return t, err
	}
	defer unlock()

	tasks, err := s.tasks(ctx)
	if err != nil {
		return t, err
	}

	now := s.norm.Now()
	t.ID = strings.TrimSpace(t.ID)
	i := find(tasks, t.ID, taskID)
	if t.ID == "" {
		t.ID = s.norm.NewID()
	}
	t.CreatedAt = now
	if i >= 0 {
		t.CreatedAt = tasks[i].CreatedAt
	}
	t.UpdatedAt = now

	next := s.norm.TaskOf(t)
	if i >= 0 {
		tasks[i] = next
	} else {
		tasks = append(tasks, next)
	}
	if err := writeList(ctx, s, TasksKey, tasks); err != nil {
		return t, err
	}
	return next, nil
}

func (s *LocalStore) DeleteTask(ctx context.Context, id string) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	tasks, err := s.tasks(ctx)
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	tasks = slices.DeleteFunc(tasks, func(t models.Task) bool { return t.ID == id })
	return writeList(ctx, s, TasksKey, tasks)
}

// ======================================================
// Backup / reset
// ======================================================

func (s *LocalStore) ExportBackup(ctx context.Context) (models.BackupV1, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return models.BackupV1{}, err
	}
	defer unlock()

	return s.snapshot(ctx)
}

func (s *LocalStore) snapshot(ctx context.Context) (models.BackupV1, error) {
	clients, err := s.clients(ctx)
	if err != nil {
		return models.BackupV1{}, err
	}
	appointments, err := s.appointments(ctx)
	if err != nil {
		return models.BackupV1{}, err
	}
	formulas, err := s.formulas(ctx)
	if err != nil {
		return models.BackupV1{}, err
	}

	sortDesc(clients, func(c models.Client) time.Time { return c.UpdatedAt })
	sortDesc(appointments, func(a models.Appointment) time.Time { return a.StartAt })
	sortDesc(formulas, func(f models.Formula) time.Time { return f.UpdatedAt })

	return models.BackupV1{
		Version:      models.BackupVersion,
		ExportedAt:   s.norm.Now(),
		Clients:      clients,
		Appointments: appointments,
		Formulas:     formulas,
	}, nil
}

func (s *LocalStore) ImportBackup(ctx context.Context, data []byte, opts ImportOptions) error {
	incoming, err := ParseBackup(data, s.norm)
	if err != nil {
		return err
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	next := incoming
	if opts.Merge {
		current, err := s.snapshot(ctx)
		if err != nil {
			return err
		}
		next = MergeBackup(current, incoming, s.norm.Now())
	}

	if err := writeList(ctx, s, ClientsKey, next.Clients); err != nil {
		return err
	}
	if err := writeList(ctx, s, AppointmentsKey, next.Appointments); err != nil {
		return err
	}
	if err := writeList(ctx, s, FormulasKey, next.Formulas); err != nil {
		return err
	}

	s.log.Info("backup imported",
		"merge", opts.Merge,
		"clients", len(next.Clients),
		"appointments", len(next.Appointments),
		"formulas", len(next.Formulas),
	)
	return nil
}

// ResetAll drops every stored list; the next access seeds again.
func (s *LocalStore) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, ClientsKey, AppointmentsKey, FormulasKey, TasksKey); err != nil {
		return fmt.Errorf("reset local store: %w", err)
	}
	return nil
}
