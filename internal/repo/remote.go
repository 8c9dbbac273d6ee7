package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
)

const (
	APIPrefix       = "/api/db"
	maxResponseSize = 16 << 20
)

// RemoteStore implements Repository against the backend REST API. Every
// failure except "not found" is logged and published on the observer; reads
// then return an empty list and writes return the caller's input, each with
// the error.
type RemoteStore struct {
	baseURL  string
	client   *http.Client
	observer *Observer
	log      *slog.Logger
}

func NewRemoteStore(baseURL string, client *http.Client, observer *Observer, log *slog.Logger) *RemoteStore {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	if observer == nil {
		observer = NewObserver(log)
	}
	return &RemoteStore{
		baseURL:  strings.TrimRight(baseURL, "/") + APIPrefix,
		client:   client,
		observer: observer,
		log:      log,
	}
}

func (r *RemoteStore) Mode() string {
	return ModeRemote
}

type envelope[T any] struct {
	OK      bool   `json:"ok"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Code == httperr.CodeInvalidBackup:
		return ErrInvalidBackup
	case e.Status >= http.StatusInternalServerError:
		return ErrBackendUnavailable
	}
	return nil
}

// do sends one request. body may be nil, raw JSON bytes or any value to
// encode.
func do[T any](ctx context.Context, r *RemoteStore, method, path string, body any) (T, error) {
	var zero T

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return zero, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return zero, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return zero, fmt.Errorf("%w: read response: %v", ErrBackendUnavailable, err)
	}

	var env envelope[T]
	decodeErr := json.Unmarshal(raw, &env)
	ok2xx := resp.StatusCode >= 200 && resp.StatusCode < 300

	if !ok2xx || decodeErr != nil || !env.OK {
		if env.Error == httperr.CodeValidation {
			return zero, &ValidationError{Field: env.Field, Reason: env.Message}
		}
		if ok2xx && decodeErr != nil {
			return zero, fmt.Errorf("decode response: %w", decodeErr)
		}
		return zero, &APIError{Status: resp.StatusCode, Code: env.Error, Message: env.Message}
	}
	return env.Data, nil
}

func (r *RemoteStore) report(op string, err error) {
	if errors.Is(err, ErrNotFound) {
		return
	}
	r.log.Warn("remote repository call failed", "op", op, "err", err)
	r.observer.Publish(ErrorEvent{
		Op:      op,
		Message: fmt.Sprintf("Failed to %s: %v", op, err),
		Err:     err,
	})
}

func idPath(collection, id string) string {
	return "/" + collection + "/" + url.PathEscape(strings.TrimSpace(id))
}

func list[T any](ctx context.Context, r *RemoteStore, op, path string) ([]T, error) {
	items, err := do[[]T](ctx, r, http.MethodGet, path, nil)
	if err != nil {
		r.report(op, err)
		return []T{}, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func get[T any](ctx context.Context, r *RemoteStore, op, collection, id string) (T, error) {
	item, err := do[T](ctx, r, http.MethodGet, idPath(collection, id), nil)
	if err != nil {
		r.report(op, err)
	}
	return item, err
}

// upsert creates through POST when id is empty, otherwise PATCHes the
// record in place (the server creates it when the id is unknown).
func upsert[T any](ctx context.Context, r *RemoteStore, op, collection, id string, in T) (T, error) {
	method, path := http.MethodPost, "/"+collection
	if strings.TrimSpace(id) != "" {
		method, path = http.MethodPatch, idPath(collection, id)
	}
	out, err := do[T](ctx, r, method, path, in)
	if err != nil {
		r.report(op, err)
		return in, err
	}
	return out, nil
}

func (r *RemoteStore) remove(ctx context.Context, op, collection, id string) error {
	_, err := do[json.RawMessage](ctx, r, http.MethodDelete, idPath(collection, id), nil)
	if err != nil {
		r.report(op, err)
	}
	return err
}

// ======================================================
// Clients
// ======================================================

func (r *RemoteStore) ListClients(ctx context.Context) ([]models.Client, error) {
	return list[models.Client](ctx, r, "load clients", "/clients")
}

func (r *RemoteStore) GetClient(ctx context.Context, id string) (models.Client, error) {
	return get[models.Client](ctx, r, "load client", "clients", id)
}

func (r *RemoteStore) UpsertClient(ctx context.Context, c models.Client) (models.Client, error) {
	return upsert(ctx, r, "save client", "clients", c.ID, c)
}

func (r *RemoteStore) DeleteClient(ctx context.Context, id string) error {
	return r.remove(ctx, "delete client", "clients", id)
}

func (r *RemoteStore) FindClientByInviteToken(ctx context.Context, token string) (models.Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Client{}, ErrNotFound
	}
	clients, err := list[models.Client](ctx, r, "look up invite", "/clients?invite_token="+url.QueryEscape(token))
	if err != nil {
		return models.Client{}, err
	}
	for _, c := range clients {
		if c.InviteToken == token {
			return c, nil
		}
	}
	return models.Client{}, ErrNotFound
}

func (r *RemoteStore) EnsureInvite(ctx context.Context, clientID string) (models.Invite, error) {
	return r.invite(ctx, clientID, InviteEnsure)
}

func (r *RemoteStore) RegenerateInvite(ctx context.Context, clientID string) (models.Invite, error) {
	return r.invite(ctx, clientID, InviteRegenerate)
}

func (r *RemoteStore) invite(ctx context.Context, clientID string, action InviteAction) (models.Invite, error) {
	body := map[string]InviteAction{"action": action}
	inv, err := do[models.Invite](ctx, r, http.MethodPost, idPath("clients", clientID)+"/invite", body)
	if err != nil {
		r.report("issue invite", err)
		return models.Invite{}, err
	}
	return inv, nil
}

// ======================================================
// Appointments
// ======================================================

func (r *RemoteStore) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	return list[models.Appointment](ctx, r, "load appointments", "/appointments")
}

func (r *RemoteStore) GetAppointment(ctx context.Context, id string) (models.Appointment, error) {
	return get[models.Appointment](ctx, r, "load appointment", "appointments", id)
}

func (r *RemoteStore) UpsertAppointment(ctx context.Context, a models.Appointment) (models.Appointment, error) {
	return upsert(ctx, r, "save appointment", "appointments", a.ID, a)
}

func (r *RemoteStore) DeleteAppointment(ctx context.Context, id string) error {
	return r.remove(ctx, "delete appointment", "appointments", id)
}

// ======================================================
// Formulas
// ======================================================

func (r *RemoteStore) ListFormulas(ctx context.Context) ([]models.Formula, error) {
	return list[models.Formula](ctx, r, "load formulas", "/formulas")
}

func (r *RemoteStore) GetFormula(ctx context.Context, id string) (models.Formula, error) {
	return get[models.Formula](ctx, r, "load formula", "formulas", id)
}

func (r *RemoteStore) UpsertFormula(ctx context.Context, f models.Formula) (models.Formula, error) {
	return upsert(ctx, r, "save formula", "formulas", f.ID, f)
}

func (r *RemoteStore) DeleteFormula(ctx context.Context, id string) error {
	return r.remove(ctx, "delete formula", "formulas", id)
}

// ======================================================
// Tasks
// ======================================================

func (r *RemoteStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	return list[models.Task](ctx, r, "load tasks", "/tasks")
}

func (r *RemoteStore) GetTask(ctx context.Context, id string) (models.Task, error) {
	return get[models.Task](ctx, r, "load task", "tasks", id)
}

func (r *RemoteStore) UpsertTask(ctx context.Context, t models.Task) (models.Task, error) {
	return upsert(ctx, r, "save task", "tasks", t.ID, t)
}

func (r *RemoteStore) DeleteTask(ctx context.Context, id string) error {
	return r.remove(ctx, "delete task", "tasks", id)
}

// ======================================================
// Backup
// ======================================================

func (r *RemoteStore) ExportBackup(ctx context.Context) (models.BackupV1, error) {
	b, err := do[models.BackupV1](ctx, r, http.MethodGet, "/backup", nil)
	if err != nil {
		r.report("export backup", err)
	}
	return b, err
}

func (r *RemoteStore) ImportBackup(ctx context.Context, data []byte, opts ImportOptions) error {
	if _, err := ParseBackup(data, normalize.New()); err != nil {
		return err
	}
	path := "/backup/import?merge=" + strconv.FormatBool(opts.Merge)
	_, err := do[json.RawMessage](ctx, r, http.MethodPost, path, data)
	if err != nil {
		r.report("import backup", err)
	}
	return err
}
