package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/backup"
	"github.com/BruksfildServices01/salon-scheduler/internal/config"
	"github.com/BruksfildServices01/salon-scheduler/internal/logging"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
	"github.com/BruksfildServices01/salon-scheduler/internal/storage"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	log := logging.Discard()
	local := repo.NewLocalStore(storage.NewMemoryKV(), repo.WithLogger(log))
	return &app{
		cfg: &config.Config{
			SalonTimezone:          "UTC",
			CalendarConfirmTimeout: time.Second,
		},
		log:      log,
		observer: repo.NewObserver(log),
		repo:     local,
		local:    local,
	}
}

// run executes one salonctl invocation and returns its stdout.
func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	a.audit = audit.NewDispatcher(audit.NewLogSink(a.log), a.log)

	var out, errOut bytes.Buffer
	root := newRootCmd(a)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestClientsCommands(t *testing.T) {
	a := newTestApp(t)

	out, err := run(t, a, "clients", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Avery Chen")
	assert.Contains(t, out, "Maya Torres")

	out, err = run(t, a, "clients", "list", "-q", "maya")
	require.NoError(t, err)
	assert.NotContains(t, out, "Avery")

	out, err = run(t, a, "clients", "add", "--first", "Jo", "--last", "Park", "--email", "jo@salon.test")
	require.NoError(t, err)
	assert.Contains(t, out, "(Jo Park)")

	_, err = run(t, a, "clients", "add", "--last", "Nobody")
	assert.True(t, repo.IsValidation(err))

	_, err = run(t, a, "clients", "delete", "client_maya")
	require.NoError(t, err)
	_, err = run(t, a, "clients", "get", "client_maya")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestInviteCommands(t *testing.T) {
	a := newTestApp(t)

	first, err := run(t, a, "invite", "ensure", "client_avery")
	require.NoError(t, err)
	again, err := run(t, a, "invite", "ensure", "client_avery")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	fresh, err := run(t, a, "invite", "regenerate", "client_avery")
	require.NoError(t, err)
	assert.NotEqual(t, first, fresh)
	assert.Len(t, strings.TrimSpace(fresh), repo.DefaultInviteLength)
}

func TestAppointmentCommands(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := run(t, a, "appointments", "move", "appt_1", "--start", "2030-01-02T10:00:00Z")
	require.NoError(t, err)

	ap, err := a.repo.GetAppointment(ctx, "appt_1")
	require.NoError(t, err)
	assert.True(t, ap.StartAt.Equal(time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, 60, ap.DurationMin)

	out, err := run(t, a, "appointments", "resize", "appt_1", "--end", "2030-01-02 11:30")
	require.NoError(t, err)
	assert.Contains(t, out, "90 minutes")

	out, err = run(t, a, "appointments", "list", "--month", "2030-01")
	require.NoError(t, err)
	assert.Contains(t, out, "appt_1")
	assert.Contains(t, out, "Avery Chen")

	out, err = run(t, a, "appointments", "list", "--day", "2030-01-03")
	require.NoError(t, err)
	assert.NotContains(t, out, "appt_1")

	out, err = run(t, a, "appointments", "cancel", "appt_1")
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled")

	_, err = run(t, a, "appointments", "move", "appt_1", "--start", "2030-01-05T10:00:00Z")
	assert.Error(t, err, "cancelled appointments stay put")

	_, err = run(t, a, "appointments", "list", "--month", "2030")
	assert.Error(t, err)
}

func TestTaskAndFormulaCommands(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := run(t, a, "tasks", "add", "Order toner", "--due", "2030-01-05")
	require.NoError(t, err)

	tasks, err := a.repo.ListTasks(ctx)
	require.NoError(t, err)
	var id string
	for _, tk := range tasks {
		if tk.Title == "Order toner" {
			id = tk.ID
		}
	}
	require.NotEmpty(t, id)

	_, err = run(t, a, "tasks", "done", id)
	require.NoError(t, err)

	out, err := run(t, a, "tasks", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Order toner")

	out, err = run(t, a, "tasks", "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Order toner")

	_, err = run(t, a, "formulas", "add", "--client", "client_avery", "--title", "Copper gloss",
		"--type", "gloss", "--product", "Shades EQ 07C", "--developer", "Processing solution")
	require.NoError(t, err)

	out, err = run(t, a, "formulas", "list", "--client", "client_avery")
	require.NoError(t, err)
	assert.Contains(t, out, "Copper gloss")
	assert.Contains(t, out, "gloss")

	_, err = run(t, a, "formulas", "add", "--client", "client_avery")
	assert.True(t, repo.IsValidation(err))
}

func TestBackupFileCommands(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "backup.json")

	_, err := run(t, a, "backup", "export", "-o", path)
	require.NoError(t, err)

	_, err = run(t, a, "clients", "add", "--first", "Extra")
	require.NoError(t, err)

	out, err := run(t, a, "backup", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "replaced")

	clients, err := a.repo.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 2)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version":3}`), 0o600))
	_, err = run(t, a, "backup", "import", bad)
	assert.ErrorIs(t, err, repo.ErrInvalidBackup)
}

func TestBackupArchiveCommands(t *testing.T) {
	a := newTestApp(t)
	a.archive = backup.NewS3Archive(newMemS3(), "salon")
	ctx := context.Background()

	_, err := run(t, a, "backup", "pull")
	assert.Error(t, err)

	out, err := run(t, a, "backup", "push")
	require.NoError(t, err)
	assert.Contains(t, out, "uploaded backups/salon-backup-v1-")

	out, err = run(t, a, "backup", "list")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 1)

	_, err = run(t, a, "clients", "delete", "client_maya")
	require.NoError(t, err)

	_, err = run(t, a, "backup", "pull", "--merge")
	require.NoError(t, err)

	_, err = a.repo.GetClient(ctx, "client_maya")
	assert.NoError(t, err)
}

func TestResetAndHealth(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := run(t, a, "clients", "delete", "client_avery")
	require.NoError(t, err)

	_, err = run(t, a, "reset")
	assert.Error(t, err)

	_, err = run(t, a, "reset", "--yes")
	require.NoError(t, err)

	clients, err := a.repo.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 2, "reseeded after reset")

	out, err := run(t, a, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "store: local")
}

// memS3 is a single-page in-memory object store.
type memS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemS3() *memS3 {
	return &memS3{objects: map[string][]byte{}}
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := &s3.ListObjectsV2Output{}
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}
