package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/backup"
	"github.com/BruksfildServices01/salon-scheduler/internal/config"
	"github.com/BruksfildServices01/salon-scheduler/internal/logging"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
	"github.com/BruksfildServices01/salon-scheduler/internal/storage"
)

// app carries what every command needs. Tests fill it in directly; the
// real binary connects in the root's PersistentPreRunE.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	observer *repo.Observer
	audit    *audit.Dispatcher

	repo  repo.Repository
	probe repo.HealthProber
	local *repo.LocalStore

	archive *backup.S3Archive
	now     func() time.Time
}

func newRootCmd(a *app) *cobra.Command {
	var offline bool

	root := &cobra.Command{
		Use:           "salonctl",
		Short:         "Manage salon clients, appointments, formulas and tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.repo != nil {
				return nil
			}
			return a.connect(cmd.ErrOrStderr(), offline)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.audit.Close(context.Background())
		},
	}

	root.PersistentFlags().BoolVar(&offline, "offline", false, "Use the local store without probing the API")

	root.AddCommand(
		healthCmd(a),
		clientsCmd(a),
		inviteCmd(a),
		appointmentsCmd(a),
		formulasCmd(a),
		tasksCmd(a),
		backupCmd(a),
		resetCmd(a),
	)
	return root
}

// connect builds the repository selector from the environment.
func (a *app) connect(stderr io.Writer, offline bool) error {
	a.cfg = config.Load()

	log, err := logging.NewWithWriter(a.cfg, stderr)
	if err != nil {
		return err
	}
	a.log = log

	a.observer = repo.NewObserver(log)
	a.observer.Subscribe(func(ev repo.ErrorEvent) {
		fmt.Fprintf(stderr, "warning: %s\n", ev.Message)
	})
	a.audit = audit.NewDispatcher(audit.NewLogSink(log), log)

	kv, err := a.localKV()
	if err != nil {
		return err
	}
	a.local = repo.NewLocalStore(kv, repo.WithLogger(log))

	if offline {
		a.repo = a.local
		return nil
	}

	client := &http.Client{Timeout: a.cfg.APITimeout}
	a.probe = repo.NewHTTPHealthProbe(a.cfg.APIBaseURL, client)
	remote := repo.NewRemoteStore(a.cfg.APIBaseURL, client, a.observer, log)
	a.repo = repo.NewSelector(a.probe, remote, a.local, log)
	return nil
}

func (a *app) localKV() (storage.KV, error) {
	switch a.cfg.LocalStore {
	case "redis":
		if a.cfg.RedisURL == "" {
			return nil, fmt.Errorf("LOCAL_STORE=redis needs REDIS_URL")
		}
		return storage.NewRedisKV(a.cfg.RedisURL)
	case "memory":
		return storage.NewMemoryKV(), nil
	default:
		return storage.NewFileKV(a.cfg.LocalStorePath)
	}
}

func (a *app) s3() (*backup.S3Archive, error) {
	if a.archive != nil {
		return a.archive, nil
	}
	if a.cfg == nil || a.cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is not set")
	}
	a.archive = backup.NewS3Archive(backup.NewS3Client(a.cfg), a.cfg.S3Bucket)
	return a.archive, nil
}

func (a *app) timezone() string {
	if a.cfg == nil {
		return ""
	}
	return a.cfg.SalonTimezone
}

func (a *app) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
