package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
)

const inviteAttempts = 5

// SalonGormRepository is the authoritative store in db mode.
type SalonGormRepository struct {
	db     *gorm.DB
	norm   *normalize.Normalizer
	tokens *repo.TokenGenerator
	log    *slog.Logger
}

func NewSalonGormRepository(
	db *gorm.DB,
	norm *normalize.Normalizer,
	tokens *repo.TokenGenerator,
	log *slog.Logger,
) *SalonGormRepository {
	if norm == nil {
		norm = normalize.New()
	}
	if log == nil {
		log = slog.Default()
	}
	if tokens == nil {
		tokens = repo.NewTokenGenerator(log)
	}
	return &SalonGormRepository{db: db, norm: norm, tokens: tokens, log: log}
}

func (r *SalonGormRepository) Mode() string {
	return repo.ModeDB
}

// Ping counts clients; a missing table is reported separately so the
// health endpoint can say the schema is not migrated.
func (r *SalonGormRepository) Ping(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Client{}).Count(&count).Error
	return count, err
}

// --------------------------------------------------
// Helpers
// --------------------------------------------------

func findByID[T any](ctx context.Context, db *gorm.DB, id string) (T, error) {
	var out T
	err := db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return out, repo.ErrNotFound
	}
	return out, err
}

func listOrdered[T any](ctx context.Context, db *gorm.DB, order string) ([]T, error) {
	out := []T{}
	if err := db.WithContext(ctx).Order(order).Find(&out).Error; err != nil {
		return []T{}, err
	}
	return out, nil
}

// existing loads and row-locks the stored record for id inside tx.
func existing[T any](tx *gorm.DB, id string) (T, bool, error) {
	var out T
	if id == "" {
		return out, false, nil
	}
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return out, false, nil
	}
	return out, err == nil, err
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, id string) error {
	var model T
	return db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).Delete(&model).Error
}

// --------------------------------------------------
// Clients
// --------------------------------------------------

func (r *SalonGormRepository) ListClients(ctx context.Context) ([]models.Client, error) {
	return listOrdered[models.Client](ctx, r.db, "updated_at DESC")
}

func (r *SalonGormRepository) GetClient(ctx context.Context, id string) (models.Client, error) {
	return findByID[models.Client](ctx, r.db, id)
}

func (r *SalonGormRepository) UpsertClient(
	ctx context.Context,
	c models.Client,
) (models.Client, error) {

	if err := normalize.ValidateClient(c); err != nil {
		return c, err
	}

	var saved models.Client
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c.ID = strings.TrimSpace(c.ID)
		prev, found, err := existing[models.Client](tx, c.ID)
		if err != nil {
			return err
		}

		now := r.norm.Now()
		if c.ID == "" {
			c.ID = r.norm.NewID()
		}
		c.CreatedAt = now
		if found {
			c.CreatedAt = prev.CreatedAt
			if strings.TrimSpace(c.InviteToken) == "" {
				c.InviteToken = prev.InviteToken
				c.InviteUpdatedAt = prev.InviteUpdatedAt
			}
		}
		c.UpdatedAt = now

		saved = r.norm.ClientOf(c)
		return tx.Save(&saved).Error
	})
	if err != nil {
		return c, err
	}
	return saved, nil
}

// DeleteClient removes the client's appointments in the same transaction.
// Formulas keep their dangling clientId. A blank id is a no-op so
// unassigned appointments survive.
func (r *SalonGormRepository) DeleteClient(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", id).Delete(&models.Appointment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Client{}).Error
	})
}

func (r *SalonGormRepository) FindClientByInviteToken(
	ctx context.Context,
	token string,
) (models.Client, error) {

	token = strings.TrimSpace(token)
	if token == "" {
		return models.Client{}, repo.ErrNotFound
	}

	var c models.Client
	err := r.db.WithContext(ctx).Where("invite_token = ?", token).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Client{}, repo.ErrNotFound
	}
	return c, err
}

func (r *SalonGormRepository) EnsureInvite(ctx context.Context, clientID string) (models.Invite, error) {
	return r.issueInvite(ctx, clientID, false)
}

func (r *SalonGormRepository) RegenerateInvite(ctx context.Context, clientID string) (models.Invite, error) {
	return r.issueInvite(ctx, clientID, true)
}

// issueInvite retries the whole transaction when the new token collides
// with another client's (unique index on invite_token).
func (r *SalonGormRepository) issueInvite(
	ctx context.Context,
	clientID string,
	regenerate bool,
) (models.Invite, error) {

	clientID = strings.TrimSpace(clientID)

	for attempt := 1; ; attempt++ {
		var inv models.Invite
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			c, found, err := existing[models.Client](tx, clientID)
			if err != nil {
				return err
			}
			if !found {
				return repo.ErrNotFound
			}

			if !regenerate && c.InviteToken != "" && c.InviteUpdatedAt != nil {
				inv = models.Invite{Token: c.InviteToken, UpdatedAt: *c.InviteUpdatedAt}
				return nil
			}

			token, err := r.tokens.Generate(repo.DefaultInviteLength)
			if err != nil {
				return err
			}

			now := r.norm.Now()
			updatedAt := now
			if c.CreatedAt.After(now) {
				updatedAt = c.CreatedAt
			}
			if err := tx.Model(&models.Client{}).
				Where("id = ?", clientID).
				Updates(map[string]any{
					"invite_token":      token,
					"invite_updated_at": now,
					"updated_at":        updatedAt,
				}).Error; err != nil {
				return err
			}

			inv = models.Invite{Token: token, UpdatedAt: now}
			return nil
		})

		if err == nil {
			return inv, nil
		}
		if !httperr.IsConflict(err) || attempt >= inviteAttempts {
			return models.Invite{}, err
		}
		r.log.Warn("invite token collision, retrying", "client_id", clientID, "attempt", attempt)
	}
}

// --------------------------------------------------
// Appointments
// --------------------------------------------------

func (r *SalonGormRepository) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	return listOrdered[models.Appointment](ctx, r.db, "start_at DESC")
}

func (r *SalonGormRepository) GetAppointment(ctx context.Context, id string) (models.Appointment, error) {
	return findByID[models.Appointment](ctx, r.db, id)
}

func (r *SalonGormRepository) UpsertAppointment(
	ctx context.Context,
	a models.Appointment,
) (models.Appointment, error) {

	if err := normalize.ValidateAppointment(a); err != nil {
		return a, err
	}

	var saved models.Appointment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a.ID = strings.TrimSpace(a.ID)
		prev, found, err := existing[models.Appointment](tx, a.ID)
		if err != nil {
			return err
		}

		now := r.norm.Now()
		if a.ID == "" {
			a.ID = r.norm.NewID()
		}
		a.CreatedAt = now
		if found {
			a.CreatedAt = prev.CreatedAt
		}
		a.UpdatedAt = now

		saved = r.norm.AppointmentOf(a)
		return tx.Save(&saved).Error
	})
	if err != nil {
		return a, err
	}
	return saved, nil
}

func (r *SalonGormRepository) DeleteAppointment(ctx context.Context, id string) error {
	return deleteByID[models.Appointment](ctx, r.db, id)
}

// --------------------------------------------------
// Formulas
// --------------------------------------------------

func (r *SalonGormRepository) ListFormulas(ctx context.Context) ([]models.Formula, error) {
	return listOrdered[models.Formula](ctx, r.db, "updated_at DESC")
}

func (r *SalonGormRepository) GetFormula(ctx context.Context, id string) (models.Formula, error) {
	return findByID[models.Formula](ctx, r.db, id)
}

func (r *SalonGormRepository) UpsertFormula(
	ctx context.Context,
	f models.Formula,
) (models.Formula, error) {

	if err := normalize.ValidateFormula(f); err != nil {
		return f, err
	}

	var saved models.Formula
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f.ID = strings.TrimSpace(f.ID)
		prev, found, err := existing[models.Formula](tx, f.ID)
		if err != nil {
			return err
		}

		now := r.norm.Now()
		if f.ID == "" {
			f.ID = r.norm.NewID()
		}
		f.CreatedAt = now
		if found {
			f.CreatedAt = prev.CreatedAt
		}
		f.UpdatedAt = now

		saved = r.norm.FormulaOf(f)
		return tx.Save(&saved).Error
	})
	if err != nil {
		return f, err
	}
	return saved, nil
}

func (r *SalonGormRepository) DeleteFormula(ctx context.Context, id string) error {
	return deleteByID[models.Formula](ctx, r.db, id)
}

// --------------------------------------------------
// Tasks
// --------------------------------------------------

func (r *SalonGormRepository) ListTasks(ctx context.Context) ([]models.Task, error) {
	return listOrdered[models.Task](ctx, r.db, "updated_at DESC")
}

func (r *SalonGormRepository) GetTask(ctx context.Context, id string) (models.Task, error) {
	return findByID[models.Task](ctx, r.db, id)
}

func (r *SalonGormRepository) UpsertTask(
	ctx context.Context,
	t models.Task,
) (models.Task, error) {

	if err := normalize.ValidateTask(t); err != nil {
		return t, err
	}

	var saved models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t.ID = strings.TrimSpace(t.ID)
		prev, found, err := existing[models.Task](tx, t.ID)
		if err != nil {
			return err
		}

		now := r.norm.Now()
		if t.ID == "" {
			t.ID = r.norm.NewID()
		}
		t.CreatedAt = now
		if found {
			t.CreatedAt = prev.CreatedAt
		}
		t.UpdatedAt = now

		saved = r.norm.TaskOf(t)
		return tx.Save(&saved).Error
	})
	if err != nil {
		return t, err
	}
	return saved, nil
}

func (r *SalonGormRepository) DeleteTask(ctx context.Context, id string) error {
	return deleteByID[models.Task](ctx, r.db, id)
}

// --------------------------------------------------
// Backup
// --------------------------------------------------

func (r *SalonGormRepository) ExportBackup(ctx context.Context) (models.BackupV1, error) {
	b := models.BackupV1{Version: models.BackupVersion, ExportedAt: r.norm.Now()}

	var err error
	if b.Clients, err = r.ListClients(ctx); err != nil {
		return models.BackupV1{}, err
	}
	if b.Appointments, err = r.ListAppointments(ctx); err != nil {
		return models.BackupV1{}, err
	}
	if b.Formulas, err = r.ListFormulas(ctx); err != nil {
		return models.BackupV1{}, err
	}
	return b, nil
}

// ImportBackup applies the whole backup in one transaction.
func (r *SalonGormRepository) ImportBackup(
	ctx context.Context,
	data []byte,
	opts repo.ImportOptions,
) error {

	incoming, err := repo.ParseBackup(data, r.norm)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Merge {
			current, err := r.snapshotTx(tx)
			if err != nil {
				return err
			}
			incoming = repo.MergeBackup(current, incoming, r.norm.Now())
		}

		wipe := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&models.Appointment{}, &models.Formula{}, &models.Client{}} {
			if err := wipe.Delete(model).Error; err != nil {
				return fmt.Errorf("clear for import: %w", err)
			}
		}

		if len(incoming.Clients) > 0 {
			if err := tx.CreateInBatches(incoming.Clients, 200).Error; err != nil {
				return err
			}
		}
		if len(incoming.Appointments) > 0 {
			if err := tx.CreateInBatches(incoming.Appointments, 200).Error; err != nil {
				return err
			}
		}
		if len(incoming.Formulas) > 0 {
			if err := tx.CreateInBatches(incoming.Formulas, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SalonGormRepository) snapshotTx(tx *gorm.DB) (models.BackupV1, error) {
	var b models.BackupV1
	if err := tx.Find(&b.Clients).Error; err != nil {
		return b, err
	}
	if err := tx.Find(&b.Appointments).Error; err != nil {
		return b, err
	}
	if err := tx.Find(&b.Formulas).Error; err != nil {
		return b, err
	}
	return b, nil
}

// Compile-time checks
var (
	_ repo.Repository   = (*SalonGormRepository)(nil)
	_ domain.Repository = (*SalonGormRepository)(nil)
)
