package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/config"
	"github.com/BruksfildServices01/salon-scheduler/internal/handlers"
	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/middleware"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
	"github.com/BruksfildServices01/salon-scheduler/internal/portal"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
)

// App is everything the routes need. DB and Pinger are nil in demo mode.
type App struct {
	Cfg      *config.Config
	Repo     repo.Repository
	Norm     *normalize.Normalizer
	Audit    *audit.Dispatcher
	Observer *repo.Observer
	Metrics  *metrics.Metrics
	Log      *slog.Logger

	DB     *gorm.DB
	Pinger handlers.Pinger
}

func RegisterRoutes(r *gin.Engine, app App) {

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(
		middleware.CORSMiddleware(app.Cfg.CORSOrigins),
		middleware.RequestLogger(app.Log),
		middleware.Metrics(app.Metrics),
	)

	// ======================================================
	// HANDLERS
	// ======================================================
	deps := handlers.Deps{
		Repo:     app.Repo,
		Norm:     app.Norm,
		Audit:    app.Audit,
		Observer: app.Observer,
		Log:      app.Log,

		CheckEmailDomain: app.Cfg.ValidateEmailDomain,
	}

	healthHandler := handlers.NewHealthHandler(app.Cfg.DataMode, app.Pinger)
	clientHandler := handlers.NewClientHandler(deps, app.Metrics)
	appointmentHandler := handlers.NewAppointmentHandler(deps, app.Cfg.SalonTimezone)
	formulaHandler := handlers.NewFormulaHandler(deps)
	taskHandler := handlers.NewTaskHandler(deps)
	backupHandler := handlers.NewBackupHandler(deps, app.Metrics)

	packets := portal.NewService(app.Repo, portal.Settings{
		StylistDisplayName: app.Cfg.StylistDisplayName,
		SalonName:          app.Cfg.SalonName,
		SyntheticFallback:  app.Cfg.PortalSyntheticFallback,
	}, app.Log)
	sessions := portal.NewSessionIssuer(app.Cfg.JWTSecret, app.Cfg.PortalSessionTTL)
	portalHandler := handlers.NewPortalHandler(deps, packets, sessions)

	// ======================================================
	// OPS
	// ======================================================
	r.GET("/health", healthHandler.Live)
	r.GET("/metrics", gin.WrapH(app.Metrics.Handler()))

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// STYLIST DATA
		// ------------------------------
		db := api.Group("/db")
		{
			db.GET("/health", healthHandler.DB)

			db.GET("/clients", clientHandler.List)
			db.POST("/clients", clientHandler.Create)
			db.GET("/clients/:id", clientHandler.Get)
			db.PATCH("/clients/:id", clientHandler.Patch)
			db.PUT("/clients/:id", clientHandler.Patch)
			db.DELETE("/clients/:id", clientHandler.Delete)
			db.POST("/clients/:id/invite", clientHandler.Invite)

			db.GET("/appointments", appointmentHandler.List)
			db.POST("/appointments", appointmentHandler.Create)
			db.GET("/appointments/month", appointmentHandler.Month)
			db.GET("/appointments/day", appointmentHandler.Day)
			db.GET("/appointments/:id", appointmentHandler.Get)
			db.PATCH("/appointments/:id", appointmentHandler.Patch)
			db.PUT("/appointments/:id", appointmentHandler.Patch)
			db.DELETE("/appointments/:id", appointmentHandler.Delete)
			db.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
			db.PATCH("/appointments/:id/complete", appointmentHandler.Complete)
			db.PATCH("/appointments/:id/reschedule", appointmentHandler.Reschedule)

			db.GET("/formulas", formulaHandler.List)
			db.POST("/formulas", formulaHandler.Create)
			db.GET("/formulas/:id", formulaHandler.Get)
			db.PATCH("/formulas/:id", formulaHandler.Patch)
			db.PUT("/formulas/:id", formulaHandler.Patch)
			db.DELETE("/formulas/:id", formulaHandler.Delete)

			db.GET("/tasks", taskHandler.List)
			db.POST("/tasks", taskHandler.Create)
			db.GET("/tasks/:id", taskHandler.Get)
			db.PATCH("/tasks/:id", taskHandler.Patch)
			db.PUT("/tasks/:id", taskHandler.Patch)
			db.DELETE("/tasks/:id", taskHandler.Delete)

			db.GET("/backup", backupHandler.Export)
			db.POST("/backup/import", backupHandler.Import)

			if app.DB != nil {
				db.GET("/audit-logs", handlers.NewAuditLogsHandler(app.DB).List)
			}
		}

		// ------------------------------
		// CLIENT PORTAL
		// ------------------------------
		client := api.Group("/client")
		client.Use(middleware.PortalSession(sessions))
		{
			client.GET("/packet", portalHandler.Packet)
			client.POST("/claim-invite", portalHandler.ClaimInvite)
		}
	}
}
