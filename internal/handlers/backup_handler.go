package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
)

type BackupHandler struct {
	base
	metrics *metrics.Metrics
}

func NewBackupHandler(d Deps, m *metrics.Metrics) *BackupHandler {
	return &BackupHandler{base: newBase(d), metrics: m}
}

func (h *BackupHandler) Export(c *gin.Context) {
	b, err := h.repo.ExportBackup(c.Request.Context())
	if err != nil {
		h.fail(c, "export backup", err)
		return
	}
	httpresp.OK(c, b)
}

// Import accepts the raw backup document; ?merge=true unions it with the
// stored data instead of replacing it.
func (h *BackupHandler) Import(c *gin.Context) {
	merge, _ := strconv.ParseBool(c.DefaultQuery("merge", "false"))

	_, raw, ok := readObject(c)
	if !ok {
		h.count("invalid")
		httperr.BadRequest(c, httperr.CodeInvalidBackup, repo.ErrInvalidBackup.Error())
		return
	}

	err := h.repo.ImportBackup(c.Request.Context(), raw, repo.ImportOptions{Merge: merge})
	if err != nil {
		if errors.Is(err, repo.ErrInvalidBackup) {
			h.count("invalid")
		} else {
			h.count("failed")
		}
		h.fail(c, "import backup", err)
		return
	}

	h.count("ok")
	h.audit.Dispatch(audit.Event{
		Action:   "backup_imported",
		Entity:   "backup",
		Metadata: map[string]bool{"merge": merge},
	})

	httpresp.Empty(c)
}

func (h *BackupHandler) count(result string) {
	if h.metrics != nil {
		h.metrics.BackupsImported.WithLabelValues(result).Inc()
	}
}
