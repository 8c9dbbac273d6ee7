package handlers

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
)

const maxBodySize = 16 << 20

// Deps are shared by every handler.
type Deps struct {
	Repo     repo.Repository
	Norm     *normalize.Normalizer
	Audit    *audit.Dispatcher
	Observer *repo.Observer
	Log      *slog.Logger

	// CheckEmailDomain makes client writes resolve the email's domain.
	CheckEmailDomain bool
}

type base struct {
	repo     repo.Repository
	norm     *normalize.Normalizer
	audit    *audit.Dispatcher
	observer *repo.Observer
	log      *slog.Logger
}

func newBase(d Deps) base {
	b := base{
		repo:     d.Repo,
		norm:     d.Norm,
		audit:    d.Audit,
		observer: d.Observer,
		log:      d.Log,
	}
	if b.norm == nil {
		b.norm = normalize.New()
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	if b.observer == nil {
		b.observer = repo.NewObserver(b.log)
	}
	return b
}

// readObject reads the request body as a JSON object. An empty body is an
// empty object.
func readObject(c *gin.Context) (map[string]json.RawMessage, []byte, bool) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
	if err != nil {
		return nil, nil, false
	}
	if len(raw) == 0 {
		return map[string]json.RawMessage{}, raw, true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, raw, false
	}
	return obj, raw, true
}
