package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

// HealthProber reports the backend's latest health.
type HealthProber interface {
	Probe(ctx context.Context) (models.Health, error)
}

type HealthProberFunc func(ctx context.Context) (models.Health, error)

func (f HealthProberFunc) Probe(ctx context.Context) (models.Health, error) {
	return f(ctx)
}

// HTTPHealthProbe reads GET {base}/api/db/health. The payload is not
// wrapped in a data envelope.
type HTTPHealthProbe struct {
	url    string
	client *http.Client
}

func NewHTTPHealthProbe(baseURL string, client *http.Client) *HTTPHealthProbe {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPHealthProbe{
		url:    strings.TrimRight(baseURL, "/") + APIPrefix + "/health",
		client: client,
	}
}

func (p *HTTPHealthProbe) Probe(ctx context.Context) (models.Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return models.Health{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return models.Health{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	var h models.Health
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&h); err != nil {
		return models.Health{}, fmt.Errorf("decode health: %w", err)
	}
	return h, nil
}
