package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mercator-hq/quill/pkg/providerfactory"
	"mercator-hq/quill/pkg/storage"
)

// ProviderStatus reports provider health. *providerfactory.Manager
// implements it.
type ProviderStatus interface {
	GetHealthSummary() providerfactory.HealthSummary
}

// Health handles GET /health. It reports liveness only.
func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// ProvidersCheck passes when at least one provider is healthy.
func ProvidersCheck(providers ProviderStatus) func(context.Context) error {
	return func(ctx context.Context) error {
		summary := providers.GetHealthSummary()
		if summary.Healthy == 0 {
			return fmt.Errorf("no healthy providers (%d of %d)", summary.Healthy, summary.Total)
		}
		return nil
	}
}

// StorageCheck passes when the store answers a count query.
func StorageCheck(store storage.Store) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := store.Count(ctx, nil)
		return err
	}
}
