package providers

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultHealthCheckInterval = 30 * time.Second
	healthCheckTimeout         = 5 * time.Second
	maxHealthBackoff           = 5 * time.Minute
)

// StartHealthChecker runs the registered health probe periodically until
// ctx is cancelled or the provider is closed. Unhealthy providers are
// probed with exponential backoff.
func (p *HTTPProvider) StartHealthChecker(ctx context.Context) {
	if p.probe == nil {
		return
	}
	p.checkerStarted = true
	go p.runHealthChecker(ctx)
}

func (p *HTTPProvider) runHealthChecker(ctx context.Context) {
	defer close(p.healthCheckStopped)

	interval := p.config.HealthCheckInterval
	if interval == 0 {
		interval = defaultHealthCheckInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Debug("health checker started", "provider", p.config.Name, "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopHealthCheck:
			return
		case <-ticker.C:
			p.performHealthCheck(ctx)

			if health := p.GetHealth(); !health.IsHealthy {
				ticker.Reset(calculateBackoff(health.ConsecutiveFailures, interval))
			} else {
				ticker.Reset(interval)
			}
		}
	}
}

func (p *HTTPProvider) performHealthCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	wasHealthy := p.IsHealthy()
	start := time.Now()
	err := p.probe(checkCtx)
	latency := time.Since(start)

	if err != nil {
		p.updateHealth(false, err)
		slog.Error("health check failed",
			"provider", p.config.Name,
			"error", err,
			"latency", latency,
		)
		return
	}

	p.updateHealth(true, nil)
	if !wasHealthy {
		slog.Info("provider marked healthy", "provider", p.config.Name)
	}
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// ten times the base interval and at five minutes.
func calculateBackoff(consecutiveFailures int, baseInterval time.Duration) time.Duration {
	if consecutiveFailures <= 0 {
		return baseInterval
	}

	multiplier := 10
	if consecutiveFailures < 4 {
		multiplier = 1 << uint(consecutiveFailures)
	}

	backoff := baseInterval * time.Duration(multiplier)
	if backoff > maxHealthBackoff {
		backoff = maxHealthBackoff
	}
	return backoff
}
