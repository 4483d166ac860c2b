package worker

// monitor_cron.go
// Background goroutine that sweeps for work the request path could not
// finish: unsynced sales are re-enqueued for the legacy POS bridge, and
// locks held past the stale threshold raise an alert. Uses the circuit
// breaker state to avoid queueing sync work while the bridge is down.

import (
	"context"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/infra"
	"github.com/sebastiangaticacl/stvaldivia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	monitorTickInterval = 60 * time.Second
	resyncBatchSize     = 25
)

// MonitorCronConfig holds all dependencies for the monitor goroutine.
type MonitorCronConfig struct {
	SaleRepo    repository.SaleRepository
	SessionRepo repository.SessionRepository
	Dispatcher  *Dispatcher
	CB          *infra.CircuitBreaker
	// StaleLockAfter is how long past expiry a lock must sit before an alert.
	StaleLockAfter time.Duration
}

// StartMonitorCron launches the background sweep. It respects the context
// for graceful shutdown.
func StartMonitorCron(ctx context.Context, cfg MonitorCronConfig) {
	go func() {
		ticker := time.NewTicker(monitorTickInterval)
		defer ticker.Stop()

		log.Info().Msg("monitor_cron: started")

		// Tracks which stale locks were already reported so one abandoned
		// register does not alert every minute.
		alerted := make(map[uuid.UUID]time.Time)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("monitor_cron: shutting down")
				return
			case <-ticker.C:
				resyncSales(ctx, cfg)
				sweepStaleLocks(ctx, cfg, alerted)
				reportDeadLetters(ctx, cfg)
			}
		}
	}()
}

func resyncSales(ctx context.Context, cfg MonitorCronConfig) {
	// With the breaker open there is no point queueing work for a downed bridge.
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("monitor_cron: circuit breaker is open, skipping resync tick")
		return
	}

	sales, err := cfg.SaleRepo.ListUnsynced(ctx, resyncBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("monitor_cron: failed to list unsynced sales")
		return
	}
	if len(sales) == 0 {
		return
	}

	log.Info().Int("count", len(sales)).Msg("monitor_cron: re-enqueueing unsynced sales")
	for i := range sales {
		if err := cfg.Dispatcher.EnqueueSaleSync(ctx, sales[i].ID); err != nil {
			log.Error().Err(err).Str("sale_id", sales[i].ID.String()).Msg("monitor_cron: enqueue failed")
			return
		}
	}
}

func sweepStaleLocks(ctx context.Context, cfg MonitorCronConfig, alerted map[uuid.UUID]time.Time) {
	locks, err := cfg.SessionRepo.ListLocks(ctx)
	if err != nil {
		log.Error().Err(err).Msg("monitor_cron: failed to list locks")
		return
	}

	now := time.Now().UTC()
	for i := range locks {
		l := &locks[i]
		staleSince := l.ExpiresAt.Add(cfg.StaleLockAfter)
		if now.Before(staleSince) {
			delete(alerted, l.RegisterID)
			continue
		}
		if last, ok := alerted[l.RegisterID]; ok && now.Sub(last) < time.Hour {
			continue
		}
		alerted[l.RegisterID] = now

		_ = cfg.Dispatcher.EnqueueAlert(ctx, "STALE_LOCK",
			"register lock expired without release; terminal may be abandoned",
			map[string]string{
				"register_id": l.RegisterID.String(),
				"employee":    l.EmployeeName,
				"locked_at":   l.LockedAt.Format(time.RFC3339),
				"expired_at":  l.ExpiresAt.Format(time.RFC3339),
			})
	}
}

func reportDeadLetters(ctx context.Context, cfg MonitorCronConfig) {
	for _, queue := range []string{QueuePosSync, QueueAlerts, QueueEmail} {
		depth, err := cfg.Dispatcher.DeadLetterDepth(ctx, queue)
		if err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("monitor_cron: dead letter depth check failed")
			continue
		}
		if depth > 0 {
			log.Warn().Str("queue", queue).Int64("depth", depth).Msg("monitor_cron: dead letter backlog")
		}
	}
}
