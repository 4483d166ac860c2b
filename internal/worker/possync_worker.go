package worker

// possync_worker.go
// Replicates ledger sales into the legacy PHP POS via its HTTP bridge.
// The ledger is the source of truth; this sync is best-effort with
// exponential backoff and a circuit breaker around the bridge.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/infra"
	"github.com/sebastiangaticacl/stvaldivia/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const maxSyncAttempts = 3

// PosSyncJobPayload is the job envelope sent to QueuePosSync.
type PosSyncJobPayload struct {
	SaleID string `json:"sale_id"`
}

type PosSyncWorker struct {
	client   *infra.PhpPosClient
	cb       *infra.CircuitBreaker
	saleRepo repository.SaleRepository
	rdb      *redis.Client
}

func NewPosSyncWorker(client *infra.PhpPosClient, cb *infra.CircuitBreaker, saleRepo repository.SaleRepository, rdb *redis.Client) *PosSyncWorker {
	return &PosSyncWorker{client: client, cb: cb, saleRepo: saleRepo, rdb: rdb}
}

// Process pushes one sale to the bridge:
//  1. Fetch the sale; skip if already synced or cancelled.
//  2. Call the bridge through the circuit breaker with backoff.
//  3. Mark the sale synced on success; DLQ after max attempts.
func (w *PosSyncWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload PosSyncJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("possync_worker: invalid payload")
		return
	}
	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("possync_worker: invalid sale_id")
		return
	}

	sale, err := w.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("possync_worker: sale not found")
		return
	}
	if sale.SyncedToPhpPos || sale.IsTest {
		return
	}
	if sale.IsCancelled {
		// Cancelled before sync ran: nothing to replicate.
		log.Debug().Str("sale_id", payload.SaleID).Msg("possync_worker: sale cancelled, skipping")
		return
	}

	syncErr := withRetry(ctx, maxSyncAttempts, func(attempt int) error {
		return w.cb.Execute(func() error {
			if err := w.client.PushSale(ctx, sale); err != nil {
				log.Warn().
					Err(err).
					Int("attempt", attempt+1).
					Str("sale_id", payload.SaleID).
					Msg("possync_worker: push attempt failed")
				return err
			}
			return nil
		})
	})
	if syncErr != nil {
		log.Error().Err(syncErr).Str("sale_id", payload.SaleID).Msg("possync_worker: sync failed after retries")
		// The monitor cron re-enqueues unsynced sales, so the DLQ entry is
		// for visibility, not the only recovery path.
		deadLetter(ctx, w.rdb, QueuePosSync, "possync", raw, syncErr.Error(), maxSyncAttempts)
		return
	}

	if err := w.saleRepo.MarkSynced(ctx, saleID); err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("possync_worker: failed to mark synced")
		return
	}
	log.Info().Str("sale_id", payload.SaleID).Msg("possync_worker: sale replicated to legacy POS")
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
