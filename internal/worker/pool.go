package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueuePosSync = "jobs:possync"
	QueueAlerts  = "jobs:alerts"
	QueueEmail   = "jobs:email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueSaleSync pushes a legacy POS replication job.
func (d *Dispatcher) EnqueueSaleSync(ctx context.Context, saleID uuid.UUID) error {
	return d.enqueue(ctx, QueuePosSync, "possync", PosSyncJobPayload{SaleID: saleID.String()})
}

// EnqueueAlert pushes an operational anomaly for the alert worker.
func (d *Dispatcher) EnqueueAlert(ctx context.Context, alertType, message string, fields map[string]string) error {
	return d.enqueue(ctx, QueueAlerts, "alert", AlertJobPayload{
		AlertType: alertType,
		Message:   message,
		Fields:    fields,
	})
}

// EnqueueEmail pushes an email job.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, to []string, subject, body string) error {
	return d.enqueue(ctx, QueueEmail, "email", EmailJobPayload{To: to, Subject: subject, Body: body})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed set of goroutines.
type Pool struct {
	rdb     *redis.Client
	possync *PosSyncWorker
	alerts  *AlertWorker
	email   *EmailWorker
}

func NewPool(rdb *redis.Client, possync *PosSyncWorker, alerts *AlertWorker, email *EmailWorker) *Pool {
	return &Pool{rdb: rdb, possync: possync, alerts: alerts, email: email}
}

// Start launches numWorkers goroutines consuming all queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	queues := []string{QueuePosSync, QueueAlerts, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	switch queue {
	case QueuePosSync:
		p.possync.Process(ctx, job.Payload)
	case QueueAlerts:
		p.alerts.Process(ctx, job.Payload)
	case QueueEmail:
		p.email.Process(ctx, job.Payload)
	default:
		log.Warn().Str("queue", queue).Str("type", job.Type).Msg("job on unknown queue")
	}
}
