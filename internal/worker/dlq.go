package worker

// Jobs that exhaust their retries are parked on a per-queue dead letter
// list (dead:{queue}) so an operator can inspect and requeue them by hand.
// The monitor cron reports backlog depth so parked jobs do not rot unseen.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const deadLetterPrefix = "dead:"

type deadLetterEntry struct {
	Queue    string          `json:"queue"`
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
	Error    string          `json:"error"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
}

// deadLetter parks a job that ran out of attempts. It never returns an
// error: when the park itself fails the job is logged and dropped.
func deadLetter(ctx context.Context, rdb *redis.Client, queue, kind string, payload json.RawMessage, cause string, attempts int) {
	entry := deadLetterEntry{
		Queue:    queue,
		Kind:     kind,
		Payload:  payload,
		Error:    cause,
		Attempts: attempts,
		FailedAt: time.Now().UTC(),
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dead letter: marshal failed")
		return
	}
	if err := rdb.LPush(ctx, deadLetterPrefix+queue, encoded).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dead letter: push failed")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("kind", kind).
		Str("cause", cause).
		Int("attempts", attempts).
		Msg("job parked on dead letter list")
}

// DeadLetterDepth reports how many jobs sit parked for the given queue.
func (d *Dispatcher) DeadLetterDepth(ctx context.Context, queue string) (int64, error) {
	return d.rdb.LLen(ctx, deadLetterPrefix+queue).Result()
}
