package service

import (
	"context"

	"github.com/google/uuid"
)

// Dispatcher pushes background work onto the job queues. Services treat a nil
// dispatcher as a no-op so unit tests do not need Redis.
type Dispatcher interface {
	// EnqueueAlert queues an operational anomaly for the alerts worker.
	// Anomalies are soft: they are logged and notified, never returned to the
	// caller as errors.
	EnqueueAlert(ctx context.Context, alertType, message string, fields map[string]string) error
	// EnqueueSaleSync queues a sale for replication into the legacy POS.
	EnqueueSaleSync(ctx context.Context, saleID uuid.UUID) error
	// EnqueueEmail queues an outbound mail.
	EnqueueEmail(ctx context.Context, to []string, subject, body string) error
}
