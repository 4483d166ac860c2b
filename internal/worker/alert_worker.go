package worker

// alert_worker.go
// Consumes operational anomalies (close differences over threshold, negative
// stock, stale locks, post-close cancellations). Every alert is logged; when
// alert mail is configured, a notification is queued for supervisors.

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// AlertJobPayload is the job envelope sent to QueueAlerts.
type AlertJobPayload struct {
	AlertType string            `json:"alert_type"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}

type AlertWorker struct {
	dispatcher *Dispatcher
	mailTo     []string
}

func NewAlertWorker(dispatcher *Dispatcher, mailTo []string) *AlertWorker {
	return &AlertWorker{dispatcher: dispatcher, mailTo: mailTo}
}

func (w *AlertWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload AlertJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return
	}

	evt := log.Warn().Str("alert_type", payload.AlertType)
	for k, v := range payload.Fields {
		evt = evt.Str(k, v)
	}
	evt.Msg(payload.Message)

	if len(w.mailTo) == 0 {
		return
	}
	body := payload.Message + "\n\n" + formatFields(payload.Fields)
	subject := fmt.Sprintf("[stvaldivia] %s", payload.AlertType)
	if err := w.dispatcher.EnqueueEmail(ctx, w.mailTo, subject, body); err != nil {
		log.Error().Err(err).Msg("alert_worker: failed to enqueue notification mail")
	}
}

func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, fields[k])
	}
	return b.String()
}
