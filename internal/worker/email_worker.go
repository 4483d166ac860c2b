package worker

// email_worker.go
// Processes email jobs from QueueEmail. Sends supervisor notifications
// (and close reports, when attached) via SMTP.

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sebastiangaticacl/stvaldivia/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	To         []string `json:"to"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	AttachPath string   `json:"attach_path,omitempty"`
}

type EmailWorker struct {
	mailer *infra.Mailer
}

func NewEmailWorker(mailer *infra.Mailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if len(payload.To) == 0 {
		log.Warn().Msg("email_worker: empty recipient list, skipping")
		return
	}

	if err := w.mailer.Send(payload.To, payload.Subject, payload.Body, payload.AttachPath); err != nil {
		if errors.Is(err, infra.ErrMailerNotConfigured) {
			log.Debug().Strs("to", payload.To).Msg("email_worker: smtp not configured, dropping mail")
			return
		}
		log.Error().Err(err).Strs("to", payload.To).Msg("email_worker: failed to send email")
		return
	}
	log.Info().Strs("to", payload.To).Str("subject", payload.Subject).Msg("email_worker: mail sent")
}
