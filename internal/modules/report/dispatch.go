package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	mail "github.com/go-mail/mail"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
)

// DispatchResult is the per-channel delivery outcome.
type DispatchResult struct {
	SlackStatus string `json:"slack_status"`
	EmailStatus string `json:"email_status"`
}

// Dispatcher delivers rendered reports. Channels with missing
// configuration report StatusSkipped rather than failing.
type Dispatcher struct {
	cfg    *config.Config
	client *http.Client
	log    zerolog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg *config.Config, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log.With().Str("component", "dispatcher").Logger(),
	}
}

// Send delivers the markdown to every configured channel. A failure on one
// channel does not stop the other.
func (d *Dispatcher) Send(ctx context.Context, markdown string) DispatchResult {
	result := DispatchResult{
		SlackStatus: StatusSkipped,
		EmailStatus: StatusSkipped,
	}

	if d.cfg.SlackWebhook != "" {
		if err := d.sendSlack(ctx, markdown); err != nil {
			d.log.Error().Err(err).Msg("Slack dispatch failed")
			result.SlackStatus = StatusFailed
		} else {
			result.SlackStatus = StatusSent
		}
	}

	if d.cfg.SMTPConfigured() {
		if err := d.sendEmail(markdown); err != nil {
			d.log.Error().Err(err).Msg("Email dispatch failed")
			result.EmailStatus = StatusFailed
		} else {
			result.EmailStatus = StatusSent
		}
	}

	return result
}

func (d *Dispatcher) sendSlack(ctx context.Context, markdown string) error {
	payload, err := json.Marshal(map[string]string{"text": markdown})
	if err != nil {
		return fmt.Errorf("marshaling Slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.SlackWebhook, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building Slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (d *Dispatcher) sendEmail(markdown string) error {
	m := mail.NewMessage()
	m.SetHeader("From", d.cfg.SMTPUser)
	m.SetHeader("To", d.cfg.EmailTo)
	m.SetHeader("Subject", fmt.Sprintf("Daily Briefing — %s", time.Now().UTC().Format("2006-01-02")))
	m.SetBody("text/plain", markdown)

	dialer := mail.NewDialer(d.cfg.SMTPHost, d.cfg.SMTPPort, d.cfg.SMTPUser, d.cfg.SMTPPass)
	dialer.StartTLSPolicy = mail.MandatoryStartTLS

	if err := dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
