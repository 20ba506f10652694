// Package notify sends customer-facing booking emails. Send failures are
// logged and never propagated: a booking that was written stays written even
// when the mail provider is down.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clinic-service/api"
	"clinic-service/pkg/sl"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender is the transport. Implementations can be swapped (SendGrid,
// SMTP, stub) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewSendGridSender returns nil when no API key is configured; callers fall
// back to the stub sender.
func NewSendGridSender(cfg SendGridConfig) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}

	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	const op = "notify.SendGridSender.Send"

	if s.client == nil {
		return fmt.Errorf("%s: client not configured", op)
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: provider returned status %d", op, resp.StatusCode)
	}

	return nil
}

// StubSender logs instead of sending, for local runs and tests.
type StubSender struct {
	log *slog.Logger
}

func NewStubSender(log *slog.Logger) *StubSender {
	return &StubSender{log: log}
}

func (s *StubSender) Send(_ context.Context, msg EmailMessage) error {
	s.log.Info("Stub email sender: would send",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)

	return nil
}

// Notifier builds booking emails and swallows transport errors.
type Notifier struct {
	sender EmailSender
	log    *slog.Logger
	loc    *time.Location
}

func NewNotifier(sender EmailSender, log *slog.Logger, loc *time.Location) *Notifier {
	return &Notifier{sender: sender, log: log, loc: loc}
}

// BookingConfirmed emails the customer after a successful booking write.
func (n *Notifier) BookingConfirmed(ctx context.Context, b *api.BookingResponse) {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment is confirmed for %s.\n\nBooking reference: %s\n",
		b.Name,
		b.StartTime.In(n.loc).Format("Monday, January 2 at 3:04 PM"),
		b.ID,
	)

	n.send(ctx, b, "Your appointment is confirmed", body)
}

// BookingCancelled emails the customer after a cancellation.
func (n *Notifier) BookingCancelled(ctx context.Context, b *api.BookingResponse) {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment on %s has been cancelled.\n\nBooking reference: %s\n",
		b.Name,
		b.StartTime.In(n.loc).Format("Monday, January 2 at 3:04 PM"),
		b.ID,
	)

	n.send(ctx, b, "Your appointment has been cancelled", body)
}

func (n *Notifier) send(ctx context.Context, b *api.BookingResponse, subject, body string) {
	if b.Email == "" {
		return
	}

	err := n.sender.Send(ctx, EmailMessage{
		To:      b.Email,
		ToName:  b.Name,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		n.log.Error("Failed to send booking email",
			sl.Err(err),
			slog.String("booking_id", b.ID),
		)
	}
}
