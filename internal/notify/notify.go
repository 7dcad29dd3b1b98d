// Package notify sends operational email (session anomaly digests,
// recovery mail). Sends are fire-and-forget: the punch and maintenance
// flows never block on, or fail because of, a notification.
package notify

import (
	"log/slog"
	"time"
)

const (
	_maxAttempts  = 3
	_attemptDelay = 2 * time.Second
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// EmailService is any backend that can deliver a message once.
type EmailService interface {
	Send(msg Message) error
}

// Sender wraps an EmailService with async dispatch and a bounded
// retry: a fixed number of attempts with a fixed delay, then give up
// and log. Never an unbounded retry loop.
type Sender struct {
	Logger  *slog.Logger
	Service EmailService
}

func NewSender(logger *slog.Logger, service EmailService) *Sender {
	return &Sender{
		Logger:  logger.With("module", "notify"),
		Service: service,
	}
}

func (s *Sender) Send(messages ...Message) {
	for _, msg := range messages {
		msg := msg
		go s.deliver(msg)
	}
}

func (s *Sender) deliver(msg Message) {
	var err error
	for attempt := 1; attempt <= _maxAttempts; attempt++ {
		if err = s.Service.Send(msg); err == nil {
			return
		}
		time.Sleep(_attemptDelay)
	}

	s.Logger.Warn("dropping undeliverable email",
		"to", msg.To, "subject", msg.Subject, "attempts", _maxAttempts, "error", err)
}

// ConsoleService writes mail to the log; the default outside
// production.
type ConsoleService struct {
	Logger *slog.Logger
}

func (c ConsoleService) Send(msg Message) error {
	c.Logger.Info("email", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
