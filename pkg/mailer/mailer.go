package mailer

import (
	"context"
	"fmt"

	"account-service/pkg/utils"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer hands a message to a transport. Send returns once the transport has
// accepted it, not when it is delivered.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer, or a log-only mailer when no SMTP host is configured.
func New(config utils.EmailConfig, log *zap.Logger) Mailer {
	log = log.With(zap.String("component", "mailer"))
	if config.Host == "" {
		log.Warn("SMTP_HOST not set, outgoing mail will only be logged")
		return NewLogMailer(log)
	}
	return NewSMTPMailer(config, log)
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	log    *zap.Logger
}

func NewSMTPMailer(config utils.EmailConfig, log *zap.Logger) *SMTPMailer {
	from := config.From
	if from == "" {
		from = config.User
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(config.Host, config.Port, config.User, config.Password),
		from:   from,
		log:    log,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	// gomail has no context support; the dial honours the dialer's own timeout
	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(gm) }()

	select {
	case err := <-done:
		if err != nil {
			m.log.Error("Failed to send mail", zap.Error(err), zap.String("to", msg.To))
			return fmt.Errorf("send mail to %s: %w", msg.To, err)
		}
	case <-ctx.Done():
		return fmt.Errorf("send mail to %s: %w", msg.To, ctx.Err())
	}

	m.log.Info("Mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// LogMailer writes messages to the log instead of delivering them. Bodies can
// carry secrets so they only appear at debug level.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.log.Info("Mail (not delivered)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	m.log.Debug("Mail body", zap.String("to", msg.To), zap.String("body", msg.Body))
	return nil
}
