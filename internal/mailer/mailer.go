// Package mailer delivers account notifications over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"

	"user-management-api/internal/i18n"
	"user-management-api/internal/model"
)

type Sender interface {
	SendWelcome(ctx context.Context, user model.User) error
}

type Options struct {
	Host          string
	Port          int
	Username      string
	Password      string
	FromName      string
	Encryption    string
	RatePerSecond float64
}

// New returns a NoopSender when no SMTP host is configured.
func New(opts Options) (Sender, error) {
	if strings.TrimSpace(opts.Host) == "" {
		slog.Info("mail host not configured; outgoing email disabled")
		return NoopSender{}, nil
	}
	return NewSMTPSender(opts)
}

// SMTPSender sends one message per connection and paces sends with a token bucket.
type SMTPSender struct {
	client   *mail.Client
	from     string
	fromName string
	limiter  *rate.Limiter
}

func NewSMTPSender(opts Options) (*SMTPSender, error) {
	clientOpts := []mail.Option{
		mail.WithPort(opts.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(opts.Username),
			mail.WithPassword(opts.Password),
		)
	}
	if opts.Encryption == "ssl" {
		clientOpts = append(clientOpts, mail.WithSSL())
	}

	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}

	perSecond := opts.RatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}

	return &SMTPSender{
		client:   client,
		from:     opts.Username,
		fromName: opts.FromName,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
	}, nil
}

func (s *SMTPSender) SendWelcome(ctx context.Context, user model.User) error {
	msg, err := welcomeMessage(s.from, s.fromName, user)
	if err != nil {
		return err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for mail slot: %w", err)
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}
	return nil
}

func welcomeMessage(from string, fromName string, user model.User) (*mail.Msg, error) {
	msg := mail.NewMsg()

	var err error
	if fromName != "" {
		err = msg.FromFormat(fromName, from)
	} else {
		err = msg.From(from)
	}
	if err != nil {
		return nil, fmt.Errorf("set from address: %w", err)
	}

	if err := msg.To(user.Email); err != nil {
		return nil, fmt.Errorf("set to address: %w", err)
	}

	msg.Subject(i18n.T("welcome_subject"))
	msg.SetBodyString(mail.TypeTextPlain, i18n.Tf("welcome_body", user.FullName))
	return msg, nil
}

type NoopSender struct{}

func (NoopSender) SendWelcome(context.Context, model.User) error {
	return nil
}
