// Package mail sends verification-code emails over SMTP.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"pixvault/internal/common"
	"pixvault/internal/server/config"
)

// Sender delivers a verification code to an address. Call sites do not
// retry: a transport failure propagates to the caller of the workflow.
type Sender interface {
	SendVerificationEmail(ctx context.Context, to, code string) error
}

// SMTPSender sends mail through a plain-auth STARTTLS SMTP relay.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
}

func (s *SMTPSender) SendVerificationEmail(ctx context.Context, to, code string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorMailTransport, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorMailTransport, err)
	}
	msg.Subject("Verify your account")
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf("Your verification code is: %s", code))

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.user),
		gomail.WithPassword(s.password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorMailTransport, err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorMailTransport, err)
	}

	return nil
}
