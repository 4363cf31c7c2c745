package alerting

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EmailOptions parameterise SMTP delivery.
type EmailOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// EmailNotifier delivers messages over SMTP with STARTTLS and plain auth,
// the classic app-password setup (smtp.gmail.com:587 and friends).
type EmailNotifier struct {
	opts   EmailOptions
	logger zerolog.Logger
	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier constructs an SMTP notifier.
func NewEmailNotifier(opts EmailOptions, logger zerolog.Logger) *EmailNotifier {
	if opts.Port <= 0 {
		opts.Port = 587
	}
	return &EmailNotifier{
		opts:   opts,
		logger: logger.With().Str("component", "alert_email").Logger(),
		send:   smtp.SendMail,
	}
}

// Notify sends the message as a plain-text email.
func (n *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	if n.opts.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	if n.opts.From == "" || len(n.opts.To) == 0 {
		return fmt.Errorf("smtp sender and recipients required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.opts.Username != "" {
		auth = smtp.PlainAuth("", n.opts.Username, n.opts.Password, n.opts.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.opts.Host, n.opts.Port)
	if err := n.send(addr, auth, n.opts.From, n.opts.To, buildEmail(n.opts.From, n.opts.To, msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info().Str("subject", msg.Subject).Int("recipients", len(n.opts.To)).Msg("alert sent (email)")
	return nil
}

// buildEmail assembles a minimal RFC 5322 plain-text message.
func buildEmail(from string, to []string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

var _ Notifier = (*EmailNotifier)(nil)
