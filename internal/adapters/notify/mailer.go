// Package notify sends match notification emails. Delivery is best-effort:
// failures are logged and counted, never surfaced to matching or ingest.
package notify

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/pkg/metrics"
)

// Config carries SMTP settings for the mailer.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseSSL   bool
}

// MailerOption applies a configuration option to the Mailer.
type MailerOption func(*Mailer)

// WithSendFunc replaces the SMTP delivery function. Tests use this to
// capture messages without a mail server.
func WithSendFunc(send func(*gomail.Message) error) MailerOption {
	return func(m *Mailer) {
		if send != nil {
			m.send = send
		}
	}
}

// Mailer sends match notifications over SMTP.
type Mailer struct {
	from string
	send func(*gomail.Message) error
}

// NewMailer creates a Mailer from SMTP config.
func NewMailer(cfg Config, opts ...MailerOption) (*Mailer, error) {
	if cfg.From == "" {
		return nil, ErrMissingFrom
	}

	m := &Mailer{from: cfg.From}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.UseSSL
	m.send = func(msg *gomail.Message) error { return dialer.DialAndSend(msg) }

	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NotifyJobMatch emails a user about one freshly ingested posting that
// matched their profile.
func (m *Mailer) NotifyJobMatch(ctx context.Context, user *model.User, posting *model.Posting, score float64, missing []string) error {
	if user.Email == "" {
		return fmt.Errorf("user %s: %w", user.ID, ErrNoRecipient)
	}

	subject := fmt.Sprintf("New match: %s at %s (%.0f%%)", posting.Title, posting.Company, score)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", user.Email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", jobMatchText(user, posting, score, missing))
	msg.AddAlternative("text/html", jobMatchHTML(user, posting, score, missing))

	return m.deliver(ctx, msg)
}

// NotifyUserDigest emails a user their current top matches.
func (m *Mailer) NotifyUserDigest(ctx context.Context, user *model.User, results []model.MatchResult) error {
	if user.Email == "" {
		return fmt.Errorf("user %s: %w", user.ID, ErrNoRecipient)
	}
	if len(results) == 0 {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", user.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Your top %d matches today", len(results)))
	msg.SetBody("text/plain", digestText(user, results))
	msg.AddAlternative("text/html", digestHTML(user, results))

	return m.deliver(ctx, msg)
}

func (m *Mailer) deliver(_ context.Context, msg *gomail.Message) error {
	if err := m.send(msg); err != nil {
		metrics.RecordNotificationFailed()
		return fmt.Errorf("send mail: %w", err)
	}
	metrics.RecordNotificationSent()
	return nil
}

func jobMatchText(user *model.User, posting *model.Posting, score float64, missing []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", displayName(user))
	fmt.Fprintf(&sb, "A new posting matches your profile at %.0f%%:\n\n", score)
	fmt.Fprintf(&sb, "%s at %s\n", posting.Title, posting.Company)
	if posting.Location != "" {
		fmt.Fprintf(&sb, "Location: %s\n", posting.Location)
	}
	if len(missing) > 0 {
		fmt.Fprintf(&sb, "\nSkills worth brushing up: %s\n", strings.Join(missing, ", "))
	}
	if posting.URL != "" {
		fmt.Fprintf(&sb, "\nApply here: %s\n", posting.URL)
	}
	return sb.String()
}

func jobMatchHTML(user *model.User, posting *model.Posting, score float64, missing []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>Hi %s,</p>", displayName(user))
	fmt.Fprintf(&sb, "<p>A new posting matches your profile at <strong>%.0f%%</strong>:</p>", score)
	fmt.Fprintf(&sb, "<p><strong>%s</strong> at %s</p>", posting.Title, posting.Company)
	if len(missing) > 0 {
		fmt.Fprintf(&sb, "<p>Skills worth brushing up: %s</p>", strings.Join(missing, ", "))
	}
	if posting.URL != "" {
		fmt.Fprintf(&sb, `<p><a href="%s">Apply here</a></p>`, posting.URL)
	}
	return sb.String()
}

func digestText(user *model.User, results []model.MatchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\nYour top matches:\n\n", displayName(user))
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s at %s (%.0f%%)\n", i+1, r.Posting.Title, r.Posting.Company, r.MatchScore)
	}
	return sb.String()
}

func digestHTML(user *model.User, results []model.MatchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>Hi %s,</p><p>Your top matches:</p><ol>", displayName(user))
	for _, r := range results {
		fmt.Fprintf(&sb, "<li><strong>%s</strong> at %s (%.0f%%)</li>", r.Posting.Title, r.Posting.Company, r.MatchScore)
	}
	sb.WriteString("</ol>")
	return sb.String()
}

func displayName(user *model.User) string {
	if user.FullName != "" {
		return user.FullName
	}
	return "there"
}
