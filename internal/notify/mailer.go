// Package notify delivers review requests for freshly generated posts. The
// reviewer gets an email with direct approve/reject links keyed by post id.
package notify

import (
	"context"
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/muriloWeber/linkedin-content-agent/internal/storage"
)

// Sink is the outbound notification capability used by the approval workflow.
type Sink interface {
	NotifyPendingPost(ctx context.Context, post storage.Post) error
}

// Config holds SMTP connection settings for the reviewer mailer.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// Reviewer is the destination mailbox for approval requests.
	Reviewer string
	// BaseURL is the public address of this service, used to build the
	// approve/reject links.
	BaseURL string
}

// Mailer sends review requests over SMTP.
type Mailer struct {
	cfg  Config
	auth smtp.Auth
	// send is swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a Mailer. PlainAuth is only used when credentials are set.
func NewMailer(cfg Config) *Mailer {
	var auth smtp.Auth
	if cfg.User != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &Mailer{cfg: cfg, auth: auth, send: smtp.SendMail}
}

// NotifyPendingPost emails the reviewer about a pending post with direct
// action links. The caller decides how to surface a failure; this method just
// reports it.
func (m *Mailer) NotifyPendingPost(ctx context.Context, post storage.Post) error {
	subject := fmt.Sprintf("Post pending approval: %s", post.Title)
	body := m.renderBody(post)

	msg := []string{
		fmt.Sprintf("From: %s", sanitizeHeader(m.cfg.From)),
		fmt.Sprintf("To: %s", sanitizeHeader(m.cfg.Reviewer)),
		fmt.Sprintf("Subject: %s", sanitizeHeader(subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		body,
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, m.auth, m.cfg.From, []string{m.cfg.Reviewer}, []byte(strings.Join(msg, "\r\n"))); err != nil {
		return fmt.Errorf("sending review mail: %w", err)
	}
	return nil
}

func (m *Mailer) renderBody(post storage.Post) string {
	base := strings.TrimRight(m.cfg.BaseURL, "/")
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(post.Title))
	fmt.Fprintf(&b, "<p>%s</p>", strings.ReplaceAll(html.EscapeString(post.Content), "\n", "<br>"))
	fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(strings.Join(post.Hashtags, " ")))
	fmt.Fprintf(&b, `<p><a href="%s/approve_post/%s">Approve</a> | <a href="%s/reject_post/%s">Reject</a></p>`,
		base, post.ID, base, post.ID)
	return b.String()
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
