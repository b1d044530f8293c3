package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"
	"os"
	"strings"
)

// MailerConfig holds SMTP delivery settings.
type MailerConfig struct {
	Host       string
	Port       string
	User       string
	Pass       string
	WebsiteURL string
}

// MailerConfigFromEnv reads SMTP settings from env vars.
func MailerConfigFromEnv() MailerConfig {
	return MailerConfig{
		Host:       os.Getenv("SMTP_HOST"),
		Port:       os.Getenv("SMTP_PORT"),
		User:       os.Getenv("SMTP_USER"),
		Pass:       os.Getenv("SMTP_PASS"),
		WebsiteURL: os.Getenv("WEBSITE_URL"),
	}
}

// Mailer delivers login codes over SMTP.
type Mailer struct {
	cfg MailerConfig
}

func NewMailer(cfg MailerConfig) *Mailer { return &Mailer{cfg: cfg} }

// SendLoginCode mails the code along with an auto-login link. The send is
// a plain sequential step: callers must not hold store transactions open
// across it.
func (m *Mailer) SendLoginCode(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	loginURL := fmt.Sprintf("%s/login.html?email=%s&code=%s",
		m.cfg.WebsiteURL, url.QueryEscape(email), url.QueryEscape(code))

	var b strings.Builder
	fmt.Fprintf(&b, "From: Phoenix Club <%s>\r\n", m.cfg.User)
	fmt.Fprintf(&b, "To: %s\r\n", email)
	b.WriteString("Subject: Your Phoenix Club Login Code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, `<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: #ec3750;">Your Login Code</h2>
<p>Use this code to complete your login:</p>
<div style="font-size: 24px; font-weight: bold; margin: 20px 0;">%s</div>
<p>Or click below to login automatically:</p>
<a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #ec3750; color: white; text-decoration: none; border-radius: 4px;">Auto-Login</a>
<p style="margin-top: 30px; color: #666;">This code will expire in 15 minutes. If you didn't request this, please ignore this email.</p>
</div>`, code, loginURL)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.User, []string{email}, []byte(b.String())); err != nil {
		return fmt.Errorf("send login code mail: %w", err)
	}
	return nil
}
