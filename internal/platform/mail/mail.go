// Package mail delivers plain-text messages to members.
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig describes the outgoing mail relay.
type SMTPConfig struct {
	Addr     string // host:port
	Username string
	Password string
	From     string
}

// defaultSendTimeout bounds a delivery when the caller's context has no deadline.
const defaultSendTimeout = 30 * time.Second

// SMTPNotifier sends messages through an SMTP relay.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: sendMail}
}

// Notify sends one message to a single recipient.
func (n *SMTPNotifier) Notify(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return errors.New("mail: header values must not contain line breaks")
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		host, _, err := net.SplitHostPort(n.cfg.Addr)
		if err != nil {
			return fmt.Errorf("mail: invalid smtp address %q: %w", n.cfg.Addr, err)
		}
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, host)
	}

	if err := n.send(ctx, n.cfg.Addr, auth, n.cfg.From, []string{to}, buildMessage(n.cfg.From, to, subject, body, time.Now())); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

// sendMail is smtp.SendMail bound to ctx: the connection is dialled with ctx,
// carries its deadline, and is closed when ctx is cancelled.
func sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultSendTimeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(a); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(from, to, subject, body string, now time.Time) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(sb.String())
}

// LogNotifier only logs messages. Used when no relay is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, to, subject, body string) error {
	n.logger.InfoContext(ctx, "mail not sent, no smtp relay configured", "to", to, "subject", subject, "body_bytes", len(body))
	return nil
}

// Notifier is satisfied by SMTPNotifier and LogNotifier.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

// New returns an SMTP notifier when a relay address is configured and a
// LogNotifier otherwise.
func New(cfg SMTPConfig, logger *slog.Logger) Notifier {
	if cfg.Addr == "" {
		return NewLogNotifier(logger)
	}
	return NewSMTPNotifier(cfg)
}
