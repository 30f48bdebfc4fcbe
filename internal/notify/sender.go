package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/takeatask-api/internal/config"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
)

// Message is one email to one recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns an SMTPSender when a host is configured, else a LogSender.
func NewSender(cfg config.NotifyConfig, logger *slog.Logger) Sender {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg)
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger.With(slog.String("component", "log_sender"))}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	logger.FromContextOrDefault(ctx, s.logger).Info("notification",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject))
	return nil
}

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	addr     string
	host     string
	from     string
	username string
	password string
	sendMail sendMailFunc
	now      func() time.Time
}

// NewSMTPSender creates an SMTPSender for cfg. PLAIN auth is used when a
// username is configured.
func NewSMTPSender(cfg config.NotifyConfig) *SMTPSender {
	return &SMTPSender{
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		host:     cfg.SMTPHost,
		from:     cfg.From,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		sendMail: smtp.SendMail,
		now:      time.Now,
	}
}

// Send implements Sender. smtp.SendMail has no context support, so ctx only
// short-circuits already-cancelled sends.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	if err := s.sendMail(s.addr, auth, s.from, []string{msg.To}, s.render(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	return nil
}

// render builds an RFC 5322 plain-text message.
func (s *SMTPSender) render(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + stripNewlines(msg.Subject) + "\r\n")
	b.WriteString("Date: " + s.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

func stripNewlines(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
