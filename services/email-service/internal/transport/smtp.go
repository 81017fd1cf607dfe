package transport

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/fkheinstein204/saasforge/pkg/logger"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/domain"
)

// SMTPConfig configures the outbound SMTP connection.
type SMTPConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	FromAddress        string
	FromName           string
	UseTLS             bool
	UseStartTLS        bool
	InsecureSkipVerify bool
	Timeout            time.Duration
}

func (c SMTPConfig) withDefaults() SMTPConfig {
	if c.Port == 0 {
		c.Port = 587
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.FromName == "" {
		c.FromName = "SaaSForge Platform"
	}
	return c
}

// Sender delivers a queued email over a concrete transport.
type Sender interface {
	Send(email *domain.QueuedEmail) error
}

// SMTPSender sends queued emails over raw SMTP, negotiating TLS or
// STARTTLS the way the connection is configured.
type SMTPSender struct {
	config SMTPConfig
	log    logger.Logger
}

func NewSMTPSender(config SMTPConfig, log logger.Logger) *SMTPSender {
	return &SMTPSender{config: config.withDefaults(), log: log}
}

func (s *SMTPSender) Send(email *domain.QueuedEmail) error {
	message := s.buildMessage(email)

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	var conn net.Conn
	var err error

	dialer := &net.Dialer{Timeout: s.config.Timeout}
	if s.config.UseTLS {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
			ServerName:         s.config.Host,
			InsecureSkipVerify: s.config.InsecureSkipVerify,
		})
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to dial smtp host: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to initialize smtp client: %w", err)
	}
	defer client.Close()

	if s.config.UseStartTLS && !s.config.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{
				ServerName:         s.config.Host,
				InsecureSkipVerify: s.config.InsecureSkipVerify,
			}); err != nil {
				return fmt.Errorf("starttls negotiation failed: %w", err)
			}
		}
	}

	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(s.config.FromAddress); err != nil {
		return fmt.Errorf("smtp MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(email.Recipient); err != nil {
		return fmt.Errorf("smtp RCPT TO failed: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message body: %w", err)
	}

	return client.Quit()
}

func (s *SMTPSender) buildMessage(email *domain.QueuedEmail) string {
	boundary := "saasforge-" + email.ID
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.config.FromName, s.config.FromAddress)
	fmt.Fprintf(&b, "To: %s\r\n", email.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	if email.Text != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(email.Text)
		b.WriteString("\r\n\r\n")
	}
	if email.HTML != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(email.HTML)
		b.WriteString("\r\n\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return b.String()
}

// ClassifyFailure decides whether an SMTP send error is a permanent
// (hard bounce) or transient (retryable) failure, based on the SMTP
// reply code embedded in net/smtp's error text. 5xx replies are
// permanent rejections (bad mailbox, policy rejection); 4xx and
// connection-level errors are transient.
func ClassifyFailure(err error) (hardBounce bool, reason string) {
	if err == nil {
		return false, ""
	}
	msg := err.Error()

	if code := extractSMTPCode(msg); code != 0 {
		if code >= 500 && code < 600 {
			return true, msg
		}
		return false, msg
	}

	switch {
	case strings.Contains(msg, "unknown user"), strings.Contains(msg, "mailbox unavailable"):
		return true, msg
	default:
		return false, msg
	}
}

func extractSMTPCode(msg string) int {
	if len(msg) < 3 {
		return 0
	}
	for i := 0; i+3 <= len(msg); i++ {
		atStart := i == 0 || (i >= 2 && msg[i-2:i] == ": ")
		if atStart && msg[i] >= '1' && msg[i] <= '5' && isDigit(msg[i+1]) && isDigit(msg[i+2]) {
			code, err := strconv.Atoi(msg[i : i+3])
			if err == nil {
				return code
			}
		}
	}
	return 0
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
