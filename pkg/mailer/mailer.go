package mailer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers a composed message
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends transactional mail. A Mailer with a nil sender only logs.
type Mailer struct {
	sender Sender
	from   string
	domain string
	log    *zap.Logger
}

// Config holds SMTP settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether enough settings are present to send mail
func (c Config) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// New builds a Mailer from cfg. When cfg is not Enabled the returned Mailer is a no-op.
func New(cfg Config, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Mailer{from: cfg.From, domain: domainOf(cfg.From), log: log}
	if cfg.Enabled() {
		m.sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

// NewWithSender builds a Mailer around an existing sender
func NewWithSender(sender Sender, from string, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{sender: sender, from: from, domain: domainOf(from), log: log}
}

// Enabled reports whether messages are actually delivered
func (m *Mailer) Enabled() bool {
	return m != nil && m.sender != nil
}

// SendMemberAdded tells a user they were added to a club by email
func (m *Mailer) SendMemberAdded(to, name, clubName, link string) error {
	if !m.Enabled() {
		return nil
	}

	msg := m.newMessage(to, fmt.Sprintf("You were added to %s", clubName))
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	body := fmt.Sprintf("%s,\n\nYou are now a member of %s.", greeting, clubName)
	if link != "" {
		body += "\n\nOpen the club: " + link
	}
	msg.SetBody("text/plain", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	m.log.Info("Member notification sent", zap.String("club", clubName))
	return nil
}

func (m *Mailer) newMessage(to, subject string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("Message-ID", generateMessageID(m.domain))
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	return msg
}

func generateMessageID(domain string) string {
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}

func domainOf(address string) string {
	for i := len(address) - 1; i >= 0; i-- {
		if address[i] == '@' {
			return address[i+1:]
		}
	}
	return "localhost"
}
