// Package email sends agent replies over SMTP when no n8n webhook is configured.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/storage"
)

var ErrNoRecipient = errors.New("email recipient required")

type Attachment struct {
	Filename string
	Data     []byte
	// Path is read through Files when Data is empty.
	Path        string
	ContentType string
}

type Message struct {
	To          []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
}

// FileReader resolves attachment paths under the upload root.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

type SMTPSender struct {
	cfg    Config
	files  FileReader
	logger zerolog.Logger
}

// NewSender returns an SMTP sender, or a logging no-op when credentials are missing.
func NewSender(cfg Config, files FileReader, logger zerolog.Logger) Sender {
	logger = logger.With().Str("component", "smtp").Logger()
	if cfg.Username == "" || cfg.Password == "" {
		return LogSender{logger: logger}
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{cfg: cfg, files: files, logger: logger}
}

func (s *SMTPSender) build(msg Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipient
	}
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	for _, att := range msg.Attachments {
		data := att.Data
		if len(data) == 0 && att.Path != "" && s.files != nil {
			b, err := s.files.ReadFile(att.Path)
			if err != nil {
				s.logger.Warn().Err(err).Str("path", att.Path).Msg("skipping unreadable attachment")
				continue
			}
			data = b
		}
		if len(data) == 0 {
			continue
		}
		ct := att.ContentType
		if ct == "" {
			ct = storage.MimeType(att.Filename, data)
		}
		if err := m.AttachReader(att.Filename, bytes.NewReader(data), mail.WithFileContentType(mail.ContentType(ct))); err != nil {
			return nil, fmt.Errorf("attach %s: %w", att.Filename, err)
		}
	}
	m.SetMessageID()
	return m, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}
	policy := mail.NoTLS
	if s.cfg.UseTLS {
		policy = mail.TLSMandatory
	}
	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(policy),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	s.logger.Info().Strs("to", msg.To).Str("subject", msg.Subject).Int("attachments", len(msg.Attachments)).Msg("email sent")
	return nil
}

// LogSender stands in when SMTP is not configured. Messages are logged and
// reported as sent.
type LogSender struct {
	logger zerolog.Logger
}

func (l LogSender) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipient
	}
	l.logger.Info().Strs("to", msg.To).Str("subject", msg.Subject).Msg("smtp not configured, email logged only")
	return nil
}
