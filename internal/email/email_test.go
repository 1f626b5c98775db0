package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type mapFiles map[string][]byte

func (m mapFiles) ReadFile(path string) ([]byte, error) {
	if b, ok := m[path]; ok {
		return b, nil
	}
	return nil, errors.New("missing")
}

func TestNewSenderFallsBackToLog(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com"}, nil, zerolog.Nop())
	if _, ok := s.(LogSender); !ok {
		t.Fatalf("expected LogSender without credentials, got %T", s)
	}
	if err := s.Send(context.Background(), Message{To: []string{"a@example.com"}}); err != nil {
		t.Fatalf("log sender should succeed: %v", err)
	}
	if err := s.Send(context.Background(), Message{}); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
}

func TestBuildMessage(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com", Port: 587, Username: "desk@example.com", Password: "pw"},
		mapFiles{"tickets/E1/form.pdf": []byte("%PDF-1.4 test")}, zerolog.Nop()).(*SMTPSender)

	m, err := s.build(Message{
		To:      []string{"jane@example.com"},
		Subject: "Re: Brake noise [TID: E1]",
		Text:    "Hello Jane",
		HTML:    "Hello <b>Jane</b>",
		Attachments: []Attachment{
			{Filename: "form.pdf", Path: "tickets/E1/form.pdf"},
			{Filename: "gone.pdf", Path: "tickets/E1/gone.pdf"},
			{Filename: "note.txt", Data: []byte("inline")},
		},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Re: Brake noise [TID: E1]", "form.pdf", "note.txt", "text/html", "desk@example.com"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q", want)
		}
	}
	if strings.Contains(raw, "gone.pdf") {
		t.Fatalf("unreadable attachment should be skipped")
	}

	if _, err := s.build(Message{Subject: "x"}); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
}
