package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

type recordingSaver struct {
	saved []string
	fail  bool
}

func (r *recordingSaver) SaveTicketAttachment(ticketID, name string, data []byte, idx int) (models.Attachment, error) {
	if r.fail {
		return models.Attachment{}, errors.New("disk full")
	}
	r.saved = append(r.saved, name)
	return models.Attachment{
		Filename: name,
		FileName: name,
		FilePath: "tickets/" + ticketID + "/" + name,
		Size:     int64(len(data)),
		MimeType: "application/pdf",
	}, nil
}

func fixedIntake(saver AttachmentSaver) *IntakeService {
	return &IntakeService{
		Files:  saver,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC) },
	}
}

func TestProcessEmailTicket(t *testing.T) {
	saver := &recordingSaver{}
	raw := []any{map[string]any{
		"from":    "Jane Doe <jane.doe@example.com>",
		"subject": "DPF light on",
		"body":    "short",
		"text":    "the engine light came on after the service",
		"attachments": []any{
			map[string]any{"filename": "warranty_form.pdf", "data": b64("%PDF-1.4 form")},
			map[string]any{"name": "photo.jpg", "size": float64(2048)},
			"ignored",
		},
		"threadId":  "thread-1",
		"messageId": "<m1@mail>",
	}}

	ticket, err := fixedIntake(saver).ProcessEmailTicket(raw)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.HasPrefix(ticket.TicketID, "E") || ticket.Email != "jane.doe@example.com" || ticket.Name != "Jane Doe" {
		t.Fatalf("unexpected identity fields %+v", ticket)
	}
	if ticket.Body != "the engine light came on after the service" || ticket.Subject != "DPF light on" {
		t.Fatalf("unexpected content %q / %q", ticket.Subject, ticket.Body)
	}
	if ticket.Status != models.StatusOpen || ticket.Priority != models.DefaultPriority || ticket.Source != "n8n_email" {
		t.Fatalf("unexpected defaults %+v", ticket)
	}
	if ticket.ThreadID != "thread-1" || ticket.MessageID != "<m1@mail>" {
		t.Fatalf("thread fields lost: %+v", ticket)
	}
	if len(saver.saved) != 1 || saver.saved[0] != "warranty_form.pdf" {
		t.Fatalf("expected one saved file, got %v", saver.saved)
	}
	if len(ticket.Attachments) != 2 || ticket.Attachments[0].FilePath == "" || ticket.Attachments[1].Filename != "photo.jpg" {
		t.Fatalf("unexpected attachments %+v", ticket.Attachments)
	}
	if ticket.Attachments[0].Data != "" {
		t.Fatalf("saved attachment must not keep inline data")
	}
	if !ticket.HasWarranty || ticket.WarrantyFormsCount != 1 || ticket.TotalAttachments != 2 {
		t.Fatalf("unexpected warranty flags %+v", ticket)
	}
	if ticket.AttachmentTotalSize != int64(len("%PDF-1.4 form"))+2048 {
		t.Fatalf("unexpected total size %d", ticket.AttachmentTotalSize)
	}
}

func TestProcessEmailTicketKeepsMetadataWhenSaveFails(t *testing.T) {
	raw := map[string]any{
		"email":     "bob@example.com",
		"ticket_id": "EXY1234",
		"attachments": []any{
			map[string]any{"fileName": "report.pdf", "mimeType": "application/pdf", "data": b64("report body")},
		},
	}
	ticket, err := fixedIntake(&recordingSaver{fail: true}).ProcessEmailTicket(raw)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if ticket.TicketID != "EXY1234" || ticket.ThreadID != "n8n_EXY1234" || ticket.Subject != "No Subject" {
		t.Fatalf("unexpected ticket %+v", ticket)
	}
	if len(ticket.Attachments) != 1 {
		t.Fatalf("expected metadata to survive, got %+v", ticket.Attachments)
	}
	att := ticket.Attachments[0]
	if att.Filename != "report.pdf" || att.MimeType != "application/pdf" || att.FilePath != "" || att.Data != "" {
		t.Fatalf("unexpected fallback metadata %+v", att)
	}
}

func TestProcessEmailTicketRejectsEmptyPayload(t *testing.T) {
	for _, raw := range []any{nil, []any{}, map[string]any{}} {
		if _, err := fixedIntake(nil).ProcessEmailTicket(raw); !errors.Is(err, ErrEmptyPayload) {
			t.Fatalf("expected ErrEmptyPayload for %v, got %v", raw, err)
		}
	}
}
