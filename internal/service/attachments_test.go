package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

type fakeSource struct {
	files map[string][]byte
	docs  map[string][]byte
}

func (f fakeSource) ReadFile(path string) ([]byte, error) {
	if b, ok := f.files[path]; ok {
		return b, nil
	}
	return nil, errors.New("not found")
}

func (f fakeSource) LoadDocument(_ context.Context, id string) ([]byte, string, string, error) {
	if b, ok := f.docs[id]; ok {
		return b, "guide.pdf", "application/pdf", nil
	}
	return nil, "", "", errors.New("not found")
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestDetectWarrantyForm(t *testing.T) {
	if !DetectWarrantyForm("DPF_Report.pdf") || !DetectWarrantyForm("warranty-claim.docx") {
		t.Fatalf("expected warranty match")
	}
	if DetectWarrantyForm("invoice.pdf") || DetectWarrantyForm("") {
		t.Fatalf("unexpected warranty match")
	}
}

func TestNormalizeWebhookAttachments(t *testing.T) {
	got := NormalizeWebhookAttachments(map[string]any{
		"b": map[string]any{"fileName": "b.pdf", "data": b64("pdf bytes")},
		"a": "plain text body",
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(got))
	}
	if got[0].Filename != "attachment.txt" || got[0].ContentType != "text/plain" || got[0].Data != b64("plain text body") {
		t.Fatalf("unexpected string attachment %+v", got[0])
	}
	if got[1].Filename != "b.pdf" {
		t.Fatalf("expected fileName fallback, got %+v", got[1])
	}

	list := NormalizeWebhookAttachments([]any{map[string]any{}, 42})
	if len(list) != 1 || list[0].Filename != "attachment" {
		t.Fatalf("unexpected list result %+v", list)
	}
	if len(NormalizeWebhookAttachments(nil)) != 0 {
		t.Fatalf("nil must give an empty list")
	}
}

func TestNormalizeWebhookAttachmentsKeepsNumericOrder(t *testing.T) {
	raw := map[string]any{}
	for _, k := range []string{"attachment10", "attachment2", "attachment1", "attachment_0"} {
		raw[k] = map[string]any{"filename": k + ".pdf"}
	}
	got := NormalizeWebhookAttachments(raw)
	want := []string{"attachment1.pdf", "attachment2.pdf", "attachment10.pdf", "attachment_0.pdf"}
	if len(got) != len(want) {
		t.Fatalf("expected %d attachments, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Filename != w {
			t.Fatalf("position %d: got %s, want %s", i, got[i].Filename, w)
		}
	}
}

func TestResolveEmailAttachmentsChain(t *testing.T) {
	src := fakeSource{
		files: map[string][]byte{"tickets/E1/orig.pdf": []byte("file on disk")},
		docs:  map[string][]byte{"doc1": []byte("common document")},
	}
	zero := 0
	ticket := models.Ticket{
		TicketID:    "E1",
		Attachments: []models.Attachment{{Filename: "orig.pdf", FilePath: "tickets/E1/orig.pdf"}},
	}
	requested := []models.Attachment{
		{Filename: "inline.txt", Data: b64("inline content")},
		{Filename: "disk.pdf", FilePath: "tickets/E1/orig.pdf"},
		{DocumentID: "doc1"},
		{Filename: "renamed.pdf", TicketIndex: &zero},
		{Filename: "orig.pdf"},
		{Filename: "missing.pdf", Data: "short"},
	}

	got := ResolveEmailAttachments(context.Background(), requested, ticket, src)
	if len(got) != 5 {
		t.Fatalf("expected 5 resolved attachments, got %d: %+v", len(got), got)
	}
	wantNames := []string{"inline.txt", "disk.pdf", "guide.pdf", "renamed.pdf", "orig.pdf"}
	for i, name := range wantNames {
		if got[i].Filename != name {
			t.Fatalf("attachment %d: got name %q, want %q", i, got[i].Filename, name)
		}
	}
	if got[1].Data != b64("file on disk") || got[1].Size != len("file on disk") {
		t.Fatalf("disk attachment not encoded: %+v", got[1])
	}
	if got[2].ContentType != "application/pdf" {
		t.Fatalf("document content type lost: %+v", got[2])
	}
	if got[3].Data != b64("file on disk") {
		t.Fatalf("ticket index lookup failed: %+v", got[3])
	}
}

func TestAttachmentBytes(t *testing.T) {
	src := fakeSource{docs: map[string][]byte{"doc1": []byte("doc")}}

	c, err := AttachmentBytes(context.Background(), models.Attachment{Ref: "doc1"}, src)
	if err != nil || string(c.Data) != "doc" || c.Filename != "guide.pdf" {
		t.Fatalf("document ref: %+v %v", c, err)
	}

	c, err = AttachmentBytes(context.Background(), models.Attachment{Filename: "note.txt", FileData: b64("hello")}, src)
	if err != nil || string(c.Data) != "hello" || !strings.HasPrefix(c.MimeType, "text/plain") {
		t.Fatalf("inline data: %+v %v", c, err)
	}

	if _, err := AttachmentBytes(context.Background(), models.Attachment{Filename: "x.pdf"}, src); !errors.Is(err, ErrAttachmentData) {
		t.Fatalf("expected ErrAttachmentData, got %v", err)
	}
}
