package storage

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSafeFilename(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd":       "passwd",
		"C:\\docs\\warranty.pdf": "warranty.pdf",
		"my form (1).pdf":        "my_form__1_.pdf",
		"":                       "attachment",
		"..":                     "attachment",
		"na\x00me.txt":           "name.txt",
		"résumé.docx":            "r_sum_.docx",
	}
	for in, want := range cases {
		if got := SafeFilename(in); got != want {
			t.Fatalf("SafeFilename(%q) = %q, want %q", in, got, want)
		}
	}
	long := strings.Repeat("a", 300) + ".pdf"
	if got := SafeFilename(long); len(got) != maxFilenameLen {
		t.Fatalf("expected truncation to %d, got %d", maxFilenameLen, len(got))
	}
}

func TestAllowedFile(t *testing.T) {
	if !AllowedFile("Form.PDF") || !AllowedFile("x.csv") {
		t.Fatalf("expected allowed extensions")
	}
	if AllowedFile("run.exe") || AllowedFile("noext") {
		t.Fatalf("unexpected allowed file")
	}
}

func TestMimeType(t *testing.T) {
	if got := MimeType("a.pdf", nil); got != "application/pdf" {
		t.Fatalf("got %s", got)
	}
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if got := MimeType("blob", png); got != "image/png" {
		t.Fatalf("sniffed %s", got)
	}
	if got := MimeType("blob", nil); got != "application/octet-stream" {
		t.Fatalf("got %s", got)
	}
}

func TestDecodeBase64(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString([]byte("hello world"))
	for _, in := range []string{enc, "data:text/plain;base64," + enc, enc[:8] + "\n" + enc[8:], strings.TrimRight(enc, "=")} {
		got, err := DecodeBase64(in)
		if err != nil || string(got) != "hello world" {
			t.Fatalf("decode %q: %q %v", in, got, err)
		}
	}
	if _, err := DecodeBase64("   "); err == nil {
		t.Fatalf("empty input must fail")
	}
}

func TestSaveAndReadWithinRoot(t *testing.T) {
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.now = func() time.Time { return time.Date(2024, 3, 1, 10, 4, 5, 0, time.UTC) }

	att, err := l.SaveTicketAttachment("EAB1234", "warranty form.pdf", []byte("%PDF-1.4"), 2)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if att.FilePath != "tickets/EAB1234/warranty_form_2_20240301_100405.pdf" {
		t.Fatalf("unexpected path %s", att.FilePath)
	}
	if att.Filename != "warranty form.pdf" || att.Size != 8 || att.MimeType != "application/pdf" {
		t.Fatalf("unexpected metadata %+v", att)
	}
	data, err := l.ReadFile(att.FilePath)
	if err != nil || string(data) != "%PDF-1.4" {
		t.Fatalf("read back: %q %v", data, err)
	}

	saved, err := l.SaveBytes("claim_docs", "claim_EAB1234", "report.txt", []byte("ok"))
	if err != nil {
		t.Fatalf("save bytes: %v", err)
	}
	if saved.FilePath != "claim_docs/claim_EAB1234_20240301_100405_report.txt" {
		t.Fatalf("unexpected path %s", saved.FilePath)
	}

	if _, err := l.ReadFile("../outside.txt"); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("expected ErrOutsideRoot, got %v", err)
	}
}

func TestSaveTicketAttachmentTruncatesExtensionlessNames(t *testing.T) {
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	att, err := l.SaveTicketAttachment("E1", strings.Repeat("b", 50), []byte("x"), 0)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(att.FilePath, "tickets/E1/"+strings.Repeat("b", 32)+"_0_") {
		t.Fatalf("expected 32 char base, got %s", att.FilePath)
	}
}
