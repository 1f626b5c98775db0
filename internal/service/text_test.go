package service

import (
	"strings"
	"testing"
	"time"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

func TestHTMLToText(t *testing.T) {
	got := HTMLToText(`<style>p{color:red}</style><p>Hello</p><script>alert(1)</script><p>World</p>`)
	if !strings.Contains(got, "Hello") || !strings.Contains(got, "World") {
		t.Fatalf("missing text: %q", got)
	}
	if strings.Contains(got, "alert") || strings.Contains(got, "color") {
		t.Fatalf("script or style leaked: %q", got)
	}
	if HTMLToText("   ") != "" {
		t.Fatalf("blank html should give empty text")
	}
}

func TestStripEmailQuotes(t *testing.T) {
	cases := map[string]string{
		"Thanks, fixed.\n\nOn Mon, 1 Jan 2024, Support wrote:\n> old text": "Thanks, fixed.",
		"Hi\n-----Original Message-----\nFrom: someone":                      "Hi",
		"Reply here\n_____\nolder thread":                                     "Reply here",
		"Ok\nFrom: Bob <b@example.com>\nSent: Monday\nSubject: Re":           "Ok",
		"Plain answer\n> quoted\n>\n":                                         "Plain answer",
		"No quotes at all":                                                    "No quotes at all",
	}
	for in, want := range cases {
		if got := StripEmailQuotes(in); got != want {
			t.Fatalf("StripEmailQuotes(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractReplyMessagePrefersLongest(t *testing.T) {
	p := Payload{
		"snippet": "short",
		"text":    "a slightly longer reply",
		"body":    map[string]any{"content": "the nested body carries the full customer reply"},
	}
	if got := ExtractReplyMessage(p); got != "the nested body carries the full customer reply" {
		t.Fatalf("unexpected message %q", got)
	}

	p = Payload{"snippet": "hi", "html": "<div>The html version is much longer</div>"}
	if got := ExtractReplyMessage(p); got != "The html version is much longer" {
		t.Fatalf("expected converted html, got %q", got)
	}
}

func TestIsRecentDuplicate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recent := []models.Reply{
		{Message: "Your car is ready ", SenderType: models.SenderAgent, CreatedAt: now.Add(-time.Minute)},
		{Message: "Old message", SenderType: models.SenderAgent, CreatedAt: now.Add(-10 * time.Minute)},
		{Message: "Customer text", SenderType: models.SenderWebhook, CreatedAt: now},
	}
	if !IsRecentDuplicate("Your car is ready", recent, now) {
		t.Fatalf("expected duplicate within window")
	}
	if IsRecentDuplicate("Old message", recent, now) {
		t.Fatalf("reply outside window must not count")
	}
	if IsRecentDuplicate("Customer text", recent, now) {
		t.Fatalf("webhook replies must not count")
	}
	if IsRecentDuplicate("  ", recent, now) {
		t.Fatalf("empty message is never a duplicate")
	}
}
