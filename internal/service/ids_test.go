package service

import (
	"regexp"
	"testing"
)

func TestTicketIDFormats(t *testing.T) {
	emailRe := regexp.MustCompile(`^E[A-Z]{2}\d{4}$`)
	manualRe := regexp.MustCompile(`^M[0-9A-F]{5}$`)
	for i := 0; i < 50; i++ {
		if id := NewEmailTicketID(); !emailRe.MatchString(id) {
			t.Fatalf("bad email ticket id %q", id)
		}
		if id := NewManualTicketID(); !manualRe.MatchString(id) {
			t.Fatalf("bad manual ticket id %q", id)
		}
	}
}

func TestValidTicketID(t *testing.T) {
	if !ValidTicketID("EAB1234") {
		t.Fatalf("expected valid")
	}
	if ValidTicketID("") || ValidTicketID("has space") {
		t.Fatalf("expected invalid")
	}
}

func TestExtractTicketIDFromBody(t *testing.T) {
	cases := map[string]string{
		"Re: your ticket #ee3295 update":   "EE3295",
		"Ticket ID: AB123 was opened":      "AB123",
		"Following up on #XY99881 thanks":  "XY99881",
		"nothing that looks like an id 42": "",
	}
	for in, want := range cases {
		if got := ExtractTicketIDFromBody(in); got != want {
			t.Fatalf("ExtractTicketIDFromBody(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmailHelpers(t *testing.T) {
	if got := ExtractEmail("Jane Doe <jane@example.com>"); got != "jane@example.com" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractEmail(" bob@example.com "); got != "bob@example.com" {
		t.Fatalf("got %q", got)
	}
	if got := NameFromEmail("john.doe_smith@example.com"); got != "John Doe Smith" {
		t.Fatalf("got %q", got)
	}
	if !ValidEmail("a.b@example.co.uk") || ValidEmail("not-an-email") {
		t.Fatalf("email validation mismatch")
	}
	if FirstName("") != "Customer" || FirstName("Jane Doe") != "Jane" {
		t.Fatalf("first name mismatch")
	}
}
