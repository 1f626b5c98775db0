package service

import (
	"strings"
	"testing"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

func TestReplySubject(t *testing.T) {
	if got := ReplySubject("Brake noise", "E1"); got != "Re: Brake noise [TID: E1]" {
		t.Fatalf("got %q", got)
	}
	if got := ReplySubject("RE: Brake noise", "E1"); got != "RE: Brake noise [TID: E1]" {
		t.Fatalf("got %q", got)
	}
	if got := ReplySubject("", "E1"); got != "Re: Support Request [TID: E1]" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderEmailTemplate(t *testing.T) {
	ticket := models.Ticket{TicketID: "EAB1234", Name: "Jane Doe", Subject: "Help"}

	tpl, err := RenderEmailTemplate(TemplateWarrantyClaim, ticket)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if tpl.Subject != "Re: Warranty Claim Update - Ticket #EAB1234" {
		t.Fatalf("unexpected subject %q", tpl.Subject)
	}
	if !strings.HasPrefix(tpl.Body, "Dear Jane,") || !strings.Contains(tpl.Body, "Ticket ID: #EAB1234") {
		t.Fatalf("unexpected body %q", tpl.Body)
	}
	if !strings.HasSuffix(tpl.Body, "Auto Assist Group - Aftercare Team") || tpl.ContentSource != "template" {
		t.Fatalf("unexpected ending or source: %+v", tpl)
	}

	tpl, err = RenderEmailTemplate(TemplateCustomerService, ticket)
	if err != nil || tpl.Subject != "Re: Help [TID: EAB1234]" || !strings.Contains(tpl.Body, "https://autoassistgroup.com/book") {
		t.Fatalf("customer service: %+v %v", tpl, err)
	}

	tpl, err = RenderEmailTemplate(TemplateDraft, ticket)
	if err != nil || tpl.ContentSource != "template" || !strings.Contains(tpl.Body, "our team is reviewing it") {
		t.Fatalf("draft without draft should fall back: %+v %v", tpl, err)
	}
}

func TestRenderDraftTemplate(t *testing.T) {
	ticket := models.Ticket{TicketID: "EAB1234", Draft: "Hello, your part has arrived."}
	tpl, err := RenderEmailTemplate(TemplateDraft, ticket)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !tpl.HasDraft || tpl.ContentSource != "draft" {
		t.Fatalf("unexpected draft flags %+v", tpl)
	}
	if tpl.Body != "Ref: Ticket #EAB1234\n\nHello, your part has arrived." {
		t.Fatalf("unexpected draft body %q", tpl.Body)
	}

	ticket.Draft = "About EAB1234: all done."
	if tpl, _ := RenderEmailTemplate(TemplateDraft, ticket); tpl.Body != ticket.Draft {
		t.Fatalf("draft mentioning the ticket must be untouched, got %q", tpl.Body)
	}
}

func TestReplaceVHCPlaceholder(t *testing.T) {
	if got := ReplaceVHCPlaceholder("See @vhc_link today", " https://vhc.example/1 "); got != "See Vehicle Health Check: https://vhc.example/1 today" {
		t.Fatalf("got %q", got)
	}
	if got := ReplaceVHCPlaceholder("See [VHC_LINK]", ""); got != "See [VHC_LINK]" {
		t.Fatalf("empty link must leave text alone, got %q", got)
	}
	got := ReplaceVHCPlaceholderHTML("Hi\n[VHC_LINK]", "https://vhc.example/1")
	if !strings.HasPrefix(got, "Hi<br>\n<a href=\"https://vhc.example/1\"") {
		t.Fatalf("unexpected html %q", got)
	}
}
