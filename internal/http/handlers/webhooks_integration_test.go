package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

func openWebhookStore(t *testing.T) (*db.Store, string) {
	t.Helper()
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	store, err := db.New(ctx, uri, "autoassist_test", zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	ticketID := fmt.Sprintf("W%d", time.Now().UnixNano()%1_000_000_000)
	ticket := models.Ticket{TicketID: ticketID, ThreadID: "thread-" + ticketID, Email: "jo@example.com", Name: "Jo", Subject: "DPF light"}
	if err := store.CreateTicket(ctx, &ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	t.Cleanup(func() {
		_ = store.DeleteTicket(context.Background(), ticketID)
		store.Close()
	})
	return store, ticketID
}

func postWebhookReply(t *testing.T, r *gin.Engine, payload map[string]any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	w := serve(r, jsonRequest(http.MethodPost, "/api/webhook/reply", string(raw)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	return decodeBody(t, w)
}

func TestWebhookReplyMergeAndIdempotencyIntegration(t *testing.T) {
	store, ticketID := openWebhookStore(t)
	ctx := context.Background()
	h := &Handler{Store: store, Logger: zerolog.Nop()}
	r := gin.New()
	r.POST("/api/webhook/reply", h.WebhookReply)

	photo := []map[string]any{{"filename": "photo.jpg", "data": "aGVsbG8gd29ybGQ=", "content_type": "image/jpeg"}}

	first := postWebhookReply(t, r, map[string]any{"ticket_id": ticketID, "message": "The warning light came back on this morning"})
	if first["message"] != "Reply added successfully" {
		t.Fatalf("unexpected first response %v", first)
	}
	firstID, _ := first["reply_id"].(string)

	merged := postWebhookReply(t, r, map[string]any{"ticket_id": ticketID, "message": "See attached", "attachments": photo})
	if merged["message"] != "Attachments merged into existing reply" || merged["reply_id"] != firstID {
		t.Fatalf("expected merge into %s, got %v", firstID, merged)
	}
	oid, err := bson.ObjectIDFromHex(firstID)
	if err != nil {
		t.Fatalf("reply id: %v", err)
	}
	got, err := store.GetReply(ctx, oid)
	if err != nil {
		t.Fatalf("get reply: %v", err)
	}
	if got.Message != "The warning light came back on this morning" || len(got.Attachments) != 1 {
		t.Fatalf("shorter message must not replace the original: %+v", got)
	}

	second := postWebhookReply(t, r, map[string]any{"ticket_id": ticketID, "message": "Photo"})
	secondID, _ := second["reply_id"].(string)
	if secondID == "" || secondID == firstID {
		t.Fatalf("expected a new reply, got %v", second)
	}
	merged = postWebhookReply(t, r, map[string]any{"ticket_id": ticketID, "message": "Photo of the dashboard after a restart", "attachments": photo})
	if merged["reply_id"] != secondID {
		t.Fatalf("expected merge into %s, got %v", secondID, merged)
	}
	oid, _ = bson.ObjectIDFromHex(secondID)
	if got, _ = store.GetReply(ctx, oid); got.Message != "Photo of the dashboard after a restart" {
		t.Fatalf("longer message should replace the original, got %q", got.Message)
	}

	dup := postWebhookReply(t, r, map[string]any{"ticket_id": ticketID, "message": "anything", "portal_reply_id": firstID})
	if dup["duplicate"] != true || dup["reply_id"] != firstID {
		t.Fatalf("expected duplicate for portal reply id, got %v", dup)
	}

	agent := models.Reply{TicketID: ticketID, Message: "We will call you at 3pm", SenderName: "Admin", SenderType: models.SenderAgent}
	if err := store.CreateReply(ctx, &agent); err != nil {
		t.Fatalf("agent reply: %v", err)
	}
	echo := postWebhookReply(t, r, map[string]any{"ticket_id": ticketID, "message": "We will call you at 3pm"})
	if echo["duplicate"] != true {
		t.Fatalf("expected agent echo to be ignored, got %v", echo)
	}

	if n, _ := store.CountReplies(ctx, ticketID); n != 3 {
		t.Fatalf("expected 2 customer replies and 1 agent reply, have %d", n)
	}
	ticket, err := store.GetTicket(ctx, ticketID)
	if err != nil || !ticket.HasUnreadReply {
		t.Fatalf("ticket should be flagged unread: %v", err)
	}
}
