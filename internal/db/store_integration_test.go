package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	name := fmt.Sprintf("aag_test_%d", time.Now().UnixNano())
	store, err := New(ctx, uri, name, zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		store.Close()
	})
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	return store
}

func TestStoreTicketLifecycleIntegration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ticket := models.Ticket{TicketID: "EAB1234", ThreadID: "thread-1", Email: "jo@example.com", Name: "Jo", Subject: "DPF light"}
	if err := store.CreateTicket(ctx, &ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := models.Ticket{TicketID: "EAB9999", ThreadID: "thread-1"}
	if err := store.CreateTicket(ctx, &dup); !errors.Is(err, ErrDuplicate) || err.Error() != "Thread ID already exists" {
		t.Fatalf("expected thread duplicate, got %v", err)
	}

	admin, err := store.GetMemberByUserID(ctx, "admin001")
	if err != nil {
		t.Fatalf("seeded admin missing: %v", err)
	}
	marc, err := store.FindActiveMemberByRole(ctx, models.RoleTechDirector)
	if err != nil {
		t.Fatalf("seeded director missing: %v", err)
	}
	now := time.Now().UTC()
	if _, err := store.UpdateTicket(ctx, "EAB1234", bson.M{
		"is_forwarded": true,
		"forwarded_to": marc.ID,
		"forwarded_by": admin.ID,
		"forwarded_at": now,
	}); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if err := store.AssignTicket(ctx, &models.Assignment{TicketID: "EAB1234", MemberID: marc.ID, ForwardedFrom: &admin.ID, IsForwarded: true}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	got, err := store.GetTicket(ctx, "EAB1234")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ForwardedToMember == nil || got.ForwardedToMember.ID != marc.ID {
		t.Fatalf("forwarded_to lookup missing: %+v", got.ForwardedToMember)
	}
	if got.Assignment == nil || got.Assignment.IsSeen {
		t.Fatalf("forwarded assignment must start unseen: %+v", got.Assignment)
	}

	inbox, err := store.ForwardedTicketsTo(ctx, marc.ID)
	if err != nil || len(inbox) != 1 || inbox[0].ForwardedFromName != "Admin" {
		t.Fatalf("unexpected inbox: %+v err=%v", inbox, err)
	}
	changed, err := store.MarkForwardedViewed(ctx, "EAB1234", marc.ID)
	if err != nil || !changed {
		t.Fatalf("expected first view to change the ticket: %v", err)
	}
	changed, _ = store.MarkForwardedViewed(ctx, "EAB1234", marc.ID)
	if changed {
		t.Fatalf("second view must be a no-op")
	}

	reply := models.Reply{TicketID: "EAB1234", Message: "hello", SenderName: "Admin", SenderType: models.SenderAgent}
	if err := store.CreateReply(ctx, &reply); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if ok, _ := store.ReplyExistsForTicket(ctx, reply.ID.Hex(), "EAB1234"); !ok {
		t.Fatalf("reply should exist for ticket")
	}
	if err := store.DeleteTicket(ctx, "EAB1234"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := store.CountReplies(ctx, "EAB1234"); n != 0 {
		t.Fatalf("replies should cascade, have %d", n)
	}
}

func TestStoreRoleInUseIntegration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	roles, err := store.ListRoles(ctx)
	if err != nil || len(roles) != 3 {
		t.Fatalf("expected 3 seeded roles, got %d err=%v", len(roles), err)
	}
	for _, r := range roles {
		if r.Name == models.RoleAdministrator {
			if err := store.DeleteRole(ctx, r.ID); !errors.Is(err, ErrInUse) {
				t.Fatalf("expected ErrInUse, got %v", err)
			}
		}
	}
}
