package service

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

func TestBuildForward(t *testing.T) {
	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	from, to := bson.NewObjectID(), bson.NewObjectID()
	ticket := models.Ticket{TicketID: "EAB1234", Status: models.StatusNew}

	change := BuildForward(ticket, from, to, "please check", now)
	if change.Set["forwarded_to"] != to || change.Set["forwarded_by"] != from || change.Set["is_forwarded_viewed"] != false {
		t.Fatalf("unexpected forward fields %+v", change.Set)
	}
	if change.NewStatus != models.StatusOpen || !change.StatusChanged() {
		t.Fatalf("expected status change to Open, got %+v", change)
	}
	a := change.Assignment
	if a.MemberID != to || a.ForwardedFrom == nil || *a.ForwardedFrom != from || !a.IsForwarded || a.Notes != "please check" {
		t.Fatalf("unexpected assignment %+v", a)
	}
}

func TestBuildTakeover(t *testing.T) {
	now := time.Now()
	prev, by := bson.NewObjectID(), bson.NewObjectID()
	ticket := models.Ticket{TicketID: "EAB1234", Status: models.StatusInProgress, AssignedTo: &prev}

	change := BuildTakeover(ticket, by, now)
	if change.Set["assigned_to"] != by || change.Set["status"] != models.StatusInProgress {
		t.Fatalf("unexpected takeover fields %+v", change.Set)
	}
	if change.StatusChanged() {
		t.Fatalf("status did not change")
	}
	if change.PreviousAssignee == nil || *change.PreviousAssignee != prev {
		t.Fatalf("previous assignee lost")
	}
	if change.Assignment.IsForwarded || change.Assignment.MemberID != by {
		t.Fatalf("unexpected assignment %+v", change.Assignment)
	}
}

func TestBuildReferral(t *testing.T) {
	by, td := bson.NewObjectID(), bson.NewObjectID()
	set := BuildReferral(by, td, time.Now())
	if set["status"] != models.StatusReferredToTD || set["forwarded_to"] != td || set["referred_by"] != by.Hex() {
		t.Fatalf("unexpected referral %+v", set)
	}
}

func TestRoleHelpers(t *testing.T) {
	for _, r := range []string{"Administrator", "Admin", "admin"} {
		if !IsAdminRole(r) {
			t.Fatalf("%s should be admin", r)
		}
	}
	if IsAdminRole("User") || !IsTechDirectorRole("technical director") {
		t.Fatalf("role check mismatch")
	}
	if RoleRoom("Technical Director") != "role_Technical_Director" || TicketRoom("E1") != "ticket_E1" || UserRoom("abc") != "user_abc" {
		t.Fatalf("room naming mismatch")
	}
}
