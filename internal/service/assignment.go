package service

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

// AssignmentChange is the ticket update and assignment record produced by a
// forward or a takeover.
type AssignmentChange struct {
	Set              bson.M
	Assignment       models.Assignment
	OldStatus        string
	NewStatus        string
	PreviousAssignee *bson.ObjectID
	Message          string
}

// StatusChanged reports whether the change moves the ticket to a new status.
func (c AssignmentChange) StatusChanged() bool {
	return c.NewStatus != "" && c.NewStatus != c.OldStatus
}

// BuildForward routes a ticket from one member to another. The target starts
// with an unseen assignment.
func BuildForward(ticket models.Ticket, from, to bson.ObjectID, note string, now time.Time) AssignmentChange {
	fromRef := from
	return AssignmentChange{
		Set: bson.M{
			"is_forwarded":        true,
			"forwarded_by":        from,
			"forwarded_to":        to,
			"forwarded_at":        now,
			"forwarding_note":     note,
			"is_forwarded_viewed": false,
			"status":              models.StatusOpen,
			"updated_at":          now,
		},
		Assignment: models.Assignment{
			TicketID:      ticket.TicketID,
			MemberID:      to,
			ForwardedFrom: &fromRef,
			IsForwarded:   true,
			Notes:         note,
			AssignedAt:    now,
		},
		OldStatus: ticket.Status,
		NewStatus: models.StatusOpen,
		Message:   "Ticket forwarded successfully",
	}
}

// BuildTakeover assigns a ticket to the acting member.
func BuildTakeover(ticket models.Ticket, by bson.ObjectID, now time.Time) AssignmentChange {
	return AssignmentChange{
		Set: bson.M{
			"assigned_to": by,
			"assigned_by": by,
			"assigned_at": now,
			"status":      models.StatusInProgress,
			"updated_at":  now,
		},
		Assignment: models.Assignment{
			TicketID:   ticket.TicketID,
			MemberID:   by,
			AssignedAt: now,
		},
		OldStatus:        ticket.Status,
		NewStatus:        models.StatusInProgress,
		PreviousAssignee: ticket.AssignedTo,
		Message:          "Ticket taken over successfully",
	}
}

// BuildReferral forwards a ticket to the Technical Director and keeps the
// legacy referral flags in step.
func BuildReferral(by, director bson.ObjectID, now time.Time) bson.M {
	return bson.M{
		"referred_to_director": true,
		"referred_at":          now,
		"referred_by":          by.Hex(),
		"status":               models.StatusReferredToTD,
		"is_forwarded":         true,
		"forwarded_to":         director,
		"forwarded_by":         by,
		"forwarded_at":         now,
		"is_forwarded_viewed":  false,
		"updated_at":           now,
	}
}

func IsAdminRole(role string) bool {
	switch role {
	case models.RoleAdministrator, "Admin", "admin":
		return true
	}
	return false
}

func IsTechDirectorRole(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), models.RoleTechDirector)
}

// RoleRoom names the websocket room shared by every member of a role.
func RoleRoom(role string) string {
	return "role_" + strings.ReplaceAll(role, " ", "_")
}

func UserRoom(memberID string) string {
	return "user_" + memberID
}

func TicketRoom(ticketID string) string {
	return "ticket_" + ticketID
}
