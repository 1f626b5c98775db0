package realtime

import (
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
)

// Event is the JSON body of a server push.
type Event map[string]any

func (h *Hub) NewTicket(data Event) {
	h.Emit(RoomDashboard, "new_ticket", data)
}

func (h *Hub) NewReply(ticketID string, data Event) {
	h.Emit(service.TicketRoom(ticketID), "new_reply", data)
}

func (h *Hub) TicketUpdated(ticketID string, data Event) {
	h.Emit(service.TicketRoom(ticketID), "ticket_updated", data)
	h.Emit(RoomDashboard, "ticket_updated", data)
}

func (h *Hub) ReplySent(ticketID string, data Event) {
	h.Emit(service.TicketRoom(ticketID), "reply_sent", data)
}

func (h *Hub) StatusChanged(ticketID string, data Event) {
	h.Emit(RoomDashboard, "ticket_status_changed", data)
	h.Emit(service.TicketRoom(ticketID), "ticket_status_changed", data)
	h.Emit(RoomDashboard, "ticket_updated", Event{
		"ticket_id":   ticketID,
		"status":      data["new_status"],
		"update_type": "status",
	})
}

func (h *Hub) PriorityChanged(ticketID string, data Event) {
	h.Emit(RoomDashboard, "ticket_priority_changed", data)
	h.Emit(service.TicketRoom(ticketID), "ticket_priority_changed", data)
	h.Emit(RoomDashboard, "ticket_updated", Event{
		"ticket_id":   ticketID,
		"priority":    data["new_priority"],
		"update_type": "priority",
	})
}

func (h *Hub) TechnicianAssigned(ticketID string, data Event) {
	h.Emit(RoomDashboard, "technician_assigned", data)
	h.Emit(service.TicketRoom(ticketID), "technician_assigned", data)
}

// TicketForwarded also notifies the recipient's personal room.
func (h *Hub) TicketForwarded(ticketID string, data Event) {
	h.Emit(RoomDashboard, "ticket_forwarded", data)
	h.Emit(service.TicketRoom(ticketID), "ticket_forwarded", data)
	if to, _ := data["forwarded_to_id"].(string); to != "" {
		h.Emit(service.UserRoom(to), "ticket_forwarded_to_you", data)
	}
	if referral, _ := data["is_tech_director_referral"].(bool); referral {
		h.Emit(service.RoleRoom(models.RoleTechDirector), "ticket_referred", data)
	}
}

// TicketTakenOver tells the previous assignee the ticket moved away from them.
func (h *Hub) TicketTakenOver(ticketID string, data Event) {
	h.Emit(RoomDashboard, "ticket_taken_over", data)
	h.Emit(service.TicketRoom(ticketID), "ticket_taken_over", data)
	if prev, _ := data["previous_assignee_id"].(string); prev != "" {
		h.Emit(service.UserRoom(prev), "ticket_reassigned", data)
	}
}

func (h *Hub) TicketBookmarked(ticketID string, data Event) {
	h.Emit(RoomDashboard, "ticket_bookmarked", data)
	h.Emit(service.TicketRoom(ticketID), "ticket_bookmarked", data)
}

func (h *Hub) TechDirectorReferral(ticketID string, data Event) {
	h.Emit(service.RoleRoom(models.RoleTechDirector), "ticket_referred_to_director", data)
	if td, _ := data["tech_director_id"].(string); td != "" {
		h.Emit(service.UserRoom(td), "ticket_referred_to_you", data)
	}
	forwarded := make(Event, len(data)+2)
	for k, v := range data {
		forwarded[k] = v
	}
	forwarded["forwarded_to_name"] = "Technical Director"
	forwarded["is_tech_director_referral"] = true
	h.Emit(RoomDashboard, "ticket_forwarded", forwarded)
	h.Emit(service.TicketRoom(ticketID), "ticket_referred", data)
}
