package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/utils"
)

// indexTicket is the row shape of the dashboard ticket table.
type indexTicket struct {
	TicketID          string `json:"ticket_id"`
	Subject           string `json:"subject"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Status            string `json:"status"`
	Priority          string `json:"priority"`
	Classification    string `json:"classification"`
	CreatedAt         string `json:"created_at"`
	FormattedDate     string `json:"formatted_date"`
	HasUnreadReply    bool   `json:"has_unread_reply"`
	IsImportant       bool   `json:"is_important"`
	IsForwarded       bool   `json:"is_forwarded"`
	ForwardedFromName string `json:"forwarded_from_name,omitempty"`
	ForwardedDate     string `json:"forwarded_date,omitempty"`
	TechnicianName    string `json:"technician_name"`
	HasWarranty       bool   `json:"has_warranty"`
	TotalAttachments  int    `json:"total_attachments"`
}

func toIndexTicket(t models.Ticket) indexTicket {
	tech := t.TechnicianName
	if tech == "" {
		tech = t.AssignedTechnician
	}
	if tech == "" {
		tech = t.Technician
	}
	total := t.TotalAttachments
	if total == 0 {
		total = len(t.Attachments)
	}
	created := ""
	if !t.CreatedAt.IsZero() {
		created = t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return indexTicket{
		TicketID:         t.TicketID,
		Subject:          t.Subject,
		Name:             t.CustomerDisplayName(),
		Email:            t.Email,
		Status:           t.Status,
		Priority:         t.Priority,
		Classification:   t.Classification,
		CreatedAt:        created,
		FormattedDate:    utils.FormatLondon(t.CreatedAt),
		HasUnreadReply:   t.HasUnreadReply,
		IsImportant:      t.IsImportant,
		IsForwarded:      t.IsForwarded,
		TechnicianName:   tech,
		HasWarranty:      t.HasWarranty,
		TotalAttachments: total,
	}
}

func forwardedIndexTicket(ft models.ForwardedTicket) indexTicket {
	row := toIndexTicket(ft.Ticket)
	row.IsForwarded = true
	row.ForwardedFromName = ft.ForwardedFromName
	row.ForwardedDate = ft.ForwardedDate
	return row
}

// filterForwarded applies the search box and priority filter to an in-memory inbox.
func filterForwarded(tickets []models.ForwardedTicket, search, priority string) []models.ForwardedTicket {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]models.ForwardedTicket, 0, len(tickets))
	for _, ft := range tickets {
		if priority != "" && !strings.EqualFold(priority, "all") && ft.Priority != priority {
			continue
		}
		if search != "" {
			hay := strings.ToLower(strings.Join([]string{ft.TicketID, ft.Subject, ft.Name, ft.Email}, " "))
			if !strings.Contains(hay, search) {
				continue
			}
		}
		out = append(out, ft)
	}
	return out
}

// @Summary Dashboard ticket index
// @Tags dashboard
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/index/tickets [get]
func (h *Handler) IndexTickets(c *gin.Context) {
	ctx := c.Request.Context()
	claims, me := actor(c)
	search, priority := c.Query("search"), c.Query("priority")

	var forwarded []models.ForwardedTicket
	if !me.IsZero() {
		var err error
		if forwarded, err = h.Store.ForwardedTicketsTo(ctx, me); err != nil {
			h.storeError(c, err, "tickets")
			return
		}
	}
	forwarded = filterForwarded(forwarded, search, priority)

	rows := make([]indexTicket, 0, len(forwarded))
	for _, ft := range forwarded {
		rows = append(rows, forwardedIndexTicket(ft))
	}

	if claims != nil && service.IsTechDirectorRole(claims.Role) {
		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"tickets":         rows,
			"total":           len(rows),
			"forwarded_count": len(rows),
		})
		return
	}

	exclude := make([]string, 0, len(forwarded))
	for _, ft := range forwarded {
		exclude = append(exclude, ft.TicketID)
	}
	page := atoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	perPage := atoiDefault(c.Query("per_page"), defaultPerPage)
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}
	f := db.TicketFilter{
		Status:     c.Query("status"),
		Priority:   priority,
		Search:     search,
		ExcludeIDs: exclude,
		Page:       page,
		PerPage:    perPage,
	}
	tickets, err := h.Store.ListTickets(ctx, f)
	if err != nil {
		h.storeError(c, err, "tickets")
		return
	}
	total, err := h.Store.CountTickets(ctx, f)
	if err != nil {
		h.storeError(c, err, "tickets")
		return
	}
	for _, t := range tickets {
		rows = append(rows, toIndexTicket(t))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"tickets":         rows,
		"total":           total + int64(len(forwarded)),
		"forwarded_count": len(forwarded),
		"page":            page,
		"per_page":        perPage,
	})
}

// @Summary Dashboard counters
// @Tags dashboard
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/dashboard/stats [get]
func (h *Handler) DashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.Store.TicketStats(ctx)
	if err != nil {
		h.storeError(c, err, "stats")
		return
	}
	facets, err := h.Store.DashboardStats(ctx)
	if err != nil {
		h.storeError(c, err, "stats")
		return
	}
	active := 0
	for status, n := range stats.StatusCounts {
		if status != models.StatusClosed && status != "Resolved" && status != models.StatusDeleted {
			active += n
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"total_tickets":   stats.TotalTickets,
		"active_tickets":  active,
		"waiting_tickets": stats.StatusCounts[models.StatusAwaitingReply],
		"status_counts":   stats.StatusCounts,
		"priorities":      stats.Priorities,
		"classifications": stats.Classifications,
		"overdue":         facets.Overdue,
		"overdue_count":   facets.OverdueCount,
		"unread_count":    facets.UnreadCount,
		"claims":          facets.Claims,
	})
}

func (h *Handler) TechDirectorDashboard(c *gin.Context) {
	claims, me := actor(c)
	if claims == nil || (!service.IsTechDirectorRole(claims.Role) && !service.IsAdminRole(claims.Role)) {
		writeError(c, http.StatusForbidden, "FORBIDDEN", "Technical Director access required", nil)
		return
	}
	ctx := c.Request.Context()
	referred, err := h.Store.ListTickets(ctx, db.TicketFilter{ReferredOnly: true, PerPage: maxPerPage, Page: 1})
	if err != nil {
		h.storeError(c, err, "tickets")
		return
	}
	total, err := h.Store.CountTickets(ctx, db.TicketFilter{ReferredOnly: true})
	if err != nil {
		h.storeError(c, err, "tickets")
		return
	}
	forwardedOut, err := h.Store.CountForwardedBy(ctx, me)
	if err != nil {
		h.storeError(c, err, "tickets")
		return
	}
	rows := make([]indexTicket, 0, len(referred))
	for _, t := range referred {
		rows = append(rows, toIndexTicket(t))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"tickets":             rows,
		"total_referred":      total,
		"forwarded_to_others": forwardedOut,
	})
}

func (h *Handler) WarrantyAnalytics(c *gin.Context) {
	out, err := h.Store.WarrantyAnalytics(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analytics": out})
}

func (h *Handler) AttachmentAnalytics(c *gin.Context) {
	out, err := h.Store.AttachmentAnalytics(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analytics": out})
}
