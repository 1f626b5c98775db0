package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/http/middleware"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/metrics"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/realtime"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func ticketEvent(t models.Ticket) realtime.Event {
	return realtime.Event{
		"ticket_id":      t.TicketID,
		"subject":        t.Subject,
		"name":           t.Name,
		"email":          t.Email,
		"status":         t.Status,
		"priority":       t.Priority,
		"classification": t.Classification,
		"has_warranty":   t.HasWarranty,
		"created_at":     t.CreatedAt,
	}
}

// @Summary List tickets
// @Tags tickets
// @Produce json
// @Param page query int false "Page"
// @Param per_page query int false "Page size (max 100)"
// @Param status query string false "Status"
// @Param priority query string false "Priority"
// @Param search query string false "Free text"
// @Success 200 {object} map[string]any
// @Router /api/tickets [get]
func (h *Handler) ListTickets(c *gin.Context) {
	ctx := c.Request.Context()
	page := atoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	perPage := atoiDefault(c.Query("per_page"), defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	f := db.TicketFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		Page:     page,
		PerPage:  perPage,
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

	claims, me := actor(c)
	if middleware.IsAdmin(claims) && !me.IsZero() {
		forwarded, err := h.Store.ForwardedTicketsTo(ctx, me)
		if err != nil {
			h.Logger.Warn().Err(err).Msg("forwarded tickets for admin list")
		}
		seen := make(map[string]bool, len(tickets))
		for _, t := range tickets {
			seen[t.TicketID] = true
		}
		extra := make([]models.Ticket, 0, len(forwarded))
		for _, ft := range forwarded {
			if !seen[ft.TicketID] {
				seen[ft.TicketID] = true
				extra = append(extra, ft.Ticket)
			}
		}
		tickets = append(extra, tickets...)
		total += int64(len(extra))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tickets": tickets,
		"pagination": gin.H{
			"page":        page,
			"per_page":    perPage,
			"total":       total,
			"total_pages": (total + int64(perPage) - 1) / int64(perPage),
		},
	})
}

// createEmailTicket runs n8n intake and stores the ticket.
func (h *Handler) createEmailTicket(c *gin.Context) {
	raw, ok := readPayload(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "No JSON data received", nil)
		return
	}
	intake := service.IntakeService{Files: h.saver(), Logger: h.Logger, Now: h.Now}
	ticket, err := intake.ProcessEmailTicket(raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	ctx := c.Request.Context()
	if err := h.Store.CreateTicket(ctx, &ticket); err != nil {
		if errors.Is(err, db.ErrDuplicate) && ticket.ThreadID != "" && strings.Contains(err.Error(), "Thread") {
			existing, lookupErr := h.Store.GetTicketByThread(ctx, ticket.ThreadID)
			if lookupErr == nil {
				c.JSON(http.StatusOK, gin.H{
					"success":   true,
					"message":   "Ticket already exists",
					"ticket_id": existing.TicketID,
				})
				return
			}
		}
		h.storeError(c, err, "ticket")
		return
	}
	metrics.RecordTicketCreated(ticket.Source)
	h.Logger.Info().Str("ticket_id", ticket.TicketID).Int("attachments", len(ticket.Attachments)).Msg("email ticket created")
	h.emit(func(hub *realtime.Hub) { hub.NewTicket(ticketEvent(ticket)) })
	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"message":      "Ticket created successfully",
		"ticket_id":    ticket.TicketID,
		"has_warranty": ticket.HasWarranty,
		"attachments":  len(ticket.Attachments),
	})
}

// @Summary Create ticket from an n8n email
// @Tags tickets
// @Accept json
// @Produce json
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/tickets [post]
func (h *Handler) CreateTicket(c *gin.Context) {
	h.createEmailTicket(c)
}

// @Summary Create a ticket from the portal form
// @Tags tickets
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} map[string]any
// @Router /api/tickets/create [post]
func (h *Handler) CreateManualTicket(c *gin.Context) {
	subject := strings.TrimSpace(c.PostForm("subject"))
	body := strings.TrimSpace(c.PostForm("body"))
	description := strings.TrimSpace(c.PostForm("description"))
	if body == "" {
		body = description
	}
	if subject == "" || body == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Subject and description are required", nil)
		return
	}
	first := strings.TrimSpace(c.PostForm("customer_first_name"))
	surname := strings.TrimSpace(c.PostForm("customer_surname"))
	fullName := strings.TrimSpace(first + " " + surname)
	now := h.now()
	claims, _ := actor(c)

	ticket := models.Ticket{
		TicketID:            service.NewManualTicketID(),
		Subject:             subject,
		Body:                body,
		Description:         description,
		Name:                fullName,
		CustomerName:        fullName,
		CustomerFirstName:   first,
		CustomerSurname:     surname,
		CustomerTitle:       c.PostForm("customer_title"),
		Email:               strings.TrimSpace(c.PostForm("email")),
		Phone:               c.PostForm("phone"),
		VehicleRegistration: strings.ToUpper(strings.TrimSpace(c.PostForm("vehicle_registration"))),
		TypeOfClaim:         c.PostForm("type_of_claim"),
		VHCLink:             strings.TrimSpace(c.PostForm("vhc_link")),
		Priority:            c.DefaultPostForm("priority", models.DefaultPriority),
		Classification:      models.DefaultClassifcation,
		Status:              models.StatusNew,
		Source:              "manual",
		CreationMethod:      "api",
		ProcessingMethod:    "manual",
		Technician:          c.PostForm("technician"),
		CreatedAt:           now,
	}
	if claims != nil {
		ticket.CreatedBy = claims.Name
		ticket.CreatedByID = claims.MemberID
	}
	if ticket.Email != "" && !service.ValidEmail(ticket.Email) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid email address", nil)
		return
	}

	if form, err := c.MultipartForm(); err == nil && h.Files != nil {
		idx := 0
		for _, field := range []string{"dpf_report", "warranty_form", "other_attachments[]", "other_attachments"} {
			for _, fh := range form.File[field] {
				data, err := readUpload(fh)
				if err != nil || len(data) == 0 {
					continue
				}
				att, err := h.Files.SaveTicketAttachment(ticket.TicketID, "ui_"+fh.Filename, data, idx)
				if err != nil {
					h.Logger.Warn().Err(err).Str("file", fh.Filename).Msg("failed to save upload")
					continue
				}
				att.Filename = fh.Filename
				att.Type = field
				ticket.Attachments = append(ticket.Attachments, att)
				ticket.AttachmentTotalSize += att.Size
				if field == "warranty_form" || service.DetectWarrantyForm(fh.Filename) {
					ticket.HasWarranty = true
					ticket.WarrantyFormsCount++
				}
				idx++
			}
		}
	}
	ticket.TotalAttachments = len(ticket.Attachments)
	ticket.HasAttachments = ticket.TotalAttachments > 0

	if err := h.Store.CreateTicket(c.Request.Context(), &ticket); err != nil {
		h.storeError(c, err, "ticket")
		return
	}
	metrics.RecordTicketCreated(ticket.Source)
	h.emit(func(hub *realtime.Hub) { hub.NewTicket(ticketEvent(ticket)) })
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Ticket created successfully",
		"ticket_id": ticket.TicketID,
		"ticket":    ticket,
	})
}

// @Summary Search tickets
// @Tags tickets
// @Produce json
// @Param q query string false "Query"
// @Success 200 {object} map[string]any
// @Router /api/tickets/search [get]
func (h *Handler) SearchTickets(c *gin.Context) {
	tickets, err := h.Store.SearchTickets(c.Request.Context(), db.SearchFilter{
		Query:          c.Query("q"),
		Status:         c.Query("status"),
		Priority:       c.Query("priority"),
		Classification: c.Query("classification"),
	})
	if err != nil {
		h.storeError(c, err, "tickets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tickets": tickets, "count": len(tickets)})
}

func (h *Handler) DeletedTickets(c *gin.Context) {
	tickets, err := h.Store.ListDeletedTickets(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "tickets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tickets": tickets, "count": len(tickets)})
}

// loadTicket validates the :id param and fetches the ticket, writing the error response on failure.
func (h *Handler) loadTicket(c *gin.Context) (models.Ticket, bool) {
	id := c.Param("id")
	if !service.ValidTicketID(id) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid ticket id", nil)
		return models.Ticket{}, false
	}
	t, err := h.Store.GetTicket(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, "Ticket")
		return models.Ticket{}, false
	}
	return t, true
}

func (h *Handler) markTicketRead(c *gin.Context, t models.Ticket) {
	ctx := c.Request.Context()
	if t.HasUnreadReply {
		if _, err := h.Store.UpdateTicket(ctx, t.TicketID, bson.M{"has_unread_reply": false}); err != nil {
			h.Logger.Warn().Err(err).Str("ticket_id", t.TicketID).Msg("failed to clear unread flag")
		}
	}
	if _, me := actor(c); !me.IsZero() {
		if _, err := h.Store.MarkAssignmentSeen(ctx, t.TicketID, me); err != nil {
			h.Logger.Warn().Err(err).Str("ticket_id", t.TicketID).Msg("failed to mark assignment seen")
		}
	}
}

// @Summary Get a ticket
// @Tags tickets
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/tickets/{id} [get]
func (h *Handler) GetTicket(c *gin.Context) {
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	h.markTicketRead(c, t)
	resp := gin.H{"success": true, "ticket": t}
	if a, err := h.Store.AssignmentForTicket(c.Request.Context(), t.TicketID); err == nil {
		resp["assignment"] = a
	}
	c.JSON(http.StatusOK, resp)
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// @Summary Update ticket status
// @Tags tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Router /api/tickets/{id}/status [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Status is required", err.Error())
		return
	}
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	if _, err := h.Store.UpdateTicket(c.Request.Context(), t.TicketID, bson.M{"status": req.Status}); err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	h.emit(func(hub *realtime.Hub) {
		hub.StatusChanged(t.TicketID, realtime.Event{
			"ticket_id":  t.TicketID,
			"old_status": t.Status,
			"new_status": req.Status,
			"changed_by": actorName(c),
		})
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status updated", "status": req.Status})
}

func (h *Handler) CloseTicket(c *gin.Context) {
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	by := actorName(c)
	if _, err := h.Store.UpdateTicket(c.Request.Context(), t.TicketID, bson.M{
		"status":    models.StatusClosed,
		"closed_at": h.now(),
		"closed_by": by,
	}); err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	h.emit(func(hub *realtime.Hub) {
		hub.StatusChanged(t.TicketID, realtime.Event{
			"ticket_id":  t.TicketID,
			"old_status": t.Status,
			"new_status": models.StatusClosed,
			"changed_by": by,
		})
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Ticket closed"})
}

func (h *Handler) DeleteTicket(c *gin.Context) {
	id := c.Param("id")
	if err := h.Store.DeleteTicket(c.Request.Context(), id); err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	h.Logger.Info().Str("ticket_id", id).Str("by", actorName(c)).Msg("ticket deleted")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Ticket deleted"})
}

type bulkDeleteRequest struct {
	TicketIDs []string `json:"ticket_ids"`
}

func (h *Handler) BulkDeleteTickets(c *gin.Context) {
	var req bulkDeleteRequest
	_ = c.ShouldBindJSON(&req)
	if len(req.TicketIDs) == 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No ticket IDs provided", nil)
		return
	}
	n, err := h.Store.BulkDeleteTickets(c.Request.Context(), req.TicketIDs)
	if err != nil {
		h.storeError(c, err, "tickets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted_count": n})
}

func (h *Handler) SoftDeleteTicket(c *gin.Context) {
	ok, err := h.Store.SoftDeleteTicket(c.Request.Context(), c.Param("id"), actorName(c))
	if err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Ticket moved to deleted"})
}

func (h *Handler) RestoreTicket(c *gin.Context) {
	ok, err := h.Store.RestoreTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Ticket restored"})
}

type priorityRequest struct {
	Priority string `json:"priority" validate:"required"`
}

func (h *Handler) UpdatePriority(c *gin.Context) {
	var req priorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Priority is required", err.Error())
		return
	}
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	if _, err := h.Store.UpdateTicket(c.Request.Context(), t.TicketID, bson.M{"priority": req.Priority}); err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	h.emit(func(hub *realtime.Hub) {
		hub.PriorityChanged(t.TicketID, realtime.Event{
			"ticket_id":    t.TicketID,
			"old_priority": t.Priority,
			"new_priority": req.Priority,
			"changed_by":   actorName(c),
		})
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Priority updated", "priority": req.Priority})
}

type technicianRequest struct {
	TechnicianID string `json:"technician_id"`
}

func (h *Handler) AssignTechnician(c *gin.Context) {
	var req technicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if strings.TrimSpace(req.TechnicianID) == "" {
		if _, err := h.Store.UpdateTicketWithUnset(ctx, t.TicketID, bson.M{"status": models.StatusNew},
			"assigned_technician", "assigned_technician_id", "technician"); err != nil {
			h.storeError(c, err, "Ticket")
			return
		}
		for _, key := range []string{"technician_id", "technician_name"} {
			_ = h.Store.DeleteTicketMetadata(ctx, t.TicketID, key)
		}
		h.emit(func(hub *realtime.Hub) {
			hub.TechnicianAssigned(t.TicketID, realtime.Event{"ticket_id": t.TicketID, "technician_id": "", "technician_name": "", "status": models.StatusNew})
		})
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Technician unassigned", "status": models.StatusNew})
		return
	}

	var tech models.Technician
	var err error
	if oid, parseErr := db.ParseObjectID(req.TechnicianID); parseErr == nil {
		tech, err = h.Store.GetTechnician(ctx, oid)
	} else {
		tech, err = h.Store.GetTechnicianByName(ctx, strings.TrimSpace(req.TechnicianID))
	}
	if err != nil {
		h.storeError(c, err, "Technician")
		return
	}
	if _, err := h.Store.UpdateTicket(ctx, t.TicketID, bson.M{
		"assigned_technician":    tech.Name,
		"assigned_technician_id": tech.ID.Hex(),
		"technician":             tech.Name,
		"status":                 models.StatusAssigned,
	}); err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	_ = h.Store.SetTicketMetadata(ctx, t.TicketID, "technician_id", tech.ID.Hex())
	_ = h.Store.SetTicketMetadata(ctx, t.TicketID, "technician_name", tech.Name)
	h.emit(func(hub *realtime.Hub) {
		hub.TechnicianAssigned(t.TicketID, realtime.Event{
			"ticket_id":       t.TicketID,
			"technician_id":   tech.ID.Hex(),
			"technician_name": tech.Name,
			"status":          models.StatusAssigned,
		})
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Technician assigned", "technician_name": tech.Name, "status": models.StatusAssigned})
}

type assignRequest struct {
	IsForwarded bool   `json:"is_forwarded"`
	AssignedTo  string `json:"assigned_to"`
	Note        string `json:"note"`
}

// @Summary Forward or take over a ticket
// @Tags tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/tickets/{id}/assign [post]
func (h *Handler) AssignTicket(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if req.IsForwarded && strings.TrimSpace(req.AssignedTo) == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Target member required for forwarding", nil)
		return
	}
	claims, me := actor(c)
	if me.IsZero() {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	now := h.now()

	var change service.AssignmentChange
	var target models.Member
	if req.IsForwarded {
		to, err := db.ParseObjectID(req.AssignedTo)
		if err != nil {
			h.storeError(c, err, "member")
			return
		}
		if target, err = h.Store.GetMember(ctx, to); err != nil {
			h.storeError(c, err, "Member")
			return
		}
		change = service.BuildForward(t, me, to, req.Note, now)
	} else {
		change = service.BuildTakeover(t, me, now)
	}

	if _, err := h.Store.UpdateTicket(ctx, t.TicketID, change.Set); err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	if err := h.Store.AssignTicket(ctx, &change.Assignment); err != nil {
		h.storeError(c, err, "assignment")
		return
	}

	h.emit(func(hub *realtime.Hub) {
		if change.StatusChanged() {
			hub.StatusChanged(t.TicketID, realtime.Event{
				"ticket_id":  t.TicketID,
				"old_status": change.OldStatus,
				"new_status": change.NewStatus,
				"changed_by": claims.Name,
			})
		}
		if req.IsForwarded {
			hub.TicketForwarded(t.TicketID, realtime.Event{
				"ticket_id":                 t.TicketID,
				"subject":                   t.Subject,
				"forwarded_to_id":           target.ID.Hex(),
				"forwarded_to_name":         target.Name,
				"forwarded_by_id":           me.Hex(),
				"forwarded_by_name":         claims.Name,
				"note":                      req.Note,
				"is_tech_director_referral": service.IsTechDirectorRole(target.Role),
			})
			return
		}
		ev := realtime.Event{
			"ticket_id":     t.TicketID,
			"taken_by_id":   me.Hex(),
			"taken_by_name": claims.Name,
		}
		if change.PreviousAssignee != nil && *change.PreviousAssignee != me {
			ev["previous_assignee_id"] = change.PreviousAssignee.Hex()
		}
		hub.TicketTakenOver(t.TicketID, ev)
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": change.Message, "status": change.NewStatus})
}

// @Summary Refer a ticket to the Technical Director
// @Tags tickets
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/tickets/{id}/tech-director [post]
func (h *Handler) ReferTicket(c *gin.Context) {
	claims, me := actor(c)
	if me.IsZero() {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	director, err := h.Store.FindActiveMemberByRole(ctx, models.RoleTechDirector)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No Technical Director found", nil)
			return
		}
		h.storeError(c, err, "member")
		return
	}
	now := h.now()
	if _, err := h.Store.UpdateTicket(ctx, t.TicketID, service.BuildReferral(me, director.ID, now)); err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	from := me
	if err := h.Store.AssignTicket(ctx, &models.Assignment{
		TicketID:      t.TicketID,
		MemberID:      director.ID,
		ForwardedFrom: &from,
		IsForwarded:   true,
		Notes:         "Referred to Technical Director",
	}); err != nil {
		h.Logger.Warn().Err(err).Str("ticket_id", t.TicketID).Msg("referral assignment failed")
	}
	h.emit(func(hub *realtime.Hub) {
		hub.TechDirectorReferral(t.TicketID, realtime.Event{
			"ticket_id":          t.TicketID,
			"subject":            t.Subject,
			"priority":           t.Priority,
			"status":             models.StatusReferredToTD,
			"tech_director_id":   director.ID.Hex(),
			"tech_director_name": director.Name,
			"referred_by":        me.Hex(),
			"referred_by_name":   claims.Name,
			"referred_at":        now,
		})
	})
	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            "Ticket referred to Technical Director",
		"tech_director_name": director.Name,
		"status":             models.StatusReferredToTD,
	})
}

func (h *Handler) ToggleImportant(c *gin.Context) {
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	important := !t.IsImportant
	if _, err := h.Store.UpdateTicket(c.Request.Context(), t.TicketID, bson.M{"is_important": important}); err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	h.emit(func(hub *realtime.Hub) {
		hub.TicketBookmarked(t.TicketID, realtime.Event{"ticket_id": t.TicketID, "is_important": important})
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "is_important": important})
}

func (h *Handler) ReplyCount(c *gin.Context) {
	id := c.Param("id")
	n, err := h.Store.CountReplies(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, "replies")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket_id": id, "count": n})
}

func (h *Handler) ListReplies(c *gin.Context) {
	id := c.Param("id")
	replies, err := h.Store.RepliesFor(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, "replies")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket_id": id, "replies": replies})
}

var revisitFields = []string{"revisit_carried_out", "clean_under_warranty", "revisit_date", "revisit_technician_id", "revisit_reason"}

func yesNo(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return "1"
	}
	return "0"
}

func (h *Handler) UpdateOutcome(c *gin.Context) {
	category := strings.TrimSpace(c.PostForm("outcome_category"))
	if category == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Outcome category is required", nil)
		return
	}
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	set := bson.M{
		"outcome_category":   category,
		"outcome_notes":      c.PostForm("outcome_notes"),
		"outcome_updated_by": actorName(c),
	}
	var unset []string
	if category == "Revisit" {
		set["revisit_carried_out"] = yesNo(c.PostForm("revisit_carried_out"))
		set["clean_under_warranty"] = yesNo(c.PostForm("clean_under_warranty"))
		set["revisit_date"] = c.PostForm("revisit_date")
		set["revisit_technician_id"] = c.PostForm("revisit_technician_id")
		set["revisit_reason"] = c.PostForm("revisit_reason")
	} else {
		unset = revisitFields
	}
	if _, err := h.Store.UpdateTicketWithUnset(c.Request.Context(), t.TicketID, set, unset...); err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	h.emit(func(hub *realtime.Hub) {
		hub.TicketUpdated(t.TicketID, realtime.Event{"ticket_id": t.TicketID, "update_type": "outcome", "outcome_category": category})
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Outcome updated", "outcome_category": category})
}

func (h *Handler) MarkForwardedViewed(c *gin.Context) {
	_, me := actor(c)
	if me.IsZero() {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}
	id := c.Param("id")
	ctx := c.Request.Context()
	changed, err := h.Store.MarkForwardedViewed(ctx, id, me)
	if err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	if _, err := h.Store.MarkAssignmentSeen(ctx, id, me); err != nil {
		h.Logger.Warn().Err(err).Str("ticket_id", id).Msg("failed to mark assignment seen")
	}
	if !changed {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Ticket not forwarded to you or already viewed", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Marked as viewed"})
}

var vehicleFields = map[string]bool{
	"vehicle_registration": true,
	"vehicle_make":         true,
	"vehicle_model":        true,
	"vehicle_year":         true,
	"vin":                  true,
	"mileage":              true,
	"service_date":         true,
	"claim_date":           true,
	"type_of_claim":        true,
	"vhc_link":             true,
}

func (h *Handler) UpdateVehicleInfo(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	set := bson.M{}
	for k, v := range body {
		if vehicleFields[k] {
			set[k] = v
		}
	}
	if len(set) == 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No vehicle fields provided", nil)
		return
	}
	ok, err := h.Store.UpdateTicket(c.Request.Context(), c.Param("id"), set)
	if err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Vehicle information updated", "updated_fields": len(set)})
}

type warrantyRequest struct {
	HasWarranty         bool   `json:"has_warranty"`
	HasAttachments      bool   `json:"has_attachments"`
	WarrantyFormsCount  int    `json:"warranty_forms_count"`
	TotalAttachments    int    `json:"total_attachments"`
	AttachmentTotalSize int64  `json:"attachment_total_size"`
	ProcessingMethod    string `json:"processing_method"`
}

func (h *Handler) UpdateWarranty(c *gin.Context) {
	var req warrantyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	ok, err := h.Store.UpdateWarrantyMetadata(c.Request.Context(), c.Param("id"), db.WarrantyUpdate(req))
	if err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Warranty metadata updated"})
}

func (h *Handler) GetMetadata(c *gin.Context) {
	meta, err := h.Store.TicketMetadata(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "metadata")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "metadata": meta})
}

func (h *Handler) UpdateMetadata(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || len(body) == 0 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Metadata object required", nil)
		return
	}
	id := c.Param("id")
	ctx := c.Request.Context()
	for k, v := range body {
		if err := h.Store.SetTicketMetadata(ctx, id, k, v); err != nil {
			h.storeError(c, err, "metadata")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": len(body)})
}
