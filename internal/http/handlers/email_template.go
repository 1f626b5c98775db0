package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
)

type templateAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	HasData     bool   `json:"has_data"`
	Data        string `json:"data,omitempty"`
	TicketIndex int    `json:"ticket_index"`
}

// @Summary Render an email template for a ticket
// @Tags replies
// @Produce json
// @Param type path string true "warranty_claim, technical_support, customer_service or draft"
// @Param ticket_id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Router /api/email-template/{type}/{ticket_id} [get]
func (h *Handler) EmailTemplate(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := h.Store.GetTicket(ctx, c.Param("ticket_id"))
	if err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	tpl, err := service.RenderEmailTemplate(c.Param("type"), t)
	if err != nil {
		h.Logger.Error().Err(err).Str("ticket_id", t.TicketID).Msg("render email template")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Failed to render template", nil)
		return
	}

	src := h.attachmentSource()
	atts := make([]templateAttachment, 0, len(t.Attachments))
	for i, att := range t.Attachments {
		ta := templateAttachment{Filename: att.DisplayName(), ContentType: att.ContentType, Size: int(att.Size), TicketIndex: i}
		if ta.ContentType == "" {
			ta.ContentType = att.MimeType
		}
		if content, err := service.AttachmentBytes(ctx, att, src); err == nil {
			ta.HasData = true
			ta.Data = encodeBase64(content.Data)
			ta.Size = len(content.Data)
			ta.ContentType = content.MimeType
		}
		atts = append(atts, ta)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"template": gin.H{
			"ticket_id":      tpl.TicketID,
			"subject":        tpl.Subject,
			"body":           tpl.Body,
			"attachments":    atts,
			"has_draft":      tpl.HasDraft,
			"content_source": tpl.ContentSource,
			"template_type":  tpl.TemplateType,
		},
	})
}
