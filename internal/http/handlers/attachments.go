package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/storage"
)

const maxUploadBytes = 100 << 20

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxUploadBytes {
		return nil, fmt.Errorf("%s exceeds upload limit", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
}

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// firstParam returns the first non-empty route param among names.
func firstParam(c *gin.Context, names ...string) string {
	for _, n := range names {
		if v := c.Param(n); v != "" {
			return v
		}
	}
	return ""
}

func serveContent(c *gin.Context, content service.AttachmentContent, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": content.Filename}))
	c.Header("Cache-Control", "private, max-age=300")
	mimeType := content.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	c.Data(http.StatusOK, mimeType, content.Data)
}

func attachmentIndex(c *gin.Context, attachments []models.Attachment) (models.Attachment, bool) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 || idx >= len(attachments) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Attachment not found", nil)
		return models.Attachment{}, false
	}
	return attachments[idx], true
}

func (h *Handler) serveAttachment(c *gin.Context, att models.Attachment, inline bool) {
	content, err := service.AttachmentBytes(c.Request.Context(), att, h.attachmentSource())
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Attachment data not available", nil)
		return
	}
	serveContent(c, content, inline)
}

func (h *Handler) ticketAttachment(c *gin.Context, inline bool) {
	id := firstParam(c, "id", "ticket_id")
	t, err := h.Store.GetTicket(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	att, ok := attachmentIndex(c, t.Attachments)
	if !ok {
		return
	}
	h.serveAttachment(c, att, inline)
}

// @Summary Download a ticket attachment
// @Tags attachments
// @Produce octet-stream
// @Param id path string true "Ticket ID"
// @Param idx path int true "Attachment index"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]any
// @Router /api/tickets/{id}/attachments/{idx}/download [get]
func (h *Handler) DownloadTicketAttachment(c *gin.Context) { h.ticketAttachment(c, false) }

func (h *Handler) PreviewTicketAttachment(c *gin.Context) { h.ticketAttachment(c, true) }

func (h *Handler) serveReplyAttachment(c *gin.Context, inline bool) {
	oid, err := db.ParseObjectID(c.Param("reply_id"))
	if err != nil {
		h.storeError(c, err, "reply")
		return
	}
	r, err := h.Store.GetReply(c.Request.Context(), oid)
	if err != nil {
		h.storeError(c, err, "Reply")
		return
	}
	att, ok := attachmentIndex(c, r.Attachments)
	if !ok {
		return
	}
	h.serveAttachment(c, att, inline)
}

func (h *Handler) DownloadReplyAttachment(c *gin.Context) { h.serveReplyAttachment(c, false) }

func (h *Handler) PreviewReplyAttachment(c *gin.Context) { h.serveReplyAttachment(c, true) }

// Claim documents

func (h *Handler) ListClaimDocuments(c *gin.Context) {
	docs, err := h.Store.ListClaimDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "claim documents")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "documents": docs, "count": len(docs)})
}

// @Summary Upload a claim document
// @Tags tickets
// @Accept mpfd
// @Produce json
// @Param id path string true "Ticket ID"
// @Param file formData file true "Document"
// @Success 201 {object} map[string]any
// @Router /api/tickets/{id}/claim-documents [post]
func (h *Handler) UploadClaimDocument(c *gin.Context) {
	id := c.Param("id")
	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No file provided", nil)
		return
	}
	if !storage.AllowedFile(fh.Filename) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "File type not allowed", nil)
		return
	}
	data, err := readUpload(fh)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	ctx := c.Request.Context()
	exists, err := h.Store.TicketExists(ctx, id)
	if err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	if !exists {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		return
	}

	doc := models.ClaimDocument{
		TicketID:    id,
		FileName:    fh.Filename,
		FileSize:    int64(len(data)),
		FileType:    storage.MimeType(fh.Filename, data),
		Description: strings.TrimSpace(c.PostForm("description")),
		UploadedBy:  actorName(c),
		UploadedAt:  h.now(),
	}
	if h.Files != nil {
		saved, err := h.Files.SaveBytes("claim_docs", "claim_"+storage.SafeFilename(id), fh.Filename, data)
		if err != nil {
			h.Logger.Error().Err(err).Str("ticket_id", id).Msg("failed to save claim document")
			writeError(c, http.StatusInternalServerError, "INTERNAL", "Failed to save file", nil)
			return
		}
		doc.FilePath = saved.FilePath
	} else {
		doc.FileData = encodeBase64(data)
	}
	if err := h.Store.CreateClaimDocument(ctx, &doc); err != nil {
		h.storeError(c, err, "claim document")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Document uploaded", "document": doc})
}

func (h *Handler) DeleteClaimDocument(c *gin.Context) {
	oid, err := db.ParseObjectID(c.Param("doc_id"))
	if err != nil {
		h.storeError(c, err, "document")
		return
	}
	if err := h.Store.SoftDeleteClaimDocument(c.Request.Context(), c.Param("id"), oid); err != nil {
		h.storeError(c, err, "Document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document deleted"})
}

func (h *Handler) DownloadClaimDocument(c *gin.Context) {
	oid, err := db.ParseObjectID(c.Param("doc_id"))
	if err != nil {
		h.storeError(c, err, "document")
		return
	}
	doc, err := h.Store.GetClaimDocument(c.Request.Context(), c.Param("id"), oid)
	if err != nil {
		h.storeError(c, err, "Document")
		return
	}
	h.serveAttachment(c, models.Attachment{
		Filename:    doc.FileName,
		FilePath:    doc.FilePath,
		FileData:    doc.FileData,
		ContentType: doc.FileType,
	}, false)
}
