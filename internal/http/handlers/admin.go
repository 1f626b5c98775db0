package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/auth"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/storage"
)

// bindValid decodes a JSON body and runs struct validation, writing the 400 itself.
func (h *Handler) bindValid(c *gin.Context, dst any, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return false
	}
	if err := h.Validator.Struct(dst); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg, err.Error())
		return false
	}
	return true
}

func (h *Handler) objectIDParam(c *gin.Context, what string) (bson.ObjectID, bool) {
	oid, err := db.ParseObjectID(c.Param("id"))
	if err != nil {
		h.storeError(c, err, what)
		return bson.ObjectID{}, false
	}
	return oid, true
}

// Members

type createMemberRequest struct {
	Name       string `json:"name" validate:"required"`
	UserID     string `json:"user_id" validate:"required"`
	Password   string `json:"password" validate:"required"`
	Role       string `json:"role" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Gender     string `json:"gender"`
	Department string `json:"department"`
}

func (h *Handler) ListMembers(c *gin.Context) {
	members, err := h.Store.ListMembers(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "members": members})
}

// @Summary Create a member
// @Tags admin
// @Accept json
// @Produce json
// @Success 201 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/members [post]
func (h *Handler) CreateMember(c *gin.Context) {
	var req createMemberRequest
	if !h.bindValid(c, &req, "Name, user ID, password and role are required") {
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Failed to hash password", nil)
		return
	}
	m := models.Member{
		UserID:       strings.TrimSpace(req.UserID),
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		Email:        req.Email,
		Gender:       req.Gender,
		Department:   req.Department,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    h.now(),
	}
	if err := h.Store.CreateMember(c.Request.Context(), &m); err != nil {
		h.storeError(c, err, "member")
		return
	}
	h.Logger.Info().Str("user_id", m.UserID).Str("role", m.Role).Str("by", actorName(c)).Msg("member created")
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Member created", "member": m})
}

func (h *Handler) GetMember(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "member")
	if !ok {
		return
	}
	m, err := h.Store.GetMember(c.Request.Context(), oid)
	if err != nil {
		h.storeError(c, err, "Member")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "member": m})
}

var memberFields = map[string]bool{
	"name": true, "user_id": true, "role": true, "email": true,
	"gender": true, "department": true, "is_active": true,
}

func (h *Handler) UpdateMember(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "member")
	if !ok {
		return
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	set := bson.M{}
	for k, v := range body {
		if memberFields[k] {
			set[k] = v
		}
	}
	if pw, _ := body["password"].(string); pw != "" {
		hash, err := auth.HashPassword(pw)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "INTERNAL", "Failed to hash password", nil)
			return
		}
		set["password_hash"] = hash
	}
	if len(set) == 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No fields to update", nil)
		return
	}
	if err := h.Store.UpdateMember(c.Request.Context(), oid, set); err != nil {
		h.storeError(c, err, "Member")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Member updated"})
}

func (h *Handler) DeleteMember(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "member")
	if !ok {
		return
	}
	if _, me := actor(c); me == oid {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "You cannot delete your own account", nil)
		return
	}
	if err := h.Store.DeactivateMember(c.Request.Context(), oid); err != nil {
		h.storeError(c, err, "Member")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Member deactivated"})
}

// Technicians

type technicianBody struct {
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role"`
	Email      string `json:"email" validate:"omitempty,email"`
	EmployeeID string `json:"employee_id"`
}

func (h *Handler) ListTechnicians(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		techs []models.Technician
		err   error
	)
	if c.Query("active") == "true" {
		techs, err = h.Store.ListActiveTechnicians(ctx)
	} else {
		techs, err = h.Store.ListTechnicians(ctx)
	}
	if err != nil {
		h.storeError(c, err, "technicians")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "technicians": techs})
}

func (h *Handler) TechnicianSummary(c *gin.Context) {
	sum, err := h.Store.TechnicianSummary(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "technicians")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": sum})
}

func (h *Handler) CreateTechnician(c *gin.Context) {
	var req technicianBody
	if !h.bindValid(c, &req, "Technician name is required") {
		return
	}
	if req.Role == "" {
		req.Role = "Technician"
	}
	t := models.Technician{
		Name:       strings.TrimSpace(req.Name),
		Role:       req.Role,
		Email:      req.Email,
		EmployeeID: req.EmployeeID,
	}
	if err := h.Store.CreateTechnician(c.Request.Context(), &t); err != nil {
		h.storeError(c, err, "technician")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Technician created", "technician": t})
}

func (h *Handler) UpdateTechnician(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "technician")
	if !ok {
		return
	}
	var req technicianBody
	if !h.bindValid(c, &req, "Technician name is required") {
		return
	}
	set := bson.M{"name": strings.TrimSpace(req.Name), "email": req.Email, "employee_id": req.EmployeeID}
	if req.Role != "" {
		set["role"] = req.Role
	}
	if err := h.Store.UpdateTechnician(c.Request.Context(), oid, set); err != nil {
		h.storeError(c, err, "Technician")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Technician updated"})
}

func (h *Handler) DeactivateTechnician(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "technician")
	if !ok {
		return
	}
	if err := h.Store.DeactivateTechnician(c.Request.Context(), oid); err != nil {
		h.storeError(c, err, "Technician")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Technician deactivated"})
}

func (h *Handler) ActivateTechnician(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "technician")
	if !ok {
		return
	}
	if err := h.Store.ActivateTechnician(c.Request.Context(), oid); err != nil {
		h.storeError(c, err, "Technician")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Technician activated"})
}

// Roles

type roleBody struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Level       int      `json:"level"`
	Color       string   `json:"color"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.Store.ListRoles(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "roles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "roles": roles})
}

func (h *Handler) CreateRole(c *gin.Context) {
	var req roleBody
	if !h.bindValid(c, &req, "Role name is required") {
		return
	}
	if req.Permissions == nil {
		req.Permissions = []string{}
	}
	r := models.Role{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Level:       req.Level,
		Color:       req.Color,
		Permissions: req.Permissions,
	}
	if err := h.Store.CreateRole(c.Request.Context(), &r); err != nil {
		h.storeError(c, err, "role")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Role created", "role": r})
}

func (h *Handler) UpdateRole(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "role")
	if !ok {
		return
	}
	var req roleBody
	if !h.bindValid(c, &req, "Role name is required") {
		return
	}
	set := bson.M{"name": strings.TrimSpace(req.Name), "description": req.Description, "level": req.Level, "color": req.Color}
	if req.Permissions != nil {
		set["permissions"] = req.Permissions
	}
	if err := h.Store.UpdateRole(c.Request.Context(), oid, set); err != nil {
		h.storeError(c, err, "Role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Role updated"})
}

// @Summary Delete a role
// @Tags admin
// @Produce json
// @Param id path string true "Role ID"
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/roles/{id} [delete]
func (h *Handler) DeleteRole(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "role")
	if !ok {
		return
	}
	if err := h.Store.DeleteRole(c.Request.Context(), oid); err != nil {
		h.storeError(c, err, "Role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Role deleted"})
}

// Statuses

type statusBody struct {
	Name        string `json:"name" validate:"required"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

func (h *Handler) ListStatuses(c *gin.Context) {
	statuses, err := h.Store.ListStatuses(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "statuses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "statuses": statuses})
}

func (h *Handler) CreateStatus(c *gin.Context) {
	var req statusBody
	if !h.bindValid(c, &req, "Status name is required") {
		return
	}
	if req.Color == "" {
		req.Color = "#6c757d"
	}
	st := models.TicketStatus{Name: strings.TrimSpace(req.Name), Color: req.Color, Description: req.Description}
	if err := h.Store.CreateStatus(c.Request.Context(), &st); err != nil {
		h.storeError(c, err, "status")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Status created", "status": st})
}

func (h *Handler) UpdateStatusDefinition(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "status")
	if !ok {
		return
	}
	var req statusBody
	if !h.bindValid(c, &req, "Status name is required") {
		return
	}
	set := bson.M{"name": strings.TrimSpace(req.Name), "description": req.Description}
	if req.Color != "" {
		set["color"] = req.Color
	}
	if err := h.Store.UpdateStatus(c.Request.Context(), oid, set); err != nil {
		h.storeError(c, err, "Status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status updated"})
}

func (h *Handler) DeleteStatusDefinition(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "status")
	if !ok {
		return
	}
	if err := h.Store.DeactivateStatus(c.Request.Context(), oid); err != nil {
		h.storeError(c, err, "Status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status deleted"})
}

// Settings

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.Store.SystemSettings(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": settings})
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || len(body) == 0 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Settings object required", nil)
		return
	}
	if err := h.Store.UpdateSystemSettings(c.Request.Context(), bson.M(body), actorName(c)); err != nil {
		h.storeError(c, err, "settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Settings updated"})
}

// Common documents

func (h *Handler) ListCommonDocuments(c *gin.Context) {
	docs, err := h.Store.ListCommonDocuments(c.Request.Context())
	if err != nil {
		h.storeError(c, err, "documents")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "documents": docs})
}

// @Summary Upload a common document
// @Tags documents
// @Accept mpfd
// @Produce json
// @Param file formData file true "Document"
// @Param name formData string true "Display name"
// @Success 201 {object} map[string]any
// @Router /api/common-documents [post]
func (h *Handler) UploadCommonDocument(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Document name is required", nil)
		return
	}
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
	doc := models.CommonDocument{
		Name:        name,
		Type:        c.DefaultPostForm("type", "form"),
		Description: c.PostForm("description"),
		FileName:    fh.Filename,
		FileSize:    int64(len(data)),
		FileType:    storage.MimeType(fh.Filename, data),
		FileData:    encodeBase64(data),
		CreatedBy:   actorName(c),
	}
	if h.Files != nil {
		saved, err := h.Files.SaveBytes("common_documents", "common", fh.Filename, data)
		if err != nil {
			h.Logger.Warn().Err(err).Str("file", fh.Filename).Msg("common document kept in database only")
		} else {
			doc.FilePath = saved.FilePath
		}
	}
	if err := db.ValidateDocumentIntegrity(doc); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	ctx := c.Request.Context()
	if err := h.Store.CreateCommonDocument(ctx, &doc); err != nil {
		h.storeError(c, err, "document")
		return
	}
	_ = h.Store.AddCommonDocumentMetadata(ctx, doc.ID, "original_filename", fh.Filename)
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Document uploaded", "document": doc})
}

func (h *Handler) GetCommonDocument(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "document")
	if !ok {
		return
	}
	doc, err := h.Store.GetCommonDocument(c.Request.Context(), oid)
	if err != nil {
		h.storeError(c, err, "Document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "document": doc})
}

type documentUpdate struct {
	Name        string `json:"name" validate:"required"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (h *Handler) UpdateCommonDocument(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "document")
	if !ok {
		return
	}
	var req documentUpdate
	if !h.bindValid(c, &req, "Document name is required") {
		return
	}
	set := bson.M{"name": req.Name, "description": req.Description}
	if req.Type != "" {
		set["type"] = req.Type
	}
	if err := h.Store.UpdateCommonDocument(c.Request.Context(), oid, set); err != nil {
		h.storeError(c, err, "Document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document updated"})
}

func (h *Handler) DeleteCommonDocument(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "document")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	doc, err := h.Store.GetCommonDocument(ctx, oid)
	if err != nil {
		h.storeError(c, err, "Document")
		return
	}
	if err := h.Store.DeleteCommonDocument(ctx, oid); err != nil {
		h.storeError(c, err, "Document")
		return
	}
	if doc.FilePath != "" && h.Files != nil {
		if err := h.Files.Remove(doc.FilePath); err != nil {
			h.Logger.Warn().Err(err).Str("path", doc.FilePath).Msg("failed to remove document file")
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document deleted"})
}

// @Summary Download a common document
// @Tags documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]any
// @Router /api/common-documents/{id}/download [get]
func (h *Handler) DownloadCommonDocument(c *gin.Context) {
	oid, ok := h.objectIDParam(c, "document")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	doc, err := h.Store.GetCommonDocument(ctx, oid)
	if err != nil {
		h.storeError(c, err, "Document")
		return
	}
	src := attachmentSource{store: h.Store, files: h.Files}
	payload, err := db.DocumentContent(doc, src)
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Document file data not available", nil)
		return
	}
	if doc.FileData == "" && doc.FilePath != "" {
		if err := h.Store.RepairDocument(ctx, oid, src); err != nil {
			h.Logger.Warn().Err(err).Str("document_id", oid.Hex()).Msg("document repair failed")
		}
	}
	if err := h.Store.IncrementDownload(ctx, oid); err != nil {
		h.Logger.Warn().Err(err).Str("document_id", oid.Hex()).Msg("failed to count download")
	}
	serveContent(c, service.AttachmentContent{Data: payload.Data, Filename: payload.FileName, MimeType: payload.MimeType}, false)
}
