package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/ai"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/auth"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/email"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/http/middleware"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/notify"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/realtime"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/storage"
)

type Handler struct {
	Store          *db.Store
	Files          *storage.Local
	Sessions       *auth.Sessions
	Hub            *realtime.Hub
	Notifier       *notify.Client
	Mailer         email.Sender
	AI             ai.Adapter
	Validator      *validator.Validate
	Logger         zerolog.Logger
	Env            string
	Version        string
	SessionRefresh time.Duration
	Now            func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// storeError maps store sentinels onto the HTTP error envelope.
func (h *Handler) storeError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", what+" not found", nil)
	case errors.Is(err, db.ErrDuplicate), errors.Is(err, db.ErrInUse):
		writeError(c, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, db.ErrInvalidID):
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid "+what+" id", err.Error())
	default:
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("store error")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Database error", err.Error())
	}
}

// actor returns the session claims and member ObjectID of the caller.
func actor(c *gin.Context) (*auth.Claims, bson.ObjectID) {
	claims := middleware.SessionClaims(c)
	if claims == nil {
		return nil, bson.ObjectID{}
	}
	oid, _ := bson.ObjectIDFromHex(claims.MemberID)
	return claims, oid
}

func actorName(c *gin.Context) string {
	if claims := middleware.SessionClaims(c); claims != nil && claims.Name != "" {
		return claims.Name
	}
	return "System"
}

// readPayload decodes any JSON body. ok is false for empty or malformed input.
func readPayload(c *gin.Context) (any, bool) {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func (h *Handler) saver() service.AttachmentSaver {
	if h.Files == nil {
		return nil
	}
	return h.Files
}

func (h *Handler) attachmentSource() service.AttachmentSource {
	return attachmentSource{store: h.Store, files: h.Files}
}

// attachmentSource loads attachment bytes from the upload folder and from
// common documents referenced by id.
type attachmentSource struct {
	store *db.Store
	files *storage.Local
}

func (a attachmentSource) ReadFile(path string) ([]byte, error) {
	if a.files == nil {
		return nil, storage.ErrOutsideRoot
	}
	return a.files.ReadFile(path)
}

func (a attachmentSource) LoadDocument(ctx context.Context, id string) ([]byte, string, string, error) {
	if a.store == nil {
		return nil, "", "", db.ErrNotFound
	}
	oid, err := db.ParseObjectID(id)
	if err != nil {
		return nil, "", "", err
	}
	doc, err := a.store.GetCommonDocument(ctx, oid)
	if err != nil {
		return nil, "", "", err
	}
	p, err := db.DocumentContent(doc, a)
	if err != nil {
		return nil, "", "", err
	}
	return p.Data, p.FileName, p.MimeType, nil
}

func (h *Handler) emit(fn func(*realtime.Hub)) {
	if h.Hub != nil {
		fn(h.Hub)
	}
}
