package service

import (
	"context"
	"encoding/base64"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/storage"
)

var ErrAttachmentData = errors.New("Attachment data not available")

// minInlineData rejects placeholders that n8n sometimes sends instead of content.
const minInlineData = 10

var warrantyKeywords = []string{
	"warranty", "guarantee", "warrantee", "warrenty", "guarante", "garentee",
	"extended", "protection", "coverage", "service_plan", "service_contract",
	"maintenance_agreement", "care_plan", "support_plan", "repair_coverage",
	"product_protection", "extended_service", "service_warranty",
	"manufacturer_warranty", "factory_warranty", "vehicle_warranty",
	"bumper_to_bumper", "powertrain", "drivetrain", "comprehensive_coverage",
	"dpf", "diesel", "emission", "claim", "form", "customer",
	"repair", "service", "defect", "malfunction", "issue", "fault",
	"warranty_form", "warranty_claim", "claim_form", "service_form",
}

func DetectWarrantyForm(filename string) bool {
	if filename == "" {
		return false
	}
	lower := strings.ToLower(filename)
	for _, k := range warrantyKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func attachmentFromMap(m Payload) models.Attachment {
	att := models.Attachment{
		Filename:    m.Str("filename"),
		FileName:    m.Str("fileName"),
		Name:        m.Str("name"),
		FilePath:    m.Str("file_path"),
		ContentType: m.Str("content_type", "contentType", "mimeType"),
		MimeType:    m.Str("mime_type"),
		Data:        m.Str("data", "content"),
		FileData:    m.Str("fileData"),
		Type:        m.Str("type"),
		Ref:         m.Str("ref"),
		DocumentID:  m.Str("document_id"),
	}
	if att.Data == "" {
		if bin := m.Object("binary"); bin != nil {
			att.Data = bin.Str("data")
		}
	}
	if n, ok := m.Int("size"); ok {
		att.Size = int64(n)
	}
	if n, ok := m.Int("ticket_index"); ok {
		att.TicketIndex = &n
	}
	return att
}

// naturalLess orders keys like attachment2 before attachment10.
func naturalLess(a, b string) bool {
	pa, na, okA := splitNumericSuffix(a)
	pb, nb, okB := splitNumericSuffix(b)
	if okA && okB && pa == pb && na != nb {
		return na < nb
	}
	return a < b
}

func splitNumericSuffix(s string) (string, int, bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0, false
	}
	return s[:i], n, true
}

// NormalizeWebhookAttachments accepts the list or keyed-object shapes n8n sends.
func NormalizeWebhookAttachments(raw any) []models.Attachment {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return naturalLess(keys[i], keys[j]) })
		for _, k := range keys {
			items = append(items, v[k])
		}
	default:
		return []models.Attachment{}
	}

	out := make([]models.Attachment, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			att := attachmentFromMap(Payload(v))
			if att.Filename == "" {
				att.Filename = att.FileName
			}
			if att.Filename == "" {
				att.Filename = "attachment"
			}
			out = append(out, att)
		case string:
			out = append(out, models.Attachment{
				Filename:    "attachment.txt",
				ContentType: "text/plain",
				Data:        base64.StdEncoding.EncodeToString([]byte(v)),
				Type:        "file",
			})
		}
	}
	return out
}

// InlineBytes decodes the base64 payload carried on an attachment.
func InlineBytes(att models.Attachment) ([]byte, bool) {
	for _, enc := range []string{att.Data, att.FileData} {
		if enc == "" {
			continue
		}
		if b, err := storage.DecodeBase64(enc); err == nil && len(b) > 0 {
			return b, true
		}
	}
	return nil, false
}

// AttachmentSource loads attachment content kept outside the ticket document.
type AttachmentSource interface {
	ReadFile(path string) ([]byte, error)
	LoadDocument(ctx context.Context, id string) (data []byte, name, mimeType string, err error)
}

func documentRef(att models.Attachment) string {
	if att.DocumentID != "" {
		return att.DocumentID
	}
	if att.Ref != "" {
		return att.Ref
	}
	return ""
}

type ResolvedAttachment struct {
	Filename    string `json:"filename"`
	Data        string `json:"data"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
}

func resolved(name, mime string, raw []byte) ResolvedAttachment {
	if mime == "" {
		mime = storage.MimeType(name, raw)
	}
	return ResolvedAttachment{
		Filename:    name,
		Data:        base64.StdEncoding.EncodeToString(raw),
		ContentType: mime,
		Size:        len(raw),
	}
}

func contentTypeOf(att models.Attachment) string {
	if att.ContentType != "" {
		return att.ContentType
	}
	return att.MimeType
}

func resolveOne(ctx context.Context, att models.Attachment, ticket models.Ticket, src AttachmentSource, depth int) (ResolvedAttachment, bool) {
	name := att.DisplayName()
	if name == "" {
		name = "attachment"
	}
	if data := att.InlineData(); len(data) >= minInlineData {
		return ResolvedAttachment{Filename: name, Data: data, ContentType: contentTypeOf(att), Size: int(att.Size)}, true
	}
	if att.FilePath != "" && src != nil {
		if raw, err := src.ReadFile(att.FilePath); err == nil && len(raw) > 0 {
			return resolved(name, contentTypeOf(att), raw), true
		}
	}
	if ref := documentRef(att); ref != "" && src != nil {
		if raw, docName, mime, err := src.LoadDocument(ctx, ref); err == nil && len(raw) > 0 {
			if att.DisplayName() == "" && docName != "" {
				name = docName
			}
			return resolved(name, mime, raw), true
		}
	}
	if depth > 0 {
		return ResolvedAttachment{}, false
	}
	if att.TicketIndex != nil {
		idx := *att.TicketIndex
		if idx >= 0 && idx < len(ticket.Attachments) {
			if r, ok := resolveOne(ctx, ticket.Attachments[idx], ticket, src, depth+1); ok {
				r.Filename = name
				return r, true
			}
		}
	}
	for _, ta := range ticket.Attachments {
		if ta.DisplayName() == name {
			if r, ok := resolveOne(ctx, ta, ticket, src, depth+1); ok {
				return r, true
			}
		}
	}
	return ResolvedAttachment{}, false
}

// ResolveEmailAttachments turns requested attachments into base64 files ready to send.
// Items that cannot be resolved are skipped.
func ResolveEmailAttachments(ctx context.Context, requested []models.Attachment, ticket models.Ticket, src AttachmentSource) []ResolvedAttachment {
	out := make([]ResolvedAttachment, 0, len(requested))
	for _, att := range requested {
		if r, ok := resolveOne(ctx, att, ticket, src, 0); ok {
			out = append(out, r)
		}
	}
	return out
}

type AttachmentContent struct {
	Data     []byte
	Filename string
	MimeType string
}

// AttachmentBytes loads one attachment for download or preview.
func AttachmentBytes(ctx context.Context, att models.Attachment, src AttachmentSource) (AttachmentContent, error) {
	name := att.DisplayName()
	if name == "" {
		name = "attachment"
	}
	if ref := documentRef(att); ref != "" && src != nil {
		if raw, docName, mime, err := src.LoadDocument(ctx, ref); err == nil && len(raw) > 0 {
			if att.DisplayName() == "" && docName != "" {
				name = docName
			}
			return AttachmentContent{Data: raw, Filename: name, MimeType: firstNonEmpty(mime, storage.MimeType(name, raw))}, nil
		}
	}
	if att.FilePath != "" && src != nil {
		if raw, err := src.ReadFile(att.FilePath); err == nil {
			return AttachmentContent{Data: raw, Filename: name, MimeType: firstNonEmpty(contentTypeOf(att), storage.MimeType(name, raw))}, nil
		}
	}
	if raw, ok := InlineBytes(att); ok {
		return AttachmentContent{Data: raw, Filename: name, MimeType: firstNonEmpty(contentTypeOf(att), storage.MimeType(name, raw))}, nil
	}
	return AttachmentContent{}, ErrAttachmentData
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
