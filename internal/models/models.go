package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	RoleAdministrator = "Administrator"
	RoleTechDirector  = "Technical Director"
	RoleUser          = "User"

	StatusOpen           = "Open"
	StatusNew            = "New"
	StatusAssigned       = "Assigned"
	StatusInProgress     = "In Progress"
	StatusClosed         = "Closed"
	StatusDeleted        = "Deleted"
	StatusReferredToTD   = "Referred to Tech Director"
	StatusAwaitingReply  = "Waiting for Response"
	DefaultPriority      = "Medium"
	DefaultClassifcation = "General Inquiry"

	SenderAgent   = "agent"
	SenderWebhook = "webhook"
)

// Attachment is stored on tickets and replies. Only metadata is persisted for files
// written to disk; Data/FileData carry base64 for legacy and inline attachments.
type Attachment struct {
	Filename    string     `bson:"filename,omitempty" json:"filename,omitempty"`
	FileName    string     `bson:"fileName,omitempty" json:"fileName,omitempty"`
	Name        string     `bson:"name,omitempty" json:"name,omitempty"`
	FilePath    string     `bson:"file_path,omitempty" json:"file_path,omitempty"`
	MimeType    string     `bson:"mime_type,omitempty" json:"mime_type,omitempty"`
	ContentType string     `bson:"content_type,omitempty" json:"content_type,omitempty"`
	Size        int64      `bson:"size,omitempty" json:"size,omitempty"`
	Data        string     `bson:"data,omitempty" json:"data,omitempty"`
	FileData    string     `bson:"fileData,omitempty" json:"fileData,omitempty"`
	Type        string     `bson:"type,omitempty" json:"type,omitempty"`
	Ref         string     `bson:"ref,omitempty" json:"ref,omitempty"`
	DocumentID  string     `bson:"document_id,omitempty" json:"document_id,omitempty"`
	TicketIndex *int       `bson:"ticket_index,omitempty" json:"ticket_index,omitempty"`
	UploadedAt  *time.Time `bson:"uploaded_at,omitempty" json:"uploaded_at,omitempty"`
}

// DisplayName returns the first non-empty file name field.
func (a Attachment) DisplayName() string {
	for _, n := range []string{a.Filename, a.FileName, a.Name} {
		if n != "" {
			return n
		}
	}
	return ""
}

// InlineData returns the base64 payload carried on the attachment, if any.
func (a Attachment) InlineData() string {
	if a.Data != "" {
		return a.Data
	}
	return a.FileData
}

type MemberRef struct {
	ID         bson.ObjectID `bson:"_id" json:"_id"`
	Name       string        `bson:"name" json:"name"`
	Role       string        `bson:"role" json:"role"`
	Email      string        `bson:"email,omitempty" json:"email,omitempty"`
	UserID     string        `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Department string        `bson:"department,omitempty" json:"department,omitempty"`
}

type Ticket struct {
	ID                   bson.ObjectID  `bson:"_id,omitempty" json:"_id"`
	TicketID             string         `bson:"ticket_id" json:"ticket_id"`
	ThreadID             string         `bson:"thread_id,omitempty" json:"thread_id,omitempty"`
	ConversationID       string         `bson:"threadId,omitempty" json:"threadId,omitempty"`
	MessageID            string         `bson:"message_id,omitempty" json:"message_id,omitempty"`
	Email                string         `bson:"email" json:"email"`
	Name                 string         `bson:"name" json:"name"`
	Subject              string         `bson:"subject" json:"subject"`
	Body                 string         `bson:"body" json:"body"`
	Message              string         `bson:"message,omitempty" json:"message,omitempty"`
	Description          string         `bson:"description,omitempty" json:"description,omitempty"`
	Status               string         `bson:"status" json:"status"`
	Priority             string         `bson:"priority" json:"priority"`
	Classification       string         `bson:"classification,omitempty" json:"classification,omitempty"`
	Source               string         `bson:"source,omitempty" json:"source,omitempty"`
	CreationMethod       string         `bson:"creation_method,omitempty" json:"creation_method,omitempty"`
	EmailDate            string         `bson:"email_date,omitempty" json:"email_date,omitempty"`
	CustomerFirstName    string         `bson:"customer_first_name,omitempty" json:"customer_first_name,omitempty"`
	CustomerSurname      string         `bson:"customer_surname,omitempty" json:"customer_surname,omitempty"`
	CustomerTitle        string         `bson:"customer_title,omitempty" json:"customer_title,omitempty"`
	CustomerName         string         `bson:"customer_name,omitempty" json:"customer_name,omitempty"`
	Phone                string         `bson:"phone,omitempty" json:"phone,omitempty"`
	VehicleRegistration  string         `bson:"vehicle_registration,omitempty" json:"vehicle_registration,omitempty"`
	TypeOfClaim          string         `bson:"type_of_claim,omitempty" json:"type_of_claim,omitempty"`
	VHCLink              string         `bson:"vhc_link,omitempty" json:"vhc_link,omitempty"`
	ServiceDate          string         `bson:"service_date,omitempty" json:"service_date,omitempty"`
	ClaimDate            string         `bson:"claim_date,omitempty" json:"claim_date,omitempty"`
	Technician           string         `bson:"technician,omitempty" json:"technician,omitempty"`
	HasWarranty          bool           `bson:"has_warranty" json:"has_warranty"`
	HasAttachments       bool           `bson:"has_attachments" json:"has_attachments"`
	Attachments          []Attachment   `bson:"attachments,omitempty" json:"attachments,omitempty"`
	TotalAttachments     int            `bson:"total_attachments,omitempty" json:"total_attachments,omitempty"`
	WarrantyFormsCount   int            `bson:"warranty_forms_count,omitempty" json:"warranty_forms_count,omitempty"`
	AttachmentTotalSize  int64          `bson:"attachment_total_size,omitempty" json:"attachment_total_size,omitempty"`
	ProcessingMethod     string         `bson:"processing_method,omitempty" json:"processing_method,omitempty"`
	Draft                string         `bson:"draft,omitempty" json:"draft,omitempty"`
	N8NDraft             string         `bson:"n8n_draft,omitempty" json:"n8n_draft,omitempty"`
	DraftBody            string         `bson:"draft_body,omitempty" json:"draft_body,omitempty"`
	IsImportant          bool           `bson:"is_important" json:"is_important"`
	HasUnreadReply       bool           `bson:"has_unread_reply" json:"has_unread_reply"`
	LastReplyAt          *time.Time     `bson:"last_reply_at,omitempty" json:"last_reply_at,omitempty"`
	LastReplyBy          string         `bson:"last_reply_by,omitempty" json:"last_reply_by,omitempty"`
	IsForwarded          bool           `bson:"is_forwarded" json:"is_forwarded"`
	ForwardedBy          *bson.ObjectID `bson:"forwarded_by,omitempty" json:"forwarded_by,omitempty"`
	ForwardedTo          *bson.ObjectID `bson:"forwarded_to,omitempty" json:"forwarded_to,omitempty"`
	ForwardedAt          *time.Time     `bson:"forwarded_at,omitempty" json:"forwarded_at,omitempty"`
	ForwardingNote       string         `bson:"forwarding_note,omitempty" json:"forwarding_note,omitempty"`
	IsForwardedViewed    bool           `bson:"is_forwarded_viewed" json:"is_forwarded_viewed"`
	ForwardedViewedAt    *time.Time     `bson:"forwarded_viewed_at,omitempty" json:"forwarded_viewed_at,omitempty"`
	AssignedTo           *bson.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	AssignedBy           *bson.ObjectID `bson:"assigned_by,omitempty" json:"assigned_by,omitempty"`
	AssignedAt           *time.Time     `bson:"assigned_at,omitempty" json:"assigned_at,omitempty"`
	AssignedTechnician   string         `bson:"assigned_technician,omitempty" json:"assigned_technician,omitempty"`
	AssignedTechnicianID string         `bson:"assigned_technician_id,omitempty" json:"assigned_technician_id,omitempty"`
	ReferredToDirector   bool           `bson:"referred_to_director,omitempty" json:"referred_to_director,omitempty"`
	ReferredAt           *time.Time     `bson:"referred_at,omitempty" json:"referred_at,omitempty"`
	ReferredBy           string         `bson:"referred_by,omitempty" json:"referred_by,omitempty"`
	ClosedAt             *time.Time     `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
	ClosedBy             string         `bson:"closed_by,omitempty" json:"closed_by,omitempty"`
	OutcomeCategory      string         `bson:"outcome_category,omitempty" json:"outcome_category,omitempty"`
	OutcomeNotes         string         `bson:"outcome_notes,omitempty" json:"outcome_notes,omitempty"`
	RevisitCarriedOut    string         `bson:"revisit_carried_out,omitempty" json:"revisit_carried_out,omitempty"`
	CleanUnderWarranty   string         `bson:"clean_under_warranty,omitempty" json:"clean_under_warranty,omitempty"`
	RevisitDate          string         `bson:"revisit_date,omitempty" json:"revisit_date,omitempty"`
	RevisitTechnicianID  string         `bson:"revisit_technician_id,omitempty" json:"revisit_technician_id,omitempty"`
	RevisitReason        string         `bson:"revisit_reason,omitempty" json:"revisit_reason,omitempty"`
	IsDeleted            bool           `bson:"is_deleted,omitempty" json:"is_deleted,omitempty"`
	DeletedAt            *time.Time     `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	DeletedBy            string         `bson:"deleted_by,omitempty" json:"deleted_by,omitempty"`
	CreatedBy            string         `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedByID          string         `bson:"created_by_id,omitempty" json:"created_by_id,omitempty"`
	CreatedAt            time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `bson:"updated_at" json:"updated_at"`

	// Filled by aggregation lookups, never written back.
	Assignment          *Assignment `bson:"assignment,omitempty" json:"assignment,omitempty"`
	AssignedMember      *MemberRef  `bson:"assigned_member,omitempty" json:"assigned_member,omitempty"`
	ForwardedFromMember *MemberRef  `bson:"forwarded_from_member,omitempty" json:"forwarded_from_member,omitempty"`
	ForwardedToMember   *MemberRef  `bson:"forwarded_to_member,omitempty" json:"forwarded_to_member,omitempty"`
	TechnicianID        string      `bson:"technician_id,omitempty" json:"technician_id,omitempty"`
	TechnicianName      string      `bson:"technician_name,omitempty" json:"technician_name,omitempty"`
}

// CustomerDisplayName prefers the explicit customer name over the sender name.
func (t Ticket) CustomerDisplayName() string {
	if t.CustomerName != "" {
		return t.CustomerName
	}
	if t.Name != "" {
		return t.Name
	}
	return t.CustomerFirstName
}

type Reply struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	TicketID        string        `bson:"ticket_id" json:"ticket_id"`
	Message         string        `bson:"message" json:"message"`
	SenderName      string        `bson:"sender_name" json:"sender_name"`
	SenderID        string        `bson:"sender_id,omitempty" json:"sender_id,omitempty"`
	SenderType      string        `bson:"sender_type" json:"sender_type"`
	Sender          string        `bson:"sender,omitempty" json:"sender,omitempty"`
	Attachments     []Attachment  `bson:"attachments" json:"attachments"`
	IsEmailTemplate bool          `bson:"is_email_template,omitempty" json:"is_email_template,omitempty"`
	Subject         string        `bson:"subject,omitempty" json:"subject,omitempty"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
}

type Member struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID       string        `bson:"user_id" json:"user_id"`
	Name         string        `bson:"name" json:"name"`
	Role         string        `bson:"role" json:"role"`
	Email        string        `bson:"email,omitempty" json:"email,omitempty"`
	Gender       string        `bson:"gender,omitempty" json:"gender,omitempty"`
	Department   string        `bson:"department,omitempty" json:"department,omitempty"`
	PasswordHash string        `bson:"password_hash" json:"-"`
	IsActive     bool          `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    *time.Time    `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	DeletedAt    *time.Time    `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

type Assignment struct {
	ID            bson.ObjectID  `bson:"_id,omitempty" json:"_id"`
	TicketID      string         `bson:"ticket_id" json:"ticket_id"`
	MemberID      bson.ObjectID  `bson:"member_id" json:"member_id"`
	ForwardedFrom *bson.ObjectID `bson:"forwarded_from,omitempty" json:"forwarded_from,omitempty"`
	IsForwarded   bool           `bson:"is_forwarded" json:"is_forwarded"`
	Notes         string         `bson:"notes,omitempty" json:"notes,omitempty"`
	IsSeen        bool           `bson:"is_seen" json:"is_seen"`
	SeenAt        *time.Time     `bson:"seen_at" json:"seen_at"`
	AssignedAt    time.Time      `bson:"assigned_at" json:"assigned_at"`
}

type Technician struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name       string        `bson:"name" json:"name"`
	Role       string        `bson:"role" json:"role"`
	Email      string        `bson:"email,omitempty" json:"email,omitempty"`
	EmployeeID string        `bson:"employee_id" json:"employee_id"`
	IsActive   bool          `bson:"is_active" json:"is_active"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt  *time.Time    `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

type TicketStatus struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string        `bson:"name" json:"name"`
	Color       string        `bson:"color" json:"color"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Order       int           `bson:"order" json:"order"`
	IsActive    bool          `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   *time.Time    `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

type Role struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string        `bson:"name" json:"name"`
	Description string        `bson:"description,omitempty" json:"description"`
	Level       int           `bson:"level,omitempty" json:"level,omitempty"`
	Color       string        `bson:"color,omitempty" json:"color,omitempty"`
	Permissions []string      `bson:"permissions" json:"permissions"`
	IsDefault   bool          `bson:"is_default,omitempty" json:"is_default,omitempty"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   *time.Time    `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

type CommonDocument struct {
	ID            bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name          string        `bson:"name" json:"name"`
	Type          string        `bson:"type" json:"type"`
	Description   string        `bson:"description,omitempty" json:"description"`
	FileName      string        `bson:"file_name,omitempty" json:"file_name,omitempty"`
	FileSize      int64         `bson:"file_size,omitempty" json:"file_size"`
	FileType      string        `bson:"file_type,omitempty" json:"file_type,omitempty"`
	FileData      string        `bson:"file_data,omitempty" json:"-"`
	FileContent   string        `bson:"file_content,omitempty" json:"-"`
	FilePath      string        `bson:"file_path,omitempty" json:"-"`
	HasFileData   bool          `bson:"has_file_data" json:"has_file_data"`
	CreatedBy     string        `bson:"created_by" json:"created_by"`
	DownloadCount int           `bson:"download_count" json:"download_count"`
	IsActive      bool          `bson:"is_active" json:"is_active"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at" json:"updated_at"`
}

type ClaimDocument struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	TicketID    string        `bson:"ticket_id" json:"ticket_id"`
	FileName    string        `bson:"file_name" json:"file_name"`
	FileSize    int64         `bson:"file_size" json:"file_size"`
	FileType    string        `bson:"file_type" json:"file_type"`
	FilePath    string        `bson:"file_path,omitempty" json:"-"`
	FileData    string        `bson:"file_data,omitempty" json:"-"`
	Description string        `bson:"description" json:"description"`
	UploadedBy  string        `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt  time.Time     `bson:"uploaded_at" json:"uploaded_at"`
	IsDeleted   bool          `bson:"is_deleted" json:"-"`
	DeletedAt   *time.Time    `bson:"deleted_at,omitempty" json:"-"`
}

type TicketMetadata struct {
	TicketID  string    `bson:"ticket_id" json:"ticket_id"`
	Key       string    `bson:"key" json:"key"`
	Value     any       `bson:"value" json:"value"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ForwardedTicket is a ticket routed to a member, decorated for the inbox views.
type ForwardedTicket struct {
	Ticket            `bson:",inline"`
	FormattedDate     string `bson:"-" json:"formatted_date"`
	ForwardedDate     string `bson:"-" json:"forwarded_date"`
	ForwardedFromName string `bson:"-" json:"forwarded_from_name"`
	ForwardedFromRole string `bson:"-" json:"forwarded_from_role"`
	ForwardedToName   string `bson:"-" json:"forwarded_to_name"`
}

type TicketStats struct {
	StatusCounts    map[string]int `json:"status_counts"`
	Priorities      map[string]int `json:"priorities"`
	Classifications map[string]int `json:"classifications"`
	TotalTickets    int            `json:"total_tickets"`
}

type ClaimCounts struct {
	Total    int `bson:"total" json:"total"`
	Approved int `bson:"approved" json:"approved"`
	Declined int `bson:"declined" json:"declined"`
	Referred int `bson:"referred" json:"referred"`
}

type DashboardStats struct {
	Overdue      []Ticket    `json:"overdue"`
	OverdueCount int         `json:"overdue_count"`
	UnreadCount  int         `json:"unread_count"`
	Claims       ClaimCounts `json:"claims"`
}

type CountBucket struct {
	Key   any `bson:"_id" json:"key"`
	Count int `bson:"count" json:"count"`
}

type MonthlyTrend struct {
	Year          int `json:"year"`
	Month         int `json:"month"`
	Total         int `json:"total"`
	WarrantyCount int `json:"warranty_count"`
}

type WarrantyAnalytics struct {
	TotalTickets       int            `json:"total_tickets"`
	WarrantyTickets    int            `json:"warranty_tickets"`
	AttachmentTickets  int            `json:"attachment_tickets"`
	WarrantyPercentage float64        `json:"warranty_percentage"`
	AttachmentPercent  float64        `json:"attachment_percentage"`
	FormsDistribution  []CountBucket  `json:"forms_distribution"`
	ProcessingMethods  []MethodCount  `json:"processing_methods"`
	MonthlyTrend       []MonthlyTrend `json:"monthly_trend"`
	WarrantyByStatus   []CountBucket  `json:"warranty_by_status"`
}

type MethodCount struct {
	Method        string `bson:"_id" json:"method"`
	Count         int    `bson:"count" json:"count"`
	WarrantyCount int    `bson:"warranty_count" json:"warranty_count"`
}

type AttachmentAnalytics struct {
	TotalSize    int64         `json:"total_size"`
	AverageSize  float64       `json:"average_size"`
	MaxSize      int64         `json:"max_size"`
	TicketCount  int           `json:"ticket_count"`
	Distribution []CountBucket `json:"distribution"`
}

type TechnicianSummary struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	ByRole   map[string]int `json:"by_role"`
}
