package db

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

type TicketFilter struct {
	Status       string
	Priority     string
	Search       string
	ReferredOnly bool
	ExcludeIDs   []string
	Page         int
	PerPage      int
}

func activeFilterValue(v string) bool {
	return v != "" && !strings.EqualFold(v, "all")
}

func regexContains(q string) bson.Regex {
	return bson.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
}

func (f TicketFilter) match() bson.M {
	m := bson.M{}
	if f.ReferredOnly {
		m["status"] = bson.Regex{Pattern: "Referred", Options: "i"}
	} else if activeFilterValue(f.Status) {
		m["status"] = f.Status
	}
	if activeFilterValue(f.Priority) {
		m["priority"] = f.Priority
	}
	if len(f.ExcludeIDs) > 0 {
		m["ticket_id"] = bson.M{"$nin": f.ExcludeIDs}
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		rx := regexContains(q)
		m["$or"] = bson.A{
			bson.M{"ticket_id": rx},
			bson.M{"subject": rx},
			bson.M{"name": rx},
			bson.M{"email": rx},
		}
	}
	return m
}

func (f TicketFilter) window() (skip, limit int64) {
	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	return int64((page - 1) * perPage), int64(perPage)
}

var ticketListSort = bson.D{
	{Key: "is_important", Value: -1},
	{Key: "has_unread_reply", Value: -1},
	{Key: "created_at", Value: -1},
}

// normalizeRefStages coerces member references stored as hex strings into ObjectIDs.
func normalizeRefStages() []bson.D {
	conv := func(field string) bson.M {
		return bson.M{"$convert": bson.M{"input": "$" + field, "to": "objectId", "onError": nil, "onNull": nil}}
	}
	return []bson.D{{{Key: "$addFields", Value: bson.M{
		"forwarded_to": conv("forwarded_to"),
		"forwarded_by": conv("forwarded_by"),
		"assigned_to":  conv("assigned_to"),
		"assigned_by":  conv("assigned_by"),
	}}}}
}

func firstOf(field string) bson.M {
	return bson.M{"$arrayElemAt": bson.A{"$" + field, 0}}
}

func memberLookup(localField, as string) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         colMembers,
			"localField":   localField,
			"foreignField": "_id",
			"as":           as,
		}}},
		{{Key: "$addFields", Value: bson.M{as: firstOf(as)}}},
	}
}

func ticketLookupStages() []bson.D {
	stages := []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from": colAssignments,
			"let":  bson.M{"tid": "$ticket_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$ticket_id", "$$tid"}}}},
				bson.M{"$sort": bson.M{"assigned_at": -1}},
				bson.M{"$limit": 1},
			},
			"as": "assignment",
		}}},
		{{Key: "$addFields", Value: bson.M{"assignment": firstOf("assignment")}}},
	}
	stages = append(stages, memberLookup("assignment.member_id", "assigned_member")...)
	stages = append(stages, memberLookup("assignment.forwarded_from", "forwarded_from_member")...)
	stages = append(stages, memberLookup("forwarded_to", "forwarded_to_member")...)
	stages = append(stages, bson.D{{Key: "$lookup", Value: bson.M{
		"from":         colTicketMetadata,
		"localField":   "ticket_id",
		"foreignField": "ticket_id",
		"as":           "meta",
	}}})
	return stages
}

type ticketRow struct {
	models.Ticket `bson:",inline"`
	Meta          []models.TicketMetadata `bson:"meta,omitempty"`
}

func (r ticketRow) ticket() models.Ticket {
	t := r.Ticket
	for _, m := range r.Meta {
		v, _ := m.Value.(string)
		switch m.Key {
		case "technician_id":
			t.TechnicianID = v
		case "technician_name":
			t.TechnicianName = v
		}
	}
	return t
}

func (s *Store) aggregateTickets(ctx context.Context, match bson.M, sort bson.D, skip, limit int64, lookups bool) ([]models.Ticket, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline, normalizeRefStages()...)
	if len(sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: skip}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	if lookups {
		pipeline = append(pipeline, ticketLookupStages()...)
	}

	cursor, err := s.col(colTickets).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate tickets: %w", err)
	}
	var rows []ticketRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	out := make([]models.Ticket, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ticket())
	}
	return out, nil
}

func (s *Store) ListTickets(ctx context.Context, f TicketFilter) ([]models.Ticket, error) {
	skip, limit := f.window()
	return s.aggregateTickets(ctx, f.match(), ticketListSort, skip, limit, true)
}

func (s *Store) CountTickets(ctx context.Context, f TicketFilter) (int64, error) {
	return s.col(colTickets).CountDocuments(ctx, f.match())
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (models.Ticket, error) {
	out, err := s.aggregateTickets(ctx, bson.M{"ticket_id": ticketID}, nil, 0, 1, true)
	if err != nil {
		return models.Ticket{}, err
	}
	if len(out) == 0 {
		return models.Ticket{}, ErrNotFound
	}
	return out[0], nil
}

func (s *Store) TicketExists(ctx context.Context, ticketID string) (bool, error) {
	n, err := s.col(colTickets).CountDocuments(ctx, bson.M{"ticket_id": ticketID}, options.Count().SetLimit(1))
	return n > 0, err
}

func (s *Store) GetTicketByThread(ctx context.Context, threadID string) (models.Ticket, error) {
	out, err := s.aggregateTickets(ctx, bson.M{"thread_id": threadID}, nil, 0, 1, false)
	if err != nil {
		return models.Ticket{}, err
	}
	if len(out) == 0 {
		return models.Ticket{}, ErrNotFound
	}
	return out[0], nil
}

func (s *Store) CreateTicket(ctx context.Context, t *models.Ticket) error {
	now := s.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = models.StatusOpen
	}
	res, err := s.col(colTickets).InsertOne(ctx, t)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "thread_id") {
				return duplicate("Thread ID already exists")
			}
			return duplicate("Ticket ID already exists")
		}
		return fmt.Errorf("insert ticket: %w", err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		t.ID = oid
	}
	return nil
}

// UpdateTicket applies a $set and reports whether a ticket matched.
func (s *Store) UpdateTicket(ctx context.Context, ticketID string, fields bson.M) (bool, error) {
	set := bson.M{"updated_at": s.now()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := s.col(colTickets).UpdateOne(ctx, bson.M{"ticket_id": ticketID}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("update ticket: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) UpdateTicketWithUnset(ctx context.Context, ticketID string, set bson.M, unset ...string) (bool, error) {
	update := bson.M{}
	fields := bson.M{"updated_at": s.now()}
	for k, v := range set {
		fields[k] = v
	}
	update["$set"] = fields
	if len(unset) > 0 {
		u := bson.M{}
		for _, k := range unset {
			u[k] = ""
		}
		update["$unset"] = u
	}
	res, err := s.col(colTickets).UpdateOne(ctx, bson.M{"ticket_id": ticketID}, update)
	if err != nil {
		return false, fmt.Errorf("update ticket: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// DeleteTicket removes the ticket with its assignments, metadata and replies.
func (s *Store) DeleteTicket(ctx context.Context, ticketID string) error {
	res, err := s.col(colTickets).DeleteOne(ctx, bson.M{"ticket_id": ticketID})
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	for _, name := range []string{colAssignments, colTicketMetadata, colReplies} {
		if _, err := s.col(name).DeleteMany(ctx, bson.M{"ticket_id": ticketID}); err != nil {
			return fmt.Errorf("delete %s for ticket: %w", name, err)
		}
	}
	return nil
}

func (s *Store) BulkDeleteTickets(ctx context.Context, ticketIDs []string) (int64, error) {
	if len(ticketIDs) == 0 {
		return 0, nil
	}
	filter := bson.M{"ticket_id": bson.M{"$in": ticketIDs}}
	res, err := s.col(colTickets).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("bulk delete tickets: %w", err)
	}
	if _, err := s.col(colReplies).DeleteMany(ctx, filter); err != nil {
		return res.DeletedCount, fmt.Errorf("bulk delete replies: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) SoftDeleteTicket(ctx context.Context, ticketID, deletedBy string) (bool, error) {
	return s.UpdateTicket(ctx, ticketID, bson.M{
		"is_deleted": true,
		"deleted_at": s.now(),
		"deleted_by": deletedBy,
		"status":     models.StatusDeleted,
	})
}

func (s *Store) RestoreTicket(ctx context.Context, ticketID string) (bool, error) {
	return s.UpdateTicketWithUnset(ctx, ticketID, bson.M{
		"is_deleted": false,
		"status":     models.StatusOpen,
	}, "deleted_at", "deleted_by")
}

func (s *Store) ListDeletedTickets(ctx context.Context) ([]models.Ticket, error) {
	return s.aggregateTickets(ctx, bson.M{"is_deleted": true}, bson.D{{Key: "deleted_at", Value: -1}}, 0, 0, false)
}

type SearchFilter struct {
	Query          string
	Status         string
	Priority       string
	Classification string
}

func (f SearchFilter) match() bson.M {
	m := bson.M{}
	if q := strings.TrimSpace(f.Query); q != "" {
		rx := regexContains(q)
		m["$or"] = bson.A{
			bson.M{"ticket_id": rx},
			bson.M{"subject": rx},
			bson.M{"body": rx},
			bson.M{"name": rx},
			bson.M{"email": rx},
		}
	}
	if activeFilterValue(f.Status) {
		m["status"] = f.Status
	}
	if activeFilterValue(f.Priority) {
		m["priority"] = f.Priority
	}
	if activeFilterValue(f.Classification) {
		m["classification"] = f.Classification
	}
	return m
}

func (s *Store) SearchTickets(ctx context.Context, f SearchFilter) ([]models.Ticket, error) {
	return s.aggregateTickets(ctx, f.match(), bson.D{{Key: "created_at", Value: -1}}, 0, 1000, false)
}

func (s *Store) LatestTicketByEmail(ctx context.Context, email string) (models.Ticket, error) {
	out, err := s.aggregateTickets(ctx, bson.M{"email": email}, bson.D{{Key: "created_at", Value: -1}}, 0, 1, false)
	if err != nil {
		return models.Ticket{}, err
	}
	if len(out) == 0 {
		return models.Ticket{}, ErrNotFound
	}
	return out[0], nil
}

func (s *Store) CountForwardedBy(ctx context.Context, memberID bson.ObjectID) (int64, error) {
	return s.col(colTickets).CountDocuments(ctx, bson.M{
		"is_forwarded": true,
		"forwarded_by": bson.M{"$in": bson.A{memberID, memberID.Hex()}},
	})
}

type WarrantyUpdate struct {
	HasWarranty         bool
	HasAttachments      bool
	WarrantyFormsCount  int
	TotalAttachments    int
	AttachmentTotalSize int64
	ProcessingMethod    string
}

func (s *Store) UpdateWarrantyMetadata(ctx context.Context, ticketID string, w WarrantyUpdate) (bool, error) {
	method := w.ProcessingMethod
	if method == "" {
		method = "manual"
	}
	return s.UpdateTicket(ctx, ticketID, bson.M{
		"has_warranty":          w.HasWarranty,
		"has_attachments":       w.HasAttachments,
		"warranty_forms_count":  w.WarrantyFormsCount,
		"total_attachments":     w.TotalAttachments,
		"attachment_total_size": w.AttachmentTotalSize,
		"processing_method":     method,
		"warranty_updated_at":   s.now(),
	})
}

// MarkUnreadReply flags a ticket after a customer reply arrives.
func (s *Store) MarkUnreadReply(ctx context.Context, ticketID string, at time.Time) error {
	_, err := s.UpdateTicket(ctx, ticketID, bson.M{"has_unread_reply": true, "last_reply_at": at})
	return err
}
