package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/utils"
)

func forwardedToMatch(memberID bson.ObjectID) bson.M {
	return bson.M{
		"is_forwarded": true,
		"forwarded_to": bson.M{"$in": bson.A{memberID, memberID.Hex()}},
	}
}

// ForwardedTicketsTo lists tickets routed to a member, unseen first.
func (s *Store) ForwardedTicketsTo(ctx context.Context, memberID bson.ObjectID) ([]models.ForwardedTicket, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: forwardedToMatch(memberID)}}}
	pipeline = append(pipeline, normalizeRefStages()...)
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{
		{Key: "is_forwarded_viewed", Value: 1},
		{Key: "forwarded_at", Value: -1},
	}}})
	pipeline = append(pipeline, memberLookup("forwarded_by", "forwarded_from_member")...)
	pipeline = append(pipeline, memberLookup("forwarded_to", "forwarded_to_member")...)
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         colAssignments,
			"localField":   "ticket_id",
			"foreignField": "ticket_id",
			"as":           "assignment",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{"assignment": firstOf("assignment")}}},
	)

	cursor, err := s.col(colTickets).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate forwarded tickets: %w", err)
	}
	var tickets []models.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("decode forwarded tickets: %w", err)
	}
	out := make([]models.ForwardedTicket, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, decorateForwarded(t))
	}
	return out, nil
}

func decorateForwarded(t models.Ticket) models.ForwardedTicket {
	ft := models.ForwardedTicket{
		Ticket:            t,
		FormattedDate:     utils.FormatLondon(t.CreatedAt),
		ForwardedFromName: "Unknown",
		ForwardedFromRole: "Member",
		ForwardedToName:   "You",
	}
	if t.ForwardedAt != nil {
		ft.ForwardedDate = utils.FormatLondon(*t.ForwardedAt)
	}
	if m := t.ForwardedFromMember; m != nil {
		if m.Name != "" {
			ft.ForwardedFromName = m.Name
		}
		if m.Role != "" {
			ft.ForwardedFromRole = m.Role
		}
	}
	if m := t.ForwardedToMember; m != nil && m.Name != "" {
		ft.ForwardedToName = m.Name
	}
	return ft
}

// MarkForwardedViewed reports whether a forwarded ticket was newly marked as seen.
func (s *Store) MarkForwardedViewed(ctx context.Context, ticketID string, memberID bson.ObjectID) (bool, error) {
	filter := forwardedToMatch(memberID)
	filter["ticket_id"] = ticketID
	now := s.now()
	res, err := s.col(colTickets).UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"is_forwarded_viewed": true,
		"forwarded_viewed_at": now,
	}})
	if err != nil {
		return false, fmt.Errorf("mark forwarded viewed: %w", err)
	}
	return res.ModifiedCount > 0, nil
}
