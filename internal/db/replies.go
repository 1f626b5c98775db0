package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

func (s *Store) CreateReply(ctx context.Context, r *models.Reply) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	if r.Attachments == nil {
		r.Attachments = []models.Attachment{}
	}
	res, err := s.col(colReplies).InsertOne(ctx, r)
	if err != nil {
		return fmt.Errorf("insert reply: %w", err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		r.ID = oid
	}
	return nil
}

func (s *Store) findReplies(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]models.Reply, error) {
	cursor, err := s.col(colReplies).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find replies: %w", err)
	}
	out := []models.Reply{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode replies: %w", err)
	}
	return out, nil
}

func (s *Store) RepliesFor(ctx context.Context, ticketID string) ([]models.Reply, error) {
	return s.findReplies(ctx, bson.M{"ticket_id": ticketID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (s *Store) GetReply(ctx context.Context, id bson.ObjectID) (models.Reply, error) {
	var r models.Reply
	if err := s.col(colReplies).FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.Reply{}, notFound(err)
	}
	return r, nil
}

func (s *Store) CountReplies(ctx context.Context, ticketID string) (int64, error) {
	return s.col(colReplies).CountDocuments(ctx, bson.M{"ticket_id": ticketID})
}

// ReplyExistsForTicket checks a reply id against a ticket. Malformed ids never match.
func (s *Store) ReplyExistsForTicket(ctx context.Context, replyID, ticketID string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(replyID)
	if err != nil {
		return false, nil
	}
	n, err := s.col(colReplies).CountDocuments(ctx, bson.M{"_id": oid, "ticket_id": ticketID})
	return n > 0, err
}

func (s *Store) RecentAgentReplies(ctx context.Context, ticketID string, since time.Time, limit int64) ([]models.Reply, error) {
	return s.findReplies(ctx, bson.M{
		"ticket_id":   ticketID,
		"sender_type": models.SenderAgent,
		"created_at":  bson.M{"$gte": since},
	}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
}

// RecentWebhookReply returns the newest customer reply since the given time
// that arrived without attachments.
func (s *Store) RecentWebhookReply(ctx context.Context, ticketID string, since time.Time) (models.Reply, error) {
	var r models.Reply
	err := s.col(colReplies).FindOne(ctx, bson.M{
		"ticket_id":   ticketID,
		"sender_type": models.SenderWebhook,
		"created_at":  bson.M{"$gte": since},
		"$or": bson.A{
			bson.M{"attachments": bson.M{"$exists": false}},
			bson.M{"attachments": bson.M{"$size": 0}},
		},
	}, options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})).Decode(&r)
	if err != nil {
		return models.Reply{}, notFound(err)
	}
	return r, nil
}

func (s *Store) UpdateReply(ctx context.Context, id bson.ObjectID, fields bson.M) error {
	res, err := s.col(colReplies).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update reply: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
