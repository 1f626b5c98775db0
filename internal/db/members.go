package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

func (s *Store) GetMemberByUserID(ctx context.Context, userID string) (models.Member, error) {
	var m models.Member
	if err := s.col(colMembers).FindOne(ctx, bson.M{"user_id": userID}).Decode(&m); err != nil {
		return models.Member{}, notFound(err)
	}
	return m, nil
}

func (s *Store) GetMember(ctx context.Context, id bson.ObjectID) (models.Member, error) {
	key := cacheMemberPrefix + id.Hex()
	if v, ok := s.cache.Get(key, s.now()); ok {
		return v.(models.Member), nil
	}
	var m models.Member
	if err := s.col(colMembers).FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return models.Member{}, notFound(err)
	}
	s.cache.Set(key, m, ttlMember, s.now())
	return m, nil
}

func (s *Store) ListMembers(ctx context.Context) ([]models.Member, error) {
	if v, ok := s.cache.Get(cacheAllMembers, s.now()); ok {
		return v.([]models.Member), nil
	}
	cursor, err := s.col(colMembers).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	out := []models.Member{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode members: %w", err)
	}
	s.cache.Set(cacheAllMembers, out, ttlMembers, s.now())
	return out, nil
}

func (s *Store) invalidateMember(id bson.ObjectID) {
	s.cache.Delete(cacheAllMembers, cacheMemberPrefix+id.Hex())
}

func (s *Store) CreateMember(ctx context.Context, m *models.Member) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	res, err := s.col(colMembers).InsertOne(ctx, m)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicate("User ID already exists")
		}
		return fmt.Errorf("insert member: %w", err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		m.ID = oid
	}
	s.invalidateMember(m.ID)
	return nil
}

func (s *Store) UpdateMember(ctx context.Context, id bson.ObjectID, fields bson.M) error {
	set := bson.M{"updated_at": s.now()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := s.col(colMembers).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicate("User ID already exists")
		}
		return fmt.Errorf("update member: %w", err)
	}
	s.invalidateMember(id)
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateMember keeps the member document for history.
func (s *Store) DeactivateMember(ctx context.Context, id bson.ObjectID) error {
	now := s.now()
	return s.UpdateMember(ctx, id, bson.M{"is_active": false, "deleted_at": now})
}

func (s *Store) FindActiveMemberByRole(ctx context.Context, role string) (models.Member, error) {
	var m models.Member
	err := s.col(colMembers).FindOne(ctx, bson.M{
		"role":      role,
		"is_active": bson.M{"$ne": false},
	}).Decode(&m)
	if err != nil {
		return models.Member{}, notFound(err)
	}
	return m, nil
}

func (s *Store) CountMembersWithRole(ctx context.Context, role string) (int64, error) {
	return s.col(colMembers).CountDocuments(ctx, bson.M{"role": role})
}

// AssignTicket replaces any previous assignment of the ticket.
func (s *Store) AssignTicket(ctx context.Context, a *models.Assignment) error {
	if a.TicketID == "" || a.MemberID.IsZero() {
		return errors.New("ticket_id and member_id are required")
	}
	if err := s.RemoveAssignment(ctx, a.TicketID); err != nil {
		return err
	}
	now := s.now()
	a.AssignedAt = now
	if a.IsForwarded {
		a.IsSeen = false
		a.SeenAt = nil
	} else {
		a.IsSeen = true
		a.SeenAt = &now
	}
	res, err := s.col(colAssignments).InsertOne(ctx, a)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		a.ID = oid
	}
	return nil
}

func (s *Store) MarkAssignmentSeen(ctx context.Context, ticketID string, memberID bson.ObjectID) (bool, error) {
	res, err := s.col(colAssignments).UpdateOne(ctx,
		bson.M{"ticket_id": ticketID, "member_id": memberID, "is_seen": false},
		bson.M{"$set": bson.M{"is_seen": true, "seen_at": s.now()}},
	)
	if err != nil {
		return false, fmt.Errorf("mark assignment seen: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (s *Store) AssignmentForTicket(ctx context.Context, ticketID string) (models.Assignment, error) {
	var a models.Assignment
	err := s.col(colAssignments).FindOne(ctx, bson.M{"ticket_id": ticketID},
		options.FindOne().SetSort(bson.D{{Key: "assigned_at", Value: -1}})).Decode(&a)
	if err != nil {
		return models.Assignment{}, notFound(err)
	}
	return a, nil
}

func (s *Store) RemoveAssignment(ctx context.Context, ticketID string) error {
	if _, err := s.col(colAssignments).DeleteMany(ctx, bson.M{"ticket_id": ticketID}); err != nil {
		return fmt.Errorf("remove assignment: %w", err)
	}
	return nil
}
