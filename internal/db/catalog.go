package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

// Statuses

func (s *Store) ListStatuses(ctx context.Context) ([]models.TicketStatus, error) {
	if v, ok := s.cache.Get(cacheStatuses, s.now()); ok {
		return v.([]models.TicketStatus), nil
	}
	cursor, err := s.col(colStatuses).Find(ctx, bson.M{"is_active": true}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find statuses: %w", err)
	}
	out := []models.TicketStatus{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode statuses: %w", err)
	}
	s.cache.Set(cacheStatuses, out, ttlStatuses, s.now())
	return out, nil
}

func (s *Store) CreateStatus(ctx context.Context, st *models.TicketStatus) error {
	var last models.TicketStatus
	err := s.col(colStatuses).FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})).Decode(&last)
	if err != nil && err != mongo.ErrNoDocuments {
		return fmt.Errorf("find max status order: %w", err)
	}
	st.Order = last.Order + 1
	st.IsActive = true
	st.CreatedAt = s.now()
	res, err := s.col(colStatuses).InsertOne(ctx, st)
	if err != nil {
		return fmt.Errorf("insert status: %w", err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		st.ID = oid
	}
	s.cache.Delete(cacheStatuses)
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id bson.ObjectID, fields bson.M) error {
	set := bson.M{"updated_at": s.now()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := s.col(colStatuses).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	s.cache.Delete(cacheStatuses)
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeactivateStatus(ctx context.Context, id bson.ObjectID) error {
	return s.UpdateStatus(ctx, id, bson.M{"is_active": false})
}

// Roles

func (s *Store) ListRoles(ctx context.Context) ([]models.Role, error) {
	cursor, err := s.col(colRoles).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find roles: %w", err)
	}
	out := []models.Role{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	return out, nil
}

func (s *Store) GetRole(ctx context.Context, id bson.ObjectID) (models.Role, error) {
	var r models.Role
	if err := s.col(colRoles).FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.Role{}, notFound(err)
	}
	return r, nil
}

func (s *Store) CreateRole(ctx context.Context, r *models.Role) error {
	n, err := s.col(colRoles).CountDocuments(ctx, bson.M{"name": r.Name})
	if err != nil {
		return fmt.Errorf("check role name: %w", err)
	}
	if n > 0 {
		return duplicate("Role already exists")
	}
	if r.Permissions == nil {
		r.Permissions = []string{}
	}
	r.CreatedAt = s.now()
	res, err := s.col(colRoles).InsertOne(ctx, r)
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		r.ID = oid
	}
	return nil
}

func (s *Store) UpdateRole(ctx context.Context, id bson.ObjectID, fields bson.M) error {
	set := bson.M{"updated_at": s.now()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := s.col(colRoles).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRole refuses while members still hold the role.
func (s *Store) DeleteRole(ctx context.Context, id bson.ObjectID) error {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	inUse, err := s.CountMembersWithRole(ctx, role.Name)
	if err != nil {
		return fmt.Errorf("count members with role: %w", err)
	}
	if inUse > 0 {
		return fmt.Errorf("%w: role %q is assigned to %d member(s)", ErrInUse, role.Name, inUse)
	}
	_, err = s.col(colRoles).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Settings

func defaultSystemSettings() bson.M {
	return bson.M{"show_background": true, "updated_by": "system"}
}

func (s *Store) SystemSettings(ctx context.Context) (bson.M, error) {
	if v, ok := s.cache.Get(cacheSystemSettings, s.now()); ok {
		return v.(bson.M), nil
	}
	var doc bson.M
	err := s.col(colSettings).FindOne(ctx, bson.M{"_id": "system"}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		def := defaultSystemSettings()
		s.cache.Set(cacheSystemSettings, def, ttlSettingsFallback, s.now())
		return def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find settings: %w", err)
	}
	delete(doc, "_id")
	s.cache.Set(cacheSystemSettings, doc, ttlSettings, s.now())
	return doc, nil
}

func (s *Store) UpdateSystemSettings(ctx context.Context, fields bson.M, updatedBy string) error {
	set := bson.M{}
	for k, v := range fields {
		if k == "_id" {
			continue
		}
		set[k] = v
	}
	set["updated_by"] = updatedBy
	set["updated_at"] = s.now()
	_, err := s.col(colSettings).UpdateOne(ctx, bson.M{"_id": "system"}, bson.M{"$set": set}, options.UpdateOne().SetUpsert(true))
	s.cache.Delete(cacheSystemSettings)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// Ticket metadata

func (s *Store) SetTicketMetadata(ctx context.Context, ticketID, key string, value any) error {
	_, err := s.col(colTicketMetadata).UpdateOne(ctx,
		bson.M{"ticket_id": ticketID, "key": key},
		bson.M{"$set": bson.M{"value": value, "updated_at": s.now()}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set ticket metadata: %w", err)
	}
	return nil
}

func (s *Store) TicketMetadata(ctx context.Context, ticketID string) (map[string]any, error) {
	cursor, err := s.col(colTicketMetadata).Find(ctx, bson.M{"ticket_id": ticketID})
	if err != nil {
		return nil, fmt.Errorf("find ticket metadata: %w", err)
	}
	var rows []models.TicketMetadata
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode ticket metadata: %w", err)
	}
	out := make(map[string]any, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

func (s *Store) DeleteTicketMetadata(ctx context.Context, ticketID, key string) error {
	_, err := s.col(colTicketMetadata).DeleteOne(ctx, bson.M{"ticket_id": ticketID, "key": key})
	return err
}

func (s *Store) AddCommonDocumentMetadata(ctx context.Context, documentID bson.ObjectID, key string, value any) error {
	_, err := s.col(colCommonDocsMeta).UpdateOne(ctx,
		bson.M{"document_id": documentID, "key": key},
		bson.M{"$set": bson.M{"value": value, "updated_at": s.now()}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}
