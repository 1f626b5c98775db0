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

func (s *Store) CreateTechnician(ctx context.Context, t *models.Technician) error {
	if t.Name == "" || t.Role == "" {
		return errors.New("name and role are required")
	}
	t.IsActive = true
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	res, err := s.col(colTechnicians).InsertOne(ctx, t)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicate("A technician with this email already exists")
		}
		return fmt.Errorf("insert technician: %w", err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		t.ID = oid
	}
	s.cache.Delete(cacheAllTechnicians)
	return nil
}

func (s *Store) UpdateTechnician(ctx context.Context, id bson.ObjectID, fields bson.M) error {
	set := bson.M{"updated_at": s.now()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := s.col(colTechnicians).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicate("A technician with this email already exists")
		}
		return fmt.Errorf("update technician: %w", err)
	}
	s.cache.Delete(cacheAllTechnicians)
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeactivateTechnician(ctx context.Context, id bson.ObjectID) error {
	return s.UpdateTechnician(ctx, id, bson.M{"is_active": false})
}

func (s *Store) ActivateTechnician(ctx context.Context, id bson.ObjectID) error {
	return s.UpdateTechnician(ctx, id, bson.M{"is_active": true})
}

func (s *Store) GetTechnician(ctx context.Context, id bson.ObjectID) (models.Technician, error) {
	var t models.Technician
	if err := s.col(colTechnicians).FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Technician{}, notFound(err)
	}
	return t, nil
}

func (s *Store) GetTechnicianByName(ctx context.Context, name string) (models.Technician, error) {
	var t models.Technician
	if err := s.col(colTechnicians).FindOne(ctx, bson.M{"name": name, "is_active": true}).Decode(&t); err != nil {
		return models.Technician{}, notFound(err)
	}
	return t, nil
}

func (s *Store) findTechnicians(ctx context.Context, filter bson.M) ([]models.Technician, error) {
	cursor, err := s.col(colTechnicians).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find technicians: %w", err)
	}
	out := []models.Technician{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode technicians: %w", err)
	}
	return out, nil
}

func (s *Store) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	if v, ok := s.cache.Get(cacheAllTechnicians, s.now()); ok {
		return v.([]models.Technician), nil
	}
	out, err := s.findTechnicians(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	s.cache.Set(cacheAllTechnicians, out, ttlTechnicians, s.now())
	return out, nil
}

func (s *Store) ListActiveTechnicians(ctx context.Context) ([]models.Technician, error) {
	return s.findTechnicians(ctx, bson.M{"is_active": true})
}

func (s *Store) TechnicianSummary(ctx context.Context) (models.TechnicianSummary, error) {
	all, err := s.ListTechnicians(ctx)
	if err != nil {
		return models.TechnicianSummary{}, err
	}
	return summarizeTechnicians(all), nil
}

func summarizeTechnicians(all []models.Technician) models.TechnicianSummary {
	sum := models.TechnicianSummary{Total: len(all), ByRole: map[string]int{}}
	for _, t := range all {
		if t.IsActive {
			sum.Active++
		} else {
			sum.Inactive++
		}
		sum.ByRole[t.Role]++
	}
	return sum
}
