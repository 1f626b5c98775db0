package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/storage"
)

const maxDocumentSize = 100 << 20

var ErrNoFileData = errors.New("no file data available")

// FileReader loads stored upload bytes by their recorded path.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// Common documents

func (s *Store) CreateCommonDocument(ctx context.Context, d *models.CommonDocument) error {
	now := s.now()
	if d.CreatedBy == "" {
		d.CreatedBy = "System"
	}
	d.DownloadCount = 0
	d.IsActive = true
	d.HasFileData = d.FileData != "" || d.FileContent != "" || d.FilePath != ""
	d.CreatedAt = now
	d.UpdatedAt = now
	res, err := s.col(colCommonDocs).InsertOne(ctx, d)
	if err != nil {
		return fmt.Errorf("insert common document: %w", err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		d.ID = oid
	}
	return nil
}

func (s *Store) ListCommonDocuments(ctx context.Context) ([]models.CommonDocument, error) {
	cursor, err := s.col(colCommonDocs).Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetProjection(bson.M{"file_data": 0, "file_content": 0}))
	if err != nil {
		return nil, fmt.Errorf("find common documents: %w", err)
	}
	out := []models.CommonDocument{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode common documents: %w", err)
	}
	return out, nil
}

func (s *Store) GetCommonDocument(ctx context.Context, id bson.ObjectID) (models.CommonDocument, error) {
	var d models.CommonDocument
	if err := s.col(colCommonDocs).FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return models.CommonDocument{}, notFound(err)
	}
	return d, nil
}

func (s *Store) UpdateCommonDocument(ctx context.Context, id bson.ObjectID, fields bson.M) error {
	set := bson.M{"updated_at": s.now()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := s.col(colCommonDocs).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update common document: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCommonDocument(ctx context.Context, id bson.ObjectID) error {
	res, err := s.col(colCommonDocs).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete common document: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, err = s.col(colCommonDocsMeta).DeleteMany(ctx, bson.M{"document_id": id})
	return err
}

func (s *Store) IncrementDownload(ctx context.Context, id bson.ObjectID) error {
	_, err := s.col(colCommonDocs).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"download_count": 1}})
	return err
}

type DocumentPayload struct {
	Data     []byte
	FileName string
	MimeType string
}

// DocumentContent prefers stored base64 over the on-disk copy.
func DocumentContent(d models.CommonDocument, files FileReader) (DocumentPayload, error) {
	name := d.FileName
	if name == "" {
		name = d.Name
	}
	var data []byte
	for _, encoded := range []string{d.FileData, d.FileContent} {
		if encoded == "" {
			continue
		}
		raw, err := storage.DecodeBase64(encoded)
		if err == nil && len(raw) > 0 {
			data = raw
			break
		}
	}
	if data == nil && d.FilePath != "" && files != nil {
		raw, err := files.ReadFile(d.FilePath)
		if err == nil && len(raw) > 0 {
			data = raw
		}
	}
	if data == nil {
		return DocumentPayload{}, ErrNoFileData
	}
	mime := d.FileType
	if mime == "" || mime == "application/octet-stream" {
		mime = storage.MimeType(name, data)
	}
	return DocumentPayload{Data: data, FileName: name, MimeType: mime}, nil
}

// ValidateDocumentIntegrity checks that a document carries usable, bounded content.
func ValidateDocumentIntegrity(d models.CommonDocument) error {
	encoded := d.FileData
	if encoded == "" {
		encoded = d.FileContent
	}
	if strings.TrimSpace(encoded) == "" && d.FilePath == "" {
		return ErrNoFileData
	}
	if encoded != "" {
		raw, err := storage.DecodeBase64(encoded)
		if err != nil {
			return fmt.Errorf("invalid base64 content: %w", err)
		}
		if len(raw) == 0 || len(raw) > maxDocumentSize {
			return fmt.Errorf("document size %d out of range", len(raw))
		}
	}
	return nil
}

// RepairDocument re-encodes the on-disk copy of a document into file_data.
func (s *Store) RepairDocument(ctx context.Context, id bson.ObjectID, files FileReader) error {
	d, err := s.GetCommonDocument(ctx, id)
	if err != nil {
		return err
	}
	if d.FilePath == "" {
		return ErrNoFileData
	}
	raw, err := files.ReadFile(d.FilePath)
	if err != nil {
		return fmt.Errorf("read document file: %w", err)
	}
	return s.UpdateCommonDocument(ctx, id, bson.M{
		"file_data":     base64.StdEncoding.EncodeToString(raw),
		"file_size":     int64(len(raw)),
		"has_file_data": true,
	})
}

// Claim documents

func (s *Store) ListClaimDocuments(ctx context.Context, ticketID string) ([]models.ClaimDocument, error) {
	cursor, err := s.col(colClaimDocs).Find(ctx,
		bson.M{"ticket_id": ticketID, "is_deleted": bson.M{"$ne": true}},
		options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}}).SetProjection(bson.M{"file_data": 0}))
	if err != nil {
		return nil, fmt.Errorf("find claim documents: %w", err)
	}
	out := []models.ClaimDocument{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode claim documents: %w", err)
	}
	return out, nil
}

func (s *Store) CreateClaimDocument(ctx context.Context, d *models.ClaimDocument) error {
	d.UploadedAt = s.now()
	d.IsDeleted = false
	res, err := s.col(colClaimDocs).InsertOne(ctx, d)
	if err != nil {
		return fmt.Errorf("insert claim document: %w", err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		d.ID = oid
	}
	return nil
}

func (s *Store) GetClaimDocument(ctx context.Context, ticketID string, id bson.ObjectID) (models.ClaimDocument, error) {
	var d models.ClaimDocument
	err := s.col(colClaimDocs).FindOne(ctx, bson.M{"_id": id, "ticket_id": ticketID, "is_deleted": bson.M{"$ne": true}}).Decode(&d)
	if err != nil {
		return models.ClaimDocument{}, notFound(err)
	}
	return d, nil
}

func (s *Store) SoftDeleteClaimDocument(ctx context.Context, ticketID string, id bson.ObjectID) error {
	res, err := s.col(colClaimDocs).UpdateOne(ctx,
		bson.M{"_id": id, "ticket_id": ticketID},
		bson.M{"$set": bson.M{"is_deleted": true, "deleted_at": s.now()}})
	if err != nil {
		return fmt.Errorf("delete claim document: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
