package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	ErrInUse     = errors.New("in use")
	ErrInvalidID = errors.New("invalid id")
)

type duplicateError struct {
	msg string
}

func (e *duplicateError) Error() string        { return e.msg }
func (e *duplicateError) Is(target error) bool { return target == ErrDuplicate }

func duplicate(msg string) error {
	return &duplicateError{msg: msg}
}

const (
	colTickets        = "tickets"
	colReplies        = "replies"
	colMembers        = "members"
	colAssignments    = "ticket_assignments"
	colTicketMetadata = "ticket_metadata"
	colTechnicians    = "technicians"
	colStatuses       = "ticket_statuses"
	colRoles          = "roles"
	colCommonDocs     = "common_documents"
	colCommonDocsMeta = "common_document_metadata"
	colClaimDocs      = "claim_documents"
	colSettings       = "settings"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	cache  *ttlCache
	logger zerolog.Logger
	now    func() time.Time
}

func New(ctx context.Context, uri, database string, logger zerolog.Logger) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetMinPoolSize(1).
		SetMaxConnIdleTime(45 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(5 * time.Second).
		SetHeartbeatInterval(30 * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true).
		SetWriteConcern(writeconcern.Majority()).
		SetReadPreference(readpref.PrimaryPreferred())

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{
		client: client,
		db:     client.Database(database),
		cache:  newTTLCache(),
		logger: logger.With().Str("component", "store").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Init prepares indexes, migrates legacy documents and seeds defaults.
func (s *Store) Init(ctx context.Context) error {
	if err := s.EnsureIndexes(ctx); err != nil {
		return err
	}
	if _, err := s.MigrateUnreadFlags(ctx); err != nil {
		return err
	}
	if _, err := s.MigrateReplySenders(ctx); err != nil {
		return err
	}
	return s.Seed(ctx)
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	desc := func(k string) bson.E { return bson.E{Key: k, Value: -1} }
	asc := func(k string) bson.E { return bson.E{Key: k, Value: 1} }

	collections := map[string][]mongo.IndexModel{
		colTickets: {
			{Keys: bson.D{asc("ticket_id")}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{asc("thread_id")}, Options: uniqueWhereString("thread_id")},
			{Keys: bson.D{asc("email"), asc("status")}},
			{Keys: bson.D{desc("created_at")}},
			{Keys: bson.D{asc("status"), asc("priority")}},
			{Keys: bson.D{desc("has_unread_reply"), desc("is_important"), desc("created_at")}},
			{Keys: bson.D{asc("has_warranty")}},
			{Keys: bson.D{asc("has_attachments")}},
			{Keys: bson.D{asc("warranty_forms_count")}},
			{Keys: bson.D{asc("total_attachments")}},
			{Keys: bson.D{asc("processing_method")}},
			{Keys: bson.D{asc("has_warranty"), desc("created_at")}},
			{Keys: bson.D{asc("has_attachments"), asc("status")}},
		},
		colMembers: {
			{Keys: bson.D{asc("user_id")}, Options: options.Index().SetUnique(true)},
		},
		colCommonDocs: {
			{Keys: bson.D{asc("name")}},
			{Keys: bson.D{asc("type")}},
			{Keys: bson.D{desc("created_at")}},
		},
		colCommonDocsMeta: {
			{Keys: bson.D{asc("document_id"), asc("key")}},
			{Keys: bson.D{asc("document_id")}},
		},
		colClaimDocs: {
			{Keys: bson.D{asc("ticket_id")}},
			{Keys: bson.D{asc("ticket_id"), asc("is_deleted")}},
			{Keys: bson.D{desc("uploaded_at")}},
		},
		colReplies: {
			{Keys: bson.D{asc("ticket_id"), asc("created_at")}},
		},
		colAssignments: {
			{Keys: bson.D{asc("ticket_id"), asc("member_id")}},
		},
		colTicketMetadata: {
			{Keys: bson.D{asc("ticket_id"), asc("key")}},
		},
		colTechnicians: {
			{Keys: bson.D{asc("email")}, Options: uniqueWhereString("email")},
		},
	}

	for name, models := range collections {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", name, err)
		}
	}
	return nil
}

// uniqueWhereString only constrains documents that carry the field.
func uniqueWhereString(field string) *options.IndexOptionsBuilder {
	return options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{field: bson.M{"$type": "string"}})
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// PurgeCache drops expired cache entries and returns how many were removed.
func (s *Store) PurgeCache() int {
	return s.cache.Purge(s.now())
}

// ParseObjectID converts a hex id, mapping malformed input to ErrInvalidID.
func ParseObjectID(hex string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("%w: %s", ErrInvalidID, hex)
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
