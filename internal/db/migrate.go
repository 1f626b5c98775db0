package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MigrateUnreadFlags gives legacy tickets an explicit has_unread_reply=false.
func (s *Store) MigrateUnreadFlags(ctx context.Context) (int64, error) {
	res, err := s.col(colTickets).UpdateMany(ctx,
		bson.M{"has_unread_reply": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"has_unread_reply": false}},
	)
	if err != nil {
		return 0, fmt.Errorf("migrate unread flags: %w", err)
	}
	if res.ModifiedCount > 0 {
		s.logger.Info().Int64("tickets", res.ModifiedCount).Msg("migrated unread flags")
	}
	return res.ModifiedCount, nil
}

func (s *Store) MigrateReplySenders(ctx context.Context) (int64, error) {
	res, err := s.col(colReplies).UpdateMany(ctx,
		bson.M{"sender": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"sender": "support"}},
	)
	if err != nil {
		return 0, fmt.Errorf("migrate reply senders: %w", err)
	}
	if res.ModifiedCount > 0 {
		s.logger.Info().Int64("replies", res.ModifiedCount).Msg("migrated reply senders")
	}
	return res.ModifiedCount, nil
}
