package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

var (
	defaultPriorities      = []string{"Urgent", "Fast", "High", "Medium", "Low"}
	defaultClassifications = []string{"Technical Issue", "Payment", "Support", "Warranty Claim", "Spam", "Account"}
)

func (s *Store) countBy(ctx context.Context, col, field string, match bson.M) ([]models.CountBucket, error) {
	pipeline := mongo.Pipeline{}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.M{"_id": 1}}},
	)
	cursor, err := s.col(col).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("group %s by %s: %w", col, field, err)
	}
	out := []models.CountBucket{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s buckets: %w", field, err)
	}
	return out, nil
}

func bucketsToMap(buckets []models.CountBucket, defaults []string) map[string]int {
	out := make(map[string]int, len(buckets)+len(defaults))
	for _, d := range defaults {
		out[d] = 0
	}
	for _, b := range buckets {
		key, ok := b.Key.(string)
		if !ok || key == "" {
			continue
		}
		out[key] += b.Count
	}
	return out
}

func (s *Store) TicketStats(ctx context.Context) (models.TicketStats, error) {
	statuses, err := s.countBy(ctx, colTickets, "status", nil)
	if err != nil {
		return models.TicketStats{}, err
	}
	priorities, err := s.countBy(ctx, colTickets, "priority", nil)
	if err != nil {
		return models.TicketStats{}, err
	}
	classes, err := s.countBy(ctx, colTickets, "classification", nil)
	if err != nil {
		return models.TicketStats{}, err
	}
	total, err := s.col(colTickets).CountDocuments(ctx, bson.M{})
	if err != nil {
		return models.TicketStats{}, err
	}
	return models.TicketStats{
		StatusCounts:    bucketsToMap(statuses, nil),
		Priorities:      bucketsToMap(priorities, defaultPriorities),
		Classifications: bucketsToMap(classes, defaultClassifications),
		TotalTickets:    int(total),
	}, nil
}

func overdueMatch(now time.Time) bson.M {
	return bson.M{
		"created_at": bson.M{"$lt": now.Add(-72 * time.Hour)},
		"status":     bson.M{"$nin": bson.A{"Resolved", models.StatusClosed}},
	}
}

func (s *Store) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	now := s.now()
	overdue, err := s.aggregateTickets(ctx, overdueMatch(now), bson.D{{Key: "created_at", Value: 1}}, 0, 50, false)
	if err != nil {
		return models.DashboardStats{}, err
	}
	overdueCount, err := s.col(colTickets).CountDocuments(ctx, overdueMatch(now))
	if err != nil {
		return models.DashboardStats{}, err
	}
	unread, err := s.col(colTickets).CountDocuments(ctx, bson.M{"has_unread_reply": true})
	if err != nil {
		return models.DashboardStats{}, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"total":    bson.M{"$sum": 1},
			"approved": statusRegexSum("Approved|Revisit"),
			"declined": statusRegexSum("Declined|Not Covered"),
			"referred": statusRegexSum("Referred"),
		}}},
	}
	cursor, err := s.col(colTickets).Aggregate(ctx, pipeline)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("claim facets: %w", err)
	}
	var claims []models.ClaimCounts
	if err := cursor.All(ctx, &claims); err != nil {
		return models.DashboardStats{}, fmt.Errorf("decode claim facets: %w", err)
	}
	out := models.DashboardStats{
		Overdue:      overdue,
		OverdueCount: int(overdueCount),
		UnreadCount:  int(unread),
	}
	if len(claims) > 0 {
		out.Claims = claims[0]
	}
	return out, nil
}

func statusRegexSum(pattern string) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{
		bson.M{"$regexMatch": bson.M{"input": bson.M{"$ifNull": bson.A{"$status", ""}}, "regex": pattern, "options": "i"}},
		1, 0,
	}}}
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(int(float64(part)/float64(total)*10000)) / 100
}

func (s *Store) WarrantyAnalytics(ctx context.Context) (models.WarrantyAnalytics, error) {
	tickets := s.col(colTickets)
	total, err := tickets.CountDocuments(ctx, bson.M{})
	if err != nil {
		return models.WarrantyAnalytics{}, err
	}
	warranty, err := tickets.CountDocuments(ctx, bson.M{"has_warranty": true})
	if err != nil {
		return models.WarrantyAnalytics{}, err
	}
	withAttachments, err := tickets.CountDocuments(ctx, bson.M{"has_attachments": true})
	if err != nil {
		return models.WarrantyAnalytics{}, err
	}
	forms, err := s.countBy(ctx, colTickets, "warranty_forms_count", bson.M{"has_warranty": true})
	if err != nil {
		return models.WarrantyAnalytics{}, err
	}
	byStatus, err := s.countBy(ctx, colTickets, "status", bson.M{"has_warranty": true})
	if err != nil {
		return models.WarrantyAnalytics{}, err
	}

	methodCursor, err := tickets.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":            bson.M{"$ifNull": bson.A{"$processing_method", "unknown"}},
			"count":          bson.M{"$sum": 1},
			"warranty_count": bson.M{"$sum": bson.M{"$cond": bson.A{"$has_warranty", 1, 0}}},
		}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	})
	if err != nil {
		return models.WarrantyAnalytics{}, fmt.Errorf("processing methods: %w", err)
	}
	methods := []models.MethodCount{}
	if err := methodCursor.All(ctx, &methods); err != nil {
		return models.WarrantyAnalytics{}, fmt.Errorf("decode processing methods: %w", err)
	}

	since := s.now().AddDate(-1, 0, 0)
	trendCursor, err := tickets.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":            bson.M{"year": bson.M{"$year": "$created_at"}, "month": bson.M{"$month": "$created_at"}},
			"total":          bson.M{"$sum": 1},
			"warranty_count": bson.M{"$sum": bson.M{"$cond": bson.A{"$has_warranty", 1, 0}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}}},
	})
	if err != nil {
		return models.WarrantyAnalytics{}, fmt.Errorf("monthly trend: %w", err)
	}
	var trendRows []struct {
		ID struct {
			Year  int `bson:"year"`
			Month int `bson:"month"`
		} `bson:"_id"`
		Total         int `bson:"total"`
		WarrantyCount int `bson:"warranty_count"`
	}
	if err := trendCursor.All(ctx, &trendRows); err != nil {
		return models.WarrantyAnalytics{}, fmt.Errorf("decode monthly trend: %w", err)
	}
	trend := make([]models.MonthlyTrend, 0, len(trendRows))
	for _, r := range trendRows {
		trend = append(trend, models.MonthlyTrend{Year: r.ID.Year, Month: r.ID.Month, Total: r.Total, WarrantyCount: r.WarrantyCount})
	}

	return models.WarrantyAnalytics{
		TotalTickets:       int(total),
		WarrantyTickets:    int(warranty),
		AttachmentTickets:  int(withAttachments),
		WarrantyPercentage: percent(int(warranty), int(total)),
		AttachmentPercent:  percent(int(withAttachments), int(total)),
		FormsDistribution:  forms,
		ProcessingMethods:  methods,
		MonthlyTrend:       trend,
		WarrantyByStatus:   byStatus,
	}, nil
}

func (s *Store) AttachmentAnalytics(ctx context.Context) (models.AttachmentAnalytics, error) {
	cursor, err := s.col(colTickets).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"has_attachments": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$attachment_total_size", 0}}},
			"avg":   bson.M{"$avg": bson.M{"$ifNull": bson.A{"$attachment_total_size", 0}}},
			"max":   bson.M{"$max": bson.M{"$ifNull": bson.A{"$attachment_total_size", 0}}},
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return models.AttachmentAnalytics{}, fmt.Errorf("attachment sizes: %w", err)
	}
	var rows []struct {
		Total float64 `bson:"total"`
		Avg   float64 `bson:"avg"`
		Max   float64 `bson:"max"`
		Count int     `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return models.AttachmentAnalytics{}, fmt.Errorf("decode attachment sizes: %w", err)
	}
	dist, err := s.countBy(ctx, colTickets, "total_attachments", bson.M{"has_attachments": true})
	if err != nil {
		return models.AttachmentAnalytics{}, err
	}
	out := models.AttachmentAnalytics{Distribution: dist}
	if len(rows) > 0 {
		out.TotalSize = int64(rows[0].Total)
		out.AverageSize = rows[0].Avg
		out.MaxSize = int64(rows[0].Max)
		out.TicketCount = rows[0].Count
	}
	return out, nil
}
