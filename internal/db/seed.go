package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

type seedMember struct {
	UserID     string
	Name       string
	Role       string
	Password   string
	Email      string
	Department string
}

var defaultMembers = []seedMember{
	{UserID: "admin001", Name: "Admin", Role: models.RoleAdministrator, Password: "admin@123"},
	{
		UserID:     "marc001",
		Name:       "Marc (Technical Director)",
		Role:       models.RoleTechDirector,
		Password:   "tech@123",
		Email:      "marc@autoassistgroup.com",
		Department: "Technical",
	},
}

var defaultTechnicians = []models.Technician{
	{Name: "Ryan", Role: "Senior Technician", Email: "ryan@autoassistgroup.com"},
	{Name: "Declan", Role: "Technician", Email: "declan@autoassistgroup.com"},
	{Name: "Ross H", Role: "Lead Technician", Email: "ross.h@autoassistgroup.com"},
	{Name: "Ross K", Role: "Technician", Email: "ross.k@autoassistgroup.com"},
	{Name: "Ray", Role: "Senior Technician", Email: "ray@autoassistgroup.com"},
	{Name: "Craig", Role: "Technician", Email: "craig@autoassistgroup.com"},
	{Name: "Karl", Role: "Lead Technician", Email: "karl@autoassistgroup.com"},
	{Name: "Matthew", Role: "Technician", Email: "matthew@autoassistgroup.com"},
	{Name: "Lewis", Role: "Senior Technician", Email: "lewis@autoassistgroup.com"},
}

var defaultStatuses = []models.TicketStatus{
	{Name: "New", Color: "#f59e0b", Description: "Newly created ticket", Order: 1},
	{Name: "Form Sent", Color: "#3b82f6", Description: "Initial form sent to customer", Order: 2},
	{Name: "Awaiting Submission", Color: "#8b5cf6", Description: "Waiting for customer submission", Order: 3},
	{Name: "Under Review", Color: "#f59e0b", Description: "Ticket under review", Order: 4},
	{Name: "Info Requested", Color: "#06b6d4", Description: "Additional information requested", Order: 5},
	{Name: "Warranty Form Received", Color: "#10b981", Description: "Warranty form has been received", Order: 6},
	{Name: models.StatusReferredToTD, Color: "#8b5cf6", Description: "Escalated to technical director", Order: 7},
	{Name: "Approved - Revisit Booked", Color: "#10b981", Description: "Claim approved, revisit scheduled", Order: 8},
	{Name: "Declined - Not Covered", Color: "#ef4444", Description: "Claim declined, not under warranty", Order: 9},
	{Name: models.StatusClosed, Color: "#6b7280", Description: "Ticket resolved and closed", Order: 10},
}

var defaultRoles = []models.Role{
	{
		Name:        models.RoleAdministrator,
		Description: "Full system access with user management and configuration controls",
		Permissions: []string{"full_access", "user_management", "system_config", "ticket_management"},
		Level:       1,
		Color:       "#6366f1",
		IsDefault:   true,
	},
	{
		Name:        models.RoleTechDirector,
		Description: "Technical oversight with referred ticket review and assessment",
		Permissions: []string{"referred_tickets", "technical_assessment", "reports", "ticket_management"},
		Level:       2,
		Color:       "#f59e0b",
		IsDefault:   true,
	},
	{
		Name:        models.RoleUser,
		Description: "IT support team members with ticket management and technical assistance",
		Permissions: []string{"ticket_management", "it_support", "portal_assistance", "technical_help"},
		Level:       3,
		Color:       "#10b981",
		IsDefault:   true,
	},
}

// Seed inserts default members, technicians, statuses and roles that are missing.
func (s *Store) Seed(ctx context.Context) error {
	now := s.now()
	for _, sm := range defaultMembers {
		n, err := s.col(colMembers).CountDocuments(ctx, bson.M{"user_id": sm.UserID})
		if err != nil {
			return fmt.Errorf("check seed member %s: %w", sm.UserID, err)
		}
		if n > 0 {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(sm.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		m := models.Member{
			UserID:       sm.UserID,
			Name:         sm.Name,
			Role:         sm.Role,
			Email:        sm.Email,
			Department:   sm.Department,
			PasswordHash: string(hash),
			IsActive:     true,
			CreatedAt:    now,
		}
		if err := s.CreateMember(ctx, &m); err != nil {
			return fmt.Errorf("seed member %s: %w", sm.UserID, err)
		}
		s.logger.Info().Str("user_id", sm.UserID).Msg("seeded member")
	}

	if n, err := s.col(colTechnicians).CountDocuments(ctx, bson.M{}); err != nil {
		return err
	} else if n == 0 {
		for _, t := range defaultTechnicians {
			t.IsActive = true
			t.CreatedAt = now
			if _, err := s.col(colTechnicians).InsertOne(ctx, t); err != nil {
				return fmt.Errorf("seed technician %s: %w", t.Name, err)
			}
		}
		s.cache.Delete(cacheAllTechnicians)
		s.logger.Info().Int("count", len(defaultTechnicians)).Msg("seeded technicians")
	}

	if n, err := s.col(colStatuses).CountDocuments(ctx, bson.M{}); err != nil {
		return err
	} else if n == 0 {
		for _, st := range defaultStatuses {
			st.IsActive = true
			st.CreatedAt = now
			if _, err := s.col(colStatuses).InsertOne(ctx, st); err != nil {
				return fmt.Errorf("seed status %s: %w", st.Name, err)
			}
		}
		s.cache.Delete(cacheStatuses)
		s.logger.Info().Int("count", len(defaultStatuses)).Msg("seeded ticket statuses")
	}

	for _, r := range defaultRoles {
		n, err := s.col(colRoles).CountDocuments(ctx, bson.M{"name": r.Name})
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		r.CreatedAt = now
		if _, err := s.col(colRoles).InsertOne(ctx, r); err != nil {
			return fmt.Errorf("seed role %s: %w", r.Name, err)
		}
	}
	return nil
}
