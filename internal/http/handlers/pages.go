package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/auth"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/http/middleware"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/utils"
)

//go:embed templates/*.html
var pageFS embed.FS

// PageTemplates parses the embedded HTML pages for gin's HTML renderer.
func PageTemplates() *template.Template {
	return template.Must(template.New("pages").
		Funcs(template.FuncMap{"londonTime": utils.FormatLondon}).
		ParseFS(pageFS, "templates/*.html"))
}

type pageData struct {
	Title   string
	Member  *auth.Claims
	Error   string
	Next    string
	Members []models.Member
	Tickets []models.Ticket
	Total   int64
	Ticket  *models.Ticket
	Replies []models.Reply
}

var loginRoles = map[string]string{
	"admin":         models.RoleAdministrator,
	"tech-director": models.RoleTechDirector,
	"user":          models.RoleUser,
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}

func (h *Handler) IndexPage(c *gin.Context) {
	if middleware.SessionClaims(c) != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.Redirect(http.StatusFound, "/portal")
}

func (h *Handler) PortalPage(c *gin.Context) {
	c.HTML(http.StatusOK, "portal.html", pageData{Title: "Portal", Member: middleware.SessionClaims(c)})
}

func (h *Handler) loginMembers(c *gin.Context, roleKey string) []models.Member {
	all, err := h.Store.ListMembers(c.Request.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to list members for login")
		return nil
	}
	role := loginRoles[roleKey]
	out := make([]models.Member, 0, len(all))
	for _, m := range all {
		if !m.IsActive {
			continue
		}
		if role != "" && !strings.EqualFold(m.Role, role) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", pageData{
		Title:   "Sign in",
		Next:    safeNext(c.Query("next")),
		Members: h.loginMembers(c, c.Query("role")),
	})
}

func (h *Handler) Login(c *gin.Context) {
	userID := strings.TrimSpace(c.PostForm("user_id"))
	password := c.PostForm("password")
	next := safeNext(c.PostForm("next"))

	fail := func(msg string) {
		c.HTML(http.StatusUnauthorized, "login.html", pageData{
			Title:   "Sign in",
			Error:   msg,
			Next:    next,
			Members: h.loginMembers(c, ""),
		})
	}
	if userID == "" || password == "" {
		fail("User ID and password are required")
		return
	}
	member, err := h.Store.GetMemberByUserID(c.Request.Context(), userID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			h.Logger.Error().Err(err).Msg("login lookup failed")
		}
		fail("Invalid credentials")
		return
	}
	if !member.IsActive || !auth.CheckPassword(member.PasswordHash, password) {
		fail("Invalid credentials")
		return
	}
	if _, err := h.issueSession(c, auth.Claims{
		MemberID: member.ID.Hex(),
		UserID:   member.UserID,
		Name:     member.Name,
		Role:     member.Role,
	}); err != nil {
		h.Logger.Error().Err(err).Msg("failed to issue session")
		fail("Could not start a session")
		return
	}
	h.Logger.Info().Str("user_id", member.UserID).Str("role", member.Role).Msg("member logged in")

	switch {
	case service.IsTechDirectorRole(member.Role):
		c.Redirect(http.StatusFound, "/tech-director-dashboard")
	case next != "":
		c.Redirect(http.StatusFound, next)
	default:
		c.Redirect(http.StatusFound, "/dashboard")
	}
}

func (h *Handler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, h.Sessions.ClearCookie())
	c.Redirect(http.StatusFound, "/portal")
}

func (h *Handler) DashboardPage(c *gin.Context) {
	ctx := c.Request.Context()
	f := db.TicketFilter{Status: c.Query("status"), Priority: c.Query("priority"), Search: c.Query("search"), PerPage: 50}
	tickets, err := h.Store.ListTickets(ctx, f)
	if err != nil {
		h.Logger.Error().Err(err).Msg("dashboard tickets")
	}
	total, _ := h.Store.CountTickets(ctx, f)
	c.HTML(http.StatusOK, "dashboard.html", pageData{
		Title:   "Dashboard",
		Member:  middleware.SessionClaims(c),
		Tickets: tickets,
		Total:   total,
	})
}

func (h *Handler) TechDirectorPage(c *gin.Context) {
	claims := middleware.SessionClaims(c)
	if !service.IsTechDirectorRole(claims.Role) && !service.IsAdminRole(claims.Role) {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	f := db.TicketFilter{ReferredOnly: true, PerPage: 100}
	tickets, err := h.Store.ListTickets(c.Request.Context(), f)
	if err != nil {
		h.Logger.Error().Err(err).Msg("tech director tickets")
	}
	c.HTML(http.StatusOK, "dashboard.html", pageData{
		Title:   "Technical Director Dashboard",
		Member:  claims,
		Tickets: tickets,
		Total:   int64(len(tickets)),
	})
}

func (h *Handler) TicketPage(c *gin.Context) {
	claims := middleware.SessionClaims(c)
	ticketID := c.Param("ticket_id")
	ticket, err := h.Store.GetTicket(c.Request.Context(), ticketID)
	if err != nil {
		c.HTML(http.StatusNotFound, "not_found.html", pageData{Title: "Not found", Member: claims, Error: "Ticket " + ticketID + " was not found."})
		return
	}
	replies, err := h.Store.RepliesFor(c.Request.Context(), ticketID)
	if err != nil {
		h.Logger.Error().Err(err).Str("ticket_id", ticketID).Msg("ticket page replies")
	}
	h.markTicketRead(c, ticket)
	c.HTML(http.StatusOK, "ticket.html", pageData{Title: ticket.Subject, Member: claims, Ticket: &ticket, Replies: replies})
}

// NotFound answers unknown API paths with the JSON envelope and everything else with the HTML page.
func (h *Handler) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Endpoint not found", nil)
		return
	}
	c.HTML(http.StatusNotFound, "not_found.html", pageData{Title: "Not found", Member: middleware.SessionClaims(c), Error: "The page you requested does not exist."})
}
