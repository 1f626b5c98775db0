package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/ai"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/auth"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/config"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/email"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/http/handlers"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/http/middleware"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/notify"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/realtime"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/storage"

	_ "github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/docs"
)

// Deps are the long-lived services the routes share.
type Deps struct {
	Store    *db.Store
	Files    *storage.Local
	Sessions *auth.Sessions
	Hub      *realtime.Hub
	Notifier *notify.Client
	Mailer   email.Sender
	AI       ai.Adapter
	Version  string
}

func Router(cfg config.Config, deps Deps, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range strings.Split(cfg.CORSAllowed, ",") {
		if o = strings.TrimSpace(o); o != "" && o != "*" {
			corsCfg.AllowOrigins = append(corsCfg.AllowOrigins, o)
		}
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.LoadSession(deps.Sessions))
	r.SetHTMLTemplate(handlers.PageTemplates())

	h := &handlers.Handler{
		Store:          deps.Store,
		Files:          deps.Files,
		Sessions:       deps.Sessions,
		Hub:            deps.Hub,
		Notifier:       deps.Notifier,
		Mailer:         deps.Mailer,
		AI:             deps.AI,
		Validator:      validator.New(),
		Logger:         logger,
		Env:            cfg.Env,
		Version:        deps.Version,
		SessionRefresh: cfg.SessionRefresh,
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/health", h.Health)
	r.GET("/test", h.Test)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// HTML pages
	r.GET("/", h.IndexPage)
	r.GET("/portal", h.PortalPage)
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)
	pages := r.Group("")
	pages.Use(middleware.RequirePageSession())
	{
		pages.GET("/dashboard", h.DashboardPage)
		pages.GET("/tech-director-dashboard", h.TechDirectorPage)
		pages.GET("/ticket/:ticket_id", h.TicketPage)
	}

	authed := r.Group("")
	authed.Use(middleware.RequireSession())
	authed.GET("/ws", h.WebSocket)

	limiter := middleware.NewIPRateLimiter(cfg.WebhookRate, cfg.WebhookBurst)

	api := r.Group("/api")
	api.GET("/status", h.APIStatus)
	api.GET("/session/status", h.SessionStatus)
	api.POST("/session/heartbeat", h.SessionHeartbeat)
	api.POST("/session/refresh", h.RefreshSession)

	// Inbound automation, unauthenticated and rate limited per client IP.
	inbound := api.Group("")
	inbound.Use(middleware.RateLimit(limiter))
	{
		inbound.POST("/tickets", h.CreateTicket)
		inbound.POST("/webhook/reply", h.WebhookReply)
		inbound.GET("/webhook/status/:id", h.WebhookStatus)
		inbound.GET("/webhook/health", h.WebhookHealth)
		inbound.POST("/n8n/email-tickets", h.N8NEmailTicket)
		inbound.POST("/n8n/quick", h.N8NQuick)
		inbound.POST("/n8n/minimal", h.N8NMinimal)
		inbound.GET("/n8n/status", h.N8NStatus)
		inbound.POST("/n8n/simple-test", h.N8NSimpleTest)
		inbound.POST("/ai/display-response", h.DisplayResponse)
		inbound.GET("/ai/display-response", h.DisplayResponseInfo)
		inbound.GET("/ai/health", h.AIHealth)
	}

	secured := api.Group("")
	secured.Use(middleware.RequireSession())
	{
		secured.GET("/tickets", h.ListTickets)
		secured.POST("/tickets/create", h.CreateManualTicket)
		secured.GET("/tickets/search", h.SearchTickets)
		secured.GET("/tickets/:id", h.GetTicket)
		secured.PUT("/tickets/:id/status", h.UpdateStatus)
		secured.PATCH("/tickets/:id/status", h.UpdateStatus)
		secured.POST("/tickets/:id/close", h.CloseTicket)
		secured.POST("/tickets/:id/priority", h.UpdatePriority)
		secured.POST("/tickets/:id/technician", h.AssignTechnician)
		secured.POST("/tickets/:id/assign", h.AssignTicket)
		secured.POST("/tickets/:id/tech-director", h.ReferTicket)
		secured.POST("/tickets/:id/important", h.ToggleImportant)
		secured.GET("/tickets/:id/reply-count", h.ReplyCount)
		secured.GET("/tickets/:id/replies", h.ListReplies)
		secured.POST("/tickets/:id/reply", h.AgentReply)
		secured.POST("/tickets/:id/send-email", h.SendTemplateEmail)
		secured.POST("/tickets/:id/outcome", h.UpdateOutcome)
		secured.POST("/tickets/:id/mark-forwarded-viewed", h.MarkForwardedViewed)
		secured.GET("/tickets/:id/attachments/:idx/download", h.DownloadTicketAttachment)
		secured.GET("/tickets/:id/attachments/:idx/preview", h.PreviewTicketAttachment)
		secured.PUT("/tickets/:id/vehicle-info", h.UpdateVehicleInfo)
		secured.PUT("/tickets/:id/warranty", h.UpdateWarranty)
		secured.GET("/tickets/:id/metadata", h.GetMetadata)
		secured.PUT("/tickets/:id/metadata", h.UpdateMetadata)
		secured.GET("/tickets/:id/claim-documents", h.ListClaimDocuments)
		secured.POST("/tickets/:id/claim-documents", h.UploadClaimDocument)
		secured.DELETE("/tickets/:id/claim-documents/:doc_id", h.DeleteClaimDocument)
		secured.GET("/tickets/:id/claim-documents/:doc_id/download", h.DownloadClaimDocument)
		secured.POST("/tickets/:id/ai-draft", h.GenerateDraft)

		secured.GET("/email-template/:type/:ticket_id", h.EmailTemplate)
		secured.GET("/ai/get-response/:id", h.GetAIResponse)
		secured.POST("/webhook/tech-director/:id", h.WebhookTechDirector)

		secured.GET("/attachments/ticket/:ticket_id/:idx", h.DownloadTicketAttachment)
		secured.GET("/attachments/preview/:ticket_id/:idx", h.PreviewTicketAttachment)
		secured.GET("/attachments/reply/:reply_id/:idx", h.DownloadReplyAttachment)
		secured.GET("/attachments/reply/:reply_id/:idx/preview", h.PreviewReplyAttachment)
		secured.GET("/replies/:reply_id/attachments/:idx/download", h.DownloadReplyAttachment)
		secured.GET("/replies/:reply_id/attachments/:idx/preview", h.PreviewReplyAttachment)

		secured.GET("/index/tickets", h.IndexTickets)
		secured.GET("/dashboard/stats", h.DashboardStats)
		secured.GET("/tech-director/dashboard", h.TechDirectorDashboard)
		secured.GET("/analytics/warranty", h.WarrantyAnalytics)
		secured.GET("/analytics/attachments", h.AttachmentAnalytics)

		secured.GET("/members", h.ListMembers)
		secured.GET("/members/:id", h.GetMember)
		secured.GET("/technicians", h.ListTechnicians)
		secured.GET("/technicians/summary", h.TechnicianSummary)
		secured.GET("/roles", h.ListRoles)
		secured.GET("/statuses", h.ListStatuses)
		secured.GET("/system-settings", h.GetSettings)
		secured.GET("/common-documents", h.ListCommonDocuments)
		secured.POST("/common-documents", h.UploadCommonDocument)
		secured.GET("/common-documents/:id", h.GetCommonDocument)
		secured.PUT("/common-documents/:id", h.UpdateCommonDocument)
		secured.DELETE("/common-documents/:id", h.DeleteCommonDocument)
		secured.GET("/common-documents/:id/download", h.DownloadCommonDocument)
	}

	admin := secured.Group("")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/tickets/deleted", h.DeletedTickets)
		admin.DELETE("/tickets/:id", h.DeleteTicket)
		admin.POST("/tickets/bulk-delete", h.BulkDeleteTickets)
		admin.POST("/tickets/:id/soft-delete", h.SoftDeleteTicket)
		admin.POST("/tickets/:id/restore", h.RestoreTicket)

		admin.POST("/webhook/cleanup", h.WebhookCleanup)
		admin.POST("/webhook/test", h.WebhookTest)

		admin.POST("/members", h.CreateMember)
		admin.PUT("/members/:id", h.UpdateMember)
		admin.DELETE("/members/:id", h.DeleteMember)
		admin.POST("/technicians", h.CreateTechnician)
		admin.PUT("/technicians/:id", h.UpdateTechnician)
		admin.DELETE("/technicians/:id", h.DeactivateTechnician)
		admin.POST("/technicians/:id/activate", h.ActivateTechnician)
		admin.POST("/technicians/:id/deactivate", h.DeactivateTechnician)
		admin.POST("/roles", h.CreateRole)
		admin.PUT("/roles/:id", h.UpdateRole)
		admin.DELETE("/roles/:id", h.DeleteRole)
		admin.POST("/statuses", h.CreateStatus)
		admin.PUT("/statuses/:id", h.UpdateStatusDefinition)
		admin.DELETE("/statuses/:id", h.DeleteStatusDefinition)
		admin.POST("/system-settings", h.UpdateSettings)
	}

	r.NoRoute(h.NotFound)

	return r
}
