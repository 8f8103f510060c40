package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajharbinger/dealscope/internal/auth"
	"github.com/ajharbinger/dealscope/internal/drafts"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/realtime"
	"github.com/ajharbinger/dealscope/internal/services"
	"github.com/ajharbinger/dealscope/internal/wizard"
	"github.com/ajharbinger/dealscope/pkg/config"
)

// Dependencies is everything the route handlers are built from
type Dependencies struct {
	Services   *services.Services
	Enrichment EnrichmentService
	Drafts     drafts.Store
	Subscriber realtime.Subscriber
	Wizards    *wizard.Registry
	Checks     map[string]HealthCheck
	Logger     logger.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, deps Dependencies, cfg *config.Config) {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	wizards := deps.Wizards
	if wizards == nil {
		wizards = wizard.DefaultRegistry()
	}

	weightsHandler := NewWeightsHandler()
	itpHandler := NewITPHandler(deps.Services.Profiles)
	analysisHandler := NewAnalysisHandler(deps.Services.Analyses, deps.Drafts, deps.Subscriber, log.With("handler", "analysis"))
	enrichmentHandler := NewEnrichmentHandler(deps.Enrichment, deps.Subscriber, log.With("handler", "enrichment"))
	dataRoomHandler := NewDataRoomHandler(deps.Services.DataRoom)
	wizardHandler := NewWizardHandler(wizards, deps.Drafts, log.With("handler", "wizard"))
	streamHandler := NewStreamHandler(deps.Services.Streams, deps.Drafts, deps.Subscriber, log.With("handler", "stream"))
	healthHandler := NewHealthHandler(deps.Checks)

	// Public routes
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/api")
	{
		// Pure computations over the request body
		public.GET("/scoring-weights/default", weightsHandler.Default)
		public.POST("/scoring-weights/validate", weightsHandler.Validate)
		public.POST("/scoring-weights/normalize", weightsHandler.Normalize)
		public.POST("/scoring-weights/score", weightsHandler.Score)

		public.GET("/opp-scan/sources", OppScanSources)
		public.POST("/opp-scan/estimate", OppScanEstimate)

		public.POST("/shares/:token", analysisHandler.OpenShare)

		public.GET("/wizards", wizardHandler.List)
		public.POST("/wizards/:wizard/evaluate", wizardHandler.Evaluate)
	}

	// Protected routes
	protected := r.Group("/api")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))
	protected.Use(auth.CSRFMiddleware())
	{
		// Ideal target profiles
		protected.GET("/itp", itpHandler.List)
		protected.POST("/itp", itpHandler.Create)
		protected.POST("/itp/validate", itpHandler.Validate)
		protected.GET("/itp/:id", itpHandler.Get)
		protected.PUT("/itp/:id", itpHandler.Update)
		protected.DELETE("/itp/:id", itpHandler.Delete)
		protected.POST("/itp/:id/match", itpHandler.Match)

		// Competitive analysis
		protected.GET("/competitive-analysis", analysisHandler.List)
		protected.POST("/competitive-analysis", analysisHandler.Create)
		protected.GET("/competitive-analysis/:id", analysisHandler.Get)
		protected.POST("/competitive-analysis/:id/competitors", analysisHandler.AddCompetitor)
		protected.GET("/competitive-analysis/:id/trends", analysisHandler.Trends)
		protected.POST("/competitive-analysis/:id/share", analysisHandler.CreateShare)
		protected.GET("/competitive-analysis/:id/share", analysisHandler.ListShares)
		protected.GET("/competitive-analysis/:id/events", analysisHandler.Events)

		// Website enrichment
		protected.POST("/enrichment", enrichmentHandler.Start)
		protected.GET("/enrichment/:jobId", enrichmentHandler.Get)
		protected.GET("/enrichment/:jobId/events", enrichmentHandler.Events)
		protected.DELETE("/enrichment/:jobId", enrichmentHandler.Cancel)
		protected.GET("/health/enrichment", enrichmentHandler.Health)

		// Data room
		protected.POST("/data-room", dataRoomHandler.Upload)
		protected.GET("/data-room", dataRoomHandler.List)

		// Wizard drafts
		protected.GET("/drafts/:wizard", wizardHandler.GetDraft)
		protected.PUT("/drafts/:wizard", wizardHandler.SaveDraft)
		protected.DELETE("/drafts/:wizard", wizardHandler.DeleteDraft)

		// Streams
		protected.POST("/streams", streamHandler.Create)
		protected.GET("/streams", streamHandler.List)
		protected.GET("/streams/:id", streamHandler.Get)
		protected.POST("/streams/:id/items", streamHandler.AddItem)
		protected.GET("/streams/:id/events", streamHandler.Events)
	}
}
