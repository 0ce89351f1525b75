package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/freightaudit/internal/bulkjob"
	bulkjobdomain "github.com/smallbiznis/freightaudit/internal/bulkjob/domain"
	"github.com/smallbiznis/freightaudit/internal/config"
	"github.com/smallbiznis/freightaudit/internal/docstore"
	"github.com/smallbiznis/freightaudit/internal/extraction"
	"github.com/smallbiznis/freightaudit/internal/journey"
	journeydomain "github.com/smallbiznis/freightaudit/internal/journey/domain"
	"github.com/smallbiznis/freightaudit/internal/observability"
	obsmiddleware "github.com/smallbiznis/freightaudit/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/freightaudit/internal/observability/metrics"
	obstracing "github.com/smallbiznis/freightaudit/internal/observability/tracing"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	extraction.Module,
	docstore.Module,
	journey.Module,
	bulkjob.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	bulkJobSvc  bulkjobdomain.Service
	journeyRepo journeydomain.Repository
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	BulkJobSvc  bulkjobdomain.Service
	JourneyRepo journeydomain.Repository
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		bulkJobSvc:  p.BulkJobSvc,
		journeyRepo: p.JourneyRepo,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Bulk jobs --------
	api.POST("/bulk-jobs", s.CreateBulkJob)
	api.GET("/bulk-jobs", s.ListBulkJobs)
	api.GET("/bulk-jobs/:id", s.GetBulkJobByID)
	api.POST("/bulk-jobs/:id/reviews", s.SubmitReview)

	// -------- Journeys --------
	api.GET("/journeys", s.ListJourneys)
}
