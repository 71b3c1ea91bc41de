package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/agent-zon/grantd/internal/app"
	"github.com/agent-zon/grantd/internal/handlers"
	"github.com/agent-zon/grantd/internal/middleware"
	"github.com/agent-zon/grantd/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers the
// authorization server routes.
func NewRouter(db *gorm.DB, cfg *app.Config, rateStore middleware.RateStore) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	grants, err := services.NewGrantService(db)
	if err != nil {
		return nil, err
	}
	requests, err := services.NewRequestService(db, grants, int(cfg.Auth.RequestTTL.Seconds()))
	if err != nil {
		return nil, err
	}
	permissions, err := services.NewPermissionService(db)
	if err != nil {
		return nil, err
	}
	consents, err := services.NewConsentService(db, grants, requests, permissions)
	if err != nil {
		return nil, err
	}
	tokens, err := services.NewTokenService(db, grants, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	evaluations, err := services.NewEvaluationService(db)
	if err != nil {
		return nil, err
	}
	clients, err := services.NewClientService(db)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimit(rateStore, cfg.Server.RateLimit, time.Minute))

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
	}

	// OAuth / grant management surface
	parHandler := handlers.NewPARHandler(requests, clients)
	r.POST("/par", parHandler.Create)

	authorizeHandler := handlers.NewAuthorizeHandler(consents)
	r.POST("/authorize", authorizeHandler.Authorize)

	consentHandler := handlers.NewConsentHandler(consents)
	r.PUT("/AuthorizationRequests/:id/consent", consentHandler.Submit)

	tokenHandler := handlers.NewTokenHandler(tokens, clients)
	r.POST("/token", tokenHandler.Exchange)

	metadataHandler := handlers.NewMetadataHandler(cfg.Server.Issuer)
	r.GET("/metadata", metadataHandler.Get)
	r.POST("/metadata", metadataHandler.Get)

	grantHandler := handlers.NewGrantHandler(grants, permissions)
	r.GET("/grants/:id", grantHandler.Get)
	r.POST("/grants/:id/revoke", grantHandler.Revoke)

	// Access evaluation surface, bearer-token protected
	evaluationHandler := handlers.NewEvaluationHandler(evaluations)
	access := r.Group("/access/v1")
	access.Use(middleware.BearerAuth(tokens))
	{
		access.POST("/evaluation", evaluationHandler.Evaluate)
		access.POST("/evaluations", evaluationHandler.EvaluateBatch)
	}

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
