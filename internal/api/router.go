// internal/api/router.go

// Package api wires the HTTP surface: route registration, request
// middleware, and the handlers that translate between JSON payloads and
// the domain services.
package api

import (
	"wastewise/internal/authsvc"
	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/common/observability"
	"wastewise/internal/forecast"
	"wastewise/internal/nutrition/menu"
	"wastewise/internal/nutrition/similarity"
	"wastewise/internal/wastage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies collects everything the router needs. All fields except
// Tracing and Telemetry are required.
type Dependencies struct {
	Logger       logger.Logger
	Auth         *authsvc.Service
	Engine       *similarity.Engine
	Menu         *menu.Aggregator
	Wastage      *wastage.Service
	Forecast     *forecast.Service
	Tracing      *observability.Tracing
	Telemetry    *observability.Observability
	Checks       []ReadinessCheck
	CatalogCount int
	ModelID      string
	Version      string
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(deps Dependencies) *gin.Engine {
	responder := errors.NewHTTPResponder(deps.Logger.Named("http"))

	system := NewSystemHandler(deps.Checks, deps.CatalogCount, deps.ModelID, deps.Version, deps.Logger)
	auth := NewAuthHandler(deps.Auth, responder, deps.Logger)
	nutrition := NewNutritionHandler(deps.Engine, deps.Menu, deps.Telemetry, responder, deps.Logger)
	waste := NewWastageHandler(deps.Wastage, deps.Forecast, deps.Telemetry, responder, deps.Logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(deps.Logger))
	r.Use(Metrics())
	if deps.Tracing != nil {
		r.Use(Tracing(deps.Tracing))
	}
	if deps.Telemetry != nil {
		r.Use(Telemetry(deps.Telemetry))
	}

	r.GET("/health", system.Health)
	r.GET("/ready", system.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/signup", auth.Signup)
		authRoutes.POST("/login", auth.Login)
		authRoutes.POST("/logout", Auth(deps.Auth, responder), auth.Logout)
	}

	// Catalog lookups are public; they touch no user data.
	r.GET("/food-alternatives", nutrition.FoodAlternatives)
	r.POST("/menu-alternatives", nutrition.MenuAlternatives)

	protected := r.Group("/")
	protected.Use(Auth(deps.Auth, responder))
	{
		protected.POST("/waste-prediction", waste.Predict)

		records := protected.Group("/wastage")
		{
			records.POST("", waste.Create)
			records.GET("", waste.List)
			records.GET("/analysis", waste.Analysis)
			records.GET("/search", waste.Search)
			records.GET("/:id", waste.Get)
			records.PUT("/:id", waste.Update)
			records.DELETE("/:id", waste.Delete)
		}
	}

	return r
}
