package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/makki24/mybusiness-core/internal/backend"
	"github.com/makki24/mybusiness-core/internal/config"
	"github.com/makki24/mybusiness-core/internal/events"
	"github.com/makki24/mybusiness-core/internal/reconcile"
	"github.com/makki24/mybusiness-core/internal/wizard"
)

// Deps are the constructed collaborators the routes are bound to.
// InitRoutes builds them from config; tests build their own around a
// fake backend and call InitRoutesWith.
type Deps struct {
	Store  *wizard.Store
	Engine *reconcile.Engine
	Client backend.Client
	Logger *zap.Logger
}

// NewDeps wires the registry, wizard store and reconciliation engine
// around the given backend client.
func NewDeps(client backend.Client, logger *zap.Logger, debug bool) Deps {
	registry := events.NewRegistry(logger, debug)
	return Deps{
		Store:  wizard.NewStore(client, registry, logger),
		Engine: reconcile.NewEngine(client, registry, logger),
		Client: client,
		Logger: logger,
	}
}

// InitRoutes initializes the backend client, wizard and reconciliation
// engine from config and binds every endpoint on the given Gin engine.
func InitRoutes(e *gin.Engine, cfg config.Config, logger *zap.Logger) {
	client := backend.NewHTTPClient(cfg.BackendBaseURL, cfg.RequestTimeout, logger)
	InitRoutesWith(e, NewDeps(client, logger, cfg.Debug))
}

// requestID tags every request so backend calls and wizard mutations
// triggered by it can be correlated in the logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

// InitRoutesWith binds every endpoint using already-constructed
// dependencies.
func InitRoutesWith(e *gin.Engine, deps Deps) {
	e.Use(requestID())
	h := NewCoreHandler(deps.Store, deps.Engine, deps.Client, deps.Logger)

	w := e.Group("/wizard")
	w.GET("", h.handleGetWizard)
	w.POST("/sender", h.handleChooseSender)
	w.POST("/type", h.handleChooseType)
	w.POST("/receiver", h.handleChooseReceiver)
	w.POST("/attendance", h.handleAttendance)
	w.POST("/details", h.handleEnterDetails)
	w.POST("/submit", h.handleSubmit)
	w.POST("/more-work", h.handleAddMoreWork)
	w.POST("/reset", h.handleReset)

	r := e.Group("/reconcile")
	r.POST("/preview", h.handleReconcilePreview)
	r.POST("/apply", h.handleReconcileApply)

	e.GET("/worktypes", h.handleListWorkTypes)
	e.GET("/users", h.handleListUsers)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
