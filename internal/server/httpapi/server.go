// Package httpapi is the HTTP surface of the planner: a gin engine exposing
// the account flows and task operations, with session state carried by a
// signed cookie.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/dayplanner/internal/logging"
	"github.com/dmitrijs2005/dayplanner/internal/server/config"
	"github.com/dmitrijs2005/dayplanner/internal/server/services"
	"github.com/dmitrijs2005/dayplanner/internal/server/sessions"
)

// Server bundles the gin engine with everything the handlers need.
type Server struct {
	config   *config.Config
	logger   logging.Logger
	sessions *sessions.Store

	users     *services.UserService
	tasks     *services.TaskService
	export    *services.ExportService
	reminders *services.ReminderService

	engine *gin.Engine
}

func NewServer(
	cfg *config.Config,
	logger logging.Logger,
	sessionStore *sessions.Store,
	users *services.UserService,
	tasks *services.TaskService,
	export *services.ExportService,
	reminders *services.ReminderService,
) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger,
		sessions:  sessionStore,
		users:     users,
		tasks:     tasks,
		export:    export,
		reminders: reminders,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	s.engine = engine
	s.routes()

	return s
}

func (s *Server) routes() {
	s.engine.GET("/api/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api", s.sessionMiddleware())
	{
		api.POST("/register", s.handleRegister)
		api.POST("/register/verify", s.handleRegisterVerify)
		api.POST("/login", s.handleLogin)
		api.POST("/logout", s.handleLogout)
		api.POST("/reset/request", s.handleResetRequest)
		api.POST("/reset/verify", s.handleResetVerify)

		authed := api.Group("", s.requireAuth())
		{
			authed.GET("/tasks", s.handleListTasks)
			authed.POST("/tasks", s.handleCreateTask)
			authed.DELETE("/tasks/:id", s.handleDeleteTask)
			authed.PATCH("/tasks/:id", s.handlePatchTask)
			authed.POST("/tasks/view", s.handleMergeView)
			authed.GET("/tasks/export", s.handleExport)
			authed.POST("/tasks/:id/reminder", s.handleScheduleReminder)
		}
	}
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.config.EndpointAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.config.EndpointAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
