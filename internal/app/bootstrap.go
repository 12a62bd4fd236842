package app

import (
	"fmt"
	"strings"

	"jobdash/internal/config"
	"jobdash/internal/delivery/http/handler"
	"jobdash/internal/delivery/http/middleware"
	"jobdash/internal/delivery/http/routes"
	v1 "jobdash/internal/delivery/http/routes/v1"
	"jobdash/internal/pkg/jwt"
	"jobdash/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber *fiber.App
}

// New builds the HTTP surface on top of an already wired container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c)
	registerRoutes(f, c)

	return &App{Fiber: f}
}

func Bootstrap(cfg config.Config) (*App, func() error, error) {
	c, err := NewContainer(cfg)
	if err != nil {
		return nil, nil, err
	}
	return New(c), c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	accessLog := middleware.NewAccessLogMiddleware(c.Logger)
	app.Use(accessLog.Middleware())

	errMw := middleware.NewErrorMiddleware(c.Logger)
	app.Use(errMw.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	validator := jwt.NewHMACValidator(c.Config.Auth.JWTSecret).WithAudience(c.Config.Auth.JWTAudience)
	var auth *middleware.AuthMiddleware
	if validator.Enabled() {
		auth = middleware.NewAuthMiddleware(validator)
	} else {
		c.Logger.Printf("[Auth] AUTH_JWT_SECRET not set, all requests are anonymous")
	}

	feedHandler := ws.NewHandler(c.Hub, c.Jobs, middleware.UserID, c.Config.Feed.PageSize, c.Config.Feed.Debounce, c.Logger)

	registry := routes.NewRegistry(
		handler.NewHealthHandler(c.DB, c.Cache),
		auth,
		v1.Handlers{
			Jobs:        handler.NewJobsHandler(c.Jobs),
			Suggestions: handler.NewSuggestionsHandler(c.Config.Suggestions),
			Feed:        feedHandler,
		},
	)
	registry.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
