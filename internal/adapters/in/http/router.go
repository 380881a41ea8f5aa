package http

import (
	"log/slog"
	"net/http"
	"sync"

	"orderflow/internal/generated/servers"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/swaggo/swag"
)

type apiDoc struct{}

func (apiDoc) ReadDoc() string {
	return string(servers.RawSpec())
}

var registerDoc sync.Once

// NewRouter mounts health, API docs and the order API with request logging,
// rate limiting and OpenAPI request validation.
func NewRouter(server *Server, limiter *IPRateLimiter, logger *slog.Logger) (*echo.Echo, error) {
	doc, err := servers.GetSwagger()
	if err != nil {
		return nil, err
	}
	validator, err := RequestValidator(doc)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})

	registerDoc.Do(func() { swag.Register(swag.Name, apiDoc{}) })
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Use(RateLimit(limiter), validator)
	servers.RegisterHandlers(e, server)

	return e, nil
}
