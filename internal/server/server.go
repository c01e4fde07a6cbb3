// Package server exposes the claims pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/librepps/gopps"
	"github.com/librepps/gopps/internal/config"
	"github.com/librepps/gopps/internal/platform/middleware"
	"github.com/librepps/gopps/internal/refdata"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

// Processor is the slice of the library the HTTP shell serves.
type Processor interface {
	Process(ctx context.Context, cl *claim.Claim) (*output.Result, error)
	Engines() []gopps.EngineInfo
	Store() *refdata.Store
}

const (
	// requestTimeout bounds one request end to end, including every engine
	// call the claim's module list triggers.
	requestTimeout = 2 * time.Minute
	maxBodySize    = "8M"
)

// Server is the HTTP shell around a claims Processor.
type Server struct {
	cfg  *config.Config
	log  zerolog.Logger
	proc Processor
	echo *echo.Echo
}

// New builds the echo application with middleware and routes wired. Bearer
// auth protects the API group when an auth secret is configured; development
// mode runs open with a logged warning.
func New(cfg *config.Config, proc Processor, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(log))
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(middleware.RequestTimeout(requestTimeout))

	s := &Server{cfg: cfg, log: log, proc: proc, echo: e}

	e.GET("/health", s.health)

	api := e.Group("/api/v1")
	if cfg.IsDev() || cfg.AuthSecret == "" {
		log.Warn().Msg("api authentication disabled")
	} else {
		api.Use(BearerAuth(cfg.AuthSecret))
	}
	api.GET("/engines", s.engines)
	api.POST("/claims/process", s.processClaim)

	return s
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	return s.echo.Start(":" + s.cfg.Port)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": gopps.Version,
	})
}

type enginesResponse struct {
	Engines        []gopps.EngineInfo `json:"engines"`
	ReferenceStore *refdata.Status    `json:"reference_store"`
}

func (s *Server) engines(c echo.Context) error {
	status, err := s.proc.Store().Status(c.Request().Context())
	if err != nil {
		s.log.Error().Err(err).Msg("reference store status failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "reference store status unavailable")
	}
	return c.JSON(http.StatusOK, enginesResponse{
		Engines:        s.proc.Engines(),
		ReferenceStore: status,
	})
}

func (s *Server) processClaim(c echo.Context) error {
	var cl claim.Claim
	if err := c.Bind(&cl); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(errdefs.Validation("malformed claim payload")))
	}

	res, err := s.proc.Process(c.Request().Context(), &cl)
	if err != nil {
		return c.JSON(statusForError(err), errorBody(err))
	}
	return c.JSON(http.StatusOK, res)
}

// errorBody mirrors the per-module error slot so API callers see one error
// shape whether a module failed or the whole request did.
func errorBody(err error) map[string]*output.ModuleError {
	return map[string]*output.ModuleError{
		"error": {Code: errdefs.Code(err), Message: err.Error()},
	}
}

func statusForError(err error) int {
	switch {
	case errdefs.IsValidation(err), errdefs.IsNotFound(err):
		return http.StatusBadRequest
	case errdefs.IsEngineBusy(err):
		return http.StatusServiceUnavailable
	case errdefs.IsEngineFault(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
