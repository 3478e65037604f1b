package onvifcam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
)

const soapContentType = "application/soap+xml; charset=utf-8"

// Server dispatches SOAP requests for the device and media services.
type Server struct {
	cfg     *DeviceConfig
	auth    *Engine
	builder *Builder
	router  *gin.Engine
	log     zerolog.Logger
}

// NewServer wires the HTTP router over the auth engine and response builder.
func NewServer(cfg *DeviceConfig, auth *Engine, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:     cfg,
		auth:    auth,
		builder: NewBuilder(cfg),
		router:  gin.New(),
		log:     log.With().Str("component", "soap").Logger(),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.router.Any("/onvif/device_service", s.handleSoap)
	s.router.Any("/onvif/media_service", s.handleSoap)
	s.router.NoRoute(func(c *gin.Context) {
		c.Data(http.StatusBadRequest, soapContentType,
			[]byte(faultActionNotSupported("no service at "+c.Request.URL.Path)))
	})
	return s
}

// Handler exposes the router for serving and for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.OnvifPort),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Int("port", s.cfg.OnvifPort).Msg("soap server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Annotate(err, "soap server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Annotate(srv.Shutdown(shutdownCtx), "soap server shutdown")
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("operation", c.GetString("operation")).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) handleSoap(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		c.Status(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Data(http.StatusBadRequest, soapContentType, []byte(faultWellFormed()))
		return
	}

	env, err := ParseEnvelope(body)
	if err != nil {
		s.log.Debug().Err(err).Msg("rejecting malformed envelope")
		c.Data(http.StatusBadRequest, soapContentType, []byte(faultWellFormed()))
		return
	}
	c.Set("operation", env.OperationName)

	if env.Operation == OpUnsupported {
		c.Data(http.StatusBadRequest, soapContentType,
			[]byte(faultActionNotSupported(env.OperationName)))
		return
	}

	if !env.Operation.Public() {
		result := s.auth.Authenticate(c.Request, env)
		if !result.Authenticated {
			s.log.Warn().
				Str("operation", env.OperationName).
				Str("reason", result.Reason.String()).
				Str("remote", c.ClientIP()).
				Msg("authentication failed")
			for _, challenge := range s.auth.Challenge(result.Reason == ReasonStaleNonce) {
				c.Writer.Header().Add("WWW-Authenticate", challenge)
			}
			c.Data(http.StatusUnauthorized, soapContentType, []byte(faultNotAuthorized()))
			return
		}
	}

	resp, err := s.builder.Build(env.Operation)
	if err != nil {
		c.Data(http.StatusBadRequest, soapContentType,
			[]byte(faultActionNotSupported(env.OperationName)))
		return
	}
	c.Data(http.StatusOK, soapContentType, []byte(resp))
}
