package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/errors"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	logger     *logrus.Logger
	config     *Config

	mu       sync.Mutex
	listener net.Listener
}

// Config contains server configuration
type Config struct {
	Host            string        `mapstructure:"host" yaml:"host" json:"host"`
	Port            int           `mapstructure:"port" yaml:"port" json:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	TLSCertFile     string        `mapstructure:"tls_cert_file" yaml:"tls_cert_file,omitempty" json:"tls_cert_file,omitempty"`
	TLSKeyFile      string        `mapstructure:"tls_key_file" yaml:"tls_key_file,omitempty" json:"tls_key_file,omitempty"`
}

// NewServer creates a new HTTP server instance serving handler
func NewServer(config *Config, handler http.Handler, logger *logrus.Logger) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if logger == nil {
		logger = logrus.New()
	}

	if handler == nil {
		return nil, errors.NewConfigurationError(errors.CodeInvalidConfig, "server requires a handler")
	}

	if config.Port < 0 || config.Port > 65535 {
		return nil, errors.NewConfigurationError(errors.CodeInvalidConfig, fmt.Sprintf("invalid port %d", config.Port))
	}

	if (config.TLSCertFile == "") != (config.TLSKeyFile == "") {
		return nil, errors.NewConfigurationError(errors.CodeInvalidConfig, "tls_cert_file and tls_key_file must be set together")
	}

	return &Server{
		logger: logger,
		config: config,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}, nil
}

// Start listens and serves until Stop is called. A clean shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeConfiguration, errors.CodeInvalidConfig, "failed to listen").
			WithContext("addr", s.httpServer.Addr)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.WithField("addr", listener.Addr().String()).Info("Starting HTTP server")

	if s.config.TLSCertFile != "" {
		s.logger.Info("Starting HTTPS server")
		err = s.httpServer.ServeTLS(listener, s.config.TLSCertFile, s.config.TLSKeyFile)
	} else {
		err = s.httpServer.Serve(listener)
	}

	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.WithError(err).Error("Error shutting down HTTP server")
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Addr returns the bound address once Start is listening, else the configured one
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            constants.DefaultHost,
		Port:            constants.DefaultPort,
		ReadTimeout:     constants.DefaultReadTimeout,
		WriteTimeout:    constants.DefaultWriteTimeout,
		IdleTimeout:     constants.DefaultIdleTimeout,
		ShutdownTimeout: constants.DefaultShutdownTimeout,
	}
}
