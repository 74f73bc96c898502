// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Addr              string
	Timeout           time.Duration
	AllowedOrigins    []string
	RequestsPerSecond float64
	Burst             int
	MaxBodyBytes      int64
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              ":8000",
		Timeout:           30 * time.Second,
		AllowedOrigins:    []string{"*"},
		RequestsPerSecond: 50,
		Burst:             100,
		MaxBodyBytes:      1 << 20,
	}
}

// NewServer wraps routes in the standard middleware chain.
func NewServer(config ServerConfig, routes http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 创建中间件链
	chain := Chain(
		RecoveryMiddleware(logger),                                  // 1. 恢复中间件（最先执行，捕获panic）
		RequestIDMiddleware,                                         // 2. 请求ID
		LoggerMiddleware(logger),                                    // 3. 日志中间件
		SecurityHeadersMiddleware,                                   // 4. 安全头中间件
		CORSMiddleware(config.AllowedOrigins),                       // 5. CORS中间件
		RateLimitMiddleware(config.RequestsPerSecond, config.Burst), // 6. 限流
		RequestSizeMiddleware(config.MaxBodyBytes),                  // 7. 请求大小限制
		TimeoutMiddleware(config.Timeout),                           // 8. 超时中间件
	)

	return &Server{
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           chain(routes),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}
