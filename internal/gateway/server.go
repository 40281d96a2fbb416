package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/authgate/internal/audit"
	"github.com/nao1215/authgate/internal/metrics"
	"github.com/nao1215/authgate/pkg/httpclient"
	"github.com/nao1215/authgate/pkg/middleware"
)

// readHeaderTimeout はリクエストヘッダーの読み取り待ちの上限。
// ボディのストリーミングを妨げないよう、ReadTimeoutとWriteTimeoutは設定しない。
const readHeaderTimeout = 10 * time.Second

// Server は認証ゲートウェイのHTTPサーバー。
// 構築後は不変であり、並行して到着するリクエスト間で状態を共有しない。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// config は起動時に渡された設定。
	config Config
	// validator はBearerトークンの検証器。
	validator *middleware.TokenValidator
	// upstream はバックエンドへの転送クライアント。
	upstream *httpclient.Client
	// logger は構造化ロガー。
	logger *zap.Logger
	// metrics はPrometheusメトリクス。
	metrics *metrics.Metrics
	// recorder は認証判定の監査記録先。
	recorder audit.Recorder
}

// Option はServerの依存を差し替える関数。
type Option func(*Server)

// WithLogger はロガーを設定する。
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics はメトリクスを設定する。
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRecorder は監査記録先を設定する。
func WithRecorder(r audit.Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// WithUpstream はバックエンドへの転送クライアントを設定する。
func WithUpstream(c *httpclient.Client) Option {
	return func(s *Server) {
		s.upstream = c
	}
}

// NewServer は新しいゲートウェイサーバーを生成する。
func NewServer(cfg Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定が不正です: %w", err)
	}

	s := &Server{
		config:    cfg,
		validator: middleware.NewTokenValidator(cfg.JWTSecret),
		upstream:  httpclient.New(cfg.BackendURL),
		logger:    zap.NewNop(),
		metrics:   metrics.New(),
		recorder:  audit.NopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(s.logger))
	router.Use(middleware.Recovery(s.logger))
	router.Use(middleware.CORS())
	s.router = router
	s.setupRoutes()

	return s, nil
}

// Handler はゲートウェイのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はルーティングを設定する。
// 経路の判定はclassifyで行うため、すべてのメソッドとパスを同じハンドラで受ける。
func (s *Server) setupRoutes() {
	s.router.Any("/*path", s.handle)
	// Anyに含まれないメソッドもここで受ける
	s.router.NoRoute(s.handle)
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるまでブロックする。
// MetricsAddrが設定されている場合は、メトリクス用のリスナーも別に起動する。
// キャンセル後はShutdownTimeoutを上限に処理中のリクエストの完了を待つ。
func (s *Server) Run(ctx context.Context) error {
	servers := []*http.Server{{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}}
	if s.config.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              s.config.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		})
	}

	errCh := make(chan error, len(servers))
	for _, hs := range servers {
		hs := hs
		go func() {
			s.logger.Info("リスナーを起動します", zap.String("addr", hs.Addr))
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("リスナー %s の起動に失敗: %w", hs.Addr, err)
			}
		}()
	}

	s.logger.Info("転送先のバックエンド", zap.String("backend_url", s.upstream.BaseURL()))

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("シャットダウンを開始します")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	for _, hs := range servers {
		if err := hs.Shutdown(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("リスナー %s の停止に失敗: %w", hs.Addr, err))
		}
	}
	return runErr
}
