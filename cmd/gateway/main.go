// 認証ゲートウェイのエントリポイント。
// Bearerトークンを検証し、呼び出し元の識別情報をヘッダーに載せてバックエンドへ転送する。
// 外部からアクセス可能な唯一の入口であり、セキュリティの境界線となる。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/authgate/internal/audit"
	"github.com/nao1215/authgate/internal/gateway"
	"github.com/nao1215/authgate/pkg/logging"
)

// auditQueueSize は書き込み待ちの監査イベントの上限。超えた分は破棄してログに残す。
const auditQueueSize = 1024

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "authgate: %v\n", err)
		os.Exit(1)
	}
}

// run は設定を読み込んでゲートウェイを起動し、シグナルを受けるまでブロックする。
func run() error {
	cfg, err := gateway.LoadConfig()
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("ロガーの初期化に失敗: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []gateway.Option{gateway.WithLogger(logger)}
	if cfg.AuditDBPath != "" {
		recorder, err := audit.OpenSQLite(ctx, cfg.AuditDBPath, logger)
		if err != nil {
			return fmt.Errorf("監査DBの初期化に失敗: %w", err)
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				logger.Warn("監査DBのクローズに失敗しました", zap.Error(err))
			}
		}()
		async := audit.NewAsyncRecorder(recorder, auditQueueSize, logger)
		// SQLiteを閉じる前にキューに残ったイベントを書き切る
		defer async.Close()
		opts = append(opts, gateway.WithRecorder(async))
	}

	server, err := gateway.NewServer(cfg, opts...)
	if err != nil {
		return fmt.Errorf("ゲートウェイの初期化に失敗: %w", err)
	}

	logger.Info("認証ゲートウェイを起動します",
		zap.String("port", cfg.Port),
		zap.String("health_path", cfg.HealthPath),
		zap.Bool("audit", cfg.AuditDBPath != ""),
	)
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("ゲートウェイの実行に失敗: %w", err)
	}
	logger.Info("認証ゲートウェイを停止しました")
	return nil
}
