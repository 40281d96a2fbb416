package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config はゲートウェイの設定。起動時に一度だけ構築してNewServerに渡す。
type Config struct {
	// JWTSecret はトークン署名の検証に使う共有鍵。
	JWTSecret string
	// BackendURL は転送先バックエンドのベースURL。末尾のスラッシュは含まない。
	BackendURL string
	// Port は公開用リスナーのポート。
	Port string
	// HealthPath は認証なしで応答するヘルスチェックのパス。
	HealthPath string
	// MetricsAddr はメトリクス用リスナーのアドレス。空の場合は起動しない。
	MetricsAddr string
	// AuditDBPath は監査記録用SQLiteファイルのパス。空の場合は監査を無効にする。
	AuditDBPath string
	// LogLevel はログレベル。
	LogLevel string
	// LogFormat はログの出力形式（json または console）。
	LogFormat string
	// ShutdownTimeout はグレースフルシャットダウンの待ち時間の上限。
	ShutdownTimeout time.Duration
}

// LoadConfig は環境変数から設定を読み込み、検証済みのConfigを返す。
func LoadConfig() (Config, error) {
	shutdownTimeout, err := time.ParseDuration(getEnvOr("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUTの解析に失敗: %w", err)
	}

	cfg := Config{
		JWTSecret:       getEnvOr("JWT_SECRET", os.Getenv("SUPABASE_JWT_SECRET")),
		BackendURL:      strings.TrimSuffix(os.Getenv("BACKEND_URL"), "/"),
		Port:            getEnvOr("PORT", "8080"),
		HealthPath:      getEnvOr("HEALTH_PATH", "/health"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		AuditDBPath:     os.Getenv("AUDIT_DB_PATH"),
		LogLevel:        getEnvOr("LOG_LEVEL", "info"),
		LogFormat:       getEnvOr("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は設定値を検証する。
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRETが設定されていません")
	}
	if c.BackendURL == "" {
		return errors.New("BACKEND_URLが設定されていません")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("BACKEND_URLの解析に失敗: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BACKEND_URLはhttpまたはhttpsの絶対URLである必要があります: %q", c.BackendURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("BACKEND_URLにクエリやフラグメントは指定できません: %q", c.BackendURL)
	}
	if !strings.HasPrefix(c.HealthPath, "/") {
		return fmt.Errorf("HEALTH_PATHは/で始まる必要があります: %q", c.HealthPath)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUTは正の値である必要があります: %v", c.ShutdownTimeout)
	}
	return nil
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
