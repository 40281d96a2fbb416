package audit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nao1215/authgate/pkg/event"
	"github.com/nao1215/authgate/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteRecorder は監査イベントをSQLiteに記録するRecorder。
type SQLiteRecorder struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// OpenSQLite はpathのSQLiteデータベースを開き、マイグレーションを適用する。
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("監査データベースの接続に失敗: %w", err)
	}
	// SQLiteの書き込みは直列化されるため、接続を1本に絞ってSQLITE_BUSYを避ける
	db.SetMaxOpenConns(1)

	if _, err := migration.Run(ctx, db, migrationsFS, "migrations", logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("監査データベースのマイグレーションに失敗: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

// sqliteDSN はファイルパスをURI形式のDSNに変換する。
// パスに含まれる ? や # はエスケープし、接続パラメータと混ざらないようにする。
func sqliteDSN(path string) string {
	u := url.URL{
		Scheme:   "file",
		Path:     path,
		OmitHost: true,
		RawQuery: "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
	}
	return u.String()
}

// Record は監査イベントを1件追記する。
func (r *SQLiteRecorder) Record(ctx context.Context, ev *event.Event) error {
	var data any
	if ev.Data != nil {
		data = string(ev.Data)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_events
			(id, request_id, event_type, method, path, user_id, workspace_id, status, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.RequestID, string(ev.EventType), ev.Method, ev.Path,
		ev.UserID, ev.WorkspaceID, ev.Status, data, ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("監査イベントの記録に失敗: %w", err)
	}
	return nil
}

// Close はデータベース接続を閉じる。
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
