package event

import (
	"encoding/json"
	"time"
)

// Type は監査イベントの種類を表す。
type Type string

const (
	// TypeAuthAccepted はトークン検証に成功し、バックエンドへ転送したことを表す。
	TypeAuthAccepted Type = "AuthAccepted"
	// TypeMissingCredential はAuthorizationヘッダーが無い、または形式が不正で拒否したことを表す。
	TypeMissingCredential Type = "MissingCredential"
	// TypeInvalidToken はトークンの検証に失敗して拒否したことを表す。
	TypeInvalidToken Type = "InvalidToken"
	// TypeUpstreamFailed は検証には成功したが、バックエンドとの通信に失敗したことを表す。
	TypeUpstreamFailed Type = "UpstreamFailed"
	// TypeClientCanceled は検証には成功したが、バックエンドの応答前にクライアントが切断したことを表す。
	TypeClientCanceled Type = "ClientCanceled"
)

// Event は認証ゲートウェイが下した判定1件分の監査レコードを表す。
// トークン文字列やクレームの内容（ユーザーIDとワークスペースID以外）は含めない。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// RequestID はアクセスログと突き合わせるためのリクエストID。
	RequestID string `json:"request_id"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Method はHTTPメソッド。
	Method string `json:"method"`
	// Path はリクエストパス。クエリ文字列は含めない。
	Path string `json:"path"`
	// UserID は検証済みトークンのsubクレーム。拒否した場合は空文字列。
	UserID string `json:"user_id"`
	// WorkspaceID は検証済みトークンのworkspace_idクレーム。拒否した場合は空文字列。
	WorkspaceID string `json:"workspace_id"`
	// Status はクライアントへ返したHTTPステータスコード。
	Status int `json:"status"`
	// Data はイベント固有のデータ（JSON形式）。無い場合はnil。
	Data json.RawMessage `json:"data,omitempty"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// UpstreamFailedData はUpstreamFailedイベントのデータ。
type UpstreamFailedData struct {
	// Reason はバックエンドとの通信に失敗した理由。
	Reason string `json:"reason"`
}
