// Package gateway は認証ゲートウェイの内部実装を提供する。
//
// 外部からアクセス可能な唯一の入口であり、信頼できないクライアントと
// 認証済みリクエストを前提とするバックエンドとの間のセキュリティ境界として機能する。
// すべてのリクエストについてBearerトークンを検証し、Authorizationヘッダーを取り除いた上で
// 検証済みの識別ヘッダー（X-User-Id, X-Workspace-Id）を付与してバックエンドに転送する。
// リクエスト間で状態を保持しない。
package gateway
