// Package middleware は認証ゲートウェイの要求処理で使用する共通部品を提供する。
//
// Bearerトークンの検証、バックエンド向けヘッダーの書き換え、
// 固定ポリシーのCORS、アクセスログ、パニックリカバリを含む。
package middleware
