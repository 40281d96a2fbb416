// Package audit は認証判定の監査記録を提供する。
//
// 記録は書き込み専用で、ゲートウェイの判定に使われることはない。
// リクエスト間で共有される状態は監査ストアへの追記のみであり、
// 記録に失敗してもリクエストの処理結果は変わらない。
package audit
