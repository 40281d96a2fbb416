// Package httpclient はゲートウェイからバックエンドへの転送を行うクライアントを提供する。
//
// リクエストボディとレスポンスボディはどちらもストリームのまま中継し、
// メモリ使用量がペイロードのサイズに依存しないようにする。
package httpclient
