package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ゲートウェイの固定CORSポリシー。
const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
)

// ApplyCORS はヘッダーセットに3つのCORSヘッダーを設定する。
// 既存の値はマージせず、固定ポリシーの値で上書きする。
func ApplyCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", corsAllowOrigin)
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
}

// CORS はすべてのレスポンスにCORSヘッダーを設定するGinミドルウェアを返す。
// ゲートウェイ自身が生成するレスポンス（ヘルスチェック、401など）もこれでカバーする。
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		ApplyCORS(c.Writer.Header())
		c.Next()
	}
}

// Preflight はCORSプリフライトに応答し、以降のハンドラを中断する。
// Authorizationヘッダーは参照しない。
func Preflight(c *gin.Context) {
	ApplyCORS(c.Writer.Header())
	c.AbortWithStatus(http.StatusNoContent)
}
