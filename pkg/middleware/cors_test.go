package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// assertCORSHeaders は3つのCORSヘッダーが固定ポリシーの値であることを検証する。
func assertCORSHeaders(t *testing.T, h http.Header) {
	t.Helper()

	want := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET, POST, PUT, DELETE, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, Authorization",
	}
	for k, v := range want {
		if got := h.Values(k); len(got) != 1 || got[0] != v {
			t.Errorf("%s = %v, want [%q]", k, got, v)
		}
	}
}

// TestApplyCORS はApplyCORSを検証する。
func TestApplyCORS(t *testing.T) {
	t.Parallel()

	t.Run("既存の値がマージされず上書きされること", func(t *testing.T) {
		t.Parallel()

		h := http.Header{}
		h.Add("Access-Control-Allow-Origin", "https://example.com")
		h.Add("Access-Control-Allow-Origin", "https://other.example.com")
		h.Set("Access-Control-Allow-Methods", "GET")
		h.Set("X-Custom", "kept")

		ApplyCORS(h)

		assertCORSHeaders(t, h)
		if v := h.Get("X-Custom"); v != "kept" {
			t.Errorf("X-Custom = %q, want %q", v, "kept")
		}
	})
}

// TestCORS はCORSミドルウェアを検証する。
func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("通常のレスポンスにCORSヘッダーが設定されること", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(CORS())
		router.GET("/test", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		assertCORSHeaders(t, w.Header())
	})

	t.Run("Originヘッダーが無くてもCORSヘッダーが設定されること", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(CORS())
		router.GET("/test", func(c *gin.Context) {
			c.Status(http.StatusUnauthorized)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assertCORSHeaders(t, w.Header())
	})
}

// TestPreflight はPreflightを検証する。
func TestPreflight(t *testing.T) {
	t.Parallel()

	t.Run("204と空ボディが返り後続のハンドラが実行されないこと", func(t *testing.T) {
		t.Parallel()

		called := false
		router := gin.New()
		router.OPTIONS("/test", Preflight, func(c *gin.Context) {
			called = true
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
		}
		if w.Body.Len() != 0 {
			t.Errorf("ボディが空でない: %q", w.Body.String())
		}
		if called {
			t.Error("Preflightの後にハンドラが実行された")
		}
		assertCORSHeaders(t, w.Header())
	})
}
