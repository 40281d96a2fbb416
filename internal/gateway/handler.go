package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/authgate/internal/metrics"
	"github.com/nao1215/authgate/pkg/event"
	"github.com/nao1215/authgate/pkg/httpclient"
	"github.com/nao1215/authgate/pkg/middleware"
)

// クライアントに返すエラーメッセージ。検証失敗の詳細は含めない。
const (
	messageMissingCredential = "Missing or invalid authorization"
	messageInvalidToken      = "Invalid token"
	messageBadGateway        = "Bad gateway"
)

// statusClientClosedRequest はクライアントが応答を待たずに切断したことを表すステータス。
// クライアントには届かず、ログと監査記録にのみ残る。
const statusClientClosedRequest = 499

// handle はリクエストを経路ごとに振り分ける。
func (s *Server) handle(c *gin.Context) {
	route := classify(c.Request.Method, c.Request.URL.Path, s.config.HealthPath)
	switch route {
	case routePreflight:
		middleware.Preflight(c)
		s.metrics.ObserveRequest(route.String(), metrics.OutcomeOK)
	case routeHealth:
		respondJSON(c, http.StatusOK, gin.H{"status": "healthy"})
		s.metrics.ObserveRequest(route.String(), metrics.OutcomeOK)
	default:
		s.handleProtected(c)
	}
}

// handleProtected はトークンを検証し、ヘッダーを書き換えてバックエンドに転送する。
func (s *Server) handleProtected(c *gin.Context) {
	claims, err := s.validator.Validate(c.GetHeader(middleware.HeaderAuthorization))
	if err != nil {
		s.rejectUnauthorized(c, err)
		return
	}

	header := middleware.RewriteHeaders(c.Request.Header, claims)
	s.forward(c, header, claims)
}

// rejectUnauthorized は認証失敗を401のJSONレスポンスに変換する。
// 失敗理由はログにのみ出力し、レスポンスには2種類の定型メッセージしか含めない。
func (s *Server) rejectUnauthorized(c *gin.Context, err error) {
	eventType, outcome, message := event.TypeInvalidToken, metrics.OutcomeInvalidToken, messageInvalidToken
	if errors.Is(err, middleware.ErrMissingCredential) {
		eventType, outcome, message = event.TypeMissingCredential, metrics.OutcomeMissingCredential, messageMissingCredential
	}

	s.logger.Debug("認証に失敗しました",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	respondJSON(c, http.StatusUnauthorized, gin.H{"error": message})
	s.metrics.ObserveRequest(routeProtected.String(), outcome)
	s.record(c, eventType, http.StatusUnauthorized, nil, nil)
}

// forward はリクエストをバックエンドに転送し、レスポンスをそのまま中継する。
//
// リクエストボディとレスポンスボディはストリームのまま中継する。
// バックエンドのレスポンスヘッダーはすべてコピーし、3つのCORSヘッダーだけを固定値で上書きする。
func (s *Server) forward(c *gin.Context, header http.Header, claims *middleware.Claims) {
	req := c.Request
	start := time.Now()
	resp, err := s.upstream.Forward(req.Context(), req.Method, requestTarget(req.URL), header, req.Body, req.ContentLength)
	if errors.Is(err, context.Canceled) && req.Context().Err() != nil {
		s.logger.Info("バックエンドの応答前にクライアントが切断しました",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		)
		c.AbortWithStatus(statusClientClosedRequest)
		s.metrics.ObserveRequest(routeProtected.String(), metrics.OutcomeClientCanceled)
		s.record(c, event.TypeClientCanceled, statusClientClosedRequest, claims, nil)
		return
	}
	s.metrics.ObserveUpstream(time.Since(start), err)
	if err != nil {
		s.logger.Error("バックエンドとの通信に失敗しました",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		respondJSON(c, http.StatusBadGateway, gin.H{"error": messageBadGateway})
		s.metrics.ObserveRequest(routeProtected.String(), metrics.OutcomeUpstreamError)
		s.record(c, event.TypeUpstreamFailed, http.StatusBadGateway, claims, event.UpstreamFailedData{Reason: err.Error()})
		return
	}
	defer resp.Body.Close()

	dst := c.Writer.Header()
	for k, vv := range resp.Header {
		dst[k] = vv
	}
	middleware.ApplyCORS(dst)
	c.Status(resp.StatusCode)
	// ボディが届く前でもヘッダーを送り出す
	c.Writer.Flush()
	s.metrics.ObserveRequest(routeProtected.String(), metrics.OutcomeOK)

	_, copyErr := httpclient.CopyFlush(c.Writer, resp.Body)
	// 監査記録は中継の完了後に行う
	s.record(c, event.TypeAuthAccepted, resp.StatusCode, claims, nil)
	if copyErr != nil {
		s.logger.Warn("レスポンスの中継を中断しました",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", req.URL.Path),
			zap.Error(copyErr),
		)
		// ステータスは送信済みのため、接続を切ってクライアントに不完全な応答であることを伝える
		panic(http.ErrAbortHandler)
	}
}

// record は監査イベントを記録する。記録の失敗はログに残すだけで、レスポンスには影響させない。
func (s *Server) record(c *gin.Context, eventType event.Type, status int, claims *middleware.Claims, data any) {
	ev, err := event.New(middleware.GetRequestID(c), eventType, c.Request.Method, c.Request.URL.Path, status, data)
	if err != nil {
		s.logger.Warn("監査イベントの生成に失敗しました", zap.Error(err))
		return
	}
	if claims != nil {
		ev.WithIdentity(claims.UserID(), claims.WorkspaceID)
	}
	if err := s.recorder.Record(context.WithoutCancel(c.Request.Context()), ev); err != nil {
		s.logger.Warn("監査イベントの記録に失敗しました",
			zap.String("request_id", ev.RequestID),
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
	}
}

// requestTarget は元のリクエストのパスとクエリ文字列を再エンコードせずに連結する。
func requestTarget(u *url.URL) string {
	target := u.EscapedPath()
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}

// respondJSON はJSONレスポンスを返し、以降のハンドラを中断する。
func respondJSON(c *gin.Context, status int, body gin.H) {
	c.Header("Content-Type", "application/json")
	c.AbortWithStatusJSON(status, body)
}
