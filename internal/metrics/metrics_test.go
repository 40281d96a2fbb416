package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestObserveRequest はObserveRequestを検証する。
func TestObserveRequest(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRequest("protected", OutcomeOK)
	m.ObserveRequest("protected", OutcomeOK)
	m.ObserveRequest("protected", OutcomeInvalidToken)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("protected", OutcomeOK)); got != 2 {
		t.Errorf("ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("protected", OutcomeInvalidToken)); got != 1 {
		t.Errorf("invalid_token = %v, want 1", got)
	}
}

// TestObserveUpstream はObserveUpstreamを検証する。
func TestObserveUpstream(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveUpstream(10*time.Millisecond, nil)
	m.ObserveUpstream(20*time.Millisecond, errors.New("connection refused"))

	if got := testutil.ToFloat64(m.upstreamErrors); got != 1 {
		t.Errorf("errors_total = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.upstreamDuration); got != 1 {
		t.Errorf("histogram series = %d, want 1", got)
	}
}

// TestHandler はHandlerを検証する。
func TestHandler(t *testing.T) {
	t.Parallel()

	t.Run("登録したメトリクスが出力されること", func(t *testing.T) {
		t.Parallel()

		m := New()
		m.ObserveRequest("health", OutcomeOK)

		srv := httptest.NewServer(m.Handler())
		t.Cleanup(srv.Close)

		resp, err := http.Get(srv.URL)
		if err != nil {
			t.Fatalf("GETに失敗: %v", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if !strings.Contains(string(body), `authgate_requests_total{outcome="ok",route="health"} 1`) {
			t.Errorf("requests_totalが出力されていない:\n%s", body)
		}
	})

	t.Run("インスタンスごとにレジストリが独立していること", func(t *testing.T) {
		t.Parallel()

		a, b := New(), New()
		a.ObserveRequest("protected", OutcomeOK)

		if got := testutil.ToFloat64(b.requestsTotal.WithLabelValues("protected", OutcomeOK)); got != 0 {
			t.Errorf("別インスタンスのカウンタ = %v, want 0", got)
		}
	})
}
