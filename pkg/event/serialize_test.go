package event

import (
	"testing"
	"time"
)

// TestNew はNew関数でイベントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("データ無しでイベントを正常に生成できること", func(t *testing.T) {
		t.Parallel()

		before := time.Now().UTC()
		ev, err := New("req-1", TypeMissingCredential, "GET", "/api/widgets", 401, nil)
		after := time.Now().UTC()

		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}
		if ev.ID == "" {
			t.Error("IDが空文字列")
		}
		if ev.RequestID != "req-1" {
			t.Errorf("RequestID = %q, want %q", ev.RequestID, "req-1")
		}
		if ev.EventType != TypeMissingCredential {
			t.Errorf("EventType = %q, want %q", ev.EventType, TypeMissingCredential)
		}
		if ev.Method != "GET" || ev.Path != "/api/widgets" || ev.Status != 401 {
			t.Errorf("Method/Path/Status = %q/%q/%d", ev.Method, ev.Path, ev.Status)
		}
		if ev.Data != nil {
			t.Errorf("Data = %s, want nil", ev.Data)
		}
		if ev.CreatedAt.Before(before) || ev.CreatedAt.After(after) {
			t.Errorf("CreatedAt = %v, 期待する範囲: [%v, %v]", ev.CreatedAt, before, after)
		}
	})

	t.Run("UpstreamFailedDataをシリアライズして復元できること", func(t *testing.T) {
		t.Parallel()

		ev, err := New("req-2", TypeUpstreamFailed, "POST", "/api/widgets", 502, UpstreamFailedData{Reason: "connection refused"})
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}

		data, err := DecodeData[UpstreamFailedData](ev)
		if err != nil {
			t.Fatalf("DecodeData()でエラーが発生: %v", err)
		}
		if data.Reason != "connection refused" {
			t.Errorf("Reason = %q, want %q", data.Reason, "connection refused")
		}
	})

	t.Run("シリアライズできないデータでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		_, err := New("req-3", TypeUpstreamFailed, "GET", "/", 502, make(chan int))
		if err == nil {
			t.Fatal("エラーが返されなかった")
		}
	})

	t.Run("呼び出しごとに異なるIDが生成されること", func(t *testing.T) {
		t.Parallel()

		a, _ := New("req", TypeAuthAccepted, "GET", "/", 200, nil)
		b, _ := New("req", TypeAuthAccepted, "GET", "/", 200, nil)
		if a.ID == b.ID {
			t.Errorf("IDが重複: %q", a.ID)
		}
	})
}

// TestWithIdentity はWithIdentityを検証する。
func TestWithIdentity(t *testing.T) {
	t.Parallel()

	ev, _ := New("req", TypeAuthAccepted, "GET", "/", 200, nil)
	got := ev.WithIdentity("u42", "ws9")

	if got != ev {
		t.Error("同じイベントが返されていない")
	}
	if ev.UserID != "u42" || ev.WorkspaceID != "ws9" {
		t.Errorf("UserID/WorkspaceID = %q/%q, want u42/ws9", ev.UserID, ev.WorkspaceID)
	}
}

// TestDecodeData はDecodeDataのエラーを検証する。
func TestDecodeData(t *testing.T) {
	t.Parallel()

	t.Run("不正なJSONでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		ev := &Event{Data: []byte("{invalid")}
		if _, err := DecodeData[UpstreamFailedData](ev); err == nil {
			t.Error("エラーが返されなかった")
		}
	})
}
