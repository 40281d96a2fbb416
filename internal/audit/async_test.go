package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nao1215/authgate/pkg/event"
)

// blockingRecorder はreleaseが閉じられるまで書き込みを止めるRecorder。
type blockingRecorder struct {
	release chan struct{}
	err     error

	mu     sync.Mutex
	events []*event.Event
}

// Record はreleaseを待ってからイベントを保持する。
func (r *blockingRecorder) Record(_ context.Context, ev *event.Event) error {
	<-r.release
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

// count は保持しているイベント数を返す。
func (r *blockingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// TestAsyncRecorder はAsyncRecorderを検証する。
func TestAsyncRecorder(t *testing.T) {
	t.Parallel()

	t.Run("下位の書き込みが止まっていてもRecordがブロックしないこと", func(t *testing.T) {
		t.Parallel()

		next := &blockingRecorder{release: make(chan struct{})}
		r := NewAsyncRecorder(next, 4, zap.NewNop())

		start := time.Now()
		for i := 0; i < 3; i++ {
			if err := r.Record(context.Background(), newTestEvent(t, event.TypeAuthAccepted, 200, nil)); err != nil {
				t.Errorf("Record()でエラーが発生: %v", err)
			}
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("Record()に %v かかった", elapsed)
		}

		close(next.release)
		r.Close()
		if n := next.count(); n != 3 {
			t.Errorf("書き込まれた件数 = %d, want 3", n)
		}
	})

	t.Run("キューが満杯の場合はErrQueueFullで破棄されること", func(t *testing.T) {
		t.Parallel()

		next := &blockingRecorder{release: make(chan struct{})}
		r := NewAsyncRecorder(next, 1, zap.NewNop())

		var full int
		for i := 0; i < 5; i++ {
			if err := r.Record(context.Background(), newTestEvent(t, event.TypeInvalidToken, 401, nil)); errors.Is(err, ErrQueueFull) {
				full++
			}
		}
		// 書き込みゴルーチンが1件、キューが1件を保持できる
		if full < 3 {
			t.Errorf("破棄された件数 = %d, 3件以上を期待", full)
		}

		close(next.release)
		r.Close()
		if n := next.count(); n+full != 5 {
			t.Errorf("書き込み %d 件 + 破棄 %d 件 != 5", n, full)
		}
	})

	t.Run("Close後のRecordはErrRecorderClosedを返すこと", func(t *testing.T) {
		t.Parallel()

		next := &blockingRecorder{release: make(chan struct{})}
		close(next.release)
		r := NewAsyncRecorder(next, 1, zap.NewNop())
		r.Close()
		r.Close()

		err := r.Record(context.Background(), newTestEvent(t, event.TypeAuthAccepted, 200, nil))
		if !errors.Is(err, ErrRecorderClosed) {
			t.Errorf("err = %v, want %v", err, ErrRecorderClosed)
		}
	})

	t.Run("下位の書き込み失敗がログに出力されること", func(t *testing.T) {
		t.Parallel()

		core, logs := observer.New(zap.WarnLevel)
		next := &blockingRecorder{release: make(chan struct{}), err: errors.New("disk full")}
		close(next.release)
		r := NewAsyncRecorder(next, 1, zap.New(core))

		if err := r.Record(context.Background(), newTestEvent(t, event.TypeAuthAccepted, 200, nil)); err != nil {
			t.Fatalf("Record()でエラーが発生: %v", err)
		}
		r.Close()

		if logs.Len() != 1 {
			t.Errorf("警告ログ件数 = %d, want 1", logs.Len())
		}
	})

	t.Run("SQLiteRecorderと組み合わせて全件保存されること", func(t *testing.T) {
		t.Parallel()

		sqlite := openTestRecorder(t)
		r := NewAsyncRecorder(sqlite, 64, zap.NewNop())
		for i := 0; i < 10; i++ {
			if err := r.Record(context.Background(), newTestEvent(t, event.TypeAuthAccepted, 200, nil)); err != nil {
				t.Fatalf("Record()でエラーが発生: %v", err)
			}
		}
		r.Close()

		if got := recentEvents(t, sqlite, 100); len(got) != 10 {
			t.Errorf("件数 = %d, want 10", len(got))
		}
	})
}
