package audit

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/nao1215/authgate/pkg/event"
)

var (
	// ErrQueueFull はAsyncRecorderのキューが満杯でイベントを破棄したことを表す。
	ErrQueueFull = errors.New("audit queue is full")
	// ErrRecorderClosed はClose済みのAsyncRecorderに記録しようとしたことを表す。
	ErrRecorderClosed = errors.New("audit recorder is closed")
)

// AsyncRecorder は監査イベントを有界キューに積み、単一のゴルーチンで下位のRecorderに書き込む。
//
// Recordはブロックしない。キューが満杯の場合はイベントを破棄して ErrQueueFull を返す。
// リクエスト処理が監査ストアの書き込み待ちで詰まることはない。
type AsyncRecorder struct {
	// next は実際の書き込み先。
	next Recorder
	// logger は書き込み失敗を出力するロガー。
	logger *zap.Logger
	// queue は書き込み待ちのイベント。
	queue chan *event.Event
	// done は書き込みゴルーチンの終了を通知する。
	done chan struct{}

	// mu はclosedとqueueのクローズを保護する。
	mu     sync.RWMutex
	closed bool
}

// NewAsyncRecorder はnextへ非同期に書き込むAsyncRecorderを生成し、書き込みゴルーチンを起動する。
// sizeはキューの容量で、1未満の場合は1として扱う。
func NewAsyncRecorder(next Recorder, size int, logger *zap.Logger) *AsyncRecorder {
	r := &AsyncRecorder{
		next:   next,
		logger: logger,
		queue:  make(chan *event.Event, max(size, 1)),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record はイベントをキューに積む。書き込みの完了は待たない。
func (r *AsyncRecorder) Record(_ context.Context, ev *event.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrRecorderClosed
	}
	select {
	case r.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close は新しいイベントの受け付けを止め、キューに残ったイベントを書き終えるまで待つ。
// 下位のRecorderは閉じない。
func (r *AsyncRecorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	<-r.done
}

// run はキューからイベントを取り出して書き込む。
func (r *AsyncRecorder) run() {
	defer close(r.done)

	for ev := range r.queue {
		if err := r.next.Record(context.Background(), ev); err != nil {
			r.logger.Warn("監査イベントの書き込みに失敗しました",
				zap.String("request_id", ev.RequestID),
				zap.String("event_type", string(ev.EventType)),
				zap.Error(err),
			)
		}
	}
}
