package audit

import (
	"context"

	"github.com/nao1215/authgate/pkg/event"
)

// Recorder は監査イベントを記録する。
// 複数のゴルーチンから同時に呼び出されても安全でなければならない。
type Recorder interface {
	Record(ctx context.Context, ev *event.Event) error
}

// NopRecorder は何も記録しないRecorder。監査を無効にしている場合に使う。
type NopRecorder struct{}

// Record は何もせずnilを返す。
func (NopRecorder) Record(context.Context, *event.Event) error {
	return nil
}
