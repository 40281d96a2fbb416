package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// New は新しい監査イベントを生成する。
// dataにはイベント固有のデータ構造体を渡す。nilの場合はDataを設定しない。
func New(requestID string, eventType Type, method, path string, status int, data any) (*Event, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("イベントデータのシリアライズに失敗: %w", err)
		}
		raw = b
	}

	return &Event{
		ID:        uuid.New().String(),
		RequestID: requestID,
		EventType: eventType,
		Method:    method,
		Path:      path,
		Status:    status,
		Data:      raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// WithIdentity はイベントに検証済みの識別情報を設定して返す。
func (e *Event) WithIdentity(userID, workspaceID string) *Event {
	e.UserID = userID
	e.WorkspaceID = workspaceID
	return e
}

// DecodeData はイベントのDataフィールドを指定された型にデシリアライズする。
func DecodeData[T any](e *Event) (*T, error) {
	var data T
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("イベントデータのデシリアライズに失敗: %w", err)
	}
	return &data, nil
}
