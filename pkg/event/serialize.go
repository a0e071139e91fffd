package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownType は定義されていないイベント種別が指定されたことを表す。
var ErrUnknownType = errors.New("tipo de notificação desconhecido")

// New は新しいイベントを生成する。
// dataにはイベント固有のデータ構造体（またはmap、json.RawMessage）を渡す。JSON形式にシリアライズされる。
func New(courseID int64, eventType Type, data any) (*Event, error) {
	if !eventType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, eventType)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("イベントデータのシリアライズに失敗: %w", err)
	}

	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		CourseID:  courseID,
		Data:      jsonData,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DecodeData はイベントのDataフィールドを指定された型にデシリアライズする。
func DecodeData[T any](e *Event) (*T, error) {
	var data T
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("イベントデータのデシリアライズに失敗: %w", err)
	}
	return &data, nil
}
