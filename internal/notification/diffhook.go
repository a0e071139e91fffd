package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/inscricoes/internal/course"
	"github.com/nao1215/inscricoes/pkg/event"
)

// EventDispatcher はイベント1件を受講者へ送信する。
type EventDispatcher interface {
	Dispatch(ctx context.Context, eventType event.Type, courseID int64, payload any) ([]DeliveryResult, error)
}

// Snapshot はコースの変更検知対象となる項目。
type Snapshot struct {
	// Title はコース名。
	Title string
	// Description は説明。
	Description string
	// Difficulty は難易度。
	Difficulty string
	// Theme はテーマ。
	Theme string
	// Instructor は講師名。
	Instructor string
	// StartDate は開始日。
	StartDate time.Time
	// EndDate は終了日。
	EndDate time.Time
	// Lifecycle は状態。取り込んだままの値（course.Lifecycle、bool、string）を保持する。
	Lifecycle any
}

// SnapshotOf は保存済みのコースからスナップショットを作る。
func SnapshotOf(c course.Course) Snapshot {
	return Snapshot{
		Title:       c.Title,
		Description: c.Description,
		Difficulty:  c.Difficulty,
		Theme:       c.Theme,
		Instructor:  c.Instructor,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Lifecycle:   c.Lifecycle,
	}
}

// Change は変更された項目1つに対応する通知。
type Change struct {
	// Type は通知の種別。
	Type event.Type
	// Field は alteracao_informacoes の場合の項目名。
	Field string
	// Payload はDispatcherに渡すデータ。
	Payload any
}

// EventReport は通知1件の送信結果。
type EventReport struct {
	// Type は通知の種別。
	Type event.Type `json:"tipo"`
	// Field は alteracao_informacoes の場合の項目名。
	Field string `json:"campo,omitempty"`
	// Deliveries は学習者ごとの送信結果。
	Deliveries []DeliveryResult `json:"entregas"`
	// Error はDispatch自体が失敗した場合のエラー内容。
	Error string `json:"erro,omitempty"`
}

// Report はコース更新1回分の通知結果。
type Report struct {
	// CourseID はコースID。
	CourseID int64 `json:"idcurso"`
	// Events は変更項目ごとの結果。変更が無ければ空。
	Events []EventReport `json:"notificacoes"`
}

// Diff は更新前後のスナップショットを比較し、送信すべき通知を返す。
//
// 講師の変更は alteracao_formador、開始日・終了日の変更はまとめて1件の
// alteracao_datas、状態の変更は alteracao_estado、コース名・説明・難易度・
// テーマの変更は項目ごとに1件の alteracao_informacoes になる。
func Diff(old, updated Snapshot) []Change {
	var changes []Change

	if updated.Instructor != old.Instructor {
		changes = append(changes, Change{
			Type:    event.TypeInstructorChanged,
			Payload: event.InstructorChangedData{New: updated.Instructor, Old: old.Instructor},
		})
	}

	if !updated.StartDate.Equal(old.StartDate) || !updated.EndDate.Equal(old.EndDate) {
		changes = append(changes, Change{
			Type: event.TypeDatesChanged,
			Payload: event.DatesChangedData{
				Start: updated.StartDate.Format(course.DateLayout),
				End:   updated.EndDate.Format(course.DateLayout),
			},
		})
	}

	if updated.Lifecycle != nil && lifecycleChanged(old.Lifecycle, updated.Lifecycle) {
		changes = append(changes, Change{
			Type:    event.TypeStateChanged,
			Payload: event.StateChangedData{State: rawState(updated.Lifecycle)},
		})
	}

	for _, f := range []struct {
		name     string
		old, new string
	}{
		{"titulo", old.Title, updated.Title},
		{"descricao", old.Description, updated.Description},
		{"dificuldade", old.Difficulty, updated.Difficulty},
		{"tema", old.Theme, updated.Theme},
	} {
		if f.old == f.new {
			continue
		}
		changes = append(changes, Change{
			Type:    event.TypeInfoChanged,
			Field:   f.name,
			Payload: event.InfoChangedData{Field: f.name, Old: f.old, New: f.new},
		})
	}

	return changes
}

// lifecycleChanged は状態の変化を判定する。両方とも正規化できる場合は正規化後の値で、
// それ以外は表記を揃えた文字列で比較する。
func lifecycleChanged(old, updated any) bool {
	if old == nil {
		return true
	}
	lo, errOld := course.ParseLifecycle(old)
	ln, errNew := course.ParseLifecycle(updated)
	if errOld == nil && errNew == nil {
		return lo != ln
	}
	return course.Fold(fmt.Sprint(old)) != course.Fold(fmt.Sprint(updated))
}

// rawState はJSONに載せられる形で状態の値を返す。
func rawState(v any) any {
	switch s := v.(type) {
	case course.Lifecycle:
		return string(s)
	case *bool:
		if s == nil {
			return nil
		}
		return *s
	case string:
		return strings.TrimSpace(s)
	}
	return v
}

// DiffHook はコース更新後に変更内容を受講者へ通知する。
type DiffHook struct {
	dispatcher EventDispatcher
	logger     *zap.Logger
}

// NewDiffHook はDiffHookを生成する。
func NewDiffHook(dispatcher EventDispatcher, logger *zap.Logger) *DiffHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiffHook{dispatcher: dispatcher, logger: logger}
}

// NotifyCourseChanged は変更された項目ごとに通知を送る。
// コースの更新は呼び出し前に保存済みであること。各通知は独立して送信され、
// 1件の失敗が他の通知を止めることはない。結果は Diff の順に並ぶ。
func (h *DiffHook) NotifyCourseChanged(ctx context.Context, courseID int64, old, updated Snapshot) Report {
	changes := Diff(old, updated)
	report := Report{CourseID: courseID, Events: make([]EventReport, len(changes))}

	var g errgroup.Group
	for i, ch := range changes {
		g.Go(func() error {
			er := EventReport{Type: ch.Type, Field: ch.Field}
			results, err := h.dispatcher.Dispatch(ctx, ch.Type, courseID, ch.Payload)
			if err != nil {
				er.Error = err.Error()
				h.logger.Error("コース変更の通知に失敗しました",
					zap.Int64("course_id", courseID),
					zap.String("event_type", string(ch.Type)),
					zap.String("field", ch.Field),
					zap.Error(err),
				)
			}
			if results == nil {
				results = []DeliveryResult{}
			}
			er.Deliveries = results
			report.Events[i] = er
			return nil
		})
	}
	_ = g.Wait()

	return report
}
