package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/inscricoes/internal/course"
	"github.com/nao1215/inscricoes/pkg/event"
)

// dispatchCall はfakeDispatcherが受け取った呼び出し。
type dispatchCall struct {
	eventType event.Type
	courseID  int64
	payload   any
}

// fakeDispatcher は呼び出しを記録し、指定した種別で失敗する。
type fakeDispatcher struct {
	mu     sync.Mutex
	calls  []dispatchCall
	failOn event.Type
}

func (f *fakeDispatcher) Dispatch(_ context.Context, t event.Type, courseID int64, payload any) ([]DeliveryResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, dispatchCall{eventType: t, courseID: courseID, payload: payload})
	f.mu.Unlock()
	if t == f.failOn {
		return nil, errors.New("provider unavailable")
	}
	return []DeliveryResult{{LearnerID: 1, Outcome: OutcomeDelivered}}, nil
}

func baseSnapshot() Snapshot {
	return Snapshot{
		Title:       "Excel Avançado",
		Description: "Tabelas dinâmicas",
		Difficulty:  "Intermédio",
		Theme:       "Produtividade",
		Instructor:  "Jane",
		StartDate:   time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 12, 18, 0, 0, 0, 0, time.UTC),
		Lifecycle:   course.LifecycleUpcoming,
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	t.Run("変更が無い場合は通知しないこと", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, Diff(baseSnapshot(), baseSnapshot()))
	})

	t.Run("講師の変更で1件通知すること", func(t *testing.T) {
		t.Parallel()

		updated := baseSnapshot()
		updated.Instructor = "John"

		changes := Diff(baseSnapshot(), updated)
		require.Len(t, changes, 1)
		assert.Equal(t, event.TypeInstructorChanged, changes[0].Type)
		assert.Equal(t, event.InstructorChangedData{New: "John", Old: "Jane"}, changes[0].Payload)
	})

	t.Run("講師を外した場合も1件通知すること", func(t *testing.T) {
		t.Parallel()

		updated := baseSnapshot()
		updated.Instructor = ""

		changes := Diff(baseSnapshot(), updated)
		require.Len(t, changes, 1)
		assert.Equal(t, event.TypeInstructorChanged, changes[0].Type)
		assert.Equal(t, event.InstructorChangedData{Old: "Jane"}, changes[0].Payload)
	})

	t.Run("片方の日付の変更でも両方の日付を送ること", func(t *testing.T) {
		t.Parallel()

		updated := baseSnapshot()
		updated.EndDate = time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)

		changes := Diff(baseSnapshot(), updated)
		require.Len(t, changes, 1)
		assert.Equal(t, event.TypeDatesChanged, changes[0].Type)
		assert.Equal(t, event.DatesChangedData{Start: "2026-11-02", End: "2027-01-15"}, changes[0].Payload)
	})

	t.Run("両方の日付の変更は1件にまとめること", func(t *testing.T) {
		t.Parallel()

		updated := baseSnapshot()
		updated.StartDate = updated.StartDate.AddDate(0, 0, 7)
		updated.EndDate = updated.EndDate.AddDate(0, 0, 7)

		changes := Diff(baseSnapshot(), updated)
		require.Len(t, changes, 1)
		assert.Equal(t, event.TypeDatesChanged, changes[0].Type)
	})

	t.Run("説明項目は項目ごとに通知すること", func(t *testing.T) {
		t.Parallel()

		updated := baseSnapshot()
		updated.Title = "Excel Profissional"
		updated.Description = "Macros"
		updated.Difficulty = "Avançado"
		updated.Theme = "Escritório"

		changes := Diff(baseSnapshot(), updated)
		require.Len(t, changes, 4)
		var fields []string
		for _, c := range changes {
			assert.Equal(t, event.TypeInfoChanged, c.Type)
			fields = append(fields, c.Field)
		}
		assert.Equal(t, []string{"titulo", "descricao", "dificuldade", "tema"}, fields)
	})

	t.Run("同じ状態の別表記は変更とみなさないこと", func(t *testing.T) {
		t.Parallel()

		old := baseSnapshot()
		old.Lifecycle = true
		updated := baseSnapshot()
		updated.Lifecycle = "Em curso"

		assert.Empty(t, Diff(old, updated))
	})

	t.Run("状態が指定されない場合は通知しないこと", func(t *testing.T) {
		t.Parallel()

		updated := baseSnapshot()
		updated.Lifecycle = nil
		assert.Empty(t, Diff(baseSnapshot(), updated))
	})

	t.Run("未知の状態でも変更として通知すること", func(t *testing.T) {
		t.Parallel()

		updated := baseSnapshot()
		updated.Lifecycle = "em revisão"

		changes := Diff(baseSnapshot(), updated)
		require.Len(t, changes, 1)
		assert.Equal(t, event.StateChangedData{State: "em revisão"}, changes[0].Payload)
	})
}

func TestNotifyCourseChanged_InstructorScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.enroll(t, "ana", "tok-a")
	b := f.enroll(t, "bruno", "tok-b")
	late := f.enroll(t, "carla", "tok-c")
	require.NoError(t, f.store.DeactivateEnrollment(t.Context(), late, f.courseID))

	old := baseSnapshot()
	updated := baseSnapshot()
	updated.Instructor = "John"

	report := NewDiffHook(f.disp, nil).NotifyCourseChanged(t.Context(), f.courseID, old, updated)
	require.Len(t, report.Events, 1)

	ev := report.Events[0]
	assert.Equal(t, event.TypeInstructorChanged, ev.Type)
	assert.Empty(t, ev.Error)
	require.Len(t, ev.Deliveries, 2)
	assert.Equal(t, a, ev.Deliveries[0].LearnerID)
	assert.Equal(t, b, ev.Deliveries[1].LearnerID)

	msg := f.sender.sent["tok-a"]
	assert.Equal(t, "John", msg.Data["formador_novo"])
	assert.Equal(t, "Jane", msg.Data["formador_antigo"])
	_, sentToInactive := f.sender.sent["tok-c"]
	assert.False(t, sentToInactive)
}

func TestNotifyCourseChanged_LegacyStateToCancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.enroll(t, "ana", "tok-a")

	old := baseSnapshot()
	old.Lifecycle = true
	updated := baseSnapshot()
	updated.Lifecycle = "cancelado"

	report := NewDiffHook(f.disp, nil).NotifyCourseChanged(t.Context(), f.courseID, old, updated)
	require.Len(t, report.Events, 1)
	assert.Equal(t, event.TypeStateChanged, report.Events[0].Type)

	msg := f.sender.sent["tok-a"]
	assert.Equal(t, stateCancelledBody, msg.Body)
	assert.NotEqual(t, stateGenericBody, msg.Body)
}

func TestNotifyCourseChanged_IndependentDispatches(t *testing.T) {
	t.Parallel()

	fake := &fakeDispatcher{failOn: event.TypeDatesChanged}
	updated := baseSnapshot()
	updated.Instructor = "John"
	updated.StartDate = updated.StartDate.AddDate(0, 0, 1)
	updated.Theme = "Finanças"

	report := NewDiffHook(fake, nil).NotifyCourseChanged(t.Context(), 45, baseSnapshot(), updated)
	require.Len(t, report.Events, 3)
	assert.Len(t, fake.calls, 3)

	byType := map[event.Type]EventReport{}
	for _, ev := range report.Events {
		byType[ev.Type] = ev
	}
	assert.NotEmpty(t, byType[event.TypeDatesChanged].Error)
	assert.NotNil(t, byType[event.TypeDatesChanged].Deliveries)
	assert.Empty(t, byType[event.TypeInstructorChanged].Error)
	assert.Len(t, byType[event.TypeInfoChanged].Deliveries, 1)

	for _, c := range fake.calls {
		assert.Equal(t, int64(45), c.courseID)
	}
}

func TestSnapshotOf(t *testing.T) {
	t.Parallel()

	c := course.Course{Title: "Go", Instructor: "Jane", Lifecycle: course.LifecycleOngoing}
	snap := SnapshotOf(c)
	assert.Equal(t, "Go", snap.Title)
	assert.Equal(t, course.LifecycleOngoing, snap.Lifecycle)
}
