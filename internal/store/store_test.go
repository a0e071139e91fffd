package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/inscricoes/internal/course"
)

// newTestStore はマイグレーション適用済みのインメモリStoreを生成する。
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := OpenInMemory(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testCourse(capacity *int) course.Course {
	return course.Course{
		Title:           "Go para iniciantes",
		Description:     "Introdução à linguagem",
		Difficulty:      "Iniciante",
		Points:          100,
		Theme:           "Programação",
		ScheduleMode:    course.ScheduleSynchronous,
		Capacity:        capacity,
		Lifecycle:       course.LifecycleUpcoming,
		StartDate:       time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 12, 18, 0, 0, 0, 0, time.UTC),
		Instructor:      "Jane",
		InstructorEmail: "jane@example.com",
	}
}

func TestLearners(t *testing.T) {
	t.Parallel()

	t.Run("登録した学習者を取得できること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		token := "tok-1"
		id, err := s.CreateLearner(t.Context(), course.Learner{Name: "Ana", Email: "ana@example.com", DeviceToken: &token})
		require.NoError(t, err)

		got, err := s.GetLearner(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, "Ana", got.Name)
		assert.Equal(t, "ana@example.com", got.Email)
		require.NotNil(t, got.DeviceToken)
		assert.Equal(t, "tok-1", *got.DeviceToken)
	})

	t.Run("存在しない学習者はErrNotFoundになること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		_, err := s.GetLearner(t.Context(), 999)
		assert.ErrorIs(t, err, course.ErrNotFound)
	})

	t.Run("同じメールアドレスはErrConflictになること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		_, err := s.CreateLearner(t.Context(), course.Learner{Email: "dup@example.com"})
		require.NoError(t, err)
		_, err = s.CreateLearner(t.Context(), course.Learner{Email: "dup@example.com"})
		assert.ErrorIs(t, err, course.ErrConflict)
	})

	t.Run("デバイストークンを上書きしクリアできること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		id, err := s.CreateLearner(t.Context(), course.Learner{Email: "bia@example.com"})
		require.NoError(t, err)

		first, second := "first", "second"
		require.NoError(t, s.SetDeviceToken(t.Context(), id, &first))
		require.NoError(t, s.SetDeviceToken(t.Context(), id, &second))

		got, err := s.GetLearner(t.Context(), id)
		require.NoError(t, err)
		require.NotNil(t, got.DeviceToken)
		assert.Equal(t, "second", *got.DeviceToken)

		require.NoError(t, s.SetDeviceToken(t.Context(), id, nil))
		got, err = s.GetLearner(t.Context(), id)
		require.NoError(t, err)
		assert.Nil(t, got.DeviceToken)
		assert.False(t, got.HasDeviceToken())
	})

	t.Run("存在しない学習者のトークン更新はErrNotFoundになること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		token := "x"
		assert.ErrorIs(t, s.SetDeviceToken(t.Context(), 42, &token), course.ErrNotFound)
	})
}

func TestCourses(t *testing.T) {
	t.Parallel()

	t.Run("登録したコースを取得できること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		capacity := 2
		id, err := s.CreateCourse(t.Context(), testCourse(&capacity))
		require.NoError(t, err)

		got, err := s.GetCourse(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, "Go para iniciantes", got.Title)
		assert.Equal(t, course.ScheduleSynchronous, got.ScheduleMode)
		assert.Equal(t, course.LifecycleUpcoming, got.Lifecycle)
		require.NotNil(t, got.Capacity)
		assert.Equal(t, 2, *got.Capacity)
		assert.Equal(t, "2026-11-02", got.StartDate.Format(course.DateLayout))
		assert.Equal(t, "jane@example.com", got.InstructorEmail)
	})

	t.Run("定員NULLのコースはCapacityがnilになること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		c := testCourse(nil)
		c.ScheduleMode = course.ScheduleAsynchronous
		c.InstructorEmail = ""
		id, err := s.CreateCourse(t.Context(), c)
		require.NoError(t, err)

		got, err := s.GetCourse(t.Context(), id)
		require.NoError(t, err)
		assert.Nil(t, got.Capacity)
		assert.Empty(t, got.InstructorEmail)
	})

	t.Run("コースを更新できること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		id, err := s.CreateCourse(t.Context(), testCourse(nil))
		require.NoError(t, err)

		c, err := s.GetCourse(t.Context(), id)
		require.NoError(t, err)
		c.Instructor = "John"
		c.Lifecycle = course.LifecycleCancelled
		require.NoError(t, s.UpdateCourse(t.Context(), *c))

		got, err := s.GetCourse(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, "John", got.Instructor)
		assert.Equal(t, course.LifecycleCancelled, got.Lifecycle)
	})

	t.Run("存在しないコースの更新はErrNotFoundになること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		c := testCourse(nil)
		c.ID = 77
		assert.ErrorIs(t, s.UpdateCourse(t.Context(), c), course.ErrNotFound)
	})

	t.Run("存在しないコースの取得はErrNotFoundになること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		_, err := s.GetCourse(t.Context(), 77)
		assert.ErrorIs(t, err, course.ErrNotFound)
	})
}

func TestEnrollments(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*Store, int64, int64) {
		t.Helper()
		s := newTestStore(t)

		learnerID, err := s.CreateLearner(t.Context(), course.Learner{Email: "ana@example.com"})
		require.NoError(t, err)
		capacity := 5
		courseID, err := s.CreateCourse(t.Context(), testCourse(&capacity))
		require.NoError(t, err)
		return s, learnerID, courseID
	}

	enrollment := func(id string, learnerID, courseID int64) course.Enrollment {
		return course.Enrollment{
			ID:         id,
			LearnerID:  learnerID,
			CourseID:   courseID,
			Active:     true,
			Objectives: "aprender Go",
			CreatedAt:  time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC),
		}
	}

	t.Run("挿入した登録が履歴と件数に反映されること", func(t *testing.T) {
		t.Parallel()
		s, learnerID, courseID := setup(t)

		_, found, err := s.FindHistoricalEnrollment(t.Context(), learnerID, courseID)
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, s.InsertEnrollment(t.Context(), enrollment("e-1", learnerID, courseID)))

		got, found, err := s.FindHistoricalEnrollment(t.Context(), learnerID, courseID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "e-1", got.ID)
		assert.True(t, got.Active)
		assert.Equal(t, "aprender Go", got.Objectives)

		n, err := s.CountActiveEnrollments(t.Context(), courseID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("同じ組み合わせの2件目はErrConflictで行が増えないこと", func(t *testing.T) {
		t.Parallel()
		s, learnerID, courseID := setup(t)

		require.NoError(t, s.InsertEnrollment(t.Context(), enrollment("e-1", learnerID, courseID)))
		err := s.InsertEnrollment(t.Context(), enrollment("e-2", learnerID, courseID))
		assert.ErrorIs(t, err, course.ErrConflict)

		n, err := s.CountActiveEnrollments(t.Context(), courseID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("外部キー違反はErrTransactionとしてロールバックされること", func(t *testing.T) {
		t.Parallel()
		s, learnerID, _ := setup(t)

		err := s.InsertEnrollment(t.Context(), enrollment("e-1", learnerID, 999))
		assert.ErrorIs(t, err, course.ErrTransaction)

		_, found, err := s.FindHistoricalEnrollment(t.Context(), learnerID, 999)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("無効化した登録は件数と受講者から外れるが履歴には残ること", func(t *testing.T) {
		t.Parallel()
		s, learnerID, courseID := setup(t)

		require.NoError(t, s.InsertEnrollment(t.Context(), enrollment("e-1", learnerID, courseID)))
		require.NoError(t, s.DeactivateEnrollment(t.Context(), learnerID, courseID))

		n, err := s.CountActiveEnrollments(t.Context(), courseID)
		require.NoError(t, err)
		assert.Zero(t, n)

		ids, err := s.ListActiveSubscribers(t.Context(), courseID)
		require.NoError(t, err)
		assert.Empty(t, ids)

		got, found, err := s.FindHistoricalEnrollment(t.Context(), learnerID, courseID)
		require.NoError(t, err)
		require.True(t, found)
		assert.False(t, got.Active)
	})

	t.Run("存在しない登録の無効化はErrNotFoundになること", func(t *testing.T) {
		t.Parallel()
		s, learnerID, courseID := setup(t)

		assert.ErrorIs(t, s.DeactivateEnrollment(t.Context(), learnerID, courseID), course.ErrNotFound)
	})

	t.Run("受講者は学習者ID順で返ること", func(t *testing.T) {
		t.Parallel()
		s, first, courseID := setup(t)

		second, err := s.CreateLearner(t.Context(), course.Learner{Email: "bia@example.com"})
		require.NoError(t, err)

		require.NoError(t, s.InsertEnrollment(t.Context(), enrollment("e-2", second, courseID)))
		require.NoError(t, s.InsertEnrollment(t.Context(), enrollment("e-1", first, courseID)))

		ids, err := s.ListActiveSubscribers(t.Context(), courseID)
		require.NoError(t, err)
		assert.Equal(t, []int64{first, second}, ids)
	})

	t.Run("受講中一覧はコース内容を含むこと", func(t *testing.T) {
		t.Parallel()
		s, learnerID, courseID := setup(t)

		otherID, err := s.CreateCourse(t.Context(), testCourse(nil))
		require.NoError(t, err)

		require.NoError(t, s.InsertEnrollment(t.Context(), enrollment("e-1", learnerID, courseID)))
		require.NoError(t, s.InsertEnrollment(t.Context(), enrollment("e-2", learnerID, otherID)))
		require.NoError(t, s.DeactivateEnrollment(t.Context(), learnerID, otherID))

		list, err := s.ListActiveEnrollments(t.Context(), learnerID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "e-1", list[0].ID)
		assert.Equal(t, courseID, list[0].CourseID)
		assert.Equal(t, "Go para iniciantes", list[0].Course.Title)
		assert.True(t, list[0].Active)
	})
}
