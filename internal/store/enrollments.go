package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/inscricoes/internal/course"
)

// CountActiveEnrollments はコースの受講中（active=1）の登録件数を返す。
func (s *Store) CountActiveEnrollments(ctx context.Context, courseID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE course_id = ? AND active = 1`, courseID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("受講者数の取得に失敗: %w", err)
	}
	return n, nil
}

// FindHistoricalEnrollment は有効/無効を問わず、学習者とコースの組み合わせの登録を探す。
// 見つからない場合は found=false を返す。
func (s *Store) FindHistoricalEnrollment(ctx context.Context, learnerID, courseID int64) (*course.Enrollment, bool, error) {
	var (
		e       course.Enrollment
		active  int
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, learner_id, course_id, active, objectives, created_at
		FROM enrollments WHERE learner_id = ? AND course_id = ?`,
		learnerID, courseID,
	).Scan(&e.ID, &e.LearnerID, &e.CourseID, &active, &e.Objectives, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("受講履歴の取得に失敗: %w", err)
	}

	e.Active = active == 1
	if e.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, false, fmt.Errorf("登録日時の解析に失敗: %w", err)
	}
	return &e, true, nil
}

// InsertEnrollment は受講登録を1件挿入する。挿入のみを1つのトランザクションで行い、
// 失敗時はロールバックして course.ErrTransaction を返す。
// 一意制約違反（同時に同じ組み合わせが登録された場合）は course.ErrConflict を返す。
func (s *Store) InsertEnrollment(ctx context.Context, e course.Enrollment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: トランザクション開始に失敗: %w", course.ErrTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck

	active := 0
	if e.Active {
		active = 1
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO enrollments (id, learner_id, course_id, active, objectives, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.LearnerID, e.CourseID, active, e.Objectives, e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: já frequentou este curso", course.ErrConflict)
		}
		return fmt.Errorf("%w: 受講登録の挿入に失敗: %w", course.ErrTransaction, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: コミットに失敗: %w", course.ErrTransaction, err)
	}
	return nil
}

// DeactivateEnrollment は受講登録を無効化する。管理者操作用であり、行は削除しない。
// 登録が存在しない場合は course.ErrNotFound を返す。
func (s *Store) DeactivateEnrollment(ctx context.Context, learnerID, courseID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE enrollments SET active = 0 WHERE learner_id = ? AND course_id = ?`,
		learnerID, courseID,
	)
	if err != nil {
		return fmt.Errorf("受講登録の無効化に失敗: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: inscrição não encontrada", course.ErrNotFound)
	}
	return nil
}

// ListActiveSubscribers はコースを受講中の学習者IDを昇順で返す。
// 通知先の解決に使うためキャッシュせず毎回問い合わせる。
func (s *Store) ListActiveSubscribers(ctx context.Context, courseID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT learner_id FROM enrollments
		WHERE course_id = ? AND active = 1
		ORDER BY learner_id`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("受講者一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("受講者IDの読み取りに失敗: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListActiveEnrollments は学習者の受講中の登録をコース内容とともに新しい順で返す。
func (s *Store) ListActiveEnrollments(ctx context.Context, learnerID int64) ([]course.EnrollmentWithCourse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+courseColumns+`, e.id, e.learner_id, e.objectives, e.created_at
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.learner_id = ? AND e.active = 1
		ORDER BY e.created_at DESC, e.id`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("受講中一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]course.EnrollmentWithCourse, 0)
	for rows.Next() {
		var (
			e       course.Enrollment
			created string
		)
		c, err := scanCourse(rows, &e.ID, &e.LearnerID, &e.Objectives, &created)
		if err != nil {
			return nil, fmt.Errorf("受講中一覧の読み取りに失敗: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("登録日時の解析に失敗: %w", err)
		}
		e.CourseID = c.ID
		e.Active = true

		result = append(result, course.EnrollmentWithCourse{Enrollment: e, Course: *c})
	}
	return result, rows.Err()
}
