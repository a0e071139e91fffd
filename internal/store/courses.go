package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/inscricoes/internal/course"
)

// courseColumns はcoursesテーブルのSELECT対象列。scanCourse の引数順と一致させること。
const courseColumns = `c.id, c.title, c.description, c.difficulty, c.points, c.theme,
	c.schedule_mode, c.capacity, c.lifecycle_state, c.start_date, c.end_date,
	c.instructor, c.instructor_email, c.updated_at`

// rowScanner は *sql.Row と *sql.Rows の共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCourse は1行をCourseに変換する。
// extra には courseColumns の後ろに続く列の格納先を指定する。
func scanCourse(row rowScanner, extra ...any) (*course.Course, error) {
	var (
		c                   course.Course
		mode, state         string
		capacity            sql.NullInt64
		start, end, updated string
		instructorEmail     sql.NullString
	)

	dest := []any{
		&c.ID, &c.Title, &c.Description, &c.Difficulty, &c.Points, &c.Theme,
		&mode, &capacity, &state, &start, &end,
		&c.Instructor, &instructorEmail, &updated,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	c.ScheduleMode = course.ScheduleMode(mode)
	c.Lifecycle = course.Lifecycle(state)
	if capacity.Valid {
		v := int(capacity.Int64)
		c.Capacity = &v
	}
	c.InstructorEmail = instructorEmail.String

	var err error
	if c.StartDate, err = time.Parse(course.DateLayout, start); err != nil {
		return nil, fmt.Errorf("開始日の解析に失敗: %w", err)
	}
	if c.EndDate, err = time.Parse(course.DateLayout, end); err != nil {
		return nil, fmt.Errorf("終了日の解析に失敗: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, fmt.Errorf("更新日時の解析に失敗: %w", err)
	}
	return &c, nil
}

// GetCourse はコースを取得する。存在しない場合は course.ErrNotFound を返す。
func (s *Store) GetCourse(ctx context.Context, id int64) (*course.Course, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses c WHERE c.id = ?`, id,
	)
	c, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: curso %d não encontrado", course.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("コースの取得に失敗: %w", err)
	}
	return c, nil
}

// CreateCourse はコースを登録し、IDを返す。c.IDが0の場合は採番する。
// 本来はコースカタログの責務であり、ローカル起動とテストのデータ投入に使う。
func (s *Store) CreateCourse(ctx context.Context, c course.Course) (int64, error) {
	var id sql.NullInt64
	if c.ID > 0 {
		id = sql.NullInt64{Int64: c.ID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (
			title, description, difficulty, points, theme, schedule_mode, capacity,
			lifecycle_state, start_date, end_date, instructor, instructor_email, updated_at, id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append(courseArgs(c), id)...,
	)
	if err != nil {
		return 0, fmt.Errorf("コースの登録に失敗: %w", err)
	}
	return res.LastInsertId()
}

// UpdateCourse はコースの可変項目を上書きする。楽観ロックは行わず後勝ちとなる。
// 存在しない場合は course.ErrNotFound を返す。
func (s *Store) UpdateCourse(ctx context.Context, c course.Course) error {
	args := append(courseArgs(c), c.ID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE courses SET
			title = ?, description = ?, difficulty = ?, points = ?, theme = ?,
			schedule_mode = ?, capacity = ?, lifecycle_state = ?, start_date = ?,
			end_date = ?, instructor = ?, instructor_email = ?, updated_at = ?
		WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("コースの更新に失敗: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: curso %d não encontrado", course.ErrNotFound, c.ID)
	}
	return nil
}

// courseArgs はINSERT/UPDATEで共通のパラメータ列を組み立てる。
func courseArgs(c course.Course) []any {
	var capacity sql.NullInt64
	if c.Capacity != nil {
		capacity = sql.NullInt64{Int64: int64(*c.Capacity), Valid: true}
	}
	updated := c.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	return []any{
		c.Title, c.Description, c.Difficulty, c.Points, c.Theme,
		string(c.ScheduleMode), capacity, string(c.Lifecycle),
		c.StartDate.Format(course.DateLayout), c.EndDate.Format(course.DateLayout),
		c.Instructor, nullString(c.InstructorEmail), updated.UTC().Format(time.RFC3339),
	}
}
