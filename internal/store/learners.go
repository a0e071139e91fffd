package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nao1215/inscricoes/internal/course"
)

// GetLearner は学習者を取得する。存在しない場合は course.ErrNotFound を返す。
func (s *Store) GetLearner(ctx context.Context, id int64) (*course.Learner, error) {
	var (
		l     course.Learner
		token sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, device_token FROM learners WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name, &l.Email, &token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: utilizador %d não encontrado", course.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("学習者の取得に失敗: %w", err)
	}
	if token.Valid {
		l.DeviceToken = &token.String
	}
	return &l, nil
}

// CreateLearner は学習者を登録し、採番されたIDを返す。
// 本来はIdentityサービスの責務であり、ローカル起動とテストのデータ投入に使う。
func (s *Store) CreateLearner(ctx context.Context, l course.Learner) (int64, error) {
	var token sql.NullString
	if l.DeviceToken != nil {
		token = nullString(*l.DeviceToken)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO learners (name, email, device_token) VALUES (?, ?, ?)`,
		l.Name, l.Email, token,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: email já registado", course.ErrConflict)
		}
		return 0, fmt.Errorf("学習者の登録に失敗: %w", err)
	}
	return res.LastInsertId()
}

// SetDeviceToken はデバイストークンを上書きする。tokenがnilの場合はクリアする（ログアウト）。
// 学習者が存在しない場合は course.ErrNotFound を返す。
func (s *Store) SetDeviceToken(ctx context.Context, learnerID int64, token *string) error {
	var value sql.NullString
	if token != nil {
		value = nullString(*token)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE learners SET device_token = ? WHERE id = ?`, value, learnerID,
	)
	if err != nil {
		return fmt.Errorf("デバイストークンの更新に失敗: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: utilizador %d não encontrado", course.ErrNotFound, learnerID)
	}
	return nil
}
