package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nao1215/inscricoes/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store はSQLiteに対する型付きリポジトリ。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// logger はクエリ失敗時などのログ出力先。
	logger *zap.Logger
}

// Open はSQLiteデータベースを開き、マイグレーションを適用したStoreを返す。
// WALモード、ビジータイムアウト、外部キー制約を有効にする。
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	s := New(db, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory はインメモリSQLiteでStoreを生成する。テストとローカル確認用。
// :memory: は接続ごとに別DBになるため接続数を1に固定する。
func OpenInMemory(ctx context.Context) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("インメモリDBの作成に失敗: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("外部キー制約の有効化に失敗: %w", err)
	}

	s := New(db, zap.NewNop())
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New は既存の接続からStoreを生成する。マイグレーションは行わない。
func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Migrate は埋め込みスキーマを適用する。
func (s *Store) Migrate(ctx context.Context) error {
	if err := migration.Run(ctx, s.db, migrationsFS, "migrations", s.logger); err != nil {
		return fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return nil
}

// Ping はデータベースへの疎通を確認する。ヘルスチェックで使う。
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// isUniqueViolation はSQLiteの一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// nullString は空文字列をNULLとして扱う。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
