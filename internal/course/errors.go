package course

import "errors"

// エラー分類。呼び出し側は errors.Is で判定し、HTTPステータスに変換する。
// メッセージはクライアントにそのまま返すためポルトガル語で記述する。
var (
	// ErrValidation は入力が不正または不足していることを表す（400）。
	ErrValidation = errors.New("pedido inválido")
	// ErrNotFound は学習者・コースが存在しない、または受付中でないことを表す（404）。
	ErrNotFound = errors.New("não encontrado")
	// ErrConflict は同一コースへの受講登録が過去に存在することを表す（409）。
	ErrConflict = errors.New("conflito")
	// ErrCapacityExceeded は同期コースの定員に達していることを表す（400）。
	ErrCapacityExceeded = errors.New("vagas esgotadas")
	// ErrUnauthenticated は認証情報が無いか無効であることを表す（401）。
	ErrUnauthenticated = errors.New("não autenticado")
	// ErrTransaction はコミット処理中のDBエラーを表す（500）。ロールバック済み。
	ErrTransaction = errors.New("falha na transação")
)
