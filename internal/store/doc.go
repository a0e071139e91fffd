// Package store は学習者・コース・受講登録のSQLiteリポジトリを提供する。
//
// 各ハンドラに散在していたSQLを型付きのメソッドに集約する。
// スキーマは migrations ディレクトリのSQLを pkg/migration で適用する。
// 受講登録の挿入のみトランザクションで実行し、事前条件の確認は
// 呼び出し側（admission パッケージ）が個別のクエリとして行う。
package store
