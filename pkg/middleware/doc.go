// Package middleware は受講登録APIで使用するGinミドルウェアを提供する。
//
// JWTによる学習者認証、zapによるリクエストログ、パニックリカバリ、
// CORS設定を含む。
package middleware
