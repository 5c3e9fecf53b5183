// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// APIキー（Bearerトークン）の検証、リクエストID付与、パニックリカバリ、
// CORS設定を含む。認証拒否の理由は内部ログとメトリクスにのみ記録し、
// クライアントには常に同一の応答を返す。
package middleware
