// Package gateway はプロンプトゲートウェイのHTTPサーバーを提供する。
//
// Bearerトークンで認証したクエリをOllamaに転送し、結果を中継する。
// ヘルスチェック（/up, /health/ollama）は認証なしでアクセスできるため、
// オペレーターはクレデンシャルなしで稼働状態を確認できる。
package gateway
