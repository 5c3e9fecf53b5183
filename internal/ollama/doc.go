// Package ollama はOllama APIと通信するHTTPクライアントを提供する。
//
// 到達性チェック（/api/tags）、チャット推論（/api/chat）、および
// 起動時のウォームアップリトライを担当する。全ての外部呼び出しは
// タイムアウト上限つきで実行され、失敗は結果値として返される。
package ollama
