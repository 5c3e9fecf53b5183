package ollama

import "time"

// ChatMessage は会話内の1メッセージ。
type ChatMessage struct {
	// Role は発話者の役割（"system", "user", "assistant"）。
	Role string `json:"role"`
	// Content はメッセージ本文。
	Content string `json:"content"`
}

// Options は推論時のモデルパラメータ。
// 数値フィールドは常に全て転送される。ゼロは「未指定」ではなく明示的な
// 指定（例: temperature=0の決定的出力、num_gpu=0のCPU推論）であるため、
// 省略してはならない。
type Options struct {
	// Temperature は出力のランダム性（0.0-2.0）。
	Temperature float64 `json:"temperature"`
	// TopP はnucleusサンプリングのパラメータ（0.0-1.0）。
	TopP float64 `json:"top_p"`
	// TopK はtop-kサンプリングのパラメータ。
	TopK int `json:"top_k"`
	// NumPredict は生成する最大トークン数。
	NumPredict int `json:"num_predict"`
	// NumCtx はコンテキストウィンドウサイズ。
	NumCtx int `json:"num_ctx"`
	// NumGPU は使用するGPUレイヤー数。
	NumGPU int `json:"num_gpu"`
	// NumThread は使用するCPUスレッド数。
	NumThread int `json:"num_thread"`
	// Stop は生成を打ち切る文字列のリスト。
	Stop []string `json:"stop,omitempty"`
}

// ChatRequest は/api/chatエンドポイントへのリクエストボディ。
type ChatRequest struct {
	// Model は使用するモデル名（例: "llama3:8b"）。
	Model string `json:"model"`
	// Messages は会話履歴。
	Messages []ChatMessage `json:"messages"`
	// Stream はストリーミング応答を有効にするかどうか。ゲートウェイでは常にfalse。
	Stream bool `json:"stream"`
	// Format は応答フォーマット（例: "json"）。
	Format string `json:"format,omitempty"`
	// Options はモデルパラメータ。
	Options *Options `json:"options,omitempty"`
}

// ChatResponse は/api/chatエンドポイントの非ストリーミング応答。
type ChatResponse struct {
	// Model は応答を生成したモデル名。
	Model string `json:"model"`
	// CreatedAt は応答の生成時刻。
	CreatedAt string `json:"created_at"`
	// Message はモデルの応答メッセージ。
	Message ChatMessage `json:"message"`
	// Done は生成が完了したかどうか。
	Done bool `json:"done"`
}

// TagsResponse は/api/tagsエンドポイントの応答。
type TagsResponse struct {
	// Models はOllamaにロード済みのモデル一覧。
	Models []ModelInfo `json:"models"`
}

// ModelInfo はロード済みモデルのメタデータ。
type ModelInfo struct {
	// Name はモデル名（例: "llama3:8b"）。
	Name string `json:"name"`
}

// Health は1回のプローブで観測した到達性の状態。
// プローブごとに再計算され、キャッシュ・永続化はされない。
type Health struct {
	// Reachable はOllamaに到達できたかどうか。
	Reachable bool `json:"reachable"`
	// CheckedAt はプローブを実行した時刻。
	CheckedAt time.Time `json:"checked_at"`
	// Detail は失敗時の分類（"connection_refused"、"timeout"、
	// "unexpected_status:<code>" など）。成功時は空。
	Detail string `json:"detail,omitempty"`
}
