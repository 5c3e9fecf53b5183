package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"
)

// ErrUnavailable はOllamaへの接続自体に失敗したことを示すセンチネルエラー。
// ハンドラ側で503に対応づけるために使用する。
var ErrUnavailable = errors.New("ollamaに接続できません")

// Client はOllama APIとの通信を行うクライアント。
// 複数ゴルーチンから同時に使用できる。
type Client struct {
	// baseURL はOllamaのベースURL（例: "http://host.docker.internal:11434"）。
	baseURL string
	// probeClient はヘルスチェック用の短いタイムアウトを持つHTTPクライアント。
	probeClient *http.Client
	// chatClient は推論用の長いタイムアウトを持つHTTPクライアント。
	chatClient *http.Client
	// sleep はリトライ間の待機処理。テストで差し替えるため注入可能にしている。
	sleep func(ctx context.Context, d time.Duration)
}

// NewClient は新しいOllamaクライアントを生成する。
// probeTimeoutはヘルスチェック、chatTimeoutは推論リクエストに適用される。
func NewClient(baseURL string, probeTimeout, chatTimeout time.Duration) *Client {
	return &Client{
		baseURL:     baseURL,
		probeClient: &http.Client{Timeout: probeTimeout},
		chatClient:  &http.Client{Timeout: chatTimeout},
		sleep:       sleepWithContext,
	}
}

// Check はOllamaへの到達性を1回だけ確認する。
// /api/tagsへのGETが200を返せば到達可能と判定する。失敗は全て
// Healthの値として返し、エラーもパニックも発生させない。
func (c *Client) Check(ctx context.Context) Health {
	h := Health{CheckedAt: time.Now()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		h.Detail = "invalid_endpoint"
		return h
	}

	resp, err := c.probeClient.Do(req)
	if err != nil {
		h.Detail = classifyTransportError(err)
		return h
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.Detail = "unexpected_status:" + strconv.Itoa(resp.StatusCode)
		return h
	}

	h.Reachable = true
	return h
}

// ListModels はOllamaにロード済みのモデル名一覧を返す。
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("モデル一覧リクエストの作成に失敗: %w", err)
	}

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("モデル一覧の取得に失敗: status=%d", resp.StatusCode)
	}

	var tags TagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("モデル一覧のデシリアライズに失敗: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Chat は/api/chatに非ストリーミングの推論リクエストを送信する。
// 接続失敗・タイムアウトはErrUnavailableをラップしたエラーとして返す。
// このパスではリトライを行わない（リトライは起動時ウォームアップのみ）。
func (c *Client) Chat(ctx context.Context, chatReq *ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("推論リクエストのシリアライズに失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("推論リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.chatClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollamaがエラーを返しました: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("推論レスポンスのデシリアライズに失敗: %w", err)
	}
	return &chatResp, nil
}

// classifyTransportError はトランスポート層のエラーを短い分類文字列に変換する。
func classifyTransportError(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "connection_refused"
	}
	return "connection_error"
}

// sleepWithContext はコンテキストのキャンセルを尊重してdだけ待機する。
func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
