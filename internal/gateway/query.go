package gateway

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/promptgate/internal/metrics"
	"github.com/nao1215/promptgate/internal/ollama"
	"github.com/nao1215/promptgate/pkg/middleware"
)

// queryRequest は/queryエンドポイントのリクエストボディ。
// ポインタ型のフィールドは「未指定」と「0を指定」を区別するために使う。
type queryRequest struct {
	// Query はモデルへの問い合わせ本文（必須）。
	Query string `json:"query"`
	// Model は使用するモデル名。未指定・空の場合はデフォルトモデル。
	Model string `json:"model"`
	// Context はシステムメッセージとして渡すコンテキスト。
	Context string `json:"context"`
	// Temperature は出力のランダム性（0.0-2.0）。
	Temperature *float64 `json:"temperature"`
	// TopP はnucleusサンプリングのパラメータ（0.0-1.0）。
	TopP *float64 `json:"top_p"`
	// TopK はtop-kサンプリングのパラメータ（非負）。
	TopK *int `json:"top_k"`
	// NumPredict は生成する最大トークン数（非負）。
	NumPredict *int `json:"num_predict"`
	// Stop はカンマ区切りの停止シーケンス。
	Stop string `json:"stop"`
	// Format は応答フォーマット（例: "json"）。
	Format string `json:"format"`
	// NumCtx はコンテキストウィンドウサイズ。
	NumCtx *int `json:"num_ctx"`
	// NumGPU は使用するGPUレイヤー数。0はCPUのみでの推論を意味する。
	NumGPU *int `json:"num_gpu"`
	// NumThread は使用するCPUスレッド数。
	NumThread *int `json:"num_thread"`
}

// クエリパラメータのデフォルト値。
const (
	defaultTemperature = 0.7
	defaultTopP        = 0.9
	defaultTopK        = 40
	defaultNumPredict  = 2048
	defaultNumCtx      = 4096
	defaultNumGPU      = 1
	defaultNumThread   = 4
)

// ansiEscapePattern はANSIエスケープシーケンスにマッチする。
var ansiEscapePattern = regexp.MustCompile(`\x1B[@-_][0-?]*[ -/]*[@-~]`)

// shellMetaPattern はシェルのメタ文字にマッチする。
var shellMetaPattern = regexp.MustCompile(`[;&|]`)

// handleQuery は認証済みクエリをOllamaに転送するハンドラを返す。
// このパスではリトライを行わない。Ollamaに到達できない場合は503を返す。
func (s *Server) handleQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req queryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			metrics.QueryRequestsTotal.WithLabelValues("validation_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Validation Error",
				"error":   "request body must be a JSON object",
			})
			return
		}

		if errMsg := s.validateQuery(&req); errMsg != "" {
			metrics.QueryRequestsTotal.WithLabelValues("validation_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Validation Error",
				"error":   errMsg,
			})
			return
		}

		chatReq := s.buildChatRequest(&req)

		start := time.Now()
		resp, err := s.ollama.Chat(c.Request.Context(), chatReq)
		metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			s.respondUpstreamError(c, err)
			return
		}

		metrics.QueryRequestsTotal.WithLabelValues("success").Inc()
		log.Printf("クエリ成功: app=%s model=%s request_id=%s",
			middleware.GetAppName(c), chatReq.Model, middleware.GetRequestID(c))
		c.JSON(http.StatusOK, gin.H{
			"message": "Success",
			"response": gin.H{
				"message":    resp.Message.Content,
				"model":      resp.Model,
				"created_at": resp.CreatedAt,
				"done":       resp.Done,
			},
			"parameters": gin.H{
				"model":          chatReq.Model,
				"temperature":    chatReq.Options.Temperature,
				"top_p":          chatReq.Options.TopP,
				"top_k":          chatReq.Options.TopK,
				"num_predict":    chatReq.Options.NumPredict,
				"context_length": chatReq.Options.NumCtx,
			},
		})
	}
}

// validateQuery はリクエストの内容を検証し、問題があればエラーメッセージを返す。
// 問題がなければ空文字列を返す。検証はクエリ必須・モデル許可リスト・
// 危険文字の拒否・パラメータ範囲の順に行う。
func (s *Server) validateQuery(req *queryRequest) string {
	if req.Query == "" {
		return "query is required"
	}

	// モデルの検証はクエリ本文の検証より先に行う
	if req.Model != "" && !s.cfg.IsAllowedModel(req.Model) {
		return fmt.Sprintf("invalid model. allowed models: %s", strings.Join(s.cfg.AllowedModels, ", "))
	}

	if strings.Contains(req.Query, "..") || strings.HasPrefix(req.Query, "/") {
		return "invalid query"
	}
	if shellMetaPattern.MatchString(req.Query) {
		return "invalid characters in query"
	}

	if req.Temperature != nil && (*req.Temperature < 0.0 || *req.Temperature > 2.0) {
		return "temperature must be between 0.0 and 2.0"
	}
	if req.TopP != nil && (*req.TopP < 0.0 || *req.TopP > 1.0) {
		return "top_p must be between 0.0 and 1.0"
	}
	if req.TopK != nil && *req.TopK < 0 {
		return "top_k must be non-negative"
	}
	if req.NumPredict != nil && *req.NumPredict < 0 {
		return "num_predict must be non-negative"
	}
	return ""
}

// buildChatRequest は検証済みリクエストからOllamaへの転送リクエストを組み立てる。
// クエリ本文はANSIエスケープの除去と空白の正規化を行う。
func (s *Server) buildChatRequest(req *queryRequest) *ollama.ChatRequest {
	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel()
	}

	opts := &ollama.Options{
		Temperature: defaultTemperature,
		TopP:        defaultTopP,
		TopK:        defaultTopK,
		NumPredict:  defaultNumPredict,
		NumCtx:      defaultNumCtx,
		NumGPU:      defaultNumGPU,
		NumThread:   defaultNumThread,
	}
	if req.Temperature != nil {
		opts.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		opts.TopP = *req.TopP
	}
	if req.TopK != nil {
		opts.TopK = *req.TopK
	}
	if req.NumPredict != nil {
		opts.NumPredict = *req.NumPredict
	}
	if req.NumCtx != nil {
		opts.NumCtx = *req.NumCtx
	}
	if req.NumGPU != nil {
		opts.NumGPU = *req.NumGPU
	}
	if req.NumThread != nil {
		opts.NumThread = *req.NumThread
	}
	for _, stop := range strings.Split(req.Stop, ",") {
		if stop = strings.TrimSpace(stop); stop != "" {
			opts.Stop = append(opts.Stop, stop)
		}
	}

	return &ollama.ChatRequest{
		Model: model,
		Messages: []ollama.ChatMessage{
			{Role: "system", Content: req.Context},
			{Role: "user", Content: cleanQuery(req.Query)},
		},
		Stream:  false,
		Format:  req.Format,
		Options: opts,
	}
}

// respondUpstreamError は転送失敗をHTTP応答に対応づける。
// 接続不能は503、それ以外（応答の解釈失敗など）は500となる。
// いずれも内部詳細はログにのみ出力し、クライアントには汎用メッセージを返す。
func (s *Server) respondUpstreamError(c *gin.Context, err error) {
	log.Printf("ollamaへの転送に失敗: request_id=%s error=%v", middleware.GetRequestID(c), err)

	if errors.Is(err, ollama.ErrUnavailable) {
		metrics.QueryRequestsTotal.WithLabelValues("upstream_unavailable").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message": "Ollama service is not available",
			"error":   "cannot connect to the inference service",
		})
		return
	}

	metrics.QueryRequestsTotal.WithLabelValues("upstream_error").Inc()
	c.JSON(http.StatusInternalServerError, gin.H{
		"message": "Ollama runtime error",
		"error":   "failed to process the query",
	})
}

// cleanQuery はクエリ本文からANSIエスケープを除去し、行単位で整形する。
// "INFO"で始まる行はツール出力の混入とみなして取り除く。
func cleanQuery(query string) string {
	cleaned := strings.TrimSpace(ansiEscapePattern.ReplaceAllString(query, ""))
	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		if !strings.HasPrefix(line, "INFO") {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	return strings.Join(lines, " ")
}
