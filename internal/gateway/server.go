package gateway

import (
	"context"
	"log"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/promptgate/internal/config"
	"github.com/nao1215/promptgate/internal/credential"
	"github.com/nao1215/promptgate/internal/metrics"
	"github.com/nao1215/promptgate/internal/ollama"
	"github.com/nao1215/promptgate/pkg/middleware"
)

// Server はプロンプトゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg はゲートウェイの設定。起動後は変更されない。
	cfg *config.Config
	// creds はパース済みのクレデンシャルストア。
	creds *credential.Store
	// ollama はOllamaサービスへのクライアント。
	ollama *ollama.Client
}

// NewServer は新しいゲートウェイサーバーを生成する。
// クレデンシャルは設定のAPI_KEYS JSON文字列からパースされる。
// パース失敗時は空のストアで起動し、保護対象の全リクエストが拒否される。
func NewServer(cfg *config.Config) *Server {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())

	s := &Server{
		router: router,
		cfg:    cfg,
		creds:  credential.Load(cfg.RawAPIKeys),
		ollama: ollama.NewClient(cfg.OllamaURL, cfg.ProbeTimeout, cfg.ChatTimeout),
	}
	s.setupRoutes()

	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(net.JoinHostPort(s.cfg.Host, s.cfg.Port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 死活監視（認証不要）。プロセスが応答できることだけを示す。
	s.router.GET("/up", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 疎通確認（認証不要）
	s.router.GET("/echo", func(c *gin.Context) {
		c.JSON(http.StatusOK, "Server active!")
	})

	// Ollamaヘルスチェック（認証不要）
	s.router.GET("/health/ollama", s.handleOllamaHealth())

	// Prometheusメトリクス
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 推論クエリ（認証必須）
	s.router.POST("/query", middleware.APIKeyAuth(s.creds), s.handleQuery())
}

// handleOllamaHealth はOllamaへの到達性をその場で確認するハンドラを返す。
// 結果はキャッシュせず、呼び出しごとに新しいプローブを実行する。
func (s *Server) handleOllamaHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := s.ollama.Check(c.Request.Context())
		if h.Reachable {
			metrics.ProbesTotal.WithLabelValues("reachable").Inc()
			c.JSON(http.StatusOK, gin.H{
				"status":    "healthy",
				"reachable": true,
				"detail":    "",
			})
			return
		}

		metrics.ProbesTotal.WithLabelValues("unreachable").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"reachable": false,
			"detail":    h.Detail,
		})
	}
}

// WarmUp はOllamaが到達可能になるまで固定間隔のリトライつきで待機する。
// サーバーがリクエストを受け付け始める前に一度だけ呼び出す。
// 上限回数に達しても致命的エラーにはせず、最後に観測した状態を返す
// （到達不能のままでもサービスは起動し、/health/ollamaと/queryが
// その状態を返し続ける）。到達できた場合は許可モデルがOllamaに
// ロード済みかどうかをログに出力する。
func (s *Server) WarmUp(ctx context.Context) ollama.Health {
	h := s.ollama.WaitForReady(ctx, s.cfg.StartupMaxAttempts, s.cfg.StartupRetryDelay)
	if !h.Reachable {
		return h
	}

	loaded, err := s.ollama.ListModels(ctx)
	if err != nil {
		log.Printf("モデル一覧の取得に失敗しました: %v", err)
		return h
	}
	loadedSet := make(map[string]struct{}, len(loaded))
	for _, name := range loaded {
		loadedSet[name] = struct{}{}
	}
	for _, model := range s.cfg.AllowedModels {
		if _, ok := loadedSet[model]; ok {
			log.Printf("モデル%qはロード済みです", model)
		} else {
			log.Printf("モデル%qがOllamaにロードされていません（ollama pull %sを実行してください）", model, model)
		}
	}
	return h
}
