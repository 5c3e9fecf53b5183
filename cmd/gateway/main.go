// プロンプトゲートウェイのエントリポイント。
// クライアントアプリからのクエリをAPIキーで認証し、Ollamaに転送する。
// 起動時にOllamaへの到達性をリトライつきで確認するが、到達できなくても
// サービスは起動する（ヘルスチェックが状態を返し続ける）。
package main

import (
	"context"
	"log"

	"github.com/nao1215/promptgate/internal/config"
	"github.com/nao1215/promptgate/internal/gateway"
)

func main() {
	cfg := config.Load()
	server := gateway.NewServer(cfg)

	log.Printf("ollamaの到達性を確認します（最大%d回リトライ）...", cfg.StartupMaxAttempts)
	if h := server.WarmUp(context.Background()); h.Reachable {
		log.Printf("ollamaは到達可能です: %s", cfg.OllamaURL)
	} else {
		// ウォームアップの失敗は致命的エラーにしない。依存先が一時的に
		// 落ちていてもゲートウェイ自体は起動し、/health/ollamaと/queryが
		// 到達不能の状態を返し続ける。
		log.Printf("警告: ollamaに到達できないまま起動します: url=%s detail=%s", cfg.OllamaURL, h.Detail)
	}

	log.Printf("ゲートウェイを起動します: %s:%s", cfg.Host, cfg.Port)
	if err := server.Run(); err != nil {
		log.Fatalf("ゲートウェイの起動に失敗: %v", err)
	}
}
