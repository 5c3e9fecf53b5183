package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はゲートウェイの全設定を保持する。
// 起動時にLoadで生成した後は変更しないこと。
type Config struct {
	// Host はHTTPサーバーのバインド先ホスト。
	Host string
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// OllamaURL はOllamaサービスのベースURL。
	OllamaURL string
	// ProbeTimeout はヘルスチェック1回あたりのタイムアウト。
	ProbeTimeout time.Duration
	// ChatTimeout は推論リクエスト1回あたりのタイムアウト。
	ChatTimeout time.Duration
	// StartupMaxAttempts は起動時ウォームアップの最大試行回数。
	StartupMaxAttempts int
	// StartupRetryDelay はウォームアップ試行間の待機時間。
	StartupRetryDelay time.Duration
	// RawAPIKeys はAPIキー設定のJSON文字列（API_KEYS環境変数の生の値）。
	RawAPIKeys string
	// AllowedModels は利用を許可するモデル名のリスト。先頭要素がデフォルト。
	AllowedModels []string
}

// DefaultModel はmodel未指定時に使用するモデル名を返す。
// AllowedModelsの先頭要素が常にデフォルトとなる。
func (c *Config) DefaultModel() string {
	return c.AllowedModels[0]
}

// IsAllowedModel はモデル名が許可リストに含まれるかを返す。
func (c *Config) IsAllowedModel(model string) bool {
	for _, m := range c.AllowedModels {
		if m == model {
			return true
		}
	}
	return false
}

// Load は環境変数からConfigを生成する。
// 不正な数値・期間はログを出力してデフォルト値にフォールバックするため、
// エラーを返さない。
func Load() *Config {
	return &Config{
		Host:               getEnvOr("HOST", "0.0.0.0"),
		Port:               getEnvOr("PORT", "5000"),
		OllamaURL:          getEnvOr("OLLAMA_URL", "http://host.docker.internal:11434"),
		ProbeTimeout:       getEnvDurationOr("OLLAMA_PROBE_TIMEOUT", 5*time.Second),
		ChatTimeout:        getEnvDurationOr("OLLAMA_CHAT_TIMEOUT", 120*time.Second),
		StartupMaxAttempts: getEnvIntOr("OLLAMA_STARTUP_ATTEMPTS", 10),
		StartupRetryDelay:  getEnvDurationOr("OLLAMA_STARTUP_RETRY_DELAY", 2*time.Second),
		RawAPIKeys:         os.Getenv("API_KEYS"),
		AllowedModels:      getEnvModelsOr("ALLOWED_MODELS", []string{"llama3:8b"}),
	}
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getEnvIntOr は環境変数を整数として取得する。
// 未設定・不正値・非正値の場合はデフォルト値を返す。
func getEnvIntOr(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("環境変数%sの値%qが不正なためデフォルト値%dを使用します", key, v, defaultValue)
		return defaultValue
	}
	return n
}

// getEnvDurationOr は環境変数を期間として取得する。
// 未設定・不正値・非正値の場合はデフォルト値を返す。
func getEnvDurationOr(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("環境変数%sの値%qが不正なためデフォルト値%sを使用します", key, v, defaultValue)
		return defaultValue
	}
	return d
}

// getEnvModelsOr は環境変数をカンマ区切りのモデル名リストとして取得する。
// 未設定または空要素のみの場合はデフォルト値を返す。
func getEnvModelsOr(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	var models []string
	for _, m := range strings.Split(v, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		log.Printf("環境変数%sの値%qが不正なためデフォルト値%vを使用します", key, v, defaultValue)
		return defaultValue
	}
	return models
}
