package config

import (
	"testing"
	"time"
)

// TestLoadDefaults は環境変数未設定時にデフォルト値が使われることを検証する。
func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"HOST", "PORT", "OLLAMA_URL", "OLLAMA_PROBE_TIMEOUT", "OLLAMA_CHAT_TIMEOUT",
		"OLLAMA_STARTUP_ATTEMPTS", "OLLAMA_STARTUP_RETRY_DELAY", "API_KEYS", "ALLOWED_MODELS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want %q", cfg.Host, "0.0.0.0")
	}
	if cfg.Port != "5000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "5000")
	}
	if cfg.OllamaURL != "http://host.docker.internal:11434" {
		t.Errorf("OllamaURL = %q, want %q", cfg.OllamaURL, "http://host.docker.internal:11434")
	}
	if cfg.ProbeTimeout != 5*time.Second {
		t.Errorf("ProbeTimeout = %v, want %v", cfg.ProbeTimeout, 5*time.Second)
	}
	if cfg.StartupMaxAttempts != 10 {
		t.Errorf("StartupMaxAttempts = %d, want 10", cfg.StartupMaxAttempts)
	}
	if cfg.StartupRetryDelay != 2*time.Second {
		t.Errorf("StartupRetryDelay = %v, want %v", cfg.StartupRetryDelay, 2*time.Second)
	}
	if cfg.DefaultModel() != "llama3:8b" {
		t.Errorf("DefaultModel() = %q, want %q", cfg.DefaultModel(), "llama3:8b")
	}
}

// TestLoadOverrides は環境変数による設定上書きを検証する。
func TestLoadOverrides(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Setenv("OLLAMA_URL", "http://localhost:11434")
	t.Setenv("OLLAMA_PROBE_TIMEOUT", "3s")
	t.Setenv("OLLAMA_STARTUP_ATTEMPTS", "5")
	t.Setenv("OLLAMA_STARTUP_RETRY_DELAY", "500ms")
	t.Setenv("API_KEYS", `[{"appname":"APP1","key":"abc"}]`)
	t.Setenv("ALLOWED_MODELS", "llama3:8b, mistral:7b")

	cfg := Load()

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want %q", cfg.Host, "127.0.0.1")
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.ProbeTimeout != 3*time.Second {
		t.Errorf("ProbeTimeout = %v, want %v", cfg.ProbeTimeout, 3*time.Second)
	}
	if cfg.StartupMaxAttempts != 5 {
		t.Errorf("StartupMaxAttempts = %d, want 5", cfg.StartupMaxAttempts)
	}
	if cfg.StartupRetryDelay != 500*time.Millisecond {
		t.Errorf("StartupRetryDelay = %v, want %v", cfg.StartupRetryDelay, 500*time.Millisecond)
	}
	if cfg.RawAPIKeys != `[{"appname":"APP1","key":"abc"}]` {
		t.Errorf("RawAPIKeys = %q", cfg.RawAPIKeys)
	}
	if len(cfg.AllowedModels) != 2 || cfg.AllowedModels[1] != "mistral:7b" {
		t.Errorf("AllowedModels = %v, want [llama3:8b mistral:7b]", cfg.AllowedModels)
	}
}

// TestLoadInvalidValues は不正値がデフォルトにフォールバックすることを検証する。
func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("OLLAMA_STARTUP_ATTEMPTS", "not-a-number")
	t.Setenv("OLLAMA_PROBE_TIMEOUT", "-1s")
	t.Setenv("OLLAMA_STARTUP_RETRY_DELAY", "soon")
	t.Setenv("ALLOWED_MODELS", " , ,")

	cfg := Load()

	if cfg.StartupMaxAttempts != 10 {
		t.Errorf("StartupMaxAttempts = %d, want 10", cfg.StartupMaxAttempts)
	}
	if cfg.ProbeTimeout != 5*time.Second {
		t.Errorf("ProbeTimeout = %v, want %v", cfg.ProbeTimeout, 5*time.Second)
	}
	if cfg.StartupRetryDelay != 2*time.Second {
		t.Errorf("StartupRetryDelay = %v, want %v", cfg.StartupRetryDelay, 2*time.Second)
	}
	if len(cfg.AllowedModels) != 1 || cfg.AllowedModels[0] != "llama3:8b" {
		t.Errorf("AllowedModels = %v, want [llama3:8b]", cfg.AllowedModels)
	}
}

// TestIsAllowedModel はモデル許可判定を検証する。
func TestIsAllowedModel(t *testing.T) {
	t.Parallel()

	cfg := &Config{AllowedModels: []string{"llama3:8b", "mistral:7b"}}

	if !cfg.IsAllowedModel("llama3:8b") {
		t.Error("IsAllowedModel(llama3:8b) = false, want true")
	}
	if cfg.IsAllowedModel("gpt-4") {
		t.Error("IsAllowedModel(gpt-4) = true, want false")
	}
	if cfg.IsAllowedModel("") {
		t.Error("IsAllowedModel(\"\") = true, want false")
	}
}
