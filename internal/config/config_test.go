package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullYAML = `
server:
  port: 9090

db:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  database: quire_prod

completion:
  base_url: https://llm.internal/v1
  model: acme/answerer-7b
  api_key_env: ACME_LLM_KEY
  temperature: 0.3
  top_p: 0.9
  max_tokens: 512
  stream: true
  timeout_seconds: 120
  retries: 5
  backoff_ms: 1000

extract:
  max_chars: 4000
  max_pages: 10

auth:
  tokens:
    tok-alice: user-alice
    tok-bob: user-bob

notify:
  slack:
    channel_id: C123
    token_env: QUIRE_SLACK_TOKEN

sweep:
  schedule: "*/5 * * * *"
  stale_after_minutes: 15
`

const minimalYAML = `
db:
  driver: sqlite
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.DB.Driver != "mysql" {
		t.Errorf("DB.Driver = %q, want %q", cfg.DB.Driver, "mysql")
	}
	if cfg.DB.Host != "10.0.0.5" {
		t.Errorf("DB.Host = %q, want %q", cfg.DB.Host, "10.0.0.5")
	}
	if cfg.DB.Port != 3307 {
		t.Errorf("DB.Port = %d, want 3307", cfg.DB.Port)
	}
	if cfg.DB.Database != "quire_prod" {
		t.Errorf("DB.Database = %q, want %q", cfg.DB.Database, "quire_prod")
	}
	if cfg.Completion.Model != "acme/answerer-7b" {
		t.Errorf("Completion.Model = %q, want %q", cfg.Completion.Model, "acme/answerer-7b")
	}
	if cfg.Completion.APIKeyEnv != "ACME_LLM_KEY" {
		t.Errorf("Completion.APIKeyEnv = %q, want %q", cfg.Completion.APIKeyEnv, "ACME_LLM_KEY")
	}
	if cfg.Completion.Temperature != 0.3 {
		t.Errorf("Completion.Temperature = %v, want 0.3", cfg.Completion.Temperature)
	}
	if !cfg.Completion.Stream {
		t.Error("Completion.Stream = false, want true")
	}
	if cfg.Completion.Retries != 5 {
		t.Errorf("Completion.Retries = %d, want 5", cfg.Completion.Retries)
	}
	if cfg.Extract.MaxChars != 4000 {
		t.Errorf("Extract.MaxChars = %d, want 4000", cfg.Extract.MaxChars)
	}
	if cfg.Extract.MaxPages != 10 {
		t.Errorf("Extract.MaxPages = %d, want 10", cfg.Extract.MaxPages)
	}
	if got := cfg.Auth.Tokens["tok-alice"]; got != "user-alice" {
		t.Errorf("Auth.Tokens[tok-alice] = %q, want %q", got, "user-alice")
	}
	if cfg.Notify.Slack.ChannelID != "C123" {
		t.Errorf("Notify.Slack.ChannelID = %q, want %q", cfg.Notify.Slack.ChannelID, "C123")
	}
	if cfg.Sweep.Schedule != "*/5 * * * *" {
		t.Errorf("Sweep.Schedule = %q", cfg.Sweep.Schedule)
	}
	if cfg.Sweep.StaleAfterMinutes != 15 {
		t.Errorf("Sweep.StaleAfterMinutes = %d, want 15", cfg.Sweep.StaleAfterMinutes)
	}
}

func TestParse_MinimalDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.DB.Path != "quire.db" {
		t.Errorf("default DB.Path = %q, want %q", cfg.DB.Path, "quire.db")
	}
	if cfg.Completion.BaseURL != "https://integrate.api.nvidia.com/v1" {
		t.Errorf("default Completion.BaseURL = %q", cfg.Completion.BaseURL)
	}
	if cfg.Completion.Model != "nvidia/llama-3.1-nemotron-70b-instruct" {
		t.Errorf("default Completion.Model = %q", cfg.Completion.Model)
	}
	if cfg.Completion.Temperature != 0.5 {
		t.Errorf("default Completion.Temperature = %v, want 0.5", cfg.Completion.Temperature)
	}
	if cfg.Completion.TopP != 0.7 {
		t.Errorf("default Completion.TopP = %v, want 0.7", cfg.Completion.TopP)
	}
	if cfg.Completion.MaxTokens != 1024 {
		t.Errorf("default Completion.MaxTokens = %d, want 1024", cfg.Completion.MaxTokens)
	}
	if cfg.Completion.TimeoutSeconds != 240 {
		t.Errorf("default Completion.TimeoutSeconds = %d, want 240", cfg.Completion.TimeoutSeconds)
	}
	if cfg.Completion.Retries != 3 {
		t.Errorf("default Completion.Retries = %d, want 3", cfg.Completion.Retries)
	}
	if cfg.Completion.BackoffMS != 3000 {
		t.Errorf("default Completion.BackoffMS = %d, want 3000", cfg.Completion.BackoffMS)
	}
	if cfg.Completion.Stream {
		t.Error("default Completion.Stream = true, want false")
	}
	if cfg.Extract.MaxChars != 2000 {
		t.Errorf("default Extract.MaxChars = %d, want 2000", cfg.Extract.MaxChars)
	}
	if cfg.Extract.MaxPages != 5 {
		t.Errorf("default Extract.MaxPages = %d, want 5", cfg.Extract.MaxPages)
	}
	if cfg.Sweep.Schedule != "*/10 * * * *" {
		t.Errorf("default Sweep.Schedule = %q", cfg.Sweep.Schedule)
	}
	if cfg.Sweep.StaleAfterMinutes != 30 {
		t.Errorf("default Sweep.StaleAfterMinutes = %d, want 30", cfg.Sweep.StaleAfterMinutes)
	}
}

func TestParse_InvalidDriver(t *testing.T) {
	_, err := Parse([]byte("db:\n  driver: postgres\n"))
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "db.driver") {
		t.Errorf("error = %q, want to mention db.driver", err.Error())
	}
}

func TestParse_SlackMissingTokenEnv(t *testing.T) {
	yaml := "notify:\n  slack:\n    channel_id: C42\n"
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for slack without token_env")
	}
	if !strings.Contains(err.Error(), "token_env") {
		t.Errorf("error = %q, want to mention token_env", err.Error())
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("server: [not a map"))
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want config: parse prefix", err.Error())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quire.yaml")
	if err := os.WriteFile(path, []byte(fullYAML), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DB.Database != "quire_prod" {
		t.Errorf("DB.Database = %q, want %q", cfg.DB.Database, "quire_prod")
	}
}
