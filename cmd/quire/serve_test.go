package main

import (
	"path/filepath"
	"testing"

	"github.com/zulandar/quire/internal/config"
	"github.com/zulandar/quire/internal/db"
)

func TestBuildDeps(t *testing.T) {
	cfg, err := config.Parse([]byte("auth:\n  tokens:\n    tok-a: alice\n"))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.DB.Path = filepath.Join(t.TempDir(), "quire.db")

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	deps, err := buildDeps(cfg, gormDB)
	if err != nil {
		t.Fatalf("buildDeps: %v", err)
	}
	if deps.Store == nil || deps.Orchestrator == nil || deps.Auth == nil {
		t.Error("buildDeps left a required dependency nil")
	}
	if deps.MaxPages != 5 {
		t.Errorf("MaxPages = %d, want default 5", deps.MaxPages)
	}
	if deps.Notifier != nil {
		t.Error("no notifiers configured, want nil Notifier")
	}
}

func TestBuildNotifier_NoneEnabled(t *testing.T) {
	n, err := buildNotifier(config.NotifyConfig{})
	if err != nil {
		t.Fatalf("buildNotifier: %v", err)
	}
	if n != nil {
		t.Errorf("notifier = %v, want nil when nothing is enabled", n)
	}
}

func TestBuildNotifier_SlackMissingToken(t *testing.T) {
	t.Setenv("QUIRE_TEST_EMPTY_TOKEN", "")
	_, err := buildNotifier(config.NotifyConfig{
		Slack: config.SlackConfig{ChannelID: "C123", TokenEnv: "QUIRE_TEST_EMPTY_TOKEN"},
	})
	if err == nil {
		t.Fatal("expected error when slack token env is empty")
	}
}
