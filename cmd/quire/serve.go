package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zulandar/quire/internal/chat"
	"github.com/zulandar/quire/internal/completion"
	"github.com/zulandar/quire/internal/config"
	"github.com/zulandar/quire/internal/db"
	"github.com/zulandar/quire/internal/extract"
	"github.com/zulandar/quire/internal/notify"
	"github.com/zulandar/quire/internal/notify/discord"
	"github.com/zulandar/quire/internal/notify/slack"
	"github.com/zulandar/quire/internal/server"
	"github.com/zulandar/quire/internal/store"
	"github.com/zulandar/quire/internal/sweep"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Quire API server",
		Long:  "Runs migrations, starts the stale-document sweeper and serves the chat API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quire.yaml", "path to Quire config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	deps, err := buildDeps(cfg, gormDB)
	if err != nil {
		return err
	}
	if deps.Notifier != nil {
		defer deps.Notifier.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	sweeper, err := sweep.New(sweep.Opts{
		Store:      deps.Store,
		Schedule:   cfg.Sweep.Schedule,
		StaleAfter: time.Duration(cfg.Sweep.StaleAfterMinutes) * time.Minute,
		Notifier:   deps.Notifier,
	})
	if err != nil {
		return err
	}
	go sweeper.Run(ctx)

	if port <= 0 {
		port = cfg.Server.Port
	}
	return server.Start(ctx, server.StartOpts{
		Deps: deps,
		Port: port,
		Out:  cmd.OutOrStdout(),
	})
}

// buildDeps assembles the handler collaborators from configuration.
func buildDeps(cfg *config.Config, gormDB *gorm.DB) (server.Deps, error) {
	st, err := store.New(gormDB)
	if err != nil {
		return server.Deps{}, err
	}

	client, err := completion.NewClient(completion.ClientOpts{
		BaseURL:     cfg.Completion.BaseURL,
		APIKey:      os.Getenv(cfg.Completion.APIKeyEnv),
		Timeout:     time.Duration(cfg.Completion.TimeoutSeconds) * time.Second,
		MaxAttempts: cfg.Completion.Retries,
		BaseBackoff: time.Duration(cfg.Completion.BackoffMS) * time.Millisecond,
	})
	if err != nil {
		return server.Deps{}, err
	}

	fetcher := chat.NewHTTPFetcher(0)
	extractor := &extract.PDFExtractor{MaxChars: cfg.Extract.MaxChars}

	orch, err := chat.NewOrchestrator(chat.OrchestratorOpts{
		Store:     st,
		Extractor: extractor,
		Fetcher:   fetcher,
		Completer: client,
		Options: completion.Options{
			Model:       cfg.Completion.Model,
			Temperature: cfg.Completion.Temperature,
			TopP:        cfg.Completion.TopP,
			MaxTokens:   cfg.Completion.MaxTokens,
		},
	})
	if err != nil {
		return server.Deps{}, err
	}

	notifier, err := buildNotifier(cfg.Notify)
	if err != nil {
		return server.Deps{}, err
	}

	return server.Deps{
		Store:           st,
		Orchestrator:    orch,
		Auth:            server.StaticTokens(cfg.Auth.Tokens),
		Fetcher:         fetcher,
		Extractor:       extractor,
		Notifier:        notifier,
		MaxPages:        cfg.Extract.MaxPages,
		StreamByDefault: cfg.Completion.Stream,
	}, nil
}

// buildNotifier assembles the configured notification adapters. Returns nil
// when none are enabled. Tokens come from the environment variables the
// config names.
func buildNotifier(cfg config.NotifyConfig) (notify.Notifier, error) {
	var multi notify.Multi

	if cfg.Slack.ChannelID != "" {
		adapter, err := slack.New(slack.AdapterOpts{
			Token:     os.Getenv(cfg.Slack.TokenEnv),
			ChannelID: cfg.Slack.ChannelID,
		})
		if err != nil {
			return nil, fmt.Errorf("slack notifier: %w", err)
		}
		multi = append(multi, adapter)
	}

	if cfg.Discord.ChannelID != "" {
		adapter, err := discord.New(discord.AdapterOpts{
			Token:     os.Getenv(cfg.Discord.TokenEnv),
			ChannelID: cfg.Discord.ChannelID,
		})
		if err != nil {
			return nil, fmt.Errorf("discord notifier: %w", err)
		}
		multi = append(multi, adapter)
	}

	if len(multi) == 0 {
		return nil, nil
	}
	return multi, nil
}
