package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"tripweaver/config"
	"tripweaver/internal/agentdef"
	"tripweaver/internal/chat"
	"tripweaver/internal/conversation"
	"tripweaver/internal/orchestrator"
	"tripweaver/internal/provider"
	"tripweaver/internal/provider/openai"
	"tripweaver/internal/server"
	"tripweaver/internal/session"
	"tripweaver/internal/session/inmemory"
	redisstore "tripweaver/internal/session/redis"
	"tripweaver/internal/telemetry"
	"tripweaver/internal/workflow"
	"tripweaver/mcp"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config directory (default is ./config)")
	return serve
}

func runServe(cfg *config.Config) error {
	logger := log.New(log.Writer(), "[SERVE] ", log.LstdFlags)
	ctx := context.Background()

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		metrics = telemetry.New()
	}

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	tools, descs, err := buildTools(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("tools: %w", err)
	}

	chatLLM, err := buildProvider(cfg, cfg.LLM.Routing.Chat)
	if err != nil {
		return fmt.Errorf("chat provider: %w", err)
	}
	extractionLLM, err := buildProvider(cfg, cfg.LLM.Routing.Extraction)
	if err != nil {
		return fmt.Errorf("extraction provider: %w", err)
	}

	extractor := conversation.NewChain(
		log.New(log.Writer(), "[EXTRACT] ", log.LstdFlags),
		&conversation.RuleExtractor{},
		&conversation.LLMExtractor{Provider: extractionLLM},
	)

	orch := orchestrator.New(tools, cfg.Tools.Timeout, cfg.Tools.Flights.LimitPerDate,
		log.New(log.Writer(), "[TOOLS] ", log.LstdFlags), metrics)

	agents, err := agentdef.NewRegistry(filepath.Join(cfg.General.DataDir, "agents.json"), logger)
	if err != nil {
		return fmt.Errorf("agent registry: %w", err)
	}
	workflows := workflow.NewRegistry(filepath.Join(cfg.General.DataDir, "workflows.json"), logger)

	engine := chat.New(store, extractor,
		conversation.Policy{MaxSlotPrompts: cfg.Conversation.MaxSlotPrompts},
		orch, chatLLM, agents,
		chat.Config{
			HistoryLimit:   cfg.Conversation.HistoryLimit,
			HomeCity:       cfg.Conversation.HomeCity,
			ArticleLimit:   cfg.Tools.Articles.Limit,
			DefaultAgentID: cfg.Conversation.DefaultAgentID,
		},
		metrics, log.New(log.Writer(), "[CHAT] ", log.LstdFlags))

	srv := server.New(cfg, server.Deps{
		Engine:    engine,
		Agents:    agents,
		Workflows: workflows,
		Router:    &workflow.Router{Workflows: workflows, Agents: agents, LLM: chatLLM, Logger: logger},
		ToolDescs: descs,
		ToolsMode: cfg.Tools.Mode,
		Metrics:   metrics,
	}, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Printf("received %s, shutting down", sig)
		if err := srv.Shutdown(ctx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
		closeStore(store, logger)
		return nil
	}
}

func buildStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (session.Store, error) {
	switch cfg.Session.StoreType {
	case "redis":
		return redisstore.New(ctx, cfg.Session.Redis, cfg.Session.TTL)
	default:
		return inmemory.New(cfg.Session.TTL, cfg.Session.SweepSchedule,
			log.New(log.Writer(), "[SESSIONS] ", log.LstdFlags))
	}
}

func closeStore(store session.Store, logger *log.Logger) {
	type closer interface{ Close() }
	type errCloser interface{ Close() error }
	switch s := store.(type) {
	case errCloser:
		if err := s.Close(); err != nil {
			logger.Printf("closing session store: %v", err)
		}
	case closer:
		s.Close()
	}
}

// buildTools wires either the in-process tool implementations or a remote
// tool-server client, both behind the same interfaces.
func buildTools(ctx context.Context, cfg *config.Config, logger *log.Logger) (orchestrator.Tools, []mcp.ToolDesc, error) {
	if cfg.Tools.Mode == "mcp" {
		client := mcp.NewClient(cfg.Tools.MCPURL, cfg.Tools.Timeout)
		if err := client.Initialize(ctx); err != nil {
			return orchestrator.Tools{}, nil, err
		}
		descs, err := client.ListTools(ctx)
		if err != nil {
			return orchestrator.Tools{}, nil, err
		}
		logger.Printf("using remote tools at %s (%d advertised)", cfg.Tools.MCPURL, len(descs))
		return client.Tools(), descs, nil
	}

	tools := inprocessTools(cfg, logger)
	descs := mcp.NewServer(tools, cfg.Tools.Timeout, nil).Tools()
	return tools, descs, nil
}

func buildProvider(cfg *config.Config, name string) (provider.Provider, error) {
	if name == "" {
		name = cfg.LLM.Routing.Fallback
	}
	pc, ok := cfg.LLM.Providers[name]
	if !ok {
		return nil, fmt.Errorf("llm provider %q not configured", name)
	}
	switch pc.Type {
	case "openai", "":
		return openai.New(pc), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider type %q (openai-compatible endpoints go through type openai with base_url)", pc.Type)
	}
}
