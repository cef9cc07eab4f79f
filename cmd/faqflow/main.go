// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

// FAQFlow command line entrypoint.
//
// Usage:
//
//	faqflow chat                      # interactive question loop
//	faqflow chat --config faqflow.yaml
//	faqflow ask "What is diabetes?"   # one-shot question
//	faqflow version
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/faqflow/capability"
	"github.com/BaSui01/faqflow/config"
	"github.com/BaSui01/faqflow/decompose"
	"github.com/BaSui01/faqflow/feedback"
	"github.com/BaSui01/faqflow/graphstore"
	"github.com/BaSui01/faqflow/internal/cache"
	"github.com/BaSui01/faqflow/internal/metrics"
	"github.com/BaSui01/faqflow/orchestrator"
	"github.com/BaSui01/faqflow/render"
	"github.com/BaSui01/faqflow/research"
	"github.com/BaSui01/faqflow/retrieval"
	"github.com/BaSui01/faqflow/synthesize"
	"github.com/BaSui01/faqflow/types"
	"github.com/BaSui01/faqflow/vectorstore"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(os.Args[2:])
	case "ask":
		runAsk(os.Args[2:])
	case "version":
		fmt.Printf("FAQFlow %s (built %s)\n", Version, BuildTime)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg, logger := load(*configPath)
	defer logger.Sync()

	pipeline, intake := buildPipeline(cfg, logger)

	fmt.Println("FAQFlow ready. Ask a medical question, or type /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return
		case strings.HasPrefix(line, "/feedback "):
			submitFeedback(intake, strings.TrimPrefix(line, "/feedback "))
			continue
		}

		resp := pipeline.Process(context.Background(), types.ChatRequest{Query: line})
		fmt.Println()
		fmt.Println(resp.Response)
		fmt.Println()
	}
}

func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "ask requires a question")
		os.Exit(1)
	}

	cfg, logger := load(*configPath)
	defer logger.Sync()

	pipeline, _ := buildPipeline(cfg, logger)
	resp := pipeline.Process(context.Background(), types.ChatRequest{Query: strings.Join(fs.Args(), " ")})
	fmt.Println(resp.Response)
	if resp.Status == "error" {
		os.Exit(1)
	}
}

func load(configPath string) (*config.Config, *zap.Logger) {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg, initLogger(cfg.Log)
}

// buildPipeline wires every component from configuration. Optional backends
// that are disabled or unreachable degrade to nil collaborators rather than
// aborting startup.
func buildPipeline(cfg *config.Config, logger *zap.Logger) (*orchestrator.Orchestrator, *feedback.Intake) {
	collector := metrics.NewCollector("faqflow", prometheus.DefaultRegisterer, logger)

	graph, err := graphstore.New(cfg.Graph.DSN, logger)
	if err != nil {
		logger.Fatal("graph store unavailable", zap.Error(err))
	}
	if cfg.Graph.Seed {
		if err := graph.Seed(context.Background(), graphstore.StarterEntities, graphstore.StarterRelations); err != nil {
			logger.Warn("graph seeding failed", zap.Error(err))
		}
	}

	index := vectorstore.NewIndex(nil, logger)
	if err := index.Add(context.Background(), vectorstore.StarterDocuments()...); err != nil {
		logger.Warn("vector seeding failed", zap.Error(err))
	}

	var provider capability.Provider
	if cfg.LLM.Enabled && cfg.LLM.APIKey != "" {
		provider = capability.NewOpenAIProvider(capability.OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		}, logger)
	}

	coordinatorOpts := []retrieval.Option{retrieval.WithMetrics(collector)}
	if provider != nil {
		coordinatorOpts = append(coordinatorOpts, retrieval.WithRewriter(provider))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		coordinatorOpts = append(coordinatorOpts,
			retrieval.WithCache(cache.NewWithClient(redisClient, cfg.Redis.CacheTTL, logger)))
	}

	coordinator := retrieval.NewCoordinator(retrieval.Config{
		TopK:             cfg.Pipeline.TopK,
		AdapterTimeout:   cfg.Pipeline.AdapterTimeout,
		RewriteThreshold: cfg.Pipeline.RewriteConfidenceThreshold,
	}, graph, index, logger, coordinatorOpts...)

	decomposer := decompose.NewStandardDecomposer(decompose.Config{
		MaxSubQuestions: cfg.Pipeline.MaxSubQuestions,
		UseCapability:   provider != nil,
	}, nil, provider, logger)

	synthesizer := synthesize.NewStandardSynthesizer(synthesize.Config{
		SuccessThreshold: cfg.Pipeline.SuccessThreshold,
	}, logger)

	orchestratorOpts := []orchestrator.Option{
		orchestrator.WithMetrics(collector),
		orchestrator.WithRenderer(render.NewTextRenderer(logger)),
	}
	if cfg.Research.Enabled {
		// A real deployment injects its search provider here; without one
		// the researcher reports RESEARCH_UNAVAILABLE and the pipeline
		// degrades gracefully.
		orchestratorOpts = append(orchestratorOpts,
			orchestrator.WithResearcher(research.New(research.Config{
				MaxResults:        cfg.Research.MaxResults,
				Timeout:           cfg.Research.Timeout,
				CacheTTL:          cfg.Research.CacheTTL,
				RequestsPerSecond: cfg.Research.RequestsPerSecond,
			}, nil, logger)))
	}

	pipeline := orchestrator.New(orchestrator.Config{
		EscalationConfidenceThreshold: cfg.Pipeline.EscalationConfidenceThreshold,
		RetrievalTimeout:              cfg.Pipeline.RetrievalTimeout,
		ResearchTimeout:               cfg.Pipeline.ResearchTimeout,
		MaxConcurrentRetrievals:       cfg.Pipeline.MaxConcurrentRetrievals,
	}, decomposer, coordinator, synthesizer, logger, orchestratorOpts...)

	var hooks []feedback.Hook
	if redisClient != nil {
		hooks = append(hooks, feedback.NewRedisQueue(redisClient, "", logger))
	}
	if cfg.Mongo.Enabled {
		store, err := feedback.NewMongoStore(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
		if err != nil {
			logger.Warn("feedback store unavailable", zap.Error(err))
		} else {
			hooks = append(hooks, store)
		}
	}
	return pipeline, feedback.NewIntake(logger, hooks...)
}

// submitFeedback accepts "/feedback <query_id> <helpful|unhelpful> [note]".
func submitFeedback(intake *feedback.Intake, input string) {
	parts := strings.SplitN(strings.TrimSpace(input), " ", 3)
	if len(parts) < 2 {
		fmt.Println("usage: /feedback <query_id> <helpful|unhelpful> [note]")
		return
	}
	fb := &types.Feedback{
		QueryID: parts[0],
		Helpful: parts[1] == "helpful",
	}
	if len(parts) == 3 {
		fb.AdditionalInfo = parts[2]
	}
	if err := intake.SubmitFeedback(context.Background(), fb); err != nil {
		fmt.Printf("feedback rejected: %v\n", err)
		return
	}
	fmt.Println("thanks, feedback recorded")
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.DisableCaller = !cfg.EnableCaller
	zapCfg.DisableStacktrace = !cfg.EnableStacktrace

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func printUsage() {
	fmt.Println(`FAQFlow - medical FAQ retrieval pipeline

Usage:
  faqflow <command> [options]

Commands:
  chat      Interactive question loop
  ask       Answer a single question and exit
  version   Show version information
  help      Show this help message

Options:
  --config <path>   Path to configuration file (YAML)`)
}
