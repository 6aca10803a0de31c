// Package main provides the CodeGraph CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlenopires/codegraph/pkg/config"
	"github.com/charlenopires/codegraph/pkg/feedback"
	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/reasoner"
	"github.com/charlenopires/codegraph/pkg/retrieval"
	"github.com/charlenopires/codegraph/pkg/server"
	"github.com/charlenopires/codegraph/pkg/translator"
	"github.com/charlenopires/codegraph/pkg/vectorstore"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "codegraph",
		Short: "CodeGraph - hybrid knowledge-retrieval service for reusable UI components",
		Long: `CodeGraph fuses dense vector similarity, graph-structural pattern
matching, and a non-axiomatic symbolic reasoner into ranked component
recommendations, with feedback-driven confidence propagation.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("codegraph v%s (%s)\n", version, commit)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the CodeGraph server",
		RunE:  runServe,
	}
	serveCmd.Flags().String("config", "", "Path to codegraph.yaml (defaults to the result of config.FindConfigFile)")
	serveCmd.Flags().Int("http-port", 0, "HTTP port override")
	serveCmd.Flags().String("data-dir", "", "Data directory override")
	serveCmd.Flags().Bool("in-memory", false, "Use in-memory graph storage instead of BadgerDB")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if httpPort, _ := cmd.Flags().GetInt("http-port"); httpPort != 0 {
		cfg.Server.HTTPPort = httpPort
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if inMemory, _ := cmd.Flags().GetBool("in-memory"); inMemory {
		cfg.Storage.InMemory = true
	}

	fmt.Println(cfg.String())

	graphRepo, err := newGraphRepository(cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening graph repository: %w", err)
	}
	defer graphRepo.Close()

	vectorRepo, err := vectorstore.NewStore(cfg.Storage.EmbeddingDim)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer vectorRepo.Close()

	reasonerClient, err := newReasonerClient(cfg.Reasoner)
	if err != nil {
		return fmt.Errorf("initialising reasoner client: %w", err)
	}

	embedder := translator.NewOfflineEmbedder(cfg.Storage.EmbeddingDim)
	tlMode := translator.ModeOffline
	if cfg.Embedding.Mode == "llm" {
		tlMode = translator.ModeLLM
	}
	tl := translator.New(translator.Config{Mode: tlMode}, embedder, nil)

	baseRetriever := retrieval.New(
		retrieval.Config{
			Weights: retrieval.FusionWeights{
				Vector:   cfg.Retrieval.VectorWeight,
				Graph:    cfg.Retrieval.GraphWeight,
				Symbolic: cfg.Retrieval.SymbolicWeight,
			},
			PerChannelTimeout: cfg.Retrieval.PerChannelTimeout,
			DefaultLimit:      cfg.Retrieval.DefaultLimit,
		},
		graphRepo,
		retrieval.NewVectorChannel(vectorRepo, cfg.Retrieval.VectorOverscan),
		retrieval.NewGraphChannel(graphRepo),
		retrieval.NewSymbolicChannel(reasonerClient, graphRepo),
	)
	retriever, err := retrieval.NewCaching(baseRetriever, cfg.Retrieval.CacheSize)
	if err != nil {
		return fmt.Errorf("constructing retrieval cache: %w", err)
	}

	auditLog, err := feedback.NewCSVAuditLog(cfg.Storage.AuditLogPath)
	if err != nil {
		return fmt.Errorf("opening feedback audit log: %w", err)
	}

	propagator := feedback.New(
		feedback.Config{
			PositiveConfidence: cfg.Feedback.PositiveConfidence,
			NegativeConfidence: cfg.Feedback.NegativeConfidence,
			SimilarAttenuation: cfg.Feedback.SimilarAttenuation,
			ReplaceAttenuation: cfg.Feedback.ReplaceAttenuation,
			MaxDepth:           cfg.Feedback.MaxDepth,
			MaxRetries:         cfg.Feedback.MaxRetries,
		},
		graphRepo,
		auditLog,
	)

	srv, err := server.New(server.Deps{
		GraphRepo:  graphRepo,
		VectorRepo: vectorRepo,
		Translator: tl,
		Retriever:  retriever,
		Feedback:   propagator,
		Reasoner:   reasonerClient,
	}, &server.Config{
		Address:        cfg.Server.HTTPAddress,
		Port:           cfg.Server.HTTPPort,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxRequestSize: 10 * 1024 * 1024,
		CORSOrigins:    []string{"*"},
	})
	if err != nil {
		return fmt.Errorf("constructing server: %w", err)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	fmt.Printf("CodeGraph listening on %s\n", srv.Addr())
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}
	return nil
}

func newGraphRepository(cfg config.StorageConfig) (graph.Repository, error) {
	if cfg.InMemory {
		return graph.NewMemoryRepository(), nil
	}
	return graph.NewBadgerRepository(graph.BadgerRepositoryOptions{
		DataDir:    cfg.DataDir,
		SyncWrites: cfg.SyncWrites,
	})
}

func newReasonerClient(cfg config.ReasonerConfig) (*reasoner.Client, error) {
	rc := reasoner.Config{
		Enabled:                 cfg.Enabled,
		Host:                    cfg.Host,
		Port:                    cfg.Port,
		InferenceCycles:         cfg.InferenceCycles,
		InferenceTimeout:        cfg.InferenceTimeout,
		CircuitBreakerThreshold: cfg.CircuitBreakerThreshold,
		CircuitResetAfter:       cfg.CircuitResetAfter,
	}
	if !cfg.Enabled {
		return reasoner.New(rc, nil), nil
	}
	transport, err := reasoner.NewUDPTransport(cfg.Host, cfg.Port)
	if err != nil {
		return nil, err
	}
	return reasoner.New(rc, transport), nil
}
