package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yksanjo/repoboard-functional/internal/cluster"
	"github.com/yksanjo/repoboard-functional/internal/config"
	"github.com/yksanjo/repoboard-functional/internal/database"
	"github.com/yksanjo/repoboard-functional/internal/embedding"
	"github.com/yksanjo/repoboard-functional/internal/github"
	"github.com/yksanjo/repoboard-functional/internal/llm"
	"github.com/yksanjo/repoboard-functional/internal/naming"
	"github.com/yksanjo/repoboard-functional/internal/pipeline"
	"github.com/yksanjo/repoboard-functional/internal/rank"
	"github.com/yksanjo/repoboard-functional/internal/server"
	"github.com/yksanjo/repoboard-functional/internal/summarize"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "repoboard",
	Short:   "Curated boards of trending GitHub repositories",
	Long:    "RepoBoard ingests trending GitHub repos, summarizes them with an LLM, scores and clusters them, and serves the resulting curated boards.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Tokens and API keys commonly live in a local .env.
		_ = godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(boardsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("repoboard", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/repoboard/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the GitHub token, API keys, and LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Repos:")
		fmt.Printf("  Ingested: %d\n", stats.Repos)
		fmt.Printf("  Summarized: %d\n", stats.Summaries)
		fmt.Printf("  Scored: %d\n", stats.Scores)
		fmt.Printf("  Embedded: %d\n", stats.Embeddings)
		fmt.Println("\nBoards:")
		fmt.Printf("  Boards: %d\n", stats.Boards)
		fmt.Printf("  Placements: %d\n", stats.BoardItems)
		return nil
	},
}

// --- ingest command ---

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch trending repos from GitHub",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		gh := cfg.GitHub
		ingester := github.NewIngester(github.NewClient(os.Getenv(gh.TokenEnv)), db)
		stored, err := ingester.Ingest(cmd.Context(), gh.MinStars, gh.Languages, gh.Pages, gh.PerPage)
		if err != nil {
			return err
		}

		fmt.Printf("Stored %d repos\n", stored)
		return nil
	},
}

// --- summarize command ---

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate LLM summaries for repos that lack one",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		s := summarize.NewSummarizer(db, newProvider(), cfg.LLM.MaxTokens, cfg.LLM.Workers)
		n, err := s.SummarizeAll(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Summarized %d repos\n", n)
		return nil
	},
}

// --- embed command ---

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Compute embeddings for summarized repos",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := newEmbedder(db).EmbedAll(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Embedded %d repos\n", n)
		return nil
	},
}

// --- rank command ---

var rankTop int

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score and rank all repos",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		scores, err := rank.NewRanker(db).Rank(ctx, nil)
		if err != nil {
			return err
		}
		fmt.Printf("Scored %d repos\n", len(scores))

		if rankTop > len(scores) {
			rankTop = len(scores)
		}
		if rankTop > 0 {
			fmt.Println("\nTop repos:")
		}
		for i := 0; i < rankTop; i++ {
			repo, err := db.GetRepoByID(ctx, scores[i].RepoID)
			if err != nil {
				return err
			}
			fmt.Printf("  %2d. %-40s %.3f\n", i+1, repo.FullName, scores[i].TotalScore)
		}
		return nil
	},
}

func init() {
	rankCmd.Flags().IntVar(&rankTop, "top", 10, "How many top repos to print")
}

// --- boards command ---

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "Cluster repos and generate curated boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		namer := naming.NewLLMService(newProvider(), cfg.LLM.MaxTokens)
		clusterer := cluster.NewClusterer(db, namer, rank.NewRanker(db), cfg.Curation.MinClusterSize)
		result, err := clusterer.GenerateBoards(cmd.Context(), cfg.Curation.Clusters)
		if err != nil {
			return err
		}

		fmt.Printf("Generated %d boards covering %d repos\n", len(result.Boards), result.ClusteredRepos)
		for _, b := range result.Boards {
			fmt.Printf("  %-40s %d repos\n", b.Name, b.RepoCount)
		}
		for _, e := range result.Errors {
			fmt.Printf("  Error: %v\n", e)
		}
		return nil
	},
}

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: ingest -> summarize -> embed -> rank -> boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db)
		ctx := context.Background()

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(ctx)
		} else {
			result = pipe.Run(ctx)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if !dryRun && !result.Failed() {
			fmt.Println("\nPipeline complete! Run 'repoboard serve' to browse the boards.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

// --- similar command ---

var similarLimit int

var similarCmd = &cobra.Command{
	Use:   "similar [owner/repo]",
	Short: "Find repos most similar to the given one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		repo, err := db.GetRepoByFullName(ctx, args[0])
		if err != nil {
			return err
		}
		if repo == nil {
			return fmt.Errorf("repo %s not found; ingest it first", args[0])
		}

		neighbors, err := newEmbedder(db).Similar(ctx, repo.ID, similarLimit)
		if err != nil {
			return err
		}
		if len(neighbors) == 0 {
			fmt.Println("No other embedded repos to compare against.")
			return nil
		}

		fmt.Printf("Repos similar to %s:\n", repo.FullName)
		for _, n := range neighbors {
			other, err := db.GetRepoByID(ctx, n.RepoID)
			if err != nil {
				return err
			}
			fmt.Printf("  %-40s %.3f\n", other.FullName, n.Similarity)
		}
		return nil
	},
}

func init() {
	similarCmd.Flags().IntVar(&similarLimit, "limit", 10, "How many similar repos to show")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func newProvider() llm.Provider {
	return llm.CreateProvider(
		cfg.LLM.Provider,
		cfg.LLM.Model,
		cfg.LLM.OllamaURL,
		cfg.LLM.OpenAIModel,
		cfg.LLM.BaseURL,
		cfg.LLM.APIKeyEnv,
	)
}

func newEmbedder(db *database.DB) *embedding.Embedder {
	client := embedding.NewClient(
		cfg.Embedding.BaseURL,
		os.Getenv(cfg.Embedding.APIKeyEnv),
		cfg.Embedding.Model,
	)
	return embedding.NewEmbedder(db, client)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "repoboard.db")
	return database.Open(dbPath)
}
