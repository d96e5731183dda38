// Package pipeline orchestrates the full curation run: ingest trending
// repos, summarize them, embed the summaries, rank the population, and
// materialize boards.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/yksanjo/repoboard-functional/internal/cluster"
	"github.com/yksanjo/repoboard-functional/internal/config"
	"github.com/yksanjo/repoboard-functional/internal/database"
	"github.com/yksanjo/repoboard-functional/internal/embedding"
	"github.com/yksanjo/repoboard-functional/internal/github"
	"github.com/yksanjo/repoboard-functional/internal/llm"
	"github.com/yksanjo/repoboard-functional/internal/naming"
	"github.com/yksanjo/repoboard-functional/internal/rank"
	"github.com/yksanjo/repoboard-functional/internal/summarize"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps []StepResult
}

// Failed reports whether any step errored.
func (r *Result) Failed() bool {
	for _, step := range r.Steps {
		if step.Err != nil {
			return true
		}
	}
	return false
}

// Pipeline orchestrates the 5-step curation pipeline.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	provider llm.Provider
	embedder *embedding.Embedder
}

// New creates a new pipeline from config.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	provider := llm.CreateProvider(
		cfg.LLM.Provider,
		cfg.LLM.Model,
		cfg.LLM.OllamaURL,
		cfg.LLM.OpenAIModel,
		cfg.LLM.BaseURL,
		cfg.LLM.APIKeyEnv,
	)

	client := embedding.NewClient(
		cfg.Embedding.BaseURL,
		os.Getenv(cfg.Embedding.APIKeyEnv),
		cfg.Embedding.Model,
	)

	return &Pipeline{
		cfg:      cfg,
		db:       db,
		provider: provider,
		embedder: embedding.NewEmbedder(db, client),
	}
}

// Run executes the full 5-step pipeline. Ingestion failure aborts the run
// (nothing downstream has input); later steps always run so a dead LLM
// still leaves ranked boards built from defaults.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{}

	step := p.runIngest(ctx)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	r.Steps = append(r.Steps, p.runSummarize(ctx))
	r.Steps = append(r.Steps, p.runEmbed(ctx))
	r.Steps = append(r.Steps, p.runRank(ctx))
	r.Steps = append(r.Steps, p.runBoards(ctx))

	return r
}

// DryRun shows what each step would do without executing.
func (p *Pipeline) DryRun(ctx context.Context) *Result {
	r := &Result{}

	stats, err := p.db.GetStats(ctx)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Ingest", Err: err})
		return r
	}

	r.Steps = append(r.Steps, StepResult{
		Name: "Ingest",
		Summary: fmt.Sprintf("[dry-run] would search GitHub for repos with >%d stars (%d already in DB)",
			p.cfg.GitHub.MinStars, stats.Repos),
	})

	needSummary, _ := p.db.GetReposNeedingSummary(ctx)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("[dry-run] %d repos need summaries", len(needSummary)),
	})

	needEmbedding, _ := p.db.GetReposNeedingEmbedding(ctx)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Embed",
		Summary: fmt.Sprintf("[dry-run] %d repos need embeddings", len(needEmbedding)),
	})

	r.Steps = append(r.Steps, StepResult{
		Name:    "Rank",
		Summary: fmt.Sprintf("[dry-run] would score %d repos", stats.Repos),
	})
	r.Steps = append(r.Steps, StepResult{
		Name: "Boards",
		Summary: fmt.Sprintf("[dry-run] would cluster into up to %d boards (%d exist)",
			p.cfg.Curation.Clusters, stats.Boards),
	})

	return r
}

func (p *Pipeline) runIngest(ctx context.Context) StepResult {
	log.Println("Step 1/5: Ingesting trending repos...")
	gh := p.cfg.GitHub
	ingester := github.NewIngester(github.NewClient(os.Getenv(gh.TokenEnv)), p.db)
	stored, err := ingester.Ingest(ctx, gh.MinStars, gh.Languages, gh.Pages, gh.PerPage)
	if err != nil {
		return StepResult{Name: "Ingest", Err: err}
	}
	return StepResult{
		Name:    "Ingest",
		Summary: fmt.Sprintf("Stored %d repos", stored),
	}
}

func (p *Pipeline) runSummarize(ctx context.Context) StepResult {
	log.Println("Step 2/5: Summarizing repos...")
	s := summarize.NewSummarizer(p.db, p.provider, p.cfg.LLM.MaxTokens, p.cfg.LLM.Workers)
	n, err := s.SummarizeAll(ctx)
	if err != nil {
		return StepResult{Name: "Summarize", Err: err}
	}
	return StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("Summarized %d repos", n),
	}
}

func (p *Pipeline) runEmbed(ctx context.Context) StepResult {
	log.Println("Step 3/5: Embedding summaries...")
	n, err := p.embedder.EmbedAll(ctx)
	if err != nil {
		// Embeddings feed the similarity lookup, not ranking or
		// clustering; an unreachable endpoint should not kill the run.
		log.Printf("Embedding failed, continuing: %v", err)
		return StepResult{
			Name:    "Embed",
			Summary: "Skipped (embedding endpoint unavailable)",
		}
	}
	return StepResult{
		Name:    "Embed",
		Summary: fmt.Sprintf("Embedded %d repos", n),
	}
}

func (p *Pipeline) runRank(ctx context.Context) StepResult {
	log.Println("Step 4/5: Ranking repos...")
	scores, err := rank.NewRanker(p.db).Rank(ctx, nil)
	if err != nil {
		return StepResult{Name: "Rank", Err: err}
	}
	return StepResult{
		Name:    "Rank",
		Summary: fmt.Sprintf("Scored %d repos", len(scores)),
	}
}

func (p *Pipeline) runBoards(ctx context.Context) StepResult {
	log.Println("Step 5/5: Generating boards...")
	namer := naming.NewLLMService(p.provider, p.cfg.LLM.MaxTokens)
	clusterer := cluster.NewClusterer(p.db, namer, rank.NewRanker(p.db), p.cfg.Curation.MinClusterSize)
	result, err := clusterer.GenerateBoards(ctx, p.cfg.Curation.Clusters)
	if err != nil {
		return StepResult{Name: "Boards", Err: err}
	}
	summary := fmt.Sprintf("Created %d boards covering %d repos", len(result.Boards), result.ClusteredRepos)
	if len(result.Errors) > 0 {
		summary += fmt.Sprintf(" (%d clusters failed)", len(result.Errors))
	}
	return StepResult{
		Name:    "Boards",
		Summary: summary,
	}
}
