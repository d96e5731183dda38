// Package summarize generates LLM analyses for ingested repositories:
// a prose summary plus the tags, category, skill level, and project
// health fields the curation engine consumes.
package summarize

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yksanjo/repoboard-functional/internal/database"
	"github.com/yksanjo/repoboard-functional/internal/llm"
)

const (
	readmePreviewChars = 2000
	promptLanguages    = 5
	promptTopics       = 10
	maxTags            = 8
)

const repoSummaryPrompt = `Analyze the following GitHub repository and provide a comprehensive summary.

Repository Information:
- Name: %s
- Owner: %s
- Description: %s
- Languages: %s
- Topics: %s
- Stars: %d
- README (first 2000 chars): %s

Please provide a JSON response with the following structure:
{
    "summary": "A 100-200 word summary of what this repository does, its purpose, and key features.",
    "tags": ["tag1", "tag2", "tag3", "tag4", "tag5", "tag6", "tag7", "tag8"],
    "category": "One primary category (e.g., 'Machine Learning', 'Web Framework', 'Developer Tools', 'Data Science', 'Game Engine', etc.)",
    "skill_level": "beginner|intermediate|advanced|expert",
    "skill_level_numeric": 1-10,
    "project_health": "excellent|good|moderate|poor|abandoned",
    "project_health_score": 0.0-1.0,
    "use_cases": ["use case 1", "use case 2", "use case 3"]
}

Guidelines:
- Tags should be specific, relevant, and diverse (5-12 tags)
- Category should be a single, clear category
- Skill level should reflect the complexity of understanding/contributing to the project
- Project health should consider: recent activity, documentation quality, community engagement, issue resolution
- Use cases should be practical, real-world applications
- Be objective and accurate based on the provided information
`

// Summarizer runs LLM summarization over repos that lack a summary.
type Summarizer struct {
	db        *database.DB
	provider  llm.Provider
	maxTokens int
	workers   int
}

// NewSummarizer creates a summarizer. workers bounds how many LLM calls
// run concurrently.
func NewSummarizer(db *database.DB, provider llm.Provider, maxTokens, workers int) *Summarizer {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if workers <= 0 {
		workers = 1
	}
	return &Summarizer{
		db:        db,
		provider:  provider,
		maxTokens: maxTokens,
		workers:   workers,
	}
}

// SummarizeAll summarizes every repo without a summary. LLM failures
// degrade to metadata-derived defaults, so each repo always ends up with a
// summary row. Returns the number of repos processed.
func (s *Summarizer) SummarizeAll(ctx context.Context) (int, error) {
	repos, err := s.db.GetReposNeedingSummary(ctx)
	if err != nil {
		return 0, err
	}
	if len(repos) == 0 {
		return 0, nil
	}
	log.Printf("Summarizing %d repos with %d workers", len(repos), s.workers)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range repos {
		repo := repos[i]
		g.Go(func() error {
			summary := s.summarizeRepo(ctx, &repo)
			if err := s.db.UpsertSummary(ctx, summary); err != nil {
				return fmt.Errorf("storing summary for %s: %w", repo.FullName, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(repos), nil
}

// summarizeRepo asks the LLM for an analysis and falls back to defaults
// when the provider is unavailable or the response is unusable.
func (s *Summarizer) summarizeRepo(ctx context.Context, repo *database.Repo) *database.RepoSummary {
	if s.provider == nil {
		return defaultSummary(repo)
	}

	response, err := s.provider.Generate(ctx, buildPrompt(repo), s.maxTokens)
	if err != nil {
		log.Printf("Summarizing %s failed, using defaults: %v", repo.FullName, err)
		return defaultSummary(repo)
	}

	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		log.Printf("Summary for %s was not JSON, using defaults", repo.FullName)
		return defaultSummary(repo)
	}

	summary := defaultSummary(repo)
	if v := strings.TrimSpace(llm.JSONString(parsed, "summary")); v != "" {
		summary.Summary = v
	}
	if v := llm.JSONStrings(parsed, "tags"); len(v) > 0 {
		summary.Tags = v
	}
	if v := strings.TrimSpace(llm.JSONString(parsed, "category")); v != "" {
		summary.Category = v
	}
	if v := strings.TrimSpace(llm.JSONString(parsed, "skill_level")); v != "" {
		summary.SkillLevel = v
	}
	if v, ok := llm.JSONNumber(parsed, "skill_level_numeric"); ok {
		summary.SkillLevelNumeric = clampInt(int(v), 1, 10)
	}
	if v := strings.TrimSpace(llm.JSONString(parsed, "project_health")); v != "" {
		summary.ProjectHealth = v
	}
	if v, ok := llm.JSONNumber(parsed, "project_health_score"); ok {
		summary.ProjectHealthScore = clampFloat(v, 0, 1)
	}
	if v := llm.JSONStrings(parsed, "use_cases"); len(v) > 0 {
		summary.UseCases = v
	}

	return summary
}

func buildPrompt(repo *database.Repo) string {
	description := repo.Description
	if description == "" {
		description = "No description"
	}

	readme := repo.Readme
	if len(readme) > readmePreviewChars {
		readme = readme[:readmePreviewChars]
	}

	topics := repo.Topics
	if len(topics) > promptTopics {
		topics = topics[:promptTopics]
	}

	return fmt.Sprintf(repoSummaryPrompt,
		repo.Name,
		repo.Owner,
		description,
		strings.Join(topLanguages(repo.Languages, promptLanguages), ", "),
		strings.Join(topics, ", "),
		repo.Stars,
		readme,
	)
}

// topLanguages returns up to n language names ordered by share descending,
// names ascending on ties, so prompts are stable across runs.
func topLanguages(languages map[string]float64, n int) []string {
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if languages[names[i]] != languages[names[j]] {
			return languages[names[i]] > languages[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// defaultSummary derives a usable summary from repo metadata alone.
func defaultSummary(repo *database.Repo) *database.RepoSummary {
	summary := repo.Description
	if summary == "" {
		summary = "A GitHub repository"
	}

	tags := repo.Topics
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	if len(tags) == 0 {
		tags = []string{"github", "open-source"}
	}

	return &database.RepoSummary{
		RepoID:             repo.ID,
		Summary:            summary,
		Tags:               tags,
		Category:           "Other",
		SkillLevel:         "intermediate",
		SkillLevelNumeric:  5,
		ProjectHealth:      "good",
		ProjectHealthScore: 0.7,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
