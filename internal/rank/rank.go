// Package rank orchestrates the scoring model over a repository set and
// persists the resulting curation scores.
package rank

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/yksanjo/repoboard-functional/internal/database"
	"github.com/yksanjo/repoboard-functional/internal/score"
)

// Ranker computes and persists curation scores.
type Ranker struct {
	db *database.DB
}

// NewRanker creates a new repository ranker.
func NewRanker(db *database.DB) *Ranker {
	return &Ranker{db: db}
}

// Rank scores the given repos (all non-archived repos when repoIDs is nil)
// and returns the scores ordered by total descending, ties broken by repo
// id ascending. Every score row is upserted in a single transaction: a
// failed pass leaves no partial writes behind.
func (r *Ranker) Rank(ctx context.Context, repoIDs []int64) ([]database.CurationScore, error) {
	repos, err := r.db.GetRepos(ctx, database.RepoFilter{IDs: repoIDs})
	if err != nil {
		return nil, fmt.Errorf("loading repos: %w", err)
	}
	if len(repos) == 0 {
		return nil, nil
	}

	summaries, err := r.db.GetAllSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading summaries: %w", err)
	}

	maxVelocity := 1.0
	for i, repo := range repos {
		if i == 0 || repo.StarVelocity > maxVelocity {
			maxVelocity = repo.StarVelocity
		}
	}

	now := time.Now().UTC()
	scores := make([]database.CurationScore, 0, len(repos))
	for i := range repos {
		repo := &repos[i]
		summary := summaries[repo.ID]

		sv := score.StarVelocity(repo.StarVelocity, maxVelocity)
		ph := score.ProjectHealth(summary)
		uq := score.Uniqueness(repo, repos)
		rq := score.ReadmeQuality(repo.Readme)
		dw := score.Difficulty(summary)

		scores = append(scores, database.CurationScore{
			RepoID:           repo.ID,
			StarVelocity:     sv,
			ProjectHealth:    ph,
			Uniqueness:       uq,
			ReadmeQuality:    rq,
			DifficultyWeight: dw,
			TotalScore:       score.Total(sv, ph, uq, rq, dw),
			ComputedAt:       now,
		})
	}

	if err := r.db.UpsertCurationScores(ctx, scores); err != nil {
		return nil, fmt.Errorf("persisting scores: %w", err)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].TotalScore != scores[j].TotalScore {
			return scores[i].TotalScore > scores[j].TotalScore
		}
		return scores[i].RepoID < scores[j].RepoID
	})

	log.Printf("Ranked %d repos (max velocity %.2f)", len(scores), maxVelocity)
	return scores, nil
}
