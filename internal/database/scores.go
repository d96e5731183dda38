package database

import (
	"context"
	"fmt"
)

// UpsertCurationScores writes a batch of scores in one transaction.
// A ranking pass is all-or-nothing: any failure rolls the whole batch back
// so no partial set of stale scores remains visible.
func (db *DB) UpsertCurationScores(ctx context.Context, scores []CurationScore) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning score transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO curation_scores (repo_id, star_velocity, project_health,
			uniqueness, readme_quality, difficulty_weight, total_score, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id) DO UPDATE SET
			star_velocity = excluded.star_velocity,
			project_health = excluded.project_health,
			uniqueness = excluded.uniqueness,
			readme_quality = excluded.readme_quality,
			difficulty_weight = excluded.difficulty_weight,
			total_score = excluded.total_score,
			computed_at = excluded.computed_at`)
	if err != nil {
		return fmt.Errorf("preparing score upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range scores {
		if _, err := stmt.ExecContext(ctx,
			s.RepoID, s.StarVelocity, s.ProjectHealth, s.Uniqueness,
			s.ReadmeQuality, s.DifficultyWeight, s.TotalScore, s.ComputedAt,
		); err != nil {
			return fmt.Errorf("upserting score for repo %d: %w", s.RepoID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing scores: %w", err)
	}
	return nil
}

// GetScore returns the stored score for a repo, or nil when absent.
func (db *DB) GetScore(ctx context.Context, repoID int64) (*CurationScore, error) {
	var scores []CurationScore
	err := db.conn.SelectContext(ctx, &scores,
		"SELECT * FROM curation_scores WHERE repo_id = ?", repoID)
	if err != nil {
		return nil, fmt.Errorf("loading score for repo %d: %w", repoID, err)
	}
	if len(scores) == 0 {
		return nil, nil
	}
	return &scores[0], nil
}

// GetTopScores returns stored scores ordered by total_score descending,
// ties broken by repo id.
func (db *DB) GetTopScores(ctx context.Context, limit int) ([]CurationScore, error) {
	var scores []CurationScore
	err := db.conn.SelectContext(ctx, &scores,
		"SELECT * FROM curation_scores ORDER BY total_score DESC, repo_id ASC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("loading top scores: %w", err)
	}
	return scores, nil
}
