package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// UpsertSummary inserts or replaces the summary for a repo (1:1 by repo id).
func (db *DB) UpsertSummary(ctx context.Context, s *RepoSummary) error {
	tags, err := json.Marshal(nonNilSlice(s.Tags))
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}
	useCases, err := json.Marshal(nonNilSlice(s.UseCases))
	if err != nil {
		return fmt.Errorf("encoding use cases: %w", err)
	}

	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	s.TagsJSON = string(tags)
	s.UseCasesJSON = string(useCases)

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO repo_summaries (repo_id, summary, tags, category,
			skill_level, skill_level_numeric, project_health,
			project_health_score, use_cases, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id) DO UPDATE SET
			summary = excluded.summary,
			tags = excluded.tags,
			category = excluded.category,
			skill_level = excluded.skill_level,
			skill_level_numeric = excluded.skill_level_numeric,
			project_health = excluded.project_health,
			project_health_score = excluded.project_health_score,
			use_cases = excluded.use_cases,
			updated_at = excluded.updated_at`,
		s.RepoID, s.Summary, s.TagsJSON, s.Category, s.SkillLevel,
		s.SkillLevelNumeric, s.ProjectHealth, s.ProjectHealthScore,
		s.UseCasesJSON, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting summary for repo %d: %w", s.RepoID, err)
	}
	return nil
}

// GetSummary returns the summary for a repo, or nil when none exists.
func (db *DB) GetSummary(ctx context.Context, repoID int64) (*RepoSummary, error) {
	var s RepoSummary
	err := db.conn.GetContext(ctx, &s, "SELECT * FROM repo_summaries WHERE repo_id = ?", repoID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading summary for repo %d: %w", repoID, err)
	}
	if err := decodeSummary(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetAllSummaries returns every summary keyed by repo id.
func (db *DB) GetAllSummaries(ctx context.Context) (map[int64]*RepoSummary, error) {
	var rows []RepoSummary
	if err := db.conn.SelectContext(ctx, &rows, "SELECT * FROM repo_summaries"); err != nil {
		return nil, fmt.Errorf("loading summaries: %w", err)
	}

	summaries := make(map[int64]*RepoSummary, len(rows))
	for i := range rows {
		if err := decodeSummary(&rows[i]); err != nil {
			return nil, err
		}
		summaries[rows[i].RepoID] = &rows[i]
	}
	return summaries, nil
}

// GetReposNeedingSummary returns non-archived repos without a summary row.
func (db *DB) GetReposNeedingSummary(ctx context.Context) ([]Repo, error) {
	var repos []Repo
	err := db.conn.SelectContext(ctx, &repos, `
		SELECT r.* FROM repos r
		LEFT JOIN repo_summaries s ON r.id = s.repo_id
		WHERE s.repo_id IS NULL AND r.archived = 0
		ORDER BY r.id`)
	if err != nil {
		return nil, fmt.Errorf("loading repos needing summary: %w", err)
	}
	for i := range repos {
		if err := decodeRepo(&repos[i]); err != nil {
			return nil, err
		}
	}
	return repos, nil
}

func decodeSummary(s *RepoSummary) error {
	if err := json.Unmarshal([]byte(s.TagsJSON), &s.Tags); err != nil {
		return fmt.Errorf("decoding tags for repo %d: %w", s.RepoID, err)
	}
	if err := json.Unmarshal([]byte(s.UseCasesJSON), &s.UseCases); err != nil {
		return fmt.Errorf("decoding use cases for repo %d: %w", s.RepoID, err)
	}
	return nil
}

// inClause expands an IN (?) query for a list of ids.
func inClause(query string, ids []int64) (string, []any, error) {
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return "", nil, fmt.Errorf("building IN clause: %w", err)
	}
	return q, args, nil
}
