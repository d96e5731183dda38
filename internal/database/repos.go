package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// RepoFilter selects which repos to load.
type RepoFilter struct {
	IDs             []int64
	IncludeArchived bool
}

// UpsertRepo inserts a repo or updates it by its natural key (url).
// The update lists every mutable field explicitly; id and first_seen are
// never overwritten.
func (db *DB) UpsertRepo(ctx context.Context, r *Repo) error {
	langs, err := json.Marshal(nonNilMap(r.Languages))
	if err != nil {
		return fmt.Errorf("encoding languages: %w", err)
	}
	topics, err := json.Marshal(nonNilSlice(r.Topics))
	if err != nil {
		return fmt.Errorf("encoding topics: %w", err)
	}

	now := time.Now().UTC()
	if r.FirstSeen.IsZero() {
		r.FirstSeen = now
	}
	r.LastSynced = now
	r.LanguagesJSON = string(langs)
	r.TopicsJSON = string(topics)

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO repos (url, full_name, name, owner, description, readme,
			languages, topics, stars, forks, watchers, open_issues, license,
			archived, star_velocity, created_at, pushed_at, first_seen, last_synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			full_name = excluded.full_name,
			name = excluded.name,
			owner = excluded.owner,
			description = excluded.description,
			readme = excluded.readme,
			languages = excluded.languages,
			topics = excluded.topics,
			stars = excluded.stars,
			forks = excluded.forks,
			watchers = excluded.watchers,
			open_issues = excluded.open_issues,
			license = excluded.license,
			archived = excluded.archived,
			star_velocity = excluded.star_velocity,
			created_at = excluded.created_at,
			pushed_at = excluded.pushed_at,
			last_synced = excluded.last_synced`,
		r.URL, r.FullName, r.Name, r.Owner, r.Description, r.Readme,
		r.LanguagesJSON, r.TopicsJSON, r.Stars, r.Forks, r.Watchers,
		r.OpenIssues, r.License, r.Archived, r.StarVelocity,
		r.CreatedAt.UTC(), r.PushedAt.UTC(), r.FirstSeen, r.LastSynced,
	)
	if err != nil {
		return fmt.Errorf("upserting repo %s: %w", r.URL, err)
	}

	return db.conn.GetContext(ctx, &r.ID, "SELECT id FROM repos WHERE url = ?", r.URL)
}

// GetRepos returns repos matching the filter, ordered by id for
// deterministic downstream iteration.
func (db *DB) GetRepos(ctx context.Context, f RepoFilter) ([]Repo, error) {
	query := "SELECT * FROM repos"
	var args []any

	switch {
	case len(f.IDs) > 0:
		q, inArgs, err := inClause("SELECT * FROM repos WHERE id IN (?)", f.IDs)
		if err != nil {
			return nil, err
		}
		query, args = q, inArgs
	case !f.IncludeArchived:
		query += " WHERE archived = 0"
	}
	query += " ORDER BY id"

	var repos []Repo
	if err := db.conn.SelectContext(ctx, &repos, query, args...); err != nil {
		return nil, fmt.Errorf("loading repos: %w", err)
	}
	for i := range repos {
		if err := decodeRepo(&repos[i]); err != nil {
			return nil, err
		}
	}
	return repos, nil
}

// GetRepoByFullName returns a single repo, or nil when absent.
func (db *DB) GetRepoByFullName(ctx context.Context, fullName string) (*Repo, error) {
	var r Repo
	err := db.conn.GetContext(ctx, &r, "SELECT * FROM repos WHERE full_name = ?", fullName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading repo %s: %w", fullName, err)
	}
	if err := decodeRepo(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRepoByID returns a single repo, or nil when absent.
func (db *DB) GetRepoByID(ctx context.Context, id int64) (*Repo, error) {
	var r Repo
	err := db.conn.GetContext(ctx, &r, "SELECT * FROM repos WHERE id = ?", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading repo %d: %w", id, err)
	}
	if err := decodeRepo(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

func decodeRepo(r *Repo) error {
	if err := json.Unmarshal([]byte(r.LanguagesJSON), &r.Languages); err != nil {
		return fmt.Errorf("decoding languages for repo %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.TopicsJSON), &r.Topics); err != nil {
		return fmt.Errorf("decoding topics for repo %d: %w", r.ID, err)
	}
	return nil
}

func nonNilMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
