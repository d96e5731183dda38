package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS repos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT UNIQUE NOT NULL,
    full_name TEXT NOT NULL,
    name TEXT NOT NULL,
    owner TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    readme TEXT NOT NULL DEFAULT '',
    languages TEXT NOT NULL DEFAULT '{}',
    topics TEXT NOT NULL DEFAULT '[]',
    stars INTEGER NOT NULL DEFAULT 0,
    forks INTEGER NOT NULL DEFAULT 0,
    watchers INTEGER NOT NULL DEFAULT 0,
    open_issues INTEGER NOT NULL DEFAULT 0,
    license TEXT NOT NULL DEFAULT '',
    archived INTEGER NOT NULL DEFAULT 0,
    star_velocity REAL NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    pushed_at TIMESTAMP NOT NULL,
    first_seen TIMESTAMP NOT NULL,
    last_synced TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS repo_summaries (
    repo_id INTEGER PRIMARY KEY REFERENCES repos(id),
    summary TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '[]',
    category TEXT NOT NULL,
    skill_level TEXT NOT NULL,
    skill_level_numeric INTEGER NOT NULL,
    project_health TEXT NOT NULL,
    project_health_score REAL NOT NULL,
    use_cases TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS curation_scores (
    repo_id INTEGER PRIMARY KEY REFERENCES repos(id),
    star_velocity REAL NOT NULL,
    project_health REAL NOT NULL,
    uniqueness REAL NOT NULL,
    readme_quality REAL NOT NULL,
    difficulty_weight REAL NOT NULL,
    total_score REAL NOT NULL,
    computed_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS boards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    description TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    repo_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS board_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    board_id INTEGER NOT NULL REFERENCES boards(id),
    repo_id INTEGER NOT NULL REFERENCES repos(id),
    rank_score REAL NOT NULL,
    rank_position INTEGER NOT NULL,
    added_at TIMESTAMP NOT NULL,
    UNIQUE (board_id, repo_id)
);

CREATE TABLE IF NOT EXISTS repo_embeddings (
    repo_id INTEGER PRIMARY KEY REFERENCES repos(id),
    vector TEXT NOT NULL,
    model TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_repos_full_name ON repos(full_name);
CREATE INDEX IF NOT EXISTS idx_repos_archived ON repos(archived);
CREATE INDEX IF NOT EXISTS idx_repos_stars_velocity ON repos(stars, star_velocity);
CREATE INDEX IF NOT EXISTS idx_summaries_category ON repo_summaries(category);
CREATE INDEX IF NOT EXISTS idx_scores_total ON curation_scores(total_score);
CREATE INDEX IF NOT EXISTS idx_board_items_board ON board_items(board_id, rank_position);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	latest := 0
	for _, m := range migrations {
		if m.Version > latest {
			latest = m.Version
		}
	}
	return latest
}
