package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// UpsertEmbedding stores the summary embedding for a repo.
func (db *DB) UpsertEmbedding(ctx context.Context, repoID int64, model string, vector []float32) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("encoding embedding for repo %d: %w", repoID, err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO repo_embeddings (repo_id, vector, model, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(repo_id) DO UPDATE SET
			vector = excluded.vector,
			model = excluded.model,
			created_at = excluded.created_at`,
		repoID, string(data), model, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting embedding for repo %d: %w", repoID, err)
	}
	return nil
}

// GetEmbedding is a direct point lookup by repo id. Returns nil when no
// embedding is stored.
func (db *DB) GetEmbedding(ctx context.Context, repoID int64) ([]float32, error) {
	var data string
	err := db.conn.GetContext(ctx, &data,
		"SELECT vector FROM repo_embeddings WHERE repo_id = ?", repoID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading embedding for repo %d: %w", repoID, err)
	}

	var vector []float32
	if err := json.Unmarshal([]byte(data), &vector); err != nil {
		return nil, fmt.Errorf("decoding embedding for repo %d: %w", repoID, err)
	}
	return vector, nil
}

// GetAllEmbeddings returns every stored embedding keyed by repo id.
func (db *DB) GetAllEmbeddings(ctx context.Context) (map[int64][]float32, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT repo_id, vector FROM repo_embeddings")
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}
	defer rows.Close()

	embeddings := make(map[int64][]float32)
	for rows.Next() {
		var repoID int64
		var data string
		if err := rows.Scan(&repoID, &data); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		var vector []float32
		if err := json.Unmarshal([]byte(data), &vector); err != nil {
			return nil, fmt.Errorf("decoding embedding for repo %d: %w", repoID, err)
		}
		embeddings[repoID] = vector
	}
	return embeddings, rows.Err()
}

// GetReposNeedingEmbedding returns summarized repos without a stored vector.
func (db *DB) GetReposNeedingEmbedding(ctx context.Context) ([]Repo, error) {
	var repos []Repo
	err := db.conn.SelectContext(ctx, &repos, `
		SELECT r.* FROM repos r
		JOIN repo_summaries s ON r.id = s.repo_id
		LEFT JOIN repo_embeddings e ON r.id = e.repo_id
		WHERE e.repo_id IS NULL AND r.archived = 0
		ORDER BY r.id`)
	if err != nil {
		return nil, fmt.Errorf("loading repos needing embedding: %w", err)
	}
	for i := range repos {
		if err := decodeRepo(&repos[i]); err != nil {
			return nil, err
		}
	}
	return repos, nil
}
