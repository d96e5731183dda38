package database

import "context"

// GetStats returns aggregate row counts for the status command.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM repos", &stats.Repos},
		{"SELECT COUNT(*) FROM repo_summaries", &stats.Summaries},
		{"SELECT COUNT(*) FROM curation_scores", &stats.Scores},
		{"SELECT COUNT(*) FROM repo_embeddings", &stats.Embeddings},
		{"SELECT COUNT(*) FROM boards", &stats.Boards},
		{"SELECT COUNT(*) FROM board_items", &stats.BoardItems},
	}
	for _, c := range counts {
		if err := db.conn.GetContext(ctx, c.dest, c.query); err != nil {
			return nil, err
		}
	}
	return stats, nil
}
