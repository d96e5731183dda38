package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GetOrCreateBoard upserts a board by its natural key (name). An existing
// board keeps its category and repo_count; only the description and
// updated_at change, so re-clustering runs are idempotent on name.
func (db *DB) GetOrCreateBoard(ctx context.Context, name, description, category string, size int) (*Board, error) {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO boards (name, description, category, repo_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			updated_at = excluded.updated_at`,
		name, description, category, size, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting board %q: %w", name, err)
	}
	return db.GetBoardByName(ctx, name)
}

// GetBoardByName returns a board, or nil when absent.
func (db *DB) GetBoardByName(ctx context.Context, name string) (*Board, error) {
	var b Board
	err := db.conn.GetContext(ctx, &b, "SELECT * FROM boards WHERE name = ?", name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading board %q: %w", name, err)
	}
	return &b, nil
}

// GetBoard returns a board by id, or nil when absent.
func (db *DB) GetBoard(ctx context.Context, id int64) (*Board, error) {
	var b Board
	err := db.conn.GetContext(ctx, &b, "SELECT * FROM boards WHERE id = ?", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading board %d: %w", id, err)
	}
	return &b, nil
}

// ListBoards returns all boards, most recently updated first.
func (db *DB) ListBoards(ctx context.Context) ([]Board, error) {
	var boards []Board
	err := db.conn.SelectContext(ctx, &boards,
		"SELECT * FROM boards ORDER BY updated_at DESC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing boards: %w", err)
	}
	return boards, nil
}

// ReplaceBoardItems swaps the full membership of a board in one
// transaction: readers never observe a partially replaced item set. The
// board's repo_count is set to the number of items actually inserted,
// which is the authoritative count.
func (db *DB) ReplaceBoardItems(ctx context.Context, boardID int64, items []BoardItem) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning board item transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM board_items WHERE board_id = ?", boardID); err != nil {
		return fmt.Errorf("clearing items for board %d: %w", boardID, err)
	}

	now := time.Now().UTC()
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO board_items (board_id, repo_id, rank_score, rank_position, added_at)
			VALUES (?, ?, ?, ?, ?)`,
			boardID, item.RepoID, item.RankScore, item.RankPosition, now,
		); err != nil {
			return fmt.Errorf("inserting item for board %d repo %d: %w", boardID, item.RepoID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE boards SET repo_count = ?, updated_at = ? WHERE id = ?",
		len(items), now, boardID,
	); err != nil {
		return fmt.Errorf("updating count for board %d: %w", boardID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing items for board %d: %w", boardID, err)
	}
	return nil
}

// GetBoardItems returns a board's items ordered by rank position.
func (db *DB) GetBoardItems(ctx context.Context, boardID int64) ([]BoardItem, error) {
	var items []BoardItem
	err := db.conn.SelectContext(ctx, &items,
		"SELECT * FROM board_items WHERE board_id = ? ORDER BY rank_position", boardID)
	if err != nil {
		return nil, fmt.Errorf("loading items for board %d: %w", boardID, err)
	}
	return items, nil
}

// GetBoardEntries returns a board's items joined with repo fields,
// ordered by rank position.
func (db *DB) GetBoardEntries(ctx context.Context, boardID int64) ([]BoardEntry, error) {
	var entries []BoardEntry
	err := db.conn.SelectContext(ctx, &entries, `
		SELECT i.id, i.board_id, i.repo_id, i.rank_score, i.rank_position, i.added_at,
			r.full_name, r.url, r.description, r.stars
		FROM board_items i
		JOIN repos r ON r.id = i.repo_id
		WHERE i.board_id = ?
		ORDER BY i.rank_position`, boardID)
	if err != nil {
		return nil, fmt.Errorf("loading entries for board %d: %w", boardID, err)
	}
	return entries, nil
}
