package database

import (
	"context"
	"testing"
)

func TestGetOrCreateBoardIdempotentByName(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	b1, err := db.GetOrCreateBoard(ctx, "Go CLI Tools", "First description", "Developer Tools", 5)
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	if b1.ID == 0 || b1.RepoCount != 5 {
		t.Fatalf("unexpected board: %+v", b1)
	}

	b2, err := db.GetOrCreateBoard(ctx, "Go CLI Tools", "Updated description", "Security", 9)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if b2.ID != b1.ID {
		t.Errorf("expected same board id %d, got %d", b1.ID, b2.ID)
	}
	if b2.Description != "Updated description" {
		t.Errorf("expected updated description, got %q", b2.Description)
	}
	// Category and repo_count are set at creation only.
	if b2.Category != "Developer Tools" {
		t.Errorf("expected original category, got %q", b2.Category)
	}
	if b2.RepoCount != 5 {
		t.Errorf("expected original repo_count 5, got %d", b2.RepoCount)
	}

	boards, err := db.ListBoards(ctx)
	if err != nil {
		t.Fatalf("list boards: %v", err)
	}
	if len(boards) != 1 {
		t.Errorf("expected 1 board, got %d", len(boards))
	}
}

func TestReplaceBoardItems(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var repoIDs []int64
	for _, name := range []string{"a/a", "b/b", "c/c"} {
		r := testRepo("https://github.com/"+name, name)
		if err := db.UpsertRepo(ctx, r); err != nil {
			t.Fatalf("upsert repo: %v", err)
		}
		repoIDs = append(repoIDs, r.ID)
	}

	board, err := db.GetOrCreateBoard(ctx, "Test Board", "desc", "", 3)
	if err != nil {
		t.Fatalf("create board: %v", err)
	}

	items := []BoardItem{
		{RepoID: repoIDs[0], RankScore: 0.9, RankPosition: 1},
		{RepoID: repoIDs[1], RankScore: 0.7, RankPosition: 2},
		{RepoID: repoIDs[2], RankScore: 0.5, RankPosition: 3},
	}
	if err := db.ReplaceBoardItems(ctx, board.ID, items); err != nil {
		t.Fatalf("replace items: %v", err)
	}

	// Re-materialization with fewer members leaves no stale rows behind.
	smaller := []BoardItem{
		{RepoID: repoIDs[2], RankScore: 0.8, RankPosition: 1},
		{RepoID: repoIDs[0], RankScore: 0.6, RankPosition: 2},
	}
	if err := db.ReplaceBoardItems(ctx, board.ID, smaller); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	got, err := db.GetBoardItems(ctx, board.ID)
	if err != nil {
		t.Fatalf("get items: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	for i, item := range got {
		if item.RankPosition != i+1 {
			t.Errorf("expected dense positions, got %d at index %d", item.RankPosition, i)
		}
	}
	if got[0].RankScore < got[1].RankScore {
		t.Error("expected items ordered by descending rank score")
	}

	updated, err := db.GetBoard(ctx, board.ID)
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	if updated.RepoCount != 2 {
		t.Errorf("expected repo_count 2 after replacement, got %d", updated.RepoCount)
	}

	entries, err := db.GetBoardEntries(ctx, board.ID)
	if err != nil {
		t.Fatalf("get entries: %v", err)
	}
	if len(entries) != 2 || entries[0].FullName != "c/c" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}
