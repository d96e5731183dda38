package cluster

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/yksanjo/repoboard-functional/internal/database"
	"github.com/yksanjo/repoboard-functional/internal/naming"
	"github.com/yksanjo/repoboard-functional/internal/rank"
)

// stubNamer implements naming.Service with a deterministic name derived
// from the cluster's first category.
type stubNamer struct {
	calls []naming.ClusterSummary
}

func (s *stubNamer) GenerateBoardName(_ context.Context, cluster naming.ClusterSummary) (naming.BoardName, error) {
	s.calls = append(s.calls, cluster)
	name := naming.FallbackName
	if len(cluster.Categories) > 0 {
		name = cluster.Categories[0] + " Picks"
	}
	return naming.BoardName{Name: name, Description: "Stub description."}, nil
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedMember(t *testing.T, db *database.DB, fullName, category string, langs map[string]float64, topics []string, velocity float64, health float64) int64 {
	t.Helper()
	ctx := context.Background()
	r := &database.Repo{
		URL:          "https://github.com/" + fullName,
		FullName:     fullName,
		Name:         fullName,
		Owner:        "owner",
		Stars:        500,
		Languages:    langs,
		Topics:       topics,
		StarVelocity: velocity,
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PushedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.UpsertRepo(ctx, r); err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	s := &database.RepoSummary{
		RepoID:             r.ID,
		Summary:            "summary",
		Tags:               []string{category, "testing"},
		Category:           category,
		SkillLevel:         "intermediate",
		SkillLevelNumeric:  5,
		ProjectHealth:      "good",
		ProjectHealthScore: health,
	}
	if err := db.UpsertSummary(ctx, s); err != nil {
		t.Fatalf("seed summary: %v", err)
	}
	return r.ID
}

// seedPopulation creates 5 similar Developer Tools repos and 1 Security
// outlier with a disjoint language/topic mix.
func seedPopulation(t *testing.T, db *database.DB) (toolIDs []int64, outlierID int64) {
	t.Helper()
	for i := 0; i < 5; i++ {
		id := seedMember(t, db,
			fmt.Sprintf("tools/cli-%d", i),
			"Developer Tools",
			map[string]float64{"Go": 0.8, "Shell": 0.2},
			[]string{"cli", "productivity"},
			float64(5+i), 0.5+float64(i)*0.1,
		)
		toolIDs = append(toolIDs, id)
	}
	outlierID = seedMember(t, db,
		"sec/scanner",
		"Security",
		map[string]float64{"Rust": 0.9, "C": 0.1},
		[]string{"security", "fuzzing"},
		80, 0.9,
	)
	return toolIDs, outlierID
}

func newTestClusterer(db *database.DB, namer naming.Service) *Clusterer {
	return NewClusterer(db, namer, rank.NewRanker(db), DefaultMinClusterSize)
}

func TestGenerateBoardsInsufficientPopulation(t *testing.T) {
	db := openTestDB(t)
	seedMember(t, db, "a/a", "Other", map[string]float64{"Go": 1}, nil, 1, 0.5)

	result, err := newTestClusterer(db, &stubNamer{}).GenerateBoards(context.Background(), 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Boards) != 0 || len(result.Errors) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestGenerateBoardsOutlierExcluded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	toolIDs, outlierID := seedPopulation(t, db)

	namer := &stubNamer{}
	result, err := newTestClusterer(db, namer).GenerateBoards(ctx, 15)
	if err != nil {
		t.Fatalf("generate boards: %v", err)
	}

	// The outlier's singleton group is below min size: exactly one board.
	if len(result.Boards) != 1 {
		t.Fatalf("expected exactly 1 board, got %d", len(result.Boards))
	}
	board := result.Boards[0]
	if board.RepoCount != 5 {
		t.Errorf("expected 5 members, got %d", board.RepoCount)
	}
	if board.Category != "Developer Tools" {
		t.Errorf("expected category from members, got %q", board.Category)
	}

	items, err := db.GetBoardItems(ctx, board.ID)
	if err != nil {
		t.Fatalf("get items: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}

	memberSet := map[int64]bool{}
	for _, id := range toolIDs {
		memberSet[id] = true
	}
	for i, item := range items {
		if item.RepoID == outlierID {
			t.Error("outlier must not appear on the board")
		}
		if !memberSet[item.RepoID] {
			t.Errorf("unexpected member %d", item.RepoID)
		}
		if item.RankPosition != i+1 {
			t.Errorf("positions must be dense 1..N, got %d at index %d", item.RankPosition, i)
		}
		if i > 0 && items[i].RankScore > items[i-1].RankScore {
			t.Error("rank score must not increase with position")
		}
	}

	// Highest velocity + health member ranks first.
	if items[0].RepoID != toolIDs[4] {
		t.Errorf("expected repo %d first, got %d", toolIDs[4], items[0].RepoID)
	}

	// Naming payload carries member names, categories, and pooled tags.
	if len(namer.calls) != 1 {
		t.Fatalf("expected 1 naming call, got %d", len(namer.calls))
	}
	call := namer.calls[0]
	if len(call.RepoNames) != 5 {
		t.Errorf("expected 5 repo names, got %v", call.RepoNames)
	}
	if len(call.Categories) != 1 || call.Categories[0] != "Developer Tools" {
		t.Errorf("unexpected categories: %v", call.Categories)
	}
	if call.AvgStars != 500 {
		t.Errorf("expected avg stars 500, got %v", call.AvgStars)
	}
}

func TestGenerateBoardsIdempotentByName(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedPopulation(t, db)

	clusterer := newTestClusterer(db, &stubNamer{})
	first, err := clusterer.GenerateBoards(ctx, 15)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := clusterer.GenerateBoards(ctx, 15)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(first.Boards) != len(second.Boards) {
		t.Fatalf("board count changed: %d vs %d", len(first.Boards), len(second.Boards))
	}

	boards, err := db.ListBoards(ctx)
	if err != nil {
		t.Fatalf("list boards: %v", err)
	}
	if len(boards) != len(first.Boards) {
		t.Errorf("expected no duplicate boards, got %d rows", len(boards))
	}
	for _, b := range boards {
		items, err := db.GetBoardItems(ctx, b.ID)
		if err != nil {
			t.Fatalf("get items: %v", err)
		}
		if b.RepoCount != len(items) {
			t.Errorf("board %q repo_count %d != item count %d", b.Name, b.RepoCount, len(items))
		}
	}
}

func TestGenerateBoardsReducesClusterCount(t *testing.T) {
	db := openTestDB(t)

	// 12 repos across two clearly distinct categories; requesting 15
	// clusters must not fail on a small population.
	for i := 0; i < 6; i++ {
		seedMember(t, db, fmt.Sprintf("ml/model-%d", i), "Machine Learning",
			map[string]float64{"Python": 0.9}, []string{"ml"}, float64(i), 0.7)
		seedMember(t, db, fmt.Sprintf("web/site-%d", i), "Web Framework",
			map[string]float64{"TypeScript": 0.9}, []string{"web"}, float64(i), 0.6)
	}

	result, err := newTestClusterer(db, &stubNamer{}).GenerateBoards(context.Background(), 15)
	if err != nil {
		t.Fatalf("generate boards: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Boards) != 2 {
		t.Errorf("expected 2 boards from 12 repos, got %d", len(result.Boards))
	}
	for _, b := range result.Boards {
		if b.RepoCount < DefaultMinClusterSize {
			t.Errorf("board %q smaller than min cluster size: %d", b.Name, b.RepoCount)
		}
	}
}
