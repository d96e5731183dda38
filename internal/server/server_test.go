package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/yksanjo/repoboard-functional/internal/database"
)

func newTestServer(t *testing.T) (*Server, *database.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv, db
}

func seedBoard(t *testing.T, db *database.DB) (*database.Board, *database.Repo) {
	t.Helper()
	ctx := context.Background()

	repo := &database.Repo{
		URL:         "https://github.com/a/tool",
		FullName:    "a/tool",
		Name:        "tool",
		Owner:       "a",
		Description: "A fine tool",
		Readme:      "# tool\n\nInstall with `go install`.",
		Stars:       1234,
		Languages:   map[string]float64{"Go": 1},
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PushedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.UpsertRepo(ctx, repo); err != nil {
		t.Fatalf("seed repo: %v", err)
	}

	board, err := db.GetOrCreateBoard(ctx, "Go Tools", "Handy Go tools.", "Developer Tools", 1)
	if err != nil {
		t.Fatalf("seed board: %v", err)
	}
	items := []database.BoardItem{{
		BoardID:      board.ID,
		RepoID:       repo.ID,
		RankScore:    0.81,
		RankPosition: 1,
	}}
	if err := db.ReplaceBoardItems(ctx, board.ID, items); err != nil {
		t.Fatalf("seed items: %v", err)
	}
	return board, repo
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexListsBoards(t *testing.T) {
	srv, db := newTestServer(t)
	seedBoard(t, db)

	rec := get(t, srv, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Go Tools") {
		t.Error("index should list the board name")
	}
	if !strings.Contains(body, "1 repos") {
		t.Error("index should show the repo count")
	}
}

func TestIndexEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No boards yet") {
		t.Error("empty index should show the placeholder")
	}
}

func TestBoardPage(t *testing.T) {
	srv, db := newTestServer(t)
	board, _ := seedBoard(t, db)

	rec := get(t, srv, "/board/"+strconvI64(board.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "a/tool") {
		t.Error("board page should list member repos")
	}
	if !strings.Contains(body, "0.810") {
		t.Error("board page should show the rank score")
	}
	if !strings.Contains(body, "1.2k") {
		t.Error("board page should abbreviate star counts")
	}
}

func TestBoardNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	if rec := get(t, srv, "/board/999"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := get(t, srv, "/board/not-a-number"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a bad id, got %d", rec.Code)
	}
}

func TestRepoPageRendersReadme(t *testing.T) {
	srv, db := newTestServer(t)
	_, repo := seedBoard(t, db)

	rec := get(t, srv, "/repo/"+strconvI64(repo.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<code>go install</code>") {
		t.Error("readme markdown should be rendered to HTML")
	}
	if !strings.Contains(body, "A fine tool") {
		t.Error("repo page should show the description")
	}
}

func TestStaticStylesheet(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/static/style.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "body") {
		t.Error("stylesheet should be served")
	}
}

func strconvI64(v int64) string {
	return strconv.FormatInt(v, 10)
}
