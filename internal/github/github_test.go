package github

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/yksanjo/repoboard-functional/internal/database"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-token")
	c.baseURL = srv.URL
	return c
}

func TestSearchTrendingQuery(t *testing.T) {
	var gotQuery, gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/repositories" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"items": [{"full_name": "a/b", "html_url": "https://github.com/a/b", "stargazers_count": 1200}]}`))
	})

	repos, err := newTestClient(t, handler).SearchTrending(context.Background(), 1000, []string{"Go", "Rust"}, 1, 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(repos) != 1 || repos[0].FullName != "a/b" {
		t.Errorf("unexpected repos: %+v", repos)
	}
	if gotQuery != "stars:>1000 language:Go language:Rust" {
		t.Errorf("unexpected query: %q", gotQuery)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
}

func TestSearchTrendingStopsOnEmptyPage(t *testing.T) {
	pages := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		if r.URL.Query().Get("page") == "1" {
			w.Write([]byte(`{"items": [{"full_name": "a/b", "html_url": "u"}]}`))
			return
		}
		w.Write([]byte(`{"items": []}`))
	})

	repos, err := newTestClient(t, handler).SearchTrending(context.Background(), 100, nil, 5, 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(repos) != 1 {
		t.Errorf("expected 1 repo, got %d", len(repos))
	}
	if pages != 2 {
		t.Errorf("expected to stop after the empty page, made %d requests", pages)
	}
}

func TestGetLanguagesShares(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/a/b/languages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"Go": 7500, "Shell": 2500}`))
	})

	shares, err := newTestClient(t, handler).GetLanguages(context.Background(), "a/b")
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	if math.Abs(shares["Go"]-0.75) > 1e-9 || math.Abs(shares["Shell"]-0.25) > 1e-9 {
		t.Errorf("unexpected shares: %v", shares)
	}
}

func TestGetReadmeMissing(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	readme, err := newTestClient(t, handler).GetReadme(context.Background(), "a/b")
	if err != nil {
		t.Fatalf("a missing readme is not an error: %v", err)
	}
	if readme != "" {
		t.Errorf("expected empty readme, got %q", readme)
	}
}

func TestRepoFromSearchVelocity(t *testing.T) {
	now := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)

	sr := SearchRepo{
		FullName:  "a/b",
		HTMLURL:   "https://github.com/a/b",
		Stars:     100,
		CreatedAt: now.AddDate(0, 0, -10),
	}
	repo := repoFromSearch(sr, now)
	if math.Abs(repo.StarVelocity-10) > 1e-9 {
		t.Errorf("expected velocity 10, got %v", repo.StarVelocity)
	}

	// A repo created today counts as one day old.
	sr.CreatedAt = now
	repo = repoFromSearch(sr, now)
	if math.Abs(repo.StarVelocity-100) > 1e-9 {
		t.Errorf("expected velocity 100 for a day-old repo, got %v", repo.StarVelocity)
	}
}

func TestIngestStoresRepos(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/repositories":
			w.Write([]byte(`{"items": [
				{"full_name": "a/b", "name": "b", "html_url": "https://github.com/a/b",
				 "stargazers_count": 1500, "topics": ["cli"],
				 "owner": {"login": "a"},
				 "created_at": "2024-01-01T00:00:00Z", "pushed_at": "2026-01-01T00:00:00Z"}
			]}`))
		case "/repos/a/b/languages":
			w.Write([]byte(`{"Go": 100}`))
		case "/repos/a/b/readme":
			w.Write([]byte("# b\n\nInstall with go install."))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	stored, err := NewIngester(newTestClient(t, handler), db).Ingest(ctx, 1000, nil, 1, 50)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if stored != 1 {
		t.Fatalf("expected 1 repo stored, got %d", stored)
	}

	repo, err := db.GetRepoByFullName(ctx, "a/b")
	if err != nil {
		t.Fatalf("load repo: %v", err)
	}
	if repo == nil {
		t.Fatal("repo not stored")
	}
	if repo.Languages["Go"] != 1.0 {
		t.Errorf("unexpected languages: %v", repo.Languages)
	}
	if repo.Readme == "" {
		t.Error("expected readme to be stored")
	}
	if repo.StarVelocity <= 0 {
		t.Errorf("expected positive star velocity, got %v", repo.StarVelocity)
	}
}
