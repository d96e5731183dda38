package github

import (
	"context"
	"log"
	"time"

	"github.com/yksanjo/repoboard-functional/internal/database"
)

// Ingester discovers trending repositories and persists their metadata.
type Ingester struct {
	client *Client
	db     *database.DB

	fetchLanguages bool
	fetchReadme    bool
}

// NewIngester creates an ingester that also fetches per-repo languages and
// READMEs (two extra API calls per repo).
func NewIngester(client *Client, db *database.DB) *Ingester {
	return &Ingester{
		client:         client,
		db:             db,
		fetchLanguages: true,
		fetchReadme:    true,
	}
}

// Ingest searches for trending repos and upserts them. Per-repo enrichment
// failures (languages, README) are logged and skipped rather than aborting
// the run. Returns the number of repos stored.
func (ing *Ingester) Ingest(ctx context.Context, minStars int, languages []string, pages, perPage int) (int, error) {
	found, err := ing.client.SearchTrending(ctx, minStars, languages, pages, perPage)
	if err != nil {
		return 0, err
	}
	log.Printf("GitHub search returned %d repos", len(found))

	stored := 0
	for _, sr := range found {
		repo := repoFromSearch(sr, time.Now().UTC())

		if ing.fetchLanguages {
			shares, err := ing.client.GetLanguages(ctx, sr.FullName)
			if err != nil {
				log.Printf("Languages for %s: %v", sr.FullName, err)
			} else {
				repo.Languages = shares
			}
		}
		if ing.fetchReadme {
			readme, err := ing.client.GetReadme(ctx, sr.FullName)
			if err != nil {
				log.Printf("README for %s: %v", sr.FullName, err)
			} else {
				repo.Readme = readme
			}
		}

		if err := ing.db.UpsertRepo(ctx, repo); err != nil {
			log.Printf("Storing %s: %v", sr.FullName, err)
			continue
		}
		stored++
	}

	return stored, nil
}

// repoFromSearch maps an API result to a database row, computing the star
// velocity as stars per day since creation (at least one day, so brand-new
// repos do not divide by zero).
func repoFromSearch(sr SearchRepo, now time.Time) *database.Repo {
	days := now.Sub(sr.CreatedAt).Hours() / 24
	if days < 1 {
		days = 1
	}

	license := ""
	if sr.License != nil {
		license = sr.License.SPDXID
	}

	return &database.Repo{
		URL:          sr.HTMLURL,
		FullName:     sr.FullName,
		Name:         sr.Name,
		Owner:        sr.Owner.Login,
		Description:  sr.Description,
		Stars:        sr.Stars,
		Forks:        sr.Forks,
		Watchers:     sr.Watchers,
		OpenIssues:   sr.OpenIssues,
		Topics:       sr.Topics,
		License:      license,
		Archived:     sr.Archived,
		StarVelocity: float64(sr.Stars) / days,
		CreatedAt:    sr.CreatedAt,
		PushedAt:     sr.PushedAt,
		LastSynced:   now,
	}
}
