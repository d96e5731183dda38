// Package cluster partitions summarized repositories into similarity
// groups over standardized metadata features and materializes each
// surviving group as a named, ranked board.
package cluster

import (
	"context"
	"fmt"
	"log"

	"github.com/yksanjo/repoboard-functional/internal/database"
	"github.com/yksanjo/repoboard-functional/internal/naming"
	"github.com/yksanjo/repoboard-functional/internal/rank"
)

// DefaultMinClusterSize is the smallest group that becomes a board.
const DefaultMinClusterSize = 5

// Result holds the outcome of a board generation run. Per-cluster
// failures are collected here, not raised: one bad cluster never blocks
// the rest.
type Result struct {
	Boards         []database.Board
	ClusteredRepos int
	Errors         []error
}

// Clusterer groups repos and materializes boards.
type Clusterer struct {
	db             *database.DB
	namer          naming.Service
	ranker         *rank.Ranker
	minClusterSize int
}

// NewClusterer creates a new repository clusterer.
func NewClusterer(db *database.DB, namer naming.Service, ranker *rank.Ranker, minClusterSize int) *Clusterer {
	if minClusterSize <= 0 {
		minClusterSize = DefaultMinClusterSize
	}
	return &Clusterer{
		db:             db,
		namer:          namer,
		ranker:         ranker,
		minClusterSize: minClusterSize,
	}
}

// member pairs a repo with its summary for feature building and naming.
type member struct {
	repo    database.Repo
	summary *database.RepoSummary
}

// GenerateBoards clusters the summarized, non-archived population into at
// most nClusters groups and creates or updates one board per group of at
// least minClusterSize members. An undersized population yields an empty
// result, not an error.
func (c *Clusterer) GenerateBoards(ctx context.Context, nClusters int) (*Result, error) {
	members, err := c.loadMembers(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if len(members) < c.minClusterSize {
		log.Printf("Not enough summarized repos for clustering: %d", len(members))
		return result, nil
	}

	groups := c.clusterMembers(members, nClusters)
	log.Printf("Clustering produced %d groups of >= %d repos from %d repos",
		len(groups), c.minClusterSize, len(members))

	for _, group := range groups {
		board, err := c.materializeBoard(ctx, group)
		if err != nil {
			log.Printf("Error materializing board: %v", err)
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Boards = append(result.Boards, *board)
		result.ClusteredRepos += board.RepoCount
		log.Printf("Board %q: %d repos", board.Name, board.RepoCount)
	}

	return result, nil
}

// loadMembers returns all non-archived repos that have a summary, in repo
// id order. Repos without a summary cannot be featurized and are excluded.
func (c *Clusterer) loadMembers(ctx context.Context) ([]member, error) {
	repos, err := c.db.GetRepos(ctx, database.RepoFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading repos: %w", err)
	}
	summaries, err := c.db.GetAllSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading summaries: %w", err)
	}

	members := make([]member, 0, len(repos))
	for _, repo := range repos {
		if summary := summaries[repo.ID]; summary != nil {
			members = append(members, member{repo: repo, summary: summary})
		}
	}
	return members, nil
}

// clusterMembers featurizes, standardizes, and k-means partitions the
// members, dropping groups below minClusterSize.
func (c *Clusterer) clusterMembers(members []member, nClusters int) [][]member {
	features := make([][]float64, len(members))
	for i := range members {
		features[i] = buildFeatureVector(&members[i].repo, members[i].summary)
	}
	standardize(features)

	k := nClusters
	if len(members) < k*c.minClusterSize {
		k = len(members) / c.minClusterSize
		if k < 2 {
			k = 2
		}
	}

	labels := kmeans(features, k)

	grouped := make(map[int][]member)
	for i, label := range labels {
		grouped[label] = append(grouped[label], members[i])
	}

	// Labels are 0..k-1; iterating in label order keeps the run order
	// deterministic.
	var groups [][]member
	for label := 0; label < k; label++ {
		if group := grouped[label]; len(group) >= c.minClusterSize {
			groups = append(groups, group)
		}
	}
	return groups
}

// materializeBoard names one cluster, upserts its board, ranks its
// members, and atomically replaces the board's item set.
func (c *Clusterer) materializeBoard(ctx context.Context, group []member) (*database.Board, error) {
	summary := summarizeCluster(group)

	identity, err := c.namer.GenerateBoardName(ctx, summary)
	if err != nil {
		// Naming services substitute fallbacks themselves; an error here
		// means something beyond the LLM went wrong.
		return nil, fmt.Errorf("naming cluster: %w", err)
	}

	category := ""
	if len(summary.Categories) > 0 {
		category = summary.Categories[0]
	}

	board, err := c.db.GetOrCreateBoard(ctx, identity.Name, identity.Description, category, len(group))
	if err != nil {
		return nil, err
	}

	memberIDs := make([]int64, len(group))
	for i, m := range group {
		memberIDs[i] = m.repo.ID
	}
	scores, err := c.ranker.Rank(ctx, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("ranking board %q: %w", board.Name, err)
	}

	items := make([]database.BoardItem, len(scores))
	for i, s := range scores {
		items[i] = database.BoardItem{
			BoardID:      board.ID,
			RepoID:       s.RepoID,
			RankScore:    s.TotalScore,
			RankPosition: i + 1,
		}
	}
	if err := c.db.ReplaceBoardItems(ctx, board.ID, items); err != nil {
		return nil, err
	}

	return c.db.GetBoard(ctx, board.ID)
}

// summarizeCluster derives the naming payload: up to 10 member names, the
// distinct categories and up to 15 distinct tags in member order, and the
// mean star count.
func summarizeCluster(group []member) naming.ClusterSummary {
	const (
		maxNames = 10
		maxTags  = 15
	)

	var names []string
	var categories []string
	var tags []string
	seenCategory := make(map[string]bool)
	seenTag := make(map[string]bool)
	totalStars := 0

	for _, m := range group {
		if len(names) < maxNames {
			names = append(names, m.repo.FullName)
		}
		if cat := m.summary.Category; cat != "" && !seenCategory[cat] {
			seenCategory[cat] = true
			categories = append(categories, cat)
		}
		for _, tag := range m.summary.Tags {
			if len(tags) >= maxTags {
				break
			}
			if tag != "" && !seenTag[tag] {
				seenTag[tag] = true
				tags = append(tags, tag)
			}
		}
		totalStars += m.repo.Stars
	}

	avgStars := 0.0
	if len(group) > 0 {
		avgStars = float64(totalStars) / float64(len(group))
	}

	return naming.ClusterSummary{
		RepoNames:  names,
		Categories: categories,
		CommonTags: tags,
		AvgStars:   avgStars,
	}
}
