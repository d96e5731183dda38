package database

import "time"

// Repo holds GitHub repository metadata. Owned by the ingester; the
// curation engine only reads these rows.
type Repo struct {
	ID            int64     `db:"id"`
	URL           string    `db:"url"`
	FullName      string    `db:"full_name"`
	Name          string    `db:"name"`
	Owner         string    `db:"owner"`
	Description   string    `db:"description"`
	Readme        string    `db:"readme"`
	LanguagesJSON string    `db:"languages"`
	TopicsJSON    string    `db:"topics"`
	Stars         int       `db:"stars"`
	Forks         int       `db:"forks"`
	Watchers      int       `db:"watchers"`
	OpenIssues    int       `db:"open_issues"`
	License       string    `db:"license"`
	Archived      bool      `db:"archived"`
	StarVelocity  float64   `db:"star_velocity"`
	CreatedAt     time.Time `db:"created_at"`
	PushedAt      time.Time `db:"pushed_at"`
	FirstSeen     time.Time `db:"first_seen"`
	LastSynced    time.Time `db:"last_synced"`

	// Decoded JSON columns. Languages maps language name to fractional
	// share of the codebase; shares need not sum to 1.
	Languages map[string]float64 `db:"-"`
	Topics    []string           `db:"-"`
}

// RepoSummary is the LLM-generated analysis of a repo. At most one per repo.
type RepoSummary struct {
	RepoID             int64     `db:"repo_id"`
	Summary            string    `db:"summary"`
	TagsJSON           string    `db:"tags"`
	Category           string    `db:"category"`
	SkillLevel         string    `db:"skill_level"`
	SkillLevelNumeric  int       `db:"skill_level_numeric"`
	ProjectHealth      string    `db:"project_health"`
	ProjectHealthScore float64   `db:"project_health_score"`
	UseCasesJSON       string    `db:"use_cases"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`

	Tags     []string `db:"-"`
	UseCases []string `db:"-"`
}

// CurationScore is the scoring breakdown for one repo. Exactly one row per
// repo, rewritten in full on every ranking pass.
type CurationScore struct {
	RepoID           int64     `db:"repo_id"`
	StarVelocity     float64   `db:"star_velocity"`
	ProjectHealth    float64   `db:"project_health"`
	Uniqueness       float64   `db:"uniqueness"`
	ReadmeQuality    float64   `db:"readme_quality"`
	DifficultyWeight float64   `db:"difficulty_weight"`
	TotalScore       float64   `db:"total_score"`
	ComputedAt       time.Time `db:"computed_at"`
}

// Board is a named, curated collection of repos. Unique by name.
type Board struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	RepoCount   int       `db:"repo_count"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// BoardItem is one ranked repo on a board. rank_position is 1-based and
// dense within a board.
type BoardItem struct {
	ID           int64     `db:"id"`
	BoardID      int64     `db:"board_id"`
	RepoID       int64     `db:"repo_id"`
	RankScore    float64   `db:"rank_score"`
	RankPosition int       `db:"rank_position"`
	AddedAt      time.Time `db:"added_at"`
}

// BoardEntry is a board item joined with its repo, for display.
type BoardEntry struct {
	BoardItem
	FullName    string `db:"full_name"`
	URL         string `db:"url"`
	Description string `db:"description"`
	Stars       int    `db:"stars"`
}

// Stats contains aggregate database statistics.
type Stats struct {
	Repos      int
	Summaries  int
	Scores     int
	Embeddings int
	Boards     int
	BoardItems int
}
