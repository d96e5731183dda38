// Package score implements the five-factor curation scoring model. Every
// function is pure and returns a value in [0,1]; missing inputs fall back
// to documented neutral defaults instead of errors.
package score

import (
	"math"
	"strings"

	"github.com/yksanjo/repoboard-functional/internal/database"
)

// Weights of the composite score. A tunable policy surface; they must sum
// to exactly 1.0.
const (
	WeightStarVelocity  = 0.35
	WeightProjectHealth = 0.25
	WeightUniqueness    = 0.20
	WeightReadmeQuality = 0.10
	WeightDifficulty    = 0.10
)

// Neutral defaults for repos without a summary.
const (
	DefaultHealthScore = 0.5
	DefaultDifficulty  = 0.5
)

// StarVelocity normalizes a repo's star velocity against the fastest repo
// in the population, with logarithmic compression so diminishing returns
// apply to velocity gains. Zero when maxVelocity is zero.
func StarVelocity(velocity, maxVelocity float64) float64 {
	if maxVelocity == 0 {
		return 0
	}
	normalized := math.Min(velocity/maxVelocity, 1.0)
	return math.Log(1+normalized*9) / math.Log(10)
}

// ProjectHealth returns the summary's precomputed health score, or a
// neutral 0.5 prior when no summary exists.
func ProjectHealth(summary *database.RepoSummary) float64 {
	if summary == nil {
		return DefaultHealthScore
	}
	return summary.ProjectHealthScore
}

// Uniqueness measures how few other repos in the population share similar
// languages or topics. A repo resembling many others scores near 0; one
// resembling none approaches 1. O(n) per repo, O(n²) per ranking pass —
// acceptable at curation-job batch sizes.
func Uniqueness(repo *database.Repo, population []database.Repo) float64 {
	langs := keySet(repo.Languages)
	topics := stringSet(repo.Topics)

	similar := 0
	for i := range population {
		other := &population[i]
		if other.ID == repo.ID {
			continue
		}
		langOverlap := jaccard(langs, keySet(other.Languages))
		topicOverlap := jaccard(topics, stringSet(other.Topics))
		if langOverlap > 0.5 || topicOverlap > 0.5 {
			similar++
		}
	}

	uniqueness := 1.0 / (1.0 + float64(similar)/10.0)
	return math.Min(uniqueness, 1.0)
}

// readme keyword signals and their bonuses.
var readmeSignals = []struct {
	keywords []string
	bonus    float64
}{
	{[]string{"installation", "install"}, 0.2},
	{[]string{"usage", "example"}, 0.2},
	{[]string{"license"}, 0.1},
	{[]string{"contributing", "contribute"}, 0.1},
	{[]string{"documentation", "docs"}, 0.1},
}

// ReadmeQuality scores a README by the presence of common section signals
// plus a length bonus. Zero for an absent or empty README.
func ReadmeQuality(readme string) float64 {
	if readme == "" {
		return 0
	}

	lower := strings.ToLower(readme)
	total := 0.0
	for _, sig := range readmeSignals {
		for _, kw := range sig.keywords {
			if strings.Contains(lower, kw) {
				total += sig.bonus
				break
			}
		}
	}

	total += math.Min(float64(len(readme))/2000.0, 0.3)
	return math.Min(total, 1.0)
}

// Difficulty maps the summary's skill level into [0,1]; higher skill repos
// carry more curation weight. 0.5 when no summary exists.
func Difficulty(summary *database.RepoSummary) float64 {
	if summary == nil {
		return DefaultDifficulty
	}
	return float64(summary.SkillLevelNumeric) / 10.0
}

// Total combines the five sub-scores into the weighted composite.
func Total(starVelocity, projectHealth, uniqueness, readmeQuality, difficulty float64) float64 {
	return WeightStarVelocity*starVelocity +
		WeightProjectHealth*projectHealth +
		WeightUniqueness*uniqueness +
		WeightReadmeQuality*readmeQuality +
		WeightDifficulty*difficulty
}

// jaccard computes set similarity; an empty union counts as zero overlap.
func jaccard(a, b map[string]bool) float64 {
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union < 1 {
		union = 1
	}
	return float64(intersection) / float64(union)
}

func keySet(m map[string]float64) map[string]bool {
	set := make(map[string]bool, len(m))
	for k := range m {
		set[k] = true
	}
	return set
}

func stringSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}
