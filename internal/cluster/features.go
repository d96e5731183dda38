package cluster

import (
	"math"
	"sort"

	"github.com/yksanjo/repoboard-functional/internal/database"
)

// canonicalCategories is the closed, ordered list used for one-hot
// encoding. Unrecognized categories land in the trailing "Other" bucket.
var canonicalCategories = []string{
	"Machine Learning",
	"Web Framework",
	"Developer Tools",
	"Data Science",
	"Game Engine",
	"Mobile",
	"DevOps",
	"Security",
	"Other",
}

const (
	languageSlots = 5
	velocityScale = 100.0
)

// featureLen is the fixed length of every feature vector:
// category one-hot + skill + health + velocity + language shares.
var featureLen = len(canonicalCategories) + 3 + languageSlots

// buildFeatureVector encodes one summarized repo as a fixed-length numeric
// vector for clustering.
func buildFeatureVector(repo *database.Repo, summary *database.RepoSummary) []float64 {
	features := make([]float64, 0, featureLen)

	categoryIdx := len(canonicalCategories) - 1
	for i, c := range canonicalCategories {
		if c == summary.Category {
			categoryIdx = i
			break
		}
	}
	for i := range canonicalCategories {
		if i == categoryIdx {
			features = append(features, 1.0)
		} else {
			features = append(features, 0.0)
		}
	}

	features = append(features, float64(summary.SkillLevelNumeric)/10.0)
	features = append(features, summary.ProjectHealthScore)
	features = append(features, math.Min(repo.StarVelocity/velocityScale, 1.0))
	features = append(features, topLanguageShares(repo.Languages)...)

	return features
}

// topLanguageShares returns the top languageSlots shares ordered by
// descending share, ties broken by language name ascending so the vector
// is deterministic. Unused slots stay zero.
func topLanguageShares(languages map[string]float64) []float64 {
	type langShare struct {
		name  string
		share float64
	}
	ranked := make([]langShare, 0, len(languages))
	for name, share := range languages {
		ranked = append(ranked, langShare{name, share})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].share != ranked[j].share {
			return ranked[i].share > ranked[j].share
		}
		return ranked[i].name < ranked[j].name
	})

	shares := make([]float64, languageSlots)
	for i := 0; i < len(ranked) && i < languageSlots; i++ {
		shares[i] = ranked[i].share
	}
	return shares
}

// standardize rescales each feature column to zero mean and unit variance
// in place, so scale-dominant features (like the category one-hot block)
// cannot overwhelm the continuous signals. Zero-variance columns are left
// at zero.
func standardize(features [][]float64) {
	if len(features) == 0 {
		return
	}
	n := float64(len(features))
	cols := len(features[0])

	for col := 0; col < cols; col++ {
		mean := 0.0
		for _, row := range features {
			mean += row[col]
		}
		mean /= n

		variance := 0.0
		for _, row := range features {
			d := row[col] - mean
			variance += d * d
		}
		stddev := math.Sqrt(variance / n)

		for _, row := range features {
			if stddev == 0 {
				row[col] = 0
			} else {
				row[col] = (row[col] - mean) / stddev
			}
		}
	}
}
