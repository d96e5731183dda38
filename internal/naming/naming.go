// Package naming turns a cluster of repositories into a board name and
// description via an LLM, falling back to a generic name when the model
// is unavailable or returns garbage.
package naming

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/yksanjo/repoboard-functional/internal/llm"
)

// Fallback board identity used whenever naming fails. Cluster
// materialization never aborts on a naming failure.
const (
	FallbackName        = "Curated Collection"
	FallbackDescription = "A collection of related repositories."
)

// ClusterSummary is the naming payload derived from a cluster's members.
type ClusterSummary struct {
	RepoNames  []string
	Categories []string
	CommonTags []string
	AvgStars   float64
}

// BoardName is the generated identity for a board.
type BoardName struct {
	Name        string
	Description string
}

// Service generates a board identity for a cluster.
type Service interface {
	GenerateBoardName(ctx context.Context, cluster ClusterSummary) (BoardName, error)
}

const boardNamePrompt = `Given a cluster of GitHub repositories with the following characteristics:

Repositories: %s
Categories: %s
Tags: %s
Average Stars: %.0f

Generate a concise, descriptive board name (2-5 words) and description (1-2 sentences) for this curated collection.

Return JSON:
{
    "name": "Board Name",
    "description": "A brief description of what this board contains and why these repos are grouped together."
}`

// LLMService names boards with the configured LLM provider.
type LLMService struct {
	provider  llm.Provider
	maxTokens int
}

// NewLLMService creates a naming service backed by an LLM provider.
// A nil provider is allowed; every call then yields the fallback.
func NewLLMService(provider llm.Provider, maxTokens int) *LLMService {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &LLMService{provider: provider, maxTokens: maxTokens}
}

// GenerateBoardName asks the LLM for a board identity. Provider errors and
// malformed responses are logged and replaced with the fallback; the error
// return is always nil so callers can rely on the result.
func (s *LLMService) GenerateBoardName(ctx context.Context, cluster ClusterSummary) (BoardName, error) {
	fallback := BoardName{Name: FallbackName, Description: FallbackDescription}
	if s.provider == nil {
		return fallback, nil
	}

	prompt := fmt.Sprintf(boardNamePrompt,
		strings.Join(cluster.RepoNames, ", "),
		strings.Join(cluster.Categories, ", "),
		strings.Join(cluster.CommonTags, ", "),
		cluster.AvgStars,
	)

	response, err := s.provider.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		log.Printf("Board naming failed, using fallback: %v", err)
		return fallback, nil
	}

	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		log.Printf("Board naming returned non-JSON, using fallback")
		return fallback, nil
	}

	name := strings.TrimSpace(llm.JSONString(parsed, "name"))
	description := strings.TrimSpace(llm.JSONString(parsed, "description"))
	if name == "" {
		return fallback, nil
	}
	if description == "" {
		description = FallbackDescription
	}

	return BoardName{Name: name, Description: description}, nil
}
