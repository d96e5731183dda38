// Package embedding computes and stores vector embeddings of repo
// summaries, and answers nearest-neighbor queries over them.
package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yksanjo/repoboard-functional/internal/database"
)

const maxBatchSize = 256

// Client wraps an OpenAI-compatible embeddings endpoint.
type Client struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewClient creates an embedding client against an OpenAI-compatible
// endpoint (Ollama and most local servers expose one).
func NewClient(baseURL, apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return string(c.model)
}

// Embed returns one vector per input text, batching large inputs.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: c.model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embeddings (batch %d-%d): %w", start, end, err)
		}
		for _, emb := range resp.Data {
			vectors[start+emb.Index] = emb.Embedding
		}
	}
	return vectors, nil
}

// Vectorizer is the part of Client the embedder needs; tests substitute a
// stub.
type Vectorizer interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Embedder computes and persists embeddings for summarized repos.
type Embedder struct {
	db     *database.DB
	client Vectorizer
}

// NewEmbedder creates an embedder.
func NewEmbedder(db *database.DB, client Vectorizer) *Embedder {
	return &Embedder{db: db, client: client}
}

// EmbedAll embeds every summarized repo that has no stored vector yet.
// Returns the number of repos embedded.
func (e *Embedder) EmbedAll(ctx context.Context) (int, error) {
	repos, err := e.db.GetReposNeedingEmbedding(ctx)
	if err != nil {
		return 0, err
	}
	if len(repos) == 0 {
		return 0, nil
	}

	summaries, err := e.db.GetAllSummaries(ctx)
	if err != nil {
		return 0, err
	}

	texts := make([]string, len(repos))
	for i, repo := range repos {
		texts[i] = embeddingText(&repo, summaries[repo.ID])
	}

	vectors, err := e.client.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}

	for i, repo := range repos {
		if err := e.db.UpsertEmbedding(ctx, repo.ID, e.client.Model(), vectors[i]); err != nil {
			return 0, err
		}
	}
	return len(repos), nil
}

// embeddingText concatenates the fields that describe what a repo is for.
func embeddingText(repo *database.Repo, summary *database.RepoSummary) string {
	parts := []string{repo.FullName}
	if repo.Description != "" {
		parts = append(parts, repo.Description)
	}
	if summary != nil {
		if summary.Summary != "" {
			parts = append(parts, summary.Summary)
		}
		if len(summary.Tags) > 0 {
			parts = append(parts, strings.Join(summary.Tags, ", "))
		}
	}
	return strings.Join(parts, "\n")
}

// Neighbor is one similarity result.
type Neighbor struct {
	RepoID     int64
	Similarity float64
}

// Similar returns up to limit repos most similar to the given repo by
// cosine similarity over stored vectors, best first. The repo itself is
// excluded.
func (e *Embedder) Similar(ctx context.Context, repoID int64, limit int) ([]Neighbor, error) {
	target, err := e.db.GetEmbedding(ctx, repoID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("repo %d has no embedding", repoID)
	}

	all, err := e.db.GetAllEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(all))
	for id, vector := range all {
		if id == repoID {
			continue
		}
		neighbors = append(neighbors, Neighbor{RepoID: id, Similarity: cosine(target, vector)})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		return neighbors[i].RepoID < neighbors[j].RepoID
	})
	if limit > 0 && len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}
	return neighbors, nil
}

// cosine computes cosine similarity; mismatched lengths and zero vectors
// yield 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
