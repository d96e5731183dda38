// Package github fetches repository metadata from the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// Client is a rate-limit-aware GitHub REST client.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client

	rateLimitRemaining int
	rateLimitReset     int64
}

// NewClient creates a GitHub client. An empty token works with the much
// lower unauthenticated rate limits.
func NewClient(token string) *Client {
	return &Client{
		token:              token,
		baseURL:            defaultBaseURL,
		httpClient:         &http.Client{Timeout: 30 * time.Second},
		rateLimitRemaining: 5000,
	}
}

// SearchRepo is one repository as returned by the search API.
type SearchRepo struct {
	FullName    string    `json:"full_name"`
	Name        string    `json:"name"`
	HTMLURL     string    `json:"html_url"`
	Description string    `json:"description"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Watchers    int       `json:"watchers_count"`
	OpenIssues  int       `json:"open_issues_count"`
	Topics      []string  `json:"topics"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	PushedAt    time.Time `json:"pushed_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
	License *struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

type searchResult struct {
	Items []SearchRepo `json:"items"`
}

// SearchTrending returns popular repos via the search API (GitHub has no
// official trending endpoint), sorted by stars descending.
func (c *Client) SearchTrending(ctx context.Context, minStars int, languages []string, pages, perPage int) ([]SearchRepo, error) {
	queryParts := []string{fmt.Sprintf("stars:>%d", minStars)}
	for _, lang := range languages {
		queryParts = append(queryParts, "language:"+lang)
	}

	params := url.Values{}
	params.Set("q", strings.Join(queryParts, " "))
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(perPage))

	var repos []SearchRepo
	for page := 1; page <= pages; page++ {
		params.Set("page", strconv.Itoa(page))

		var result searchResult
		if err := c.getJSON(ctx, "/search/repositories?"+params.Encode(), &result); err != nil {
			// Later pages failing should not discard earlier results.
			if page > 1 {
				log.Printf("Search page %d failed, keeping %d repos: %v", page, len(repos), err)
				break
			}
			return nil, err
		}
		if len(result.Items) == 0 {
			break
		}
		repos = append(repos, result.Items...)
	}
	return repos, nil
}

// GetLanguages returns the language byte counts for a repo converted to
// fractional shares of the total.
func (c *Client) GetLanguages(ctx context.Context, fullName string) (map[string]float64, error) {
	var bytesByLang map[string]int64
	if err := c.getJSON(ctx, "/repos/"+fullName+"/languages", &bytesByLang); err != nil {
		return nil, err
	}

	var total int64
	for _, b := range bytesByLang {
		total += b
	}
	shares := make(map[string]float64, len(bytesByLang))
	if total == 0 {
		return shares, nil
	}
	for lang, b := range bytesByLang {
		shares[lang] = float64(b) / float64(total)
	}
	return shares, nil
}

// GetReadme returns the decoded README, or "" when the repo has none.
func (c *Client) GetReadme(ctx context.Context, fullName string) (string, error) {
	req, err := c.newRequest(ctx, "/repos/"+fullName+"/readme")
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.raw+json")

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github readme for %s: status %d", fullName, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading readme for %s: %w", fullName, err)
	}
	return string(body), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, path)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github API %s: status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding github response for %s: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do sends the request, waiting out the rate limit window first when the
// remaining budget is nearly exhausted.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.rateLimitRemaining < 10 {
		wait := time.Until(time.Unix(c.rateLimitReset, 0)) + time.Second
		if wait > 0 {
			log.Printf("GitHub rate limit reached, waiting %s", wait.Round(time.Second))
			select {
			case <-time.After(wait):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request: %w", err)
	}

	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.rateLimitRemaining = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.rateLimitReset = n
		}
	}
	return resp, nil
}
