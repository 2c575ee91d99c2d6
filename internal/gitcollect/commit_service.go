package gitcollect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
)

const (
	githubGraphQLEndpoint = "https://api.github.com/graphql"
	githubRESTEndpoint    = "https://api.github.com"

	maxAttempts = 3
	pageSize    = 100
)

// GraphQLClient defines the interface for the GraphQL client so it can be
// mocked in tests.
type GraphQLClient interface {
	Run(ctx context.Context, req *graphql.Request, respData interface{}) error
}

// HTTPClient defines the interface for the HTTP client used for REST calls.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// retryDelay is the base backoff between attempts; swapped in tests.
var retryDelay = 500 * time.Millisecond

// Collector fetches commit activity for a repository over a lookback window.
type Collector struct {
	graphqlClient GraphQLClient
	httpClient    HTTPClient
	token         string
}

func NewCollector(graphqlClient GraphQLClient, httpClient HTTPClient, token string) *Collector {
	if graphqlClient == nil {
		graphqlClient = graphql.NewClient(githubGraphQLEndpoint)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Collector{graphqlClient: graphqlClient, httpClient: httpClient, token: token}
}

type commitHistoryResponse struct {
	Repository struct {
		DefaultBranchRef struct {
			Target struct {
				History struct {
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
					Nodes []struct {
						Oid     string `json:"oid"`
						Message string `json:"message"`
						Author  struct {
							Name  string    `json:"name"`
							Email string    `json:"email"`
							Date  time.Time `json:"date"`
						} `json:"author"`
						Additions int `json:"additions"`
						Deletions int `json:"deletions"`
					} `json:"nodes"`
				} `json:"history"`
			} `json:"target"`
		} `json:"defaultBranchRef"`
	} `json:"repository"`
}

// FetchCommitsSince returns all commits on the default branch whose timestamp
// falls within [now-window, now]. Pagination is followed transparently; an
// empty window is a valid empty result, not an error.
func (c *Collector) FetchCommitsSince(ctx context.Context, repository string, window time.Duration) ([]CommitRecord, error) {
	owner, name, err := splitRepository(repository)
	if err != nil {
		return nil, &CollectionError{Repository: repository, Err: err}
	}

	since := time.Now().Add(-window).UTC()
	commits := []CommitRecord{}
	cursor := ""

	for {
		resp, err := c.fetchHistoryPage(ctx, owner, name, since, cursor)
		if err != nil {
			return nil, err
		}

		history := resp.Repository.DefaultBranchRef.Target.History
		for _, node := range history.Nodes {
			files, err := c.fetchCommitFiles(ctx, owner, name, node.Oid)
			if err != nil {
				return nil, err
			}
			commits = append(commits, CommitRecord{
				SHA:          node.Oid,
				Message:      node.Message,
				Author:       node.Author.Name,
				AuthorEmail:  node.Author.Email,
				Timestamp:    node.Author.Date,
				Repository:   repository,
				Files:        files,
				LinesAdded:   node.Additions,
				LinesRemoved: node.Deletions,
			})
		}

		if !history.PageInfo.HasNextPage {
			break
		}
		cursor = history.PageInfo.EndCursor
	}

	return commits, nil
}

func (c *Collector) fetchHistoryPage(ctx context.Context, owner, name string, since time.Time, cursor string) (*commitHistoryResponse, error) {
	req := graphql.NewRequest(`
	query ($owner: String!, $name: String!, $since: GitTimestamp!, $cursor: String, $pageSize: Int!) {
	  repository(owner: $owner, name: $name) {
	    defaultBranchRef {
	      target {
	        ... on Commit {
	          history(first: $pageSize, since: $since, after: $cursor) {
	            pageInfo {
	              hasNextPage
	              endCursor
	            }
	            nodes {
	              oid
	              message
	              author {
	                name
	                email
	                date
	              }
	              additions
	              deletions
	            }
	          }
	        }
	      }
	    }
	  }
	}`)

	req.Var("owner", owner)
	req.Var("name", name)
	req.Var("since", since.Format(time.RFC3339))
	req.Var("pageSize", pageSize)
	if cursor != "" {
		req.Var("cursor", cursor)
	} else {
		req.Var("cursor", (*string)(nil))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	var respData commitHistoryResponse
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = c.graphqlClient.Run(ctx, req, &respData)
		if lastErr == nil {
			return &respData, nil
		}
		select {
		case <-ctx.Done():
			return nil, &CollectionError{Repository: owner + "/" + name, Err: ctx.Err()}
		case <-time.After(retryDelay * time.Duration(1<<attempt)):
		}
	}
	return nil, &CollectionError{
		Repository: owner + "/" + name,
		Err:        fmt.Errorf("failed to fetch commit history: %w", lastErr),
	}
}

// fetchCommitFiles lists the files touched by one commit via the REST API;
// the GraphQL commit history does not expose per-file paths.
func (c *Collector) fetchCommitFiles(ctx context.Context, owner, name, sha string) ([]string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/commits/%s", githubRESTEndpoint, owner, name, sha)

	var lastErr error
	lastStatus := 0
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &CollectionError{Repository: owner + "/" + name, Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			files, status, err := decodeCommitFiles(resp)
			if err == nil {
				return files, nil
			}
			lastErr = err
			lastStatus = status
			// Client errors other than rate limiting will not resolve with retries.
			if status >= 400 && status < 500 && status != http.StatusTooManyRequests && status != http.StatusForbidden {
				break
			}
		}

		select {
		case <-ctx.Done():
			return nil, &CollectionError{Repository: owner + "/" + name, Err: ctx.Err()}
		case <-time.After(retryDelay * time.Duration(1<<attempt)):
		}
	}
	return nil, &CollectionError{
		Repository: owner + "/" + name,
		Status:     lastStatus,
		Err:        fmt.Errorf("failed to fetch commit details: %w", lastErr),
	}
}

func decodeCommitFiles(resp *http.Response) ([]string, int, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Files []struct {
			Filename string `json:"filename"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode commit details: %w", err)
	}

	files := make([]string, 0, len(payload.Files))
	for _, f := range payload.Files {
		files = append(files, f.Filename)
	}
	return files, resp.StatusCode, nil
}

// CheckRateLimit probes the GitHub REST rate-limit endpoint. Used by the
// health check to report reachability without running a full collection.
func (c *Collector) CheckRateLimit(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubRESTEndpoint+"/rate_limit", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("github unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("github rate limit check returned status %d", resp.StatusCode)
	}

	var payload struct {
		Resources struct {
			Core struct {
				Remaining int `json:"remaining"`
			} `json:"core"`
		} `json:"resources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode rate limit response: %w", err)
	}
	return payload.Resources.Core.Remaining, nil
}

func splitRepository(repository string) (owner, name string, err error) {
	parts := strings.SplitN(repository, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, want owner/name", repository)
	}
	return parts[0], parts[1], nil
}
