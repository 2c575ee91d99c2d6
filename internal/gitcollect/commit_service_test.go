package gitcollect

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/machinebox/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockGraphQLClient simulates the behavior of the GraphQL client.
type MockGraphQLClient struct {
	mock.Mock
}

func (m *MockGraphQLClient) Run(ctx context.Context, req *graphql.Request, respData interface{}) error {
	args := m.Called(ctx, req, respData)
	return args.Error(0)
}

// MockHTTPClient simulates the behavior of the HTTP client.
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) != nil {
		return args.Get(0).(*http.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func fastRetries(t *testing.T) {
	t.Helper()
	original := retryDelay
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = original })
}

func commitDetailsResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestFetchCommitsSince_Success(t *testing.T) {
	mockGraphQL := new(MockGraphQLClient)
	mockGraphQL.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		resp := args.Get(2).(*commitHistoryResponse)
		resp.Repository.DefaultBranchRef.Target.History.Nodes = []struct {
			Oid     string `json:"oid"`
			Message string `json:"message"`
			Author  struct {
				Name  string    `json:"name"`
				Email string    `json:"email"`
				Date  time.Time `json:"date"`
			} `json:"author"`
			Additions int `json:"additions"`
			Deletions int `json:"deletions"`
		}{
			{
				Oid:       "abc123",
				Message:   "fix: null pointer",
				Additions: 10,
				Deletions: 2,
			},
		}
		resp.Repository.DefaultBranchRef.Target.History.Nodes[0].Author.Name = "alice"
		resp.Repository.DefaultBranchRef.Target.History.Nodes[0].Author.Date = time.Now()
	})

	mockHTTP := new(MockHTTPClient)
	mockHTTP.On("Do", mock.Anything).Return(commitDetailsResponse(`{
		"files": [
			{"filename": "internal/db/mongodb.go"},
			{"filename": "server/server.go"}
		]
	}`), nil)

	collector := NewCollector(mockGraphQL, mockHTTP, "token")
	commits, err := collector.FetchCommitsSince(context.Background(), "acme/demo", 24*time.Hour)

	assert.NoError(t, err)
	assert.Len(t, commits, 1)
	assert.Equal(t, "abc123", commits[0].SHA)
	assert.Equal(t, "fix: null pointer", commits[0].Message)
	assert.Equal(t, "alice", commits[0].Author)
	assert.Equal(t, "acme/demo", commits[0].Repository)
	assert.Equal(t, []string{"internal/db/mongodb.go", "server/server.go"}, commits[0].Files)
	assert.Equal(t, 10, commits[0].LinesAdded)
	assert.Equal(t, 2, commits[0].LinesRemoved)
}

func TestFetchCommitsSince_EmptyWindow(t *testing.T) {
	mockGraphQL := new(MockGraphQLClient)
	mockGraphQL.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	collector := NewCollector(mockGraphQL, new(MockHTTPClient), "token")
	commits, err := collector.FetchCommitsSince(context.Background(), "acme/demo", 2*time.Hour)

	assert.NoError(t, err)
	assert.NotNil(t, commits)
	assert.Empty(t, commits)
}

func TestFetchCommitsSince_InvalidRepository(t *testing.T) {
	collector := NewCollector(new(MockGraphQLClient), new(MockHTTPClient), "token")

	commits, err := collector.FetchCommitsSince(context.Background(), "not-a-repo", time.Hour)
	assert.Nil(t, commits)

	var collErr *CollectionError
	assert.ErrorAs(t, err, &collErr)
	assert.Contains(t, err.Error(), "invalid repository")
}

func TestFetchCommitsSince_RetryExhaustion(t *testing.T) {
	fastRetries(t)

	mockGraphQL := new(MockGraphQLClient)
	mockGraphQL.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("upstream down"))

	collector := NewCollector(mockGraphQL, new(MockHTTPClient), "token")
	commits, err := collector.FetchCommitsSince(context.Background(), "acme/demo", time.Hour)

	assert.Nil(t, commits)
	var collErr *CollectionError
	assert.ErrorAs(t, err, &collErr)
	assert.Equal(t, "collection_error", collErr.Kind())
	mockGraphQL.AssertNumberOfCalls(t, "Run", 3)
}

func TestFetchCommitFiles_NonOKStatus(t *testing.T) {
	fastRetries(t)

	mockHTTP := new(MockHTTPClient)
	mockHTTP.On("Do", mock.Anything).Return(&http.Response{
		StatusCode: http.StatusUnauthorized,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil)

	collector := NewCollector(new(MockGraphQLClient), mockHTTP, "token")
	files, err := collector.fetchCommitFiles(context.Background(), "acme", "demo", "abc123")

	assert.Nil(t, files)
	var collErr *CollectionError
	assert.ErrorAs(t, err, &collErr)
	assert.Equal(t, http.StatusUnauthorized, collErr.Status)
	// 401 will not resolve with retries.
	mockHTTP.AssertNumberOfCalls(t, "Do", 1)
}

func TestFetchCommitFiles_RetriesOnRateLimit(t *testing.T) {
	fastRetries(t)

	mockHTTP := new(MockHTTPClient)
	mockHTTP.On("Do", mock.Anything).Return(&http.Response{
		StatusCode: http.StatusTooManyRequests,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil).Once()
	mockHTTP.On("Do", mock.Anything).Return(commitDetailsResponse(`{"files":[{"filename":"a.go"}]}`), nil).Once()

	collector := NewCollector(new(MockGraphQLClient), mockHTTP, "token")
	files, err := collector.fetchCommitFiles(context.Background(), "acme", "demo", "abc123")

	assert.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, files)
	mockHTTP.AssertNumberOfCalls(t, "Do", 2)
}

func TestCheckRateLimit_Success(t *testing.T) {
	mockHTTP := new(MockHTTPClient)
	mockHTTP.On("Do", mock.Anything).Return(commitDetailsResponse(`{
		"resources": {"core": {"remaining": 4321}}
	}`), nil)

	collector := NewCollector(new(MockGraphQLClient), mockHTTP, "token")
	remaining, err := collector.CheckRateLimit(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 4321, remaining)
}

func TestCheckRateLimit_Unreachable(t *testing.T) {
	mockHTTP := new(MockHTTPClient)
	mockHTTP.On("Do", mock.Anything).Return(nil, errors.New("dial tcp: timeout"))

	collector := NewCollector(new(MockGraphQLClient), mockHTTP, "token")
	_, err := collector.CheckRateLimit(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "github unreachable")
}
